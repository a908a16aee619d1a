// Package store implements the on-disk final-index reader: a memory-mapped
// file plus an in-memory term->offset directory, per spec.md §4.6.
package store

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
	"github.com/kittclouds/webdex/pkg/segment"
)

// ErrIndexNotBuilt is returned by Open when the final index file does not
// exist yet. The caller must build the index first; Open never
// auto-rebuilds (spec.md §7).
var ErrIndexNotBuilt = errors.New("store: final index not built")

// Store serves posting lists from a read-only memory-mapped final index
// file. It is safe for concurrent Postings calls: each call slices the
// mapping independently rather than sharing a read cursor (spec.md §5).
type Store struct {
	file      *os.File
	data      mmap.MMap
	directory map[string]int64 // term -> byte offset of its line
	totalDocs int

	logger *slog.Logger
	once   sync.Once
	closed bool
}

// Option configures Open.
type Option func(*Store)

// WithLogger overrides the default slog.Logger (which is slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open memory-maps path read-only and performs a single sequential scan to
// build the term->offset directory. All subsequent Postings calls are
// random-access reads against the mapping; this scan is the only
// sequential pass over the file (spec.md §4.6, §5).
func Open(path string, opts ...Option) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotBuilt, path)
		}
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("store: stat %s: %w", path, err)
	}

	s := &Store{
		file:      f,
		directory: make(map[string]int64),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if info.Size() == 0 {
		s.data = mmap.MMap{}
	} else {
		data, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("store: mmap %s: %w", path, err)
		}
		s.data = data
	}

	if err := s.scan(); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// scan performs the single sequential pass building the term directory.
func (s *Store) scan() error {
	scanner := bufio.NewScanner(bytes.NewReader([]byte(s.data)))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var offset int64
	docIDs := make(map[string]struct{})

	for scanner.Scan() {
		line := scanner.Bytes()
		lineStart := offset
		offset += int64(len(line)) + 1 // +1 for the newline the scanner stripped

		if len(line) == 0 {
			continue
		}
		rec, err := segment.DecodeFinalLine(line)
		if err != nil {
			s.logger.Warn("skipping corrupt line during directory scan", "error", err)
			continue
		}
		s.directory[rec.Term] = lineStart
		for docID := range rec.Postings {
			docIDs[docID] = struct{}{}
		}
	}
	s.totalDocs = len(docIDs)
	return scanner.Err()
}

// PostingList maps DocID to its Posting for one term.
type PostingList map[string]segment.FinalPosting

// Postings returns the posting list for term. If term is not present in
// the directory, it returns an empty list and nil error — a normal,
// expected outcome per spec.md §7, not a failure. If the line at the
// recorded offset fails to decode, it logs a warning and returns an empty
// list rather than failing the whole query.
func (s *Store) Postings(term string) (PostingList, error) {
	offset, ok := s.directory[term]
	if !ok {
		return PostingList{}, nil
	}

	// Slice the mapping directly; no shared cursor, safe for concurrent
	// callers.
	line := readLine(s.data, offset)

	rec, err := segment.DecodeFinalLine(line)
	if err != nil {
		s.logger.Warn("index corruption at term", "term", term, "error", err)
		return PostingList{}, nil
	}
	return PostingList(rec.Postings), nil
}

// TotalDocs returns N, the total number of distinct documents observed
// across all posting lists in the index.
func (s *Store) TotalDocs() int {
	return s.totalDocs
}

// HasTerm reports whether term appears in the directory, without reading
// its posting list.
func (s *Store) HasTerm(term string) bool {
	_, ok := s.directory[term]
	return ok
}

// readLine slices out the bytes of the line starting at offset, up to but
// not including the next newline (or EOF).
func readLine(data []byte, offset int64) []byte {
	if offset < 0 || offset >= int64(len(data)) {
		return nil
	}
	rest := data[offset:]
	if idx := bytes.IndexByte(rest, '\n'); idx >= 0 {
		return rest[:idx]
	}
	return rest
}

// Close releases the memory mapping and file handle. Idempotent — safe to
// call more than once.
func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		s.closed = true
		if s.data != nil && len(s.data) > 0 {
			err = s.data.Unmap()
		}
		if cerr := s.file.Close(); err == nil {
			err = cerr
		}
	})
	return err
}
