package segment

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kittclouds/webdex/pkg/accumulator"
)

// ErrEmptyAccumulator is returned by Spill when the accumulator holds no
// terms — a spill must never write an empty segment (spec.md §4.4).
var ErrEmptyAccumulator = errors.New("segment: refusing to spill an empty accumulator")

// Spiller writes accumulator snapshots to disk as partial segments and
// resets the accumulator's term index.
type Spiller struct {
	dir   string
	count int
}

// NewSpiller creates a Spiller that writes numbered partial segments under
// dir.
func NewSpiller(dir string) *Spiller {
	return &Spiller{dir: dir}
}

// ShouldSpill reports whether the chunk-size or token-ceiling trigger has
// been crossed, per spec.md §4.4.
func ShouldSpill(a *accumulator.Accumulator, chunkSize, tokenCeiling int) bool {
	if a.Empty() {
		return false
	}
	return a.DocsSinceSpill() >= chunkSize || a.TermCount() >= tokenCeiling
}

// Spill writes the accumulator's current term index to a new partial
// segment file and clears it, preserving df. Returns the path written.
func (s *Spiller) Spill(a *accumulator.Accumulator) (string, error) {
	if a.Empty() {
		return "", ErrEmptyAccumulator
	}

	path := filepath.Join(s.dir, fmt.Sprintf("partial_index_%d.jsonl", s.count))

	if err := s.writeSegment(path, a.Index()); err != nil {
		return "", fmt.Errorf("segment: spill %s: %w", path, err)
	}

	s.count++
	a.Reset()
	return path, nil
}

func (s *Spiller) writeSegment(path string, index map[string]map[string]int) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)
	for term, docs := range index {
		postings := make(map[string]PartialPosting, len(docs))
		for docID, tf := range docs {
			postings[docID] = PartialPosting{TF: tf}
		}
		line, encErr := EncodePartialLine(term, postings)
		if encErr != nil {
			return encErr
		}
		if _, werr := w.Write(line); werr != nil {
			return werr
		}
		if werr := w.WriteByte('\n'); werr != nil {
			return werr
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

// Count returns the number of segments written so far.
func (s *Spiller) Count() int {
	return s.count
}
