// Package segment defines the on-disk record shapes shared by partial
// segments and the final index (spec.md §6), and the Spiller that writes
// partial segments.
package segment

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// PartialPosting is one document's raw term frequency within a partial
// segment. tf_idf is not meaningful until the merger computes it.
type PartialPosting struct {
	TF int `json:"tf"`
}

// FinalPosting is one document's posting in the final index: raw term
// frequency plus its computed TF-IDF weight.
type FinalPosting struct {
	TF    int     `json:"tf"`
	TFIDF float64 `json:"tf_idf"`
}

// PartialRecord is the one-term-per-line record written by the Spiller:
// {"<term>": {"<docID>": {"tf": <int>}, ...}}.
type PartialRecord struct {
	Term     string
	Postings map[string]PartialPosting
}

// FinalRecord is the one-term-per-line record written by the Merger:
// {"<term>": {"<docID>": {"tf": <int>, "tf_idf": <real>}, ...}}.
type FinalRecord struct {
	Term     string
	Postings map[string]FinalPosting
}

// EncodePartialLine marshals a single-key {term: postings} object,
// without a trailing newline.
func EncodePartialLine(term string, postings map[string]PartialPosting) ([]byte, error) {
	return json.Marshal(map[string]map[string]PartialPosting{term: postings})
}

// EncodeFinalLine marshals a single-key {term: postings} object, without a
// trailing newline.
func EncodeFinalLine(term string, postings map[string]FinalPosting) ([]byte, error) {
	return json.Marshal(map[string]map[string]FinalPosting{term: postings})
}

// DecodePartialLine parses one line of a partial segment into its term
// and posting list. Returns an error if the line is not a well-formed,
// single-key record.
func DecodePartialLine(line []byte) (PartialRecord, error) {
	var obj map[string]map[string]PartialPosting
	if err := json.Unmarshal(line, &obj); err != nil {
		return PartialRecord{}, fmt.Errorf("decode partial record: %w", err)
	}
	if len(obj) != 1 {
		return PartialRecord{}, fmt.Errorf("decode partial record: expected exactly one term key, got %d", len(obj))
	}
	for term, postings := range obj {
		return PartialRecord{Term: term, Postings: postings}, nil
	}
	panic("unreachable")
}

// DecodeFinalLine parses one line of the final index into its term and
// posting list.
func DecodeFinalLine(line []byte) (FinalRecord, error) {
	var obj map[string]map[string]FinalPosting
	if err := json.Unmarshal(line, &obj); err != nil {
		return FinalRecord{}, fmt.Errorf("decode final record: %w", err)
	}
	if len(obj) != 1 {
		return FinalRecord{}, fmt.Errorf("decode final record: expected exactly one term key, got %d", len(obj))
	}
	for term, postings := range obj {
		return FinalRecord{Term: term, Postings: postings}, nil
	}
	panic("unreachable")
}

// ReadPartialSegment streams every record of a partial segment file,
// tolerating empty lines per spec.md §6.
func ReadPartialSegment(r io.Reader, fn func(PartialRecord) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		rec, err := DecodePartialLine(line)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// ReadFinalIndex streams every record of a final index file, tolerating
// empty lines.
func ReadFinalIndex(r io.Reader, fn func(FinalRecord) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		rec, err := DecodeFinalLine(line)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return scanner.Err()
}
