// Package merger implements the k-way fold of partial segments into a
// single final index with TF-IDF weights, per spec.md §4.5.
package merger

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/kittclouds/webdex/pkg/segment"
)

// ErrMissingSegment is fatal: a segment path the caller expects to exist
// could not be opened at merge time (spec.md §7).
var ErrMissingSegment = errors.New("merger: missing partial segment")

// ErrDFInconsistent is fatal: a term survived the fold but has no entry in
// the cumulative document-frequency map, which spec.md §4.5 calls an
// internal bug.
var ErrDFInconsistent = errors.New("merger: term present in postings but absent from document frequencies")

// Merge streams segmentPaths, folds them into a single in-memory
// term->docID->tf map (spec.md §4.5 step 1 — the target corpus scale makes
// a full in-memory merge acceptable), computes TF-IDF per posting using
// df and totalDocs, and writes the result to outputPath as one
// term-per-line sorted by term for a stable, reproducible byte layout.
func Merge(segmentPaths []string, df map[string]int, totalDocs int, outputPath string) error {
	final := make(map[string]map[string]int)

	for _, path := range segmentPaths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMissingSegment, path, err)
		}

		err = segment.ReadPartialSegment(f, func(rec segment.PartialRecord) error {
			docs, ok := final[rec.Term]
			if !ok {
				docs = make(map[string]int)
				final[rec.Term] = docs
			}
			for docID, p := range rec.Postings {
				docs[docID] += p.TF
			}
			return nil
		})
		closeErr := f.Close()
		if err != nil {
			return fmt.Errorf("merger: reading segment %s: %w", path, err)
		}
		if closeErr != nil {
			return fmt.Errorf("merger: closing segment %s: %w", path, closeErr)
		}
	}

	terms := make([]string, 0, len(final))
	for term := range final {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	out, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("merger: create final index: %w", err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	for _, term := range terms {
		docs := final[term]

		dfTerm, ok := df[term]
		if !ok || dfTerm == 0 {
			return fmt.Errorf("%w: term %q", ErrDFInconsistent, term)
		}

		idf := IDF(totalDocs, dfTerm)

		postings := make(map[string]segment.FinalPosting, len(docs))
		for docID, tf := range docs {
			postings[docID] = segment.FinalPosting{
				TF:    tf,
				TFIDF: Weight(tf, idf),
			}
		}

		line, err := segment.EncodeFinalLine(term, postings)
		if err != nil {
			return fmt.Errorf("merger: encode term %q: %w", term, err)
		}
		if _, err := w.Write(line); err != nil {
			return fmt.Errorf("merger: write term %q: %w", term, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("merger: flush final index: %w", err)
	}
	return out.Sync()
}

// IDF computes log10(N/df). df is guaranteed >= 1 by the caller; when
// N == df, IDF is 0 (the term appears in every document).
func IDF(totalDocs, df int) float64 {
	if df <= 0 {
		return 0
	}
	return math.Log10(float64(totalDocs) / float64(df))
}

// Weight computes the sublinear TF-IDF weight (1 + log10(tf)) * idf.
// tf is guaranteed >= 1 by the invariant that zero-frequency postings are
// never stored.
func Weight(tf int, idf float64) float64 {
	if tf <= 0 {
		return 0
	}
	return (1 + math.Log10(float64(tf))) * idf
}
