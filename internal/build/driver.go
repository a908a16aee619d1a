// Package build orchestrates the indexing pipeline: scan, tokenize,
// dedup, accumulate, spill, merge (spec.md §2's Driver).
package build

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kittclouds/webdex/internal/config"
	"github.com/kittclouds/webdex/internal/corpus"
	"github.com/kittclouds/webdex/pkg/accumulator"
	"github.com/kittclouds/webdex/pkg/merger"
	"github.com/kittclouds/webdex/pkg/segment"
	"github.com/kittclouds/webdex/pkg/simhash"
	"github.com/kittclouds/webdex/pkg/tokenizer"
)

// FinalIndexName is the filename the merger writes under outputDir.
const FinalIndexName = "final_index.jsonl"

// Stats summarizes a completed build.
type Stats struct {
	DocumentsScanned int
	DocumentsIndexed int
	DocumentsSkipped int // near-duplicate; malformed files are dropped by the scan and not counted
	SegmentsWritten  int
	DistinctTerms    int
	FinalIndexPath   string
}

// Build runs the full pipeline over corpusDir and writes the final index
// to outputDir/FinalIndexName. Partial segments are written alongside it
// and left on disk for inspection (spec.md §7) — callers may remove
// outputDir's partial_index_*.jsonl files once satisfied.
func Build(cfg config.Config, corpusDir, outputDir string, logger *slog.Logger) (Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Stats{}, fmt.Errorf("build: create output dir: %w", err)
	}

	docs, err := corpus.Scan(corpusDir, logger)
	if err != nil {
		return Stats{}, fmt.Errorf("build: scan corpus: %w", err)
	}

	tok := tokenizer.New(cfg.FilterStopwords)
	dedup := simhash.NewDetector(cfg.SimhashWindow, cfg.SimhashHammingThreshold, cfg.JaccardThreshold)
	acc := accumulator.New()
	spiller := segment.NewSpiller(outputDir)

	var segmentPaths []string
	stats := Stats{DocumentsScanned: len(docs)}

	for _, doc := range docs {
		if !dedup.Check(doc.DocID, doc.Content) {
			logger.Debug("skipping near-duplicate document", "doc", doc.DocID)
			stats.DocumentsSkipped++
			continue
		}

		tokens := tok.Tokenize(doc.Content)
		acc.AddDocument(doc.DocID, tokens)
		stats.DocumentsIndexed++

		if segment.ShouldSpill(acc, cfg.ChunkSize, cfg.TokenCeiling) {
			path, err := spiller.Spill(acc)
			if err != nil {
				return stats, fmt.Errorf("build: %w", errors.Join(ErrSegmentWrite, err))
			}
			logger.Info("wrote partial segment", "path", path, "segment", spiller.Count())
			segmentPaths = append(segmentPaths, path)
		}
	}

	if !acc.Empty() {
		path, err := spiller.Spill(acc)
		if err != nil {
			return stats, fmt.Errorf("build: %w", errors.Join(ErrSegmentWrite, err))
		}
		logger.Info("wrote final partial segment", "path", path, "segment", spiller.Count())
		segmentPaths = append(segmentPaths, path)
	}

	stats.SegmentsWritten = len(segmentPaths)
	stats.DistinctTerms = len(acc.DocFrequency())

	finalPath := filepath.Join(outputDir, FinalIndexName)
	if len(segmentPaths) == 0 {
		// Nothing to index, but still emit a well-formed (empty) final
		// index so Open succeeds rather than reporting "not built".
		if err := os.WriteFile(finalPath, nil, 0o644); err != nil {
			return stats, fmt.Errorf("build: write empty final index: %w", err)
		}
		stats.FinalIndexPath = finalPath
		return stats, nil
	}

	if err := merger.Merge(segmentPaths, acc.DocFrequency(), stats.DocumentsIndexed, finalPath); err != nil {
		return stats, fmt.Errorf("build: %w", errors.Join(ErrMergeFailed, err))
	}
	logger.Info("merged final index", "path", finalPath, "segments", len(segmentPaths))

	stats.FinalIndexPath = finalPath
	return stats, nil
}

// ErrSegmentWrite is fatal: a partial-segment write failed. Already-written
// segments are preserved on disk for inspection, per spec.md §7.
var ErrSegmentWrite = errors.New("build: partial segment write failed")

// ErrMergeFailed wraps a fatal error from the merge stage (missing segment
// or document-frequency inconsistency).
var ErrMergeFailed = errors.New("build: merge failed")
