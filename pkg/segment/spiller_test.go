package segment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kittclouds/webdex/pkg/accumulator"
)

func TestSpillRefusesEmptyAccumulator(t *testing.T) {
	dir := t.TempDir()
	s := NewSpiller(dir)
	a := accumulator.New()

	if _, err := s.Spill(a); err != ErrEmptyAccumulator {
		t.Errorf("Spill(empty) error = %v, want ErrEmptyAccumulator", err)
	}
}

func TestSpillWritesDecodableSegment(t *testing.T) {
	dir := t.TempDir()
	s := NewSpiller(dir)
	a := accumulator.New()
	a.AddDocument("A", []string{"alpha", "beta", "alpha"})
	a.AddDocument("B", []string{"alpha"})

	path, err := s.Spill(a)
	if err != nil {
		t.Fatalf("Spill: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("segment written outside dir: %s", path)
	}
	if !a.Empty() {
		t.Error("accumulator should be cleared after spill")
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open segment: %v", err)
	}
	defer f.Close()

	seen := map[string]PartialRecord{}
	err = ReadPartialSegment(f, func(rec PartialRecord) error {
		seen[rec.Term] = rec
		return nil
	})
	if err != nil {
		t.Fatalf("ReadPartialSegment: %v", err)
	}

	if seen["alpha"].Postings["A"].TF != 2 {
		t.Errorf("alpha/A tf = %d, want 2", seen["alpha"].Postings["A"].TF)
	}
	if seen["alpha"].Postings["B"].TF != 1 {
		t.Errorf("alpha/B tf = %d, want 1", seen["alpha"].Postings["B"].TF)
	}
	if seen["beta"].Postings["A"].TF != 1 {
		t.Errorf("beta/A tf = %d, want 1", seen["beta"].Postings["A"].TF)
	}
}

func TestShouldSpillTriggers(t *testing.T) {
	a := accumulator.New()
	if ShouldSpill(a, 1, 1) {
		t.Error("empty accumulator should never trigger a spill")
	}

	a.AddDocument("A", []string{"x"})
	if !ShouldSpill(a, 1, 1000) {
		t.Error("chunk-size trigger should fire at docsSinceSpill >= chunkSize")
	}

	b := accumulator.New()
	b.AddDocument("A", []string{"x", "y", "z"})
	if !ShouldSpill(b, 1000, 3) {
		t.Error("token-ceiling trigger should fire at distinct-term count >= ceiling")
	}
}
