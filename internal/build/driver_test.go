package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kittclouds/webdex/internal/config"
	"github.com/kittclouds/webdex/pkg/query"
	"github.com/kittclouds/webdex/pkg/store"
	"github.com/kittclouds/webdex/pkg/tokenizer"
)

func writeCorpusDoc(t *testing.T, dir, name, url, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	body := `{"url":"` + url + `","content":` + jsonString(content) + `}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func jsonString(s string) string {
	// Minimal JSON-string escaper sufficient for the fixtures used here
	// (no quotes or backslashes in the test HTML content).
	return `"` + s + `"`
}

// TestBuildS1 runs the spec.md §8 S1 fixture end-to-end: scan -> tokenize
// -> accumulate -> spill -> merge -> open -> search.
func TestBuildS1(t *testing.T) {
	corpusDir := t.TempDir()
	outDir := t.TempDir()

	writeCorpusDoc(t, corpusDir, "a.json", "A", "<p>alpha beta alpha</p>")
	writeCorpusDoc(t, corpusDir, "b.json", "B", "<p>alpha gamma</p>")

	cfg := config.Default()
	stats, err := Build(cfg, corpusDir, outDir, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if stats.DocumentsIndexed != 2 {
		t.Fatalf("DocumentsIndexed = %d, want 2", stats.DocumentsIndexed)
	}

	s, err := store.Open(stats.FinalIndexPath)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer s.Close()

	engine := query.NewEngine(s, false)

	res, err := engine.Search("alpha")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Docs) != 2 {
		t.Errorf("alpha -> %v, want both docs (df=N)", res.Docs)
	}

	res, err = engine.Search("beta")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Docs) != 1 || res.Docs[0].DocID != "A" {
		t.Errorf("beta -> %v, want [A]", res.Docs)
	}

	res, err = engine.Search("beta gamma")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Docs) != 0 {
		t.Errorf("beta gamma -> %v, want empty", res.Docs)
	}
}

// TestBuildS3 exercises near-duplicate suppression: two documents with
// byte-identical content but distinct URLs; the second is dropped, N=1.
func TestBuildS3(t *testing.T) {
	corpusDir := t.TempDir()
	outDir := t.TempDir()

	content := "<p>duplicate content appears twice under different urls</p>"
	writeCorpusDoc(t, corpusDir, "a.json", "A", content)
	writeCorpusDoc(t, corpusDir, "b.json", "B", content)

	stats, err := Build(config.Default(), corpusDir, outDir, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if stats.DocumentsIndexed != 1 {
		t.Fatalf("DocumentsIndexed = %d, want 1 (second is a near-duplicate)", stats.DocumentsIndexed)
	}

	s, err := store.Open(stats.FinalIndexPath)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer s.Close()

	postings, err := s.Postings(tokenizer.Reduce("duplicate"))
	if err != nil {
		t.Fatalf("Postings: %v", err)
	}
	if len(postings) != 1 {
		t.Errorf("expected exactly one surviving doc in postings, got %v", postings)
	}
	if _, ok := postings["A"]; !ok {
		t.Errorf("expected the first-seen URL A to survive, got %v", postings)
	}
}

// TestBuildS5RebuildReopenStable rebuilds and reopens, expecting identical results.
func TestBuildS5RebuildReopenStable(t *testing.T) {
	corpusDir := t.TempDir()
	writeCorpusDoc(t, corpusDir, "a.json", "A", "<p>stable searchable text here</p>")

	out1 := t.TempDir()
	out2 := t.TempDir()

	stats1, err := Build(config.Default(), corpusDir, out1, nil)
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	stats2, err := Build(config.Default(), corpusDir, out2, nil)
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}

	s1, err := store.Open(stats1.FinalIndexPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s1.Close()
	s2, err := store.Open(stats2.FinalIndexPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	e1 := query.NewEngine(s1, false)
	e2 := query.NewEngine(s2, false)

	r1, err := e1.Search("searchable")
	if err != nil {
		t.Fatal(err)
	}
	r2, err := e2.Search("searchable")
	if err != nil {
		t.Fatal(err)
	}

	if len(r1.Docs) != len(r2.Docs) || (len(r1.Docs) > 0 && r1.Docs[0].DocID != r2.Docs[0].DocID) {
		t.Errorf("rebuild/reopen mismatch: %v vs %v", r1.Docs, r2.Docs)
	}
}

// TestBuildEmptyCorpusProducesOpenableIndex guards the edge case where no
// documents survive at all: Open must still succeed against a well-formed
// empty index rather than reporting ErrIndexNotBuilt.
func TestBuildEmptyCorpusProducesOpenableIndex(t *testing.T) {
	corpusDir := t.TempDir()
	outDir := t.TempDir()

	stats, err := Build(config.Default(), corpusDir, outDir, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	s, err := store.Open(stats.FinalIndexPath)
	if err != nil {
		t.Fatalf("store.Open on empty corpus build: %v", err)
	}
	defer s.Close()

	if s.TotalDocs() != 0 {
		t.Errorf("TotalDocs() = %d, want 0", s.TotalDocs())
	}
}
