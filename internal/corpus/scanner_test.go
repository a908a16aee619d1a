package corpus

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCorpusFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanUsesURLField(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "a.json", `{"url":"https://example.com/a","content":"<p>hello</p>"}`)

	docs, err := Scan(dir, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(docs) != 1 || docs[0].DocID != "https://example.com/a" {
		t.Errorf("got %v", docs)
	}
}

func TestScanFallsBackToPathWithoutURL(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "nested/b.json", `{"content":"<p>hi</p>"}`)

	docs, err := Scan(dir, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc, got %d", len(docs))
	}
	if docs[0].DocID != filepath.Join(dir, "nested/b.json") {
		t.Errorf("DocID = %s, want the file path", docs[0].DocID)
	}
}

func TestScanSkipsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "bad.json", `{not json`)
	writeCorpusFile(t, dir, "good.json", `{"url":"u","content":"<p>x</p>"}`)

	docs, err := Scan(dir, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(docs) != 1 || docs[0].DocID != "u" {
		t.Errorf("expected only the well-formed doc to survive, got %v", docs)
	}
}

func TestScanMissingContentIsEmptyHTML(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "nocontent.json", `{"url":"u"}`)

	docs, err := Scan(dir, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(docs) != 1 || docs[0].Content != "" {
		t.Errorf("expected empty content, got %v", docs)
	}
}
