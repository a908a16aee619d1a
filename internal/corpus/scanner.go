// Package corpus scans the input corpus directory tree: files carrying a
// structured payload of {url, content}, per spec.md §6.
package corpus

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Document is one corpus entry after loading.
type Document struct {
	// DocID is the canonical URL, or the filesystem path when the file
	// has no "url" field.
	DocID string
	// Content is the HTML body, or "" when the file has no "content"
	// field — an empty-HTML document that produces no postings but may
	// still be counted toward N.
	Content string
}

// rawDocument mirrors the corpus file's on-disk shape.
type rawDocument struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Scan walks dir recursively and decodes every JSON file it finds into a
// Document. Corrupt files (invalid JSON) are logged and skipped — build
// continues (spec.md §7).
func Scan(dir string, logger *slog.Logger) ([]Document, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var docs []Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != ".json" {
			return nil
		}

		doc, ok := loadDocument(path, logger)
		if !ok {
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func loadDocument(path string, logger *slog.Logger) (Document, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("skipping unreadable corpus file", "path", path, "error", err)
		return Document{}, false
	}

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("skipping malformed corpus file", "path", path, "error", err)
		return Document{}, false
	}

	docID := raw.URL
	if docID == "" {
		docID = path
	}

	return Document{DocID: docID, Content: raw.Content}, true
}
