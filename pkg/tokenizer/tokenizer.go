// Package tokenizer turns raw HTML into the ordered term sequence the rest
// of the index is built from. The same Reduce function runs on the index
// and query paths, which is the invariant the retrieval system depends on.
package tokenizer

import (
	"strings"

	"github.com/kljensen/snowball/english"
	"github.com/orsinium-labs/stopwords"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// importantTags are concatenated in front of the body text, which has the
// effect of double-counting their words. This is intentional (spec.md §4.1,
// §9) and not a bug to be "fixed".
var importantTags = map[atom.Atom]bool{
	atom.H1:     true,
	atom.H2:     true,
	atom.H3:     true,
	atom.B:      true,
	atom.Strong: true,
}

// Tokenizer extracts and normalizes the term sequence of an HTML document.
type Tokenizer struct {
	filterStopwords bool
}

// New creates a Tokenizer. filterStopwords should match the same setting
// used when normalizing queries, or retrieval will silently diverge.
func New(filterStopwords bool) *Tokenizer {
	return &Tokenizer{filterStopwords: filterStopwords}
}

// Tokenize extracts title, important-text (h1/h2/h3/b/strong), and body
// regions from htmlContent, in that order, splits each on maximal
// alphanumeric runs, lowercases, and reduces every word with Reduce.
// Malformed HTML is tolerated — html.Parse never fails on malformed input,
// it just produces whatever tree it can.
func (t *Tokenizer) Tokenize(htmlContent string) []string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	var title strings.Builder
	var important strings.Builder
	var body strings.Builder
	walk(doc, &title, &important, &body, false)

	regions := []string{title.String(), important.String(), body.String()}

	var out []string
	for _, region := range regions {
		out = append(out, t.tokenizeRegion(region)...)
	}
	return out
}

// tokenizeRegion lowercases text, extracts maximal [a-zA-Z0-9]+ runs, and
// reduces each to its canonical form.
func (t *Tokenizer) tokenizeRegion(text string) []string {
	return Normalize(text, t.filterStopwords)
}

// Normalize is the plain, non-HTML-aware half of tokenization: lowercase,
// split on maximal [a-zA-Z0-9]+ runs, optionally drop stopwords, and reduce
// each word with Reduce. Tokenize calls this per extracted HTML region; the
// query engine calls it directly on raw query text, since a query string is
// never markup and must not be run through html.Parse (spec.md §4.7 step 1 —
// a literal substring like "<iostream>" must still yield the term
// "iostream", not be swallowed as an empty custom element).
func Normalize(text string, filterStopwords bool) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		if isAlphaNumASCII(r) {
			cur.WriteRune(toLowerASCII(r))
		} else {
			flush()
		}
	}
	flush()

	out := make([]string, 0, len(words))
	for _, w := range words {
		if filterStopwords && stopwords.EN.Contains(stopwords.Word(w)) {
			continue
		}
		out = append(out, Reduce(w))
	}
	return out
}

// Reduce is the single morphological reducer shared by the index and query
// paths: English Porter stemming via kljensen/snowball.
func Reduce(word string) string {
	return english.Stem(word, false)
}

func isAlphaNumASCII(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func toLowerASCII(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r - 'A' + 'a'
	}
	return r
}

// walk extracts text into title/important/body builders. inImportant is
// true while descending inside an important tag so nested text (e.g. a
// <b> inside an <h1>) is not double counted beyond the outer region.
func walk(n *html.Node, title, important, body *strings.Builder, inImportant bool) {
	if n == nil {
		return
	}

	switch n.Type {
	case html.TextNode:
		body.WriteString(n.Data)
		body.WriteByte(' ')
		if inImportant {
			important.WriteString(n.Data)
			important.WriteByte(' ')
		}
	case html.ElementNode:
		if n.DataAtom == atom.Title {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					title.WriteString(c.Data)
					title.WriteByte(' ')
				}
			}
			// Fall through to the normal recursion below so the title's
			// text also flows into body (the same double-count the
			// important tags get): original_source/indexer.py computes
			// body_text over the whole parsed document, title included.
		}
		if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return
		}
		if importantTags[n.DataAtom] {
			inImportant = true
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, title, important, body, inImportant)
	}
}
