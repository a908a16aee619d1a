// Package simhash implements the 64-bit SimHash fingerprint and the
// windowed near-duplicate detector described in spec.md §4.2.
package simhash

import (
	"strings"
)

// Fingerprint computes the 64-bit SimHash of rawHTML. Text is tokenized the
// same way as the tokenizer's alphanumeric-run extraction, but without
// morphological reduction — SimHash operates on surface forms.
func Fingerprint(rawHTML string) uint64 {
	var vec [64]int

	for _, word := range Tokens(rawHTML) {
		h := WordHash(word)
		for i := 0; i < 64; i++ {
			if h&(1<<uint(i)) != 0 {
				vec[i]++
			} else {
				vec[i]--
			}
		}
	}

	var fp uint64
	for i := 0; i < 64; i++ {
		if vec[i] > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// Tokens extracts maximal lowercase alphanumeric runs from rawHTML, the
// same splitting rule as the tokenizer but unstemmed.
func Tokens(rawHTML string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range rawHTML {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			if r >= 'A' && r <= 'Z' {
				r = r - 'A' + 'a'
			}
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return words
}

// WordHash is the portable 64-bit word hash specified in spec.md §4.2:
// h := 0; for each byte b of the UTF-8 encoding, h = (h*31 + b) mod 2^64.
// Deliberately not FNV/MD5/etc — the spec fixes this exact recurrence so
// fingerprints are reproducible across independent implementations.
func WordHash(word string) uint64 {
	var h uint64
	for i := 0; i < len(word); i++ {
		h = h*31 + uint64(word[i])
	}
	return h
}

// HammingDistance returns the number of differing bits between two
// fingerprints.
func HammingDistance(a, b uint64) int {
	x := a ^ b
	count := 0
	for x != 0 {
		x &= x - 1
		count++
	}
	return count
}

// Jaccard returns the Jaccard similarity of two token sets.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// TokenSet builds a deduplicated token set from rawHTML, suitable for
// Jaccard comparison.
func TokenSet(rawHTML string) map[string]struct{} {
	tokens := Tokens(rawHTML)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
