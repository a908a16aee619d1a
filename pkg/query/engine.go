// Package query implements the conjunctive, cosine-ranked search over an
// open store.Store, per spec.md §4.7.
package query

import (
	"math"
	"sort"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/kittclouds/webdex/pkg/store"
	"github.com/kittclouds/webdex/pkg/tokenizer"
)

// scoreEpsilon avoids division by zero in the cosine denominator.
const scoreEpsilon = 1e-9

// Engine answers queries against an open Store.
type Engine struct {
	store           *store.Store
	filterStopwords bool
}

// NewEngine creates a query Engine over an already-open Store.
// filterStopwords must match the setting used to build the index, or
// retrieval silently diverges (the central tokenizer/query alignment
// invariant of spec.md §4.1).
func NewEngine(s *store.Store, filterStopwords bool) *Engine {
	return &Engine{store: s, filterStopwords: filterStopwords}
}

// Scored is one ranked result.
type Scored struct {
	DocID string
	Score float64
}

// Stats accompanies a search result with timing and candidate-set size,
// carried over from the original implementation's per-query timer
// (spec.md's original_source/search.py) as ambient observability.
type Stats struct {
	Elapsed        time.Duration
	CandidateCount int
}

// Result is the outcome of a Search call.
type Result struct {
	Docs  []Scored
	Stats Stats
}

// Search normalizes queryString with the same reducer used at index time,
// fetches each term's posting list, intersects them, and ranks the
// intersection by cosine similarity against the all-ones query vector.
// An empty or all-non-alphanumeric query, or a query with no intersecting
// documents, returns an empty Result with no error (spec.md §7 — "no
// results" is a normal outcome distinguished from an index error only by
// the returned error itself).
func (e *Engine) Search(queryString string) (Result, error) {
	start := time.Now()

	terms := normalize(queryString, e.filterStopwords)
	if len(terms) == 0 {
		return Result{Stats: Stats{Elapsed: time.Since(start)}}, nil
	}

	postingSets := make([]store.PostingList, len(terms))
	for i, t := range terms {
		p, err := e.store.Postings(t)
		if err != nil {
			return Result{}, err
		}
		postingSets[i] = p
		if len(p) == 0 {
			// Missing-term short circuit: contributes the empty set to
			// the intersection, so the whole query is empty.
			return Result{Stats: Stats{Elapsed: time.Since(start)}}, nil
		}
	}

	common := intersect(postingSets)
	if len(common) == 0 {
		return Result{Stats: Stats{Elapsed: time.Since(start)}}, nil
	}

	scored := make([]Scored, 0, len(common))
	queryNorm := math.Sqrt(float64(len(terms)))
	for _, docID := range common {
		var dot, docNormSq float64
		for _, p := range postingSets {
			w := p[docID].TFIDF
			dot += w
			docNormSq += w * w
		}
		docNorm := math.Sqrt(docNormSq)
		score := dot / (docNorm*queryNorm + scoreEpsilon)
		scored = append(scored, Scored{DocID: docID, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		// Deterministic tie-break: ascending lexicographic DocID.
		return scored[i].DocID < scored[j].DocID
	})

	return Result{
		Docs: scored,
		Stats: Stats{
			Elapsed:        time.Since(start),
			CandidateCount: len(common),
		},
	}, nil
}

// normalize lowercases, splits on non-alphanumeric runs, and reduces query
// terms with tokenizer.Normalize — the same plain splitter and the same
// Reduce function the tokenizer uses at index time, but never routed through
// html.Parse: a query is plain text, not markup, and parsing it as HTML
// would silently swallow substrings that happen to look like tags (spec.md
// §4.7 step 1). Results are deduplicated while preserving first-occurrence
// order: spec.md §4.7 step 2 fetches postings "for each distinct query
// term", and that order defines the query/doc vector component ordering.
func normalize(queryString string, filterStopwords bool) []string {
	all := tokenizer.Normalize(queryString, filterStopwords)

	seen := make(map[string]struct{}, len(all))
	terms := make([]string, 0, len(all))
	for _, t := range all {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	return terms
}

// intersect returns the DocIDs present in every posting list, using
// RoaringBitmap set intersection over a transient string<->uint32 mapping
// (a DocIDMapper + bitmap-AND) so wide conjunctive queries stay fast.
func intersect(lists []store.PostingList) []string {
	if len(lists) == 0 {
		return nil
	}

	mapper := newDocIDMapper()
	bitmaps := make([]*roaring.Bitmap, len(lists))
	for i, list := range lists {
		bm := roaring.New()
		for docID := range list {
			bm.Add(mapper.getOrAssign(docID))
		}
		bitmaps[i] = bm
	}

	result := bitmaps[0].Clone()
	for _, bm := range bitmaps[1:] {
		result.And(bm)
	}

	out := make([]string, 0, result.GetCardinality())
	it := result.Iterator()
	for it.HasNext() {
		out = append(out, mapper.getString(it.Next()))
	}
	return out
}

// docIDMapper maintains a bidirectional string DocID <-> uint32 mapping,
// scoped to a single query's intersection, since RoaringBitmap operates on
// uint32 values.
type docIDMapper struct {
	toUint32 map[string]uint32
	toString map[uint32]string
	nextID   uint32
}

func newDocIDMapper() *docIDMapper {
	return &docIDMapper{
		toUint32: make(map[string]uint32),
		toString: make(map[uint32]string),
	}
}

func (m *docIDMapper) getOrAssign(docID string) uint32 {
	if id, ok := m.toUint32[docID]; ok {
		return id
	}
	id := m.nextID
	m.nextID++
	m.toUint32[docID] = id
	m.toString[id] = docID
	return id
}

func (m *docIDMapper) getString(id uint32) string {
	return m.toString[id]
}
