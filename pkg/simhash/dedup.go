package simhash

// entry records one accepted document's fingerprint and token set for
// Jaccard verification of future SimHash candidates.
type entry struct {
	docID       string
	fingerprint uint64
	tokens      map[string]struct{}
}

// Detector is a windowed near-duplicate filter: it only compares the
// document under test against the most recently accepted N documents, per
// spec.md §4.2. This is a locality heuristic, not a global one — two
// documents separated by more than the window may both be indexed, and
// spec.md §8 property 5 says that is allowed, not a bug.
type Detector struct {
	window           int
	hammingThreshold int
	jaccardThreshold float64

	recent []entry // ring, oldest first
}

// NewDetector creates a Detector with the given window size and
// thresholds.
func NewDetector(window, hammingThreshold int, jaccardThreshold float64) *Detector {
	return &Detector{
		window:           window,
		hammingThreshold: hammingThreshold,
		jaccardThreshold: jaccardThreshold,
	}
}

// IsDuplicate reports whether rawHTML is a near-duplicate of any of the
// most recently accepted documents. It does not mutate state.
func (d *Detector) IsDuplicate(rawHTML string) bool {
	fp := Fingerprint(rawHTML)
	tokens := TokenSet(rawHTML)
	return d.isDuplicateOf(fp, tokens)
}

func (d *Detector) isDuplicateOf(fp uint64, tokens map[string]struct{}) bool {
	for _, e := range d.recent {
		if HammingDistance(fp, e.fingerprint) < d.hammingThreshold {
			if Jaccard(tokens, e.tokens) > d.jaccardThreshold {
				return true
			}
		}
	}
	return false
}

// Accept records docID's fingerprint and token set, evicting the oldest
// entry if the window is full.
func (d *Detector) Accept(docID, rawHTML string) {
	fp := Fingerprint(rawHTML)
	tokens := TokenSet(rawHTML)
	d.accept(docID, fp, tokens)
}

func (d *Detector) accept(docID string, fp uint64, tokens map[string]struct{}) {
	d.recent = append(d.recent, entry{docID: docID, fingerprint: fp, tokens: tokens})
	if len(d.recent) > d.window {
		d.recent = d.recent[len(d.recent)-d.window:]
	}
}

// Check combines IsDuplicate and, if not a duplicate, Accept — the common
// call pattern during ingestion — computing the fingerprint and token set
// only once. It returns true if the document was accepted (i.e. is not a
// near-duplicate).
func (d *Detector) Check(docID, rawHTML string) bool {
	fp := Fingerprint(rawHTML)
	tokens := TokenSet(rawHTML)

	if d.isDuplicateOf(fp, tokens) {
		return false
	}
	d.accept(docID, fp, tokens)
	return true
}
