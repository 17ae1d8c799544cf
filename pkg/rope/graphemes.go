package rope

import (
	"github.com/clipperhouse/uax29/graphemes"
)

// Grapheme is one user-perceived character (UAX #29 grapheme cluster)
// within a rope slice.
type Grapheme struct {
	Text     string
	StartPos int // absolute char index into the rope the iterator was built from
	CharLen  int
}

// GraphemeIter walks the grapheme clusters of a rope slice in order.
type GraphemeIter struct {
	base      int
	clusters  []Grapheme
	index     int
}

// Graphemes returns an iterator over the grapheme clusters of the char
// range [from, to) of r. Positions on returned Graphemes are absolute char
// indices into r.
func (r *Rope) Graphemes(from, to int) (*GraphemeIter, error) {
	text, err := r.Slice(from, to)
	if err != nil {
		return nil, err
	}
	segments := graphemes.SegmentAllString(text)
	clusters := make([]Grapheme, 0, len(segments))
	pos := from
	for _, seg := range segments {
		n := charCount(seg)
		clusters = append(clusters, Grapheme{Text: seg, StartPos: pos, CharLen: n})
		pos += n
	}
	return &GraphemeIter{base: from, clusters: clusters}, nil
}

func charCount(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

// Next advances the iterator, returning false once exhausted.
func (it *GraphemeIter) Next() bool {
	if it.index >= len(it.clusters) {
		return false
	}
	it.index++
	return true
}

// Current returns the grapheme most recently advanced to via Next.
func (it *GraphemeIter) Current() Grapheme { return it.clusters[it.index-1] }

// Collect returns all remaining graphemes as a slice, from the current
// position to the end.
func (it *GraphemeIter) Collect() []Grapheme {
	rest := it.clusters[it.index:]
	it.index = len(it.clusters)
	return rest
}

// PrevBoundary returns the char index of the grapheme boundary at or
// before pos (clamped to the slice this iterator covers).
func PrevBoundary(clusters []Grapheme, pos int) int {
	best := 0
	if len(clusters) > 0 {
		best = clusters[0].StartPos
	}
	for _, g := range clusters {
		if g.StartPos > pos {
			break
		}
		best = g.StartPos
	}
	return best
}

// NextBoundary returns the char index of the grapheme boundary at or after
// pos, or the end of the covered slice if pos is past the last boundary.
func NextBoundary(clusters []Grapheme, pos int) int {
	for _, g := range clusters {
		if g.StartPos >= pos {
			return g.StartPos
		}
	}
	if len(clusters) == 0 {
		return pos
	}
	last := clusters[len(clusters)-1]
	return last.StartPos + last.CharLen
}
