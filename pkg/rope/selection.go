package rope

import "sort"

// Range is a char-index span {anchor, head}. from = min(anchor, head),
// to = max(anchor, head). Semantics are inclusive on the left, exclusive
// on the right, except zero-width ranges, which overlap the left edge of
// any range sharing that position. Direction is Forward when head >=
// anchor, else Backward.
type Range struct {
	Anchor, Head int
}

// NewRange builds a Range from explicit anchor/head.
func NewRange(anchor, head int) Range { return Range{Anchor: anchor, Head: head} }

// Point builds a zero-width cursor Range at pos.
func Point(pos int) Range { return Range{Anchor: pos, Head: pos} }

// From returns min(Anchor, Head).
func (r Range) From() int {
	if r.Anchor < r.Head {
		return r.Anchor
	}
	return r.Head
}

// To returns max(Anchor, Head).
func (r Range) To() int {
	if r.Anchor > r.Head {
		return r.Anchor
	}
	return r.Head
}

// Len returns To() - From().
func (r Range) Len() int { return r.To() - r.From() }

// IsCursor reports whether the range is zero-width.
func (r Range) IsCursor() bool { return r.Anchor == r.Head }

// IsForward reports whether Head >= Anchor.
func (r Range) IsForward() bool { return r.Head >= r.Anchor }

// IsBackward reports whether Head < Anchor.
func (r Range) IsBackward() bool { return r.Head < r.Anchor }

// Contains reports whether pos lies in [From, To).
func (r Range) Contains(pos int) bool { return pos >= r.From() && pos < r.To() }

// Overlaps implements the exact spec rule: ranges sharing a left edge
// always overlap (so zero-width ranges register at insertion points),
// otherwise the usual half-open interval overlap test applies.
func (r Range) Overlaps(other Range) bool {
	return r.From() == other.From() || (r.To() > other.From() && other.To() > r.From())
}

// Cursor returns the char index the block cursor visually occupies: for
// a forward (or zero-width) range this is Head; for a backward range the
// cursor sits on the grapheme immediately before Head, so block-cursor
// rendering lands on the correct side of the selection.
func (r Range) Cursor(text *Rope) int {
	if r.Head <= r.Anchor {
		return r.Head
	}
	if text == nil || r.Head == 0 {
		if r.Head > 0 {
			return r.Head - 1
		}
		return r.Head
	}
	clusters := graphemeClusters(text)
	return PrevBoundary(clusters, r.Head-1)
}

// WithDirection returns a Range covering the same [from,to) span but with
// the requested direction.
func (r Range) WithDirection(forward bool) Range {
	if forward {
		return Range{Anchor: r.From(), Head: r.To()}
	}
	return Range{Anchor: r.To(), Head: r.From()}
}

// Slice returns the text covered by the range.
func (r Range) Slice(text *Rope) (string, error) { return text.Slice(r.From(), r.To()) }

// Extend grows the range so [from, to) is included, preserving direction.
func (r Range) Extend(from, to int) Range {
	if from > to {
		from, to = to, from
	}
	newFrom := min(r.From(), from)
	newTo := max(r.To(), to)
	if r.IsBackward() {
		return Range{Anchor: newTo, Head: newFrom}
	}
	return Range{Anchor: newFrom, Head: newTo}
}

// Merge combines r and other: if both are backward, the result is
// backward (anchor=max, head=min); otherwise the result spans
// [min(from), max(to)) forward.
func (r Range) Merge(other Range) Range {
	if r.IsBackward() && other.IsBackward() {
		return Range{Anchor: max(r.To(), other.To()), Head: min(r.From(), other.From())}
	}
	return Range{Anchor: min(r.From(), other.From()), Head: max(r.To(), other.To())}
}

// Map updates anchor and head through cs with direction-sensitive
// association: zero-width ranges use After for both; forward ranges use
// After on anchor and Before on head; backward ranges use Before on
// anchor and After on head.
func (r Range) Map(cs *ChangeSet) Range {
	var anchorAssoc, headAssoc Assoc
	switch {
	case r.Anchor == r.Head:
		anchorAssoc, headAssoc = AssocAfter, AssocAfter
	case r.IsForward():
		anchorAssoc, headAssoc = AssocAfter, AssocBefore
	default:
		anchorAssoc, headAssoc = AssocBefore, AssocAfter
	}
	return Range{
		Anchor: cs.MapPos(r.Anchor, anchorAssoc),
		Head:   cs.MapPos(r.Head, headAssoc),
	}
}

func graphemeClusters(text *Rope) []Grapheme {
	it, err := text.Graphemes(0, text.LenChars())
	if err != nil {
		return nil
	}
	return it.Collect()
}

// GraphemeAligned snaps each end to a grapheme boundary in a
// direction-preserving way; zero-width ranges snap to the previous
// boundary.
func (r Range) GraphemeAligned(text *Rope) Range {
	clusters := graphemeClusters(text)
	if r.Anchor == r.Head {
		p := PrevBoundary(clusters, r.Head)
		return Range{Anchor: p, Head: p}
	}
	from := PrevBoundary(clusters, r.From())
	to := NextBoundary(clusters, r.To())
	if r.IsBackward() {
		return Range{Anchor: to, Head: from}
	}
	return Range{Anchor: from, Head: to}
}

// MinWidth1 advances Head to the next grapheme boundary if the range is
// zero-width and not at end of document; otherwise it is unchanged.
func (r Range) MinWidth1(text *Rope) Range {
	if r.Anchor != r.Head {
		return r
	}
	if r.Head >= text.LenChars() {
		return r
	}
	it, err := text.Graphemes(r.Head, text.LenChars())
	if err != nil || !it.Next() {
		return r
	}
	g := it.Current()
	return Range{Anchor: r.Anchor, Head: g.StartPos + g.CharLen}
}

// PutCursor implements block-cursor semantics: when extending, the anchor
// may shift by one grapheme if the requested cursor position crosses it,
// so the 1-width block stays on the correct side of the selection.
func (r Range) PutCursor(text *Rope, charIdx int, extend bool) Range {
	if !extend {
		return Point(charIdx).MinWidth1(text)
	}
	anchor := r.Anchor
	clusters := graphemeClusters(text)
	switch {
	case r.Head >= r.Anchor && charIdx < r.Anchor:
		anchor = NextBoundary(clusters, r.Anchor)
	case r.Head < r.Anchor && charIdx >= r.Anchor:
		anchor = PrevBoundary(clusters, r.Anchor)
	}
	return Range{Anchor: anchor, Head: charIdx}.MinWidth1(text)
}

// Selection is a non-empty ordered sequence of Ranges plus a primary
// index, maintained sorted-by-from and non-overlapping by normalize.
type Selection struct {
	ranges       []Range
	primaryIndex int
}

func normalize(ranges []Range, primaryIndex int) ([]Range, int) {
	type indexed struct {
		r    Range
		orig int
	}
	tagged := make([]indexed, len(ranges))
	for i, r := range ranges {
		tagged[i] = indexed{r, i}
	}
	sort.SliceStable(tagged, func(i, j int) bool { return tagged[i].r.From() < tagged[j].r.From() })

	result := make([]Range, 0, len(ranges))
	origToFinal := make(map[int]int, len(ranges))
	for _, it := range tagged {
		if len(result) > 0 && result[len(result)-1].Overlaps(it.r) {
			result[len(result)-1] = result[len(result)-1].Merge(it.r)
			origToFinal[it.orig] = len(result) - 1
			continue
		}
		result = append(result, it.r)
		origToFinal[it.orig] = len(result) - 1
	}
	return result, origToFinal[primaryIndex]
}

func newNormalized(ranges []Range, primaryIndex int) *Selection {
	if len(ranges) == 0 {
		panic("rope: Selection: ranges must be non-empty")
	}
	if primaryIndex < 0 || primaryIndex >= len(ranges) {
		panic("rope: Selection: primary index out of bounds")
	}
	norm, newPrimary := normalize(ranges, primaryIndex)
	return &Selection{ranges: norm, primaryIndex: newPrimary}
}

// NewSelection builds a Selection from one or more ranges (defaulting to
// a single cursor at 0 when none are given), primary index 0.
func NewSelection(ranges ...Range) *Selection {
	if len(ranges) == 0 {
		ranges = []Range{Point(0)}
	}
	return newNormalized(ranges, 0)
}

// NewSelectionWithPrimary builds a Selection with an explicit primary
// index (validated against the pre-normalization slice).
func NewSelectionWithPrimary(ranges []Range, primaryIndex int) *Selection {
	if len(ranges) == 0 {
		return newNormalized([]Range{Point(0)}, 0)
	}
	return newNormalized(ranges, primaryIndex)
}

// Primary returns the primary range.
func (s *Selection) Primary() Range { return s.ranges[s.primaryIndex] }

// PrimaryIndex returns the primary range's index.
func (s *Selection) PrimaryIndex() int { return s.primaryIndex }

// Len returns the number of ranges.
func (s *Selection) Len() int { return len(s.ranges) }

// Iter returns a copy of the ranges in order.
func (s *Selection) Iter() []Range {
	out := make([]Range, len(s.ranges))
	copy(out, s.ranges)
	return out
}

// Push appends a range, renormalizing, and makes it primary.
func (s *Selection) Push(r Range) *Selection {
	ranges := append(append([]Range{}, s.ranges...), r)
	return newNormalized(ranges, len(ranges)-1)
}

// Remove drops the range at index i; panics if it is the only range.
func (s *Selection) Remove(i int) *Selection {
	if len(s.ranges) <= 1 {
		panic("rope: Selection: cannot remove the only range")
	}
	ranges := append(append([]Range{}, s.ranges[:i]...), s.ranges[i+1:]...)
	primary := s.primaryIndex
	switch {
	case primary == i:
		if primary >= len(ranges) {
			primary = len(ranges) - 1
		}
	case primary > i:
		primary--
	}
	return newNormalized(ranges, primary)
}

// Replace substitutes the range at index i, renormalizing.
func (s *Selection) Replace(i int, r Range) *Selection {
	ranges := append([]Range{}, s.ranges...)
	ranges[i] = r
	return newNormalized(ranges, s.primaryIndex)
}

// Map maps every range through cs.
func (s *Selection) Map(cs *ChangeSet) *Selection {
	ranges := make([]Range, len(s.ranges))
	for i, r := range s.ranges {
		ranges[i] = r.Map(cs)
	}
	return newNormalized(ranges, s.primaryIndex)
}

// Transform applies f to every range.
func (s *Selection) Transform(f func(Range) Range) *Selection {
	ranges := make([]Range, len(s.ranges))
	for i, r := range s.ranges {
		ranges[i] = f(r)
	}
	return newNormalized(ranges, s.primaryIndex)
}

// EnsureInvariants aligns every range to grapheme boundaries and enforces
// width >= 1 grapheme except at end of document.
func (s *Selection) EnsureInvariants(text *Rope) *Selection {
	ranges := make([]Range, len(s.ranges))
	for i, r := range s.ranges {
		ranges[i] = r.GraphemeAligned(text).MinWidth1(text)
	}
	return newNormalized(ranges, s.primaryIndex)
}

// Cursors returns the block-cursor char index of every range.
func (s *Selection) Cursors(text *Rope) []int {
	out := make([]int, len(s.ranges))
	for i, r := range s.ranges {
		out[i] = r.Cursor(text)
	}
	return out
}

// Fragments returns the text covered by every range.
func (s *Selection) Fragments(text *Rope) []string {
	out := make([]string, len(s.ranges))
	for i, r := range s.ranges {
		frag, _ := r.Slice(text)
		out[i] = frag
	}
	return out
}
