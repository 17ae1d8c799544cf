package rope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSelection_NormalizeMerge is spec.md's S4: overlapping ranges merge
// and the result is sorted by From.
func TestSelection_NormalizeMerge(t *testing.T) {
	ranges := []Range{
		NewRange(10, 12),
		NewRange(6, 7),
		NewRange(4, 5),
		NewRange(3, 4),
		NewRange(0, 6),
		NewRange(7, 8),
		NewRange(9, 13),
		NewRange(13, 14),
	}
	sel := NewSelectionWithPrimary(ranges, 0)

	want := []Range{
		NewRange(0, 6),
		NewRange(6, 7),
		NewRange(7, 8),
		NewRange(9, 13),
		NewRange(13, 14),
	}
	assert.Equal(t, want, sel.Iter())
}

func TestSelection_NormalizeIdempotent(t *testing.T) {
	sel := NewSelectionWithPrimary([]Range{
		NewRange(0, 3), NewRange(2, 5), NewRange(10, 12),
	}, 1)
	once := sel.Iter()

	sel2 := NewSelectionWithPrimary(once, sel.PrimaryIndex())
	assert.Equal(t, once, sel2.Iter())
	assert.Equal(t, sel.PrimaryIndex(), sel2.PrimaryIndex())
}

func TestRange_MergeDirection(t *testing.T) {
	forward := NewRange(0, 5).Merge(NewRange(3, 8))
	assert.Equal(t, NewRange(0, 8), forward)

	backward := NewRange(5, 0).Merge(NewRange(8, 3))
	assert.Equal(t, NewRange(8, 0), backward)
}

func TestRange_Overlaps(t *testing.T) {
	assert.False(t, NewRange(0, 5).Overlaps(NewRange(5, 5)))
	assert.True(t, NewRange(0, 5).Overlaps(NewRange(4, 8)))
	assert.False(t, NewRange(0, 5).Overlaps(NewRange(5, 8)))
}

func TestRange_Map_DirectionSensitive(t *testing.T) {
	cs := NewChangeSet(10).Retain(4).Insert("XX").Retain(6)

	// forward range ending at the insertion point: the anchor (2) lies
	// before the insertion and is unaffected, and the head maps with Before
	// semantics, so it stays in front of the inserted text.
	fwd := NewRange(2, 4).Map(cs)
	assert.Equal(t, NewRange(2, 4), fwd)

	zero := NewRange(4, 4).Map(cs)
	assert.Equal(t, NewRange(6, 6), zero)
}

func TestSelection_EnsureInvariants_MinWidth(t *testing.T) {
	text := New("hello")
	sel := NewSelection(Point(2))
	sel = sel.EnsureInvariants(text)
	r := sel.Primary()
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 2, r.From())
}

func TestSelection_Push_Remove(t *testing.T) {
	sel := NewSelection(NewRange(0, 1))
	sel = sel.Push(NewRange(5, 6))
	assert.Equal(t, 2, sel.Len())
	assert.Equal(t, 1, sel.PrimaryIndex())

	sel = sel.Remove(1)
	assert.Equal(t, 1, sel.Len())
	assert.Equal(t, 0, sel.PrimaryIndex())
}

func TestRange_Cursor_BlockSemantics(t *testing.T) {
	text := New("hello")
	fwd := NewRange(0, 3)
	assert.Equal(t, 3, fwd.Cursor(text))

	back := NewRange(3, 0)
	assert.Equal(t, 0, back.Cursor(text))
}
