package rope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestChangeSet_ComposeApply is spec.md's S1: two ChangeSets composed then
// applied must equal applying them in sequence.
func TestChangeSet_ComposeApply(t *testing.T) {
	doc := New("hello world")

	a := NewChangeSet(doc.LenChars()).Retain(5).Insert(",").Retain(6)
	mid, ok := a.Apply(doc)
	assert.True(t, ok)
	assert.Equal(t, "hello, world", mid.String())

	b := NewChangeSet(mid.LenChars()).Delete(6).Retain(mid.LenChars() - 6)
	sequential, ok := b.Apply(mid)
	assert.True(t, ok)
	assert.Equal(t, " world", sequential.String())

	composed := a.Compose(b)
	direct, ok := composed.Apply(doc)
	assert.True(t, ok)
	assert.Equal(t, sequential.String(), direct.String())
}

// TestChangeSet_Invert is spec.md's S2: inverting a ChangeSet and applying
// it to the post-document must recover the original document.
func TestChangeSet_Invert(t *testing.T) {
	doc := New("the quick brown fox")

	cs := NewChangeSet(doc.LenChars()).Retain(4).Delete(5).Insert("slow").Retain(10)
	edited, ok := cs.Apply(doc)
	assert.True(t, ok)
	assert.Equal(t, "the slow brown fox", edited.String())

	inv := cs.Invert(doc)
	restored, ok := inv.Apply(edited)
	assert.True(t, ok)
	assert.Equal(t, doc.String(), restored.String())
}

// TestChangeSet_MapPos is spec.md's S3: a position tracked across an edit
// resolves to where that same logical point now sits.
func TestChangeSet_MapPos(t *testing.T) {
	doc := New("hello world")
	cs := NewChangeSet(doc.LenChars()).Retain(6).Insert("beautiful ").Retain(5)

	assert.Equal(t, 0, cs.MapPos(0, AssocBefore))
	assert.Equal(t, 6, cs.MapPos(6, AssocBefore))
	assert.Equal(t, 16, cs.MapPos(6, AssocAfter))
	assert.Equal(t, 17, cs.MapPos(7, AssocBefore))
}

// TestChangeSet_MapPos_AcrossDelete covers MapPos association behaviour
// when the tracked position falls inside a deleted span.
func TestChangeSet_MapPos_AcrossDelete(t *testing.T) {
	doc := New("hello world")
	cs := NewChangeSet(doc.LenChars()).Retain(6).Delete(5)

	assert.Equal(t, 6, cs.MapPos(6, AssocBefore))
	assert.Equal(t, 6, cs.MapPos(8, AssocBefore))
	assert.Equal(t, 6, cs.MapPos(11, AssocBefore))
}

// TestProperty_ApplyLengthMatchesLenAfter is property 1: applying a
// ChangeSet to a document of Len() chars always yields a document of
// LenAfter() chars.
func TestProperty_ApplyLengthMatchesLenAfter(t *testing.T) {
	docs := []string{"", "a", "hello world", "multi\nline\ntext"}
	edits := []func(*ChangeSet){
		func(cs *ChangeSet) { cs.Retain(cs.Len()) },
		func(cs *ChangeSet) { cs.Insert("prefix-") },
		func(cs *ChangeSet) {
			if cs.Len() > 0 {
				cs.Delete(1).Retain(cs.Len() - 1)
			}
		},
	}
	for _, d := range docs {
		doc := New(d)
		for _, edit := range edits {
			cs := NewChangeSet(doc.LenChars())
			edit(cs)
			result, ok := cs.Apply(doc)
			assert.True(t, ok)
			assert.Equal(t, cs.LenAfter(), result.LenChars())
		}
	}
}

// TestProperty_ComposeAssociative is property 2: (a.Compose(b)).Compose(c)
// produces the same document as a.Compose(b.Compose(c)).
func TestProperty_ComposeAssociative(t *testing.T) {
	doc := New("hello world")

	a := NewChangeSet(doc.LenChars()).Retain(5).Insert(",").Retain(6)
	mid1, _ := a.Apply(doc)

	b := NewChangeSet(mid1.LenChars()).Delete(1).Retain(mid1.LenChars() - 1)
	mid2, _ := b.Apply(mid1)

	c := NewChangeSet(mid2.LenChars()).Retain(mid2.LenChars()).Insert("!")

	left := a.Compose(b).Compose(c)
	right := a.Compose(b.Compose(c))

	leftResult, ok := left.Apply(doc)
	assert.True(t, ok)
	rightResult, ok := right.Apply(doc)
	assert.True(t, ok)
	assert.Equal(t, leftResult.String(), rightResult.String())
}

// TestProperty_InvertInvolution is property 3: inverting twice (against
// the appropriate documents) recovers the original ChangeSet's effect.
func TestProperty_InvertInvolution(t *testing.T) {
	doc := New("abcdefgh")
	cs := NewChangeSet(doc.LenChars()).Retain(2).Delete(3).Insert("XYZ").Retain(3)
	edited, _ := cs.Apply(doc)

	inv := cs.Invert(doc)
	invInv := inv.Invert(edited)

	result, ok := invInv.Apply(doc)
	assert.True(t, ok)
	assert.Equal(t, edited.String(), result.String())
}

// TestProperty_MapPosMonotonic is property 4: mapping two positions that
// satisfy p1 <= p2 through the same ChangeSet preserves their order.
func TestProperty_MapPosMonotonic(t *testing.T) {
	doc := New("the quick brown fox jumps")
	cs := NewChangeSet(doc.LenChars()).Retain(4).Delete(6).Insert("slow").Retain(15)

	positions := []int{0, 3, 4, 7, 10, 15, 25}
	mapped := make([]int, len(positions))
	for i, p := range positions {
		mapped[i] = cs.MapPos(p, AssocAfter)
	}
	for i := 1; i < len(mapped); i++ {
		assert.GreaterOrEqual(t, mapped[i], mapped[i-1])
	}
}

// TestProperty_UpdatePositionsMatchesMapPos is property 5: batched
// UpdatePositions (sorted input) agrees with calling MapPos individually.
func TestProperty_UpdatePositionsMatchesMapPos(t *testing.T) {
	doc := New("the quick brown fox jumps over the lazy dog")
	cs := NewChangeSet(doc.LenChars()).Retain(4).Delete(6).Insert("slow").Retain(29).Insert("!").Retain(4)

	positions := []TrackedPos{
		{Pos: 0, Assoc: AssocBefore},
		{Pos: 4, Assoc: AssocAfter},
		{Pos: 9, Assoc: AssocBefore},
		{Pos: 14, Assoc: AssocAfter},
		{Pos: 30, Assoc: AssocBefore},
		{Pos: 43, Assoc: AssocAfter},
	}
	batched := cs.UpdatePositions(positions)
	for i, tp := range positions {
		assert.Equal(t, cs.MapPos(tp.Pos, tp.Assoc), batched[i])
	}
}

func TestChangeSet_ChangesIter(t *testing.T) {
	doc := New("hello world")
	cs := NewChangeSet(doc.LenChars()).Retain(6).Delete(5).Insert("there")

	changes := cs.ChangesIter()
	assert.Len(t, changes, 1)
	assert.Equal(t, 6, changes[0].From)
	assert.Equal(t, 11, changes[0].To)
	assert.True(t, changes[0].HasText)
	assert.Equal(t, "there", changes[0].Text)
}

func TestChangeSet_IsEmpty(t *testing.T) {
	doc := New("hello")
	cs := NewChangeSet(doc.LenChars()).Retain(5)
	assert.True(t, cs.IsEmpty())

	cs2 := NewChangeSet(doc.LenChars()).Retain(2).Insert("x").Retain(3)
	assert.False(t, cs2.IsEmpty())
}
