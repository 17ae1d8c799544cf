package rope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransaction_ChangeApply(t *testing.T) {
	doc := New("hello world")
	tx := Change(doc, []Change{
		{From: 0, To: 5, Text: "goodbye", HasText: true},
		{From: 6, To: 11, Text: "there", HasText: true},
	})
	out, ok := tx.Apply(doc)
	assert.True(t, ok)
	assert.Equal(t, "goodbye there", out.String())
}

func TestTransaction_ChangePanicsOnOverlap(t *testing.T) {
	doc := New("hello world")
	assert.Panics(t, func() {
		Change(doc, []Change{
			{From: 0, To: 5, Text: "x", HasText: true},
			{From: 3, To: 6, Text: "y", HasText: true},
		})
	})
}

func TestTransaction_ChangeIgnoreOverlapping(t *testing.T) {
	doc := New("hello world")
	tx := ChangeIgnoreOverlapping(doc, []Change{
		{From: 0, To: 5, Text: "hi", HasText: true},
		{From: 3, To: 6, Text: "zz", HasText: true}, // overlaps, dropped
		{From: 6, To: 11, Text: "there", HasText: true},
	})
	out, ok := tx.Apply(doc)
	assert.True(t, ok)
	assert.Equal(t, "hi there", out.String())
}

func TestTransaction_DeleteRangesMerge(t *testing.T) {
	doc := New("0123456789")
	tx := DeleteRanges(doc, []Deletion{
		{From: 2, To: 4},
		{From: 3, To: 6},
		{From: 8, To: 9},
	})
	out, ok := tx.Apply(doc)
	assert.True(t, ok)
	assert.Equal(t, "01679", out.String())
}

func TestTransaction_InsertAt(t *testing.T) {
	doc := New("ab cd")
	sel := NewSelection(Point(0), Point(3))
	tx := InsertAt(doc, sel, "X")
	out, ok := tx.Apply(doc)
	assert.True(t, ok)
	assert.Equal(t, "Xab Xcd", out.String())
}

func TestTransaction_InsertAtEOF(t *testing.T) {
	doc := New("abc")
	tx := InsertAtEOF(doc, "def")
	out, ok := tx.Apply(doc)
	assert.True(t, ok)
	assert.Equal(t, "abcdef", out.String())
}

func TestTransaction_ApplyLengthMismatchFails(t *testing.T) {
	doc := New("abc")
	cs := NewChangeSet(5).Retain(5)
	tx := NewTransaction(cs)
	_, ok := tx.Apply(doc)
	assert.False(t, ok)
}

func TestTransaction_InvertRoundTrip(t *testing.T) {
	doc := New("the quick brown fox")
	tx := Change(doc, []Change{{From: 4, To: 9, Text: "slow", HasText: true}})
	edited, ok := tx.Apply(doc)
	assert.True(t, ok)

	inv := tx.Invert(doc)
	restored, ok := inv.Apply(edited)
	assert.True(t, ok)
	assert.Equal(t, doc.String(), restored.String())
}

func TestTransaction_WithSelectionAndCompose(t *testing.T) {
	doc := New("abcdef")
	tx1 := Change(doc, []Change{{From: 0, To: 0, Text: "X", HasText: true}}).
		WithSelection(NewSelection(Point(1)))
	mid, ok := tx1.Apply(doc)
	assert.True(t, ok)

	tx2 := Change(mid, []Change{{From: 1, To: 1, Text: "Y", HasText: true}}).
		WithSelection(NewSelection(Point(2)))

	composed := tx1.Compose(tx2)
	out, ok := composed.Apply(doc)
	assert.True(t, ok)
	assert.Equal(t, "XYabcdef", out.String())
	sel, ok := composed.Selection()
	assert.True(t, ok)
	assert.Equal(t, 2, sel.Primary().From())
}
