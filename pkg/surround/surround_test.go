package surround

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coreseekdev/coretext/pkg/rope"
)

// TestSurroundPos_QuotePair is spec.md's S5: text
// "some 'quoted text' on this 'line'\n'and this one'", cursor between the
// first pair, n=1 -> returns the two positions of the outer quotes of
// 'quoted text'.
func TestSurroundPos_QuotePair(t *testing.T) {
	text := "some 'quoted text' on this 'line'\n'and this one'"
	doc := rope.New(text)
	cursor := 13 // inside "quoted text", between the surrounding quotes
	sel := rope.NewSelection(rope.Point(cursor))

	quote := '\''
	positions, err := SurroundPos(doc, sel, &quote, 1)
	assert.NoError(t, err)
	assert.Equal(t, []int{5, 17}, positions)
}

func TestSurroundPos_NestedQuoteSkipsOneLevel(t *testing.T) {
	text := "some 'nested 'quoted' text' on this 'line'\n'and this one'"
	doc := rope.New(text)
	cursor := 16 // inside the inner 'quoted'
	sel := rope.NewSelection(rope.Point(cursor))

	quote := '\''
	positions, err := SurroundPos(doc, sel, &quote, 2)
	assert.NoError(t, err)
	assert.Equal(t, []int{5, 26}, positions)
}

func TestSurroundPos_CursorOnAmbiguousQuote(t *testing.T) {
	text := "some 'nested 'quoted' text' on this 'line'\n'and this one'"
	doc := rope.New(text)
	cursor := 13 // directly on the inner opening quote
	sel := rope.NewSelection(rope.Point(cursor))

	quote := '\''
	_, err := SurroundPos(doc, sel, &quote, 1)
	assert.ErrorIs(t, err, ErrCursorOnAmbiguousPair)
}

func TestSurroundPos_PlainScanParens(t *testing.T) {
	doc := rope.New("(some) (chars)")
	sel := rope.NewSelection(rope.Point(2)) // inside "some"

	positions, err := SurroundPos(doc, sel, nil, 1)
	assert.NoError(t, err)
	assert.Equal(t, []int{0, 5}, positions)
}

func TestSurroundPos_PlainScanNoMatchBails(t *testing.T) {
	doc := rope.New("(a)c)")
	sel := rope.NewSelection(rope.NewRange(0, 5))

	_, err := SurroundPos(doc, sel, nil, 1)
	assert.ErrorIs(t, err, ErrPairNotFound)
}

func TestSurroundPos_CursorOverlapAcrossRanges(t *testing.T) {
	doc := rope.New("[some]")
	sel := rope.NewSelection(rope.Point(1), rope.Point(2))

	open := '['
	_, err := SurroundPos(doc, sel, &open, 1)
	assert.ErrorIs(t, err, ErrCursorOverlap)
}

func TestNthMatchingTags_Simple(t *testing.T) {
	doc := rope.New("<html> test </html>")
	sel := rope.NewSelection(rope.Point(8)) // inside " test "

	matches, err := NthMatchingTags(doc, sel, 1)
	assert.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.Equal(t, "html", matches[0].Name)
	assert.Equal(t, "html", matches[1].Name)
	assert.Equal(t, 1, matches[0].Range.From())
	assert.Equal(t, 5, matches[0].Range.To())
	assert.Equal(t, 14, matches[1].Range.From())
	assert.Equal(t, 18, matches[1].Range.To())
}

func TestNthMatchingTags_UnclosedTagFails(t *testing.T) {
	doc := rope.New("this is an <div> Unclosed tag")
	sel := rope.NewSelection(rope.Point(1))

	_, err := NthMatchingTags(doc, sel, 1)
	assert.ErrorIs(t, err, ErrPairNotFound)
}

func TestNthMatchingTags_SelfClosingIgnored(t *testing.T) {
	doc := rope.New("<div> <img /> <span> Text </span> </div>")
	// Cursor sits inside the <span> tag's own name, after the
	// self-closing <img />. The nearest enclosing pair with a matching
	// name on both sides is <div>...</div>: <img /> never closes so it
	// contributes no forward tag, and <span> only closes going forward,
	// never opens going backward from this cursor.
	sel := rope.NewSelection(rope.Point(17))

	matches, err := NthMatchingTags(doc, sel, 1)
	assert.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.Equal(t, "div", matches[0].Name)
	assert.Equal(t, "div", matches[1].Name)
	assert.Equal(t, 1, matches[0].Range.From())
	assert.Equal(t, 4, matches[0].Range.To())
	assert.Equal(t, 36, matches[1].Range.From())
	assert.Equal(t, 39, matches[1].Range.To())
}
