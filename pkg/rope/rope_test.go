package rope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRope_BasicRoundtrip(t *testing.T) {
	r := New("hello, 世界\nsecond line\nthird")
	assert.Equal(t, "hello, 世界\nsecond line\nthird", r.String())
	assert.Equal(t, len([]rune("hello, 世界\nsecond line\nthird")), r.LenChars())
}

func TestRope_Empty(t *testing.T) {
	r := Empty()
	assert.Equal(t, 0, r.LenChars())
	assert.Equal(t, 0, r.LenBytes())
	assert.Equal(t, 1, r.LineCount())
	assert.Equal(t, "", r.String())
}

func TestRope_SliceAndConcat(t *testing.T) {
	r := New("the quick brown fox")
	s, err := r.Slice(4, 9)
	assert.NoError(t, err)
	assert.Equal(t, "quick", s)

	a := New("foo")
	b := New("bar")
	c := Concat(a, b)
	assert.Equal(t, "foobar", c.String())
}

func TestRope_SliceOutOfRange(t *testing.T) {
	r := New("abc")
	_, err := r.Slice(2, 10)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = r.Slice(-1, 2)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestRope_CharByteLineConversion(t *testing.T) {
	r := New("a世b\nc\n")
	b, err := r.CharToByte(2)
	assert.NoError(t, err)
	assert.Equal(t, 1+len("世"), b)

	c, err := r.ByteToChar(b)
	assert.NoError(t, err)
	assert.Equal(t, 2, c)

	line, err := r.CharToLine(5)
	assert.NoError(t, err)
	assert.Equal(t, 1, line)

	assert.Equal(t, 0, r.LineToChar(0))
	assert.Equal(t, 4, r.LineToChar(1))
	assert.Equal(t, 6, r.LineToChar(2))
}

func TestRope_Line(t *testing.T) {
	r := New("one\r\ntwo\nthree")
	l0, err := r.Line(0)
	assert.NoError(t, err)
	assert.Equal(t, "one", l0)

	l1, err := r.Line(1)
	assert.NoError(t, err)
	assert.Equal(t, "two", l1)

	l2, err := r.Line(2)
	assert.NoError(t, err)
	assert.Equal(t, "three", l2)
}

func TestRope_LargeTextSplitsLeaves(t *testing.T) {
	big := make([]byte, 0, maxLeafBytes*4)
	for i := 0; i < maxLeafBytes*4; i++ {
		big = append(big, byte('a'+i%26))
	}
	r := New(string(big))
	assert.Equal(t, len(big), r.LenChars())
	s, err := r.Slice(10, 20)
	assert.NoError(t, err)
	assert.Equal(t, string(big[10:20]), s)
}
