package rope

import "unicode"

// isWordChar matches the word-character predicate shared by map_pos's
// AfterWord/BeforeWord association and the host-facing word-navigation
// helpers below: letters, digits, and underscore.
func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isSpace(r rune) bool { return unicode.IsSpace(r) }

// leadingWordChars returns the count of word chars at the start of s.
func leadingWordChars(s string) int {
	n := 0
	for _, r := range s {
		if !isWordChar(r) {
			break
		}
		n++
	}
	return n
}

// trailingWordChars returns the count of word chars at the end of s.
func trailingWordChars(s string) int {
	rs := []rune(s)
	n := 0
	for i := len(rs) - 1; i >= 0; i-- {
		if !isWordChar(rs[i]) {
			break
		}
		n++
	}
	return n
}

// WordBoundary provides word/line/paragraph navigation over a Rope. This
// is supplementary host-facing functionality beyond the strict ChangeSet/
// Selection core; it shares isWordChar with the Assoc word-association
// rule instead of duplicating it.
type WordBoundary struct {
	rope *Rope
}

// NewWordBoundary builds a WordBoundary helper over r.
func NewWordBoundary(r *Rope) *WordBoundary { return &WordBoundary{rope: r} }

func (wb *WordBoundary) runeAt(pos int) (rune, bool) {
	if pos < 0 || pos >= wb.rope.LenChars() {
		return 0, false
	}
	s, err := wb.rope.Slice(pos, pos+1)
	if err != nil || s == "" {
		return 0, false
	}
	for _, r := range s {
		return r, true
	}
	return 0, false
}

// PrevWordStart returns the char index of the start of the word before pos.
func (wb *WordBoundary) PrevWordStart(pos int) int {
	i := pos
	for i > 0 {
		r, ok := wb.runeAt(i - 1)
		if !ok || !isSpace(r) {
			break
		}
		i--
	}
	if i == 0 {
		return 0
	}
	r, ok := wb.runeAt(i - 1)
	if !ok {
		return i
	}
	wasWord := isWordChar(r)
	for i > 0 {
		r, ok := wb.runeAt(i - 1)
		if !ok || isWordChar(r) != wasWord || isSpace(r) {
			break
		}
		i--
	}
	return i
}

// NextWordStart returns the char index of the start of the word at or
// after pos (skipping the current word and following whitespace).
func (wb *WordBoundary) NextWordStart(pos int) int {
	n := wb.rope.LenChars()
	i := pos
	if i < n {
		r, _ := wb.runeAt(i)
		wasWord := isWordChar(r)
		for i < n {
			r, ok := wb.runeAt(i)
			if !ok || isSpace(r) || isWordChar(r) != wasWord {
				break
			}
			i++
		}
	}
	for i < n {
		r, ok := wb.runeAt(i)
		if !ok || !isSpace(r) {
			break
		}
		i++
	}
	return i
}

// CurrentWordStart returns the start of the word containing pos.
func (wb *WordBoundary) CurrentWordStart(pos int) int {
	i := pos
	r, ok := wb.runeAt(i)
	if !ok || isSpace(r) {
		return pos
	}
	want := isWordChar(r)
	for i > 0 {
		pr, ok := wb.runeAt(i - 1)
		if !ok || isWordChar(pr) != want {
			break
		}
		i--
	}
	return i
}

// CurrentWordEnd returns the end (exclusive) of the word containing pos.
func (wb *WordBoundary) CurrentWordEnd(pos int) int {
	n := wb.rope.LenChars()
	i := pos
	r, ok := wb.runeAt(i)
	if !ok || isSpace(r) {
		return pos
	}
	want := isWordChar(r)
	for i < n {
		cr, ok := wb.runeAt(i)
		if !ok || isWordChar(cr) != want {
			break
		}
		i++
	}
	return i
}

// SelectWord returns the [start, end) of the word touching pos.
func (wb *WordBoundary) SelectWord(pos int) (int, int) {
	return wb.CurrentWordStart(pos), wb.CurrentWordEnd(pos)
}

// LineStart returns the char index of the start of the line containing pos.
func (wb *WordBoundary) LineStart(pos int) int {
	line, err := wb.rope.CharToLine(pos)
	if err != nil {
		return 0
	}
	return wb.rope.LineToChar(line)
}

// LineEnd returns the char index just before the line terminator of the
// line containing pos (or end of document on the last line).
func (wb *WordBoundary) LineEnd(pos int) int {
	line, err := wb.rope.CharToLine(pos)
	if err != nil {
		return wb.rope.LenChars()
	}
	text, err := wb.rope.Line(line)
	if err != nil {
		return wb.rope.LenChars()
	}
	start := wb.rope.LineToChar(line)
	return start + charCount(text)
}

// ParagraphStart returns the char index of the start of the paragraph
// (a maximal run of non-blank lines) containing pos.
func (wb *WordBoundary) ParagraphStart(pos int) int {
	line, err := wb.rope.CharToLine(pos)
	if err != nil {
		return 0
	}
	for line > 0 {
		text, err := wb.rope.Line(line - 1)
		if err != nil || text != "" {
			break
		}
		line--
	}
	return wb.rope.LineToChar(line)
}

// ParagraphEnd returns the char index of the end of the paragraph
// containing pos.
func (wb *WordBoundary) ParagraphEnd(pos int) int {
	line, err := wb.rope.CharToLine(pos)
	if err != nil {
		return wb.rope.LenChars()
	}
	last := wb.rope.LineCount() - 1
	for line < last {
		text, err := wb.rope.Line(line + 1)
		if err != nil || text == "" {
			break
		}
		line++
	}
	return wb.LineEnd(wb.rope.LineToChar(line))
}
