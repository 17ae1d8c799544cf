// Package snippet parses the snippet DSL (spec.md §4.8, C10) and expands
// a parsed template into a rope.Transaction against a document and its
// current Selection.
package snippet

type tokenType int

const (
	tokDollar tokenType = iota
	tokColon
	tokComma
	tokCurlyOpen
	tokCurlyClose
	tokBackSlash
	tokForwardSlash
	tokPipe
	tokPlus
	tokDash
	tokQuestionMark
	tokInt
	tokVariableName
	tokFormat
	tokEOF
	tokUndefined
)

type token struct {
	typ tokenType
	pos int
	len int
}

func charTokenType(ch rune) tokenType {
	switch ch {
	case '$':
		return tokDollar
	case ':':
		return tokColon
	case ',':
		return tokComma
	case '{':
		return tokCurlyOpen
	case '}':
		return tokCurlyClose
	case '\\':
		return tokBackSlash
	case '/':
		return tokForwardSlash
	case '|':
		return tokPipe
	case '+':
		return tokPlus
	case '-':
		return tokDash
	case '?':
		return tokQuestionMark
	default:
		return tokUndefined
	}
}

// isVariableChar matches the snippet grammar's VariableName alphabet:
// '_' or an ASCII letter.
func isVariableChar(ch rune) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

// scanner tokenizes a snippet source string into the grammar's token
// alphabet. It operates on runes so VariableName/Int/Format spans are
// char-counted, matching the rest of the core's gap-indexed positions.
type scanner struct {
	runes []rune
	pos   int
}

func newScanner(src string) *scanner {
	return &scanner{runes: []rune(src)}
}

func (s *scanner) tokenText(tok token) string {
	if tok.pos+tok.len > len(s.runes) {
		return ""
	}
	return string(s.runes[tok.pos : tok.pos+tok.len])
}

// next scans and returns the next token, advancing the scanner position.
func (s *scanner) next() token {
	if s.pos >= len(s.runes) {
		return token{typ: tokEOF, pos: s.pos}
	}
	pos := s.pos
	ch := s.runes[pos]

	if typ := charTokenType(ch); typ != tokUndefined {
		s.pos++
		return token{typ: typ, pos: pos, len: 1}
	}

	if isASCIIDigit(ch) {
		n := 1
		for pos+n < len(s.runes) && isASCIIDigit(s.runes[pos+n]) {
			n++
		}
		s.pos += n
		return token{typ: tokInt, pos: pos, len: n}
	}

	if isVariableChar(ch) {
		n := 1
		for pos+n < len(s.runes) && isVariableChar(s.runes[pos+n]) {
			n++
		}
		s.pos += n
		return token{typ: tokVariableName, pos: pos, len: n}
	}

	n := 1
	for pos+n < len(s.runes) {
		c := s.runes[pos+n]
		if charTokenType(c) != tokUndefined || isASCIIDigit(c) || isVariableChar(c) {
			break
		}
		n++
	}
	s.pos += n
	return token{typ: tokFormat, pos: pos, len: n}
}

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }
