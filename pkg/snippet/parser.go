package snippet

import (
	"github.com/dlclark/regexp2"
)

// ItemKind tags the variant of a parsed snippet Item (the SnippetItem tree
// of spec.md §3).
type ItemKind int

const (
	ItemText ItemKind = iota
	ItemTabStop
	ItemPlaceholder
	ItemChoice
	ItemVariable
	ItemTransform
)

// Item is one node of the parsed snippet tree. Not every field is
// meaningful for every Kind: Text uses Text; TabStop/Placeholder/Choice
// use Index; Placeholder/Variable use Body; Choice uses Choices; Variable
// uses Name; Transform uses Regex/FormatItems.
type Item struct {
	Kind        ItemKind
	Text        string
	Index       int
	Body        []Item
	Choices     []string
	Name        string
	Regex       *regexp2.Regexp
	FormatItems []FormatItem
}

// CaseOp is the case-folding operation of a /upcase, /downcase, or
// /capitalize format item.
type CaseOp int

const (
	CaseUpcase CaseOp = iota
	CaseDowncase
	CaseCapitalize
)

// FormatItemKind tags the variant of a FormatItem.
type FormatItemKind int

const (
	FormatLiteral FormatItemKind = iota
	FormatCaseOp
	FormatIfElse
)

// FormatItem is one piece of a transform's replacement text: a literal
// run, a case operation applied to a capture group, or an if/else
// conditional on whether a capture group matched.
type FormatItem struct {
	Kind    FormatItemKind
	Literal string
	Group   int
	CaseOp  CaseOp
	IfStr   string
	ElseStr string
}

// parseErr is the opaque parse failure spec.md §4.8/§7 describes: the
// expander falls back to an empty Transaction rather than surfacing detail.
type parseErr struct{}

func (parseErr) Error() string { return "snippet: parse failed" }

// parser is a recursive-descent parser with backtracking checkpoints: it
// snapshots the scanner position before trying an alternative and rewinds
// on failure, per spec.md §9's suggested re-architecture.
type parser struct {
	tok token
	sc  *scanner
	out []Item
}

func newParser(src string) *parser {
	p := &parser{sc: newScanner(src)}
	p.tok = p.sc.next()
	return p
}

func (p *parser) advance() { p.tok = p.sc.next() }

// backto restores the parser to a previously observed token, rewinding the
// scanner's position to just past it.
func (p *parser) backto(tok token) {
	p.sc.pos = tok.pos + tok.len
	p.tok = tok
}

// accept consumes the current token if it matches typ (tokUndefined means
// "any non-EOF token") and returns its text.
func (p *parser) accept(typ tokenType) (string, bool) {
	if p.tok.typ == typ || (typ == tokUndefined && p.tok.typ != tokEOF) {
		s := p.sc.tokenText(p.tok)
		p.advance()
		return s, true
	}
	return "", false
}

// accepts consumes a fixed sequence of token types atomically: either all
// match and are consumed, or none are and the parser is rewound.
func (p *parser) accepts(typs ...tokenType) ([]string, bool) {
	checkpoint := p.tok
	result := make([]string, 0, len(typs))
	for _, t := range typs {
		if t != p.tok.typ {
			p.backto(checkpoint)
			return nil, false
		}
		result = append(result, p.sc.tokenText(p.tok))
		p.advance()
	}
	return result, true
}

// until accumulates token text up to (and consuming) a token of type typ,
// honoring backslash escapes of '}', '$', '/'. It rewinds and fails on EOF
// or an unrecognised escape.
func (p *parser) until(typ tokenType) (string, bool) {
	checkpoint := p.tok
	var result string
	for {
		if p.tok.typ == tokBackSlash {
			p.advance()
			escaped := p.sc.tokenText(p.tok)
			switch escaped {
			case "}", "$", "/":
				result += escaped
			default:
				p.backto(checkpoint)
				return "", false
			}
		}
		if p.tok.typ == typ {
			break
		}
		if p.tok.typ == tokEOF {
			p.backto(checkpoint)
			return "", false
		}
		result += p.sc.tokenText(p.tok)
		p.advance()
	}
	p.advance()
	return result, true
}

// Parse tokenizes and parses src into a sequence of snippet Items. The
// grammar is total: parseSnippet's last alternative accepts any single
// non-EOF token as literal text, so a malformed construct (an unterminated
// placeholder, a bad transform regex) degrades to inserting its source
// characters verbatim rather than failing outright. A non-nil error is
// still possible in principle and is treated by TransactionFromSnippet as
// "expand to nothing" per spec.md §7.
func Parse(src string) ([]Item, error) {
	p := newParser(src)
	for p.tok.typ != tokEOF && p.tok.typ != tokUndefined {
		item, err := p.parseSnippet()
		if err != nil {
			return nil, err
		}
		p.out = append(p.out, item)
	}
	return p.out, nil
}

func (p *parser) parseSnippet() (Item, error) {
	if it, err := p.parseEscaped(); err == nil {
		return it, nil
	}
	if it, err := p.parseTabstopOrVariable(); err == nil {
		return it, nil
	}
	if it, err := p.parsePlaceholder(); err == nil {
		return it, nil
	}
	if it, err := p.parseChoice(); err == nil {
		return it, nil
	}
	if it, err := p.parseComplexVariable(); err == nil {
		return it, nil
	}
	return p.parseAnything()
}

func (p *parser) parseEscaped() (Item, error) {
	if _, ok := p.accept(tokBackSlash); !ok {
		return Item{}, parseErr{}
	}
	switch p.tok.typ {
	case tokBackSlash, tokDollar, tokCurlyClose:
		t, _ := p.accept(tokUndefined)
		return Item{Kind: ItemText, Text: t}, nil
	default:
		return Item{Kind: ItemText, Text: `\`}, nil
	}
}

func (p *parser) parseTabstopOrVariable() (Item, error) {
	checkpoint := p.tok
	if _, ok := p.accept(tokDollar); !ok {
		p.backto(checkpoint)
		return Item{}, parseErr{}
	}
	if name, ok := p.accept(tokVariableName); ok {
		return Item{Kind: ItemVariable, Name: name}, nil
	}
	if n, ok := p.accept(tokInt); ok {
		return Item{Kind: ItemTabStop, Index: mustAtoi(n)}, nil
	}
	p.backto(checkpoint)
	return Item{}, parseErr{}
}

func (p *parser) parseChoice() (Item, error) {
	checkpoint := p.tok
	if _, ok := p.accept(tokDollar); !ok {
		p.backto(checkpoint)
		return Item{}, parseErr{}
	}
	if _, ok := p.accept(tokCurlyOpen); !ok {
		p.backto(checkpoint)
		return Item{}, parseErr{}
	}
	idxStr, ok := p.accept(tokInt)
	if !ok {
		p.backto(checkpoint)
		return Item{}, parseErr{}
	}
	choice := Item{Kind: ItemChoice, Index: mustAtoi(idxStr)}

	if _, ok := p.accept(tokPipe); !ok {
		p.backto(checkpoint)
		return Item{}, parseErr{}
	}

	var cur string
	for {
		if _, ok := p.accept(tokEOF); ok {
			p.backto(checkpoint)
			return Item{}, parseErr{}
		}
		if _, ok := p.accept(tokBackSlash); ok {
			switch p.tok.typ {
			case tokCurlyClose, tokPipe, tokComma:
				cur += p.sc.tokenText(p.tok)
			default:
				cur += `\` + p.sc.tokenText(p.tok)
			}
			p.advance()
			continue
		}
		if _, ok := p.accept(tokComma); ok {
			if cur != "" {
				choice.Choices = append(choice.Choices, cur)
				cur = ""
			}
			continue
		}
		pipeCheckpoint := p.tok
		if _, ok := p.accept(tokPipe); ok {
			if _, ok := p.accept(tokCurlyClose); ok {
				if cur != "" {
					choice.Choices = append(choice.Choices, cur)
				}
				return choice, nil
			}
			p.backto(pipeCheckpoint)
		}
		if t, ok := p.accept(tokUndefined); ok {
			cur += t
			continue
		}
		p.backto(checkpoint)
		return Item{}, parseErr{}
	}
}

func (p *parser) parsePlaceholder() (Item, error) {
	checkpoint := p.tok
	if _, ok := p.accept(tokDollar); !ok {
		p.backto(checkpoint)
		return Item{}, parseErr{}
	}
	if _, ok := p.accept(tokCurlyOpen); !ok {
		p.backto(checkpoint)
		return Item{}, parseErr{}
	}
	idxStr, ok := p.accept(tokInt)
	if !ok {
		p.backto(checkpoint)
		return Item{}, parseErr{}
	}
	placeholder := Item{Kind: ItemPlaceholder, Index: mustAtoi(idxStr)}

	if _, ok := p.accept(tokColon); ok {
		for {
			if _, ok := p.accept(tokCurlyClose); ok {
				return placeholder, nil
			}
			if _, ok := p.accept(tokEOF); ok {
				p.backto(checkpoint)
				return Item{}, parseErr{}
			}
			if item, err := p.parseSnippet(); err == nil {
				placeholder.Body = append(placeholder.Body, item)
			}
		}
	}
	if _, ok := p.accept(tokCurlyClose); ok {
		return placeholder, nil
	}
	p.backto(checkpoint)
	return Item{}, parseErr{}
}

func (p *parser) parseComplexVariable() (Item, error) {
	checkpoint := p.tok
	names, ok := p.accepts(tokDollar, tokCurlyOpen, tokVariableName)
	if !ok {
		p.backto(checkpoint)
		return Item{}, parseErr{}
	}
	variable := Item{Kind: ItemVariable, Name: names[2]}

	if _, ok := p.accept(tokColon); ok {
		for {
			if _, ok := p.accept(tokCurlyClose); ok {
				return variable, nil
			}
			if _, ok := p.accept(tokEOF); ok {
				p.backto(checkpoint)
				return Item{}, parseErr{}
			}
			if item, err := p.parseSnippet(); err == nil {
				variable.Body = append(variable.Body, item)
			}
		}
	}
	if _, ok := p.accept(tokForwardSlash); ok {
		item, err := p.parseTransform()
		if err != nil {
			p.backto(checkpoint)
			return Item{}, parseErr{}
		}
		variable.Body = append(variable.Body, item)
		return variable, nil
	}
	if _, ok := p.accept(tokCurlyClose); ok {
		return variable, nil
	}
	p.backto(checkpoint)
	return Item{}, parseErr{}
}

func (p *parser) parseTransform() (Item, error) {
	checkpoint := p.tok

	var regexSrc string
	for {
		if _, ok := p.accept(tokEOF); ok {
			p.backto(checkpoint)
			return Item{}, parseErr{}
		}
		if escaped, ok := p.accepts(tokBackSlash, tokUndefined); ok {
			if escaped[1] == "/" {
				regexSrc += escaped[1]
			} else {
				regexSrc += escaped[0] + escaped[1]
			}
			continue
		}
		if _, ok := p.accept(tokForwardSlash); ok {
			break
		}
		if t, ok := p.accept(tokUndefined); ok {
			regexSrc += t
			continue
		}
		p.backto(checkpoint)
		return Item{}, parseErr{}
	}

	var formatStr string
	var formatItems []FormatItem
	appendFormatStr := func() {
		if formatStr != "" {
			formatItems = append(formatItems, FormatItem{Kind: FormatLiteral, Literal: formatStr})
			formatStr = ""
		}
	}

	for {
		if escaped, ok := p.accepts(tokBackSlash, tokUndefined); ok {
			switch escaped[1] {
			case `\`, "$", "}", "/":
				formatStr += escaped[1]
			default:
				formatStr += escaped[0] + escaped[1]
			}
			continue
		}
		if _, ok := p.accept(tokForwardSlash); ok {
			appendFormatStr()
			break
		}
		if _, ok := p.accept(tokEOF); ok {
			p.backto(checkpoint)
			return Item{}, parseErr{}
		}

		formatStart := p.tok
		if group, ok := p.accepts(tokDollar, tokCurlyOpen, tokInt, tokColon); ok {
			captureGroup := mustAtoi(group[2])
			if op, ok := p.accepts(tokForwardSlash, tokVariableName, tokCurlyClose); ok {
				var caseOp CaseOp
				switch op[1] {
				case "upcase":
					caseOp = CaseUpcase
				case "downcase":
					caseOp = CaseDowncase
				case "capitalize":
					caseOp = CaseCapitalize
				default:
					p.backto(checkpoint)
					return Item{}, parseErr{}
				}
				appendFormatStr()
				formatItems = append(formatItems, FormatItem{Kind: FormatCaseOp, Group: captureGroup, CaseOp: caseOp})
				continue
			}
			if _, ok := p.accept(tokPlus); ok {
				if ifVal, ok := p.until(tokCurlyClose); ok {
					appendFormatStr()
					formatItems = append(formatItems, FormatItem{Kind: FormatIfElse, Group: captureGroup, IfStr: ifVal})
					continue
				}
			} else if _, ok := p.accept(tokQuestionMark); ok {
				ifVal, okIf := p.until(tokColon)
				elseVal, okElse := p.until(tokCurlyClose)
				if okIf && okElse {
					appendFormatStr()
					formatItems = append(formatItems, FormatItem{Kind: FormatIfElse, Group: captureGroup, IfStr: ifVal, ElseStr: elseVal})
					continue
				}
			} else if _, ok := p.accept(tokDash); ok {
				if elseVal, ok := p.until(tokCurlyClose); ok {
					appendFormatStr()
					formatItems = append(formatItems, FormatItem{Kind: FormatIfElse, Group: captureGroup, ElseStr: elseVal})
					continue
				}
			}
			// None of the transform-group productions matched: treat the
			// four already-consumed tokens as literal text.
			p.backto(formatStart)
			for i := 0; i < 4; i++ {
				if t, ok := p.accept(tokUndefined); ok {
					formatStr += t
				}
			}
			continue
		}
		p.backto(formatStart)
		if t, ok := p.accept(tokUndefined); ok {
			formatStr += t
		}
	}

	optionsStr, _ := p.until(tokCurlyClose)
	opts := regexp2.None
	for _, ch := range optionsStr {
		switch ch {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'x':
			opts |= regexp2.IgnorePatternWhitespace
		case 'U':
			// regexp2 has no direct "swap greediness" option; the closest
			// available behaviour is left to the pattern author (no-op).
		}
	}

	re, err := regexp2.Compile(regexSrc, opts)
	if err != nil {
		p.backto(checkpoint)
		return Item{}, parseErr{}
	}
	return Item{Kind: ItemTransform, Regex: re, FormatItems: formatItems}, nil
}

func (p *parser) parseAnything() (Item, error) {
	if p.tok.typ != tokEOF {
		if t, ok := p.accept(tokUndefined); ok {
			return Item{Kind: ItemText, Text: t}, nil
		}
	}
	return Item{}, parseErr{}
}

func mustAtoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
