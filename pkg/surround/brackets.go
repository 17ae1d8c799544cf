package surround

import "github.com/coreseekdev/coretext/pkg/rope"

// bracketPairs maps each bracket character to its matching partner, kept
// from odvcencio-mane/editor/brackets.go's simple bracket map.
var bracketPairs = map[rune]rune{
	'(': ')', ')': '(',
	'{': '}', '}': '{',
	'[': ']', ']': '[',
}

// openBrackets is the set of opening bracket characters.
var openBrackets = map[rune]bool{'(': true, '{': true, '[': true}

// IsOpenBracket reports whether ch opens a bracket pair.
func IsOpenBracket(ch rune) bool { return openBrackets[ch] }

// IsCloseBracket reports whether ch closes a bracket pair.
func IsCloseBracket(ch rune) bool {
	partner, ok := bracketPairs[ch]
	return ok && !openBrackets[ch] && partner != 0
}

// GetPair returns the (open, close) pair for ch, which may itself be
// either the opener or the closer (or a same-on-both-sides character like
// a quote, in which case open == close == ch).
func GetPair(ch rune) (open, close rune) {
	if partner, ok := bracketPairs[ch]; ok {
		if openBrackets[ch] {
			return ch, partner
		}
		return partner, ch
	}
	return ch, ch
}

// findNthOpenPair searches backward from pos for the nth unmatched open
// bracket, stepping over nested pairs fully contained in the search scope.
// If pos itself holds open it is returned at once; otherwise the walk
// starts at pos-1. Ported from surround.rs's find_nth_open_pair, with
// ropey's reverse char iterator replaced by an index walk over runes.
func findNthOpenPair(runes []rune, open, close rune, pos, n int) (int, bool) {
	if pos >= len(runes) {
		return 0, false
	}
	if runes[pos] == open {
		return pos, true
	}
	for i := 0; i < n; i++ {
		stepOver := 0
		for {
			if pos == 0 {
				return 0, false
			}
			pos--
			c := runes[pos]
			if c == close {
				stepOver++
			} else if c == open {
				if stepOver == 0 {
					break
				}
				stepOver--
			}
		}
	}
	return pos, true
}

// findNthClosePair searches forward from pos (inclusive) for the nth
// unmatched close bracket. Ported from surround.rs's find_nth_close_pair.
func findNthClosePair(runes []rune, open, close rune, pos, n int) (int, bool) {
	if pos >= len(runes) {
		return 0, false
	}
	if runes[pos] == close {
		return pos, true
	}
	for i := 0; i < n; i++ {
		stepOver := 0
		for {
			pos++
			if pos >= len(runes) {
				return 0, false
			}
			c := runes[pos]
			if c == open {
				stepOver++
			} else if c == close {
				if stepOver == 0 {
					break
				}
				stepOver--
			}
		}
	}
	return pos, true
}

// findNthPrev finds the nth occurrence of ch strictly before pos, walking
// backward. n=1 is the closest preceding occurrence.
func findNthPrev(runes []rune, ch rune, pos, n int) (int, bool) {
	count := 0
	for i := pos - 1; i >= 0; i-- {
		if runes[i] == ch {
			count++
			if count == n {
				return i, true
			}
		}
	}
	return 0, false
}

// findNthNext finds the nth occurrence of ch at or after pos, walking
// forward. n=1 is the closest occurrence from pos onward.
func findNthNext(runes []rune, ch rune, pos, n int) (int, bool) {
	count := 0
	for i := pos; i < len(runes); i++ {
		if runes[i] == ch {
			count++
			if count == n {
				return i, true
			}
		}
	}
	return 0, false
}

// FindNthPairsPos finds the nth surrounding pair of ch (either its open
// or close form) around rng, preserving rng's direction in the returned
// (anchor, head). Ported from surround.rs's find_nth_pairs_pos.
func FindNthPairsPos(text *rope.Rope, ch rune, rng rope.Range, n int) (int, int, error) {
	if text.LenChars() < 2 {
		return 0, 0, ErrPairNotFound
	}
	if rng.To() >= text.LenChars() {
		return 0, 0, ErrRangeExceedsText
	}

	runes := []rune(text.String())
	open, close := GetPair(ch)
	pos := rng.Cursor(text)

	var openPos, closePos int
	var openOK, closeOK bool
	if open == close {
		if pos < len(runes) && runes[pos] == open {
			return 0, 0, ErrCursorOnAmbiguousPair
		}
		openPos, openOK = findNthPrev(runes, open, pos, n)
		closePos, closeOK = findNthNext(runes, close, pos, n)
	} else {
		openPos, openOK = findNthOpenPair(runes, open, close, pos, n)
		closePos, closeOK = findNthClosePair(runes, open, close, pos, n)
	}
	if !openOK || !closeOK {
		return 0, 0, ErrPairNotFound
	}

	if rng.IsBackward() {
		return closePos, openPos, nil
	}
	return openPos, closePos, nil
}

// FindNthClosestPairsPlain locates the nth bracket pair (of any kind in
// bracketPairs) that encloses rng by plain scanning forward from
// rng.From(), tracking a stack of still-open brackets so that pairs
// nested entirely inside the selection are stepped over. Ported from
// surround.rs's find_nth_closest_pairs_plain.
func FindNthClosestPairsPlain(text *rope.Rope, rng rope.Range, skip int) (int, int, error) {
	runes := []rune(text.String())
	var stack []rune
	pos := rng.From()
	closePos := pos - 1

	for i := pos; i < len(runes); i++ {
		ch := runes[i]
		closePos++

		if IsOpenBracket(ch) {
			stack = append(stack, ch)
			continue
		}
		if !IsCloseBracket(ch) {
			continue
		}

		open, close := GetPair(ch)
		if len(stack) > 0 && stack[len(stack)-1] == open {
			stack = stack[:len(stack)-1]
			continue
		}

		openPos, ok := findNthOpenPair(runes, open, close, closePos, 1)
		if !ok {
			continue
		}
		if openPos <= pos+1 && closePos >= rng.To()-1 {
			if skip > 1 {
				skip--
				continue
			}
			if rng.IsBackward() {
				return closePos, openPos, nil
			}
			return openPos, closePos, nil
		}
	}

	return 0, 0, ErrPairNotFound
}

// SurroundPos finds the position of surround characters around every
// range in sel. If ch is non-nil, that character (either its open or
// close form) is used for every range; otherwise the closest enclosing
// bracket pair of any kind is auto-detected per range via a plain scan.
// Ported from surround.rs's get_surround_pos. The tree-sitter-assisted
// path it takes when a Syntax tree is available is not implemented: the
// retrieved pack has no source for the bracket-query logic it would need
// (see DESIGN.md), so this always uses the plain scan.
//
// The returned positions are flat: use chunks of 2 to recover matching
// (open, close) pairs, always ordered forward regardless of the
// originating range's direction.
func SurroundPos(text *rope.Rope, sel *rope.Selection, ch *rune, skip int) ([]int, error) {
	var changePos []int

	for _, rng := range sel.Iter() {
		var a, b int
		var err error
		if ch != nil {
			a, b, err = FindNthPairsPos(text, *ch, rng, skip)
		} else {
			a, b, err = FindNthClosestPairsPlain(text, rng, skip)
		}
		if err != nil {
			return nil, err
		}
		openPos, closePos := a, b
		if openPos > closePos {
			openPos, closePos = closePos, openPos
		}
		for _, p := range changePos {
			if p == openPos || p == closePos {
				return nil, ErrCursorOverlap
			}
		}
		changePos = append(changePos, openPos, closePos)
	}

	return changePos, nil
}
