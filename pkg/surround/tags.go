package surround

import "github.com/coreseekdev/coretext/pkg/rope"

// searchChars bounds how far the tag finder looks forward and backward
// from the cursor before giving up, so a huge or unclosed document
// doesn't turn a failed search into an unbounded scan.
const searchChars = 2000

// TagMatch pairs a tag-name Range with the tag name itself, as returned
// by NthMatchingTags.
type TagMatch struct {
	Range rope.Range
	Name  string
}

// isValidTagNameChar tests the JSX/HTML/XML tagname alphabet: dots for
// JSX scoping, dashes for custom elements, underscores for either.
func isValidTagNameChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') ||
		ch == '_' || ch == '-' || ch == '.'
}

// findPrevTag scans backward from cursorPos for the nearest opening
// `<tag>`, returning the Range of its name (excluding `<`/`>`), the name
// itself, and the char index it stopped at. Ported from surround.rs's
// find_prev_tag.
func findPrevTag(runes []rune, cursorPos, skip int) (rope.Range, string, int, error) {
	if cursorPos == 0 || skip == 0 {
		return rope.Range{}, "", 0, ErrRangeExceedsText
	}
	pos := cursorPos
	for pos > 0 {
		pos--
		if runes[pos] != '>' {
			continue
		}
		ltPos := -1
		for i := pos - 1; i >= 0; i-- {
			if runes[i] == '<' {
				ltPos = i
				break
			}
		}
		if ltPos < 0 {
			return rope.Range{}, "", 0, ErrPairNotFound
		}
		nameEnd := ltPos + 1
		for nameEnd < len(runes) && isValidTagNameChar(runes[nameEnd]) {
			nameEnd++
		}
		name := string(runes[ltPos+1 : nameEnd])
		return rope.NewRange(ltPos+1, ltPos+1+len(name)), name, ltPos, nil
	}
	return rope.Range{}, "", 0, ErrPairNotFound
}

// findNextTag scans forward from cursorPos for the nearest closing
// `</tag>`, returning the Range of its name, the name, and the char index
// it stopped at. Ported from surround.rs's find_next_tag.
func findNextTag(runes []rune, cursorPos, skip int) (rope.Range, string, int, error) {
	if cursorPos >= len(runes) || skip == 0 {
		return rope.Range{}, "", 0, ErrRangeExceedsText
	}
	pos := cursorPos
	for pos < len(runes) {
		ch := runes[pos]
		pos++
		if ch != '<' {
			continue
		}
		if pos >= len(runes) {
			return rope.Range{}, "", 0, ErrPairNotFound
		}
		slash := runes[pos]
		pos++
		if slash != '/' {
			continue
		}
		nameStart := pos
		for pos < len(runes) {
			cur := runes[pos]
			pos++
			if isValidTagNameChar(cur) {
				continue
			}
			if cur == '>' && pos-1 > nameStart {
				name := string(runes[nameStart : pos-1])
				return rope.NewRange(nameStart, pos-1), name, pos, nil
			}
			break
		}
	}
	return rope.Range{}, "", 0, ErrPairNotFound
}

// findNthNearestTag collects candidate tags up to searchChars away from
// cursorPos in both directions, keeps only tag names seen on both sides,
// pairs them positionally, and returns the skip'th matching (backward,
// forward) pair and its tag name — saturating at the last pair available
// if skip overruns. Ported from surround.rs's find_nth_nearest_tag.
func findNthNearestTag(runes []rune, cursorPos, skip int) (rope.Range, rope.Range, string, error) {
	var forwardTags []TagMatch
	prevForward := cursorPos
	for prevForward-cursorPos < searchChars && prevForward < len(runes) {
		rng, name, idx, err := findNextTag(runes, prevForward, skip)
		if err != nil {
			if err == ErrPairNotFound {
				break
			}
			return rope.Range{}, rope.Range{}, "", err
		}
		forwardTags = append(forwardTags, TagMatch{rng, name})
		prevForward = idx
	}

	var backwardTags []TagMatch
	prevBackward := cursorPos
	for cursorPos-prevBackward < searchChars && prevBackward > 0 {
		rng, name, idx, err := findPrevTag(runes, prevBackward, skip)
		if err != nil {
			if err == ErrPairNotFound {
				break
			}
			return rope.Range{}, rope.Range{}, "", err
		}
		backwardTags = append(backwardTags, TagMatch{rng, name})
		prevBackward = idx
	}

	common := map[string]bool{}
	backwardNames := map[string]bool{}
	for _, t := range backwardTags {
		backwardNames[t.Name] = true
	}
	for _, t := range forwardTags {
		if backwardNames[t.Name] {
			common[t.Name] = true
		}
	}

	filteredForward := filterTagMatches(forwardTags, common)
	filteredBackward := filterTagMatches(backwardTags, common)

	n := len(filteredForward)
	if len(filteredBackward) < n {
		n = len(filteredBackward)
	}
	var matching []TagMatch2
	for i := 0; i < n; i++ {
		if filteredForward[i].Name == filteredBackward[i].Name {
			matching = append(matching, TagMatch2{Forward: filteredForward[i], Backward: filteredBackward[i]})
		}
	}

	accessIndex := skip - 1
	if accessIndex >= len(matching) {
		accessIndex = len(matching) - 1
	}
	if accessIndex < 0 || accessIndex >= len(matching) {
		return rope.Range{}, rope.Range{}, "", ErrPairNotFound
	}

	m := matching[accessIndex]
	return m.Backward.Range, m.Forward.Range, m.Forward.Name, nil
}

// TagMatch2 pairs a forward (closing) and backward (opening) tag hit
// found to share a tag name.
type TagMatch2 struct {
	Forward  TagMatch
	Backward TagMatch
}

func filterTagMatches(tags []TagMatch, keep map[string]bool) []TagMatch {
	var out []TagMatch
	for _, t := range tags {
		if keep[t.Name] {
			out = append(out, t)
		}
	}
	return out
}

// NthMatchingTags finds, for every range in sel, the nth enclosing pair
// of matching `<tag>...</tag>` positions (the opening tag's name Range
// and the closing tag's name Range), per spec.md §4.9's tag finder.
// Results are flattened two-per-range (opening then closing) and sorted
// by start position; overlapping ranges across cursors are an error.
// Ported from surround.rs's get_surround_pos_tag.
func NthMatchingTags(text *rope.Rope, sel *rope.Selection, skip int) ([]TagMatch, error) {
	runes := []rune(text.String())
	var out []TagMatch

	for _, rng := range sel.Iter() {
		cursorPos := rng.Cursor(text)
		prevTag, nextTag, name, err := findNthNearestTag(runes, cursorPos, skip)
		if err != nil {
			return nil, err
		}
		out = append(out, TagMatch{Range: prevTag, Name: name}, TagMatch{Range: nextTag, Name: name})
	}

	sortTagMatches(out)
	for i := 0; i+1 < len(out); i++ {
		if out[i].Range.To() > out[i+1].Range.From() {
			return nil, ErrCursorOverlap
		}
	}
	return out, nil
}

func sortTagMatches(matches []TagMatch) {
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j-1].Range.From() > matches[j].Range.From(); j-- {
			matches[j-1], matches[j] = matches[j], matches[j-1]
		}
	}
}
