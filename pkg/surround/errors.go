// Package surround finds bracket and tag pairs enclosing a selection
// (spec.md §4.9, C11): `SurroundPos` for bracket-like pairs (plain scan
// only; there is no tree-sitter-assisted path) and `NthMatchingTags` for
// `<tag>...</tag>` pairs.
package surround

import "errors"

// ErrPairNotFound is returned when no enclosing pair exists for the
// requested character/skip count.
var ErrPairNotFound = errors.New("surround: pair not found around all cursors")

// ErrCursorOverlap is returned when two cursors in the same selection
// resolve to overlapping surround positions.
var ErrCursorOverlap = errors.New("surround: cursors overlap for a single surround pair range")

// ErrRangeExceedsText is returned when a range's bound lies outside the
// document, or a tag search starts at the very edge of the text.
var ErrRangeExceedsText = errors.New("surround: cursor range exceeds text length")

// ErrCursorOnAmbiguousPair is returned when the cursor sits directly on a
// character that is both the open and close of its pair (e.g. a quote),
// so which side to search cannot be determined.
var ErrCursorOnAmbiguousPair = errors.New("surround: cursor on ambiguous surround pair")
