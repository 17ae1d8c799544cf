package syntax

import "errors"

// ErrCancelled is returned when a parse or highlight run observed a
// non-zero cancellation flag.
var ErrCancelled = errors.New("syntax: cancelled")

// ErrInvalidLanguage is returned when a grammar could not be set on the
// parser.
var ErrInvalidLanguage = errors.New("syntax: invalid language")

// errCancelled is the internal alias used where a parse returns a nil tree;
// surfaced to callers as ErrCancelled.
var errCancelled = ErrCancelled
