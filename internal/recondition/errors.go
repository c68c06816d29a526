package recondition

import (
	"errors"
	"fmt"
)

// ErrAliasingRejected is returned by Recondition when CheckAliasing
// finds two mutable references into the same call that could be
// simultaneously live and derived from the same root. The CLI maps it
// to exit status 1 rather than emitting a rewritten module.
var ErrAliasingRejected = errors.New("rejecting due to possible invalid aliasing")

// InternalInvariantError wraps a condition the reconditioner expected to
// never see reachable code violate — a division operand with no
// resolvable type, say. Seeing one means either the input module was
// not actually well-typed or a rewrite rule has a bug; either way it is
// not the caller's fault to fix, so the CLI maps it to exit status 2.
type InternalInvariantError struct {
	Context string
}

func (e *InternalInvariantError) Error() string {
	return fmt.Sprintf("internal invariant violated: %s", e.Context)
}

// UnsupportedTypeError is returned when a rewrite rule is asked to guard
// an operation over a type the safe-wrapper table has no entry for.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported type for safe wrapper: %s", e.Type)
}
