package dispatch

import (
	"fmt"

	"github.com/detygon/evolution-notify/internal/message"
)

// ValidationError reports a message description the router refuses to
// send: a required field absent or empty for its kind, or a shape broken
// by a mismatched fluent call. No transport call is made.
type ValidationError struct {
	Kind  message.Kind
	Field string
	Cause error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid %s message: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s message requires a non-empty %q field", e.Kind, e.Field)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// UnsupportedKindError reports a variant tag the router has no handler
// for.
type UnsupportedKindError struct {
	Kind message.Kind
}

func (e *UnsupportedKindError) Error() string {
	return fmt.Sprintf("unsupported message type: %q", e.Kind)
}
