package round

import (
	"errors"
	"fmt"
)

// Kind classifies game errors for handling at the loop boundary.
type Kind int

const (
	// KindValidation covers bad answers and malformed command arguments.
	KindValidation Kind = iota + 1
	// KindConflict means a session exists when it must not, or vice versa.
	KindConflict
	// KindExhausted covers an exhausted catalog or insufficient balance.
	KindExhausted
	// KindCollaborator wraps catalog, ledger or store failures.
	KindCollaborator
	// KindStale marks an operation that lost a race with a newer state.
	KindStale
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindExhausted:
		return "exhausted"
	case KindCollaborator:
		return "collaborator"
	case KindStale:
		return "stale"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified game error. Msg is shown to the room; EndSession
// asks the engine to abort the game the error came from.
type Error struct {
	Kind       Kind
	Msg        string
	EndSession bool
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports a bad input to the player.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports a session existence mismatch.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Exhausted reports a depleted resource.
func Exhausted(format string, args ...any) *Error {
	return &Error{Kind: KindExhausted, Msg: fmt.Sprintf(format, args...)}
}

// Collaborator wraps a dependency failure. msg, if not empty, is posted.
func Collaborator(err error, msg string) *Error {
	return &Error{Kind: KindCollaborator, Msg: msg, Err: err}
}

// Stale marks a lost race.
func Stale(format string, args ...any) *Error {
	return &Error{Kind: KindStale, Msg: fmt.Sprintf(format, args...)}
}

// Ending marks e as fatal for the session and returns it.
func (e *Error) Ending() *Error {
	e.EndSession = true
	return e
}

// KindOf returns the Kind of err, treating unclassified errors as
// collaborator failures.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindCollaborator
}

// IsStale reports whether err is a stale operation.
func IsStale(err error) bool {
	return err != nil && KindOf(err) == KindStale
}
