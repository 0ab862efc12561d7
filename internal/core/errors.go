package core

import (
	"errors"
	"fmt"
)

// Kind is the closed failure taxonomy for chat actions. Handlers at the
// protocol boundary switch over it to pick a wire representation; nothing
// matches errors by message text.
type Kind int

const (
	// KindAuthorizationDenied: actor is not a room participant, or not the
	// owner of the message being edited/deleted.
	KindAuthorizationDenied Kind = iota
	// KindNotFound: room or message missing.
	KindNotFound
	// KindInvalidState: acting on an already-deleted message.
	KindInvalidState
	// KindTransient: collaborator lookup failure during best-effort fanout.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindAuthorizationDenied:
		return "authorization_denied"
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindTransient:
		return "transient"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func Denied(format string, args ...any) *Error {
	return &Error{Kind: KindAuthorizationDenied, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Msg: fmt.Sprintf(format, args...)}
}

func Transient(msg string, err error) *Error {
	return &Error{Kind: KindTransient, Msg: msg, Err: err}
}

// KindOf returns the taxonomy kind, or KindTransient for errors that did not
// originate in the chat core (collaborator I/O, codec failures).
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindTransient
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == k
}
