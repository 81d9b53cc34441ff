package ws

import "errors"

var (
	// ErrValidation rejects empty rooms, empty content, and malformed
	// events before any state transition.
	ErrValidation = errors.New("validation_error")

	// ErrNotSubscribed rejects a publish from a connection without an
	// active subscription to the target room.
	ErrNotSubscribed = errors.New("not_subscribed")

	// ErrIdentityMismatch rejects a publish whose claimed author is not
	// the connection's authenticated identity.
	ErrIdentityMismatch = errors.New("identity_mismatch")

	// ErrPersistence means the message log append did not succeed. The
	// message was not delivered to anyone.
	ErrPersistence = errors.New("persistence_failure")

	// ErrClosed rejects an event from a connection that has already been
	// unregistered.
	ErrClosed = errors.New("connection_closed")
)

// errorCategory maps an error to the wire category reported to callers.
func errorCategory(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNotSubscribed):
		return "not_subscribed"
	case errors.Is(err, ErrIdentityMismatch):
		return "identity_mismatch"
	case errors.Is(err, ErrPersistence):
		return "persistence_failure"
	case errors.Is(err, ErrClosed):
		return "connection_closed"
	default:
		return "internal_error"
	}
}
