package chat

import "errors"

var (
	// ErrNotJoined is returned when an operation arrives from a connection
	// without an active session. Callers drop the event rather than fail
	// the connection.
	ErrNotJoined = errors.New("connection has no active session")

	// ErrAlreadyJoined is returned for a duplicate join on the same
	// connection. Duplicate joins are tolerated as client retries and
	// leave existing state untouched.
	ErrAlreadyJoined = errors.New("connection already joined")

	// ErrRoomNotFound is returned when a target room is not in the catalog.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRecipientUnavailable is returned when a private message targets a
	// connection that is no longer present. Nothing is delivered or echoed.
	ErrRecipientUnavailable = errors.New("recipient not connected")
)
