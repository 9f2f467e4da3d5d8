package channel

import "errors"

// Channel errors are returned by the public API and can be checked with
// errors.Is. Timeouts are not in this list: callers compose them with
// context deadlines around SendCommand.
var (
	// ErrBackpressure is returned when the admission limit is reached.
	// The command never touched the transport; the connection stays usable.
	ErrBackpressure = errors.New("channel: admission limit reached")

	// ErrConnectionFailed is returned by Start when the worker socket
	// cannot be dialed.
	ErrConnectionFailed = errors.New("channel: connection failed")

	// ErrConnectionLost is returned for commands that were in flight when
	// the connection died or the channel was closed.
	ErrConnectionLost = errors.New("channel: connection lost")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("channel: already started")

	// ErrNotStarted is returned when SendCommand is called before Start.
	ErrNotStarted = errors.New("channel: not started")

	// ErrTokenMismatch is returned when a health check reply carries the
	// wrong token.
	ErrTokenMismatch = errors.New("channel: health check token mismatch")
)
