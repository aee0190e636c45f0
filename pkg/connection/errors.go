package connection

import "errors"

var (
	// ErrNotConnected is returned by Send when there is no live session.
	ErrNotConnected = errors.New("connection: not connected")
	// ErrClosed is returned by Send after the manager has been closed.
	ErrClosed = errors.New("connection: manager closed")
	// ErrUnknownBackoff is returned for an unsupported backoff strategy name.
	ErrUnknownBackoff = errors.New("connection: unknown backoff strategy")
)
