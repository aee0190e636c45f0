package notifications

import "errors"

var (
	ErrMalformedRecord  = errors.New("notifications: malformed record")
	ErrInvalidTimestamp = errors.New("notifications: invalid timestamp")
	ErrInvalidBaseURL   = errors.New("notifications: invalid API base URL")
	ErrRequestFailed    = errors.New("notifications: request failed")
	ErrUnexpectedStatus = errors.New("notifications: unexpected response status")
	ErrDecode           = errors.New("notifications: failed to decode response")
	ErrNoIdentity       = errors.New("notifications: no session identity")
	ErrNoBackend        = errors.New("notifications: no REST backend configured")
)
