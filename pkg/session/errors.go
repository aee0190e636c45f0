package session

import "errors"

var (
	ErrNotFound       = errors.New("session: context not found")
	ErrInvalidContext = errors.New("session: email is required")
	ErrDecode         = errors.New("session: failed to decode stored context")
	ErrStore          = errors.New("session: store operation failed")
)
