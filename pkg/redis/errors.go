package redis

import "errors"

var (
	ErrNoURL      = errors.New("redis: connection url is empty")
	ErrInvalidURL = errors.New("redis: invalid connection url")
	ErrNotReady   = errors.New("redis: server did not answer ping")
	ErrUnhealthy  = errors.New("redis: health probe failed")
)
