package stomp

import "errors"

var (
	ErrInvalidURL     = errors.New("stomp: invalid broker URL")
	ErrDial           = errors.New("stomp: failed to dial broker")
	ErrHandshake      = errors.New("stomp: handshake failed")
	ErrSubscribe      = errors.New("stomp: subscribe failed")
	ErrSend           = errors.New("stomp: send failed")
	ErrSessionClosed  = errors.New("stomp: session closed")
	ErrConnectionLost = errors.New("stomp: connection lost")
)
