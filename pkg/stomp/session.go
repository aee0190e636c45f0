package stomp

import (
	"context"
	"net"
)

// Credentials identify the user a session is opened for.
type Credentials struct {
	Identity string // user email; informational for the transport
	Token    string // bearer token forwarded on the WebSocket upgrade and CONNECT frame
}

// Frame is one inbound MESSAGE frame.
type Frame struct {
	Destination string
	ContentType string
	Body        []byte
}

// Handler consumes frames of one subscription in arrival order.
type Handler func(Frame)

// Session is a live STOMP session.
type Session interface {
	// Subscribe starts delivering frames sent to destination to h.
	Subscribe(destination string, h Handler) error

	// Send publishes body to destination.
	Send(destination, contentType string, body []byte) error

	// Done is closed once the session has ended, either through Close or
	// because the connection failed.
	Done() <-chan struct{}

	// Err reports why the session ended; nil while it is live.
	Err() error

	// Close ends the session. It is idempotent.
	Close() error
}

// Dialer opens sessions to the broker.
type Dialer interface {
	Dial(ctx context.Context, creds Credentials) (Session, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, creds Credentials) (Session, error)

func (f DialerFunc) Dial(ctx context.Context, creds Credentials) (Session, error) {
	return f(ctx, creds)
}

// watchedConn reports the first read or write failure of the underlying
// socket. go-stomp reads continuously, so an abrupt closure or a missed
// heartbeat surfaces here.
type watchedConn struct {
	net.Conn
	onErr func(error)
}

func (c *watchedConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if err != nil {
		c.onErr(err)
	}
	return n, err
}

func (c *watchedConn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	if err != nil {
		c.onErr(err)
	}
	return n, err
}
