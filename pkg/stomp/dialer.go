package stomp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"

	"github.com/coder/websocket"

	"github.com/windlogs/notifykit/pkg/logger"
)

// Subprotocols offered on the WebSocket upgrade, newest first.
var Subprotocols = []string{"v12.stomp", "v11.stomp", "v10.stomp"}

// NetDialer opens STOMP sessions over WebSocket (ws, wss) or plain TCP
// (tcp, stomp) depending on the configured URL scheme.
type NetDialer struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// DialerOption configures a NetDialer.
type DialerOption func(*NetDialer)

// WithHTTPClient sets the client used for the WebSocket upgrade request.
func WithHTTPClient(c *http.Client) DialerOption {
	return func(d *NetDialer) {
		if c != nil {
			d.httpClient = c
		}
	}
}

// WithLogger sets the logger for the dialer and its sessions.
func WithLogger(l *slog.Logger) DialerOption {
	return func(d *NetDialer) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDialer validates cfg and returns a dialer for it.
func NewDialer(cfg Config, opts ...DialerOption) (*NetDialer, error) {
	if _, err := parseURL(cfg.URL); err != nil {
		return nil, err
	}
	d := &NetDialer{
		cfg:    cfg.withDefaults(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(logger.Component("stomp"))
	return d, nil
}

// Dial connects to the broker and completes the STOMP handshake within
// the configured dial timeout.
func (d *NetDialer) Dial(ctx context.Context, creds Credentials) (Session, error) {
	u, err := parseURL(d.cfg.URL)
	if err != nil {
		return nil, err
	}

	dialCtx, cancelDial := context.WithTimeout(ctx, d.cfg.DialTimeout)
	defer cancelDial()

	// The socket outlives the dial context; the session cancels it on close.
	connCtx, cancelConn := context.WithCancel(context.Background())

	var raw net.Conn
	switch u.Scheme {
	case "ws", "wss":
		raw, err = d.dialWebSocket(dialCtx, connCtx, u, creds)
	default:
		var nd net.Dialer
		raw, err = nd.DialContext(dialCtx, "tcp", u.Host)
	}
	if err != nil {
		cancelConn()
		return nil, errors.Join(ErrDial, err)
	}

	s, err := open(dialCtx, raw, cancelConn, d.cfg, creds, d.logger.With(logger.Identity(creds.Identity)))
	if err != nil {
		return nil, err
	}
	d.logger.Debug("stomp session opened", logger.Identity(creds.Identity), slog.String("scheme", u.Scheme))
	return s, nil
}

func (d *NetDialer) dialWebSocket(dialCtx, connCtx context.Context, u *url.URL, creds Credentials) (net.Conn, error) {
	header := http.Header{}
	if creds.Token != "" {
		header.Set("Authorization", "Bearer "+creds.Token)
	}

	ws, _, err := websocket.Dial(dialCtx, u.String(), &websocket.DialOptions{
		HTTPClient:   d.httpClient,
		HTTPHeader:   header,
		Subprotocols: Subprotocols,
	})
	if err != nil {
		return nil, err
	}
	ws.SetReadLimit(d.cfg.ReadLimit)

	return websocket.NetConn(connCtx, ws, websocket.MessageText), nil
}

func parseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	switch u.Scheme {
	case "ws", "wss", "tcp", "stomp":
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	return u, nil
}
