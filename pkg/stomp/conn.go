package stomp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	gostomp "github.com/go-stomp/stomp/v3"
	"github.com/go-stomp/stomp/v3/frame"

	"github.com/windlogs/notifykit/pkg/logger"
)

// maxLoggedBody bounds the ERROR frame body written to the log.
const maxLoggedBody = 1 << 10

type session struct {
	conn      *gostomp.Conn
	cancel    context.CancelFunc
	closeWait time.Duration
	logger    *slog.Logger

	done chan struct{}
	once sync.Once
	mu   sync.RWMutex
	err  error
}

// open performs the STOMP handshake over an established socket. cancel
// releases the socket when the session ends.
func open(ctx context.Context, raw net.Conn, cancel context.CancelFunc, cfg Config, creds Credentials, log *slog.Logger) (*session, error) {
	s := &session{
		cancel:    cancel,
		closeWait: cfg.CloseWait,
		logger:    log,
		done:      make(chan struct{}),
	}
	watched := &watchedConn{Conn: raw, onErr: s.fail}

	opts := []func(*gostomp.Conn) error{
		gostomp.ConnOpt.HeartBeat(cfg.Heartbeat, cfg.Heartbeat),
		gostomp.ConnOpt.Host(cfg.Host),
	}
	if cfg.Login != "" {
		opts = append(opts, gostomp.ConnOpt.Login(cfg.Login, cfg.Passcode))
	}
	if creds.Token != "" {
		opts = append(opts, gostomp.ConnOpt.Header("Authorization", "Bearer "+creds.Token))
	}

	type result struct {
		conn *gostomp.Conn
		err  error
	}
	resCh := make(chan result, 1)
	go func() {
		c, err := gostomp.Connect(watched, opts...)
		resCh <- result{conn: c, err: err}
	}()

	select {
	case res := <-resCh:
		if res.err != nil {
			cancel()
			_ = raw.Close()
			return nil, errors.Join(ErrHandshake, res.err)
		}
		s.conn = res.conn
		return s, nil
	case <-ctx.Done():
		// Unblocks the pending handshake read.
		cancel()
		_ = raw.Close()
		<-resCh
		return nil, errors.Join(ErrHandshake, ctx.Err())
	}
}

func (s *session) Subscribe(destination string, h Handler) error {
	if err := s.Err(); err != nil {
		return errors.Join(ErrSubscribe, err)
	}

	sub, err := s.conn.Subscribe(destination, gostomp.AckAuto)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSubscribe, destination, err)
	}

	go s.pump(sub, h)
	return nil
}

// pump hands frames to h one at a time, so a subscription never reorders.
func (s *session) pump(sub *gostomp.Subscription, h Handler) {
	for msg := range sub.C {
		if msg.Err != nil {
			var stompErr *gostomp.Error
			if errors.As(msg.Err, &stompErr) && stompErr.Frame != nil {
				attrs := []any{
					logger.Destination(sub.Destination()),
					slog.String("message", stompErr.Message),
				}
				s.logger.Error("broker sent ERROR frame", append(attrs, errorFrameAttrs(stompErr.Frame)...)...)
			}
			s.fail(msg.Err)
			return
		}
		h(Frame{
			Destination: msg.Destination,
			ContentType: msg.ContentType,
			Body:        msg.Body,
		})
	}
}

func (s *session) Send(destination, contentType string, body []byte) error {
	if err := s.Err(); err != nil {
		return errors.Join(ErrSend, err)
	}
	if err := s.conn.Send(destination, contentType, body); err != nil {
		s.fail(err)
		return fmt.Errorf("%w: %s: %w", ErrSend, destination, err)
	}
	return nil
}

func (s *session) Done() <-chan struct{} {
	return s.done
}

func (s *session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Close sends DISCONNECT and waits up to closeWait for the receipt before
// tearing down the socket.
func (s *session) Close() error {
	if !s.finish(ErrSessionClosed) {
		return nil
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.conn.Disconnect() }()

	var err error
	select {
	case err = <-errCh:
	case <-time.After(s.closeWait):
		s.cancel()
		err = <-errCh
	}
	s.cancel()

	if err != nil && !errors.Is(err, gostomp.ErrAlreadyClosed) {
		return err
	}
	return nil
}

func (s *session) fail(err error) {
	if s.finish(errors.Join(ErrConnectionLost, err)) {
		s.logger.Warn("stomp session lost", logger.Error(err))
		s.cancel()
	}
}

// finish records the terminal error once and reports whether this call did it.
func (s *session) finish(err error) bool {
	first := false
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.done)
		first = true
	})
	return first
}

// errorFrameAttrs describes f with every header and at most maxLoggedBody
// bytes of its body.
func errorFrameAttrs(f *frame.Frame) []any {
	var headers []any
	if f.Header != nil {
		for i := range f.Header.Len() {
			k, v := f.Header.GetAt(i)
			headers = append(headers, slog.String(k, v))
		}
	}

	body := f.Body
	truncated := len(body) > maxLoggedBody
	if truncated {
		body = body[:maxLoggedBody]
	}

	return []any{
		slog.String("command", f.Command),
		slog.Group("headers", headers...),
		slog.String("body", string(body)),
		slog.Bool("body_truncated", truncated),
	}
}
