package notifications

import (
	"context"
	"log/slog"
	"strings"

	"github.com/windlogs/notifykit/pkg/logger"
	"github.com/windlogs/notifykit/pkg/stomp"
)

const (
	DefaultGlobalTopic = "/topic/notifications"
	DefaultUserTopic   = "/user/{email}/topic/notifications"
)

// Acceptor takes records that passed routing.
type Acceptor interface {
	Accept(rec Record) Record
}

// Router subscribes the notification topics on every new session and decides
// which frames reach the Acceptor.
type Router struct {
	acceptor    Acceptor
	globalTopic string
	userTopic   string
	logger      *slog.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithTopics overrides the global topic and the per-user topic template.
// The template's "{email}" placeholder is replaced with the identity.
func WithTopics(global, user string) RouterOption {
	return func(r *Router) {
		if global != "" {
			r.globalTopic = global
		}
		if user != "" {
			r.userTopic = user
		}
	}
}

// WithRouterLogger sets the logger.
func WithRouterLogger(l *slog.Logger) RouterOption {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRouter creates a Router delivering into acceptor.
func NewRouter(acceptor Acceptor, opts ...RouterOption) *Router {
	r := &Router{
		acceptor:    acceptor,
		globalTopic: DefaultGlobalTopic,
		userTopic:   DefaultUserTopic,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logger.Component("router"))
	return r
}

// OnConnect subscribes the global topic and, when identity is known, the
// per-user topic. It has the shape of a connection hook.
func (r *Router) OnConnect(ctx context.Context, sess stomp.Session, identity string) {
	if err := sess.Subscribe(r.globalTopic, r.GlobalHandler(identity)); err != nil {
		r.logger.ErrorContext(ctx, "failed to subscribe to global topic",
			logger.Topic(r.globalTopic),
			logger.Error(err),
		)
	}

	if strings.TrimSpace(identity) == "" {
		r.logger.WarnContext(ctx, "no identity, skipping per-user topic")
		return
	}

	topic := r.UserTopic(identity)
	if err := sess.Subscribe(topic, r.UserHandler()); err != nil {
		r.logger.ErrorContext(ctx, "failed to subscribe to user topic",
			logger.Topic(topic),
			logger.Error(err),
		)
	}
}

// UserTopic returns the per-user topic for identity.
func (r *Router) UserTopic(identity string) string {
	return strings.ReplaceAll(r.userTopic, "{email}", strings.TrimSpace(identity))
}

// GlobalHandler accepts only frames whose recipient is identity. Frames
// without a recipient are dropped.
func (r *Router) GlobalHandler(identity string) stomp.Handler {
	return func(f stomp.Frame) {
		rec, ok := r.decode(f)
		if !ok {
			return
		}
		if !RecipientMatches(rec.RecipientEmail, identity) {
			r.logger.Debug("dropping notification not addressed to this session",
				logger.NotificationID(rec.ID),
				logger.Topic(f.Destination),
			)
			return
		}
		r.acceptor.Accept(rec)
	}
}

// UserHandler accepts every frame; the topic address already scopes it.
func (r *Router) UserHandler() stomp.Handler {
	return func(f stomp.Frame) {
		if rec, ok := r.decode(f); ok {
			r.acceptor.Accept(rec)
		}
	}
}

func (r *Router) decode(f stomp.Frame) (Record, bool) {
	rec, err := DecodeRecord(f.Body)
	if err != nil {
		r.logger.Warn("dropping malformed notification frame",
			logger.Topic(f.Destination),
			slog.Int("size", len(f.Body)),
			logger.Error(err),
		)
		return Record{}, false
	}
	return rec, true
}

// RecipientMatches compares addresses ignoring case and surrounding spaces.
// An empty identity or recipient matches nothing.
func RecipientMatches(recipient, identity string) bool {
	identity = strings.TrimSpace(identity)
	if identity == "" || strings.TrimSpace(recipient) == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(recipient), identity)
}
