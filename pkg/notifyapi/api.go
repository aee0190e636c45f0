package notifyapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/windlogs/notifykit/pkg/broadcast"
	"github.com/windlogs/notifykit/pkg/httpserver"
	"github.com/windlogs/notifykit/pkg/logger"
	"github.com/windlogs/notifykit/pkg/notifications"
	"github.com/windlogs/notifykit/pkg/requestid"
	"github.com/windlogs/notifykit/pkg/session"
	"github.com/windlogs/notifykit/pkg/statemachine"
)

// Notifications is the notification pipeline as used by the API.
type Notifications interface {
	Records() []notifications.Record
	UnreadCount() int
	MarkRead(ctx context.Context, id int64) bool
	MarkAllRead(ctx context.Context) int
	FetchAll(ctx context.Context, email string) []notifications.Record
	FetchUnread(ctx context.Context) []notifications.Record
	FetchUnreadCount(ctx context.Context) int
	Send(ctx context.Context, rec notifications.Record) bool
	SendPrivate(ctx context.Context, rec notifications.Record, recipient string) bool
	Persist(ctx context.Context, rec notifications.Record) (notifications.Record, error)
	SubscribeRecords(ctx context.Context) broadcast.Subscriber[[]notifications.Record]
	SubscribeUnread(ctx context.Context) broadcast.Subscriber[int]
	SubscribeArrivals(ctx context.Context) broadcast.Subscriber[notifications.Record]
}

// Connection is the broker connection as used by the API.
type Connection interface {
	Connect(identity string)
	Disconnect()
	Connected() bool
	State() statemachine.State
	Attempts() int
}

// Session is the session context owner as used by the API.
type Session interface {
	Current() session.Context
	Set(ctx context.Context, c session.Context) error
	Clear(ctx context.Context) error
}

// API serves the local HTTP interface of the daemon.
type API struct {
	notifications Notifications
	conn          Connection
	session       Session
	checks        []httpserver.Check
	keepAlive     time.Duration
	logger        *slog.Logger
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithHealthChecks adds readiness probes to /healthz.
func WithHealthChecks(checks ...httpserver.Check) Option {
	return func(a *API) {
		a.checks = append(a.checks, checks...)
	}
}

// WithKeepAlive sets the interval of comment frames on event streams.
func WithKeepAlive(d time.Duration) Option {
	return func(a *API) {
		if d > 0 {
			a.keepAlive = d
		}
	}
}

// New creates an API.
func New(n Notifications, conn Connection, sess Session, opts ...Option) *API {
	a := &API{
		notifications: n,
		conn:          conn,
		session:       sess,
		keepAlive:     15 * time.Second,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(logger.Component("api"))
	return a
}

// Handler returns the routed handler.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(a.logRequests)

	r.Get("/healthz", httpserver.HealthCheckHandler(a.logger, a.checks...))
	r.Get("/status", a.status)
	r.Post("/connect", a.connect)
	r.Post("/disconnect", a.disconnect)

	r.Route("/session", func(r chi.Router) {
		r.Get("/", a.getSession)
		r.Put("/", a.putSession)
		r.Delete("/", a.deleteSession)
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", a.list)
		r.Post("/", a.send)
		r.Get("/unread", a.unread)
		r.Get("/unread-count", a.unreadCount)
		r.Get("/stream", a.stream)
		r.Post("/private", a.sendPrivate)
		r.Post("/persist", a.persist)
		r.Post("/read-all", a.markAllRead)
		r.Post("/refresh", a.refresh)
		r.Post("/{id}/read", a.markRead)
	})

	return r
}

func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.logger.DebugContext(r.Context(), "api request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			logger.Duration(time.Since(start)),
		)
	})
}
