package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/windlogs/notifykit/pkg/broadcast"
	"github.com/windlogs/notifykit/pkg/logger"
)

// Holder is the single owner of the current session context. Components read
// the identity through it instead of keeping their own copies.
type Holder struct {
	store   Store
	logger  *slog.Logger
	changes *broadcast.LatestBroadcaster[Context]

	mu      sync.RWMutex
	current Context
}

// Option configures a Holder.
type Option func(*Holder)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Holder) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHolder creates a Holder persisting through store. A nil store keeps the
// context in memory.
func NewHolder(store Store, opts ...Option) *Holder {
	if store == nil {
		store = NewMemoryStore()
	}
	h := &Holder{
		store:   store,
		logger:  slog.Default(),
		changes: broadcast.NewLatestBroadcaster(Context{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(logger.Component("session"))
	return h
}

// Load reads the persisted context and makes it current. It returns
// ErrNotFound when the store is empty; the current context is left untouched.
func (h *Holder) Load(ctx context.Context) (Context, error) {
	c, err := h.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			h.logger.WarnContext(ctx, "failed to load session context", logger.Error(err))
		}
		return Context{}, err
	}

	c = c.Normalize()
	h.replace(c)
	h.logger.DebugContext(ctx, "session context loaded", logger.Identity(c.Email))
	return c, nil
}

// Set validates, persists and publishes c.
func (h *Holder) Set(ctx context.Context, c Context) error {
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return err
	}
	if err := h.store.Save(ctx, c); err != nil {
		return err
	}
	h.replace(c)
	h.logger.InfoContext(ctx, "session context updated", logger.Identity(c.Email))
	return nil
}

// Clear removes the persisted context and publishes the empty one.
func (h *Holder) Clear(ctx context.Context) error {
	if err := h.store.Delete(ctx); err != nil {
		return err
	}
	h.replace(Context{})
	h.logger.InfoContext(ctx, "session context cleared")
	return nil
}

func (h *Holder) replace(c Context) {
	h.mu.Lock()
	h.current = c
	h.changes.Publish(c)
	h.mu.Unlock()
}

// Current returns the current context.
func (h *Holder) Current() Context {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Email returns the current identity.
func (h *Holder) Email() string {
	return h.Current().Email
}

// Tenant returns the current tenant.
func (h *Holder) Tenant() string {
	return h.Current().Tenant
}

// Token returns the current bearer token.
func (h *Holder) Token() string {
	return h.Current().Token
}

// Changes subscribes to context updates; the current value is delivered first.
func (h *Holder) Changes(ctx context.Context) broadcast.Subscriber[Context] {
	return h.changes.Subscribe(ctx)
}

// Close releases change subscribers.
func (h *Holder) Close() error {
	return h.changes.Close()
}
