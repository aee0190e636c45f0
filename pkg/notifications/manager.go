package notifications

import (
	"context"
	"log/slog"

	"github.com/windlogs/notifykit/pkg/broadcast"
	"github.com/windlogs/notifykit/pkg/logger"
)

// Backend is the notification REST API.
type Backend interface {
	List(ctx context.Context, email string) ([]Record, error)
	Unread(ctx context.Context, email, tenant string) ([]Record, error)
	UnreadCount(ctx context.Context, email, tenant string) (int, error)
	MarkRead(ctx context.Context, id int64) (Record, error)
	MarkAllRead(ctx context.Context, email string) ([]Record, error)
	Create(ctx context.Context, rec Record) (Record, error)
}

// Identity supplies the current session identity.
type Identity interface {
	Email() string
	Tenant() string
}

// Manager is the entry point for consumers of the notification pipeline.
// Reads never fail: backend errors are logged and turned into empty results.
type Manager struct {
	store     *Store
	publisher *Publisher
	backend   Backend
	identity  Identity
	logger    *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger for the Manager.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a Manager.
func NewManager(store *Store, publisher *Publisher, backend Backend, identity Identity, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:     store,
		publisher: publisher,
		backend:   backend,
		identity:  identity,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(logger.Component("notifications"))
	return m
}

// Accept adds rec to the store.
func (m *Manager) Accept(rec Record) Record {
	return m.store.Accept(rec)
}

// MarkRead marks id as read locally and then on the backend. The backend call
// is best effort.
func (m *Manager) MarkRead(ctx context.Context, id int64) bool {
	if !m.store.MarkRead(id) {
		return false
	}
	if m.backend != nil {
		if _, err := m.backend.MarkRead(ctx, id); err != nil {
			m.logger.WarnContext(ctx, "failed to mark notification read on backend",
				logger.NotificationID(id),
				logger.Error(err),
			)
		}
	}
	return true
}

// MarkAllRead marks everything read locally and asks the backend to do the
// same. It always succeeds from the caller's point of view.
func (m *Manager) MarkAllRead(ctx context.Context) int {
	changed := m.store.MarkAllRead()
	if err := m.publisher.MarkAllAsRead(ctx, m.identity.Email()); err != nil {
		m.logger.WarnContext(ctx, "failed to mark all notifications read on backend",
			logger.Identity(m.identity.Email()),
			logger.Error(err),
		)
	}
	return changed
}

// FetchAll replaces the store with the backend history of email, or of the
// current identity when email is empty. Records accepted from the broker
// while the request was in flight are kept above the history. On failure it
// returns an empty list and leaves the store untouched.
func (m *Manager) FetchAll(ctx context.Context, email string) []Record {
	if email == "" {
		email = m.identity.Email()
	}
	if email == "" || m.backend == nil {
		return []Record{}
	}

	mark := m.store.Mark()
	records, err := m.backend.List(ctx, email)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to fetch notifications",
			logger.Identity(email),
			logger.Error(err),
		)
		return []Record{}
	}

	m.store.ReplaceSince(records, mark)
	m.logger.DebugContext(ctx, "notifications fetched",
		logger.Identity(email),
		slog.Int("count", len(records)),
	)
	return m.store.Records()
}

// FetchUnread returns the backend's unread notifications of the current
// identity without touching the store.
func (m *Manager) FetchUnread(ctx context.Context) []Record {
	email := m.identity.Email()
	if email == "" || m.backend == nil {
		return []Record{}
	}

	records, err := m.backend.Unread(ctx, email, m.identity.Tenant())
	if err != nil {
		m.logger.WarnContext(ctx, "failed to fetch unread notifications",
			logger.Identity(email),
			logger.Error(err),
		)
		return []Record{}
	}

	now := m.store.now()
	out := make([]Record, 0, len(records))
	for _, r := range records {
		r = r.withDefaults(now)
		r.TimeAgo = m.store.formatter.Format(r.CreatedAt.Time, now)
		out = append(out, r)
	}
	return out
}

// FetchUnreadCount returns the backend's unread count, or 0 on failure.
func (m *Manager) FetchUnreadCount(ctx context.Context) int {
	email := m.identity.Email()
	if email == "" || m.backend == nil {
		return 0
	}

	n, err := m.backend.UnreadCount(ctx, email, m.identity.Tenant())
	if err != nil {
		m.logger.WarnContext(ctx, "failed to fetch unread count",
			logger.Identity(email),
			logger.Error(err),
		)
		return 0
	}
	return n
}

// Send publishes rec over the transport.
func (m *Manager) Send(ctx context.Context, rec Record) bool {
	return m.publisher.Send(ctx, rec)
}

// SendPrivate publishes rec to recipient over the transport.
func (m *Manager) SendPrivate(ctx context.Context, rec Record, recipient string) bool {
	return m.publisher.SendPrivate(ctx, rec, recipient)
}

// Persist creates rec through the REST API.
func (m *Manager) Persist(ctx context.Context, rec Record) (Record, error) {
	if m.backend == nil {
		return Record{}, ErrNoBackend
	}
	return m.backend.Create(ctx, rec)
}

// Records returns the current list.
func (m *Manager) Records() []Record {
	return m.store.Records()
}

// UnreadCount returns the local unread count.
func (m *Manager) UnreadCount() int {
	return m.store.UnreadCount()
}

// Refresh recomputes the time-ago labels.
func (m *Manager) Refresh() {
	m.store.Refresh()
}

// Clear empties the local list.
func (m *Manager) Clear() {
	m.store.Clear()
}

// SubscribeRecords streams list snapshots.
func (m *Manager) SubscribeRecords(ctx context.Context) broadcast.Subscriber[[]Record] {
	return m.store.SubscribeRecords(ctx)
}

// SubscribeUnread streams the unread count.
func (m *Manager) SubscribeUnread(ctx context.Context) broadcast.Subscriber[int] {
	return m.store.SubscribeUnread(ctx)
}

// SubscribeArrivals streams newly accepted records.
func (m *Manager) SubscribeArrivals(ctx context.Context) broadcast.Subscriber[Record] {
	return m.store.SubscribeArrivals(ctx)
}
