package notifications

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/windlogs/notifykit/pkg/broadcast"
	"github.com/windlogs/notifykit/pkg/logger"
)

// Store holds the records visible to the current session, newest first.
// Every mutation publishes a fresh snapshot of the list and the unread count.
// Published slices are shared between subscribers and must not be modified.
type Store struct {
	formatter *TimeFormatter
	now       func() time.Time
	logger    *slog.Logger

	list     *broadcast.LatestBroadcaster[[]Record]
	unread   *broadcast.LatestBroadcaster[int]
	arrivals *broadcast.MemoryBroadcaster[Record]

	mu      sync.Mutex
	records []Record
	seqs    []uint64 // accept sequence per record; 0 for fetched ones
	seq     uint64
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithFormatter sets the time-ago formatter. Defaults to English.
func WithFormatter(f *TimeFormatter) StoreOption {
	return func(s *Store) {
		if f != nil {
			s.formatter = f
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithStoreLogger sets the logger.
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		formatter: NewTimeFormatter("en"),
		now:       time.Now,
		logger:    slog.Default(),
		list:      broadcast.NewLatestBroadcaster([]Record{}),
		unread:    broadcast.NewLatestBroadcaster(0),
		arrivals:  broadcast.NewMemoryBroadcaster[Record](64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Accept prepends rec and returns it as stored.
func (s *Store) Accept(rec Record) Record {
	s.mu.Lock()
	now := s.now()
	rec = rec.Clone().withDefaults(now)
	rec.TimeAgo = s.formatter.Format(rec.CreatedAt.Time, now)
	s.seq++
	s.records = slices.Insert(s.records, 0, rec)
	s.seqs = slices.Insert(s.seqs, 0, s.seq)
	s.publishLocked()
	s.mu.Unlock()

	_ = s.arrivals.Broadcast(context.Background(), broadcast.Message[Record]{Data: rec.Clone()})
	s.logger.Debug("notification accepted", logger.NotificationID(rec.ID))
	return rec
}

// MarkRead marks the record with id as read. It reports whether anything
// changed; unknown ids and already-read records are left alone.
func (s *Store) MarkRead(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.records, func(r Record) bool { return r.ID == id })
	if i < 0 || s.records[i].Read {
		return false
	}
	s.records[i].Read = true
	s.publishLocked()
	return true
}

// MarkAllRead marks every record as read and returns how many changed.
func (s *Store) MarkAllRead() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for i := range s.records {
		if !s.records[i].Read {
			s.records[i].Read = true
			changed++
		}
	}
	s.publishLocked()
	return changed
}

// Replace discards the current list in favour of records, keeping their order.
func (s *Store) Replace(records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(records, nil)
}

// Mark returns the current position in the accept sequence, for use with
// ReplaceSince.
func (s *Store) Mark() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// ReplaceSince is Replace, except that records accepted after mark stay on
// top of the list unless records carries the same id.
func (s *Store) ReplaceSince(records []Record, mark uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(records, func(seq uint64) bool { return seq > mark })
}

func (s *Store) replaceLocked(records []Record, keep func(seq uint64) bool) {
	now := s.now()
	next := make([]Record, 0, len(records))
	ids := make(map[int64]struct{}, len(records))
	for _, r := range records {
		r = r.Clone().withDefaults(now)
		r.TimeAgo = s.formatter.Format(r.CreatedAt.Time, now)
		next = append(next, r)
		if r.ID != 0 {
			ids[r.ID] = struct{}{}
		}
	}

	var kept []Record
	var keptSeqs []uint64
	if keep != nil {
		for i, r := range s.records {
			if !keep(s.seqs[i]) {
				continue
			}
			if _, dup := ids[r.ID]; dup {
				continue
			}
			kept = append(kept, r)
			keptSeqs = append(keptSeqs, s.seqs[i])
		}
	}

	s.records = append(kept, next...)
	s.seqs = append(keptSeqs, make([]uint64, len(next))...)
	s.publishLocked()
}

// Refresh recomputes every TimeAgo label against the current time.
func (s *Store) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for i := range s.records {
		s.records[i].TimeAgo = s.formatter.Format(s.records[i].CreatedAt.Time, now)
	}
	s.publishLocked()
}

// Clear empties the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.seqs = nil
	s.publishLocked()
}

// Records returns a copy of the current list.
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get returns the record with id.
func (s *Store) Get(id int64) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return Record{}, false
}

// UnreadCount returns the number of unread records.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unreadLocked()
}

// SubscribeRecords streams list snapshots, starting with the current one.
func (s *Store) SubscribeRecords(ctx context.Context) broadcast.Subscriber[[]Record] {
	return s.list.Subscribe(ctx)
}

// SubscribeUnread streams the unread count, starting with the current one.
func (s *Store) SubscribeUnread(ctx context.Context) broadcast.Subscriber[int] {
	return s.unread.Subscribe(ctx)
}

// SubscribeArrivals streams each accepted record once. Slow subscribers may
// miss records.
func (s *Store) SubscribeArrivals(ctx context.Context) broadcast.Subscriber[Record] {
	return s.arrivals.Subscribe(ctx)
}

// Close releases all subscribers.
func (s *Store) Close() error {
	_ = s.arrivals.Close()
	_ = s.unread.Close()
	return s.list.Close()
}

func (s *Store) publishLocked() {
	s.list.Publish(s.snapshotLocked())
	s.unread.Publish(s.unreadLocked())
}

func (s *Store) snapshotLocked() []Record {
	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

func (s *Store) unreadLocked() int {
	n := 0
	for _, r := range s.records {
		if !r.Read {
			n++
		}
	}
	return n
}
