package notifyapi_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/windlogs/notifykit/pkg/broadcast"
	"github.com/windlogs/notifykit/pkg/connection"
	"github.com/windlogs/notifykit/pkg/notifications"
	"github.com/windlogs/notifykit/pkg/statemachine"
)

type MockNotifications struct {
	mock.Mock

	records  *broadcast.LatestBroadcaster[[]notifications.Record]
	unread   *broadcast.LatestBroadcaster[int]
	arrivals *broadcast.MemoryBroadcaster[notifications.Record]
}

func newMockNotifications() *MockNotifications {
	return &MockNotifications{
		records:  broadcast.NewLatestBroadcaster([]notifications.Record{}),
		unread:   broadcast.NewLatestBroadcaster(0),
		arrivals: broadcast.NewMemoryBroadcaster[notifications.Record](8),
	}
}

func (m *MockNotifications) Records() []notifications.Record {
	return m.Called().Get(0).([]notifications.Record)
}

func (m *MockNotifications) UnreadCount() int {
	return m.Called().Int(0)
}

func (m *MockNotifications) MarkRead(ctx context.Context, id int64) bool {
	return m.Called(ctx, id).Bool(0)
}

func (m *MockNotifications) MarkAllRead(ctx context.Context) int {
	return m.Called(ctx).Int(0)
}

func (m *MockNotifications) FetchAll(ctx context.Context, email string) []notifications.Record {
	return m.Called(ctx, email).Get(0).([]notifications.Record)
}

func (m *MockNotifications) FetchUnread(ctx context.Context) []notifications.Record {
	return m.Called(ctx).Get(0).([]notifications.Record)
}

func (m *MockNotifications) FetchUnreadCount(ctx context.Context) int {
	return m.Called(ctx).Int(0)
}

func (m *MockNotifications) Send(ctx context.Context, rec notifications.Record) bool {
	return m.Called(ctx, rec).Bool(0)
}

func (m *MockNotifications) SendPrivate(ctx context.Context, rec notifications.Record, recipient string) bool {
	return m.Called(ctx, rec, recipient).Bool(0)
}

func (m *MockNotifications) Persist(ctx context.Context, rec notifications.Record) (notifications.Record, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(notifications.Record), args.Error(1)
}

func (m *MockNotifications) SubscribeRecords(ctx context.Context) broadcast.Subscriber[[]notifications.Record] {
	return m.records.Subscribe(ctx)
}

func (m *MockNotifications) SubscribeUnread(ctx context.Context) broadcast.Subscriber[int] {
	return m.unread.Subscribe(ctx)
}

func (m *MockNotifications) SubscribeArrivals(ctx context.Context) broadcast.Subscriber[notifications.Record] {
	return m.arrivals.Subscribe(ctx)
}

type fakeConnection struct {
	mu           sync.Mutex
	connected    bool
	attempts     int
	connectCalls []string
	disconnects  int
}

func (f *fakeConnection) Connect(identity string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectCalls = append(f.connectCalls, identity)
}

func (f *fakeConnection) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	f.connected = false
}

func (f *fakeConnection) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeConnection) State() statemachine.State {
	if f.Connected() {
		return connection.StateConnected
	}
	return connection.StateDisconnected
}

func (f *fakeConnection) Attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func broadcastMsg(rec notifications.Record) broadcast.Message[notifications.Record] {
	return broadcast.Message[notifications.Record]{Data: rec}
}
