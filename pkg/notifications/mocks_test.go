package notifications_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/windlogs/notifykit/pkg/notifications"
	"github.com/windlogs/notifykit/pkg/stomp"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connected() bool {
	return m.Called().Bool(0)
}

func (m *MockTransport) Send(destination, contentType string, body []byte) error {
	return m.Called(destination, contentType, body).Error(0)
}

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) List(ctx context.Context, email string) ([]notifications.Record, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notifications.Record), args.Error(1)
}

func (m *MockBackend) Unread(ctx context.Context, email, tenant string) ([]notifications.Record, error) {
	args := m.Called(ctx, email, tenant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notifications.Record), args.Error(1)
}

func (m *MockBackend) UnreadCount(ctx context.Context, email, tenant string) (int, error) {
	args := m.Called(ctx, email, tenant)
	return args.Int(0), args.Error(1)
}

func (m *MockBackend) MarkRead(ctx context.Context, id int64) (notifications.Record, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(notifications.Record), args.Error(1)
}

func (m *MockBackend) MarkAllRead(ctx context.Context, email string) ([]notifications.Record, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notifications.Record), args.Error(1)
}

func (m *MockBackend) Create(ctx context.Context, rec notifications.Record) (notifications.Record, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(notifications.Record), args.Error(1)
}

type staticIdentity struct {
	email  string
	tenant string
}

func (s staticIdentity) Email() string  { return s.email }
func (s staticIdentity) Tenant() string { return s.tenant }

// fakeSession records subscriptions so tests can push frames by destination.
type fakeSession struct {
	mu       sync.Mutex
	handlers map[string]stomp.Handler
	subErr   error
}

func newFakeSession() *fakeSession {
	return &fakeSession{handlers: make(map[string]stomp.Handler)}
}

func (s *fakeSession) Subscribe(destination string, h stomp.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subErr != nil {
		return s.subErr
	}
	s.handlers[destination] = h
	return nil
}

func (s *fakeSession) Send(string, string, []byte) error { return nil }
func (s *fakeSession) Done() <-chan struct{}             { return nil }
func (s *fakeSession) Err() error                        { return nil }
func (s *fakeSession) Close() error                      { return nil }

func (s *fakeSession) topics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.handlers))
	for d := range s.handlers {
		out = append(out, d)
	}
	return out
}

func (s *fakeSession) deliver(destination, body string) {
	s.mu.Lock()
	h := s.handlers[destination]
	s.mu.Unlock()
	if h != nil {
		h(stomp.Frame{Destination: destination, ContentType: "application/json", Body: []byte(body)})
	}
}
