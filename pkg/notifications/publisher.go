package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/windlogs/notifykit/pkg/logger"
)

const (
	DefaultSendDestination    = "/app/notification.send"
	DefaultPrivateDestination = "/app/notification.private"
	DefaultMarkAllDestination = "/app/notification.markAllAsRead"

	contentTypeJSON = "application/json"
)

// Transport is the live broker session as seen by the publisher.
type Transport interface {
	Connected() bool
	Send(destination, contentType string, body []byte) error
}

// Destinations are the broker destinations outbound commands are sent to.
type Destinations struct {
	Send    string
	Private string
	MarkAll string
}

// Publisher sends user-initiated notification commands, preferring the live
// transport.
type Publisher struct {
	transport    Transport
	backend      Backend
	local        Acceptor
	identity     func() string
	destinations Destinations
	selfDelivery bool
	now          func() time.Time
	logger       *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithDestinations overrides the outbound destinations. Empty fields keep
// their defaults.
func WithDestinations(d Destinations) PublisherOption {
	return func(p *Publisher) {
		if d.Send != "" {
			p.destinations.Send = d.Send
		}
		if d.Private != "" {
			p.destinations.Private = d.Private
		}
		if d.MarkAll != "" {
			p.destinations.MarkAll = d.MarkAll
		}
	}
}

// WithSelfDelivery makes SendPrivate hand a record addressed to the current
// identity to local when the transport is down.
func WithSelfDelivery(local Acceptor, identity func() string) PublisherOption {
	return func(p *Publisher) {
		if local != nil && identity != nil {
			p.local = local
			p.identity = identity
			p.selfDelivery = true
		}
	}
}

// WithPublisherClock replaces time.Now for placeholder ids.
func WithPublisherClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

// WithPublisherLogger sets the logger.
func WithPublisherLogger(l *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPublisher creates a Publisher. backend is used for the mark-all-read
// fallback and may be nil.
func NewPublisher(transport Transport, backend Backend, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		transport: transport,
		backend:   backend,
		destinations: Destinations{
			Send:    DefaultSendDestination,
			Private: DefaultPrivateDestination,
			MarkAll: DefaultMarkAllDestination,
		},
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(logger.Component("publisher"))
	return p
}

// Send publishes rec to the send destination. It returns false when the
// transport is down or the frame could not be written.
func (p *Publisher) Send(ctx context.Context, rec Record) bool {
	return p.publish(ctx, p.destinations.Send, p.outbound(rec))
}

// SendPrivate publishes rec addressed to recipient. With self delivery
// enabled, a record for the current identity is accepted locally while the
// transport is down.
func (p *Publisher) SendPrivate(ctx context.Context, rec Record, recipient string) bool {
	rec = p.outbound(rec)
	rec.RecipientEmail = recipient

	if !p.transport.Connected() && p.selfDelivery && RecipientMatches(recipient, p.identity()) {
		p.local.Accept(rec)
		p.logger.InfoContext(ctx, "transport down, delivered private notification locally",
			logger.NotificationID(rec.ID),
		)
		return true
	}
	return p.publish(ctx, p.destinations.Private, rec)
}

// MarkAllAsRead tells the backend that every notification of identity is
// read, over the transport when live and through the REST API otherwise.
func (p *Publisher) MarkAllAsRead(ctx context.Context, identity string) error {
	if identity == "" {
		return ErrNoIdentity
	}

	if p.transport.Connected() {
		body, err := json.Marshal(map[string]string{"email": identity})
		if err != nil {
			return err
		}
		err = p.transport.Send(p.destinations.MarkAll, contentTypeJSON, body)
		if err == nil {
			return nil
		}
		p.logger.WarnContext(ctx, "mark-all-read publish failed, falling back to REST",
			logger.Destination(p.destinations.MarkAll),
			logger.Error(err),
		)
	}

	if p.backend == nil {
		return ErrNoBackend
	}
	_, err := p.backend.MarkAllRead(ctx, identity)
	return err
}

func (p *Publisher) outbound(rec Record) Record {
	now := p.now()
	if rec.ID == 0 {
		rec.ID = PlaceholderID(now)
	}
	return rec.Clone().withDefaults(now)
}

func (p *Publisher) publish(ctx context.Context, destination string, rec Record) bool {
	if !p.transport.Connected() {
		p.logger.WarnContext(ctx, "transport not connected, notification not sent",
			logger.Destination(destination),
		)
		return false
	}

	body, err := json.Marshal(rec)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to encode notification", logger.Error(err))
		return false
	}
	if err := p.transport.Send(destination, contentTypeJSON, body); err != nil {
		p.logger.WarnContext(ctx, "failed to publish notification",
			logger.Destination(destination),
			logger.Error(err),
		)
		return false
	}
	return true
}
