// Command notifyd keeps a STOMP session to the notification broker open on
// behalf of one user, mirrors their notifications locally and serves them on
// a local HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/windlogs/notifykit/pkg/connection"
	"github.com/windlogs/notifykit/pkg/httpserver"
	"github.com/windlogs/notifykit/pkg/logger"
	"github.com/windlogs/notifykit/pkg/notifications"
	"github.com/windlogs/notifykit/pkg/notifyapi"
	"github.com/windlogs/notifykit/pkg/redis"
	"github.com/windlogs/notifykit/pkg/requestid"
	"github.com/windlogs/notifykit/pkg/session"
	"github.com/windlogs/notifykit/pkg/stomp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "notifyd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Configuration.
	cfg, err := loadConfigs()
	if err != nil {
		return err
	}

	// 2. Logging.
	logOpts := []logger.Option{
		logger.WithEnvironment(cfg.app.Env, cfg.app.Name),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	}
	if cfg.app.LogLevel != "" {
		logOpts = append(logOpts, logger.WithLevelName(cfg.app.LogLevel))
	}
	log := logger.New(logOpts...)
	logger.SetAsDefault(log)

	// 3. Session context.
	var checks []httpserver.Check
	store, closeStore, err := openSessionStore(ctx, log, cfg, &checks)
	if err != nil {
		return err
	}
	defer closeStore()

	holder := session.NewHolder(store, session.WithLogger(log))
	defer holder.Close()

	if _, err := holder.Load(ctx); err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			return fmt.Errorf("load session: %w", err)
		}
		if seed := cfg.session.Context(); !seed.IsZero() {
			if err := holder.Set(ctx, seed); err != nil {
				return fmt.Errorf("seed session: %w", err)
			}
		}
	}

	// 4. Broker transport and connection lifecycle.
	dialer, err := stomp.NewDialer(cfg.broker, stomp.WithLogger(log))
	if err != nil {
		return fmt.Errorf("broker dialer: %w", err)
	}

	notifyStore := notifications.NewStore(
		notifications.WithFormatter(notifications.NewTimeFormatter(cfg.notifications.Locale)),
		notifications.WithStoreLogger(log),
	)
	defer notifyStore.Close()

	router := notifications.NewRouter(notifyStore,
		notifications.WithTopics(cfg.notifications.GlobalTopic, cfg.notifications.UserTopic),
		notifications.WithRouterLogger(log),
	)

	conn, err := connection.NewFromConfig(dialer, cfg.connection,
		connection.WithLogger(log),
		connection.WithConnectHook(router.OnConnect),
		connection.WithTokenSource(holder.Token),
	)
	if err != nil {
		return fmt.Errorf("connection manager: %w", err)
	}
	defer conn.Close()

	// 5. REST backend, publisher and the facade over them.
	client, err := notifications.NewClient(cfg.notifications.APIURL,
		notifications.WithTimeout(cfg.notifications.APITimeout),
		notifications.WithBearerToken(holder.Token),
		notifications.WithClientLogger(log),
	)
	if err != nil {
		return err
	}

	pubOpts := []notifications.PublisherOption{
		notifications.WithDestinations(cfg.notifications.Destinations()),
		notifications.WithPublisherLogger(log),
	}
	if cfg.notifications.SelfDelivery {
		pubOpts = append(pubOpts, notifications.WithSelfDelivery(notifyStore, holder.Email))
	}
	publisher := notifications.NewPublisher(conn, client, pubOpts...)

	manager := notifications.NewManager(notifyStore, publisher, client, holder,
		notifications.WithManagerLogger(log),
	)

	// 6. Background work bound to the process lifetime.
	go followSession(ctx, log, holder, conn, manager)
	go refreshLabels(ctx, manager, cfg.notifications.RefreshInterval)
	go logArrivals(ctx, log, manager)

	// 7. Local API.
	checks = append(checks, httpserver.Check{
		Name: "broker",
		Probe: func(context.Context) error {
			if !conn.Connected() {
				return connection.ErrNotConnected
			}
			return nil
		},
	})
	api := notifyapi.New(manager, conn, holder,
		notifyapi.WithLogger(log),
		notifyapi.WithHealthChecks(checks...),
	)
	srv := httpserver.NewFromConfig(cfg.http, httpserver.WithLogger(log))

	log.InfoContext(ctx, "notifyd starting",
		slog.String("addr", cfg.http.Addr),
		logger.Identity(holder.Email()),
	)
	if err := srv.Run(ctx, api.Handler()); err != nil {
		return err
	}

	log.Info("notifyd stopped")
	return nil
}

// followSession connects for the current identity and follows every change:
// a new identity or token reconnects and refetches, an empty one disconnects
// and clears the local list. A tenant-only change keeps the session.
func followSession(ctx context.Context, log *slog.Logger, holder *session.Holder, conn *connection.Manager, manager *notifications.Manager) {
	changes := holder.Changes(ctx)
	defer changes.Close()

	var last session.Context
	for msg := range changes.Receive(ctx) {
		prev, cur := last, msg.Data
		last = cur

		if cur.IsZero() {
			if !prev.IsZero() {
				log.InfoContext(ctx, "session context cleared, disconnecting")
			}
			conn.Disconnect()
			manager.Clear()
			continue
		}
		if cur.Email == prev.Email && cur.Token == prev.Token {
			continue
		}

		// Connect ignores calls while an attempt is in flight, so the attempt
		// for the previous identity has to be abandoned first.
		if !prev.IsZero() {
			log.InfoContext(ctx, "session identity changed, reconnecting",
				logger.Identity(cur.Email),
			)
			conn.Disconnect()
		}
		conn.Connect(cur.Email)
		manager.FetchAll(ctx, cur.Email)
	}
}

// openSessionStore picks the session backend. The returned func releases it.
func openSessionStore(ctx context.Context, log *slog.Logger, cfg configs, checks *[]httpserver.Check) (session.Store, func(), error) {
	backend := cfg.session.Backend
	if backend == session.BackendAuto {
		backend = session.BackendMemory
		if cfg.redis.Enabled() {
			backend = session.BackendRedis
		}
	}
	log.Info("opening session store", slog.String("backend", backend))

	switch backend {
	case session.BackendMemory:
		return session.NewMemoryStore(), func() {}, nil
	case session.BackendRedis:
		client, err := redis.Connect(ctx, cfg.redis)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		*checks = append(*checks, httpserver.Check{Name: "redis", Probe: redis.Probe(client, 2*time.Second)})
		store := session.NewRedisStore(redis.NewStorage(client), cfg.session.Key, cfg.session.TTL)
		return store, func() { _ = client.Close() }, nil
	case session.BackendKeyring:
		ring, err := session.OpenKeyring(cfg.session.KeyringDir, cfg.session.KeyringPassword)
		if err != nil {
			return nil, nil, err
		}
		return session.NewKeyringStore(ring, cfg.session.Key), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", backend)
	}
}

func refreshLabels(ctx context.Context, manager *notifications.Manager, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.Refresh()
		}
	}
}

func logArrivals(ctx context.Context, log *slog.Logger, manager *notifications.Manager) {
	arrivals := manager.SubscribeArrivals(ctx)
	defer arrivals.Close()

	for msg := range arrivals.Receive(ctx) {
		log.InfoContext(ctx, "notification received",
			logger.NotificationID(msg.Data.ID),
			slog.String("type", msg.Data.Type),
		)
	}
}
