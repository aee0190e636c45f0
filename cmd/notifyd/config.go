package main

import (
	"errors"

	"github.com/windlogs/notifykit/pkg/config"
	"github.com/windlogs/notifykit/pkg/connection"
	"github.com/windlogs/notifykit/pkg/httpserver"
	"github.com/windlogs/notifykit/pkg/notifications"
	"github.com/windlogs/notifykit/pkg/redis"
	"github.com/windlogs/notifykit/pkg/session"
	"github.com/windlogs/notifykit/pkg/stomp"
)

type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Name     string `env:"APP_NAME" envDefault:"notifyd"`
	LogLevel string `env:"LOG_LEVEL"` // Overrides the level chosen by APP_ENV.
}

type configs struct {
	app           appConfig
	broker        stomp.Config
	connection    connection.Config
	notifications notifications.Config
	session       session.Config
	redis         redis.Config
	http          httpserver.Config
}

func loadConfigs() (configs, error) {
	var c configs
	err := errors.Join(
		config.Load(&c.app),
		config.Load(&c.broker),
		config.Load(&c.connection),
		config.Load(&c.notifications),
		config.Load(&c.session),
		config.Load(&c.redis),
		config.Load(&c.http),
	)
	return c, err
}
