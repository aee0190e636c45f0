package session

import "time"

// DefaultKey is the key the context is stored under.
const DefaultKey = "notifykit:session"

// Store backends selectable through NOTIFY_SESSION_BACKEND.
const (
	BackendAuto    = ""
	BackendMemory  = "memory"
	BackendRedis   = "redis"
	BackendKeyring = "keyring"
)

// Config seeds the session context from the environment and selects where it
// is persisted. The auto backend uses redis when it is configured and memory
// otherwise.
type Config struct {
	Email  string        `env:"NOTIFY_EMAIL"`
	Tenant string        `env:"NOTIFY_TENANT"`
	Token  string        `env:"NOTIFY_TOKEN"`
	Key    string        `env:"NOTIFY_SESSION_KEY" envDefault:"notifykit:session"`
	TTL    time.Duration `env:"NOTIFY_SESSION_TTL" envDefault:"0s"`

	Backend         string `env:"NOTIFY_SESSION_BACKEND"`
	KeyringDir      string `env:"NOTIFY_KEYRING_DIR" envDefault:"~/.config/notifykit/keyring"`
	KeyringPassword string `env:"NOTIFY_KEYRING_PASSWORD"`
}

// Context returns the seeded context.
func (c Config) Context() Context {
	return Context{Email: c.Email, Tenant: c.Tenant, Token: c.Token}.Normalize()
}
