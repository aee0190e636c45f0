package stomp

import "time"

// Config describes how to reach the broker.
type Config struct {
	URL         string        `env:"NOTIFY_BROKER_URL,required"`                    // ws://, wss://, tcp:// or stomp:// URL of the broker endpoint.
	Host        string        `env:"NOTIFY_BROKER_HOST" envDefault:"/"`             // Virtual host sent in the CONNECT frame.
	Login       string        `env:"NOTIFY_BROKER_LOGIN"`                           // Optional broker login.
	Passcode    string        `env:"NOTIFY_BROKER_PASSCODE"`                        // Optional broker passcode.
	Heartbeat   time.Duration `env:"NOTIFY_HEARTBEAT" envDefault:"4s"`              // Outgoing and expected incoming heartbeat interval.
	DialTimeout time.Duration `env:"NOTIFY_DIAL_TIMEOUT" envDefault:"10s"`          // Upper bound for socket dial plus STOMP handshake.
	CloseWait   time.Duration `env:"NOTIFY_CLOSE_WAIT" envDefault:"2s"`             // How long Close waits for the DISCONNECT receipt.
	ReadLimit   int64         `env:"NOTIFY_BROKER_READ_LIMIT" envDefault:"1048576"` // Maximum WebSocket message size in bytes.
}

// DefaultConfig returns the values used when a field is left zero.
func DefaultConfig() Config {
	return Config{
		Host:        "/",
		Heartbeat:   4 * time.Second,
		DialTimeout: 10 * time.Second,
		CloseWait:   2 * time.Second,
		ReadLimit:   1 << 20,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Host == "" {
		c.Host = def.Host
	}
	if c.Heartbeat <= 0 {
		c.Heartbeat = def.Heartbeat
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = def.DialTimeout
	}
	if c.CloseWait <= 0 {
		c.CloseWait = def.CloseWait
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = def.ReadLimit
	}
	return c
}
