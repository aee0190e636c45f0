// Package config loads typed configuration from environment variables.
//
// Every notifykit package declares its own Config struct with `env` and
// `envDefault` tags; the daemon loads each of them with Load or MustLoad.
// Parsing is done by github.com/caarlos0/env and a local .env file is
// picked up through github.com/joho/godotenv on first use.
package config
