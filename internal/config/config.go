// Package config loads the CLI configuration from TEA_* environment
// variables, reading an optional .env file first.
//
//	TEA_DB              SQLite journal path (default tea.db)
//	TEA_LOG_LEVEL       debug, info, warn or error (default info)
//	TEA_FORMAT          text or json (default text)
//	TEA_WORKERS         effect worker pool size, 0 for goroutine per effect
//	TEA_SNAPSHOT_EVERY  snapshot every N messages (default 1)
//	TEA_REDIS_URL       optional Redis snapshot sink, plus the other
//	                    TEA_REDIS_* settings of snapshot.Config
//
// Command-line flags override these values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/roach88/tea/internal/snapshot"
	"github.com/roach88/tea/middleware"
)

// Prefix is prepended to every variable name.
const Prefix = "TEA_"

var (
	// ErrInvalidFormat is returned by Validate when Format is neither text nor json.
	ErrInvalidFormat = errors.New("config: format must be text or json")
	// ErrInvalidWorkers is returned by Validate for a negative worker count.
	ErrInvalidWorkers = errors.New("config: workers must not be negative")
	// ErrInvalidSnapshot is returned by Validate when SnapshotEvery is below one.
	ErrInvalidSnapshot = errors.New("config: snapshot interval must be positive")
)

// Config is the CLI configuration.
type Config struct {
	DB            string `env:"DB" envDefault:"tea.db"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	Format        string `env:"FORMAT" envDefault:"text"`
	Workers       int    `env:"WORKERS" envDefault:"0"`
	SnapshotEvery int    `env:"SNAPSHOT_EVERY" envDefault:"1"`

	Redis snapshot.Config `envPrefix:"REDIS_"`
}

// Level returns the configured log level.
func (c Config) Level() middleware.LogLevel {
	return middleware.ParseLogLevel(c.LogLevel)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidFormat, c.Format)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidWorkers, c.Workers)
	}
	if c.SnapshotEvery < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidSnapshot, c.SnapshotEvery)
	}
	return nil
}

var dotenvOnce sync.Once

// Load reads .env from the working directory (once per process, never
// overriding variables that are already set) and parses the environment.
func Load() (Config, error) {
	var dotenvErr error
	dotenvOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			dotenvErr = fmt.Errorf("config: load .env: %w", err)
		}
	})
	if dotenvErr != nil {
		return Config{}, dotenvErr
	}
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom parses environ instead of the process environment. Keys carry
// the TEA_ prefix.
func LoadFrom(environ map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: environ})
}

// LoadFile parses a dotenv file without touching the process environment.
func LoadFile(path string) (Config, error) {
	environ, err := godotenv.Read(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return LoadFrom(environ)
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
