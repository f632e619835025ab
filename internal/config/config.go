// Package config loads the process configuration from CHAINSCAN_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/gabapcia/chainscan/internal/event"
	"github.com/gabapcia/chainscan/internal/node"
	"github.com/gabapcia/chainscan/internal/pkg/validator"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix.
const Prefix = "chainscan"

// ErrInvalid roots every error returned by Load.
var ErrInvalid = errors.New("invalid configuration")

func init() {
	if err := validator.RegisterStringValidation("event_name", func(s string) bool {
		_, err := event.Parse(s)
		return err == nil
	}); err != nil {
		panic(err)
	}

	if err := validator.RegisterStringValidation("node_url", func(s string) bool {
		_, err := node.ParseEndpoint(s)
		return err == nil
	}); err != nil {
		panic(err)
	}
}

// Events mirrors event.Config in its environment form.
type Events struct {
	Enabled        []string `envconfig:"ENABLED" default:"block-added,utxos-changed,virtual-chain-changed" validate:"dive,event_name"`
	Strategy       string   `envconfig:"STRATEGY" default:"realtime" validate:"oneof=realtime batch priority"`
	BatchSize      int      `envconfig:"BATCH_SIZE" validate:"gte=0"`
	BatchTimeoutMs int      `envconfig:"BATCH_TIMEOUT_MS" validate:"gte=0"`
	PriorityHigh   []string `envconfig:"PRIORITY_HIGH" validate:"dive,event_name"`
	PriorityMedium []string `envconfig:"PRIORITY_MEDIUM" validate:"dive,event_name"`
	PriorityLow    []string `envconfig:"PRIORITY_LOW" validate:"dive,event_name"`
	BufferSize     int      `envconfig:"BUFFER_SIZE" default:"1000" validate:"gt=0"`
	Deduplication  bool     `envconfig:"DEDUPLICATION" default:"true"`
}

// Redis configures snapshot storage. An empty Addr keeps snapshots in memory.
type Redis struct {
	Addr     string `envconfig:"ADDR"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" validate:"gte=0"`
}

type Config struct {
	HostURL     string `envconfig:"HOST_URL" default:"127.0.0.1:3003" validate:"required,hostname_port"`
	NodeURL     string `envconfig:"NODE_URL" default:"grpc://127.0.0.1:16610" validate:"required,node_url"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// DatabaseMigrate creates the index tables at startup.
	DatabaseMigrate bool `envconfig:"DATABASE_MIGRATE" default:"false"`

	Redis Redis `envconfig:"REDIS"`

	LogLevel         string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	TelemetryEnabled bool   `envconfig:"TELEMETRY_ENABLED" default:"false"`
	ServiceName      string `envconfig:"SERVICE_NAME" default:"chainscan" validate:"required"`

	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s" validate:"gt=0"`
	RateLimit          float64       `envconfig:"RATE_LIMIT" default:"50" validate:"gt=0"`
	RateBurst          int           `envconfig:"RATE_BURST" default:"100" validate:"gt=0"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS"`
	CacheSize          int           `envconfig:"CACHE_SIZE" default:"1024" validate:"gt=0"`

	Events Events `envconfig:"EVENTS"`
}

// Load reads the environment, then checks the field rules and the event
// configuration.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field rule and the event configuration.
func (c Config) Validate() error {
	if err := validator.Validate(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if _, err := c.EventConfig(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// EventConfig converts the environment form into a validated event.Config.
func (c Config) EventConfig() (event.Config, error) {
	kind, err := event.ParseStrategy(c.Events.Strategy)
	if err != nil {
		return event.Config{}, err
	}

	ec := event.Config{
		Enabled: c.Events.Enabled,
		Strategy: event.Strategy{
			Kind:         kind,
			BatchSize:    c.Events.BatchSize,
			BatchTimeout: time.Duration(c.Events.BatchTimeoutMs) * time.Millisecond,
			High:         c.Events.PriorityHigh,
			Medium:       c.Events.PriorityMedium,
			Low:          c.Events.PriorityLow,
		},
		BufferSize:    c.Events.BufferSize,
		Deduplication: c.Events.Deduplication,
	}

	if err := ec.Validate(); err != nil {
		return event.Config{}, err
	}
	return ec, nil
}

// StoreEnabled reports whether a chain store is configured.
func (c Config) StoreEnabled() bool {
	return c.DatabaseURL != ""
}
