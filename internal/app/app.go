// Package app wires the configured components together and runs the server.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gabapcia/chainscan/internal/chainstore"
	"github.com/gabapcia/chainscan/internal/chainstream"
	"github.com/gabapcia/chainscan/internal/config"
	"github.com/gabapcia/chainscan/internal/event"
	"github.com/gabapcia/chainscan/internal/eventcache"
	api "github.com/gabapcia/chainscan/internal/handlers/http"
	"github.com/gabapcia/chainscan/internal/infra/storage/postgres"
	"github.com/gabapcia/chainscan/internal/infra/storage/redis"
	"github.com/gabapcia/chainscan/internal/node"
	"github.com/gabapcia/chainscan/internal/pkg/logger"
	"github.com/gabapcia/chainscan/internal/pkg/resilience/retry"
	"github.com/gabapcia/chainscan/internal/pkg/telemetry"
	"github.com/gabapcia/chainscan/internal/pkg/types"
	"github.com/gabapcia/chainscan/internal/pool"
)

// Serve connects to the node and the configured stores, then serves the API
// on cfg.HostURL until ctx is done.
func Serve(ctx context.Context, cfg config.Config) (err error) {
	if cfg.TelemetryEnabled {
		shutdown, initErr := telemetry.Init(ctx, cfg.ServiceName)
		if initErr != nil {
			return fmt.Errorf("init telemetry: %w", initErr)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			err = errors.Join(err, shutdown(shutdownCtx))
		}()
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ec, err := cfg.EventConfig()
	if err != nil {
		return err
	}
	enabled, err := ec.EnabledTypes()
	if err != nil {
		return err
	}
	events := types.SortedSlice(enabled)

	ctx = logger.Derive(ctx, "service", cfg.ServiceName)

	p, err := connect(ctx, cfg.NodeURL, events, ec.BufferSize)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.Warn(ctx, "failed to close node client", "error", err)
		}
	}()

	snapshots, closeSnapshots, err := snapshotStorage(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeSnapshots()

	cache := eventcache.New(chainstream.FromPool(p), events, eventcache.WithStorage(snapshots))
	if err := cache.Start(ctx); err != nil {
		return fmt.Errorf("start event cache: %w", err)
	}
	defer cache.Close()

	store, closeStore, err := chainStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	server := api.NewServer(p, ec, cache, store,
		api.WithRequestTimeout(cfg.RequestTimeout),
		api.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		api.WithAllowedOrigins(cfg.CORSAllowedOrigins),
	)

	return server.ListenAndServe(ctx, cfg.HostURL)
}

// connect dials the node, retrying while it is starting up, and wraps the
// client into a pool that rebuilds it on demand.
func connect(ctx context.Context, url string, events []event.Type, bufferSize int) (*pool.Pool[*node.Client], error) {
	opts := []node.Option{node.WithBufferSize(bufferSize)}

	r := retry.New(
		retry.WithAttempts(5),
		retry.WithDelay(time.Second),
		retry.WithMaxDelay(10*time.Second),
		retry.WithRetryIf(func(err error) bool {
			return !errors.Is(err, node.ErrUnsupportedScheme) && !errors.Is(err, node.ErrInvalidEndpoint)
		}),
		retry.WithOnRetry(func(attempt uint, err error) {
			logger.Warn(ctx, "node connection failed, retrying", "attempt", attempt+1, "error", err)
		}),
	)

	var client *node.Client
	err := r.Execute(ctx, func() error {
		c, err := node.ConnectWithEvents(ctx, url, events, opts...)
		if err != nil {
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect to node: %w", err)
	}

	return pool.New(url, client, node.Factory(events, opts...)), nil
}

func snapshotStorage(ctx context.Context, cfg config.Redis) (eventcache.Storage, func(), error) {
	if cfg.Addr == "" {
		logger.Info(ctx, "keeping event snapshots in memory")
		return eventcache.NewMemoryStorage(), func() {}, nil
	}

	c, err := redis.NewClient(ctx, cfg.Addr, cfg.Username, cfg.Password, cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	return c, func() { _ = c.Close() }, nil
}

func chainStore(ctx context.Context, cfg config.Config) (chainstore.Service, func(), error) {
	if !cfg.StoreEnabled() {
		logger.Warn(ctx, "no database configured, chain lookups are disabled")
		return chainstore.Unavailable(), func() {}, nil
	}

	c, err := postgres.NewClient(ctx, postgres.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	if cfg.DatabaseMigrate {
		if err := c.Migrate(ctx); err != nil {
			_ = c.Close()
			return nil, nil, err
		}
	}

	store, err := chainstore.New(c, chainstore.WithCacheSize(cfg.CacheSize))
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}

	return store, func() { _ = c.Close() }, nil
}
