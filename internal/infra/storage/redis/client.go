// Package redis stores event snapshots in Redis.
package redis

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type client struct {
	conn *redis.Client
	ttl  time.Duration
}

// Option configures the client.
type Option func(*client)

// WithSnapshotTTL expires snapshots that were not refreshed within d. Zero
// keeps them forever, which is the default.
func WithSnapshotTTL(d time.Duration) Option {
	return func(c *client) {
		c.ttl = d
	}
}

func (c *client) Close() error {
	return c.conn.Close()
}

// NewClient connects to addr and pings it before returning.
func NewClient(ctx context.Context, addr, username, password string, db int, opts ...Option) (*client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})

	if err := conn.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	c := &client{
		conn: conn,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}
