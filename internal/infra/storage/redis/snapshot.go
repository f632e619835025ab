package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gabapcia/chainscan/internal/event"
	"github.com/gabapcia/chainscan/internal/eventcache"

	"github.com/redis/go-redis/v9"
)

// snapshotKeyPrefix is the namespace of every event snapshot key.
const snapshotKeyPrefix = "eventcache"

// snapshotKey returns the key holding the latest snapshot of typ:
//
//	"eventcache:snapshot:<event>"
func snapshotKey(typ event.Type) string {
	return fmt.Sprintf("%s:snapshot:%s", snapshotKeyPrefix, typ)
}

// SaveSnapshot stores s as JSON, replacing the previous snapshot of its type.
func (c *client) SaveSnapshot(ctx context.Context, s eventcache.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	return c.conn.Set(ctx, snapshotKey(s.Message.Event), data, c.ttl).Err()
}

// LoadSnapshot returns the snapshot of typ, or eventcache.ErrNotFound when
// none was stored (or it expired).
func (c *client) LoadSnapshot(ctx context.Context, typ event.Type) (eventcache.Snapshot, error) {
	data, err := c.conn.Get(ctx, snapshotKey(typ)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			err = eventcache.ErrNotFound
		}

		return eventcache.Snapshot{}, err
	}

	var s eventcache.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return eventcache.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

// Compile-time assertion to ensure client implements the snapshot Storage interface.
var _ eventcache.Storage = new(client)
