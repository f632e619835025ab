package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gabapcia/chainscan/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noServe(t *testing.T) ServeFunc {
	return func(context.Context, config.Config) error {
		t.Fatal("serve must not be called")
		return nil
	}
}

func TestRun(t *testing.T) {
	t.Run("should print help", func(t *testing.T) {
		var out bytes.Buffer

		err := Run(t.Context(), []string{"chainscan", "--help"}, &out, noServe(t))

		assert.NoError(t, err)
		assert.Contains(t, out.String(), "serve")
		assert.Contains(t, out.String(), "events")
		assert.Contains(t, out.String(), "status")
	})
}

func TestServeCommand(t *testing.T) {
	t.Run("should serve with the loaded configuration", func(t *testing.T) {
		t.Setenv("CHAINSCAN_NODE_URL", "ws://node:17110")

		var got config.Config
		err := Run(t.Context(), []string{"chainscan", "serve"}, &bytes.Buffer{}, func(_ context.Context, cfg config.Config) error {
			got = cfg
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, "ws://node:17110", got.NodeURL)
		assert.False(t, got.DatabaseMigrate)
	})

	t.Run("should enable migrations from the flag", func(t *testing.T) {
		var got config.Config
		err := Run(t.Context(), []string{"chainscan", "serve", "--migrate"}, &bytes.Buffer{}, func(_ context.Context, cfg config.Config) error {
			got = cfg
			return nil
		})

		require.NoError(t, err)
		assert.True(t, got.DatabaseMigrate)
	})

	t.Run("should return the serve error", func(t *testing.T) {
		err := Run(t.Context(), []string{"chainscan", "serve"}, &bytes.Buffer{}, func(context.Context, config.Config) error {
			return assert.AnError
		})

		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("should fail on an invalid configuration", func(t *testing.T) {
		t.Setenv("CHAINSCAN_EVENTS_ENABLED", "block-removed")

		err := Run(t.Context(), []string{"chainscan", "serve"}, &bytes.Buffer{}, noServe(t))

		assert.ErrorIs(t, err, config.ErrInvalid)
	})
}

func TestEventsCommand(t *testing.T) {
	t.Run("should list the taxonomy and the configuration", func(t *testing.T) {
		t.Setenv("CHAINSCAN_EVENTS_ENABLED", "block-added")
		t.Setenv("CHAINSCAN_EVENTS_STRATEGY", "priority")
		t.Setenv("CHAINSCAN_EVENTS_PRIORITY_HIGH", "block-added")

		var out bytes.Buffer
		err := Run(t.Context(), []string{"chainscan", "events"}, &out, noServe(t))

		require.NoError(t, err)
		assert.Regexp(t, `block-added\s+blockAddedNotification\s+true`, out.String())
		assert.Regexp(t, `finality-conflict\s+finalityConflictNotification\s+false`, out.String())
		assert.Contains(t, out.String(), "strategy: priority")
		assert.Contains(t, out.String(), "high=[block-added]")
		assert.Contains(t, out.String(), "buffer size: 1000")
	})

	t.Run("should fail on an invalid configuration", func(t *testing.T) {
		t.Setenv("CHAINSCAN_EVENTS_BUFFER_SIZE", "0")

		err := Run(t.Context(), []string{"chainscan", "events"}, &bytes.Buffer{}, noServe(t))

		assert.ErrorIs(t, err, config.ErrInvalid)
	})
}

func TestStatusCommand(t *testing.T) {
	t.Run("should print a live server", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			w.Write([]byte(`{"status":0,"data":{"live":true,"protocol":"grpc","events":["block-added","utxos-changed"]}}`))
		}))
		defer srv.Close()

		var out bytes.Buffer
		err := Run(t.Context(), []string{"chainscan", "status", "--server", srv.URL + "/"}, &out, noServe(t))

		require.NoError(t, err)
		assert.Contains(t, out.String(), "live: true")
		assert.Contains(t, out.String(), "protocol: grpc")
		assert.Contains(t, out.String(), "events: block-added,utxos-changed")
	})

	t.Run("should fail when the node is not live", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":1,"data":{"live":false,"protocol":"wrpc","events":[]}}`))
		}))
		defer srv.Close()

		var out bytes.Buffer
		err := Run(t.Context(), []string{"chainscan", "status", "--server", srv.URL, "--retries", "0"}, &out, noServe(t))

		assert.ErrorIs(t, err, ErrNotLive)
		assert.Contains(t, out.String(), "live: false")
	})

	t.Run("should report error envelopes", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":1,"error":{"code":"POOL_BUSY","message":"pool busy","status":503}}`))
		}))
		defer srv.Close()

		err := Run(t.Context(), []string{"chainscan", "status", "--server", srv.URL, "--retries", "0"}, &bytes.Buffer{}, noServe(t))

		assert.ErrorIs(t, err, ErrNotLive)
		assert.ErrorContains(t, err, "POOL_BUSY")
	})

	t.Run("should fail when the server is down", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		err := Run(t.Context(), []string{"chainscan", "status", "--server", url, "--retries", "0"}, &bytes.Buffer{}, noServe(t))

		assert.Error(t, err)
	})
}
