package event

import (
	"testing"
	"time"

	"github.com/gabapcia/chainscan/internal/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Run("should be valid", func(t *testing.T) {
		cfg := DefaultConfig()

		require.NoError(t, cfg.Validate())
		assert.Equal(t, RealTime, cfg.Strategy.Kind)
		assert.Equal(t, 1000, cfg.BufferSize)
		assert.True(t, cfg.Deduplication)
	})

	t.Run("should enable block, utxo and virtual chain events", func(t *testing.T) {
		set, err := DefaultConfig().EnabledTypes()

		require.NoError(t, err)
		assert.Equal(t, types.NewSet(BlockAdded, UtxosChanged, VirtualChainChanged), set)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{
			name:   "unparsable enabled event",
			mutate: func(c *Config) { c.Enabled = []string{"block-added", "blocks"} },
		},
		{
			name:   "no enabled event",
			mutate: func(c *Config) { c.Enabled = nil },
		},
		{
			name:   "zero buffer size",
			mutate: func(c *Config) { c.BufferSize = 0 },
		},
		{
			name:   "batch with zero size",
			mutate: func(c *Config) { c.Strategy = Strategy{Kind: Batch, BatchSize: 0, BatchTimeout: time.Second} },
		},
		{
			name:   "batch with zero timeout",
			mutate: func(c *Config) { c.Strategy = Strategy{Kind: Batch, BatchSize: 10} },
		},
		{
			name:   "valid batch",
			mutate: func(c *Config) { c.Strategy = Strategy{Kind: Batch, BatchSize: 10, BatchTimeout: 100 * time.Millisecond} },
			valid:  true,
		},
		{
			name: "priority with unparsable tier entry",
			mutate: func(c *Config) {
				c.Strategy = Strategy{Kind: Priority, High: []string{"block-added"}, Low: []string{"???"}}
			},
		},
		{
			name: "valid priority",
			mutate: func(c *Config) {
				c.Strategy = Strategy{Kind: Priority, High: []string{"block-added"}, Medium: []string{"utxos-changed"}}
			},
			valid: true,
		},
		{
			name:   "unknown strategy kind",
			mutate: func(c *Config) { c.Strategy.Kind = StrategyKind(9) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	t.Run("should report every problem at once", func(t *testing.T) {
		cfg := Config{Enabled: []string{"x"}, BufferSize: 0}

		err := cfg.Validate()

		require.ErrorIs(t, err, ErrInvalidConfig)
		assert.ErrorIs(t, err, ErrUnknownEventType)
		assert.Contains(t, err.Error(), "buffer size")
	})
}

func TestParseStrategy(t *testing.T) {
	t.Run("should parse every strategy", func(t *testing.T) {
		for _, kind := range []StrategyKind{RealTime, Batch, Priority} {
			got, err := ParseStrategy(kind.String())
			require.NoError(t, err)
			assert.Equal(t, kind, got)
		}
	})

	t.Run("should reject unknown strategies", func(t *testing.T) {
		_, err := ParseStrategy("RealTime")
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestConfig_EnabledTypes(t *testing.T) {
	t.Run("should collapse duplicates", func(t *testing.T) {
		cfg := Config{Enabled: []string{"block-added", "block-added"}}

		set, err := cfg.EnabledTypes()

		require.NoError(t, err)
		assert.Equal(t, 1, set.Len())
	})

	t.Run("should fail on invalid names", func(t *testing.T) {
		_, err := Config{Enabled: []string{"nope"}}.EnabledTypes()
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}
