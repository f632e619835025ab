package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexFromString(t *testing.T) {
	t.Run("valid hex", func(t *testing.T) {
		h, err := HexFromString("00ff10")
		require.NoError(t, err)
		assert.Equal(t, Hex{0x00, 0xff, 0x10}, h)
	})

	t.Run("invalid hex", func(t *testing.T) {
		_, err := HexFromString("zz")
		assert.Error(t, err)
	})
}

func TestHex_JSON(t *testing.T) {
	t.Run("marshals to a lowercase string", func(t *testing.T) {
		data, err := json.Marshal(Hex{0xAB, 0xCD})
		require.NoError(t, err)
		assert.JSONEq(t, `"abcd"`, string(data))
	})

	t.Run("unmarshals a hex string", func(t *testing.T) {
		var h Hex
		require.NoError(t, json.Unmarshal([]byte(`"0a0b"`), &h))
		assert.Equal(t, "0a0b", h.String())
	})

	t.Run("rejects non string input", func(t *testing.T) {
		var h Hex
		assert.Error(t, json.Unmarshal([]byte(`12`), &h))
	})

	t.Run("rejects odd length input", func(t *testing.T) {
		var h Hex
		assert.Error(t, json.Unmarshal([]byte(`"abc"`), &h))
	})
}
