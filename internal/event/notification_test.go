package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("should decode every type into its payload", func(t *testing.T) {
		for _, typ := range All() {
			n, err := Decode(typ, json.RawMessage(`{}`))
			require.NoError(t, err, typ.String())
			assert.Equal(t, typ, n.Type())
		}
	})

	t.Run("should decode block added fields", func(t *testing.T) {
		n, err := DecodeMethod("blockAddedNotification", json.RawMessage(`{"block":{"header":{"hash":"ab","blueScore":12,"daaScore":13}}}`))

		require.NoError(t, err)
		block, ok := n.(BlockAddedNotification)
		require.True(t, ok)
		assert.Equal(t, "ab", block.Block.Header.Hash)
		assert.Equal(t, uint64(12), block.Block.Header.BlueScore)
	})

	t.Run("should treat a missing payload as empty", func(t *testing.T) {
		n, err := Decode(NewBlockTemplate, nil)

		require.NoError(t, err)
		assert.Equal(t, NewBlockTemplateNotification{}, n)
	})

	t.Run("should reject malformed payloads", func(t *testing.T) {
		_, err := Decode(SinkBlueScoreChanged, json.RawMessage(`{"sinkBlueScore":"high"}`))
		assert.ErrorIs(t, err, ErrMalformedNotification)
	})

	t.Run("should reject unknown notifications", func(t *testing.T) {
		_, err := DecodeMethod("mysteryNotification", nil)
		assert.ErrorIs(t, err, ErrUnknownEventType)

		_, err = Decode(Type(0), nil)
		assert.ErrorIs(t, err, ErrUnknownEventType)
	})
}

func TestMessage(t *testing.T) {
	t.Run("should encode the event tag and content", func(t *testing.T) {
		msg := NewMessage(VirtualDaaScoreChangedNotification{VirtualDaaScore: 99})

		data, err := json.Marshal(msg)

		require.NoError(t, err)
		assert.JSONEq(t, `{"event":"virtual-daa-score-changed","content":{"virtualDaaScore":99}}`, string(data))
	})

	t.Run("should decode content by event tag", func(t *testing.T) {
		var msg Message
		err := json.Unmarshal([]byte(`{"event":"finality-conflict","content":{"violatingBlockHash":"ff"}}`), &msg)

		require.NoError(t, err)
		assert.Equal(t, FinalityConflict, msg.Event)
		assert.Equal(t, FinalityConflictNotification{ViolatingBlockHash: "ff"}, msg.Content)
	})
}
