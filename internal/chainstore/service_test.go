package chainstore_test

import (
	"errors"
	"testing"

	"github.com/gabapcia/chainscan/internal/chainstore"
	"github.com/gabapcia/chainscan/internal/chainstore/mocks"
	"github.com/gabapcia/chainscan/internal/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestService_HeaderByHash(t *testing.T) {
	hash := types.Hex{0xab, 0xcd}

	t.Run("should cache lookups by hash", func(t *testing.T) {
		storage := mocks.NewStorage(t)
		svc, err := chainstore.New(storage)
		require.NoError(t, err)

		want := chainstore.Header{Hash: hash, BlueScore: 42}
		storage.EXPECT().HeaderByHash(mock.Anything, hash).Return(want, nil).Once()

		for range 3 {
			got, err := svc.HeaderByHash(t.Context(), hash)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("should not cache failures", func(t *testing.T) {
		storage := mocks.NewStorage(t)
		svc, err := chainstore.New(storage)
		require.NoError(t, err)

		storage.EXPECT().HeaderByHash(mock.Anything, hash).Return(chainstore.Header{}, chainstore.ErrNotFound).Twice()

		for range 2 {
			_, err := svc.HeaderByHash(t.Context(), hash)
			assert.ErrorIs(t, err, chainstore.ErrNotFound)
		}
	})

	t.Run("should evict beyond the cache size", func(t *testing.T) {
		storage := mocks.NewStorage(t)
		svc, err := chainstore.New(storage, chainstore.WithCacheSize(1))
		require.NoError(t, err)

		other := types.Hex{0x01}
		storage.EXPECT().HeaderByHash(mock.Anything, hash).Return(chainstore.Header{Hash: hash}, nil).Twice()
		storage.EXPECT().HeaderByHash(mock.Anything, other).Return(chainstore.Header{Hash: other}, nil).Once()

		_, err = svc.HeaderByHash(t.Context(), hash)
		require.NoError(t, err)
		_, err = svc.HeaderByHash(t.Context(), other)
		require.NoError(t, err)
		_, err = svc.HeaderByHash(t.Context(), hash)
		require.NoError(t, err)
	})
}

func TestService_TransactionByID(t *testing.T) {
	t.Run("should cache transactions with their outputs", func(t *testing.T) {
		storage := mocks.NewStorage(t)
		svc, err := chainstore.New(storage)
		require.NoError(t, err)

		id := types.Hex{0x10}
		want := chainstore.Transaction{
			TransactionID: id,
			Outputs:       []chainstore.Output{{TransactionID: id, Index: 0, Amount: 100}},
		}
		storage.EXPECT().TransactionByID(mock.Anything, id).Return(want, nil).Once()

		for range 2 {
			got, err := svc.TransactionByID(t.Context(), id)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})
}

func TestService_Passthrough(t *testing.T) {
	t.Run("should query the storage on every call", func(t *testing.T) {
		storage := mocks.NewStorage(t)
		svc, err := chainstore.New(storage)
		require.NoError(t, err)

		storage.EXPECT().LatestHeader(mock.Anything).Return(chainstore.Header{Timestamp: 1}, nil).Once()
		storage.EXPECT().LatestHeader(mock.Anything).Return(chainstore.Header{Timestamp: 2}, nil).Once()
		storage.EXPECT().ChainStats(mock.Anything).Return(chainstore.ChainStats{TotalBlocks: 3}, nil).Once()
		storage.EXPECT().LatestTransaction(mock.Anything).Return(chainstore.Transaction{BlockTime: 4}, nil).Once()
		storage.EXPECT().TransactionStats(mock.Anything).Return(chainstore.TransactionStats{}, errors.New("db down")).Once()

		h, err := svc.LatestHeader(t.Context())
		require.NoError(t, err)
		assert.Equal(t, int64(1), h.Timestamp)
		h, err = svc.LatestHeader(t.Context())
		require.NoError(t, err)
		assert.Equal(t, int64(2), h.Timestamp)

		stats, err := svc.ChainStats(t.Context())
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.TotalBlocks)

		tx, err := svc.LatestTransaction(t.Context())
		require.NoError(t, err)
		assert.Equal(t, int64(4), tx.BlockTime)

		_, err = svc.TransactionStats(t.Context())
		assert.EqualError(t, err, "db down")
	})

	t.Run("should reject an invalid cache size", func(t *testing.T) {
		_, err := chainstore.New(mocks.NewStorage(t), chainstore.WithCacheSize(0))
		assert.Error(t, err)
	})
}

func TestUnavailable(t *testing.T) {
	svc := chainstore.Unavailable()

	_, err := svc.LatestHeader(t.Context())
	assert.ErrorIs(t, err, chainstore.ErrUnavailable)
	_, err = svc.HeaderByHash(t.Context(), types.Hex{0x01})
	assert.ErrorIs(t, err, chainstore.ErrUnavailable)
	_, err = svc.ChainStats(t.Context())
	assert.ErrorIs(t, err, chainstore.ErrUnavailable)
	_, err = svc.LatestTransaction(t.Context())
	assert.ErrorIs(t, err, chainstore.ErrUnavailable)
	_, err = svc.TransactionByID(t.Context(), types.Hex{0x01})
	assert.ErrorIs(t, err, chainstore.ErrUnavailable)
	_, err = svc.TransactionStats(t.Context())
	assert.ErrorIs(t, err, chainstore.ErrUnavailable)
}
