package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabapcia/chainscan/internal/chainstore"
	"github.com/gabapcia/chainscan/internal/pkg/types"

	"github.com/jackc/pgx/v5"
)

const headerColumns = `hash, accepted_id_merkle_root, merge_set_blues_hashes, merge_set_reds_hashes,
	selected_parent_hash, bits, blue_score, blue_work, daa_score, hash_merkle_root, nonce,
	pruning_point, timestamp, utxo_commitment, version`

func scanHeader(row pgx.Row) (chainstore.Header, error) {
	var (
		h          chainstore.Header
		blues, red [][]byte
	)

	err := row.Scan(
		(*[]byte)(&h.Hash),
		(*[]byte)(&h.AcceptedIDMerkleRoot),
		&blues,
		&red,
		(*[]byte)(&h.SelectedParentHash),
		&h.Bits,
		&h.BlueScore,
		(*[]byte)(&h.BlueWork),
		&h.DaaScore,
		(*[]byte)(&h.HashMerkleRoot),
		(*[]byte)(&h.Nonce),
		(*[]byte)(&h.PruningPoint),
		&h.Timestamp,
		(*[]byte)(&h.UtxoCommitment),
		&h.Version,
	)
	if err != nil {
		return chainstore.Header{}, err
	}

	h.MergeSetBluesHashes = toHexes(blues)
	h.MergeSetRedsHashes = toHexes(red)
	return h, nil
}

func toHexes(in [][]byte) []types.Hex {
	if in == nil {
		return nil
	}

	out := make([]types.Hex, len(in))
	for i, b := range in {
		out[i] = b
	}
	return out
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return chainstore.ErrNotFound
	}
	return err
}

// LatestHeader returns the header with the highest timestamp.
func (c *client) LatestHeader(ctx context.Context) (chainstore.Header, error) {
	row := c.pool.QueryRow(ctx, `SELECT `+headerColumns+` FROM blocks ORDER BY timestamp DESC LIMIT 1`)

	h, err := scanHeader(row)
	if err != nil {
		return chainstore.Header{}, fmt.Errorf("latest header: %w", notFound(err))
	}
	return h, nil
}

// HeaderByHash returns the header identified by hash.
func (c *client) HeaderByHash(ctx context.Context, hash types.Hex) (chainstore.Header, error) {
	row := c.pool.QueryRow(ctx, `SELECT `+headerColumns+` FROM blocks WHERE hash = $1`, []byte(hash))

	h, err := scanHeader(row)
	if err != nil {
		return chainstore.Header{}, fmt.Errorf("header %s: %w", hash, notFound(err))
	}
	return h, nil
}

// ChainStats counts the headers and reports the latest timestamp and blue
// score, zero when no header is indexed.
func (c *client) ChainStats(ctx context.Context) (chainstore.ChainStats, error) {
	var s chainstore.ChainStats

	err := c.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(MAX(timestamp), 0), COALESCE(MAX(blue_score), 0)
		FROM blocks`,
	).Scan(&s.TotalBlocks, &s.LatestTimestamp, &s.LatestBlueScore)
	if err != nil {
		return chainstore.ChainStats{}, fmt.Errorf("chain stats: %w", err)
	}
	return s, nil
}
