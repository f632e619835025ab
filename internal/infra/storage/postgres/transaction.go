package postgres

import (
	"context"
	"fmt"

	"github.com/gabapcia/chainscan/internal/chainstore"
	"github.com/gabapcia/chainscan/internal/pkg/types"

	"github.com/jackc/pgx/v5"
)

const transactionColumns = `transaction_id, subnetwork_id, hash, mass, payload, block_time`

func scanTransaction(row pgx.Row) (chainstore.Transaction, error) {
	var tx chainstore.Transaction

	err := row.Scan(
		(*[]byte)(&tx.TransactionID),
		&tx.SubnetworkID,
		(*[]byte)(&tx.Hash),
		&tx.Mass,
		(*[]byte)(&tx.Payload),
		&tx.BlockTime,
	)
	if err != nil {
		return chainstore.Transaction{}, err
	}
	return tx, nil
}

// LatestTransaction returns the transaction with the highest block time.
func (c *client) LatestTransaction(ctx context.Context) (chainstore.Transaction, error) {
	row := c.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY block_time DESC LIMIT 1`)

	tx, err := scanTransaction(row)
	if err != nil {
		return chainstore.Transaction{}, fmt.Errorf("latest transaction: %w", notFound(err))
	}
	return tx, nil
}

// TransactionByID returns the transaction and its outputs ordered by index.
func (c *client) TransactionByID(ctx context.Context, id types.Hex) (chainstore.Transaction, error) {
	row := c.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE transaction_id = $1`, []byte(id))

	tx, err := scanTransaction(row)
	if err != nil {
		return chainstore.Transaction{}, fmt.Errorf("transaction %s: %w", id, notFound(err))
	}

	rows, err := c.pool.Query(ctx, `
		SELECT transaction_id, index, amount, script_public_key, script_public_key_address, block_time
		FROM transactions_outputs
		WHERE transaction_id = $1
		ORDER BY index`, []byte(id))
	if err != nil {
		return chainstore.Transaction{}, fmt.Errorf("transaction %s outputs: %w", id, err)
	}

	outputs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (chainstore.Output, error) {
		var o chainstore.Output
		err := row.Scan(
			(*[]byte)(&o.TransactionID),
			&o.Index,
			&o.Amount,
			(*[]byte)(&o.ScriptPublicKey),
			&o.ScriptPublicKeyAddress,
			&o.BlockTime,
		)
		return o, err
	})
	if err != nil {
		return chainstore.Transaction{}, fmt.Errorf("transaction %s outputs: %w", id, err)
	}

	tx.Outputs = outputs
	return tx, nil
}

// TransactionStats counts transactions and outputs and reports the latest
// block time, zero when nothing is indexed.
func (c *client) TransactionStats(ctx context.Context) (chainstore.TransactionStats, error) {
	var s chainstore.TransactionStats

	err := c.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM transactions),
			(SELECT COUNT(*) FROM transactions_outputs),
			(SELECT COALESCE(MAX(block_time), 0) FROM transactions)`,
	).Scan(&s.TotalTransactions, &s.TotalOutputs, &s.LatestBlockTime)
	if err != nil {
		return chainstore.TransactionStats{}, fmt.Errorf("transaction stats: %w", err)
	}
	return s, nil
}

// Compile-time assertion to ensure client implements the chainstore Storage interface.
var _ chainstore.Storage = new(client)
