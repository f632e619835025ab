package chainstore

import "github.com/gabapcia/chainscan/internal/pkg/types"

// Header is a block header as indexed in the store.
type Header struct {
	Hash                 types.Hex   `json:"hash"`
	AcceptedIDMerkleRoot types.Hex   `json:"acceptedIdMerkleRoot"`
	MergeSetBluesHashes  []types.Hex `json:"mergeSetBluesHashes"`
	MergeSetRedsHashes   []types.Hex `json:"mergeSetRedsHashes,omitempty"`
	SelectedParentHash   types.Hex   `json:"selectedParentHash"`
	Bits                 int64       `json:"bits"`
	BlueScore            int64       `json:"blueScore"`
	BlueWork             types.Hex   `json:"blueWork"`
	DaaScore             int64       `json:"daaScore"`
	HashMerkleRoot       types.Hex   `json:"hashMerkleRoot"`
	Nonce                types.Hex   `json:"nonce"`
	PruningPoint         types.Hex   `json:"pruningPoint"`
	Timestamp            int64       `json:"timestamp"`
	UtxoCommitment       types.Hex   `json:"utxoCommitment"`
	Version              int16       `json:"version"`
}

// Transaction is an accepted transaction. Outputs is only filled by lookups
// by id.
type Transaction struct {
	TransactionID types.Hex `json:"transactionId"`
	SubnetworkID  int32     `json:"subnetworkId"`
	Hash          types.Hex `json:"hash"`
	Mass          *int32    `json:"mass,omitempty"`
	Payload       types.Hex `json:"payload,omitempty"`
	BlockTime     int64     `json:"blockTime"`
	Outputs       []Output  `json:"outputs,omitempty"`
}

// Output is one transaction output.
type Output struct {
	TransactionID          types.Hex `json:"transactionId"`
	Index                  int16     `json:"index"`
	Amount                 int64     `json:"amount"`
	ScriptPublicKey        types.Hex `json:"scriptPublicKey"`
	ScriptPublicKeyAddress string    `json:"scriptPublicKeyAddress"`
	BlockTime              int64     `json:"blockTime"`
}

// ChainStats summarizes the indexed headers. Latest values are zero on an
// empty store.
type ChainStats struct {
	TotalBlocks     int64 `json:"totalBlocks"`
	LatestTimestamp int64 `json:"latestTimestamp"`
	LatestBlueScore int64 `json:"latestBlueScore"`
}

// TransactionStats summarizes the indexed transactions.
type TransactionStats struct {
	TotalTransactions int64 `json:"totalTransactions"`
	TotalOutputs      int64 `json:"totalOutputs"`
	LatestBlockTime   int64 `json:"latestBlockTime"`
}
