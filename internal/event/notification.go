package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedNotification is returned when a notification payload cannot be decoded.
var ErrMalformedNotification = errors.New("malformed notification")

// Notification is a decoded event payload pushed by the node.
type Notification interface {
	Type() Type
	isNotification()
}

type BlockHeader struct {
	Hash                 string   `json:"hash"`
	Version              uint16   `json:"version"`
	Parents              []string `json:"parents,omitempty"`
	HashMerkleRoot       string   `json:"hashMerkleRoot"`
	AcceptedIDMerkleRoot string   `json:"acceptedIdMerkleRoot"`
	UtxoCommitment       string   `json:"utxoCommitment"`
	Timestamp            int64    `json:"timestamp"`
	Bits                 uint32   `json:"bits"`
	Nonce                uint64   `json:"nonce"`
	DaaScore             uint64   `json:"daaScore"`
	BlueWork             string   `json:"blueWork"`
	BlueScore            uint64   `json:"blueScore"`
	PruningPoint         string   `json:"pruningPoint"`
}

type Block struct {
	Header       BlockHeader       `json:"header"`
	Transactions []json.RawMessage `json:"transactions,omitempty"`
	VerboseData  json.RawMessage   `json:"verboseData,omitempty"`
}

type BlockAddedNotification struct {
	Block Block `json:"block"`
}

type AcceptedTransactionIDs struct {
	AcceptingBlockHash     string   `json:"acceptingBlockHash"`
	AcceptedTransactionIDs []string `json:"acceptedTransactionIds"`
}

type VirtualChainChangedNotification struct {
	RemovedChainBlockHashes []string                 `json:"removedChainBlockHashes"`
	AddedChainBlockHashes   []string                 `json:"addedChainBlockHashes"`
	AcceptedTransactionIDs  []AcceptedTransactionIDs `json:"acceptedTransactionIds,omitempty"`
}

type FinalityConflictNotification struct {
	ViolatingBlockHash string `json:"violatingBlockHash"`
}

type FinalityConflictResolvedNotification struct {
	FinalityBlockHash string `json:"finalityBlockHash"`
}

type Outpoint struct {
	TransactionID string `json:"transactionId"`
	Index         uint32 `json:"index"`
}

type UtxoEntry struct {
	Amount          uint64 `json:"amount"`
	ScriptPublicKey string `json:"scriptPublicKey"`
	BlockDaaScore   uint64 `json:"blockDaaScore"`
	IsCoinbase      bool   `json:"isCoinbase"`
}

type UtxoChange struct {
	Address   string    `json:"address,omitempty"`
	Outpoint  Outpoint  `json:"outpoint"`
	UtxoEntry UtxoEntry `json:"utxoEntry"`
}

type UtxosChangedNotification struct {
	Added   []UtxoChange `json:"added"`
	Removed []UtxoChange `json:"removed"`
}

type SinkBlueScoreChangedNotification struct {
	SinkBlueScore uint64 `json:"sinkBlueScore"`
}

type VirtualDaaScoreChangedNotification struct {
	VirtualDaaScore uint64 `json:"virtualDaaScore"`
}

type PruningPointUtxoSetOverrideNotification struct{}

type NewBlockTemplateNotification struct{}

func (BlockAddedNotification) Type() Type                  { return BlockAdded }
func (VirtualChainChangedNotification) Type() Type         { return VirtualChainChanged }
func (FinalityConflictNotification) Type() Type            { return FinalityConflict }
func (FinalityConflictResolvedNotification) Type() Type    { return FinalityConflictResolved }
func (UtxosChangedNotification) Type() Type                { return UtxosChanged }
func (SinkBlueScoreChangedNotification) Type() Type        { return SinkBlueScoreChanged }
func (VirtualDaaScoreChangedNotification) Type() Type      { return VirtualDaaScoreChanged }
func (PruningPointUtxoSetOverrideNotification) Type() Type { return PruningPointUtxoSetOverride }
func (NewBlockTemplateNotification) Type() Type            { return NewBlockTemplate }

func (BlockAddedNotification) isNotification()                  {}
func (VirtualChainChangedNotification) isNotification()         {}
func (FinalityConflictNotification) isNotification()            {}
func (FinalityConflictResolvedNotification) isNotification()    {}
func (UtxosChangedNotification) isNotification()                {}
func (SinkBlueScoreChangedNotification) isNotification()        {}
func (VirtualDaaScoreChangedNotification) isNotification()      {}
func (PruningPointUtxoSetOverrideNotification) isNotification() {}
func (NewBlockTemplateNotification) isNotification()            {}

func decodeInto[N Notification](params json.RawMessage) (Notification, error) {
	var n N
	if len(params) == 0 || string(params) == "null" {
		return n, nil
	}
	if err := json.Unmarshal(params, &n); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedNotification, n.Type(), err)
	}
	return n, nil
}

// Decode builds the typed notification of type t from its raw params.
func Decode(t Type, params json.RawMessage) (Notification, error) {
	switch t {
	case BlockAdded:
		return decodeInto[BlockAddedNotification](params)
	case VirtualChainChanged:
		return decodeInto[VirtualChainChangedNotification](params)
	case FinalityConflict:
		return decodeInto[FinalityConflictNotification](params)
	case FinalityConflictResolved:
		return decodeInto[FinalityConflictResolvedNotification](params)
	case UtxosChanged:
		return decodeInto[UtxosChangedNotification](params)
	case SinkBlueScoreChanged:
		return decodeInto[SinkBlueScoreChangedNotification](params)
	case VirtualDaaScoreChanged:
		return decodeInto[VirtualDaaScoreChangedNotification](params)
	case PruningPointUtxoSetOverride:
		return decodeInto[PruningPointUtxoSetOverrideNotification](params)
	case NewBlockTemplate:
		return decodeInto[NewBlockTemplateNotification](params)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownEventType, uint8(t))
	}
}

// DecodeMethod decodes a notification identified by the node method name.
func DecodeMethod(method string, params json.RawMessage) (Notification, error) {
	t, ok := FromNotification(method)
	if !ok {
		return nil, fmt.Errorf("%w: notification %q", ErrUnknownEventType, method)
	}
	return Decode(t, params)
}
