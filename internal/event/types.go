// Package event defines the taxonomy of chain events relayed from the node,
// their delivery configuration and the typed notification payloads.
package event

import (
	"errors"
	"fmt"
)

// ErrUnknownEventType is returned when a string does not name an event type.
var ErrUnknownEventType = errors.New("unknown event type")

// Type identifies a kind of chain event.
type Type uint8

const (
	BlockAdded Type = iota + 1
	VirtualChainChanged
	FinalityConflict
	FinalityConflictResolved
	UtxosChanged
	SinkBlueScoreChanged
	VirtualDaaScoreChanged
	PruningPointUtxoSetOverride
	NewBlockTemplate
)

type typeInfo struct {
	name  string // canonical identifier used in configuration and on the socket
	scope string // subscription scope understood by the node
}

var taxonomy = [...]typeInfo{
	BlockAdded:                  {"block-added", "blockAdded"},
	VirtualChainChanged:         {"virtual-chain-changed", "virtualChainChanged"},
	FinalityConflict:            {"finality-conflict", "finalityConflict"},
	FinalityConflictResolved:    {"finality-conflict-resolved", "finalityConflictResolved"},
	UtxosChanged:                {"utxos-changed", "utxosChanged"},
	SinkBlueScoreChanged:        {"sink-blue-score-changed", "sinkBlueScoreChanged"},
	VirtualDaaScoreChanged:      {"virtual-daa-score-changed", "virtualDaaScoreChanged"},
	PruningPointUtxoSetOverride: {"pruning-point-utxo-set-override", "pruningPointUtxoSetOverride"},
	NewBlockTemplate:            {"new-block-template", "newBlockTemplate"},
}

var (
	byName         = make(map[string]Type, len(taxonomy))
	byNotification = make(map[string]Type, len(taxonomy))
)

func init() {
	for _, t := range All() {
		byName[t.String()] = t
		byNotification[t.NotificationName()] = t
	}
}

// All returns every event type in declaration order.
func All() []Type {
	out := make([]Type, 0, len(taxonomy)-1)
	for t := BlockAdded; t <= NewBlockTemplate; t++ {
		out = append(out, t)
	}
	return out
}

// Parse returns the Type named by s. Matching is exact and case-sensitive.
func Parse(s string) (Type, error) {
	t, ok := byName[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownEventType, s)
	}
	return t, nil
}

// ParseList parses every entry of names, stopping at the first invalid one.
func ParseList(names []string) ([]Type, error) {
	out := make([]Type, 0, len(names))
	for _, name := range names {
		t, err := Parse(name)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// FromNotification maps a node notification method to its Type.
func FromNotification(method string) (Type, bool) {
	t, ok := byNotification[method]
	return t, ok
}

// Valid reports whether t is a member of the taxonomy.
func (t Type) Valid() bool {
	return t >= BlockAdded && t <= NewBlockTemplate
}

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("event(%d)", uint8(t))
	}
	return taxonomy[t].name
}

// Scope is the subscription scope sent to the node for t.
func (t Type) Scope() string {
	if !t.Valid() {
		return ""
	}
	return taxonomy[t].scope
}

// NotificationName is the method the node uses when pushing t.
func (t Type) NotificationName() string {
	if !t.Valid() {
		return ""
	}
	return taxonomy[t].scope + "Notification"
}

func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEventType, uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
