package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hex is a byte string rendered as lowercase hexadecimal without a prefix
// (e.g. block and transaction hashes stored as bytea).
type Hex []byte

// HexFromString decodes a hexadecimal string into a Hex value.
func HexFromString(s string) (Hex, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hexadecimal value: %w", err)
	}
	return Hex(b), nil
}

// String returns the hexadecimal encoding of h.
func (h Hex) String() string {
	return hex.EncodeToString(h)
}

// MarshalJSON encodes h as a JSON string.
func (h Hex) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON decodes a JSON string holding hexadecimal data.
func (h *Hex) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid hex string: %w", err)
	}

	decoded, err := HexFromString(s)
	if err != nil {
		return err
	}

	*h = decoded
	return nil
}
