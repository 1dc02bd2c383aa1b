// Package codec implements the deterministic byte-level encodings the
// escrow coordinator shares with its EVM counterpart: the hashlock digest
// and the packed-timelock word.
package codec

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Hash32 is a 32-byte digest, used for both order hashes and hashlocks.
type Hash32 [32]byte

// Keccak256 computes Ethereum's keccak-256 over data. This is NOT the FIPS
// SHA3-256 function despite the similar name; using sha3.Sum256 here would
// reproduce the interop bug flagged in the specification's open questions
// (see DESIGN.md, Open Question 1) because the EVM counterpart contract
// only ever validates against Ethereum's original Keccak construction.
func Keccak256(data []byte) Hash32 {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)

	var out Hash32
	copy(out[:], h.Sum(nil))
	return out
}

// HexEqual reports whether two hashlock-shaped byte slices are equal by
// comparing their hex encodings case-insensitively. The inputs are raw
// bytes, not hex text: no "0x" prefix is stripped, and the result is true
// exactly when the two slices hold the same bytes.
func HexEqual(a, b []byte) bool {
	return strings.EqualFold(hex.EncodeToString(a), hex.EncodeToString(b))
}

// String renders the digest as a 0x-prefixed lower-case hex string.
func (h Hash32) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// ParseHash32 decodes a 0x-prefixed or bare hex string into a Hash32. It
// fails unless the decoded value is exactly 32 bytes.
func ParseHash32(s string) (Hash32, error) {
	s = strings.TrimPrefix(s, "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Hash32{}, err
	}
	if len(raw) != 32 {
		return Hash32{}, fmt.Errorf("expected 32 bytes, got %d", len(raw))
	}
	var out Hash32
	copy(out[:], raw)
	return out, nil
}

// MarshalJSON renders the digest as a quoted 0x-prefixed hex string rather
// than the default byte-array encoding, matching String.
func (h Hash32) MarshalJSON() ([]byte, error) {
	return []byte(`"` + h.String() + `"`), nil
}

// UnmarshalJSON parses a quoted hex string produced by MarshalJSON.
func (h *Hash32) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("codec: malformed hash32 JSON %q", s)
	}
	parsed, err := ParseHash32(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
