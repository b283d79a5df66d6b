// Package integrity provides the deterministic hashing primitive used for
// tamper detection across the audit chain.
//
// Payloads are serialized to JSON, canonicalized per RFC 8785 (JCS) so
// key ordering never changes the digest, then hashed together with the
// previous event's hash. Replay-based verification depends on this being
// a pure function.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// GenesisHash anchors the first event of every correlation chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Digest computes the chain digest for a payload: sha256 over the
// canonical JSON form of payload concatenated with prevHash, hex-encoded.
// Identical payload and prevHash always yield the same digest.
func Digest(payload any, prevHash string) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize payload: %w", err)
	}
	h := sha256.New()
	h.Write(canonical)
	h.Write([]byte(prevHash))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Canonicalize returns the RFC 8785 canonical form of JSON input.
// Exposed for verification paths that need the exact hashed bytes.
func Canonicalize(input []byte) ([]byte, error) {
	return jcs.Transform(input)
}
