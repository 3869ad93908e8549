package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix leaves room for a
// future change of algorithm.
const (
	DomainState   = "tea/state/v1"
	DomainMessage = "tea/message/v1"
	DomainTrace   = "tea/trace/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator keeps domain and data from running into each other.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StateHash returns the content hash of a state value.
func StateHash(state any) (string, error) {
	data, err := Marshal(state)
	if err != nil {
		return "", fmt.Errorf("StateHash: %w", err)
	}
	return hashWithDomain(DomainState, data), nil
}

// StateHashJSON returns the content hash of a state already encoded as JSON.
// It agrees with StateHash for the same value.
func StateHashJSON(data []byte) (string, error) {
	c, err := Canonicalize(data)
	if err != nil {
		return "", fmt.Errorf("StateHashJSON: %w", err)
	}
	return hashWithDomain(DomainState, c), nil
}

// MessageHash returns the content hash of a message kind and its JSON
// payload.
func MessageHash(kind string, payload []byte) (string, error) {
	c, err := Canonicalize(payload)
	if err != nil {
		return "", fmt.Errorf("MessageHash: %w", err)
	}
	return hashWithDomain(DomainMessage, append([]byte(kind+"\x00"), c...)), nil
}

// TraceHash returns the content hash of an ordered list of JSON-encodable
// trace entries.
func TraceHash(entries any) (string, error) {
	data, err := Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("TraceHash: %w", err)
	}
	return hashWithDomain(DomainTrace, data), nil
}
