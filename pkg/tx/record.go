// Package tx wraps opaque transaction payloads for inclusion in blocks.
package tx

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gscnet/blockcore/pkg/crypto"
	"github.com/gscnet/blockcore/pkg/types"
)

// Payload is implemented by transaction codecs that can produce the
// canonical serialized form of a transaction.
type Payload interface {
	CanonicalBytes() ([]byte, error)
}

// Record is an immutable transaction as carried inside a block. The block
// core never interprets the payload; it only hashes and transports it.
type Record struct {
	raw  []byte
	leaf types.Hash
}

// NewRecord wraps a canonical payload. The input is copied.
func NewRecord(raw []byte) *Record {
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return &Record{raw: cp, leaf: crypto.Hash(cp)}
}

// FromPayload serializes p with its codec and wraps the result.
func FromPayload(p Payload) (*Record, error) {
	raw, err := p.CanonicalBytes()
	if err != nil {
		return nil, fmt.Errorf("canonical payload: %w", err)
	}
	return NewRecord(raw), nil
}

// LeafHash returns the SHA-256 of the raw payload, its Merkle leaf.
func (r *Record) LeafHash() types.Hash {
	return r.leaf
}

// RawPayload returns a copy of the canonical payload bytes.
func (r *Record) RawPayload() []byte {
	cp := make([]byte, len(r.raw))
	copy(cp, r.raw)
	return cp
}

// Size returns the payload length in bytes.
func (r *Record) Size() int {
	return len(r.raw)
}

// LeafHashes maps records to their leaf hashes, preserving order.
func LeafHashes(records []*Record) []types.Hash {
	hashes := make([]types.Hash, len(records))
	for i, r := range records {
		hashes[i] = r.leaf
	}
	return hashes
}

type recordJSON struct {
	Hash    types.Hash `json:"hash"`
	Size    int        `json:"size"`
	Payload string     `json:"payload"`
}

// MarshalJSON encodes the record with a hex payload and its leaf hash.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Hash:    r.leaf,
		Size:    len(r.raw),
		Payload: hex.EncodeToString(r.raw),
	})
}

// UnmarshalJSON decodes a hex payload. The hash field, if present, must
// match the payload.
func (r *Record) UnmarshalJSON(data []byte) error {
	var j recordJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	raw, err := hex.DecodeString(j.Payload)
	if err != nil {
		return fmt.Errorf("invalid payload hex: %w", err)
	}
	*r = *NewRecord(raw)
	if !j.Hash.IsZero() && j.Hash != r.leaf {
		return fmt.Errorf("payload hash mismatch: got %s, computed %s", j.Hash, r.leaf)
	}
	return nil
}
