package block

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"

	"github.com/gscnet/blockcore/pkg/crypto"
	"github.com/gscnet/blockcore/pkg/types"
)

// Header contains block metadata. It is a value type: the With* methods
// return updated copies and never touch the receiver.
type Header struct {
	Version          uint32
	Timestamp        int64
	ParentHash       types.Hash
	Number           int64
	Producer         types.Address
	MerkleRoot       types.Hash
	WitnessSignature []byte
}

// headerJSON is the JSON representation of Header with hex-encoded witness sig.
type headerJSON struct {
	Version          uint32        `json:"version"`
	Timestamp        int64         `json:"timestamp"`
	ParentHash       types.Hash    `json:"parent_hash"`
	Number           int64         `json:"number"`
	Producer         types.Address `json:"producer"`
	MerkleRoot       types.Hash    `json:"merkle_root"`
	WitnessSignature string        `json:"witness_signature,omitempty"`
}

// MarshalJSON encodes the header with hex-encoded witness signature.
func (h Header) MarshalJSON() ([]byte, error) {
	j := headerJSON{
		Version:    h.Version,
		Timestamp:  h.Timestamp,
		ParentHash: h.ParentHash,
		Number:     h.Number,
		Producer:   h.Producer,
		MerkleRoot: h.MerkleRoot,
	}
	if h.WitnessSignature != nil {
		j.WitnessSignature = hex.EncodeToString(h.WitnessSignature)
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes a header with hex-encoded witness signature.
func (h *Header) UnmarshalJSON(data []byte) error {
	var j headerJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*h = Header{
		Version:    j.Version,
		Timestamp:  j.Timestamp,
		ParentHash: j.ParentHash,
		Number:     j.Number,
		Producer:   j.Producer,
		MerkleRoot: j.MerkleRoot,
	}
	if j.WitnessSignature != "" {
		b, err := hex.DecodeString(j.WitnessSignature)
		if err != nil {
			return err
		}
		h.WitnessSignature = b
	}
	return nil
}

// RawBytes returns the canonical encoding of every raw field except the
// witness signature. See codec.go for the field layout.
func (h Header) RawBytes() []byte {
	return appendHeaderRaw(make([]byte, 0, 128), &h)
}

// IdentityHash computes the header hash used for signing and chain linkage.
// Excludes WitnessSignature so the hash is stable for signing.
func (h Header) IdentityHash() types.Hash {
	return crypto.Hash(h.RawBytes())
}

// ID returns the block id: the big-endian block number in the first eight
// bytes followed by the tail of the identity hash.
func (h Header) ID() types.Hash {
	id := h.IdentityHash()
	binary.BigEndian.PutUint64(id[:8], uint64(h.Number))
	return id
}

// WithMerkleRoot returns a copy of h with the merkle root set.
func (h Header) WithMerkleRoot(root types.Hash) Header {
	h.WitnessSignature = cloneBytes(h.WitnessSignature)
	h.MerkleRoot = root
	return h
}

// WithSignature returns a copy of h carrying sig. A nil or empty sig clears
// the signature.
func (h Header) WithSignature(sig []byte) Header {
	h.WitnessSignature = cloneBytes(sig)
	return h
}

// Signed reports whether the header carries a witness signature.
func (h Header) Signed() bool {
	return len(h.WitnessSignature) > 0
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}
