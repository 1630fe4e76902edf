// Package block assembles, signs, verifies and serializes blocks.
//
// A block moves through three states. It is Constructed with no merkle root,
// reaches RootSet once FinalizeMerkleRoot has committed to the current
// transaction list, and becomes Signed when the producer signs its header.
// Appending a transaction drops the block back to Constructed.
//
// A Block has no internal locking. Mutating calls need exclusive access;
// reads may be shared once mutation has stopped.
package block

import (
	"encoding/json"
	"fmt"

	"github.com/gscnet/blockcore/config"
	"github.com/gscnet/blockcore/pkg/crypto"
	"github.com/gscnet/blockcore/pkg/merkle"
	"github.com/gscnet/blockcore/pkg/tx"
	"github.com/gscnet/blockcore/pkg/types"
)

// State is the lifecycle position of a block header.
type State int

const (
	StateConstructed State = iota // no root, no signature
	StateRootSet                  // root committed, no signature
	StateSigned                   // root committed and signed
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateRootSet:
		return "root-set"
	case StateSigned:
		return "signed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Block is a header plus an ordered list of transactions.
type Block struct {
	header Header
	txs    []*tx.Record
	state  State
}

// New creates a block in the Constructed state, wrapping each payload in a
// transaction record. The merkle root is not computed.
func New(timestamp int64, parent types.Hash, number int64, producer types.Address, payloads [][]byte) *Block {
	records := make([]*tx.Record, len(payloads))
	for i, p := range payloads {
		records[i] = tx.NewRecord(p)
	}
	return newBlock(timestamp, parent, number, producer, records)
}

// NewFromRecords is like New for already-wrapped transactions. The slice is
// copied; the records themselves are immutable and may be shared.
func NewFromRecords(timestamp int64, parent types.Hash, number int64, producer types.Address, records []*tx.Record) *Block {
	cp := make([]*tx.Record, len(records))
	copy(cp, records)
	return newBlock(timestamp, parent, number, producer, cp)
}

func newBlock(timestamp int64, parent types.Hash, number int64, producer types.Address, records []*tx.Record) *Block {
	return &Block{
		header: Header{
			Version:    config.BlockVersion,
			Timestamp:  timestamp,
			ParentHash: parent,
			Number:     number,
			Producer:   producer,
		},
		txs:   records,
		state: StateConstructed,
	}
}

// AddTransaction appends r and invalidates any finalized root or signature.
func (b *Block) AddTransaction(r *tx.Record) {
	b.txs = append(b.txs, r)
	b.header = b.header.WithMerkleRoot(types.ZeroHash).WithSignature(nil)
	b.state = StateConstructed
}

// FinalizeMerkleRoot computes the merkle root over the transactions in
// order, stores it in the header and drops any existing signature.
func (b *Block) FinalizeMerkleRoot() types.Hash {
	root := merkle.BuildRoot(tx.LeafHashes(b.txs))
	b.header = b.header.WithMerkleRoot(root).WithSignature(nil)
	b.state = StateRootSet
	return root
}

// Sign signs the header identity hash with a raw secp256k1 private key.
// The block must be in the RootSet state; a signed block must be reset
// with ResetSignature or FinalizeMerkleRoot before it can be signed again.
// The header root must match the transactions, so a decoded block that
// commits to a different list is refused until it is refinalized.
func (b *Block) Sign(privKey []byte) error {
	switch b.state {
	case StateConstructed:
		return ErrRootNotFinalized
	case StateSigned:
		return ErrAlreadySigned
	}
	if err := b.VerifyMerkleRoot(); err != nil {
		return fmt.Errorf("%w: %w", ErrRootNotFinalized, err)
	}
	if len(privKey) == 0 {
		return ErrEmptyKey
	}

	key, err := crypto.PrivateKeyFromBytes(privKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	defer key.Zero()

	hash := b.header.IdentityHash()
	sig, err := key.Sign(hash[:])
	if err != nil {
		return fmt.Errorf("sign header: %w", err)
	}
	b.header = b.header.WithSignature(sig)
	b.state = StateSigned
	return nil
}

// ResetSignature drops the signature of a signed block, returning it to
// RootSet. It has no effect in other states.
func (b *Block) ResetSignature() {
	if b.state != StateSigned {
		return
	}
	b.header = b.header.WithSignature(nil)
	b.state = StateRootSet
}

// ValidateSignature reports whether the witness signature recovers to the
// header's producer address. Malformed signature bytes yield a
// *SignatureRecoveryError. The merkle root is not checked; use
// VerifyMerkleRoot for that.
func (b *Block) ValidateSignature() (bool, error) {
	hash := b.header.IdentityHash()
	addr, err := crypto.RecoverAddress(hash[:], b.header.WitnessSignature)
	if err != nil {
		return false, &SignatureRecoveryError{Err: err}
	}
	return addr == b.header.Producer, nil
}

// VerifyMerkleRoot recomputes the root from the transactions and compares
// it with the header.
func (b *Block) VerifyMerkleRoot() error {
	root := merkle.BuildRoot(tx.LeafHashes(b.txs))
	if root != b.header.MerkleRoot {
		return fmt.Errorf("%w: header=%s computed=%s", ErrBadMerkleRoot, b.header.MerkleRoot, root)
	}
	return nil
}

// Serialize returns the canonical wire encoding of the block. A block whose
// root has not been finalized cannot be serialized.
func (b *Block) Serialize() ([]byte, error) {
	if b.state == StateConstructed {
		return nil, ErrRootNotFinalized
	}
	if b.header.Number < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeNumber, b.header.Number)
	}
	data := encodeBlock(&b.header, b.txs)
	if len(data) > config.MaxBlockSize {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrBlockTooLarge, len(data), config.MaxBlockSize)
	}
	return data, nil
}

// Deserialize decodes a block from its wire encoding. Schema violations are
// reported as *MalformedBlockError. The result is Signed if the header
// carries a signature and RootSet otherwise; neither the signature nor the
// merkle root is verified. Sign still rejects a RootSet block whose root
// does not match its transactions.
func Deserialize(data []byte) (*Block, error) {
	h, txs, err := decodeBlock(data)
	if err != nil {
		return nil, err
	}
	b := &Block{header: h, txs: txs, state: StateRootSet}
	if h.Signed() {
		b.state = StateSigned
	}
	return b, nil
}

// Header returns a copy of the block header.
func (b *Block) Header() Header {
	return b.header.WithSignature(b.header.WitnessSignature)
}

// Transactions returns the transactions in block order. The returned slice
// is a copy.
func (b *Block) Transactions() []*tx.Record {
	cp := make([]*tx.Record, len(b.txs))
	copy(cp, b.txs)
	return cp
}

// TxCount returns the number of transactions.
func (b *Block) TxCount() int {
	return len(b.txs)
}

// State returns the lifecycle state.
func (b *Block) State() State {
	return b.state
}

// IdentityHash returns the header identity hash.
func (b *Block) IdentityHash() types.Hash {
	return b.header.IdentityHash()
}

// ID returns the block id used as the parent link of the next block.
func (b *Block) ID() types.Hash {
	return b.header.ID()
}

type blockJSON struct {
	ID           types.Hash   `json:"id"`
	Hash         types.Hash   `json:"hash"`
	State        string       `json:"state"`
	Header       Header       `json:"header"`
	Transactions []*tx.Record `json:"transactions"`
}

// MarshalJSON renders the block for display.
func (b *Block) MarshalJSON() ([]byte, error) {
	txs := b.txs
	if txs == nil {
		txs = []*tx.Record{}
	}
	return json.Marshal(blockJSON{
		ID:           b.ID(),
		Hash:         b.IdentityHash(),
		State:        b.state.String(),
		Header:       b.header,
		Transactions: txs,
	})
}
