package block

import (
	"fmt"

	"github.com/gscnet/blockcore/config"
)

// Validate checks block structure and internal consistency: version range,
// timestamp, number, size limits and the merkle root. A signed block must
// also carry a signature from its producer.
// This does NOT verify chain linkage or producer scheduling.
func (b *Block) Validate() error {
	if b.state == StateConstructed {
		return ErrRootNotFinalized
	}

	h := &b.header
	if h.Version < 1 || h.Version > config.MaxBlockVersion {
		return fmt.Errorf("%w: got %d, want 1..%d", ErrBadVersion, h.Version, config.MaxBlockVersion)
	}

	if h.Timestamp == 0 {
		return ErrZeroTimestamp
	}

	if h.Number < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeNumber, h.Number)
	}

	if len(b.txs) > config.MaxBlockTxs {
		return fmt.Errorf("%w: %d txs, max %d", ErrTooManyTxs, len(b.txs), config.MaxBlockTxs)
	}

	blockSize := len(h.RawBytes()) + len(h.WitnessSignature)
	for i, t := range b.txs {
		if t.Size() > config.MaxTxSize {
			return fmt.Errorf("tx %d: %w: %d bytes, max %d", i, ErrTxTooLarge, t.Size(), config.MaxTxSize)
		}
		blockSize += t.Size()
	}
	if blockSize > config.MaxBlockSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrBlockTooLarge, blockSize, config.MaxBlockSize)
	}

	if err := b.VerifyMerkleRoot(); err != nil {
		return err
	}

	if b.state == StateSigned {
		ok, err := b.ValidateSignature()
		if err != nil {
			return err
		}
		if !ok {
			return ErrBadSignature
		}
	}

	return nil
}
