// Package chain persists assembled blocks.
package chain

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gscnet/blockcore/internal/log"
	"github.com/gscnet/blockcore/internal/storage"
	"github.com/gscnet/blockcore/pkg/block"
	"github.com/gscnet/blockcore/pkg/crypto"
	"github.com/gscnet/blockcore/pkg/types"
)

// Key prefixes for the block store.
var (
	prefixBlock  = []byte("b/") // b/<id(32)> -> checksum(32) || serialized block
	prefixNumber = []byte("n/") // n/<number(8)> -> id(32)
	keyTip       = []byte("s/tip")
)

// ErrCorruptRecord is returned when a stored block fails its checksum.
var ErrCorruptRecord = errors.New("corrupt block record")

// ErrBlockNotFound is returned when no block is stored under the key.
var ErrBlockNotFound = errors.New("block not found")

// BlockStore persists serialized blocks to a storage.DB.
type BlockStore struct {
	db storage.DB
}

// NewBlockStore creates a block store backed by the given database.
func NewBlockStore(db storage.DB) *BlockStore {
	return &BlockStore{db: db}
}

// Put stores a block under its id and indexes it by number. The block
// must be serializable, i.e. its merkle root must be finalized. The tip is
// advanced when the block is higher than the current one.
func (bs *BlockStore) Put(blk *block.Block) error {
	data, err := blk.Serialize()
	if err != nil {
		return fmt.Errorf("block serialize: %w", err)
	}
	h := blk.Header()
	id := h.ID()

	record := make([]byte, types.HashSize+len(data))
	sum := crypto.Checksum(data)
	copy(record, sum[:])
	copy(record[types.HashSize:], data)

	_, tipNumber, hasTip, err := bs.Tip()
	if err != nil {
		return err
	}

	w := bs.writer()
	defer w.Discard()
	if err := w.Put(blockKey(id), record); err != nil {
		return fmt.Errorf("block put: %w", err)
	}
	if err := w.Put(numberKey(h.Number), id[:]); err != nil {
		return fmt.Errorf("number index put: %w", err)
	}
	if !hasTip || h.Number > tipNumber {
		if err := w.Put(keyTip, id[:]); err != nil {
			return fmt.Errorf("set tip: %w", err)
		}
	}
	if err := w.Commit(); err != nil {
		return fmt.Errorf("block commit: %w", err)
	}

	bl := log.WithBlock(log.Store, id.String(), h.Number)
	bl.Debug().
		Int("size", len(data)).
		Int("txs", blk.TxCount()).
		Msg("Stored block")
	return nil
}

// Get retrieves a block by its id.
func (bs *BlockStore) Get(id types.Hash) (*block.Block, error) {
	record, err := bs.db.Get(blockKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("block get: %w", err)
	}
	if len(record) < types.HashSize {
		return nil, fmt.Errorf("%w: %s: %d bytes", ErrCorruptRecord, id, len(record))
	}
	data := record[types.HashSize:]
	sum := crypto.Checksum(data)
	if !bytes.Equal(sum[:], record[:types.HashSize]) {
		log.Store.Warn().Str("block_id", id.String()).Msg("Block record failed checksum")
		return nil, fmt.Errorf("%w: %s: checksum mismatch", ErrCorruptRecord, id)
	}
	blk, err := block.Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("block decode %s: %w", id, err)
	}
	if got := blk.ID(); got != id {
		return nil, fmt.Errorf("%w: %s: stored block has id %s", ErrCorruptRecord, id, got)
	}
	return blk, nil
}

// GetByNumber retrieves the block indexed at the given number.
func (bs *BlockStore) GetByNumber(number int64) (*block.Block, error) {
	raw, err := bs.db.Get(numberKey(number))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: number %d", ErrBlockNotFound, number)
	}
	if err != nil {
		return nil, fmt.Errorf("number index get: %w", err)
	}
	id, err := types.BytesToHash(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: number index %d: %v", ErrCorruptRecord, number, err)
	}
	return bs.Get(id)
}

// Has checks if a block exists by id.
func (bs *BlockStore) Has(id types.Hash) (bool, error) {
	return bs.db.Has(blockKey(id))
}

// Tip returns the id and number of the highest stored block. ok is false
// for an empty store.
func (bs *BlockStore) Tip() (id types.Hash, number int64, ok bool, err error) {
	raw, err := bs.db.Get(keyTip)
	if errors.Is(err, storage.ErrNotFound) {
		return types.Hash{}, 0, false, nil
	}
	if err != nil {
		return types.Hash{}, 0, false, fmt.Errorf("tip get: %w", err)
	}
	id, err = types.BytesToHash(raw)
	if err != nil {
		return types.Hash{}, 0, false, fmt.Errorf("%w: tip: %v", ErrCorruptRecord, err)
	}
	return id, int64(binary.BigEndian.Uint64(id[:8])), true, nil
}

// TipHeader returns the header of the highest stored block. ok is false
// for an empty store.
func (bs *BlockStore) TipHeader() (h block.Header, ok bool, err error) {
	id, _, ok, err := bs.Tip()
	if err != nil || !ok {
		return block.Header{}, ok, err
	}
	blk, err := bs.Get(id)
	if err != nil {
		return block.Header{}, false, err
	}
	return blk.Header(), true, nil
}

// Numbers returns the indexed block numbers in ascending order.
func (bs *BlockStore) Numbers() ([]int64, error) {
	var numbers []int64
	err := bs.db.ForEach(prefixNumber, func(key, _ []byte) error {
		if len(key) != len(prefixNumber)+8 {
			return fmt.Errorf("%w: number key %x", ErrCorruptRecord, key)
		}
		numbers = append(numbers, int64(binary.BigEndian.Uint64(key[len(prefixNumber):])))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return numbers, nil
}

// writer returns an atomic batch when the database supports one.
func (bs *BlockStore) writer() storage.Batch {
	if b, ok := bs.db.(storage.Batcher); ok {
		return b.NewBatch()
	}
	return &directWriter{db: bs.db}
}

// directWriter applies writes immediately.
type directWriter struct {
	db storage.DB
}

func (d *directWriter) Put(key, value []byte) error { return d.db.Put(key, value) }
func (d *directWriter) Delete(key []byte) error     { return d.db.Delete(key) }
func (d *directWriter) Commit() error               { return nil }
func (d *directWriter) Discard()                    {}

func blockKey(id types.Hash) []byte {
	key := make([]byte, len(prefixBlock)+types.HashSize)
	copy(key, prefixBlock)
	copy(key[len(prefixBlock):], id[:])
	return key
}

// numberKey encodes number big-endian so that key order is number order.
// Numbers are non-negative for any serializable block.
func numberKey(number int64) []byte {
	key := make([]byte, len(prefixNumber)+8)
	copy(key, prefixNumber)
	binary.BigEndian.PutUint64(key[len(prefixNumber):], uint64(number))
	return key
}
