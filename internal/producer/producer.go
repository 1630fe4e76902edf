// Package producer assembles and signs new blocks.
package producer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gscnet/blockcore/config"
	"github.com/gscnet/blockcore/internal/log"
	"github.com/gscnet/blockcore/pkg/block"
	"github.com/gscnet/blockcore/pkg/crypto"
	"github.com/gscnet/blockcore/pkg/tx"
	"github.com/gscnet/blockcore/pkg/types"
)

// ChainState provides read-only access to the block being built on.
type ChainState interface {
	// TipHeader returns the header of the current tip. ok is false when
	// there are no blocks yet.
	TipHeader() (h block.Header, ok bool, err error)
}

// TxSource selects transactions for block inclusion, in block order.
type TxSource interface {
	SelectForBlock(limit int) []*tx.Record
}

// Queue is a TxSource over a fixed list of transactions.
type Queue []*tx.Record

// SelectForBlock returns up to limit transactions from the front of q.
func (q Queue) SelectForBlock(limit int) []*tx.Record {
	if len(q) > limit {
		return q[:limit]
	}
	return q
}

// Producer builds blocks for one producer address. Blocks are signed when
// the producer holds a key and left in the root-set state otherwise.
type Producer struct {
	chain       ChainState
	pool        TxSource
	key         *crypto.PrivateKey
	address     types.Address
	maxBlockTxs int
}

// New creates a producer that signs with key.
func New(chain ChainState, pool TxSource, key *crypto.PrivateKey) *Producer {
	return &Producer{
		chain:       chain,
		pool:        pool,
		key:         key,
		address:     key.Address(),
		maxBlockTxs: config.MaxBlockTxs,
	}
}

// NewUnsigned creates a producer that commits blocks to addr without
// signing them, for an external signer to finish.
func NewUnsigned(chain ChainState, pool TxSource, addr types.Address) *Producer {
	return &Producer{
		chain:       chain,
		pool:        pool,
		address:     addr,
		maxBlockTxs: config.MaxBlockTxs,
	}
}

// Address returns the producer address written into every block.
func (p *Producer) Address() types.Address {
	return p.address
}

// ProduceBlock builds a block on the chain tip using the current time.
func (p *Producer) ProduceBlock(ctx context.Context) (*block.Block, error) {
	return p.ProduceBlockAt(ctx, time.Now().UnixMilli())
}

// ProduceBlockAt builds a block on the chain tip with the given timestamp
// in milliseconds. The timestamp is bumped to at least the parent's plus
// one so that block times increase strictly. An empty chain gets block 0
// with a zero parent.
func (p *Producer) ProduceBlockAt(ctx context.Context, timestamp int64) (*block.Block, error) {
	if p.chain == nil {
		return nil, errors.New("producer has no chain state")
	}
	tip, ok, err := p.chain.TipHeader()
	if err != nil {
		return nil, fmt.Errorf("read chain tip: %w", err)
	}

	var (
		parent types.Hash
		number int64
	)
	if ok {
		parent = tip.ID()
		number = tip.Number + 1
		if timestamp <= tip.Timestamp {
			timestamp = tip.Timestamp + 1
		}
	}

	var txs []*tx.Record
	if p.pool != nil {
		txs = p.pool.SelectForBlock(p.maxBlockTxs)
	}
	return p.Assemble(ctx, parent, number, timestamp, txs)
}

// Assemble builds a block with an explicit parent and number, commits the
// merkle root and signs it. The result passes Validate.
func (p *Producer) Assemble(ctx context.Context, parent types.Hash, number int64, timestamp int64, txs []*tx.Record) (*block.Block, error) {
	if number < 0 {
		return nil, fmt.Errorf("%w: %d", block.ErrNegativeNumber, number)
	}

	blk := block.NewFromRecords(timestamp, parent, number, p.address, txs)
	root := blk.FinalizeMerkleRoot()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.key != nil {
		if err := blk.Sign(p.key.Serialize()); err != nil {
			return nil, fmt.Errorf("sign block: %w", err)
		}
	}
	if err := blk.Validate(); err != nil {
		return nil, fmt.Errorf("produced invalid block: %w", err)
	}

	bl := log.WithBlock(log.Block, blk.ID().String(), number)
	bl.Debug().
		Int("txs", blk.TxCount()).
		Str("merkle_root", root.String()).
		Str("state", blk.State().String()).
		Msg("Produced block")
	return blk, nil
}
