package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gscnet/blockcore/config"
	"github.com/gscnet/blockcore/internal/chain"
	"github.com/gscnet/blockcore/internal/log"
	"github.com/gscnet/blockcore/internal/producer"
	"github.com/gscnet/blockcore/internal/storage"
	"github.com/gscnet/blockcore/pkg/block"
	"github.com/gscnet/blockcore/pkg/tx"
	"github.com/gscnet/blockcore/pkg/types"
	"github.com/spf13/cobra"
)

// txSource is one --tx or --tx-file argument.
type txSource struct {
	value  string
	isFile bool
}

// txFlag appends to a list shared by --tx and --tx-file so payloads keep
// the order they were given on the command line.
type txFlag struct {
	list   *[]txSource
	isFile bool
}

func (f txFlag) String() string {
	if f.list == nil {
		return ""
	}
	vals := make([]string, 0, len(*f.list))
	for _, s := range *f.list {
		if s.isFile == f.isFile {
			vals = append(vals, s.value)
		}
	}
	return "[" + strings.Join(vals, ",") + "]"
}

func (f txFlag) Set(v string) error {
	*f.list = append(*f.list, txSource{value: v, isFile: f.isFile})
	return nil
}

func (f txFlag) Type() string {
	if f.isFile {
		return "path"
	}
	return "hex"
}

type assembleOptions struct {
	txs       []txSource
	parent    string
	number    int64
	timestamp int64
	producer  string
	unsigned  bool
	save      bool
	out       string
	format    blockFormat
}

func newAssembleCmd(a *app) *cobra.Command {
	var o assembleOptions
	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Assemble a block from transactions, commit its root and sign it",
		Long: `Assemble builds a block from the given transactions in order, computes the
merkle root and signs the header with the configured producer key.

Without --parent the block extends the tip of the block store (or is block 0
of an empty store) and its timestamp is kept above the tip's.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runAssemble(cmd, &o)
		},
	}
	fs := cmd.Flags()
	fs.Var(txFlag{list: &o.txs}, "tx", "Transaction payload as hex (repeatable)")
	fs.Var(txFlag{list: &o.txs, isFile: true}, "tx-file", "File holding one raw transaction payload (repeatable)")
	fs.StringVar(&o.parent, "parent", "", "Parent block id (hex)")
	fs.Int64Var(&o.number, "number", 0, "Block number, required with --parent")
	fs.Int64Var(&o.timestamp, "timestamp", 0, "Block timestamp in ms (default: now)")
	fs.StringVar(&o.producer, "producer", "", "Producer address for --unsigned blocks")
	fs.BoolVar(&o.unsigned, "unsigned", false, "Commit the merkle root but do not sign")
	fs.BoolVar(&o.save, "save", false, "Store the block in the block store")
	fs.StringVarP(&o.out, "out", "o", "", "Write the block to this file (default: hex to stdout)")
	o.format.register(cmd)
	return cmd
}

func (a *app) runAssemble(cmd *cobra.Command, o *assembleOptions) error {
	defer log.Benchmark("assemble")()

	payloads, err := collectPayloads(o.txs)
	if err != nil {
		return err
	}
	queue := make(producer.Queue, len(payloads))
	for i, p := range payloads {
		queue[i] = tx.NewRecord(p)
	}

	numberSet := cmd.Flags().Changed("number")
	if (o.parent != "") != numberSet {
		return fmt.Errorf("--parent and --number must be given together")
	}

	ts := o.timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}

	var (
		bs *chain.BlockStore
		db storage.DB
	)
	if o.save || o.parent == "" {
		if bs, db, err = a.openStore(); err != nil {
			return err
		}
		defer db.Close()
	}

	var p *producer.Producer
	if o.unsigned {
		if o.producer == "" {
			return fmt.Errorf("--unsigned requires --producer")
		}
		addr, err := types.HexToAddress(o.producer)
		if err != nil {
			return fmt.Errorf("producer: %w", err)
		}
		p = producer.NewUnsigned(chainState(bs), queue, addr)
	} else {
		key, err := a.producerKey()
		if err != nil {
			return err
		}
		defer key.Zero()
		p = producer.New(chainState(bs), queue, key)
	}

	var b *block.Block
	ctx := cmd.Context()
	if o.parent != "" {
		var parent types.Hash
		if parent, err = types.HexToHash(strings.TrimPrefix(o.parent, "0x")); err != nil {
			return fmt.Errorf("parent: %w", err)
		}
		b, err = p.Assemble(ctx, parent, o.number, ts, queue)
	} else {
		b, err = p.ProduceBlockAt(ctx, ts)
	}
	if err != nil {
		return err
	}

	l := log.WithBlock(log.CLI, b.ID().String(), b.Header().Number)
	l.Info().
		Int("txs", b.TxCount()).
		Str("state", b.State().String()).
		Msg("Assembled block")

	if o.save {
		if err := bs.Put(b); err != nil {
			return err
		}
		l.Info().Msg("Saved block")
	}

	return writeBlock(cmd.OutOrStdout(), o.out, b, o.format)
}

// chainState avoids handing the producer a typed nil store.
func chainState(bs *chain.BlockStore) producer.ChainState {
	if bs == nil {
		return nil
	}
	return bs
}

// collectPayloads reads the transaction payloads in command-line order.
// More than a block can hold is an error rather than a silent cut.
func collectPayloads(srcs []txSource) ([][]byte, error) {
	if len(srcs) > config.MaxBlockTxs {
		return nil, fmt.Errorf("%w: %d txs, max %d", block.ErrTooManyTxs, len(srcs), config.MaxBlockTxs)
	}
	payloads := make([][]byte, 0, len(srcs))
	for i, src := range srcs {
		if src.isFile {
			p, err := os.ReadFile(src.value)
			if err != nil {
				return nil, fmt.Errorf("read transaction: %w", err)
			}
			payloads = append(payloads, p)
			continue
		}
		p, err := hex.DecodeString(src.value)
		if err != nil {
			return nil, fmt.Errorf("--tx #%d: %w", i+1, err)
		}
		payloads = append(payloads, p)
	}
	return payloads, nil
}
