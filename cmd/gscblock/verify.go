package main

import (
	"errors"
	"fmt"

	"github.com/gscnet/blockcore/internal/log"
	"github.com/gscnet/blockcore/pkg/block"
	"github.com/gscnet/blockcore/pkg/protocol"
	"github.com/gscnet/blockcore/pkg/types"
	"github.com/spf13/cobra"
)

type verifyOptions struct {
	producer      string
	allowUnsigned bool
	format        blockFormat
}

func newVerifyCmd(a *app) *cobra.Command {
	var o verifyOptions
	cmd := &cobra.Command{
		Use:   "verify FILE...",
		Short: "Decode blocks and check their structure, merkle root and signature",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runVerify(cmd, args, &o)
		},
	}
	cmd.Flags().StringVar(&o.producer, "producer", "", "Require this producer address")
	cmd.Flags().BoolVar(&o.allowUnsigned, "allow-unsigned", false, "Accept blocks without a signature")
	o.format.register(cmd)
	return cmd
}

func (a *app) runVerify(cmd *cobra.Command, files []string, o *verifyOptions) error {
	var want *types.Address
	if o.producer != "" {
		addr, err := types.HexToAddress(o.producer)
		if err != nil {
			return fmt.Errorf("producer: %w", err)
		}
		want = &addr
	}

	out := cmd.OutOrStdout()
	var failed int
	for _, path := range files {
		b, err := a.readBlock(path, o.format)
		if err == nil {
			err = checkBlock(b, want, o.allowUnsigned)
		}
		if err != nil {
			failed++
			ev := log.CLI.Warn().Str("file", path).Err(err)
			if o.format.envelope {
				ev = ev.Stringer("kind", protocol.KindOf(err))
			}
			ev.Msg("Block failed verification")
			fmt.Fprintf(out, "%s: FAIL %v\n", path, err)
			continue
		}
		h := b.Header()
		fmt.Fprintf(out, "%s: OK id=%s number=%d txs=%d producer=%s\n",
			path, b.ID(), h.Number, b.TxCount(), h.Producer)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d blocks failed verification", failed, len(files))
	}
	return nil
}

// checkBlock runs Validate plus the caller's signing requirements.
func checkBlock(b *block.Block, producer *types.Address, allowUnsigned bool) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.State() != block.StateSigned && !allowUnsigned {
		return errors.New("block is not signed")
	}
	if producer != nil && b.Header().Producer != *producer {
		return fmt.Errorf("producer is %s, want %s", b.Header().Producer, *producer)
	}
	return nil
}
