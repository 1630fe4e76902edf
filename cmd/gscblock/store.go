package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gscnet/blockcore/pkg/block"
	"github.com/gscnet/blockcore/pkg/types"
	"github.com/spf13/cobra"
)

func newStoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Read and write the block store",
	}
	cmd.AddCommand(newStorePutCmd(a), newStoreGetCmd(a), newStoreTipCmd(a))
	return cmd
}

func newStorePutCmd(a *app) *cobra.Command {
	var f blockFormat
	cmd := &cobra.Command{
		Use:   "put FILE...",
		Short: "Validate blocks and add them to the block store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bs, db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			for _, path := range args {
				b, err := a.readBlock(path, f)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err := b.Validate(); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err := bs.Put(b); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", b.ID(), b.Header().Number)
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newStoreGetCmd(a *app) *cobra.Command {
	var (
		f      blockFormat
		number int64
		out    string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "get [ID]",
		Short: "Fetch a block by id or --number",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			byNumber := cmd.Flags().Changed("number")
			if byNumber == (len(args) == 1) {
				return fmt.Errorf("give either a block id or --number")
			}

			bs, db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			var b *block.Block
			if byNumber {
				b, err = bs.GetByNumber(number)
			} else {
				id, perr := types.HexToHash(strings.TrimPrefix(args[0], "0x"))
				if perr != nil {
					return fmt.Errorf("block id: %w", perr)
				}
				b, err = bs.Get(id)
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(b)
			}
			return writeBlock(cmd.OutOrStdout(), out, b, f)
		},
	}
	cmd.Flags().Int64Var(&number, "number", 0, "Block number")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the block to this file (default: hex to stdout)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the block as JSON")
	f.register(cmd)
	return cmd
}

func newStoreTipCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tip",
		Short: "Print the id and number of the highest stored block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bs, db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			id, number, ok, err := bs.Tip()
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("block store is empty")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", id, number)
			return nil
		},
	}
}
