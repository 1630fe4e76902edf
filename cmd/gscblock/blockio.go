package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gscnet/blockcore/pkg/block"
	"github.com/gscnet/blockcore/pkg/protocol"
	"github.com/spf13/cobra"
)

// blockFormat selects how block bytes are read and written.
type blockFormat struct {
	hex      bool // hex text instead of raw bytes
	envelope bool // wrapped in a protocol block message
}

func (f *blockFormat) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.hex, "hex", false, "Block data is hex text")
	cmd.Flags().BoolVar(&f.envelope, "message", false, "Block data is a protocol block message")
}

// readBlock reads and decodes a block from path, or from stdin for "-".
func (a *app) readBlock(path string, f blockFormat) (*block.Block, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(a.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read block: %w", err)
	}
	if f.hex {
		data, err = hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("decode hex: %w", err)
		}
	}
	if f.envelope {
		return protocol.DecodeBlock(data)
	}
	return block.Deserialize(data)
}

// encodeBlock serializes b in the requested format.
func encodeBlock(b *block.Block, f blockFormat) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if f.envelope {
		data, err = protocol.EncodeBlock(b)
	} else {
		data, err = b.Serialize()
	}
	if err != nil {
		return nil, err
	}
	if f.hex {
		return []byte(hex.EncodeToString(data) + "\n"), nil
	}
	return data, nil
}

// writeBlock writes b to path, or hex-encoded to w when path is empty.
func writeBlock(w io.Writer, path string, b *block.Block, f blockFormat) error {
	if path == "" {
		f.hex = true
	}
	data, err := encodeBlock(b, f)
	if err != nil {
		return err
	}
	if path == "" {
		_, err = w.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
