package block

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/gscnet/blockcore/pkg/types"
)

// FuzzDeserialize tests that arbitrary bytes never panic the decoder, that
// every failure is a *MalformedBlockError, and that anything accepted
// re-encodes to the same bytes.
func FuzzDeserialize(f *testing.F) {
	b := New(1700000000000, types.Hash{0xaa}, 3, types.Address{0x01}, [][]byte{[]byte("tx1"), []byte("tx2")})
	b.FinalizeMerkleRoot()
	if data, err := b.Serialize(); err == nil {
		f.Add(data)
	}
	f.Add([]byte{})
	f.Add([]byte{0x12, 0x00})
	f.Add([]byte{0x0a, 0x01, 0x00})
	f.Add(fixedHeader().RawBytes())

	f.Fuzz(func(t *testing.T, data []byte) {
		blk, err := Deserialize(data)
		if err != nil {
			var merr *MalformedBlockError
			if !errors.As(err, &merr) {
				t.Fatalf("unexpected error type %T: %v", err, err)
			}
			return
		}
		// Decoded blocks must not panic on any read path.
		blk.IdentityHash()
		blk.ID()
		blk.Validate()
		blk.ValidateSignature()

		again, err := blk.Serialize()
		if err != nil {
			t.Fatalf("re-Serialize() error: %v", err)
		}
		if !bytes.Equal(again, data) {
			t.Fatalf("accepted non-canonical encoding:\n in  %x\n out %x", data, again)
		}
	})
}

// FuzzBlockHeaderUnmarshal tests that arbitrary JSON input does not panic
// when unmarshaled into a Header struct.
func FuzzBlockHeaderUnmarshal(f *testing.F) {
	f.Add([]byte(`{"version":1,"timestamp":1000,"number":0}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`{"number":-1,"witness_signature":"00"}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var h Header
		if err := json.Unmarshal(data, &h); err != nil {
			return
		}
		h.IdentityHash()
		h.RawBytes()
		h.ID()
	})
}
