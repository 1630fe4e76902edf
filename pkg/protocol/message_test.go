package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gscnet/blockcore/config"
	"github.com/gscnet/blockcore/pkg/block"
	"github.com/gscnet/blockcore/pkg/crypto"
	"github.com/gscnet/blockcore/pkg/tx"
	"github.com/gscnet/blockcore/pkg/types"
)

func signedBlock(t *testing.T) *block.Block {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	b := block.New(1700000000000, types.Hash{0x01}, 9, key.Address(), [][]byte{[]byte("a"), []byte("b")})
	b.FinalizeMerkleRoot()
	if err := b.Sign(key.Serialize()); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestMessage_RoundTrip(t *testing.T) {
	m := Message{Type: MsgTransaction, Payload: []byte("payload")}
	data, err := EncodeMessage(m)
	if err != nil {
		t.Fatalf("EncodeMessage error: %v", err)
	}
	if data[0] != byte(MsgTransaction) {
		t.Errorf("type byte = %d, want %d", data[0], MsgTransaction)
	}

	got, err := DecodeMessage(data)
	if err != nil {
		t.Fatalf("DecodeMessage error: %v", err)
	}
	if got.Type != m.Type || !bytes.Equal(got.Payload, m.Payload) {
		t.Errorf("round trip = %+v, want %+v", got, m)
	}
}

func TestEncodeMessage_UnknownType(t *testing.T) {
	_, err := EncodeMessage(Message{Type: 42})
	if KindOf(err) != KindNoSuchMessage {
		t.Errorf("error = %v, want NoSuchMessage", err)
	}
}

func TestDecodeMessage_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Kind
	}{
		{"empty", nil, KindParseMessageFailed},
		{"unknown type", []byte{0x07, 0x01}, KindNoSuchMessage},
		{"zero type", []byte{0x00}, KindNoSuchMessage},
		{"oversized", make([]byte, config.MaxBlockSize+2), KindParseMessageFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMessage(tt.data)
			if KindOf(err) != tt.want {
				t.Errorf("KindOf(%v) = %v, want %v", err, KindOf(err), tt.want)
			}
		})
	}
}

func TestBlock_RoundTrip(t *testing.T) {
	b := signedBlock(t)
	data, err := EncodeBlock(b)
	if err != nil {
		t.Fatalf("EncodeBlock error: %v", err)
	}

	got, err := DecodeBlock(data)
	if err != nil {
		t.Fatalf("DecodeBlock error: %v", err)
	}
	if got.IdentityHash() != b.IdentityHash() {
		t.Error("identity hash changed")
	}
	if ok, err := got.ValidateSignature(); err != nil || !ok {
		t.Errorf("ValidateSignature() = %v, %v", ok, err)
	}
}

func TestEncodeBlock_NotFinalized(t *testing.T) {
	b := block.New(1, types.Hash{}, 1, types.Address{}, nil)
	if _, err := EncodeBlock(b); !errors.Is(err, block.ErrRootNotFinalized) {
		t.Errorf("error = %v, want ErrRootNotFinalized", err)
	}
}

func TestDecodeBlock_MalformedMapsToParseFailed(t *testing.T) {
	data, err := EncodeBlock(signedBlock(t))
	if err != nil {
		t.Fatal(err)
	}

	_, err = DecodeBlock(data[:len(data)-1])
	if KindOf(err) != KindParseMessageFailed {
		t.Errorf("KindOf = %v, want ParseMessageFailed", KindOf(err))
	}
	var merr *block.MalformedBlockError
	if !errors.As(err, &merr) {
		t.Error("MalformedBlockError should remain in the chain")
	}
}

func TestDecodeBlock_WrongType(t *testing.T) {
	data, err := EncodeTransaction(tx.NewRecord([]byte("tx")))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeBlock(data); KindOf(err) != KindParseMessageFailed {
		t.Errorf("error = %v, want ParseMessageFailed", err)
	}
}

func TestTransaction_RoundTrip(t *testing.T) {
	r := tx.NewRecord([]byte("transfer"))
	data, err := EncodeTransaction(r)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeTransaction(data)
	if err != nil {
		t.Fatalf("DecodeTransaction error: %v", err)
	}
	if got.LeafHash() != r.LeafHash() {
		t.Error("leaf hash changed")
	}

	blk, err := EncodeBlock(signedBlock(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeTransaction(blk); KindOf(err) != KindParseMessageFailed {
		t.Errorf("block as transaction: error = %v, want ParseMessageFailed", err)
	}
}

func TestMessageType_ProtocolID(t *testing.T) {
	if id, err := MsgBlock.ProtocolID(); err != nil || id != BlockProtocol {
		t.Errorf("MsgBlock.ProtocolID() = %s, %v", id, err)
	}
	if id, err := MsgTransaction.ProtocolID(); err != nil || id != TransactionProtocol {
		t.Errorf("MsgTransaction.ProtocolID() = %s, %v", id, err)
	}
	if _, err := MessageType(99).ProtocolID(); KindOf(err) != KindNoSuchMessage {
		t.Errorf("unknown type error = %v, want NoSuchMessage", err)
	}
}
