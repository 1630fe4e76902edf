package protocol

import (
	"fmt"

	p2pproto "github.com/libp2p/go-libp2p/core/protocol"
	"github.com/pkg/errors"

	"github.com/gscnet/blockcore/config"
	"github.com/gscnet/blockcore/pkg/block"
	"github.com/gscnet/blockcore/pkg/tx"
)

// Stream protocol IDs.
const (
	BlockProtocol       = p2pproto.ID("/gsc/block/1.0.0")
	TransactionProtocol = p2pproto.ID("/gsc/tx/1.0.0")
)

// MessageType identifies the type of a protocol message. It is the first
// byte of every encoded message.
type MessageType uint8

const (
	MsgTransaction MessageType = 1 // Transaction broadcast.
	MsgBlock       MessageType = 2 // Block broadcast.
)

// maxMessageSize bounds an encoded message: type byte plus a maximal block.
const maxMessageSize = 1 + config.MaxBlockSize

func (t MessageType) String() string {
	switch t {
	case MsgTransaction:
		return "transaction"
	case MsgBlock:
		return "block"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Known reports whether t is a message type this protocol version handles.
func (t MessageType) Known() bool {
	return t == MsgTransaction || t == MsgBlock
}

// ProtocolID returns the stream protocol carrying messages of type t.
func (t MessageType) ProtocolID() (p2pproto.ID, error) {
	switch t {
	case MsgTransaction:
		return TransactionProtocol, nil
	case MsgBlock:
		return BlockProtocol, nil
	default:
		return "", Errorf(KindNoSuchMessage, "no protocol for message type %d", uint8(t))
	}
}

// Message is a protocol message: a type tag and an opaque payload.
type Message struct {
	Type    MessageType `json:"type"`
	Payload []byte      `json:"payload"`
}

// EncodeMessage encodes m as its type byte followed by the payload.
func EncodeMessage(m Message) ([]byte, error) {
	if !m.Type.Known() {
		return nil, Errorf(KindNoSuchMessage, "message type %d", uint8(m.Type))
	}
	out := make([]byte, 1+len(m.Payload))
	out[0] = byte(m.Type)
	copy(out[1:], m.Payload)
	return out, nil
}

// DecodeMessage splits raw bytes into a message. Empty or oversized input
// is a parse failure; an unrecognized type byte is NoSuchMessage.
func DecodeMessage(data []byte) (Message, error) {
	if len(data) == 0 {
		return Message{}, New(KindParseMessageFailed, "empty message")
	}
	if len(data) > maxMessageSize {
		return Message{}, Errorf(KindParseMessageFailed, "message is %d bytes, max %d", len(data), maxMessageSize)
	}
	t := MessageType(data[0])
	if !t.Known() {
		return Message{}, Errorf(KindNoSuchMessage, "message type %d", data[0])
	}
	payload := make([]byte, len(data)-1)
	copy(payload, data[1:])
	return Message{Type: t, Payload: payload}, nil
}

// EncodeBlock serializes b into a block message.
func EncodeBlock(b *block.Block) ([]byte, error) {
	data, err := b.Serialize()
	if err != nil {
		return nil, errors.Wrap(err, "serialize block")
	}
	return EncodeMessage(Message{Type: MsgBlock, Payload: data})
}

// DecodeBlock decodes a block message. A malformed block is reported as
// KindParseMessageFailed with the *block.MalformedBlockError in its chain.
func DecodeBlock(data []byte) (*block.Block, error) {
	msg, err := DecodeMessage(data)
	if err != nil {
		return nil, err
	}
	if msg.Type != MsgBlock {
		return nil, Errorf(KindParseMessageFailed, "expected %s message, got %s", MsgBlock, msg.Type)
	}
	b, err := block.Deserialize(msg.Payload)
	if err != nil {
		return nil, Wrap(KindParseMessageFailed, err, "decode block")
	}
	return b, nil
}

// EncodeTransaction wraps a transaction record into a transaction message.
func EncodeTransaction(r *tx.Record) ([]byte, error) {
	return EncodeMessage(Message{Type: MsgTransaction, Payload: r.RawPayload()})
}

// DecodeTransaction decodes a transaction message.
func DecodeTransaction(data []byte) (*tx.Record, error) {
	msg, err := DecodeMessage(data)
	if err != nil {
		return nil, err
	}
	if msg.Type != MsgTransaction {
		return nil, Errorf(KindParseMessageFailed, "expected %s message, got %s", MsgTransaction, msg.Type)
	}
	if len(msg.Payload) > config.MaxTxSize {
		return nil, Errorf(KindParseMessageFailed, "transaction is %d bytes, max %d", len(msg.Payload), config.MaxTxSize)
	}
	return tx.NewRecord(msg.Payload), nil
}
