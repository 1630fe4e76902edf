package block

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/gscnet/blockcore/config"
	"github.com/gscnet/blockcore/pkg/tx"
)

// Wire layout (protocol buffer encoding, fields in ascending order):
//
//	HeaderRaw { 1 timestamp int64, 2 merkle_root bytes(32), 3 parent_hash bytes(32),
//	            7 number int64, 9 producer_address bytes(20), 10 version uint32 }
//	Header    { 1 raw_data HeaderRaw, 2 witness_signature bytes }
//	Block     { 1 transactions repeated bytes, 2 block_header Header }
//
// Zero varints and an empty signature are omitted. Hashes, the address and
// nested messages are always written. The decoder accepts only this exact
// canonical form, so decoding then re-encoding reproduces the input.
const (
	rawTimestamp  protowire.Number = 1
	rawMerkleRoot protowire.Number = 2
	rawParentHash protowire.Number = 3
	rawNumber     protowire.Number = 7
	rawProducer   protowire.Number = 9
	rawVersion    protowire.Number = 10

	headerRawData   protowire.Number = 1
	headerSignature protowire.Number = 2

	blockTransactions protowire.Number = 1
	blockHeader       protowire.Number = 2
)

type fieldSpec struct {
	name     string
	typ      protowire.Type
	repeated bool
}

type schema map[protowire.Number]fieldSpec

var (
	headerRawSchema = schema{
		rawTimestamp:  {name: "timestamp", typ: protowire.VarintType},
		rawMerkleRoot: {name: "merkle_root", typ: protowire.BytesType},
		rawParentHash: {name: "parent_hash", typ: protowire.BytesType},
		rawNumber:     {name: "number", typ: protowire.VarintType},
		rawProducer:   {name: "producer_address", typ: protowire.BytesType},
		rawVersion:    {name: "version", typ: protowire.VarintType},
	}
	headerSchema = schema{
		headerRawData:   {name: "raw_data", typ: protowire.BytesType},
		headerSignature: {name: "witness_signature", typ: protowire.BytesType},
	}
	blockSchema = schema{
		blockTransactions: {name: "transactions", typ: protowire.BytesType, repeated: true},
		blockHeader:       {name: "block_header", typ: protowire.BytesType},
	}
)

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendHeaderRaw(b []byte, h *Header) []byte {
	b = appendVarintField(b, rawTimestamp, uint64(h.Timestamp))
	b = appendBytesField(b, rawMerkleRoot, h.MerkleRoot[:])
	b = appendBytesField(b, rawParentHash, h.ParentHash[:])
	b = appendVarintField(b, rawNumber, uint64(h.Number))
	b = appendBytesField(b, rawProducer, h.Producer[:])
	b = appendVarintField(b, rawVersion, uint64(h.Version))
	return b
}

func appendHeader(b []byte, h *Header) []byte {
	b = appendBytesField(b, headerRawData, h.RawBytes())
	if len(h.WitnessSignature) > 0 {
		b = appendBytesField(b, headerSignature, h.WitnessSignature)
	}
	return b
}

func encodeBlock(h *Header, txs []*tx.Record) []byte {
	size := 256
	for _, r := range txs {
		size += r.Size() + 4
	}
	b := make([]byte, 0, size)
	for _, r := range txs {
		b = appendBytesField(b, blockTransactions, r.RawPayload())
	}
	var hdr []byte
	hdr = appendHeader(hdr, h)
	return appendBytesField(b, blockHeader, hdr)
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// field is one decoded top-level field of a message.
type field struct {
	num    protowire.Number
	path   string
	offset int    // absolute offset of the tag
	valOff int    // absolute offset of the value (content for bytes)
	u      uint64 // varint value
	bytes  []byte // bytes value, aliases the input
}

// walk iterates the fields of one message, enforcing the canonical form:
// known fields only, expected wire types, strictly ascending field numbers
// (consecutive repeats allowed only for repeated fields) and minimal varints.
func walk(data []byte, base int, prefix string, s schema, fn func(f field) error) error {
	var last protowire.Number
	for pos := 0; pos < len(data); {
		off := base + pos
		num, typ, n := protowire.ConsumeTag(data[pos:])
		if n < 0 {
			return &MalformedBlockError{Field: prefix, Offset: off, Reason: "bad field tag", Err: protowire.ParseError(n)}
		}
		if protowire.SizeTag(num) != n {
			return malformed(prefix, off, "non-canonical tag encoding")
		}
		spec, ok := s[num]
		if !ok {
			return malformed(prefix, off, "unknown field %d", num)
		}
		path := join(prefix, spec.name)
		if typ != spec.typ {
			return malformed(path, off, "wire type %d, want %d", typ, spec.typ)
		}
		switch {
		case num == last && !spec.repeated:
			return malformed(path, off, "duplicate field")
		case num < last:
			return malformed(path, off, "field out of order")
		}
		last = num
		pos += n

		f := field{num: num, path: path, offset: off}
		switch typ {
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(data[pos:])
			if m < 0 {
				return &MalformedBlockError{Field: path, Offset: base + pos, Reason: "bad varint", Err: protowire.ParseError(m)}
			}
			if protowire.SizeVarint(v) != m {
				return malformed(path, base+pos, "non-canonical varint")
			}
			if v == 0 {
				return malformed(path, base+pos, "zero value must be omitted")
			}
			f.u, f.valOff = v, base+pos
			pos += m
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(data[pos:])
			if m < 0 {
				return &MalformedBlockError{Field: path, Offset: base + pos, Reason: "bad length-delimited value", Err: protowire.ParseError(m)}
			}
			prefixLen := m - len(v)
			if protowire.SizeVarint(uint64(len(v))) != prefixLen {
				return malformed(path, base+pos, "non-canonical length prefix")
			}
			f.bytes, f.valOff = v, base+pos+prefixLen
			pos += m
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func fixedBytes(f field, dst []byte) error {
	if len(f.bytes) != len(dst) {
		return malformed(f.path, f.valOff, "length %d, want %d", len(f.bytes), len(dst))
	}
	copy(dst, f.bytes)
	return nil
}

func decodeHeaderRaw(data []byte, base int, prefix string) (Header, error) {
	var (
		h    Header
		seen = make(map[protowire.Number]bool, len(headerRawSchema))
	)
	err := walk(data, base, prefix, headerRawSchema, func(f field) error {
		seen[f.num] = true
		switch f.num {
		case rawTimestamp:
			h.Timestamp = int64(f.u)
		case rawMerkleRoot:
			return fixedBytes(f, h.MerkleRoot[:])
		case rawParentHash:
			return fixedBytes(f, h.ParentHash[:])
		case rawNumber:
			if f.u > math.MaxInt64 {
				return malformed(f.path, f.valOff, "negative block number")
			}
			h.Number = int64(f.u)
		case rawProducer:
			return fixedBytes(f, h.Producer[:])
		case rawVersion:
			if f.u > math.MaxUint32 {
				return malformed(f.path, f.valOff, "version overflows uint32")
			}
			h.Version = uint32(f.u)
		}
		return nil
	})
	if err != nil {
		return Header{}, err
	}
	for _, num := range []protowire.Number{rawMerkleRoot, rawParentHash, rawProducer} {
		if !seen[num] {
			return Header{}, malformed(join(prefix, headerRawSchema[num].name), base+len(data), "missing required field")
		}
	}
	return h, nil
}

func decodeHeader(data []byte, base int, prefix string) (Header, error) {
	if len(data) > config.MaxHeaderSize {
		return Header{}, malformed(prefix, base, "header is %d bytes, max %d", len(data), config.MaxHeaderSize)
	}
	var (
		h       Header
		haveRaw bool
	)
	err := walk(data, base, prefix, headerSchema, func(f field) error {
		switch f.num {
		case headerRawData:
			raw, err := decodeHeaderRaw(f.bytes, f.valOff, f.path)
			if err != nil {
				return err
			}
			h, haveRaw = raw, true
		case headerSignature:
			if len(f.bytes) == 0 {
				return malformed(f.path, f.valOff, "empty signature must be omitted")
			}
			if len(f.bytes) > config.MaxWitnessSize {
				return malformed(f.path, f.valOff, "signature is %d bytes, max %d", len(f.bytes), config.MaxWitnessSize)
			}
			h.WitnessSignature = cloneBytes(f.bytes)
		}
		return nil
	})
	if err != nil {
		return Header{}, err
	}
	if !haveRaw {
		return Header{}, malformed(join(prefix, "raw_data"), base+len(data), "missing required field")
	}
	return h, nil
}

func decodeBlock(data []byte) (Header, []*tx.Record, error) {
	if len(data) > config.MaxBlockSize {
		return Header{}, nil, malformed("block", 0, "block is %d bytes, max %d", len(data), config.MaxBlockSize)
	}
	var (
		h          Header
		haveHeader bool
		txs        []*tx.Record
	)
	err := walk(data, 0, "", blockSchema, func(f field) error {
		switch f.num {
		case blockTransactions:
			if len(txs) >= config.MaxBlockTxs {
				return malformed(f.path, f.offset, "more than %d transactions", config.MaxBlockTxs)
			}
			if len(f.bytes) > config.MaxTxSize {
				return malformed(f.path, f.valOff, "transaction is %d bytes, max %d", len(f.bytes), config.MaxTxSize)
			}
			txs = append(txs, tx.NewRecord(f.bytes))
		case blockHeader:
			hdr, err := decodeHeader(f.bytes, f.valOff, f.path)
			if err != nil {
				return err
			}
			h, haveHeader = hdr, true
		}
		return nil
	})
	if err != nil {
		return Header{}, nil, err
	}
	if !haveHeader {
		return Header{}, nil, malformed("block_header", len(data), "missing required field")
	}
	return h, txs, nil
}
