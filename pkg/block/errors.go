package block

import (
	"errors"
	"fmt"
)

// Lifecycle errors.
var (
	ErrRootNotFinalized = errors.New("merkle root not finalized")
	ErrAlreadySigned    = errors.New("block already signed")
	ErrEmptyKey         = errors.New("empty private key")
	ErrInvalidKey       = errors.New("invalid private key")
)

// Validation errors.
var (
	ErrBadMerkleRoot  = errors.New("merkle root mismatch")
	ErrBadVersion     = errors.New("unsupported block version")
	ErrZeroTimestamp  = errors.New("block timestamp is zero")
	ErrNegativeNumber = errors.New("block number is negative")
	ErrTooManyTxs     = errors.New("too many transactions in block")
	ErrBlockTooLarge  = errors.New("block too large")
	ErrTxTooLarge     = errors.New("transaction too large")
	ErrBadSignature   = errors.New("witness signature does not match producer")
)

// MalformedBlockError reports bytes that do not conform to the block wire
// schema. Field is the dotted path of the offending field and Offset the
// byte position in the input where decoding failed.
type MalformedBlockError struct {
	Field  string
	Offset int
	Reason string
	Err    error // underlying wire error, if any
}

func (e *MalformedBlockError) Error() string {
	msg := fmt.Sprintf("malformed block: %s at offset %d: %s", e.Field, e.Offset, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedBlockError) Unwrap() error { return e.Err }

func malformed(field string, offset int, format string, args ...any) *MalformedBlockError {
	return &MalformedBlockError{Field: field, Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// SignatureRecoveryError reports witness signature bytes from which no
// public key can be recovered.
type SignatureRecoveryError struct {
	Err error
}

func (e *SignatureRecoveryError) Error() string {
	return "signature recovery failed: " + e.Err.Error()
}

func (e *SignatureRecoveryError) Unwrap() error { return e.Err }
