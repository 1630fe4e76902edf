package crypto

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/gscnet/blockcore/pkg/types"
)

// Signature layout constants.
const (
	// SignatureSize is the length of a recoverable signature: r(32) | s(32) | v(1).
	SignatureSize = 65

	// PrivateKeySize is the length of a raw private key scalar.
	PrivateKeySize = 32

	// RecoveryIDOffset is the index of the recovery byte in a signature.
	RecoveryIDOffset = 64

	// recoveryMagic is added to the recovery id when it is serialized.
	recoveryMagic = 27

	// maxRecoveryByte is the highest accepted recovery byte. The 31..34
	// compressed-key variants recover the same key as 27..30 and are
	// rejected so that a signature has a single valid encoding.
	maxRecoveryByte = recoveryMagic + 3
)

// Recovery errors.
var (
	ErrBadSignatureLength = errors.New("signature must be 65 bytes")
	ErrBadRecoveryID      = errors.New("invalid signature recovery id")
	ErrBadHashLength      = errors.New("hash must be 32 bytes")
)

// Signer signs 32-byte hashes with a recoverable ECDSA signature.
type Signer interface {
	// Sign produces a 65-byte r|s|v signature over a 32-byte hash.
	Sign(hash []byte) ([]byte, error)
	// Address returns the address derived from the signer's public key.
	Address() types.Address
}

// PrivateKey wraps a secp256k1 private key for ECDSA signing.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey creates a new random secp256k1 private key.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes creates a PrivateKey from a 32-byte secret.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", PrivateKeySize, len(b))
	}
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(b); overflow || scalar.IsZero() {
		return nil, fmt.Errorf("private key is out of range")
	}
	return &PrivateKey{key: secp256k1.NewPrivateKey(&scalar)}, nil
}

// Sign produces a recoverable ECDSA signature over a 32-byte hash.
// Nonces are deterministic (RFC 6979), so equal inputs give equal output.
func (pk *PrivateKey) Sign(hash []byte) ([]byte, error) {
	if len(hash) != types.HashSize {
		return nil, fmt.Errorf("%w, got %d", ErrBadHashLength, len(hash))
	}
	// SignCompact returns v | r | s with v = 27 + recovery id.
	compact := ecdsa.SignCompact(pk.key, hash, false)

	sig := make([]byte, SignatureSize)
	copy(sig[:RecoveryIDOffset], compact[1:])
	sig[RecoveryIDOffset] = compact[0]
	return sig, nil
}

// PublicKey returns the compressed 33-byte public key.
func (pk *PrivateKey) PublicKey() []byte {
	return pk.key.PubKey().SerializeCompressed()
}

// Address returns the address derived from this key.
func (pk *PrivateKey) Address() types.Address {
	return AddressFromPubKey(pk.key.PubKey())
}

// Serialize returns the 32-byte private key scalar.
func (pk *PrivateKey) Serialize() []byte {
	return pk.key.Serialize()
}

// Zero securely zeroes the private key memory.
func (pk *PrivateKey) Zero() {
	pk.key.Zero()
}

// RecoverPubKey recovers the public key that produced sig over hash.
func RecoverPubKey(hash, sig []byte) (*secp256k1.PublicKey, error) {
	if len(hash) != types.HashSize {
		return nil, fmt.Errorf("%w, got %d", ErrBadHashLength, len(hash))
	}
	if len(sig) != SignatureSize {
		return nil, fmt.Errorf("%w, got %d", ErrBadSignatureLength, len(sig))
	}
	v := sig[RecoveryIDOffset]
	if v < recoveryMagic || v > maxRecoveryByte {
		return nil, fmt.Errorf("%w: %d", ErrBadRecoveryID, v)
	}

	compact := make([]byte, SignatureSize)
	compact[0] = v
	copy(compact[1:], sig[:RecoveryIDOffset])

	pub, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, fmt.Errorf("recover public key: %w", err)
	}
	return pub, nil
}

// RecoverAddress recovers the signer's address from a hash and signature.
func RecoverAddress(hash, sig []byte) (types.Address, error) {
	pub, err := RecoverPubKey(hash, sig)
	if err != nil {
		return types.Address{}, err
	}
	return AddressFromPubKey(pub), nil
}

// VerifySignature reports whether sig over hash was produced by addr.
// Returns false on any error.
func VerifySignature(hash, sig []byte, addr types.Address) bool {
	got, err := RecoverAddress(hash, sig)
	if err != nil {
		return false
	}
	return got == addr
}
