// Package crypto provides the hashing and signing primitives of the block core.
package crypto

import (
	"github.com/gscnet/blockcore/pkg/types"
	"github.com/minio/sha256-simd"
	"github.com/zeebo/blake3"
)

// Hash computes the SHA-256 digest of data. This is the consensus hash used
// for transaction leaves, Merkle nodes and header identity.
func Hash(data []byte) types.Hash {
	return sha256.Sum256(data)
}

// HashConcat hashes the concatenation of two hashes, left then right.
// Used for building merkle trees.
func HashConcat(a, b types.Hash) types.Hash {
	var buf [2 * types.HashSize]byte
	copy(buf[:types.HashSize], a[:])
	copy(buf[types.HashSize:], b[:])
	return Hash(buf[:])
}

// Checksum computes a BLAKE3-256 digest of data. It is never part of a
// consensus encoding; storage uses it to detect corrupted records.
func Checksum(data []byte) types.Hash {
	return blake3.Sum256(data)
}
