package crypto

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/gscnet/blockcore/pkg/types"
	"golang.org/x/crypto/sha3"
)

// Keccak256 computes the legacy Keccak-256 digest of data.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// AddressFromPubKey derives a producer address from a public key.
// Address = Keccak256(uncompressed_pubkey[1:])[12:].
func AddressFromPubKey(pub *secp256k1.PublicKey) types.Address {
	uncompressed := pub.SerializeUncompressed()
	h := Keccak256(uncompressed[1:])
	var addr types.Address
	copy(addr[:], h[len(h)-types.AddressSize:])
	return addr
}

// AddressFromPubKeyBytes parses a compressed or uncompressed public key and
// derives its address.
func AddressFromPubKeyBytes(pubKey []byte) (types.Address, error) {
	pub, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return types.Address{}, err
	}
	return AddressFromPubKey(pub), nil
}
