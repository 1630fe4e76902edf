package block

import (
	"testing"

	"github.com/gscnet/blockcore/pkg/crypto"
	"github.com/gscnet/blockcore/pkg/types"
)

// testKey returns a fresh producer key and its raw scalar.
func testKey(t *testing.T) (*crypto.PrivateKey, []byte) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	return key, key.Serialize()
}

// testPayloads returns n distinct transaction payloads.
func testPayloads(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte{'t', 'x', byte('1' + i)}
	}
	return out
}

// unsignedBlock returns a block in the RootSet state produced by key.
func unsignedBlock(t *testing.T, key *crypto.PrivateKey, txs int) *Block {
	t.Helper()
	b := New(1700000000000, types.Hash{0xaa}, 7, key.Address(), testPayloads(txs))
	b.FinalizeMerkleRoot()
	return b
}

// signedBlock returns a signed block with three transactions.
func signedBlock(t *testing.T) (*Block, *crypto.PrivateKey) {
	t.Helper()
	key, raw := testKey(t)
	b := unsignedBlock(t, key, 3)
	if err := b.Sign(raw); err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	return b, key
}
