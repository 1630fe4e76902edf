package merkle

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gscnet/blockcore/pkg/crypto"
	"github.com/gscnet/blockcore/pkg/types"
)

func leaves(n int) []types.Hash {
	out := make([]types.Hash, n)
	for i := range out {
		out[i] = crypto.Hash([]byte(fmt.Sprintf("tx%d", i+1)))
	}
	return out
}

func TestBuildRoot_Empty(t *testing.T) {
	if root := BuildRoot(nil); root != types.ZeroHash {
		t.Errorf("nil input should return zero hash, got %s", root)
	}
	if root := BuildRoot([]types.Hash{}); root != types.ZeroHash {
		t.Errorf("empty slice should return zero hash, got %s", root)
	}
}

func TestBuildRoot_SingleHash(t *testing.T) {
	h := crypto.Hash([]byte("single tx"))
	if root := BuildRoot([]types.Hash{h}); root != h {
		t.Errorf("single hash should return itself: got %s, want %s", root, h)
	}
}

func TestBuildRoot_TwoHashes(t *testing.T) {
	l := leaves(2)
	want := crypto.HashConcat(l[0], l[1])
	if root := BuildRoot(l); root != want {
		t.Errorf("two hashes: got %s, want %s", root, want)
	}
}

func TestBuildRoot_ThreeHashes(t *testing.T) {
	l := leaves(3)

	// [h1 h2 h3] -> [H(h1||h2) h3] -> H(H(h1||h2)||h3)
	want, err := types.HexToHash("fb8e779421eeb7e44d4c217bed51f3e9604808340992fb0f1d421d5a18a1e400")
	if err != nil {
		t.Fatal(err)
	}

	root := BuildRoot(l)
	if root != want {
		t.Errorf("three hashes: got %s, want %s", root, want)
	}
	if manual := crypto.HashConcat(crypto.HashConcat(l[0], l[1]), l[2]); manual != want {
		t.Errorf("manual root %s does not match pinned %s", manual, want)
	}

	// The unpaired node must not be duplicated.
	dup := crypto.HashConcat(crypto.HashConcat(l[0], l[1]), crypto.HashConcat(l[2], l[2]))
	if root == dup {
		t.Error("odd node was duplicated instead of carried up")
	}
}

func TestBuildRoot_FiveHashes(t *testing.T) {
	want, err := types.HexToHash("24febdd05adae3b815fb8a04d40ce13f9c9353e55abfbdc453a85754c0bb6ce3")
	if err != nil {
		t.Fatal(err)
	}
	if root := BuildRoot(leaves(5)); root != want {
		t.Errorf("five hashes: got %s, want %s", root, want)
	}
}

func TestBuildRoot_Deterministic(t *testing.T) {
	l := leaves(7)
	if BuildRoot(l) != BuildRoot(l) {
		t.Error("BuildRoot is not deterministic")
	}
}

func TestBuildRoot_OrderSensitive(t *testing.T) {
	l := leaves(4)
	swapped := []types.Hash{l[1], l[0], l[2], l[3]}
	if BuildRoot(l) == BuildRoot(swapped) {
		t.Error("swapping leaves should change the root")
	}
}

func TestBuildRoot_DoesNotMutateInput(t *testing.T) {
	l := leaves(3)
	orig := make([]types.Hash, len(l))
	copy(orig, l)

	BuildRoot(l)
	for i := range l {
		if l[i] != orig[i] {
			t.Fatalf("input slice modified at %d", i)
		}
	}
}

func TestBuild_MatchesBuildRoot(t *testing.T) {
	for n := 0; n <= 17; n++ {
		l := leaves(n)
		tree := Build(l)
		if tree.Root() != BuildRoot(l) {
			t.Errorf("n=%d: Build root %s != BuildRoot %s", n, tree.Root(), BuildRoot(l))
		}
		if tree.LeafCount() != n {
			t.Errorf("n=%d: LeafCount = %d", n, tree.LeafCount())
		}
	}
}

func TestTree_Depth(t *testing.T) {
	tests := []struct {
		leaves int
		depth  int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{8, 3},
		{9, 4},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d leaves", tt.leaves), func(t *testing.T) {
			if got := Build(leaves(tt.leaves)).Depth(); got != tt.depth {
				t.Errorf("Depth() = %d, want %d", got, tt.depth)
			}
		})
	}
}

func TestProof_AllLeavesVerify(t *testing.T) {
	for n := 1; n <= 13; n++ {
		l := leaves(n)
		tree := Build(l)
		root := tree.Root()
		for i := range l {
			p, err := tree.Proof(i)
			if err != nil {
				t.Fatalf("n=%d i=%d: Proof error: %v", n, i, err)
			}
			if !VerifyProof(l[i], p, root) {
				t.Errorf("n=%d i=%d: proof does not verify", n, i)
			}
		}
	}
}

func TestProof_WrongLeaf(t *testing.T) {
	l := leaves(6)
	tree := Build(l)
	p, err := tree.Proof(2)
	if err != nil {
		t.Fatalf("Proof error: %v", err)
	}
	if VerifyProof(l[3], p, tree.Root()) {
		t.Error("proof should not verify a different leaf")
	}
	if VerifyProof(l[2], p, crypto.Hash([]byte("other root"))) {
		t.Error("proof should not verify against a different root")
	}
}

func TestProof_CarriedLeafSkipsLevel(t *testing.T) {
	l := leaves(3)
	p, err := Build(l).Proof(2)
	if err != nil {
		t.Fatalf("Proof error: %v", err)
	}
	if len(p.Steps) != 1 {
		t.Fatalf("carried leaf proof has %d steps, want 1", len(p.Steps))
	}
	if !p.Steps[0].Left {
		t.Error("sibling of the carried leaf should be on the left")
	}
}

func TestProof_OutOfRange(t *testing.T) {
	tree := Build(leaves(4))
	for _, idx := range []int{-1, 4, 100} {
		if _, err := tree.Proof(idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Proof(%d) error = %v, want ErrIndexOutOfRange", idx, err)
		}
	}

	var empty *Tree
	if _, err := empty.Proof(0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("nil tree Proof error = %v, want ErrIndexOutOfRange", err)
	}
}
