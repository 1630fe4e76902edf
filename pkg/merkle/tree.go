// Package merkle builds binary SHA-256 hash trees over ordered leaf digests.
//
// Levels are paired left to right. When a level has an odd number of nodes
// the last node is carried up to the next level unchanged; it is never
// duplicated or hashed alone. A single leaf is therefore its own root.
package merkle

import (
	"errors"
	"fmt"

	"github.com/gscnet/blockcore/pkg/crypto"
	"github.com/gscnet/blockcore/pkg/types"
)

// ErrIndexOutOfRange is returned when a proof is requested for a leaf
// that is not in the tree.
var ErrIndexOutOfRange = errors.New("leaf index out of range")

// Tree holds every level of a built tree, leaves first.
type Tree struct {
	levels [][]types.Hash
}

// ProofStep is one sibling on the path from a leaf to the root.
type ProofStep struct {
	Hash types.Hash `json:"hash"`
	Left bool       `json:"left"` // sibling sits to the left of the path node
}

// Proof is an inclusion proof for one leaf. Levels where the path node was
// carried up unpaired contribute no step.
type Proof struct {
	Index int         `json:"index"`
	Steps []ProofStep `json:"steps"`
}

// BuildRoot computes the root of the given leaves. An empty input yields
// the zero hash and no tree is built.
func BuildRoot(leaves []types.Hash) types.Hash {
	if len(leaves) == 0 {
		return types.ZeroHash
	}

	// Work on a copy so we don't mutate the caller's slice.
	level := make([]types.Hash, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		level = nextLevel(level)
	}
	return level[0]
}

// Build constructs the full tree so proofs can be extracted.
// Returns nil for an empty input.
func Build(leaves []types.Hash) *Tree {
	if len(leaves) == 0 {
		return nil
	}

	first := make([]types.Hash, len(leaves))
	copy(first, leaves)

	t := &Tree{levels: [][]types.Hash{first}}
	for level := first; len(level) > 1; {
		level = nextLevel(level)
		t.levels = append(t.levels, level)
	}
	return t
}

func nextLevel(level []types.Hash) []types.Hash {
	next := make([]types.Hash, 0, (len(level)+1)/2)
	for i := 0; i+1 < len(level); i += 2 {
		next = append(next, crypto.HashConcat(level[i], level[i+1]))
	}
	if len(level)%2 != 0 {
		next = append(next, level[len(level)-1])
	}
	return next
}

// Root returns the root digest, or the zero hash for a nil tree.
func (t *Tree) Root() types.Hash {
	if t == nil {
		return types.ZeroHash
	}
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Depth returns the number of levels above the leaves.
func (t *Tree) Depth() int {
	if t == nil {
		return 0
	}
	return len(t.levels) - 1
}

// LeafCount returns the number of leaves.
func (t *Tree) LeafCount() int {
	if t == nil {
		return 0
	}
	return len(t.levels[0])
}

// Proof returns the inclusion proof for the leaf at index.
func (t *Tree) Proof(index int) (Proof, error) {
	if index < 0 || index >= t.LeafCount() {
		return Proof{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	p := Proof{Index: index}
	pos := index
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := pos ^ 1
		if sibling < len(level) {
			p.Steps = append(p.Steps, ProofStep{
				Hash: level[sibling],
				Left: sibling < pos,
			})
		}
		pos /= 2
	}
	return p, nil
}

// VerifyProof reports whether leaf hashes up to root along proof.
func VerifyProof(leaf types.Hash, proof Proof, root types.Hash) bool {
	h := leaf
	for _, step := range proof.Steps {
		if step.Left {
			h = crypto.HashConcat(step.Hash, h)
		} else {
			h = crypto.HashConcat(h, step.Hash)
		}
	}
	return h == root
}
