// Package merkle builds the binary hash tree that fingerprints a file.
//
// Content is cut into fixed-size chunks while it streams past; each chunk
// becomes a leaf (BLAKE3-256 by default) and leaves are combined pairwise,
// left to right, hashing left||right. A level with an odd number of nodes
// pairs its last node with itself. A single leaf is its own root, and an
// empty input has no leaves and the root hash("").
package merkle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

// DefaultChunkSize is the leaf size the storage network verifies against.
const DefaultChunkSize = 1024

var (
	ErrChunkSize = errors.New("invalid merkle chunk size")
	ErrLeafIndex = errors.New("leaf index out of range")
	ErrEmptyTree = errors.New("tree has no leaves")
)

// HashFunc hashes one leaf chunk or one concatenated node pair.
type HashFunc func(data []byte) []byte

// Blake3 is the default HashFunc: unkeyed BLAKE3 with a 32-byte digest.
func Blake3(data []byte) []byte {
	sum := blake3.Sum256(data)
	return sum[:]
}

// EmptyRoot is the root of a tree built from zero bytes of content.
func EmptyRoot(hash HashFunc) []byte {
	return hash(nil)
}

// Tree is an immutable Merkle tree. levels[0] holds the leaves and the last
// level holds the root.
type Tree struct {
	levels [][][]byte
	hash   HashFunc
}

// New builds a tree over precomputed leaf digests.
func New(leaves [][]byte, hash HashFunc) *Tree {
	if hash == nil {
		hash = Blake3
	}
	t := &Tree{hash: hash}
	if len(leaves) == 0 {
		return t
	}

	level := make([][]byte, len(leaves))
	copy(level, leaves)
	t.levels = append(t.levels, level)

	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			right := level[i]
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, combine(hash, level[i], right))
		}
		t.levels = append(t.levels, next)
		level = next
	}

	return t
}

func combine(hash HashFunc, left, right []byte) []byte {
	buf := make([]byte, 0, len(left)+len(right))
	buf = append(buf, left...)
	buf = append(buf, right...)
	return hash(buf)
}

// Root returns a copy of the root digest.
func (t *Tree) Root() []byte {
	if len(t.levels) == 0 {
		return EmptyRoot(t.hash)
	}
	top := t.levels[len(t.levels)-1][0]
	return bytes.Clone(top)
}

// LeafCount returns the number of leaves.
func (t *Tree) LeafCount() int {
	if len(t.levels) == 0 {
		return 0
	}
	return len(t.levels[0])
}

// Leaves returns copies of the leaf digests in order.
func (t *Tree) Leaves() [][]byte {
	if len(t.levels) == 0 {
		return nil
	}
	out := make([][]byte, len(t.levels[0]))
	for i, l := range t.levels[0] {
		out[i] = bytes.Clone(l)
	}
	return out
}

// Proof is the audit path of one leaf: the sibling digest at every level
// from the leaves up. The position of the leaf decides on which side each
// sibling is concatenated.
type Proof struct {
	Index    int
	Siblings [][]byte
}

// Proof returns the audit path for leaf i.
func (t *Tree) Proof(i int) (*Proof, error) {
	if len(t.levels) == 0 {
		return nil, ErrEmptyTree
	}
	if i < 0 || i >= len(t.levels[0]) {
		return nil, fmt.Errorf("%w: %d of %d", ErrLeafIndex, i, len(t.levels[0]))
	}

	p := &Proof{Index: i}
	idx := i
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := idx ^ 1
		if sibling >= len(level) {
			sibling = idx
		}
		p.Siblings = append(p.Siblings, bytes.Clone(level[sibling]))
		idx /= 2
	}
	return p, nil
}

// Verify recomputes the root from leaf and its proof and compares it with root.
func Verify(root, leaf []byte, p *Proof, hash HashFunc) bool {
	if p == nil || p.Index < 0 {
		return false
	}
	if hash == nil {
		hash = Blake3
	}

	h := leaf
	idx := p.Index
	for _, s := range p.Siblings {
		if idx%2 == 0 {
			h = combine(hash, h, s)
		} else {
			h = combine(hash, s, h)
		}
		idx /= 2
	}
	return bytes.Equal(h, root)
}

// Build streams r through a Builder and returns the finished tree.
func Build(ctx context.Context, r io.Reader, chunkSize int, hash HashFunc) (*Tree, error) {
	b, err := NewBuilder(ctx, chunkSize, hash)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(b, r); err != nil {
		return nil, err
	}
	return b.Finish()
}
