package clvm

import "crypto/sha256"

// Tree hashing domain prefixes.
const (
	atomPrefix = 0x01
	pairPrefix = 0x02
)

// TreeHash computes the canonical tree hash of the subtree rooted at r:
// sha256(0x01 || payload) for atoms, sha256(0x02 || left || right) for
// pairs.
func (a *Arena) TreeHash(r NodeRef) [32]byte {
	type frame struct {
		ref     NodeRef
		visited bool
	}
	var hashes [][32]byte
	stack := []frame{{ref: r}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := a.nodes[f.ref]
		if n.kind == atomNode {
			h := sha256.New()
			h.Write([]byte{atomPrefix})
			h.Write(a.data[n.start:n.end])
			var sum [32]byte
			h.Sum(sum[:0])
			hashes = append(hashes, sum)
			continue
		}
		if f.visited {
			right := hashes[len(hashes)-1]
			left := hashes[len(hashes)-2]
			hashes = hashes[:len(hashes)-2]
			h := sha256.New()
			h.Write([]byte{pairPrefix})
			h.Write(left[:])
			h.Write(right[:])
			var sum [32]byte
			h.Sum(sum[:0])
			hashes = append(hashes, sum)
			continue
		}
		stack = append(stack, frame{ref: f.ref, visited: true})
		stack = append(stack, frame{ref: n.right}, frame{ref: n.left})
	}
	return hashes[0]
}
