// Package clvm implements an arena of CLVM program nodes together with the
// canonical serialization, tree hashing and currying operations the offer
// core needs to build and inspect puzzles.
//
// An Arena is an ephemeral working context: it is created for one call,
// exclusively owned by it, and discarded when the call returns. Nodes are
// addressed by index into the arena, never by pointer.
package clvm

import "fmt"

// NodeRef addresses a node inside its owning Arena.
type NodeRef int32

// InvalidRef is returned by constructors and accessors on failure.
const InvalidRef NodeRef = -1

type nodeKind uint8

const (
	atomNode nodeKind = iota
	pairNode
)

type node struct {
	kind nodeKind
	// atom payload, a span into Arena.data
	start, end uint32
	// pair children
	left, right NodeRef
}

// Arena holds a transient graph of CLVM nodes. The zero value is not
// usable, construct with New.
type Arena struct {
	nodes []node
	data  []byte
}

// New returns an empty arena whose node 0 is the nil atom.
func New() *Arena {
	a := &Arena{nodes: make([]node, 0, 64)}
	a.nodes = append(a.nodes, node{kind: atomNode})
	return a
}

// Nil returns the empty atom.
func (a *Arena) Nil() NodeRef {
	return 0
}

// NewAtom adds an atom holding a copy of buf.
func (a *Arena) NewAtom(buf []byte) NodeRef {
	if len(buf) == 0 {
		return a.Nil()
	}
	start := uint32(len(a.data))
	a.data = append(a.data, buf...)
	a.nodes = append(a.nodes, node{
		kind:  atomNode,
		start: start,
		end:   uint32(len(a.data)),
	})
	return NodeRef(len(a.nodes) - 1)
}

// NewInt adds an atom holding the minimal signed big-endian encoding of v.
// Zero is the empty atom.
func (a *Arena) NewInt(v uint64) NodeRef {
	if v == 0 {
		return a.Nil()
	}
	buf := make([]byte, 0, 9)
	started := false
	for i := 7; i >= 0; i-- {
		b := byte(v >> (uint(i) * 8))
		if !started {
			if b == 0 {
				continue
			}
			started = true
			if b&0x80 != 0 {
				buf = append(buf, 0)
			}
		}
		buf = append(buf, b)
	}
	return a.NewAtom(buf)
}

// NewPair adds a cons cell.
func (a *Arena) NewPair(left, right NodeRef) NodeRef {
	a.nodes = append(a.nodes, node{kind: pairNode, left: left, right: right})
	return NodeRef(len(a.nodes) - 1)
}

// NewList adds a nil-terminated proper list of the given items.
func (a *Arena) NewList(items ...NodeRef) NodeRef {
	out := a.Nil()
	for i := len(items) - 1; i >= 0; i-- {
		out = a.NewPair(items[i], out)
	}
	return out
}

// IsAtom reports whether r is an atom.
func (a *Arena) IsAtom(r NodeRef) bool {
	return a.nodes[r].kind == atomNode
}

// Atom returns the atom payload of r, or false if r is a pair. The returned
// slice aliases arena memory and must not be mutated.
func (a *Arena) Atom(r NodeRef) ([]byte, bool) {
	n := a.nodes[r]
	if n.kind != atomNode {
		return nil, false
	}
	return a.data[n.start:n.end], true
}

// Pair returns the children of r, or false if r is an atom.
func (a *Arena) Pair(r NodeRef) (NodeRef, NodeRef, bool) {
	n := a.nodes[r]
	if n.kind != pairNode {
		return InvalidRef, InvalidRef, false
	}
	return n.left, n.right, true
}

// ListItems walks a nil-terminated proper list and returns its items.
func (a *Arena) ListItems(r NodeRef) ([]NodeRef, error) {
	var items []NodeRef
	for {
		if a.IsAtom(r) {
			buf, _ := a.Atom(r)
			if len(buf) != 0 {
				return nil, fmt.Errorf("improper list terminator")
			}
			return items, nil
		}
		left, right, _ := a.Pair(r)
		items = append(items, left)
		r = right
	}
}

// Uint64 interprets an atom as a non-negative integer fitting 64 bits.
func (a *Arena) Uint64(r NodeRef) (uint64, error) {
	buf, ok := a.Atom(r)
	if !ok {
		return 0, fmt.Errorf("expected atom, got pair")
	}
	if len(buf) == 0 {
		return 0, nil
	}
	if buf[0]&0x80 != 0 {
		return 0, fmt.Errorf("negative integer")
	}
	// strip the sign byte and any redundant leading zeros
	i := 0
	for i < len(buf)-1 && buf[i] == 0 {
		i++
	}
	buf = buf[i:]
	if len(buf) > 8 {
		return 0, fmt.Errorf("integer overflows 64 bits")
	}
	var v uint64
	for _, b := range buf {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// IsNil reports whether r is the empty atom.
func (a *Arena) IsNil(r NodeRef) bool {
	buf, ok := a.Atom(r)
	return ok && len(buf) == 0
}
