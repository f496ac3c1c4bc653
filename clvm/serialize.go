package clvm

import (
	"fmt"
	"math/bits"
)

const (
	consToken = 0xff
	emptyAtom = 0x80
)

// maxAtomLen bounds a single decoded atom. It is far above anything the
// settlement constructs produce and exists to reject absurd length prefixes
// before allocating.
const maxAtomLen = 1 << 26

type parseOp uint8

const (
	opRead parseOp = iota
	opJoin
)

// Parse decodes one serialized CLVM object from the front of buf into the
// arena. It returns the root node and the number of bytes consumed.
func (a *Arena) Parse(buf []byte) (NodeRef, int, error) {
	pos := 0
	ops := []parseOp{opRead}
	var vals []NodeRef
	for len(ops) > 0 {
		op := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		if op == opJoin {
			right := vals[len(vals)-1]
			left := vals[len(vals)-2]
			vals = vals[:len(vals)-2]
			vals = append(vals, a.NewPair(left, right))
			continue
		}
		if pos >= len(buf) {
			return InvalidRef, 0, fmt.Errorf("unexpected end of input at byte %d", pos)
		}
		b := buf[pos]
		pos++
		if b == consToken {
			ops = append(ops, opJoin, opRead, opRead)
			continue
		}
		atom, n, err := parseAtom(b, buf[pos:])
		if err != nil {
			return InvalidRef, 0, fmt.Errorf("at byte %d: %w", pos-1, err)
		}
		pos += n
		vals = append(vals, a.NewAtom(atom))
	}
	return vals[0], pos, nil
}

// ParseAll decodes buf as exactly one serialized object with no trailing
// bytes.
func (a *Arena) ParseAll(buf []byte) (NodeRef, error) {
	root, n, err := a.Parse(buf)
	if err != nil {
		return InvalidRef, err
	}
	if n != len(buf) {
		return InvalidRef, fmt.Errorf("%d trailing bytes after serialized object", len(buf)-n)
	}
	return root, nil
}

func parseAtom(first byte, rest []byte) ([]byte, int, error) {
	if first == emptyAtom {
		return nil, 0, nil
	}
	if first < 0x80 {
		return []byte{first}, 0, nil
	}
	// the number of leading one bits determines how many size bytes follow
	prefixLen := bits.LeadingZeros8(^first)
	if prefixLen > 5 {
		return nil, 0, fmt.Errorf("invalid atom prefix 0x%02x", first)
	}
	size := uint64(first & (0xff >> uint(prefixLen+1)))
	extra := prefixLen - 1
	if len(rest) < extra {
		return nil, 0, fmt.Errorf("truncated atom size prefix")
	}
	for i := 0; i < extra; i++ {
		size = size<<8 | uint64(rest[i])
	}
	if size > maxAtomLen {
		return nil, 0, fmt.Errorf("atom of %d bytes exceeds limit", size)
	}
	if uint64(len(rest)-extra) < size {
		return nil, 0, fmt.Errorf("truncated atom: want %d bytes, have %d", size, len(rest)-extra)
	}
	return rest[extra : extra+int(size)], extra + int(size), nil
}

// SerializedLen scans the front of buf for one serialized CLVM object and
// returns its length in bytes without building any nodes.
func SerializedLen(buf []byte) (int, error) {
	pos := 0
	pending := 1
	for pending > 0 {
		if pos >= len(buf) {
			return 0, fmt.Errorf("unexpected end of input at byte %d", pos)
		}
		b := buf[pos]
		pos++
		if b == consToken {
			pending++
			continue
		}
		_, n, err := parseAtom(b, buf[pos:])
		if err != nil {
			return 0, fmt.Errorf("at byte %d: %w", pos-1, err)
		}
		pos += n
		pending--
	}
	return pos, nil
}

// Serialize writes the canonical serialization of the subtree rooted at r.
func (a *Arena) Serialize(r NodeRef) []byte {
	var out []byte
	stack := []NodeRef{r}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := a.nodes[cur]
		if n.kind == pairNode {
			out = append(out, consToken)
			stack = append(stack, n.right, n.left)
			continue
		}
		out = appendAtom(out, a.data[n.start:n.end])
	}
	return out
}

func appendAtom(out, atom []byte) []byte {
	size := uint64(len(atom))
	switch {
	case size == 0:
		return append(out, emptyAtom)
	case size == 1 && atom[0] < 0x80:
		return append(out, atom[0])
	case size < 0x40:
		out = append(out, 0x80|byte(size))
	case size < 0x2000:
		out = append(out, 0xc0|byte(size>>8), byte(size))
	case size < 0x100000:
		out = append(out, 0xe0|byte(size>>16), byte(size>>8), byte(size))
	case size < 0x8000000:
		out = append(out, 0xf0|byte(size>>24), byte(size>>16), byte(size>>8), byte(size))
	default:
		out = append(out, 0xf8|byte(size>>32), byte(size>>24), byte(size>>16), byte(size>>8), byte(size))
	}
	return append(out, atom...)
}
