package clvm

// CLVM operators used by the curry convention.
const (
	opQuote = 0x01
	opApply = 0x02
	opCons  = 0x04
)

// Curry wraps mod so that it runs with the given arguments prepended to its
// environment: (a (q . mod) (c (q . arg1) (c (q . arg2) ... 1))).
func (a *Arena) Curry(mod NodeRef, args ...NodeRef) NodeRef {
	env := a.NewAtom([]byte{opQuote})
	for i := len(args) - 1; i >= 0; i-- {
		quoted := a.NewPair(a.NewAtom([]byte{opQuote}), args[i])
		env = a.NewList(a.NewAtom([]byte{opCons}), quoted, env)
	}
	quotedMod := a.NewPair(a.NewAtom([]byte{opQuote}), mod)
	return a.NewList(a.NewAtom([]byte{opApply}), quotedMod, env)
}

// Uncurry recognizes the curry convention and returns the inner mod and the
// curried arguments. ok is false when r does not follow the convention.
func (a *Arena) Uncurry(r NodeRef) (mod NodeRef, args []NodeRef, ok bool) {
	items, err := a.ListItems(r)
	if err != nil || len(items) != 3 {
		return InvalidRef, nil, false
	}
	if !a.atomEquals(items[0], opApply) {
		return InvalidRef, nil, false
	}
	qmod, modBody, isPair := a.Pair(items[1])
	if !isPair || !a.atomEquals(qmod, opQuote) {
		return InvalidRef, nil, false
	}
	env := items[2]
	for {
		if a.IsAtom(env) {
			if !a.atomEquals(env, opQuote) {
				return InvalidRef, nil, false
			}
			return modBody, args, true
		}
		cell, err := a.ListItems(env)
		if err != nil || len(cell) != 3 || !a.atomEquals(cell[0], opCons) {
			return InvalidRef, nil, false
		}
		qarg, arg, isPair := a.Pair(cell[1])
		if !isPair || !a.atomEquals(qarg, opQuote) {
			return InvalidRef, nil, false
		}
		args = append(args, arg)
		env = cell[2]
	}
}

func (a *Arena) atomEquals(r NodeRef, b byte) bool {
	buf, isAtom := a.Atom(r)
	return isAtom && len(buf) == 1 && buf[0] == b
}
