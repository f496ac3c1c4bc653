package offer

import (
	"fmt"
	"sort"

	"github.com/greenfloor/offerkit/clvm"
	"github.com/greenfloor/offerkit/protocol"
)

// Payment is one requested payout: recipient puzzle hash, amount, and
// optional memos.
type Payment struct {
	PuzzleHash protocol.Bytes32
	Amount     uint64
	Memos      [][]byte
}

// NotarizedPayment is a group of payments disambiguated by a caller-chosen
// nonce. Nonce uniqueness is not enforced at this layer.
type NotarizedPayment struct {
	Nonce    protocol.Bytes32
	Payments []Payment
}

// CatPayments holds the notarized payments requested for one token class.
type CatPayments struct {
	AssetID  protocol.Bytes32
	Payments []NotarizedPayment
}

// RequestedPayments maps asset classes to their requested notarized
// payments. Token classes keep their first-seen order.
type RequestedPayments struct {
	Xch  []NotarizedPayment
	Cats []CatPayments
}

// IsEmpty reports whether no payments are requested for any asset class.
func (r RequestedPayments) IsEmpty() bool {
	return len(r.Xch) == 0 && len(r.Cats) == 0
}

// node builds the CLVM shape of a notarized payment:
// (nonce (puzzle_hash amount memos...) ...), with the memo list omitted for
// memo-less payments.
func (np NotarizedPayment) node(a *clvm.Arena) clvm.NodeRef {
	payments := make([]clvm.NodeRef, 0, len(np.Payments))
	for _, p := range np.Payments {
		items := []clvm.NodeRef{a.NewAtom(p.PuzzleHash[:]), a.NewInt(p.Amount)}
		if len(p.Memos) > 0 {
			memos := make([]clvm.NodeRef, 0, len(p.Memos))
			for _, m := range p.Memos {
				memos = append(memos, a.NewAtom(m))
			}
			items = append(items, a.NewList(memos...))
		}
		payments = append(payments, a.NewList(items...))
	}
	return a.NewPair(a.NewAtom(np.Nonce[:]), a.NewList(payments...))
}

// settlementSolution builds the solution of an announcement spend: the list
// of notarized payments.
func settlementSolution(a *clvm.Arena, nps []NotarizedPayment) clvm.NodeRef {
	items := make([]clvm.NodeRef, 0, len(nps))
	for _, np := range nps {
		items = append(items, np.node(a))
	}
	return a.NewList(items...)
}

// parseNotarizedPayment reads one notarized payment from its CLVM shape.
func parseNotarizedPayment(a *clvm.Arena, r clvm.NodeRef) (NotarizedPayment, error) {
	nonceRef, paymentsRef, isPair := a.Pair(r)
	if !isPair {
		return NotarizedPayment{}, fmt.Errorf("notarized payment is not a pair")
	}
	nonceBuf, isAtom := a.Atom(nonceRef)
	if !isAtom {
		return NotarizedPayment{}, fmt.Errorf("nonce is not an atom")
	}
	nonce, err := protocol.Bytes32FromSlice(nonceBuf)
	if err != nil {
		return NotarizedPayment{}, fmt.Errorf("nonce: %w", err)
	}
	items, err := a.ListItems(paymentsRef)
	if err != nil {
		return NotarizedPayment{}, fmt.Errorf("payments: %w", err)
	}
	np := NotarizedPayment{Nonce: nonce}
	if len(items) > 0 {
		np.Payments = make([]Payment, 0, len(items))
	}
	for i, item := range items {
		p, err := parsePayment(a, item)
		if err != nil {
			return NotarizedPayment{}, fmt.Errorf("payment %d: %w", i, err)
		}
		np.Payments = append(np.Payments, p)
	}
	return np, nil
}

func parsePayment(a *clvm.Arena, r clvm.NodeRef) (Payment, error) {
	items, err := a.ListItems(r)
	if err != nil {
		return Payment{}, err
	}
	if len(items) != 2 && len(items) != 3 {
		return Payment{}, fmt.Errorf("expected (puzzle_hash amount [memos]), got %d items", len(items))
	}
	phBuf, isAtom := a.Atom(items[0])
	if !isAtom {
		return Payment{}, fmt.Errorf("puzzle hash is not an atom")
	}
	ph, err := protocol.Bytes32FromSlice(phBuf)
	if err != nil {
		return Payment{}, fmt.Errorf("puzzle hash: %w", err)
	}
	amount, err := a.Uint64(items[1])
	if err != nil {
		return Payment{}, fmt.Errorf("amount: %w", err)
	}
	p := Payment{PuzzleHash: ph, Amount: amount}
	if len(items) == 3 {
		memoRefs, err := a.ListItems(items[2])
		if err != nil {
			return Payment{}, fmt.Errorf("memos: %w", err)
		}
		for _, m := range memoRefs {
			buf, isAtom := a.Atom(m)
			if !isAtom {
				return Payment{}, fmt.Errorf("memo is not an atom")
			}
			p.Memos = append(p.Memos, append([]byte(nil), buf...))
		}
	}
	return p, nil
}

// RequestNonce derives a payment nonce from the coins backing a request:
// the tree hash of the sorted coin-id list. Any nonce works; this mirrors
// how wallets pick one deterministically.
func RequestNonce(coinIDs []protocol.Bytes32) protocol.Bytes32 {
	sorted := make([]protocol.Bytes32, len(coinIDs))
	copy(sorted, coinIDs)
	sort.Slice(sorted, func(i, j int) bool {
		for k := range sorted[i] {
			if sorted[i][k] != sorted[j][k] {
				return sorted[i][k] < sorted[j][k]
			}
		}
		return false
	})
	a := clvm.New()
	items := make([]clvm.NodeRef, 0, len(sorted))
	for _, id := range sorted {
		items = append(items, a.NewAtom(id[:]))
	}
	return protocol.Bytes32(a.TreeHash(a.NewList(items...)))
}
