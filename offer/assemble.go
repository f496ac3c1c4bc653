package offer

import (
	"github.com/greenfloor/offerkit/clvm"
	offererrors "github.com/greenfloor/offerkit/errors"
	"github.com/greenfloor/offerkit/protocol"
)

// PaymentRequest is the boundary shape of one requested payment group: a
// caller-chosen 32-byte nonce and the payouts it notarizes. Identical
// nonces are preserved as-is; uniqueness is the caller's concern.
type PaymentRequest struct {
	Nonce    []byte
	Payments []RequestedCoin
}

// RequestedCoin is one payout of a payment request. Amounts are passed
// through unvalidated; their semantics belong to consensus.
type RequestedCoin struct {
	PuzzleHash []byte
	Amount     uint64
}

// FromInputSpendBundleXCH fulfills an exchange: it decodes a signed input
// bundle, notarizes the requested native-asset payments, appends the
// settlement spend announcing them, and returns the merged bundle's bytes.
// Only the native-asset slot is ever populated by this entry point.
func FromInputSpendBundleXCH(spendBundle []byte, requests []PaymentRequest) ([]byte, error) {
	input, err := protocol.SpendBundleFromBytes(spendBundle)
	if err != nil {
		return nil, err
	}
	var requested RequestedPayments
	for _, req := range requests {
		nonce, err := protocol.Bytes32FromSlice(req.Nonce)
		if err != nil {
			return nil, err
		}
		np := NotarizedPayment{Nonce: nonce, Payments: make([]Payment, 0, len(req.Payments))}
		for _, p := range req.Payments {
			ph, err := protocol.Bytes32FromSlice(p.PuzzleHash)
			if err != nil {
				return nil, err
			}
			np.Payments = append(np.Payments, Payment{PuzzleHash: ph, Amount: p.Amount})
		}
		requested.Xch = append(requested.Xch, np)
	}
	combined, err := Assemble(input, requested)
	if err != nil {
		return nil, err
	}
	return combined.Bytes(), nil
}

// Assemble merges a signed input bundle with the settlement spends that
// announce the requested payments. Input spends keep their order and come
// first; the aggregated signature is the aggregate over the union, which
// the unsigned settlement spends leave unchanged.
func Assemble(input protocol.SpendBundle, requested RequestedPayments) (protocol.SpendBundle, error) {
	if len(requested.Cats) > 0 {
		return protocol.SpendBundle{}, offererrors.Structural.New(
			"token settlement constructs cannot be built: the token outer program is not carried")
	}
	out := protocol.SpendBundle{
		CoinSpends:          append([]protocol.CoinSpend(nil), input.CoinSpends...),
		AggregatedSignature: input.AggregatedSignature,
	}
	if len(requested.Xch) == 0 {
		return out, nil
	}
	a := clvm.New()
	solution := a.Serialize(settlementSolution(a, requested.Xch))
	out.CoinSpends = append(out.CoinSpends, protocol.CoinSpend{
		Coin: protocol.Coin{
			ParentCoinInfo: zeroParent,
			PuzzleHash:     SettlementPuzzleHash,
			Amount:         0,
		},
		PuzzleReveal: settlementProgram,
		Solution:     protocol.Program(solution),
	})
	return out, nil
}
