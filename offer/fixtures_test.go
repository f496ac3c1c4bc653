package offer

import (
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/stretchr/testify/require"

	"github.com/greenfloor/offerkit/bls"
	"github.com/greenfloor/offerkit/clvm"
	"github.com/greenfloor/offerkit/protocol"
)

func fill32(b byte) protocol.Bytes32 {
	var out protocol.Bytes32
	for i := range out {
		out[i] = b
	}
	return out
}

func fillSlice(b byte) []byte {
	v := fill32(b)
	return v[:]
}

func testNotarizedPayment() NotarizedPayment {
	return NotarizedPayment{
		Nonce:    fill32(0x11),
		Payments: []Payment{{PuzzleHash: fill32(0x22), Amount: 500}},
	}
}

// nativeAnnouncementSpend builds the phantom settlement spend announcing the
// given notarized payments for the native asset.
func nativeAnnouncementSpend(nps []NotarizedPayment) protocol.CoinSpend {
	a := clvm.New()
	solution := a.Serialize(settlementSolution(a, nps))
	return protocol.CoinSpend{
		Coin: protocol.Coin{
			ParentCoinInfo: zeroParent,
			PuzzleHash:     SettlementPuzzleHash,
			Amount:         0,
		},
		PuzzleReveal: settlementProgram,
		Solution:     protocol.Program(solution),
	}
}

// announcementID computes the puzzle-announcement id an announcer emits for
// one notarized payment.
func announcementID(announcer protocol.Bytes32, np NotarizedPayment) protocol.Bytes32 {
	a := clvm.New()
	npHash := a.TreeHash(np.node(a))
	h := sha256.New()
	h.Write(announcer[:])
	h.Write(npHash[:])
	var id protocol.Bytes32
	h.Sum(id[:0])
	return id
}

// quotedPuzzle serializes (q . conditions) for the conditions built by f.
func quotedPuzzle(f func(a *clvm.Arena) []clvm.NodeRef) protocol.Program {
	a := clvm.New()
	conds := a.NewList(f(a)...)
	return protocol.Program(a.Serialize(a.NewPair(a.NewAtom([]byte{0x01}), conds)))
}

func puzzleHashOf(t *testing.T, p protocol.Program) protocol.Bytes32 {
	t.Helper()
	a := clvm.New()
	root, err := a.ParseAll([]byte(p))
	require.NoError(t, err)
	return protocol.Bytes32(a.TreeHash(root))
}

// signedMakerBundle builds a minimal sound offer on the given network: one
// signed spend whose quoted conditions demand a signature bound to the coin
// and assert the announcement of one requested payment, plus the phantom
// settlement spend announcing it.
func signedMakerBundle(t *testing.T, network Network) protocol.SpendBundle {
	t.Helper()
	np := testNotarizedPayment()
	ann := nativeAnnouncementSpend([]NotarizedPayment{np})
	id := announcementID(SettlementPuzzleHash, np)

	sk := bls.KeyGen([]byte("maker fixture"))
	pk := sk.PublicKey()
	puzzle := quotedPuzzle(func(a *clvm.Arena) []clvm.NodeRef {
		return []clvm.NodeRef{
			a.NewList(a.NewInt(condAggSigMe), a.NewAtom(pk[:]), a.NewAtom([]byte("taken"))),
			a.NewList(a.NewInt(condAssertPuzzleAnnouncement), a.NewAtom(id[:])),
		}
	})
	coin := protocol.Coin{
		ParentCoinInfo: fill32(0xaa),
		PuzzleHash:     puzzleHashOf(t, puzzle),
		Amount:         1000,
	}
	coinID := coin.ID()
	msg := append([]byte("taken"), coinID[:]...)
	msg = append(msg, network.AggSigData[:]...)
	sig, err := sk.Sign(msg)
	require.NoError(t, err)

	return protocol.SpendBundle{
		CoinSpends: []protocol.CoinSpend{
			{Coin: coin, PuzzleReveal: puzzle, Solution: protocol.Program{0x80}},
			ann,
		},
		AggregatedSignature: sig,
	}
}

func mustEncodeOffer(t *testing.T, bundle protocol.SpendBundle) string {
	t.Helper()
	s, err := EncodeOffer(bundle)
	require.NoError(t, err)
	return s
}

// rawEnvelope wraps an already serialized payload in the bech32m envelope
// without compressing it.
func rawEnvelope(t *testing.T, hrp string, payload []byte) string {
	t.Helper()
	grp, err := bech32.ConvertBits(payload, 8, 5, true)
	require.NoError(t, err)
	s, err := bech32.EncodeM(hrp, grp)
	require.NoError(t, err)
	return s
}
