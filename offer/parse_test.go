package offer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/greenfloor/offerkit/bls"
	"github.com/greenfloor/offerkit/clvm"
	offererrors "github.com/greenfloor/offerkit/errors"
	"github.com/greenfloor/offerkit/protocol"
)

func TestParseNativeAnnouncement(t *testing.T) {
	np := testNotarizedPayment()
	offered := protocol.CoinSpend{
		Coin: protocol.Coin{
			ParentCoinInfo: fill32(0xaa),
			PuzzleHash:     fill32(0xbb),
			Amount:         1000,
		},
		PuzzleReveal: protocol.Program{0x80},
		Solution:     protocol.Program{0x80},
	}
	bundle := protocol.SpendBundle{
		CoinSpends:          []protocol.CoinSpend{offered, nativeAnnouncementSpend([]NotarizedPayment{np})},
		AggregatedSignature: bls.IdentitySignature(),
	}

	view, err := Parse(bundle)
	require.NoError(t, err)
	require.Equal(t, []NotarizedPayment{np}, view.Requested.Xch)
	require.Empty(t, view.Requested.Cats)
	require.Len(t, view.OfferedSpends, 1)
	require.Equal(t, offered.Coin, view.OfferedSpends[0].Coin)
	require.Equal(t, []protocol.Bytes32{announcementID(SettlementPuzzleHash, np)}, view.Announcements)
}

func TestParseNoAnnouncements(t *testing.T) {
	bundle := protocol.SpendBundle{
		CoinSpends: []protocol.CoinSpend{{
			Coin: protocol.Coin{
				ParentCoinInfo: fill32(0xaa),
				PuzzleHash:     fill32(0xbb),
				Amount:         1,
			},
			PuzzleReveal: protocol.Program{0x80},
			Solution:     protocol.Program{0x80},
		}},
		AggregatedSignature: bls.IdentitySignature(),
	}
	view, err := Parse(bundle)
	require.NoError(t, err)
	require.True(t, view.Requested.IsEmpty())
	require.Len(t, view.OfferedSpends, 1)
}

func TestParseRejects(t *testing.T) {
	np := testNotarizedPayment()

	t.Run("conflicting native announcements", func(t *testing.T) {
		bundle := protocol.SpendBundle{
			CoinSpends: []protocol.CoinSpend{
				nativeAnnouncementSpend([]NotarizedPayment{np}),
				nativeAnnouncementSpend([]NotarizedPayment{np}),
			},
			AggregatedSignature: bls.IdentitySignature(),
		}
		_, err := Parse(bundle)
		require.Error(t, err)
		require.True(t, offererrors.HasCode(err, offererrors.Structural))
	})
	t.Run("phantom coin with amount", func(t *testing.T) {
		spend := nativeAnnouncementSpend([]NotarizedPayment{np})
		spend.Coin.Amount = 1
		bundle := protocol.SpendBundle{
			CoinSpends:          []protocol.CoinSpend{spend},
			AggregatedSignature: bls.IdentitySignature(),
		}
		_, err := Parse(bundle)
		require.Error(t, err)
		require.True(t, offererrors.HasCode(err, offererrors.Structural))
	})
	t.Run("zero parent with foreign puzzle", func(t *testing.T) {
		bundle := protocol.SpendBundle{
			CoinSpends: []protocol.CoinSpend{{
				Coin:         protocol.Coin{ParentCoinInfo: zeroParent},
				PuzzleReveal: protocol.Program{0x80},
				Solution:     protocol.Program{0x80},
			}},
			AggregatedSignature: bls.IdentitySignature(),
		}
		_, err := Parse(bundle)
		require.Error(t, err)
		require.True(t, offererrors.HasCode(err, offererrors.Structural))
	})
	t.Run("malformed announcement solution", func(t *testing.T) {
		spend := nativeAnnouncementSpend([]NotarizedPayment{np})
		spend.Solution = protocol.Program{0x01}
		bundle := protocol.SpendBundle{
			CoinSpends:          []protocol.CoinSpend{spend},
			AggregatedSignature: bls.IdentitySignature(),
		}
		_, err := Parse(bundle)
		require.Error(t, err)
		require.True(t, offererrors.HasCode(err, offererrors.Structural))
	})
}

// tokenFixture fabricates a token outer layer and points catModHash at it
// for the duration of the test, since the real outer program is recognized
// by hash only.
type tokenFixture struct {
	oldHash protocol.Bytes32
}

func newTokenFixture(t *testing.T) *tokenFixture {
	t.Helper()
	f := &tokenFixture{oldHash: catModHash}
	a := clvm.New()
	mod := a.NewList(a.NewInt(2), a.NewInt(5), a.NewInt(11))
	catModHash = protocol.Bytes32(a.TreeHash(mod))
	t.Cleanup(func() { catModHash = f.oldHash })
	return f
}

func (f *tokenFixture) announcementSpend(t *testing.T, assetID protocol.Bytes32, nps []NotarizedPayment) protocol.CoinSpend {
	t.Helper()
	a := clvm.New()
	mod := a.NewList(a.NewInt(2), a.NewInt(5), a.NewInt(11))
	settlement, err := a.ParseAll([]byte(settlementProgram))
	require.NoError(t, err)
	puzzle := a.Curry(mod, a.NewAtom(catModHash[:]), a.NewAtom(assetID[:]), settlement)
	return protocol.CoinSpend{
		Coin: protocol.Coin{
			ParentCoinInfo: zeroParent,
			PuzzleHash:     protocol.Bytes32(a.TreeHash(puzzle)),
			Amount:         0,
		},
		PuzzleReveal: protocol.Program(a.Serialize(puzzle)),
		Solution:     protocol.Program(a.Serialize(settlementSolution(a, nps))),
	}
}

func TestParseTokenAnnouncement(t *testing.T) {
	f := newTokenFixture(t)
	np := testNotarizedPayment()
	assetID := fill32(0xcc)
	spend := f.announcementSpend(t, assetID, []NotarizedPayment{np})
	bundle := protocol.SpendBundle{
		CoinSpends:          []protocol.CoinSpend{spend},
		AggregatedSignature: bls.IdentitySignature(),
	}

	view, err := Parse(bundle)
	require.NoError(t, err)
	require.Empty(t, view.Requested.Xch)
	require.Len(t, view.Requested.Cats, 1)
	require.Equal(t, assetID, view.Requested.Cats[0].AssetID)
	require.Equal(t, []NotarizedPayment{np}, view.Requested.Cats[0].Payments)
	require.Equal(t, []protocol.Bytes32{announcementID(spend.Coin.PuzzleHash, np)}, view.Announcements)
}

func TestParseTokenAnnouncementRejects(t *testing.T) {
	f := newTokenFixture(t)
	np := testNotarizedPayment()

	t.Run("conflicting asset announcements", func(t *testing.T) {
		spend := f.announcementSpend(t, fill32(0xcc), []NotarizedPayment{np})
		bundle := protocol.SpendBundle{
			CoinSpends:          []protocol.CoinSpend{spend, spend},
			AggregatedSignature: bls.IdentitySignature(),
		}
		_, err := Parse(bundle)
		require.Error(t, err)
		require.True(t, offererrors.HasCode(err, offererrors.Structural))
	})
	t.Run("distinct assets allowed", func(t *testing.T) {
		bundle := protocol.SpendBundle{
			CoinSpends: []protocol.CoinSpend{
				f.announcementSpend(t, fill32(0xcc), []NotarizedPayment{np}),
				f.announcementSpend(t, fill32(0xdd), []NotarizedPayment{np}),
			},
			AggregatedSignature: bls.IdentitySignature(),
		}
		view, err := Parse(bundle)
		require.NoError(t, err)
		require.Len(t, view.Requested.Cats, 2)
	})
	t.Run("inner puzzle not the settlement program", func(t *testing.T) {
		a := clvm.New()
		mod := a.NewList(a.NewInt(2), a.NewInt(5), a.NewInt(11))
		puzzle := a.Curry(mod,
			a.NewAtom(catModHash[:]), a.NewAtom(fillSlice(0xcc)), a.NewInt(1))
		bundle := protocol.SpendBundle{
			CoinSpends: []protocol.CoinSpend{{
				Coin:         protocol.Coin{ParentCoinInfo: zeroParent},
				PuzzleReveal: protocol.Program(a.Serialize(puzzle)),
				Solution:     protocol.Program{0x80},
			}},
			AggregatedSignature: bls.IdentitySignature(),
		}
		_, err := Parse(bundle)
		require.Error(t, err)
		require.True(t, offererrors.HasCode(err, offererrors.Structural))
	})
}
