package offer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/greenfloor/offerkit/clvm"
	"github.com/greenfloor/offerkit/protocol"
)

func TestNotarizedPaymentRoundTrip(t *testing.T) {
	fixtures := []struct {
		name string
		np   NotarizedPayment
	}{
		{
			name: "single payment",
			np:   testNotarizedPayment(),
		},
		{
			name: "multiple payments",
			np: NotarizedPayment{
				Nonce: fill32(0x33),
				Payments: []Payment{
					{PuzzleHash: fill32(0x44), Amount: 1},
					{PuzzleHash: fill32(0x55), Amount: 0xffffffffffffffff},
				},
			},
		},
		{
			name: "with memos",
			np: NotarizedPayment{
				Nonce: fill32(0x66),
				Payments: []Payment{
					{
						PuzzleHash: fill32(0x77),
						Amount:     42,
						Memos:      [][]byte{[]byte("hint"), {0x01, 0x02}},
					},
				},
			},
		},
		{
			name: "no payments",
			np:   NotarizedPayment{Nonce: fill32(0x88)},
		},
	}
	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			a := clvm.New()
			buf := a.Serialize(f.np.node(a))

			b := clvm.New()
			root, err := b.ParseAll(buf)
			require.NoError(t, err)
			got, err := parseNotarizedPayment(b, root)
			require.NoError(t, err)
			require.Equal(t, f.np, got)
		})
	}
}

func TestParseNotarizedPaymentRejects(t *testing.T) {
	t.Run("short nonce", func(t *testing.T) {
		a := clvm.New()
		r := a.NewPair(a.NewAtom([]byte{0x11}), a.Nil())
		_, err := parseNotarizedPayment(a, r)
		require.Error(t, err)
	})
	t.Run("atom instead of pair", func(t *testing.T) {
		a := clvm.New()
		_, err := parseNotarizedPayment(a, a.NewAtom(fillSlice(0x11)))
		require.Error(t, err)
	})
	t.Run("negative amount", func(t *testing.T) {
		a := clvm.New()
		payment := a.NewList(a.NewAtom(fillSlice(0x22)), a.NewAtom([]byte{0xff}))
		r := a.NewPair(a.NewAtom(fillSlice(0x11)), a.NewList(payment))
		_, err := parseNotarizedPayment(a, r)
		require.Error(t, err)
	})
	t.Run("payment with too many items", func(t *testing.T) {
		a := clvm.New()
		payment := a.NewList(
			a.NewAtom(fillSlice(0x22)), a.NewInt(1), a.Nil(), a.Nil())
		r := a.NewPair(a.NewAtom(fillSlice(0x11)), a.NewList(payment))
		_, err := parseNotarizedPayment(a, r)
		require.Error(t, err)
	})
}

func TestRequestNonce(t *testing.T) {
	ids := []protocol.Bytes32{fill32(0x01), fill32(0x02), fill32(0x03)}

	t.Run("order independent", func(t *testing.T) {
		shuffled := []protocol.Bytes32{ids[2], ids[0], ids[1]}
		require.Equal(t, RequestNonce(ids), RequestNonce(shuffled))
	})
	t.Run("input unchanged", func(t *testing.T) {
		in := []protocol.Bytes32{ids[2], ids[0]}
		RequestNonce(in)
		require.Equal(t, []protocol.Bytes32{ids[2], ids[0]}, in)
	})
	t.Run("different sets differ", func(t *testing.T) {
		require.NotEqual(t, RequestNonce(ids), RequestNonce(ids[:2]))
	})
}
