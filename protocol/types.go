// Package protocol defines the canonical ledger value objects of the offer
// core and their deterministic binary codec.
package protocol

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"

	"github.com/greenfloor/offerkit/bls"
	"github.com/greenfloor/offerkit/clvm"
	offererrors "github.com/greenfloor/offerkit/errors"
)

// Bytes32 is the 32-byte identifier used for coin ids, puzzle hashes, asset
// ids and payment nonces.
type Bytes32 [32]byte

// Bytes32FromSlice copies buf into a Bytes32. Any length other than 32 is a
// length error.
func Bytes32FromSlice(buf []byte) (Bytes32, error) {
	if len(buf) != 32 {
		return Bytes32{}, offererrors.Length.New("identifier must be 32 bytes, got %d", len(buf))
	}
	var out Bytes32
	copy(out[:], buf)
	return out, nil
}

// Bytes32FromHex decodes a 64-character hex string.
func Bytes32FromHex(s string) (Bytes32, error) {
	buf, err := hex.DecodeString(s)
	if err != nil {
		return Bytes32{}, offererrors.Encoding.Wrap(err)
	}
	return Bytes32FromSlice(buf)
}

func (b Bytes32) String() string {
	return hex.EncodeToString(b[:])
}

// Program is a serialized CLVM object. The codec carries programs as the
// raw serialization and delimits them by scanning the CLVM structure.
type Program []byte

// Coin is one unspent ledger entry.
type Coin struct {
	ParentCoinInfo Bytes32
	PuzzleHash     Bytes32
	Amount         uint64
}

// ID returns the coin id: sha256 of parent id, puzzle hash and the minimal
// signed big-endian encoding of the amount.
func (c Coin) ID() Bytes32 {
	a := clvm.New()
	amount, _ := a.Atom(a.NewInt(c.Amount))
	h := sha256.New()
	h.Write(c.ParentCoinInfo[:])
	h.Write(c.PuzzleHash[:])
	h.Write(amount)
	var out Bytes32
	h.Sum(out[:0])
	return out
}

// CoinSpend is one unit of ledger-state transition.
type CoinSpend struct {
	Coin         Coin
	PuzzleReveal Program
	Solution     Program
}

// SpendBundle is a batch of coin spends plus the aggregated signature
// authorizing them as a unit.
type SpendBundle struct {
	CoinSpends          []CoinSpend
	AggregatedSignature bls.Signature
}

// Equal reports deep equality of two bundles.
func (b SpendBundle) Equal(other SpendBundle) bool {
	if b.AggregatedSignature != other.AggregatedSignature {
		return false
	}
	if len(b.CoinSpends) != len(other.CoinSpends) {
		return false
	}
	for i, cs := range b.CoinSpends {
		o := other.CoinSpends[i]
		if cs.Coin != o.Coin ||
			!bytes.Equal(cs.PuzzleReveal, o.PuzzleReveal) ||
			!bytes.Equal(cs.Solution, o.Solution) {
			return false
		}
	}
	return true
}
