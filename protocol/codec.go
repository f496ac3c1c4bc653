package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/greenfloor/offerkit/bls"
	"github.com/greenfloor/offerkit/clvm"
	offererrors "github.com/greenfloor/offerkit/errors"
)

// maxCoinSpends bounds the declared spend count before allocating, so a
// corrupted length prefix cannot trigger a huge allocation.
const maxCoinSpends = 1 << 20

// minCoinSpendSize is the smallest serialized coin spend: two 32-byte
// hashes, a u64 amount, and one byte each for reveal and solution.
const minCoinSpendSize = 32 + 32 + 8 + 1 + 1

// Bytes returns the canonical serialization of the bundle: a big-endian
// spend count, each coin spend, then the aggregated signature.
func (b SpendBundle) Bytes() []byte {
	out := binary.BigEndian.AppendUint32(nil, uint32(len(b.CoinSpends)))
	for _, cs := range b.CoinSpends {
		out = append(out, cs.Coin.ParentCoinInfo[:]...)
		out = append(out, cs.Coin.PuzzleHash[:]...)
		out = binary.BigEndian.AppendUint64(out, cs.Coin.Amount)
		out = append(out, cs.PuzzleReveal...)
		out = append(out, cs.Solution...)
	}
	return append(out, b.AggregatedSignature[:]...)
}

// SpendBundleFromBytes decodes a canonically serialized bundle. Decoding
// either fully succeeds or fails with an encoding error; trailing bytes are
// rejected.
func SpendBundleFromBytes(buf []byte) (SpendBundle, error) {
	r := reader{buf: buf}
	count, err := r.uint32()
	if err != nil {
		return SpendBundle{}, offererrors.Encoding.Wrap(err)
	}
	if count > maxCoinSpends {
		return SpendBundle{}, offererrors.Encoding.New("implausible spend count %d", count)
	}
	if int(count) > len(buf)/minCoinSpendSize {
		return SpendBundle{}, offererrors.Encoding.New(
			"spend count %d cannot fit in %d bytes", count, len(buf))
	}
	bundle := SpendBundle{CoinSpends: make([]CoinSpend, 0, count)}
	for i := uint32(0); i < count; i++ {
		cs, err := r.coinSpend()
		if err != nil {
			return SpendBundle{}, offererrors.Encoding.Wrap(
				fmt.Errorf("coin spend %d: %w", i, err))
		}
		bundle.CoinSpends = append(bundle.CoinSpends, cs)
	}
	sig, err := r.take(bls.SignatureSize)
	if err != nil {
		return SpendBundle{}, offererrors.Encoding.Wrap(fmt.Errorf("aggregated signature: %w", err))
	}
	copy(bundle.AggregatedSignature[:], sig)
	if r.pos != len(buf) {
		return SpendBundle{}, offererrors.Encoding.New(
			"%d trailing bytes after bundle", len(buf)-r.pos)
	}
	return bundle, nil
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) take(n int) ([]byte, error) {
	if len(r.buf)-r.pos < n {
		return nil, fmt.Errorf("unexpected end of input: want %d bytes, have %d", n, len(r.buf)-r.pos)
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *reader) uint32() (uint32, error) {
	buf, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf), nil
}

func (r *reader) uint64() (uint64, error) {
	buf, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf), nil
}

func (r *reader) bytes32() (Bytes32, error) {
	buf, err := r.take(32)
	if err != nil {
		return Bytes32{}, err
	}
	var out Bytes32
	copy(out[:], buf)
	return out, nil
}

func (r *reader) program() (Program, error) {
	n, err := clvm.SerializedLen(r.buf[r.pos:])
	if err != nil {
		return nil, err
	}
	out, err := r.take(n)
	if err != nil {
		return nil, err
	}
	return Program(append([]byte(nil), out...)), nil
}

func (r *reader) coinSpend() (CoinSpend, error) {
	var cs CoinSpend
	var err error
	if cs.Coin.ParentCoinInfo, err = r.bytes32(); err != nil {
		return cs, fmt.Errorf("parent coin info: %w", err)
	}
	if cs.Coin.PuzzleHash, err = r.bytes32(); err != nil {
		return cs, fmt.Errorf("puzzle hash: %w", err)
	}
	if cs.Coin.Amount, err = r.uint64(); err != nil {
		return cs, fmt.Errorf("amount: %w", err)
	}
	if cs.PuzzleReveal, err = r.program(); err != nil {
		return cs, fmt.Errorf("puzzle reveal: %w", err)
	}
	if cs.Solution, err = r.program(); err != nil {
		return cs, fmt.Errorf("solution: %w", err)
	}
	return cs, nil
}
