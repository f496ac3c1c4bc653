package offer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/klauspost/compress/zlib"

	offererrors "github.com/greenfloor/offerkit/errors"
	"github.com/greenfloor/offerkit/protocol"
)

// Bech32m human-readable prefix of offer strings.
const offerHRP = "offer"

// Offer payload compression. The payload starts with a big-endian version
// selecting a preset zlib dictionary; version 0 (impossible as the first
// two bytes of a serialized bundle below 2^16 spends) means uncompressed.
// The dictionary grows cumulatively with the version, seeded with the
// programs this package embeds.
const (
	minCompressionVersion    = 1
	maxCompressionVersion    = 6
	encodeCompressionVersion = maxCompressionVersion

	// maxDecompressedSize caps inflation of a hostile payload.
	maxDecompressedSize = 1 << 23
)

var zdictAdditions = map[uint16]protocol.Program{
	1: standardProgram,
	3: settlementProgram,
}

func zdictForVersion(version uint16) []byte {
	var dict []byte
	for v := uint16(minCompressionVersion); v <= version; v++ {
		dict = append(dict, zdictAdditions[v]...)
	}
	return dict
}

// DecodeOffer unwraps an offer string into the spend bundle it carries: a
// bech32m envelope around an optionally compressed bundle serialization.
func DecodeOffer(offer string) (protocol.SpendBundle, error) {
	hrp, grp, err := bech32.DecodeNoLimit(offer)
	if err != nil {
		return protocol.SpendBundle{}, offererrors.Encoding.Wrap(err)
	}
	if hrp != offerHRP {
		return protocol.SpendBundle{}, offererrors.Encoding.New(
			"unknown prefix %q, want %q", hrp, offerHRP)
	}
	payload, err := bech32.ConvertBits(grp, 5, 8, false)
	if err != nil {
		return protocol.SpendBundle{}, offererrors.Encoding.Wrap(err)
	}
	raw, err := maybeDecompress(payload)
	if err != nil {
		return protocol.SpendBundle{}, err
	}
	return protocol.SpendBundleFromBytes(raw)
}

// EncodeOffer wraps a spend bundle into an offer string, compressing the
// payload with the newest dictionary.
func EncodeOffer(bundle protocol.SpendBundle) (string, error) {
	payload, err := compress(bundle.Bytes(), encodeCompressionVersion)
	if err != nil {
		return "", err
	}
	grp, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", offererrors.Encoding.Wrap(err)
	}
	encoded, err := bech32.EncodeM(offerHRP, grp)
	if err != nil {
		return "", offererrors.Encoding.Wrap(err)
	}
	return encoded, nil
}

func maybeDecompress(payload []byte) ([]byte, error) {
	if len(payload) < 2 {
		return nil, offererrors.Encoding.New("offer payload of %d bytes is too short", len(payload))
	}
	version := binary.BigEndian.Uint16(payload)
	if version < minCompressionVersion {
		// serialized bundles open with a 32-bit spend count whose high
		// half is zero for any sane bundle, so this payload is raw
		return payload, nil
	}
	if version > maxCompressionVersion {
		return nil, offererrors.Encoding.New(
			"unsupported compression version %d, newest known is %d",
			version, maxCompressionVersion)
	}
	r, err := zlib.NewReaderDict(bytes.NewReader(payload[2:]), zdictForVersion(version))
	if err != nil {
		return nil, offererrors.Encoding.Wrap(fmt.Errorf("compression version %d: %w", version, err))
	}
	defer r.Close()
	out, err := io.ReadAll(io.LimitReader(r, maxDecompressedSize+1))
	if err != nil {
		return nil, offererrors.Encoding.Wrap(fmt.Errorf("decompress: %w", err))
	}
	if len(out) > maxDecompressedSize {
		return nil, offererrors.Encoding.New("decompressed payload exceeds %d bytes", maxDecompressedSize)
	}
	return out, nil
}

func compress(raw []byte, version uint16) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(binary.BigEndian.AppendUint16(nil, version))
	w, err := zlib.NewWriterLevelDict(&buf, zlib.BestCompression, zdictForVersion(version))
	if err != nil {
		return nil, offererrors.Encoding.Wrap(err)
	}
	if _, err := w.Write(raw); err != nil {
		return nil, offererrors.Encoding.Wrap(err)
	}
	if err := w.Close(); err != nil {
		return nil, offererrors.Encoding.Wrap(err)
	}
	return buf.Bytes(), nil
}
