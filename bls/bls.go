// Package bls implements the BLS12-381 aggregate signature scheme used to
// authorize spend bundles: minimal-pubkey-size with message augmentation
// (public keys in G1, signatures in G2).
package bls

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// Domain separation tag of the augmented scheme.
var dst = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_AUG_")

const (
	// PublicKeySize is the compressed G1 point size.
	PublicKeySize = 48
	// SignatureSize is the compressed G2 point size.
	SignatureSize = 96
)

// PublicKey is a compressed G1 point.
type PublicKey [PublicKeySize]byte

// Signature is a compressed G2 point.
type Signature [SignatureSize]byte

// IdentitySignature returns the point at infinity, the aggregate of zero
// signatures.
func IdentitySignature() Signature {
	var s Signature
	s[0] = 0xc0
	return s
}

// IsIdentity reports whether s is the point at infinity.
func (s Signature) IsIdentity() bool {
	return s == IdentitySignature()
}

func (pk PublicKey) point() (bls12381.G1Affine, error) {
	var p bls12381.G1Affine
	if _, err := p.SetBytes(pk[:]); err != nil {
		return p, fmt.Errorf("invalid public key: %w", err)
	}
	return p, nil
}

func (s Signature) point() (bls12381.G2Affine, error) {
	var p bls12381.G2Affine
	if _, err := p.SetBytes(s[:]); err != nil {
		return p, fmt.Errorf("invalid signature: %w", err)
	}
	return p, nil
}

// AggregateVerify checks sig against the given (key, message) pairs under
// the augmented scheme: each message is hashed to G2 together with its
// public key. With no pairs only the identity signature verifies.
func AggregateVerify(keys []PublicKey, messages [][]byte, sig Signature) (bool, error) {
	if len(keys) != len(messages) {
		return false, fmt.Errorf("got %d keys for %d messages", len(keys), len(messages))
	}
	sp, err := sig.point()
	if err != nil {
		return false, err
	}
	if len(keys) == 0 {
		return sp.IsInfinity(), nil
	}
	g1 := make([]bls12381.G1Affine, 0, len(keys)+1)
	g2 := make([]bls12381.G2Affine, 0, len(keys)+1)
	for i, key := range keys {
		p, err := key.point()
		if err != nil {
			return false, err
		}
		h, err := bls12381.HashToG2(augment(key, messages[i]), dst)
		if err != nil {
			return false, fmt.Errorf("hash to curve: %w", err)
		}
		g1 = append(g1, p)
		g2 = append(g2, h)
	}
	_, _, g1Gen, _ := bls12381.Generators()
	var negGen bls12381.G1Affine
	negGen.Neg(&g1Gen)
	g1 = append(g1, negGen)
	g2 = append(g2, sp)
	ok, err := bls12381.PairingCheck(g1, g2)
	if err != nil {
		return false, fmt.Errorf("pairing check: %w", err)
	}
	return ok, nil
}

// AggregateSignatures sums the given signatures. The empty aggregate is the
// identity signature.
func AggregateSignatures(sigs ...Signature) (Signature, error) {
	var acc bls12381.G2Affine
	for _, s := range sigs {
		p, err := s.point()
		if err != nil {
			return Signature{}, err
		}
		acc.Add(&acc, &p)
	}
	if acc.IsInfinity() {
		return IdentitySignature(), nil
	}
	return Signature(acc.Bytes()), nil
}

func augment(key PublicKey, msg []byte) []byte {
	buf := make([]byte, 0, len(key)+len(msg))
	buf = append(buf, key[:]...)
	return append(buf, msg...)
}

// SecretKey is a scalar of the BLS12-381 scalar field.
type SecretKey struct {
	s fr.Element
}

// KeyGen derives a secret key from seed. The seed is hashed to a field
// element; it is the caller's job to supply enough entropy.
func KeyGen(seed []byte) SecretKey {
	sum := sha256.Sum256(seed)
	var sk SecretKey
	sk.s.SetBytes(sum[:])
	return sk
}

// PublicKey returns the G1 point of the secret key.
func (sk SecretKey) PublicKey() PublicKey {
	var bi big.Int
	sk.s.BigInt(&bi)
	_, _, g1Gen, _ := bls12381.Generators()
	var p bls12381.G1Affine
	p.ScalarMultiplication(&g1Gen, &bi)
	return PublicKey(p.Bytes())
}

// Sign produces an augmented-scheme signature over msg.
func (sk SecretKey) Sign(msg []byte) (Signature, error) {
	pk := sk.PublicKey()
	h, err := bls12381.HashToG2(augment(pk, msg), dst)
	if err != nil {
		return Signature{}, fmt.Errorf("hash to curve: %w", err)
	}
	var bi big.Int
	sk.s.BigInt(&bi)
	var p bls12381.G2Affine
	p.ScalarMultiplication(&h, &bi)
	return Signature(p.Bytes()), nil
}
