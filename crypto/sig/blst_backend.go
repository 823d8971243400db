//go:build blst

// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Real BLS12-381 backend using the supranational/blst library, following
// the MinPk layout (public keys in G1, signatures in G2) the wider pack
// uses for chain-signature verification. Build with -tags blst to replace
// the default MockScheme with real signature verification.
package sig

import (
	"crypto/rand"

	blst "github.com/supranational/blst/bindings/go"
)

// dst is the domain separation tag for the BLS signatures the simulator
// signs blocks, votes and proposals with.
var dst = []byte("GOLDFISH_BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_")

func init() {
	DefaultFactory = func() Scheme { return NewBLSScheme() }
}

// BLSScheme signs with a BLS12-381 secret scalar and verifies with the
// corresponding compressed G1 public key, as in blst's MinPk scheme.
type BLSScheme struct{}

// NewBLSScheme constructs the real BLS-backed Scheme.
func NewBLSScheme() *BLSScheme { return &BLSScheme{} }

// Gen draws 32 bytes of key material and derives an (sk, pk) pair.
func (*BLSScheme) Gen() (PrivateKey, PublicKey, error) {
	ikm := make([]byte, 32)
	if _, err := rand.Read(ikm); err != nil {
		return nil, nil, err
	}
	sk := blst.KeyGen(ikm)
	pk := new(blst.P1Affine).From(sk)
	return PrivateKey(sk.Serialize()), PublicKey(pk.Compress()), nil
}

// Sign produces a compressed G2 signature over m.
func (*BLSScheme) Sign(sk PrivateKey, m []byte) Signature {
	s := new(blst.SecretKey).Deserialize(sk)
	if s == nil {
		return nil
	}
	sig := new(blst.P2Affine).Sign(s, m, dst)
	return Signature(sig.Compress())
}

// Verify checks a compressed G2 signature against a compressed G1 public key.
func (*BLSScheme) Verify(pk PublicKey, m []byte, sigma Signature) bool {
	if len(pk) == 0 || len(sigma) == 0 {
		return false
	}
	p := new(blst.P1Affine).Uncompress(pk)
	if p == nil {
		return false
	}
	s := new(blst.P2Affine).Uncompress(sigma)
	if s == nil {
		return false
	}
	return s.Verify(true, p, true, m, dst)
}
