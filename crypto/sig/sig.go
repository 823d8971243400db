// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sig abstracts the signature scheme the protocol signs blocks,
// votes and proposals with. Goldfish itself is agnostic to the concrete
// scheme; the validator state machine only needs Sign/Verify/Gen.
package sig

import (
	"crypto/rand"

	"github.com/goldfishsim/goldfish/hash"
)

// PublicKey, PrivateKey and Signature are opaque byte encodings. Concrete
// schemes define their own internal structure and marshal to/from these.
type (
	PublicKey  []byte
	PrivateKey []byte
	Signature  []byte
)

// Scheme is the abstract signature interface. A sentinel zero-value
// Signature is used as the "unsigned draft" placeholder before Sign is
// called on a freshly constructed block or vote (see block.CreateBlock and
// block.CreateVote).
type Scheme interface {
	Gen() (PrivateKey, PublicKey, error)
	Sign(sk PrivateKey, m []byte) Signature
	Verify(pk PublicKey, m []byte, sigma Signature) bool
}

// DefaultFactory constructs the scheme used when none is specified. It
// defaults to the pure-Go MockScheme; building with the "blst" tag swaps
// this for the real BLS12-381 backend (see blst_backend.go).
var DefaultFactory = func() Scheme { return NewMockScheme() }

// New returns the default configured scheme.
func New() Scheme { return DefaultFactory() }

// MockScheme is a deterministic, dependency-free scheme: signing hashes the
// message together with the secret key, and verification recomputes the
// same hash. It is not cryptographically secure, but it exercises the same
// Sign/Verify contract real schemes do and is the default for fast, large
// N simulations, matching the Rust original's sig::MockScheme.
type MockScheme struct{}

// NewMockScheme constructs a MockScheme.
func NewMockScheme() *MockScheme { return &MockScheme{} }

// Gen generates a fresh keypair. The secret key is random bytes; the public
// key is whatever Sign's digest needs to reproduce, which for this scheme is
// the secret key itself (verification recomputes the signature and compares).
func (*MockScheme) Gen() (PrivateKey, PublicKey, error) {
	sk := make([]byte, 32)
	if _, err := rand.Read(sk); err != nil {
		return nil, nil, err
	}
	pk := make([]byte, len(sk))
	copy(pk, sk)
	return PrivateKey(sk), PublicKey(pk), nil
}

// Sign returns hash(m || sk) as the signature.
func (*MockScheme) Sign(sk PrivateKey, m []byte) Signature {
	var h hash.Hasher
	h.Update(m)
	h.Update(sk)
	digest := h.Sum()
	return Signature(digest.Bytes())
}

// Verify recomputes the expected signature using pk as the secret key
// material (Gen sets pk == sk for this scheme) and compares.
func (s *MockScheme) Verify(pk PublicKey, m []byte, sigma Signature) bool {
	expect := s.Sign(PrivateKey(pk), m)
	if len(expect) != len(sigma) {
		return false
	}
	for i := range expect {
		if expect[i] != sigma[i] {
			return false
		}
	}
	return true
}
