// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vrf abstracts the verifiable random function the block and vote
// lotteries draw from. Per the Rust original (vrf.rs), the concrete
// construction is a signature scheme followed by hashing the signature to
// derive the output y — this package wires that construction on top of
// crypto/sig rather than re-deriving its own key material.
package vrf

import (
	"github.com/goldfishsim/goldfish/crypto/sig"
	"github.com/goldfishsim/goldfish/hash"
)

type (
	PublicKey  = sig.PublicKey
	PrivateKey = sig.PrivateKey
	// Proof is the VRF proof accompanying an output; for the
	// signature-derived construction this is the underlying signature.
	Proof = sig.Signature
)

// Scheme is the abstract VRF interface: Eval produces (y, proof) for an
// input x; Verify checks that y and proof were derived correctly from x
// under pk.
type Scheme interface {
	Gen() (PrivateKey, PublicKey, error)
	Eval(sk PrivateKey, x []byte) (y uint64, proof Proof)
	Verify(pk PublicKey, x []byte, y uint64, proof Proof) bool
}

// DefaultFactory constructs the scheme used when none is specified.
var DefaultFactory = func() Scheme { return NewSigDerivedScheme(sig.New()) }

// New returns the default configured scheme, derived from crypto/sig's
// default signature scheme.
func New() Scheme { return DefaultFactory() }

// SigDerivedScheme implements a VRF atop any signature Scheme: evaluation
// signs x and extracts the output from a hash of the signature bytes;
// verification recomputes that hash and checks the signature itself.
type SigDerivedScheme struct {
	sigs sig.Scheme
}

// NewSigDerivedScheme wraps a signature Scheme as a VRF.
func NewSigDerivedScheme(s sig.Scheme) *SigDerivedScheme {
	return &SigDerivedScheme{sigs: s}
}

func (s *SigDerivedScheme) Gen() (PrivateKey, PublicKey, error) { return s.sigs.Gen() }

func (s *SigDerivedScheme) Eval(sk PrivateKey, x []byte) (uint64, Proof) {
	sigma := s.sigs.Sign(sk, x)
	y := hash.Sum(sigma).ExtractFirstU64()
	return y, Proof(sigma)
}

func (s *SigDerivedScheme) Verify(pk PublicKey, x []byte, y uint64, proof Proof) bool {
	expectY := hash.Sum(proof).ExtractFirstU64()
	return y == expectY && s.sigs.Verify(pk, x, sig.Signature(proof))
}
