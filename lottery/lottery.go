// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package lottery implements the VRF-based self-selection lottery blocks
// and votes use to determine the slot's proposer(s)/voter(s), grounded on
// the Rust original's lottery.rs VrfLottery.
package lottery

import (
	"math"

	"github.com/goldfishsim/goldfish/crypto/vrf"
)

// Slot is a discrete consensus time unit.
type Slot = int64

// Opening is a VRF output: the priority/test value y and its proof.
type Opening struct {
	Y     uint64
	Proof vrf.Proof
}

// ProbabilityToThreshold converts a target per-slot success probability into
// a 64-bit threshold, saturating near 0 and 1 (spec.md §6: "reals in [0,1]
// converted to 64-bit thresholds via round(p*2^64) with saturation below
// 1e-6 and above 1-1e-6").
func ProbabilityToThreshold(p float64) uint64 {
	switch {
	case p <= 1e-6:
		return 0
	case p >= 1-1e-6:
		return math.MaxUint64
	default:
		return uint64(math.Round(p * math.MaxUint64))
	}
}

// Lottery is parameterized by a domain tag and a threshold derived from a
// target success probability. Lower y is more likely to win and doubles as
// a tie-break priority (prio).
type Lottery struct {
	tag []byte
	thr uint64
	vrf vrf.Scheme
}

// New constructs a Lottery for the given domain tag and success probability,
// using scheme as its VRF backend.
func New(tag string, successProbability float64, scheme vrf.Scheme) *Lottery {
	return &Lottery{
		tag: []byte(tag),
		thr: ProbabilityToThreshold(successProbability),
		vrf: scheme,
	}
}

// NewWithThreshold constructs a Lottery from a precomputed threshold
// (useful for tests that want an exact boundary value).
func NewWithThreshold(tag string, thr uint64, scheme vrf.Scheme) *Lottery {
	return &Lottery{tag: []byte(tag), thr: thr, vrf: scheme}
}

func (l *Lottery) input(slot Slot) []byte {
	x := make([]byte, len(l.tag)+8)
	copy(x, l.tag)
	s := uint64(slot)
	for i := 0; i < 8; i++ {
		x[len(l.tag)+i] = byte(s >> (8 * i))
	}
	return x
}

// Open draws an Opening for (sk, slot).
func (l *Lottery) Open(sk vrf.PrivateKey, slot Slot) Opening {
	y, proof := l.vrf.Eval(sk, l.input(slot))
	return Opening{Y: y, Proof: proof}
}

// IsWinning reports whether rho is a winning opening for (pk, slot) under
// this lottery's threshold, and that it verifies.
func (l *Lottery) IsWinning(pk vrf.PublicKey, slot Slot, rho Opening) bool {
	return rho.Y <= l.thr && l.vrf.Verify(pk, l.input(slot), rho.Y, rho.Proof)
}

// Prio returns the priority of an opening; lower wins tie-breaks (spec.md
// §3: "y doubles as a priority and a lottery test value").
func Prio(rho Opening) uint64 { return rho.Y }

// SuccessProbability returns thr / 2^64.
func (l *Lottery) SuccessProbability() float64 {
	return float64(l.thr) / float64(math.MaxUint64)
}
