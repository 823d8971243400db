// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the simulator's external configuration surface:
// validator counts, timing/threshold parameters, and the lottery success
// probabilities, per spec.md §6.
package config

// Parameters contains the simulation configuration consumed by the core.
type Parameters struct {
	// N is the total number of validators; F is the number of crash-faulty
	// validators, taken as the first F validator IDs.
	N int
	F int

	// THorizon is the number of simulated slots. The round horizon is
	// r ∈ [4, 4+4·THorizon) plus four bootstrap rounds.
	THorizon int

	// ConfirmSlowKappa (κ) is the slow-confirmation depth.
	ConfirmSlowKappa int

	// ConfirmFastEps (ε) is the fast-confirmation quorum slack.
	ConfirmFastEps float64

	// ProbabilityLotteryBlock and ProbabilityLotteryVote are per-slot
	// success probabilities for the block and vote lotteries, converted to
	// 64-bit thresholds via lottery.ProbabilityToThreshold.
	ProbabilityLotteryBlock float64
	ProbabilityLotteryVote  float64

	// VerifySignatures toggles real signature/VRF verification versus the
	// always-valid fast path used for large simulation runs.
	VerifySignatures bool
}

// Default returns a small deployment suitable for unit tests and quick
// local runs.
func Default() Parameters {
	return Parameters{
		N:                       4,
		F:                       1,
		THorizon:                16,
		ConfirmSlowKappa:        4,
		ConfirmFastEps:          0.1,
		ProbabilityLotteryBlock: 0.3,
		ProbabilityLotteryVote:  0.9,
		VerifySignatures:        true,
	}
}

// Local returns a single-validator, verification-disabled configuration
// suited to fast iteration and to the "single validator, two slots" scenario.
func Local() Parameters {
	return Parameters{
		N:                       1,
		F:                       0,
		THorizon:                2,
		ConfirmSlowKappa:        4,
		ConfirmFastEps:          0.1,
		ProbabilityLotteryBlock: 1,
		ProbabilityLotteryVote:  1,
		VerifySignatures:        false,
	}
}

// Stress returns a larger configuration intended for driver load-testing:
// many validators, a long horizon, and verification enabled.
func Stress() Parameters {
	return Parameters{
		N:                       64,
		F:                       15,
		THorizon:                256,
		ConfirmSlowKappa:        8,
		ConfirmFastEps:          0.1,
		ProbabilityLotteryBlock: 0.05,
		ProbabilityLotteryVote:  0.4,
		VerifySignatures:        true,
	}
}

// RoundHorizon returns the exclusive upper bound on round numbers for a
// simulation with the given slot horizon: four bootstrap rounds plus four
// rounds per simulated slot.
func (p Parameters) RoundHorizon() int64 {
	return 4 + 4*int64(p.THorizon)
}

// MinVotes returns the fast-confirmation quorum size ceil(n·(0.75+0.5·ε)·p_v)
// for n participating validators, per spec.md §3's fast-confirm step.
func (p Parameters) MinVotes(n int) int64 {
	thr := float64(n) * (0.75 + 0.5*p.ConfirmFastEps) * p.ProbabilityLotteryVote
	min := int64(thr)
	if float64(min) < thr {
		min++
	}
	return min
}
