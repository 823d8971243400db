// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package schedule builds per-validator participation schedules: which
// rounds each validator is awake versus asleep, consumed by sleepy.Validator.
// Ported from main.rs's schedule builders; only the shape of the output
// (one []sleepy.ScheduleStatus per validator, covering every round of the
// simulation) is load-bearing, not the exact randomized construction.
package schedule

import (
	"math"

	"github.com/goldfishsim/goldfish/sleepy"
	"github.com/goldfishsim/goldfish/utils/sampler"
)

// warmupRounds is the fixed number of always-awake rounds (one full slot)
// every schedule starts with, matching main.rs's `[Awake; 4]` prefix.
const warmupRounds = 4

// FullParticipation returns n schedules, each awake for every round.
func FullParticipation(n, rounds int) [][]sleepy.ScheduleStatus {
	out := make([][]sleepy.ScheduleStatus, n)
	for i := range out {
		s := make([]sleepy.ScheduleStatus, rounds)
		for r := range s {
			s[r] = sleepy.ScheduleAwake
		}
		out[i] = s
	}
	return out
}

// SimpleAlternating warms up for fractionWarmup of the horizon, then cycles
// through periods repetitions of a high/low participation split: for
// fractionLowParticipation of each period, a (1-lowParticipation) fraction
// of validators (chosen once, up front) sleep.
func SimpleAlternating(n, rounds int, fractionWarmup, fractionLowParticipation float64, periods int, lowParticipation float64, rng sampler.Uniform) [][]sleepy.ScheduleStatus {
	nonSleepyCount := int(math.Ceil(lowParticipation * float64(n)))
	if nonSleepyCount > n {
		nonSleepyCount = n
	}
	nonSleepy := choose(rng, n, nonSleepyCount)

	pattern := make([]sleepy.ScheduleStatus, rounds)
	for r := warmupRounds; r < rounds; r++ {
		progression := float64(r-warmupRounds) / float64(rounds)
		if progression < fractionWarmup {
			pattern[r] = sleepy.ScheduleAwake
			continue
		}
		progression = (progression - fractionWarmup) / (1 - fractionWarmup)
		period := int(progression * float64(periods))
		inPeriod := (progression - float64(period)/float64(periods)) * float64(periods)
		if inPeriod < fractionLowParticipation {
			pattern[r] = sleepy.ScheduleAsleep
		} else {
			pattern[r] = sleepy.ScheduleAwake
		}
	}
	for r := 0; r < warmupRounds; r++ {
		pattern[r] = sleepy.ScheduleAwake
	}

	out := make([][]sleepy.ScheduleStatus, n)
	for id := 0; id < n; id++ {
		s := make([]sleepy.ScheduleStatus, rounds)
		if nonSleepy[id] {
			for r := range s {
				s[r] = sleepy.ScheduleAwake
			}
		} else {
			copy(s, pattern)
		}
		out[id] = s
	}
	return out
}

// choose returns a boolean membership mask of size n with exactly k
// (deterministically sampled) members set true.
func choose(rng sampler.Uniform, n, k int) []bool {
	out := make([]bool, n)
	if k <= 0 {
		return out
	}
	if err := rng.Initialize(n); err != nil {
		return out
	}
	idx, ok := rng.Sample(k)
	if !ok {
		return out
	}
	for _, i := range idx {
		out[i] = true
	}
	return out
}

// awakeCountSchedule builds n schedules from a target-awake-count-per-round
// function: at every round the target number of awake validators is held as
// stable a membership as possible, matching
// instantiate_validators_with_awake_count_schedule_fn's "move only as many
// parties as needed" policy, using rng to pick who moves.
func awakeCountSchedule(n, rounds int, rng sampler.Uniform, targetCount func(r int) int) [][]sleepy.ScheduleStatus {
	out := make([][]sleepy.ScheduleStatus, n)
	for i := range out {
		out[i] = make([]sleepy.ScheduleStatus, rounds)
		for r := 0; r < warmupRounds && r < rounds; r++ {
			out[i][r] = sleepy.ScheduleAwake
		}
	}
	if n == 0 {
		return out
	}

	// the last validator is always awake, matching the original's reserved
	// leader-like party; the rest are free to sleep.
	awake := map[int]bool{}
	for i := 0; i < n-1; i++ {
		awake[i] = true
	}

	for r := warmupRounds; r < rounds; r++ {
		target := targetCount(r) - 1
		if target < 0 {
			target = 0
		}
		if target > n-1 {
			target = n - 1
		}

		if len(awake) < target {
			asleep := make([]int, 0, n-1-len(awake))
			for i := 0; i < n-1; i++ {
				if !awake[i] {
					asleep = append(asleep, i)
				}
			}
			mask := choose(rng, len(asleep), target-len(awake))
			for i, a := range asleep {
				if mask[i] {
					awake[a] = true
				}
			}
		} else if len(awake) > target {
			awakeList := make([]int, 0, len(awake))
			for i := range awake {
				awakeList = append(awakeList, i)
			}
			mask := choose(rng, len(awakeList), len(awake)-target)
			for i, a := range awakeList {
				if mask[i] {
					delete(awake, a)
				}
			}
		}

		for id := 0; id < n; id++ {
			if id == n-1 || awake[id] {
				out[id][r] = sleepy.ScheduleAwake
			} else {
				out[id][r] = sleepy.ScheduleAsleep
			}
		}
	}

	return out
}

// IID samples the awake-validator count iid-uniformly in
// [ceil(n*fractionParticipationLb), n] during the middle fractionIid of the
// horizon, with full participation during the surrounding warm-up/cool-down.
func IID(n, rounds int, fractionIID, fractionParticipationLB float64, rng sampler.Uniform) [][]sleepy.ScheduleStatus {
	n0 := int(math.Ceil(float64(n) * fractionParticipationLB))
	span := n - n0
	edge := (1 - fractionIID) / 2

	return awakeCountSchedule(n, rounds, rng, func(r int) int {
		progression := float64(r-warmupRounds) / float64(rounds-warmupRounds)
		if progression < edge || progression > 1-edge {
			return n
		}
		if span <= 0 {
			return n0
		}
		if err := rng.Initialize(span + 1); err != nil {
			return n0
		}
		idx, ok := rng.Sample(1)
		if !ok || len(idx) == 0 {
			return n0
		}
		return n0 + idx[0]
	})
}

// MomoseRen approximates the Momose & Ren (CCS'22) participation pattern:
// full participation during a warm-up/cool-down margin, and a randomly
// drifting awake fraction (a bounded random walk) in between, matching
// instantiate_validators_momoseren's shape.
func MomoseRen(n, rounds int, fractionWarmup, fractionLowParticipationLB, fractionHighParticipationUB float64, rng sampler.Uniform) [][]sleepy.ScheduleStatus {
	fraction := make([]float64, rounds)
	for r := range fraction {
		fraction[r] = 1
	}

	cur := 1.0
	for r := warmupRounds; r < rounds; r++ {
		progression := float64(r-warmupRounds) / float64(rounds-warmupRounds)
		if progression < fractionWarmup || progression > 1-fractionWarmup {
			cur = 1
		} else {
			step := -0.01
			if err := rng.Initialize(2); err == nil {
				if idx, ok := rng.Sample(1); ok && len(idx) > 0 && idx[0] == 0 {
					step = 0.01
				}
			}
			cur += step
			if cur < fractionLowParticipationLB {
				cur = fractionLowParticipationLB
			}
			if cur > fractionHighParticipationUB {
				cur = fractionHighParticipationUB
			}
		}
		fraction[r] = cur
	}

	return awakeCountSchedule(n, rounds, rng, func(r int) int {
		return int(math.Round(fraction[r] * float64(n)))
	})
}
