// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sleepy wraps an honest validator with the sleep/wake model the
// dynamic-participation simulator needs: a validator's view of its own
// schedule (Asleep/Awake), and its local sleep status (Asleep/Dreamy/Awake)
// as it rejoins, grounded on the Rust original's DaSimulationValidator.
package sleepy

import (
	"github.com/goldfishsim/goldfish/block"
	"github.com/goldfishsim/goldfish/inbox"
	"github.com/goldfishsim/goldfish/validator"
)

// ScheduleStatus is whether a schedule wants a validator awake at a round.
type ScheduleStatus int

const (
	ScheduleAsleep ScheduleStatus = iota
	ScheduleAwake
)

// SleepStatus is a validator's own local transition state as it rejoins
// after being scheduled awake.
type SleepStatus int

const (
	Asleep SleepStatus = iota
	Dreamy
	Awake
)

// DaStats records a validator's sleep status at a round.
type DaStats struct {
	Status SleepStatus
}

// Validator wraps an honest validator.HonestValidator with a per-round
// schedule: while asleep it does nothing; the round it wakes it enters
// Dreamy until the end of its joining slot (t*4+3), then proceeds normally.
type Validator struct {
	inner     validator.HonestValidator
	schedule  []ScheduleStatus
	status    SleepStatus
	rEndOfJoining int64

	stats map[int64]DaStats
}

// New wraps inner with schedule, a per-round awake/asleep table indexed by
// round number.
func New(inner validator.HonestValidator, schedule []ScheduleStatus) *Validator {
	return &Validator{
		inner:    inner,
		schedule: schedule,
		status:   Awake,
		stats:    map[int64]DaStats{},
	}
}

// Stats returns the per-round sleep status recorded so far.
func (v *Validator) Stats() map[int64]DaStats {
	out := make(map[int64]DaStats, len(v.stats))
	for r, s := range v.stats {
		out[r] = s
	}
	return out
}

// updatableStats is implemented by the inner validator whenever stats need
// updating on a round the wrapper itself handles (asleep/dreamy rounds,
// where inner.Step is never called).
type updatableStats interface {
	UpdateStats(r int64)
}

// dotDumper is implemented by *validator.Validator.
type dotDumper interface {
	DumpDot() string
}

// DumpDot renders the wrapped validator's BV-tree, if it supports dumping.
func (v *Validator) DumpDot() string {
	if d, ok := v.inner.(dotDumper); ok {
		return d.DumpDot()
	}
	return ""
}

// ledgerStatsSource is implemented by *validator.Validator.
type ledgerStatsSource interface {
	Stats() map[int64]validator.ValidatorLedgerStats
}

// LedgerStats passes through the wrapped validator's ledger stats, if it
// supports reporting them. Asleep and Dreamy rounds have entries too: the
// wrapper records them through UpdateStats without stepping the validator.
func (v *Validator) LedgerStats() map[int64]validator.ValidatorLedgerStats {
	if s, ok := v.inner.(ledgerStatsSource); ok {
		return s.Stats()
	}
	return nil
}

func (v *Validator) Step(lotteries block.Lotteries, r int64, inboxes []*inbox.SimulationInbox, myInbox int) {
	switch v.schedule[r] {
	case ScheduleAsleep:
		v.status = Asleep
		if u, ok := v.inner.(updatableStats); ok {
			u.UpdateStats(r)
		}

	case ScheduleAwake:
		if v.status == Asleep {
			v.status = Dreamy
			t := r / 4
			v.rEndOfJoining = t*4 + 3
		}

		if v.status == Dreamy {
			if r == v.rEndOfJoining {
				v.status = Awake
			} else {
				if u, ok := v.inner.(updatableStats); ok {
					u.UpdateStats(r)
				}
				v.stats[r] = DaStats{Status: v.status}
				return
			}
		}

		v.inner.Step(lotteries, r, inboxes, myInbox)
	}

	v.stats[r] = DaStats{Status: v.status}
}
