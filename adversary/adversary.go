// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package adversary implements fault injection over a set of corrupted
// validators, grounded on the Rust original's adversary.rs. Only crash
// faults are modeled — spec.md's non-goals exclude Byzantine behavior.
package adversary

import (
	"github.com/goldfishsim/goldfish/block"
	"github.com/goldfishsim/goldfish/inbox"
	"github.com/goldfishsim/goldfish/validator"
)

// Adversary steps a set of validators it has corrupted instead of letting
// them run their normal honest protocol.
type Adversary interface {
	Corrupt(v validator.HonestValidator)
	Step(lotteries block.Lotteries, r int64, inboxes []*inbox.SimulationInbox, myInbox int)
}

// CrashFaults models crash-fault corruption: a corrupted validator's inbox
// is silently drained every round and nothing is ever sent on its behalf,
// so honest validators simply stop hearing from it.
type CrashFaults struct {
	validators []validator.HonestValidator
}

// NewCrashFaults returns an empty CrashFaults adversary.
func NewCrashFaults() *CrashFaults {
	return &CrashFaults{}
}

func (a *CrashFaults) Corrupt(v validator.HonestValidator) {
	a.validators = append(a.validators, v)
}

// Step drains myInbox without processing or relaying anything.
func (a *CrashFaults) Step(_ block.Lotteries, _ int64, inboxes []*inbox.SimulationInbox, myInbox int) {
	inboxes[myInbox].CollectInbox()
}
