// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package validator implements the Goldfish validator state machine: limbo
// processing, the four-phase Propose/Vote/Fast-confirm/Slow-confirm round
// protocol, and the resulting ledger tips, grounded on the Rust original's
// goldfish_validator.rs.
package validator

import "github.com/goldfishsim/goldfish/block"

// LedgerStats summarizes one of a validator's three ledger views at a round.
type LedgerStats struct {
	Length int
	Age    block.Slot
}

// ValidatorLedgerStats bundles the best/fast/slow ledger views recorded for
// a single round.
type ValidatorLedgerStats struct {
	LedgerBest LedgerStats
	LedgerFast LedgerStats
	LedgerSlow LedgerStats
}
