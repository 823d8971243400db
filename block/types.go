// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package block implements the core BV-tree data types: blocks, votes,
// proposals, their validation pipeline, and the validation cache layering
// described in spec.md §2-3.
package block

import (
	"github.com/goldfishsim/goldfish/crypto/sig"
	"github.com/goldfishsim/goldfish/crypto/vrf"
	"github.com/goldfishsim/goldfish/hash"
	"github.com/goldfishsim/goldfish/lottery"
)

// Id identifies a validator.
type Id = int64

// Slot is a discrete consensus time unit.
type Slot = lottery.Slot

// Ticket is a (validator id, slot) pair that uniquely names a lottery win.
type Ticket struct {
	Id   Id
	Slot Slot
}

// ValidatorKeys bundles a validator's public signature and VRF keys.
type ValidatorKeys struct {
	Sig sig.PublicKey
	Vrf vrf.PublicKey
}

// Pki maps validator identities to their public keys.
type Pki map[Id]ValidatorKeys

// Lotteries bundles the block-proposal and vote lotteries shared by every
// validator.
type Lotteries struct {
	Block *lottery.Lottery
	Vote  *lottery.Lottery
}

// ValidationResult is the outcome of validating a block, vote, or proposal.
type ValidationResult int

const (
	Invalid ValidationResult = iota
	Valid
	Unknown
)

// ValidationCache memoizes validation results by content digest. Unknown
// results are never cached; Valid and Invalid are cached permanently because
// validation is pure with respect to content-addressed digests.
type ValidationCache interface {
	Get(h hash.Hash) (ValidationResult, bool)
	Insert(h hash.Hash, result ValidationResult)
}

// MapValidationCache is the authoritative read-write cache backing a
// validator's own view.
type MapValidationCache map[hash.Hash]ValidationResult

func NewMapValidationCache() MapValidationCache {
	return make(MapValidationCache)
}

func (c MapValidationCache) Get(h hash.Hash) (ValidationResult, bool) {
	r, ok := c[h]
	return r, ok
}

func (c MapValidationCache) Insert(h hash.Hash, result ValidationResult) {
	c[h] = result
}

// RoValidationCache wraps a cache read-only: lookups pass through but
// inserts are silently dropped. Used for speculative validation passes that
// must not pollute the authoritative cache.
type RoValidationCache struct {
	cache ValidationCache
}

func NewRoValidationCache(cache ValidationCache) *RoValidationCache {
	return &RoValidationCache{cache: cache}
}

func (c *RoValidationCache) Get(h hash.Hash) (ValidationResult, bool) { return c.cache.Get(h) }

func (c *RoValidationCache) Insert(hash.Hash, ValidationResult) {}

// UnionValidationCache looks up the writable scratch cache first and falls
// back to the read-only base cache on a miss; writes only ever land in the
// scratch cache.
type UnionValidationCache struct {
	ro ValidationCache
	rw ValidationCache
}

func NewUnionValidationCache(ro, rw ValidationCache) *UnionValidationCache {
	return &UnionValidationCache{ro: ro, rw: rw}
}

func (c *UnionValidationCache) Get(h hash.Hash) (ValidationResult, bool) {
	if r, ok := c.rw.Get(h); ok {
		return r, ok
	}
	return c.ro.Get(h)
}

func (c *UnionValidationCache) Insert(h hash.Hash, result ValidationResult) {
	c.rw.Insert(h, result)
}
