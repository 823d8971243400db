// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bvtree implements the block-vote tree: a DAG of accepted blocks
// and votes supporting GHOST-style tip selection, vote expiry, and
// parent-chain truncation, per spec.md §2-3.
package bvtree

import (
	"fmt"

	"github.com/goldfishsim/goldfish/block"
	"github.com/goldfishsim/goldfish/crypto/sig"
	"github.com/goldfishsim/goldfish/hash"
	"github.com/goldfishsim/goldfish/utils/set"
)

// BvTree holds every block and vote a validator has accepted, indexed by
// digest, plus the derived children/tip/votecount indices.
type BvTree struct {
	blocks    map[hash.Hash]block.Block
	votes     map[hash.Hash]block.Vote
	votecount map[hash.Hash]set.Set[block.Ticket]
	children  map[hash.Hash]set.Set[hash.Hash]
	tips      set.Set[hash.Hash]
}

// New returns a BvTree containing only the genesis block.
func New() *BvTree {
	g := block.Genesis()
	gd := g.Digest()
	return &BvTree{
		blocks:    map[hash.Hash]block.Block{gd: g},
		votes:     map[hash.Hash]block.Vote{},
		votecount: map[hash.Hash]set.Set[block.Ticket]{gd: {}},
		children:  map[hash.Hash]set.Set[hash.Hash]{gd: {}},
		tips:      set.Of(gd),
	}
}

var _ block.BvSet = (*BvTree)(nil)

// Clone returns a deep copy of t, independent of the original: mutating the
// clone (merging buffers into it, expiring its votes) never affects t. Used
// by the propose phase, which speculatively merges pending buffers into a
// scratch copy of the tree before deciding what to propose.
func (t *BvTree) Clone() *BvTree {
	out := &BvTree{
		blocks:    make(map[hash.Hash]block.Block, len(t.blocks)),
		votes:     make(map[hash.Hash]block.Vote, len(t.votes)),
		votecount: make(map[hash.Hash]set.Set[block.Ticket], len(t.votecount)),
		children:  make(map[hash.Hash]set.Set[hash.Hash], len(t.children)),
		tips:      set.NewSet[hash.Hash](t.tips.Len()),
	}
	for h, b := range t.blocks {
		out.blocks[h] = b
	}
	for h, v := range t.votes {
		out.votes[h] = v
	}
	for h, vc := range t.votecount {
		cp := set.NewSet[block.Ticket](vc.Len())
		cp.Union(vc)
		out.votecount[h] = cp
	}
	for h, c := range t.children {
		cp := set.NewSet[hash.Hash](c.Len())
		cp.Union(c)
		out.children[h] = cp
	}
	out.tips.Union(t.tips)
	return out
}

func (t *BvTree) GetBlock(h hash.Hash) (block.Block, bool) {
	b, ok := t.blocks[h]
	return b, ok
}

func (t *BvTree) GetVote(h hash.Hash) (block.Vote, bool) {
	v, ok := t.votes[h]
	return v, ok
}

// TipDigestsForProposal snapshots the current tip set for embedding in a
// new Proposal.
func (t *BvTree) TipDigestsForProposal() set.Set[hash.Hash] {
	out := set.NewSet[hash.Hash](t.tips.Len())
	out.Union(t.tips)
	return out
}

// VoteDigestsForProposal snapshots every known vote digest for embedding in
// a new Proposal.
func (t *BvTree) VoteDigestsForProposal() set.Set[hash.Hash] {
	out := set.NewSet[hash.Hash](len(t.votes))
	for h := range t.votes {
		out.Add(h)
	}
	return out
}

// InsertBlock adds an already-validated block to the tree, updating the
// children and tips indices. The tree's tips invariant (tips = blocks with
// no children) is preserved: b's parent is no longer a tip if it was one,
// and b itself becomes a tip.
func (t *BvTree) InsertBlock(b block.Block) {
	d := b.Digest()
	t.blocks[d] = b
	t.votecount[d] = set.Set[block.Ticket]{}
	t.children[d] = set.Set[hash.Hash]{}

	parentChildren, ok := t.children[b.Parent]
	if !ok {
		panic(fmt.Sprintf("bvtree: insert_block with unknown parent %s", b.Parent))
	}
	parentChildren.Add(d)
	t.children[b.Parent] = parentChildren

	t.tips.Remove(b.Parent)
	t.tips.Add(d)
}

// insertVote records v and threads its ticket into the votecount of every
// ancestor of its target, up to and including genesis.
func (t *BvTree) insertVote(v block.Vote) {
	t.votes[v.Digest()] = v

	h := v.Target
	for {
		vc, ok := t.votecount[h]
		if !ok {
			panic(fmt.Sprintf("bvtree: votecount missing for %s", h))
		}
		vc.Add(v.Ticket)
		t.votecount[h] = vc

		if h == block.Genesis().Digest() {
			break
		}
		b, ok := t.blocks[h]
		if !ok {
			panic(fmt.Sprintf("bvtree: block missing for %s while threading vote", h))
		}
		h = b.Parent
	}
}

// ExpireVotesBefore drops every vote and votecount entry with slot < t, per
// spec.md §8 invariant 6.
func (t *BvTree) ExpireVotesBefore(s block.Slot) {
	for h, v := range t.votes {
		if v.Slot() < s {
			delete(t.votes, h)
		}
	}
	for h, vc := range t.votecount {
		for tk := range vc {
			if tk.Slot < s {
				vc.Remove(tk)
			}
		}
		t.votecount[h] = vc
	}
}

// GhostEph walks down from genesis picking, at each step, the child with
// the most votes cast at exactly slot t, breaking ties by lexicographically
// smallest digest (spec.md §9's determinism requirement — children.List()
// iterates a map in randomized order, so the tie-break must not depend on
// iteration order), stopping when the winning child's count falls below
// minVotes.
func (t *BvTree) GhostEph(s block.Slot, minVotes int) hash.Hash {
	h := block.Genesis().Digest()
	for {
		children, ok := t.children[h]
		if !ok || children.Len() == 0 {
			return h
		}

		var best hash.Hash
		bestCount := -1
		for _, c := range children.List() {
			count := 0
			for tk := range t.votecount[c] {
				if tk.Slot == s {
					count++
				}
			}
			switch {
			case count > bestCount:
				best = c
				bestCount = count
			case count == bestCount && hash.Less(c, best):
				best = c
			}
		}

		if bestCount < minVotes {
			return h
		}
		h = best
	}
}

// GetBlockHeight returns the number of blocks between h and genesis,
// exclusive of genesis and inclusive of h.
func (t *BvTree) GetBlockHeight(h hash.Hash) int {
	height := 0
	g := block.Genesis().Digest()
	for h != g {
		height++
		b, ok := t.blocks[h]
		if !ok {
			panic(fmt.Sprintf("bvtree: block missing for %s while computing height", h))
		}
		h = b.Parent
	}
	return height
}

// TruncateBackToSlot walks h's ancestor chain until it finds the first
// block whose slot is <= s (or genesis), and returns that block's digest.
func (t *BvTree) TruncateBackToSlot(h hash.Hash, s block.Slot) hash.Hash {
	g := block.Genesis().Digest()
	b, ok := t.blocks[h]
	if !ok {
		panic(fmt.Sprintf("bvtree: block missing for %s in truncate", h))
	}
	for h != g && b.Slot() > s {
		h = b.Parent
		b, ok = t.blocks[h]
		if !ok {
			panic(fmt.Sprintf("bvtree: block missing for %s in truncate", h))
		}
	}
	return h
}

// Merge ingests buffered blocks and votes into the tree. With no proposal,
// every buffered block is attempted (used when draining leftover buffer
// state); with a proposal, only the chain of ancestors reachable from the
// proposal's declared tips is merged, followed by the proposal's own block
// and its declared votes. Buffered entries that turn out already accepted
// are simply dropped (they may have arrived twice, once as a bare piece and
// once via a proposal).
func (t *BvTree) Merge(
	lotteries block.Lotteries,
	sigs sig.Scheme,
	cache block.ValidationCache,
	pki block.Pki,
	bufferBlocks map[hash.Hash]block.Block,
	bufferVotes map[hash.Hash]block.Vote,
	proposal *block.Proposal,
) {
	queue := make([]hash.Hash, 0, len(bufferBlocks))
	seen := set.NewSet[hash.Hash](len(bufferBlocks))

	if proposal == nil {
		for h := range bufferBlocks {
			queue = append(queue, h)
			seen.Add(h)
		}
	} else {
		aug := NewBufferAugmented(t, bufferBlocks, bufferVotes)
		g := block.Genesis().Digest()
		for _, h := range proposal.Tips.List() {
			cur := h
			for !seen.Contains(cur) && cur != g {
				queue = append(queue, cur)
				seen.Add(cur)
				b, ok := aug.GetBlock(cur)
				if !ok {
					panic(fmt.Sprintf("bvtree: merge could not resolve declared tip ancestor %s", cur))
				}
				cur = b.Parent
			}
		}
	}

	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]

		if _, accepted := t.blocks[k]; accepted {
			// arrived twice: once as a relayed piece, once via a proposal
			delete(bufferBlocks, k)
			continue
		}

		b, ok := bufferBlocks[k]
		if !ok {
			continue
		}
		delete(bufferBlocks, k)

		switch b.IsValid(lotteries, sigs, cache, pki, t) {
		case block.Valid:
			t.InsertBlock(b)
		case block.Invalid:
			panic(fmt.Sprintf("bvtree: merge encountered invalid buffered block %s", k))
		case block.Unknown:
			queue = append(queue, k)
			bufferBlocks[k] = b
		}
	}

	if proposal != nil {
		b := proposal.B
		if b.IsValid(lotteries, sigs, cache, pki, t) != block.Valid {
			panic("bvtree: merge encountered a proposal whose block did not validate")
		}
		t.InsertBlock(b)
	}

	for h, v := range bufferVotes {
		include := proposal == nil || proposal.Votes.Contains(h)
		if !include {
			continue
		}
		if v.IsValid(lotteries, sigs, cache, pki, t) != block.Valid {
			panic(fmt.Sprintf("bvtree: merge encountered invalid buffered vote %s", h))
		}
		delete(bufferVotes, h)
		t.insertVote(v)
	}
}
