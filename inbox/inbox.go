// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package inbox implements the per-validator, round-delayed, deduplicated
// message queue validators and the adversary deliver gossip through, per
// spec.md §4.8.
package inbox

import (
	"sync"

	"github.com/goldfishsim/goldfish/block"
	"github.com/goldfishsim/goldfish/hash"
	"github.com/goldfishsim/goldfish/utils/bag"
)

// msgCategory classifies a delivered message for the per-round bag tallies.
type msgCategory int

const (
	categoryProposal msgCategory = iota
	categoryPieceBlock
	categoryPieceVote
)

func categorize(m block.Message) msgCategory {
	switch {
	case m.Kind == block.MessageProposal:
		return categoryProposal
	case m.Piece.Kind == block.PieceBlock:
		return categoryPieceBlock
	default:
		return categoryPieceVote
	}
}

// CommunicationStats totals the messages delivered to an inbox in a single
// round, broken down by kind, for the driver's per-round byte/count stats.
type CommunicationStats struct {
	AllSize   int
	AllCount  int
	ProposalSize  int
	ProposalCount int
	PieceBlockSize  int
	PieceBlockCount int
	PieceVoteSize   int
	PieceVoteCount  int
}

// SimulationInbox is a concurrency-safe, per-validator message queue. One
// mutex guards the message queues and the seen-set, another guards the
// stats, so that make_available calls from many concurrently stepping
// validators never race with a delivery pass.
type SimulationInbox struct {
	mu           sync.Mutex
	msgs         []block.Message
	msgsInflight []block.Message
	msgsSeen     map[hash.Hash]struct{}

	statsMu sync.Mutex
	stats   map[int64]CommunicationStats
}

// New returns an empty inbox.
func New() *SimulationInbox {
	return &SimulationInbox{
		msgsSeen: make(map[hash.Hash]struct{}),
		stats:    make(map[int64]CommunicationStats),
	}
}

// MakeAvailable enqueues msg for delivery unless it has already been seen by
// this inbox (messages can be broadcast to the same recipient more than
// once across relays).
func (ib *SimulationInbox) MakeAvailable(msg block.Message) {
	d := msg.Digest()

	ib.mu.Lock()
	defer ib.mu.Unlock()
	if _, seen := ib.msgsSeen[d]; seen {
		return
	}
	ib.msgsSeen[d] = struct{}{}
	ib.msgsInflight = append(ib.msgsInflight, msg)
}

// CollectInbox drains and returns every message delivered so far.
func (ib *SimulationInbox) CollectInbox() []block.Message {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	out := ib.msgs
	ib.msgs = nil
	return out
}

// DeliverMsgsInflight moves every in-flight message into msgs, recording
// per-round stats partitioned by message kind. A message sent in round r
// only becomes deliverable starting round r+1 because the driver calls this
// at the start of every round before validators step, one round after
// MakeAvailable was called.
func (ib *SimulationInbox) DeliverMsgsInflight(r int64) {
	ib.mu.Lock()
	inflight := ib.msgsInflight
	ib.msgsInflight = nil
	ib.msgs = append(ib.msgs, inflight...)
	ib.mu.Unlock()

	counts := bag.New[msgCategory]()
	sizes := bag.New[msgCategory]()
	for _, m := range inflight {
		cat := categorize(m)
		counts.Add(cat)
		sizes.AddCount(cat, m.Size())
	}

	s := CommunicationStats{
		AllCount:        counts.Len(),
		AllSize:         sizes.Len(),
		ProposalCount:   counts.Count(categoryProposal),
		ProposalSize:    sizes.Count(categoryProposal),
		PieceBlockCount: counts.Count(categoryPieceBlock),
		PieceBlockSize:  sizes.Count(categoryPieceBlock),
		PieceVoteCount:  counts.Count(categoryPieceVote),
		PieceVoteSize:   sizes.Count(categoryPieceVote),
	}

	ib.statsMu.Lock()
	ib.stats[r] = s
	ib.statsMu.Unlock()
}

// Stats returns a copy of the per-round communication stats recorded so far.
func (ib *SimulationInbox) Stats() map[int64]CommunicationStats {
	ib.statsMu.Lock()
	defer ib.statsMu.Unlock()
	out := make(map[int64]CommunicationStats, len(ib.stats))
	for r, s := range ib.stats {
		out[r] = s
	}
	return out
}

// AdversaryPeek returns snapshots of both msgs and msgsInflight without
// draining either, for adversary implementations that need to observe
// pending traffic without disrupting normal delivery.
func (ib *SimulationInbox) AdversaryPeek() (delivered, inflight []block.Message) {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	delivered = append(delivered[:0:0], ib.msgs...)
	inflight = append(inflight[:0:0], ib.msgsInflight...)
	return delivered, inflight
}
