package validator

import (
	"math"
	"sort"

	"github.com/goldfishsim/goldfish/block"
	"github.com/goldfishsim/goldfish/bvtree"
	"github.com/goldfishsim/goldfish/crypto/sig"
	"github.com/goldfishsim/goldfish/crypto/vrf"
	"github.com/goldfishsim/goldfish/hash"
	"github.com/goldfishsim/goldfish/inbox"
	"github.com/goldfishsim/goldfish/utils/set"
)

// HonestValidator is the interface a round driver steps; DaSimulationValidator
// (see sleepy.Validator) and the plain Validator both implement it.
type HonestValidator interface {
	Step(lotteries block.Lotteries, r int64, inboxes []*inbox.SimulationInbox, myInbox int)
}

// Validator is a single honest participant's full local state: its identity
// and keys, its accepted BV-tree, the in-flight message limbo, buffered but
// not-yet-merged blocks/votes/proposals, and its three ledger tips.
type Validator struct {
	Id     block.Id
	SkSig  sig.PrivateKey
	SkVrf  vrf.PrivateKey
	Pki    block.Pki
	Sigs   sig.Scheme

	tree  *bvtree.BvTree
	limbo []block.Message

	msgsRelayed set.Set[hash.Hash]

	bufferBlocks    map[hash.Hash]block.Block
	bufferVotes     map[hash.Hash]block.Vote
	bufferProposals []block.Proposal

	confirmSlowKappa int
	confirmFastEps   float64

	cache block.ValidationCache

	tipFast hash.Hash
	tipSlow hash.Hash
	tipBest hash.Hash

	stats map[int64]ValidatorLedgerStats
}

// New constructs a fresh Validator rooted at genesis.
func New(id block.Id, skSig sig.PrivateKey, skVrf vrf.PrivateKey, pki block.Pki, sigs sig.Scheme, confirmSlowKappa int, confirmFastEps float64) *Validator {
	genesisDigest := block.Genesis().Digest()
	return &Validator{
		Id:               id,
		SkSig:            skSig,
		SkVrf:            skVrf,
		Pki:              pki,
		Sigs:             sigs,
		tree:             bvtree.New(),
		msgsRelayed:      set.NewSet[hash.Hash](0),
		bufferBlocks:     map[hash.Hash]block.Block{},
		bufferVotes:      map[hash.Hash]block.Vote{},
		confirmSlowKappa: confirmSlowKappa,
		confirmFastEps:   confirmFastEps,
		cache:            block.NewMapValidationCache(),
		tipFast:          genesisDigest,
		tipSlow:          genesisDigest,
		tipBest:          genesisDigest,
		stats:            map[int64]ValidatorLedgerStats{},
	}
}

func broadcast(msg block.Message, inboxes []*inbox.SimulationInbox) {
	for _, ib := range inboxes {
		ib.MakeAvailable(msg)
	}
}

// Stats returns the per-round ledger stats recorded so far.
func (v *Validator) Stats() map[int64]ValidatorLedgerStats {
	out := make(map[int64]ValidatorLedgerStats, len(v.stats))
	for r, s := range v.stats {
		out[r] = s
	}
	return out
}

func ledgerStatsFor(t *bvtree.BvTree, tip hash.Hash) LedgerStats {
	b, _ := t.GetBlock(tip)
	return LedgerStats{Length: t.GetBlockHeight(tip), Age: b.Slot()}
}

// UpdateStats snapshots the current best/fast/slow ledger views under round r.
func (v *Validator) UpdateStats(r int64) {
	v.stats[r] = ValidatorLedgerStats{
		LedgerBest: ledgerStatsFor(v.tree, v.tipBest),
		LedgerFast: ledgerStatsFor(v.tree, v.tipFast),
		LedgerSlow: ledgerStatsFor(v.tree, v.tipSlow),
	}
}

// DumpDot renders the validator's accepted BV-tree as a Graphviz graph.
func (v *Validator) DumpDot() string { return v.tree.DumpDot() }

func cloneBufferBlocks(m map[hash.Hash]block.Block) map[hash.Hash]block.Block {
	out := make(map[hash.Hash]block.Block, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneBufferVotes(m map[hash.Hash]block.Vote) map[hash.Hash]block.Vote {
	out := make(map[hash.Hash]block.Vote, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Step advances the validator by one round: it first drains its inbox into
// limbo and runs limbo to a fixpoint, then runs the round's phase
// (Propose/Vote/Fast-confirm/Slow-confirm per round%4), and finally prunes
// buffers and limbo of anything too old to matter anymore.
func (v *Validator) Step(lotteries block.Lotteries, r int64, inboxes []*inbox.SimulationInbox, myInbox int) {
	t := r / 4

	v.limbo = append(v.limbo, inboxes[myInbox].CollectInbox()...)

	v.limbo = filterMessages(v.limbo, func(m block.Message) bool {
		return !v.msgsRelayed.Contains(m.Digest())
	})
	v.limbo = filterMessages(v.limbo, func(m block.Message) bool {
		if m.Kind == block.MessagePiece && m.Piece.Kind == block.PieceVote {
			return !(t > 0 && m.Slot() < t-1)
		}
		return true
	})

	rwCache := block.NewMapValidationCache()
	unionCache := block.NewUnionValidationCache(v.cache, rwCache)

	v.runLimboFixpoint(lotteries, t, unionCache)

	switch r % 4 {
	case 0:
		v.phasePropose(lotteries, t, inboxes)
	case 1:
		v.phaseVote(lotteries, t, inboxes)
	case 2:
		v.phaseFastConfirm(lotteries, t)
	case 3:
		v.phaseSlowConfirm(lotteries, t)
	}

	if v.tree.GetBlockHeight(v.tipFast) > v.tree.GetBlockHeight(v.tipSlow) {
		v.tipBest = v.tipFast
	} else {
		v.tipBest = v.tipSlow
	}

	v.pruneBuffersAndLimbo(t)
	v.UpdateStats(r)
}

func filterMessages(msgs []block.Message, keep func(block.Message) bool) []block.Message {
	out := msgs[:0]
	for _, m := range msgs {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// runLimboFixpoint repeatedly sorts limbo by (kind order, slot) and attempts
// each message not yet due in a future round, moving Valid messages into the
// relevant buffer and re-queueing Unknown ones, until a full pass makes no
// progress.
func (v *Validator) runLimboFixpoint(lotteries block.Lotteries, t block.Slot, unionCache block.ValidationCache) {
	for {
		progressed := false

		sort.SliceStable(v.limbo, func(i, j int) bool {
			if v.limbo[i].KindOrder() != v.limbo[j].KindOrder() {
				return v.limbo[i].KindOrder() < v.limbo[j].KindOrder()
			}
			return v.limbo[i].Slot() < v.limbo[j].Slot()
		})

		pending := v.limbo
		v.limbo = nil

		for _, msg := range pending {
			if msg.Slot() > t {
				v.limbo = append(v.limbo, msg)
				continue
			}

			aug := bvtree.NewBufferAugmented(v.tree, v.bufferBlocks, v.bufferVotes)
			result := msg.IsValid(lotteries, v.Sigs, block.NewRoValidationCache(unionCache), v.Pki, aug)

			switch result {
			case block.Valid:
				switch msg.Kind {
				case block.MessageProposal:
					v.bufferProposals = append(v.bufferProposals, msg.Proposal)
				case block.MessagePiece:
					switch msg.Piece.Kind {
					case block.PieceVote:
						v.bufferVotes[msg.Piece.Vote.Digest()] = msg.Piece.Vote
					case block.PieceBlock:
						v.bufferBlocks[msg.Piece.Block.Digest()] = msg.Piece.Block
					}
				}
				v.msgsRelayed.Add(msg.Digest())
				progressed = true

				// re-validate against the writable union cache so its result
				// actually gets memoized now that the buffers hold msg.
				aug2 := bvtree.NewBufferAugmented(v.tree, v.bufferBlocks, v.bufferVotes)
				msg.IsValid(lotteries, v.Sigs, unionCache, v.Pki, aug2)
			case block.Invalid:
				// dropped
			case block.Unknown:
				v.limbo = append(v.limbo, msg)
			}
		}

		if !progressed {
			break
		}
	}
}

func (v *Validator) phasePropose(lotteries block.Lotteries, t block.Slot, inboxes []*inbox.SimulationInbox) {
	rho := lotteries.Block.Open(v.SkVrf, t)
	if !lotteries.Block.IsWinning(v.Pki[v.Id].Vrf, t, rho) {
		return
	}

	scratch := v.tree.Clone()
	scratchBlocks := cloneBufferBlocks(v.bufferBlocks)
	scratchVotes := cloneBufferVotes(v.bufferVotes)
	scratch.Merge(lotteries, v.Sigs, block.NewRoValidationCache(v.cache), v.Pki, scratchBlocks, scratchVotes, nil)
	scratch.ExpireVotesBefore(t - 1)

	tip := scratch.GhostEph(t-1, 0)
	newBlock := block.CreateBlock(v.SkSig, v.Sigs, block.Ticket{Id: v.Id, Slot: t}, rho, tip, graffiti(t, v.Id))
	proposal := block.CreateProposal(v.SkSig, v.Sigs, scratch.TipDigestsForProposal(), scratch.VoteDigestsForProposal(), newBlock)

	broadcast(block.MessageOfProposal(proposal), inboxes)
}

func graffiti(t block.Slot, id block.Id) string {
	return "t=" + itoa(int64(t)) + " id=" + itoa(int64(id))
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func (v *Validator) phaseVote(lotteries block.Lotteries, t block.Slot, inboxes []*inbox.SimulationInbox) {
	// Among proposals for this slot, the minimum-priority one wins, ties
	// broken by lexicographically smallest proposal digest (spec.md §8
	// scenario 4 / §9: conflicting proposals must be merged deterministically
	// by every honest validator).
	var best *block.Proposal
	for i := range v.bufferProposals {
		p := v.bufferProposals[i]
		if p.Slot() != t {
			continue
		}
		betterPrio := best == nil || p.Prio() < best.Prio()
		tiedPrio := best != nil && p.Prio() == best.Prio() && hash.Less(p.Digest(), best.Digest())
		if betterPrio || tiedPrio {
			pp := p
			best = &pp
		}
	}

	if best != nil {
		v.tree.Merge(lotteries, v.Sigs, v.cache, v.Pki, v.bufferBlocks, v.bufferVotes, best)
		broadcast(block.MessageOfPiece(block.PieceOfBlock(best.B)), inboxes)
	}

	rho := lotteries.Vote.Open(v.SkVrf, t)
	if !lotteries.Vote.IsWinning(v.Pki[v.Id].Vrf, t, rho) {
		return
	}

	v.tree.ExpireVotesBefore(t - 1)
	tip := v.tree.GhostEph(t-1, 0)
	newVote := block.CreateVote(v.SkSig, v.Sigs, block.Ticket{Id: v.Id, Slot: t}, rho, tip)
	broadcast(block.MessageOfPiece(block.PieceOfVote(newVote)), inboxes)
}

func (v *Validator) phaseFastConfirm(lotteries block.Lotteries, t block.Slot) {
	v.pruneBufferedProposalsAndVotes(t)

	v.tree.Merge(lotteries, v.Sigs, v.cache, v.Pki, v.bufferBlocks, v.bufferVotes, nil)
	v.tree.ExpireVotesBefore(t)

	minVotes := int(math.Ceil(float64(len(v.Pki)) * (0.75 + 0.5*v.confirmFastEps) * lotteries.Vote.SuccessProbability()))
	tip := v.tree.GhostEph(t, minVotes)

	if v.tree.GetBlockHeight(tip) > v.tree.GetBlockHeight(v.tipFast) {
		v.tipFast = tip
	}
}

func (v *Validator) phaseSlowConfirm(lotteries block.Lotteries, t block.Slot) {
	v.pruneBufferedProposalsAndVotes(t)

	v.tree.Merge(lotteries, v.Sigs, v.cache, v.Pki, v.bufferBlocks, v.bufferVotes, nil)
	v.tree.ExpireVotesBefore(t)

	tip := v.tree.GhostEph(t, 0)
	tip = v.tree.TruncateBackToSlot(tip, t-block.Slot(v.confirmSlowKappa))
	v.tipSlow = tip
}

func (v *Validator) pruneBufferedProposalsAndVotes(t block.Slot) {
	keptProposals := v.bufferProposals[:0]
	for _, p := range v.bufferProposals {
		if p.Slot() >= t {
			keptProposals = append(keptProposals, p)
		}
	}
	v.bufferProposals = keptProposals

	for h, vote := range v.bufferVotes {
		if vote.Slot() < t {
			delete(v.bufferVotes, h)
		}
	}
}

func (v *Validator) pruneBuffersAndLimbo(t block.Slot) {
	keptProposals := v.bufferProposals[:0]
	for _, p := range v.bufferProposals {
		if p.Slot() >= t {
			keptProposals = append(keptProposals, p)
		}
	}
	v.bufferProposals = keptProposals

	for h, vote := range v.bufferVotes {
		if vote.Slot() < t-1 {
			delete(v.bufferVotes, h)
		}
	}
	for h, b := range v.bufferBlocks {
		if b.Slot() < t-1 {
			delete(v.bufferBlocks, h)
		}
	}

	floor := t - block.Slot(v.confirmSlowKappa)
	v.limbo = filterMessages(v.limbo, func(m block.Message) bool {
		return m.Slot() >= floor
	})
}
