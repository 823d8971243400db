package block

import (
	"github.com/goldfishsim/goldfish/crypto/sig"
	"github.com/goldfishsim/goldfish/hash"
	"github.com/goldfishsim/goldfish/utils/set"
)

// PieceKind distinguishes the two payload kinds a Piece can carry.
type PieceKind int

const (
	PieceBlock PieceKind = iota
	PieceVote
)

// Piece wraps a single gossiped block or vote.
type Piece struct {
	Kind  PieceKind
	Block Block
	Vote  Vote
}

func PieceOfBlock(b Block) Piece { return Piece{Kind: PieceBlock, Block: b} }

func PieceOfVote(v Vote) Piece { return Piece{Kind: PieceVote, Vote: v} }

func (p Piece) Digest() hash.Hash {
	var h hash.Hasher
	p.updateDigestHasher(&h)
	return h.Sum()
}

func (p Piece) updateDigestHasher(h *hash.Hasher) {
	h.Update(hash.TagPiece)
	switch p.Kind {
	case PieceBlock:
		p.Block.updateDigestHasher(h)
	case PieceVote:
		p.Vote.updateDigestHasher(h)
	}
}

func (p Piece) Slot() Slot {
	if p.Kind == PieceBlock {
		return p.Block.Slot()
	}
	return p.Vote.Slot()
}

func (p Piece) IsValid(lotteries Lotteries, sigs sig.Scheme, cache ValidationCache, pki Pki, bvset BvSet) ValidationResult {
	if p.Kind == PieceBlock {
		return p.Block.IsValid(lotteries, sigs, cache, pki, bvset)
	}
	return p.Vote.IsValid(lotteries, sigs, cache, pki, bvset)
}

// Proposal bundles a newly proposed block with the tips and votes its
// issuer observed at proposal time, so a receiver can merge all of it
// atomically once every dependency resolves.
type Proposal struct {
	Tips  set.Set[hash.Hash]
	Votes set.Set[hash.Hash]
	B     Block
	Sigma sig.Signature
}

// CreateProposal signs and returns a new Proposal for b, snapshotting tips
// and votes from a BvTree-like source.
func CreateProposal(skSig sig.PrivateKey, scheme sig.Scheme, tips, votes set.Set[hash.Hash], b Block) Proposal {
	p := Proposal{Tips: tips, Votes: votes, B: b}
	p.Sigma = scheme.Sign(skSig, p.InnerDigest().Bytes())
	return p
}

func (p Proposal) Digest() hash.Hash {
	var h hash.Hasher
	p.updateDigestHasher(&h)
	return h.Sum()
}

func (p Proposal) updateDigestHasher(h *hash.Hasher) {
	h.Update(hash.TagProposal)
	p.updateInnerDigestHasher(h)
	h.Update(p.Sigma)
}

func (p Proposal) InnerDigest() hash.Hash {
	var h hash.Hasher
	p.updateInnerDigestHasher(&h)
	return h.Sum()
}

func (p Proposal) updateInnerDigestHasher(h *hash.Hasher) {
	h.Update(hash.TagProposal)
	h.UpdateUint64(uint64(p.Tips.Len()))
	h.UpdateUint64(uint64(p.Votes.Len()))
	for _, t := range sortedHashes(p.Tips) {
		h.Update(t.Bytes())
	}
	for _, v := range sortedHashes(p.Votes) {
		h.Update(v.Bytes())
	}
	p.B.updateDigestHasher(h)
}

func sortedHashes(s set.Set[hash.Hash]) []hash.Hash {
	l := s.List()
	for i := 1; i < len(l); i++ {
		for j := i; j > 0 && l[j-1].String() > l[j].String(); j-- {
			l[j-1], l[j] = l[j], l[j-1]
		}
	}
	return l
}

func (p Proposal) Prio() uint64 { return p.B.Prio() }

func (p Proposal) Slot() Slot { return p.B.Slot() }

// IsValid validates a proposal: its block must be Valid; the issuer's
// signature over the inner digest must verify; every declared tip must
// resolve, be Valid, and precede the proposed block's slot; every declared
// vote must resolve, be Valid, and be cast in the immediately preceding slot.
func (p Proposal) IsValid(lotteries Lotteries, sigs sig.Scheme, cache ValidationCache, pki Pki, bvset BvSet) ValidationResult {
	d := p.Digest()
	if r, ok := cache.Get(d); ok {
		return r
	}

	blockResult := p.B.IsValid(lotteries, sigs, cache, pki, bvset)
	if blockResult != Valid {
		if blockResult != Unknown {
			cache.Insert(d, blockResult)
		}
		return blockResult
	}

	keys, ok := pki[p.B.Id()]
	if !ok || !sigs.Verify(keys.Sig, p.InnerDigest().Bytes(), p.Sigma) {
		cache.Insert(d, Invalid)
		return Invalid
	}

	for _, th := range p.Tips.List() {
		tip, ok := bvset.GetBlock(th)
		if !ok {
			return Unknown
		}
		tipResult := tip.IsValid(lotteries, sigs, cache, pki, bvset)
		if tipResult != Valid {
			if tipResult != Unknown {
				cache.Insert(d, tipResult)
			}
			return tipResult
		}
		if tip.Slot() >= p.B.Slot() {
			cache.Insert(d, Invalid)
			return Invalid
		}
	}

	for _, vh := range p.Votes.List() {
		v, ok := bvset.GetVote(vh)
		if !ok {
			return Unknown
		}
		voteResult := v.IsValid(lotteries, sigs, cache, pki, bvset)
		if voteResult != Valid {
			if voteResult != Unknown {
				cache.Insert(d, voteResult)
			}
			return voteResult
		}
		// Only votes from the immediately preceding slot may be attached.
		if p.B.Slot() == 0 || v.Slot() != p.B.Slot()-1 {
			cache.Insert(d, Invalid)
			return Invalid
		}
	}

	cache.Insert(d, Valid)
	return Valid
}

// MessageKind distinguishes the wire-level message shapes.
type MessageKind int

const (
	MessagePiece MessageKind = iota
	MessageProposal
)

// Message is the top-level gossip envelope: either a bare Piece or a full
// Proposal.
type Message struct {
	Kind     MessageKind
	Piece    Piece
	Proposal Proposal
}

func MessageOfPiece(p Piece) Message { return Message{Kind: MessagePiece, Piece: p} }

func MessageOfProposal(p Proposal) Message { return Message{Kind: MessageProposal, Proposal: p} }

func (m Message) Digest() hash.Hash {
	var h hash.Hasher
	h.Update(hash.TagMessage)
	switch m.Kind {
	case MessagePiece:
		m.Piece.updateDigestHasher(&h)
	case MessageProposal:
		m.Proposal.updateDigestHasher(&h)
	}
	return h.Sum()
}

func (m Message) Slot() Slot {
	switch m.Kind {
	case MessagePiece:
		return m.Piece.Slot()
	default:
		return m.Proposal.Slot()
	}
}

// KindOrder ranks a message's kind for limbo processing order: blocks
// before votes before proposals (spec.md §4.6(b)'s "sorted by (kind_order,
// slot) with kind_order: Block < Vote < Proposal").
func (m Message) KindOrder() int {
	if m.Kind == MessagePiece {
		if m.Piece.Kind == PieceBlock {
			return 0
		}
		return 1
	}
	return 2
}

func (m Message) IsValid(lotteries Lotteries, sigs sig.Scheme, cache ValidationCache, pki Pki, bvset BvSet) ValidationResult {
	switch m.Kind {
	case MessagePiece:
		return m.Piece.IsValid(lotteries, sigs, cache, pki, bvset)
	default:
		return m.Proposal.IsValid(lotteries, sigs, cache, pki, bvset)
	}
}

// Size estimates the wire size of the message in bytes, used for per-inbox
// byte-size stats (spec.md §6's per-kind byte size counters). Block pieces
// dominate via their fixed payload; other kinds are small and fixed-ish, so
// a structural estimate (rather than a real codec) is sufficient here.
func (m Message) Size() int {
	const fixedOverhead = 128 // tickets, openings, signatures, hashes
	switch m.Kind {
	case MessagePiece:
		if m.Piece.Kind == PieceBlock {
			return PayloadSize + fixedOverhead
		}
		return fixedOverhead
	default:
		return fixedOverhead + hash.Size*(m.Proposal.Tips.Len()+m.Proposal.Votes.Len())
	}
}
