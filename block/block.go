package block

import (
	"encoding/binary"

	"github.com/goldfishsim/goldfish/crypto/sig"
	"github.com/goldfishsim/goldfish/hash"
	"github.com/goldfishsim/goldfish/lottery"
)

// BvSet is the read interface a validation pass needs into the BV-tree:
// lookups by digest for both accepted blocks and votes, plus whatever
// buffered entries the caller wants to layer on top (see
// bvtree.BufferAugmentedBvTree).
type BvSet interface {
	GetBlock(h hash.Hash) (Block, bool)
	GetVote(h hash.Hash) (Vote, bool)
}

// Block is a proposed block: a lottery-won ticket, its VRF opening, a
// pointer to its parent block's digest, a payload, and a signature over the
// block's inner digest.
type Block struct {
	Ticket  Ticket
	Rho     lottery.Opening
	Parent  hash.Hash
	Payload Payload
	Sigma   sig.Signature
}

// Genesis returns the well-known zero block every BV-tree is rooted at.
func Genesis() Block { return Block{} }

func (b Block) IsGenesis() bool { return b.Digest() == Genesis().Digest() }

// Digest returns the block's content-addressed identity, covering the
// ticket, VRF opening, inner digest and signature.
func (b Block) Digest() hash.Hash {
	var h hash.Hasher
	b.updateDigestHasher(&h)
	return h.Sum()
}

func (b Block) updateDigestHasher(h *hash.Hasher) {
	h.Update(hash.TagBlock)
	h.UpdateUint64(uint64(b.Ticket.Id))
	h.UpdateUint64(uint64(b.Ticket.Slot))
	h.UpdateUint64(b.Rho.Y)
	h.Update(b.Rho.Proof)
	b.updateInnerDigestHasher(h)
	h.Update(b.Sigma)
}

// InnerDigest is the portion of the block that gets signed: the parent
// pointer and payload, tagged but excluding ticket/opening/signature so
// that signing doesn't depend on the signature itself.
func (b Block) InnerDigest() hash.Hash {
	var h hash.Hasher
	b.updateInnerDigestHasher(&h)
	return h.Sum()
}

func (b Block) updateInnerDigestHasher(h *hash.Hasher) {
	h.Update(hash.TagBlock)
	h.Update(b.Parent.Bytes())
	b.Payload.updateHasher(h)
}

// CreateBlock signs and returns a new block.
func CreateBlock(skSig sig.PrivateKey, scheme sig.Scheme, ticket Ticket, rho lottery.Opening, parent hash.Hash, graffiti string) Block {
	b := Block{
		Ticket:  ticket,
		Rho:     rho,
		Parent:  parent,
		Payload: RandomPayload(graffiti),
	}
	b.Sigma = scheme.Sign(skSig, b.InnerDigest().Bytes())
	return b
}

func (b Block) Slot() Slot { return b.Ticket.Slot }

func (b Block) Id() Id { return b.Ticket.Id }

// Prio returns the block's VRF priority, used (via Proposal.Prio) to pick
// the minimum-priority proposal of a slot.
func (b Block) Prio() uint64 { return lottery.Prio(b.Rho) }

// IsValid validates b against the cache, looking up its parent and the
// issuing validator's keys through bvset. Unknown dependencies return
// Unknown without caching; Valid/Invalid are memoized permanently. sigs
// verifies the signature; pass a sig.WithVerification(..., false) scheme to
// skip real verification for faster large runs.
func (b Block) IsValid(lotteries Lotteries, sigs sig.Scheme, cache ValidationCache, pki Pki, bvset BvSet) ValidationResult {
	d := b.Digest()
	if r, ok := cache.Get(d); ok {
		return r
	}

	if b.IsGenesis() {
		cache.Insert(d, Valid)
		return Valid
	}

	parent, ok := bvset.GetBlock(b.Parent)
	if !ok {
		return Unknown
	}
	parentResult := parent.IsValid(lotteries, sigs, cache, pki, bvset)
	if parentResult != Valid {
		if parentResult != Unknown {
			cache.Insert(d, parentResult)
		}
		return parentResult
	}

	keys, ok := pki[b.Ticket.Id]
	if !ok {
		cache.Insert(d, Invalid)
		return Invalid
	}

	if lotteries.Block.IsWinning(keys.Vrf, b.Ticket.Slot, b.Rho) &&
		sigs.Verify(keys.Sig, b.InnerDigest().Bytes(), b.Sigma) &&
		b.Ticket.Slot > parent.Ticket.Slot {
		cache.Insert(d, Valid)
		return Valid
	}

	cache.Insert(d, Invalid)
	return Invalid
}

// LittleEndianSlot renders a Slot as 8 little-endian bytes, used wherever
// hashing needs a fixed-width encoding of a slot number.
func LittleEndianSlot(s Slot) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(s))
	return buf[:]
}
