package block

import (
	"github.com/goldfishsim/goldfish/crypto/sig"
	"github.com/goldfishsim/goldfish/hash"
	"github.com/goldfishsim/goldfish/lottery"
)

// Vote is a lottery-won attestation that a target block is the tip its
// issuer prefers.
type Vote struct {
	Ticket Ticket
	Rho    lottery.Opening
	Target hash.Hash
	Sigma  sig.Signature
}

func (v Vote) Digest() hash.Hash {
	var h hash.Hasher
	v.updateDigestHasher(&h)
	return h.Sum()
}

func (v Vote) updateDigestHasher(h *hash.Hasher) {
	h.Update(hash.TagVote)
	h.UpdateUint64(uint64(v.Ticket.Id))
	h.UpdateUint64(uint64(v.Ticket.Slot))
	h.UpdateUint64(v.Rho.Y)
	h.Update(v.Rho.Proof)
	v.updateInnerDigestHasher(h)
	h.Update(v.Sigma)
}

func (v Vote) InnerDigest() hash.Hash {
	var h hash.Hasher
	v.updateInnerDigestHasher(&h)
	return h.Sum()
}

func (v Vote) updateInnerDigestHasher(h *hash.Hasher) {
	h.Update(hash.TagVote)
	h.Update(v.Target.Bytes())
}

// CreateVote signs and returns a new vote for target.
func CreateVote(skSig sig.PrivateKey, scheme sig.Scheme, ticket Ticket, rho lottery.Opening, target hash.Hash) Vote {
	v := Vote{Ticket: ticket, Rho: rho, Target: target}
	v.Sigma = scheme.Sign(skSig, v.InnerDigest().Bytes())
	return v
}

func (v Vote) Slot() Slot { return v.Ticket.Slot }

func (v Vote) Id() Id { return v.Ticket.Id }

// IsValid validates v: its target must resolve and be Valid, the vote
// lottery must have been won, the signature must verify, and the vote's
// slot must be no earlier than its target's.
func (v Vote) IsValid(lotteries Lotteries, sigs sig.Scheme, cache ValidationCache, pki Pki, bvset BvSet) ValidationResult {
	d := v.Digest()
	if r, ok := cache.Get(d); ok {
		return r
	}

	target, ok := bvset.GetBlock(v.Target)
	if !ok {
		return Unknown
	}
	targetResult := target.IsValid(lotteries, sigs, cache, pki, bvset)
	if targetResult != Valid {
		if targetResult != Unknown {
			cache.Insert(d, targetResult)
		}
		return targetResult
	}

	keys, ok := pki[v.Ticket.Id]
	if !ok {
		cache.Insert(d, Invalid)
		return Invalid
	}

	if lotteries.Vote.IsWinning(keys.Vrf, v.Ticket.Slot, v.Rho) &&
		sigs.Verify(keys.Sig, v.InnerDigest().Bytes(), v.Sigma) &&
		v.Ticket.Slot >= target.Ticket.Slot {
		cache.Insert(d, Valid)
		return Valid
	}

	cache.Insert(d, Invalid)
	return Invalid
}
