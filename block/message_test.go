package block

import (
	"testing"

	"github.com/goldfishsim/goldfish/hash"
	"github.com/goldfishsim/goldfish/utils/set"
	"github.com/stretchr/testify/require"
)

func TestProposalValidWithMatchingVoteSlot(t *testing.T) {
	require := require.New(t)
	sigs, _, lotteries, pki, id, sk := testHarness(t)

	bvset := newFakeBvSet()
	genesis := Genesis()
	bvset.put(genesis)

	rho1 := lotteries.Block.Open(sk, 1)
	b1 := CreateBlock(sk, sigs, Ticket{Id: id, Slot: 1}, rho1, genesis.Digest(), "b1")
	bvset.put(b1)

	voteRho := lotteries.Vote.Open(sk, 1)
	v := CreateVote(sk, sigs, Ticket{Id: id, Slot: 1}, voteRho, b1.Digest())

	rho2 := lotteries.Block.Open(sk, 2)
	b2 := CreateBlock(sk, sigs, Ticket{Id: id, Slot: 2}, rho2, b1.Digest(), "b2")

	tips := set.Of(b1.Digest())
	votes := set.Of(v.Digest())
	p := CreateProposal(sk, sigs, tips, votes, b2)

	cache := NewMapValidationCache()
	pvbvset := &voteAwareBvSet{fakeBvSet: bvset, votes: map[hash.Hash]Vote{v.Digest(): v}}
	require.Equal(Valid, p.IsValid(lotteries, sigs, cache, pki, pvbvset))
}

func TestProposalRejectsVoteFromWrongSlot(t *testing.T) {
	require := require.New(t)
	sigs, _, lotteries, pki, id, sk := testHarness(t)

	bvset := newFakeBvSet()
	genesis := Genesis()
	bvset.put(genesis)

	rho1 := lotteries.Block.Open(sk, 1)
	b1 := CreateBlock(sk, sigs, Ticket{Id: id, Slot: 1}, rho1, genesis.Digest(), "b1")
	bvset.put(b1)

	// This vote targets slot 1 but will be attached to a proposal for slot 3,
	// violating the "only the immediately preceding slot" rule.
	voteRho := lotteries.Vote.Open(sk, 1)
	v := CreateVote(sk, sigs, Ticket{Id: id, Slot: 1}, voteRho, b1.Digest())

	rho3 := lotteries.Block.Open(sk, 3)
	b3 := CreateBlock(sk, sigs, Ticket{Id: id, Slot: 3}, rho3, b1.Digest(), "b3")

	tips := set.Of(b1.Digest())
	votes := set.Of(v.Digest())
	p := CreateProposal(sk, sigs, tips, votes, b3)

	cache := NewMapValidationCache()
	pvbvset := &voteAwareBvSet{fakeBvSet: bvset, votes: map[hash.Hash]Vote{v.Digest(): v}}
	require.Equal(Invalid, p.IsValid(lotteries, sigs, cache, pki, pvbvset))
}

func TestProposalRejectsTipNotBeforeBlockSlot(t *testing.T) {
	require := require.New(t)
	sigs, _, lotteries, pki, id, sk := testHarness(t)

	bvset := newFakeBvSet()
	genesis := Genesis()
	bvset.put(genesis)

	rho1 := lotteries.Block.Open(sk, 2)
	b1 := CreateBlock(sk, sigs, Ticket{Id: id, Slot: 2}, rho1, genesis.Digest(), "b1")
	bvset.put(b1)

	// Proposed block is also at slot 2: the tip is not strictly earlier.
	rho2 := lotteries.Block.Open(sk, 2)
	b2 := CreateBlock(sk, sigs, Ticket{Id: id, Slot: 2}, rho2, genesis.Digest(), "b2")

	tips := set.Of(b1.Digest())
	p := CreateProposal(sk, sigs, tips, set.Set[hash.Hash]{}, b2)

	cache := NewMapValidationCache()
	require.Equal(Invalid, p.IsValid(lotteries, sigs, cache, pki, bvset))
}

func TestMessageKindOrderPiecesBeforeProposals(t *testing.T) {
	require := require.New(t)

	b := Genesis()
	piece := MessageOfPiece(PieceOfBlock(b))
	proposal := MessageOfProposal(Proposal{B: b})

	require.Less(piece.KindOrder(), proposal.KindOrder())
}

func TestMessageSizeDominatedByBlockPayload(t *testing.T) {
	require := require.New(t)

	blockMsg := MessageOfPiece(PieceOfBlock(Genesis()))
	voteMsg := MessageOfPiece(PieceOfVote(Vote{}))

	require.Greater(blockMsg.Size(), voteMsg.Size())
	require.GreaterOrEqual(blockMsg.Size(), PayloadSize)
}

// voteAwareBvSet augments fakeBvSet with a vote lookup table, since
// fakeBvSet alone always reports votes as missing.
type voteAwareBvSet struct {
	*fakeBvSet
	votes map[hash.Hash]Vote
}

func (v *voteAwareBvSet) GetVote(h hash.Hash) (Vote, bool) {
	vv, ok := v.votes[h]
	return vv, ok
}
