package bvtree

import (
	"testing"

	"github.com/goldfishsim/goldfish/block"
	"github.com/goldfishsim/goldfish/crypto/sig"
	"github.com/goldfishsim/goldfish/crypto/vrf"
	"github.com/goldfishsim/goldfish/hash"
	"github.com/goldfishsim/goldfish/lottery"
	"github.com/stretchr/testify/require"
)

type harness struct {
	sigs      sig.Scheme
	lotteries block.Lotteries
	pki       block.Pki
	sk        sig.PrivateKey
	id        block.Id
}

func newHarness(t *testing.T) harness {
	t.Helper()
	require := require.New(t)

	sigs := sig.NewMockScheme()
	vrfs := vrf.NewSigDerivedScheme(sigs)
	sk, pk, err := sigs.Gen()
	require.NoError(err)

	return harness{
		sigs: sigs,
		lotteries: block.Lotteries{
			Block: lottery.New("block", 1, vrfs),
			Vote:  lottery.New("vote", 1, vrfs),
		},
		pki: block.Pki{1: {Sig: pk, Vrf: pk}},
		sk:  sk,
		id:  1,
	}
}

func TestNewBvTreeHasOnlyGenesisTip(t *testing.T) {
	require := require.New(t)

	tree := New()
	require.Equal(1, tree.tips.Len())
	require.True(tree.tips.Contains(block.Genesis().Digest()))
}

func TestInsertBlockPreservesTipsInvariant(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)

	tree := New()
	genesis := block.Genesis()

	rho1 := h.lotteries.Block.Open(h.sk, 1)
	b1 := block.CreateBlock(h.sk, h.sigs, block.Ticket{Id: h.id, Slot: 1}, rho1, genesis.Digest(), "b1")
	tree.InsertBlock(b1)

	require.False(tree.tips.Contains(genesis.Digest()))
	require.True(tree.tips.Contains(b1.Digest()))
	require.Equal(1, tree.tips.Len())

	rho2 := h.lotteries.Block.Open(h.sk, 2)
	b2 := block.CreateBlock(h.sk, h.sigs, block.Ticket{Id: h.id, Slot: 2}, rho2, b1.Digest(), "b2")
	tree.InsertBlock(b2)

	require.False(tree.tips.Contains(b1.Digest()))
	require.True(tree.tips.Contains(b2.Digest()))
	require.Equal(1, tree.tips.Len())
}

func TestGetBlockHeight(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)

	tree := New()
	genesis := block.Genesis()
	require.Equal(0, tree.GetBlockHeight(genesis.Digest()))

	rho1 := h.lotteries.Block.Open(h.sk, 1)
	b1 := block.CreateBlock(h.sk, h.sigs, block.Ticket{Id: h.id, Slot: 1}, rho1, genesis.Digest(), "b1")
	tree.InsertBlock(b1)
	require.Equal(1, tree.GetBlockHeight(b1.Digest()))

	rho2 := h.lotteries.Block.Open(h.sk, 3)
	b2 := block.CreateBlock(h.sk, h.sigs, block.Ticket{Id: h.id, Slot: 3}, rho2, b1.Digest(), "b2")
	tree.InsertBlock(b2)
	require.Equal(2, tree.GetBlockHeight(b2.Digest()))
}

func TestTruncateBackToSlot(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)

	tree := New()
	genesis := block.Genesis()

	rho1 := h.lotteries.Block.Open(h.sk, 1)
	b1 := block.CreateBlock(h.sk, h.sigs, block.Ticket{Id: h.id, Slot: 1}, rho1, genesis.Digest(), "b1")
	tree.InsertBlock(b1)

	rho5 := h.lotteries.Block.Open(h.sk, 5)
	b5 := block.CreateBlock(h.sk, h.sigs, block.Ticket{Id: h.id, Slot: 5}, rho5, b1.Digest(), "b5")
	tree.InsertBlock(b5)

	require.Equal(b1.Digest(), tree.TruncateBackToSlot(b5.Digest(), 3))
	require.Equal(b5.Digest(), tree.TruncateBackToSlot(b5.Digest(), 5))
	require.Equal(genesis.Digest(), tree.TruncateBackToSlot(b5.Digest(), 0))
}

func TestExpireVotesBeforeRemovesOldVotes(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)

	tree := New()
	genesis := block.Genesis()

	rho1 := h.lotteries.Block.Open(h.sk, 1)
	b1 := block.CreateBlock(h.sk, h.sigs, block.Ticket{Id: h.id, Slot: 1}, rho1, genesis.Digest(), "b1")
	tree.InsertBlock(b1)

	vrho := h.lotteries.Vote.Open(h.sk, 1)
	v := block.CreateVote(h.sk, h.sigs, block.Ticket{Id: h.id, Slot: 1}, vrho, b1.Digest())
	tree.insertVote(v)

	require.Len(tree.votes, 1)
	tree.ExpireVotesBefore(2)
	require.Len(tree.votes, 0)
	for _, vc := range tree.votecount {
		for tk := range vc {
			require.GreaterOrEqual(tk.Slot, block.Slot(2))
		}
	}
}

func TestGhostEphPicksMostVotedChild(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)

	tree := New()
	genesis := block.Genesis()

	rho1 := h.lotteries.Block.Open(h.sk, 1)
	bA := block.CreateBlock(h.sk, h.sigs, block.Ticket{Id: h.id, Slot: 1}, rho1, genesis.Digest(), "A")
	tree.InsertBlock(bA)

	require.Equal(genesis.Digest(), tree.GhostEph(1, 1))

	vrho := h.lotteries.Vote.Open(h.sk, 1)
	v := block.CreateVote(h.sk, h.sigs, block.Ticket{Id: h.id, Slot: 1}, vrho, bA.Digest())
	tree.insertVote(v)

	require.Equal(bA.Digest(), tree.GhostEph(1, 1))
	require.Equal(genesis.Digest(), tree.GhostEph(1, 2))
}

func TestMergeWithoutProposalDrainsBuffer(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)

	tree := New()
	genesis := block.Genesis()

	rho1 := h.lotteries.Block.Open(h.sk, 1)
	b1 := block.CreateBlock(h.sk, h.sigs, block.Ticket{Id: h.id, Slot: 1}, rho1, genesis.Digest(), "b1")

	bb := map[hash.Hash]block.Block{b1.Digest(): b1}
	bv := map[hash.Hash]block.Vote{}

	cache := block.NewMapValidationCache()
	tree.Merge(h.lotteries, h.sigs, cache, h.pki, bb, bv, nil)

	_, ok := tree.GetBlock(b1.Digest())
	require.True(ok)
	require.Len(bb, 0)
}
