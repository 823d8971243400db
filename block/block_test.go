package block

import (
	"testing"

	"github.com/goldfishsim/goldfish/crypto/sig"
	"github.com/goldfishsim/goldfish/crypto/vrf"
	"github.com/goldfishsim/goldfish/hash"
	"github.com/goldfishsim/goldfish/lottery"
	"github.com/stretchr/testify/require"
)

type fakeBvSet struct {
	blocks map[hash.Hash]Block
}

func newFakeBvSet() *fakeBvSet { return &fakeBvSet{blocks: make(map[hash.Hash]Block)} }

func (f *fakeBvSet) put(b Block) { f.blocks[b.Digest()] = b }

func (f *fakeBvSet) GetBlock(h hash.Hash) (Block, bool) {
	b, ok := f.blocks[h]
	return b, ok
}

func (f *fakeBvSet) GetVote(hash.Hash) (Vote, bool) { return Vote{}, false }

func testHarness(t *testing.T) (sig.Scheme, vrf.Scheme, Lotteries, Pki, Id, sig.PrivateKey) {
	t.Helper()
	require := require.New(t)

	sigs := sig.NewMockScheme()
	vrfs := vrf.NewSigDerivedScheme(sigs)

	// SigDerivedScheme wraps sigs directly, so a single keypair serves both
	// signature and VRF roles.
	sk, pk, err := sigs.Gen()
	require.NoError(err)

	lotteries := Lotteries{
		Block: lottery.New("block", 1, vrfs),
		Vote:  lottery.New("vote", 1, vrfs),
	}
	pki := Pki{1: {Sig: pk, Vrf: pk}}
	return sigs, vrfs, lotteries, pki, 1, sk
}

func TestBlockValidatesAgainstParent(t *testing.T) {
	require := require.New(t)
	sigs, _, lotteries, pki, id, sk := testHarness(t)

	bvset := newFakeBvSet()
	genesis := Genesis()
	bvset.put(genesis)

	rho := lotteries.Block.Open(sk, 1)
	b := CreateBlock(sk, sigs, Ticket{Id: id, Slot: 1}, rho, genesis.Digest(), "hello")
	bvset.put(b)

	cache := NewMapValidationCache()
	require.Equal(Valid, b.IsValid(lotteries, sigs, cache, pki, bvset))
}

func TestBlockUnknownParentIsUnknown(t *testing.T) {
	require := require.New(t)
	sigs, _, lotteries, pki, id, sk := testHarness(t)

	bvset := newFakeBvSet()
	rho := lotteries.Block.Open(sk, 1)
	dangling := hash.Hash{0xAB}
	b := CreateBlock(sk, sigs, Ticket{Id: id, Slot: 1}, rho, dangling, "x")

	cache := NewMapValidationCache()
	require.Equal(Unknown, b.IsValid(lotteries, sigs, cache, pki, bvset))
}

func TestBlockSlotMustExceedParent(t *testing.T) {
	require := require.New(t)
	sigs, _, lotteries, pki, id, sk := testHarness(t)

	bvset := newFakeBvSet()
	genesis := Genesis()
	bvset.put(genesis)

	// Slot 0 can never exceed genesis's slot (0), so this must be invalid
	// regardless of lottery/signature validity.
	rho := lotteries.Block.Open(sk, 0)
	b := CreateBlock(sk, sigs, Ticket{Id: id, Slot: 0}, rho, genesis.Digest(), "x")

	cache := NewMapValidationCache()
	require.Equal(Invalid, b.IsValid(lotteries, sigs, cache, pki, bvset))
}

func TestBlockDigestDomainSeparatedFromVote(t *testing.T) {
	require := require.New(t)
	sigs, _, lotteries, _, id, sk := testHarness(t)
	_ = lotteries

	rho := lottery.Opening{Y: 0, Proof: nil}
	genesis := Genesis()
	b := CreateBlock(sk, sigs, Ticket{Id: id, Slot: 1}, rho, genesis.Digest(), "")
	v := CreateVote(sk, sigs, Ticket{Id: id, Slot: 1}, rho, genesis.Digest())

	require.NotEqual(b.Digest(), v.Digest())
}

func TestCacheNeverRemembersUnknown(t *testing.T) {
	require := require.New(t)
	sigs, _, lotteries, pki, id, sk := testHarness(t)

	bvset := newFakeBvSet()
	rho := lotteries.Block.Open(sk, 1)
	dangling := hash.Hash{0xCD}
	b := CreateBlock(sk, sigs, Ticket{Id: id, Slot: 1}, rho, dangling, "x")

	cache := NewMapValidationCache()
	require.Equal(Unknown, b.IsValid(lotteries, sigs, cache, pki, bvset))
	_, cached := cache.Get(b.Digest())
	require.False(cached)
}

func TestUnionValidationCacheReadsThroughToRo(t *testing.T) {
	require := require.New(t)

	ro := NewMapValidationCache()
	var h hash.Hash
	h[0] = 7
	ro.Insert(h, Valid)

	rw := NewMapValidationCache()
	union := NewUnionValidationCache(ro, rw)

	r, ok := union.Get(h)
	require.True(ok)
	require.Equal(Valid, r)

	var h2 hash.Hash
	h2[0] = 8
	union.Insert(h2, Invalid)
	_, roHas := ro.Get(h2)
	require.False(roHas)
	r2, rwHas := rw.Get(h2)
	require.True(rwHas)
	require.Equal(Invalid, r2)
}

func TestRoValidationCacheDropsInserts(t *testing.T) {
	require := require.New(t)

	backing := NewMapValidationCache()
	ro := NewRoValidationCache(backing)

	var h hash.Hash
	ro.Insert(h, Valid)
	_, ok := backing.Get(h)
	require.False(ok)
}
