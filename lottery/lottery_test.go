package lottery

import (
	"math"
	"testing"

	"github.com/goldfishsim/goldfish/crypto/sig"
	"github.com/goldfishsim/goldfish/crypto/vrf"
	"github.com/stretchr/testify/require"
)

func newScheme() vrf.Scheme {
	return vrf.NewSigDerivedScheme(sig.NewMockScheme())
}

func TestProbabilityToThreshold(t *testing.T) {
	require := require.New(t)

	require.Equal(uint64(0), ProbabilityToThreshold(0))
	require.Equal(uint64(0), ProbabilityToThreshold(1e-7))
	require.Equal(uint64(math.MaxUint64), ProbabilityToThreshold(1))
	require.Equal(uint64(math.MaxUint64), ProbabilityToThreshold(1-1e-7))

	half := ProbabilityToThreshold(0.5)
	require.InDelta(float64(math.MaxUint64)/2, float64(half), float64(math.MaxUint64)*0.001)
}

func TestLotteryNeverWinsAtZero(t *testing.T) {
	require := require.New(t)

	s := newScheme()
	sk, pk, err := s.Gen()
	require.NoError(err)

	l := New("vote", 0, s)
	for slot := Slot(0); slot < 50; slot++ {
		rho := l.Open(sk, slot)
		require.False(l.IsWinning(pk, slot, rho))
	}
}

func TestLotteryAlwaysWinsAtOne(t *testing.T) {
	require := require.New(t)

	s := newScheme()
	sk, pk, err := s.Gen()
	require.NoError(err)

	l := New("block", 1, s)
	for slot := Slot(0); slot < 50; slot++ {
		rho := l.Open(sk, slot)
		require.True(l.IsWinning(pk, slot, rho))
	}
}

func TestLotteryHalfProbabilityMatchesThreshold(t *testing.T) {
	require := require.New(t)

	s := newScheme()
	sk, pk, err := s.Gen()
	require.NoError(err)

	l := NewWithThreshold("vote", math.MaxInt64, s)
	for slot := Slot(0); slot < 200; slot++ {
		rho := l.Open(sk, slot)
		require.Equal(rho.Y <= uint64(math.MaxInt64), l.IsWinning(pk, slot, rho))
	}
}

func TestLotteryRejectsWrongKeyOrSlot(t *testing.T) {
	require := require.New(t)

	s := newScheme()
	sk, pk, err := s.Gen()
	require.NoError(err)
	_, otherPk, err := s.Gen()
	require.NoError(err)

	l := New("vote", 1, s)
	rho := l.Open(sk, 3)

	require.True(l.IsWinning(pk, 3, rho))
	require.False(l.IsWinning(otherPk, 3, rho))
	require.False(l.IsWinning(pk, 4, rho))
}

func TestPrioIsY(t *testing.T) {
	require := require.New(t)

	s := newScheme()
	sk, _, err := s.Gen()
	require.NoError(err)

	l := New("block", 0.5, s)
	rho := l.Open(sk, 7)
	require.Equal(rho.Y, Prio(rho))
}

func TestSuccessProbabilityRoundTrips(t *testing.T) {
	require := require.New(t)

	s := newScheme()
	l := New("vote", 0.25, s)
	require.InDelta(0.25, l.SuccessProbability(), 0.001)
}
