package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSumDeterministic(t *testing.T) {
	require := require.New(t)

	a := Sum([]byte("hello"))
	b := Sum([]byte("hello"))
	require.Equal(a, b)

	c := Sum([]byte("world"))
	require.NotEqual(a, c)
}

func TestHasherDomainSeparation(t *testing.T) {
	require := require.New(t)

	var h1, h2 Hasher
	h1.Update(TagBlock)
	h1.Update([]byte("same-bytes"))

	h2.Update(TagVote)
	h2.Update([]byte("same-bytes"))

	require.NotEqual(h1.Sum(), h2.Sum())
}

func TestExtractFirstU64(t *testing.T) {
	require := require.New(t)

	h := Hash{1, 0, 0, 0, 0, 0, 0, 0}
	require.Equal(uint64(1), h.ExtractFirstU64())

	h2 := Hash{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	require.Equal(uint64(1<<64-1), h2.ExtractFirstU64())
}

func TestEmptyIsZero(t *testing.T) {
	require := require.New(t)
	require.Equal(Hash{}, Empty)
}
