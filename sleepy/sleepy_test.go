package sleepy

import (
	"testing"

	"github.com/goldfishsim/goldfish/block"
	"github.com/goldfishsim/goldfish/crypto/sig"
	"github.com/goldfishsim/goldfish/crypto/vrf"
	"github.com/goldfishsim/goldfish/inbox"
	"github.com/goldfishsim/goldfish/lottery"
	"github.com/goldfishsim/goldfish/validator"
	"github.com/stretchr/testify/require"
)

func newLottery(t *testing.T) (block.Lotteries, sig.Scheme, sig.PrivateKey, sig.PublicKey) {
	t.Helper()
	require := require.New(t)

	sigs := sig.NewMockScheme()
	vrfs := vrf.NewSigDerivedScheme(sigs)
	sk, pk, err := sigs.Gen()
	require.NoError(err)

	return block.Lotteries{
		Block: lottery.New("block", 1, vrfs),
		Vote:  lottery.New("vote", 1, vrfs),
	}, sigs, sk, pk
}

func TestSleepingValidatorSkipsStep(t *testing.T) {
	require := require.New(t)
	lotteries, sigs, sk, pk := newLottery(t)

	pki := block.Pki{0: {Sig: pk, Vrf: pk}}
	inner := validator.New(0, sk, sk, pki, sigs, 4, 0.1)

	schedule := make([]ScheduleStatus, 20)
	for r := range schedule {
		schedule[r] = ScheduleAsleep
	}

	v := New(inner, schedule)
	ib := []*inbox.SimulationInbox{inbox.New()}

	v.Step(lotteries, 0, ib, 0)

	stats := v.Stats()
	require.Equal(Asleep, stats[0].Status)
	require.Empty(inner.Stats())
}

func TestRejoiningValidatorGoesThroughDreamyThenAwake(t *testing.T) {
	require := require.New(t)
	lotteries, sigs, sk, pk := newLottery(t)

	pki := block.Pki{0: {Sig: pk, Vrf: pk}}
	inner := validator.New(0, sk, sk, pki, sigs, 4, 0.1)

	schedule := make([]ScheduleStatus, 20)
	for r := range schedule {
		schedule[r] = ScheduleAwake
	}
	schedule[0] = ScheduleAsleep

	v := New(inner, schedule)
	ib := []*inbox.SimulationInbox{inbox.New()}

	for r := int64(0); r < 4; r++ {
		ib[0].DeliverMsgsInflight(r)
		v.Step(lotteries, r, ib, 0)
	}

	stats := v.Stats()
	require.Equal(Asleep, stats[0].Status)
	require.Equal(Dreamy, stats[1].Status)
	require.Equal(Dreamy, stats[2].Status)
	require.Equal(Awake, stats[3].Status)
}
