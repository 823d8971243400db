package adversary

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

func TestCrashFaultsDrainsInboxWithoutRelaying(t *testing.T) {
	require := require.New(t)

	sigs := sig.NewMockScheme()
	vrfs := vrf.NewSigDerivedScheme(sigs)
	sk, pk, err := sigs.Gen()
	require.NoError(err)

	pki := block.Pki{0: {Sig: pk, Vrf: pk}}
	lotteries := block.Lotteries{
		Block: lottery.New("block", 1, vrfs),
		Vote:  lottery.New("vote", 1, vrfs),
	}

	v := validator.New(0, sk, sk, pki, sigs, 4, 0.1)
	ib := inbox.New()
	other := inbox.New()

	a := NewCrashFaults()
	a.Corrupt(v)

	rho := lotteries.Block.Open(sk, 1)
	b := block.CreateBlock(sk, sigs, block.Ticket{Id: 0, Slot: 1}, rho, block.Genesis().Digest(), "x")
	ib.MakeAvailable(block.MessageOfPiece(block.PieceOfBlock(b)))
	ib.DeliverMsgsInflight(0)

	a.Step(lotteries, 0, []*inbox.SimulationInbox{ib, other}, 0)

	require.Empty(ib.CollectInbox())
	require.Empty(other.CollectInbox())
}
