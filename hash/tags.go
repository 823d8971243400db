package hash

// Domain tags separate digests of different message kinds so that identical
// inner bytes can never collide across kinds: block, vote, proposal and
// piece digests are always distinguishable.
var (
	TagPayload  = []byte("payload")
	TagBlock    = []byte("block")
	TagVote     = []byte("vote")
	TagProposal = []byte("proposal")
	TagPiece    = []byte("piece")
	TagMessage  = []byte("message")
)
