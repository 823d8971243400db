package block

import (
	"crypto/rand"

	"github.com/goldfishsim/goldfish/hash"
)

// PayloadSize is the fixed size in bytes of a block's opaque data blob,
// matching the Rust original's BLOCK_SIZE constant.
const PayloadSize = 80_000

// Payload is a block's opaque content: a human-readable graffiti tag plus a
// fixed-size data blob standing in for a real transaction set.
type Payload struct {
	Graffiti string
	Data     [PayloadSize]byte
}

func (p *Payload) updateHasher(h *hash.Hasher) {
	h.Update(hash.TagPayload)
	h.Update(p.Data[:])
	h.Update([]byte(p.Graffiti))
}

// RandomPayload returns a Payload carrying graffiti and random data, as a
// stand-in for a built transaction batch.
func RandomPayload(graffiti string) Payload {
	var p Payload
	p.Graffiti = graffiti
	_, _ = rand.Read(p.Data[:])
	return p
}
