// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package hash implements the 32-byte content hash used to address blocks,
// votes, proposals and messages across the simulator.
package hash

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/zeebo/blake3"
)

// Size is the length in bytes of a Hash.
const Size = 32

// Hash is an opaque, collision-resistant 32-byte content identifier.
type Hash [Size]byte

// Less reports whether a sorts before b in lexicographic byte order. Used
// wherever a tie between otherwise-equal candidates must be broken
// deterministically (GHOST child selection, minimum-priority proposal
// selection), per spec.md §9's "lexicographic hash order" tie-break rule.
func Less(a, b Hash) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

// Empty is the zero hash, never produced by Sum or a Hasher in normal use.
var Empty Hash

// Sum hashes m directly, with no domain tag. Callers that need domain
// separation should go through a Hasher and Update with a tag first.
func Sum(m []byte) Hash {
	var h Hasher
	h.Update(m)
	return h.Sum()
}

// ExtractFirstU64 reads the leading 8 bytes of the hash as a little-endian
// uint64. Used by the VRF lottery to turn an opening into a priority value.
func (h Hash) ExtractFirstU64() uint64 {
	return uint64(h[0]) | uint64(h[1])<<8 | uint64(h[2])<<16 | uint64(h[3])<<24 |
		uint64(h[4])<<32 | uint64(h[5])<<40 | uint64(h[6])<<48 | uint64(h[7])<<56
}

// Bytes returns the hash as a byte slice.
func (h Hash) Bytes() []byte {
	return h[:]
}

// String renders a short, human-readable form (first 10 base64 chars),
// matching the debug formatting the Rust original used for Ghash.
func (h Hash) String() string {
	return base64.RawStdEncoding.EncodeToString(h[:])[:10]
}

// GoString supports %#v / debug printing with the same short form as String.
func (h Hash) GoString() string {
	return fmt.Sprintf("H(%s)", h.String())
}

// Hasher accumulates domain-tagged input and produces a Hash. Domain tags
// (e.g. "block", "vote", "proposal", "piece", "message", "payload") must be
// the first Update call so that messages of different kinds never collide
// even with identical inner content.
type Hasher struct {
	h *blake3.Hasher
}

func (h *Hasher) lazyInit() {
	if h.h == nil {
		h.h = blake3.New()
	}
}

// Update appends m to the hash state.
func (h *Hasher) Update(m []byte) {
	h.lazyInit()
	_, _ = h.h.Write(m)
}

// UpdateUint64 appends the little-endian encoding of v.
func (h *Hasher) UpdateUint64(v uint64) {
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(v >> (8 * i))
	}
	h.Update(buf[:])
}

// Sum finalizes the hash. The Hasher remains usable afterward (blake3
// supports repeated Sum calls), mirroring the Rust `Ghasher: From<Ghasher>`
// conversion which consumed the hasher once — callers here should treat a
// Hasher as single-use by convention even though Sum is not destructive.
func (h *Hasher) Sum() Hash {
	h.lazyInit()
	var out Hash
	sum := h.h.Sum(nil)
	copy(out[:], sum)
	return out
}
