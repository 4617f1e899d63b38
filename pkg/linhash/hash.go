package linhash

import (
	"mahash/pkg/bits"

	"github.com/cespare/xxhash"
	"github.com/spaolacci/murmur3"
)

// hashBytes computes a deterministic, MaxBits-wide word from an arbitrary
// byte string, for use as a per-attribute hash. It mixes two independent,
// non-cryptographic hash functions (xxHash and MurmurHash3) so that a
// weakness in either alone doesn't directly become a weakness in bucket
// addressing; the mix is then folded down to MaxBits, giving the
// "Bob-Jenkins-style" bit diffusion the composite hash needs to keep linear
// hashing's bucket load roughly uniform.
func hashBytes(b []byte) bits.Word {
	h1 := xxhash.Sum64(b)
	h2 := murmur3.Sum64(b)
	mixed := h1 ^ (h2 + 0x9e3779b97f4a7c15 + (h1 << 6) + (h1 >> 2))
	folded := uint32(mixed) ^ uint32(mixed>>32)
	return bits.Word(folded)
}
