// Package fastrand provides a fast non-cryptographic random number
// generator for weighted draws and DNS transaction IDs.
package fastrand

import (
	"math/bits"
	_ "unsafe"
)

//go:linkname seed runtime.fastrand64
func seed() uint64

// Fastrand is a fast random number generator based on wyrand.
//
// The zero value is a valid deterministic generator.
// Use [New] to obtain a randomly seeded one.
type Fastrand uint64

// New returns a new [Fastrand] seeded from the Go runtime's fastrand.
func New() Fastrand {
	return Fastrand(seed())
}

// Uint64 returns a random uint64.
func (f *Fastrand) Uint64() uint64 {
	*f += 0xa0761d6478bd642f
	hi, lo := bits.Mul64(uint64(*f), uint64(*f^0xe7037ed1a0b428db))
	return hi ^ lo
}

// Uint64n returns a random uint64 in [0, n).
// It panics if n is 0.
func (f *Fastrand) Uint64n(n uint64) uint64 {
	if n == 0 {
		panic("fastrand: Uint64n with n == 0")
	}

	// Lemire's multiply-shift reduction with a rejection pass
	// to remove the modulo bias.
	hi, lo := bits.Mul64(f.Uint64(), n)
	if lo < n {
		thresh := -n % n
		for lo < thresh {
			hi, lo = bits.Mul64(f.Uint64(), n)
		}
	}
	return hi
}

// Uint32n returns a random uint32 in [0, n).
// It panics if n is 0.
func (f *Fastrand) Uint32n(n uint32) uint32 {
	return uint32(f.Uint64n(uint64(n)))
}

// Uint16 returns a random uint16.
func (f *Fastrand) Uint16() uint16 {
	return uint16(f.Uint64())
}
