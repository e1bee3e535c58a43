// Package simrng provides the seeded pseudo-random stream used by round
// resolution. It is a mulberry32 generator: 32-bit state, one add and two
// xor-shift/multiply rounds per draw. The same seed always yields the same
// sequence, which is what makes run replays and test fixtures reproducible.
package simrng

// Source is a single mulberry32 stream. Not safe for concurrent use; each
// round resolution owns its own Source.
type Source struct {
	state uint32
}

// New returns a stream seeded with seed.
func New(seed int32) *Source {
	return &Source{state: uint32(seed)}
}

// Float64 advances the state and returns the next value in [0,1).
func (s *Source) Float64() float64 {
	s.state += 0x6d2b79f5
	t := s.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296
}
