// Package testutils holds helpers shared by tests across packages.
package testutils

import "math"

// SequenceRNG replays a fixed list of unit draws, cycling when exhausted.
// It satisfies domain.RNG and makes sampler edge cases reproducible.
type SequenceRNG struct {
	Values []float64
	pos    int
	Calls  int
}

// NewSequenceRNG returns a generator replaying values.
func NewSequenceRNG(values ...float64) *SequenceRNG {
	return &SequenceRNG{Values: values}
}

func (s *SequenceRNG) next() float64 {
	s.Calls++
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.pos%len(s.Values)]
	s.pos++
	return v
}

// Uniform returns the next value.
func (s *SequenceRNG) Uniform() float64 { return s.next() }

// UniformPos returns the next value, nudging zero up to the smallest
// positive double.
func (s *SequenceRNG) UniformPos() float64 {
	if v := s.next(); v > 0 {
		return v
	}
	return math.SmallestNonzeroFloat64
}

// UniformInt scales the next value into [0, n).
func (s *SequenceRNG) UniformInt(n uint64) uint64 {
	v := uint64(s.next() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}
