// Package rng provides the seedable pseudorandom source handed to
// configuration spaces and samplers.
package rng

import (
	"math/rand/v2"

	"github.com/ahrav/go-configspace/internal/domain"
)

// Compile-time interface compliance check.
var _ domain.RNG = (*PCG)(nil)

// PCG is a domain.RNG backed by the permuted congruential generator from
// math/rand/v2. It is not safe for concurrent use; every configuration
// space owns its own instance.
type PCG struct {
	src  *rand.PCG
	r    *rand.Rand
	seed uint64
}

// New returns a generator seeded with seed.
func New(seed uint64) *PCG {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &PCG{src: src, r: rand.New(src), seed: seed}
}

// NewRandom returns a generator seeded from the runtime's random source.
func NewRandom() *PCG {
	//nolint:gosec // G404: sampling seeds are not security sensitive.
	return New(rand.Uint64())
}

// Factory adapts New to the option signature used by spaces.
func Factory(seed uint64) func() domain.RNG {
	return func() domain.RNG { return New(seed) }
}

// Seed resets the generator to the state it had right after New(seed).
func (p *PCG) Seed(seed uint64) {
	p.src.Seed(seed, seed^0x9e3779b97f4a7c15)
	p.seed = seed
}

// SeedValue returns the last seed applied.
func (p *PCG) SeedValue() uint64 { return p.seed }

// Uniform returns a double in [0, 1).
func (p *PCG) Uniform() float64 { return p.r.Float64() }

// UniformPos returns a double in (0, 1).
func (p *PCG) UniformPos() float64 {
	for {
		if u := p.r.Float64(); u != 0 {
			return u
		}
	}
}

// UniformInt returns an integer in [0, n). n must be positive.
func (p *PCG) UniformInt(n uint64) uint64 { return p.r.Uint64N(n) }
