package distribution

import (
	"fmt"
	"math"
	"sort"

	"github.com/ahrav/go-configspace/internal/domain"
)

var _ Distribution = (*Roulette)(nil)

// Roulette draws an integer index in [0, len(areas)) with probability
// proportional to the area of each slot.
type Roulette struct {
	scalar
	areas      []float64
	cumulative []float64
}

// NewRoulette creates a roulette wheel. Areas must be finite and
// non-negative with a positive, finite sum.
func NewRoulette(areas []float64) (*Roulette, error) {
	if len(areas) == 0 {
		return nil, fmt.Errorf("roulette needs at least one area: %w", domain.ErrInvalidValue)
	}
	var sum float64
	last := -1
	for i, a := range areas {
		if math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
			return nil, fmt.Errorf("roulette area %d is %g: %w", i, a, domain.ErrInvalidValue)
		}
		if a > 0 {
			last = i
		}
		sum += a
	}
	if last < 0 || math.IsInf(sum, 0) {
		return nil, fmt.Errorf("roulette area sum %g: %w", sum, domain.ErrInvalidValue)
	}

	r := &Roulette{areas: append([]float64(nil), areas...), cumulative: make([]float64, len(areas))}
	var acc float64
	for i, a := range areas {
		acc += a / sum
		r.cumulative[i] = acc
	}
	// Rounding must not leave a gap below 1 that no slot claims.
	for i := last; i < len(r.cumulative); i++ {
		r.cumulative[i] = 1
	}

	r.dataType, r.scale = domain.NumInteger, ScaleLinear
	r.bounds = domain.Interval{Type: domain.NumInteger, Lower: domain.IntNumeric(0),
		Upper: domain.IntNumeric(int64(len(areas))), LowerIncluded: true}
	r.kernel = r.spin
	return r, nil
}

// Type implements Distribution.
func (r *Roulette) Type() Type { return TypeRoulette }

// Areas returns a copy of the slot areas.
func (r *Roulette) Areas() []float64 { return append([]float64(nil), r.areas...) }

func (r *Roulette) spin(rng domain.RNG, n, stride int, dst []domain.Numeric) {
	for i := 0; i < n; i++ {
		u := rng.Uniform()
		idx := sort.Search(len(r.cumulative), func(j int) bool { return r.cumulative[j] > u })
		if idx == len(r.cumulative) {
			idx--
		}
		dst[i*stride] = domain.IntNumeric(int64(idx))
	}
}
