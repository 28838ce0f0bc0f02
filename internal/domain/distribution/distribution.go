// Package distribution turns raw generator output into numeric samples that
// honor an interval, an optional quantization step and an optional
// logarithmic scale. Every distribution offers contiguous, strided and
// column-major sampling with identical semantics.
package distribution

import (
	"fmt"
	"strconv"

	"github.com/ahrav/go-configspace/internal/domain"
)

// Type identifies a distribution variant.
type Type int

// Distribution variants.
const (
	TypeUniform Type = iota
	TypeNormal
	TypeRoulette
	TypeMultivariate
)

// String returns the lowercase variant name.
func (t Type) String() string {
	switch t {
	case TypeUniform:
		return "uniform"
	case TypeNormal:
		return "normal"
	case TypeRoulette:
		return "roulette"
	case TypeMultivariate:
		return "multivariate"
	default:
		return "distribution_type(" + strconv.Itoa(int(t)) + ")"
	}
}

// Scale selects linear or logarithmic sampling.
type Scale int

// Scales.
const (
	ScaleLinear Scale = iota
	ScaleLogarithmic
)

// String returns "linear" or "logarithmic".
func (s Scale) String() string {
	switch s {
	case ScaleLinear:
		return "linear"
	case ScaleLogarithmic:
		return "logarithmic"
	default:
		return "scale(" + strconv.Itoa(int(s)) + ")"
	}
}

func (s Scale) valid() bool { return s == ScaleLinear || s == ScaleLogarithmic }

// Distribution is a sampling recipe over Dimension() numeric axes.
// Distributions are immutable once created and safe to share between
// hyperparameters and spaces.
type Distribution interface {
	// Type returns the variant.
	Type() Type

	// Dimension returns the number of numeric cells per draw.
	Dimension() int

	// DataTypes returns the numeric type of each dimension.
	DataTypes() []domain.NumericType

	// Bounds returns the support of each dimension.
	Bounds() []domain.Interval

	// CheckOversampling reports, per dimension, whether the support exceeds
	// the given interval so that callers must reject draws.
	CheckOversampling(intervals []domain.Interval) ([]bool, error)

	// Sample draws a single point of Dimension() cells.
	Sample(rng domain.RNG) ([]domain.Numeric, error)

	// Samples writes n points contiguously (row-major) into dst, which must
	// hold n*Dimension() cells.
	Samples(rng domain.RNG, n int, dst []domain.Numeric) error

	// StridedSamples writes n points into dst with stride cells between the
	// starts of successive points.
	StridedSamples(rng domain.RNG, n, stride int, dst []domain.Numeric) error

	// SoaSamples writes n points column-major: dst holds one destination per
	// dimension. Nil destinations are skipped.
	SoaSamples(rng domain.RNG, n int, dst [][]domain.Numeric) error
}

// checkOversampling compares bounds against target intervals dimension by
// dimension.
func checkOversampling(bounds, intervals []domain.Interval) ([]bool, error) {
	if len(intervals) != len(bounds) {
		return nil, fmt.Errorf("expected %d intervals, got %d: %w", len(bounds), len(intervals), domain.ErrInvalidValue)
	}
	out := make([]bool, len(bounds))
	for i := range bounds {
		out[i] = !intervals[i].Contains(bounds[i])
	}
	return out, nil
}

// checkStrided validates the arguments shared by every strided sampler.
func checkStrided(rng domain.RNG, n, stride, dim, size int) error {
	if rng == nil {
		return fmt.Errorf("nil rng: %w", domain.ErrInvalidObject)
	}
	if n < 0 {
		return fmt.Errorf("negative sample count %d: %w", n, domain.ErrInvalidValue)
	}
	if stride < dim {
		return fmt.Errorf("stride %d below dimension %d: %w", stride, dim, domain.ErrInvalidValue)
	}
	if n > 0 && size < (n-1)*stride+dim {
		return fmt.Errorf("destination holds %d cells, %d required: %w", size, (n-1)*stride+dim, domain.ErrInvalidValue)
	}
	return nil
}

// checkSoa validates column-major destinations.
func checkSoa(rng domain.RNG, n, dim int, dst [][]domain.Numeric) error {
	if rng == nil {
		return fmt.Errorf("nil rng: %w", domain.ErrInvalidObject)
	}
	if n < 0 {
		return fmt.Errorf("negative sample count %d: %w", n, domain.ErrInvalidValue)
	}
	if len(dst) != dim {
		return fmt.Errorf("expected %d destinations, got %d: %w", dim, len(dst), domain.ErrInvalidValue)
	}
	for i, d := range dst {
		if d != nil && len(d) < n {
			return fmt.Errorf("destination %d holds %d cells, %d required: %w", i, len(d), n, domain.ErrInvalidValue)
		}
	}
	return nil
}

// scalar carries what single-dimension distributions have in common and
// derives the three sampling layouts from one strided kernel.
type scalar struct {
	dataType     domain.NumericType
	scale        Scale
	quantization domain.Numeric
	bounds       domain.Interval
	kernel       func(rng domain.RNG, n, stride int, dst []domain.Numeric)
}

func (s *scalar) Dimension() int { return 1 }

func (s *scalar) DataTypes() []domain.NumericType { return []domain.NumericType{s.dataType} }

func (s *scalar) Bounds() []domain.Interval { return []domain.Interval{s.bounds} }

// DataType returns the numeric type of the single dimension.
func (s *scalar) DataType() domain.NumericType { return s.dataType }

// Scale returns the sampling scale.
func (s *scalar) Scale() Scale { return s.scale }

// Quantization returns the quantization step; zero means none.
func (s *scalar) Quantization() domain.Numeric { return s.quantization }

func (s *scalar) CheckOversampling(intervals []domain.Interval) ([]bool, error) {
	return checkOversampling(s.Bounds(), intervals)
}

func (s *scalar) Sample(rng domain.RNG) ([]domain.Numeric, error) {
	out := make([]domain.Numeric, 1)
	if err := s.Samples(rng, 1, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *scalar) Samples(rng domain.RNG, n int, dst []domain.Numeric) error {
	return s.StridedSamples(rng, n, 1, dst)
}

func (s *scalar) StridedSamples(rng domain.RNG, n, stride int, dst []domain.Numeric) error {
	if err := checkStrided(rng, n, stride, 1, len(dst)); err != nil {
		return err
	}
	s.kernel(rng, n, stride, dst)
	return nil
}

func (s *scalar) SoaSamples(rng domain.RNG, n int, dst [][]domain.Numeric) error {
	if err := checkSoa(rng, n, 1, dst); err != nil {
		return err
	}
	if dst[0] == nil {
		return nil
	}
	s.kernel(rng, n, 1, dst[0])
	return nil
}
