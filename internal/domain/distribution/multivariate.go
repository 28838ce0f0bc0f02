package distribution

import (
	"fmt"

	"github.com/ahrav/go-configspace/internal/domain"
)

var _ Distribution = (*Multivariate)(nil)

// Multivariate samples a tuple of independent child distributions whose
// dimensions are laid out one after the other.
type Multivariate struct {
	children  []Distribution
	offsets   []int
	dimension int
	dataTypes []domain.NumericType
	bounds    []domain.Interval
}

// NewMultivariate composes children in order. At least one child is
// required and none may be nil.
func NewMultivariate(children ...Distribution) (*Multivariate, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("multivariate needs at least one child: %w", domain.ErrInvalidValue)
	}
	m := &Multivariate{
		children: append([]Distribution(nil), children...),
		offsets:  make([]int, len(children)),
	}
	for i, c := range children {
		if c == nil {
			return nil, fmt.Errorf("multivariate child %d is nil: %w", i, domain.ErrInvalidObject)
		}
		m.offsets[i] = m.dimension
		m.dimension += c.Dimension()
		m.dataTypes = append(m.dataTypes, c.DataTypes()...)
		m.bounds = append(m.bounds, c.Bounds()...)
	}
	return m, nil
}

// Type implements Distribution.
func (m *Multivariate) Type() Type { return TypeMultivariate }

// Dimension implements Distribution.
func (m *Multivariate) Dimension() int { return m.dimension }

// DataTypes implements Distribution.
func (m *Multivariate) DataTypes() []domain.NumericType {
	return append([]domain.NumericType(nil), m.dataTypes...)
}

// Bounds implements Distribution.
func (m *Multivariate) Bounds() []domain.Interval { return append([]domain.Interval(nil), m.bounds...) }

// Distributions returns the child distributions in order.
func (m *Multivariate) Distributions() []Distribution {
	return append([]Distribution(nil), m.children...)
}

// CheckOversampling implements Distribution.
func (m *Multivariate) CheckOversampling(intervals []domain.Interval) ([]bool, error) {
	return checkOversampling(m.bounds, intervals)
}

// Sample implements Distribution.
func (m *Multivariate) Sample(rng domain.RNG) ([]domain.Numeric, error) {
	out := make([]domain.Numeric, m.dimension)
	if err := m.Samples(rng, 1, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Samples implements Distribution.
func (m *Multivariate) Samples(rng domain.RNG, n int, dst []domain.Numeric) error {
	return m.StridedSamples(rng, n, m.dimension, dst)
}

// StridedSamples implements Distribution. Each child writes its own
// dimensions at its offset inside every point.
func (m *Multivariate) StridedSamples(rng domain.RNG, n, stride int, dst []domain.Numeric) error {
	if err := checkStrided(rng, n, stride, m.dimension, len(dst)); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	for i, c := range m.children {
		if err := c.StridedSamples(rng, n, stride, dst[m.offsets[i]:]); err != nil {
			return fmt.Errorf("multivariate child %d: %w", i, err)
		}
	}
	return nil
}

// SoaSamples implements Distribution.
func (m *Multivariate) SoaSamples(rng domain.RNG, n int, dst [][]domain.Numeric) error {
	if err := checkSoa(rng, n, m.dimension, dst); err != nil {
		return err
	}
	for i, c := range m.children {
		off := m.offsets[i]
		if err := c.SoaSamples(rng, n, dst[off:off+c.Dimension()]); err != nil {
			return fmt.Errorf("multivariate child %d: %w", i, err)
		}
	}
	return nil
}
