package hyperparameter

import (
	"fmt"

	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/distribution"
)

var _ Hyperparameter = (*String)(nil)

// String accepts any string. It describes fixed context such as feature
// names and cannot be sampled.
type String struct {
	base
}

// NewString creates a string hyperparameter whose default is "".
func NewString(name string, opts ...Option) (*String, error) {
	b, err := newBase(TypeString, name, opts)
	if err != nil {
		return nil, err
	}
	b.defaultValue = domain.String("")
	b.interval = domain.EmptyInterval()
	return &String{base: b}, nil
}

// Type implements Hyperparameter.
func (h *String) Type() Type { return TypeString }

// DefaultDistribution always fails: strings have no numeric encoding.
func (h *String) DefaultDistribution() (distribution.Distribution, error) {
	return nil, fmt.Errorf("string hyperparameter %s has no distribution: %w", h.name, domain.ErrUnsupportedOperation)
}

// Check implements Hyperparameter.
func (h *String) Check(v domain.Value) bool { return v.Kind() == domain.KindString }

// CheckValues implements Hyperparameter.
func (h *String) CheckValues(vs []domain.Value) []bool { return checkAll(h.Check, vs) }

// Validate implements Hyperparameter. Transient strings are memoized.
func (h *String) Validate(v domain.Value) (domain.Value, bool) {
	if v.Kind() != domain.KindString {
		return domain.Inactive(), false
	}
	if v.Flags()&domain.FlagTransient != 0 {
		return memoize(v), true
	}
	return v.WithFlags(0), true
}

// ValidateValues implements Hyperparameter.
func (h *String) ValidateValues(vs []domain.Value) ([]domain.Value, []bool) {
	return validateAll(h.Validate, vs)
}

// ConvertSamples marks every sample inactive.
func (h *String) ConvertSamples(_ bool, samples []domain.Numeric) []domain.Value {
	out := make([]domain.Value, len(samples))
	for i := range out {
		out[i] = domain.Inactive()
	}
	return out
}

// Sample always fails with ErrUnsupportedOperation.
func (h *String) Sample(distribution.Distribution, domain.RNG) (domain.Value, error) {
	return domain.Value{}, fmt.Errorf("sample string hyperparameter %s: %w", h.name, domain.ErrUnsupportedOperation)
}

// Samples always fails with ErrUnsupportedOperation.
func (h *String) Samples(distribution.Distribution, domain.RNG, int) ([]domain.Value, error) {
	return nil, fmt.Errorf("sample string hyperparameter %s: %w", h.name, domain.ErrUnsupportedOperation)
}
