// Package hyperparameter defines the named, typed axes of a configuration
// space. Each variant owns its membership predicate, its canonical value
// normalization and the way raw distribution samples map back to values.
package hyperparameter

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/distribution"
)

// Type identifies a hyperparameter variant.
type Type int

// Hyperparameter variants.
const (
	TypeNumerical Type = iota
	TypeCategorical
	TypeOrdinal
	TypeDiscrete
	TypeString
)

// String returns the lowercase variant name.
func (t Type) String() string {
	switch t {
	case TypeNumerical:
		return "numerical"
	case TypeCategorical:
		return "categorical"
	case TypeOrdinal:
		return "ordinal"
	case TypeDiscrete:
		return "discrete"
	case TypeString:
		return "string"
	default:
		return "hyperparameter_type(" + strconv.Itoa(int(t)) + ")"
	}
}

// Hyperparameter is one named domain. Implementations are immutable after
// construction and may be shared between spaces.
type Hyperparameter interface {
	// Name returns the identifier, unique within a space.
	Name() string

	// Type returns the variant.
	Type() Type

	// UserData returns the opaque value attached at construction.
	UserData() any

	// DefaultValue returns a member of the domain.
	DefaultValue() domain.Value

	// DefaultDistribution returns a distribution whose support matches
	// SamplingInterval.
	DefaultDistribution() (distribution.Distribution, error)

	// SamplingInterval returns the numeric range samples must land in to
	// be converted. Unsampleable domains return an empty interval.
	SamplingInterval() domain.Interval

	// Check reports whether v is already a canonical member.
	Check(v domain.Value) bool

	// CheckValues applies Check to every value.
	CheckValues(vs []domain.Value) []bool

	// Validate normalizes v into the canonical member form. Non-members
	// yield an inactive value and false.
	Validate(v domain.Value) (domain.Value, bool)

	// ValidateValues applies Validate to every value.
	ValidateValues(vs []domain.Value) ([]domain.Value, []bool)

	// ConvertSamples maps raw samples to values one to one. When
	// oversampling is set, samples outside SamplingInterval become
	// inactive values.
	ConvertSamples(oversampling bool, samples []domain.Numeric) []domain.Value

	// Sample draws one value from d.
	Sample(d distribution.Distribution, rng domain.RNG) (domain.Value, error)

	// Samples draws n values from d, rejecting out of range draws.
	Samples(d distribution.Distribution, rng domain.RNG, n int) ([]domain.Value, error)
}

// maxOversamplingCoefficient caps the batch growth of rejection sampling.
const maxOversamplingCoefficient = 32

var namePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z_0-9]*$`)

// ValidName reports whether name is a legal identifier.
func ValidName(name string) bool { return namePattern.MatchString(name) }

// Option configures optional hyperparameter fields.
type Option func(*base)

// WithUserData attaches an opaque value returned by UserData.
func WithUserData(data any) Option {
	return func(b *base) { b.userData = data }
}

// base holds the fields every variant shares.
type base struct {
	name         string
	userData     any
	defaultValue domain.Value
	interval     domain.Interval
}

func newBase(kind Type, name string, opts []Option) (base, error) {
	if !ValidName(name) {
		return base{}, domain.NewOperationError(kind.String()+" hyperparameter", name, "create",
			fmt.Errorf("name must match %s: %w", namePattern, domain.ErrInvalidName))
	}
	b := base{name: name}
	for _, opt := range opts {
		opt(&b)
	}
	return b, nil
}

func (b *base) Name() string { return b.name }

func (b *base) UserData() any { return b.userData }

func (b *base) DefaultValue() domain.Value { return b.defaultValue }

func (b *base) SamplingInterval() domain.Interval { return b.interval }

// converter is the variant specific half of sampling.
type converter interface {
	Name() string
	SamplingInterval() domain.Interval
	ConvertSamples(oversampling bool, samples []domain.Numeric) []domain.Value
}

// sampleValues draws n values through c. When the distribution support
// exceeds the sampling interval, rejected draws are replaced by fresh
// batches that double in size each round; after the coefficient passes
// maxOversamplingCoefficient sampling gives up.
func sampleValues(c converter, d distribution.Distribution, rng domain.RNG, n int) ([]domain.Value, error) {
	switch {
	case d == nil:
		return nil, fmt.Errorf("sample %s: nil distribution: %w", c.Name(), domain.ErrInvalidObject)
	case rng == nil:
		return nil, fmt.Errorf("sample %s: nil rng: %w", c.Name(), domain.ErrInvalidObject)
	case n < 0:
		return nil, fmt.Errorf("sample %s: negative count %d: %w", c.Name(), n, domain.ErrInvalidValue)
	case d.Dimension() != 1:
		return nil, fmt.Errorf("sample %s: distribution has dimension %d: %w", c.Name(), d.Dimension(), domain.ErrInvalidDistribution)
	}
	interval := c.SamplingInterval()
	if interval.Empty() {
		return nil, fmt.Errorf("sample %s: %w", c.Name(), domain.ErrUnsupportedOperation)
	}
	if d.DataTypes()[0] != interval.Type {
		return nil, fmt.Errorf("sample %s: %s distribution for %s domain: %w",
			c.Name(), d.DataTypes()[0], interval.Type, domain.ErrInvalidDistribution)
	}
	over, err := d.CheckOversampling([]domain.Interval{interval})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Value, 0, n)
	draw := func(count int) error {
		raw := make([]domain.Numeric, count)
		if err := d.Samples(rng, count, raw); err != nil {
			return err
		}
		for _, v := range c.ConvertSamples(over[0], raw) {
			if len(out) == n {
				break
			}
			if !v.IsInactive() {
				out = append(out, v)
			}
		}
		return nil
	}

	if err := draw(n); err != nil {
		return nil, err
	}
	for coeff := 2; len(out) < n; coeff <<= 1 {
		if coeff > maxOversamplingCoefficient {
			return nil, fmt.Errorf("sample %s: %d of %d values after oversampling: %w",
				c.Name(), len(out), n, domain.ErrSamplingUnsuccessful)
		}
		if err := draw((n - len(out)) * coeff); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func sampleOne(c converter, d distribution.Distribution, rng domain.RNG) (domain.Value, error) {
	vs, err := sampleValues(c, d, rng, 1)
	if err != nil {
		return domain.Value{}, err
	}
	return vs[0], nil
}

func checkAll(check func(domain.Value) bool, vs []domain.Value) []bool {
	out := make([]bool, len(vs))
	for i, v := range vs {
		out[i] = check(v)
	}
	return out
}

func validateAll(validate func(domain.Value) (domain.Value, bool), vs []domain.Value) ([]domain.Value, []bool) {
	values := make([]domain.Value, len(vs))
	ok := make([]bool, len(vs))
	for i, v := range vs {
		values[i], ok[i] = validate(v)
	}
	return values, ok
}
