package hyperparameter

import (
	"fmt"
	"unique"

	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/distribution"
)

var (
	_ Hyperparameter = (*Categorical)(nil)
	_ Hyperparameter = (*Ordinal)(nil)
	_ Hyperparameter = (*Discrete)(nil)
)

// indexed is a finite, ordered list of permitted values sampled through
// their index in [0, count).
type indexed struct {
	base
	kind   Type
	values []domain.Value
}

func newIndexed(kind Type, name string, values []domain.Value, defaultIndex int, opts []Option) (indexed, error) {
	b, err := newBase(kind, name, opts)
	if err != nil {
		return indexed{}, err
	}
	entity := kind.String() + " hyperparameter"
	if len(values) == 0 {
		return indexed{}, domain.NewOperationError(entity, name, "create",
			fmt.Errorf("no possible values: %w", domain.ErrInvalidValue))
	}
	if defaultIndex < 0 || defaultIndex >= len(values) {
		return indexed{}, domain.NewOperationError(entity, name, "create",
			fmt.Errorf("default index %d outside [0, %d): %w", defaultIndex, len(values), domain.ErrInvalidValue))
	}

	h := indexed{base: b, kind: kind, values: make([]domain.Value, len(values))}
	for i, v := range values {
		switch v.Kind() {
		case domain.KindNone, domain.KindInteger, domain.KindFloat, domain.KindBoolean:
			h.values[i] = v.WithFlags(0)
		case domain.KindString:
			h.values[i] = memoize(v)
		default:
			return indexed{}, domain.NewOperationError(entity, name, "create",
				fmt.Errorf("value %d has unsupported kind %s: %w", i, v.Kind(), domain.ErrInvalidValue))
		}
		for j := 0; j < i; j++ {
			if h.values[j].Equal(h.values[i]) {
				return indexed{}, domain.NewOperationError(entity, name, "create",
					fmt.Errorf("duplicate value %s: %w", v, domain.ErrInvalidValue))
			}
		}
	}
	h.defaultValue = h.values[defaultIndex]
	h.interval = domain.Interval{Type: domain.NumInteger, Lower: domain.IntNumeric(0),
		Upper: domain.IntNumeric(int64(len(values))), LowerIncluded: true}
	return h, nil
}

// memoize interns a string value and strips its flags so the result no
// longer aliases caller owned memory.
func memoize(v domain.Value) domain.Value {
	return domain.String(unique.Make(v.Str()).Value())
}

// Type implements Hyperparameter.
func (h *indexed) Type() Type { return h.kind }

// NumValues returns the number of permitted values.
func (h *indexed) NumValues() int { return len(h.values) }

// Values returns a copy of the permitted values in order.
func (h *indexed) Values() []domain.Value { return append([]domain.Value(nil), h.values...) }

// CopyValues copies the permitted values into dst using the two-phase
// query idiom.
func (h *indexed) CopyValues(dst []domain.Value) (int, error) { return domain.CopyOut(dst, h.values) }

// Index returns the position of v in the value list.
func (h *indexed) Index(v domain.Value) (int, bool) {
	for i, pv := range h.values {
		if pv.Equal(v) {
			return i, true
		}
	}
	return -1, false
}

// DefaultDistribution returns a linear integer uniform over [0, count).
func (h *indexed) DefaultDistribution() (distribution.Distribution, error) {
	return distribution.NewUniformInt(0, int64(len(h.values)), distribution.ScaleLinear, 0)
}

func (h *indexed) Check(v domain.Value) bool {
	_, ok := h.Index(v)
	return ok
}

func (h *indexed) CheckValues(vs []domain.Value) []bool { return checkAll(h.Check, vs) }

// Validate returns the stored value equal to v, so transient strings come
// back as memoized ones.
func (h *indexed) Validate(v domain.Value) (domain.Value, bool) {
	i, ok := h.Index(v)
	if !ok {
		return domain.Inactive(), false
	}
	return h.values[i], true
}

func (h *indexed) ValidateValues(vs []domain.Value) ([]domain.Value, []bool) {
	return validateAll(h.Validate, vs)
}

func (h *indexed) ConvertSamples(oversampling bool, samples []domain.Numeric) []domain.Value {
	out := make([]domain.Value, len(samples))
	for i, s := range samples {
		if s.I < 0 || s.I >= int64(len(h.values)) {
			out[i] = domain.Inactive()
			continue
		}
		out[i] = h.values[s.I]
	}
	return out
}

// Categorical is an unordered set of values.
type Categorical struct{ indexed }

// NewCategorical creates a categorical hyperparameter over values with the
// value at defaultIndex as default.
func NewCategorical(name string, values []domain.Value, defaultIndex int, opts ...Option) (*Categorical, error) {
	ix, err := newIndexed(TypeCategorical, name, values, defaultIndex, opts)
	if err != nil {
		return nil, err
	}
	return &Categorical{ix}, nil
}

// Sample implements Hyperparameter.
func (h *Categorical) Sample(d distribution.Distribution, rng domain.RNG) (domain.Value, error) {
	return sampleOne(h, d, rng)
}

// Samples implements Hyperparameter.
func (h *Categorical) Samples(d distribution.Distribution, rng domain.RNG, n int) ([]domain.Value, error) {
	return sampleValues(h, d, rng, n)
}

// Ordinal is a ranked list of values: earlier values rank lower.
type Ordinal struct{ indexed }

// NewOrdinal creates an ordinal hyperparameter.
func NewOrdinal(name string, values []domain.Value, defaultIndex int, opts ...Option) (*Ordinal, error) {
	ix, err := newIndexed(TypeOrdinal, name, values, defaultIndex, opts)
	if err != nil {
		return nil, err
	}
	return &Ordinal{ix}, nil
}

// CompareValues orders a and b by their position in the value list,
// returning -1, 0 or 1. Both must be members.
func (h *Ordinal) CompareValues(a, b domain.Value) (int, error) {
	ia, ok := h.Index(a)
	if !ok {
		return 0, fmt.Errorf("ordinal %s: %s is not a member: %w", h.name, a, domain.ErrInvalidValue)
	}
	ib, ok := h.Index(b)
	if !ok {
		return 0, fmt.Errorf("ordinal %s: %s is not a member: %w", h.name, b, domain.ErrInvalidValue)
	}
	switch {
	case ia < ib:
		return -1, nil
	case ia > ib:
		return 1, nil
	default:
		return 0, nil
	}
}

// Sample implements Hyperparameter.
func (h *Ordinal) Sample(d distribution.Distribution, rng domain.RNG) (domain.Value, error) {
	return sampleOne(h, d, rng)
}

// Samples implements Hyperparameter.
func (h *Ordinal) Samples(d distribution.Distribution, rng domain.RNG, n int) ([]domain.Value, error) {
	return sampleValues(h, d, rng, n)
}

// Discrete is an ordered collection of numeric values of one kind.
type Discrete struct {
	indexed
	dataType domain.NumericType
}

// NewDiscrete creates a discrete hyperparameter. Values must be all
// integers or all floats.
func NewDiscrete(name string, values []domain.Value, defaultIndex int, opts ...Option) (*Discrete, error) {
	var t domain.NumericType
	for i, v := range values {
		_, vt, ok := v.Numeric()
		if !ok || (t != 0 && vt != t) {
			return nil, domain.NewOperationError("discrete hyperparameter", name, "create",
				fmt.Errorf("value %d (%s) breaks the numeric kind of the list: %w", i, v, domain.ErrInvalidValue))
		}
		t = vt
	}
	ix, err := newIndexed(TypeDiscrete, name, values, defaultIndex, opts)
	if err != nil {
		return nil, err
	}
	return &Discrete{indexed: ix, dataType: t}, nil
}

// DataType returns the numeric kind of the values.
func (h *Discrete) DataType() domain.NumericType { return h.dataType }

// Validate implements Hyperparameter, accepting integers for float lists
// and integral floats for integer lists.
func (h *Discrete) Validate(v domain.Value) (domain.Value, bool) {
	n, t, ok := v.Numeric()
	if ok && t != h.dataType {
		if h.dataType == domain.NumFloat {
			v = domain.Float(float64(n.I))
		} else if n.F >= -int64Limit && n.F < int64Limit {
			v = domain.Int(int64(n.F))
			if float64(v.Int()) != n.F {
				return domain.Inactive(), false
			}
		}
	}
	return h.indexed.Validate(v)
}

// ValidateValues implements Hyperparameter.
func (h *Discrete) ValidateValues(vs []domain.Value) ([]domain.Value, []bool) {
	return validateAll(h.Validate, vs)
}

// Sample implements Hyperparameter.
func (h *Discrete) Sample(d distribution.Distribution, rng domain.RNG) (domain.Value, error) {
	return sampleOne(h, d, rng)
}

// Samples implements Hyperparameter.
func (h *Discrete) Samples(d distribution.Distribution, rng domain.RNG, n int) ([]domain.Value, error) {
	return sampleValues(h, d, rng, n)
}
