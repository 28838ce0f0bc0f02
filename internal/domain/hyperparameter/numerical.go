package hyperparameter

import (
	"fmt"
	"math"

	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/distribution"
)

var _ Hyperparameter = (*Numerical)(nil)

// alignmentTolerance bounds the relative error accepted when checking that
// a float lies on the quantization grid.
const alignmentTolerance = 1e-9

// Numerical is an integer or float range [lower, upper) with an optional
// quantization step anchored at lower.
type Numerical struct {
	base
	dataType     domain.NumericType
	lower        domain.Numeric
	upper        domain.Numeric
	quantization domain.Numeric
}

// NewNumerical creates a numerical hyperparameter. The default value must
// be a member of the domain.
func NewNumerical(name string, t domain.NumericType, lower, upper, quantization, def domain.Numeric, opts ...Option) (*Numerical, error) {
	b, err := newBase(TypeNumerical, name, opts)
	if err != nil {
		return nil, err
	}
	if !t.Valid() {
		return nil, domain.NewOperationError("numerical hyperparameter", name, "create",
			fmt.Errorf("data type %s: %w", t, domain.ErrInvalidType))
	}
	fail := func(format string, args ...any) error {
		return domain.NewOperationError("numerical hyperparameter", name, "create",
			fmt.Errorf(format+": %w", append(args, domain.ErrInvalidValue)...))
	}

	if t == domain.NumFloat {
		if !lower.Finite(t) || !upper.Finite(t) || !quantization.Finite(t) {
			return nil, fail("bounds must be finite")
		}
		if lower.F >= upper.F {
			return nil, fail("lower %g >= upper %g", lower.F, upper.F)
		}
		if quantization.F < 0 || quantization.F > upper.F-lower.F {
			return nil, fail("quantization %g outside [0, %g]", quantization.F, upper.F-lower.F)
		}
	} else {
		if lower.I >= upper.I {
			return nil, fail("lower %d >= upper %d", lower.I, upper.I)
		}
		if lower.I < 0 && upper.I > math.MaxInt64+lower.I {
			return nil, fail("range overflows int64")
		}
		if quantization.I < 0 || quantization.I > upper.I-lower.I {
			return nil, fail("quantization %d outside [0, %d]", quantization.I, upper.I-lower.I)
		}
	}

	h := &Numerical{base: b, dataType: t, lower: lower, upper: upper, quantization: quantization}
	h.interval = domain.Interval{Type: t, Lower: lower, Upper: upper, LowerIncluded: true}
	if !h.member(def) {
		return nil, fail("default %s not in %s", def.Format(t), h.interval)
	}
	h.defaultValue = def.Value(t)
	return h, nil
}

// NewNumericalFloat creates a float numerical hyperparameter.
func NewNumericalFloat(name string, lower, upper, quantization, def float64, opts ...Option) (*Numerical, error) {
	return NewNumerical(name, domain.NumFloat, domain.FloatNumeric(lower), domain.FloatNumeric(upper),
		domain.FloatNumeric(quantization), domain.FloatNumeric(def), opts...)
}

// NewNumericalInt creates an integer numerical hyperparameter.
func NewNumericalInt(name string, lower, upper, quantization, def int64, opts ...Option) (*Numerical, error) {
	return NewNumerical(name, domain.NumInteger, domain.IntNumeric(lower), domain.IntNumeric(upper),
		domain.IntNumeric(quantization), domain.IntNumeric(def), opts...)
}

// Type implements Hyperparameter.
func (h *Numerical) Type() Type { return TypeNumerical }

// Parameters returns the data type, bounds and quantization step.
func (h *Numerical) Parameters() (t domain.NumericType, lower, upper, quantization domain.Numeric) {
	return h.dataType, h.lower, h.upper, h.quantization
}

// DataType returns the numeric type of the domain.
func (h *Numerical) DataType() domain.NumericType { return h.dataType }

// DefaultDistribution returns a linear uniform over the domain with the
// same quantization.
func (h *Numerical) DefaultDistribution() (distribution.Distribution, error) {
	return distribution.NewUniform(h.dataType, h.lower, h.upper, distribution.ScaleLinear, h.quantization)
}

func (h *Numerical) member(n domain.Numeric) bool {
	if !h.interval.Include(n) {
		return false
	}
	if h.dataType == domain.NumInteger {
		return h.quantization.I == 0 || (n.I-h.lower.I)%h.quantization.I == 0
	}
	if h.quantization.F == 0 {
		return true
	}
	steps := (n.F - h.lower.F) / h.quantization.F
	return math.Abs(steps-math.Round(steps)) <= alignmentTolerance*math.Max(1, math.Abs(steps))
}

// Check implements Hyperparameter. The value must already carry the
// domain's numeric kind.
func (h *Numerical) Check(v domain.Value) bool {
	n, t, ok := v.Numeric()
	return ok && t == h.dataType && h.member(n)
}

// CheckValues implements Hyperparameter.
func (h *Numerical) CheckValues(vs []domain.Value) []bool { return checkAll(h.Check, vs) }

// Validate implements Hyperparameter. Integers are promoted for float
// domains and integral floats are narrowed for integer domains.
func (h *Numerical) Validate(v domain.Value) (domain.Value, bool) {
	n, t, ok := v.Numeric()
	if !ok {
		return domain.Inactive(), false
	}
	if t != h.dataType {
		if h.dataType == domain.NumFloat {
			n = domain.FloatNumeric(float64(n.I))
		} else {
			if n.F != math.Trunc(n.F) || n.F < -int64Limit || n.F >= int64Limit {
				return domain.Inactive(), false
			}
			n = domain.IntNumeric(int64(n.F))
		}
	}
	if !h.member(n) {
		return domain.Inactive(), false
	}
	return n.Value(h.dataType), true
}

// ValidateValues implements Hyperparameter.
func (h *Numerical) ValidateValues(vs []domain.Value) ([]domain.Value, []bool) {
	return validateAll(h.Validate, vs)
}

// ConvertSamples implements Hyperparameter.
func (h *Numerical) ConvertSamples(oversampling bool, samples []domain.Numeric) []domain.Value {
	out := make([]domain.Value, len(samples))
	for i, s := range samples {
		if oversampling && !h.interval.Include(s) {
			out[i] = domain.Inactive()
			continue
		}
		out[i] = s.Value(h.dataType)
	}
	return out
}

// Sample implements Hyperparameter.
func (h *Numerical) Sample(d distribution.Distribution, rng domain.RNG) (domain.Value, error) {
	return sampleOne(h, d, rng)
}

// Samples implements Hyperparameter.
func (h *Numerical) Samples(d distribution.Distribution, rng domain.RNG, n int) ([]domain.Value, error) {
	return sampleValues(h, d, rng, n)
}

// int64Limit is 2^63 as a float64.
const int64Limit = 0x1p63
