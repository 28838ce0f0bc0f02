package distribution

import (
	"fmt"
	"math"

	"github.com/ahrav/go-configspace/internal/domain"
)

var _ Distribution = (*Uniform)(nil)

// Uniform draws uniformly from [lower, upper), either linearly or in log
// space, optionally snapping to a quantization grid anchored at lower.
type Uniform struct {
	scalar
	lower    domain.Numeric
	upper    domain.Numeric
	internal [2]domain.Numeric
	quantize bool
}

// NewUniform creates a uniform distribution. It fails with ErrInvalidValue
// when lower >= upper, when bounds are not finite, when a logarithmic scale
// has lower <= 0, or when the quantization step is negative or wider than
// the range.
func NewUniform(t domain.NumericType, lower, upper domain.Numeric, scale Scale, quantization domain.Numeric) (*Uniform, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("uniform of %s: %w", t, domain.ErrInvalidType)
	}
	if !scale.valid() {
		return nil, fmt.Errorf("uniform with %s: %w", scale, domain.ErrInvalidScale)
	}
	u := &Uniform{lower: lower, upper: upper}
	u.dataType, u.scale, u.quantization = t, scale, quantization

	if t == domain.NumFloat {
		l, h, q := lower.F, upper.F, quantization.F
		switch {
		case !lower.Finite(t) || !upper.Finite(t) || math.IsNaN(q) || math.IsInf(q, 0):
			return nil, fmt.Errorf("uniform bounds must be finite: %w", domain.ErrInvalidValue)
		case l >= h:
			return nil, fmt.Errorf("uniform lower %g >= upper %g: %w", l, h, domain.ErrInvalidValue)
		case scale == ScaleLogarithmic && l <= 0:
			return nil, fmt.Errorf("logarithmic uniform lower %g <= 0: %w", l, domain.ErrInvalidValue)
		case q < 0 || q > h-l:
			return nil, fmt.Errorf("uniform quantization %g outside [0, %g]: %w", q, h-l, domain.ErrInvalidValue)
		}
		u.quantize = q != 0
		if scale == ScaleLogarithmic {
			u.internal = [2]domain.Numeric{domain.FloatNumeric(math.Log(l)), domain.FloatNumeric(math.Log(h))}
		} else {
			span := h - l
			if u.quantize {
				span /= q
			}
			u.internal = [2]domain.Numeric{domain.FloatNumeric(0), domain.FloatNumeric(span)}
		}
		u.kernel = u.floatKernel
	} else {
		l, h, q := lower.I, upper.I, quantization.I
		switch {
		case l >= h:
			return nil, fmt.Errorf("uniform lower %d >= upper %d: %w", l, h, domain.ErrInvalidValue)
		case l < 0 && h > math.MaxInt64+l:
			return nil, fmt.Errorf("uniform range overflows int64: %w", domain.ErrInvalidValue)
		case scale == ScaleLogarithmic && l <= 0:
			return nil, fmt.Errorf("logarithmic uniform lower %d <= 0: %w", l, domain.ErrInvalidValue)
		case q < 0 || q > h-l:
			return nil, fmt.Errorf("uniform quantization %d outside [0, %d]: %w", q, h-l, domain.ErrInvalidValue)
		}
		u.quantize = q != 0
		if scale == ScaleLogarithmic {
			u.internal = [2]domain.Numeric{
				domain.FloatNumeric(math.Log(float64(l))),
				domain.FloatNumeric(math.Log(float64(h))),
			}
		} else {
			span := h - l
			if u.quantize {
				span /= q
			}
			u.internal = [2]domain.Numeric{domain.IntNumeric(0), domain.IntNumeric(span)}
		}
		u.kernel = u.intKernel
	}

	u.bounds = domain.Interval{Type: t, Lower: lower, Upper: upper, LowerIncluded: true}
	return u, nil
}

// NewUniformFloat is a convenience wrapper for float uniforms.
func NewUniformFloat(lower, upper float64, scale Scale, quantization float64) (*Uniform, error) {
	return NewUniform(domain.NumFloat, domain.FloatNumeric(lower), domain.FloatNumeric(upper),
		scale, domain.FloatNumeric(quantization))
}

// NewUniformInt is a convenience wrapper for integer uniforms.
func NewUniformInt(lower, upper int64, scale Scale, quantization int64) (*Uniform, error) {
	return NewUniform(domain.NumInteger, domain.IntNumeric(lower), domain.IntNumeric(upper),
		scale, domain.IntNumeric(quantization))
}

// Type implements Distribution.
func (u *Uniform) Type() Type { return TypeUniform }

// Parameters returns the lower and upper bounds.
func (u *Uniform) Parameters() (lower, upper domain.Numeric) { return u.lower, u.upper }

func (u *Uniform) floatKernel(rng domain.RNG, n, stride int, dst []domain.Numeric) {
	lo, hi := u.internal[0].F, u.internal[1].F
	l, q := u.lower.F, u.quantization.F
	for i := 0; i < n; i++ {
		v := drawFlat(rng, lo, hi)
		switch {
		case u.scale == ScaleLogarithmic:
			v = math.Exp(v)
			if v >= u.upper.F {
				v = math.Nextafter(u.upper.F, l)
			}
			if u.quantize {
				v = math.Floor((v-l)/q)*q + l
			}
		case u.quantize:
			v = math.Floor(v)*q + l
		default:
			v += l
			if v >= u.upper.F {
				v = math.Nextafter(u.upper.F, l)
			}
		}
		dst[i*stride] = domain.FloatNumeric(v)
	}
}

func (u *Uniform) intKernel(rng domain.RNG, n, stride int, dst []domain.Numeric) {
	l, q := u.lower.I, u.quantization.I
	if u.scale == ScaleLogarithmic {
		lo, hi := u.internal[0].F, u.internal[1].F
		for i := 0; i < n; i++ {
			v := int64(math.Floor(math.Exp(drawFlat(rng, lo, hi))))
			// exp(log(x)) may land a hair outside the integer range.
			v = min(max(v, l), u.upper.I-1)
			if u.quantize {
				v = ((v-l)/q)*q + l
			}
			dst[i*stride] = domain.IntNumeric(v)
		}
		return
	}
	span := uint64(u.internal[1].I)
	for i := 0; i < n; i++ {
		v := int64(rng.UniformInt(span))
		if u.quantize {
			v = v*q + l
		} else {
			v += l
		}
		dst[i*stride] = domain.IntNumeric(v)
	}
}

// drawFlat draws uniformly in [a, b) the same way a flat variate is built
// from a unit uniform: a*(1-u) + b*u.
func drawFlat(rng domain.RNG, a, b float64) float64 {
	u := rng.Uniform()
	v := a*(1-u) + b*u
	if v >= b {
		v = math.Nextafter(b, a)
	}
	return v
}
