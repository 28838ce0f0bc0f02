package distribution

import (
	"fmt"
	"math"

	"github.com/ahrav/go-configspace/internal/domain"
)

var _ Distribution = (*Normal)(nil)

// int64Limit is 2^63, the first float64 that no longer fits an int64.
const int64Limit = 0x1p63

// Normal draws from a gaussian with mean mu and standard deviation sigma.
// On a logarithmic scale the gaussian describes log(x). Quantized normals
// round to the nearest multiple of the step.
type Normal struct {
	scalar
	mu       float64
	sigma    float64
	quantize bool
}

// NewNormal creates a normal distribution. sigma must be positive, mu and
// sigma finite and the quantization step non-negative.
func NewNormal(t domain.NumericType, mu, sigma float64, scale Scale, quantization domain.Numeric) (*Normal, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("normal of %s: %w", t, domain.ErrInvalidType)
	}
	if !scale.valid() {
		return nil, fmt.Errorf("normal with %s: %w", scale, domain.ErrInvalidScale)
	}
	switch {
	case math.IsNaN(mu) || math.IsInf(mu, 0) || math.IsNaN(sigma) || math.IsInf(sigma, 0):
		return nil, fmt.Errorf("normal parameters must be finite: %w", domain.ErrInvalidValue)
	case sigma <= 0:
		return nil, fmt.Errorf("normal sigma %g <= 0: %w", sigma, domain.ErrInvalidValue)
	case !quantization.Finite(t) || quantization.Float(t) < 0:
		return nil, fmt.Errorf("normal quantization %s: %w", quantization.Format(t), domain.ErrInvalidValue)
	}

	n := &Normal{mu: mu, sigma: sigma, quantize: quantization.Float(t) != 0}
	n.dataType, n.scale, n.quantization = t, scale, quantization
	n.bounds = n.computeBounds()
	if t == domain.NumFloat {
		n.kernel = n.floatKernel
	} else {
		n.kernel = n.intKernel
	}
	return n, nil
}

// NewNormalFloat is a convenience wrapper for float normals.
func NewNormalFloat(mu, sigma float64, scale Scale, quantization float64) (*Normal, error) {
	return NewNormal(domain.NumFloat, mu, sigma, scale, domain.FloatNumeric(quantization))
}

// NewNormalInt is a convenience wrapper for integer normals.
func NewNormalInt(mu, sigma float64, scale Scale, quantization int64) (*Normal, error) {
	return NewNormal(domain.NumInteger, mu, sigma, scale, domain.IntNumeric(quantization))
}

// Type implements Distribution.
func (n *Normal) Type() Type { return TypeNormal }

// Parameters returns the mean and standard deviation.
func (n *Normal) Parameters() (mu, sigma float64) { return n.mu, n.sigma }

func (n *Normal) computeBounds() domain.Interval {
	if n.dataType == domain.NumFloat {
		if n.scale == ScaleLogarithmic {
			if n.quantize {
				return domain.Interval{Type: domain.NumFloat, Lower: n.quantization,
					Upper: domain.FloatNumeric(math.Inf(1)), LowerIncluded: true}
			}
			return domain.Interval{Type: domain.NumFloat, Lower: domain.FloatNumeric(0),
				Upper: domain.FloatNumeric(math.Inf(1))}
		}
		return domain.Interval{Type: domain.NumFloat, Lower: domain.FloatNumeric(math.Inf(-1)),
			Upper: domain.FloatNumeric(math.Inf(1))}
	}

	lower, upper := int64(math.MinInt64), int64(math.MaxInt64)
	if q := n.quantization.I; n.quantize {
		lower, upper = (lower/q)*q, (upper/q)*q
	}
	if n.scale == ScaleLogarithmic {
		lower = 1
		if n.quantize {
			lower = n.quantization.I
		}
	}
	return domain.Interval{Type: domain.NumInteger, Lower: domain.IntNumeric(lower),
		Upper: domain.IntNumeric(upper), LowerIncluded: true, UpperIncluded: true}
}

// aboveLogFloor draws log-space values no smaller than floor. When the mean
// sits far below the floor plain rejection would rarely succeed, so the
// tail sampler is used instead.
func (n *Normal) aboveLogFloor(rng domain.RNG, floor float64) float64 {
	if n.mu-floor >= 0 {
		for {
			if v := gaussian(rng, n.sigma) + n.mu; v >= floor {
				return v
			}
		}
	}
	return gaussianTail(rng, floor-n.mu, n.sigma) + n.mu
}

func (n *Normal) floatKernel(rng domain.RNG, count, stride int, dst []domain.Numeric) {
	q := n.quantization.F
	logFloor := math.Log(q * 0.5)
	for i := 0; i < count; i++ {
		var v float64
		if n.scale == ScaleLogarithmic && n.quantize {
			v = n.aboveLogFloor(rng, logFloor)
		} else {
			v = gaussian(rng, n.sigma) + n.mu
		}
		if n.scale == ScaleLogarithmic {
			v = math.Exp(v)
		}
		if n.quantize {
			v = math.Round(v/q) * q
		}
		dst[i*stride] = domain.FloatNumeric(v)
	}
}

func (n *Normal) intKernel(rng domain.RNG, count, stride int, dst []domain.Numeric) {
	quant := n.quantization.I
	half := 0.5
	if n.quantize {
		half = float64(quant) * 0.5
	}
	logFloor := math.Log(half)
	for i := 0; i < count; i++ {
		var v float64
		if n.scale == ScaleLogarithmic {
			for {
				v = math.Exp(n.aboveLogFloor(rng, logFloor))
				if v+half < int64Limit {
					break
				}
			}
		} else {
			for {
				v = gaussian(rng, n.sigma) + n.mu
				if math.Abs(v)+half < int64Limit {
					break
				}
			}
		}
		if n.quantize {
			dst[i*stride] = domain.IntNumeric(int64(math.Round(v/float64(quant))) * quant)
		} else {
			dst[i*stride] = domain.IntNumeric(int64(math.Round(v)))
		}
	}
}

// gaussian draws from N(0, sigma) with the polar Box-Muller method.
func gaussian(rng domain.RNG, sigma float64) float64 {
	var x, y, r2 float64
	for {
		x = -1 + 2*rng.UniformPos()
		y = -1 + 2*rng.UniformPos()
		r2 = x*x + y*y
		if r2 <= 1 && r2 != 0 {
			break
		}
	}
	return sigma * y * math.Sqrt(-2*math.Log(r2)/r2)
}

// gaussianTail draws from the upper tail x >= a of N(0, sigma). Close to
// the mean it rejects ordinary draws; further out it uses Marsaglia's
// exponential rejection scheme.
func gaussianTail(rng domain.RNG, a, sigma float64) float64 {
	s := a / sigma
	if s < 1 {
		for {
			if x := gaussian(rng, 1); x >= s {
				return x * sigma
			}
		}
	}
	for {
		u := rng.Uniform()
		var v float64
		for v == 0 {
			v = rng.Uniform()
		}
		x := math.Sqrt(s*s - 2*math.Log(v))
		if x*u <= s {
			return x * sigma
		}
	}
}
