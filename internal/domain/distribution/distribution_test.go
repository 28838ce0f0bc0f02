package distribution

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-configspace/infrastructure/rng"
	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/testutils"
)

func TestNewUniformRejectsInvalidParameters(t *testing.T) {
	tests := []struct {
		name    string
		build   func() (*Uniform, error)
		wantErr error
	}{
		{"unordered float", func() (*Uniform, error) { return NewUniformFloat(1, 1, ScaleLinear, 0) }, domain.ErrInvalidValue},
		{"infinite bound", func() (*Uniform, error) { return NewUniformFloat(0, math.Inf(1), ScaleLinear, 0) }, domain.ErrInvalidValue},
		{"log needs positive lower", func() (*Uniform, error) { return NewUniformFloat(0, 1, ScaleLogarithmic, 0) }, domain.ErrInvalidValue},
		{"negative quantization", func() (*Uniform, error) { return NewUniformFloat(0, 1, ScaleLinear, -0.1) }, domain.ErrInvalidValue},
		{"quantization wider than range", func() (*Uniform, error) { return NewUniformInt(0, 4, ScaleLinear, 5) }, domain.ErrInvalidValue},
		{"unordered int", func() (*Uniform, error) { return NewUniformInt(3, 2, ScaleLinear, 0) }, domain.ErrInvalidValue},
		{"int range overflow", func() (*Uniform, error) { return NewUniformInt(math.MinInt64, 1, ScaleLinear, 0) }, domain.ErrInvalidValue},
		{"log int needs positive lower", func() (*Uniform, error) { return NewUniformInt(0, 10, ScaleLogarithmic, 0) }, domain.ErrInvalidValue},
		{"bad scale", func() (*Uniform, error) { return NewUniformFloat(0, 1, Scale(9), 0) }, domain.ErrInvalidScale},
		{"bad type", func() (*Uniform, error) {
			return NewUniform(0, domain.IntNumeric(0), domain.IntNumeric(1), ScaleLinear, domain.Numeric{})
		}, domain.ErrInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUniformFloatStaysInBounds(t *testing.T) {
	u, err := NewUniformFloat(-5, 5, ScaleLinear, 0)
	require.NoError(t, err)
	assert.Equal(t, TypeUniform, u.Type())
	assert.Equal(t, "[-5, 5)", u.Bounds()[0].String())

	out := make([]domain.Numeric, 10000)
	require.NoError(t, u.Samples(rng.New(1), len(out), out))
	for _, v := range out {
		require.True(t, u.Bounds()[0].Include(v), "%g outside [-5, 5)", v.F)
	}
}

func TestUniformClampsTopDraw(t *testing.T) {
	// A unit draw just below one must still land below the upper bound.
	top := math.Nextafter(1, 0)
	u, err := NewUniformFloat(1e-3, 1e3, ScaleLogarithmic, 0)
	require.NoError(t, err)
	v, err := u.Sample(testutils.NewSequenceRNG(top))
	require.NoError(t, err)
	assert.Less(t, v[0].F, 1e3)

	ui, err := NewUniformInt(3, 1000, ScaleLogarithmic, 0)
	require.NoError(t, err)
	for _, draw := range []float64{0, top} {
		v, err := ui.Sample(testutils.NewSequenceRNG(draw))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v[0].I, int64(3))
		assert.Less(t, v[0].I, int64(1000))
	}
}

func TestUniformQuantizationAlignment(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*Uniform, error)
	}{
		{"float linear", func() (*Uniform, error) { return NewUniformFloat(-1, 1, ScaleLinear, 0.25) }},
		{"float log", func() (*Uniform, error) { return NewUniformFloat(0.5, 100, ScaleLogarithmic, 0.5) }},
		{"int linear", func() (*Uniform, error) { return NewUniformInt(-7, 50, ScaleLinear, 3) }},
		{"int log", func() (*Uniform, error) { return NewUniformInt(2, 5000, ScaleLogarithmic, 4) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := tt.build()
			require.NoError(t, err)
			lower, _ := u.Parameters()
			q := u.Quantization()
			bounds := u.Bounds()[0]

			out := make([]domain.Numeric, 2000)
			require.NoError(t, u.Samples(rng.New(42), len(out), out))
			for _, v := range out {
				require.True(t, bounds.Include(v), "%s outside %s", v.Format(u.DataType()), bounds)
				if u.DataType() == domain.NumInteger {
					require.Zero(t, (v.I-lower.I)%q.I)
				} else {
					steps := (v.F - lower.F) / q.F
					require.InDelta(t, math.Round(steps), steps, 1e-9)
				}
			}
		})
	}
}

func TestSamplingLayoutsAgree(t *testing.T) {
	u, err := NewUniformInt(0, 1000, ScaleLinear, 0)
	require.NoError(t, err)
	const n = 16

	contiguous := make([]domain.Numeric, n)
	require.NoError(t, u.Samples(rng.New(5), n, contiguous))

	strided := make([]domain.Numeric, n*3)
	for i := range strided {
		strided[i] = domain.IntNumeric(-1)
	}
	require.NoError(t, u.StridedSamples(rng.New(5), n, 3, strided))

	column := make([]domain.Numeric, n)
	require.NoError(t, u.SoaSamples(rng.New(5), n, [][]domain.Numeric{column}))

	for i := 0; i < n; i++ {
		assert.Equal(t, contiguous[i], strided[i*3])
		assert.Equal(t, int64(-1), strided[i*3+1].I, "gap cells are untouched")
		assert.Equal(t, contiguous[i], column[i])
	}
}

func TestSamplingArgumentChecks(t *testing.T) {
	u, err := NewUniformFloat(0, 1, ScaleLinear, 0)
	require.NoError(t, err)

	assert.ErrorIs(t, u.Samples(nil, 1, make([]domain.Numeric, 1)), domain.ErrInvalidObject)
	assert.ErrorIs(t, u.Samples(rng.New(1), 2, make([]domain.Numeric, 1)), domain.ErrInvalidValue)
	assert.ErrorIs(t, u.StridedSamples(rng.New(1), 1, 0, make([]domain.Numeric, 1)), domain.ErrInvalidValue)
	assert.ErrorIs(t, u.SoaSamples(rng.New(1), 1, nil), domain.ErrInvalidValue)
	assert.NoError(t, u.SoaSamples(rng.New(1), 4, [][]domain.Numeric{nil}), "nil columns are skipped")
	assert.NoError(t, u.Samples(rng.New(1), 0, nil))
}

func TestNewNormalRejectsInvalidParameters(t *testing.T) {
	_, err := NewNormalFloat(0, 0, ScaleLinear, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
	_, err = NewNormalFloat(math.NaN(), 1, ScaleLinear, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
	_, err = NewNormalFloat(0, 1, ScaleLinear, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
	_, err = NewNormalInt(0, 1, ScaleLinear, -2)
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
	_, err = NewNormalFloat(0, 1, Scale(-1), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidScale)
}

func TestNormalBounds(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*Normal, error)
		want  string
	}{
		{"float linear", func() (*Normal, error) { return NewNormalFloat(0, 1, ScaleLinear, 0) }, "(-Inf, +Inf)"},
		{"float log", func() (*Normal, error) { return NewNormalFloat(0, 1, ScaleLogarithmic, 0) }, "(0, +Inf)"},
		{"float log quantized", func() (*Normal, error) { return NewNormalFloat(0, 1, ScaleLogarithmic, 0.5) }, "[0.5, +Inf)"},
		{"int linear", func() (*Normal, error) { return NewNormalInt(0, 1, ScaleLinear, 0) },
			"[-9223372036854775808, 9223372036854775807]"},
		{"int linear quantized", func() (*Normal, error) { return NewNormalInt(0, 1, ScaleLinear, 10) },
			"[-9223372036854775800, 9223372036854775800]"},
		{"int log", func() (*Normal, error) { return NewNormalInt(0, 1, ScaleLogarithmic, 0) }, "[1, 9223372036854775807]"},
		{"int log quantized", func() (*Normal, error) { return NewNormalInt(0, 1, ScaleLogarithmic, 4) }, "[4, 9223372036854775804]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := tt.build()
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.Bounds()[0].String())
		})
	}
}

func TestNormalSamplesHonorBoundsAndQuantization(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*Normal, error)
	}{
		{"float log quantized mean above floor", func() (*Normal, error) { return NewNormalFloat(1, 1, ScaleLogarithmic, 0.5) }},
		{"float log quantized mean below floor", func() (*Normal, error) { return NewNormalFloat(-6, 1, ScaleLogarithmic, 0.5) }},
		{"int linear quantized", func() (*Normal, error) { return NewNormalInt(0, 100, ScaleLinear, 7) }},
		{"int log", func() (*Normal, error) { return NewNormalInt(-3, 1, ScaleLogarithmic, 0) }},
		{"int log quantized", func() (*Normal, error) { return NewNormalInt(-5, 2, ScaleLogarithmic, 3) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := tt.build()
			require.NoError(t, err)
			bounds := n.Bounds()[0]
			q := n.Quantization()

			out := make([]domain.Numeric, 2000)
			require.NoError(t, n.Samples(rng.New(99), len(out), out))
			for _, v := range out {
				require.True(t, bounds.Include(v), "%s outside %s", v.Format(n.DataType()), bounds)
				switch {
				case n.DataType() == domain.NumInteger && q.I != 0:
					require.Zero(t, v.I%q.I)
				case n.DataType() == domain.NumFloat && q.F != 0:
					require.InDelta(t, math.Round(v.F/q.F), v.F/q.F, 1e-9)
				}
			}
		})
	}
}

func TestNormalMeanIsCentered(t *testing.T) {
	n, err := NewNormalFloat(3, 2, ScaleLinear, 0)
	require.NoError(t, err)
	mu, sigma := n.Parameters()
	assert.Equal(t, 3.0, mu)
	assert.Equal(t, 2.0, sigma)

	out := make([]domain.Numeric, 20000)
	require.NoError(t, n.Samples(rng.New(8), len(out), out))
	var sum float64
	for _, v := range out {
		sum += v.F
	}
	assert.InDelta(t, 3.0, sum/float64(len(out)), 0.1)
}

func TestGaussianTailStaysAboveCut(t *testing.T) {
	g := rng.New(17)
	for _, a := range []float64{0.5, 3, 10} {
		for i := 0; i < 500; i++ {
			require.GreaterOrEqual(t, gaussianTail(g, a, 1.5), a)
		}
	}
}

func TestRoulette(t *testing.T) {
	_, err := NewRoulette(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
	_, err = NewRoulette([]float64{0, 0})
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
	_, err = NewRoulette([]float64{1, -1})
	assert.ErrorIs(t, err, domain.ErrInvalidValue)

	r, err := NewRoulette([]float64{1, 0, 3, 0})
	require.NoError(t, err)
	assert.Equal(t, TypeRoulette, r.Type())
	assert.Equal(t, "[0, 4)", r.Bounds()[0].String())
	assert.Equal(t, []float64{1, 0, 3, 0}, r.Areas())

	out := make([]domain.Numeric, 8000)
	require.NoError(t, r.Samples(rng.New(3), len(out), out))
	counts := make([]int, 4)
	for _, v := range out {
		counts[v.I]++
	}
	assert.Zero(t, counts[1])
	assert.Zero(t, counts[3])
	assert.InDelta(t, 0.75, float64(counts[2])/float64(len(out)), 0.03)

	v, err := r.Sample(testutils.NewSequenceRNG(math.Nextafter(1, 0)))
	require.NoError(t, err)
	assert.Equal(t, int64(2), v[0].I, "top draw lands on the last positive slot")
}

func TestMultivariate(t *testing.T) {
	_, err := NewMultivariate()
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
	_, err = NewMultivariate(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidObject)

	a, err := NewUniformInt(0, 10, ScaleLinear, 0)
	require.NoError(t, err)
	b, err := NewUniformFloat(100, 200, ScaleLinear, 0)
	require.NoError(t, err)
	inner, err := NewMultivariate(a, b)
	require.NoError(t, err)
	m, err := NewMultivariate(inner, a)
	require.NoError(t, err)

	assert.Equal(t, TypeMultivariate, m.Type())
	assert.Equal(t, 3, m.Dimension())
	assert.Equal(t, []domain.NumericType{domain.NumInteger, domain.NumFloat, domain.NumInteger}, m.DataTypes())
	bounds := m.Bounds()
	require.Len(t, bounds, 3)
	assert.Equal(t, "[100, 200)", bounds[1].String())
	assert.Len(t, m.Distributions(), 2)

	const n = 50
	rows := make([]domain.Numeric, n*3)
	require.NoError(t, m.Samples(rng.New(4), n, rows))
	cols := [][]domain.Numeric{make([]domain.Numeric, n), make([]domain.Numeric, n), make([]domain.Numeric, n)}
	require.NoError(t, m.SoaSamples(rng.New(4), n, cols))
	for i := 0; i < n; i++ {
		for d := 0; d < 3; d++ {
			require.True(t, bounds[d].Include(rows[i*3+d]))
			assert.Equal(t, rows[i*3+d], cols[d][i])
		}
	}

	wide := make([]domain.Numeric, n*5)
	require.NoError(t, m.StridedSamples(rng.New(4), n, 5, wide))
	for i := 0; i < n; i++ {
		assert.Equal(t, rows[i*3:i*3+3], wide[i*5:i*5+3])
	}
}

func TestCheckOversampling(t *testing.T) {
	n, err := NewNormalInt(1, 3, ScaleLinear, 0)
	require.NoError(t, err)
	target := domain.Interval{Type: domain.NumInteger, Lower: domain.IntNumeric(0), Upper: domain.IntNumeric(3), LowerIncluded: true}

	over, err := n.CheckOversampling([]domain.Interval{target})
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, over)

	u, err := NewUniformInt(0, 3, ScaleLinear, 0)
	require.NoError(t, err)
	over, err = u.CheckOversampling([]domain.Interval{target})
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, over)

	_, err = u.CheckOversampling(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
}

func BenchmarkUniformSamples(b *testing.B) {
	u, err := NewUniformFloat(1e-4, 1, ScaleLogarithmic, 0)
	require.NoError(b, err)
	g := rng.New(1)
	out := make([]domain.Numeric, 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = u.Samples(g, len(out), out)
	}
}

func BenchmarkNormalIntSamples(b *testing.B) {
	n, err := NewNormalInt(2, 1, ScaleLogarithmic, 2)
	require.NoError(b, err)
	g := rng.New(1)
	out := make([]domain.Numeric, 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = n.Samples(g, len(out), out)
	}
}
