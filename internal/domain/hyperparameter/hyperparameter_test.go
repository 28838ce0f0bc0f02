package hyperparameter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-configspace/infrastructure/rng"
	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/distribution"
)

func strings(vs ...string) []domain.Value {
	out := make([]domain.Value, len(vs))
	for i, v := range vs {
		out[i] = domain.String(v)
	}
	return out
}

func allVariants(t *testing.T) []Hyperparameter {
	t.Helper()
	num, err := NewNumericalFloat("lr", -5, 5, 0, 1)
	require.NoError(t, err)
	numq, err := NewNumericalInt("batch", 8, 512, 8, 64)
	require.NoError(t, err)
	cat, err := NewCategorical("algo", strings("a", "b", "c"), 1)
	require.NoError(t, err)
	ord, err := NewOrdinal("size", strings("small", "medium", "large"), 0)
	require.NoError(t, err)
	disc, err := NewDiscrete("layers", []domain.Value{domain.Int(1), domain.Int(2), domain.Int(4)}, 2)
	require.NoError(t, err)
	str, err := NewString("label")
	require.NoError(t, err)
	return []Hyperparameter{num, numq, cat, ord, disc, str}
}

func TestDefaultValueRoundTrips(t *testing.T) {
	for _, h := range allVariants(t) {
		t.Run(h.Name(), func(t *testing.T) {
			def := h.DefaultValue()
			assert.True(t, h.Check(def))
			got, ok := h.Validate(def)
			assert.True(t, ok)
			assert.True(t, def.Equal(got), "validate(%s) = %s", def, got)
		})
	}
}

func TestInvalidNames(t *testing.T) {
	for _, name := range []string{"", "1x", "a-b", "with space"} {
		_, err := NewNumericalInt(name, 0, 10, 0, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidName, "name %q", name)
	}
	_, err := NewString("_ok9")
	assert.NoError(t, err)
}

func TestNumericalScenario(t *testing.T) {
	h, err := NewNumericalFloat("x", -5, 5, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, TypeNumerical, h.Type())

	d, err := h.DefaultDistribution()
	require.NoError(t, err)
	assert.Equal(t, distribution.TypeUniform, d.Type())

	vs, err := h.Samples(d, rng.New(1), 10000)
	require.NoError(t, err)
	require.Len(t, vs, 10000)
	for _, v := range vs {
		require.True(t, v.Float() >= -5 && v.Float() < 5, "%s", v)
	}

	assert.True(t, h.Check(domain.Float(1)))
	assert.False(t, h.Check(domain.Float(6)))
	assert.False(t, h.Check(domain.Int(1)), "check does not convert")
}

func TestNewNumericalRejects(t *testing.T) {
	_, err := NewNumericalFloat("x", 1, 1, 0, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
	_, err = NewNumericalFloat("x", 0, 1, 0, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidValue, "default outside domain")
	_, err = NewNumericalInt("x", 0, 10, 3, 4)
	assert.ErrorIs(t, err, domain.ErrInvalidValue, "default off grid")
	_, err = NewNumericalInt("x", 0, 10, -1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
	_, err = NewNumerical("x", 0, domain.Numeric{}, domain.Numeric{}, domain.Numeric{}, domain.Numeric{})
	assert.ErrorIs(t, err, domain.ErrInvalidType)
}

func TestNumericalValidateConverts(t *testing.T) {
	f, err := NewNumericalFloat("f", 0, 1, 0.1, 0)
	require.NoError(t, err)
	i, err := NewNumericalInt("i", 0, 100, 5, 0)
	require.NoError(t, err)

	tests := []struct {
		name string
		h    *Numerical
		in   domain.Value
		want domain.Value
		ok   bool
	}{
		{"float accepts integer", f, domain.Int(0), domain.Float(0), true},
		{"float grid with rounding noise", f, domain.Float(0.3), domain.Float(0.3), true},
		{"float off grid", f, domain.Float(0.35), domain.Inactive(), false},
		{"integer accepts integral float", i, domain.Float(15), domain.Int(15), true},
		{"integer rejects fraction", i, domain.Float(15.5), domain.Inactive(), false},
		{"integer off grid", i, domain.Int(7), domain.Inactive(), false},
		{"upper excluded", i, domain.Int(100), domain.Inactive(), false},
		{"string rejected", i, domain.String("5"), domain.Inactive(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.h.Validate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	vs, oks := i.ValidateValues([]domain.Value{domain.Int(5), domain.Int(6)})
	assert.Equal(t, []bool{true, false}, oks)
	assert.True(t, vs[1].IsInactive())
	assert.Equal(t, []bool{true, false}, i.CheckValues([]domain.Value{domain.Int(5), domain.Int(6)}))
}

func TestNumericalQuantizedSamplesAreMembers(t *testing.T) {
	h, err := NewNumericalFloat("q", -1, 2, 0.25, 0)
	require.NoError(t, err)
	d, err := h.DefaultDistribution()
	require.NoError(t, err)
	vs, err := h.Samples(d, rng.New(2), 1000)
	require.NoError(t, err)
	for _, v := range vs {
		require.True(t, h.Check(v), "%s", v)
	}
}

func TestNumericalOversamplingRejectsOutOfRange(t *testing.T) {
	h, err := NewNumericalFloat("x", 0, 1, 0, 0.5)
	require.NoError(t, err)
	d, err := distribution.NewNormalFloat(0.5, 0.5, distribution.ScaleLinear, 0)
	require.NoError(t, err)
	vs, err := h.Samples(d, rng.New(3), 500)
	require.NoError(t, err)
	require.Len(t, vs, 500)
	for _, v := range vs {
		require.True(t, h.Check(v))
	}
}

func TestCategoricalScenario(t *testing.T) {
	h, err := NewCategorical("c", strings("a", "b", "c"), 1)
	require.NoError(t, err)
	assert.Equal(t, TypeCategorical, h.Type())
	assert.Equal(t, `"b"`, h.DefaultValue().String())
	assert.Equal(t, "[0, 3)", h.SamplingInterval().String())

	d, err := h.DefaultDistribution()
	require.NoError(t, err)
	vs, err := h.Samples(d, rng.New(4), 1000)
	require.NoError(t, err)
	require.Len(t, vs, 1000)
	for _, v := range vs {
		require.True(t, h.Check(v), "%s", v)
	}
}

func TestIndexedConstructionRules(t *testing.T) {
	_, err := NewCategorical("c", nil, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
	_, err = NewCategorical("c", strings("a"), 1)
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
	_, err = NewCategorical("c", strings("a", "a"), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
	_, err = NewCategorical("c", []domain.Value{domain.Inactive()}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
	_, err = NewDiscrete("d", []domain.Value{domain.Int(1), domain.Float(2)}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
	_, err = NewDiscrete("d", strings("x"), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidValue)

	mixed, err := NewCategorical("m", []domain.Value{domain.None(), domain.Int(1), domain.Bool(true), domain.String("s")}, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, mixed.NumValues())
	n, err := mixed.CopyValues(nil)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestOversamplingTermination(t *testing.T) {
	h, err := NewCategorical("c", strings("a", "b", "c"), 0)
	require.NoError(t, err)
	// Support [0, k+5) exceeds the three valid indexes.
	d, err := distribution.NewUniformInt(0, 8, distribution.ScaleLinear, 0)
	require.NoError(t, err)

	for _, n := range []int{0, 1, 7, 100, 2500} {
		vs, err := h.Samples(d, rng.New(uint64(n)), n)
		require.NoError(t, err)
		require.Len(t, vs, n)
		for _, v := range vs {
			require.True(t, h.Check(v))
		}
	}
}

func TestOversamplingGivesUp(t *testing.T) {
	h, err := NewCategorical("c", strings("a", "b"), 0)
	require.NoError(t, err)
	// Support sits entirely outside the valid indexes.
	d, err := distribution.NewUniformInt(10, 20, distribution.ScaleLinear, 0)
	require.NoError(t, err)
	_, err = h.Samples(d, rng.New(1), 5)
	assert.ErrorIs(t, err, domain.ErrSamplingUnsuccessful)
}

func TestSamplingArguments(t *testing.T) {
	h, err := NewCategorical("c", strings("a", "b"), 0)
	require.NoError(t, err)
	d, err := h.DefaultDistribution()
	require.NoError(t, err)

	_, err = h.Sample(nil, rng.New(1))
	assert.ErrorIs(t, err, domain.ErrInvalidObject)
	_, err = h.Sample(d, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidObject)

	fd, err := distribution.NewUniformFloat(0, 2, distribution.ScaleLinear, 0)
	require.NoError(t, err)
	_, err = h.Sample(fd, rng.New(1))
	assert.ErrorIs(t, err, domain.ErrInvalidDistribution)

	md, err := distribution.NewMultivariate(d, d)
	require.NoError(t, err)
	_, err = h.Sample(md, rng.New(1))
	assert.ErrorIs(t, err, domain.ErrInvalidDistribution)

	v, err := h.Sample(d, rng.New(1))
	require.NoError(t, err)
	assert.True(t, h.Check(v))
}

func TestOrdinalCompareValues(t *testing.T) {
	h, err := NewOrdinal("o", strings("low", "mid", "high"), 1)
	require.NoError(t, err)
	assert.Equal(t, TypeOrdinal, h.Type())

	c, err := h.CompareValues(domain.String("low"), domain.String("high"))
	require.NoError(t, err)
	assert.Equal(t, -1, c)
	c, err = h.CompareValues(domain.String("high"), domain.String("mid"))
	require.NoError(t, err)
	assert.Equal(t, 1, c)
	c, err = h.CompareValues(domain.String("mid"), domain.TransientString("mid"))
	require.NoError(t, err)
	assert.Zero(t, c)

	_, err = h.CompareValues(domain.String("huge"), domain.String("low"))
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestDiscreteValidate(t *testing.T) {
	h, err := NewDiscrete("d", []domain.Value{domain.Float(0.5), domain.Float(1), domain.Float(2)}, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.NumFloat, h.DataType())

	v, ok := h.Validate(domain.Int(2))
	assert.True(t, ok)
	assert.True(t, domain.Float(2).Equal(v))
	_, ok = h.Validate(domain.Float(3))
	assert.False(t, ok)

	ints, err := NewDiscrete("i", []domain.Value{domain.Int(1), domain.Int(3)}, 0)
	require.NoError(t, err)
	v, ok = ints.Validate(domain.Float(3))
	assert.True(t, ok)
	assert.True(t, domain.Int(3).Equal(v))
	_, ok = ints.Validate(domain.Float(1.5))
	assert.False(t, ok)
}

func TestTransientStringsAreMemoized(t *testing.T) {
	cat, err := NewCategorical("c", strings("x", "y"), 0)
	require.NoError(t, err)
	v, ok := cat.Validate(domain.TransientString("y"))
	require.True(t, ok)
	assert.Zero(t, v.Flags())

	s, err := NewString("s")
	require.NoError(t, err)
	v, ok = s.Validate(domain.TransientString("free form"))
	require.True(t, ok)
	assert.Zero(t, v.Flags())
	assert.Equal(t, "free form", v.Str())

	_, ok = s.Validate(domain.Int(1))
	assert.False(t, ok)
}

func TestStringCannotBeSampled(t *testing.T) {
	s, err := NewString("s", WithUserData("meta"))
	require.NoError(t, err)
	assert.Equal(t, "meta", s.UserData())
	assert.True(t, s.SamplingInterval().Empty())

	_, err = s.DefaultDistribution()
	assert.ErrorIs(t, err, domain.ErrUnsupportedOperation)

	d, err := distribution.NewUniformFloat(0, 1, distribution.ScaleLinear, 0)
	require.NoError(t, err)
	_, err = s.Samples(d, rng.New(1), 3)
	assert.ErrorIs(t, err, domain.ErrUnsupportedOperation)
}

func TestConvertSamples(t *testing.T) {
	h, err := NewOrdinal("o", strings("a", "b"), 0)
	require.NoError(t, err)
	out := h.ConvertSamples(true, []domain.Numeric{domain.IntNumeric(1), domain.IntNumeric(5), domain.IntNumeric(-1)})
	require.Len(t, out, 3)
	assert.Equal(t, "b", out[0].Str())
	assert.True(t, out[1].IsInactive())
	assert.True(t, out[2].IsInactive())
}
