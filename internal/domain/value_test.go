package domain

import (
	"math"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueConstructors(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		kind Kind
		str  string
	}{
		{"zero is none", Value{}, KindNone, "none"},
		{"inactive", Inactive(), KindInactive, "inactive"},
		{"integer", Int(-3), KindInteger, "-3"},
		{"float keeps point", Float(2), KindFloat, "2.0"},
		{"float exponent", Float(1e-7), KindFloat, "1e-07"},
		{"infinity", Float(math.Inf(1)), KindFloat, "+Inf"},
		{"boolean", Bool(true), KindBoolean, "true"},
		{"string is quoted", String("adam"), KindString, `"adam"`},
		{"list", List([]Value{Int(1), String("a")}), KindList, `[1, "a"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.v.Kind())
			assert.Equal(t, tt.str, tt.v.String())
		})
	}
}

func TestValueAccessorsIgnoreOtherKinds(t *testing.T) {
	v := String("x")
	assert.Zero(t, v.Int())
	assert.Zero(t, v.Float())
	assert.False(t, v.Bool())
	assert.Nil(t, v.Object())
	assert.Equal(t, "", Int(1).Str())

	f, ok := Int(4).AsFloat()
	assert.True(t, ok)
	assert.Equal(t, 4.0, f)
	_, ok = Bool(true).AsFloat()
	assert.False(t, ok)
}

func TestValueCmpOrdersKindsThenPayload(t *testing.T) {
	assert.Negative(t, None().Cmp(Int(0)), "kind order comes first")
	assert.Negative(t, Int(1).Cmp(Int(2)))
	assert.Positive(t, Float(2.5).Cmp(Float(-1)))
	assert.Negative(t, String("a").Cmp(String("b")))
	assert.Negative(t, Bool(false).Cmp(Bool(true)))
	assert.Zero(t, List([]Value{Int(1)}).Cmp(List([]Value{Int(1)})))
	assert.Negative(t, List([]Value{Int(1)}).Cmp(List([]Value{Int(1), Int(2)})))

	// Integers and floats are distinct kinds even when numerically equal.
	assert.False(t, Int(1).Equal(Float(1)))
}

func TestValueFlagsDoNotAffectEquality(t *testing.T) {
	a := TransientString("lr")
	b := String("lr")
	assert.Equal(t, FlagTransient, a.Flags())
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, Flags(0), a.WithFlags(0).Flags())
}

func TestValueObjectsCompareByIdentity(t *testing.T) {
	type handle struct{ n int }
	h1, h2 := &handle{1}, &handle{1}
	assert.True(t, Object(h1).Equal(Object(h1)))
	assert.False(t, Object(h1).Equal(Object(h2)))
}

func TestValueHashConsistentWithEqual(t *testing.T) {
	f := func(a, b int64) bool {
		if Int(a).Equal(Int(b)) != (Int(a).Hash() == Int(b).Hash()) {
			return a != b // collision is allowed only for distinct inputs
		}
		return true
	}
	require.NoError(t, quick.Check(f, nil))
	assert.Equal(t, Float(0).Hash(), Float(math.Copysign(0, -1)).Hash())
}

func TestFromAny(t *testing.T) {
	tests := []struct {
		in      any
		want    Value
		wantErr error
	}{
		{nil, None(), nil},
		{7, Int(7), nil},
		{int32(7), Int(7), nil},
		{uint64(math.MaxUint64), Value{}, ErrInvalidValue},
		{1.5, Float(1.5), nil},
		{true, Bool(true), nil},
		{"s", String("s"), nil},
		{struct{}{}, Value{}, ErrInvalidType},
	}

	for _, tt := range tests {
		got, err := FromAny(tt.in)
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr)
			continue
		}
		require.NoError(t, err)
		assert.True(t, tt.want.Equal(got), "FromAny(%v) = %v", tt.in, got)
	}
}

func TestValueInterface(t *testing.T) {
	assert.Equal(t, int64(3), Int(3).Interface())
	assert.Equal(t, "a", String("a").Interface())
	assert.Nil(t, None().Interface())
	assert.Equal(t, []any{int64(1), true}, List([]Value{Int(1), Bool(true)}).Interface())
}
