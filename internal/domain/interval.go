package domain

import (
	"fmt"
	"math"
)

// Interval bounds a numeric domain or a sampling range. Bounds are
// interpreted according to Type; inclusivity is tracked per side.
type Interval struct {
	Type          NumericType
	Lower         Numeric
	Upper         Numeric
	LowerIncluded bool
	UpperIncluded bool
}

// NewInterval returns the half-open interval [lower, upper).
func NewInterval(t NumericType, lower, upper Numeric) (Interval, error) {
	return NewIntervalBounds(t, lower, upper, true, false)
}

// NewIntervalBounds returns an interval with explicit inclusivity. An
// interval whose bounds admit no point is valid and reports Empty.
func NewIntervalBounds(t NumericType, lower, upper Numeric, lowerIncluded, upperIncluded bool) (Interval, error) {
	if !t.Valid() {
		return Interval{}, fmt.Errorf("interval of %s: %w", t, ErrInvalidType)
	}
	if t == NumFloat && (math.IsNaN(lower.F) || math.IsNaN(upper.F)) {
		return Interval{}, fmt.Errorf("interval bound is NaN: %w", ErrInvalidValue)
	}
	return Interval{
		Type:          t,
		Lower:         lower,
		Upper:         upper,
		LowerIncluded: lowerIncluded,
		UpperIncluded: upperIncluded,
	}, nil
}

// EmptyInterval returns an empty float interval, the sampling interval of
// domains that cannot be sampled.
func EmptyInterval() Interval {
	return Interval{Type: NumFloat, Lower: FloatNumeric(0), Upper: FloatNumeric(0)}
}

// closedInts returns the integer interval as inclusive bounds and whether
// it holds any point.
func (iv Interval) closedInts() (lo, hi int64, ok bool) {
	lo, hi = iv.Lower.I, iv.Upper.I
	if !iv.LowerIncluded {
		if lo == math.MaxInt64 {
			return 0, 0, false
		}
		lo++
	}
	if !iv.UpperIncluded {
		if hi == math.MinInt64 {
			return 0, 0, false
		}
		hi--
	}
	return lo, hi, lo <= hi
}

// Empty reports whether no point lies in the interval.
func (iv Interval) Empty() bool {
	if iv.Type == NumInteger {
		_, _, ok := iv.closedInts()
		return !ok
	}
	l, u := iv.Lower.F, iv.Upper.F
	if math.IsNaN(l) || math.IsNaN(u) || l > u {
		return true
	}
	if l == u {
		return !(iv.LowerIncluded && iv.UpperIncluded)
	}
	return false
}

// Equal reports field-wise equality, inclusivity included.
func (iv Interval) Equal(o Interval) bool {
	return iv.Type == o.Type &&
		iv.LowerIncluded == o.LowerIncluded &&
		iv.UpperIncluded == o.UpperIncluded &&
		iv.Lower.Compare(iv.Type, o.Lower) == 0 &&
		iv.Upper.Compare(iv.Type, o.Upper) == 0
}

// Include reports whether n lies in the interval.
func (iv Interval) Include(n Numeric) bool {
	if iv.Type == NumInteger {
		lo, hi, ok := iv.closedInts()
		return ok && n.I >= lo && n.I <= hi
	}
	if math.IsNaN(n.F) {
		return false
	}
	lowerOK := n.F > iv.Lower.F || (iv.LowerIncluded && n.F == iv.Lower.F)
	upperOK := n.F < iv.Upper.F || (iv.UpperIncluded && n.F == iv.Upper.F)
	return lowerOK && upperOK
}

// Contains reports whether o is a subset of iv. The empty interval is a
// subset of every interval.
func (iv Interval) Contains(o Interval) bool {
	if iv.Type != o.Type {
		return false
	}
	if o.Empty() {
		return true
	}
	if iv.Empty() {
		return false
	}
	if iv.Type == NumInteger {
		lo, hi, _ := iv.closedInts()
		olo, ohi, _ := o.closedInts()
		return olo >= lo && ohi <= hi
	}
	lowerOK := o.Lower.F > iv.Lower.F ||
		(o.Lower.F == iv.Lower.F && (iv.LowerIncluded || !o.LowerIncluded))
	upperOK := o.Upper.F < iv.Upper.F ||
		(o.Upper.F == iv.Upper.F && (iv.UpperIncluded || !o.UpperIncluded))
	return lowerOK && upperOK
}

// Intersect returns the intersection of two intervals of the same type.
func (iv Interval) Intersect(o Interval) (Interval, error) {
	if iv.Type != o.Type {
		return Interval{}, fmt.Errorf("intersect %s with %s: %w", iv.Type, o.Type, ErrInvalidType)
	}
	r := Interval{Type: iv.Type}
	switch c := iv.Lower.Compare(iv.Type, o.Lower); {
	case c > 0:
		r.Lower, r.LowerIncluded = iv.Lower, iv.LowerIncluded
	case c < 0:
		r.Lower, r.LowerIncluded = o.Lower, o.LowerIncluded
	default:
		r.Lower, r.LowerIncluded = iv.Lower, iv.LowerIncluded && o.LowerIncluded
	}
	switch c := iv.Upper.Compare(iv.Type, o.Upper); {
	case c < 0:
		r.Upper, r.UpperIncluded = iv.Upper, iv.UpperIncluded
	case c > 0:
		r.Upper, r.UpperIncluded = o.Upper, o.UpperIncluded
	default:
		r.Upper, r.UpperIncluded = iv.Upper, iv.UpperIncluded && o.UpperIncluded
	}
	return r, nil
}

// Union returns the smallest interval holding both operands. Empty operands
// are ignored.
func (iv Interval) Union(o Interval) (Interval, error) {
	if iv.Type != o.Type {
		return Interval{}, fmt.Errorf("union %s with %s: %w", iv.Type, o.Type, ErrInvalidType)
	}
	if o.Empty() {
		return iv, nil
	}
	if iv.Empty() {
		return o, nil
	}
	r := Interval{Type: iv.Type}
	switch c := iv.Lower.Compare(iv.Type, o.Lower); {
	case c < 0:
		r.Lower, r.LowerIncluded = iv.Lower, iv.LowerIncluded
	case c > 0:
		r.Lower, r.LowerIncluded = o.Lower, o.LowerIncluded
	default:
		r.Lower, r.LowerIncluded = iv.Lower, iv.LowerIncluded || o.LowerIncluded
	}
	switch c := iv.Upper.Compare(iv.Type, o.Upper); {
	case c > 0:
		r.Upper, r.UpperIncluded = iv.Upper, iv.UpperIncluded
	case c < 0:
		r.Upper, r.UpperIncluded = o.Upper, o.UpperIncluded
	default:
		r.Upper, r.UpperIncluded = iv.Upper, iv.UpperIncluded || o.UpperIncluded
	}
	return r, nil
}

// String renders the interval in bracket notation, e.g. "[-5, 5)".
func (iv Interval) String() string {
	open, closeB := "(", ")"
	if iv.LowerIncluded {
		open = "["
	}
	if iv.UpperIncluded {
		closeB = "]"
	}
	return open + iv.Lower.Format(iv.Type) + ", " + iv.Upper.Format(iv.Type) + closeB
}
