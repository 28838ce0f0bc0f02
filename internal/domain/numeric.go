package domain

import (
	"cmp"
	"math"
	"strconv"
)

// NumericType selects how a Numeric cell is interpreted.
type NumericType uint8

// Numeric types. The zero NumericType is invalid.
const (
	NumInteger NumericType = iota + 1
	NumFloat
)

// Valid reports whether t is one of the defined numeric types.
func (t NumericType) Valid() bool { return t == NumInteger || t == NumFloat }

// String returns "integer" or "float".
func (t NumericType) String() string {
	switch t {
	case NumInteger:
		return "integer"
	case NumFloat:
		return "float"
	default:
		return "numeric_type(" + strconv.Itoa(int(t)) + ")"
	}
}

// Numeric is a sample cell whose meaning depends on a NumericType supplied
// alongside it: I for integers, F for floats.
type Numeric struct {
	I int64
	F float64
}

// IntNumeric returns an integer cell.
func IntNumeric(i int64) Numeric { return Numeric{I: i} }

// FloatNumeric returns a float cell.
func FloatNumeric(f float64) Numeric { return Numeric{F: f} }

// NumericFromFloat builds a cell of the given type from a float, truncating
// toward zero for integers.
func NumericFromFloat(t NumericType, f float64) Numeric {
	if t == NumInteger {
		return IntNumeric(int64(f))
	}
	return FloatNumeric(f)
}

// Float returns the cell as a float64 under type t.
func (n Numeric) Float(t NumericType) float64 {
	if t == NumInteger {
		return float64(n.I)
	}
	return n.F
}

// Value converts the cell to a Value of the matching kind.
func (n Numeric) Value(t NumericType) Value {
	if t == NumInteger {
		return Int(n.I)
	}
	return Float(n.F)
}

// Compare orders two cells of the same type.
func (n Numeric) Compare(t NumericType, o Numeric) int {
	if t == NumInteger {
		return cmp.Compare(n.I, o.I)
	}
	return cmp.Compare(n.F, o.F)
}

// Format renders the cell under type t.
func (n Numeric) Format(t NumericType) string {
	if t == NumInteger {
		return strconv.FormatInt(n.I, 10)
	}
	return strconv.FormatFloat(n.F, 'g', -1, 64)
}

// Finite reports whether a float cell is neither infinite nor NaN. Integer
// cells are always finite.
func (n Numeric) Finite(t NumericType) bool {
	if t == NumInteger {
		return true
	}
	return !math.IsInf(n.F, 0) && !math.IsNaN(n.F)
}
