// Package domain holds the value model shared by every configuration
// space component: tagged values, numeric cells, intervals, result codes
// and the sampling RNG contract.
package domain

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Kind tags the payload carried by a Value.
type Kind uint8

// Value kinds. KindNone is the zero value so that an unset Value is "none".
const (
	KindNone Kind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindString
	KindInactive
	KindObject
	KindList
)

var kindNames = [...]string{
	KindNone:     "none",
	KindInteger:  "integer",
	KindFloat:    "float",
	KindBoolean:  "boolean",
	KindString:   "string",
	KindInactive: "inactive",
	KindObject:   "object",
	KindList:     "list",
}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Flags annotate how a Value's payload is owned.
type Flags uint8

const (
	// FlagTransient marks a string owned by the caller. Consumers that retain
	// the value must memoize it first.
	FlagTransient Flags = 1 << iota
	// FlagUnpooled marks a string that must not be interned.
	FlagUnpooled
	// FlagDefault marks a value produced as a default.
	FlagDefault
)

// Value is the tagged scalar flowing through the configuration space model.
// The zero Value is "none".
type Value struct {
	kind  Kind
	flags Flags
	i     int64
	f     float64
	s     string
	obj   any
	list  []Value
}

// None returns the none value.
func None() Value { return Value{} }

// Inactive returns the distinguished inactive value bound to hyperparameters
// whose condition does not hold.
func Inactive() Value { return Value{kind: KindInactive} }

// Int returns an integer value.
func Int(v int64) Value { return Value{kind: KindInteger, i: v} }

// Float returns a float value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Bool returns a boolean value.
func Bool(v bool) Value {
	val := Value{kind: KindBoolean}
	if v {
		val.i = 1
	}
	return val
}

// String returns a string value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// TransientString returns a caller-owned string value.
func TransientString(v string) Value {
	return Value{kind: KindString, s: v, flags: FlagTransient}
}

// Object wraps an arbitrary object, such as a hyperparameter or an
// expression handed to an expression constructor.
func Object(o any) Value { return Value{kind: KindObject, obj: o} }

// List returns a list value. Lists only arise from wholesale evaluation of
// list expressions.
func List(vs []Value) Value { return Value{kind: KindList, list: vs} }

// FromAny converts a Go scalar into a Value. Integers of every width map to
// KindInteger and floats to KindFloat.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return None(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return Value{}, fmt.Errorf("integer %d overflows int64: %w", x, ErrInvalidValue)
		}
		return Int(int64(x)), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case string:
		return String(x), nil
	default:
		return Value{}, fmt.Errorf("unsupported Go type %T: %w", v, ErrInvalidType)
	}
}

// Kind returns the value's kind tag.
func (v Value) Kind() Kind { return v.kind }

// Flags returns the ownership flags.
func (v Value) Flags() Flags { return v.flags }

// WithFlags returns a copy carrying the given flags.
func (v Value) WithFlags(f Flags) Value {
	v.flags = f
	return v
}

// Int returns the integer payload. It is zero for other kinds.
func (v Value) Int() int64 {
	if v.kind == KindInteger {
		return v.i
	}
	return 0
}

// Float returns the float payload. It is zero for other kinds.
func (v Value) Float() float64 {
	if v.kind == KindFloat {
		return v.f
	}
	return 0
}

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.kind == KindBoolean && v.i != 0 }

// Str returns the string payload.
func (v Value) Str() string {
	if v.kind == KindString {
		return v.s
	}
	return ""
}

// Object returns the wrapped object, or nil.
func (v Value) Object() any {
	if v.kind == KindObject {
		return v.obj
	}
	return nil
}

// List returns the list payload.
func (v Value) List() []Value {
	if v.kind == KindList {
		return v.list
	}
	return nil
}

// IsNone reports whether the value is none.
func (v Value) IsNone() bool { return v.kind == KindNone }

// IsInactive reports whether the value is the inactive marker.
func (v Value) IsInactive() bool { return v.kind == KindInactive }

// IsNumeric reports whether the value is an integer or a float.
func (v Value) IsNumeric() bool { return v.kind == KindInteger || v.kind == KindFloat }

// AsFloat returns the value promoted to float64 when it is numeric.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindInteger:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Numeric returns the numeric cell and its type when the value is numeric.
func (v Value) Numeric() (Numeric, NumericType, bool) {
	switch v.kind {
	case KindInteger:
		return IntNumeric(v.i), NumInteger, true
	case KindFloat:
		return FloatNumeric(v.f), NumFloat, true
	default:
		return Numeric{}, 0, false
	}
}

// Equal reports structural equality. Flags are ignored and objects compare
// by identity.
func (v Value) Equal(o Value) bool { return v.Cmp(o) == 0 }

// Cmp orders values by kind first and then by payload, giving a total order
// usable for sorting and deduplication. NaN floats sort before every other
// float.
func (v Value) Cmp(o Value) int {
	if c := cmp.Compare(v.kind, o.kind); c != 0 {
		return c
	}
	switch v.kind {
	case KindInteger, KindBoolean:
		return cmp.Compare(v.i, o.i)
	case KindFloat:
		return cmp.Compare(v.f, o.f)
	case KindString:
		return strings.Compare(v.s, o.s)
	case KindObject:
		if sameObject(v.obj, o.obj) {
			return 0
		}
		return cmp.Compare(objectAddress(v.obj), objectAddress(o.obj))
	case KindList:
		for i := 0; i < len(v.list) && i < len(o.list); i++ {
			if c := v.list[i].Cmp(o.list[i]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(v.list), len(o.list))
	default:
		return 0
	}
}

func sameObject(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	return ta == reflect.TypeOf(b) && ta.Comparable() && a == b
}

// objectAddress gives objects a stable ordering key based on identity.
func objectAddress(o any) uintptr {
	if o == nil {
		return 0
	}
	rv := reflect.ValueOf(o)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return rv.Pointer()
	default:
		return 0
	}
}

// Hash returns a 64-bit hash consistent with Equal.
func (v Value) Hash() uint64 {
	d := xxhash.New()
	v.hashInto(d)
	return d.Sum64()
}

// HashInto feeds the value into a running digest so that bindings can hash
// whole value vectors.
func (v Value) HashInto(d *xxhash.Digest) { v.hashInto(d) }

func (v Value) hashInto(d *xxhash.Digest) {
	var buf [9]byte
	buf[0] = byte(v.kind)
	switch v.kind {
	case KindInteger, KindBoolean:
		binary.LittleEndian.PutUint64(buf[1:], uint64(v.i))
		_, _ = d.Write(buf[:])
	case KindFloat:
		f := v.f
		if f == 0 {
			f = 0 // fold -0 into +0
		}
		binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(f))
		_, _ = d.Write(buf[:])
	case KindString:
		_, _ = d.Write(buf[:1])
		_, _ = d.WriteString(v.s)
	case KindObject:
		binary.LittleEndian.PutUint64(buf[1:], uint64(objectAddress(v.obj)))
		_, _ = d.Write(buf[:])
	case KindList:
		_, _ = d.Write(buf[:1])
		for _, e := range v.list {
			e.hashInto(d)
		}
	default:
		_, _ = d.Write(buf[:1])
	}
}

// String renders the value the way literals are written in expressions.
func (v Value) String() string {
	switch v.kind {
	case KindNone:
		return "none"
	case KindInactive:
		return "inactive"
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		if !math.IsInf(v.f, 0) && !math.IsNaN(v.f) && !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return s
	case KindBoolean:
		return strconv.FormatBool(v.Bool())
	case KindString:
		return strconv.Quote(v.s)
	case KindObject:
		if s, ok := v.obj.(fmt.Stringer); ok {
			return s.String()
		}
		return fmt.Sprintf("%v", v.obj)
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return v.kind.String()
	}
}

// Interface returns the payload as a plain Go value, suitable for encoding.
func (v Value) Interface() any {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	case KindBoolean:
		return v.Bool()
	case KindString:
		return v.s
	case KindObject:
		return v.obj
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	default:
		return nil
	}
}
