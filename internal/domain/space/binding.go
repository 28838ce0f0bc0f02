package space

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/hyperparameter"
)

// binding is the value vector shared by configurations and evaluations:
// one value per hyperparameter of the owning context, by position.
type binding struct {
	values   []domain.Value
	userData any
}

// BindingOption configures a Configuration or Evaluation.
type BindingOption func(*binding)

// WithBindingData attaches an opaque value returned by UserData.
func WithBindingData(data any) BindingOption { return func(b *binding) { b.userData = data } }

// newBinding copies values, or fills n none values when values is nil.
// Transient strings are cloned so the binding never aliases caller memory.
func newBinding(n int, values []domain.Value, opts []BindingOption) (binding, error) {
	b := binding{}
	for _, opt := range opts {
		opt(&b)
	}
	if values == nil {
		b.values = make([]domain.Value, n)
		return b, nil
	}
	if len(values) != n {
		return b, fmt.Errorf("%d values for %d hyperparameters: %w", len(values), n, domain.ErrInvalidValue)
	}
	b.values = make([]domain.Value, n)
	for i, v := range values {
		b.values[i] = own(v)
	}
	return b, nil
}

func own(v domain.Value) domain.Value {
	if v.Kind() == domain.KindString && v.Flags()&domain.FlagTransient != 0 {
		return domain.String(strings.Clone(v.Str()))
	}
	return v
}

// UserData returns the value attached with WithBindingData.
func (b *binding) UserData() any { return b.userData }

// NumValues returns the number of bound values.
func (b *binding) NumValues() int { return len(b.values) }

// Value returns the value at position i.
func (b *binding) Value(i int) (domain.Value, error) {
	if i < 0 || i >= len(b.values) {
		return domain.Value{}, domain.NewIndexError("binding", "value", i, domain.ErrOutOfBounds)
	}
	return b.values[i], nil
}

// Values returns a copy of the bound values.
func (b *binding) Values() []domain.Value { return append([]domain.Value(nil), b.values...) }

// CopyValues copies the values into dst using the two-phase query idiom.
func (b *binding) CopyValues(dst []domain.Value) (int, error) { return domain.CopyOut(dst, b.values) }

// setValue stores v at i. Inactive markers are stored as is; other values
// go through validate and the binding is untouched when it rejects them.
func (b *binding) setValue(i int, v domain.Value, validate func(int, domain.Value) (domain.Value, bool)) error {
	if i < 0 || i >= len(b.values) {
		return domain.NewIndexError("binding", "set_value", i, domain.ErrOutOfBounds)
	}
	if v.IsInactive() {
		b.values[i] = v
		return nil
	}
	nv, ok := validate(i, v)
	if !ok {
		return domain.NewIndexError("binding", "set_value", i,
			fmt.Errorf("%s is not a member: %w", v, domain.ErrInvalidValue))
	}
	b.values[i] = own(nv)
	return nil
}

// hashValues digests a context identity followed by the value vector.
func hashValues(d *xxhash.Digest, id uint64, values []domain.Value) {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], id)
	binary.LittleEndian.PutUint64(buf[8:], uint64(len(values)))
	_, _ = d.Write(buf[:])
	for _, v := range values {
		v.HashInto(d)
	}
}

// cmpValues orders by context identity, then length, then element-wise.
func cmpValues(idA, idB uint64, a, b []domain.Value) int {
	if c := cmp.Compare(idA, idB); c != 0 {
		return c
	}
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	for i := range a {
		if c := a[i].Cmp(b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func formatBinding(hps []hyperparameter.Hyperparameter, values []domain.Value) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(hps[i].Name())
		b.WriteByte('=')
		b.WriteString(v.String())
	}
	b.WriteByte('}')
	return b.String()
}
