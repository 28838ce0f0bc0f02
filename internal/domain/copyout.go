package domain

import "fmt"

// CopyOut implements the two-phase query idiom for "get N items"
// operations. A nil dst only reports how many items exist. Otherwise dst
// must hold at least len(src) items; the items are copied and any trailing
// slots are reset to the zero value, which is the none sentinel for every
// element type used by this model.
func CopyOut[T any](dst, src []T) (int, error) {
	if dst == nil {
		return len(src), nil
	}
	if len(dst) < len(src) {
		return 0, fmt.Errorf("destination holds %d items, %d required: %w", len(dst), len(src), ErrInvalidValue)
	}
	n := copy(dst, src)
	var zero T
	for i := n; i < len(dst); i++ {
		dst[i] = zero
	}
	return n, nil
}
