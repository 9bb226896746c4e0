package patch

import "slices"

// Scalar reconciles one field of a typed record. It overwrites *dst with src
// when o.Compare reports a difference and returns whether it did.
func Scalar[T any](dst *T, src T, o Options) bool {
	if o.Compare(*dst, src) {
		return false
	}
	*dst = src
	return true
}

// ScalarFunc is Scalar with a type-specific equality, for opaque values such
// as time.Time whose == does not match their semantic equality.
func ScalarFunc[T any](dst *T, src T, equal func(a, b T) bool) bool {
	if equal(*dst, src) {
		return false
	}
	*dst = src
	return true
}

// Slice reconciles a typed array field using o.Arrays. In index-wise mode
// *dst is mutated position by position and keeps its backing array when
// capacity allows; in replace mode it is swapped for a copy of src.
func Slice[T any](dst *[]T, src []T, o Options) bool {
	cur := *dst

	if o.Arrays == ArraysReplace {
		if len(cur) == len(src) && sliceEqual(cur, src, o.Compare) {
			return false
		}
		*dst = slices.Clone(src)
		return true
	}

	changed := len(cur) != len(src)
	n := min(len(cur), len(src))
	for i := 0; i < n; i++ {
		if !o.Compare(cur[i], src[i]) {
			cur[i] = src[i]
			changed = true
		}
	}
	if len(cur) > len(src) {
		clear(cur[len(src):])
		cur = cur[:len(src)]
	} else {
		cur = append(cur, src[n:]...)
	}

	*dst = cur
	return changed
}

func sliceEqual[T any](a, b []T, cmp Comparator) bool {
	for i := range a {
		if !cmp(a[i], b[i]) {
			return false
		}
	}
	return true
}
