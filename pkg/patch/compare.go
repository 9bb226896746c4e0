package patch

import (
	"math"
	"reflect"
)

// SameValue is the default Comparator. It is identity equality:
//   - NaN equals NaN, and +0 and -0 are different values;
//   - comparable values of the same dynamic type compare with ==;
//   - slices, maps and funcs are equal only when they are the same reference.
func SameValue(a, b any) bool {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		return ok && sameFloat(x, y)
	case float32:
		y, ok := b.(float32)
		return ok && sameFloat(float64(x), float64(y))
	}

	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta.Comparable() {
		return safeEqual(a, b)
	}
	return sameReference(reflect.ValueOf(a), reflect.ValueOf(b))
}

func sameFloat(x, y float64) bool {
	if math.IsNaN(x) && math.IsNaN(y) {
		return true
	}
	return x == y && math.Signbit(x) == math.Signbit(y)
}

// safeEqual guards against structs whose interface fields hold
// non-comparable values, where == panics at runtime.
func safeEqual(a, b any) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return a == b
}

func sameReference(va, vb reflect.Value) bool {
	switch va.Kind() {
	case reflect.Slice:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	case reflect.Map, reflect.Func:
		return va.Pointer() == vb.Pointer()
	default:
		return false
	}
}
