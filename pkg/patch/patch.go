package patch

import (
	"maps"
	"slices"
)

// Document is a decoded JSON object: the dynamic form of a snapshot or state
// tree. It is an alias so values produced by encoding/json are Documents.
type Document = map[string]any

// reservedKeys name object internals in the dashboard's original runtime.
// They are never copied into a state tree, whichever side they appear on.
var reservedKeys = map[string]struct{}{
	"__proto__":   {},
	"constructor": {},
	"prototype":   {},
}

// Patch merges source into target in place and reports whether target
// changed. See the package documentation for the exact semantics.
//
// Patch panics with a *ProgrammingError when target is nil or the options
// are unusable.
func Patch(target, source Document, opts ...Option) bool {
	return NewOptions(opts...).Patch(target, source)
}

// Patch merges source into target using o.
func (o Options) Patch(target, source Document) bool {
	if target == nil {
		panic(&ProgrammingError{Op: "patch", Message: "target document is nil"})
	}
	o.mustValidate()
	return o.patchDocument(target, source)
}

// patchDocument visits source keys in sorted order. When KeyTransform maps
// several source keys to one target key, the last of them in byte order wins.
func (o Options) patchDocument(target, source Document) bool {
	changed := false

	for _, key := range slices.Sorted(maps.Keys(source)) {
		value := source[key]
		if isReserved(key) {
			continue
		}
		toKey := key
		if o.KeyTransform != nil {
			toKey = o.KeyTransform(key)
		}
		if isReserved(toKey) {
			continue
		}

		if value == nil && !o.AllowNull {
			continue
		}

		current, exists := target[toKey]
		if !exists {
			target[toKey] = o.fresh(value)
			changed = true
			continue
		}

		if o.Recurse {
			if dst, ok := asDocument(current); ok {
				if src, ok := asDocument(value); ok {
					if o.patchDocument(dst, src) {
						changed = true
					}
					continue
				}
			}
		}

		if dst, ok := current.([]any); ok {
			if src, ok := value.([]any); ok {
				if next, arrayChanged := o.patchArray(dst, src); arrayChanged {
					target[toKey] = next
					changed = true
				}
				continue
			}
		}

		if !o.Compare(current, value) {
			target[toKey] = o.fresh(value)
			changed = true
		}
	}

	return changed
}

// patchArray reconciles dst towards src and returns the slice to store under
// the parent key. In index-wise mode the backing array of dst is reused
// whenever its capacity allows.
func (o Options) patchArray(dst, src []any) ([]any, bool) {
	if o.Arrays == ArraysReplace {
		if o.arraysEqual(dst, src) {
			return dst, false
		}
		return cloneSlice(src), true
	}

	changed := len(dst) != len(src)
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		if !o.Compare(dst[i], src[i]) {
			dst[i] = cloneValue(src[i])
			changed = true
		}
	}

	if len(dst) > len(src) {
		clear(dst[len(src):])
		dst = dst[:len(src)]
	} else {
		for _, v := range src[n:] {
			dst = append(dst, cloneValue(v))
		}
	}

	return dst, changed
}

func (o Options) arraysEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !o.Compare(a[i], b[i]) {
			return false
		}
	}
	return true
}

// fresh prepares a source value for a direct write into the target. Nested
// documents are built by patching into an empty document so key transforms
// apply at every depth.
func (o Options) fresh(value any) any {
	if src, ok := asDocument(value); ok && o.Recurse {
		doc := make(Document, len(src))
		o.patchDocument(doc, src)
		return doc
	}
	return cloneValue(value)
}

func asDocument(v any) (Document, bool) {
	doc, ok := v.(map[string]any)
	return doc, ok && doc != nil
}

func isReserved(key string) bool {
	_, ok := reservedKeys[key]
	return ok
}
