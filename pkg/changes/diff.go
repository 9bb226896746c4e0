package changes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

var (
	pointerEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

// operation is one RFC 6902 step. Value is raw JSON so a null value is
// still written out.
type operation struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Diff returns the RFC 6902 patch that turns the JSON object from into to.
// Objects are compared key by key; arrays and scalars are replaced whole.
// The patch is "[]" when the documents are equal.
func Diff(from, to []byte) ([]byte, error) {
	a, err := decode(from)
	if err != nil {
		return nil, err
	}
	b, err := decode(to)
	if err != nil {
		return nil, err
	}

	aObj, aOK := a.(map[string]any)
	bObj, bOK := b.(map[string]any)
	if !aOK || !bOK {
		return nil, fmt.Errorf("diff: both documents must be JSON objects")
	}

	ops := []operation{}
	if err := diffObjects("", aObj, bObj, &ops); err != nil {
		return nil, err
	}
	return json.Marshal(ops)
}

func diffObjects(prefix string, a, b map[string]any, ops *[]operation) error {
	for _, k := range slices.Sorted(maps.Keys(a)) {
		if _, ok := b[k]; !ok {
			*ops = append(*ops, operation{Op: "remove", Path: prefix + "/" + pointerEscaper.Replace(k)})
		}
	}

	for _, k := range slices.Sorted(maps.Keys(b)) {
		path := prefix + "/" + pointerEscaper.Replace(k)
		bv := b[k]
		av, ok := a[k]
		if !ok {
			if err := appendValue(ops, "add", path, bv); err != nil {
				return err
			}
			continue
		}

		aChild, aObj := av.(map[string]any)
		bChild, bObj := bv.(map[string]any)
		if aObj && bObj {
			if err := diffObjects(path, aChild, bChild, ops); err != nil {
				return err
			}
			continue
		}
		if !reflect.DeepEqual(av, bv) {
			if err := appendValue(ops, "replace", path, bv); err != nil {
				return err
			}
		}
	}
	return nil
}

func appendValue(ops *[]operation, op, path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("diff %s: %w", path, err)
	}
	*ops = append(*ops, operation{Op: op, Path: path, Value: raw})
	return nil
}

// decode keeps numbers as json.Number so large integers survive the round
// trip.
func decode(doc []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("diff: decode document: %w", err)
	}
	return v, nil
}
