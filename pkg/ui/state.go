package ui

import (
	"reflect"
	"strconv"
)

// isObject reports whether v takes part in field-wise merging: a non-nil
// map with string keys or a non-nil slice, of any named or element type.
func isObject(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		return rv.Type().Key().Kind() == reflect.String && !rv.IsNil()
	case reflect.Slice:
		return !rv.IsNil()
	}
	return false
}

// mergeField returns the value a field holding existing should hold after
// incoming is merged into it. Non-objects are overwritten; objects are
// merged into in place and never replaced.
func mergeField(existing, incoming any) any {
	if !isObject(existing) {
		return incoming
	}
	return mergeObject(existing, incoming)
}

// mergeObject merges src into the object dst. Slices merge index by index
// and grow as needed; a slice merged into a map contributes its indexes as
// keys. A non-object src leaves dst unchanged, as does a field whose merged
// value does not fit dst's element type.
func mergeObject(dst, src any) any {
	if !isObject(src) {
		return dst
	}
	d, s := reflect.ValueOf(dst), reflect.ValueOf(src)
	elem := d.Type().Elem()

	switch d.Kind() {
	case reflect.Map:
		fields(s, func(name string, v reflect.Value) {
			key := reflect.ValueOf(name).Convert(d.Type().Key())
			var existing any
			if cur := d.MapIndex(key); cur.IsValid() {
				existing = cur.Interface()
			}
			if merged, ok := fit(mergeField(existing, v.Interface()), elem); ok {
				d.SetMapIndex(key, merged)
			}
		})
		return dst
	case reflect.Slice:
		if s.Kind() != reflect.Slice {
			return dst
		}
		for i := 0; i < s.Len(); i++ {
			v := s.Index(i).Interface()
			if i < d.Len() {
				if merged, ok := fit(mergeField(d.Index(i).Interface(), v), elem); ok {
					d.Index(i).Set(merged)
				}
				continue
			}
			item, ok := fit(v, elem)
			if !ok {
				item = reflect.Zero(elem)
			}
			d = reflect.Append(d, item)
		}
		return d.Interface()
	}
	return dst
}

// fields calls fn for each field of the object o: map entries by key,
// slice elements by index.
func fields(o reflect.Value, fn func(name string, v reflect.Value)) {
	if o.Kind() == reflect.Map {
		iter := o.MapRange()
		for iter.Next() {
			fn(iter.Key().String(), iter.Value())
		}
		return
	}
	for i := 0; i < o.Len(); i++ {
		fn(strconv.Itoa(i), o.Index(i))
	}
}

// fit converts v for storage in a container whose elements have type t.
// Named and unnamed forms of the same kind convert (Props to
// map[string]any), as do numbers; anything else does not fit.
func fit(v any, t reflect.Type) (reflect.Value, bool) {
	if v == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Map, reflect.Slice, reflect.Pointer, reflect.Func, reflect.Chan:
			return reflect.Zero(t), true
		}
		return reflect.Value{}, false
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, true
	}
	if !rv.Type().ConvertibleTo(t) {
		return reflect.Value{}, false
	}
	if rv.Kind() == t.Kind() || (isNumber(rv.Kind()) && isNumber(t.Kind())) {
		return rv.Convert(t), true
	}
	return reflect.Value{}, false
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
