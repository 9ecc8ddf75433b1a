package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// FromValue converts a Go value into a Tree. Maps with string keys become
// map trees with sorted keys, slices and arrays become lists, numbers become
// float64. Any other value, structs included, goes through its JSON encoding
// so field order and json tags are honoured.
func FromValue(v any) (*Tree, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case *Tree:
		return x.Clone(), nil
	case Tree:
		return x.Clone(), nil
	case bool:
		return FromBool(x), nil
	case string:
		return FromString(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTree, err)
		}
		return FromNumber(f), nil
	case float64:
		return FromNumber(x), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		t := NewMap()
		for _, k := range keys {
			child, err := FromValue(x[k])
			if err != nil {
				return nil, err
			}
			t.Set(k, child)
		}
		return t, nil
	case []any:
		t := NewList()
		for _, item := range x {
			child, err := FromValue(item)
			if err != nil {
				return nil, err
			}
			t.Append(child)
		}
		return t, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return FromNumber(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return FromNumber(float64(rv.Uint())), nil
	case reflect.Float32:
		return FromNumber(rv.Float()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null(), nil
		}
		if rv.Type().Elem().Kind() != reflect.Uint8 {
			t := NewList()
			for i := 0; i < rv.Len(); i++ {
				child, err := FromValue(rv.Index(i).Interface())
				if err != nil {
					return nil, err
				}
				t.Append(child)
			}
			return t, nil
		}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			if rv.IsNil() {
				return Null(), nil
			}
			keys := make([]string, 0, rv.Len())
			for _, k := range rv.MapKeys() {
				keys = append(keys, k.String())
			}
			sort.Strings(keys)
			t := NewMap()
			for _, k := range keys {
				child, err := FromValue(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
				if err != nil {
					return nil, err
				}
				t.Set(k, child)
			}
			return t, nil
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTree, err)
	}
	return ParseJSON(data)
}

// MustFromValue is FromValue for literals known to be valid. It panics on
// error.
func MustFromValue(v any) *Tree {
	t, err := FromValue(v)
	if err != nil {
		panic(err)
	}
	return t
}

// Value converts t back into plain Go values: nil, bool, float64, string,
// []any and map[string]any.
func (t *Tree) Value() any {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case BoolKind:
		return t.Bool
	case NumberKind:
		return t.Number
	case StringKind:
		return t.String
	case ListKind:
		out := make([]any, len(t.Values))
		for i, v := range t.Values {
			out[i] = v.Value()
		}
		return out
	case MapKind:
		out := make(map[string]any, len(t.Keys))
		for i, k := range t.Keys {
			out[k] = t.Values[i].Value()
		}
		return out
	default:
		return nil
	}
}
