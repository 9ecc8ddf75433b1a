package domain

// Resolve extracts from data the value at the single path that shape
// describes.
//
// Shape keys are scanned in order. A key that exists in data yields a
// candidate: a scalar shape leaf takes data's value as is, a map recurses, a
// non-empty list pairs its elements with data's elements by index and
// collects the truthy results into a list, and an empty list takes data's
// value wholesale. Scanning stops at the first truthy candidate; falsy ones
// (0, "", false, null) let later sibling keys be tried. When every candidate
// is falsy the last one is returned, so a stored 0 still reads back as 0.
// Nil is returned when no shape key exists in data.
//
// A well formed shape names exactly one path. Shapes naming several
// properties only ever produce the first truthy one.
func Resolve(shape, data *Tree) *Tree {
	if !shape.IsStructural() || !data.IsStructural() || shape.Kind != data.Kind {
		return nil
	}

	var result *Tree
	keys, values := entries(shape)
	for i, key := range keys {
		value, ok := child(data, key)
		if !ok {
			continue
		}

		element := values[i]
		switch {
		case element == nil || element.IsScalar():
			result = value
		case element.Kind == MapKind:
			result = Resolve(element, value)
		case element.Kind == ListKind:
			result = resolveList(element, value)
		}

		if result.Truthy() {
			break
		}
	}
	return result
}

func resolveList(shape, data *Tree) *Tree {
	if len(shape.Values) == 0 {
		return data
	}
	if data == nil || data.Kind != ListKind {
		return nil
	}
	collected := NewList()
	for i, item := range shape.Values {
		if v := Resolve(item, data.Index(i)); v.Truthy() {
			collected.Append(v)
		}
	}
	return collected
}
