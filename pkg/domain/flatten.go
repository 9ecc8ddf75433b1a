package domain

// PathValue is one leaf produced by Flatten.
type PathValue struct {
	Path  string
	Value *Tree
}

// Flatten walks t and returns every scalar leaf with its dotted path, in key
// order. Lists and maps contribute no entry of their own; their children are
// addressed as "<prefix>.<key>", list elements by index. A scalar t yields a
// single pair whose path is prefix.
//
// t must not contain cycles.
func Flatten(t *Tree, prefix string) []PathValue {
	if t == nil {
		return nil
	}
	if !t.IsStructural() {
		return []PathValue{{Path: prefix, Value: t}}
	}
	return flattenInto(nil, t, prefix)
}

func flattenInto(out []PathValue, t *Tree, prefix string) []PathValue {
	if prefix != "" {
		prefix += "."
	}
	keys, values := entries(t)
	for i, key := range keys {
		v := values[i]
		if v.IsStructural() {
			out = flattenInto(out, v, prefix+key)
			continue
		}
		out = append(out, PathValue{Path: prefix + key, Value: orNull(v)})
	}
	return out
}
