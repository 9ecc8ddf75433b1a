package domain

// Merge folds Update over partials, starting from an empty map, and returns
// the accumulated tree.
//
// Merge does not copy: subtrees of the partials that are absent from the
// accumulator are linked into the result by reference, and later partials
// then update those shared subtrees in place. Callers must not mutate the
// partials afterwards. Use MergeCopy when the result has to be independent.
func Merge(partials ...*Tree) *Tree {
	result := NewMap()
	for _, p := range partials {
		result = Update(result, p)
	}
	return result
}

// MergeCopy is Merge over deep copies of partials. The result shares no node
// with any input.
func MergeCopy(partials ...*Tree) *Tree {
	result := NewMap()
	for _, p := range partials {
		result = Update(result, p.Clone())
	}
	return result
}

// Update merges source into target in place and returns target.
//
// For every key of source: a list or map value is merged recursively into the
// value target already holds under that key, or linked by reference when
// target lacks the key; a scalar value overwrites unconditionally. Lists are
// addressed by index exactly like maps are by key, so merging [9] into [1,2]
// gives [9,2]. When target holds a scalar where source has a list or map, the
// source subtree replaces it.
//
// A scalar or absent source leaves target untouched.
func Update(target, source *Tree) *Tree {
	if !target.IsStructural() || !source.IsStructural() {
		return target
	}

	keys, values := entries(source)
	for i, key := range keys {
		element := values[i]
		if !element.IsStructural() {
			setChild(target, key, orNull(element))
			continue
		}

		existing, ok := child(target, key)
		if ok && existing.IsStructural() {
			Update(existing, element)
			continue
		}
		setChild(target, key, element)
	}
	return target
}
