package domain

// Diff computes the patch that turns before into after.
//
// Identical inputs give nil. A scalar or absent after is its own patch.
// Otherwise the patch is a map over the union of both trees' keys (list
// indexes rendered in decimal) holding, for every key whose values differ,
// the new value; when both sides of a key are lists or maps the entry is the
// nested patch instead. Scalars differ by value, lists and maps by identity.
// A key only present in before is recorded as null.
//
// Structural values with distinct identity but no differing leaf produce an
// empty nested patch, which is kept.
func Diff(before, after *Tree) *Tree {
	if before == after {
		return nil
	}
	if !after.IsStructural() {
		return after
	}

	patch := NewMap()
	for _, key := range unionKeys(before, after) {
		b, _ := child(before, key)
		a, _ := child(after, key)

		if !sameValue(b, a) {
			patch.Set(key, orNull(a))
		}
		if !b.IsStructural() || !a.IsStructural() {
			continue
		}

		if nested := Diff(b, a); nested != nil {
			patch.Set(key, nested)
		}
	}
	return patch
}

func unionKeys(before, after *Tree) []string {
	bk, _ := entries(before)
	ak, _ := entries(after)

	seen := make(map[string]struct{}, len(bk)+len(ak))
	keys := make([]string, 0, len(bk)+len(ak))
	for _, k := range append(append([]string(nil), bk...), ak...) {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}
