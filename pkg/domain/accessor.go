package domain

// Load reads the value shape describes from state, falling back to defaults
// when state has no match. Live state always wins over defaults, including
// falsy values it holds.
func Load(shape, state, defaults *Tree) *Tree {
	if value := Resolve(shape, state); value != nil {
		return value
	}
	return Resolve(shape, defaults)
}

// Save merges partial over state and returns the merged tree for the caller
// to install. Neither input is modified and the result aliases neither.
func Save(state, partial *Tree) *Tree {
	return MergeCopy(state, partial)
}
