package domain

import (
	"math"
	"strconv"
)

// Kind discriminates the variants of a Tree.
type Kind uint8

const (
	NullKind Kind = iota
	BoolKind
	NumberKind
	StringKind
	ListKind
	MapKind
)

func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "bool"
	case NumberKind:
		return "number"
	case StringKind:
		return "string"
	case ListKind:
		return "list"
	case MapKind:
		return "map"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Tree is a recursive tagged union holding state, defaults, shapes and patches.
//
// Scalars use the Bool, Number or String field according to Kind. A ListKind
// tree keeps its elements in Values. A MapKind tree keeps its keys in Keys and
// the matching values at the same position in Values, so key enumeration
// follows insertion order. Map keys must be changed through Set and Delete,
// which keep the key index in step.
//
// The nil *Tree stands for an absent value.
type Tree struct {
	Kind   Kind
	Bool   bool
	Number float64
	String string
	Keys   []string
	Values []*Tree

	index map[string]int
}

// KeyVal pairs a map key with its value, see FromKeyVals.
type KeyVal struct {
	Key string
	Val *Tree
}

func Null() *Tree {
	return &Tree{Kind: NullKind}
}

func FromBool(v bool) *Tree {
	return &Tree{Kind: BoolKind, Bool: v}
}

func FromNumber(v float64) *Tree {
	return &Tree{Kind: NumberKind, Number: v}
}

func FromInt(v int) *Tree {
	return &Tree{Kind: NumberKind, Number: float64(v)}
}

func FromString(v string) *Tree {
	return &Tree{Kind: StringKind, String: v}
}

// NewList builds a list tree. Nil elements are stored as null.
func NewList(values ...*Tree) *Tree {
	t := &Tree{Kind: ListKind, Values: make([]*Tree, 0, len(values))}
	for _, v := range values {
		t.Values = append(t.Values, orNull(v))
	}
	return t
}

// NewMap returns an empty map tree.
func NewMap() *Tree {
	return &Tree{Kind: MapKind, index: map[string]int{}}
}

// FromKeyVals builds a map tree keeping the order of kvs. A repeated key
// overwrites the earlier value in place.
func FromKeyVals(kvs ...KeyVal) *Tree {
	t := NewMap()
	for _, kv := range kvs {
		t.Set(kv.Key, kv.Val)
	}
	return t
}

// IsStructural reports whether t is a list or a map.
func (t *Tree) IsStructural() bool {
	return t != nil && (t.Kind == ListKind || t.Kind == MapKind)
}

// IsScalar reports whether t is present and neither a list nor a map.
func (t *Tree) IsScalar() bool {
	return t != nil && !t.IsStructural()
}

// Truthy reports whether t counts as a match for Resolve. Absent, null,
// false, 0, NaN and "" are falsy; every list and map is truthy, even empty.
func (t *Tree) Truthy() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case BoolKind:
		return t.Bool
	case NumberKind:
		return t.Number != 0 && !math.IsNaN(t.Number)
	case StringKind:
		return t.String != ""
	case ListKind, MapKind:
		return true
	default:
		return false
	}
}

// Len returns the number of children of a structural tree, 0 otherwise.
func (t *Tree) Len() int {
	if !t.IsStructural() {
		return 0
	}
	return len(t.Values)
}

// indexOf finds key in a map tree. The index is rebuilt when it has fallen
// out of step with Keys, which only happens for maps assembled by hand.
func (t *Tree) indexOf(key string) int {
	if t.index == nil || len(t.index) != len(t.Keys) {
		t.index = make(map[string]int, len(t.Keys))
		for i, k := range t.Keys {
			t.index[k] = i
		}
	}
	if i, ok := t.index[key]; ok {
		return i
	}
	return -1
}

// Has reports whether the map t contains key.
func (t *Tree) Has(key string) bool {
	if t == nil || t.Kind != MapKind {
		return false
	}
	return t.indexOf(key) >= 0
}

// Get returns the value stored under key, or nil when t is not a map or
// lacks the key.
func (t *Tree) Get(key string) *Tree {
	if t == nil || t.Kind != MapKind {
		return nil
	}
	if i := t.indexOf(key); i >= 0 {
		return t.Values[i]
	}
	return nil
}

// Index returns element i of a list, or nil when out of range.
func (t *Tree) Index(i int) *Tree {
	if t == nil || t.Kind != ListKind || i < 0 || i >= len(t.Values) {
		return nil
	}
	return t.Values[i]
}

// Set stores v under key, replacing an existing value in place or appending
// the key. It returns t so calls can be chained while building literals.
// Set on a non-map tree is a no-op.
func (t *Tree) Set(key string, v *Tree) *Tree {
	if t == nil || t.Kind != MapKind {
		return t
	}
	v = orNull(v)
	if i := t.indexOf(key); i >= 0 {
		t.Values[i] = v
		return t
	}
	t.index[key] = len(t.Keys)
	t.Keys = append(t.Keys, key)
	t.Values = append(t.Values, v)
	return t
}

// Delete removes key from a map tree.
func (t *Tree) Delete(key string) {
	if t == nil || t.Kind != MapKind {
		return
	}
	i := t.indexOf(key)
	if i < 0 {
		return
	}
	delete(t.index, key)
	for _, k := range t.Keys[i+1:] {
		t.index[k]--
	}
	t.Keys = append(t.Keys[:i], t.Keys[i+1:]...)
	t.Values = append(t.Values[:i], t.Values[i+1:]...)
}

// SetIndex stores v at position i of a list, padding with nulls when i is
// past the end. Negative indexes and non-list trees are ignored.
func (t *Tree) SetIndex(i int, v *Tree) *Tree {
	if t == nil || t.Kind != ListKind || i < 0 {
		return t
	}
	for len(t.Values) <= i {
		t.Values = append(t.Values, Null())
	}
	t.Values[i] = orNull(v)
	return t
}

// Append adds v to the end of a list tree.
func (t *Tree) Append(v *Tree) *Tree {
	if t == nil || t.Kind != ListKind {
		return t
	}
	t.Values = append(t.Values, orNull(v))
	return t
}

// Clone returns a deep copy of t sharing no nodes with it.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	c := &Tree{Kind: t.Kind, Bool: t.Bool, Number: t.Number, String: t.String}
	if t.Keys != nil {
		c.Keys = append([]string(nil), t.Keys...)
		c.index = make(map[string]int, len(c.Keys))
		for i, k := range c.Keys {
			c.index[k] = i
		}
	}
	if t.Values != nil {
		c.Values = make([]*Tree, len(t.Values))
		for i, v := range t.Values {
			c.Values[i] = v.Clone()
		}
	}
	return c
}

// Equal reports whether a and b hold the same structure and values. Map
// comparison ignores key order.
func Equal(a, b *Tree) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case NullKind:
		return true
	case BoolKind:
		return a.Bool == b.Bool
	case NumberKind:
		return a.Number == b.Number || (math.IsNaN(a.Number) && math.IsNaN(b.Number))
	case StringKind:
		return a.String == b.String
	case ListKind:
		if len(a.Values) != len(b.Values) {
			return false
		}
		for i := range a.Values {
			if !Equal(a.Values[i], b.Values[i]) {
				return false
			}
		}
		return true
	case MapKind:
		if len(a.Keys) != len(b.Keys) {
			return false
		}
		for i, k := range a.Keys {
			j := b.indexOf(k)
			if j < 0 || !Equal(a.Values[i], b.Values[j]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// sameValue compares like Object.is for scalars and by identity for lists
// and maps.
func sameValue(a, b *Tree) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind || a.IsStructural() {
		return false
	}
	return Equal(a, b)
}

func orNull(v *Tree) *Tree {
	if v == nil {
		return Null()
	}
	return v
}

// entries lists the children of a structural tree as string keys. List
// indexes are rendered in decimal.
func entries(t *Tree) ([]string, []*Tree) {
	switch {
	case t == nil:
		return nil, nil
	case t.Kind == MapKind:
		return t.Keys, t.Values
	case t.Kind == ListKind:
		keys := make([]string, len(t.Values))
		for i := range t.Values {
			keys[i] = strconv.Itoa(i)
		}
		return keys, t.Values
	default:
		return nil, nil
	}
}

// child looks key up in a map, or parses it as an index into a list.
func child(t *Tree, key string) (*Tree, bool) {
	switch {
	case t == nil:
		return nil, false
	case t.Kind == MapKind:
		if i := t.indexOf(key); i >= 0 {
			return t.Values[i], true
		}
	case t.Kind == ListKind:
		if i, ok := parseIndex(key); ok && i < len(t.Values) {
			return t.Values[i], true
		}
	}
	return nil, false
}

// setChild is the write counterpart of child. Keys that are not canonical
// indexes are ignored on lists.
func setChild(t *Tree, key string, v *Tree) {
	switch t.Kind {
	case MapKind:
		t.Set(key, v)
	case ListKind:
		if i, ok := parseIndex(key); ok {
			t.SetIndex(i, v)
		}
	}
}

func parseIndex(key string) (int, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || strconv.Itoa(i) != key {
		return 0, false
	}
	return i, true
}
