package domain

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, doc string) *Tree {
	t.Helper()
	tree, err := ParseJSON([]byte(doc))
	require.NoError(t, err)
	return tree
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		tree *Tree
		want bool
	}{
		{"absent", nil, false},
		{"null", Null(), false},
		{"false", FromBool(false), false},
		{"true", FromBool(true), true},
		{"zero", FromInt(0), false},
		{"nan", FromNumber(math.NaN()), false},
		{"negative", FromNumber(-1.5), true},
		{"empty string", FromString(""), false},
		{"string", FromString("x"), true},
		{"empty list", NewList(), true},
		{"empty map", NewMap(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tree.Truthy())
		})
	}
}

func TestTree_SetKeepsInsertionOrder(t *testing.T) {
	tree := NewMap().
		Set("z", FromInt(1)).
		Set("a", FromInt(2)).
		Set("z", FromInt(3))

	assert.Equal(t, []string{"z", "a"}, tree.Keys)
	assert.Equal(t, 3.0, tree.Get("z").Number)

	tree.Delete("z")
	assert.Equal(t, []string{"a"}, tree.Keys)
	assert.False(t, tree.Has("z"))
	assert.Nil(t, tree.Get("z"))
}

func TestTree_DeleteKeepsLookupsInStep(t *testing.T) {
	tree := mustParse(t, `{"a":1,"b":2,"c":3,"d":4}`)
	tree.Delete("b")
	tree.Set("e", FromInt(5))

	assert.Equal(t, []string{"a", "c", "d", "e"}, tree.Keys)
	for key, want := range map[string]float64{"a": 1, "c": 3, "d": 4, "e": 5} {
		assert.Equal(t, want, tree.Get(key).Number, key)
	}
	assert.False(t, tree.Has("b"))
}

func TestTree_HandBuiltMap(t *testing.T) {
	tree := &Tree{Kind: MapKind, Keys: []string{"x", "y"}, Values: []*Tree{FromInt(1), FromInt(2)}}

	assert.Equal(t, 2.0, tree.Get("y").Number)
	tree.Set("z", FromInt(3))
	assert.Equal(t, []string{"x", "y", "z"}, tree.Keys)
	assert.Equal(t, 3.0, tree.Get("z").Number)
}

func TestTree_WideMap(t *testing.T) {
	const width = 100000

	var b strings.Builder
	b.WriteByte('{')
	for i := 0; i < width; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `"k%d":%d`, i, i)
	}
	b.WriteByte('}')

	start := time.Now()
	tree := mustParse(t, b.String())
	merged := MergeCopy(tree, tree)
	changed := merged.Clone().Set("k99999", FromInt(-1))
	patch := Diff(merged, changed)
	elapsed := time.Since(start)

	require.Equal(t, width, merged.Len())
	assert.Equal(t, 4242.0, merged.Get("k4242").Number)
	assert.True(t, Equal(mustParse(t, `{"k99999":-1}`), patch))
	assert.Less(t, elapsed, 5*time.Second, "map lookups must not scan every key")
}

func TestTree_SetIndexPadsWithNull(t *testing.T) {
	list := NewList(FromInt(1))
	list.SetIndex(3, FromString("x"))

	require.Equal(t, 4, list.Len())
	assert.Equal(t, NullKind, list.Index(1).Kind)
	assert.Equal(t, NullKind, list.Index(2).Kind)
	assert.Equal(t, "x", list.Index(3).String)
	assert.Nil(t, list.Index(4))
	assert.Nil(t, list.Index(-1))
}

func TestTree_MutatorsIgnoreWrongKind(t *testing.T) {
	scalar := FromInt(1)
	scalar.Set("a", FromInt(2))
	scalar.Append(FromInt(2))
	scalar.SetIndex(0, FromInt(2))

	assert.Equal(t, FromInt(1), scalar)
	assert.Equal(t, 0, scalar.Len())
}

func TestClone_SharesNothing(t *testing.T) {
	original := mustParse(t, `{"a":{"b":[1,2]},"c":"x"}`)
	clone := original.Clone()

	require.True(t, Equal(original, clone))
	clone.Get("a").Get("b").SetIndex(0, FromInt(9))
	clone.Set("c", FromString("y"))

	assert.Equal(t, 1.0, original.Get("a").Get("b").Index(0).Number)
	assert.Equal(t, "x", original.Get("c").String)
	assert.Nil(t, (*Tree)(nil).Clone())
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(mustParse(t, `{"a":1,"b":[true]}`), mustParse(t, `{"b":[true],"a":1}`)))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, Null()))
	assert.False(t, Equal(FromInt(1), FromString("1")))
	assert.False(t, Equal(mustParse(t, `[1,2]`), mustParse(t, `[2,1]`)))
	assert.False(t, Equal(mustParse(t, `{"a":1}`), mustParse(t, `{"a":1,"b":2}`)))
	assert.True(t, Equal(FromNumber(math.NaN()), FromNumber(math.NaN())))
}

func TestFromValue(t *testing.T) {
	type panel struct {
		Title string `json:"title"`
		Width int    `json:"width"`
	}

	tree, err := FromValue(map[string]any{
		"b":     2,
		"a":     []string{"x", "y"},
		"panel": panel{Title: "t", Width: 3},
		"nil":   nil,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "nil", "panel"}, tree.Keys)
	assert.Equal(t, 2.0, tree.Get("b").Number)
	assert.Equal(t, "y", tree.Get("a").Index(1).String)
	assert.Equal(t, []string{"title", "width"}, tree.Get("panel").Keys)
	assert.Equal(t, NullKind, tree.Get("nil").Kind)

	_, err = FromValue(func() {})
	assert.ErrorIs(t, err, ErrInvalidTree)
}

func TestTree_Value(t *testing.T) {
	tree := mustParse(t, `{"a":[1,"s",true,null],"m":{"k":2.5}}`)

	assert.Equal(t, map[string]any{
		"a": []any{1.0, "s", true, nil},
		"m": map[string]any{"k": 2.5},
	}, tree.Value())
	assert.Nil(t, (*Tree)(nil).Value())
}
