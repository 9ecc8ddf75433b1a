package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON_PreservesKeyOrder(t *testing.T) {
	doc := `{"zeta":1,"alpha":[true,null,"s",1.5],"mid":{"b":{},"a":[]}}`

	var tree Tree
	require.NoError(t, json.Unmarshal([]byte(doc), &tree))
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, tree.Keys)

	out, err := json.Marshal(&tree)
	require.NoError(t, err)
	assert.Equal(t, doc, string(out))
}

func TestParseJSON_DuplicateKeys(t *testing.T) {
	tree := mustParse(t, `{"a":1,"b":2,"a":3}`)
	assert.Equal(t, []string{"a", "b"}, tree.Keys)
	assert.Equal(t, 3.0, tree.Get("a").Number)
}

func TestParseJSON_Errors(t *testing.T) {
	for _, doc := range []string{``, `{`, `{} {}`, `[1,]`, `{"a" 1}`} {
		_, err := ParseJSON([]byte(doc))
		assert.ErrorIs(t, err, ErrInvalidTree, "doc %q", doc)
	}
}

func TestMarshalJSON_RejectsNaN(t *testing.T) {
	_, err := json.Marshal(NewMap().Set("n", FromNumber(math.NaN())))
	assert.ErrorIs(t, err, ErrInvalidTree)
}

func TestMessage_JSON(t *testing.T) {
	msg := NewMessage("saved", "panel1", mustParse(t, `{"x":1}`))

	out, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"saved","content":{"key":"panel1","state":{"x":1}}}`, string(out))

	var back Message
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, "panel1", back.Content.Key)
	assert.True(t, Equal(msg.Content.State, back.Content.State))
}
