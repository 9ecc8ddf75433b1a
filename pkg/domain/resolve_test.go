package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		shape string
		data  string
		want  string // empty means nil
	}{
		{"scalar leaf", `{"x":null}`, `{"x":5}`, `5`},
		{"leaf value ignored", `{"x":"anything"}`, `{"x":"real"}`, `"real"`},
		{"nested map", `{"a":{"b":0}}`, `{"a":{"b":"hi","c":1}}`, `"hi"`},
		{"missing key", `{"y":null}`, `{"x":1}`, ``},
		{"structural value", `{"a":null}`, `{"a":{"b":1}}`, `{"b":1}`},
		{"falsy keeps scanning", `{"a":null,"b":null}`, `{"a":0,"b":2}`, `2`},
		{"false keeps scanning", `{"a":null,"b":null}`, `{"a":false,"b":"x"}`, `"x"`},
		{"first truthy wins", `{"a":null,"b":null}`, `{"a":1,"b":2}`, `1`},
		{"all falsy returns last candidate", `{"a":null,"b":null}`, `{"a":false,"b":0}`, `0`},
		{"stored zero", `{"x":null}`, `{"x":0}`, `0`},
		{"list template", `{"l":[{"id":null}]}`, `{"l":[{"id":"x"},{"id":"y"}]}`, `["x"]`},
		{"list template drops falsy", `{"l":[{"id":null}]}`, `{"l":[{"id":""}]}`, `[]`},
		{"empty list takes whole", `{"l":[]}`, `{"l":[1,2]}`, `[1,2]`},
		{"list root", `[null,{"a":1}]`, `[0,{"a":"z"}]`, `"z"`},
		{"list shape on scalar", `{"l":[{"a":1}]}`, `{"l":"str"}`, ``},
		{"map shape on scalar", `{"a":{"b":1}}`, `{"a":5}`, ``},
		{"map shape on list", `{"a":{"b":1}}`, `{"a":[1]}`, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(mustParse(t, tt.shape), mustParse(t, tt.data))
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, Equal(mustParse(t, tt.want), got), "got %s", got.Value())
		})
	}
}

func TestResolve_NonStructuralInputs(t *testing.T) {
	assert.Nil(t, Resolve(nil, mustParse(t, `{"a":1}`)))
	assert.Nil(t, Resolve(mustParse(t, `{"a":1}`), nil))
	assert.Nil(t, Resolve(FromInt(1), FromInt(1)))
}

func TestResolve_EmptyListReturnsDataByReference(t *testing.T) {
	data := mustParse(t, `{"l":[1,2]}`)
	got := Resolve(mustParse(t, `{"l":[]}`), data)
	assert.Same(t, data.Get("l"), got)
}

func TestLoad(t *testing.T) {
	shape := mustParse(t, `{"x":null}`)
	defaults := mustParse(t, `{"x":3}`)

	assert.Equal(t, 3.0, Load(shape, NewMap(), defaults).Number)
	assert.Equal(t, 7.0, Load(shape, mustParse(t, `{"x":7}`), defaults).Number)
	assert.Equal(t, 0.0, Load(shape, mustParse(t, `{"x":0}`), defaults).Number, "live falsy value wins over defaults")
	assert.Nil(t, Load(mustParse(t, `{"y":null}`), NewMap(), defaults))
}
