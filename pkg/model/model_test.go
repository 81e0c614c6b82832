package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelAttributes(t *testing.T) {
	m := New(map[string]interface{}{"name": "x"})

	v, ok := m.Get("name")
	require.True(t, ok)
	assert.Equal(t, "x", v)

	m.Set("age", 3)
	m.SetAll(map[string]interface{}{"name": "y"})
	assert.Equal(t, map[string]interface{}{"name": "y", "age": 3}, m.Attributes())

	m.Unset("age")
	assert.False(t, m.Has("age"))
	assert.Equal(t, 1, m.Len())
}

func TestModelReset(t *testing.T) {
	m := New(map[string]interface{}{"a": 1})

	m.Reset(map[string]interface{}{"b": 2})
	assert.Equal(t, map[string]interface{}{"b": 2}, m.Attributes())

	m.Reset(nil)
	assert.True(t, m.IsEmpty())
	assert.NotNil(t, m.Attributes())
}

func TestModelCopiesInput(t *testing.T) {
	src := map[string]interface{}{"a": 1}
	m := New(src)
	src["a"] = 2

	attrs := m.Attributes()
	attrs["a"] = 3

	v, _ := m.Get("a")
	assert.Equal(t, 1, v)
}

func TestModelToJSON(t *testing.T) {
	var zero Model
	zero.Set("name", "x")

	b, err := zero.ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x"}`, string(b))

	b, err = New(nil).ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))
}

func TestCollection(t *testing.T) {
	c := NewCollection(map[string]interface{}{"id": 1})
	c.Add(map[string]interface{}{"id": 2})

	assert.Equal(t, 2, c.Len())
	item, ok := c.At(1)
	require.True(t, ok)
	assert.Equal(t, 2, item["id"])
	_, ok = c.At(5)
	assert.False(t, ok)

	b, err := c.ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1},{"id":2}]`, string(b))

	c.Reset(nil)
	assert.True(t, c.IsEmpty())
	b, err = c.ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))
}

func TestParseMethod(t *testing.T) {
	m, ok := ParseMethod(" READ ")
	assert.True(t, ok)
	assert.Equal(t, MethodRead, m)

	_, ok = ParseMethod("patch")
	assert.False(t, ok)
}
