package template

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_SimplePath(t *testing.T) {
	context := map[string]any{"user": map[string]any{"name": "Antigravity"}}

	assert.Equal(t, "Antigravity", Resolve("{{ user.name }}", context))
}

func TestResolve_EmbeddedPath(t *testing.T) {
	context := map[string]any{"user": map[string]any{"name": "Antigravity"}}

	assert.Equal(t, "Hello Antigravity", Resolve("Hello {{ user.name }}", context))
}

func TestResolve_MissingPathKeepsLiteral(t *testing.T) {
	assert.Equal(t, "{{ missing.path }}", Resolve("{{ missing.path }}", map[string]any{}))
	assert.Equal(t, "value: {{ missing.path }}", Resolve("value: {{ missing.path }}", map[string]any{}))
}

func TestResolve_SoleTemplateReturnsRawValue(t *testing.T) {
	context := map[string]any{
		"httpresponse": map[string]any{
			"data":  map[string]any{"count": float64(3)},
			"items": []any{"a", "b"},
		},
	}

	raw := Resolve("{{ httpresponse.data }}", context)
	assert.Equal(t, map[string]any{"count": float64(3)}, raw)

	items := Resolve("{{ httpresponse.items }}", context)
	assert.Equal(t, []any{"a", "b"}, items)

	count := Resolve("{{ httpresponse.data.count }}", context)
	assert.Equal(t, float64(3), count)
}

func TestResolve_EmbeddedObjectIsStringified(t *testing.T) {
	context := map[string]any{"data": map[string]any{"x": float64(1)}}

	assert.Equal(t, `payload: {"x":1}`, Resolve("payload: {{ data }}", context))
}

func TestResolve_NilBecomesEmptyString(t *testing.T) {
	context := map[string]any{"value": nil}

	assert.Equal(t, "got: ", Resolve("got: {{ value }}", context))
}

func TestResolve_RecursesObjectsAndArrays(t *testing.T) {
	context := map[string]any{"trigger": map[string]any{"id": "123"}}

	input := map[string]any{
		"msg":   "ID: {{ trigger.id }}",
		"count": float64(2),
		"tags":  []any{"{{ trigger.id }}", "static"},
	}

	resolved, ok := Resolve(input, context).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ID: 123", resolved["msg"])
	assert.Equal(t, float64(2), resolved["count"])
	assert.Equal(t, []any{"123", "static"}, resolved["tags"])
}

func TestResolve_ArrayIndexing(t *testing.T) {
	context := map[string]any{
		"list": map[string]any{"items": []any{
			map[string]any{"name": "first"},
			map[string]any{"name": "second"},
		}},
	}

	assert.Equal(t, "second", Resolve("{{ list.items[1].name }}", context))
	assert.Equal(t, "{{ list.items[9].name }}", Resolve("{{ list.items[9].name }}", context))
}

func TestResolve_Filters(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		context  map[string]any
		expected any
	}{
		{"upper", "{{ user.name | upper }}", map[string]any{"user": map[string]any{"name": "ai"}}, "AI"},
		{"lower", "{{ user.name | lower }}", map[string]any{"user": map[string]any{"name": "AI"}}, "ai"},
		{"trim", "{{ value | trim }}", map[string]any{"value": "  x  "}, "x"},
		{"length", "{{ value | length }}", map[string]any{"value": "abcd"}, 4},
		{"count", "{{ items | count }}", map[string]any{"items": []any{1, 2, 3}}, 3},
		{"first", "{{ items | first }}", map[string]any{"items": []any{"a", "b"}}, "a"},
		{"last", "{{ items | last }}", map[string]any{"items": []any{"a", "b"}}, "b"},
		{"json", "{{ data | json }}", map[string]any{"data": map[string]any{"k": "v"}}, `{"k":"v"}`},
		{"default on missing", "{{ x | default('n/a') }}", map[string]any{}, "n/a"},
		{"default on present", "{{ x | default('n/a') }}", map[string]any{"x": "real"}, "real"},
		{"unknown filter passes through", "{{ x | nope }}", map[string]any{"x": "v"}, "v"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Resolve(tt.input, tt.context))
		})
	}
}

func TestResolve_DefaultWithoutArg(t *testing.T) {
	assert.Equal(t, "", Resolve("{{ missing | default }}", map[string]any{}))
}

func TestResolve_MissingPathWithNonDefaultFilterKeepsLiteral(t *testing.T) {
	assert.Equal(t, "{{ missing | upper }}", Resolve("{{ missing | upper }}", map[string]any{}))
}

func TestResolve_SystemGenerators(t *testing.T) {
	now, ok := Resolve("{{ system.now }}", map[string]any{}).(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339, now)
	require.NoError(t, err)

	ts, ok := Resolve("{{ system.timestamp }}", map[string]any{}).(int64)
	require.True(t, ok)
	assert.Positive(t, ts)

	token, ok := Resolve("{{ system.random }}", map[string]any{}).(string)
	require.True(t, ok)
	assert.Len(t, token, randomTokenLength)

	// Fresh per occurrence, not cached.
	other := Resolve("{{ system.random }}", map[string]any{})
	assert.NotEqual(t, token, other)
}

func TestResolve_NonStringLeavesUntouched(t *testing.T) {
	assert.Equal(t, 42, Resolve(42, map[string]any{}))
	assert.Equal(t, true, Resolve(true, map[string]any{}))
	assert.Nil(t, Resolve(nil, map[string]any{}))
}

func TestResolveConfig(t *testing.T) {
	context := map[string]any{"trigger": map[string]any{"timestamp": "T"}}

	resolved := ResolveConfig(map[string]any{"receivedAt": "{{ trigger.timestamp }}"}, context)
	assert.Equal(t, "T", resolved["receivedAt"])
}
