package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewToolRegistry()
	require.NoError(t, r.Register(&stubHandler{name: "b"}))
	require.NoError(t, r.Register(&stubHandler{name: "a"}))

	assert.Equal(t, 2, r.ToolCount())
	assert.True(t, r.HasTool("a"))
	assert.False(t, r.HasTool("c"))

	h, err := r.GetHandler("b")
	require.NoError(t, err)
	assert.Equal(t, "b", h.Name())

	_, err = r.GetHandler("c")
	var unknown *UnknownToolError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "c", unknown.Name)
}

func TestRegistry_SpecsKeepRegistrationOrder(t *testing.T) {
	r := NewToolRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, r.Register(&stubHandler{name: name}))
	}

	first := r.Specs()
	second := r.Specs()
	require.Len(t, first, 3)
	assert.Equal(t, "zeta", first[0].Name)
	assert.Equal(t, "alpha", first[1].Name)
	assert.Equal(t, "mid", first[2].Name)
	assert.Equal(t, first, second)
}

func TestRegistry_RejectsDuplicatesAndEmptyNames(t *testing.T) {
	r := NewToolRegistry()
	require.NoError(t, r.Register(&stubHandler{name: "a"}))
	assert.Error(t, r.Register(&stubHandler{name: "a"}))
	assert.Error(t, r.Register(&stubHandler{name: ""}))
	assert.Equal(t, 1, r.ToolCount())
}

func TestToolSpec_JSONSchema(t *testing.T) {
	schema := NewRunScriptToolSpec().JSONSchema()

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{"file_path"}, schema["required"])

	props := schema["properties"].(map[string]interface{})
	args := props["args"].(map[string]interface{})
	assert.Equal(t, "array", args["type"])
	assert.Equal(t, map[string]interface{}{"type": "string"}, args["items"])
}

func TestToolResult_Payload(t *testing.T) {
	ok := ToolResult{CallID: "1", Name: "t", Outcome: Success(`say "hi"`)}
	assert.JSONEq(t, `{"result": "say \"hi\""}`, ok.Payload())

	bad := ToolResult{CallID: "1", Name: "t", Outcome: Failure("boom")}
	assert.JSONEq(t, `{"error": "boom"}`, bad.Payload())
	assert.False(t, bad.Outcome.IsSuccess())
}

func TestInvocation_ArgumentHelpers(t *testing.T) {
	inv := &ToolInvocation{Arguments: map[string]interface{}{
		"path":  "a.txt",
		"empty": "",
		"num":   3.0,
		"list":  []interface{}{"x", "y"},
		"mixed": []interface{}{"x", 1.0},
	}}

	s, err := inv.StringArg("path")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", s)

	_, err = inv.StringArg("missing")
	assert.Error(t, err)
	_, err = inv.StringArg("empty")
	assert.Error(t, err)
	_, err = inv.StringArg("num")
	assert.Error(t, err)

	s, err = inv.OptionalStringArg("missing", ".")
	require.NoError(t, err)
	assert.Equal(t, ".", s)

	s, err = inv.RawStringArg("empty")
	require.NoError(t, err)
	assert.Equal(t, "", s)

	list, err := inv.StringSliceArg("list")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, list)

	_, err = inv.StringSliceArg("mixed")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	list, err = inv.StringSliceArg("missing")
	require.NoError(t, err)
	assert.Nil(t, list)
}
