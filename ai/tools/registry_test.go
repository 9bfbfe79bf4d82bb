package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/wingman/ai/core/llm"
)

type echoTool struct {
	name  string
	err   error
	input string
}

func (e *echoTool) Name() string                { return e.name }
func (e *echoTool) Description() string         { return "echoes its input" }
func (e *echoTool) Parameters() *llm.JSONSchema { return &llm.JSONSchema{Type: "object"} }

func (e *echoTool) Call(_ context.Context, input string) (string, error) {
	e.input = input
	if e.err != nil {
		return "", e.err
	}
	return "echo:" + input, nil
}

func call(name, args string) llm.ToolCall {
	return llm.ToolCall{ID: "call_1", Type: "function", Function: llm.FunctionCall{Name: name, Arguments: args}}
}

func TestRegistry_RegisterRejectsDuplicates(t *testing.T) {
	registry, err := NewRegistry(&echoTool{name: "echo"})
	require.NoError(t, err)

	err = registry.Register(&echoTool{name: "echo"})
	assert.Error(t, err)

	_, err = NewRegistry(&echoTool{name: "a"}, &echoTool{name: "a"})
	assert.Error(t, err)
}

func TestRegistry_DescriptorsFollowRegistrationOrder(t *testing.T) {
	registry, err := NewRegistry(&echoTool{name: "b"}, &echoTool{name: "a"})
	require.NoError(t, err)

	descriptors := registry.Descriptors()
	require.Len(t, descriptors, 2)
	assert.Equal(t, "b", descriptors[0].Name)
	assert.Equal(t, "a", descriptors[1].Name)
	assert.JSONEq(t, `{"type":"object","additionalProperties":false}`, descriptors[0].Parameters)
	assert.Equal(t, []string{"b", "a"}, registry.List())
}

func TestRegistry_Execute(t *testing.T) {
	tool := &echoTool{name: "echo"}
	registry, err := NewRegistry(tool)
	require.NoError(t, err)

	t.Run("dispatches normalized arguments", func(t *testing.T) {
		result, err := registry.Execute(context.Background(), call("echo", ` {"a": 1} `))
		require.NoError(t, err)
		assert.Equal(t, `echo:{"a":1}`, result)
	})

	t.Run("unknown tool is recovered into text", func(t *testing.T) {
		result, err := registry.Execute(context.Background(), call("nope", `{}`))
		assert.ErrorIs(t, err, ErrUnknownTool)
		assert.Equal(t, "Error: unknown tool: nope", result)
	})

	t.Run("invalid arguments are recovered into text", func(t *testing.T) {
		result, err := registry.Execute(context.Background(), call("echo", `{not json`))
		assert.ErrorIs(t, err, ErrInvalidArguments)
		assert.Equal(t, "Error: invalid arguments (not JSON) for echo", result)
	})

	t.Run("tool failure is recovered into text", func(t *testing.T) {
		failing := &echoTool{name: "failing", err: errors.New("boom")}
		require.NoError(t, registry.Register(failing))

		result, err := registry.Execute(context.Background(), call("failing", `{}`))
		assert.Error(t, err)
		assert.Equal(t, "Error executing failing: boom", result)
	})
}

func TestDecodeArguments(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[string]any
		wantErr bool
	}{
		{"object", `{"url":"https://x"}`, map[string]any{"url": "https://x"}, false},
		{"empty", ``, map[string]any{}, false},
		{"null", `null`, map[string]any{}, false},
		{"quoted object", `"{\"url\":\"https://x\"}"`, map[string]any{"url": "https://x"}, false},
		{"array", `[1,2]`, nil, true},
		{"garbage", `url=https://x`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeArguments(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
