package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/hrygo/wingman/ai/core/llm"
)

var (
	// ErrUnknownTool reports a call naming a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArguments reports call arguments that are not a JSON object.
	ErrInvalidArguments = errors.New("invalid arguments")
)

// Registry maps tool names to tools. Tools are registered once at startup;
// lookups are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates a registry holding the given tools.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool)}
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name is required")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	return tool, ok
}

// List returns all registered tool names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Descriptors returns the tool definitions offered to the model.
func (r *Registry) Descriptors() []llm.ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]llm.ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		descriptors = append(descriptors, llm.ToolDescriptor{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters().String(),
		})
	}
	return descriptors
}

// Execute runs a model-requested call and always returns the text to feed
// back as the tool result. A non-nil error reports that the call failed;
// the returned text already describes the failure.
func (r *Registry) Execute(ctx context.Context, call llm.ToolCall) (string, error) {
	name := call.Function.Name
	tool, ok := r.Get(name)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownTool, name)
		return "Error: " + err.Error(), err
	}

	args, err := DecodeArguments(call.Function.Arguments)
	if err != nil {
		return fmt.Sprintf("Error: invalid arguments (not JSON) for %s", name), fmt.Errorf("%w for %s: %w", ErrInvalidArguments, name, err)
	}
	input, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("Error: invalid arguments for %s", name), fmt.Errorf("%w for %s: %w", ErrInvalidArguments, name, err)
	}

	result, err := tool.Call(ctx, string(input))
	if err != nil {
		return fmt.Sprintf("Error executing %s: %v", name, err), err
	}
	return result, nil
}
