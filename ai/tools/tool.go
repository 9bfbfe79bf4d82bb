// Package tools holds the tools a model may call during a conversation and
// the registry that dispatches those calls by name.
package tools

import (
	lctools "github.com/tmc/langchaingo/tools"

	"github.com/hrygo/wingman/ai/core/llm"
)

// Tool is a langchaingo tool that also publishes its parameter schema.
// Call receives the call's arguments as a normalized JSON object string.
type Tool interface {
	lctools.Tool

	// Parameters returns the JSON schema sent verbatim to the completion API.
	Parameters() *llm.JSONSchema
}
