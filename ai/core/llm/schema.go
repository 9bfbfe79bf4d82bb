package llm

import "encoding/json"

// JSONSchema implements json.Marshaler for OpenAI's JSON Schema format.
// The alias type prevents infinite recursion during marshaling.
type JSONSchema struct {
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Default              any                    `json:"default,omitempty"`
	Type                 string                 `json:"type"`
	Description          string                 `json:"description,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	AdditionalProperties bool                   `json:"additionalProperties"`
}

// MarshalJSON implements json.Marshaler for JSONSchema.
func (s *JSONSchema) MarshalJSON() ([]byte, error) {
	type alias JSONSchema
	return json.Marshal((*alias)(s))
}

// String returns the schema as a JSON string, as expected by ToolDescriptor.
func (s *JSONSchema) String() string {
	data, err := json.Marshal(s)
	if err != nil {
		return `{"type":"object"}`
	}
	return string(data)
}
