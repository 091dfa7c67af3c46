package ai

import "strings"

// Schema is the subset of OpenAPI schema both providers accept for
// structured output. Type names are lowercase; providers that need
// another spelling convert them.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// String returns a string schema.
func String(description string) *Schema {
	return &Schema{Type: "string", Description: description}
}

// Enum returns a string schema limited to values.
func Enum(values ...string) *Schema {
	return &Schema{Type: "string", Enum: values}
}

// Array returns an array schema of items.
func Array(items *Schema) *Schema {
	return &Schema{Type: "array", Items: items}
}

// Object returns an object schema where every property is required.
func Object(props map[string]*Schema, order ...string) *Schema {
	return &Schema{Type: "object", Properties: props, Required: order}
}

// upper returns a deep copy with uppercase type names.
func (s *Schema) upper() *Schema {
	if s == nil {
		return nil
	}
	out := *s
	out.Type = strings.ToUpper(s.Type)
	out.Items = s.Items.upper()
	if s.Properties != nil {
		out.Properties = make(map[string]*Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = v.upper()
		}
	}
	return &out
}
