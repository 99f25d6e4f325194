package llm

import "google.golang.org/genai"

// Type is a JSON schema type.
type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
)

// Schema describes the structured output an agent must return. It converts
// to each provider's native schema representation.
type Schema struct {
	Type        Type
	Description string
	Properties  map[string]*Schema
	Order       []string // Property order; also the required list
	Items       *Schema
	Enum        []string
}

// Object builds an object schema whose properties are all required, in order.
func Object(props ...Property) *Schema {
	s := &Schema{Type: TypeObject, Properties: make(map[string]*Schema, len(props))}
	for _, p := range props {
		s.Properties[p.Name] = p.Schema
		s.Order = append(s.Order, p.Name)
	}
	return s
}

// Property is a named object member.
type Property struct {
	Name   string
	Schema *Schema
}

// Prop is shorthand for Property{name, schema}.
func Prop(name string, schema *Schema) Property {
	return Property{Name: name, Schema: schema}
}

// String returns a string schema.
func String(description string) *Schema {
	return &Schema{Type: TypeString, Description: description}
}

// Integer returns an integer schema.
func Integer(description string) *Schema {
	return &Schema{Type: TypeInteger, Description: description}
}

// Enum returns a string schema restricted to values.
func Enum(description string, values ...string) *Schema {
	return &Schema{Type: TypeString, Description: description, Enum: values}
}

// ArrayOf returns an array schema.
func ArrayOf(items *Schema, description string) *Schema {
	return &Schema{Type: TypeArray, Items: items, Description: description}
}

var genaiTypes = map[Type]genai.Type{
	TypeObject:  genai.TypeObject,
	TypeArray:   genai.TypeArray,
	TypeString:  genai.TypeString,
	TypeInteger: genai.TypeInteger,
	TypeNumber:  genai.TypeNumber,
	TypeBoolean: genai.TypeBoolean,
}

// Genai converts the schema for Gemini structured output.
func (s *Schema) Genai() *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genaiTypes[s.Type],
		Description: s.Description,
		Enum:        s.Enum,
	}
	if s.Items != nil {
		out.Items = s.Items.Genai()
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = prop.Genai()
		}
		out.Required = append([]string(nil), s.Order...)
		out.PropertyOrdering = append([]string(nil), s.Order...)
	}
	return out
}

// JSONSchema converts the schema to a strict JSON Schema document.
func (s *Schema) JSONSchema() map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{"type": string(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Items != nil {
		out["items"] = s.Items.JSONSchema()
	}
	if s.Type == TypeObject {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = prop.JSONSchema()
		}
		out["properties"] = props
		out["required"] = append([]string{}, s.Order...)
		out["additionalProperties"] = false
	}
	return out
}
