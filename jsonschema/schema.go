// Package jsonschema holds the JSON Schema document model used to export
// canonical schemas and shapes.
package jsonschema

// Schema is a minimal JSON Schema representation used for export.
type Schema struct {
	Title  string `json:"title,omitempty"`
	Type   string `json:"type,omitempty"`
	Format string `json:"format,omitempty"`

	// References, for recursive schemas.
	Ref  string             `json:"$ref,omitempty"`
	Defs map[string]*Schema `json:"$defs,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties *bool              `json:"additionalProperties,omitempty"`

	// Array
	Items *Schema `json:"items,omitempty"`
}

// Bool returns a pointer to b for optional boolean keywords.
func Bool(b bool) *bool { return &b }
