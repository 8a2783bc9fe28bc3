package goshape

import js "github.com/reoring/goshape/jsonschema"

// JSONSchema describes the full canonical record. No field is required.
// Recursive references point back to the document root or to $defs.
func (s *CanonicalSchema) JSONSchema() *js.Schema {
	e := newExporter(s)
	return e.finish(e.object(s.name, s.fields, nil))
}

// JSONSchema describes exactly the projections of the shape: every field of
// the shape is required and no other member is allowed.
func (sh *Shape) JSONSchema() *js.Schema {
	e := newExporter(nil)
	e.active[sh.schema] = true
	return e.finish(e.object(string(sh.fp), sh.fields, sh.Names()))
}

// exporter tracks the schemas on the current path so recursive types
// become references instead of infinite documents.
type exporter struct {
	root    *CanonicalSchema
	active  map[*CanonicalSchema]bool
	defs    map[string]*js.Schema
	pending []*CanonicalSchema
}

func newExporter(root *CanonicalSchema) *exporter {
	e := &exporter{root: root, active: map[*CanonicalSchema]bool{}}
	if root != nil {
		e.active[root] = true
	}
	return e
}

func (e *exporter) finish(doc *js.Schema) *js.Schema {
	for len(e.pending) > 0 {
		s := e.pending[0]
		e.pending = e.pending[1:]
		if _, ok := e.defs[s.name]; ok {
			continue
		}
		e.defs[s.name] = nil
		e.active = map[*CanonicalSchema]bool{s: true}
		e.defs[s.name] = e.object(s.name, s.fields, nil)
	}
	doc.Defs = e.defs
	return doc
}

func (e *exporter) object(title string, fields []FieldDescriptor, required []string) *js.Schema {
	out := &js.Schema{
		Title:                title,
		Type:                 "object",
		Properties:           make(map[string]*js.Schema, len(fields)),
		Required:             required,
		AdditionalProperties: js.Bool(false),
	}
	for _, f := range fields {
		out.Properties[f.Name] = e.field(f)
	}
	return out
}

func (e *exporter) nested(n *CanonicalSchema) *js.Schema {
	if n == e.root {
		return &js.Schema{Ref: "#"}
	}
	if e.active[n] {
		if e.defs == nil {
			e.defs = map[string]*js.Schema{}
		}
		if _, ok := e.defs[n.name]; !ok {
			e.pending = append(e.pending, n)
		}
		return &js.Schema{Ref: "#/$defs/" + n.name}
	}
	e.active[n] = true
	defer delete(e.active, n)
	return e.object(n.name, n.fields, nil)
}

func (e *exporter) field(f FieldDescriptor) *js.Schema {
	switch f.Type {
	case TypeBool:
		return &js.Schema{Type: "boolean"}
	case TypeInt, TypeUint:
		return &js.Schema{Type: "integer"}
	case TypeFloat:
		return &js.Schema{Type: "number"}
	case TypeString:
		return &js.Schema{Type: "string"}
	case TypeTime:
		return &js.Schema{Type: "string", Format: "date-time"}
	case TypeObject:
		if f.Nested != nil {
			return e.nested(f.Nested)
		}
		return &js.Schema{Type: "object"}
	case TypeArray:
		return &js.Schema{Type: "array"}
	}
	return &js.Schema{}
}
