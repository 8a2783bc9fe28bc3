package goshape

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Projection is a decoded value holding exactly the fields of its Shape.
// It is owned by the caller; many projections share one Shape.
type Projection struct {
	shape  *Shape
	values []any
}

// NewProjection returns a projection of sh with every field set to nil.
func NewProjection(sh *Shape) *Projection {
	return &Projection{shape: sh, values: make([]any, sh.Len())}
}

// Shape returns the shape the projection conforms to.
func (p *Projection) Shape() *Shape { return p.shape }

// Fingerprint returns the fingerprint of the projection's shape.
func (p *Projection) Fingerprint() Fingerprint { return p.shape.fp }

// Len returns the number of fields.
func (p *Projection) Len() int { return len(p.values) }

// Get returns the value of a field, ignoring case in name.
func (p *Projection) Get(name string) (any, bool) {
	i, ok := p.shape.Index(name)
	if !ok {
		return nil, false
	}
	return p.values[i], true
}

// Set replaces the value of a field of the shape. Names outside the shape
// are rejected.
func (p *Projection) Set(name string, v any) error {
	i, ok := p.shape.Index(name)
	if !ok {
		return issuef("/"+name, CodeUnknownKey, "field %q is not part of shape %s", name, p.shape.fp)
	}
	p.values[i] = v
	return nil
}

// Range calls fn for each field in shape order until fn returns false.
func (p *Projection) Range(fn func(f FieldDescriptor, v any) bool) {
	for i, v := range p.values {
		if !fn(p.shape.fields[i], v) {
			return
		}
	}
}

// Map converts the projection into a generic map keyed by canonical field
// names. Nested projections and opaque values are converted as well.
func (p *Projection) Map() map[string]any {
	m := make(map[string]any, len(p.values))
	for i, v := range p.values {
		m[p.shape.fields[i].Name] = plain(v)
	}
	return m
}

// MarshalJSON writes the fields of the shape in shape order using the
// canonical field names.
func (p *Projection) MarshalJSON() ([]byte, error) {
	return writeObject(p.shape.fields, p.values)
}

// Record is a full canonical record for schemas that have no Go struct. It is
// the Merge destination for declared schemas.
type Record struct {
	schema *CanonicalSchema
	values []any
}

// NewRecord returns a record of s with every field set to nil.
func NewRecord(s *CanonicalSchema) *Record {
	return &Record{schema: s, values: make([]any, s.Len())}
}

func (r *Record) clone() *Record {
	return &Record{schema: r.schema, values: append([]any(nil), r.values...)}
}

// Schema returns the record's canonical schema.
func (r *Record) Schema() *CanonicalSchema { return r.schema }

// Get returns the value of a field, ignoring case in name.
func (r *Record) Get(name string) (any, bool) {
	i, ok := r.schema.Index(name)
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// Set assigns a field after coercing v to the field's type.
func (r *Record) Set(name string, v any) error {
	i, ok := r.schema.Index(name)
	if !ok {
		return issuef("/"+name, CodeUnknownKey, "field %q is not part of %s", name, r.schema)
	}
	cv, err := coerceTo(r.schema.fields[i], v)
	if err != nil {
		return issuef("/"+r.schema.fields[i].Name, CodeInvalidType, "%v", err)
	}
	r.values[i] = cv
	return nil
}

// Map converts the record into a generic map keyed by canonical field names.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for i, v := range r.values {
		m[r.schema.fields[i].Name] = plain(v)
	}
	return m
}

// MarshalJSON writes every canonical field in declaration order.
func (r *Record) MarshalJSON() ([]byte, error) {
	return writeObject(r.schema.fields, r.values)
}

// Opaque preserves a JSON subtree the decoder does not project: arrays, and
// objects without a canonical schema. Tree holds map[string]any, []any,
// json.Number, string, bool or nil.
type Opaque struct {
	Tree any
}

// MarshalJSON re-encodes the preserved tree.
func (o Opaque) MarshalJSON() ([]byte, error) { return json.Marshal(o.Tree) }

func plain(v any) any {
	switch t := v.(type) {
	case *Projection:
		return t.Map()
	case *Record:
		return t.Map()
	case Opaque:
		return t.Tree
	}
	return v
}

func writeObject(fields []FieldDescriptor, values []any) ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		v, err := json.Marshal(values[i])
		if err != nil {
			return nil, err
		}
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// MarshalValues encodes a decode result as a JSON array.
func MarshalValues(vals []any, indent bool) ([]byte, error) {
	if vals == nil {
		vals = []any{}
	}
	if indent {
		return json.MarshalIndent(vals, "", "  ")
	}
	return json.Marshal(vals)
}
