// Package schemafile loads canonical schema declarations from YAML.
//
//	schemas:
//	  - name: Address
//	    fields:
//	      - {name: streetAddress, type: string}
//	      - {name: city, type: string}
//	      - {name: geo, type: object, schema: Geo}
//	  - name: Geo
//	    fields:
//	      - {name: lat, type: float}
//	      - {name: lng, type: float}
//
// Schemas may reference each other in any order as long as the references
// do not form a cycle.
package schemafile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	goshape "github.com/reoring/goshape"
)

// File is the document root.
type File struct {
	Schemas []Decl `yaml:"schemas"`
}

// Decl declares one canonical schema; field order is declaration order.
type Decl struct {
	Name   string      `yaml:"name"`
	Fields []FieldDecl `yaml:"fields"`
}

// FieldDecl declares one field. Schema names the nested schema of an
// object field.
type FieldDecl struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Schema string `yaml:"schema,omitempty"`
}

// Parse decodes a YAML document. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("schemafile: %w", err)
	}
	return &f, nil
}

// LoadYAML parses data and declares its schemas in r.
func LoadYAML(r *goshape.Registry, data []byte) ([]*goshape.CanonicalSchema, error) {
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return f.Register(r)
}

// LoadFile reads and declares the schemas of a YAML file.
func LoadFile(r *goshape.Registry, path string) ([]*goshape.CanonicalSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schemafile: %w", err)
	}
	return LoadYAML(r, data)
}

// Register declares every schema of f in r, nested schemas first, and
// returns them in document order.
func (f *File) Register(r *goshape.Registry) ([]*goshape.CanonicalSchema, error) {
	decls := make(map[string]*Decl, len(f.Schemas))
	for i := range f.Schemas {
		d := &f.Schemas[i]
		if d.Name == "" {
			return nil, fmt.Errorf("schemafile: schema %d has no name", i)
		}
		if _, dup := decls[d.Name]; dup {
			return nil, fmt.Errorf("schemafile: schema %q declared twice", d.Name)
		}
		decls[d.Name] = d
	}

	done := make(map[string]*goshape.CanonicalSchema, len(decls))
	active := make(map[string]bool)
	var declare func(name string) (*goshape.CanonicalSchema, error)
	declare = func(name string) (*goshape.CanonicalSchema, error) {
		if s, ok := done[name]; ok {
			return s, nil
		}
		d, ok := decls[name]
		if !ok {
			if s, ok := r.Lookup(name); ok {
				return s, nil
			}
			return nil, fmt.Errorf("schemafile: unknown schema %q", name)
		}
		if active[name] {
			return nil, fmt.Errorf("schemafile: schema %q references itself", name)
		}
		active[name] = true
		defer delete(active, name)

		fields := make([]goshape.FieldDescriptor, 0, len(d.Fields))
		for _, fd := range d.Fields {
			t, err := goshape.ParseFieldType(fd.Type)
			if err != nil {
				return nil, fmt.Errorf("schemafile: %s.%s: %w", name, fd.Name, err)
			}
			desc := goshape.Field(fd.Name, t)
			if fd.Schema != "" {
				if t != goshape.TypeObject {
					return nil, fmt.Errorf("schemafile: %s.%s: schema given for %s field", name, fd.Name, t)
				}
				nested, err := declare(fd.Schema)
				if err != nil {
					return nil, err
				}
				desc.Nested = nested
			}
			fields = append(fields, desc)
		}
		s, err := r.Declare(name, fields...)
		if err != nil {
			return nil, fmt.Errorf("schemafile: %s: %w", name, err)
		}
		done[name] = s
		return s, nil
	}

	out := make([]*goshape.CanonicalSchema, 0, len(f.Schemas))
	for _, d := range f.Schemas {
		s, err := declare(d.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
