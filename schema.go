package goshape

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FieldDescriptor describes one field of a canonical record.
type FieldDescriptor struct {
	Name   string    // Canonical casing, as declared.
	Type   FieldType // Semantic type tag.
	Nested *CanonicalSchema
}

// Field is shorthand for a FieldDescriptor without a nested schema.
func Field(name string, t FieldType) FieldDescriptor {
	return FieldDescriptor{Name: name, Type: t}
}

// Object declares an object-typed field whose value projects against nested.
func Object(name string, nested *CanonicalSchema) FieldDescriptor {
	return FieldDescriptor{Name: name, Type: TypeObject, Nested: nested}
}

// CanonicalSchema is the frozen, ordered field list of a canonical record type.
// It is built once by a Registry and is read-only afterwards.
type CanonicalSchema struct {
	name   string
	fields []FieldDescriptor
	index  map[string]int // lowercased name -> position
	base   []rune         // lowercased first character per position

	goType reflect.Type // nil for declared schemas
	slots  [][]int      // struct field index path per position

	cache *ProjectionCache
}

func newSchema(name string, fields []FieldDescriptor, goType reflect.Type, slots [][]int, cfg cacheConfig) (*CanonicalSchema, error) {
	s := &CanonicalSchema{}
	if err := s.init(name, fields, goType, slots, cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// init fills in a schema allocated ahead of its fields. Nested may point
// back at s.
func (s *CanonicalSchema) init(name string, fields []FieldDescriptor, goType reflect.Type, slots [][]int, cfg cacheConfig) error {
	if name == "" {
		return issueAt("/", CodeSchemaInit, "schema name is empty")
	}
	s.name = name
	s.fields = fields
	s.index = make(map[string]int, len(fields))
	s.base = make([]rune, len(fields))
	s.goType = goType
	s.slots = slots
	for i, f := range fields {
		if f.Name == "" {
			return issuef("/"+name, CodeSchemaInit, "field %d has an empty name", i)
		}
		lower := strings.ToLower(f.Name)
		if j, dup := s.index[lower]; dup {
			return issuef("/"+name, CodeSchemaInit, "fields %q and %q collide case-insensitively", fields[j].Name, f.Name)
		}
		s.index[lower] = i
		r, _ := utf8.DecodeRuneInString(lower)
		s.base[i] = r
	}
	s.cache = newProjectionCache(s, cfg)
	return nil
}

// Name returns the canonical type identifier used as the fingerprint prefix.
func (s *CanonicalSchema) Name() string { return s.name }

// Len returns the number of canonical fields.
func (s *CanonicalSchema) Len() int { return len(s.fields) }

// Field returns the i-th field in declaration order.
func (s *CanonicalSchema) Field(i int) FieldDescriptor { return s.fields[i] }

// Fields returns a copy of the fields in declaration order.
func (s *CanonicalSchema) Fields() []FieldDescriptor {
	return append([]FieldDescriptor(nil), s.fields...)
}

// Index looks up a field position by name, ignoring case.
func (s *CanonicalSchema) Index(name string) (int, bool) {
	if i, ok := s.index[name]; ok {
		return i, true
	}
	i, ok := s.index[strings.ToLower(name)]
	return i, ok
}

// GoType returns the struct type the schema was introspected from, or nil
// for declared schemas.
func (s *CanonicalSchema) GoType() reflect.Type { return s.goType }

// Cache returns the projection cache owned by this schema.
func (s *CanonicalSchema) Cache() *ProjectionCache { return s.cache }

func (s *CanonicalSchema) String() string { return "schema " + s.name }

// sameFields reports whether a declaration matches the schema exactly.
func (s *CanonicalSchema) sameFields(fields []FieldDescriptor) bool {
	if len(fields) != len(s.fields) {
		return false
	}
	for i, f := range fields {
		if f != s.fields[i] {
			return false
		}
	}
	return true
}

func upperFirst(name string) rune {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.ToUpper(r)
}
