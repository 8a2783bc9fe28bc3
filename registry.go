package goshape

import (
	"reflect"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Registry owns the canonical schemas of a process and, through them, one
// projection cache per canonical type. Create it once at startup and pass it
// to the code that decodes or merges.
type Registry struct {
	cfg cacheConfig

	byType sync.Map // reflect.Type -> *CanonicalSchema
	byName sync.Map // string -> *CanonicalSchema
	group  singleflight.Group

	// mu serializes introspection so a graph of mutually referencing types
	// is built and published once.
	mu sync.Mutex
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithSynthesizer replaces the DefaultSynthesizer for every schema of the registry.
func WithSynthesizer(s Synthesizer) RegistryOption {
	return func(r *Registry) {
		if s != nil {
			r.cfg.synth = s
		}
	}
}

// WithMaxShapes bounds the number of shapes each projection cache holds.
// Synthesis beyond the bound fails with ErrSynthesis. Zero means unbounded.
func WithMaxShapes(n int) RegistryOption {
	return func(r *Registry) { r.cfg.maxShapes = n }
}

// WithLogger routes debug output of the registry and its caches to l.
func WithLogger(l Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.cfg.log = l
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{cfg: cacheConfig{synth: DefaultSynthesizer{}, log: nopLogger{}}}
	for _, o := range opts {
		o(r)
	}
	return r
}

// SchemaOf returns the canonical schema of struct type T.
func SchemaOf[T any](r *Registry) (*CanonicalSchema, error) {
	return r.SchemaFor(reflect.TypeOf((*T)(nil)).Elem())
}

// SchemaFor returns the canonical schema of a struct type (or pointer to
// struct), introspecting it on first use. Concurrent first callers share one
// introspection; a failure is reported to all of them and is not remembered.
func (r *Registry) SchemaFor(t reflect.Type) (*CanonicalSchema, error) {
	if t == nil {
		return nil, issueAt("/", CodeSchemaInit, "nil type")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if s, ok := r.byType.Load(t); ok {
		return s.(*CanonicalSchema), nil
	}
	v, err, _ := r.group.Do("type:"+t.PkgPath()+"|"+t.String(), func() (any, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		in := &introspection{building: make(map[reflect.Type]*CanonicalSchema)}
		s, err := r.introspect(t, in)
		if err != nil {
			return nil, err
		}
		r.publish(in.built)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*CanonicalSchema), nil
}

// Declare registers a schema from an explicit field list. Declaring the same
// name again with identical fields returns the existing schema; different
// fields are an error.
func (r *Registry) Declare(name string, fields ...FieldDescriptor) (*CanonicalSchema, error) {
	if s, ok := r.byName.Load(name); ok {
		return r.redeclare(s.(*CanonicalSchema), fields)
	}
	v, err, _ := r.group.Do("name:"+name, func() (any, error) {
		if s, ok := r.byName.Load(name); ok {
			return r.redeclare(s.(*CanonicalSchema), fields)
		}
		s, err := newSchema(name, append([]FieldDescriptor(nil), fields...), nil, nil, r.cfg)
		if err != nil {
			return nil, err
		}
		r.byName.Store(name, s)
		r.cfg.log.Debugf("goshape: declared %s with %d fields", name, s.Len())
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	s := v.(*CanonicalSchema)
	if !s.sameFields(fields) {
		return nil, issuef("/"+name, CodeSchemaInit, "schema %q is already declared with different fields", name)
	}
	return s, nil
}

func (r *Registry) redeclare(s *CanonicalSchema, fields []FieldDescriptor) (*CanonicalSchema, error) {
	if s.goType != nil || !s.sameFields(fields) {
		return nil, issuef("/"+s.name, CodeSchemaInit, "schema %q is already declared with different fields", s.name)
	}
	return s, nil
}

// Lookup returns a schema by name.
func (r *Registry) Lookup(name string) (*CanonicalSchema, bool) {
	s, ok := r.byName.Load(name)
	if !ok {
		return nil, false
	}
	return s.(*CanonicalSchema), true
}

// Schemas returns all named schemas sorted by name.
func (r *Registry) Schemas() []*CanonicalSchema {
	var out []*CanonicalSchema
	r.byName.Range(func(_, v any) bool {
		out = append(out, v.(*CanonicalSchema))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

var (
	timeType     = reflect.TypeOf((*time.Time)(nil)).Elem()
	dateTimeType = reflect.TypeOf((*DateTime)(nil)).Elem()
)

// introspection tracks one SchemaFor call. building maps every struct type
// reached so far to its schema, which is allocated before its fields are
// walked: a field referring back to a type under construction gets that
// schema as Nested, so reference cycles project like any other nesting.
// Nothing is published until the whole graph is built.
type introspection struct {
	building map[reflect.Type]*CanonicalSchema
	built    []*CanonicalSchema
}

func (r *Registry) introspect(t reflect.Type, in *introspection) (*CanonicalSchema, error) {
	if s, ok := r.byType.Load(t); ok {
		return s.(*CanonicalSchema), nil
	}
	if s, ok := in.building[t]; ok {
		return s, nil
	}
	if t.Kind() != reflect.Struct || t == timeType || t == dateTimeType {
		return nil, issuef("/", CodeSchemaInit, "%s is not a struct type", t)
	}
	s := &CanonicalSchema{}
	in.building[t] = s

	var (
		fields []FieldDescriptor
		slots  [][]int
	)
	var walk func(st reflect.Type, prefix []int) error
	walk = func(st reflect.Type, prefix []int) error {
		for i := 0; i < st.NumField(); i++ {
			sf := st.Field(i)
			idx := append(append([]int(nil), prefix...), i)
			if sf.Anonymous && sf.Type.Kind() == reflect.Struct && sf.Tag.Get("json") == "" && sf.Tag.Get("goshape") == "" {
				if err := walk(sf.Type, idx); err != nil {
					return err
				}
				continue
			}
			if !sf.IsExported() {
				continue
			}
			name := ResolveStructKey(sf)
			if name == "-" {
				continue
			}
			fd, err := r.describe(name, sf.Type, in)
			if err != nil {
				return err
			}
			fields = append(fields, fd)
			slots = append(slots, idx)
		}
		return nil
	}
	if err := walk(t, nil); err != nil {
		return nil, err
	}

	name := t.Name()
	if name == "" {
		name = "struct"
	}
	if err := s.init(name, fields, t, slots, r.cfg); err != nil {
		return nil, err
	}
	in.built = append(in.built, s)
	return s, nil
}

// publish makes fully built schemas visible. Anonymous struct types are not
// indexed by name.
func (r *Registry) publish(built []*CanonicalSchema) {
	for _, s := range built {
		r.byType.Store(s.goType, s)
		if s.goType.Name() != "" {
			r.byName.LoadOrStore(s.name, s)
		}
		r.cfg.log.Debugf("goshape: registered %s (%s) with %d fields", s.name, s.goType, s.Len())
	}
}

func (r *Registry) describe(name string, ft reflect.Type, in *introspection) (FieldDescriptor, error) {
	if ft.Kind() == reflect.Pointer {
		ft = ft.Elem()
	}
	fd := FieldDescriptor{Name: name}
	switch ft.Kind() {
	case reflect.Bool:
		fd.Type = TypeBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		fd.Type = TypeInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		fd.Type = TypeUint
	case reflect.Float32, reflect.Float64:
		fd.Type = TypeFloat
	case reflect.String:
		fd.Type = TypeString
	case reflect.Slice, reflect.Array:
		fd.Type = TypeArray
	case reflect.Map:
		fd.Type = TypeObject
	case reflect.Interface:
		fd.Type = TypeAny
	case reflect.Struct:
		if ft == timeType || ft == dateTimeType {
			fd.Type = TypeTime
			break
		}
		fd.Type = TypeObject
		nested, err := r.introspect(ft, in)
		if err != nil {
			return fd, err
		}
		fd.Nested = nested
	default:
		return fd, issuef("/"+name, CodeSchemaInit, "field %q has unsupported kind %s", name, ft.Kind())
	}
	return fd, nil
}
