package goshape

import "strings"

// Shape is the synthesized minimal type for one fingerprint: the canonical
// fields present in that fingerprint, in canonical declaration order. Shapes
// are immutable and shared by every Projection decoded with them.
type Shape struct {
	fp     Fingerprint
	schema *CanonicalSchema
	fields []FieldDescriptor
	pos    []int          // canonical position per shape field
	index  map[string]int // lowercased name -> shape position
}

// NewShape builds a shape of schema from canonical field positions, which
// must be strictly increasing. It is the building block for custom
// Synthesizers.
func NewShape(fp Fingerprint, schema *CanonicalSchema, positions []int) (*Shape, error) {
	sh := &Shape{
		fp:     fp,
		schema: schema,
		fields: make([]FieldDescriptor, len(positions)),
		pos:    append([]int(nil), positions...),
		index:  make(map[string]int, len(positions)),
	}
	prev := -1
	for i, p := range positions {
		if p <= prev || p >= schema.Len() {
			return nil, issuef("/", CodeSynthesis, "shape %s: invalid field position %d", fp, p)
		}
		prev = p
		f := schema.fields[p]
		sh.fields[i] = f
		sh.index[strings.ToLower(f.Name)] = i
	}
	return sh, nil
}

// Fingerprint returns the key the shape is cached under.
func (sh *Shape) Fingerprint() Fingerprint { return sh.fp }

// Schema returns the canonical schema the shape is a subset of.
func (sh *Shape) Schema() *CanonicalSchema { return sh.schema }

// Len returns the number of fields in the shape.
func (sh *Shape) Len() int { return len(sh.fields) }

// Field returns the i-th field of the shape.
func (sh *Shape) Field(i int) FieldDescriptor { return sh.fields[i] }

// Fields returns a copy of the shape's fields.
func (sh *Shape) Fields() []FieldDescriptor {
	return append([]FieldDescriptor(nil), sh.fields...)
}

// Names returns the field names in shape order.
func (sh *Shape) Names() []string {
	out := make([]string, len(sh.fields))
	for i, f := range sh.fields {
		out[i] = f.Name
	}
	return out
}

// Index looks up a shape position by field name, ignoring case.
func (sh *Shape) Index(name string) (int, bool) {
	if i, ok := sh.index[name]; ok {
		return i, true
	}
	i, ok := sh.index[strings.ToLower(name)]
	return i, ok
}

// slotIn maps shape position i to a field position of s. Shapes of another
// schema are matched by field name.
func (sh *Shape) slotIn(s *CanonicalSchema, i int) (int, bool) {
	if sh.schema == s {
		return sh.pos[i], true
	}
	return s.Index(sh.fields[i].Name)
}

func (sh *Shape) String() string {
	return string(sh.fp) + "{" + strings.Join(sh.Names(), ",") + "}"
}

// Synthesizer builds the shape for a fingerprint on a cache miss.
type Synthesizer interface {
	Synthesize(fp Fingerprint, schema *CanonicalSchema, names []string) (*Shape, error)
}

// SynthesizerFunc adapts a function to Synthesizer.
type SynthesizerFunc func(fp Fingerprint, schema *CanonicalSchema, names []string) (*Shape, error)

func (f SynthesizerFunc) Synthesize(fp Fingerprint, schema *CanonicalSchema, names []string) (*Shape, error) {
	return f(fp, schema, names)
}

// DefaultSynthesizer selects the canonical fields named (case-insensitively)
// in names, keeping declaration order. Unknown names are ignored and an empty
// selection yields a shape without fields.
type DefaultSynthesizer struct{}

func (DefaultSynthesizer) Synthesize(fp Fingerprint, schema *CanonicalSchema, names []string) (*Shape, error) {
	present := make([]bool, schema.Len())
	for _, n := range names {
		if i, ok := schema.Index(n); ok {
			present[i] = true
		}
	}
	positions := make([]int, 0, len(names))
	for i, ok := range present {
		if ok {
			positions = append(positions, i)
		}
	}
	return NewShape(fp, schema, positions)
}
