package schemafile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goshape "github.com/reoring/goshape"
	"github.com/reoring/goshape/schemafile"
)

const places = `
schemas:
  - name: Place
    fields:
      - {name: name, type: string}
      - {name: geo, type: object, schema: Geo}
      - {name: opened, type: date-time}
      - {name: tags, type: array}
  - name: Geo
    fields:
      - {name: lat, type: number}
      - {name: lng, type: number}
`

func TestLoadYAML_ForwardReferences(t *testing.T) {
	r := goshape.NewRegistry()
	out, err := schemafile.LoadYAML(r, []byte(places))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Place", out[0].Name())
	assert.Equal(t, "Geo", out[1].Name())

	geo, ok := r.Lookup("Geo")
	require.True(t, ok)
	assert.Same(t, geo, out[0].Fields()[1].Nested)
	assert.Equal(t, goshape.TypeTime, out[0].Fields()[2].Type)
	assert.Equal(t, goshape.TypeFloat, geo.Fields()[0].Type)

	vals, err := goshape.DecodeBytes(out[0], []byte(`{"geo":{"lat":1.5}}`))
	require.NoError(t, err)
	p := vals[0].(*goshape.Projection)
	g, _ := p.Get("geo")
	assert.Equal(t, goshape.Fingerprint("Geo_Ll"), g.(*goshape.Projection).Fingerprint())
}

func TestLoadYAML_Idempotent(t *testing.T) {
	r := goshape.NewRegistry()
	first, err := schemafile.LoadYAML(r, []byte(places))
	require.NoError(t, err)
	second, err := schemafile.LoadYAML(r, []byte(places))
	require.NoError(t, err)
	assert.Same(t, first[0], second[0])
}

func TestLoadYAML_ReferencesRegisteredSchema(t *testing.T) {
	r := goshape.NewRegistry()
	_, err := r.Declare("Geo", goshape.Field("lat", goshape.TypeFloat))
	require.NoError(t, err)

	out, err := schemafile.LoadYAML(r, []byte(`
schemas:
  - name: Pin
    fields:
      - {name: at, type: object, schema: Geo}
`))
	require.NoError(t, err)
	assert.Equal(t, "Geo", out[0].Fields()[0].Nested.Name())
}

func TestLoadYAML_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown key": `
schemas:
  - name: A
    colour: red
`,
		"unknown type": `
schemas:
  - name: A
    fields:
      - {name: a, type: decimal}
`,
		"unknown schema": `
schemas:
  - name: A
    fields:
      - {name: b, type: object, schema: B}
`,
		"cycle": `
schemas:
  - name: A
    fields:
      - {name: b, type: object, schema: B}
  - name: B
    fields:
      - {name: a, type: object, schema: A}
`,
		"schema on scalar": `
schemas:
  - name: A
    fields:
      - {name: b, type: string, schema: B}
  - name: B
`,
		"duplicate": `
schemas:
  - name: A
  - name: A
`,
		"unnamed": `
schemas:
  - fields: []
`,
		"field collision": `
schemas:
  - name: A
    fields:
      - {name: id, type: int}
      - {name: ID, type: int}
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := schemafile.LoadYAML(goshape.NewRegistry(), []byte(doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "schemafile:")
		})
	}
}

func TestLoadYAML_ConflictingRedeclaration(t *testing.T) {
	r := goshape.NewRegistry()
	_, err := r.Declare("Geo", goshape.Field("lat", goshape.TypeFloat))
	require.NoError(t, err)
	_, err = schemafile.LoadYAML(r, []byte(places))
	require.Error(t, err)
	assert.ErrorIs(t, err, goshape.ErrSchemaInit)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(places), 0o644))

	out, err := schemafile.LoadFile(goshape.NewRegistry(), path)
	require.NoError(t, err)
	assert.Len(t, out, 2)

	_, err = schemafile.LoadFile(goshape.NewRegistry(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_Empty(t *testing.T) {
	f, err := schemafile.Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, f.Schemas)
}
