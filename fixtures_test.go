package goshape_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	goshape "github.com/reoring/goshape"
)

type Address struct {
	StreetAddress string `json:"streetAddress"`
	City          string `json:"city"`
	Zip           string `json:"zip"`
}

type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Place struct {
	Name    string         `json:"name"`
	Geo     Geo            `json:"geo"`
	Owner   *Address       `json:"owner"`
	Tags    []string       `json:"tags"`
	Meta    map[string]any `json:"meta"`
	Visits  int32          `json:"visits"`
	Rating  float32        `json:"rating"`
	Opened  time.Time      `json:"opened"`
	Extra   any            `json:"extra"`
	Private string         `json:"-"`
	secret  string
}

func addressSchema(t *testing.T, opts ...goshape.RegistryOption) *goshape.CanonicalSchema {
	t.Helper()
	s, err := goshape.SchemaOf[Address](goshape.NewRegistry(opts...))
	require.NoError(t, err)
	return s
}

func decodeOne(t *testing.T, s *goshape.CanonicalSchema, in string, opts ...goshape.DecodeOpt) any {
	t.Helper()
	vals, err := goshape.DecodeBytes(s, []byte(in), opts...)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	return vals[0]
}
