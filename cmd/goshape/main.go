package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/goccy/go-json"

	goshape "github.com/reoring/goshape"
	"github.com/reoring/goshape/schemafile"
	jsonsrc "github.com/reoring/goshape/source/json"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "decode":
		err = decodeCmd(os.Args[2:], os.Stdout, os.Stderr)
	case "merge":
		err = mergeCmd(os.Args[2:], os.Stdout, os.Stderr)
	case "fingerprint":
		err = fingerprintCmd(os.Args[2:], os.Stdout, os.Stderr)
	case "jsonschema":
		err = jsonschemaCmd(os.Args[2:], os.Stdout, os.Stderr)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fatalf("%v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `goshape CLI

Usage:
  goshape decode      -schema schemas.yaml -type T [-indent] [-strict] [-dump] [-v] input.json
  goshape merge       -schema schemas.yaml -type T -into record.json [-index N] input.json
  goshape fingerprint -schema schemas.yaml -type T name [name...]
  goshape jsonschema  -schema schemas.yaml -type T [-fields a,b]

Common flags:
  -driver go-json|encoding/json   JSON token driver (default go-json)`)
}

// common holds the flags every subcommand shares.
type common struct {
	schemaPath string
	typeName   string
	driver     string
	verbose    bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.schemaPath, "schema", "", "YAML file declaring canonical schemas")
	fs.StringVar(&c.typeName, "type", "", "canonical schema to project against")
	fs.StringVar(&c.driver, "driver", "go-json", "JSON driver: go-json or encoding/json")
	fs.BoolVar(&c.verbose, "v", false, "enable verbose logs")
}

func (c *common) logf(stderr io.Writer) func(format string, a ...any) {
	return func(format string, a ...any) {
		if c.verbose {
			fmt.Fprintf(stderr, format+"\n", a...)
		}
	}
}

// open loads the schema file and returns the selected canonical schema.
func (c *common) open(stderr io.Writer) (*goshape.CanonicalSchema, error) {
	if c.schemaPath == "" || c.typeName == "" {
		return nil, fmt.Errorf("-schema and -type are required")
	}
	switch c.driver {
	case "go-json", "":
		goshape.UseDefaultJSONDriver()
	case "encoding/json":
		goshape.SetJSONDriver(jsonsrc.Driver())
	default:
		return nil, fmt.Errorf("unknown driver %q", c.driver)
	}
	logf := c.logf(stderr)
	reg := goshape.NewRegistry(goshape.WithLogger(goshape.LoggerFunc(logf)))
	if _, err := schemafile.LoadFile(reg, c.schemaPath); err != nil {
		return nil, err
	}
	s, ok := reg.Lookup(c.typeName)
	if !ok {
		return nil, fmt.Errorf("schema %q is not declared in %s", c.typeName, c.schemaPath)
	}
	logf("schema %s: %d fields, driver %s", s.Name(), s.Len(), goshape.CurrentJSONDriver().Name())
	return s, nil
}

func decodeCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var c common
	c.register(fs)
	var indent, strict, dump bool
	fs.BoolVar(&indent, "indent", false, "indent JSON output")
	fs.BoolVar(&strict, "strict", false, "reject members that are not canonical fields")
	fs.BoolVar(&dump, "dump", false, "dump decoded Go values instead of JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("decode: exactly one input file is required")
	}
	s, err := c.open(stderr)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	opt := goshape.DecodeOpt{}
	if strict {
		opt.Unknown = goshape.UnknownStrict
	}

	// The first pass synthesizes every shape; the second one only hits the cache.
	start := time.Now()
	vals, err := goshape.DecodeBytes(s, data, opt)
	if err != nil {
		return err
	}
	uncached := time.Since(start)
	start = time.Now()
	if _, err := goshape.DecodeBytes(s, data, opt); err != nil {
		return err
	}
	cached := time.Since(start)
	fmt.Fprintf(stderr, "Uncached ... Elapsed=%s\n", uncached)
	fmt.Fprintf(stderr, "Cached ... Elapsed=%s\n", cached)
	st := s.Cache().Stats()
	c.logf(stderr)("cache: %d shapes, %d hits, %d misses, %d syntheses", st.Shapes, st.Hits, st.Misses, st.Syntheses)

	if dump {
		spew.Fdump(stdout, vals)
		return nil
	}
	out, err := goshape.MarshalValues(vals, indent)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(out))
	return err
}

func mergeCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("merge", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var c common
	c.register(fs)
	var into string
	var index int
	fs.StringVar(&into, "into", "", "JSON file holding the destination record")
	fs.IntVar(&index, "index", 0, "which decoded value of the input to merge")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || into == "" {
		fs.Usage()
		return fmt.Errorf("merge: -into and exactly one input file are required")
	}
	s, err := c.open(stderr)
	if err != nil {
		return err
	}

	rec := goshape.NewRecord(s)
	base, err := decodeFile(s, into)
	if err != nil {
		return err
	}
	if len(base) != 1 {
		return fmt.Errorf("merge: %s must hold a single object", into)
	}
	if err := s.Merge(base[0], rec); err != nil {
		return fmt.Errorf("merge: loading %s: %w", into, err)
	}

	vals, err := decodeFile(s, fs.Arg(0))
	if err != nil {
		return err
	}
	if index < 0 || index >= len(vals) {
		return fmt.Errorf("merge: index %d out of range (input holds %d values)", index, len(vals))
	}
	if err := s.Merge(vals[index], rec); err != nil {
		return err
	}
	if p, ok := vals[index].(*goshape.Projection); ok {
		c.logf(stderr)("merged %s into %s", p.Fingerprint(), into)
	}
	out, err := goshape.MarshalValues([]any{rec}, true)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(out))
	return err
}

func fingerprintCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("fingerprint", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var c common
	c.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := c.open(stderr)
	if err != nil {
		return err
	}
	names := splitCSV(strings.Join(fs.Args(), ","))
	sh, err := s.Shape(names...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "%s\t%s\n", sh.Fingerprint(), strings.Join(sh.Names(), ","))
	return err
}

func jsonschemaCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("jsonschema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var c common
	c.register(fs)
	var fields string
	fs.StringVar(&fields, "fields", "", "comma-separated field names; exports that shape instead of the full schema")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := c.open(stderr)
	if err != nil {
		return err
	}
	doc := s.JSONSchema()
	if fields != "" {
		sh, err := s.Shape(splitCSV(fields)...)
		if err != nil {
			return err
		}
		doc = sh.JSONSchema()
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(out))
	return err
}

func decodeFile(s *goshape.CanonicalSchema, path string) ([]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	vals, err := goshape.DecodeReader(s, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vals, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "goshape: "+format+"\n", a...)
	os.Exit(1)
}
