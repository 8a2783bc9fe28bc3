package goshape

import (
	"errors"
	"io"
	"strconv"

	"github.com/reoring/goshape/codec"
	eng "github.com/reoring/goshape/internal/engine"
)

// Decode reads one JSON value from src and projects it against s.
//
// A top-level array yields one value per element; any other top-level value
// yields a single-element result. Each value is decoded as follows:
//   - true/false become bool;
//   - integer literals that fit int64 become int64, other numbers float64;
//   - strings that parse as a date-time become DateTime, others string;
//   - null becomes nil;
//   - objects become *Projection whose shape is the set of canonical members
//     present; object members of a field with a nested schema are projected
//     against that schema;
//   - arrays below the top level, and objects without a schema, become Opaque.
//
// Unknown members are dropped unless opt.Unknown is UnknownStrict.
func (s *CanonicalSchema) Decode(src Source, opts ...DecodeOpt) ([]any, error) {
	var opt DecodeOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	d := &decoder{src: enforce(src, opt), opt: opt}

	tok, err := d.src.NextToken()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, issueAt("/", CodeMalformedInput, "empty input")
		}
		return nil, malformed("/", d.src.Location(), err)
	}

	var out []any
	if tok.Kind == eng.KindBeginArray {
		out = []any{}
		for i := 0; ; i++ {
			et, err := d.next("")
			if err != nil {
				return nil, err
			}
			if et.Kind == eng.KindEndArray {
				break
			}
			v, err := d.value(s, et, "/"+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	} else {
		v, err := d.value(s, tok, "")
		if err != nil {
			return nil, err
		}
		out = []any{v}
	}

	if t, err := d.src.NextToken(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, malformed("/", d.src.Location(), err)
		}
		return nil, Issues{{Path: "/", Code: CodeMalformedInput, Message: "unexpected data after top-level value", Offset: t.Offset}}
	}
	return out, nil
}

// DecodeBytes decodes data with the current JSON driver.
func DecodeBytes(s *CanonicalSchema, data []byte, opts ...DecodeOpt) ([]any, error) {
	return s.Decode(JSONBytes(data), opts...)
}

// DecodeReader decodes the JSON value read from r with the current JSON driver.
func DecodeReader(s *CanonicalSchema, r io.Reader, opts ...DecodeOpt) ([]any, error) {
	return s.Decode(JSONReader(r), opts...)
}

// DecodeAs decodes data against the schema of struct type T.
func DecodeAs[T any](r *Registry, data []byte, opts ...DecodeOpt) ([]any, error) {
	s, err := SchemaOf[T](r)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(s, data, opts...)
}

func enforce(src Source, opt DecodeOpt) Source {
	eo := eng.EnforceOptions{MaxDepth: opt.MaxDepth, MaxBytes: opt.MaxBytes}
	switch opt.Strictness.OnDuplicateKey {
	case Warn:
		eo.OnDuplicate = eng.DupWarn
	case Error:
		eo.OnDuplicate = eng.DupError
	}
	if opt.OnWarn != nil {
		eo.IssueSink = func(si eng.SimpleIssue) {
			opt.OnWarn(Issue{Path: si.Path, Code: si.Code, Message: si.Message, Offset: si.Offset})
		}
	}
	return eng.WrapWithEnforcement(src, eo)
}

type decoder struct {
	src Source
	opt DecodeOpt
}

func (d *decoder) next(path string) (Token, error) {
	tok, err := d.src.NextToken()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Token{}, malformed(path, d.src.Location(), err)
	}
	return tok, nil
}

// value decodes the value starting at tok. Objects are projected against s
// when s is non-nil.
func (d *decoder) value(s *CanonicalSchema, tok Token, path string) (any, error) {
	switch tok.Kind {
	case eng.KindBeginObject:
		if s != nil {
			return d.object(s, path)
		}
		return d.opaque(tok, path)
	case eng.KindBeginArray:
		return d.opaque(tok, path)
	case eng.KindString:
		if dt, ok := codec.ParseDateTimeLiteral(tok.String); ok {
			return dt, nil
		}
		return tok.String, nil
	case eng.KindNumber:
		return number(tok, path)
	case eng.KindBool:
		return tok.Bool, nil
	case eng.KindNull:
		return nil, nil
	}
	return nil, Issues{{Path: orRoot(path), Code: CodeMalformedInput, Message: "unexpected " + tok.Kind.String(), Offset: tok.Offset}}
}

func (d *decoder) object(s *CanonicalSchema, path string) (any, error) {
	var (
		names []string
		vals  []any
	)
	for {
		kt, err := d.next(path)
		if err != nil {
			return nil, err
		}
		if kt.Kind == eng.KindEndObject {
			break
		}
		if kt.Kind != eng.KindKey {
			return nil, Issues{{Path: orRoot(path), Code: CodeMalformedInput, Message: "expected member name, got " + kt.Kind.String(), Offset: kt.Offset}}
		}
		mpath := eng.JoinPointer(path, kt.String)
		vt, err := d.next(mpath)
		if err != nil {
			return nil, err
		}
		i, ok := s.Index(kt.String)
		if !ok {
			if d.opt.Unknown == UnknownStrict {
				return nil, Issues{{Path: mpath, Code: CodeUnknownKey, Message: "member is not a field of " + s.name, Offset: kt.Offset}}
			}
			if err := eng.Skip(d.src, vt); err != nil {
				return nil, malformed(mpath, d.src.Location(), err)
			}
			continue
		}
		v, err := d.value(s.fields[i].Nested, vt, mpath)
		if err != nil {
			return nil, err
		}
		names = append(names, kt.String)
		vals = append(vals, v)
	}

	sh, err := s.Shape(names...)
	if err != nil {
		return nil, relocate(err, path)
	}
	p := NewProjection(sh)
	for j, n := range names {
		// An aliased fingerprint can resolve to a shape without this member.
		if i, ok := sh.Index(n); ok {
			p.values[i] = vals[j]
		}
	}
	return p, nil
}

func (d *decoder) opaque(tok Token, path string) (any, error) {
	tree, err := eng.DecodeTree(d.src, tok)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, malformed(path, d.src.Location(), err)
	}
	return Opaque{Tree: tree}, nil
}

func number(tok Token, path string) (any, error) {
	if n, err := strconv.ParseInt(tok.Number, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(tok.Number, 64)
	if err != nil {
		return nil, Issues{{Path: orRoot(path), Code: CodeMalformedInput, Message: "number " + tok.Number + " is out of range", Cause: err, Offset: tok.Offset}}
	}
	return f, nil
}

// relocate copies issues reported at the root onto path. Issues shared by
// concurrent cache waiters are never modified in place.
func relocate(err error, path string) error {
	iss, ok := AsIssues(err)
	if !ok || path == "" {
		return err
	}
	out := make(Issues, len(iss))
	for i, it := range iss {
		if it.Path == "/" {
			it.Path = path
		}
		out[i] = it
	}
	return out
}

func orRoot(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
