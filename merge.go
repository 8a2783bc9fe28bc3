package goshape

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/goccy/go-json"

	"github.com/reoring/goshape/codec"
	eng "github.com/reoring/goshape/internal/engine"
)

// Merge copies every field of src into dst, matching fields by name.
// Fields of src that dst's schema does not have are skipped; fields of dst
// that src does not carry are left untouched.
//
// src must be a *Projection; anything else, in particular an Opaque, fails
// with ErrUnsupportedSource. dst is a pointer to the schema's struct type or
// a *Record of the schema. Values are coerced minimally: integers widen to
// floats, integral floats narrow to integers when they fit, date-times and
// strings convert keeping the literal text, nil resets a field to its zero
// value, nested projections merge into nested records.
func (s *CanonicalSchema) Merge(src any, dst any) error {
	p, ok := src.(*Projection)
	if !ok || p == nil {
		return issuef("/", CodeUnsupportedSource, "cannot merge from %T: field access needs a *Projection", src)
	}
	if rec, ok := dst.(*Record); ok {
		if rec == nil || rec.schema != s {
			return issuef("/", CodeInvalidType, "destination record does not belong to %s", s)
		}
		work := rec.clone()
		if err := mergeRecord(p, work, ""); err != nil {
			return err
		}
		rec.values = work.values
		return nil
	}
	rv := reflect.ValueOf(dst)
	if s.goType == nil || rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Type() != s.goType {
		want := "*Record"
		if s.goType != nil {
			want = "*" + s.goType.String()
		}
		return issuef("/", CodeInvalidType, "destination %T is not %s", dst, want)
	}
	// Merge into a copy so a failing field leaves dst untouched.
	work := reflect.New(s.goType).Elem()
	work.Set(rv.Elem())
	if err := s.mergeStruct(p, work, ""); err != nil {
		return err
	}
	rv.Elem().Set(work)
	return nil
}

// Merge copies the fields of src into the struct dst using T's schema.
func Merge[T any](r *Registry, src any, dst *T) error {
	s, err := SchemaOf[T](r)
	if err != nil {
		return err
	}
	return s.Merge(src, dst)
}

func (s *CanonicalSchema) mergeStruct(p *Projection, dv reflect.Value, path string) error {
	for i := range p.shape.fields {
		ci, ok := p.shape.slotIn(s, i)
		if !ok {
			continue
		}
		cf := s.fields[ci]
		fpath := eng.JoinPointer(path, cf.Name)
		if err := assign(dv.FieldByIndex(s.slots[ci]), p.values[i], cf, fpath); err != nil {
			return err
		}
	}
	return nil
}

func assign(fv reflect.Value, v any, fd FieldDescriptor, path string) error {
	if v == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	if fv.Kind() == reflect.Pointer {
		// Copy on write: the pointee may be shared with the caller's value.
		nv := reflect.New(fv.Type().Elem())
		if !fv.IsNil() {
			nv.Elem().Set(fv.Elem())
		}
		if err := assign(nv.Elem(), v, fd, path); err != nil {
			return err
		}
		fv.Set(nv)
		return nil
	}
	if fv.Kind() == reflect.Interface {
		pv := plain(v)
		if pv == nil {
			fv.Set(reflect.Zero(fv.Type()))
			return nil
		}
		if rv := reflect.ValueOf(pv); rv.Type().AssignableTo(fv.Type()) {
			fv.Set(rv)
			return nil
		}
		return issuef(path, CodeInvalidType, "cannot assign %T to field of type %s", v, fv.Type())
	}

	switch x := v.(type) {
	case *Projection:
		if fd.Nested != nil && fd.Nested.goType == fv.Type() {
			return fd.Nested.mergeStruct(x, fv, path)
		}
		return roundtrip(fv, x, path)
	case Opaque:
		return roundtrip(fv, x.Tree, path)
	case DateTime:
		switch {
		case fv.Type() == timeType:
			fv.Set(reflect.ValueOf(x.Time))
			return nil
		case fv.Kind() == reflect.String:
			fv.SetString(x.String())
			return nil
		case fv.Type() == dateTimeType:
			fv.Set(reflect.ValueOf(x))
			return nil
		}
	case time.Time:
		switch {
		case fv.Type() == timeType:
			fv.Set(reflect.ValueOf(x))
			return nil
		case fv.Kind() == reflect.String:
			fv.SetString(codec.FormatDateTime(x))
			return nil
		case fv.Type() == dateTimeType:
			fv.Set(reflect.ValueOf(DateTime{Time: x}))
			return nil
		}
	case string:
		switch {
		case fv.Kind() == reflect.String:
			fv.SetString(x)
			return nil
		case fv.Type() == timeType:
			if t, ok := codec.ParseDateTime(x); ok {
				fv.Set(reflect.ValueOf(t))
				return nil
			}
		case fv.Type() == dateTimeType:
			if dt, ok := codec.ParseDateTimeLiteral(x); ok {
				fv.Set(reflect.ValueOf(dt))
				return nil
			}
		}
	case bool:
		if fv.Kind() == reflect.Bool {
			fv.SetBool(x)
			return nil
		}
	case int64:
		if setInt(fv, x) {
			return nil
		}
	case float64:
		if setFloat(fv, x) {
			return nil
		}
	default:
		if rv := reflect.ValueOf(v); rv.Type().AssignableTo(fv.Type()) {
			fv.Set(rv)
			return nil
		}
	}
	return issuef(path, CodeInvalidType, "cannot assign %T to field of type %s", v, fv.Type())
}

func setInt(fv reflect.Value, n int64) bool {
	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if fv.OverflowInt(n) {
			return false
		}
		fv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if n < 0 || fv.OverflowUint(uint64(n)) {
			return false
		}
		fv.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		fv.SetFloat(float64(n))
	default:
		return false
	}
	return true
}

func setFloat(fv reflect.Value, f float64) bool {
	switch fv.Kind() {
	case reflect.Float32, reflect.Float64:
		if fv.OverflowFloat(f) {
			return false
		}
		fv.SetFloat(f)
		return true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return false
		}
		return setInt(fv, int64(f))
	}
	return false
}

// roundtrip assigns v by encoding it and decoding the JSON into fv, for
// destinations the projection model has no direct mapping for (maps, slices,
// structs of another schema).
func roundtrip(fv reflect.Value, v any, path string) error {
	b, err := json.Marshal(v)
	if err != nil {
		return Issues{{Path: path, Code: CodeInvalidType, Message: "cannot encode value", Cause: err, Offset: -1}}
	}
	nv := reflect.New(fv.Type())
	if err := json.Unmarshal(b, nv.Interface()); err != nil {
		return Issues{{Path: path, Code: CodeInvalidType, Message: fmt.Sprintf("cannot assign to field of type %s", fv.Type()), Cause: err, Offset: -1}}
	}
	fv.Set(nv.Elem())
	return nil
}

func mergeRecord(p *Projection, rec *Record, path string) error {
	for i := range p.shape.fields {
		ci, ok := p.shape.slotIn(rec.schema, i)
		if !ok {
			continue
		}
		cf := rec.schema.fields[ci]
		fpath := eng.JoinPointer(path, cf.Name)
		v := p.values[i]
		if np, ok := v.(*Projection); ok && cf.Nested != nil {
			nested := NewRecord(cf.Nested)
			if old, ok := rec.values[ci].(*Record); ok && old.schema == cf.Nested {
				nested = old.clone()
			}
			if err := mergeRecord(np, nested, fpath); err != nil {
				return err
			}
			rec.values[ci] = nested
			continue
		}
		cv, err := coerceTo(cf, v)
		if err != nil {
			return issuef(fpath, CodeInvalidType, "%v", err)
		}
		rec.values[ci] = cv
	}
	return nil
}

// coerceTo converts a decoded value to the representation of fd.Type used by
// Record: bool, int64, uint64, float64, string, DateTime or time.Time, or the
// decoded value itself for any/object/array fields. Date-time strings keep
// their literal text.
func coerceTo(fd FieldDescriptor, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch fd.Type {
	case TypeAny:
		return v, nil
	case TypeBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case TypeInt:
		switch x := v.(type) {
		case int64:
			return x, nil
		case float64:
			if x == math.Trunc(x) && x >= math.MinInt64 && x < math.MaxInt64 {
				return int64(x), nil
			}
		}
	case TypeUint:
		switch x := v.(type) {
		case int64:
			if x >= 0 {
				return uint64(x), nil
			}
		case uint64:
			return x, nil
		case float64:
			if x == math.Trunc(x) && x >= 0 && x < math.MaxUint64 {
				return uint64(x), nil
			}
		}
	case TypeFloat:
		switch x := v.(type) {
		case int64:
			return float64(x), nil
		case float64:
			return x, nil
		}
	case TypeString:
		switch x := v.(type) {
		case string:
			return x, nil
		case DateTime:
			return x.String(), nil
		case time.Time:
			return codec.FormatDateTime(x), nil
		}
	case TypeTime:
		switch x := v.(type) {
		case DateTime, time.Time:
			return x, nil
		case string:
			if dt, ok := codec.ParseDateTimeLiteral(x); ok {
				return dt, nil
			}
		}
	case TypeObject:
		switch x := v.(type) {
		case *Projection, *Record:
			return x, nil
		case Opaque:
			if _, ok := x.Tree.(map[string]any); ok {
				return x, nil
			}
		case map[string]any:
			return Opaque{Tree: x}, nil
		}
	case TypeArray:
		switch x := v.(type) {
		case Opaque:
			if _, ok := x.Tree.([]any); ok {
				return x, nil
			}
		case []any:
			return Opaque{Tree: x}, nil
		}
	}
	return nil, fmt.Errorf("cannot assign %T to %s field %q", v, fd.Type, fd.Name)
}
