package goshape

import (
	"fmt"

	"github.com/reoring/goshape/codec"
)

// FieldType is the semantic type tag of a canonical field.
type FieldType int

const (
	TypeAny    FieldType = iota // Any JSON value; stored as decoded.
	TypeBool                    // JSON true/false.
	TypeInt                     // Signed integer.
	TypeUint                    // Unsigned integer.
	TypeFloat                   // Floating point number.
	TypeString                  // Text.
	TypeTime                    // Date-time (DateTime or time.Time).
	TypeObject                  // Nested object; Nested schema when known.
	TypeArray                   // JSON array.
)

var fieldTypeNames = [...]string{
	TypeAny:    "any",
	TypeBool:   "bool",
	TypeInt:    "int",
	TypeUint:   "uint",
	TypeFloat:  "float",
	TypeString: "string",
	TypeTime:   "time",
	TypeObject: "object",
	TypeArray:  "array",
}

func (t FieldType) String() string {
	if t >= 0 && int(t) < len(fieldTypeNames) {
		return fieldTypeNames[t]
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

// ParseFieldType resolves a type name as written in schema declarations.
// A few common aliases are accepted.
func ParseFieldType(name string) (FieldType, error) {
	switch name {
	case "", "any":
		return TypeAny, nil
	case "bool", "boolean":
		return TypeBool, nil
	case "int", "integer", "int64":
		return TypeInt, nil
	case "uint", "uint64":
		return TypeUint, nil
	case "float", "number", "float64", "double":
		return TypeFloat, nil
	case "string", "text":
		return TypeString, nil
	case "time", "datetime", "date-time":
		return TypeTime, nil
	case "object":
		return TypeObject, nil
	case "array":
		return TypeArray, nil
	}
	return TypeAny, fmt.Errorf("unknown field type %q", name)
}

// UnknownPolicy controls how object members without a canonical field are handled.
type UnknownPolicy int

const (
	UnknownStrip  UnknownPolicy = iota // Drop unknown members silently.
	UnknownStrict                      // Reject unknown members with an error.
)

// Severity expresses the severity level for issues.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Strictness configures enforcement for duplicate keys.
type Strictness struct {
	OnDuplicateKey Severity // Warn or Error (duplicate JSON keys).
}

// DecodeOpt bundles decoding options. The zero value strips unknown members
// and enforces nothing.
type DecodeOpt struct {
	Strictness Strictness
	MaxDepth   int
	MaxBytes   int64
	Unknown    UnknownPolicy
	// OnWarn receives non-fatal issues such as duplicate keys in Warn mode.
	OnWarn func(Issue)
}

// DateTime is the decoded form of a date-time string. It keeps the literal
// text so projections re-encode it unchanged.
type DateTime = codec.DateTime
