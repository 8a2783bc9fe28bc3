package goshape

import (
	"errors"
	"fmt"
	"strings"

	eng "github.com/reoring/goshape/internal/engine"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeSchemaInit        = "schema_init"
	CodeSynthesis         = "synthesis"
	CodeUnsupportedSource = "unsupported_source"
	CodeMalformedInput    = "malformed_input"
	CodeUnknownKey        = "unknown_key"
	CodeInvalidType       = "invalid_type"
	// Produced by input enforcement (see DecodeOpt).
	CodeDuplicateKey = eng.CodeDuplicateKey
	CodeMaxDepth     = eng.CodeMaxDepth
	CodeTruncated    = eng.CodeTruncated
)

// Sentinel errors matched by errors.Is against Issues.
var (
	// ErrSchemaInit: a canonical type could not be introspected or declared.
	ErrSchemaInit = errors.New("goshape: schema initialization failure")
	// ErrSynthesis: no shape could be built for a fingerprint.
	ErrSynthesis = errors.New("goshape: synthesis failure")
	// ErrUnsupportedSource: Merge received something other than a *Projection.
	ErrUnsupportedSource = errors.New("goshape: unsupported source kind")
	// ErrMalformedInput: the token stream cannot be decoded.
	ErrMalformedInput = errors.New("goshape: malformed input")
)

// Issue represents a single failure with its location.
type Issue struct {
	Path    string // JSON Pointer (for example: /2/city).
	Code    string // One of the codes listed above.
	Message string
	Cause   error // Optional: underlying error.
	Offset  int64 // Byte offset in the input source (-1 when unknown).
}

func (it Issue) String() string {
	s := fmt.Sprintf("%s at %s: %s", it.Code, it.Path, it.Message)
	if it.Cause != nil {
		s += ": " + it.Cause.Error()
	}
	return s
}

// Issues is a collection of issues that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(iss[i].String())
	}
	if len(iss) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

// Is maps issue codes onto the package sentinels so callers can use errors.Is.
func (iss Issues) Is(target error) bool {
	for _, it := range iss {
		if sentinelFor(it.Code) == target {
			return true
		}
	}
	return false
}

// Unwrap exposes the causes of the contained issues.
func (iss Issues) Unwrap() []error {
	var out []error
	for _, it := range iss {
		if it.Cause != nil {
			out = append(out, it.Cause)
		}
	}
	return out
}

func sentinelFor(code string) error {
	switch code {
	case CodeSchemaInit:
		return ErrSchemaInit
	case CodeSynthesis:
		return ErrSynthesis
	case CodeUnsupportedSource:
		return ErrUnsupportedSource
	case CodeMalformedInput, CodeDuplicateKey, CodeMaxDepth, CodeTruncated, CodeUnknownKey:
		return ErrMalformedInput
	}
	return nil
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	return append(dst, more...)
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

func issueAt(path, code, msg string) Issues {
	if path == "" {
		path = "/"
	}
	return Issues{{Path: path, Code: code, Message: msg, Offset: -1}}
}

func issuef(path, code, format string, args ...any) Issues {
	return issueAt(path, code, fmt.Sprintf(format, args...))
}

// malformed converts a driver or enforcement error into Issues at path.
func malformed(path string, off int64, err error) Issues {
	if path == "" {
		path = "/"
	}
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return Issues{{Path: ie.Path, Code: ie.Code, Message: ie.Message, Offset: ie.Offset}}
	}
	return Issues{{Path: path, Code: CodeMalformedInput, Message: "cannot decode JSON", Cause: err, Offset: off}}
}
