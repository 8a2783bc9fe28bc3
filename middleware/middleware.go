// Package middleware decodes JSON request bodies into projections at HTTP
// boundaries. Framework adapters live in the gin and echo sub-modules.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	goshape "github.com/reoring/goshape"
)

// DefaultMaxBytes bounds request bodies decoded with DefaultDecodeOpt.
const DefaultMaxBytes = 1 << 20

type ctxKeyDecoded struct{}

// ContextWithDecoded attaches decoded values to the context.
func ContextWithDecoded(ctx context.Context, vals []any) context.Context {
	return context.WithValue(ctx, ctxKeyDecoded{}, vals)
}

// DecodedFromContext retrieves the values stored by ContextWithDecoded.
func DecodedFromContext(ctx context.Context) ([]any, bool) {
	v, ok := ctx.Value(ctxKeyDecoded{}).([]any)
	return v, ok
}

// ProjectionFromContext returns the single projection decoded from the
// request body, when the body was one JSON object.
func ProjectionFromContext(ctx context.Context) (*goshape.Projection, bool) {
	vals, ok := DecodedFromContext(ctx)
	if !ok || len(vals) != 1 {
		return nil, false
	}
	p, ok := vals[0].(*goshape.Projection)
	return p, ok
}

// DefaultDecodeOpt returns a recommended default for HTTP JSON boundaries:
// duplicate keys are errors and bodies are capped at DefaultMaxBytes.
func DefaultDecodeOpt() goshape.DecodeOpt {
	return goshape.DecodeOpt{
		Strictness: goshape.Strictness{OnDuplicateKey: goshape.Error},
		MaxBytes:   DefaultMaxBytes,
	}
}

// IssuePayload is the JSON form of one Issue.
type IssuePayload struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorPayload shapes Issues for JSON responses.
func ErrorPayload(issues []goshape.Issue) map[string]any {
	out := make([]IssuePayload, len(issues))
	for i, it := range issues {
		out[i] = IssuePayload{Path: it.Path, Code: it.Code, Message: it.Message}
	}
	return map[string]any{"issues": out}
}

// Decode decodes the body of r against s. opts default to DefaultDecodeOpt.
// When MaxBytes is set the body is read through http.MaxBytesReader, so an
// oversized token is cut off before it is buffered; the failure is reported
// as a truncated issue.
func Decode(r *http.Request, s *goshape.CanonicalSchema, opts ...goshape.DecodeOpt) ([]any, error) {
	return decode(nil, r, s, opts)
}

func decode(w http.ResponseWriter, r *http.Request, s *goshape.CanonicalSchema, opts []goshape.DecodeOpt) ([]any, error) {
	if len(opts) == 0 {
		opts = []goshape.DecodeOpt{DefaultDecodeOpt()}
	}
	opt := opts[len(opts)-1]
	body := &bodyReader{r: r.Body}
	if opt.MaxBytes > 0 {
		body.r = http.MaxBytesReader(w, r.Body, opt.MaxBytes)
	}
	vals, err := goshape.DecodeReader(s, body, opt)
	var tooLarge *http.MaxBytesError
	if errors.As(body.err, &tooLarge) {
		return nil, goshape.Issues{{
			Path:    "/",
			Code:    goshape.CodeTruncated,
			Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			Cause:   body.err,
			Offset:  tooLarge.Limit,
		}}
	}
	return vals, err
}

// bodyReader remembers the first read error; JSON drivers may report a
// failed read as a syntax error.
type bodyReader struct {
	r   io.Reader
	err error
}

func (b *bodyReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && err != io.EOF && b.err == nil {
		b.err = err
	}
	return n, err
}

// DecodeJSON returns net/http middleware that decodes request bodies against
// s, stores the values in the request context and answers 400 with an issue
// payload when decoding fails.
func DecodeJSON(s *goshape.CanonicalSchema, opts ...goshape.DecodeOpt) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			vals, err := decode(w, r, s, opts)
			if err != nil {
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithDecoded(r.Context(), vals)))
		})
	}
}

// WriteError writes err as a 400 JSON response.
func WriteError(w http.ResponseWriter, err error) {
	var body any = map[string]any{"error": err.Error()}
	if iss, ok := goshape.AsIssues(err); ok {
		body = ErrorPayload(iss)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(body)
}
