package goshape_test

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	goshape "github.com/reoring/goshape"
)

// TestErrorModel_SentinelsAndAsIssues checks that every failure category is
// reachable through both errors.Is and AsIssues.
func TestErrorModel_SentinelsAndAsIssues(t *testing.T) {
	r := goshape.NewRegistry()

	_, err := goshape.SchemaOf[int](r)
	if !errors.Is(err, goshape.ErrSchemaInit) {
		t.Fatalf("expected ErrSchemaInit, got: %v", err)
	}

	s, err := goshape.SchemaOf[Address](r)
	if err != nil {
		t.Fatal(err)
	}
	_, err = goshape.DecodeBytes(s, []byte(`{"city":`))
	var iss goshape.Issues
	if !errors.As(err, &iss) {
		t.Fatalf("expected errors.As to extract Issues, got: %v", err)
	}
	if !errors.Is(err, goshape.ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got: %v", err)
	}
	if errors.Is(err, goshape.ErrSynthesis) {
		t.Fatalf("malformed input must not match ErrSynthesis: %v", err)
	}

	err = s.Merge(goshape.Opaque{}, &Address{})
	if !errors.Is(err, goshape.ErrUnsupportedSource) {
		t.Fatalf("expected ErrUnsupportedSource, got: %v", err)
	}
	if _, ok := goshape.AsIssues(err); !ok {
		t.Fatalf("expected Issues, got: %T", err)
	}

	if _, ok := goshape.AsIssues(nil); ok {
		t.Fatalf("nil error must not yield Issues")
	}
	if _, ok := goshape.AsIssues(io.EOF); ok {
		t.Fatalf("foreign error must not yield Issues")
	}
}

func TestErrorModel_WrappedIssues(t *testing.T) {
	s := addressSchema(t)
	_, err := goshape.DecodeBytes(s, nil)
	wrapped := fmt.Errorf("load: %w", err)
	if !errors.Is(wrapped, goshape.ErrMalformedInput) {
		t.Fatalf("expected wrapped ErrMalformedInput, got: %v", wrapped)
	}
	iss, ok := goshape.AsIssues(wrapped)
	if !ok || iss[0].Path != "/" {
		t.Fatalf("expected root issue, got: %v", iss)
	}
}

func TestErrorModel_Summary(t *testing.T) {
	var iss goshape.Issues
	if iss.Error() != "" {
		t.Fatalf("empty issues should have an empty message")
	}
	for i := 0; i < 5; i++ {
		iss = goshape.AppendIssues(iss, goshape.Issue{Path: fmt.Sprintf("/%d", i), Code: goshape.CodeInvalidType, Message: "bad"})
	}
	msg := iss.Error()
	if !strings.HasPrefix(msg, "invalid_type at /0: bad; invalid_type at /1: bad") {
		t.Fatalf("unexpected summary: %q", msg)
	}
	if !strings.HasSuffix(msg, "... (total 5)") {
		t.Fatalf("expected total suffix, got: %q", msg)
	}

	cause := errors.New("boom")
	it := goshape.Issue{Path: "/a", Code: goshape.CodeSynthesis, Message: "failed", Cause: cause}
	if got := it.String(); got != "synthesis at /a: failed: boom" {
		t.Fatalf("unexpected issue string: %q", got)
	}
	if !errors.Is(goshape.Issues{it}, cause) {
		t.Fatalf("expected cause to be reachable")
	}
}
