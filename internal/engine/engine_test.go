package engine

import (
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/goccy/go-json"
)

func collect(t *testing.T, src TokenSource) []Token {
	t.Helper()
	var out []Token
	for {
		tok, err := src.NextToken()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out = append(out, tok)
	}
}

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestTokenizer_KeysAndValues(t *testing.T) {
	toks := collect(t, NewBytes([]byte(`{"a":"x","b":[1,"y",{"c":null}],"d":true}`)))
	want := []Kind{
		KindBeginObject,
		KindKey, KindString,
		KindKey, KindBeginArray, KindNumber, KindString,
		KindBeginObject, KindKey, KindNull, KindEndObject,
		KindEndArray,
		KindKey, KindBool,
		KindEndObject,
	}
	if got := kinds(toks); !reflect.DeepEqual(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	if toks[1].String != "a" || toks[2].String != "x" {
		t.Fatalf("unexpected key/value: %+v %+v", toks[1], toks[2])
	}
	if toks[5].Number != "1" {
		t.Fatalf("number literal = %q", toks[5].Number)
	}
	if !toks[13].Bool {
		t.Fatalf("expected true")
	}
}

func TestTokenizer_NumberLiteralsPreserved(t *testing.T) {
	toks := collect(t, NewBytes([]byte(`[12345678901234567890, 1.50, -0]`)))
	got := []string{toks[1].Number, toks[2].Number, toks[3].Number}
	want := []string{"12345678901234567890", "1.50", "-0"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("numbers = %v, want %v", got, want)
	}
}

func TestTokenizer_StringValueAfterContainerMember(t *testing.T) {
	toks := collect(t, NewBytes([]byte(`{"a":{},"b":"v"}`)))
	if toks[4].Kind != KindKey || toks[4].String != "b" {
		t.Fatalf("expected key b, got %+v", toks[4])
	}
	if toks[5].Kind != KindString {
		t.Fatalf("expected string value, got %v", toks[5].Kind)
	}
}

func TestDecodeTree(t *testing.T) {
	src := NewBytes([]byte(`{"a":[1,{"b":"c"}],"d":null,"e":false}`))
	tok, err := src.NextToken()
	if err != nil {
		t.Fatal(err)
	}
	tree, err := DecodeTree(src, tok)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"a": []any{json.Number("1"), map[string]any{"b": "c"}},
		"d": nil,
		"e": false,
	}
	if !reflect.DeepEqual(tree, want) {
		t.Fatalf("tree = %#v", tree)
	}
	if _, err := src.NextToken(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after tree, got %v", err)
	}
}

func TestSkip(t *testing.T) {
	src := NewBytes([]byte(`[{"a":[1,2,{"b":{}}]},"next"]`))
	if _, err := src.NextToken(); err != nil {
		t.Fatal(err)
	}
	tok, err := src.NextToken()
	if err != nil {
		t.Fatal(err)
	}
	if err := Skip(src, tok); err != nil {
		t.Fatal(err)
	}
	tok, err = src.NextToken()
	if err != nil || tok.Kind != KindString || tok.String != "next" {
		t.Fatalf("expected next string, got %+v (%v)", tok, err)
	}

	// Scalars are consumed as-is.
	if err := Skip(src, tok); err != nil {
		t.Fatal(err)
	}

	trunc := NewBytes([]byte(`[{"a":[1`))
	trunc.NextToken()
	tok, _ = trunc.NextToken()
	if err := Skip(trunc, tok); err == nil {
		t.Fatalf("expected error for truncated input")
	}
}

func TestEnforce_DisabledReturnsInner(t *testing.T) {
	inner := NewBytes([]byte(`{}`))
	if got := WrapWithEnforcement(inner, EnforceOptions{}); got != inner {
		t.Fatalf("expected inner source when enforcement is disabled")
	}
}

func TestEnforce_DuplicateKeys(t *testing.T) {
	in := []byte(`{"a":1,"b":{"x":1,"x":2},"a":3}`)

	var sunk []SimpleIssue
	src := WrapWithEnforcement(NewBytes(in), EnforceOptions{
		OnDuplicate: DupWarn,
		IssueSink:   func(si SimpleIssue) { sunk = append(sunk, si) },
	})
	collect(t, src)
	if len(sunk) != 2 {
		t.Fatalf("expected 2 duplicate warnings, got %v", sunk)
	}
	if sunk[0].Path != "/b/x" || sunk[1].Path != "/a" {
		t.Fatalf("unexpected paths: %q %q", sunk[0].Path, sunk[1].Path)
	}

	src = WrapWithEnforcement(NewBytes(in), EnforceOptions{OnDuplicate: DupError})
	var err error
	for err == nil {
		_, err = src.NextToken()
	}
	var ie IssueError
	if !errors.As(err, &ie) || ie.Code != CodeDuplicateKey || ie.Path != "/b/x" {
		t.Fatalf("expected duplicate_key at /b/x, got %v", err)
	}
}

func TestEnforce_MaxDepth(t *testing.T) {
	src := WrapWithEnforcement(NewBytes([]byte(`[[1],[[2]]]`)), EnforceOptions{MaxDepth: 2})
	var err error
	for err == nil {
		_, err = src.NextToken()
	}
	var ie IssueError
	if !errors.As(err, &ie) || ie.Code != CodeMaxDepth || ie.Path != "/1/0" {
		t.Fatalf("expected max_depth at /1/0, got %v", err)
	}
}

func TestJoinPointer(t *testing.T) {
	cases := []struct{ base, tok, want string }{
		{"", "a", "/a"},
		{"/a", "b/c", "/a/b~1c"},
		{"", "m~n", "/m~0n"},
		{"/0", "", "/0/"},
	}
	for _, c := range cases {
		if got := JoinPointer(c.base, c.tok); got != c.want {
			t.Fatalf("JoinPointer(%q, %q) = %q, want %q", c.base, c.tok, got, c.want)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindKey.String() != "key" || KindBeginObject.String() != "'{'" || Kind(99).String() != "unknown" {
		t.Fatalf("unexpected kind names")
	}
}
