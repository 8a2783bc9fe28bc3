// Package json provides a goshape.JSONDriver backed by encoding/json.
package json

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	goshape "github.com/reoring/goshape"
)

// Driver returns the encoding/json driver. Install it with goshape.SetJSONDriver.
func Driver() goshape.JSONDriver { return driver{} }

type driver struct{}

func (driver) NewReader(r io.Reader) goshape.Source { return NewReader(r) }
func (driver) NewBytes(b []byte) goshape.Source     { return NewBytes(b) }
func (driver) Name() string                         { return "encoding/json" }

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	expectingKey bool
}

type jsonSource struct {
	dec        *json.Decoder
	stack      []frame
	lastOffset int64
}

// NewReader wraps an io.Reader into a goshape.Source.
func NewReader(r io.Reader) goshape.Source {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &jsonSource{dec: dec, lastOffset: -1}
}

// NewBytes wraps a byte slice into a goshape.Source.
func NewBytes(b []byte) goshape.Source { return NewReader(bytes.NewReader(b)) }

func (s *jsonSource) NextToken() (goshape.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		return goshape.Token{}, err
	}
	s.lastOffset = s.dec.InputOffset()
	off := s.lastOffset

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			s.stack = append(s.stack, frame{kind: kindObject, expectingKey: true})
			return goshape.Token{Kind: goshape.TokenBeginObject, Offset: off}, nil
		case '[':
			s.stack = append(s.stack, frame{kind: kindArray})
			return goshape.Token{Kind: goshape.TokenBeginArray, Offset: off}, nil
		case '}':
			s.pop()
			return goshape.Token{Kind: goshape.TokenEndObject, Offset: off}, nil
		case ']':
			s.pop()
			return goshape.Token{Kind: goshape.TokenEndArray, Offset: off}, nil
		}
	case string:
		if n := len(s.stack); n > 0 {
			top := &s.stack[n-1]
			if top.kind == kindObject && top.expectingKey {
				top.expectingKey = false
				return goshape.Token{Kind: goshape.TokenKey, String: v, Offset: off}, nil
			}
		}
		s.valueDone()
		return goshape.Token{Kind: goshape.TokenString, String: v, Offset: off}, nil
	case bool:
		s.valueDone()
		return goshape.Token{Kind: goshape.TokenBool, Bool: v, Offset: off}, nil
	case json.Number:
		s.valueDone()
		return goshape.Token{Kind: goshape.TokenNumber, Number: string(v), Offset: off}, nil
	case float64:
		s.valueDone()
		return goshape.Token{Kind: goshape.TokenNumber, Number: strconv.FormatFloat(v, 'g', -1, 64), Offset: off}, nil
	}
	s.valueDone()
	return goshape.Token{Kind: goshape.TokenNull, Offset: off}, nil
}

func (s *jsonSource) pop() {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
	s.valueDone()
}

func (s *jsonSource) valueDone() {
	if n := len(s.stack); n > 0 {
		top := &s.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
		}
	}
}

func (s *jsonSource) Location() int64 { return s.lastOffset }
