// Package gojson provides a token source backed by goccy/go-json. It trades
// the stdlib decoder for a faster tokenizer with the same streaming contract.
package gojson

import (
	"bytes"
	"io"
	"strconv"

	j "github.com/goccy/go-json"

	jetschema "github.com/okral/jetschema"
	eng "github.com/okral/jetschema/internal/engine"
)

// Driver returns a jetschema.JSONDriver backed by goccy/go-json. Install it
// with jetschema.SetJSONDriver(gojson.Driver()).
func Driver() jetschema.JSONDriver { return driverGoJSON{} }

type driverGoJSON struct{}

func (driverGoJSON) NewReader(r io.Reader) jetschema.Source {
	return jetschema.SourceFromEngine(NewReader(r))
}
func (driverGoJSON) NewBytes(b []byte) jetschema.Source {
	return jetschema.SourceFromEngine(NewBytes(b))
}
func (driverGoJSON) Name() string { return "go-json" }

// ---- engine.TokenSource implementation using go-json Decoder ----

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	expectingKey bool
}

type source struct {
	dec   *j.Decoder
	stack []frame
}

// NewReader wraps an io.Reader into an engine.TokenSource using go-json.
func NewReader(r io.Reader) eng.TokenSource {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	return &source{dec: dec}
}

// NewBytes wraps a byte slice into an engine.TokenSource using go-json.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

func (s *source) NextToken() (eng.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		return eng.Token{}, err
	}
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			s.stack = append(s.stack, frame{kind: kindObject, expectingKey: true})
			return eng.Token{Kind: eng.KindBeginObject, Offset: -1}, nil
		case '[':
			s.stack = append(s.stack, frame{kind: kindArray})
			return eng.Token{Kind: eng.KindBeginArray, Offset: -1}, nil
		case '}':
			s.pop()
			return s.valueDone(eng.Token{Kind: eng.KindEndObject, Offset: -1}), nil
		case ']':
			s.pop()
			return s.valueDone(eng.Token{Kind: eng.KindEndArray, Offset: -1}), nil
		}
	case string:
		if n := len(s.stack); n > 0 {
			top := &s.stack[n-1]
			if top.kind == kindObject && top.expectingKey {
				top.expectingKey = false
				return eng.Token{Kind: eng.KindKey, String: v, Offset: -1}, nil
			}
		}
		return s.valueDone(eng.Token{Kind: eng.KindString, String: v, Offset: -1}), nil
	case j.Number:
		return s.valueDone(eng.Token{Kind: eng.KindNumber, Number: string(v), Offset: -1}), nil
	case float64:
		return s.valueDone(eng.Token{Kind: eng.KindNumber, Number: strconv.FormatFloat(v, 'g', -1, 64), Offset: -1}), nil
	case bool:
		return s.valueDone(eng.Token{Kind: eng.KindBool, Bool: v, Offset: -1}), nil
	case nil:
		return s.valueDone(eng.Token{Kind: eng.KindNull, Offset: -1}), nil
	}
	return s.valueDone(eng.Token{Kind: eng.KindNull, Offset: -1}), nil
}

func (s *source) pop() {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
}

func (s *source) valueDone(t eng.Token) eng.Token {
	if n := len(s.stack); n > 0 {
		top := &s.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
		}
	}
	return t
}

func (s *source) Location() int64 { return -1 }
