package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

const fence = "```"

// Normalized is either a parsed document or a *ParseError, never both.
type Normalized struct {
	Doc any
	Err *ParseError
}

func (n Normalized) OK() bool { return n.Err == nil }

// Object returns the document as a JSON object, if it is one.
func (n Normalized) Object() (map[string]any, bool) {
	if !n.OK() {
		return nil, false
	}
	obj, ok := n.Doc.(map[string]any)
	return obj, ok
}

// StripFence removes a markdown code fence when it wraps the whole text.
// An optional language tag on the opening line ("```json") goes with it.
// Text that is not fully bracketed is returned unchanged.
func StripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) < 2*len(fence) || !strings.HasPrefix(s, fence) || !strings.HasSuffix(s, fence) {
		return raw
	}
	body := s[len(fence) : len(s)-len(fence)]

	if nl := strings.IndexByte(body, '\n'); nl >= 0 && isLangTag(strings.TrimSpace(body[:nl])) {
		body = body[nl+1:]
	} else if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		// "```json{...}```" on one line
		body = body[4:]
	}
	return strings.TrimSpace(body)
}

func isLangTag(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isTagByte(s[i]) {
			return false
		}
	}
	return true
}

func isTagByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_' || c == '+'
}

var errEmptyResponse = errors.New("empty response")

// Normalize strips a wrapping fence and decodes the rest as one JSON document.
// Numbers decode as json.Number so re-serialized payloads keep their digits.
func Normalize(raw string) Normalized {
	clean := StripFence(raw)
	if strings.TrimSpace(clean) == "" {
		return Normalized{Err: &ParseError{Raw: raw, Err: errEmptyResponse}}
	}

	dec := json.NewDecoder(strings.NewReader(clean))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Normalized{Err: &ParseError{Raw: raw, Err: err}}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Normalized{Err: &ParseError{Raw: raw, Err: errors.New("trailing data after JSON document")}}
	}
	return Normalized{Doc: doc}
}

// marshalPayload renders a decoded payload the way it is stored in a summary body.
func marshalPayload(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
