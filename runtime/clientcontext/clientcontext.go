// Package clientcontext encodes and merges the AWS Lambda client-context
// header. The header carries a base64-encoded JSON object whose "custom"
// member holds application-defined string entries visible to the invoked
// function. Lambda rejects headers longer than MaxLength characters, so Merge
// refuses to produce one.
package clientcontext

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	// MaxLength is the maximum length, in encoded characters, of a client
	// context accepted by the Lambda Invoke API.
	MaxLength = 3583

	// CustomKey is the top-level payload member reserved for
	// application-defined entries.
	CustomKey = "custom"
)

var (
	// ErrNoFields indicates there is nothing to merge.
	ErrNoFields = errors.New("clientcontext: no fields to merge")
	// ErrMalformed indicates the existing client context is not base64 JSON
	// object text.
	ErrMalformed = errors.New("clientcontext: malformed client context")
	// ErrTooLarge indicates the merged client context would reach MaxLength.
	ErrTooLarge = errors.New("clientcontext: merged client context too large")
)

// Payload is a decoded client context.
type Payload map[string]any

// Decode decodes an encoded client context. The empty string decodes to an
// empty payload. Numbers are kept as json.Number so re-encoding preserves
// their original text.
func Decode(encoded string) (Payload, error) {
	if encoded == "" {
		return Payload{}, nil
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: payload is null", ErrMalformed)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after payload", ErrMalformed)
	}
	return p, nil
}

// Encode returns the compact JSON encoding of p in standard base64. String
// values are written without HTML escaping so preserved values keep their
// bytes and size.
func Encode(p Payload) (string, error) {
	if p == nil {
		p = Payload{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any(p)); err != nil {
		return "", fmt.Errorf("clientcontext: encode payload: %w", err)
	}
	raw := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Custom returns the custom object of p, creating it when absent. A custom
// member that is not a JSON object is replaced.
func (p Payload) Custom() map[string]any {
	if c, ok := p[CustomKey].(map[string]any); ok {
		return c
	}
	c := make(map[string]any)
	p[CustomKey] = c
	return c
}

// Merge adds fields to the custom object of the encoded client context and
// returns the new encoding. Existing keys are preserved except custom
// entries named in fields, which are overwritten. Merge fails with
// ErrNoFields, ErrMalformed or ErrTooLarge; encoded is never modified.
func Merge(encoded string, fields map[string]string) (string, error) {
	if len(fields) == 0 {
		return "", ErrNoFields
	}
	p, err := Decode(encoded)
	if err != nil {
		return "", err
	}
	custom := p.Custom()
	for k, v := range fields {
		custom[k] = v
	}
	out, err := Encode(p)
	if err != nil {
		return "", err
	}
	if len(out) >= MaxLength {
		return "", fmt.Errorf("%w: %d >= %d", ErrTooLarge, len(out), MaxLength)
	}
	return out, nil
}

// Fields returns the string entries of the custom object of the encoded
// client context. Entries holding other JSON types are skipped.
func Fields(encoded string) (map[string]string, error) {
	p, err := Decode(encoded)
	if err != nil {
		return nil, err
	}
	c, ok := p[CustomKey].(map[string]any)
	if !ok {
		return map[string]string{}, nil
	}
	fields := make(map[string]string, len(c))
	for k, v := range c {
		if s, ok := v.(string); ok {
			fields[k] = s
		}
	}
	return fields, nil
}

// EncodedLen returns the base64 length of n bytes of JSON text.
func EncodedLen(n int) int {
	return base64.StdEncoding.EncodedLen(n)
}
