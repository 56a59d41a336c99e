package ir

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON for hashing.
// CRITICAL: This is the ONLY serialization that should be used for
// digest computation.
//
// The value is encoded with encoding/json (HTML escaping disabled) and
// then transformed by jcs, which sorts keys by UTF-16 code units and
// formats numbers per ECMAScript. Non-finite floats are rejected by the
// encoder.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // CRITICAL: <, >, & must NOT be escaped
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("canonical json: %w", err)
	}
	out, err := jcs.Transform(bytes.TrimRight(buf.Bytes(), "\n"))
	if err != nil {
		return nil, fmt.Errorf("canonical json: %w", err)
	}
	return out, nil
}

// NormalizeName NFC-normalizes a user- or designer-supplied name.
// Names are normalized when they enter a package so equal-looking names
// compare and hash identically.
func NormalizeName(s string) string {
	return norm.NFC.String(s)
}
