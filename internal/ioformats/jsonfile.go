
package ioformats

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// SplitList splits a comma separated flag value, dropping blank entries.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// EncodeJSON writes v as two-space indented JSON followed by a newline.
// Non-ASCII and HTML characters are written verbatim.
func EncodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// MarshalJSON is EncodeJSON into a byte slice.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
