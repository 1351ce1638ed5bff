package jsonutils

import (
	"encoding/json"
	"strings"
)

// ErrorMarker opens every error chunk. Readers match it as a substring since
// chunks may be split or concatenated in transit.
const ErrorMarker = `{"error"`

// ErrorChunk encodes msg as the in-band error chunk of the text stream.
func ErrorChunk(msg string) []byte {
	b, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return []byte(`{"error":"internal error"}`)
	}
	return b
}

// IsErrorChunk reports whether a chunk of the text stream carries an error object.
func IsErrorChunk(chunk string) bool {
	return strings.Contains(chunk, ErrorMarker)
}

// SplitErrorChunk returns the text before the first error object and the
// decoded error message, if any.
func SplitErrorChunk(chunk string) (before string, msg string, ok bool) {
	i := strings.Index(chunk, ErrorMarker)
	if i < 0 {
		return chunk, "", false
	}
	var payload struct {
		Error string `json:"error"`
	}
	dec := json.NewDecoder(strings.NewReader(chunk[i:]))
	if err := dec.Decode(&payload); err != nil {
		return chunk[:i], "", true
	}
	return chunk[:i], payload.Error, true
}
