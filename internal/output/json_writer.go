package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONWriter renders reports as an indented JSON document.
type JSONWriter struct {
	writer io.Writer
}

// NewJSONWriter creates a new JSON writer that outputs to the given writer.
func NewJSONWriter(writer io.Writer) *JSONWriter {
	return &JSONWriter{writer: writer}
}

// Write encodes every report under a top-level "schemas" list.
func (w *JSONWriter) Write(reports []*Report) error {
	encoder := json.NewEncoder(w.writer)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(document{Schemas: reports}); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
