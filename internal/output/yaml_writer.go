package output

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLWriter renders reports as a YAML document.
type YAMLWriter struct {
	writer io.Writer
}

func NewYAMLWriter(writer io.Writer) *YAMLWriter {
	return &YAMLWriter{writer: writer}
}

func (w *YAMLWriter) Write(reports []*Report) error {
	encoder := yaml.NewEncoder(w.writer)
	encoder.SetIndent(2)

	if err := encoder.Encode(document{Schemas: reports}); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
