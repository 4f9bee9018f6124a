package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

type bytesWriter interface {
	WriteBytes(path string, data []byte) error
}

// Generator writes the run summary as YAML.
type Generator struct {
	writer bytesWriter
}

// NewGenerator creates a new summary generator writing through writer.
func NewGenerator(writer bytesWriter) *Generator {
	return &Generator{writer: writer}
}

// Generate writes summary to path as YAML.
func (g *Generator) Generate(path string, summary Summary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("could not marshal summary: %w", err)
	}

	if err := g.writer.WriteBytes(path, data); err != nil {
		return fmt.Errorf("could not write summary file: %w", err)
	}

	return nil
}

// CompactABI strips whitespace from a JSON ABI. Input that is not valid JSON
// is returned unchanged.
func CompactABI(raw string) SingleQuotedString {
	if raw == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return SingleQuotedString(raw)
	}
	return SingleQuotedString(buf.String())
}
