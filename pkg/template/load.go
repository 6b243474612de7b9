// pkg/template/load.go
package template

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and decodes a template.yaml file. The result is not validated.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes template YAML. Unknown keys are rejected so that typos in
// field names surface instead of silently dropping configuration.
func Parse(data []byte, filename string) (*Template, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var t Template
	if err := dec.Decode(&t); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ValidationError{File: filename, Problems: []string{"empty template"}}
		}
		return nil, &ValidationError{File: filename, Problems: []string{err.Error()}}
	}
	t.File = filename
	return &t, nil
}

// Marshal encodes the template back to YAML
func (t *Template) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return nil, fmt.Errorf("encoding template: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding template: %w", err)
	}
	return buf.Bytes(), nil
}
