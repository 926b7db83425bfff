package schema

import (
	"bytes"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Decode parses a YAML graph document.
// The document is first read into generic maps so that property values keep their
// YAML scalar types, then decoded into the typed definitions.
func Decode(data []byte) (*Graph, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse graph yaml: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("empty graph document")
	}

	var g Graph
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "yaml",
		Result:      &g,
		ErrorUnused: true,
		// Allow "priority: '2'" and similar hand-written scalars.
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}
	return &g, nil
}

// Encode serializes a graph document as YAML.
func Encode(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(g); err != nil {
		return nil, fmt.Errorf("failed to encode graph: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode graph: %w", err)
	}
	return buf.Bytes(), nil
}
