package codec

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ToYAML renders a JSON document as block-style YAML, keeping key order.
func ToYAML(jsonText string) (string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(jsonText), &doc); err != nil {
		return "", &ParseError{Offset: 0, Err: err}
	}
	clearStyle(&doc)

	var out bytes.Buffer
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	return out.String(), nil
}

// clearStyle drops the flow and quoting styles JSON parses into, so the
// encoder picks block style and quotes only where a plain scalar would change type.
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		clearStyle(child)
	}
}
