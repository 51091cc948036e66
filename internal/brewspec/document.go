package brewspec

import (
	"encoding/json"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Date shapes shared by the validator and the record model. The full
// date-time shape is calendar-checked by the record model, not here; the
// schema layer is pattern-only for both shapes.
var (
	dateOnlyRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateTimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`)
)

// Format identifies a document's textual encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Decode parses raw document bytes into a generic nested map.
//
// YAML goes through yaml.v3's node API, which constructs only plain maps,
// lists, and scalars: custom tags that would instantiate arbitrary objects
// fail the parse instead of executing. Timestamp-resolved scalars keep
// their raw text, so an unquoted date stays the exact string the file
// held. JSON goes through encoding/json. Decode rejects documents whose
// top level is not a map.
func Decode(data []byte, format Format) (map[string]interface{}, error) {
	switch format {
	case FormatYAML:
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		value, err := nodeValue(&root)
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		doc, ok := value.(map[string]interface{})
		if !ok || doc == nil {
			return nil, fmt.Errorf("file content is not a valid BrewSpec document")
		}
		return doc, nil
	case FormatJSON:
		var doc map[string]interface{}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		if doc == nil {
			return nil, fmt.Errorf("file content is not a valid BrewSpec document")
		}
		return doc, nil
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
}

// nodeValue converts a parsed YAML node tree to the generic map shape.
//
// A !!timestamp scalar is returned as its raw text: the decoder's
// time.Time has no way back to the exact shape the file held (a midnight
// date-time and a bare date collapse to the same value), and downstream
// code wants the string either way.
func nodeValue(node *yaml.Node) (interface{}, error) {
	switch node.Kind {
	case 0:
		// An empty input leaves the root node unpopulated.
		return nil, nil
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return nodeValue(node.Content[0])
	case yaml.MappingNode:
		obj := make(map[string]interface{}, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key must be a scalar", key.Line)
			}
			value, err := nodeValue(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj[key.Value] = value
		}
		return obj, nil
	case yaml.SequenceNode:
		list := make([]interface{}, 0, len(node.Content))
		for _, entry := range node.Content {
			value, err := nodeValue(entry)
			if err != nil {
				return nil, err
			}
			list = append(list, value)
		}
		return list, nil
	case yaml.AliasNode:
		return nodeValue(node.Alias)
	case yaml.ScalarNode:
		if node.Tag == "!!timestamp" {
			return node.Value, nil
		}
		var value interface{}
		if err := node.Decode(&value); err != nil {
			return nil, err
		}
		return value, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node", node.Line)
	}
}

// Encode renders a document map in the requested format. YAML preserves the
// natural nesting with block style; JSON is indented for readability.
func Encode(doc map[string]interface{}, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		out, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return out, nil
	case FormatJSON:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
}
