// Package yamlshape normalizes loosely-typed YAML nodes (ordered key/value lists,
// scalar-or-sequence values) into plain Go values.
package yamlshape

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Pair is a single key/value entry taken from a YAML mapping, in document order.
type Pair struct {
	Key   string
	Value *yaml.Node
}

// Pairs flattens a node into ordered key/value pairs.
// It accepts a mapping ({A: 1, B: 2}) or a sequence of mappings ([{A: 1}, {B: 2}]).
// A missing or null node yields no pairs.
func Pairs(node *yaml.Node) ([]Pair, error) {
	node = resolve(node)
	if IsNull(node) {
		return nil, nil
	}
	switch node.Kind {
	case yaml.MappingNode:
		return mappingPairs(node)
	case yaml.SequenceNode:
		var out []Pair
		for i, item := range node.Content {
			item = resolve(item)
			if IsNull(item) {
				continue
			}
			if item.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("item %d: expected a mapping, got %s", i, kindName(item))
			}
			pairs, err := mappingPairs(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out = append(out, pairs...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a mapping or a list of mappings, got %s", kindName(node))
	}
}

func mappingPairs(node *yaml.Node) ([]Pair, error) {
	out := make([]Pair, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := resolve(node.Content[i])
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping key must be a scalar", key.Line)
		}
		out = append(out, Pair{Key: key.Value, Value: resolve(node.Content[i+1])})
	}
	return out, nil
}

// Scalar returns the textual value of a scalar node. Null yields "".
func Scalar(node *yaml.Node) (string, error) {
	node = resolve(node)
	if IsNull(node) {
		return "", nil
	}
	if node.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d: expected a scalar, got %s", node.Line, kindName(node))
	}
	return node.Value, nil
}

// Strings decodes a scalar or a sequence of scalars.
// Missing and null nodes yield an empty, non-nil slice.
func Strings(node *yaml.Node) ([]string, error) {
	node = resolve(node)
	if IsNull(node) {
		return []string{}, nil
	}
	switch node.Kind {
	case yaml.ScalarNode:
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			value, err := Scalar(item)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("line %d: expected a string or a list of strings, got %s", node.Line, kindName(node))
	}
}

// IsNull reports whether the node is absent, empty or an explicit YAML null.
func IsNull(node *yaml.Node) bool {
	if node == nil || node.Kind == 0 {
		return true
	}
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node != nil && node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		return resolve(node.Content[0])
	}
	return node
}

func kindName(node *yaml.Node) string {
	switch node.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	default:
		return "unknown node"
	}
}
