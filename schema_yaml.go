package prunejson

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseSchemaYAML reads a schema declaration. Mappings become objects (key
// order is kept), a one-element sequence becomes a list of that element, and
// the scalar "string" marks a leaf. JSON documents are accepted as well.
//
//	id: string
//	tags: [string]
//	owner:
//	  name: string
func ParseSchemaYAML(data []byte) (Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &SchemaDefinitionError{Reason: "yaml: " + err.Error()}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &SchemaDefinitionError{Reason: "empty schema document"}
	}
	return fromYAML(doc.Content[0], "")
}

func fromYAML(n *yaml.Node, path string) (Node, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	switch n.Kind {
	case yaml.MappingNode:
		fields := make([]Field, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, yamlErr(k, path, "field name must be a scalar")
			}
			child, err := fromYAML(v, joinPath(path, k.Value))
			if err != nil {
				return nil, err
			}
			fields = append(fields, Field{Name: k.Value, Node: child})
		}
		o, err := NewObject(fields...)
		if err != nil {
			if sde, ok := err.(*SchemaDefinitionError); ok {
				sde.Path = joinPath(path, sde.Path)
				sde.Reason = fmt.Sprintf("%s (line %d)", sde.Reason, n.Line)
			}
			return nil, err
		}
		return o, nil
	case yaml.SequenceNode:
		if len(n.Content) != 1 {
			return nil, yamlErr(n, path, fmt.Sprintf("list must declare exactly one element type, got %d", len(n.Content)))
		}
		elem, err := fromYAML(n.Content[0], path+"[]")
		if err != nil {
			return nil, err
		}
		return NewList(elem)
	case yaml.ScalarNode:
		switch strings.ToLower(n.Value) {
		case "string", "str", "utf8":
			return String(), nil
		}
		return nil, yamlErr(n, path, fmt.Sprintf("unsupported leaf type %q", n.Value))
	}
	return nil, yamlErr(n, path, "unsupported yaml node")
}

func yamlErr(n *yaml.Node, path, reason string) error {
	return &SchemaDefinitionError{Path: path, Reason: fmt.Sprintf("%s (line %d, column %d)", reason, n.Line, n.Column)}
}
