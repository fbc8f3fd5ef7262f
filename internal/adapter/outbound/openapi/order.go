package openapi

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// kin-openapi models components/schemas and object properties as Go maps,
// which lose document order. Generated output follows declaration order,
// so this sidecar re-reads the raw bytes (YAML or JSON; YAML is a superset)
// and records the ordered keys.
type docOrder struct {
	// schemas lists the top-level schema names in declaration order.
	schemas []string
	// props maps a schema key to its property names in declaration order.
	// Keys are the raw schema name, or "<name>/items" for the one level of
	// inline array-item objects the generator supports.
	props map[string][]string
}

func parseDocOrder(raw []byte) (*docOrder, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("failed to re-read document for declaration order: %w", err)
	}
	order := &docOrder{props: make(map[string][]string)}
	if len(root.Content) == 0 {
		return order, nil
	}
	schemas := mapValue(mapValue(root.Content[0], "components"), "schemas")
	if schemas == nil || schemas.Kind != yaml.MappingNode {
		return order, nil
	}
	for i := 0; i+1 < len(schemas.Content); i += 2 {
		name := schemas.Content[i].Value
		node := schemas.Content[i+1]
		order.schemas = append(order.schemas, name)
		order.recordProps(name, node)
		if items := mapValue(node, "items"); items != nil {
			order.recordProps(name+"/items", items)
		}
	}
	return order, nil
}

func (o *docOrder) recordProps(key string, schema *yaml.Node) {
	properties := mapValue(schema, "properties")
	if properties == nil || properties.Kind != yaml.MappingNode {
		return
	}
	names := make([]string, 0, len(properties.Content)/2)
	for i := 0; i+1 < len(properties.Content); i += 2 {
		names = append(names, properties.Content[i].Value)
	}
	o.props[key] = names
}

// propOrder returns the declared property order for a schema key, or nil
// when the raw document carried none (the caller then falls back to the
// parsed model's map order).
func (o *docOrder) propOrder(key string) []string { return o.props[key] }

// mapValue returns the value node for a key of a YAML mapping, or nil.
// It resolves the document node wrapper transparently.
func mapValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
