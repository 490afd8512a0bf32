package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/glaze/internal/content"
)

// TypeConfig declares a content type. Name comes from the mapping key.
type TypeConfig struct {
	Name          string         `yaml:"-"`
	Paths         []string       `yaml:"paths,omitempty"`
	CreatePattern string         `yaml:"create_pattern,omitempty"`
	Meta          map[string]any `yaml:"meta,omitempty"`
}

// TypeRules keeps content types in the order they are declared, which is the
// order they are tried when a page has no explicit type.
type TypeRules []TypeConfig

// UnmarshalYAML decodes a mapping of type name to TypeConfig.
func (r *TypeRules) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: content.types must be a mapping of type name to definition", node.Line)
	}
	rules := make(TypeRules, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return err
		}
		var tc TypeConfig
		if err := node.Content[i+1].Decode(&tc); err != nil {
			return fmt.Errorf("content type %q: %w", name, err)
		}
		tc.Name = name
		rules = append(rules, tc)
	}
	*r = rules
	return nil
}

// Lookup returns the type with the given name.
func (r TypeRules) Lookup(name string) (TypeConfig, bool) {
	for _, tc := range r {
		if tc.Name == name {
			return tc, true
		}
	}
	return TypeConfig{}, false
}

// TypeRules converts the declared content types into discovery rules.
func (c *Config) TypeRules() []content.TypeRule {
	rules := make([]content.TypeRule, 0, len(c.Content.Types))
	for _, tc := range c.Content.Types {
		rules = append(rules, content.NewTypeRule(tc.Name, tc.Paths, tc.Meta, tc.CreatePattern))
	}
	return rules
}

// DiscoveryOptions returns the options content discovery runs with.
func (c *Config) DiscoveryOptions() content.Options {
	return content.Options{
		TaxonomyKeys: c.Content.Taxonomies,
		Types:        c.TypeRules(),
		Extensions:   c.Content.Extensions,
	}
}

// MarshalYAML writes the types back as a mapping in declaration order.
func (r TypeRules) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, tc := range r {
		var value yaml.Node
		if err := value.Encode(tc); err != nil {
			return nil, fmt.Errorf("content type %q: %w", tc.Name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: tc.Name},
			&value,
		)
	}
	return node, nil
}
