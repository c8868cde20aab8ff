package manifest

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPath = "pubspec.yaml"
	DefaultKey  = "version"
)

var (
	// ErrNotMapping is returned when the top-level YAML node is not a mapping.
	ErrNotMapping = errors.New("manifest is not a key-value mapping")

	// ErrMissingKey is returned when the key is absent or bound to null.
	ErrMissingKey = errors.New("key not found")

	// ErrNotScalar is returned when the key is bound to a mapping or sequence.
	ErrNotScalar = errors.New("value is not a scalar")
)

// Manifest is a parsed YAML manifest. Only top-level scalar keys are read.
type Manifest struct {
	root *yaml.Node
}

// Read returns the raw manifest bytes. The file is closed before returning.
func Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Parse decodes a manifest document. Only the first YAML document is used.
func Parse(data []byte) (*Manifest, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: document is empty", ErrNotMapping)
	}

	root := resolve(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level is a %s", ErrNotMapping, kindName(root.Kind))
	}
	return &Manifest{root: root}, nil
}

// Scalar returns the literal source text of the scalar bound to key.
// Numbers and booleans keep the spelling they have in the file, so
// "version: 2.10" yields "2.10". Keys inherited through a merge key
// ("<<: *base") are found too; keys written directly take precedence.
func (m *Manifest) Scalar(key string) (string, error) {
	v, ok := lookup(m.root, key)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingKey, key)
	}
	if v.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("%w: %q is a %s", ErrNotScalar, key, kindName(v.Kind))
	}
	if v.ShortTag() == "!!null" {
		return "", fmt.Errorf("%w: %q is null", ErrMissingKey, key)
	}
	return v.Value, nil
}

// lookup finds key in mapping, then in the mappings merged into it. Among
// several merged mappings the first one listed wins.
func lookup(mapping *yaml.Node, key string) (*yaml.Node, bool) {
	var merges []*yaml.Node

	// Mapping content alternates key, value.
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		k := mapping.Content[i]
		if k.Kind != yaml.ScalarNode {
			continue
		}
		if isMergeKey(k) {
			merges = append(merges, resolve(mapping.Content[i+1]))
			continue
		}
		if k.Value == key {
			return resolve(mapping.Content[i+1]), true
		}
	}

	for _, src := range merges {
		switch src.Kind {
		case yaml.MappingNode:
			if v, ok := lookup(src, key); ok {
				return v, true
			}
		case yaml.SequenceNode:
			for _, item := range src.Content {
				if item = resolve(item); item.Kind == yaml.MappingNode {
					if v, ok := lookup(item, key); ok {
						return v, true
					}
				}
			}
		}
	}
	return nil, false
}

func isMergeKey(k *yaml.Node) bool {
	return k.Value == "<<" && k.ShortTag() == "!!merge"
}

// Keys lists the top-level keys in document order.
func (m *Manifest) Keys() []string {
	keys := make([]string, 0, len(m.root.Content)/2)
	for i := 0; i+1 < len(m.root.Content); i += 2 {
		keys = append(keys, m.root.Content[i].Value)
	}
	return keys
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown node"
	}
}
