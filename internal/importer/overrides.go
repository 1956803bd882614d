package importer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cldf/zeromarking/internal/sources"
)

// KeyList unmarshals from either a semicolon-separated string or a YAML
// sequence of keys.
type KeyList []string

func (k *KeyList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*k = nil
			return nil
		}
		*k = sources.SplitOverrides(node.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		var keys []string
		for _, item := range items {
			keys = append(keys, sources.SplitOverrides(item)...)
		}
		*k = keys
		return nil
	default:
		return fmt.Errorf("line %d: cannot unmarshal %s into key list", node.Line, node.Tag)
	}
}

// ParseOverrides parses a YAML mapping from record ID to manually curated
// bibkeys:
//
//	galo1242: Post2007; Sun2003
//	tama1331:
//	  - Edgar1991
//	  - Anonby2007[12-14]
func ParseOverrides(data []byte) (map[string][]string, error) {
	var raw map[string]KeyList
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing overrides: %w", err)
	}

	out := make(map[string][]string, len(raw))
	for id, keys := range raw {
		if len(keys) > 0 {
			out[id] = keys
		}
	}
	return out, nil
}

// ReadOverrides reads an overrides file. An empty path yields no overrides.
func ReadOverrides(path string) (map[string][]string, error) {
	if path == "" {
		return map[string][]string{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading overrides: %w", err)
	}
	return ParseOverrides(data)
}
