package catalog

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// expandConfigEnv replaces ${VAR} and ${VAR:-fallback} references in the
// string scalars of a YAML config and reports the variables that were unset
// without a fallback.
func expandConfigEnv(raw []byte) (string, []string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return "", nil, fmt.Errorf("parse config: %w", err)
	}

	missing := map[string]struct{}{}
	walkScalars(&root, func(node *yaml.Node) {
		if node.Tag != "" && node.Tag != "!!str" {
			return
		}
		if !strings.Contains(node.Value, "$") {
			return
		}
		node.Value = os.Expand(node.Value, func(ref string) string {
			name, fallback, hasFallback := strings.Cut(ref, ":-")
			if value, ok := os.LookupEnv(name); ok && value != "" {
				return value
			}
			if hasFallback {
				return fallback
			}
			missing[name] = struct{}{}
			return ""
		})
	})

	expanded, err := yaml.Marshal(&root)
	if err != nil {
		return "", nil, fmt.Errorf("encode expanded config: %w", err)
	}
	names := make([]string, 0, len(missing))
	for name := range missing {
		names = append(names, name)
	}
	slices.Sort(names)
	return string(expanded), names, nil
}

func walkScalars(node *yaml.Node, visit func(*yaml.Node)) {
	switch node.Kind {
	case yaml.ScalarNode:
		visit(node)
	case yaml.MappingNode:
		for i := 1; i < len(node.Content); i += 2 {
			walkScalars(node.Content[i], visit)
		}
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, child := range node.Content {
			walkScalars(child, visit)
		}
	}
}
