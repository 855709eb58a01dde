package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/truwl/capanno-utils/internal/domain"
	"github.com/truwl/capanno-utils/internal/infra/contentmap"
)

// MapFormat selects the encoding of an exported content map.
type MapFormat string

const (
	MapFormatJSON MapFormat = "json"
	MapFormatYAML MapFormat = "yaml"
	MapFormatTOML MapFormat = "toml"
)

func ParseMapFormat(raw string) (MapFormat, error) {
	switch format := MapFormat(strings.ToLower(strings.TrimSpace(raw))); format {
	case "", MapFormatYAML:
		return MapFormatYAML, nil
	case MapFormatJSON, MapFormatTOML:
		return format, nil
	default:
		return "", domain.E(domain.CodeInvalidArgument, "map", fmt.Sprintf("unknown format %q, expected json, yaml or toml", raw), nil)
	}
}

// BuildMap builds the content map of one top-level scope.
func (a *Application) BuildMap(ctx context.Context, scope string, checkExists bool) (*domain.ContentMap, error) {
	switch scope {
	case contentmap.ScopeTools:
		return a.builder.Tools(ctx, checkExists)
	case contentmap.ScopeScripts:
		return a.builder.Scripts(ctx, checkExists)
	case contentmap.ScopeWorkflows:
		return a.builder.Workflows(ctx)
	case contentmap.ScopeAll, "":
		return a.builder.All(ctx, checkExists)
	default:
		return nil, domain.E(domain.CodeInvalidArgument, "map", fmt.Sprintf("unknown scope %q, expected tools, scripts, workflows or all", scope), nil)
	}
}

// ExportMap writes m keyed by identifier in the given format.
func ExportMap(w io.Writer, m *domain.ContentMap, format MapFormat) error {
	entries := make(map[string]map[string]any, m.Len())
	for id, entry := range m.Entries() {
		entries[id] = entry.Fields()
	}

	switch format {
	case MapFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("encode content map: %w", err)
		}
	case MapFormatTOML:
		if err := toml.NewEncoder(w).Encode(entries); err != nil {
			return fmt.Errorf("encode content map: %w", err)
		}
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("encode content map: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode content map: %w", err)
		}
	}
	return nil
}
