package catalog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/truwl/capanno-utils/internal/domain"
	"github.com/truwl/capanno-utils/internal/infra/telemetry"
)

// Writer serializes metadata records to their documents.
type Writer struct {
	logger *zap.Logger
}

func NewWriter(logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{logger: logger.Named("writer")}
}

// Write stores record at path, creating parent directories. Every declared
// key is written in file order; empty and inherited fields get placeholders.
func (w *Writer) Write(ctx context.Context, path string, record any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(record)
	if err != nil {
		return domain.AtPath(path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metadata dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp metadata: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close metadata: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod metadata: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace metadata: %w", err)
	}

	w.logger.Debug("metadata written",
		telemetry.EventField(telemetry.EventRecordWritten),
		telemetry.PathField(path),
	)
	return nil
}

// Encode renders record as a metadata document.
func Encode(record any) ([]byte, error) {
	fields, inherited, err := recordLayout(record)
	if err != nil {
		return nil, err
	}

	var encoded yaml.Node
	if err := encoded.Encode(record); err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	values := make(map[string]*yaml.Node, len(encoded.Content)/2)
	for i := 0; i+1 < len(encoded.Content); i += 2 {
		values[encoded.Content[i].Value] = encoded.Content[i+1]
	}

	doc := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, field := range fields {
		value, ok := values[field]
		if !ok || inherited.Has(field) {
			value = placeholder(field)
		}
		doc.Content = append(doc.Content, scalar(field), value)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return buf.Bytes(), nil
}

func recordLayout(record any) ([]string, domain.FieldSet, error) {
	switch r := record.(type) {
	case *domain.ParentTool:
		return domain.ParentToolFields, nil, nil
	case *domain.Subtool:
		return domain.SubtoolFields, r.Inherited, nil
	case *domain.ToolInstance:
		return domain.ToolInstanceFields, nil, nil
	case *domain.Script:
		return domain.ScriptFields, r.Inherited, nil
	case *domain.CommonScript:
		return domain.CommonScriptFields, nil, nil
	case *domain.Workflow:
		return domain.WorkflowFields, nil, nil
	default:
		return nil, nil, fmt.Errorf("cannot write %T as metadata", record)
	}
}

// placeholder is the empty template written for a field without a value.
func placeholder(field string) *yaml.Node {
	switch field {
	case "codeRepository":
		return nullMapping("name")
	case "publication":
		return sequence(nullMapping("identifier"))
	case "contactPoint", "creator", "WebSite":
		return sequence(nullMapping("name"))
	case "keywords":
		return sequence(nullMapping("name", "category"))
	default:
		return null()
	}
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func null() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

func nullMapping(keys ...string) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range keys {
		node.Content = append(node.Content, scalar(key), null())
	}
	return node
}

func sequence(items ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: items}
}
