package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/truwl/capanno-utils/internal/domain"
	"github.com/truwl/capanno-utils/internal/infra/catalog/normalizer"
	"github.com/truwl/capanno-utils/internal/infra/catalog/validator"
	"github.com/truwl/capanno-utils/internal/infra/inheritance"
	"github.com/truwl/capanno-utils/internal/infra/telemetry"
)

// IdentifierVerifier checks that an identifier has been allocated.
type IdentifierVerifier interface {
	Verify(ctx context.Context, id string) error
}

// LoadOptions tunes a single load.
type LoadOptions struct {
	// VerifyIndex requires the record's identifier to be in the index.
	VerifyIndex bool
	// SkipParent leaves parent references unresolved and skips inheritance.
	SkipParent bool
}

type Loader struct {
	verifier IdentifierVerifier
	metrics  domain.Metrics
	logger   *zap.Logger
	parents  *cache.Cache
}

func NewLoader(verifier IdentifierVerifier, metrics domain.Metrics, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &Loader{verifier: verifier, metrics: metrics, logger: logger.Named("catalog")}
}

// WithCache returns a loader that shares parent and common records through c.
func (l *Loader) WithCache(c *cache.Cache) *Loader {
	copied := *l
	copied.parents = c
	return &copied
}

func (l *Loader) LoadParentTool(ctx context.Context, path string, opts LoadOptions) (record *domain.ParentTool, err error) {
	defer l.observe(domain.RecordParentTool, path, &err)

	root, err := l.readDocument(ctx, path, domain.RecordParentTool)
	if err != nil {
		return nil, err
	}
	var raw domain.ParentTool
	if err := root.Decode(&raw); err != nil {
		return nil, decodeError(path, err)
	}
	normalizer.ParentTool(&raw)
	record, err = domain.NewParentTool(raw)
	if err != nil {
		return nil, domain.AtPath(path, err)
	}
	if err := l.verify(ctx, path, record.Identifier, opts); err != nil {
		return nil, err
	}
	return record, nil
}

func (l *Loader) LoadSubtool(ctx context.Context, path string, opts LoadOptions) (record *domain.Subtool, err error) {
	defer l.observe(domain.RecordSubtool, path, &err)

	root, err := l.readDocument(ctx, path, domain.RecordSubtool)
	if err != nil {
		return nil, err
	}
	var raw domain.Subtool
	if err := root.Decode(&raw); err != nil {
		return nil, decodeError(path, err)
	}
	normalizer.Subtool(&raw)
	record, err = domain.NewSubtool(raw)
	if err != nil {
		return nil, domain.AtPath(path, err)
	}
	if !opts.SkipParent {
		parentPath := filepath.Join(filepath.Dir(path), record.ParentMetadata)
		parent, err := l.parentTool(ctx, parentPath, opts)
		if err != nil {
			return nil, fmt.Errorf("load parent of %s: %w", path, err)
		}
		if err := record.AttachParent(parent); err != nil {
			return nil, domain.AtPath(path, err)
		}
		if _, err := inheritance.ApplySubtool(record); err != nil {
			return nil, domain.AtPath(path, err)
		}
	}
	if err := l.verify(ctx, path, record.Identifier, opts); err != nil {
		return nil, err
	}
	return record, nil
}

func (l *Loader) LoadToolInstance(ctx context.Context, path string, opts LoadOptions) (record *domain.ToolInstance, err error) {
	defer l.observe(domain.RecordToolInstance, path, &err)

	root, err := l.readDocument(ctx, path, domain.RecordToolInstance)
	if err != nil {
		return nil, err
	}
	var raw domain.ToolInstance
	if err := root.Decode(&raw); err != nil {
		return nil, decodeError(path, err)
	}
	normalizer.ToolInstance(&raw)
	record, err = domain.NewToolInstance(raw)
	if err != nil {
		return nil, domain.AtPath(path, err)
	}
	if err := l.verify(ctx, path, record.ToolIdentifier, opts); err != nil {
		return nil, err
	}
	return record, nil
}

func (l *Loader) LoadScript(ctx context.Context, path string, opts LoadOptions) (record *domain.Script, err error) {
	defer l.observe(domain.RecordScript, path, &err)

	root, err := l.readDocument(ctx, path, domain.RecordScript)
	if err != nil {
		return nil, err
	}
	raw := domain.ScriptDefaults()
	if err := root.Decode(&raw); err != nil {
		return nil, decodeError(path, err)
	}
	normalizer.Script(&raw)
	record, err = domain.NewScriptDraft(raw)
	if err != nil {
		return nil, domain.AtPath(path, err)
	}
	if !opts.SkipParent {
		for i := range record.Common {
			commonPath := filepath.Join(filepath.Dir(path), record.Common[i].Path())
			common, err := l.commonScript(ctx, commonPath)
			if err != nil {
				return nil, fmt.Errorf("load common metadata of %s: %w", path, err)
			}
			if err := record.Common[i].Resolve(common); err != nil {
				return nil, domain.AtPath(path, err)
			}
		}
		if _, err := inheritance.ApplyScript(record); err != nil {
			return nil, domain.AtPath(path, err)
		}
	}
	if err := record.Validate(); err != nil {
		return nil, domain.AtPath(path, err)
	}
	if err := l.verify(ctx, path, record.Identifier, opts); err != nil {
		return nil, err
	}
	return record, nil
}

func (l *Loader) LoadCommonScript(ctx context.Context, path string, _ LoadOptions) (record *domain.CommonScript, err error) {
	defer l.observe(domain.RecordCommonScript, path, &err)

	root, err := l.readDocument(ctx, path, domain.RecordCommonScript)
	if err != nil {
		return nil, err
	}
	var raw domain.CommonScript
	if err := root.Decode(&raw); err != nil {
		return nil, decodeError(path, err)
	}
	normalizer.CommonScript(&raw)
	record, err = domain.NewCommonScript(raw)
	if err != nil {
		return nil, domain.AtPath(path, err)
	}
	return record, nil
}

func (l *Loader) LoadWorkflow(ctx context.Context, path string, opts LoadOptions) (record *domain.Workflow, err error) {
	defer l.observe(domain.RecordWorkflow, path, &err)

	root, err := l.readDocument(ctx, path, domain.RecordWorkflow)
	if err != nil {
		return nil, err
	}
	var raw domain.Workflow
	if err := root.Decode(&raw); err != nil {
		return nil, decodeError(path, err)
	}
	normalizer.Workflow(&raw)
	record, err = domain.NewWorkflow(raw)
	if err != nil {
		return nil, domain.AtPath(path, err)
	}
	if err := l.verify(ctx, path, record.Identifier, opts); err != nil {
		return nil, err
	}
	return record, nil
}

// Load reads the record at path, choosing its kind from where it sits in
// the repository.
func (l *Loader) Load(ctx context.Context, layout Layout, path string, opts LoadOptions) (any, error) {
	kind, err := DetectKind(layout.Rel(path))
	if err != nil {
		return nil, err
	}
	switch kind {
	case domain.RecordParentTool:
		return l.LoadParentTool(ctx, path, opts)
	case domain.RecordSubtool:
		return l.LoadSubtool(ctx, path, opts)
	case domain.RecordToolInstance:
		return l.LoadToolInstance(ctx, path, opts)
	case domain.RecordScript:
		return l.LoadScript(ctx, path, opts)
	case domain.RecordCommonScript:
		return l.LoadCommonScript(ctx, path, opts)
	case domain.RecordWorkflow:
		return l.LoadWorkflow(ctx, path, opts)
	default:
		return nil, fmt.Errorf("unsupported record kind %q", kind)
	}
}

// DetectKind classifies a metadata document by its repository-relative path.
func DetectKind(rel string) (domain.RecordKind, error) {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	file := parts[len(parts)-1]
	unsupported := &domain.ConstraintViolationError{Path: rel, Field: "path", Message: "not a metadata document location"}
	if !strings.HasSuffix(file, domain.MetadataSuffix) {
		return "", unsupported
	}
	switch parts[0] {
	case domain.ToolsDir:
		switch {
		case len(parts) == 5 && parts[3] == domain.CommonDir && file == domain.CommonMetadataFile:
			return domain.RecordParentTool, nil
		case len(parts) == 5:
			return domain.RecordSubtool, nil
		case len(parts) == 6 && parts[4] == domain.InstancesDir:
			return domain.RecordToolInstance, nil
		}
	case domain.ScriptsDir:
		switch {
		case len(parts) == 6 && parts[4] == domain.CommonDir:
			return domain.RecordCommonScript, nil
		case len(parts) == 6:
			return domain.RecordScript, nil
		}
	case domain.WorkflowsDir:
		if len(parts) == 5 {
			return domain.RecordWorkflow, nil
		}
	}
	return "", unsupported
}

func (l *Loader) parentTool(ctx context.Context, path string, opts LoadOptions) (*domain.ParentTool, error) {
	key := "parent:" + filepath.Clean(path)
	if l.parents != nil {
		if cached, ok := l.parents.Get(key); ok {
			return cached.(*domain.ParentTool), nil
		}
	}
	parent, err := l.LoadParentTool(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	if l.parents != nil {
		l.parents.SetDefault(key, parent)
	}
	return parent, nil
}

func (l *Loader) commonScript(ctx context.Context, path string) (*domain.CommonScript, error) {
	key := "common:" + filepath.Clean(path)
	if l.parents != nil {
		if cached, ok := l.parents.Get(key); ok {
			return cached.(*domain.CommonScript), nil
		}
	}
	common, err := l.LoadCommonScript(ctx, path, LoadOptions{})
	if err != nil {
		return nil, err
	}
	if l.parents != nil {
		l.parents.SetDefault(key, common)
	}
	return common, nil
}

// readDocument parses path, rejects undeclared top-level keys, and checks
// the document against the record schema.
func (l *Loader) readDocument(ctx context.Context, path string, kind domain.RecordKind) (*yaml.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.E(domain.CodeNotFound, "read metadata", fmt.Sprintf("%s does not exist", path), err)
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &domain.ConstraintViolationError{Path: path, Field: "document", Message: fmt.Sprintf("parse yaml: %v", err)}
	}
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root = doc.Content[0]
	}
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		root = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	if root.Kind != yaml.MappingNode {
		return nil, &domain.ConstraintViolationError{Path: path, Field: "document", Message: "top level must be a mapping"}
	}

	keys := make([]string, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keys = append(keys, root.Content[i].Value)
	}
	unknown, err := validator.UnknownKeys(kind, keys)
	if err != nil {
		return nil, err
	}
	if len(unknown) > 0 {
		errs := make(domain.ValidationErrors, 0, len(unknown))
		for _, key := range unknown {
			errs = append(errs, &domain.UnknownFieldError{Path: path, Field: key})
		}
		if len(errs) == 1 {
			return nil, errs[0]
		}
		return nil, errs
	}

	document, err := jsonDocument(root)
	if err != nil {
		return nil, &domain.ConstraintViolationError{Path: path, Field: "document", Message: err.Error()}
	}
	if errs := validator.ValidateRecordSchema(kind, document); len(errs) > 0 {
		return nil, &domain.ConstraintViolationError{Path: path, Field: "document", Message: strings.Join(errs, "; ")}
	}
	return root, nil
}

// jsonDocument converts a YAML mapping to the value shapes JSON Schema
// validation expects.
func jsonDocument(root *yaml.Node) (any, error) {
	var raw map[string]any
	if err := root.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("convert to json: %w", err)
	}
	var document any
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("convert to json: %w", err)
	}
	return document, nil
}

func (l *Loader) verify(ctx context.Context, path, id string, opts LoadOptions) error {
	if !opts.VerifyIndex || l.verifier == nil {
		return nil
	}
	if id == "" {
		return &domain.MissingFieldError{Path: path, Field: "identifier"}
	}
	return domain.AtPath(path, l.verifier.Verify(ctx, id))
}

func (l *Loader) observe(kind domain.RecordKind, path string, errp *error) {
	err := *errp
	l.metrics.ObserveRecordLoaded(kind, err)
	if err != nil {
		l.logger.Debug("metadata load failed",
			telemetry.RecordField(string(kind)),
			telemetry.PathField(path),
			zap.Error(err),
		)
		return
	}
	l.logger.Debug("metadata loaded",
		telemetry.EventField(telemetry.EventRecordLoaded),
		telemetry.RecordField(string(kind)),
		telemetry.PathField(path),
	)
}

func decodeError(path string, err error) error {
	return &domain.ConstraintViolationError{Path: path, Field: "document", Message: fmt.Sprintf("decode: %v", err)}
}
