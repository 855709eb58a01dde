package contentmap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/mod/semver"

	"github.com/truwl/capanno-utils/internal/domain"
	"github.com/truwl/capanno-utils/internal/infra/catalog"
	"github.com/truwl/capanno-utils/internal/infra/telemetry"
)

// Build scopes, used as span names and metric labels.
const (
	ScopeAll           = "all"
	ScopeTools         = "tools"
	ScopeTool          = "tool"
	ScopeToolVersion   = "tool_version"
	ScopeSubtool       = "subtool"
	ScopeScripts       = "scripts"
	ScopeScriptGroup   = "script_group"
	ScopeScriptProject = "script_project"
	ScopeWorkflows     = "workflows"
	ScopeWorkflowGroup = "workflow_group"
)

// Builder walks the repository tree and maps identifiers to records.
type Builder struct {
	layout  catalog.Layout
	loader  *catalog.Loader
	metrics domain.Metrics
	tracer  trace.Tracer
	logger  *zap.Logger
}

func NewBuilder(cfg domain.RepoConfig, loader *catalog.Loader, metrics domain.Metrics, tracer trace.Tracer, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	if tracer == nil {
		tracer = telemetry.NewTracer(nil)
	}
	if loader == nil {
		loader = catalog.NewLoader(nil, metrics, logger)
	}
	return &Builder{
		layout:  catalog.NewLayout(cfg),
		loader:  loader,
		metrics: metrics,
		tracer:  tracer,
		logger:  logger.Named("contentmap"),
	}
}

func (b *Builder) Layout() catalog.Layout {
	return b.layout
}

// All builds the tools, scripts and workflows maps and merges them.
func (b *Builder) All(ctx context.Context, checkExists bool) (*domain.ContentMap, error) {
	return b.run(ctx, ScopeAll, checkExists, func(ctx context.Context, w *walker) (*domain.ContentMap, error) {
		out := domain.NewContentMap()
		for _, part := range []func(context.Context) (*domain.ContentMap, error){w.tools, w.scripts, w.workflows} {
			m, err := part(ctx)
			if err != nil {
				return nil, err
			}
			if err := out.Merge(m); err != nil {
				return nil, err
			}
		}
		return out, nil
	})
}

func (b *Builder) Tools(ctx context.Context, checkExists bool) (*domain.ContentMap, error) {
	return b.run(ctx, ScopeTools, checkExists, func(ctx context.Context, w *walker) (*domain.ContentMap, error) {
		return w.tools(ctx)
	})
}

// Tool maps every version of one tool.
func (b *Builder) Tool(ctx context.Context, name string, checkExists bool) (*domain.ContentMap, error) {
	return b.run(ctx, ScopeTool, checkExists, func(ctx context.Context, w *walker) (*domain.ContentMap, error) {
		return w.tool(ctx, name, true)
	})
}

func (b *Builder) ToolVersion(ctx context.Context, name, version string, checkExists bool) (*domain.ContentMap, error) {
	return b.run(ctx, ScopeToolVersion, checkExists, func(ctx context.Context, w *walker) (*domain.ContentMap, error) {
		return w.toolVersion(ctx, name, version)
	})
}

func (b *Builder) Subtool(ctx context.Context, name, version, subtool string, checkExists bool) (*domain.ContentMap, error) {
	return b.run(ctx, ScopeSubtool, checkExists, func(ctx context.Context, w *walker) (*domain.ContentMap, error) {
		return w.subtool(ctx, name, version, subtool)
	})
}

func (b *Builder) Scripts(ctx context.Context, checkExists bool) (*domain.ContentMap, error) {
	return b.run(ctx, ScopeScripts, checkExists, func(ctx context.Context, w *walker) (*domain.ContentMap, error) {
		return w.scripts(ctx)
	})
}

func (b *Builder) ScriptGroup(ctx context.Context, group string, checkExists bool) (*domain.ContentMap, error) {
	return b.run(ctx, ScopeScriptGroup, checkExists, func(ctx context.Context, w *walker) (*domain.ContentMap, error) {
		return w.scriptGroup(ctx, group, true)
	})
}

func (b *Builder) ScriptProject(ctx context.Context, group, project string, checkExists bool) (*domain.ContentMap, error) {
	return b.run(ctx, ScopeScriptProject, checkExists, func(ctx context.Context, w *walker) (*domain.ContentMap, error) {
		return w.scriptProject(ctx, group, project, true)
	})
}

func (b *Builder) Workflows(ctx context.Context) (*domain.ContentMap, error) {
	return b.run(ctx, ScopeWorkflows, false, func(ctx context.Context, w *walker) (*domain.ContentMap, error) {
		return w.workflows(ctx)
	})
}

func (b *Builder) WorkflowGroup(ctx context.Context, group string) (*domain.ContentMap, error) {
	return b.run(ctx, ScopeWorkflowGroup, false, func(ctx context.Context, w *walker) (*domain.ContentMap, error) {
		return w.workflowGroup(ctx, group, true)
	})
}

func (b *Builder) run(ctx context.Context, scope string, checkExists bool, build func(context.Context, *walker) (*domain.ContentMap, error)) (*domain.ContentMap, error) {
	ctx, span := b.tracer.Start(ctx, telemetry.SpanPrefixMap+scope, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrScope, scope),
		attribute.Bool(telemetry.AttrCheckExists, checkExists),
	)

	w := &walker{
		layout:      b.layout,
		loader:      b.loader.WithCache(cache.New(cache.NoExpiration, 0)),
		checkExists: checkExists,
	}
	start := time.Now()
	m, err := build(ctx, w)
	duration := time.Since(start)

	entries := 0
	if m != nil {
		entries = m.Len()
	}
	b.metrics.ObserveMapBuild(domain.MapBuildMetric{
		Scope:    scope,
		Entries:  entries,
		Duration: duration,
		Status:   domain.OutcomeOf(err),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int(telemetry.AttrEntries, entries))
	span.SetStatus(codes.Ok, "")
	b.logger.Debug("content map built",
		telemetry.EventField(telemetry.EventMapBuilt),
		telemetry.ScopeField(scope),
		zap.Int("entries", entries),
		telemetry.DurationField(duration),
	)
	return m, nil
}

// walker holds the state of one build. Parent and common records loaded
// during the build are shared through the loader's cache.
type walker struct {
	layout      catalog.Layout
	loader      *catalog.Loader
	checkExists bool
}

func (w *walker) tools(ctx context.Context) (*domain.ContentMap, error) {
	names, err := w.listDirs(w.layout.ToolsDir(), false)
	if err != nil {
		return nil, err
	}
	out := domain.NewContentMap()
	for _, name := range names {
		m, err := w.tool(ctx, name, false)
		if err != nil {
			return nil, err
		}
		if err := out.Merge(m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (w *walker) tool(ctx context.Context, name string, required bool) (*domain.ContentMap, error) {
	versions, err := w.listDirs(w.layout.ToolVersionDir(name, ""), required)
	if err != nil {
		return nil, err
	}
	SortVersions(versions)
	out := domain.NewContentMap()
	for _, version := range versions {
		m, err := w.toolVersion(ctx, name, version)
		if err != nil {
			return nil, err
		}
		if err := out.Merge(m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// toolVersion maps the parent record first, then each subtool directory.
func (w *walker) toolVersion(ctx context.Context, name, version string) (*domain.ContentMap, error) {
	dirs, err := w.listDirs(w.layout.ToolVersionDir(name, version), true, domain.CommonDir)
	if err != nil {
		return nil, err
	}

	out := domain.NewContentMap()
	path := w.layout.ToolCommonMetadata(name, version)
	parent, err := w.loader.LoadParentTool(ctx, path, catalog.LoadOptions{})
	if err != nil {
		return nil, err
	}
	entry := domain.Entry{
		Type:           domain.EntryParent,
		MetadataPath:   w.layout.Rel(path),
		Name:           parent.Name,
		VersionName:    parent.SoftwareVersion.VersionName,
		MetadataStatus: parent.MetadataStatus,
	}
	if err := w.insert(out, parent.Identifier, entry); err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		subtool, err := catalog.SubtoolFromDir(name, dir)
		if err != nil {
			return nil, domain.AtPath(w.layout.Rel(w.layout.ToolVersionDir(name, version)), err)
		}
		m, err := w.subtool(ctx, name, version, subtool)
		if err != nil {
			return nil, err
		}
		if err := out.Merge(m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (w *walker) subtool(ctx context.Context, name, version, subtool string) (*domain.ContentMap, error) {
	path := w.layout.SubtoolMetadata(name, version, subtool)
	record, err := w.loader.LoadSubtool(ctx, path, catalog.LoadOptions{})
	if err != nil {
		return nil, err
	}
	entry := domain.Entry{
		Type:           domain.EntrySubtool,
		MetadataPath:   w.layout.Rel(path),
		Name:           record.Name,
		MetadataStatus: record.MetadataStatus,
	}
	entry.SetLanguageStatuses(record.LanguageStatuses)
	if w.checkExists {
		exists, err := sourcesExist(func(lang domain.Language) string {
			return w.layout.SubtoolSource(name, version, subtool, lang)
		})
		if err != nil {
			return nil, err
		}
		entry.Exists = exists
	}
	out := domain.NewContentMap()
	if err := w.insert(out, record.Identifier, entry); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *walker) scripts(ctx context.Context) (*domain.ContentMap, error) {
	groups, err := w.listDirs(w.layout.ScriptsDir(), false)
	if err != nil {
		return nil, err
	}
	return w.mergeEach(groups, func(group string) (*domain.ContentMap, error) {
		return w.scriptGroup(ctx, group, false)
	})
}

func (w *walker) scriptGroup(ctx context.Context, group string, required bool) (*domain.ContentMap, error) {
	projects, err := w.listDirs(w.layout.ScriptVersionDir(group, "", ""), required)
	if err != nil {
		return nil, err
	}
	return w.mergeEach(projects, func(project string) (*domain.ContentMap, error) {
		return w.scriptProject(ctx, group, project, false)
	})
}

func (w *walker) scriptProject(ctx context.Context, group, project string, required bool) (*domain.ContentMap, error) {
	versions, err := w.listDirs(w.layout.ScriptVersionDir(group, project, ""), required)
	if err != nil {
		return nil, err
	}
	SortVersions(versions)
	return w.mergeEach(versions, func(version string) (*domain.ContentMap, error) {
		return w.scriptVersion(ctx, group, project, version)
	})
}

func (w *walker) scriptVersion(ctx context.Context, group, project, version string) (*domain.ContentMap, error) {
	scripts, err := w.listDirs(w.layout.ScriptVersionDir(group, project, version), true, domain.CommonDir)
	if err != nil {
		return nil, err
	}
	return w.mergeEach(scripts, func(script string) (*domain.ContentMap, error) {
		return w.script(ctx, group, project, version, script)
	})
}

func (w *walker) script(ctx context.Context, group, project, version, script string) (*domain.ContentMap, error) {
	path := w.layout.ScriptMetadata(group, project, version, script)
	record, err := w.loader.LoadScript(ctx, path, catalog.LoadOptions{})
	if err != nil {
		return nil, err
	}
	entry := domain.Entry{
		Type:           domain.EntryScript,
		MetadataPath:   w.layout.Rel(path),
		Path:           w.layout.Rel(w.layout.ScriptSource(group, project, version, script, domain.LanguageCWL)),
		Name:           record.Name,
		VersionName:    record.SoftwareVersion.VersionName,
		MetadataStatus: record.MetadataStatus,
	}
	entry.SetLanguageStatuses(record.LanguageStatuses)
	if w.checkExists {
		exists, err := sourcesExist(func(lang domain.Language) string {
			return w.layout.ScriptSource(group, project, version, script, lang)
		})
		if err != nil {
			return nil, err
		}
		entry.Exists = exists
	}
	out := domain.NewContentMap()
	if err := w.insert(out, record.Identifier, entry); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *walker) workflows(ctx context.Context) (*domain.ContentMap, error) {
	groups, err := w.listDirs(w.layout.WorkflowsDir(), false)
	if err != nil {
		return nil, err
	}
	return w.mergeEach(groups, func(group string) (*domain.ContentMap, error) {
		return w.workflowGroup(ctx, group, false)
	})
}

func (w *walker) workflowGroup(ctx context.Context, group string, required bool) (*domain.ContentMap, error) {
	projects, err := w.listDirs(w.layout.WorkflowVersionDir(group, "", ""), required)
	if err != nil {
		return nil, err
	}
	return w.mergeEach(projects, func(project string) (*domain.ContentMap, error) {
		versions, err := w.listDirs(w.layout.WorkflowVersionDir(group, project, ""), true)
		if err != nil {
			return nil, err
		}
		SortVersions(versions)
		return w.mergeEach(versions, func(version string) (*domain.ContentMap, error) {
			return w.workflow(ctx, group, project, version)
		})
	})
}

func (w *walker) workflow(ctx context.Context, group, project, version string) (*domain.ContentMap, error) {
	path := w.layout.WorkflowMetadata(group, project, version)
	record, err := w.loader.LoadWorkflow(ctx, path, catalog.LoadOptions{})
	if err != nil {
		return nil, err
	}
	entry := domain.Entry{
		Type:             domain.EntryWorkflow,
		MetadataPath:     w.layout.Rel(path),
		Name:             record.Name,
		VersionName:      record.SoftwareVersion.VersionName,
		MetadataStatus:   record.MetadataStatus,
		WorkflowLanguage: record.WorkflowLanguage,
		WorkflowStatus:   record.WorkflowStatus,
		WorkflowPath:     record.WorkflowFile,
	}
	out := domain.NewContentMap()
	if err := w.insert(out, record.Identifier, entry); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *walker) mergeEach(names []string, build func(string) (*domain.ContentMap, error)) (*domain.ContentMap, error) {
	out := domain.NewContentMap()
	for _, name := range names {
		m, err := build(name)
		if err != nil {
			return nil, err
		}
		if err := out.Merge(m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (w *walker) insert(m *domain.ContentMap, id string, entry domain.Entry) error {
	if id == "" {
		return &domain.MissingFieldError{Path: entry.Location(), Field: "identifier"}
	}
	return m.InsertUnique(id, entry)
}

// listDirs returns the child directories of dir in name order, skipping
// hidden entries and skip. A missing dir is empty unless required. Any
// other file is rejected.
func (w *walker) listDirs(dir string, required bool, skip ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if !required {
				return nil, nil
			}
			return nil, domain.E(domain.CodeNotFound, "list content", fmt.Sprintf("%s does not exist", w.layout.Rel(dir)), err)
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || slices.Contains(skip, name) {
			continue
		}
		if !entry.IsDir() {
			return nil, &domain.ConstraintViolationError{
				Path:    w.layout.Rel(dir),
				Field:   "directory",
				Message: fmt.Sprintf("%s is not a directory; remove the extra file", name),
			}
		}
		names = append(names, name)
	}
	return names, nil
}

func sourcesExist(pathFor func(domain.Language) string) (*domain.SourceExists, error) {
	exists := &domain.SourceExists{}
	for _, lang := range domain.Languages {
		_, err := os.Stat(pathFor(lang))
		switch {
		case err == nil:
			exists.Set(lang, true)
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("check %s source: %w", lang, err)
		}
	}
	return exists, nil
}

// SortVersions orders version directory names by semantic version. Names
// that are not versions sort after the versions, by name.
func SortVersions(versions []string) {
	slices.SortStableFunc(versions, func(a, b string) int {
		va, vb := "v"+a, "v"+b
		okA, okB := semver.IsValid(va), semver.IsValid(vb)
		switch {
		case okA && okB:
			if c := semver.Compare(va, vb); c != 0 {
				return c
			}
			return strings.Compare(a, b)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return strings.Compare(a, b)
		}
	})
}
