package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/truwl/capanno-utils/internal/domain"
	"github.com/truwl/capanno-utils/internal/infra/catalog"
	"github.com/truwl/capanno-utils/internal/infra/telemetry"
)

const gitKeep = ".gitkeep"

// AddResult lists what an add operation created. Paths are relative to the
// repository root.
type AddResult struct {
	Identifiers []string `json:"identifiers"`
	Paths       []string `json:"paths"`
	Skipped     bool     `json:"skipped,omitempty"`
}

func (r *AddResult) record(id, path string) {
	if id != "" {
		r.Identifiers = append(r.Identifiers, id)
	}
	r.Paths = append(r.Paths, path)
}

type AddToolRequest struct {
	Name     string
	Version  string
	Subtools []string
	// Main adds the subtool that stands for the tool itself.
	Main bool
	// NoClobber skips the tool when its common directory exists.
	NoClobber bool
	// RefreshIndex rebuilds the content index before allocating.
	RefreshIndex bool
}

// AddTool creates the common metadata of a tool version and one metadata
// document per subtool, allocating every identifier.
func (a *Application) AddTool(ctx context.Context, req AddToolRequest) (AddResult, error) {
	if req.Name == "" || req.Version == "" {
		return AddResult{}, domain.E(domain.CodeInvalidArgument, "add tool", "tool name and version are required", nil)
	}
	if req.RefreshIndex {
		if _, err := a.RefreshIndex(ctx); err != nil {
			return AddResult{}, err
		}
	}

	commonPath := a.layout.ToolCommonMetadata(req.Name, req.Version)
	if exists(filepath.Dir(commonPath)) {
		if req.NoClobber {
			a.logger.Debug("tool exists, skipping", telemetry.PathField(a.layout.Rel(commonPath)))
			return AddResult{Skipped: true}, nil
		}
		return AddResult{}, domain.E(domain.CodeAlreadyExists, "add tool", fmt.Sprintf("%s already exists", a.layout.Rel(commonPath)), nil)
	}

	subtools := slices.Clone(req.Subtools)
	if req.Main && !slices.Contains(subtools, domain.MainSubtool) {
		subtools = append(subtools, domain.MainSubtool)
	}

	parentID, err := a.allocator.Parent(ctx, domain.KindParentTool, req.Name, req.Version)
	if err != nil {
		return AddResult{}, err
	}
	parent, err := domain.NewParentTool(domain.ParentTool{
		Name:            req.Name,
		SoftwareVersion: domain.SoftwareVersion{VersionName: req.Version},
		Identifier:      parentID,
		FeatureList:     subtools,
	})
	if err != nil {
		return AddResult{}, err
	}

	versionDir := a.layout.ToolVersionDir(req.Name, req.Version)
	created := []string{filepath.Dir(commonPath)}
	if !exists(versionDir) {
		created = []string{versionDir}
	}
	if err := a.writer.Write(ctx, commonPath, parent); err != nil {
		a.removeCreated(created)
		return AddResult{}, err
	}

	var result AddResult
	for _, name := range subtools {
		subtoolDir := a.layout.SubtoolDir(req.Name, req.Version, name)
		if !exists(subtoolDir) {
			created = append(created, subtoolDir)
		}
		id, path, err := a.writeSubtool(ctx, parent, req.Name, req.Version, name)
		if err != nil {
			a.removeCreated(created)
			return AddResult{}, err
		}
		result.record(id, path)
	}
	result.record(parentID, a.layout.Rel(commonPath))
	return result, nil
}

// removeCreated undoes a partial AddTool. Identifiers reserved on the way
// stay indexed until the next refresh.
func (a *Application) removeCreated(dirs []string) {
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			a.logger.Warn("remove partial tool failed", telemetry.PathField(a.layout.Rel(dir)), zap.Error(err))
		}
	}
}

type AddSubtoolRequest struct {
	Tool    string
	Version string
	Subtool string
	// UpdateFeatureList adds the subtool to the parent's featureList when
	// it is missing instead of failing.
	UpdateFeatureList bool
	NoClobber         bool
	RefreshIndex      bool
}

// AddSubtool adds a subtool to a tool version whose parent record is already
// in the content index.
func (a *Application) AddSubtool(ctx context.Context, req AddSubtoolRequest) (AddResult, error) {
	if req.RefreshIndex {
		if _, err := a.RefreshIndex(ctx); err != nil {
			return AddResult{}, err
		}
	}
	parentPath := a.layout.ToolCommonMetadata(req.Tool, req.Version)
	parent, err := a.loader.LoadParentTool(ctx, parentPath, catalog.LoadOptions{VerifyIndex: true})
	if err != nil {
		return AddResult{}, err
	}

	subtoolDir := a.layout.SubtoolDir(req.Tool, req.Version, req.Subtool)
	if exists(subtoolDir) {
		if req.NoClobber {
			return AddResult{Skipped: true}, nil
		}
		return AddResult{}, domain.E(domain.CodeAlreadyExists, "add subtool", fmt.Sprintf("%s already exists", a.layout.Rel(subtoolDir)), nil)
	}

	var result AddResult
	if !parent.HasFeature(req.Subtool) {
		if !req.UpdateFeatureList {
			return AddResult{}, &domain.ConstraintViolationError{
				Path:    a.layout.Rel(parentPath),
				Field:   "featureList",
				Message: fmt.Sprintf("%q is not in the featureList of %s", req.Subtool, parent.Name),
			}
		}
		parent.FeatureList = append(parent.FeatureList, req.Subtool)
		if err := a.writer.Write(ctx, parentPath, parent); err != nil {
			return AddResult{}, err
		}
		result.record("", a.layout.Rel(parentPath))
	}

	id, path, err := a.writeSubtool(ctx, parent, req.Tool, req.Version, req.Subtool)
	if err != nil {
		return result, err
	}
	result.record(id, path)
	return result, nil
}

func (a *Application) writeSubtool(ctx context.Context, parent *domain.ParentTool, tool, version, name string) (string, string, error) {
	id, err := a.allocator.Subtool(ctx, parent.Identifier, name)
	if err != nil {
		return "", "", err
	}
	sub, err := domain.NewSubtool(domain.Subtool{Name: name, Identifier: id})
	if err != nil {
		return "", "", err
	}
	path := a.layout.SubtoolMetadata(tool, version, name)
	if err := a.writer.Write(ctx, path, sub); err != nil {
		return "", "", err
	}
	if err := touch(filepath.Join(a.layout.SubtoolInstancesDir(tool, version, name), gitKeep)); err != nil {
		return "", "", err
	}
	return id, a.layout.Rel(path), nil
}

// AddToolInstance creates the metadata of a new instance of a subtool.
func (a *Application) AddToolInstance(ctx context.Context, tool, version, subtool string) (AddResult, error) {
	sub, err := a.loader.LoadSubtool(ctx, a.layout.SubtoolMetadata(tool, version, subtool), catalog.LoadOptions{})
	if err != nil {
		return AddResult{}, err
	}
	if sub.Identifier == "" {
		return AddResult{}, &domain.MissingFieldError{Path: a.layout.Rel(a.layout.SubtoolMetadata(tool, version, subtool)), Field: "identifier"}
	}
	id, err := a.allocator.Instance(sub.Identifier)
	if err != nil {
		return AddResult{}, err
	}
	instance, err := domain.NewToolInstance(domain.ToolInstance{
		ToolName:       tool,
		ToolVersion:    version,
		Name:           subtool,
		ToolIdentifier: sub.Identifier,
		Identifier:     id,
	})
	if err != nil {
		return AddResult{}, err
	}
	path := a.layout.ToolInstanceMetadata(tool, version, subtool, instance.InputHash())
	if err := a.writer.Write(ctx, path, instance); err != nil {
		return AddResult{}, err
	}
	var result AddResult
	result.record(id, a.layout.Rel(path))
	return result, nil
}

// AddScript creates the metadata of a script inside a project version.
func (a *Application) AddScript(ctx context.Context, group, project, version, name string) (AddResult, error) {
	dir := a.layout.ScriptDir(group, project, version, name)
	if exists(dir) {
		return AddResult{}, domain.E(domain.CodeAlreadyExists, "add script", fmt.Sprintf("%s already exists", a.layout.Rel(dir)), nil)
	}
	id, err := a.allocator.Parent(ctx, domain.KindScript, name, version)
	if err != nil {
		return AddResult{}, err
	}
	defaults := domain.ScriptDefaults()
	defaults.Name = name
	defaults.SoftwareVersion = domain.SoftwareVersion{VersionName: version}
	defaults.Identifier = id
	script, err := domain.NewScript(defaults)
	if err != nil {
		return AddResult{}, err
	}
	path := a.layout.ScriptMetadata(group, project, version, name)
	if err := a.writer.Write(ctx, path, script); err != nil {
		return AddResult{}, err
	}
	if err := touch(filepath.Join(dir, domain.InstancesDir, gitKeep)); err != nil {
		return AddResult{}, err
	}
	var result AddResult
	result.record(id, a.layout.Rel(path))
	return result, nil
}

// AddWorkflow creates the metadata of a workflow version.
func (a *Application) AddWorkflow(ctx context.Context, group, project, version string) (AddResult, error) {
	path := a.layout.WorkflowMetadata(group, project, version)
	if exists(path) {
		return AddResult{}, domain.E(domain.CodeAlreadyExists, "add workflow", fmt.Sprintf("%s already exists", a.layout.Rel(path)), nil)
	}
	id, err := a.allocator.Parent(ctx, domain.KindWorkflow, project, version)
	if err != nil {
		return AddResult{}, err
	}
	wf, err := domain.NewWorkflow(domain.Workflow{
		Name:            project,
		SoftwareVersion: domain.SoftwareVersion{VersionName: version},
		Identifier:      id,
	})
	if err != nil {
		return AddResult{}, err
	}
	if err := a.writer.Write(ctx, path, wf); err != nil {
		return AddResult{}, err
	}
	if err := os.MkdirAll(filepath.Join(filepath.Dir(path), domain.InstancesDir), 0o755); err != nil {
		return AddResult{}, fmt.Errorf("create instances dir: %w", err)
	}
	var result AddResult
	result.record(id, a.layout.Rel(path))
	return result, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

func touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	return file.Close()
}
