package catalog

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/truwl/capanno-utils/internal/domain"
)

// Layout maps content coordinates to paths inside one repository.
type Layout struct {
	root string
}

func NewLayout(cfg domain.RepoConfig) Layout {
	return Layout{root: cfg.WithDefaults().Root}
}

func (l Layout) Root() string {
	return l.root
}

func (l Layout) ToolsDir() string {
	return filepath.Join(l.root, domain.ToolsDir)
}

func (l Layout) ScriptsDir() string {
	return filepath.Join(l.root, domain.ScriptsDir)
}

func (l Layout) WorkflowsDir() string {
	return filepath.Join(l.root, domain.WorkflowsDir)
}

func (l Layout) ToolVersionDir(tool, version string) string {
	return filepath.Join(l.ToolsDir(), tool, version)
}

// ToolCommonMetadata is the parent tool document of one tool version.
func (l Layout) ToolCommonMetadata(tool, version string) string {
	return filepath.Join(l.ToolVersionDir(tool, version), domain.CommonDir, domain.CommonMetadataFile)
}

// SubtoolDir is <tool>_<subtool>, or <tool> for the main subtool.
func (l Layout) SubtoolDir(tool, version, subtool string) string {
	return filepath.Join(l.ToolVersionDir(tool, version), SubtoolDirName(tool, subtool))
}

func (l Layout) SubtoolMetadata(tool, version, subtool string) string {
	return filepath.Join(l.SubtoolDir(tool, version, subtool), subtoolBase(tool, subtool)+domain.MetadataSuffix)
}

// SubtoolSource is the workflow-language file of a subtool for lang.
func (l Layout) SubtoolSource(tool, version, subtool string, lang domain.Language) string {
	return filepath.Join(l.SubtoolDir(tool, version, subtool), subtoolBase(tool, subtool)+lang.SourceExtension())
}

func (l Layout) SubtoolInstancesDir(tool, version, subtool string) string {
	return filepath.Join(l.SubtoolDir(tool, version, subtool), domain.InstancesDir)
}

// ToolInstance is the job file of a subtool instance.
func (l Layout) ToolInstance(tool, version, subtool, inputHash string) string {
	return filepath.Join(l.SubtoolInstancesDir(tool, version, subtool), inputHash+".yaml")
}

func (l Layout) ToolInstanceMetadata(tool, version, subtool, inputHash string) string {
	return filepath.Join(l.SubtoolInstancesDir(tool, version, subtool), inputHash+domain.MetadataSuffix)
}

func (l Layout) ScriptVersionDir(group, project, version string) string {
	return filepath.Join(l.ScriptsDir(), group, project, version)
}

func (l Layout) ScriptDir(group, project, version, script string) string {
	return filepath.Join(l.ScriptVersionDir(group, project, version), script)
}

func (l Layout) ScriptMetadata(group, project, version, script string) string {
	return filepath.Join(l.ScriptDir(group, project, version, script), script+domain.MetadataSuffix)
}

func (l Layout) ScriptSource(group, project, version, script string, lang domain.Language) string {
	return filepath.Join(l.ScriptDir(group, project, version, script), script+lang.SourceExtension())
}

func (l Layout) CommonScriptMetadata(group, project, version, name string) string {
	return filepath.Join(l.ScriptVersionDir(group, project, version), domain.CommonDir, name+domain.MetadataSuffix)
}

func (l Layout) WorkflowVersionDir(group, project, version string) string {
	return filepath.Join(l.WorkflowsDir(), group, project, version)
}

func (l Layout) WorkflowMetadata(group, project, version string) string {
	return filepath.Join(l.WorkflowVersionDir(group, project, version), project+domain.MetadataSuffix)
}

// Rel returns path relative to the repository root using forward slashes.
func (l Layout) Rel(path string) string {
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// SubtoolDirName names the directory holding subtool's files.
func SubtoolDirName(tool, subtool string) string {
	if subtool == "" || subtool == domain.MainSubtool {
		return tool
	}
	return tool + "_" + subtool
}

// SubtoolFromDir recovers the subtool name from its directory name.
func SubtoolFromDir(tool, dir string) (string, error) {
	if dir == tool {
		return domain.MainSubtool, nil
	}
	sub, ok := strings.CutPrefix(dir, tool+"_")
	if !ok || sub == "" {
		return "", &domain.ConstraintViolationError{
			Field:   "directory",
			Message: fmt.Sprintf("%q is not a subtool directory of %s", dir, tool),
		}
	}
	return sub, nil
}

// MetadataPathFor returns the metadata document that sits next to a source
// or instance file.
func MetadataPathFor(sourcePath string) string {
	ext := filepath.Ext(sourcePath)
	return strings.TrimSuffix(sourcePath, ext) + domain.MetadataSuffix
}

func subtoolBase(tool, subtool string) string {
	if subtool == "" || subtool == domain.MainSubtool {
		return tool
	}
	return tool + "-" + subtool
}
