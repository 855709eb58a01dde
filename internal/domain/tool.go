package domain

import (
	"fmt"
	"slices"
)

// ParentToolFields lists the keys of a tool's common metadata in file order.
var ParentToolFields = []string{
	"name", "softwareVersion", "identifier", "featureList", "metadataStatus",
	"description", "codeRepository", "license", "WebSite", "contactPoint",
	"publication", "keywords", "alternateName", "creator",
	"programmingLanguage", "datePublished", "downloadURL", "extra",
}

// SubtoolFields lists the keys of a subtool document in file order.
var SubtoolFields = []string{
	"name", "metadataStatus", "cwlStatus", "wdlStatus", "snakemakeStatus",
	"nextflowStatus", "version", "identifier", "description", "keywords",
	"alternateName", "extra", "parentMetadata",
}

// SubtoolInheritedFields are filled from the parent when a subtool leaves them empty.
var SubtoolInheritedFields = []string{"description", "keywords"}

// ToolInstanceFields lists the keys of a tool instance document in file order.
var ToolInstanceFields = []string{
	"toolName", "toolVersion", "name", "metadataStatus", "jobStatus",
	"toolIdentifier", "identifier", "description", "command", "inputObjects",
	"outputObjects", "extra",
}

// ParentTool is the metadata shared by every subtool of one tool version.
type ParentTool struct {
	Name                string          `yaml:"name,omitempty"`
	SoftwareVersion     SoftwareVersion `yaml:"softwareVersion,omitempty"`
	Identifier          string          `yaml:"identifier,omitempty"`
	FeatureList         []string        `yaml:"featureList,omitempty"`
	MetadataStatus      Status          `yaml:"metadataStatus,omitempty"`
	Description         string          `yaml:"description,omitempty"`
	CodeRepository      CodeRepository  `yaml:"codeRepository,omitempty"`
	License             string          `yaml:"license,omitempty"`
	WebSite             []WebSite       `yaml:"WebSite,omitempty"`
	ContactPoint        []Person        `yaml:"contactPoint,omitempty"`
	Publication         []Publication   `yaml:"publication,omitempty"`
	Keywords            []Keyword       `yaml:"keywords,omitempty"`
	AlternateName       []string        `yaml:"alternateName,omitempty"`
	Creator             []Person        `yaml:"creator,omitempty"`
	ProgrammingLanguage []string        `yaml:"programmingLanguage,omitempty"`
	DatePublished       string          `yaml:"datePublished,omitempty"`
	DownloadURL         string          `yaml:"downloadURL,omitempty"`
	Extra               map[string]any  `yaml:"extra,omitempty"`
}

// NewParentTool applies defaults and validates every field of p.
func NewParentTool(p ParentTool) (*ParentTool, error) {
	if p.MetadataStatus == "" {
		p.MetadataStatus = DefaultMetadataStatus
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *ParentTool) Validate() error {
	errs := []error{
		requireField("name", p.Name),
		requireField("softwareVersion.versionName", p.SoftwareVersion.VersionName),
		optionalIdentifier(KindParentTool, p.Identifier),
		p.CodeRepository.validate(),
	}
	if _, err := ParseStatus("metadataStatus", string(p.MetadataStatus)); err != nil {
		errs = append(errs, err)
	}
	seen := make(map[string]struct{}, len(p.FeatureList))
	for i, feature := range p.FeatureList {
		if feature == "" {
			errs = append(errs, &ConstraintViolationError{Field: fmt.Sprintf("featureList[%d]", i), Message: "must not be empty"})
			continue
		}
		if _, dup := seen[feature]; dup {
			errs = append(errs, &ConstraintViolationError{Field: fmt.Sprintf("featureList[%d]", i), Message: fmt.Sprintf("duplicate subtool %q", feature)})
		}
		seen[feature] = struct{}{}
	}
	errs = append(errs, validateWebSites(p.WebSite)...)
	errs = append(errs, validateKeywords(p.Keywords)...)
	return collect(errs)
}

// HasFeature reports whether name is one of the tool's subtools.
func (p *ParentTool) HasFeature(name string) bool {
	return slices.Contains(p.FeatureList, name)
}

// Subtool is one subcommand of a tool with its own workflow-language sources.
type Subtool struct {
	Name             string `yaml:"name,omitempty"`
	MetadataStatus   Status `yaml:"metadataStatus,omitempty"`
	LanguageStatuses `yaml:",inline"`
	Version          string         `yaml:"version,omitempty"`
	Identifier       string         `yaml:"identifier,omitempty"`
	Description      string         `yaml:"description,omitempty"`
	Keywords         []Keyword      `yaml:"keywords,omitempty"`
	AlternateName    []string       `yaml:"alternateName,omitempty"`
	Extra            map[string]any `yaml:"extra,omitempty"`
	ParentMetadata   string         `yaml:"parentMetadata,omitempty"`

	Parent    ParentRef[*ParentTool] `yaml:"-"`
	Inherited FieldSet               `yaml:"-"`
}

// NewSubtool applies defaults and validates s. When s.Parent is resolved the
// name and identifier are checked against it.
func NewSubtool(s Subtool) (*Subtool, error) {
	if s.MetadataStatus == "" {
		s.MetadataStatus = DefaultMetadataStatus
	}
	if s.Version == "" {
		s.Version = DefaultSubtoolVersion
	}
	if s.ParentMetadata == "" {
		s.ParentMetadata = DefaultParentMetadata
	}
	if s.Parent.Path() == "" && !s.Parent.Resolved() {
		s.Parent = UnresolvedParent[*ParentTool](s.ParentMetadata)
	}
	errs := s.LanguageStatuses.normalize("")
	if err := s.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := collect(errs); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Subtool) Validate() error {
	errs := []error{
		requireField("name", s.Name),
		optionalIdentifier(KindSubtool, s.Identifier),
	}
	if _, err := ParseStatus("metadataStatus", string(s.MetadataStatus)); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, validateKeywords(s.Keywords)...)
	if parent, ok := s.Parent.Record(); ok && parent != nil {
		errs = append(errs, s.checkParent(parent))
	}
	return collect(errs)
}

// AttachParent resolves the subtool's parent reference and checks that the
// subtool belongs to it.
func (s *Subtool) AttachParent(parent *ParentTool) error {
	if parent == nil {
		return ErrParentMissing
	}
	if err := s.checkParent(parent); err != nil {
		return err
	}
	return s.Parent.Resolve(parent)
}

func (s *Subtool) checkParent(parent *ParentTool) error {
	if s.Name != "" && !parent.HasFeature(s.Name) {
		return &ConstraintViolationError{
			Field:   "name",
			Message: fmt.Sprintf("%q is not in the featureList of %s", s.Name, parent.Name),
		}
	}
	if s.Identifier != "" && parent.Identifier != "" && !SubtoolBelongsTo(s.Identifier, parent.Identifier) {
		return &ConstraintViolationError{
			Field:   "identifier",
			Message: fmt.Sprintf("subtool identifier %s does not correspond to parent identifier %s", s.Identifier, parent.Identifier),
		}
	}
	return nil
}

// ToolName returns the parent's name when resolved.
func (s *Subtool) ToolName() string {
	if parent, ok := s.Parent.Record(); ok && parent != nil {
		return parent.Name
	}
	return ""
}

// ToolInstance is one concrete set of input bindings for a subtool.
type ToolInstance struct {
	ToolName       string         `yaml:"toolName,omitempty"`
	ToolVersion    string         `yaml:"toolVersion,omitempty"`
	Name           string         `yaml:"name,omitempty"`
	MetadataStatus Status         `yaml:"metadataStatus,omitempty"`
	JobStatus      Status         `yaml:"jobStatus,omitempty"`
	ToolIdentifier string         `yaml:"toolIdentifier,omitempty"`
	Identifier     string         `yaml:"identifier,omitempty"`
	Description    string         `yaml:"description,omitempty"`
	Command        string         `yaml:"command,omitempty"`
	InputObjects   []IOItem       `yaml:"inputObjects,omitempty"`
	OutputObjects  []IOItem       `yaml:"outputObjects,omitempty"`
	Extra          map[string]any `yaml:"extra,omitempty"`
}

func NewToolInstance(t ToolInstance) (*ToolInstance, error) {
	if t.MetadataStatus == "" {
		t.MetadataStatus = DefaultMetadataStatus
	}
	if t.JobStatus == "" {
		t.JobStatus = DefaultMetadataStatus
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *ToolInstance) Validate() error {
	errs := []error{
		requireField("toolIdentifier", t.ToolIdentifier),
		optionalIdentifier(KindSubtool, t.ToolIdentifier),
		optionalIdentifier(KindToolInstance, t.Identifier),
	}
	if _, err := ParseStatus("metadataStatus", string(t.MetadataStatus)); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseStatus("jobStatus", string(t.JobStatus)); err != nil {
		errs = append(errs, err)
	}
	if t.Identifier != "" && t.ToolIdentifier != "" && !hasInstanceBase(t.Identifier, t.ToolIdentifier) {
		errs = append(errs, &ConstraintViolationError{
			Field:   "identifier",
			Message: fmt.Sprintf("instance identifier %s does not extend tool identifier %s", t.Identifier, t.ToolIdentifier),
		})
	}
	return collect(errs)
}

// InputHash returns the random suffix naming the instance's files.
func (t *ToolInstance) InputHash() string {
	return InstanceSuffix(t.Identifier)
}

// InstanceSuffix returns the trailing 4-hex segment of an instance identifier.
func InstanceSuffix(id string) string {
	if len(id) <= DefaultInstanceIDLength {
		return ""
	}
	return id[len(id)-DefaultInstanceIDLength:]
}

func hasInstanceBase(instanceID, baseID string) bool {
	return len(instanceID) == len(baseID)+1+DefaultInstanceIDLength && instanceID[:len(baseID)+1] == baseID+"."
}
