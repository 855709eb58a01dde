package domain

import "fmt"

// ScriptFields lists the keys of a script document in file order.
var ScriptFields = []string{
	"name", "softwareVersion", "identifier", "current", "metadataStatus",
	"cwlStatus", "nextflowStatus", "snakemakeStatus", "wdlStatus",
	"description", "codeRepository", "WebSite", "license", "contactPoint",
	"publication", "keywords", "parentScripts", "tools", "alternateName",
	"creator", "programmingLanguage", "datePublished", "isCallable",
	"parentMetadata",
}

// CommonScriptFields lists the keys of a common script document. They are
// also the script fields filled from common metadata.
var CommonScriptFields = []string{
	"softwareVersion", "description", "codeRepository", "WebSite", "license",
	"contactPoint", "publication", "keywords", "creator",
	"programmingLanguage", "datePublished", "parentScripts", "tools",
}

// Script is the metadata of a single script inside a project version.
type Script struct {
	Name                string          `yaml:"name,omitempty"`
	SoftwareVersion     SoftwareVersion `yaml:"softwareVersion,omitempty"`
	Identifier          string          `yaml:"identifier,omitempty"`
	Current             bool            `yaml:"current"`
	MetadataStatus      Status          `yaml:"metadataStatus,omitempty"`
	LanguageStatuses    `yaml:",inline"`
	Description         string          `yaml:"description,omitempty"`
	CodeRepository      CodeRepository  `yaml:"codeRepository,omitempty"`
	WebSite             []WebSite       `yaml:"WebSite,omitempty"`
	License             string          `yaml:"license,omitempty"`
	ContactPoint        []Person        `yaml:"contactPoint,omitempty"`
	Publication         []Publication   `yaml:"publication,omitempty"`
	Keywords            []Keyword       `yaml:"keywords,omitempty"`
	ParentScripts       []ParentScript  `yaml:"parentScripts,omitempty"`
	Tools               []Tool          `yaml:"tools,omitempty"`
	AlternateName       []string        `yaml:"alternateName,omitempty"`
	Creator             []Person        `yaml:"creator,omitempty"`
	ProgrammingLanguage []string        `yaml:"programmingLanguage,omitempty"`
	DatePublished       string          `yaml:"datePublished,omitempty"`
	IsCallable          bool            `yaml:"isCallable"`
	ParentMetadata      []string        `yaml:"parentMetadata,omitempty"`

	Common    []ParentRef[*CommonScript] `yaml:"-"`
	Inherited FieldSet                   `yaml:"-"`
}

// ScriptDefaults returns a script with the default flag values set. Loaders
// decode documents on top of it so absent keys keep their defaults.
func ScriptDefaults() Script {
	return Script{
		Current:          false,
		IsCallable:       true,
		MetadataStatus:   DefaultMetadataStatus,
		LanguageStatuses: DefaultLanguageStatuses(),
	}
}

// NewScript validates s. Required fields may still be supplied by common
// metadata, so callers that inherit should build with NewScriptDraft first.
func NewScript(s Script) (*Script, error) {
	draft, err := NewScriptDraft(s)
	if err != nil {
		return nil, err
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	return draft, nil
}

// NewScriptDraft applies defaults and checks everything except required
// fields that common metadata may fill.
func NewScriptDraft(s Script) (*Script, error) {
	if s.MetadataStatus == "" {
		s.MetadataStatus = DefaultMetadataStatus
	}
	if len(s.Common) == 0 && len(s.ParentMetadata) > 0 {
		s.Common = make([]ParentRef[*CommonScript], 0, len(s.ParentMetadata))
		for _, path := range s.ParentMetadata {
			s.Common = append(s.Common, UnresolvedParent[*CommonScript](path))
		}
	}
	errs := s.LanguageStatuses.normalize("")
	errs = append(errs,
		optionalIdentifier(KindScript, s.Identifier),
		s.CodeRepository.validate(),
	)
	if _, err := ParseStatus("metadataStatus", string(s.MetadataStatus)); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, validateWebSites(s.WebSite)...)
	errs = append(errs, validateKeywords(s.Keywords)...)
	for i, path := range s.ParentMetadata {
		if path == "" {
			errs = append(errs, &ConstraintViolationError{Field: fmt.Sprintf("parentMetadata[%d]", i), Message: "must not be empty"})
		}
	}
	if err := collect(errs); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks required fields once inheritance has been applied.
func (s *Script) Validate() error {
	return collect([]error{
		requireField("name", s.Name),
		requireField("softwareVersion.versionName", s.SoftwareVersion.VersionName),
	})
}

// CommonScript holds metadata shared by several scripts.
type CommonScript struct {
	SoftwareVersion     SoftwareVersion `yaml:"softwareVersion,omitempty"`
	Description         string          `yaml:"description,omitempty"`
	CodeRepository      CodeRepository  `yaml:"codeRepository,omitempty"`
	WebSite             []WebSite       `yaml:"WebSite,omitempty"`
	License             string          `yaml:"license,omitempty"`
	ContactPoint        []Person        `yaml:"contactPoint,omitempty"`
	Publication         []Publication   `yaml:"publication,omitempty"`
	Keywords            []Keyword       `yaml:"keywords,omitempty"`
	Creator             []Person        `yaml:"creator,omitempty"`
	ProgrammingLanguage []string        `yaml:"programmingLanguage,omitempty"`
	DatePublished       string          `yaml:"datePublished,omitempty"`
	ParentScripts       []ParentScript  `yaml:"parentScripts,omitempty"`
	Tools               []Tool          `yaml:"tools,omitempty"`
}

func NewCommonScript(c CommonScript) (*CommonScript, error) {
	errs := []error{c.CodeRepository.validate()}
	errs = append(errs, validateWebSites(c.WebSite)...)
	errs = append(errs, validateKeywords(c.Keywords)...)
	if err := collect(errs); err != nil {
		return nil, err
	}
	return &c, nil
}
