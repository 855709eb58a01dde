package domain

// WorkflowFields lists the keys of a workflow document in file order.
var WorkflowFields = []string{
	"name", "softwareVersion", "description", "identifier", "metadataStatus",
	"workflowStatus", "workflowLanguage", "workflowFile", "callMap",
	"codeRepository", "WebSite", "license", "contactPoint", "publication",
	"keywords", "alternateName", "creator", "programmingLanguage",
	"datePublished",
}

// Workflow is a standalone workflow record.
type Workflow struct {
	Name                string          `yaml:"name,omitempty"`
	SoftwareVersion     SoftwareVersion `yaml:"softwareVersion,omitempty"`
	Description         string          `yaml:"description,omitempty"`
	Identifier          string          `yaml:"identifier,omitempty"`
	MetadataStatus      Status          `yaml:"metadataStatus,omitempty"`
	WorkflowStatus      Status          `yaml:"workflowStatus,omitempty"`
	WorkflowLanguage    Language        `yaml:"workflowLanguage,omitempty"`
	WorkflowFile        string          `yaml:"workflowFile,omitempty"`
	CallMap             []CallMap       `yaml:"callMap,omitempty"`
	CodeRepository      CodeRepository  `yaml:"codeRepository,omitempty"`
	WebSite             []WebSite       `yaml:"WebSite,omitempty"`
	License             string          `yaml:"license,omitempty"`
	ContactPoint        []Person        `yaml:"contactPoint,omitempty"`
	Publication         []Publication   `yaml:"publication,omitempty"`
	Keywords            []Keyword       `yaml:"keywords,omitempty"`
	AlternateName       []string        `yaml:"alternateName,omitempty"`
	Creator             []Person        `yaml:"creator,omitempty"`
	ProgrammingLanguage []string        `yaml:"programmingLanguage,omitempty"`
	DatePublished       string          `yaml:"datePublished,omitempty"`
}

func NewWorkflow(w Workflow) (*Workflow, error) {
	if w.MetadataStatus == "" {
		w.MetadataStatus = DefaultMetadataStatus
	}
	if w.WorkflowStatus == "" {
		w.WorkflowStatus = DefaultMetadataStatus
	}
	if w.WorkflowLanguage == "" {
		w.WorkflowLanguage = LanguageCWL
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

func (w *Workflow) Validate() error {
	errs := []error{
		requireField("name", w.Name),
		requireField("softwareVersion.versionName", w.SoftwareVersion.VersionName),
		optionalIdentifier(KindWorkflow, w.Identifier),
		w.CodeRepository.validate(),
	}
	if _, err := ParseStatus("metadataStatus", string(w.MetadataStatus)); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseStatus("workflowStatus", string(w.WorkflowStatus)); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseLanguage("workflowLanguage", string(w.WorkflowLanguage)); err != nil {
		errs = append(errs, err)
	}
	for _, call := range w.CallMap {
		if call.Identifier == "" {
			continue
		}
		if _, err := KindOf(call.Identifier); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, validateWebSites(w.WebSite)...)
	errs = append(errs, validateKeywords(w.Keywords)...)
	return collect(errs)
}
