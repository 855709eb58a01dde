package domain

import "fmt"

// Status is the publication state of a record or of one of its sources.
type Status string

const (
	StatusIncomplete Status = "Incomplete"
	StatusDraft      Status = "Draft"
	StatusReleased   Status = "Released"
)

// ParseStatus accepts the three publication states. An empty value maps to
// the default.
func ParseStatus(field, raw string) (Status, error) {
	switch Status(raw) {
	case "":
		return DefaultMetadataStatus, nil
	case StatusIncomplete, StatusDraft, StatusReleased:
		return Status(raw), nil
	default:
		return "", &ConstraintViolationError{
			Field:   field,
			Message: fmt.Sprintf("status %q must be one of Incomplete, Draft, Released", raw),
		}
	}
}

// Promotable reports whether the status may move to Released.
func (s Status) Promotable() bool {
	return s == StatusDraft || s == StatusIncomplete
}

// Language is a workflow language a subtool or script may be described in.
type Language string

const (
	LanguageCWL       Language = "cwl"
	LanguageWDL       Language = "wdl"
	LanguageSnakemake Language = "snakemake"
	LanguageNextflow  Language = "nextflow"
)

// Languages lists every workflow language in content map order.
var Languages = []Language{LanguageCWL, LanguageWDL, LanguageSnakemake, LanguageNextflow}

// ParseLanguage accepts the known workflow languages.
func ParseLanguage(field, raw string) (Language, error) {
	for _, lang := range Languages {
		if string(lang) == raw {
			return lang, nil
		}
	}
	return "", &ConstraintViolationError{
		Field:   field,
		Message: fmt.Sprintf("language %q must be one of cwl, wdl, snakemake, nextflow", raw),
	}
}

// StatusField returns the record key holding the status for lang.
func (l Language) StatusField() string {
	return string(l) + "Status"
}

// ExistsField returns the content map key for the source existence flag.
func (l Language) ExistsField() string {
	return string(l) + "Exists"
}

// SourceExtension returns the file extension of lang sources.
func (l Language) SourceExtension() string {
	switch l {
	case LanguageCWL:
		return ".cwl"
	case LanguageWDL:
		return ".wdl"
	case LanguageSnakemake:
		return ".smk"
	case LanguageNextflow:
		return ".nf"
	default:
		return ""
	}
}

// LanguageStatuses holds one status per workflow language.
type LanguageStatuses struct {
	CWL       Status `json:"cwlStatus" yaml:"cwlStatus"`
	WDL       Status `json:"wdlStatus" yaml:"wdlStatus"`
	Snakemake Status `json:"snakemakeStatus" yaml:"snakemakeStatus"`
	Nextflow  Status `json:"nextflowStatus" yaml:"nextflowStatus"`
}

// DefaultLanguageStatuses marks every language Incomplete.
func DefaultLanguageStatuses() LanguageStatuses {
	return LanguageStatuses{
		CWL:       StatusIncomplete,
		WDL:       StatusIncomplete,
		Snakemake: StatusIncomplete,
		Nextflow:  StatusIncomplete,
	}
}

func (s LanguageStatuses) Get(lang Language) Status {
	switch lang {
	case LanguageCWL:
		return s.CWL
	case LanguageWDL:
		return s.WDL
	case LanguageSnakemake:
		return s.Snakemake
	case LanguageNextflow:
		return s.Nextflow
	default:
		return ""
	}
}

func (s *LanguageStatuses) Set(lang Language, status Status) {
	switch lang {
	case LanguageCWL:
		s.CWL = status
	case LanguageWDL:
		s.WDL = status
	case LanguageSnakemake:
		s.Snakemake = status
	case LanguageNextflow:
		s.Nextflow = status
	}
}

// normalize parses each status, filling defaults, and collects problems.
func (s *LanguageStatuses) normalize(path string) []error {
	var errs []error
	for _, lang := range Languages {
		status, err := ParseStatus(lang.StatusField(), string(s.Get(lang)))
		if err != nil {
			errs = append(errs, atPath(path, err))
			continue
		}
		s.Set(lang, status)
	}
	return errs
}
