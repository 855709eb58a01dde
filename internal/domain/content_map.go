package domain

import (
	"maps"
	"slices"
)

// EntryType classifies a content map entry.
type EntryType string

const (
	EntryParent   EntryType = "parent"
	EntrySubtool  EntryType = "subtool"
	EntryScript   EntryType = "script"
	EntryWorkflow EntryType = "workflow"
)

// SourceExists records which workflow-language sources were found on disk.
type SourceExists struct {
	CWL       bool
	WDL       bool
	Snakemake bool
	Nextflow  bool
}

func (e SourceExists) Get(lang Language) bool {
	switch lang {
	case LanguageCWL:
		return e.CWL
	case LanguageWDL:
		return e.WDL
	case LanguageSnakemake:
		return e.Snakemake
	case LanguageNextflow:
		return e.Nextflow
	default:
		return false
	}
}

func (e *SourceExists) Set(lang Language, exists bool) {
	switch lang {
	case LanguageCWL:
		e.CWL = exists
	case LanguageWDL:
		e.WDL = exists
	case LanguageSnakemake:
		e.Snakemake = exists
	case LanguageNextflow:
		e.Nextflow = exists
	}
}

// Entry locates one record in the repository. Paths are relative to the
// repository root except WorkflowPath, which is relative to the workflow's
// metadata file.
type Entry struct {
	Type             EntryType
	MetadataPath     string
	Path             string
	Name             string
	VersionName      string
	MetadataStatus   Status
	CWLStatus        Status
	WDLStatus        Status
	SnakemakeStatus  Status
	NextflowStatus   Status
	WorkflowLanguage Language
	WorkflowStatus   Status
	WorkflowPath     string

	// Exists is set only when the map was built with existence checks.
	Exists *SourceExists
}

// Fields flattens the entry into the key/value form written to map files.
func (e Entry) Fields() map[string]any {
	fields := map[string]any{
		"type":           string(e.Type),
		"name":           e.Name,
		"metadataStatus": string(e.MetadataStatus),
	}
	putString(fields, "metadataPath", e.MetadataPath)
	putString(fields, "path", e.Path)
	putString(fields, "versionName", e.VersionName)
	putString(fields, "workflowLanguage", string(e.WorkflowLanguage))
	putString(fields, "workflowStatus", string(e.WorkflowStatus))
	putString(fields, "workflowPath", e.WorkflowPath)
	for _, lang := range Languages {
		putString(fields, lang.StatusField(), string(e.LanguageStatus(lang)))
		if e.Exists != nil {
			fields[lang.ExistsField()] = e.Exists.Get(lang)
		}
	}
	return fields
}

func putString(fields map[string]any, key, value string) {
	if value != "" {
		fields[key] = value
	}
}

// Location returns the path that best identifies the entry in errors.
func (e Entry) Location() string {
	if e.MetadataPath != "" {
		return e.MetadataPath
	}
	return e.Path
}

// LanguageStatus returns the entry's status for lang.
func (e Entry) LanguageStatus(lang Language) Status {
	switch lang {
	case LanguageCWL:
		return e.CWLStatus
	case LanguageWDL:
		return e.WDLStatus
	case LanguageSnakemake:
		return e.SnakemakeStatus
	case LanguageNextflow:
		return e.NextflowStatus
	default:
		return ""
	}
}

// SetLanguageStatuses copies per-language statuses onto the entry.
func (e *Entry) SetLanguageStatuses(statuses LanguageStatuses) {
	e.CWLStatus = statuses.CWL
	e.WDLStatus = statuses.WDL
	e.SnakemakeStatus = statuses.Snakemake
	e.NextflowStatus = statuses.Nextflow
}

// ContentMap maps identifiers to the records they name. Keys are unique.
type ContentMap struct {
	entries map[string]Entry
}

func NewContentMap() *ContentMap {
	return &ContentMap{entries: make(map[string]Entry)}
}

// InsertUnique adds entry under id and fails when id is already present.
func (m *ContentMap) InsertUnique(id string, entry Entry) error {
	if m.entries == nil {
		m.entries = make(map[string]Entry)
	}
	if existing, ok := m.entries[id]; ok {
		return &DuplicateKeyError{
			Identifier: id,
			Existing:   existing.Location(),
			Incoming:   entry.Location(),
		}
	}
	m.entries[id] = entry
	return nil
}

// Merge adds every entry of other. Nothing is added when any key is shared.
func (m *ContentMap) Merge(other *ContentMap) error {
	if other == nil {
		return nil
	}
	for _, id := range other.Identifiers() {
		if existing, ok := m.entries[id]; ok {
			return &DuplicateKeyError{
				Identifier: id,
				Existing:   existing.Location(),
				Incoming:   other.entries[id].Location(),
			}
		}
	}
	if m.entries == nil {
		m.entries = make(map[string]Entry, len(other.entries))
	}
	maps.Copy(m.entries, other.entries)
	return nil
}

func (m *ContentMap) Get(id string) (Entry, bool) {
	entry, ok := m.entries[id]
	return entry, ok
}

// Set replaces the entry for an existing id.
func (m *ContentMap) Set(id string, entry Entry) bool {
	if _, ok := m.entries[id]; !ok {
		return false
	}
	m.entries[id] = entry
	return true
}

func (m *ContentMap) Len() int {
	return len(m.entries)
}

// Identifiers returns the keys in sorted order.
func (m *ContentMap) Identifiers() []string {
	return slices.Sorted(maps.Keys(m.entries))
}

// Entries returns a copy of the underlying map for serialization.
func (m *ContentMap) Entries() map[string]Entry {
	return maps.Clone(m.entries)
}
