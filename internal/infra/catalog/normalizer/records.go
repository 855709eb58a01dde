package normalizer

import (
	"reflect"
	"strings"

	"github.com/truwl/capanno-utils/internal/domain"
)

// Placeholder list items written for empty fields decode to zero values.
// The normalizers drop them so a written record loads back unchanged.

func ParentTool(p *domain.ParentTool) {
	p.Name = strings.TrimSpace(p.Name)
	p.FeatureList = compactStrings(p.FeatureList)
	p.SoftwareVersion.IncludedVersions = compactStrings(p.SoftwareVersion.IncludedVersions)
	p.WebSite = compact(p.WebSite)
	p.ContactPoint = compact(p.ContactPoint)
	p.Publication = compact(p.Publication)
	p.Keywords = compact(p.Keywords)
	p.AlternateName = compactStrings(p.AlternateName)
	p.Creator = compact(p.Creator)
	p.ProgrammingLanguage = compactStrings(p.ProgrammingLanguage)
	p.Extra = compactMap(p.Extra)
}

func Subtool(s *domain.Subtool) {
	s.Name = strings.TrimSpace(s.Name)
	s.Keywords = compact(s.Keywords)
	s.AlternateName = compactStrings(s.AlternateName)
	s.Extra = compactMap(s.Extra)
}

func ToolInstance(t *domain.ToolInstance) {
	t.InputObjects = compact(t.InputObjects)
	t.OutputObjects = compact(t.OutputObjects)
	for i := range t.InputObjects {
		t.InputObjects[i].Objects = compact(t.InputObjects[i].Objects)
	}
	for i := range t.OutputObjects {
		t.OutputObjects[i].Objects = compact(t.OutputObjects[i].Objects)
	}
	t.Extra = compactMap(t.Extra)
}

func Script(s *domain.Script) {
	s.Name = strings.TrimSpace(s.Name)
	s.SoftwareVersion.IncludedVersions = compactStrings(s.SoftwareVersion.IncludedVersions)
	s.WebSite = compact(s.WebSite)
	s.ContactPoint = compact(s.ContactPoint)
	s.Publication = compact(s.Publication)
	s.Keywords = compact(s.Keywords)
	s.ParentScripts = compact(s.ParentScripts)
	s.Tools = compact(s.Tools)
	s.AlternateName = compactStrings(s.AlternateName)
	s.Creator = compact(s.Creator)
	s.ProgrammingLanguage = compactStrings(s.ProgrammingLanguage)
	s.ParentMetadata = compactStrings(s.ParentMetadata)
}

func CommonScript(c *domain.CommonScript) {
	c.SoftwareVersion.IncludedVersions = compactStrings(c.SoftwareVersion.IncludedVersions)
	c.WebSite = compact(c.WebSite)
	c.ContactPoint = compact(c.ContactPoint)
	c.Publication = compact(c.Publication)
	c.Keywords = compact(c.Keywords)
	c.Creator = compact(c.Creator)
	c.ProgrammingLanguage = compactStrings(c.ProgrammingLanguage)
	c.ParentScripts = compact(c.ParentScripts)
	c.Tools = compact(c.Tools)
}

func Workflow(w *domain.Workflow) {
	w.Name = strings.TrimSpace(w.Name)
	w.SoftwareVersion.IncludedVersions = compactStrings(w.SoftwareVersion.IncludedVersions)
	w.CallMap = compact(w.CallMap)
	w.WebSite = compact(w.WebSite)
	w.ContactPoint = compact(w.ContactPoint)
	w.Publication = compact(w.Publication)
	w.Keywords = compact(w.Keywords)
	w.AlternateName = compactStrings(w.AlternateName)
	w.Creator = compact(w.Creator)
	w.ProgrammingLanguage = compactStrings(w.ProgrammingLanguage)
}

// compact drops zero-valued items and returns nil when none remain.
func compact[T any](items []T) []T {
	var out []T
	for _, item := range items {
		if reflect.ValueOf(&item).Elem().IsZero() {
			continue
		}
		out = append(out, item)
	}
	return out
}

func compactStrings(items []string) []string {
	var out []string
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func compactMap(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	return m
}
