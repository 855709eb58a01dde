package inheritance

import (
	"fmt"

	"github.com/truwl/capanno-utils/internal/domain"
)

// ApplySubtool fills a subtool's description and keywords from its resolved
// parent tool. Filled fields are recorded in s.Inherited.
func ApplySubtool(s *domain.Subtool) ([]string, error) {
	parent, ok := s.Parent.Record()
	if !ok || parent == nil {
		return nil, domain.ErrParentMissing
	}
	filled, err := Resolve(s, parent, domain.SubtoolInheritedFields)
	if err != nil {
		return nil, err
	}
	s.Inherited = markInherited(s.Inherited, filled)
	return filled, nil
}

// ApplyScript fills a script from each resolved common metadata record in
// the order listed by the script. Earlier records take precedence.
func ApplyScript(s *domain.Script) ([]string, error) {
	var filled []string
	for i := range s.Common {
		common, ok := s.Common[i].Record()
		if !ok || common == nil {
			return filled, fmt.Errorf("common metadata %s: %w", s.Common[i].Path(), domain.ErrParentMissing)
		}
		names, err := Resolve(s, common, domain.CommonScriptFields)
		if err != nil {
			return filled, err
		}
		filled = append(filled, names...)
	}
	s.Inherited = markInherited(s.Inherited, filled)
	return filled, nil
}

func markInherited(set domain.FieldSet, fields []string) domain.FieldSet {
	if len(fields) == 0 {
		return set
	}
	if set == nil {
		set = domain.NewFieldSet()
	}
	for _, field := range fields {
		set[field] = struct{}{}
	}
	return set
}
