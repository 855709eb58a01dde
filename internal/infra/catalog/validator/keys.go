package validator

import (
	"fmt"
	"slices"

	"github.com/truwl/capanno-utils/internal/domain"
)

// RecordFields returns the document keys a record kind declares, in file order.
func RecordFields(kind domain.RecordKind) ([]string, error) {
	switch kind {
	case domain.RecordParentTool:
		return domain.ParentToolFields, nil
	case domain.RecordSubtool:
		return domain.SubtoolFields, nil
	case domain.RecordToolInstance:
		return domain.ToolInstanceFields, nil
	case domain.RecordScript:
		return domain.ScriptFields, nil
	case domain.RecordCommonScript:
		return domain.CommonScriptFields, nil
	case domain.RecordWorkflow:
		return domain.WorkflowFields, nil
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
}

// UnknownKeys returns the keys that kind does not declare.
func UnknownKeys(kind domain.RecordKind, keys []string) ([]string, error) {
	fields, err := RecordFields(kind)
	if err != nil {
		return nil, err
	}
	var unknown []string
	for _, key := range keys {
		if !slices.Contains(fields, key) {
			unknown = append(unknown, key)
		}
	}
	return unknown, nil
}

// ValidateFeatureList checks that each subtool name appears in the
// parent's featureList.
func ValidateFeatureList(parent *domain.ParentTool, subtools []string) []string {
	var errs []string
	for _, name := range subtools {
		if !parent.HasFeature(name) {
			errs = append(errs, fmt.Sprintf("%s: %q is not in featureList", parent.Name, name))
		}
	}
	return errs
}
