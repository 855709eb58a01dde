package domain

import (
	"regexp"
	"strings"
)

// Kind classifies an identifier by the record it names.
type Kind string

const (
	KindParentTool       Kind = "parent"
	KindSubtool          Kind = "subtool"
	KindToolInstance     Kind = "tool instance"
	KindScript           Kind = "script"
	KindScriptInstance   Kind = "script instance"
	KindWorkflow         Kind = "workflow"
	KindWorkflowInstance Kind = "workflow instance"
)

// ContentType is the top-level repository area a record lives in.
type ContentType string

const (
	ContentTool     ContentType = "tool"
	ContentScript   ContentType = "script"
	ContentWorkflow ContentType = "workflow"
)

const (
	ToolPrefix     = "TL"
	ScriptPrefix   = "ST"
	WorkflowPrefix = "WF"
)

var identifierPatterns = map[Kind]*regexp.Regexp{
	KindParentTool:       regexp.MustCompile(`^TL_[0-9a-f]{6}\.[0-9a-f]{2}$`),
	KindSubtool:          regexp.MustCompile(`^TL_[0-9a-f]{6}_[0-9a-f]{2}\.[0-9a-f]{2}$`),
	KindToolInstance:     regexp.MustCompile(`^TL_[0-9a-f]{6}_[0-9a-f]{2}\.[0-9a-f]{2}\.[0-9a-f]{4}$`),
	KindScript:           regexp.MustCompile(`^ST_[0-9a-f]{6}\.[0-9a-f]{2}$`),
	KindScriptInstance:   regexp.MustCompile(`^ST_[0-9a-f]{6}\.[0-9a-f]{2}\.[0-9a-f]{4}$`),
	KindWorkflow:         regexp.MustCompile(`^WF_[0-9a-f]{6}\.[0-9a-f]{2}$`),
	KindWorkflowInstance: regexp.MustCompile(`^WF_[0-9a-f]{6}\.[0-9a-f]{2}\.[0-9a-f]{4}$`),
}

var kindOrder = []Kind{
	KindParentTool,
	KindSubtool,
	KindToolInstance,
	KindScript,
	KindScriptInstance,
	KindWorkflow,
	KindWorkflowInstance,
}

// Prefix returns the identifier prefix used by kind.
func (k Kind) Prefix() string {
	switch k {
	case KindParentTool, KindSubtool, KindToolInstance:
		return ToolPrefix
	case KindScript, KindScriptInstance:
		return ScriptPrefix
	case KindWorkflow, KindWorkflowInstance:
		return WorkflowPrefix
	default:
		return ""
	}
}

// InstanceKind returns the instance kind derived from k.
func (k Kind) InstanceKind() (Kind, bool) {
	switch k {
	case KindSubtool:
		return KindToolInstance, true
	case KindScript:
		return KindScriptInstance, true
	case KindWorkflow:
		return KindWorkflowInstance, true
	default:
		return "", false
	}
}

// ValidateIdentifier checks id against the grammar of kind.
func ValidateIdentifier(kind Kind, id string) error {
	pattern, ok := identifierPatterns[kind]
	if !ok || !pattern.MatchString(id) {
		return &MalformedIdentifierError{Identifier: id, Kind: kind}
	}
	return nil
}

// KindOf returns the kind whose grammar id matches.
func KindOf(id string) (Kind, error) {
	for _, kind := range kindOrder {
		if identifierPatterns[kind].MatchString(id) {
			return kind, nil
		}
	}
	return "", &MalformedIdentifierError{Identifier: id}
}

// ContentTypeOf reads the content type from the identifier prefix.
func ContentTypeOf(id string) (ContentType, error) {
	prefix, _, ok := strings.Cut(id, "_")
	if ok {
		switch prefix {
		case ToolPrefix:
			return ContentTool, nil
		case ScriptPrefix:
			return ContentScript, nil
		case WorkflowPrefix:
			return ContentWorkflow, nil
		}
	}
	return "", &MalformedIdentifierError{Identifier: id}
}

// SubtoolBelongsTo reports whether subtoolID carries parentID's name hash
// prefix and version suffix.
func SubtoolBelongsTo(subtoolID, parentID string) bool {
	if len(parentID) < 9 {
		return false
	}
	return strings.HasPrefix(subtoolID, parentID[:9]) && strings.HasSuffix(subtoolID, parentID[len(parentID)-3:])
}

// ParentOf returns the parent tool identifier a subtool identifier was
// derived from, or "" when subtoolID is not a subtool identifier.
func ParentOf(subtoolID string) string {
	if err := ValidateIdentifier(KindSubtool, subtoolID); err != nil {
		return ""
	}
	return subtoolID[:9] + subtoolID[len(subtoolID)-3:]
}
