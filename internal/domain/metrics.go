package domain

import "time"

// OutcomeStatus labels whether an observed operation failed.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeError   OutcomeStatus = "error"
)

// OutcomeOf maps err to an outcome label.
func OutcomeOf(err error) OutcomeStatus {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// RecordKind names the metadata record types for logs and metrics.
type RecordKind string

const (
	RecordParentTool   RecordKind = "parent_tool"
	RecordSubtool      RecordKind = "subtool"
	RecordToolInstance RecordKind = "tool_instance"
	RecordScript       RecordKind = "script"
	RecordCommonScript RecordKind = "common_script"
	RecordWorkflow     RecordKind = "workflow"
)

// MapBuildMetric captures one content map build.
type MapBuildMetric struct {
	Scope    string
	Entries  int
	Duration time.Duration
	Status   OutcomeStatus
}

// Metrics records repository operation counters.
type Metrics interface {
	ObserveCollision(kind Kind)
	ObserveRecordLoaded(kind RecordKind, err error)
	ObserveMapBuild(metric MapBuildMetric)
	ObservePromotion(language Language, err error)
}
