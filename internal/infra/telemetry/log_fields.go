package telemetry

import (
	"time"

	"go.uber.org/zap"
)

const (
	FieldEvent      = "event"
	FieldIdentifier = "identifier"
	FieldPath       = "path"
	FieldRecord     = "record"
	FieldScope      = "scope"
	FieldLanguage   = "language"
	FieldDurationMs = "duration_ms"
	FieldRunID      = "run_id"
)

const (
	EventIdentifierCollision = "identifier_collision"
	EventIdentifierReserved  = "identifier_reserved"
	EventRecordLoaded        = "record_loaded"
	EventRecordWritten       = "record_written"
	EventMapBuilt            = "map_built"
	EventStatusPromoted      = "status_promoted"
	EventPromotionFailure    = "promotion_failure"
	EventIndexRefreshed      = "index_refreshed"
)

func EventField(event string) zap.Field {
	return zap.String(FieldEvent, event)
}

func IdentifierField(id string) zap.Field {
	return zap.String(FieldIdentifier, id)
}

func PathField(path string) zap.Field {
	return zap.String(FieldPath, path)
}

func RecordField(kind string) zap.Field {
	return zap.String(FieldRecord, kind)
}

func ScopeField(scope string) zap.Field {
	return zap.String(FieldScope, scope)
}

func LanguageField(language string) zap.Field {
	return zap.String(FieldLanguage, language)
}

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}

func RunIDField(value string) zap.Field {
	return zap.String(FieldRunID, value)
}
