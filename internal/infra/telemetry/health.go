package telemetry

import (
	"sync"
	"time"
)

const (
	healthOK       = "ok"
	healthDegraded = "degraded"
)

// HealthReport is the /healthz payload.
type HealthReport struct {
	Status      string    `json:"status"`
	LastRefresh time.Time `json:"lastRefresh,omitzero"`
	Identifiers int       `json:"identifiers"`
	ContentETag string    `json:"contentEtag,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// HealthTracker remembers the outcome of the latest index refresh.
type HealthTracker struct {
	mu     sync.RWMutex
	report HealthReport
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{report: HealthReport{Status: healthOK}}
}

// RecordRefresh stores the outcome of an index refresh. A failed refresh
// keeps the counts of the last successful one.
func (h *HealthTracker) RecordRefresh(identifiers int, etag string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.report.LastRefresh = time.Now().UTC()
	if err != nil {
		h.report.Status = healthDegraded
		h.report.Error = err.Error()
		return
	}
	h.report.Status = healthOK
	h.report.Error = ""
	h.report.Identifiers = identifiers
	h.report.ContentETag = etag
}

func (h *HealthTracker) Report() HealthReport {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.report
}
