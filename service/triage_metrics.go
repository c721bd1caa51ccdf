package service

import (
	"nagrikrakshak/models"
	"sync"
	"time"
)

// TriageMetricsSnapshot is a point-in-time copy of the triage counters
type TriageMetricsSnapshot struct {
	StartedAt      time.Time  `json:"started_at"`
	Uptime         string     `json:"uptime"`
	Batches        int64      `json:"batches"`
	Classified     int64      `json:"classified"`
	FlaggedOverdue int64      `json:"flagged_overdue"`
	Skipped        int64      `json:"skipped"`
	Ignored        int64      `json:"ignored"`
	Failed         int64      `json:"failed"`
	LastBatchAt    *time.Time `json:"last_batch_at,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
}

// TriageMetrics counts triage outcomes for the health endpoint.
// Safe for concurrent use by the feed worker, the sweeper and HTTP handlers.
type TriageMetrics struct {
	mu   sync.RWMutex
	snap TriageMetricsSnapshot
}

// NewTriageMetrics creates metrics with the start time set to now
func NewTriageMetrics() *TriageMetrics {
	return &TriageMetrics{snap: TriageMetricsSnapshot{StartedAt: time.Now().UTC()}}
}

// RecordBatch marks the completion of one change batch
func (m *TriageMetrics) RecordBatch(at time.Time) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	at = at.UTC()
	m.snap.Batches++
	m.snap.LastBatchAt = &at
}

// RecordResult counts one processed event. err is the store error, if any.
func (m *TriageMetrics) RecordResult(result *models.TriageResult, err error) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.snap.Failed++
		m.snap.LastError = err.Error()
		return
	}
	if result == nil {
		return
	}
	switch result.Outcome {
	case models.OutcomeClassified:
		m.snap.Classified++
	case models.OutcomeFlaggedOverdue:
		m.snap.FlaggedOverdue++
	case models.OutcomeSkipped:
		m.snap.Skipped++
	case models.OutcomeIgnored:
		m.snap.Ignored++
	}
}

// Snapshot returns a copy of the counters
func (m *TriageMetrics) Snapshot() TriageMetricsSnapshot {
	if m == nil {
		return TriageMetricsSnapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snap
	if snap.LastBatchAt != nil {
		t := *snap.LastBatchAt
		snap.LastBatchAt = &t
	}
	snap.Uptime = time.Since(snap.StartedAt).Round(time.Second).String()
	return snap
}
