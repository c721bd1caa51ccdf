package models

import "time"

// TriageOutcome describes what the triage worker did with one change event
type TriageOutcome string

const (
	OutcomeClassified     TriageOutcome = "classified"
	OutcomeFlaggedOverdue TriageOutcome = "flagged_overdue"
	OutcomeSkipped        TriageOutcome = "skipped"
	OutcomeIgnored        TriageOutcome = "ignored"
)

// Classification is the keyword classifier's verdict for one description
type Classification struct {
	Department           Department `json:"department"`
	DepartmentConfidence int        `json:"department_confidence"`
	Priority             Priority   `json:"priority"`
	PriorityConfidence   int        `json:"priority_confidence"`
	Deadline             time.Time  `json:"deadline"`
}

// TriageResult represents the result of processing a single change event
type TriageResult struct {
	ComplaintID    string          `json:"complaint_id"`
	EventType      ChangeType      `json:"event_type"`
	Outcome        TriageOutcome   `json:"outcome"`
	Classification *Classification `json:"classification,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	DryRun         bool            `json:"dry_run,omitempty"`
	ProcessedAt    time.Time       `json:"processed_at"`
}
