package service

import (
	"context"
	"fmt"
	"log"
	"nagrikrakshak/models"
	"time"
)

// ComplaintUpdater is the write side of the record store used by triage
type ComplaintUpdater interface {
	UpdateFields(ctx context.Context, complaintID string, fields models.FieldUpdates) error
}

// TriageOptions tunes the triage service. Zero values fall back to defaults.
type TriageOptions struct {
	DryRun           bool             // TRIAGE_DRY_RUN: classify and log, never write
	UpdateMaxRetries int              // UPDATE_MAX_RETRIES: attempts per store write (default 3)
	UpdateRetryDelay time.Duration    // UPDATE_RETRY_DELAY_MS: base delay, multiplied by attempt number
	Now              func() time.Time // clock; defaults to time.Now
}

// TriageService reacts to complaint change events: it classifies new
// complaints and flags overdue ones
type TriageService struct {
	store      ComplaintUpdater
	dryRun     bool
	maxRetries int
	retryDelay time.Duration
	now        func() time.Time
}

// NewTriageService creates a new triage service
func NewTriageService(store ComplaintUpdater, opts TriageOptions) *TriageService {
	s := &TriageService{
		store:      store,
		dryRun:     opts.DryRun,
		maxRetries: opts.UpdateMaxRetries,
		retryDelay: opts.UpdateRetryDelay,
		now:        opts.Now,
	}
	if s.maxRetries < 1 {
		s.maxRetries = 3
	}
	if s.retryDelay < 0 {
		s.retryDelay = 0
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ClassifyDescription runs the full keyword pipeline on raw complaint text:
// normalize, classify department and priority, derive the deadline from now.
func ClassifyDescription(description string, now time.Time) models.Classification {
	text := NormalizeText(description)
	department, deptConf := ClassifyDepartment(text)
	priority, prConf := ClassifyPriority(text)
	return models.Classification{
		Department:           department,
		DepartmentConfidence: deptConf,
		Priority:             priority,
		PriorityConfidence:   prConf,
		Deadline:             ComputeDeadline(priority, now),
	}
}

// HandleEvent dispatches one change event.
//
// Flow:
// 1. added    → classify if status is still "new"
// 2. modified → flag overdue if work has not started and the deadline passed
// 3. removed  → ignored
//
// A non-nil error means the store write for this complaint failed; the
// returned result still describes what was attempted.
func (s *TriageService) HandleEvent(ctx context.Context, event models.ChangeEvent) (*models.TriageResult, error) {
	// Either id may be the only one set
	if event.Complaint.ID == "" {
		event.Complaint.ID = event.ComplaintID
	}
	if event.ComplaintID == "" {
		event.ComplaintID = event.Complaint.ID
	}

	switch event.Type {
	case models.ChangeAdded:
		return s.classifyNewComplaint(ctx, event)
	case models.ChangeModified:
		return s.checkOverdue(ctx, event)
	default:
		return s.result(event, models.OutcomeIgnored, "event type not handled"), nil
	}
}

// classifyNewComplaint assigns department, priority and deadline exactly once.
// The status == new guard makes redelivered events harmless.
func (s *TriageService) classifyNewComplaint(ctx context.Context, event models.ChangeEvent) (*models.TriageResult, error) {
	complaint := event.Complaint
	if complaint.Status != models.StatusNew {
		return s.result(event, models.OutcomeSkipped, fmt.Sprintf("status is %q, not new", complaint.Status)), nil
	}

	now := s.now().UTC()
	classification := ClassifyDescription(complaint.Description, now)

	entry := models.ActionEntry{
		Action:    fmt.Sprintf("AI classified as %s priority for %s department", classification.Priority, classification.Department),
		Timestamp: now,
		By:        models.ActorAISystem,
	}

	fields := models.FieldUpdates{
		models.FieldDepartment:           classification.Department,
		models.FieldDepartmentConfidence: classification.DepartmentConfidence,
		models.FieldPriority:             classification.Priority,
		models.FieldPriorityConfidence:   classification.PriorityConfidence,
		models.FieldStatus:               models.StatusClassified,
		models.FieldDeadline:             classification.Deadline,
		models.FieldActions:              models.ActionAppend{Entry: entry},
		models.FieldLastUpdated:          now,
	}

	result := s.result(event, models.OutcomeClassified, entry.Action)
	result.Classification = &classification

	if s.dryRun {
		log.Printf("[DRY RUN] %s → %s, %s, Deadline: %s (not written)",
			complaint.ID, classification.Department, classification.Priority, classification.Deadline.Format(time.RFC3339))
		return result, nil
	}

	if err := s.update(ctx, complaint.ID, "classify", fields); err != nil {
		return result, err
	}

	log.Printf("[TRIAGE] ✔ %s → %s, %s, Deadline: %s",
		complaint.ID, classification.Department, classification.Priority, classification.Deadline.Format(time.RFC3339))
	return result, nil
}

// checkOverdue flags a complaint whose deadline passed before work started.
// The flag is only ever set, never cleared.
func (s *TriageService) checkOverdue(ctx context.Context, event models.ChangeEvent) (*models.TriageResult, error) {
	complaint := event.Complaint
	if complaint.IsWorkStarted() {
		return s.result(event, models.OutcomeSkipped, fmt.Sprintf("status is %q", complaint.Status)), nil
	}
	if complaint.Overdue {
		return s.result(event, models.OutcomeSkipped, "already flagged overdue"), nil
	}

	now := s.now().UTC()
	if !IsOverdue(complaint.Deadline, now) {
		return s.result(event, models.OutcomeSkipped, "deadline not passed"), nil
	}

	result := s.result(event, models.OutcomeFlaggedOverdue, fmt.Sprintf("deadline %s passed", complaint.Deadline.UTC().Format(time.RFC3339)))
	if s.dryRun {
		log.Printf("[DRY RUN] ⚠ %s is OVERDUE (not written)", complaint.ID)
		return result, nil
	}

	fields := models.FieldUpdates{
		models.FieldOverdue:     true,
		models.FieldLastUpdated: now,
	}
	if err := s.update(ctx, complaint.ID, "flag overdue", fields); err != nil {
		return result, err
	}

	log.Printf("[TRIAGE] ⚠ %s is OVERDUE!", complaint.ID)
	return result, nil
}

// update writes fields with linear backoff between attempts. A failed attempt
// may still have committed, so every attempt sends the same absolute values
// and each store appends an audit entry only if it is not already present.
func (s *TriageService) update(ctx context.Context, complaintID, op string, fields models.FieldUpdates) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		lastErr = s.store.UpdateFields(ctx, complaintID, fields)
		if lastErr == nil {
			return nil
		}
		if attempt == s.maxRetries {
			break
		}
		log.Printf("[TRIAGE] %s %s attempt %d/%d failed: %v", op, complaintID, attempt, s.maxRetries, lastErr)

		select {
		case <-ctx.Done():
			return &StoreWriteError{ComplaintID: complaintID, Op: op, Attempts: attempt, Err: ctx.Err()}
		case <-time.After(s.retryDelay * time.Duration(attempt)):
		}
	}
	return &StoreWriteError{ComplaintID: complaintID, Op: op, Attempts: s.maxRetries, Err: lastErr}
}

func (s *TriageService) result(event models.ChangeEvent, outcome models.TriageOutcome, reason string) *models.TriageResult {
	return &models.TriageResult{
		ComplaintID: event.ComplaintID,
		EventType:   event.Type,
		Outcome:     outcome,
		Reason:      reason,
		DryRun:      s.dryRun,
		ProcessedAt: s.now().UTC(),
	}
}
