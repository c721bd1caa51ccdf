package repository

import (
	"context"
	"errors"
	"nagrikrakshak/models"
)

// ErrComplaintNotFound is returned by UpdateFields for an unknown id
var ErrComplaintNotFound = errors.New("complaint not found")

// ComplaintStore is the record store the triage worker runs against.
//
// Subscribe blocks, delivering change batches to out in feed order, until ctx
// ends (returns ctx.Err()) or the feed fails (returns the failure). The first
// batch lists every existing document as added, as document stores do for a
// fresh listener.
//
// UpdateFields merges fields into one document. A models.ActionAppend value
// under models.FieldActions appends a single audit entry atomically.
type ComplaintStore interface {
	Subscribe(ctx context.Context, out chan<- models.ChangeBatch) error
	UpdateFields(ctx context.Context, complaintID string, fields models.FieldUpdates) error
	ListOpenComplaints(ctx context.Context) ([]models.Complaint, error)
	Close() error
}

// isOpen reports whether a complaint is still subject to overdue tracking
func isOpen(c models.Complaint) bool {
	return !c.IsWorkStarted()
}
