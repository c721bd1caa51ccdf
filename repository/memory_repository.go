package repository

import (
	"context"
	"fmt"
	"nagrikrakshak/models"
	"sync"
	"time"
)

// MemoryComplaintStore is an in-process ComplaintStore. Like a document
// store, it reports its own writes back to subscribers as modified events.
type MemoryComplaintStore struct {
	mu          sync.Mutex
	docs        map[string]models.Complaint
	order       []string
	subscribers map[*memorySubscriber]struct{}
	updateErr   func(complaintID string) error
	ackErr      func(complaintID string) error
	updateCalls int
}

type memorySubscriber struct {
	pending []models.ChangeBatch
	notify  chan struct{}
}

// NewMemoryComplaintStore creates an empty in-memory store
func NewMemoryComplaintStore() *MemoryComplaintStore {
	return &MemoryComplaintStore{
		docs:        make(map[string]models.Complaint),
		subscribers: make(map[*memorySubscriber]struct{}),
	}
}

// Insert adds a complaint and publishes an added event
func (s *MemoryComplaintStore) Insert(c models.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		return fmt.Errorf("complaint id is required")
	}
	if _, exists := s.docs[c.ID]; exists {
		return fmt.Errorf("complaint %s already exists", c.ID)
	}
	s.docs[c.ID] = cloneComplaint(c)
	s.order = append(s.order, c.ID)
	s.publishLocked(models.ChangeEvent{Type: models.ChangeAdded, ComplaintID: c.ID, Complaint: cloneComplaint(c)})
	return nil
}

// Remove deletes a complaint and publishes a removed event
func (s *MemoryComplaintStore) Remove(complaintID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.docs[complaintID]
	if !ok {
		return
	}
	delete(s.docs, complaintID)
	for i, id := range s.order {
		if id == complaintID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.publishLocked(models.ChangeEvent{Type: models.ChangeRemoved, ComplaintID: complaintID, Complaint: c})
}

// Get returns a copy of the stored complaint
func (s *MemoryComplaintStore) Get(complaintID string) (models.Complaint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.docs[complaintID]
	return cloneComplaint(c), ok
}

// UpdateCalls returns how many UpdateFields calls reached the store
func (s *MemoryComplaintStore) UpdateCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCalls
}

// FailUpdatesWith installs a hook consulted before every update; a non-nil
// error from it fails the update without touching the document.
func (s *MemoryComplaintStore) FailUpdatesWith(fn func(complaintID string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateErr = fn
}

// FailAcksWith installs a hook consulted after an update is applied; a non-nil
// error from it is returned although the write already took effect, like a
// connection lost before the acknowledgement arrives.
func (s *MemoryComplaintStore) FailAcksWith(fn func(complaintID string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ackErr = fn
}

// UpdateFields merges fields into the stored complaint and publishes a
// modified event carrying the new snapshot.
func (s *MemoryComplaintStore) UpdateFields(ctx context.Context, complaintID string, fields models.FieldUpdates) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.updateCalls++
	if s.updateErr != nil {
		if err := s.updateErr(complaintID); err != nil {
			return err
		}
	}

	c, ok := s.docs[complaintID]
	if !ok {
		return fmt.Errorf("update %s: %w", complaintID, ErrComplaintNotFound)
	}
	if err := applyFields(&c, fields); err != nil {
		return fmt.Errorf("update %s: %w", complaintID, err)
	}
	s.docs[complaintID] = c
	s.publishLocked(models.ChangeEvent{Type: models.ChangeModified, ComplaintID: complaintID, Complaint: cloneComplaint(c)})
	if s.ackErr != nil {
		return s.ackErr(complaintID)
	}
	return nil
}

// ListOpenComplaints returns complaints that are neither under action nor resolved
func (s *MemoryComplaintStore) ListOpenComplaints(ctx context.Context) ([]models.Complaint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var open []models.Complaint
	for _, id := range s.order {
		if c := s.docs[id]; isOpen(c) {
			open = append(open, cloneComplaint(c))
		}
	}
	return open, nil
}

// Subscribe delivers an initial batch with every stored complaint, then every
// subsequent change, until ctx ends.
func (s *MemoryComplaintStore) Subscribe(ctx context.Context, out chan<- models.ChangeBatch) error {
	sub := &memorySubscriber{notify: make(chan struct{}, 1)}

	s.mu.Lock()
	initial := models.ChangeBatch{ReadTime: time.Now().UTC()}
	for _, id := range s.order {
		initial.Events = append(initial.Events, models.ChangeEvent{
			Type:        models.ChangeAdded,
			ComplaintID: id,
			Complaint:   cloneComplaint(s.docs[id]),
		})
	}
	sub.pending = append(sub.pending, initial)
	sub.signal()
	s.subscribers[sub] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.subscribers, sub)
		s.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.notify:
		}

		s.mu.Lock()
		batches := sub.pending
		sub.pending = nil
		s.mu.Unlock()

		for _, batch := range batches {
			select {
			case out <- batch:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Close is a no-op for the in-memory store
func (s *MemoryComplaintStore) Close() error {
	return nil
}

// publishLocked queues a single-event batch for every subscriber. Queues are
// unbounded so writers never block on a slow reader. Caller holds s.mu.
func (s *MemoryComplaintStore) publishLocked(event models.ChangeEvent) {
	batch := models.ChangeBatch{Events: []models.ChangeEvent{event}, ReadTime: time.Now().UTC()}
	for sub := range s.subscribers {
		sub.pending = append(sub.pending, batch)
		sub.signal()
	}
}

func (sub *memorySubscriber) signal() {
	select {
	case sub.notify <- struct{}{}:
	default:
	}
}

// applyFields merges a FieldUpdates map into a complaint
func applyFields(c *models.Complaint, fields models.FieldUpdates) error {
	for field, value := range fields {
		switch field {
		case models.FieldDescription:
			c.Description = fmt.Sprint(value)
		case models.FieldStatus:
			c.Status = models.ComplaintStatus(fmt.Sprint(value))
		case models.FieldDepartment:
			c.Department = models.Department(fmt.Sprint(value))
		case models.FieldDepartmentConfidence:
			n, ok := value.(int)
			if !ok {
				return fmt.Errorf("field %s: expected int, got %T", field, value)
			}
			c.DepartmentConfidence = n
		case models.FieldPriority:
			c.Priority = models.Priority(fmt.Sprint(value))
		case models.FieldPriorityConfidence:
			n, ok := value.(int)
			if !ok {
				return fmt.Errorf("field %s: expected int, got %T", field, value)
			}
			c.PriorityConfidence = n
		case models.FieldDeadline:
			t, ok := value.(time.Time)
			if !ok {
				return fmt.Errorf("field %s: expected time.Time, got %T", field, value)
			}
			t = t.UTC()
			c.Deadline = &t
		case models.FieldLastUpdated:
			t, ok := value.(time.Time)
			if !ok {
				return fmt.Errorf("field %s: expected time.Time, got %T", field, value)
			}
			t = t.UTC()
			c.LastUpdated = &t
		case models.FieldOverdue:
			b, ok := value.(bool)
			if !ok {
				return fmt.Errorf("field %s: expected bool, got %T", field, value)
			}
			c.Overdue = b
		case models.FieldActions:
			appendAction, ok := value.(models.ActionAppend)
			if !ok {
				return fmt.Errorf("field %s: expected models.ActionAppend, got %T", field, value)
			}
			if !containsAction(c.Actions, appendAction.Entry) {
				c.Actions = append(c.Actions, appendAction.Entry)
			}
		default:
			return fmt.Errorf("unknown field %q", field)
		}
	}
	return nil
}

// containsAction gives appends set-union semantics, as the document and SQL
// stores do
func containsAction(actions []models.ActionEntry, entry models.ActionEntry) bool {
	for _, a := range actions {
		if a.Action == entry.Action && a.By == entry.By && a.Timestamp.Equal(entry.Timestamp) {
			return true
		}
	}
	return false
}

func cloneComplaint(c models.Complaint) models.Complaint {
	out := c
	if c.Actions != nil {
		out.Actions = append([]models.ActionEntry(nil), c.Actions...)
	}
	if c.Deadline != nil {
		d := *c.Deadline
		out.Deadline = &d
	}
	if c.LastUpdated != nil {
		u := *c.LastUpdated
		out.LastUpdated = &u
	}
	return out
}
