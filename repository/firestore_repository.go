package repository

import (
	"context"
	"errors"
	"fmt"
	"nagrikrakshak/models"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreRepository is the Firestore-backed ComplaintStore. The change
// feed is a collection snapshot listener.
type FirestoreRepository struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreRepository connects to Firestore with service-account credentials
func NewFirestoreRepository(ctx context.Context, projectID, collection string, credentialsJSON []byte) (*FirestoreRepository, error) {
	client, err := firestore.NewClient(ctx, projectID, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &FirestoreRepository{client: client, collection: collection}, nil
}

// Subscribe listens to the complaints collection and forwards each snapshot's
// document changes as one batch. The listener's first snapshot reports every
// existing document as added.
func (r *FirestoreRepository) Subscribe(ctx context.Context, out chan<- models.ChangeBatch) error {
	it := r.client.Collection(r.collection).Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, iterator.Done) {
				return fmt.Errorf("complaint listener stopped unexpectedly")
			}
			return fmt.Errorf("complaint listener failed: %w", err)
		}

		batch := models.ChangeBatch{ReadTime: snap.ReadTime.UTC()}
		for _, change := range snap.Changes {
			batch.Events = append(batch.Events, changeEventFromFirestore(change))
		}

		select {
		case out <- batch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func changeEventFromFirestore(change firestore.DocumentChange) models.ChangeEvent {
	id := change.Doc.Ref.ID
	event := models.ChangeEvent{
		ComplaintID: id,
		Complaint:   models.ComplaintFromFields(id, change.Doc.Data()),
	}
	switch change.Kind {
	case firestore.DocumentAdded:
		event.Type = models.ChangeAdded
	case firestore.DocumentModified:
		event.Type = models.ChangeModified
	case firestore.DocumentRemoved:
		event.Type = models.ChangeRemoved
	}
	return event
}

// UpdateFields merges fields into one document
func (r *FirestoreRepository) UpdateFields(ctx context.Context, complaintID string, fields models.FieldUpdates) error {
	updates, err := firestoreUpdates(fields)
	if err != nil {
		return err
	}

	_, err = r.client.Collection(r.collection).Doc(complaintID).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("update %s: %w", complaintID, ErrComplaintNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update complaint %s: %w", complaintID, err)
	}
	return nil
}

// firestoreUpdates converts a FieldUpdates map into Firestore updates, in
// sorted field order. Audit entries are appended with ArrayUnion so existing
// entries are never rewritten.
func firestoreUpdates(fields models.FieldUpdates) ([]firestore.Update, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	updates := make([]firestore.Update, 0, len(names))
	for _, name := range names {
		value := fields[name]
		switch v := value.(type) {
		case models.ActionAppend:
			value = firestore.ArrayUnion(v.Entry)
		case models.ComplaintStatus:
			value = string(v)
		case models.Department:
			value = string(v)
		case models.Priority:
			value = string(v)
		case time.Time:
			value = v.UTC()
		}
		updates = append(updates, firestore.Update{Path: name, Value: value})
	}
	return updates, nil
}

// ListOpenComplaints returns complaints that are neither under action nor resolved
func (r *FirestoreRepository) ListOpenComplaints(ctx context.Context) ([]models.Complaint, error) {
	query := r.client.Collection(r.collection).
		Where(models.FieldStatus, "not-in", []interface{}{string(models.StatusUnderAction), string(models.StatusResolved)})

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query open complaints: %w", err)
	}

	complaints := make([]models.Complaint, 0, len(docs))
	for _, doc := range docs {
		complaints = append(complaints, models.ComplaintFromFields(doc.Ref.ID, doc.Data()))
	}
	return complaints, nil
}

// Close releases the Firestore client
func (r *FirestoreRepository) Close() error {
	return r.client.Close()
}
