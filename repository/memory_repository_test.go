package repository

import (
	"context"
	"errors"
	"nagrikrakshak/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveBatch(t *testing.T, ch <-chan models.ChangeBatch) models.ChangeBatch {
	t.Helper()
	select {
	case batch := <-ch:
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change batch")
		return models.ChangeBatch{}
	}
}

func TestMemoryComplaintStore_SubscribeDeliversInitialAndChanges(t *testing.T) {
	store := NewMemoryComplaintStore()
	require.NoError(t, store.Insert(models.Complaint{ID: "a", Status: models.StatusNew}))
	require.NoError(t, store.Insert(models.Complaint{ID: "b", Status: models.StatusResolved}))

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan models.ChangeBatch, 8)
	done := make(chan error, 1)
	go func() { done <- store.Subscribe(ctx, out) }()

	initial := receiveBatch(t, out)
	require.Len(t, initial.Events, 2)
	assert.Equal(t, models.ChangeAdded, initial.Events[0].Type)
	assert.Equal(t, "a", initial.Events[0].ComplaintID)
	assert.Equal(t, "b", initial.Events[1].ComplaintID)

	require.NoError(t, store.UpdateFields(ctx, "a", models.FieldUpdates{models.FieldStatus: models.StatusClassified}))
	modified := receiveBatch(t, out)
	require.Len(t, modified.Events, 1)
	assert.Equal(t, models.ChangeModified, modified.Events[0].Type)
	assert.Equal(t, models.StatusClassified, modified.Events[0].Complaint.Status)

	require.NoError(t, store.Insert(models.Complaint{ID: "c", Status: models.StatusNew}))
	added := receiveBatch(t, out)
	require.Len(t, added.Events, 1)
	assert.Equal(t, models.ChangeAdded, added.Events[0].Type)

	store.Remove("b")
	removed := receiveBatch(t, out)
	require.Len(t, removed.Events, 1)
	assert.Equal(t, models.ChangeRemoved, removed.Events[0].Type)
	assert.Equal(t, "b", removed.Events[0].ComplaintID)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe did not return after cancel")
	}
}

func TestMemoryComplaintStore_UpdateFields(t *testing.T) {
	store := NewMemoryComplaintStore()
	require.NoError(t, store.Insert(models.Complaint{ID: "a", Status: models.StatusNew}))

	ist := time.FixedZone("IST", 5*3600+1800)
	deadline := time.Date(2024, 5, 2, 15, 30, 0, 0, ist)
	entry := models.ActionEntry{Action: "first", By: models.ActorAISystem}

	err := store.UpdateFields(context.Background(), "a", models.FieldUpdates{
		models.FieldDepartment:           models.DepartmentPWD,
		models.FieldDepartmentConfidence: 140,
		models.FieldPriority:             models.PriorityLow,
		models.FieldPriorityConfidence:   25,
		models.FieldDeadline:             deadline,
		models.FieldActions:              models.ActionAppend{Entry: entry},
	})
	require.NoError(t, err)

	require.NoError(t, store.UpdateFields(context.Background(), "a", models.FieldUpdates{
		models.FieldOverdue: true,
		models.FieldActions: models.ActionAppend{Entry: models.ActionEntry{Action: "second"}},
	}))

	got, ok := store.Get("a")
	require.True(t, ok)
	assert.Equal(t, models.DepartmentPWD, got.Department)
	assert.Equal(t, 140, got.DepartmentConfidence)
	assert.Equal(t, models.PriorityLow, got.Priority)
	assert.True(t, got.Overdue)
	require.NotNil(t, got.Deadline)
	assert.Equal(t, time.UTC, got.Deadline.Location())
	assert.True(t, deadline.Equal(*got.Deadline))
	require.Len(t, got.Actions, 2)
	assert.Equal(t, "first", got.Actions[0].Action)
	assert.Equal(t, "second", got.Actions[1].Action)
	assert.Equal(t, 2, store.UpdateCalls())
}

func TestMemoryComplaintStore_UpdateFieldsErrors(t *testing.T) {
	store := NewMemoryComplaintStore()
	require.NoError(t, store.Insert(models.Complaint{ID: "a", Status: models.StatusNew}))

	err := store.UpdateFields(context.Background(), "missing", models.FieldUpdates{models.FieldOverdue: true})
	assert.ErrorIs(t, err, ErrComplaintNotFound)

	err = store.UpdateFields(context.Background(), "a", models.FieldUpdates{"color": "red"})
	assert.Error(t, err)

	err = store.UpdateFields(context.Background(), "a", models.FieldUpdates{models.FieldOverdue: "yes"})
	assert.Error(t, err)

	boom := errors.New("boom")
	store.FailUpdatesWith(func(id string) error { return boom })
	err = store.UpdateFields(context.Background(), "a", models.FieldUpdates{models.FieldOverdue: true})
	assert.ErrorIs(t, err, boom)

	got, _ := store.Get("a")
	assert.False(t, got.Overdue)
}

func TestMemoryComplaintStore_AppendIsSetUnion(t *testing.T) {
	store := NewMemoryComplaintStore()
	require.NoError(t, store.Insert(models.Complaint{ID: "a", Status: models.StatusNew}))

	entry := models.ActionEntry{Action: "classified", Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), By: models.ActorAISystem}
	for i := 0; i < 2; i++ {
		require.NoError(t, store.UpdateFields(context.Background(), "a", models.FieldUpdates{
			models.FieldActions: models.ActionAppend{Entry: entry},
		}))
	}

	got, _ := store.Get("a")
	assert.Len(t, got.Actions, 1)
}

func TestMemoryComplaintStore_FailAcksStillApplies(t *testing.T) {
	store := NewMemoryComplaintStore()
	require.NoError(t, store.Insert(models.Complaint{ID: "a", Status: models.StatusNew}))

	lost := errors.New("connection reset")
	store.FailAcksWith(func(string) error { return lost })

	err := store.UpdateFields(context.Background(), "a", models.FieldUpdates{models.FieldOverdue: true})
	assert.ErrorIs(t, err, lost)

	got, _ := store.Get("a")
	assert.True(t, got.Overdue)
}

func TestMemoryComplaintStore_InsertRejectsDuplicates(t *testing.T) {
	store := NewMemoryComplaintStore()
	require.NoError(t, store.Insert(models.Complaint{ID: "a"}))
	assert.Error(t, store.Insert(models.Complaint{ID: "a"}))
	assert.Error(t, store.Insert(models.Complaint{}))
}

func TestMemoryComplaintStore_ListOpenComplaints(t *testing.T) {
	store := NewMemoryComplaintStore()
	for _, c := range []models.Complaint{
		{ID: "new", Status: models.StatusNew},
		{ID: "classified", Status: models.StatusClassified},
		{ID: "working", Status: models.StatusUnderAction},
		{ID: "done", Status: models.StatusResolved},
	} {
		require.NoError(t, store.Insert(c))
	}

	open, err := store.ListOpenComplaints(context.Background())
	require.NoError(t, err)
	ids := make([]string, len(open))
	for i, c := range open {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"new", "classified"}, ids)
}

func TestMemoryComplaintStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryComplaintStore()
	require.NoError(t, store.Insert(models.Complaint{ID: "a", Actions: []models.ActionEntry{{Action: "filed"}}}))

	got, _ := store.Get("a")
	got.Actions[0].Action = "tampered"

	again, _ := store.Get("a")
	assert.Equal(t, "filed", again.Actions[0].Action)
}
