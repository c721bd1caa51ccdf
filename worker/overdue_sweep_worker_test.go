package worker

import (
	"context"
	"errors"
	"nagrikrakshak/models"
	"nagrikrakshak/repository"
	"nagrikrakshak/service"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSweepStore(t *testing.T) *repository.MemoryComplaintStore {
	t.Helper()
	store := repository.NewMemoryComplaintStore()
	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)

	for _, c := range []models.Complaint{
		{ID: "expired", Status: models.StatusClassified, Deadline: &past},
		{ID: "expired-working", Status: models.StatusUnderAction, Deadline: &past},
		{ID: "flagged", Status: models.StatusClassified, Deadline: &past, Overdue: true},
		{ID: "fresh", Status: models.StatusClassified, Deadline: &future},
		{ID: "unclassified", Status: models.StatusNew},
	} {
		require.NoError(t, store.Insert(c))
	}
	return store
}

func TestOverdueSweepWorker_Sweep(t *testing.T) {
	store := seedSweepStore(t)
	metrics := service.NewTriageMetrics()
	w := NewOverdueSweepWorker(store, newTestTriageService(store), metrics, time.Minute)

	assert.Equal(t, 1, w.Sweep(context.Background()))
	assert.Equal(t, 1, store.UpdateCalls())

	got, _ := store.Get("expired")
	assert.True(t, got.Overdue)
	working, _ := store.Get("expired-working")
	assert.False(t, working.Overdue)

	// Second pass finds nothing new
	assert.Equal(t, 0, w.Sweep(context.Background()))
	assert.Equal(t, 1, store.UpdateCalls())
	assert.EqualValues(t, 1, metrics.Snapshot().FlaggedOverdue)
}

type failingLister struct{}

func (failingLister) ListOpenComplaints(ctx context.Context) ([]models.Complaint, error) {
	return nil, errors.New("query failed")
}

func TestOverdueSweepWorker_SweepListError(t *testing.T) {
	w := NewOverdueSweepWorker(failingLister{}, newTestTriageService(repository.NewMemoryComplaintStore()), nil, time.Minute)
	assert.Equal(t, 0, w.Sweep(context.Background()))
}

func TestOverdueSweepWorker_StartStop(t *testing.T) {
	store := seedSweepStore(t)
	w := NewOverdueSweepWorker(store, newTestTriageService(store), service.NewTriageMetrics(), 10*time.Millisecond)

	w.Start(context.Background())
	w.Start(context.Background()) // second start is a no-op

	require.Eventually(t, func() bool {
		c, _ := store.Get("expired")
		return c.Overdue
	}, 2*time.Second, 10*time.Millisecond)

	w.Stop()
	w.Stop()
}
