package service

import (
	"nagrikrakshak/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeDeadline(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		priority models.Priority
		want     time.Time
	}{
		{priority: models.PriorityHigh, want: now.Add(24 * time.Hour)},
		{priority: models.PriorityMedium, want: now.Add(72 * time.Hour)},
		{priority: models.PriorityLow, want: now.Add(7 * 24 * time.Hour)},
		{priority: models.Priority("Unknown"), want: now.Add(7 * 24 * time.Hour)},
		{priority: models.Priority(""), want: now.Add(7 * 24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			got := ComputeDeadline(tt.priority, now)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestComputeDeadline_NormalizesToUTC(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, ist)

	got := ComputeDeadline(models.PriorityHigh, now)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, time.Date(2024, 3, 11, 9, 30, 0, 0, time.UTC), got)
}

func TestIsOverdue(t *testing.T) {
	deadline := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.False(t, IsOverdue(nil, deadline.Add(time.Hour)), "nil deadline")
	assert.False(t, IsOverdue(&time.Time{}, deadline), "zero deadline")
	assert.False(t, IsOverdue(&deadline, deadline.Add(-time.Second)), "before deadline")
	assert.False(t, IsOverdue(&deadline, deadline), "exactly at deadline")
	assert.True(t, IsOverdue(&deadline, deadline.Add(time.Nanosecond)), "just after deadline")

	// Same instant expressed in another zone
	ist := time.FixedZone("IST", 5*3600+1800)
	assert.False(t, IsOverdue(&deadline, deadline.In(ist)))
	assert.True(t, IsOverdue(&deadline, deadline.In(ist).Add(time.Minute)))
}
