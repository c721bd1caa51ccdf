package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplaintFromFields(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	deadline := time.Date(2024, 5, 2, 15, 30, 0, 0, ist)

	data := map[string]interface{}{
		FieldDescription:          "Open manhole",
		FieldStatus:               "classified",
		FieldDepartment:           "Water",
		FieldDepartmentConfidence: int64(40),
		FieldPriority:             "High",
		FieldPriorityConfidence:   float64(50),
		FieldDeadline:             deadline,
		FieldLastUpdated:          "2024-05-01T10:00:00.123456",
		FieldOverdue:              true,
		FieldActions: []interface{}{
			map[string]interface{}{
				"action":    "AI classified as High priority for Water department",
				"timestamp": "2024-05-01T10:00:00Z",
				"by":        ActorAISystem,
			},
			"not a map",
		},
	}

	c := ComplaintFromFields("abc", data)
	assert.Equal(t, "abc", c.ID)
	assert.Equal(t, "Open manhole", c.Description)
	assert.Equal(t, StatusClassified, c.Status)
	assert.Equal(t, DepartmentWater, c.Department)
	assert.Equal(t, 40, c.DepartmentConfidence)
	assert.Equal(t, PriorityHigh, c.Priority)
	assert.Equal(t, 50, c.PriorityConfidence)
	assert.True(t, c.Overdue)

	require.NotNil(t, c.Deadline)
	assert.True(t, deadline.Equal(*c.Deadline))
	assert.Equal(t, time.UTC, c.Deadline.Location())

	require.NotNil(t, c.LastUpdated)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC), *c.LastUpdated)

	require.Len(t, c.Actions, 1)
	assert.Equal(t, ActorAISystem, c.Actions[0].By)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), c.Actions[0].Timestamp)
}

func TestComplaintFromFields_MissingAndMistypedFields(t *testing.T) {
	c := ComplaintFromFields("x", map[string]interface{}{
		FieldDescription: nil,
		FieldDeadline:    "next tuesday",
		FieldOverdue:     "yes",
		FieldActions:     "none",
	})

	assert.Equal(t, "x", c.ID)
	assert.Empty(t, c.Description)
	assert.Empty(t, c.Status)
	assert.Nil(t, c.Deadline)
	assert.Nil(t, c.LastUpdated)
	assert.False(t, c.Overdue)
	assert.Nil(t, c.Actions)
	assert.False(t, c.IsWorkStarted())
}

func TestComplaint_IsWorkStarted(t *testing.T) {
	assert.False(t, (&Complaint{Status: StatusNew}).IsWorkStarted())
	assert.False(t, (&Complaint{Status: StatusClassified}).IsWorkStarted())
	assert.True(t, (&Complaint{Status: StatusUnderAction}).IsWorkStarted())
	assert.True(t, (&Complaint{Status: StatusResolved}).IsWorkStarted())
}
