package repository

import (
	"nagrikrakshak/models"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirestoreUpdates(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2024, 5, 1, 15, 30, 0, 0, ist)
	entry := models.ActionEntry{Action: "AI classified as Low priority for PWD department", Timestamp: now.UTC(), By: models.ActorAISystem}

	updates, err := firestoreUpdates(models.FieldUpdates{
		models.FieldStatus:               models.StatusClassified,
		models.FieldPriority:             models.PriorityLow,
		models.FieldPriorityConfidence:   0,
		models.FieldDepartment:           models.DepartmentPWD,
		models.FieldDepartmentConfidence: 40,
		models.FieldActions:              models.ActionAppend{Entry: entry},
		models.FieldLastUpdated:          now,
	})
	require.NoError(t, err)

	paths := make([]string, len(updates))
	values := make(map[string]interface{}, len(updates))
	for i, u := range updates {
		paths[i] = u.Path
		values[u.Path] = u.Value
	}
	assert.Equal(t, []string{
		models.FieldActions,
		models.FieldDepartment,
		models.FieldDepartmentConfidence,
		models.FieldLastUpdated,
		models.FieldPriority,
		models.FieldPriorityConfidence,
		models.FieldStatus,
	}, paths)

	assert.Equal(t, firestore.ArrayUnion(entry), values[models.FieldActions])
	assert.Equal(t, "classified", values[models.FieldStatus])
	assert.Equal(t, "PWD", values[models.FieldDepartment])
	assert.Equal(t, "Low", values[models.FieldPriority])
	assert.Equal(t, 40, values[models.FieldDepartmentConfidence])

	lastUpdated, ok := values[models.FieldLastUpdated].(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.UTC, lastUpdated.Location())
	assert.True(t, now.Equal(lastUpdated))
}

func TestFirestoreUpdates_Empty(t *testing.T) {
	_, err := firestoreUpdates(models.FieldUpdates{})
	assert.Error(t, err)
}
