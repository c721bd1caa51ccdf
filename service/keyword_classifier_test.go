package service

import (
	"nagrikrakshak/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordScore_CountsEachPhraseOnce(t *testing.T) {
	assert.Equal(t, 1, KeywordScore("leak leak leak", []string{"leak"}))
	assert.Equal(t, 2, KeywordScore("leakage", []string{"leak", "leakage"}))
	assert.Equal(t, 0, KeywordScore("", []string{"leak"}))
	assert.Equal(t, 0, KeywordScore("leak", nil))
}

func TestClassifyDepartment(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		department models.Department
		confidence int
	}{
		{name: "water pipe", text: "the water pipe is leaking near the tap", department: models.DepartmentWater, confidence: 80},
		{name: "live wire", text: "live wire sparked a fire", department: models.DepartmentElectricity, confidence: 40},
		{name: "garbage", text: "garbage dump near the drain", department: models.DepartmentMunicipality, confidence: 60},
		{name: "pothole", text: "huge pothole on the main road", department: models.DepartmentPWD, confidence: 40},
		{name: "theft", text: "bike stolen last night theft", department: models.DepartmentPolice, confidence: 40},
		{name: "traffic jam", text: "traffic jam at the junction", department: models.DepartmentTraffic, confidence: 60},
		{name: "empty text falls back to first", text: "", department: models.DepartmentWater, confidence: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			department, confidence := ClassifyDepartment(NormalizeText(tt.text))
			assert.Equal(t, tt.department, department)
			assert.Equal(t, tt.confidence, confidence)
		})
	}
}

func TestClassifyPriority(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		priority   models.Priority
		confidence int
	}{
		{name: "live wire and fire", text: "live wire sparked a fire", priority: models.PriorityHigh, confidence: 50},
		{name: "leak", text: "the water pipe is leaking near the tap", priority: models.PriorityMedium, confidence: 25},
		{name: "minor", text: "minor dust on the footpath", priority: models.PriorityLow, confidence: 50},
		{name: "no cues falls back to first", text: "hello there", priority: models.PriorityHigh, confidence: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			priority, confidence := ClassifyPriority(NormalizeText(tt.text))
			assert.Equal(t, tt.priority, priority)
			assert.Equal(t, tt.confidence, confidence)
		})
	}
}

func TestClassify_TieGoesToFirstDeclared(t *testing.T) {
	table := KeywordTable{
		{Name: "first", Keywords: []string{"alpha"}},
		{Name: "second", Keywords: []string{"beta"}},
	}

	name, score := Classify("alpha beta", table)
	assert.Equal(t, "first", name)
	assert.Equal(t, 1, score)

	name, score = Classify("beta", table)
	assert.Equal(t, "second", name)
	assert.Equal(t, 1, score)
}

func TestClassify_EmptyTable(t *testing.T) {
	name, score := Classify("anything", nil)
	assert.Equal(t, "", name)
	assert.Equal(t, 0, score)
}

func TestClassifyDepartment_ConfidenceIsNotCapped(t *testing.T) {
	text := NormalizeText("No water supply, dirty water from the tap, pipe leak and leakage in the tank with low pressure")
	department, confidence := ClassifyDepartment(text)
	assert.Equal(t, models.DepartmentWater, department)
	assert.Equal(t, 200, confidence)
}

func TestKeywordTables_OrderAndIsolation(t *testing.T) {
	departments := DepartmentTable()
	require.Len(t, departments, 6)
	names := make([]string, len(departments))
	for i, c := range departments {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"Water", "Electricity", "Municipality", "PWD", "Police", "Traffic"}, names)

	priorities := PriorityTable()
	require.Len(t, priorities, 3)
	assert.Equal(t, "High", priorities[0].Name)
	assert.Equal(t, "Medium", priorities[1].Name)
	assert.Equal(t, "Low", priorities[2].Name)

	// Mutating a returned copy must not change classification
	departments[0].Keywords[0] = "zzz"
	departments[0].Name = "Changed"
	fresh := DepartmentTable()
	assert.Equal(t, "Water", fresh[0].Name)
	assert.Equal(t, "water", fresh[0].Keywords[0])
}
