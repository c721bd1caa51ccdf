package models

import (
	"time"
)

// ComplaintStatus represents the possible statuses of a complaint.
// Progression is one-directional: new → classified → under_action → resolved.
type ComplaintStatus string

const (
	StatusNew         ComplaintStatus = "new"
	StatusClassified  ComplaintStatus = "classified"
	StatusUnderAction ComplaintStatus = "under_action"
	StatusResolved    ComplaintStatus = "resolved"
)

// Department is the municipal unit responsible for a complaint
type Department string

const (
	DepartmentWater        Department = "Water"
	DepartmentElectricity  Department = "Electricity"
	DepartmentMunicipality Department = "Municipality"
	DepartmentPWD          Department = "PWD"
	DepartmentPolice       Department = "Police"
	DepartmentTraffic      Department = "Traffic"
)

// Priority represents complaint urgency tiers
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ActorAISystem is recorded as the author of every audit entry written by the triage worker
const ActorAISystem = "AI System"

// Store field names. These are the document keys used by every backend.
const (
	FieldID                   = "id"
	FieldDescription          = "description"
	FieldStatus               = "status"
	FieldDepartment           = "department"
	FieldDepartmentConfidence = "departmentConfidence"
	FieldPriority             = "priority"
	FieldPriorityConfidence   = "priorityConfidence"
	FieldDeadline             = "deadline"
	FieldOverdue              = "overdue"
	FieldActions              = "actions"
	FieldLastUpdated          = "lastUpdated"
)

// ActionEntry is one element of a complaint's append-only audit log
type ActionEntry struct {
	Action    string    `firestore:"action" json:"action"`
	Timestamp time.Time `firestore:"timestamp" json:"timestamp"`
	By        string    `firestore:"by" json:"by"`
}

// Complaint represents a complaint document as seen by the triage worker.
// The record store owns the document; the worker only reads it from change
// events and mutates it through partial updates.
type Complaint struct {
	ID                   string          `json:"id"`
	Description          string          `json:"description"`
	Status               ComplaintStatus `json:"status"`
	Department           Department      `json:"department,omitempty"`
	DepartmentConfidence int             `json:"departmentConfidence,omitempty"`
	Priority             Priority        `json:"priority,omitempty"`
	PriorityConfidence   int             `json:"priorityConfidence,omitempty"`
	Deadline             *time.Time      `json:"deadline,omitempty"`
	Overdue              bool            `json:"overdue"`
	Actions              []ActionEntry   `json:"actions,omitempty"`
	LastUpdated          *time.Time      `json:"lastUpdated,omitempty"`
}

// IsWorkStarted reports whether an external actor has taken the complaint
// into remediation or closed it. Overdue tracking stops at that point.
func (c *Complaint) IsWorkStarted() bool {
	return c.Status == StatusUnderAction || c.Status == StatusResolved
}

// FieldUpdates maps store field names to new values for a partial update.
// Fields not present in the map are left untouched by the store.
type FieldUpdates map[string]interface{}

// ActionAppend, used as the value of FieldActions in FieldUpdates, asks the
// store to append Entry to the existing audit log atomically instead of
// replacing the array.
type ActionAppend struct {
	Entry ActionEntry
}
