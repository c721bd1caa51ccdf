package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ChangeType tags an event delivered by the record store's change feed
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeRemoved  ChangeType = "removed"
)

// ChangeEvent carries the affected complaint id and its full current snapshot
type ChangeEvent struct {
	Type        ChangeType
	ComplaintID string
	Complaint   Complaint
}

// ChangeBatch is one notification from the change feed. Events are ordered
// as delivered by the store.
type ChangeBatch struct {
	Events   []ChangeEvent
	ReadTime time.Time
}

// ComplaintFromFields decodes a loosely typed document snapshot (as returned by
// document stores) into a Complaint. Missing or mistyped fields decode to zero
// values; decoding never fails.
func ComplaintFromFields(id string, data map[string]interface{}) Complaint {
	c := Complaint{ID: id}
	c.Description = stringField(data[FieldDescription])
	c.Status = ComplaintStatus(stringField(data[FieldStatus]))
	c.Department = Department(stringField(data[FieldDepartment]))
	c.DepartmentConfidence = intField(data[FieldDepartmentConfidence])
	c.Priority = Priority(stringField(data[FieldPriority]))
	c.PriorityConfidence = intField(data[FieldPriorityConfidence])
	c.Deadline = timeField(data[FieldDeadline])
	c.LastUpdated = timeField(data[FieldLastUpdated])
	if b, ok := data[FieldOverdue].(bool); ok {
		c.Overdue = b
	}
	c.Actions = actionsField(data[FieldActions])
	return c
}

func stringField(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func intField(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(n))
		return i
	default:
		return 0
	}
}

// timeField accepts native timestamps and RFC 3339 / ISO-8601 strings.
// Results are always in UTC.
func timeField(v interface{}) *time.Time {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return nil
		}
		u := t.UTC()
		return &u
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil
		}
		u := t.UTC()
		return &u
	case string:
		if parsed, ok := parseTimestamp(t); ok {
			return &parsed
		}
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTimestamp parses the formats seen in stored documents. Values without
// an offset are taken as UTC.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func actionsField(v interface{}) []ActionEntry {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	entries := make([]ActionEntry, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		entry := ActionEntry{
			Action: stringField(m["action"]),
			By:     stringField(m["by"]),
		}
		if ts := timeField(m["timestamp"]); ts != nil {
			entry.Timestamp = *ts
		}
		entries = append(entries, entry)
	}
	return entries
}
