// Package schema: ensure the complaints table carries every triage column (auto-migration at startup).

package schema

import (
	"database/sql"
	"log"
)

// triageColumns are added to a pre-existing complaints table when missing
var triageColumns = []struct {
	name       string
	definition string
}{
	{"department", "VARCHAR(32) NULL COMMENT 'Assigned by triage'"},
	{"department_confidence", "INT NULL COMMENT 'Raw keyword confidence (may exceed 100)'"},
	{"priority", "VARCHAR(16) NULL COMMENT 'Assigned by triage'"},
	{"priority_confidence", "INT NULL COMMENT 'Raw keyword confidence (may exceed 100)'"},
	{"deadline", "DATETIME(6) NULL COMMENT 'Resolution deadline (UTC)'"},
	{"overdue", "BOOLEAN NOT NULL DEFAULT FALSE COMMENT 'Set once when the deadline passes'"},
	{"actions", "JSON NULL COMMENT 'Append-only audit log'"},
	{"last_updated", "DATETIME(6) NULL COMMENT 'Refreshed on every triage write (UTC)'"},
	{"created_at", "TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) COMMENT 'Complaint creation'"},
	{"updated_at", "TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6) COMMENT 'Row version for the change feed'"},
}

// EnsureTriageColumns adds only missing columns to the complaints table.
// Does not drop or modify existing columns.
func EnsureTriageColumns(db *sql.DB) {
	for _, col := range triageColumns {
		ensureColumn(db, tableComplaints, col.name, col.definition)
	}
	log.Println("[SCHEMA] Schema check passed")
}

func tableExists(db *sql.DB, table string) (bool, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`,
		table,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM information_schema.COLUMNS
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func ensureColumn(db *sql.DB, table, column, definition string) {
	exists, err := columnExists(db, table, column)
	if err != nil {
		log.Fatalf("[SCHEMA] Failed to check column %s.%s: %v", table, column, err)
	}
	if exists {
		return
	}
	// MySQL does not support ADD COLUMN IF NOT EXISTS; we checked above so safe to add
	query := "ALTER TABLE " + table + " ADD COLUMN " + column + " " + definition
	if _, err := db.Exec(query); err != nil {
		log.Fatalf("[SCHEMA] Failed to add column %s.%s: %v", table, column, err)
	}
	log.Printf("[SCHEMA] Added missing column: %s", column)
}
