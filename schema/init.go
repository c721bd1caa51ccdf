// Package schema: safe database initialization for the mysql backend. Creates only missing tables, never drops or overwrites.

package schema

import (
	"database/sql"
	"log"
)

const tableComplaints = "complaints"

// InitializeDatabase ensures the complaints table exists, then adds any
// triage columns missing from an older table. Does not drop or recreate
// tables; does not remove data.
func InitializeDatabase(db *sql.DB) {
	if exists, err := tableExists(db, tableComplaints); err != nil {
		log.Fatalf("[SCHEMA] Failed to check if table %s exists: %v", tableComplaints, err)
	} else if exists {
		log.Println("[SCHEMA] complaints table exists")
	} else {
		createComplaintsTable(db)
		log.Println("[SCHEMA] created complaints table")
	}

	EnsureTriageColumns(db)
}

// complaintsTableDDL creates the table with every column the store reads
const complaintsTableDDL = `
CREATE TABLE IF NOT EXISTS complaints (
    id VARCHAR(128) PRIMARY KEY COMMENT 'Opaque complaint id',
    description TEXT NULL COMMENT 'Citizen-supplied text, immutable',
    status ENUM('new', 'classified', 'under_action', 'resolved') NOT NULL DEFAULT 'new' COMMENT 'Current status',
    department VARCHAR(32) NULL COMMENT 'Assigned by triage',
    department_confidence INT NULL COMMENT 'Raw keyword confidence (may exceed 100)',
    priority VARCHAR(16) NULL COMMENT 'Assigned by triage',
    priority_confidence INT NULL COMMENT 'Raw keyword confidence (may exceed 100)',
    deadline DATETIME(6) NULL COMMENT 'Resolution deadline (UTC)',
    overdue BOOLEAN NOT NULL DEFAULT FALSE COMMENT 'Set once when the deadline passes',
    actions JSON NULL COMMENT 'Append-only audit log',
    last_updated DATETIME(6) NULL COMMENT 'Refreshed on every triage write (UTC)',
    created_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) COMMENT 'Complaint creation',
    updated_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6) COMMENT 'Row version for the change feed',
    INDEX idx_status (status),
    INDEX idx_updated_at (updated_at),
    INDEX idx_created_at (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`

func createComplaintsTable(db *sql.DB) {
	if _, err := db.Exec(complaintsTableDDL); err != nil {
		log.Fatalf("[SCHEMA] Failed to create table %s: %v", tableComplaints, err)
	}
}
