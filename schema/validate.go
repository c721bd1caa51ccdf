// Package schema bootstraps and checks the mysql complaints table.
package schema

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
)

// ColumnType is the storage class the complaint store expects for one column
type ColumnType struct {
	Column  string
	Allowed []string // information_schema DATA_TYPE values, lowercase
}

// ComplaintColumnTypes lists the complaints columns whose type matters to the
// mysql store: scanning, JSON_ARRAY_APPEND and the updated_at change feed all
// break on a mismatched column even when it exists.
var ComplaintColumnTypes = []ColumnType{
	{Column: "id", Allowed: []string{"varchar", "char"}},
	{Column: "description", Allowed: []string{"text", "mediumtext", "longtext", "varchar"}},
	{Column: "status", Allowed: []string{"enum", "varchar"}},
	{Column: "department_confidence", Allowed: []string{"int", "bigint", "smallint"}},
	{Column: "priority_confidence", Allowed: []string{"int", "bigint", "smallint"}},
	{Column: "deadline", Allowed: []string{"datetime", "timestamp"}},
	{Column: "overdue", Allowed: []string{"tinyint"}},
	{Column: "actions", Allowed: []string{"json"}},
	{Column: "last_updated", Allowed: []string{"datetime", "timestamp"}},
	{Column: "updated_at", Allowed: []string{"timestamp", "datetime"}},
}

// ValidateColumnTypes checks the complaints table against ComplaintColumnTypes
// and stops startup on any missing or mistyped column.
func ValidateColumnTypes(db *sql.DB) {
	actual, err := columnTypes(db, tableComplaints)
	if err != nil {
		log.Fatalf("[SCHEMA] Failed to read column types of %s: %v", tableComplaints, err)
	}
	if problems := checkColumnTypes(actual, ComplaintColumnTypes); len(problems) > 0 {
		log.Fatalf("[SCHEMA] %s does not match the complaint store: %s", tableComplaints, strings.Join(problems, "; "))
	}
	log.Println("[SCHEMA] Column types verified")
}

// checkColumnTypes returns one message per expected column that is absent or
// has a type outside its allowed set
func checkColumnTypes(actual map[string]string, expected []ColumnType) []string {
	var problems []string
	for _, want := range expected {
		got, ok := actual[want.Column]
		if !ok {
			problems = append(problems, want.Column+" is missing")
			continue
		}
		if !typeAllowed(got, want.Allowed) {
			problems = append(problems, fmt.Sprintf("%s is %s, want one of %s", want.Column, got, strings.Join(want.Allowed, "/")))
		}
	}
	return problems
}

func typeAllowed(got string, allowed []string) bool {
	got = strings.ToLower(got)
	for _, a := range allowed {
		if got == a {
			return true
		}
	}
	return false
}

func columnTypes(db *sql.DB, table string) (map[string]string, error) {
	rows, err := db.Query(
		`SELECT COLUMN_NAME, DATA_TYPE FROM information_schema.COLUMNS
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`,
		table,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make(map[string]string)
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, err
		}
		types[strings.ToLower(name)] = strings.ToLower(dataType)
	}
	return types, rows.Err()
}
