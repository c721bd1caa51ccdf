package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"nagrikrakshak/models"
	"sort"
	"strings"
	"time"
)

// maxConsecutivePollFailures is how many polls in a row may fail before the
// change feed is considered dropped
const maxConsecutivePollFailures = 5

// columnForField maps store field names to complaints table columns.
// FieldActions is handled separately (JSON append).
var columnForField = map[string]string{
	models.FieldDescription:          "description",
	models.FieldStatus:               "status",
	models.FieldDepartment:           "department",
	models.FieldDepartmentConfidence: "department_confidence",
	models.FieldPriority:             "priority",
	models.FieldPriorityConfidence:   "priority_confidence",
	models.FieldDeadline:             "deadline",
	models.FieldOverdue:              "overdue",
	models.FieldLastUpdated:          "last_updated",
}

// appendActionSet appends one audit entry unless an identical entry exists.
// It takes the JSON-encoded entry twice.
const appendActionSet = "actions = IF(JSON_CONTAINS(COALESCE(actions, JSON_ARRAY()), CAST(? AS JSON)), " +
	"actions, JSON_ARRAY_APPEND(COALESCE(actions, JSON_ARRAY()), '$', CAST(? AS JSON)))"

const complaintColumns = `
	id, description, status, department, department_confidence,
	priority, priority_confidence, deadline, overdue, actions,
	last_updated, updated_at`

// ComplaintRepository is the MySQL-backed ComplaintStore. The change feed is
// produced by polling: rows are diffed by id against the previous poll using
// the updated_at column, which MySQL refreshes on every row change.
type ComplaintRepository struct {
	db           *sql.DB
	pollInterval time.Duration
}

// NewComplaintRepository creates a new complaint repository
func NewComplaintRepository(db *sql.DB, pollInterval time.Duration) *ComplaintRepository {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &ComplaintRepository{db: db, pollInterval: pollInterval}
}

// UpdateFields merges fields into one complaint row
func (r *ComplaintRepository) UpdateFields(ctx context.Context, complaintID string, fields models.FieldUpdates) error {
	query, args, err := buildUpdateQuery(complaintID, fields)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update complaint %s: %w", complaintID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// MySQL reports 0 affected rows when values are unchanged; tell that apart from a missing row
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM complaints WHERE id = ?`, complaintID).Scan(&count); err != nil {
		return fmt.Errorf("failed to verify complaint %s: %w", complaintID, err)
	}
	if count == 0 {
		return fmt.Errorf("update %s: %w", complaintID, ErrComplaintNotFound)
	}
	return nil
}

// buildUpdateQuery renders a partial update. Columns are emitted in sorted
// field order so the statement text is stable.
func buildUpdateQuery(complaintID string, fields models.FieldUpdates) (string, []interface{}, error) {
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("no fields to update for complaint %s", complaintID)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	sets := make([]string, 0, len(names))
	args := make([]interface{}, 0, len(names)+2)
	for _, name := range names {
		value := fields[name]
		if name == models.FieldActions {
			appendAction, ok := value.(models.ActionAppend)
			if !ok {
				return "", nil, fmt.Errorf("field %s: expected models.ActionAppend, got %T", name, value)
			}
			entryJSON, err := json.Marshal(appendAction.Entry)
			if err != nil {
				return "", nil, fmt.Errorf("failed to marshal action entry: %w", err)
			}
			// An entry already present is not appended again, so a retried
			// write whose first attempt committed leaves one entry
			sets = append(sets, appendActionSet)
			args = append(args, string(entryJSON), string(entryJSON))
			continue
		}

		column, ok := columnForField[name]
		if !ok {
			return "", nil, fmt.Errorf("unknown field %q", name)
		}
		sets = append(sets, column+" = ?")
		args = append(args, sqlValue(value))
	}
	args = append(args, complaintID)

	query := "UPDATE complaints SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	return query, args, nil
}

// sqlValue converts domain values to driver-friendly values
func sqlValue(v interface{}) interface{} {
	switch t := v.(type) {
	case models.ComplaintStatus:
		return string(t)
	case models.Department:
		return string(t)
	case models.Priority:
		return string(t)
	case time.Time:
		return t.UTC()
	default:
		return v
	}
}

// ListOpenComplaints returns complaints that are neither under action nor resolved
func (r *ComplaintRepository) ListOpenComplaints(ctx context.Context) ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + `
		FROM complaints
		WHERE status NOT IN ('under_action', 'resolved')
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query open complaints: %w", err)
	}
	defer rows.Close()

	var complaints []models.Complaint
	for rows.Next() {
		complaint, _, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, complaint)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating complaints: %w", err)
	}
	return complaints, nil
}

// Subscribe polls the complaints table and emits the differences as change batches
func (r *ComplaintRepository) Subscribe(ctx context.Context, out chan<- models.ChangeBatch) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	feed := newPollFeed()
	failures := 0
	for {
		batch, err := r.poll(ctx, feed)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			failures++
			log.Printf("[FEED] Poll %d/%d failed: %v", failures, maxConsecutivePollFailures, err)
			if failures >= maxConsecutivePollFailures {
				return fmt.Errorf("complaint feed dropped after %d failed polls: %w", failures, err)
			}
		default:
			failures = 0
			if batch != nil {
				select {
				case out <- *batch:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *ComplaintRepository) poll(ctx context.Context, feed *pollFeed) (*models.ChangeBatch, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+complaintColumns+` FROM complaints ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query complaints: %w", err)
	}
	defer rows.Close()

	var snapshot []versionedComplaint
	for rows.Next() {
		complaint, version, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		snapshot = append(snapshot, versionedComplaint{complaint: complaint, version: version})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating complaints: %w", err)
	}

	return feed.diff(snapshot, time.Now().UTC()), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanComplaint reads one row selected with complaintColumns; the second
// return value is the row version (updated_at).
func scanComplaint(row rowScanner) (models.Complaint, time.Time, error) {
	var (
		c           models.Complaint
		description sql.NullString
		status      string
		department  sql.NullString
		deptConf    sql.NullInt64
		priority    sql.NullString
		prConf      sql.NullInt64
		deadline    sql.NullTime
		actions     sql.NullString
		lastUpdated sql.NullTime
		updatedAt   time.Time
	)
	err := row.Scan(
		&c.ID, &description, &status, &department, &deptConf,
		&priority, &prConf, &deadline, &c.Overdue, &actions,
		&lastUpdated, &updatedAt,
	)
	if err != nil {
		return c, time.Time{}, fmt.Errorf("failed to scan complaint: %w", err)
	}

	c.Description = description.String
	c.Status = models.ComplaintStatus(status)
	c.Department = models.Department(department.String)
	c.DepartmentConfidence = int(deptConf.Int64)
	c.Priority = models.Priority(priority.String)
	c.PriorityConfidence = int(prConf.Int64)
	if deadline.Valid {
		t := deadline.Time.UTC()
		c.Deadline = &t
	}
	if lastUpdated.Valid {
		t := lastUpdated.Time.UTC()
		c.LastUpdated = &t
	}
	if actions.Valid && actions.String != "" {
		if err := json.Unmarshal([]byte(actions.String), &c.Actions); err != nil {
			// A corrupt audit log must not hide the complaint from triage
			log.Printf("[FEED] Complaint %s has unreadable actions: %v", c.ID, err)
			c.Actions = nil
		}
	}
	return c, updatedAt.UTC(), nil
}

// Close closes the database connection
func (r *ComplaintRepository) Close() error {
	return r.db.Close()
}

type versionedComplaint struct {
	complaint models.Complaint
	version   time.Time
}

// pollFeed remembers the version of every row seen in the previous poll
type pollFeed struct {
	versions map[string]time.Time
	primed   bool
}

func newPollFeed() *pollFeed {
	return &pollFeed{versions: make(map[string]time.Time)}
}

// diff turns a full snapshot into change events: unseen ids are added,
// ids with a new version are modified, vanished ids are removed. The first
// call always returns a batch, even an empty one. Later calls return nil
// when nothing changed.
func (f *pollFeed) diff(snapshot []versionedComplaint, readTime time.Time) *models.ChangeBatch {
	batch := &models.ChangeBatch{ReadTime: readTime}
	present := make(map[string]struct{}, len(snapshot))

	for _, row := range snapshot {
		id := row.complaint.ID
		present[id] = struct{}{}

		previous, seen := f.versions[id]
		switch {
		case !seen:
			batch.Events = append(batch.Events, models.ChangeEvent{Type: models.ChangeAdded, ComplaintID: id, Complaint: row.complaint})
		case !previous.Equal(row.version):
			batch.Events = append(batch.Events, models.ChangeEvent{Type: models.ChangeModified, ComplaintID: id, Complaint: row.complaint})
		}
		f.versions[id] = row.version
	}

	var removed []string
	for id := range f.versions {
		if _, ok := present[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	for _, id := range removed {
		delete(f.versions, id)
		batch.Events = append(batch.Events, models.ChangeEvent{Type: models.ChangeRemoved, ComplaintID: id, Complaint: models.Complaint{ID: id}})
	}

	if f.primed && len(batch.Events) == 0 {
		return nil
	}
	f.primed = true
	return batch
}
