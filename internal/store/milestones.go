package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Milestone statuses accepted by the milestones table.
const (
	StatusNotStarted = "NOT_STARTED"
	StatusInProgress = "IN_PROGRESS"
	StatusAtRisk     = "AT_RISK"
	StatusBlocked    = "BLOCKED"
	StatusDone       = "DONE"
)

var Statuses = []string{StatusNotStarted, StatusInProgress, StatusAtRisk, StatusBlocked, StatusDone}

// ValidStatus normalizes s (case and dashes) and reports whether it is a
// known milestone status.
func ValidStatus(s string) (string, bool) {
	s = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for _, st := range Statuses {
		if s == st {
			return s, true
		}
	}
	return "", false
}

type Milestone struct {
	ID          string
	GroupID     string
	Title       string
	Description string
	Due         time.Time // zero when not set
	Status      string
	UpdatedAt   time.Time
}

// UpsertMilestone inserts or replaces m. An empty ID is derived from the
// group and title and written back.
func (d *DB) UpsertMilestone(ctx context.Context, m *Milestone) error {
	status := m.Status
	if status == "" {
		status = StatusNotStarted
	}
	status, ok := ValidStatus(status)
	if !ok {
		return fmt.Errorf("milestone %q: invalid status %q", m.Title, m.Status)
	}
	if m.ID == "" {
		m.ID = MilestoneID(m.GroupID, m.Title)
	}
	m.Status = status
	m.UpdatedAt = time.Now()

	var due any
	if !m.Due.IsZero() {
		due = m.Due.UnixMilli()
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO milestones (id, group_id, title, description, due_date, status, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     title = excluded.title,
		     description = excluded.description,
		     due_date = excluded.due_date,
		     status = excluded.status,
		     updated_at = excluded.updated_at`,
		m.ID, m.GroupID, m.Title, m.Description, due, m.Status, m.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert milestone %q: %w", m.Title, err)
	}
	return nil
}

func (d *DB) SetMilestoneStatus(ctx context.Context, id, status string) error {
	st, ok := ValidStatus(status)
	if !ok {
		return fmt.Errorf("invalid status %q (want one of %s)", status, strings.Join(Statuses, ", "))
	}
	res, err := d.db.ExecContext(ctx,
		"UPDATE milestones SET status = ?, updated_at = ? WHERE id = ?",
		st, time.Now().UnixMilli(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("milestone %s: %w", id, ErrNotFound)
	}
	return nil
}

// Milestones returns a group's milestones ordered by due date, undated last.
func (d *DB) Milestones(ctx context.Context, groupID string) ([]Milestone, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, group_id, title, description, due_date, status, updated_at
		FROM milestones
		WHERE group_id = ?
		ORDER BY due_date IS NULL, due_date, title`,
		groupID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Milestone
	for rows.Next() {
		var m Milestone
		var due sql.NullInt64
		var updated int64
		if err := rows.Scan(&m.ID, &m.GroupID, &m.Title, &m.Description, &due, &m.Status, &updated); err != nil {
			return nil, err
		}
		if due.Valid {
			m.Due = time.UnixMilli(due.Int64)
		}
		m.UpdatedAt = time.UnixMilli(updated)
		out = append(out, m)
	}
	return out, rows.Err()
}
