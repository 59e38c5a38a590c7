package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Group struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GroupSummary is a group with its message totals, for listings.
type GroupSummary struct {
	Group
	Messages    int
	LastMessage time.Time
}

// UpsertGroup creates the group if it does not exist and bumps updated_at.
func (d *DB) UpsertGroup(ctx context.Context, name string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("group name is empty")
	}
	id := GroupID(name)
	now := time.Now().UnixMilli()

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO groups (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		id, name, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert group %s: %w", name, err)
	}
	return d.GroupByID(ctx, id)
}

func (d *DB) GroupByID(ctx context.Context, id string) (*Group, error) {
	return d.scanGroup(d.db.QueryRowContext(ctx,
		"SELECT id, name, created_at, updated_at FROM groups WHERE id = ?", id))
}

func (d *DB) GroupByName(ctx context.Context, name string) (*Group, error) {
	return d.GroupByID(ctx, GroupID(name))
}

// ResolveGroup accepts either a group id or a group name.
func (d *DB) ResolveGroup(ctx context.Context, ref string) (*Group, error) {
	g, err := d.GroupByID(ctx, ref)
	if errors.Is(err, ErrNotFound) {
		g, err = d.GroupByName(ctx, ref)
	}
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("group %q: %w", ref, ErrNotFound)
	}
	return g, err
}

func (d *DB) scanGroup(row *sql.Row) (*Group, error) {
	var g Group
	var created, updated int64
	err := row.Scan(&g.ID, &g.Name, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	g.CreatedAt = time.UnixMilli(created)
	g.UpdatedAt = time.UnixMilli(updated)
	return &g, nil
}

// Groups lists all groups, most recently active first.
func (d *DB) Groups(ctx context.Context) ([]GroupSummary, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.created_at, g.updated_at,
		       COUNT(m.id), COALESCE(MAX(m.timestamp), 0)
		FROM groups g
		LEFT JOIN messages m ON m.group_id = g.id
		GROUP BY g.id
		ORDER BY COALESCE(MAX(m.timestamp), 0) DESC, g.name`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []GroupSummary
	for rows.Next() {
		var s GroupSummary
		var created, updated, last int64
		if err := rows.Scan(&s.ID, &s.Name, &created, &updated, &s.Messages, &last); err != nil {
			return nil, err
		}
		s.CreatedAt = time.UnixMilli(created)
		s.UpdatedAt = time.UnixMilli(updated)
		if last > 0 {
			s.LastMessage = time.UnixMilli(last)
		}
		groups = append(groups, s)
	}
	return groups, rows.Err()
}
