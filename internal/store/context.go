package store

import (
	"context"
	"database/sql"
	"time"
)

// GroupContext is the project description attached to a group.
type GroupContext struct {
	GroupID   string
	Project   string
	YAML      string
	UpdatedAt time.Time
}

func (d *DB) SetGroupContext(ctx context.Context, gc GroupContext) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO group_context (group_id, project, context_yaml, updated_at)
		 VALUES (?, ?, ?, ?)`,
		gc.GroupID, gc.Project, gc.YAML, time.Now().UnixMilli(),
	)
	return err
}

func (d *DB) GroupContext(ctx context.Context, groupID string) (*GroupContext, error) {
	var gc GroupContext
	var updated int64
	err := d.db.QueryRowContext(ctx,
		"SELECT group_id, project, context_yaml, updated_at FROM group_context WHERE group_id = ?",
		groupID,
	).Scan(&gc.GroupID, &gc.Project, &gc.YAML, &updated)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	gc.UpdatedAt = time.UnixMilli(updated)
	return &gc, nil
}
