package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type ImportInfo struct {
	Mtime int64
	Size  int64
}

// Import is the bookkeeping row written after an export file is ingested.
type Import struct {
	FilePath  string
	GroupID   string
	Mtime     int64
	Size      int64
	Messages  int
	Fallbacks int
}

// ImportInfo returns nil when the file was never imported.
func (d *DB) ImportInfo(ctx context.Context, filePath string) (*ImportInfo, error) {
	var info ImportInfo
	err := d.db.QueryRowContext(ctx,
		"SELECT mtime, size FROM imports WHERE file_path = ?",
		filePath,
	).Scan(&info.Mtime, &info.Size)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (d *DB) RecordImport(ctx context.Context, imp Import) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO imports (file_path, group_id, mtime, size, messages, fallbacks, imported_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		imp.FilePath, imp.GroupID, imp.Mtime, imp.Size, imp.Messages, imp.Fallbacks, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record import %s: %w", imp.FilePath, err)
	}
	return nil
}

// SourceFile returns the export file most recently imported into a group.
func (d *DB) SourceFile(ctx context.Context, groupID string) (string, error) {
	var path string
	err := d.db.QueryRowContext(ctx,
		"SELECT file_path FROM imports WHERE group_id = ? ORDER BY imported_at DESC LIMIT 1",
		groupID,
	).Scan(&path)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return path, err
}

func (d *DB) SetConfig(ctx context.Context, key, value string) error {
	_, err := d.db.ExecContext(ctx, "INSERT OR REPLACE INTO config (key, value) VALUES (?, ?)", key, value)
	return err
}

// GetConfig returns "" and ErrNotFound for unknown keys.
func (d *DB) GetConfig(ctx context.Context, key string) (string, error) {
	var v string
	err := d.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return v, err
}

type AuditEntry struct {
	ID        int64
	Action    string
	Details   string
	CreatedAt time.Time
}

func (d *DB) Audit(ctx context.Context, action, details string) error {
	_, err := d.db.ExecContext(ctx,
		"INSERT INTO audit (action, details, created_at) VALUES (?, ?, ?)",
		action, details, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("audit %s: %w", action, err)
	}
	return nil
}

// AuditLog returns the latest entries, newest first.
func (d *DB) AuditLog(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx,
		"SELECT id, action, details, created_at FROM audit ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var created int64
		if err := rows.Scan(&e.ID, &e.Action, &e.Details, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = time.UnixMilli(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
