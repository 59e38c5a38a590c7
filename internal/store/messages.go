package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Message struct {
	ID         string
	GroupID    string
	Author     string
	AuthorName string
	Timestamp  time.Time
	Text       string
	Raw        string
	SourceFile string
	Line       int
}

const messageColumns = "id, group_id, author, author_name, timestamp, text, raw, source_file, line"

// InsertMessages stores msgs in one transaction. Messages whose id already
// exists are left untouched; the number of new rows is returned.
func (d *DB) InsertMessages(ctx context.Context, msgs []Message) (int, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO messages (id, group_id, author, author_name, timestamp, text, raw, source_file, line, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	inserted := 0
	for _, m := range msgs {
		res, err := stmt.ExecContext(ctx,
			m.ID,
			m.GroupID,
			m.Author,
			m.AuthorName,
			m.Timestamp.UnixMilli(),
			m.Text,
			m.Raw,
			m.SourceFile,
			m.Line,
			now,
		)
		if err != nil {
			return 0, fmt.Errorf("insert message %s: %w", m.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (d *DB) MessageByID(ctx context.Context, id string) (*Message, error) {
	row := d.db.QueryRowContext(ctx, "SELECT "+messageColumns+" FROM messages WHERE id = ?", id)
	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return m, err
}

// GroupMessages returns every message of a group in chronological order.
func (d *DB) GroupMessages(ctx context.Context, groupID string) ([]Message, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE group_id = ? ORDER BY timestamp, rowid",
		groupID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// MessagesWindow returns a window of a group's messages around the hit
// message. It only loads the necessary rows instead of the whole group.
// startPos is the number of messages before the returned window and
// totalCount the number of messages in the group.
func (d *DB) MessagesWindow(ctx context.Context, groupID, hitID string, around int) (msgs []Message, hitIdx int, startPos int, totalCount int, err error) {
	err = d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM messages WHERE group_id = ?", groupID,
	).Scan(&totalCount)
	if err != nil {
		return nil, -1, 0, 0, err
	}

	// 0-based position of the hit within the group
	hitPos := -1
	if hitID != "" {
		err = d.db.QueryRowContext(ctx, `
			SELECT pos FROM (
				SELECT id, ROW_NUMBER() OVER (ORDER BY timestamp, rowid) - 1 AS pos
				FROM messages WHERE group_id = ?
			) WHERE id = ?`,
			groupID, hitID,
		).Scan(&hitPos)
		if err == sql.ErrNoRows {
			hitPos = -1
			err = nil
		} else if err != nil {
			return nil, -1, 0, 0, err
		}
	}

	startPos = 0
	limit := totalCount
	if hitPos >= 0 {
		startPos = hitPos - around
		if startPos < 0 {
			startPos = 0
		}
		endPos := hitPos + around + 1
		if endPos > totalCount {
			endPos = totalCount
		}
		limit = endPos - startPos
	}

	rows, err := d.db.QueryContext(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE group_id = ? ORDER BY timestamp, rowid LIMIT ? OFFSET ?",
		groupID, limit, startPos,
	)
	if err != nil {
		return nil, -1, 0, 0, err
	}
	defer rows.Close()

	msgs, err = scanMessages(rows)
	if err != nil {
		return nil, -1, 0, 0, err
	}
	hitIdx = -1
	for i, m := range msgs {
		if m.ID == hitID {
			hitIdx = i
			break
		}
	}
	return msgs, hitIdx, startPos, totalCount, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(s scanner) (*Message, error) {
	var m Message
	var ts int64
	if err := s.Scan(&m.ID, &m.GroupID, &m.Author, &m.AuthorName, &ts, &m.Text, &m.Raw, &m.SourceFile, &m.Line); err != nil {
		return nil, err
	}
	m.Timestamp = time.UnixMilli(ts)
	return &m, nil
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var msgs []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}
