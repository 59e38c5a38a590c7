package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const ledgerTable = `
CREATE TABLE IF NOT EXISTS _migrations (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at INTEGER NOT NULL
)`

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Ledger records applied migrations in the _migrations table. Rows are
// only ever inserted.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) EnsureTable(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, ledgerTable); err != nil {
		return fmt.Errorf("create ledger table: %w", err)
	}
	return nil
}

// AppliedIDs returns the recorded migration ids in ascending order.
func (l *Ledger) AppliedIDs(ctx context.Context) ([]int, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT id FROM _migrations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (l *Ledger) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT id, name, applied_at FROM _migrations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ms int64
		if err := rows.Scan(&e.ID, &e.Name, &ms); err != nil {
			return nil, err
		}
		e.AppliedAt = time.UnixMilli(ms)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Record inserts the ledger row for u through ex, which is the database
// itself or the transaction the migration ran in. A rejected insert, e.g.
// a duplicate id, is returned as is.
func (l *Ledger) Record(ctx context.Context, ex execer, u Unit, at time.Time) error {
	if ex == nil {
		ex = l.db
	}
	_, err := ex.ExecContext(ctx,
		"INSERT INTO _migrations (id, name, applied_at) VALUES (?, ?, ?)",
		u.ID, u.Name, at.UnixMilli(),
	)
	return err
}
