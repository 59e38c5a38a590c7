// Package migrate applies numbered SQL migration files to a database and
// keeps a ledger of the ones already applied in the same database.
package migrate

import (
	"fmt"
	"time"
)

// Unit is one migration file. ID is the ordering key.
type Unit struct {
	ID   int
	Name string
	Body string
	File string
}

// Entry is a ledger row.
type Entry struct {
	ID        int
	Name      string
	AppliedAt time.Time
}

// UnitError reports the migration that stopped a run. The database may
// need manual inspection before the run is retried.
type UnitError struct {
	ID   int
	Name string
	Op   string // begin, execute, record or commit
	Err  error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("migration %d (%s): %s: %v", e.ID, e.Name, e.Op, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}
