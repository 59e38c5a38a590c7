package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type State int

const (
	Idle State = iota
	EnsuringLedger
	Enumerating
	Executing
	Recording
	Complete
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case EnsuringLedger:
		return "ensuring-ledger"
	case Enumerating:
		return "enumerating"
	case Executing:
		return "executing"
	case Recording:
		return "recording"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Runner applies pending migrations strictly one at a time in ascending
// id order. It is not safe for concurrent use and concurrent runs against
// the same database must be serialized by the caller.
type Runner struct {
	db     *sql.DB
	ledger *Ledger
	log    zerolog.Logger
	state  State

	// Transactional runs each migration body and its ledger insert in one
	// transaction. Leave it on for stores with transactional DDL such as
	// SQLite. When off, a crash between the two steps leaves a migration
	// executed but unrecorded and it will run again on the next start.
	Transactional bool

	Now func() time.Time
}

type Result struct {
	Applied []Unit
}

type Status struct {
	Applied []Entry
	Pending []Unit
}

func NewRunner(db *sql.DB, log zerolog.Logger) *Runner {
	return &Runner{
		db:            db,
		ledger:        NewLedger(db),
		log:           log,
		Transactional: true,
		Now:           time.Now,
	}
}

func (r *Runner) State() State {
	return r.state
}

func (r *Runner) Ledger() *Ledger {
	return r.ledger
}

func (r *Runner) setState(s State) {
	r.state = s
	r.log.Debug().Str("state", s.String()).Msg("migration runner")
}

// RunDir applies the migrations found in a directory on disk.
func (r *Runner) RunDir(ctx context.Context, dir string) (Result, error) {
	return r.Run(ctx, os.DirFS(dir), ".")
}

// Run applies every migration in dir that the ledger does not list yet.
// The first failure stops the run; later migrations are not attempted and
// the returned error is a *UnitError naming the failed migration.
func (r *Runner) Run(ctx context.Context, fsys fs.FS, dir string) (Result, error) {
	var res Result

	r.setState(EnsuringLedger)
	if err := r.ledger.EnsureTable(ctx); err != nil {
		r.setState(Failed)
		return res, err
	}

	r.setState(Enumerating)
	pending, err := r.pending(ctx, fsys, dir)
	if err != nil {
		r.setState(Failed)
		return res, err
	}

	if len(pending) == 0 {
		r.log.Debug().Msg("no pending migrations")
		r.setState(Complete)
		return res, nil
	}

	r.log.Info().Int("pending", len(pending)).Msg("applying migrations")
	for _, u := range pending {
		start := time.Now()
		if err := r.apply(ctx, u); err != nil {
			r.setState(Failed)
			r.log.Error().Err(err).Int("id", u.ID).Str("name", u.Name).Msg("migration failed")
			return res, err
		}
		res.Applied = append(res.Applied, u)
		r.log.Info().Int("id", u.ID).Str("name", u.Name).Dur("took", time.Since(start)).Msg("migration applied")
	}

	r.setState(Complete)
	return res, nil
}

// Status reports applied and pending migrations without applying any.
func (r *Runner) Status(ctx context.Context, fsys fs.FS, dir string) (Status, error) {
	var st Status
	if err := r.ledger.EnsureTable(ctx); err != nil {
		return st, err
	}
	applied, err := r.ledger.Entries(ctx)
	if err != nil {
		return st, err
	}
	pending, err := r.pending(ctx, fsys, dir)
	if err != nil {
		return st, err
	}
	st.Applied = applied
	st.Pending = pending
	return st, nil
}

func (r *Runner) pending(ctx context.Context, fsys fs.FS, dir string) ([]Unit, error) {
	units, err := ListUnits(fsys, dir, r.log)
	if err != nil {
		return nil, err
	}
	ids, err := r.ledger.AppliedIDs(ctx)
	if err != nil {
		return nil, err
	}

	applied := make(map[int]bool, len(ids))
	for _, id := range ids {
		applied[id] = true
	}

	// units are already sorted by id
	var pending []Unit
	for _, u := range units {
		if !applied[u.ID] {
			pending = append(pending, u)
		}
	}
	return pending, nil
}

func (r *Runner) apply(ctx context.Context, u Unit) error {
	if !r.Transactional {
		r.setState(Executing)
		if err := execBody(ctx, r.db, u.Body); err != nil {
			return &UnitError{ID: u.ID, Name: u.Name, Op: "execute", Err: err}
		}
		r.setState(Recording)
		if err := r.ledger.Record(ctx, r.db, u, r.Now()); err != nil {
			return &UnitError{ID: u.ID, Name: u.Name, Op: "record", Err: err}
		}
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &UnitError{ID: u.ID, Name: u.Name, Op: "begin", Err: err}
	}
	defer tx.Rollback()

	r.setState(Executing)
	if err := execBody(ctx, tx, u.Body); err != nil {
		return &UnitError{ID: u.ID, Name: u.Name, Op: "execute", Err: err}
	}
	r.setState(Recording)
	if err := r.ledger.Record(ctx, tx, u, r.Now()); err != nil {
		return &UnitError{ID: u.ID, Name: u.Name, Op: "record", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &UnitError{ID: u.ID, Name: u.Name, Op: "commit", Err: err}
	}
	return nil
}

// execBody runs the whole file as one batch.
func execBody(ctx context.Context, ex execer, body string) error {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	if _, err := ex.ExecContext(ctx, body); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}
