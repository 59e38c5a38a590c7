// Package store is the SQLite database behind statuz: chat groups, their
// messages, milestones, project context and bookkeeping tables. The schema
// is owned by the numbered migrations in the migrations package.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/deepaksx/statuz-sub001/internal/migrate"
	"github.com/deepaksx/statuz-sub001/migrations"
	"github.com/rs/zerolog"

	_ "modernc.org/sqlite"
)

const pragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"

var ErrNotFound = errors.New("not found")

type Options struct {
	// MigrationsFS and MigrationsDir override the migrations compiled into
	// the binary. MigrationsFS wins when both are set.
	MigrationsFS  fs.FS
	MigrationsDir string
	// NoMigrate leaves pending migrations for an explicit Migrate call.
	NoMigrate bool
	Logger    zerolog.Logger
}

type DB struct {
	db     *sql.DB
	log    zerolog.Logger
	fsys   fs.FS
	dir    string
	runner *migrate.Runner
}

// Open opens (creating if needed) the database at dbPath and brings its
// schema up to date.
func Open(ctx context.Context, dbPath string, opts Options) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	d := &DB{
		db:     db,
		log:    opts.Logger,
		fsys:   migrations.FS,
		dir:    ".",
		runner: migrate.NewRunner(db, opts.Logger),
	}
	switch {
	case opts.MigrationsFS != nil:
		d.fsys = opts.MigrationsFS
	case opts.MigrationsDir != "":
		d.fsys = os.DirFS(opts.MigrationsDir)
	}

	if opts.NoMigrate {
		return d, nil
	}
	if _, err := d.runner.Run(ctx, d.fsys, d.dir); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

// MigrationStatus lists applied and pending migrations.
func (d *DB) MigrationStatus(ctx context.Context) (migrate.Status, error) {
	return d.runner.Status(ctx, d.fsys, d.dir)
}

// Migrate applies pending migrations. Open already does this; it is
// exposed for the migrate command.
func (d *DB) Migrate(ctx context.Context) (migrate.Result, error) {
	return d.runner.Run(ctx, d.fsys, d.dir)
}

func (d *DB) MessageCount(ctx context.Context) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages").Scan(&n)
	return n, err
}

func (d *DB) FTSCount(ctx context.Context) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages_fts").Scan(&n)
	return n, err
}
