// Package database owns the single guarded SQLite connection and composes
// DDL generation, value marshaling and row materialization into the
// operations a host application calls: Open, Close, Execute, Query,
// QueryScalar, TableExists, CreateTable and Insert.
//
// Every operation acquires the guard for its own duration only. Statements
// on one Database never run concurrently; there are no transactions
// spanning calls.
package database

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/sqlerm/pkg/core"
	"github.com/leapstack-labs/sqlerm/pkg/registry"

	// SQLite driver (pure Go).
	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver used by Open.
const DriverName = "sqlite"

// Opener opens a database handle. sql.Open matches this signature.
type Opener func(driverName, dataSourceName string) (*sql.DB, error)

// Database wraps zero or one live connection behind a mutex.
type Database struct {
	mu       sync.Mutex
	db       *sql.DB
	poisoned bool

	logger *slog.Logger
	types  *registry.Types
	opener Opener
}

// Option configures a Database.
type Option func(*Database)

// WithLogger sets the logger. The default, and a nil logger, discard everything.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Database) {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		d.logger = logger
	}
}

// WithTypes sets the type registry used by Query and by Insert when it is
// given no registry of its own.
func WithTypes(types *registry.Types) Option {
	return func(d *Database) { d.types = types }
}

// WithOpener replaces sql.Open, e.g. with a sqlmock constructor in tests.
func WithOpener(opener Opener) Option {
	return func(d *Database) { d.opener = opener }
}

// New creates a closed Database.
func New(opts ...Option) *Database {
	d := &Database{
		logger: slog.New(slog.DiscardHandler),
		types:  registry.NewTypes(),
		opener: sql.Open,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open connects to the data source named by settings. On failure the
// previous state is unchanged. On success a previously held connection is
// closed and replaced.
func (d *Database) Open(ctx context.Context, settings Settings) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	db, err := d.opener(DriverName, settings.DSN())
	if err != nil {
		return core.Wrap(core.CodeConnection, "could not open database connection", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return core.Wrap(core.CodeConnection, "could not open database connection", err)
	}

	if d.db != nil {
		d.logger.Debug("replacing open database connection")
		if err := d.db.Close(); err != nil {
			d.logger.Warn("failed to close replaced connection", slog.String("error", err.Error()))
		}
	}

	d.db = db
	d.poisoned = false
	d.logger.Debug("opened database connection", slog.String("data_source", settings.DataSource))
	return nil
}

// Close releases the connection. Closing a closed Database is a no-op.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}

	db := d.db
	d.db = nil
	d.poisoned = false
	d.logger.Debug("closing database connection")
	if err := db.Close(); err != nil {
		return core.Wrap(core.CodeConnection, "could not close database connection", err)
	}
	return nil
}

// IsOpen reports whether a connection is held.
func (d *Database) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db != nil
}

// guard runs fn with the connection while holding the mutex. A panic inside
// fn poisons the Database: it is reported as CodeGuardPoisoned and every
// later call fails the same way until Close or a successful Open.
func (d *Database) guard(fn func(db *sql.DB) error) (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.poisoned {
		return core.New(core.CodeGuardPoisoned, "connection guard poisoned by an earlier panic")
	}
	if d.db == nil {
		return core.New(core.CodeNotConnected, "database connection not established")
	}

	defer func() {
		if r := recover(); r != nil {
			d.poisoned = true
			d.logger.Error("panic while holding connection guard", slog.Any("panic", r))
			err = core.Newf(core.CodeGuardPoisoned, "connection guard poisoned: %v", r)
		}
	}()

	return fn(d.db)
}

// prepare compiles query on db.
func prepare(ctx context.Context, db *sql.DB, query string) (*sql.Stmt, error) {
	stmt, err := db.PrepareContext(ctx, query)
	if err != nil {
		return nil, core.Wrap(core.CodeQueryCompile, "could not compile statement", err)
	}
	return stmt, nil
}

// Execute runs a statement that returns no rows and reports the number of
// affected rows.
func (d *Database) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	var affected int64
	err := d.guard(func(db *sql.DB) error {
		var err error
		affected, err = d.exec(ctx, db, query, args...)
		return err
	})
	return affected, err
}

// exec runs query on db. The caller holds the guard.
func (d *Database) exec(ctx context.Context, db *sql.DB, query string, args ...any) (int64, error) {
	stmt, err := prepare(ctx, db, query)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	d.logger.Debug("executing statement", slog.String("sql", query), slog.Int("args", len(args)))
	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, core.Wrap(core.CodeQueryExecution, "failed to execute statement", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, core.Wrap(core.CodeQueryExecution, "failed to read affected rows", err)
	}
	return affected, nil
}
