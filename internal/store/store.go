// Package store persists the domain over an embedded SQLite file,
// with a switch to a pooled Postgres connection for production DSNs.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/config"
)

// ErrStore wraps schema and I/O failures so tasks can abort with
// rollback semantics.
var ErrStore = errors.New("store: database failure")

// ErrNotFound marks lookups that matched no row.
var ErrNotFound = errors.New("store: not found")

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var embedMigrations embed.FS

// UpsertOutcome reports what an upsert did.
type UpsertOutcome int

const (
	OutcomeCreated UpsertOutcome = iota
	OutcomeUpdated
	OutcomeSkipped
)

func (o UpsertOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	default:
		return "skipped"
	}
}

// Store wraps the database handle and the repositories.
type Store struct {
	db           *sql.DB
	log          *zap.Logger
	path         string // sqlite file path, empty for postgres
	pg           bool
	backupDir    string
	backupBucket string
}

// prefixCols qualifies a comma-separated column list with a table
// alias for use in joins.
func prefixCols(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// rebind rewrites ? placeholders to $n for the postgres driver.
// Queries are written in the sqlite style throughout.
func (s *Store) rebind(query string) string {
	if !s.pg {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Open connects, applies pragmas for sqlite, and migrates the schema.
// DSNs with a postgres scheme go through pgx with pooling; everything
// else is treated as a sqlite file path.
func Open(cfg config.DBConfig, log *zap.Logger) (*Store, error) {
	log = log.Named("store")

	driver, dialect, dir := "sqlite3", "sqlite3", "migrations/sqlite"
	path := cfg.DSN
	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		driver, dialect, dir = "pgx", "postgres", "migrations/postgres"
		path = ""
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStore, driver, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:           db,
		log:          log,
		path:         path,
		pg:           driver == "pgx",
		backupDir:    cfg.BackupDir,
		backupBucket: cfg.BackupBucket,
	}
	if driver == "sqlite3" {
		if err := s.applyPragmas(); err != nil {
			db.Close()
			return nil, err
		}
	}
	if err := s.migrate(db, dialect, dir); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("database ready", zap.String("driver", driver))
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw handle for read-only callers.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) applyPragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA temp_store = MEMORY",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrStore, p, err)
		}
	}
	return nil
}

func (s *Store) migrate(db *sql.DB, dialect, dir string) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("%w: set dialect: %v", ErrStore, err)
	}
	if err := s.backupBeforeMigrate(db, dir); err != nil {
		return err
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("%w: migrate: %v", ErrStore, err)
	}
	return nil
}

// backupBeforeMigrate snapshots the sqlite file when pending
// migrations are about to change an already-populated database.
func (s *Store) backupBeforeMigrate(db *sql.DB, dir string) error {
	if s.pg || s.path == "" {
		return nil
	}
	current, err := goose.GetDBVersion(db)
	if err != nil || current == 0 {
		// Fresh database, nothing worth copying.
		return nil
	}
	migrations, err := goose.CollectMigrations(dir, 0, math.MaxInt64)
	if err != nil || len(migrations) == 0 {
		return nil
	}
	if migrations[len(migrations)-1].Version <= current {
		return nil
	}
	_, err = s.Backup(context.Background())
	return err
}

// insertReturningID runs an INSERT and reports the new row id. The
// postgres driver has no LastInsertId, so a RETURNING clause is
// appended there.
func (s *Store) insertReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	if s.pg {
		var id int64
		err := s.db.QueryRowContext(ctx, s.rebind(query)+" RETURNING id", args...).Scan(&id)
		return id, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func intPtrEq(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func int64PtrEq(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func floatPtrEq(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func timePtrEq(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// withTx runs fn inside a transaction and rolls back on error.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStore, err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStore, err)
	}
	return nil
}
