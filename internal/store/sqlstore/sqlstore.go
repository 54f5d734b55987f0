// Package sqlstore is the SQL implementation of store.Store. SQLite
// (modernc.org/sqlite through database/sql) and PostgreSQL (pgx pool) share
// one schema and one set of queries; go-sqlbuilder renders each query in the
// driver's placeholder flavor.
//
// Timestamps are stored as RFC 3339 text in UTC and optional values as empty
// strings, so neither driver needs NULL handling.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite"

	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
	"github.com/willbda/happy-to-have-lived-sub002/internal/store"
)

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options configures Open.
type Options struct {
	Driver          string
	DSN             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Store implements store.Store over SQL.
type Store struct {
	db     backend
	flavor sqlbuilder.Flavor
	driver string
}

var _ store.Store = (*Store)(nil)

// sqlitePragmas are applied to every pooled connection through the DSN.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// Open connects to the database and applies pending migrations.
func Open(ctx context.Context, opts Options) (*Store, error) {
	var s *Store
	switch opts.Driver {
	case DriverSQLite:
		db, err := openSQLite(opts)
		if err != nil {
			return nil, err
		}
		s = &Store{db: newSQLiteBackend(db), flavor: sqlbuilder.SQLite, driver: DriverSQLite}
	case DriverPostgres:
		pool, err := openPostgres(ctx, opts)
		if err != nil {
			return nil, err
		}
		s = &Store{db: newPGBackend(pool), flavor: sqlbuilder.PostgreSQL, driver: DriverPostgres}
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", opts.Driver)
	}

	if err := s.applyMigrations(ctx); err != nil {
		_ = s.db.Close()
		return nil, err
	}
	return s, nil
}

func openSQLite(opts Options) (*sql.DB, error) {
	path := opts.DSN
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure database directory: %w", err)
		}
	}

	params := make([]string, len(sqlitePragmas))
	for i, p := range sqlitePragmas {
		params[i] = "_pragma=" + p
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", path+sep+strings.Join(params, "&"))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if opts.MaxConns > 0 {
		db.SetMaxOpenConns(opts.MaxConns)
	}
	db.SetConnMaxLifetime(opts.MaxConnLifetime)
	db.SetConnMaxIdleTime(opts.MaxConnIdleTime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}

func openPostgres(ctx context.Context, opts Options) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	poolConfig.MinConns = int32(opts.MinConns)
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Driver reports which database the store is connected to.
func (s *Store) Driver() string { return s.driver }

var kindTables = map[domain.Kind]string{
	domain.KindAction: "actions",
	domain.KindGoal:   "goals",
	domain.KindValue:  "personal_values",
	domain.KindTerm:   "terms",
}

func tableFor(kind domain.Kind) (string, error) {
	table, ok := kindTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown kind %q", kind)
	}
	return table, nil
}

func (s *Store) Exists(ctx context.Context, kind domain.Kind, id uuid.UUID) (bool, error) {
	return s.exists(ctx, s.db, kind, id)
}

func (s *Store) exists(ctx context.Context, q querier, kind domain.Kind, id uuid.UUID) (bool, error) {
	table, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	sb := s.flavor.NewSelectBuilder()
	sb.Select("COUNT(1)").From(table).Where(sb.Equal("id", id.String()))

	query, args := sb.Build()
	var count int
	if err := queryOne(ctx, q, query, args, &count); err != nil {
		return false, fmt.Errorf("check %s %s: %w", kind, id, err)
	}
	return count > 0, nil
}

// inTx runs fn in one transaction. SQLite lock contention is retried.
func (s *Store) inTx(ctx context.Context, fn func(tx txn) error) error {
	op := func() error {
		tx, err := s.db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	}
	if s.driver == DriverSQLite {
		return retryOnBusy(ctx, op)
	}
	return op()
}

func queryOne(ctx context.Context, q querier, query string, args []any, dest ...any) error {
	found := false
	err := each(ctx, q, query, args, func(r rows) error {
		found = true
		return r.Scan(dest...)
	})
	if err != nil {
		return err
	}
	if !found {
		return sql.ErrNoRows
	}
	return nil
}

func each(ctx context.Context, q querier, query string, args []any, scan func(rows) error) error {
	r, err := q.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer r.Close()
	for r.Next() {
		if err := scan(r); err != nil {
			return err
		}
	}
	return r.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatOptTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("stored timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func parseOptTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("stored id %q: %w", s, err)
	}
	return id, nil
}
