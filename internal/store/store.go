// Package store persists users, roommate profiles, blocks, reports and
// matches over database/sql. Postgres (lib/pq) and SQLite (modernc.org/sqlite)
// share the same queries; placeholders are written as "?" and rebound for
// Postgres.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/roomsync/roommate-finder/internal/config"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

func (d dialect) String() string {
	if d == dialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the User/Profile Store. A Store returned to a WithTx callback is
// bound to that transaction.
type Store struct {
	db      *sql.DB
	q       querier
	dialect dialect
	inTx    bool
	now     func() time.Time
}

// Open connects to the database described by cfg and verifies the connection.
// It does not create the schema; call Migrate for that.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	var (
		d       dialect
		driver  string
		dsn     string
		maxOpen = cfg.MaxOpenConns
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "postgres", "postgresql":
		d, driver, dsn = dialectPostgres, "postgres", cfg.DSN
		if dsn == "" {
			return nil, fmt.Errorf("open store: postgres driver requires a DSN")
		}
	case "", "sqlite", "sqlite3":
		d, driver = dialectSQLite, "sqlite"
		path := cfg.Path
		if path == "" {
			path = "data/roommate.db"
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)"
		// SQLite serializes writers; one connection avoids SQLITE_BUSY.
		maxOpen = 1
	default:
		return nil, fmt.Errorf("open store: unsupported driver %q", cfg.Driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &Store{db: db, q: db, dialect: d, now: time.Now}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Dialect names the SQL backend ("postgres" or "sqlite").
func (s *Store) Dialect() string {
	return s.dialect.String()
}

// rebind rewrites "?" placeholders to "$1", "$2", ... for Postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.q.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.q.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.q.QueryRowContext(ctx, s.rebind(query), args...)
}

func (s *Store) unixNow() int64 {
	return s.now().Unix()
}

func fromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
