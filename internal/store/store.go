// Package store is the query/mutation façade over the relational store.
// Every write stamps the owning user resolved from the request context and
// every balance movement is an atomic in-place increment, never a
// read-modify-write.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"kopilka/internal/core"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339Nano
)

type Store struct {
	db      *sql.DB
	timeout time.Duration
}

// dsn appends the pragmas concurrent writers need: WAL so reads do not
// block writes, and a busy timeout so a writer contending for the single
// write lock queues instead of failing with SQLITE_BUSY. The concurrent
// fan-outs in the ledger engine and planner depend on this.
func dsn(dbPath string) string {
	return dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Open opens the database at dbPath, creating the directory and running
// migrations first. Every store call is bounded by timeout.
func Open(dbPath string, timeout time.Duration) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, timeout: timeout}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// opCtx bounds a store call. Writes are not cancellable once issued; the
// timeout only covers waiting for the store to answer.
func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func fmtDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}

func parseDate(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullUUID(id sql.NullString) uuid.NullUUID {
	if !id.Valid {
		return uuid.NullUUID{}
	}
	parsed, err := uuid.Parse(id.String)
	if err != nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: parsed, Valid: true}
}

func nullUUIDArg(id uuid.NullUUID) sql.NullString {
	if !id.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: id.UUID.String(), Valid: true}
}

func nullKopecks(d decimal.NullDecimal) sql.NullInt64 {
	if !d.Valid {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: core.Kopecks(d.Decimal), Valid: true}
}

func nullAmount(k sql.NullInt64) decimal.NullDecimal {
	if !k.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: core.FromKopecks(k.Int64), Valid: true}
}

// noRows maps sql.ErrNoRows onto the domain's not-found sentinel.
func noRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}
