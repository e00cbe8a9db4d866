package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jupiter/internal/ports"
)

// Store implements ports.Store over database/sql
type Store struct {
	db *sql.DB
	d  dialect
}

var _ ports.Store = (*Store)(nil)

// Open connects to the database named by url and applies the schema.
// Supported: sqlite://path (or a bare path), postgres://..., mysql://dsn.
func Open(ctx context.Context, url string) (*Store, error) {
	d, dsn, err := parseURL(url)
	if err != nil {
		return nil, err
	}

	if d.name == "sqlite" {
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = "file:" + dsn + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL"
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if d.name == "sqlite" {
		// one writer; transactions must never nest
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, d: d}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return err
	}
	for _, stmt := range schemaStatements(s.d) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w (statement: %.60s)", err, stmt)
		}
	}
	return s.updateMeta(ctx)
}

func (s *Store) updateMeta(ctx context.Context) error {
	return ports.InTx(ctx, s, func(ptx ports.Tx) error {
		t := ptx.(*tx)
		if _, err := t.exec(ctx, `DELETE FROM meta WHERE meta_key = ?`, "schema_version"); err != nil {
			return err
		}
		_, err := t.exec(ctx, `INSERT INTO meta (meta_key, meta_value) VALUES (?, ?)`, "schema_version", schemaVersion)
		return err
	})
}

// SchemaVersion reports the version recorded in the meta table
func (s *Store) SchemaVersion(ctx context.Context) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, s.d.rebind(`SELECT meta_value FROM meta WHERE meta_key = ?`), "schema_version").Scan(&v)
	return v, err
}

// Dialect names the engine in use
func (s *Store) Dialect() string {
	return s.d.name
}

// Begin starts a transaction
func (s *Store) Begin(ctx context.Context) (ports.Tx, error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &tx{tx: sqlTx, d: s.d}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func nullNanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toNanos(*t), Valid: true}
}

func fromNullNanos(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromNanos(n.Int64)
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
