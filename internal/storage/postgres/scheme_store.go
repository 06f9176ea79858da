// Package postgres provides the Postgres-backed scheme store.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrisetu/scheme-scraper/internal/scheme"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SchemeStoreConfig controls the Postgres connection pool used for scheme rows.
type SchemeStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pgxPool is the narrow pool surface the store needs; pgxmock satisfies it
// in tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// SchemeStore reads and writes scheme rows in Postgres.
//
// It assumes a table schema like:
//
//	CREATE TABLE schemes (
//		title TEXT NOT NULL,
//		link TEXT NOT NULL,
//		description TEXT NOT NULL DEFAULT '',
//		eligibility TEXT NOT NULL DEFAULT '',
//		category TEXT NOT NULL,
//		sub_category TEXT NOT NULL,
//		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//		PRIMARY KEY (title, link)
//	);
type SchemeStore struct {
	pool  pgxPool
	clock scheme.Clock
	table string
}

// NewSchemeStore creates a Postgres-backed SchemeStore using the provided config.
func NewSchemeStore(ctx context.Context, cfg SchemeStoreConfig, clock scheme.Clock) (*SchemeStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "schemes"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &SchemeStore{
		pool:  pool,
		clock: clock,
		table: table,
	}, nil
}

// NewSchemeStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewSchemeStoreWithPool(pool pgxPool, clock scheme.Clock, table string) (*SchemeStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "schemes"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &SchemeStore{pool: pool, clock: clock, table: table}, nil
}

// Upsert inserts the record or, on a (title, link) conflict, overwrites all
// other fields. The single-statement form keeps concurrent upserts of the
// same key serialized by the database.
func (s *SchemeStore) Upsert(ctx context.Context, record scheme.Scheme) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("scheme store is not configured")
	}
	if record.Title == "" || record.Link == "" {
		return fmt.Errorf("record natural key (title, link) is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	title,
	link,
	description,
	eligibility,
	category,
	sub_category,
	updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7
)
ON CONFLICT (title, link) DO UPDATE SET
	description = EXCLUDED.description,
	eligibility = EXCLUDED.eligibility,
	category = EXCLUDED.category,
	sub_category = EXCLUDED.sub_category,
	updated_at = EXCLUDED.updated_at`, s.table)

	args := []any{
		record.Title,
		record.Link,
		record.Description,
		record.Eligibility,
		record.Category,
		record.SubCategory,
		s.now(),
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert scheme: %w", err)
	}
	return nil
}

// List returns every stored record, ordered for stable API responses.
func (s *SchemeStore) List(ctx context.Context) ([]scheme.Scheme, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("scheme store is not configured")
	}
	query := fmt.Sprintf(`
SELECT title, link, description, eligibility, category, sub_category
FROM %s
ORDER BY category, title`, s.table)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list schemes: %w", err)
	}
	defer rows.Close()

	var out []scheme.Scheme
	for rows.Next() {
		var record scheme.Scheme
		if err := rows.Scan(
			&record.Title,
			&record.Link,
			&record.Description,
			&record.Eligibility,
			&record.Category,
			&record.SubCategory,
		); err != nil {
			return nil, fmt.Errorf("scan scheme row: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scheme rows: %w", err)
	}
	return out, nil
}

// Ping verifies database connectivity.
func (s *SchemeStore) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("scheme store is not configured")
	}
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *SchemeStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *SchemeStore) now() time.Time {
	if s.clock != nil {
		return s.clock.Now()
	}
	return time.Now().UTC()
}
