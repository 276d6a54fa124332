package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of *pgxpool.Pool the Postgres store needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore keeps values as JSONB rows in one table.
type PostgresStore struct {
	q       Querier
	table   string
	closeFn func()
	now     func() time.Time
}

// NewPostgresStore wraps an existing querier. table must be a plain
// identifier; it is validated by the configuration layer.
func NewPostgresStore(q Querier, table string) *PostgresStore {
	return &PostgresStore{q: q, table: table, closeFn: func() {}, now: time.Now}
}

// OpenPostgresStore connects a pool to dsn and creates the table if needed.
func OpenPostgresStore(ctx context.Context, dsn, table string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	s := NewPostgresStore(pool, table)
	s.closeFn = pool.Close
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the backing table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table)
	if _, err := s.q.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres create table %s: %w", s.table, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string, dst any) (bool, error) {
	query, args, err := psql.Select("value").From(s.table).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return false, err
	}

	var data []byte
	if err := s.q.QueryRow(ctx, query, args...).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("postgres get '%s': %w", key, err)
	}
	return true, decodeValue(key, data, dst)
}

func (s *PostgresStore) Set(ctx context.Context, key string, value any) error {
	data, err := encodeValue(key, value)
	if err != nil {
		return err
	}

	query, args, err := psql.Insert(s.table).
		Columns("key", "value", "updated_at").
		Values(key, data, s.now().UTC()).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("postgres set '%s': %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	query, args, err := psql.Delete(s.table).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("postgres delete '%s': %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.closeFn()
	return nil
}
