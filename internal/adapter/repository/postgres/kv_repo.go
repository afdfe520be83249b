package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fxledger/internal/infrastructure/metrics"
)

// ChangesChannel is the LISTEN/NOTIFY channel carrying changed bucket keys.
const ChangesChannel = "fxledger_changes"

const (
	readBucketSQL = `SELECT payload FROM buckets WHERE key = $1`

	upsertBucketSQL = `
INSERT INTO buckets (key, payload, version, updated_at)
VALUES ($1, $2, 1, NOW())
ON CONFLICT (key) DO UPDATE
SET payload = EXCLUDED.payload,
    version = buckets.version + 1,
    updated_at = NOW()`

	notifySQL = `SELECT pg_notify($1, $2)`
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// KVRepository implements usecase.KVStore and usecase.ChangeNotifier on a
// PostgreSQL jsonb table.
type KVRepository struct {
	pool    *pgxpool.Pool
	db      querier
	retrier *Retrier
	metrics *metrics.Metrics
}

// NewKVRepository creates a new KVRepository. m may be nil.
func NewKVRepository(pool *pgxpool.Pool, m *metrics.Metrics) *KVRepository {
	repo := newKVRepositoryWithDB(pool, m)
	repo.pool = pool
	return repo
}

func newKVRepositoryWithDB(db querier, m *metrics.Metrics) *KVRepository {
	return &KVRepository{
		db:      db,
		retrier: NewRetrier(),
		metrics: m,
	}
}

// Read returns the raw bucket, or nil when it is absent.
func (r *KVRepository) Read(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := r.db.QueryRow(ctx, readBucketSQL, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		r.record("read", nil)
		return nil, nil
	}
	r.record("read", err)
	if err != nil {
		return nil, fmt.Errorf("read bucket %s: %w", key, err)
	}
	return payload, nil
}

// Write upserts the bucket and notifies listeners. Serialization failures
// and deadlocks are retried.
func (r *KVRepository) Write(ctx context.Context, key string, raw []byte) error {
	err := r.retrier.Retry(ctx, func() error {
		if _, err := r.db.Exec(ctx, upsertBucketSQL, key, raw); err != nil {
			return err
		}
		_, err := r.db.Exec(ctx, notifySQL, ChangesChannel, key)
		return err
	})
	r.record("write", err)
	if err != nil {
		return fmt.Errorf("write bucket %s: %w", key, err)
	}
	return nil
}

// Watch listens on ChangesChannel and calls fn for every notified key until
// ctx is done. It holds one pool connection while running.
func (r *KVRepository) Watch(ctx context.Context, fn func(key string)) error {
	if r.pool == nil {
		return errors.New("watch requires a connection pool")
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ChangesChannel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		fn(n.Payload)
	}
}

func (r *KVRepository) record(op string, err error) {
	if r.metrics != nil {
		r.metrics.RecordStorage("postgres", op, err)
	}
}
