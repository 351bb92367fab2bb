// Package postgres implements the survey store on Postgres using pgx v5.
//
// One loader owns one target table. Connections come from a pgxpool with a
// liveness check at construction and periodic recycling to shed dropped idle
// connections; every operation acquires its own connection and releases it on
// exit. Correctness under concurrent loaders rests on the table's UNIQUE
// constraint and the ON CONFLICT upsert, not on in-process locking.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"surveyetl/internal/metrics"
	"surveyetl/internal/schema"
	"surveyetl/internal/storage"
	"surveyetl/pkg/records"
)

// DefaultBatchSize is the upsert batch size when the caller does not set one.
const DefaultBatchSize = 100

// metricsJob labels every metric emitted by the loader.
const metricsJob = "survey_load"

// Loader is a Postgres-backed storage.SurveyStore.
type Loader struct {
	pool  *pgxpool.Pool
	table string
}

var _ storage.SurveyStore = (*Loader)(nil)

// NewLoader opens a pooled connection to dsn and verifies liveness with a
// round-trip ping. A failed ping is fatal: connection misconfiguration will
// not heal by retrying, so the caller gets the error immediately rather than
// on the first load.
func NewLoader(ctx context.Context, dsn, table string) (*Loader, error) {
	if table == "" {
		table = schema.DefaultTable
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	// Recycle connections hourly so half-dead idle connections get replaced.
	cfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	log.Printf("loader: connected table=%s", table)
	return &Loader{pool: pool, table: table}, nil
}

// Close releases the connection pool.
func (l *Loader) Close() { l.pool.Close() }

// Table returns the target table name.
func (l *Loader) Table() string { return l.table }

// EnsureSchema creates the survey table, its indexes, and the updated_at
// trigger if they do not exist. Safe to run on every load.
func (l *Loader) EnsureSchema(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	for _, stmt := range buildSchemaStatements(l.table) {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	log.Printf("loader: schema ensured table=%s", l.table)
	return nil
}

// Load runs the full load sequence for one canonical frame: optional schema
// bootstrap, validation, preparation, batched upsert, and table stats. It
// either returns a complete LoadResult or an error; a returned error means
// nothing from this call should be assumed committed except rows already
// reported in per-row counts of a prior successful call.
func (l *Loader) Load(ctx context.Context, f *records.Frame, opts storage.LoadOptions) (*storage.LoadResult, error) {
	started := time.Now()
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	if opts.CreateTable {
		if err := l.EnsureSchema(ctx); err != nil {
			return nil, err
		}
	}

	validation := validateFrame(f)
	for _, w := range validation.Warnings {
		log.Printf("loader: validation warning: %s", w)
	}
	if !validation.IsValid {
		return nil, fmt.Errorf("validation failed: %v", validation.Issues)
	}

	prepared := prepareFrame(f)

	upsert, err := l.upsert(ctx, prepared, batchSize)
	if err != nil {
		return nil, err
	}

	stats, err := l.TableStats(ctx)
	if err != nil {
		return nil, err
	}

	metrics.RecordStep(metricsJob, "load", nil, time.Since(started))
	log.Printf("loader: load done inserted=%d updated=%d errors=%d total_records=%d elapsed=%s",
		upsert.Inserted, upsert.Updated, upsert.Errors, stats.TotalRecords,
		time.Since(started).Truncate(time.Millisecond))

	return &storage.LoadResult{
		Status:     "success",
		Validation: validation,
		Upsert:     upsert,
		TableStats: stats,
		Timestamp:  time.Now(),
	}, nil
}

// upsert writes rows in fixed-size batches, one row at a time. A failing row
// is logged with its response_id, counted under Errors, and skipped; it never
// aborts the batch, and already-written rows in the batch stay written.
func (l *Loader) upsert(ctx context.Context, f *records.Frame, batchSize int) (storage.UpsertStats, error) {
	stats := storage.UpsertStats{Total: len(f.Rows)}
	if len(f.Rows) == 0 {
		log.Printf("loader: empty frame, nothing to upsert")
		return stats, nil
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return stats, fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	sql := buildUpsertSQL(l.table, f.Columns)
	args := make([]any, len(f.Columns))

	var batches int
	lastFlush := time.Now()
	for start := 0; start < len(f.Rows); start += batchSize {
		end := start + batchSize
		if end > len(f.Rows) {
			end = len(f.Rows)
		}

		for _, row := range f.Rows[start:end] {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			for i, col := range f.Columns {
				args[i] = row[col]
			}

			var isInsert bool
			if err := conn.QueryRow(ctx, sql, args...).Scan(&isInsert); err != nil {
				stats.Errors++
				id, _ := row[schema.ColResponseID].(string)
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Detail != "" {
					log.Printf("loader: row failed response_id=%s detail=%s sqlstate=%s", id, pgErr.Detail, pgErr.SQLState())
				} else {
					log.Printf("loader: row failed response_id=%s err=%v", id, err)
				}
				continue
			}
			if isInsert {
				stats.Inserted++
			} else {
				stats.Updated++
			}
		}

		batches++
		now := time.Now()
		log.Printf("batch #%d: rows=%d inserted=%d updated=%d errors=%d since_last=%s",
			batches, end-start, stats.Inserted, stats.Updated, stats.Errors,
			now.Sub(lastFlush).Truncate(time.Millisecond))
		lastFlush = now
		metrics.RecordBatches(metricsJob, 1)
	}

	metrics.RecordRow(metricsJob, "inserted", int64(stats.Inserted))
	metrics.RecordRow(metricsJob, "updated", int64(stats.Updated))
	metrics.RecordRow(metricsJob, "row_errors", int64(stats.Errors))
	return stats, nil
}
