package postgres

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgconn"

	"surveyetl/internal/storage"
	"surveyetl/pkg/records"
)

// TableStats computes whole-table aggregates after a load. Averages are NULL
// (nil) until at least one non-missing value exists.
func (l *Loader) TableStats(ctx context.Context) (storage.TableStats, error) {
	var s storage.TableStats

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return s, fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	sql := fmt.Sprintf(`SELECT
    COUNT(*),
    COUNT(DISTINCT response_id),
    COUNT(DISTINCT school),
    MIN("timestamp"),
    MAX("timestamp"),
    MIN(ingested_at),
    MAX(ingested_at),
    AVG(gpa),
    AVG(stress_level),
    AVG(focus_level)
FROM %s`, pgFQN(l.table))

	err = conn.QueryRow(ctx, sql).Scan(
		&s.TotalRecords, &s.UniqueResponses, &s.UniqueSchools,
		&s.EarliestResponse, &s.LatestResponse,
		&s.FirstIngested, &s.LastIngested,
		&s.AvgGPA, &s.AvgStressLevel, &s.AvgFocusLevel,
	)
	if err != nil {
		return s, fmt.Errorf("table stats: %w", err)
	}
	return s, nil
}

// Unprocessed fetches rows not yet consumed by the downstream pipeline,
// oldest first. limit <= 0 fetches all.
func (l *Loader) Unprocessed(ctx context.Context, limit int) (*records.Frame, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	sql := fmt.Sprintf("SELECT * FROM %s WHERE processed = FALSE ORDER BY created_at ASC", pgFQN(l.table))
	args := []any{}
	if limit > 0 {
		sql += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("unprocessed: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = string(fd.Name)
	}

	frame := records.NewFrame(columns)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("unprocessed scan: %w", err)
		}
		row := make(records.Record, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		frame.Rows = append(frame.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unprocessed rows: %w", err)
	}

	log.Printf("loader: fetched unprocessed rows=%d", frame.Len())
	return frame, nil
}

// MarkProcessed flags the given response ids as consumed by the downstream
// pipeline, stamping ml_processed_at and recording the model version.
// Returns the number of rows updated.
func (l *Loader) MarkProcessed(ctx context.Context, responseIDs []string, modelVersion string) (int64, error) {
	if len(responseIDs) == 0 {
		log.Printf("loader: mark-processed called with no ids")
		return 0, nil
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	sql := fmt.Sprintf(`UPDATE %s
SET processed = TRUE,
    ml_processed_at = CURRENT_TIMESTAMP,
    model_version = $2,
    updated_at = CURRENT_TIMESTAMP
WHERE response_id = ANY($1)`, pgFQN(l.table))

	var version any
	if modelVersion != "" {
		version = modelVersion
	}
	tag, err := conn.Exec(ctx, sql, responseIDs, version)
	if err != nil {
		return 0, fmt.Errorf("mark processed: %w", err)
	}
	log.Printf("loader: marked processed rows=%d model_version=%s", tag.RowsAffected(), modelVersion)
	return tag.RowsAffected(), nil
}

// ResetProcessing clears processed, ml_processed_at, and model_version.
// With ids it is scoped to those rows. The unscoped form touches every row
// in the table and therefore requires the explicit all flag; an empty id
// list without it is an error, never a silent full reset.
func (l *Loader) ResetProcessing(ctx context.Context, responseIDs []string, all bool) (int64, error) {
	if len(responseIDs) == 0 && !all {
		return 0, fmt.Errorf("reset-processing: no ids given; pass all=true to reset every row")
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	set := `SET processed = FALSE,
    ml_processed_at = NULL,
    model_version = NULL,
    updated_at = CURRENT_TIMESTAMP`

	var tag pgconn.CommandTag
	if len(responseIDs) > 0 {
		sql := fmt.Sprintf("UPDATE %s\n%s\nWHERE response_id = ANY($1)", pgFQN(l.table), set)
		tag, err = conn.Exec(ctx, sql, responseIDs)
	} else {
		log.Printf("loader: resetting processing status for ALL rows table=%s", l.table)
		sql := fmt.Sprintf("UPDATE %s\n%s", pgFQN(l.table), set)
		tag, err = conn.Exec(ctx, sql)
	}
	if err != nil {
		return 0, fmt.Errorf("reset processing: %w", err)
	}
	log.Printf("loader: reset processing rows=%d", tag.RowsAffected())
	return tag.RowsAffected(), nil
}

// ProcessingStats reports processed/unprocessed counts and rate.
func (l *Loader) ProcessingStats(ctx context.Context) (storage.ProcessingStats, error) {
	var s storage.ProcessingStats

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return s, fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	sql := fmt.Sprintf(`SELECT
    COUNT(*),
    COUNT(CASE WHEN processed = TRUE THEN 1 END),
    COUNT(CASE WHEN processed = FALSE THEN 1 END),
    MIN(CASE WHEN processed = TRUE THEN ml_processed_at END),
    MAX(CASE WHEN processed = TRUE THEN ml_processed_at END),
    COUNT(DISTINCT model_version),
    MAX(model_version)
FROM %s`, pgFQN(l.table))

	err = conn.QueryRow(ctx, sql).Scan(
		&s.TotalRecords, &s.ProcessedRecords, &s.UnprocessedRecords,
		&s.FirstProcessedAt, &s.LastProcessedAt,
		&s.UniqueModelVersions, &s.LatestModelVersion,
	)
	if err != nil {
		return s, fmt.Errorf("processing stats: %w", err)
	}
	if s.TotalRecords > 0 {
		s.ProcessingRate = float64(s.ProcessedRecords) / float64(s.TotalRecords) * 100
	}
	return s, nil
}
