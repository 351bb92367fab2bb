// Package storage defines the storage-agnostic contracts for the survey
// loader: the result shapes a load call produces and the operation set a
// concrete store must implement. The only backend today lives in the postgres
// subpackage; keeping the contract here mirrors how the rest of the project
// separates interfaces from drivers.
package storage

import (
	"context"
	"time"

	"surveyetl/pkg/records"
)

// Validation summarizes batch validation. Issues are fatal (the batch was not
// written); Warnings are advisory only.
type Validation struct {
	IsValid      bool
	TotalRows    int
	Issues       []string
	Warnings     []string
	NullIDs      int
	DuplicateIDs int
	UniqueIDs    int
}

// UpsertStats counts per-row outcomes of one upsert pass. Errors counts rows
// that failed individually and were skipped; they never abort the batch.
type UpsertStats struct {
	Inserted int
	Updated  int
	Total    int
	Errors   int
}

// TableStats are whole-table aggregates gathered after a load, for
// observability. Pointer fields are nil when the table is empty.
type TableStats struct {
	TotalRecords     int64
	UniqueResponses  int64
	UniqueSchools    int64
	EarliestResponse *time.Time
	LatestResponse   *time.Time
	FirstIngested    *time.Time
	LastIngested     *time.Time
	AvgGPA           *float64
	AvgStressLevel   *float64
	AvgFocusLevel    *float64
}

// ProcessingStats reports downstream-processing progress.
type ProcessingStats struct {
	TotalRecords        int64
	ProcessedRecords    int64
	UnprocessedRecords  int64
	ProcessingRate      float64 // percent
	FirstProcessedAt    *time.Time
	LastProcessedAt     *time.Time
	UniqueModelVersions int64
	LatestModelVersion  *string
}

// LoadResult is the success result of a load call. A failed load returns an
// error instead; there is no partial success state.
type LoadResult struct {
	Status     string
	Validation Validation
	Upsert     UpsertStats
	TableStats TableStats
	Timestamp  time.Time
}

// LoadOptions tune a single load call.
type LoadOptions struct {
	// CreateTable runs the idempotent schema bootstrap before loading.
	CreateTable bool
	// BatchSize is the number of rows per upsert batch; <= 0 uses the default.
	BatchSize int
}

// SurveyStore is the full operation set over the survey table. Load is the
// transform-output sink; the processing operations are driven independently
// by the downstream ML pipeline.
type SurveyStore interface {
	EnsureSchema(ctx context.Context) error
	Load(ctx context.Context, f *records.Frame, opts LoadOptions) (*LoadResult, error)
	Unprocessed(ctx context.Context, limit int) (*records.Frame, error)
	MarkProcessed(ctx context.Context, responseIDs []string, modelVersion string) (int64, error)
	ResetProcessing(ctx context.Context, responseIDs []string, all bool) (int64, error)
	ProcessingStats(ctx context.Context) (ProcessingStats, error)
	Close()
}
