//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"surveyetl/internal/schema"
	"surveyetl/internal/storage"
	"surveyetl/pkg/records"
)

// getTestDSN reads the POSTGRES_TEST_DSN environment variable.
// If it is empty, the caller should skip the test.
func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set; skipping Postgres integration tests")
	}
	return dsn
}

func testFrame(rows ...records.Record) *records.Frame {
	f := records.NewFrame([]string{
		schema.ColResponseID, schema.ColTimestamp, schema.ColSchool, schema.ColGPA,
	})
	f.Rows = rows
	return f
}

/*
TestLoadIntegration verifies the upsert round trip against a real Postgres:
a first load inserts, an identical second load updates the same rows (the
xmax split), and the row count stays stable across reloads.
*/
func TestLoadIntegration(t *testing.T) {
	dsn := getTestDSN(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	table := fmt.Sprintf("loader_integration_%d", time.Now().UnixNano())
	loader, err := NewLoader(ctx, dsn, table)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	defer loader.Close()
	defer func() {
		_, _ = loader.pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+pgFQN(table))
	}()

	frame := testFrame(
		records.Record{
			schema.ColResponseID: "integration000000000001",
			schema.ColTimestamp:  "2025/01/15 10:30:00",
			schema.ColSchool:     "SOCS",
			schema.ColGPA:        8.5,
		},
		records.Record{
			schema.ColResponseID: "integration000000000002",
			schema.ColTimestamp:  "2025/01/16 09:00:00",
			schema.ColSchool:     "SOAE",
			schema.ColGPA:        nil,
		},
	)

	opts := storage.LoadOptions{CreateTable: true, BatchSize: 1}

	first, err := loader.Load(ctx, frame.Clone(), opts)
	if err != nil {
		t.Fatalf("first Load() error = %v", err)
	}
	if first.Upsert.Inserted != 2 || first.Upsert.Updated != 0 || first.Upsert.Errors != 0 {
		t.Fatalf("first load upsert = %+v, want 2 inserts", first.Upsert)
	}
	if first.TableStats.TotalRecords != 2 {
		t.Fatalf("total records = %d, want 2", first.TableStats.TotalRecords)
	}

	// Reloading the same frame must update in place, never duplicate.
	second, err := loader.Load(ctx, frame.Clone(), opts)
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if second.Upsert.Inserted != 0 || second.Upsert.Updated != 2 {
		t.Fatalf("second load upsert = %+v, want 2 updates", second.Upsert)
	}
	if second.TableStats.TotalRecords != 2 {
		t.Fatalf("total records after reload = %d, want 2", second.TableStats.TotalRecords)
	}
}

/*
TestProcessingOpsIntegration verifies the mark/reset/stats cycle against a
real Postgres.
*/
func TestProcessingOpsIntegration(t *testing.T) {
	dsn := getTestDSN(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	table := fmt.Sprintf("processing_integration_%d", time.Now().UnixNano())
	loader, err := NewLoader(ctx, dsn, table)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	defer loader.Close()
	defer func() {
		_, _ = loader.pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+pgFQN(table))
	}()

	frame := testFrame(
		records.Record{schema.ColResponseID: "processing00000000000a", schema.ColSchool: "SOCS"},
		records.Record{schema.ColResponseID: "processing00000000000b", schema.ColSchool: "SOB"},
	)
	if _, err := loader.Load(ctx, frame, storage.LoadOptions{CreateTable: true}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	unprocessed, err := loader.Unprocessed(ctx, 0)
	if err != nil {
		t.Fatalf("Unprocessed() error = %v", err)
	}
	if unprocessed.Len() != 2 {
		t.Fatalf("unprocessed = %d, want 2", unprocessed.Len())
	}

	n, err := loader.MarkProcessed(ctx, []string{"processing00000000000a"}, "v1.0")
	if err != nil {
		t.Fatalf("MarkProcessed() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("marked = %d, want 1", n)
	}

	stats, err := loader.ProcessingStats(ctx)
	if err != nil {
		t.Fatalf("ProcessingStats() error = %v", err)
	}
	if stats.ProcessedRecords != 1 || stats.UnprocessedRecords != 1 {
		t.Fatalf("stats = %+v, want 1 processed / 1 unprocessed", stats)
	}
	if stats.ProcessingRate != 50 {
		t.Fatalf("rate = %v, want 50", stats.ProcessingRate)
	}

	if _, err := loader.ResetProcessing(ctx, nil, false); err == nil {
		t.Fatal("unscoped reset without the all flag must error")
	}
	n, err = loader.ResetProcessing(ctx, nil, true)
	if err != nil {
		t.Fatalf("ResetProcessing(all) error = %v", err)
	}
	if n != 2 {
		t.Fatalf("reset = %d, want 2", n)
	}
}
