// Command surveyetl runs the survey ingestion pipeline: fetch the sheet's
// CSV export, transform raw responses into the canonical schema, and upsert
// them into Postgres. It also exposes the downstream-processing maintenance
// operations (mark-processed, reset, stats) as flags, mirroring the steps the
// scheduler drives in production.
//
// Examples:
//
//	surveyetl -config configs/surveyetl.json -input responses.csv
//	surveyetl -config configs/surveyetl.json -stats
//	surveyetl -config configs/surveyetl.json -mark-processed ids.txt
//	surveyetl -config configs/surveyetl.json -reset-all
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"surveyetl/internal/config"
	"surveyetl/internal/metrics"
	"surveyetl/internal/metrics/prompush"
	"surveyetl/internal/source"
	"surveyetl/internal/storage"
	"surveyetl/internal/storage/postgres"
	"surveyetl/internal/transformer"
	"surveyetl/pkg/records"
)

func main() {
	var (
		cfgPath       string
		inputs        multiFlag
		validateOnly  bool
		schemaCheck   bool
		statsOnly     bool
		markProcessed string
		resetIDs      string
		resetAll      bool
	)

	flag.StringVar(&cfgPath, "config", "", "config JSON path (env vars override file values)")
	flag.Var(&inputs, "input", "CSV file path or URL; repeatable, overrides source.inputs")
	flag.BoolVar(&validateOnly, "validate", false, "validate the configuration and exit")
	flag.BoolVar(&schemaCheck, "schema-check", false, "report header match and unmapped categorical values, then exit without loading")
	flag.BoolVar(&statsOnly, "stats", false, "print table and processing stats, then exit")
	flag.StringVar(&markProcessed, "mark-processed", "", "file with one response_id per line to mark processed")
	flag.StringVar(&resetIDs, "reset", "", "file with one response_id per line to reset processing status for")
	flag.BoolVar(&resetAll, "reset-all", false, "reset processing status for EVERY row (must be requested explicitly)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}
	if len(inputs) > 0 {
		cfg.Source.Inputs = inputs
	}
	if err := cfg.Validate(); err != nil {
		fatalf("%v", err)
	}
	if validateOnly {
		log.Printf("configuration is valid")
		return
	}

	if cfg.Metrics.PushgatewayURL != "" {
		b, err := prompush.NewBackend(cfg.Metrics.Job, cfg.Metrics.PushgatewayURL)
		if err != nil {
			log.Printf("metrics: pushgateway backend init failed: %v; using nop", err)
		} else {
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Printf("metrics: flush failed: %v", err)
				}
			}()
		}
	}

	ctx := context.Background()

	loader, err := postgres.NewLoader(ctx, cfg.Database.DSN, cfg.ETL.TableName)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer loader.Close()

	switch {
	case statsOnly:
		err = printStats(ctx, loader)
	case markProcessed != "":
		err = runMarkProcessed(ctx, loader, markProcessed, cfg.ML.ModelVersion)
	case resetIDs != "" || resetAll:
		err = runReset(ctx, loader, resetIDs, resetAll)
	default:
		err = runPipeline(ctx, loader, cfg, schemaCheck)
	}
	if err != nil {
		fatalf("%v", err)
	}
}

// runPipeline executes fetch -> transform -> load and prints the load result.
func runPipeline(ctx context.Context, loader *postgres.Loader, cfg config.Config, schemaCheck bool) error {
	if len(cfg.Source.Inputs) == 0 {
		return fmt.Errorf("no inputs: pass -input or set source.inputs")
	}

	job := cfg.Metrics.Job
	reader := &source.Reader{Delimiter: cfg.DelimiterRune()}

	started := time.Now()
	raw, err := reader.FetchAll(ctx, cfg.Source.Inputs)
	metrics.RecordStep(job, "fetch", err, time.Since(started))
	if err != nil {
		return err
	}
	metrics.RecordRow(job, "raw", int64(raw.Len()))

	if schemaCheck {
		return printSchemaReport(raw)
	}

	started = time.Now()
	canonical := transformer.New().Transform(raw)
	metrics.RecordStep(job, "transform", nil, time.Since(started))
	log.Printf("transform: canonical rows=%d columns=%d", canonical.Len(), len(canonical.Columns))

	result, err := loader.Load(ctx, canonical, storage.LoadOptions{
		CreateTable: cfg.ETL.AutoCreateTable,
		BatchSize:   cfg.ETL.BatchSize,
	})
	if err != nil {
		return err
	}
	return printJSON(result)
}

// printSchemaReport reports header match quality and unmapped categorical
// values without touching the database.
func printSchemaReport(raw *records.Frame) error {
	return printJSON(map[string]any{
		"schema":          transformer.ValidateSchema(raw),
		"unmapped_values": transformer.UnmappedValues(raw),
	})
}

func printStats(ctx context.Context, loader *postgres.Loader) error {
	table, err := loader.TableStats(ctx)
	if err != nil {
		return err
	}
	processing, err := loader.ProcessingStats(ctx)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{
		"table_stats":      table,
		"processing_stats": processing,
	})
}

func runMarkProcessed(ctx context.Context, loader *postgres.Loader, idFile, modelVersion string) error {
	ids, err := readIDFile(idFile)
	if err != nil {
		return err
	}
	n, err := loader.MarkProcessed(ctx, ids, modelVersion)
	if err != nil {
		return err
	}
	fmt.Printf("marked %d rows processed (model_version=%s)\n", n, modelVersion)
	return nil
}

func runReset(ctx context.Context, loader *postgres.Loader, idFile string, all bool) error {
	var ids []string
	if idFile != "" {
		var err error
		ids, err = readIDFile(idFile)
		if err != nil {
			return err
		}
	}
	n, err := loader.ResetProcessing(ctx, ids, all)
	if err != nil {
		return err
	}
	fmt.Printf("reset processing status for %d rows\n", n)
	return nil
}

// readIDFile reads one response_id per line, skipping blanks and # comments.
func readIDFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open id file: %w", err)
	}
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read id file: %w", err)
	}
	return ids, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func fatalf(format string, args ...any) {
	log.Printf(format, args...)
	os.Exit(1)
}

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}
