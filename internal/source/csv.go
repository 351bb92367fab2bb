// Package source reads the published survey sheet (CSV export) into a raw
// frame. Inputs can be local files or HTTP URLs; either way the result is an
// order-preserving frame of raw string records keyed by the original question
// labels.
//
// Reading is best-effort in the same spirit as the rest of the ingestion
// path: a malformed line is skipped, a short or long row is padded or
// truncated to header width, and exact duplicate raw rows are logged as
// warnings rather than dropped (they collapse to one response id downstream
// anyway).
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"surveyetl/pkg/records"
)

const utf8BOM = "\uFEFF"

// fetchConcurrency bounds parallel input fetches in FetchAll.
const fetchConcurrency = 4

// Reader fetches raw survey frames.
type Reader struct {
	// Delimiter is the CSV field separator; zero means comma.
	Delimiter rune
	// Client serves HTTP inputs; nil means http.DefaultClient.
	Client *http.Client
}

// Fetch reads one input (a local path or an http/https URL) into a raw frame.
func (r *Reader) Fetch(ctx context.Context, input string) (*records.Frame, error) {
	rc, err := r.open(ctx, input)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	frame, err := r.read(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", input, err)
	}
	log.Printf("source: fetched input=%s rows=%d columns=%d", input, frame.Len(), len(frame.Columns))
	return frame, nil
}

// FetchAll reads several inputs concurrently and merges their rows in
// argument order. All inputs must share the same header row; a mismatch is
// an error rather than a silent column shuffle.
func (r *Reader) FetchAll(ctx context.Context, inputs []string) (*records.Frame, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs given")
	}
	if len(inputs) == 1 {
		return r.Fetch(ctx, inputs[0])
	}

	frames := make([]*records.Frame, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			f, err := r.Fetch(gctx, input)
			if err != nil {
				return err
			}
			frames[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := records.NewFrame(frames[0].Columns)
	for i, f := range frames {
		if i > 0 && !sameColumns(merged.Columns, f.Columns) {
			return nil, fmt.Errorf("input %s: header mismatch with %s", inputs[i], inputs[0])
		}
		merged.Rows = append(merged.Rows, f.Rows...)
	}
	return merged, nil
}

func (r *Reader) open(ctx context.Context, input string) (io.ReadCloser, error) {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, input, nil)
		if err != nil {
			return nil, err
		}
		client := r.Client
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", input, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: %s", input, resp.Status)
		}
		return resp.Body, nil
	}

	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", input, err)
	}
	return f, nil
}

// read parses CSV into a raw frame. Headers keep their raw text (the
// transformer normalizes them); the first header cell has any UTF-8 BOM
// stripped. Data rows are padded or truncated to header width so downstream
// consumers can rely on stable columns.
func (r *Reader) read(src io.Reader) (*records.Frame, error) {
	cr := csv.NewReader(src)
	cr.Comma = r.Delimiter
	if cr.Comma == 0 {
		cr.Comma = ','
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	frame := records.NewFrame(header)
	seen := make(map[uint64]int)
	var duplicates int

	for lineNo := 2; ; lineNo++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Only a malformed line is skippable. An underlying reader
			// error (a reset or truncated HTTP body) repeats on every
			// Read, so bailing out is the only way to make progress.
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return nil, fmt.Errorf("read row %d: %w", lineNo, err)
		}
		if len(rec) == 0 {
			continue
		}
		rec = fitRowToWidth(rec, len(header))

		if first, dup := seen[rowFingerprint(rec)]; dup {
			duplicates++
			log.Printf("source: duplicate raw row line=%d first_seen_line=%d", lineNo, first)
		} else {
			seen[rowFingerprint(rec)] = lineNo
		}

		row := make(records.Record, len(header))
		for i, col := range frame.Columns {
			row[col] = rec[i]
		}
		frame.Rows = append(frame.Rows, row)
	}

	if duplicates > 0 {
		log.Printf("source: duplicate raw rows=%d (will collapse to one response each)", duplicates)
	}
	return frame, nil
}

// rowFingerprint hashes a raw row's cells for cheap exact-duplicate
// detection. Not used for identity; response ids use a content hash with
// different framing.
func rowFingerprint(rec []string) uint64 {
	h := xxh3.New()
	for _, cell := range rec {
		_, _ = h.WriteString(cell)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// fitRowToWidth truncates or pads a CSV record to exactly n fields.
func fitRowToWidth(row []string, n int) []string {
	if len(row) == n {
		return row
	}
	if len(row) > n {
		return row[:n]
	}
	out := make([]string, n)
	copy(out, row)
	return out
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
