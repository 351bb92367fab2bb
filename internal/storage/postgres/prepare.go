package postgres

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"surveyetl/internal/schema"
	"surveyetl/internal/storage"
	"surveyetl/pkg/records"
)

// validateFrame checks a canonical frame before anything is written. A
// missing response_id column or any null response_id is fatal (the batch is
// rejected whole); duplicate ids and column drift are warnings only.
func validateFrame(f *records.Frame) storage.Validation {
	v := storage.Validation{IsValid: true, TotalRows: len(f.Rows)}

	if !f.HasColumn(schema.ColResponseID) {
		v.IsValid = false
		v.Issues = append(v.Issues, "missing response_id column - ensure transform step completed")
		return v
	}

	seen := make(map[string]struct{}, len(f.Rows))
	for _, row := range f.Rows {
		id, _ := row[schema.ColResponseID].(string)
		if id == "" {
			v.NullIDs++
			continue
		}
		if _, dup := seen[id]; dup {
			v.DuplicateIDs++
			continue
		}
		seen[id] = struct{}{}
	}
	v.UniqueIDs = len(seen)

	if v.NullIDs > 0 {
		v.IsValid = false
		v.Issues = append(v.Issues, fmt.Sprintf("found %d null response_id values", v.NullIDs))
	}
	if v.DuplicateIDs > 0 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("found %d duplicate response_ids", v.DuplicateIDs))
	}

	if !f.HasColumn(schema.ColIngestedAt) {
		v.Warnings = append(v.Warnings, "missing ingested_at column - will be auto-generated")
	}
	var missing, extra []string
	for _, col := range schema.ExpectedColumns {
		if !f.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	expected := make(map[string]struct{}, len(schema.ExpectedColumns))
	for _, col := range schema.ExpectedColumns {
		expected[col] = struct{}{}
	}
	for _, col := range f.Columns {
		if _, ok := expected[col]; !ok {
			extra = append(extra, col)
		}
	}
	if len(missing) > 0 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("missing expected columns: %s", strings.Join(missing, ", ")))
	}
	if len(extra) > 0 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("extra columns found: %s", strings.Join(extra, ", ")))
	}
	return v
}

// timestampLayouts are tried in order when a timestamp arrives as text. The
// first two cover ISO forms; the slash forms are what the sheet export emits.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"2006/01/02 15:04:05",
}

// prepareFrame coerces a validated frame into exactly the shape the table
// expects: numeric columns to numbers, timestamp columns to time.Time, the
// rest stringified; unparseable values degrade to nil. Extra columns are
// dropped, missing ones added as nil, and ingested_at is backfilled when the
// transform did not stamp it.
func prepareFrame(f *records.Frame) *records.Frame {
	backfill := time.Now().UTC()

	out := records.NewFrame(schema.ExpectedColumns)
	out.Rows = make([]records.Record, len(f.Rows))
	for i, row := range f.Rows {
		prepared := make(records.Record, len(schema.ExpectedColumns))
		for _, col := range schema.ExpectedColumns {
			v, ok := row[col]
			if !ok || v == nil {
				if col == schema.ColIngestedAt {
					prepared[col] = backfill
				} else {
					prepared[col] = nil
				}
				continue
			}
			switch {
			case schema.IsNumeric(col):
				prepared[col] = coerceNumeric(v)
			case schema.IsTimestamp(col):
				prepared[col] = coerceTimestamp(v)
			default:
				prepared[col] = coerceText(v)
			}
		}
		out.Rows[i] = prepared
	}
	return out
}

// coerceNumeric accepts ints and floats as-is and parses numeric text.
// Anything else becomes nil.
func coerceNumeric(v any) any {
	switch n := v.(type) {
	case int, int64, float64:
		return n
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return nil
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return nil
	default:
		return nil
	}
}

// coerceTimestamp accepts time.Time as-is and tries the known layouts on
// text. Anything else becomes nil.
func coerceTimestamp(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts
			}
		}
		return nil
	default:
		return nil
	}
}

// coerceText stringifies free-text values, mapping the stray "nan" artifacts
// of upstream tooling back to nil.
func coerceText(v any) any {
	s := fmt.Sprint(v)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil
	}
	return s
}
