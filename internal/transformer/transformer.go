// Package transformer turns raw survey frames into canonical ones: headers
// normalized and renamed, every field value pushed through its processor,
// duplicates collapsed, and the result projected onto the fixed schema.
//
// Malformed field values never reject a row; they degrade to missing. The
// batch-level failure modes all live in the loader.
package transformer

import (
	"log"
	"time"

	"surveyetl/internal/schema"
	"surveyetl/pkg/records"
)

// Transformer orchestrates the transform pipeline. Construct with New; the
// zero value is not usable.
type Transformer struct {
	processors  map[string]FieldProcessor
	defaultProc FieldProcessor

	// Now stamps ingested_at at finalize time. Overridable in tests.
	Now func() time.Time
}

// New returns a Transformer with processors bound to the canonical field set.
func New() *Transformer {
	return &Transformer{
		processors:  newProcessorSet(),
		defaultProc: TextField{},
		Now:         time.Now,
	}
}

// Transform runs the full pipeline over a raw frame and returns a canonical
// frame ready for loading. Steps run in a fixed order: header normalization,
// response-id generation (only when the source lacks one), column renaming,
// per-field processing, last-wins dedup, required-column backfill, a single
// ingested_at stamp, and projection to the required column order.
//
// The input frame is mutated; callers needing the raw frame should Clone it.
func (t *Transformer) Transform(f *records.Frame) *records.Frame {
	normalizeHeaders(f)
	if !f.HasColumn(schema.ColResponseID) {
		generateResponseIDs(f)
	}
	applyColumnMappings(f)
	t.processFields(f)
	t.dedupe(f)
	return t.finalize(f)
}

// processFields applies the matching processor to every present column.
// Columns without a dedicated processor get the text default.
func (t *Transformer) processFields(f *records.Frame) {
	for _, col := range f.Columns {
		proc, ok := t.processors[col]
		if !ok {
			proc = t.defaultProc
		}
		for _, row := range f.Rows {
			if v, present := row[col]; present {
				row[col] = proc.Process(v)
			}
		}
	}
}

// dedupe drops rows whose response_id already appeared, keeping the last
// occurrence. Survivor order follows last appearance position, so callers
// supplying rows in a deterministic order get a deterministic result.
func (t *Transformer) dedupe(f *records.Frame) {
	last := make(map[string]int, len(f.Rows))
	for i, row := range f.Rows {
		id, _ := row[schema.ColResponseID].(string)
		last[id] = i
	}
	if len(last) == len(f.Rows) {
		return
	}

	kept := make([]records.Record, 0, len(last))
	for i, row := range f.Rows {
		id, _ := row[schema.ColResponseID].(string)
		if last[id] == i {
			kept = append(kept, row)
		}
	}
	log.Printf("transform: dedup dropped=%d kept=%d", len(f.Rows)-len(kept), len(kept))
	f.Rows = kept
}

// finalize backfills required columns, stamps ingested_at once for the whole
// batch, and projects to the required column order with ingested_at last.
// Unmapped raw columns are discarded here.
func (t *Transformer) finalize(f *records.Frame) *records.Frame {
	ingestedAt := t.Now()

	out := records.NewFrame(schema.ExpectedColumns)
	out.Rows = make([]records.Record, len(f.Rows))
	for i, row := range f.Rows {
		final := make(records.Record, len(schema.ExpectedColumns))
		for _, col := range schema.RequiredColumns {
			if v, ok := row[col]; ok {
				final[col] = v
			} else {
				final[col] = nil
			}
		}
		final[schema.ColIngestedAt] = ingestedAt
		out.Rows[i] = final
	}
	return out
}
