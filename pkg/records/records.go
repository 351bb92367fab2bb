// Package records defines the row representation shared by every pipeline
// stage. A Record is a field-name -> value map; a Frame pairs records with an
// explicit column order, because map iteration order would otherwise destroy
// the source column order that response-id generation and the final schema
// projection both depend on.
//
// The missing marker is nil. It is deliberately distinct from the empty
// string: "" is an answer, nil is the absence of one, and nil passes through
// the database driver as SQL NULL.
package records

// Record maps a field name to its value. Values are raw strings before
// transformation and typed values (string, int, float64, time.Time, nil)
// after.
type Record map[string]any

// Frame is an order-preserving table of records. Columns is authoritative for
// column order; records may carry fewer keys than Columns (missing means nil).
type Frame struct {
	Columns []string
	Rows    []Record
}

// NewFrame returns an empty frame with the given column order.
func NewFrame(columns []string) *Frame {
	return &Frame{Columns: append([]string(nil), columns...)}
}

// HasColumn reports whether name is one of the frame's columns.
func (f *Frame) HasColumn(name string) bool {
	for _, c := range f.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Rows) }

// Clone returns a deep copy of the frame. Transform stages mutate records in
// place; callers that need the raw input afterwards should clone first.
func (f *Frame) Clone() *Frame {
	out := NewFrame(f.Columns)
	out.Rows = make([]Record, len(f.Rows))
	for i, r := range f.Rows {
		cp := make(Record, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}
