package transformer

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"surveyetl/internal/schema"
	"surveyetl/pkg/records"
)

// responseIDLen is the number of hex characters kept from the SHA-256 digest.
const responseIDLen = 24

// normalizeHeaders trims and NFKC-normalizes every column header in place, so
// sheet formatting drift (non-breaking spaces, full-width punctuation) does
// not break the label lookup. Record keys are rewritten to match.
func normalizeHeaders(f *records.Frame) {
	renames := make(map[string]string, len(f.Columns))
	for i, col := range f.Columns {
		normalized := cleanText(col)
		if normalized != col {
			renames[col] = normalized
			f.Columns[i] = normalized
		}
	}
	if len(renames) == 0 {
		return
	}
	for _, row := range f.Rows {
		for old, now := range renames {
			if v, ok := row[old]; ok {
				delete(row, old)
				row[now] = v
			}
		}
	}
}

// generateResponseIDs derives a response_id for every row from its full
// content: all raw values in original column order, joined with "|", hashed
// with SHA-256, first 24 hex characters kept.
//
// This is a content fingerprint, not a respondent key: identical submissions
// collapse to one id, and editing any single field produces a new id. That is
// the source system's semantics, kept as-is.
func generateResponseIDs(f *records.Frame) {
	for _, row := range f.Rows {
		parts := make([]string, len(f.Columns))
		for i, col := range f.Columns {
			if v, ok := row[col]; ok && v != nil {
				parts[i] = valueString(v)
			}
		}
		sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
		row[schema.ColResponseID] = hex.EncodeToString(sum[:])[:responseIDLen]
	}
	f.Columns = append(f.Columns, schema.ColResponseID)
}

// applyColumnMappings renames matched question labels to canonical field
// names. Unmatched columns keep their raw name here; finalize drops them when
// projecting to the required schema. Label keys are normalized the same way
// headers are, so both sides of the lookup agree.
func applyColumnMappings(f *records.Frame) {
	normalized := make(map[string]string, len(schema.ColumnMappings))
	for label, name := range schema.ColumnMappings {
		normalized[cleanText(label)] = name
	}

	for i, col := range f.Columns {
		canonical, ok := normalized[col]
		if !ok || canonical == col {
			continue
		}
		f.Columns[i] = canonical
		for _, row := range f.Rows {
			if v, exists := row[col]; exists {
				delete(row, col)
				row[canonical] = v
			}
		}
	}
}
