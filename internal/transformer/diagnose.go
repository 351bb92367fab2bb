package transformer

import (
	"sort"
	"strings"

	"surveyetl/internal/schema"
	"surveyetl/pkg/records"
)

// SchemaReport describes how well a raw frame's headers match the expected
// survey questions. It is diagnostic output only; the pipeline itself never
// rejects a frame over header drift.
type SchemaReport struct {
	IsValid         bool
	TotalResponses  int
	ExpectedColumns int
	ActualColumns   int
	MatchingColumns int
	MissingColumns  []string
	ExtraColumns    []string
	MatchPercentage float64
}

// ValidateSchema compares a raw frame's headers (normalized) against the
// expected question labels. IsValid means every expected question is present.
func ValidateSchema(f *records.Frame) SchemaReport {
	expected := make(map[string]struct{}, len(schema.ColumnMappings))
	for label := range schema.ColumnMappings {
		expected[cleanText(label)] = struct{}{}
	}
	actual := make(map[string]struct{}, len(f.Columns))
	for _, col := range f.Columns {
		actual[cleanText(col)] = struct{}{}
	}

	report := SchemaReport{
		TotalResponses:  len(f.Rows),
		ExpectedColumns: len(expected),
		ActualColumns:   len(actual),
	}
	for label := range expected {
		if _, ok := actual[label]; ok {
			report.MatchingColumns++
		} else {
			report.MissingColumns = append(report.MissingColumns, label)
		}
	}
	for col := range actual {
		if _, ok := expected[col]; !ok {
			report.ExtraColumns = append(report.ExtraColumns, col)
		}
	}
	sort.Strings(report.MissingColumns)
	sort.Strings(report.ExtraColumns)

	report.IsValid = len(report.MissingColumns) == 0
	if len(expected) > 0 {
		report.MatchPercentage = float64(report.MatchingColumns) / float64(len(expected)) * 100
	}
	return report
}

// UnmappedValues scans a raw frame for categorical answers that have no entry
// in the mapping tables. The result (field -> distinct unmapped answers) is
// the to-do list for extending schema.CategoricalMappings.
func UnmappedValues(f *records.Frame) map[string][]string {
	work := f.Clone()
	normalizeHeaders(work)
	applyColumnMappings(work)

	unmapped := map[string][]string{}
	for field, mapping := range schema.CategoricalMappings {
		if !work.HasColumn(field) {
			continue
		}
		known := make(map[string]struct{}, len(mapping))
		for k := range mapping {
			known[cleanText(strings.ToLower(k))] = struct{}{}
		}

		seen := map[string]struct{}{}
		var values []string
		for _, row := range work.Rows {
			v, ok := row[field]
			if !ok || v == nil {
				continue
			}
			text := cleanText(valueString(v))
			key := strings.ToLower(text)
			if key == "" || key == "nan" {
				continue
			}
			if _, mapped := known[key]; mapped {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			values = append(values, text)
		}
		if len(values) > 0 {
			sort.Strings(values)
			unmapped[field] = values
		}
	}
	return unmapped
}
