package schema

import "testing"

/*
TestColumnMappingsTargetsAreRequired verifies every mapped field name
appears in the required column set, so no mapping produces a column the
projection would silently drop.
*/
func TestColumnMappingsTargetsAreRequired(t *testing.T) {
	required := make(map[string]struct{}, len(RequiredColumns))
	for _, col := range RequiredColumns {
		required[col] = struct{}{}
	}
	for label, field := range ColumnMappings {
		if _, ok := required[field]; !ok {
			t.Errorf("mapping %q -> %q targets a column not in RequiredColumns", label, field)
		}
	}
}

/*
TestRequiredColumnsHaveTypes verifies every expected column has a SQL type
and that the scale fields are INTEGER while gpa is DECIMAL.
*/
func TestRequiredColumnsHaveTypes(t *testing.T) {
	for _, col := range ExpectedColumns {
		if _, ok := ColumnTypes[col]; !ok {
			t.Errorf("column %q has no SQL type", col)
		}
	}
	for _, field := range ScaleFields {
		if ColumnTypes[field] != "INTEGER" {
			t.Errorf("scale field %q typed %q, want INTEGER", field, ColumnTypes[field])
		}
	}
	if ColumnTypes[ColGPA] != "DECIMAL(4,2)" {
		t.Errorf("gpa typed %q, want DECIMAL(4,2)", ColumnTypes[ColGPA])
	}
}

func TestExpectedColumnsOrder(t *testing.T) {
	if len(ExpectedColumns) != len(RequiredColumns)+1 {
		t.Fatalf("expected %d columns, got %d", len(RequiredColumns)+1, len(ExpectedColumns))
	}
	if ExpectedColumns[0] != ColResponseID {
		t.Fatalf("first column = %q, want %q", ExpectedColumns[0], ColResponseID)
	}
	if ExpectedColumns[len(ExpectedColumns)-1] != ColIngestedAt {
		t.Fatalf("last column = %q, want %q", ExpectedColumns[len(ExpectedColumns)-1], ColIngestedAt)
	}
}

/*
TestCategoricalFieldsAreRequired verifies every categorical field and every
multi-select field is a real schema column, and that multi-selects have a
mapping table.
*/
func TestCategoricalFieldsAreRequired(t *testing.T) {
	required := make(map[string]struct{}, len(RequiredColumns))
	for _, col := range RequiredColumns {
		required[col] = struct{}{}
	}
	for field := range CategoricalMappings {
		if _, ok := required[field]; !ok {
			t.Errorf("categorical field %q not in RequiredColumns", field)
		}
	}
	for _, field := range MultiSelectFields {
		if _, ok := CategoricalMappings[field]; !ok {
			t.Errorf("multi-select field %q has no mapping table", field)
		}
		if !IsMultiSelect(field) {
			t.Errorf("IsMultiSelect(%q) = false", field)
		}
	}
}

func TestClassifierHelpers(t *testing.T) {
	if !IsNumeric(ColGPA) || !IsNumeric("stress_level") {
		t.Error("gpa and stress_level should be numeric")
	}
	if IsNumeric(ColSchool) {
		t.Error("school should not be numeric")
	}
	if !IsTimestamp(ColTimestamp) || !IsTimestamp(ColIngestedAt) {
		t.Error("timestamp and ingested_at should be timestamps")
	}
	if IsTimestamp(ColGPA) {
		t.Error("gpa should not be a timestamp")
	}
	if IsMultiSelect("sleep_quality") {
		t.Error("sleep_quality is single-select")
	}
}
