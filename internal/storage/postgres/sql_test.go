package postgres

import (
	"strings"
	"testing"

	"surveyetl/internal/schema"
)

/*
TestBuildSchemaStatements verifies the DDL set: idempotent CREATE TABLE
with the unique response_id, one index per indexed column, and the
updated_at trigger pair.
*/
func TestBuildSchemaStatements(t *testing.T) {
	stmts := buildSchemaStatements("student_survey_responses")

	if len(stmts) != 1+len(indexedColumns)+3 {
		t.Fatalf("statements = %d, want %d", len(stmts), 1+len(indexedColumns)+3)
	}

	create := stmts[0]
	if !strings.HasPrefix(create, `CREATE TABLE IF NOT EXISTS "student_survey_responses"`) {
		t.Fatalf("create statement not idempotent: %s", create)
	}
	if !strings.Contains(create, `"id" SERIAL PRIMARY KEY`) {
		t.Error("missing surrogate primary key")
	}
	if !strings.Contains(create, `"response_id" VARCHAR(64) UNIQUE NOT NULL`) {
		t.Error("response_id missing UNIQUE NOT NULL constraint")
	}
	if !strings.Contains(create, `"processed" BOOLEAN DEFAULT FALSE`) {
		t.Error("missing processed metadata column")
	}

	var indexes, triggers int
	for _, s := range stmts[1:] {
		if strings.HasPrefix(s, "CREATE INDEX IF NOT EXISTS") {
			indexes++
		}
		if strings.HasPrefix(s, "CREATE TRIGGER") || strings.HasPrefix(s, "DROP TRIGGER IF EXISTS") {
			triggers++
		}
	}
	if indexes != len(indexedColumns) {
		t.Errorf("indexes = %d, want %d", indexes, len(indexedColumns))
	}
	if triggers != 2 {
		t.Errorf("trigger statements = %d, want drop+create pair", triggers)
	}
	if !strings.Contains(stmts[1], `"idx_student_survey_responses_response_id"`) {
		t.Errorf("unexpected index name in %s", stmts[1])
	}
}

func TestBuildSchemaStatements_QualifiedTable(t *testing.T) {
	stmts := buildSchemaStatements("surveys.responses")
	if !strings.Contains(stmts[0], `"surveys"."responses"`) {
		t.Fatalf("schema qualifier not quoted per segment: %s", stmts[0])
	}
	// Index and trigger names use the bare table name.
	if !strings.Contains(stmts[1], `"idx_responses_response_id"`) {
		t.Fatalf("index name should use bare table name: %s", stmts[1])
	}
}

/*
TestBuildUpsertSQL verifies the conflict target, that response_id is never
overwritten by the update branch, and the xmax insert/update probe.
*/
func TestBuildUpsertSQL(t *testing.T) {
	cols := []string{schema.ColResponseID, schema.ColSchool, schema.ColGPA}
	sql := buildUpsertSQL("student_survey_responses", cols)

	if !strings.Contains(sql, `ON CONFLICT ("response_id")`) {
		t.Error("missing conflict target on response_id")
	}
	if !strings.Contains(sql, "$1, $2, $3") {
		t.Error("placeholders not numbered per column")
	}
	if strings.Contains(sql, `"response_id" = EXCLUDED."response_id"`) {
		t.Error("update branch must not rewrite response_id")
	}
	if !strings.Contains(sql, `"school" = EXCLUDED."school"`) {
		t.Error("update branch missing data column assignment")
	}
	if !strings.Contains(sql, `"updated_at" = CURRENT_TIMESTAMP`) {
		t.Error("update branch must touch updated_at")
	}
	if !strings.Contains(sql, "RETURNING (xmax = 0) AS is_insert") {
		t.Error("missing xmax insert/update probe")
	}
}

func TestPgIdentQuoting(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"response_id", `"response_id"`},
		{`odd"name`, `"odd""name"`},
	}
	for _, tt := range tests {
		if got := pgIdent(tt.in); got != tt.want {
			t.Errorf("pgIdent(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if got := pgFQN("public.responses"); got != `"public"."responses"` {
		t.Errorf("pgFQN = %s", got)
	}
	if got := bareTableName("public.responses"); got != "responses" {
		t.Errorf("bareTableName = %s", got)
	}
}
