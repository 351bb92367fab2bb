package postgres

import (
	"fmt"
	"strings"

	"surveyetl/internal/schema"
)

// metadata columns owned by the store, appended after the canonical set.
const metaColumnsDDL = `"processed" BOOLEAN DEFAULT FALSE,
  "ml_processed_at" TIMESTAMP WITH TIME ZONE,
  "model_version" VARCHAR(50),
  "created_at" TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
  "updated_at" TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP`

// indexedColumns get a supporting index each, named idx_<table>_<column>.
var indexedColumns = []string{
	schema.ColResponseID, schema.ColTimestamp, schema.ColSchool,
	"year_of_study", schema.ColIngestedAt, "processed", "ml_processed_at",
}

// buildSchemaStatements returns the ordered DDL for the survey table:
// CREATE TABLE IF NOT EXISTS, supporting indexes, and the updated_at touch
// trigger. Every statement is idempotent, so the whole set is safe to run on
// each load.
func buildSchemaStatements(table string) []string {
	cols := make([]string, 0, len(schema.ExpectedColumns)+2)
	cols = append(cols, `"id" SERIAL PRIMARY KEY`)
	for _, c := range schema.ExpectedColumns {
		if c == schema.ColResponseID {
			cols = append(cols, fmt.Sprintf("%s %s UNIQUE NOT NULL", pgIdent(c), schema.ColumnTypes[c]))
			continue
		}
		cols = append(cols, fmt.Sprintf("%s %s", pgIdent(c), schema.ColumnTypes[c]))
	}
	cols = append(cols, metaColumnsDDL)

	stmts := []string{fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		pgFQN(table), strings.Join(cols, ",\n  "),
	)}

	bare := bareTableName(table)
	for _, col := range indexedColumns {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS %s ON %s (%s);",
			pgIdent("idx_"+bare+"_"+col), pgFQN(table), pgIdent(col),
		))
	}

	stmts = append(stmts,
		`CREATE OR REPLACE FUNCTION update_updated_at_column()
RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = CURRENT_TIMESTAMP;
    RETURN NEW;
END;
$$ LANGUAGE 'plpgsql';`,
		fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s;",
			pgIdent("update_"+bare+"_updated_at"), pgFQN(table)),
		fmt.Sprintf(`CREATE TRIGGER %s
BEFORE UPDATE ON %s
FOR EACH ROW
EXECUTE FUNCTION update_updated_at_column();`,
			pgIdent("update_"+bare+"_updated_at"), pgFQN(table)),
	)
	return stmts
}

// buildUpsertSQL renders the per-row upsert for the given column order.
// The xmax trick distinguishes a fresh insert (xmax = 0) from a conflict
// update, which is how inserted/updated counts are split.
func buildUpsertSQL(table string, columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	updates := make([]string, 0, len(columns))
	for _, col := range columns {
		if col == schema.ColResponseID {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", pgIdent(col), pgIdent(col)))
	}
	updates = append(updates, `"updated_at" = CURRENT_TIMESTAMP`)

	return fmt.Sprintf(
		`INSERT INTO %s (%s, "created_at", "updated_at")
VALUES (%s, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
ON CONFLICT (%s)
DO UPDATE SET %s
RETURNING (xmax = 0) AS is_insert`,
		pgFQN(table),
		strings.Join(mapIdent(columns), ", "),
		strings.Join(placeholders, ", "),
		pgIdent(schema.ColResponseID),
		strings.Join(updates, ", "),
	)
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.responses" to
// "public"."responses". If no dot is present, returns a single quoted ident.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, pgIdent(p))
	}
	return strings.Join(out, ".")
}

// mapIdent maps a list of column names to their quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return out
}

// bareTableName strips a schema qualifier for use in index/trigger names.
func bareTableName(table string) string {
	if i := strings.LastIndexByte(table, '.'); i >= 0 {
		return table[i+1:]
	}
	return table
}
