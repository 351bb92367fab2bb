package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration before the pipeline starts. All problems
// are reported at once so a broken deployment is fixed in one pass, not one
// error message at a time.
func (c Config) Validate() error {
	var problems []string

	if c.Database.DSN == "" {
		problems = append(problems, "database.dsn is required (or set DATABASE_URL)")
	}
	if c.ETL.TableName == "" {
		problems = append(problems, "etl.table_name must not be empty")
	}
	if c.ETL.BatchSize <= 0 {
		problems = append(problems, fmt.Sprintf("etl.batch_size must be > 0, got %d", c.ETL.BatchSize))
	}
	for i, input := range c.Source.Inputs {
		if strings.TrimSpace(input) == "" {
			problems = append(problems, fmt.Sprintf("source.inputs[%d] is empty", i))
		}
	}
	if len(c.Source.Delimiter) > 1 {
		problems = append(problems, fmt.Sprintf("source.delimiter must be a single character, got %q", c.Source.Delimiter))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// DelimiterRune returns the configured delimiter as a rune, defaulting to a
// comma.
func (c Config) DelimiterRune() rune {
	if c.Source.Delimiter == "" {
		return ','
	}
	return []rune(c.Source.Delimiter)[0]
}
