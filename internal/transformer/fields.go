package transformer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"surveyetl/internal/schema"
)

// FieldProcessor normalizes one raw field value into its canonical form.
// Implementations are pure: nil in means nil out, and a value that cannot be
// normalized degrades to nil (missing) rather than failing the row.
type FieldProcessor interface {
	Process(v any) any
}

// numberRE extracts the first integer or decimal numeral from free text, so
// answers like "8/10" or "about 7.5" still yield a value.
var numberRE = regexp.MustCompile(`[0-9]+\.?[0-9]*`)

// cleaner applies NFKC compatibility normalization (full-width forms, ligature
// folding, non-breaking spaces) and strips non-printing runes pasted in from
// rich-text sources.
var cleaner = transform.Chain(norm.NFKC, runes.Remove(runes.In(unicode.C)))

// cleanText returns s normalized and trimmed. Falls back to the raw string if
// the transform chain errors (it does not for valid UTF-8).
func cleanText(s string) string {
	out, _, err := transform.String(cleaner, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(out)
}

// nullEquivalents are answer strings treated as missing by the text processor,
// compared case-insensitively after normalization.
var nullEquivalents = map[string]struct{}{
	"": {}, "nan": {}, "null": {}, "none": {}, "n/a": {}, "na": {},
}

// TextField is the default processor: normalize, trim, and collapse
// null-equivalent answers to missing.
type TextField struct{}

func (TextField) Process(v any) any {
	if v == nil {
		return nil
	}
	text := cleanText(valueString(v))
	if _, ok := nullEquivalents[strings.ToLower(text)]; ok {
		return nil
	}
	return text
}

// BoundedNumericField parses a numeral out of the answer and validates it
// against [Min, Max]. Out-of-range and unparseable answers become missing;
// values are never clamped. Whole numbers come back as int, fractional ones
// as float64.
type BoundedNumericField struct {
	Min, Max float64
}

func (p BoundedNumericField) Process(v any) any {
	if v == nil {
		return nil
	}

	var val float64
	switch n := v.(type) {
	case int:
		val = float64(n)
	case float64:
		val = n
	default:
		m := numberRE.FindString(cleanText(valueString(v)))
		if m == "" {
			return nil
		}
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return nil
		}
		val = f
	}

	if val < p.Min || val > p.Max {
		return nil
	}
	if val == math.Trunc(val) {
		return int(val)
	}
	return val
}

// CategoricalField maps raw answers to canonical codes. Lookup keys are
// case-folded and NFKC-normalized at construction so answer formatting drift
// still matches. Unmapped answers pass through unchanged; dropping them would
// silently lose data the mapping table simply has not caught up with.
type CategoricalField struct {
	mapping     map[string]string
	multiSelect bool
}

// NewCategoricalField builds a processor over mapping. When multiSelect is
// set, comma-separated answers are split and each part mapped independently.
func NewCategoricalField(mapping map[string]string, multiSelect bool) CategoricalField {
	normalized := make(map[string]string, len(mapping))
	for k, v := range mapping {
		normalized[cleanText(strings.ToLower(k))] = v
	}
	return CategoricalField{mapping: normalized, multiSelect: multiSelect}
}

func (p CategoricalField) Process(v any) any {
	if v == nil {
		return nil
	}
	text := cleanText(valueString(v))
	if p.multiSelect {
		return p.processMulti(text)
	}
	return p.lookup(text)
}

func (p CategoricalField) lookup(text string) string {
	if mapped, ok := p.mapping[strings.ToLower(text)]; ok {
		return mapped
	}
	return text
}

// processMulti maps each comma-separated part independently and rejoins with
// ", " in the original order. Duplicates are kept; empty parts are dropped.
func (p CategoricalField) processMulti(text string) string {
	parts := strings.Split(text, ",")
	mapped := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mapped = append(mapped, p.lookup(part))
	}
	return strings.Join(mapped, ", ")
}

// gpaMissing is the explicit not-known vocabulary for the GPA question,
// checked before any numeral extraction ("NA" must not parse as a number).
var gpaMissing = map[string]struct{}{
	"na": {}, "n/a": {}, "not known": {}, "unknown": {}, "null": {}, "none": {}, "": {},
}

// GPAField parses a GPA on the 0-10 scale, rounded to two decimals.
type GPAField struct{}

func (GPAField) Process(v any) any {
	if v == nil {
		return nil
	}
	text := strings.ToLower(cleanText(valueString(v)))
	if _, ok := gpaMissing[text]; ok {
		return nil
	}
	m := numberRE.FindString(text)
	if m == "" {
		return nil
	}
	gpa, err := strconv.ParseFloat(m, 64)
	if err != nil || gpa < 0 || gpa > 10 {
		return nil
	}
	return math.Round(gpa*100) / 100
}

// newProcessorSet binds a processor to every canonical field that needs one.
// Fields absent from the map fall back to TextField.
func newProcessorSet() map[string]FieldProcessor {
	procs := make(map[string]FieldProcessor)

	scale := BoundedNumericField{Min: 1, Max: 10}
	for _, field := range schema.ScaleFields {
		procs[field] = scale
	}
	procs[schema.ColGPA] = GPAField{}

	for field, mapping := range schema.CategoricalMappings {
		procs[field] = NewCategoricalField(mapping, schema.IsMultiSelect(field))
	}
	return procs
}

// valueString renders a raw cell value as text. CSV sources always hand us
// strings; anything else is stringified the way the database would see it.
func valueString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
