// Package compare checks one page's extracted record against the reference
// record from the first page and reports the fields that truly differ after
// the equivalence rules have had their say.
package compare

import (
	"github.com/solarqa/plancheck/internal/record"
	"github.com/solarqa/plancheck/internal/rules"
)

// FieldDiff is a single field-level discrepancy between the reference record
// and a page record. The page number is attached later by the aggregator.
type FieldDiff struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Found    string `json:"found"`
}

// Records compares a page record against the reference record field by
// field in canonical schema order. A field is reported only when it is not
// exempt, the expected value is non-empty, and no equivalence rule accepts
// the pair.
func Records(reference, page record.FieldRecord) []FieldDiff {
	var diffs []FieldDiff
	for _, field := range record.Schema {
		if rules.Exempt(field) {
			continue
		}
		expected := reference.Get(field)
		if record.Normalize(expected) == "" {
			// An absent expected value cannot be contradicted.
			continue
		}
		found := page.Get(field)
		if rules.Equivalent(field, expected, found) {
			continue
		}
		diffs = append(diffs, FieldDiff{
			Field:    field,
			Expected: record.Normalize(expected),
			Found:    record.Normalize(found),
		})
	}
	return diffs
}
