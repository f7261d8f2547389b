package sheets

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/solarqa/plancheck/internal/rules"
)

// IndexEntry is one row of the document's own sheet index: a sheet token
// (single identifier or an inclusive range like "A5-A6") and its name.
type IndexEntry struct {
	Sheets string `json:"sheets"`
	Name   string `json:"name"`
}

// FoundSheet is a sheet actually observed on a page.
type FoundSheet struct {
	ID   string `json:"sheet_number"`
	Name string `json:"sheet_name"`
}

// MissingSheet is an index entry with no matching page.
type MissingSheet struct {
	ExpectedSheet string `json:"expected_sheet"`
	ExpectedName  string `json:"expected_name"`
}

// NameMismatch is a sheet whose page name diverges from the index name
// beyond the similarity threshold.
type NameMismatch struct {
	Sheet    string `json:"sheet"`
	Expected string `json:"expected"`
	Found    string `json:"found"`
}

// ExtraSheet is a page sheet the index never mentions.
type ExtraSheet struct {
	Sheet string `json:"sheet"`
	Name  string `json:"name"`
}

// Reconciliation is the read-only outcome of matching the expected index
// against the sheets found in the document.
type Reconciliation struct {
	Missing        []MissingSheet `json:"missing_sheets"`
	NameMismatches []NameMismatch `json:"name_mismatches"`
	Extra          []ExtraSheet   `json:"extra_sheets"`
	Summary        string         `json:"validation_summary"`
}

// Reconciler matches an expected sheet index against observed sheets. The
// NameMatcher capability is pluggable; when nil the deterministic fallback
// applies. Threshold zero means DefaultNameThreshold.
type Reconciler struct {
	Matcher   NameMatcher
	Threshold float64
}

var rangeRe = regexp.MustCompile(`^\s*([A-Za-z]+)[-_ ]?(\d+)\s*-\s*([A-Za-z]+)[-_ ]?(\d+)\s*$`)

// Reconcile expands every index entry, flags entries absent from the found
// set as missing, judges names of present entries, and reports found sheets
// the index never listed as extra. Neither input is mutated.
func (r *Reconciler) Reconcile(ctx context.Context, expected []IndexEntry, found []FoundSheet) Reconciliation {
	matcher := r.Matcher
	if matcher == nil {
		matcher = FallbackMatcher{}
	}
	threshold := r.Threshold
	if threshold <= 0 {
		threshold = DefaultNameThreshold
	}

	foundByKey := map[string]FoundSheet{}
	for _, f := range found {
		id, ok := rules.ParseSheetID(f.ID)
		if !ok {
			continue
		}
		if _, dup := foundByKey[id.Canonical()]; !dup {
			foundByKey[id.Canonical()] = f
		}
	}

	out := Reconciliation{
		Missing:        []MissingSheet{},
		NameMismatches: []NameMismatch{},
		Extra:          []ExtraSheet{},
	}
	expectedKeys := map[string]struct{}{}

	for _, entry := range expected {
		ids, err := expandSheetToken(entry.Sheets)
		if err != nil {
			// Recovered locally: keep the raw token visible instead of
			// silently dropping the entry.
			out.NameMismatches = append(out.NameMismatches, NameMismatch{
				Sheet:    strings.TrimSpace(entry.Sheets),
				Expected: entry.Name,
				Found:    fmt.Sprintf("unparseable index entry: %v", err),
			})
			continue
		}
		for _, id := range ids {
			expectedKeys[id.Canonical()] = struct{}{}
			page, ok := foundByKey[id.Canonical()]
			if !ok {
				out.Missing = append(out.Missing, MissingSheet{
					ExpectedSheet: id.Canonical(),
					ExpectedName:  entry.Name,
				})
				continue
			}
			if strings.TrimSpace(entry.Name) == "" || strings.TrimSpace(page.Name) == "" {
				continue
			}
			sim, merr := matcher.Match(ctx, entry.Name, page.Name)
			if merr != nil {
				sim, _ = FallbackMatcher{}.Match(ctx, entry.Name, page.Name)
			}
			if sim < threshold {
				out.NameMismatches = append(out.NameMismatches, NameMismatch{
					Sheet:    id.Canonical(),
					Expected: entry.Name,
					Found:    page.Name,
				})
			}
		}
	}

	for _, f := range found {
		id, ok := rules.ParseSheetID(f.ID)
		if !ok {
			// An unparseable ID can never match an index entry, so it is
			// extra by definition; the raw token stays visible.
			if raw := strings.TrimSpace(f.ID); raw != "" {
				out.Extra = append(out.Extra, ExtraSheet{Sheet: raw, Name: f.Name})
			}
			continue
		}
		if _, listed := expectedKeys[id.Canonical()]; !listed {
			out.Extra = append(out.Extra, ExtraSheet{Sheet: f.ID, Name: f.Name})
		}
	}

	out.Summary = fmt.Sprintf("%d missing, %d name mismatches, %d extra sheets against an index of %d entries.",
		len(out.Missing), len(out.NameMismatches), len(out.Extra), len(expected))
	return out
}

// expandSheetToken turns an index token into concrete identifiers. A range
// such as "PV5-PV6" expands inclusively; range endpoints with different
// prefixes or a reversed order cannot be expanded.
func expandSheetToken(token string) ([]rules.SheetIdentifier, error) {
	if id, ok := rules.ParseSheetID(token); ok {
		return []rules.SheetIdentifier{id}, nil
	}
	m := rangeRe.FindStringSubmatch(token)
	if m == nil {
		return nil, fmt.Errorf("token %q is neither an identifier nor a range", strings.TrimSpace(token))
	}
	if !strings.EqualFold(m[1], m[3]) {
		return nil, fmt.Errorf("range endpoints have different prefixes: %q vs %q", m[1], m[3])
	}
	start, _ := strconv.Atoi(m[2])
	end, _ := strconv.Atoi(m[4])
	if start > end {
		return nil, fmt.Errorf("range is reversed: %d-%d", start, end)
	}
	ids := make([]rules.SheetIdentifier, 0, end-start+1)
	for n := start; n <= end; n++ {
		ids = append(ids, rules.SheetIdentifier{
			Prefix: m[1],
			Number: n,
			Raw:    fmt.Sprintf("%s%d", m[1], n),
		})
	}
	return ids, nil
}
