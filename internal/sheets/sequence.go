// Package sheets analyzes the sheet identifiers of a plan set: gap
// detection within each prefix group and reconciliation against the
// document's own sheet index.
package sheets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/solarqa/plancheck/internal/rules"
)

// PrefixGroup holds the sorted, deduplicated numbers observed for one sheet
// prefix plus the numbers missing from the interior of the run.
type PrefixGroup struct {
	Prefix        string `json:"prefix"`
	SortedNumbers []int  `json:"sheet_numbers_sorted"`
	Missing       []int  `json:"missing_sheet_numbers"`
}

// SequenceAnalysis is the outcome of sheet-number gap detection.
// Unrecognized carries identifiers that did not decompose into a prefix and
// a number; they are excluded from gap math but never dropped silently.
type SequenceAnalysis struct {
	Groups       []PrefixGroup `json:"prefix_groups"`
	Unrecognized []string      `json:"unrecognized,omitempty"`
}

// AnalyzeSequence groups sheet identifiers by prefix, sorts and dedupes the
// numbers in each group, and reports every integer strictly between the
// group's minimum and maximum that is absent. Groups with fewer than two
// distinct numbers cannot imply a gap and report none. The result depends
// only on the multiset of inputs, not their order.
func AnalyzeSequence(identifiers []string) SequenceAnalysis {
	groups := map[string]map[int]struct{}{}
	display := map[string]string{}
	var unrecognized []string

	for _, raw := range identifiers {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		id, ok := rules.ParseSheetID(raw)
		if !ok {
			unrecognized = append(unrecognized, strings.TrimSpace(raw))
			continue
		}
		key := strings.ToUpper(strings.TrimRight(id.Prefix, "-_. "))
		if _, ok := groups[key]; !ok {
			groups[key] = map[int]struct{}{}
		}
		// The displayed spelling must not depend on input order, so the
		// lexicographically smallest raw spelling in the group wins.
		raw := strings.TrimSpace(id.Prefix)
		if cur, ok := display[key]; !ok || raw < cur {
			display[key] = raw
		}
		groups[key][id.Number] = struct{}{}
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := SequenceAnalysis{}
	for _, k := range keys {
		nums := make([]int, 0, len(groups[k]))
		for n := range groups[k] {
			nums = append(nums, n)
		}
		sort.Ints(nums)

		g := PrefixGroup{Prefix: display[k], SortedNumbers: nums, Missing: []int{}}
		if len(nums) >= 2 {
			present := groups[k]
			for n := nums[0] + 1; n < nums[len(nums)-1]; n++ {
				if _, ok := present[n]; !ok {
					g.Missing = append(g.Missing, n)
				}
			}
		}
		out.Groups = append(out.Groups, g)
	}
	sort.Strings(unrecognized)
	out.Unrecognized = unrecognized
	return out
}

// MissingTotal sums the missing numbers across all prefix groups. This is
// the aggregate count surfaced in the report summary.
func (a SequenceAnalysis) MissingTotal() int {
	total := 0
	for _, g := range a.Groups {
		total += len(g.Missing)
	}
	return total
}

// Describe renders a short human-readable account of the findings.
func (a SequenceAnalysis) Describe() string {
	if len(a.Groups) == 0 {
		return "No parseable sheet numbers found."
	}
	parts := make([]string, 0, len(a.Groups))
	for _, g := range a.Groups {
		if len(g.Missing) == 0 {
			parts = append(parts, fmt.Sprintf("%s: %d sheets, no gaps", g.Prefix, len(g.SortedNumbers)))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d sheets, missing %v", g.Prefix, len(g.SortedNumbers), g.Missing))
	}
	s := strings.Join(parts, "; ")
	if n := len(a.Unrecognized); n > 0 {
		s += fmt.Sprintf("; %d unrecognized identifiers", n)
	}
	return s
}
