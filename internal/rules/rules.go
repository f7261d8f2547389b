// Package rules encodes the domain equivalence predicates used when
// comparing extracted plan-set fields. Each predicate answers "do these two
// strings represent the same underlying fact despite formatting noise".
package rules

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/solarqa/plancheck/internal/record"
)

// SheetIdentifier is a sheet code decomposed into its alphabetic prefix and
// numeric suffix, e.g. "PV-15" -> {Prefix: "PV-", Number: 15}.
type SheetIdentifier struct {
	Prefix string
	Number int
	Raw    string
}

// Canonical returns a stable membership key: the prefix upper-cased with
// trailing separators stripped, followed by the number. "pv-5" and "PV5"
// both canonicalize to "PV5".
func (id SheetIdentifier) Canonical() string {
	p := strings.ToUpper(strings.TrimRight(id.Prefix, "-_. "))
	return p + strconv.Itoa(id.Number)
}

// ParseSheetID splits a sheet code into its leading non-digit prefix and
// trailing integer. It reports false for values with an empty prefix, no
// digits, or trailing garbage after the number.
func ParseSheetID(s string) (SheetIdentifier, bool) {
	raw := strings.TrimSpace(s)
	i := strings.IndexFunc(raw, func(r rune) bool { return r >= '0' && r <= '9' })
	if i <= 0 {
		return SheetIdentifier{}, false
	}
	n, err := strconv.Atoi(raw[i:])
	if err != nil {
		return SheetIdentifier{}, false
	}
	return SheetIdentifier{Prefix: raw[:i], Number: n, Raw: raw}, true
}

// SameSheetPrefix reports whether two sheet numbers share an identical
// prefix, ignoring the numeric suffix entirely. Values that do not
// decompose fall back to normalized literal comparison.
func SameSheetPrefix(expected, found string) bool {
	a, okA := ParseSheetID(expected)
	b, okB := ParseSheetID(found)
	if okA && okB {
		return strings.EqualFold(strings.TrimSpace(a.Prefix), strings.TrimSpace(b.Prefix))
	}
	return SameNormalized(expected, found)
}

var digitRunRe = regexp.MustCompile(`\d+`)

// SameSheetSize reports whether two sheet-size strings mention the same set
// of dimension numbers, regardless of ordering or surrounding format tokens
// such as `ANSI B` or inch quotes. Both sides must contain at least one
// number.
func SameSheetSize(expected, found string) bool {
	a := digitSet(expected)
	b := digitSet(found)
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return false
	}
	for d := range a {
		if _, ok := b[d]; !ok {
			return false
		}
	}
	return true
}

func digitSet(s string) map[int]struct{} {
	out := map[int]struct{}{}
	for _, run := range digitRunRe.FindAllString(s, -1) {
		if n, err := strconv.Atoi(run); err == nil {
			out[n] = struct{}{}
		}
	}
	return out
}

// SameNormalized reports equality after case folding and whitespace
// collapsing, so newline-separated and space-separated renderings of the
// same text compare equal.
func SameNormalized(expected, found string) bool {
	return record.Normalize(expected) == record.Normalize(found)
}

var floatRe = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)

// RatingTolerance is the comparison slack for system ratings: values are
// equivalent when they differ by less than 1% relative or 0.01 absolute,
// whichever is larger.
const RatingTolerance = 0.01

// WithinRatingTolerance compares two system-rating strings such as
// "6.23 kWDC" and "6.230 kWDC" numerically. An absent value on either side
// is never a discrepancy for rating fields.
func WithinRatingTolerance(expected, found string) bool {
	if strings.TrimSpace(expected) == "" || strings.TrimSpace(found) == "" {
		return true
	}
	a, okA := RatingValue(expected)
	b, okB := RatingValue(found)
	if !okA || !okB {
		return false
	}
	limit := math.Max(RatingTolerance, RatingTolerance*math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) < limit
}

// RatingValue extracts the numeric part of a rating string such as
// "6.230 kWDC", ignoring unit suffixes.
func RatingValue(s string) (float64, bool) {
	m := floatRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Exempt reports whether a field is excluded from comparison altogether.
// Sheet names legitimately differ page to page.
func Exempt(field string) bool {
	return field == record.SheetName
}

// Equivalent applies every rule applicable to the given field and reports
// whether the pair should be treated as the same value.
func Equivalent(field, expected, found string) bool {
	switch field {
	case record.SheetNumber:
		if SameSheetPrefix(expected, found) {
			return true
		}
	case record.SheetSize:
		if SameSheetSize(expected, found) {
			return true
		}
	case record.DCSystemSize, record.ACSystemSize:
		if WithinRatingTolerance(expected, found) {
			return true
		}
	}
	return SameNormalized(expected, found)
}
