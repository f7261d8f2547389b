package record

import (
	"strings"

	"golang.org/x/text/cases"
)

// Field names extracted from every page of a plan set. The order is the
// canonical schema order used whenever per-field output must be deterministic.
const (
	CompanyName    = "company_name"
	CompanyAddress = "company_address"
	ProjectName    = "project_name"
	ProjectAddress = "project_address"
	EmailID        = "email_id"
	PhoneNumber    = "phone_number"
	Date           = "date"
	SheetName      = "sheet_name"
	SheetSize      = "sheet_size"
	SheetNumber    = "sheet_number"
	DCSystemSize   = "dc_system_size"
	ACSystemSize   = "ac_system_size"
)

// Schema lists all known fields in canonical order.
var Schema = []string{
	CompanyName,
	CompanyAddress,
	ProjectName,
	ProjectAddress,
	EmailID,
	PhoneNumber,
	Date,
	SheetName,
	SheetSize,
	SheetNumber,
	DCSystemSize,
	ACSystemSize,
}

// FieldRecord maps field names to extracted values. A missing key and an
// empty value both mean "absent". Records are produced once by extraction;
// derived normalized copies never mutate the original.
type FieldRecord map[string]string

// Get returns the value for a field, empty when absent.
func (r FieldRecord) Get(field string) string {
	if r == nil {
		return ""
	}
	return r[field]
}

// Normalized returns a copy of the record with every value passed through
// Normalize. The receiver is left untouched.
func (r FieldRecord) Normalized() FieldRecord {
	out := make(FieldRecord, len(r))
	for k, v := range r {
		out[k] = Normalize(v)
	}
	return out
}

var fold = cases.Fold()

// Normalize case-folds text and collapses every whitespace run, newlines
// included, to a single space, trimming the ends. Empty input stays empty.
// The function is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(fold.String(s)), " ")
}
