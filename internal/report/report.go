// Package report assembles every validation outcome into the single
// ValidationReport returned to callers. Construction is deterministic and
// the report is never mutated after Build returns.
package report

import (
	"fmt"
	"strconv"

	"github.com/solarqa/plancheck/internal/ahj"
	"github.com/solarqa/plancheck/internal/compare"
	"github.com/solarqa/plancheck/internal/crossref"
	"github.com/solarqa/plancheck/internal/geo"
	"github.com/solarqa/plancheck/internal/rating"
	"github.com/solarqa/plancheck/internal/record"
	"github.com/solarqa/plancheck/internal/sheets"
)

// ExtractionFailedMarker is recorded for pages whose record extraction
// failed; the page stays in the report instead of aborting the run.
const ExtractionFailedMarker = "extraction failed"

// Discrepancy is one reported divergence, either a field difference or a
// page-level extraction error.
type Discrepancy struct {
	PageNumber int    `json:"page_number"`
	Field      string `json:"field,omitempty"`
	Expected   string `json:"expected,omitempty"`
	Found      string `json:"found,omitempty"`
	Error      string `json:"error,omitempty"`
}

// SheetNumbers carries the sequence findings: the raw identifiers found,
// the missing identifiers summed across prefix groups, and the per-group
// detail.
type SheetNumbers struct {
	Found        []string             `json:"found"`
	Missing      []string             `json:"missing"`
	Groups       []sheets.PrefixGroup `json:"prefix_groups"`
	Unrecognized []string             `json:"unrecognized,omitempty"`
	Analysis     string               `json:"analysis"`
}

// WebData is the answer-engine response backing the equipment
// specification cross-check.
type WebData struct {
	Summary  string   `json:"summary"`
	TopLinks []string `json:"top_links"`
	Status   string   `json:"status"`
	Error    string   `json:"error,omitempty"`
}

// LocationValidation reports address resolution and the map artifacts
// fetched for it.
type LocationValidation struct {
	Success       bool              `json:"success"`
	Address       string            `json:"address,omitempty"`
	Coordinates   *geo.Coordinates  `json:"coordinates,omitempty"`
	ReferenceMaps map[string]string `json:"reference_maps,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// Report is the terminal aggregate for one PDF validation run.
type Report struct {
	ReferenceData        record.FieldRecord                `json:"reference_data"`
	SheetIndexValidation sheets.Reconciliation             `json:"sheet_index_validation"`
	TotalPages           int                               `json:"total_pages"`
	Discrepancies        []Discrepancy                     `json:"discrepancies"`
	SheetNumbers         SheetNumbers                      `json:"sheet_numbers"`
	ComparisonResults    map[string][]crossref.FieldResult `json:"comparison_results,omitempty"`
	WebData              *WebData                          `json:"web_data,omitempty"`
	AHJValidation        *ahj.Validation                   `json:"ahj_validation,omitempty"`
	SystemRating         *rating.Check                     `json:"system_rating_validation,omitempty"`
	Location             *LocationValidation               `json:"location_validation,omitempty"`
	Summary              string                            `json:"summary"`
}

// PageResult is one page's comparison outcome as fed to Build. Exactly one
// of Diffs or ExtractionErr is meaningful.
type PageResult struct {
	PageNumber    int
	Diffs         []compare.FieldDiff
	ExtractionErr string
}

// Build assembles the report. Discrepancies appear in ascending page order
// with field order preserved within a page; the summary counts exactly
// what the discrepancy list holds.
func Build(reference record.FieldRecord, totalPages int, pages []PageResult, foundIDs []string, seq sheets.SequenceAnalysis, recon sheets.Reconciliation) Report {
	discrepancies := make([]Discrepancy, 0)
	for _, p := range pages {
		if p.ExtractionErr != "" {
			discrepancies = append(discrepancies, Discrepancy{
				PageNumber: p.PageNumber,
				Error:      p.ExtractionErr,
			})
			continue
		}
		for _, d := range p.Diffs {
			discrepancies = append(discrepancies, Discrepancy{
				PageNumber: p.PageNumber,
				Field:      d.Field,
				Expected:   d.Expected,
				Found:      d.Found,
			})
		}
	}

	missing := make([]string, 0, seq.MissingTotal())
	for _, g := range seq.Groups {
		for _, n := range g.Missing {
			missing = append(missing, g.Prefix+strconv.Itoa(n))
		}
	}

	if foundIDs == nil {
		foundIDs = []string{}
	}
	r := Report{
		ReferenceData:        reference,
		SheetIndexValidation: recon,
		TotalPages:           totalPages,
		Discrepancies:        discrepancies,
		SheetNumbers: SheetNumbers{
			Found:        foundIDs,
			Missing:      missing,
			Groups:       seq.Groups,
			Unrecognized: seq.Unrecognized,
			Analysis:     seq.Describe(),
		},
	}
	r.Summary = fmt.Sprintf("Found %d discrepancies across %d pages. %d sheet numbers missing in sequence.",
		len(discrepancies), totalPages, len(missing))
	return r
}
