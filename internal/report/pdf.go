package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"github.com/solarqa/plancheck/internal/record"
)

// WritePDF renders the report as a simple printable document. Layout is
// intentionally basic: headings, key/value lines, and one line per
// discrepancy.
func WritePDF(r Report, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	heading := func(s string) {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, s, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
	}
	line := func(s string) {
		pdf.MultiCell(0, 5, s, "", "L", false)
	}

	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(0, 10, "Plan Set Validation Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	line(r.Summary)

	heading("Reference Data")
	for _, field := range record.Schema {
		line(fmt.Sprintf("%s: %s", field, r.ReferenceData.Get(field)))
	}

	heading("Discrepancies")
	if len(r.Discrepancies) == 0 {
		line("None.")
	}
	for _, d := range r.Discrepancies {
		if d.Error != "" {
			line(fmt.Sprintf("page %d: %s", d.PageNumber, d.Error))
			continue
		}
		line(fmt.Sprintf("page %d, %s: expected %q, found %q", d.PageNumber, d.Field, d.Expected, d.Found))
	}

	heading("Sheet Sequence")
	line(r.SheetNumbers.Analysis)

	heading("Sheet Index")
	line(r.SheetIndexValidation.Summary)
	for _, m := range r.SheetIndexValidation.Missing {
		line(fmt.Sprintf("missing: %s (%s)", m.ExpectedSheet, m.ExpectedName))
	}
	for _, m := range r.SheetIndexValidation.NameMismatches {
		line(fmt.Sprintf("name mismatch on %s: index says %q, page says %q", m.Sheet, m.Expected, m.Found))
	}
	for _, e := range r.SheetIndexValidation.Extra {
		line(fmt.Sprintf("extra: %s (%s)", e.Sheet, e.Name))
	}

	if r.AHJValidation != nil {
		heading("AHJ Validation")
		line(fmt.Sprintf("AHJ: %s", r.AHJValidation.Details.Name))
		line(fmt.Sprintf("Verdict: %s", r.AHJValidation.Verdict))
		if r.AHJValidation.Explanation != "" {
			line(r.AHJValidation.Explanation)
		}
	}

	if r.SystemRating != nil {
		heading("System Rating")
		line(r.SystemRating.Detail)
	}

	if r.Location != nil && r.Location.Success {
		heading("Location")
		line(r.Location.Address)
		if c := r.Location.Coordinates; c != nil {
			line(fmt.Sprintf("lat %.6f, lng %.6f", c.Lat, c.Lng))
		}
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write report pdf: %w", err)
	}
	return nil
}
