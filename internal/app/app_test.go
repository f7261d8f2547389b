package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/solarqa/plancheck/internal/record"
	"github.com/solarqa/plancheck/internal/sheets"
)

// fakeExtractor answers from canned records keyed by a marker token found
// in the page text.
type fakeExtractor struct {
	records map[string]record.FieldRecord
	index   []sheets.IndexEntry
	specs   map[string]map[string]string
	address string
}

func (f *fakeExtractor) Extract(_ context.Context, pageText string) (record.FieldRecord, error) {
	for marker, rec := range f.records {
		if strings.Contains(pageText, marker) {
			if rec == nil {
				return nil, errors.New("model returned malformed output")
			}
			return rec, nil
		}
	}
	return nil, fmt.Errorf("no canned record for page text %q", pageText)
}

func (f *fakeExtractor) ExtractIndex(context.Context, string) ([]sheets.IndexEntry, error) {
	if f.index == nil {
		return nil, errors.New("no index")
	}
	return f.index, nil
}

func (f *fakeExtractor) ExtractSpecs(context.Context, string) (map[string]map[string]string, error) {
	if f.specs == nil {
		return nil, errors.New("no specs")
	}
	return f.specs, nil
}

func (f *fakeExtractor) ExtractAddress(context.Context, string) (string, error) {
	if f.address == "" {
		return "", errors.New("no address")
	}
	return f.address, nil
}

// buildPDF renders one page per marker so the extractor fake can tell the
// pages apart after round-tripping through text extraction.
func buildPDF(t *testing.T, markers ...string) []byte {
	t.Helper()
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.SetFont("Helvetica", "", 12)
	for _, m := range markers {
		doc.AddPage()
		doc.MultiCell(0, 8, "SOLAR PLAN SET "+m, "", "L", false)
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	return buf.Bytes()
}

func testApp(ext Extractor) *App {
	return &App{
		Cfg: Config{
			Workers:        2,
			RequestTimeout: 5 * time.Second,
			NameThreshold:  sheets.DefaultNameThreshold,
		},
		Extractor: ext,
		Matcher:   sheets.FallbackMatcher{},
	}
}

func TestValidatePDFThreePages(t *testing.T) {
	ext := &fakeExtractor{
		records: map[string]record.FieldRecord{
			"ALPHA": {
				record.CompanyName:  "Acme Solar",
				record.SheetNumber:  "PV-1",
				record.SheetName:    "Cover Sheet",
				record.DCSystemSize: "6.230 kWDC",
			},
			"BRAVO": {
				record.CompanyName:  "Acme Solar",
				record.SheetNumber:  "PV-3",
				record.SheetName:    "Site Plan",
				record.DCSystemSize: "6.23 kWDC",
			},
			"CHARLIE": nil, // extraction failure
		},
		index: []sheets.IndexEntry{
			{Sheets: "PV-1", Name: "Cover Sheet"},
			{Sheets: "PV-2", Name: "Structural Details"},
			{Sheets: "PV-3", Name: "Site Plan"},
		},
	}
	a := testApp(ext)

	rep, err := a.ValidatePDF(context.Background(), buildPDF(t, "ALPHA", "BRAVO", "CHARLIE"))
	if err != nil {
		t.Fatalf("ValidatePDF: %v", err)
	}

	if rep.TotalPages != 3 {
		t.Fatalf("total pages = %d, want 3", rep.TotalPages)
	}
	// Sheet prefix PV matches and 6.23 is within tolerance of 6.230, so the
	// only discrepancy is the failed third page.
	if len(rep.Discrepancies) != 1 {
		t.Fatalf("discrepancies = %+v, want exactly the extraction failure", rep.Discrepancies)
	}
	d := rep.Discrepancies[0]
	if d.PageNumber != 3 || d.Error == "" {
		t.Fatalf("unexpected discrepancy %+v", d)
	}

	if len(rep.SheetNumbers.Missing) != 1 || rep.SheetNumbers.Missing[0] != "PV-2" {
		t.Fatalf("sequence missing = %v, want [PV-2]", rep.SheetNumbers.Missing)
	}
	if len(rep.SheetIndexValidation.Missing) != 1 || rep.SheetIndexValidation.Missing[0].ExpectedSheet != "PV2" {
		t.Fatalf("index missing = %+v, want PV2", rep.SheetIndexValidation.Missing)
	}
	if len(rep.SheetIndexValidation.NameMismatches) != 0 {
		t.Fatalf("unexpected name mismatches %+v", rep.SheetIndexValidation.NameMismatches)
	}

	want := "Found 1 discrepancies across 3 pages. 1 sheet numbers missing in sequence."
	if rep.Summary != want {
		t.Fatalf("summary = %q, want %q", rep.Summary, want)
	}
	if rep.WebData != nil || rep.AHJValidation != nil || rep.SystemRating != nil || rep.Location != nil {
		t.Fatal("optional sections should be omitted when their collaborators are absent")
	}
}

func TestValidatePDFFieldDiscrepancies(t *testing.T) {
	ext := &fakeExtractor{
		records: map[string]record.FieldRecord{
			"ALPHA": {
				record.CompanyName: "Acme Solar",
				record.SheetNumber: "PV-1",
			},
			"BRAVO": {
				record.CompanyName: "Other Corp",
				record.SheetNumber: "PV-2",
			},
		},
		index: []sheets.IndexEntry{{Sheets: "PV1-PV2", Name: ""}},
	}
	a := testApp(ext)
	rep, err := a.ValidatePDF(context.Background(), buildPDF(t, "ALPHA", "BRAVO"))
	if err != nil {
		t.Fatalf("ValidatePDF: %v", err)
	}
	if len(rep.Discrepancies) != 1 {
		t.Fatalf("discrepancies = %+v, want one company_name diff", rep.Discrepancies)
	}
	d := rep.Discrepancies[0]
	if d.PageNumber != 2 || d.Field != record.CompanyName {
		t.Fatalf("unexpected discrepancy %+v", d)
	}
	if d.Expected != "acme solar" || d.Found != "other corp" {
		t.Fatalf("diff values not normalized: %+v", d)
	}
	if len(rep.SheetNumbers.Missing) != 0 {
		t.Fatalf("unexpected missing sheets %v", rep.SheetNumbers.Missing)
	}
}

func TestValidatePDFReferenceFailureIsFatal(t *testing.T) {
	ext := &fakeExtractor{records: map[string]record.FieldRecord{"ALPHA": nil}}
	a := testApp(ext)
	_, err := a.ValidatePDF(context.Background(), buildPDF(t, "ALPHA"))
	if !errors.Is(err, ErrReferenceExtraction) {
		t.Fatalf("err = %v, want ErrReferenceExtraction", err)
	}
}

func TestValidatePDFRejectsGarbage(t *testing.T) {
	a := testApp(&fakeExtractor{})
	if _, err := a.ValidatePDF(context.Background(), []byte("not a pdf at all")); err == nil {
		t.Fatal("expected error for non-PDF input")
	}
}

func TestValidatePDFIndexFailureDegrades(t *testing.T) {
	ext := &fakeExtractor{
		records: map[string]record.FieldRecord{
			"ALPHA": {record.SheetNumber: "A-1"},
		},
		index: nil,
	}
	a := testApp(ext)
	rep, err := a.ValidatePDF(context.Background(), buildPDF(t, "ALPHA"))
	if err != nil {
		t.Fatalf("index failure must not abort the run: %v", err)
	}
	if !strings.Contains(rep.SheetIndexValidation.Summary, "sheet index unavailable") {
		t.Fatalf("summary = %q", rep.SheetIndexValidation.Summary)
	}
}

func TestRunWritesReportFiles(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "plan.pdf")
	if err := os.WriteFile(input, buildPDF(t, "ALPHA"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	ext := &fakeExtractor{
		records: map[string]record.FieldRecord{
			"ALPHA": {record.CompanyName: "Acme Solar", record.SheetNumber: "PV-1"},
		},
		index: []sheets.IndexEntry{{Sheets: "PV-1", Name: "Cover Sheet"}},
	}
	a := testApp(ext)
	a.Cfg.InputPath = input
	a.Cfg.OutputPath = filepath.Join(dir, "out", "report.json")
	a.Cfg.ReportPDF = filepath.Join(dir, "out", "report.pdf")

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	raw, err := os.ReadFile(a.Cfg.OutputPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(raw), `"reference_data"`) {
		t.Fatalf("report JSON missing reference_data: %s", raw)
	}
	pdfRaw, err := os.ReadFile(a.Cfg.ReportPDF)
	if err != nil {
		t.Fatalf("read report pdf: %v", err)
	}
	if !strings.HasPrefix(string(pdfRaw), "%PDF-") {
		t.Fatal("report pdf is not a PDF")
	}
}
