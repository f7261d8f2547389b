package compare

import (
	"testing"

	"github.com/solarqa/plancheck/internal/record"
)

func TestRecords_EquivalentPagesProduceNoDiffs(t *testing.T) {
	reference := record.FieldRecord{
		record.ProjectName:  "Ava Morales\nResidence",
		record.SheetNumber:  "PV-1",
		record.SheetSize:    `ANSI B 11" X 17"`,
		record.DCSystemSize: "6.230 kWDC",
	}
	page := record.FieldRecord{
		record.ProjectName:  "ava morales residence",
		record.SheetNumber:  "PV-15",
		record.SheetSize:    "11\" X 17\"\nANSI B",
		record.DCSystemSize: "6.23 kWDC",
	}
	if diffs := Records(reference, page); len(diffs) != 0 {
		t.Fatalf("expected no discrepancies, got %+v", diffs)
	}
}

func TestRecords_SheetNameNeverReported(t *testing.T) {
	reference := record.FieldRecord{record.SheetName: "COVER PAGE"}
	page := record.FieldRecord{record.SheetName: "ELECTRICAL PLAN"}
	if diffs := Records(reference, page); len(diffs) != 0 {
		t.Fatalf("sheet_name must be exempt, got %+v", diffs)
	}
}

func TestRecords_AbsentExpectedNeverFlagged(t *testing.T) {
	reference := record.FieldRecord{record.EmailID: "  "}
	page := record.FieldRecord{record.EmailID: "solar@example.com"}
	if diffs := Records(reference, page); len(diffs) != 0 {
		t.Fatalf("absent expected value cannot be contradicted, got %+v", diffs)
	}
}

func TestRecords_SchemaOrderAndContent(t *testing.T) {
	reference := record.FieldRecord{
		record.CompanyName: "Sunrise Solar LLC",
		record.ProjectName: "Morales Residence",
		record.SheetNumber: "PV-1",
	}
	page := record.FieldRecord{
		record.CompanyName: "Sunset Solar LLC",
		record.ProjectName: "Sanchez Residence",
		record.SheetNumber: "E-1",
	}
	diffs := Records(reference, page)
	if len(diffs) != 3 {
		t.Fatalf("expected 3 discrepancies, got %d: %+v", len(diffs), diffs)
	}
	wantOrder := []string{record.CompanyName, record.ProjectName, record.SheetNumber}
	for i, want := range wantOrder {
		if diffs[i].Field != want {
			t.Errorf("position %d: got field %q, want %q", i, diffs[i].Field, want)
		}
	}
	if diffs[0].Expected != "sunrise solar llc" || diffs[0].Found != "sunset solar llc" {
		t.Errorf("unexpected values: %+v", diffs[0])
	}
}

func TestRecords_MissingFoundValueIsFlagged(t *testing.T) {
	reference := record.FieldRecord{record.PhoneNumber: "555-0100"}
	page := record.FieldRecord{}
	diffs := Records(reference, page)
	if len(diffs) != 1 || diffs[0].Field != record.PhoneNumber {
		t.Fatalf("expected one phone_number discrepancy, got %+v", diffs)
	}
}
