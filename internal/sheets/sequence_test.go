package sheets

import (
	"reflect"
	"testing"
)

func TestAnalyzeSequence_GapDetection(t *testing.T) {
	got := AnalyzeSequence([]string{"A-1", "A-2", "A-4"})
	if len(got.Groups) != 1 {
		t.Fatalf("expected one prefix group, got %d", len(got.Groups))
	}
	g := got.Groups[0]
	if g.Prefix != "A-" {
		t.Errorf("unexpected prefix: %q", g.Prefix)
	}
	if !reflect.DeepEqual(g.SortedNumbers, []int{1, 2, 4}) {
		t.Errorf("unexpected sorted numbers: %v", g.SortedNumbers)
	}
	if !reflect.DeepEqual(g.Missing, []int{3}) {
		t.Errorf("unexpected missing: %v", g.Missing)
	}
	if got.MissingTotal() != 1 {
		t.Errorf("unexpected missing total: %d", got.MissingTotal())
	}
}

func TestAnalyzeSequence_SinglePointHasNoGap(t *testing.T) {
	got := AnalyzeSequence([]string{"A-1"})
	if len(got.Groups) != 1 || len(got.Groups[0].Missing) != 0 {
		t.Fatalf("single point must not imply a gap: %+v", got)
	}
}

func TestAnalyzeSequence_OrderIndependent(t *testing.T) {
	a := AnalyzeSequence([]string{"PV-3", "E-1", "PV-1", "E-2", "PV-2"})
	b := AnalyzeSequence([]string{"E-2", "PV-1", "PV-2", "E-1", "PV-3"})
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("analysis must not depend on input order:\n%+v\n%+v", a, b)
	}

	// Mixed-case spellings of one prefix group together, and the displayed
	// spelling must not depend on which variant arrives first.
	c := AnalyzeSequence([]string{"pv-1", "PV-2"})
	d := AnalyzeSequence([]string{"PV-2", "pv-1"})
	if !reflect.DeepEqual(c, d) {
		t.Fatalf("display prefix depends on input order:\n%+v\n%+v", c, d)
	}
	if len(c.Groups) != 1 || c.Groups[0].Prefix != "PV-" {
		t.Fatalf("expected one group with prefix PV-, got %+v", c.Groups)
	}
}

func TestAnalyzeSequence_DeduplicatesAndGroups(t *testing.T) {
	got := AnalyzeSequence([]string{"PV-1", "PV-1", "PV-2", "E-5", "E-7"})
	if len(got.Groups) != 2 {
		t.Fatalf("expected two groups, got %+v", got.Groups)
	}
	// Groups are sorted by prefix.
	if got.Groups[0].Prefix != "E-" || got.Groups[1].Prefix != "PV-" {
		t.Fatalf("unexpected group order: %+v", got.Groups)
	}
	if !reflect.DeepEqual(got.Groups[0].Missing, []int{6}) {
		t.Errorf("unexpected E- missing: %v", got.Groups[0].Missing)
	}
	if !reflect.DeepEqual(got.Groups[1].SortedNumbers, []int{1, 2}) {
		t.Errorf("expected deduplication: %v", got.Groups[1].SortedNumbers)
	}
}

func TestAnalyzeSequence_UnrecognizedBucket(t *testing.T) {
	got := AnalyzeSequence([]string{"PV-1", "COVER", "PV-2", ""})
	if !reflect.DeepEqual(got.Unrecognized, []string{"COVER"}) {
		t.Fatalf("unexpected unrecognized bucket: %v", got.Unrecognized)
	}
	if len(got.Groups) != 1 {
		t.Fatalf("unrecognized identifiers must not form groups: %+v", got.Groups)
	}
}
