package analysis

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/coolbeans/lexstruct/pkg/hierarchy"
)

func treeOf(numbers ...string) []*hierarchy.Node {
	sections := make([]hierarchy.Section, len(numbers))
	for i, number := range numbers {
		sections[i] = hierarchy.Section{Number: number, Body: "substantive text"}
	}
	return []*hierarchy.Node{{Label: "PART I", Sections: sections}}
}

func TestAnalyzeFindsMissingSections(t *testing.T) {
	analysis := AnalyzeDocument("cap-1", "Penal Code", treeOf("1", "2", "5", "6"))

	if !reflect.DeepEqual(analysis.MissingSections, []string{"3", "4"}) {
		t.Errorf("missing: got %v, want [3 4]", analysis.MissingSections)
	}
	if analysis.TotalExpected != 6 || analysis.TotalFound != 4 {
		t.Errorf("totals: got %d expected / %d found", analysis.TotalExpected, analysis.TotalFound)
	}
	if analysis.Completeness != 66.67 {
		t.Errorf("completeness: got %.2f, want 66.67", analysis.Completeness)
	}
}

func TestAnalyzeCompleteDocument(t *testing.T) {
	analysis := AnalyzeDocument("cap-1", "", treeOf("1", "2", "3"))

	if analysis.HasMissingSections() {
		t.Errorf("unexpected missing sections: %v", analysis.MissingSections)
	}
	if analysis.Completeness != 100.0 {
		t.Errorf("completeness: got %.2f, want 100", analysis.Completeness)
	}
}

func TestAnalyzeRepealedNotMissing(t *testing.T) {
	tree := []*hierarchy.Node{{
		Label: "PART I",
		Sections: []hierarchy.Section{
			{Number: "1", Body: "text"},
			{Number: "2", Heading: "Repealed by Ordinance No. 5 of 1998"},
			{Number: "3", Body: "text"},
		},
	}}

	analysis := AnalyzeDocument("cap-1", "", tree)

	if analysis.HasMissingSections() {
		t.Errorf("repealed section counted as missing: %v", analysis.MissingSections)
	}
	if analysis.RepealedCount != 1 {
		t.Fatalf("repealed count: got %d, want 1", analysis.RepealedCount)
	}

	repealed := analysis.RepealedSections[0]
	if repealed.Number != "2" {
		t.Errorf("repealed number: got %q", repealed.Number)
	}
	if !strings.Contains(repealed.RepealingInstrument, "Ordinance No. 5") {
		t.Errorf("instrument: got %q", repealed.RepealingInstrument)
	}
	if repealed.RepealingYear != "1998" {
		t.Errorf("year: got %q", repealed.RepealingYear)
	}
}

func TestAnalyzeRepealedWithRetainedContent(t *testing.T) {
	tree := []*hierarchy.Node{{
		Label: "PART I",
		Sections: []hierarchy.Section{
			{Number: "7", Body: "(Repealed by Ordinance 12 of 2003) The historical text of this section remains available for reference purposes."},
		},
	}}

	analysis := AnalyzeDocument("cap-1", "", tree)

	if analysis.RepealedWithContent != 1 {
		t.Errorf("repealed with content: got %d, want 1", analysis.RepealedWithContent)
	}
}

func TestAnalyzeSuffixedNumbersDoNotWidenRange(t *testing.T) {
	analysis := AnalyzeDocument("cap-1", "", treeOf("1", "2", "2A", "3"))

	if analysis.TotalExpected != 3 {
		t.Errorf("expected range: got %d, want 3 (2A is an insertion)", analysis.TotalExpected)
	}
	if analysis.HasMissingSections() {
		t.Errorf("missing: got %v", analysis.MissingSections)
	}
}

func TestAnalyzeEmptyTree(t *testing.T) {
	analysis := AnalyzeDocument("cap-1", "", nil)

	if analysis.TotalExpected != 0 || analysis.TotalFound != 0 {
		t.Errorf("totals: %+v", analysis)
	}
	if analysis.Completeness != 100.0 {
		t.Errorf("empty completeness: got %.2f, want 100", analysis.Completeness)
	}
}

func TestWriteTextReport(t *testing.T) {
	analyses := []*DocumentAnalysis{
		AnalyzeDocument("cap-1", "Penal Code", treeOf("1", "3")),
	}

	var buf bytes.Buffer
	if err := WriteTextReport(&buf, analyses); err != nil {
		t.Fatalf("WriteTextReport failed: %v", err)
	}

	report := buf.String()
	if !strings.Contains(report, "cap-1") {
		t.Error("report missing document name")
	}
	if !strings.Contains(report, "missing:           2") {
		t.Errorf("report missing gap listing:\n%s", report)
	}
}

func TestWriteJSONReport(t *testing.T) {
	analyses := []*DocumentAnalysis{AnalyzeDocument("cap-1", "", treeOf("1", "2"))}

	var buf bytes.Buffer
	if err := WriteJSONReport(&buf, analyses); err != nil {
		t.Fatalf("WriteJSONReport failed: %v", err)
	}

	var decoded []*DocumentAnalysis
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Name != "cap-1" {
		t.Errorf("decoded report: %+v", decoded)
	}
}

func TestWriteCSVReport(t *testing.T) {
	analyses := []*DocumentAnalysis{
		AnalyzeDocument("cap-1", "Penal Code", treeOf("1", "2", "4")),
		AnalyzeDocument("cap-2", "Evidence", treeOf("1")),
	}

	var buf bytes.Buffer
	if err := WriteCSVReport(&buf, analyses); err != nil {
		t.Fatalf("WriteCSVReport failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("report is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows: got %d, want header plus 2", len(records))
	}
	if records[1][0] != "cap-1" || records[1][5] != "3" {
		t.Errorf("first row: %v", records[1])
	}
}

func TestSequenceDiff(t *testing.T) {
	analysis := AnalyzeDocument("cap-1", "", treeOf("1", "2", "4"))

	diff, err := SequenceDiff(analysis)
	if err != nil {
		t.Fatalf("SequenceDiff failed: %v", err)
	}

	if !strings.Contains(diff, "-3") {
		t.Errorf("diff should show section 3 as removed:\n%s", diff)
	}
	if !strings.Contains(diff, "--- expected") || !strings.Contains(diff, "+++ found") {
		t.Errorf("diff headers missing:\n%s", diff)
	}
}
