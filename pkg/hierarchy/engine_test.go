package hierarchy

import (
	"reflect"
	"testing"
)

// outlineTwoPart declares Part I covering 1-5 and Part II covering 6-10.
const outlineTwoPart = `
PART I
1. First
5. Fifth
PART II
6. Sixth
10. Tenth
`

func TestReconstructTwoParts(t *testing.T) {
	// Scenario: ten sections split evenly across two declared parts.
	result := Reconstruct(outlineTwoPart,
		sectionNumbers("1", "2", "3", "4", "5", "6", "7", "8", "9", "10"))

	if len(result.Tree) != 2 {
		t.Fatalf("tree size: got %d, want 2 parts", len(result.Tree))
	}

	for i, expected := range [][]string{
		{"1", "2", "3", "4", "5"},
		{"6", "7", "8", "9", "10"},
	} {
		var got []string
		for _, section := range result.Tree[i].Sections {
			got = append(got, section.Number)
		}
		if !reflect.DeepEqual(got, expected) {
			t.Errorf("part %d sections: got %v, want %v", i, got, expected)
		}
	}

	if !result.Completeness.Clean() {
		t.Errorf("completeness: %+v", result.Completeness)
	}
	if len(result.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", result.Diagnostics)
	}
}

func TestReconstructOverlappingBoundaries(t *testing.T) {
	// Scenario: Part I declares 1-10 and Part II declares 8-15. Part I
	// is clamped to 1-7; 8-10 land in Part II; a conflict is recorded.
	overlapOutline := `
PART I
1. First
10. Tenth
PART II
8. Eighth
15. Fifteenth
`
	result := Reconstruct(overlapOutline,
		sectionNumbers("1", "7", "8", "9", "10", "15"))

	byLabel := make(map[string][]string)
	for _, node := range result.Tree {
		for _, section := range node.Sections {
			byLabel[node.Label] = append(byLabel[node.Label], section.Number)
		}
	}

	if !reflect.DeepEqual(byLabel["PART I"], []string{"1", "7"}) {
		t.Errorf("PART I sections: got %v, want [1 7]", byLabel["PART I"])
	}
	if !reflect.DeepEqual(byLabel["PART II"], []string{"8", "9", "10", "15"}) {
		t.Errorf("PART II sections: got %v, want [8 9 10 15]", byLabel["PART II"])
	}
	if !result.Diagnostics.HasKind(DiagnosticBoundaryConflict) {
		t.Error("expected a boundary conflict diagnostic")
	}
}

func TestReconstructSuffixBeyondRangeEnd(t *testing.T) {
	// Scenario: section 14A with Part I declared 1-14 and Part II
	// 15-20. 14A sorts after plain 14, so it falls outside Part I's
	// closed range and must land in Part II.
	suffixOutline := `
PART I
1. First
14. Fourteenth
PART II
15. Fifteenth
20. Twentieth
`
	result := Reconstruct(suffixOutline, sectionNumbers("14", "14A", "15"))

	byLabel := make(map[string][]string)
	for _, node := range result.Tree {
		for _, section := range node.Sections {
			byLabel[node.Label] = append(byLabel[node.Label], section.Number)
		}
	}

	if !reflect.DeepEqual(byLabel["PART I"], []string{"14"}) {
		t.Errorf("PART I sections: got %v, want [14]", byLabel["PART I"])
	}
	if !reflect.DeepEqual(byLabel["PART II"], []string{"14A", "15"}) {
		t.Errorf("PART II sections: got %v, want [14A 15]", byLabel["PART II"])
	}
}

func TestReconstructEmptyOutlineFallsBack(t *testing.T) {
	// Scenario: no outline at all. One flat container, sections sorted,
	// diagnostics noting no boundaries found.
	result := Reconstruct("", sectionNumbers("3", "1", "2"))

	if len(result.Tree) != 1 {
		t.Fatalf("tree size: got %d, want 1 flat container", len(result.Tree))
	}
	if result.Tree[0].Label != FallbackLabel {
		t.Errorf("fallback label: got %s, want %s", result.Tree[0].Label, FallbackLabel)
	}

	var got []string
	for _, section := range result.Tree[0].Sections {
		got = append(got, section.Number)
	}
	if !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Errorf("fallback order: got %v", got)
	}
	if !result.Diagnostics.HasKind(DiagnosticNoBoundaries) {
		t.Error("expected no-boundaries diagnostic")
	}
	if !result.Completeness.Clean() {
		t.Errorf("fallback completeness: %+v", result.Completeness)
	}
}

func TestReconstructDuplicateInputLaterWins(t *testing.T) {
	// Scenario: two records share number 100 with different content;
	// the later wins and the collision is logged.
	input := []Section{
		{Number: "100", Body: "first version"},
		{Number: "100", Body: "second version"},
	}

	result := Reconstruct("", input)

	sections := result.Tree[0].Sections
	if len(sections) != 1 {
		t.Fatalf("section count: got %d, want 1", len(sections))
	}
	if sections[0].Body != "second version" {
		t.Errorf("winner: got %q, want later record", sections[0].Body)
	}
	if !result.Diagnostics.HasKind(DiagnosticInputCollision) {
		t.Error("expected input collision diagnostic")
	}
}

func TestReconstructCompleteness(t *testing.T) {
	input := sectionNumbers("1", "2", "3", "4", "5", "6", "7", "8", "9", "10")
	result := Reconstruct(outlineTwoPart, input)

	total := 0
	for _, node := range result.Tree {
		total += node.CountSections()
	}
	if total != len(input) {
		t.Errorf("tree section count: got %d, want %d", total, len(input))
	}
	if len(result.Completeness.Missing) != 0 || len(result.Completeness.Duplicates) != 0 {
		t.Errorf("completeness: %+v", result.Completeness)
	}
}

func TestReconstructIdempotent(t *testing.T) {
	// Feeding the flattened tree back through the pipeline with the
	// same outline yields an identical tree.
	input := sectionNumbers("1", "2", "3", "4", "5", "6", "7", "8", "9", "10")

	first := Reconstruct(outlineTwoPart, input)
	second := Reconstruct(outlineTwoPart, Flatten(first.Tree))

	if !reflect.DeepEqual(first.Tree, second.Tree) {
		t.Error("pipeline is not idempotent over its own flattened output")
	}
}

func TestReconstructChapteredDocument(t *testing.T) {
	chapteredOutline := `
PART I
1. Short title
2. Interpretation
PART II
CHAPTER I
10. First offence
12. Another offence
CHAPTER II
13. Procedure
15. Appeals
`
	result := Reconstruct(chapteredOutline,
		sectionNumbers("1", "2", "10", "11", "12", "13", "14", "15"))

	if len(result.Tree) != 2 {
		t.Fatalf("tree size: got %d, want 2", len(result.Tree))
	}

	partTwo := result.Tree[1]
	if len(partTwo.Children) != 2 {
		t.Fatalf("PART II chapters: got %d, want 2", len(partTwo.Children))
	}
	if len(partTwo.Sections) != 0 {
		t.Errorf("PART II should hold sections only in its chapters, has %v", partTwo.Sections)
	}
	if got := partTwo.Children[0].CountSections(); got != 3 {
		t.Errorf("CHAPTER I sections: got %d, want 3", got)
	}
	if got := partTwo.Children[1].CountSections(); got != 3 {
		t.Errorf("CHAPTER II sections: got %d, want 3", got)
	}
	if !result.Completeness.Clean() {
		t.Errorf("completeness: %+v", result.Completeness)
	}
}

func TestReconstructUnparseableNumberSurvives(t *testing.T) {
	result := Reconstruct(outlineTwoPart, []Section{
		{Number: "1", Body: "fine"},
		{Number: "SCHEDULE", Body: "no digits"},
	})

	last := result.Tree[len(result.Tree)-1]
	if last.Label != UnassignedLabel {
		t.Fatalf("last container: got %s, want %s", last.Label, UnassignedLabel)
	}
	if len(last.Sections) != 1 || last.Sections[0].Number != "SCHEDULE" {
		t.Errorf("unassigned sections: got %v", last.Sections)
	}
	if !result.Diagnostics.HasKind(DiagnosticParseFailure) {
		t.Error("expected parse failure diagnostic")
	}
}
