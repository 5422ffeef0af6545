package hierarchy

import (
	"reflect"
	"testing"
)

func TestVerifyCleanRun(t *testing.T) {
	input := sectionNumbers("1", "2", "3")
	tree := []*Node{{Label: "PART I", Sections: input}}

	report := Verify(tree, input)

	if !report.Clean() {
		t.Errorf("expected clean report, got %+v", report)
	}
	if report.InputCount != 3 || report.TreeCount != 3 {
		t.Errorf("counts: got %d/%d, want 3/3", report.InputCount, report.TreeCount)
	}
}

func TestVerifyReportsMissing(t *testing.T) {
	input := sectionNumbers("1", "2", "3")
	tree := []*Node{{Label: "PART I", Sections: sectionNumbers("1", "3")}}

	report := Verify(tree, input)

	if report.Clean() {
		t.Error("expected unclean report")
	}
	if !reflect.DeepEqual(report.Missing, []string{"2"}) {
		t.Errorf("missing: got %v, want [2]", report.Missing)
	}
}

func TestVerifyReportsDuplicates(t *testing.T) {
	input := sectionNumbers("1", "2")
	tree := []*Node{
		{Label: "PART I", Sections: sectionNumbers("1", "2")},
		{Label: "PART II", Sections: sectionNumbers("2")},
	}

	report := Verify(tree, input)

	if report.Clean() {
		t.Error("expected unclean report")
	}
	if !reflect.DeepEqual(report.Duplicates, []string{"2"}) {
		t.Errorf("duplicates: got %v, want [2]", report.Duplicates)
	}
}

func TestVerifyCanonicalizesNumbers(t *testing.T) {
	// "05" in input and "5" in the tree are the same section.
	input := []Section{{Number: "05"}}
	tree := []*Node{{Label: "PART I", Sections: []Section{{Number: "5"}}}}

	report := Verify(tree, input)

	if !report.Clean() {
		t.Errorf("expected clean report for canonical-equal numbers, got %+v", report)
	}
}

func TestVerifyDoesNotMutateTree(t *testing.T) {
	tree := []*Node{{Label: "PART I", Sections: sectionNumbers("2", "1")}}
	before := []string{tree[0].Sections[0].Number, tree[0].Sections[1].Number}

	Verify(tree, sectionNumbers("1", "2", "3"))

	after := []string{tree[0].Sections[0].Number, tree[0].Sections[1].Number}
	if !reflect.DeepEqual(before, after) {
		t.Error("verifier mutated the tree")
	}
}
