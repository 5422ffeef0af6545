package hierarchy

import "sort"

// CompletenessReport is the verifier's read-only cross-check of the
// assembled tree against the original flat input. A correct run reports
// no missing and no duplicate numbers; a mismatch is surfaced as a
// warning-level diagnostic, never an abort, since legal-document feeds
// degrade to best effort rather than failing closed.
type CompletenessReport struct {
	InputCount int      `json:"input_count"`
	TreeCount  int      `json:"tree_count"`
	Missing    []string `json:"missing,omitempty"`
	Duplicates []string `json:"duplicates,omitempty"`
}

// Clean reports whether the tree accounts for every input number exactly
// once.
func (report CompletenessReport) Clean() bool {
	return len(report.Missing) == 0 && len(report.Duplicates) == 0 &&
		report.InputCount == report.TreeCount
}

// Verify compares the set of section numbers in the assembled tree
// against the numbers in the original flat input. Numbers compare by
// canonical form so formatting variants of the same number ("05" vs "5")
// do not raise false alarms. Verify never mutates the tree.
func Verify(tree []*Node, input []Section) CompletenessReport {
	inputSet := make(map[string]bool)
	for _, section := range input {
		inputSet[canonicalNumber(section.Number)] = true
	}

	treeCounts := make(map[string]int)
	treeTotal := 0
	for _, section := range Flatten(tree) {
		treeCounts[canonicalNumber(section.Number)]++
		treeTotal++
	}

	report := CompletenessReport{
		InputCount: len(inputSet),
		TreeCount:  treeTotal,
	}

	for number := range inputSet {
		if treeCounts[number] == 0 {
			report.Missing = append(report.Missing, number)
		}
	}
	for number, count := range treeCounts {
		if count > 1 {
			report.Duplicates = append(report.Duplicates, number)
		}
	}

	sort.Strings(report.Missing)
	sort.Strings(report.Duplicates)
	return report
}
