package analysis

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// WriteTextReport renders a human-readable summary of the analyses.
func WriteTextReport(w io.Writer, analyses []*DocumentAnalysis) error {
	totalMissing := 0
	totalRepealed := 0

	fmt.Fprintln(w, "LEGISLATION ANALYSIS REPORT")
	fmt.Fprintln(w, strings.Repeat("=", 60))

	for _, analysis := range analyses {
		totalMissing += analysis.MissingCount
		totalRepealed += analysis.RepealedCount

		fmt.Fprintf(w, "\n%s", analysis.Name)
		if analysis.Title != "" && analysis.Title != analysis.Name {
			fmt.Fprintf(w, " (%s)", analysis.Title)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  sections found:    %d of %d expected (%.2f%% complete)\n",
			analysis.TotalFound, analysis.TotalExpected, analysis.Completeness)

		if analysis.MissingCount > 0 {
			fmt.Fprintf(w, "  missing:           %s\n", strings.Join(analysis.MissingSections, ", "))
		}
		for _, repealed := range analysis.RepealedSections {
			fmt.Fprintf(w, "  repealed:          %s", repealed.Number)
			if repealed.RepealingInstrument != "" {
				fmt.Fprintf(w, " (by %s)", repealed.RepealingInstrument)
			}
			if repealed.HasContent {
				fmt.Fprint(w, " [text retained]")
			}
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "documents: %d, missing sections: %d, repealed sections: %d\n",
		len(analyses), totalMissing, totalRepealed)

	return nil
}

// WriteJSONReport renders the analyses as indented JSON.
func WriteJSONReport(w io.Writer, analyses []*DocumentAnalysis) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(analyses); err != nil {
		return fmt.Errorf("encoding analysis report: %w", err)
	}
	return nil
}

// csvHeader is the column layout of the CSV report.
var csvHeader = []string{
	"name", "title", "sections_found", "sections_expected",
	"missing_count", "missing_sections", "repealed_count",
	"repealed_sections", "completeness_percentage",
}

// WriteCSVReport renders one row per document for spreadsheet review.
func WriteCSVReport(w io.Writer, analyses []*DocumentAnalysis) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, analysis := range analyses {
		repealedNumbers := make([]string, len(analysis.RepealedSections))
		for i, repealed := range analysis.RepealedSections {
			repealedNumbers[i] = repealed.Number
		}

		row := []string{
			analysis.Name,
			analysis.Title,
			strconv.Itoa(analysis.TotalFound),
			strconv.Itoa(analysis.TotalExpected),
			strconv.Itoa(analysis.MissingCount),
			strings.Join(analysis.MissingSections, ";"),
			strconv.Itoa(analysis.RepealedCount),
			strings.Join(repealedNumbers, ";"),
			fmt.Sprintf("%.2f", analysis.Completeness),
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("writing csv row for %s: %w", analysis.Name, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// SequenceDiff renders a unified diff between the expected section
// sequence and the sections actually found, making gaps and insertions
// easy to eyeball in large documents.
func SequenceDiff(analysis *DocumentAnalysis) (string, error) {
	expected := expectedSequence(analysis)

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(strings.Join(expected, "\n") + "\n"),
		B:        difflib.SplitLines(strings.Join(analysis.ExistingSections, "\n") + "\n"),
		FromFile: "expected",
		ToFile:   "found",
		Context:  2,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("building sequence diff: %w", err)
	}
	return text, nil
}

// expectedSequence reconstructs the full expected numbering by merging
// the found sections with the missing ones in sorted order.
func expectedSequence(analysis *DocumentAnalysis) []string {
	merged := make([]string, 0, len(analysis.ExistingSections)+len(analysis.MissingSections))
	merged = append(merged, analysis.ExistingSections...)
	merged = append(merged, analysis.MissingSections...)
	sortSectionNumbers(merged)
	return merged
}
