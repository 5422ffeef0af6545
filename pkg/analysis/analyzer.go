// Package analysis inspects reconstructed legislation documents for
// gaps: sections missing from the numeric sequence, sections marked as
// repealed, and the completeness of the document as a whole. Repealed
// sections are legitimate holes, so they never count as missing.
package analysis

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/coolbeans/lexstruct/pkg/hierarchy"
	"github.com/coolbeans/lexstruct/pkg/secnum"
)

// RepealedSection records one section identified as repealed.
type RepealedSection struct {
	Number string `json:"number"`

	// RepealingInstrument names the ordinance or act that repealed the
	// section, when the text states it.
	RepealingInstrument string `json:"repealing_instrument,omitempty"`

	// RepealingYear is the year of the repeal, when stated.
	RepealingYear string `json:"repealing_year,omitempty"`

	// HasContent reports whether the section still carries text beyond
	// the repeal notice itself.
	HasContent bool `json:"has_content"`
}

// DocumentAnalysis is the result of analyzing one document.
type DocumentAnalysis struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`

	ExistingSections []string          `json:"existing_sections"`
	MissingSections  []string          `json:"missing_sections"`
	RepealedSections []RepealedSection `json:"repealed_sections"`

	TotalExpected       int     `json:"total_sections_expected"`
	TotalFound          int     `json:"total_sections_found"`
	MissingCount        int     `json:"missing_count"`
	RepealedCount       int     `json:"repealed_count"`
	RepealedWithContent int     `json:"repealed_with_content_count"`
	Completeness        float64 `json:"completeness_percentage"`

	AnalyzedAt time.Time `json:"analyzed_at"`
}

// HasMissingSections reports whether any expected section is absent.
func (analysis *DocumentAnalysis) HasMissingSections() bool {
	return len(analysis.MissingSections) > 0
}

// repealMarker matches a repeal notice at the start of a section's
// heading or body, optionally capturing the repealing instrument.
var repealMarker = regexp.MustCompile(`(?i)^\s*[\[(]?\s*repealed(?:\s+by\s+([^)\]\n]+))?`)

// yearPattern pulls a four-digit year out of a repealing instrument.
var yearPattern = regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`)

// AnalyzeDocument examines a reconstructed tree for missing and
// repealed sections. The expected sequence runs from the lowest to the
// highest parseable section number found anywhere in the tree; suffixed
// numbers like 14A count as found but never widen the expected range,
// since insertions are additions rather than sequence members.
func AnalyzeDocument(name, title string, tree []*hierarchy.Node) *DocumentAnalysis {
	sections := hierarchy.Flatten(tree)

	analysis := &DocumentAnalysis{
		Name:       name,
		Title:      title,
		TotalFound: len(sections),
		AnalyzedAt: time.Now().UTC(),
	}

	present := make(map[int]bool)
	repealedMagnitudes := make(map[int]bool)
	var lowest, highest secnum.Number
	haveRange := false

	for _, section := range sections {
		analysis.ExistingSections = append(analysis.ExistingSections, section.Number)

		if repealed, ok := detectRepeal(section); ok {
			analysis.RepealedSections = append(analysis.RepealedSections, repealed)
			if repealed.HasContent {
				analysis.RepealedWithContent++
			}
		}

		id, err := secnum.Parse(section.Number)
		if err != nil {
			continue
		}
		present[id.Magnitude] = true
		if last := len(analysis.RepealedSections) - 1; last >= 0 &&
			analysis.RepealedSections[last].Number == section.Number {
			repealedMagnitudes[id.Magnitude] = true
		}
		if !haveRange {
			lowest, highest = id, id
			haveRange = true
			continue
		}
		lowest = secnum.Min(lowest, id)
		highest = secnum.Max(highest, id)
	}

	if haveRange {
		analysis.TotalExpected = highest.Magnitude - lowest.Magnitude + 1
		for magnitude := lowest.Magnitude; magnitude <= highest.Magnitude; magnitude++ {
			if !present[magnitude] && !repealedMagnitudes[magnitude] {
				analysis.MissingSections = append(analysis.MissingSections,
					secnum.Number{Magnitude: magnitude}.String())
			}
		}
	}

	analysis.MissingCount = len(analysis.MissingSections)
	analysis.RepealedCount = len(analysis.RepealedSections)
	analysis.Completeness = completenessPercentage(analysis.TotalExpected, analysis.MissingCount)

	return analysis
}

// detectRepeal checks a section's heading and body for a repeal notice.
func detectRepeal(section hierarchy.Section) (RepealedSection, bool) {
	text := section.Heading
	match := repealMarker.FindStringSubmatch(text)
	if match == nil {
		text = section.Body
		match = repealMarker.FindStringSubmatch(text)
	}
	if match == nil {
		return RepealedSection{}, false
	}

	repealed := RepealedSection{Number: section.Number}
	if instrument := strings.TrimSpace(match[1]); instrument != "" {
		repealed.RepealingInstrument = instrument
		if year := yearPattern.FindString(instrument); year != "" {
			repealed.RepealingYear = year
		}
	}

	// Content beyond the notice line means the historical text was
	// retained alongside the repeal marker.
	remainder := strings.TrimSpace(strings.TrimPrefix(section.Body, repealMarker.FindString(section.Body)))
	repealed.HasContent = len(remainder) > 20

	return repealed, true
}

// sortSectionNumbers orders raw section numbers the way they appear in
// a statute: parseable numbers numerically, anything else after them in
// plain string order.
func sortSectionNumbers(numbers []string) {
	sort.SliceStable(numbers, func(i, j int) bool {
		left, leftErr := secnum.Parse(numbers[i])
		right, rightErr := secnum.Parse(numbers[j])
		switch {
		case leftErr == nil && rightErr == nil:
			return secnum.Compare(left, right) < 0
		case leftErr == nil:
			return true
		case rightErr == nil:
			return false
		default:
			return numbers[i] < numbers[j]
		}
	})
}

// completenessPercentage treats repealed sections as accounted for.
func completenessPercentage(expected, missing int) float64 {
	if expected <= 0 {
		return 100.0
	}
	found := expected - missing
	percentage := float64(found) / float64(expected) * 100
	return float64(int(percentage*100+0.5)) / 100
}
