package hierarchy

import (
	"github.com/coolbeans/lexstruct/pkg/secnum"
)

// RoutedSection is one input section with its assigned container path.
// Ambiguous marks assignments made by a tie-break rather than a unique
// interval match; such sections are surfaced for diagnostics, never
// dropped.
type RoutedSection struct {
	Section   Section
	Path      []string
	Ambiguous bool
}

// Route assigns every input section to exactly one container. The
// function is total: each record in the deduplicated input produces
// exactly one RoutedSection, never more, never fewer.
//
// Input records sharing the same number string are merged first, the
// later record overriding the earlier with the collision logged. A number
// that fails to parse routes to UNASSIGNED. Otherwise routing descends
// the interval tree: the part whose interval contains the identifier,
// then the chapter within it. Ties resolve deterministically (narrowest
// interval, then first in outline order) and a section falling in a gap
// between parts is assigned to the next part in order, flagged ambiguous.
// A gap between chapters instead lands the section directly on the
// enclosing part, which is how repealed chapter ranges behave in the
// source material.
func Route(parts []*Interval, sections []Section) ([]RoutedSection, Diagnostics) {
	var diagnostics Diagnostics

	deduplicated := dedupeInput(sections, &diagnostics)

	routed := make([]RoutedSection, 0, len(deduplicated))
	for _, section := range deduplicated {
		routed = append(routed, routeOne(parts, section, &diagnostics))
	}

	return routed, diagnostics
}

// dedupeInput merges records with identical number strings, later record
// winning, preserving first-seen order.
func dedupeInput(sections []Section, diagnostics *Diagnostics) []Section {
	indexByNumber := make(map[string]int)
	var deduplicated []Section

	for _, section := range sections {
		if existingIndex, seen := indexByNumber[section.Number]; seen {
			diagnostics.add(DiagnosticInputCollision, section.Number, "",
				"input contains %q more than once; later record kept", section.Number)
			deduplicated[existingIndex] = section
			continue
		}
		indexByNumber[section.Number] = len(deduplicated)
		deduplicated = append(deduplicated, section)
	}

	return deduplicated
}

// routeOne routes a single section record.
func routeOne(parts []*Interval, section Section, diagnostics *Diagnostics) RoutedSection {
	identifier, err := secnum.Parse(section.Number)
	if err != nil {
		diagnostics.add(DiagnosticParseFailure, section.Number, UnassignedLabel,
			"unparseable section number: %v", err)
		return RoutedSection{Section: section, Path: []string{UnassignedLabel}}
	}

	part, partAmbiguous, ok := matchSibling(parts, identifier, true, section.Number, diagnostics)
	if !ok {
		diagnostics.add(DiagnosticUnassigned, section.Number, UnassignedLabel,
			"no declared boundary claims section %s", section.Number)
		return RoutedSection{Section: section, Path: []string{UnassignedLabel}}
	}

	if len(part.Children) == 0 {
		return RoutedSection{Section: section, Path: part.Path, Ambiguous: partAmbiguous}
	}

	// Chapter level: no next-container rule here. A section in a gap
	// between chapters belongs directly to the part.
	chapter, chapterAmbiguous, ok := matchSibling(part.Children, identifier, false, section.Number, diagnostics)
	if !ok {
		return RoutedSection{Section: section, Path: part.Path, Ambiguous: partAmbiguous}
	}

	return RoutedSection{
		Section:   section,
		Path:      chapter.Path,
		Ambiguous: partAmbiguous || chapterAmbiguous,
	}
}

// matchSibling selects the single sibling interval claiming the
// identifier. With nextOnGap set, an identifier falling between sibling
// ranges is assigned to the next sibling in start order (the tie-break
// Scenario "14A against a range ending at 14" requires); without it, a
// gap identifier reports no match.
func matchSibling(siblings []*Interval, identifier secnum.Number, nextOnGap bool, rawNumber string, diagnostics *Diagnostics) (*Interval, bool, bool) {
	var containing []*Interval
	for _, sibling := range siblings {
		if sibling.ZeroWidth {
			continue
		}
		if secnum.InRange(identifier, sibling.Start, sibling.End) {
			containing = append(containing, sibling)
		}
	}

	switch len(containing) {
	case 1:
		return containing[0], false, true

	case 0:
		if !nextOnGap {
			return nil, false, false
		}
		for _, sibling := range siblings {
			if sibling.ZeroWidth {
				continue
			}
			if secnum.Compare(sibling.Start, identifier) > 0 {
				diagnostics.add(DiagnosticRoutingAmbiguity, rawNumber, sibling.Label,
					"section %s falls in a boundary gap; assigned to next container %s", rawNumber, sibling.Label)
				return sibling, true, true
			}
		}
		return nil, false, false

	default:
		// Overlap survived resolution only if boundary noise was
		// unresolvable; pick the narrowest interval, then the first
		// in outline order.
		best := containing[0]
		for _, candidate := range containing[1:] {
			candidateWidth := intervalWidth(candidate)
			bestWidth := intervalWidth(best)
			if candidateWidth < bestWidth ||
				(candidateWidth == bestWidth && candidate.Order < best.Order) {
				best = candidate
			}
		}
		diagnostics.add(DiagnosticRoutingAmbiguity, rawNumber, best.Label,
			"section %s matched %d containers; narrowest (%s) chosen", rawNumber, len(containing), best.Label)
		return best, true, true
	}
}

// intervalWidth approximates an interval's span for narrowest-match
// comparison. Suffix ordering is finer than magnitudes, so the magnitude
// difference is the dominant term and equal-magnitude spans fall back to
// outline order.
func intervalWidth(interval *Interval) int {
	return interval.End.Magnitude - interval.Start.Magnitude
}
