package hierarchy

// Assemble groups routed sections under their containers and builds the
// final tree. The tree mirrors the resolved interval tree's shape, so
// declared containers appear even when no sections were routed to them;
// the outline's structure is preserved, not just the populated parts.
// Within each container sections sort ascending by section-number order,
// and records resolving to the same number deduplicate with the richer
// record kept. The UNASSIGNED container, when non-empty, is emitted last.
func Assemble(parts []*Interval, routed []RoutedSection) ([]*Node, Diagnostics) {
	var diagnostics Diagnostics

	sectionsByPath := make(map[string][]Section)
	for _, routedSection := range routed {
		key := pathKey(routedSection.Path)
		sectionsByPath[key] = append(sectionsByPath[key], routedSection.Section)
	}

	var tree []*Node
	for _, part := range parts {
		partNode := &Node{Label: part.Label}
		partNode.Sections = finishSectionList(sectionsByPath[pathKey(part.Path)], part.Label, &diagnostics)

		for _, chapter := range part.Children {
			chapterNode := &Node{
				Label:    chapter.Label,
				Sections: finishSectionList(sectionsByPath[pathKey(chapter.Path)], chapter.Label, &diagnostics),
			}
			partNode.Children = append(partNode.Children, chapterNode)
		}

		tree = append(tree, partNode)
	}

	if unassigned := sectionsByPath[UnassignedLabel]; len(unassigned) > 0 {
		tree = append(tree, &Node{
			Label:    UnassignedLabel,
			Sections: finishSectionList(unassigned, UnassignedLabel, &diagnostics),
		})
	}

	return tree, diagnostics
}

// finishSectionList sorts a container's sections and deduplicates
// records that resolve to the same canonical number ("05" vs "5"),
// keeping the richer record.
func finishSectionList(sections []Section, containerLabel string, diagnostics *Diagnostics) []Section {
	if len(sections) == 0 {
		return nil
	}

	byCanonical := make(map[string]int)
	deduplicated := make([]Section, 0, len(sections))
	for _, section := range sections {
		canonical := canonicalNumber(section.Number)
		existingIndex, seen := byCanonical[canonical]
		if !seen {
			byCanonical[canonical] = len(deduplicated)
			deduplicated = append(deduplicated, section)
			continue
		}

		diagnostics.add(DiagnosticDuplicateNumber, section.Number, containerLabel,
			"records %q and %q resolve to the same section %s; richer record kept",
			deduplicated[existingIndex].Number, section.Number, canonical)
		if section.richness() > deduplicated[existingIndex].richness() {
			deduplicated[existingIndex] = section
		}
	}

	sortSections(deduplicated)
	return deduplicated
}
