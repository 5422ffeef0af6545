// Package render turns reconstructed documents into Markdown and HTML
// for review. The Markdown output mirrors the statute's printed shape:
// parts as top-level headings, chapters nested beneath them, and each
// section as a numbered subheading followed by its text.
package render

import (
	"fmt"
	"strings"

	"github.com/coolbeans/lexstruct/pkg/hierarchy"
	"github.com/coolbeans/lexstruct/pkg/library"
)

// ToMarkdown generates a Markdown rendering of the document, including
// a summary table and any reconstruction diagnostics.
func ToMarkdown(document *library.Document) string {
	var markdownBuilder strings.Builder

	title := document.Title
	if title == "" {
		title = document.ID
	}
	markdownBuilder.WriteString(fmt.Sprintf("# %s\n\n", title))

	stats := document.Stats()
	markdownBuilder.WriteString("| Metric | Value |\n")
	markdownBuilder.WriteString("|--------|-------|\n")
	markdownBuilder.WriteString(fmt.Sprintf("| Parts | %d |\n", stats.Parts))
	markdownBuilder.WriteString(fmt.Sprintf("| Chapters | %d |\n", stats.Chapters))
	markdownBuilder.WriteString(fmt.Sprintf("| Sections | %d |\n", stats.Sections))
	if stats.Unassigned > 0 {
		markdownBuilder.WriteString(fmt.Sprintf("| Unassigned | %d |\n", stats.Unassigned))
	}
	markdownBuilder.WriteString(fmt.Sprintf("| Status | %s |\n", document.Status()))
	markdownBuilder.WriteString("\n")

	for _, part := range document.Tree {
		writeNode(&markdownBuilder, part, 2)
	}

	if len(document.Diagnostics) > 0 {
		markdownBuilder.WriteString(document.Diagnostics.ToMarkdown())
	}

	return markdownBuilder.String()
}

// writeNode renders one container and its subtree at the given heading level.
func writeNode(markdownBuilder *strings.Builder, node *hierarchy.Node, level int) {
	markdownBuilder.WriteString(fmt.Sprintf("%s %s\n\n", strings.Repeat("#", level), node.Label))

	for _, section := range node.Sections {
		writeSection(markdownBuilder, section, level+1)
	}
	for _, child := range node.Children {
		writeNode(markdownBuilder, child, level+1)
	}
}

// writeSection renders one section as a numbered subheading.
func writeSection(markdownBuilder *strings.Builder, section hierarchy.Section, level int) {
	if level > 6 {
		level = 6
	}

	heading := section.Number
	if section.Heading != "" {
		heading = fmt.Sprintf("%s. %s", section.Number, section.Heading)
	}
	markdownBuilder.WriteString(fmt.Sprintf("%s %s\n\n", strings.Repeat("#", level), heading))

	if section.Body != "" {
		markdownBuilder.WriteString(section.Body)
		markdownBuilder.WriteString("\n\n")
	}
}
