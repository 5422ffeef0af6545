package hierarchy

import (
	"fmt"
	"strings"
)

// DiagnosticKind classifies an anomaly observed during reconstruction.
type DiagnosticKind string

const (
	// DiagnosticBoundaryConflict reports overlapping declared ranges,
	// resolved by clamping the earlier interval.
	DiagnosticBoundaryConflict DiagnosticKind = "boundary_conflict"

	// DiagnosticInputCollision reports two input records sharing the
	// same number string; the later record wins.
	DiagnosticInputCollision DiagnosticKind = "input_collision"

	// DiagnosticRoutingAmbiguity reports a section matched by a
	// tie-break rather than a unique interval.
	DiagnosticRoutingAmbiguity DiagnosticKind = "routing_ambiguity"

	// DiagnosticUnassigned reports a section no container claimed,
	// routed to the UNASSIGNED container.
	DiagnosticUnassigned DiagnosticKind = "unassigned_section"

	// DiagnosticParseFailure reports a section number with no leading
	// digits.
	DiagnosticParseFailure DiagnosticKind = "parse_failure"

	// DiagnosticDuplicateNumber reports two distinct records resolving
	// to the same section number at assembly; the richer record wins.
	DiagnosticDuplicateNumber DiagnosticKind = "duplicate_number"

	// DiagnosticNoBoundaries reports that the outline yielded no
	// boundary records and the flat fallback applied.
	DiagnosticNoBoundaries DiagnosticKind = "no_boundaries"

	// DiagnosticCompleteness reports a verifier mismatch between input
	// and tree.
	DiagnosticCompleteness DiagnosticKind = "completeness_mismatch"
)

// Diagnostic is one recorded anomaly. Diagnostics never abort the
// pipeline; they exist so the caller can decide whether to accept the
// result, retry extraction, or escalate to a reviewer.
type Diagnostic struct {
	Kind      DiagnosticKind `json:"kind"`
	Section   string         `json:"section,omitempty"`
	Container string         `json:"container,omitempty"`
	Message   string         `json:"message"`
}

// Diagnostics accumulates anomaly records in pipeline order.
type Diagnostics []Diagnostic

// add appends a diagnostic.
func (d *Diagnostics) add(kind DiagnosticKind, section, container, format string, args ...any) {
	*d = append(*d, Diagnostic{
		Kind:      kind,
		Section:   section,
		Container: container,
		Message:   fmt.Sprintf(format, args...),
	})
}

// CountKind returns the number of diagnostics of the given kind.
func (d Diagnostics) CountKind(kind DiagnosticKind) int {
	count := 0
	for _, diagnostic := range d {
		if diagnostic.Kind == kind {
			count++
		}
	}
	return count
}

// HasKind reports whether any diagnostic of the given kind was recorded.
func (d Diagnostics) HasKind(kind DiagnosticKind) bool {
	return d.CountKind(kind) > 0
}

// ToMarkdown renders the diagnostics as a Markdown report suitable for
// run logs and operator review.
func (d Diagnostics) ToMarkdown() string {
	var markdownBuilder strings.Builder

	markdownBuilder.WriteString("# Reconstruction Diagnostics\n\n")

	if len(d) == 0 {
		markdownBuilder.WriteString("No anomalies recorded.\n")
		return markdownBuilder.String()
	}

	markdownBuilder.WriteString("## Summary\n\n")
	markdownBuilder.WriteString("| Kind | Count |\n")
	markdownBuilder.WriteString("|------|-------|\n")
	for _, kind := range []DiagnosticKind{
		DiagnosticBoundaryConflict,
		DiagnosticInputCollision,
		DiagnosticRoutingAmbiguity,
		DiagnosticUnassigned,
		DiagnosticParseFailure,
		DiagnosticDuplicateNumber,
		DiagnosticNoBoundaries,
		DiagnosticCompleteness,
	} {
		if count := d.CountKind(kind); count > 0 {
			markdownBuilder.WriteString(fmt.Sprintf("| %s | %d |\n", kind, count))
		}
	}
	markdownBuilder.WriteString("\n")

	markdownBuilder.WriteString("## Records\n\n")
	markdownBuilder.WriteString("| Kind | Section | Container | Message |\n")
	markdownBuilder.WriteString("|------|---------|-----------|--------|\n")
	for _, diagnostic := range d {
		markdownBuilder.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			diagnostic.Kind, diagnostic.Section, diagnostic.Container, diagnostic.Message))
	}

	return markdownBuilder.String()
}
