package hierarchy

import (
	"github.com/coolbeans/lexstruct/pkg/outline"
	"github.com/coolbeans/lexstruct/pkg/pattern"
	"github.com/coolbeans/lexstruct/pkg/secnum"
)

// Engine runs the full reconstruction pipeline. It holds no mutable
// state beyond its configured pattern set: reconstructions of different
// documents are independent and may run concurrently on one Engine.
type Engine struct {
	parser *outline.Parser
}

// NewEngine creates an Engine using the given outline pattern set. A nil
// pattern selects the built-in default.
func NewEngine(outlinePattern *pattern.OutlinePattern) *Engine {
	return &Engine{parser: outline.NewParser(outlinePattern)}
}

// Reconstruct builds the Part/Chapter/Section tree for one document from
// its raw outline text and flat extracted sections.
//
// Reconstruction is attempted unconditionally: when the outline yields no
// boundary records, meaning the document exposes no structural hint, the result
// is a single flat container holding every section in order, with a
// diagnostic noting that no boundaries were found. Callers must treat
// that as a valid, non-error result. Reconstruct never returns an error:
// every anomaly in the noisy inputs becomes a diagnostic on the Result.
func (engine *Engine) Reconstruct(outlineText string, sections []Section) *Result {
	boundaries := engine.parser.Parse(outlineText)

	if len(boundaries) == 0 {
		return engine.reconstructFlat(sections)
	}

	var diagnostics Diagnostics

	parts, resolveDiagnostics := Resolve(boundaries, maxIdentifier(sections))
	diagnostics = append(diagnostics, resolveDiagnostics...)

	routed, routeDiagnostics := Route(parts, sections)
	diagnostics = append(diagnostics, routeDiagnostics...)

	tree, assembleDiagnostics := Assemble(parts, routed)
	diagnostics = append(diagnostics, assembleDiagnostics...)

	completeness := Verify(tree, sections)
	if !completeness.Clean() {
		diagnostics.add(DiagnosticCompleteness, "", "",
			"tree accounts for %d of %d input numbers (%d missing, %d duplicated)",
			completeness.TreeCount, completeness.InputCount,
			len(completeness.Missing), len(completeness.Duplicates))
	}

	return &Result{
		Tree:         tree,
		Diagnostics:  diagnostics,
		Completeness: completeness,
	}
}

// reconstructFlat is the fallback for documents with no usable outline:
// one flat container, sections deduplicated and sorted.
func (engine *Engine) reconstructFlat(sections []Section) *Result {
	var diagnostics Diagnostics
	diagnostics.add(DiagnosticNoBoundaries, "", FallbackLabel,
		"no boundaries found in outline; returning flat grouping")

	deduplicated := dedupeInput(sections, &diagnostics)
	flat := finishSectionList(deduplicated, FallbackLabel, &diagnostics)

	tree := []*Node{{Label: FallbackLabel, Sections: flat}}

	return &Result{
		Tree:         tree,
		Diagnostics:  diagnostics,
		Completeness: Verify(tree, sections),
	}
}

// Reconstruct runs the pipeline with the built-in default pattern set.
func Reconstruct(outlineText string, sections []Section) *Result {
	return NewEngine(nil).Reconstruct(outlineText, sections)
}

// maxIdentifier returns the largest parseable section identifier in the
// input, the upper bound for the final open interval.
func maxIdentifier(sections []Section) secnum.Number {
	var maximum secnum.Number
	for _, section := range sections {
		identifier, err := secnum.Parse(section.Number)
		if err != nil {
			continue
		}
		maximum = secnum.Max(maximum, identifier)
	}
	return maximum
}
