// Package outline parses the auxiliary plain-text outline embedded in
// rendered legislation pages into an ordered sequence of boundary records.
//
// The outline is the only reliable source of the document's Part/Chapter
// structure: the visible markup exposes section content but not which
// container a section belongs to. The text itself is loosely structured,
// header lines ("PART I", "CHAPTER IV") interleaved with section-number
// lines, so the parser is a small explicit state machine over lines
// rather than a grammar.
package outline

import (
	"bufio"
	"strings"

	"github.com/coolbeans/lexstruct/pkg/pattern"
	"github.com/coolbeans/lexstruct/pkg/secnum"
)

// Boundary is one declared container and the section-number range it
// claims, in outline order. Boundaries are immutable once parsed; the
// hierarchy resolver consumes them.
type Boundary struct {
	// Path names the container from the top: ["PART I"] for a part,
	// ["PART I", "CHAPTER IV"] for a chapter nested under it.
	Path []string

	// Start and End are the first and last section numbers declared
	// between this header and the next, in section-number order.
	Start secnum.Number
	End   secnum.Number

	// Open marks the last boundary at its nesting depth: its declared
	// end is advisory and the resolver extends it so trailing sections
	// are never orphaned.
	Open bool

	// ZeroWidth marks a header with no section tokens of its own (for
	// example a part that only holds chapters). The container must
	// still exist in the output even if no sections route to it
	// directly; Start and End anchor at the next known identifier.
	ZeroWidth bool
}

// Label returns the container's own label, the last element of Path.
func (b Boundary) Label() string {
	if len(b.Path) == 0 {
		return ""
	}
	return b.Path[len(b.Path)-1]
}

// IsChapter reports whether the boundary names a chapter nested under a
// part.
func (b Boundary) IsChapter() bool {
	return len(b.Path) == 2
}

// Parser scans outline text using a compiled header pattern set.
type Parser struct {
	outlinePattern *pattern.OutlinePattern
}

// NewParser creates a Parser. A nil pattern set selects the built-in
// default.
func NewParser(outlinePattern *pattern.OutlinePattern) *Parser {
	if outlinePattern == nil {
		outlinePattern = pattern.Default()
	}
	return &Parser{outlinePattern: outlinePattern}
}

// pendingBoundary accumulates section tokens for the most recent header
// until the next header closes it.
type pendingBoundary struct {
	path    []string
	numbers []secnum.Number
}

// Parse scans the outline text and returns the boundary records in
// outline order. An outline with no recognizable headers returns an empty
// slice, never an error, and callers fall back to non-hierarchical
// grouping.
//
// Scanning keeps two pieces of state: the current part and the current
// open boundary. A chapter header nests under the most recent part
// header; a chapter seen before any part is treated as a top-level
// container. A header repeating a label already seen at the same nesting
// depth is noise from malformed outlines and is ignored after its first
// occurrence.
func (p *Parser) Parse(outlineText string) []Boundary {
	var boundaries []Boundary
	var current *pendingBoundary
	var currentPart string

	seenParts := make(map[string]bool)
	seenChapters := make(map[string]bool) // keyed by part label + chapter label

	closeCurrent := func() {
		if current == nil {
			return
		}
		boundaries = append(boundaries, finishBoundary(current))
		current = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(outlineText))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if level, label, matched := p.outlinePattern.MatchHeader(line); matched {
			switch level {
			case pattern.LevelPart:
				if seenParts[label] {
					continue
				}
				seenParts[label] = true
				closeCurrent()
				currentPart = label
				current = &pendingBoundary{path: []string{label}}

			case pattern.LevelChapter:
				chapterKey := currentPart + "\x00" + label
				if seenChapters[chapterKey] {
					continue
				}
				seenChapters[chapterKey] = true
				closeCurrent()
				path := []string{label}
				if currentPart != "" {
					path = []string{currentPart, label}
				}
				current = &pendingBoundary{path: path}
			}
			continue
		}

		if current == nil {
			// Preamble lines before the first header carry no
			// structural information.
			continue
		}

		if number, ok := p.sectionNumberOf(line); ok {
			current.numbers = append(current.numbers, number)
		}
	}
	closeCurrent()

	markOpenBoundaries(boundaries)
	anchorZeroWidth(boundaries)

	return boundaries
}

// sectionNumberOf extracts a section number from an outline line. Only
// the line's leading token is considered: outline entries are written as
// "14A. Interpretation", so an integer-leading first token is the section
// number and anything later on the line is title text.
func (p *Parser) sectionNumberOf(line string) (secnum.Number, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return secnum.Number{}, false
	}

	raw, ok := p.outlinePattern.MatchSectionToken(fields[0])
	if !ok {
		return secnum.Number{}, false
	}

	number, err := secnum.Parse(raw)
	if err != nil {
		return secnum.Number{}, false
	}
	return number, true
}

// finishBoundary converts an accumulated pending boundary into its record.
// The declared range is the min and max of the collected tokens in
// section-number order; a header with no tokens becomes a zero-width
// boundary anchored later by anchorZeroWidth.
func finishBoundary(pending *pendingBoundary) Boundary {
	boundary := Boundary{Path: pending.path}

	if len(pending.numbers) == 0 {
		boundary.ZeroWidth = true
		return boundary
	}

	boundary.Start = pending.numbers[0]
	boundary.End = pending.numbers[0]
	for _, number := range pending.numbers[1:] {
		boundary.Start = secnum.Min(boundary.Start, number)
		boundary.End = secnum.Max(boundary.End, number)
	}
	return boundary
}

// markOpenBoundaries flags the last boundary at each nesting depth. The
// last part's declared end, and the last chapter's within each part,
// is advisory: content numbered past it belongs to that container, not
// to an error bucket.
func markOpenBoundaries(boundaries []Boundary) {
	lastTopLevel := -1
	lastChapterByPart := make(map[string]int)

	for i, boundary := range boundaries {
		if boundary.IsChapter() {
			lastChapterByPart[boundary.Path[0]] = i
		} else {
			lastTopLevel = i
		}
	}

	if lastTopLevel >= 0 {
		boundaries[lastTopLevel].Open = true
	}
	for _, i := range lastChapterByPart {
		boundaries[i].Open = true
	}
}

// anchorZeroWidth assigns each zero-width boundary the next boundary's
// start as its anchor point, so resolution can place the empty container
// between its siblings. A zero-width boundary with no successor keeps the
// zero value and stays empty.
func anchorZeroWidth(boundaries []Boundary) {
	for i := range boundaries {
		if !boundaries[i].ZeroWidth {
			continue
		}
		for k := i + 1; k < len(boundaries); k++ {
			if !boundaries[k].ZeroWidth {
				boundaries[i].Start = boundaries[k].Start
				boundaries[i].End = boundaries[k].Start
				break
			}
		}
	}
}
