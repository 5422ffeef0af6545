package hierarchy

import (
	"sort"
	"strings"

	"github.com/coolbeans/lexstruct/pkg/outline"
	"github.com/coolbeans/lexstruct/pkg/secnum"
)

// Interval is one container's resolved claim: a closed section-number
// range, non-overlapping with its siblings. Chapters nest under their
// part's interval.
type Interval struct {
	Label     string
	Path      []string
	Start     secnum.Number
	End       secnum.Number
	Open      bool
	ZeroWidth bool
	Extended  bool
	Order     int
	Children  []*Interval
}

// pathKey renders a container path as a map key.
func pathKey(path []string) string {
	return strings.Join(path, "\x00")
}

// Resolve converts the raw boundary sequence into a tree of
// non-overlapping closed intervals. maxInput is the largest section
// identifier present anywhere in the input set; the last open interval at
// the top level extends to it so trailing content is never orphaned.
//
// Boundary metadata is advisory and noisy. Resolution is deterministic
// and never fails: an overlap clamps the earlier interval to end just
// before its successor's start and records a conflict diagnostic; gaps
// between siblings (repealed section numbers) are preserved as-is; every
// declared container survives even when its resolved range is empty.
func Resolve(boundaries []outline.Boundary, maxInput secnum.Number) ([]*Interval, Diagnostics) {
	var diagnostics Diagnostics

	parts := buildIntervalTree(boundaries)

	// A part whose header had no section tokens of its own takes the
	// union of its chapters' declared ranges, so top-level resolution
	// sees its real extent.
	for _, part := range parts {
		absorbChildRanges(part)
	}

	resolveSiblings(parts, maxInput, &diagnostics)

	// Chapters resolve within their part's now-final interval: the last
	// open chapter extends to the part's end, not to the whole document.
	for _, part := range parts {
		if len(part.Children) == 0 {
			continue
		}
		resolveSiblings(part.Children, part.End, &diagnostics)
	}

	return parts, diagnostics
}

// buildIntervalTree groups boundaries into top-level intervals with
// chapter children, preserving outline order.
func buildIntervalTree(boundaries []outline.Boundary) []*Interval {
	var parts []*Interval
	partByLabel := make(map[string]*Interval)

	for i, boundary := range boundaries {
		interval := &Interval{
			Label:     boundary.Label(),
			Path:      boundary.Path,
			Start:     boundary.Start,
			End:       boundary.End,
			Open:      boundary.Open,
			ZeroWidth: boundary.ZeroWidth,
			Order:     i,
		}

		if boundary.IsChapter() {
			parent, ok := partByLabel[boundary.Path[0]]
			if !ok {
				// The parser emits a part before its chapters;
				// a chapter without its parent cannot occur
				// from Parse output, but tolerate it as a
				// top-level container rather than dropping it.
				interval.Path = []string{interval.Label}
				parts = append(parts, interval)
				continue
			}
			parent.Children = append(parent.Children, interval)
			continue
		}

		parts = append(parts, interval)
		partByLabel[interval.Label] = interval
	}

	return parts
}

// absorbChildRanges widens a part's interval to cover its chapters'
// declared ranges. A zero-width part with chapters becomes a real
// interval spanning them.
func absorbChildRanges(part *Interval) {
	for _, chapter := range part.Children {
		if chapter.ZeroWidth {
			continue
		}
		if part.ZeroWidth {
			part.Start = chapter.Start
			part.End = chapter.End
			part.ZeroWidth = false
			continue
		}
		part.Start = secnum.Min(part.Start, chapter.Start)
		part.End = secnum.Max(part.End, chapter.End)
	}
}

// resolveSiblings sorts one sibling group by start, clamps overlaps, and
// extends the final interval to scopeEnd. Zero-width intervals keep their
// anchor position but never claim sections, so they are skipped by the
// clamping walk.
func resolveSiblings(siblings []*Interval, scopeEnd secnum.Number, diagnostics *Diagnostics) {
	sort.SliceStable(siblings, func(i, k int) bool {
		if cmp := secnum.Compare(siblings[i].Start, siblings[k].Start); cmp != 0 {
			return cmp < 0
		}
		return siblings[i].Order < siblings[k].Order
	})

	var claiming []*Interval
	for _, sibling := range siblings {
		if !sibling.ZeroWidth {
			claiming = append(claiming, sibling)
		}
	}
	if len(claiming) == 0 {
		return
	}

	for i := 0; i < len(claiming)-1; i++ {
		current, next := claiming[i], claiming[i+1]
		if secnum.Compare(current.End, next.Start) >= 0 {
			clamped := secnum.Prev(next.Start)
			diagnostics.add(DiagnosticBoundaryConflict, "", current.Label,
				"%s declared end %s overlaps %s start %s; clamped to %s",
				current.Label, current.End, next.Label, next.Start, clamped)
			current.End = clamped
			if secnum.Compare(current.End, current.Start) < 0 {
				// Fully swallowed by its successor: keep the
				// container but leave it empty.
				current.End = secnum.Prev(current.Start)
			}
		}
	}

	// Only an interval whose declared end was open gets extended:
	// the parser flags the final boundary at each depth open, so a
	// closed declared range stays authoritative.
	last := claiming[len(claiming)-1]
	if last.Open && secnum.Compare(scopeEnd, last.End) > 0 {
		last.End = scopeEnd
		last.Extended = true
	}
}
