// Package hierarchy reconstructs the Part/Chapter/Section structure of
// legislation from two inputs: a flat collection of extracted sections and
// the boundary records parsed from the page's auxiliary outline.
//
// The pipeline is a sequence of pure stages: resolve boundaries into
// intervals, route sections into containers, assemble the tree, then
// verify completeness. Each stage takes immutable input and produces
// new output.
// Nothing in the package performs I/O and no stage fails hard: anomalies
// in the noisy source material are reified as diagnostics and the best
// available tree is always returned.
package hierarchy

import (
	"sort"

	"github.com/coolbeans/lexstruct/pkg/secnum"
)

// Synthetic container labels.
const (
	// FallbackLabel names the single flat container returned when the
	// outline yields no boundaries. The scraped source uses the same
	// label for single-part documents.
	FallbackLabel = "MAIN PART"

	// UnassignedLabel names the container collecting sections no
	// declared boundary claims. It is emitted last so operators can
	// review stragglers instead of losing them.
	UnassignedLabel = "UNASSIGNED"
)

// Section is one extracted section record. The engine reads Number for
// routing and carries Heading and Body through unchanged.
type Section struct {
	Number  string `json:"number"`
	Heading string `json:"heading,omitempty"`
	Body    string `json:"body,omitempty"`
}

// richness orders two records for dedup purposes: the record with more
// content wins.
func (s Section) richness() int {
	return len(s.Heading) + len(s.Body)
}

// Node is one container in the assembled tree: a Part, a Chapter, or a
// synthetic container. A Part with Chapters holds its Chapters in
// Children; Sections directly on such a node are gap sections that no
// Chapter claimed. Nodes are immutable once returned.
type Node struct {
	Label    string    `json:"label"`
	Children []*Node   `json:"children,omitempty"`
	Sections []Section `json:"sections,omitempty"`
}

// CountSections returns the number of sections in the subtree.
func (n *Node) CountSections() int {
	count := len(n.Sections)
	for _, child := range n.Children {
		count += child.CountSections()
	}
	return count
}

// Flatten returns every section in the tree in depth-first order,
// discarding containers. Feeding the flattened output back through the
// pipeline with the same outline reproduces the tree.
func Flatten(tree []*Node) []Section {
	var sections []Section
	var walk func(node *Node)
	walk = func(node *Node) {
		sections = append(sections, node.Sections...)
		for _, child := range node.Children {
			walk(child)
		}
	}
	for _, node := range tree {
		walk(node)
	}
	return sections
}

// Result is the engine's output: the assembled tree, every diagnostic
// raised along the way, and the completeness cross-check.
type Result struct {
	Tree         []*Node            `json:"tree"`
	Diagnostics  Diagnostics        `json:"diagnostics,omitempty"`
	Completeness CompletenessReport `json:"completeness"`
}

// sortSections orders sections ascending by section-number order.
// Records whose numbers do not parse (possible only in the UNASSIGNED
// container) sort after all parseable numbers, by raw string.
func sortSections(sections []Section) {
	sort.SliceStable(sections, func(i, k int) bool {
		a, aErr := secnum.Parse(sections[i].Number)
		b, bErr := secnum.Parse(sections[k].Number)
		switch {
		case aErr == nil && bErr == nil:
			return a.Less(b)
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return sections[i].Number < sections[k].Number
		}
	})
}

// canonicalNumber normalizes a raw number string for set comparison:
// parseable numbers compare by their canonical rendering ("05" and "5"
// are the same section), unparseable ones by their raw string.
func canonicalNumber(raw string) string {
	if number, err := secnum.Parse(raw); err == nil {
		return number.String()
	}
	return raw
}
