// Package htmldoc extracts section records and the auxiliary outline text
// from rendered legislation HTML.
//
// The rendered markup does not reliably expose the document's hierarchy:
// section numbers appear as bold headings in presentation tables, and the
// authoritative structural outline travels in a hidden form field as plain
// text. This package pulls both out and hands them to the reconstruction
// engine; it makes no structural decisions itself.
package htmldoc

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/coolbeans/lexstruct/pkg/hierarchy"
	"github.com/coolbeans/lexstruct/pkg/pattern"
)

// Document is the extraction result for one rendered page.
type Document struct {
	// Title is the page title, empty when the page has none.
	Title string

	// OutlineText is the hidden outline field's plain text, empty when
	// the page exposes no outline. Callers pass it to the engine as-is;
	// an empty outline triggers the engine's flat fallback.
	OutlineText string

	// Sections are the extracted section records in page order.
	Sections []hierarchy.Section
}

// Extractor walks rendered legislation HTML. The outline pattern set is
// used only to recognize which hidden field holds the outline; a nil
// pattern selects the built-in default.
type Extractor struct {
	outlinePattern *pattern.OutlinePattern
}

// NewExtractor creates an Extractor.
func NewExtractor(outlinePattern *pattern.OutlinePattern) *Extractor {
	if outlinePattern == nil {
		outlinePattern = pattern.Default()
	}
	return &Extractor{outlinePattern: outlinePattern}
}

// sectionHeadingPattern matches a section heading's text: a section
// number, a period, and the heading title.
var sectionHeadingPattern = regexp.MustCompile(`^(\d+[A-Za-z]{0,3})\.\s*(.*)$`)

// Extract parses the page and returns its title, outline text and
// section records. Extraction is best effort: a page with no outline or
// no recognizable sections yields an empty field rather than an error;
// only malformed input that the HTML parser itself rejects fails.
func (extractor *Extractor) Extract(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	document := &Document{
		Title:       findTitle(root),
		OutlineText: extractor.findOutlineText(root),
	}
	document.Sections = extractSections(root)

	return document, nil
}

// findTitle returns the text of the first <title> element.
func findTitle(root *html.Node) string {
	var title string
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if title != "" {
			return
		}
		if node.Type == html.ElementNode && node.Data == "title" {
			title = strings.TrimSpace(textContent(node))
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return title
}

// findOutlineText locates the hidden field carrying the outline. Pages
// embed it as a hidden <input> value or a hidden <textarea>; field names
// vary across site revisions, so instead of hardcoding them the extractor
// scores every candidate by how many outline header lines it contains and
// picks the best. Zero headers anywhere means the page has no outline.
func (extractor *Extractor) findOutlineText(root *html.Node) string {
	bestScore := 0
	bestText := ""

	consider := func(text string) {
		score := extractor.scoreOutline(text)
		if score > bestScore {
			bestScore = score
			bestText = text
		}
	}

	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch node.Data {
			case "input":
				if attr(node, "type") == "hidden" {
					consider(attr(node, "value"))
				}
			case "textarea":
				consider(textContent(node))
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	if bestScore == 0 {
		return ""
	}
	return bestText
}

// scoreOutline counts outline header lines in a candidate text.
func (extractor *Extractor) scoreOutline(text string) int {
	score := 0
	for _, line := range strings.Split(text, "\n") {
		if _, _, matched := extractor.outlinePattern.MatchHeader(strings.TrimSpace(line)); matched {
			score++
		}
	}
	return score
}

// extractSections scans the page body for section headings and collects
// the text between consecutive headings as each section's body. A
// heading is a <b>, <strong> or heading element whose text starts with a
// section number followed by a period.
func extractSections(root *html.Node) []hierarchy.Section {
	var sections []hierarchy.Section
	var current *hierarchy.Section
	var bodyBuilder strings.Builder

	flush := func() {
		if current == nil {
			return
		}
		current.Body = strings.TrimSpace(bodyBuilder.String())
		sections = append(sections, *current)
		current = nil
		bodyBuilder.Reset()
	}

	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch node.Data {
			case "script", "style", "head", "input", "textarea":
				return
			case "b", "strong", "h1", "h2", "h3", "h4", "h5", "h6":
				headingText := strings.TrimSpace(textContent(node))
				if match := sectionHeadingPattern.FindStringSubmatch(headingText); match != nil {
					flush()
					current = &hierarchy.Section{
						Number:  match[1],
						Heading: strings.TrimSpace(match[2]),
					}
					return
				}
			}
		}

		if node.Type == html.TextNode && current != nil {
			text := strings.TrimSpace(node.Data)
			if text != "" {
				if bodyBuilder.Len() > 0 {
					bodyBuilder.WriteString(" ")
				}
				bodyBuilder.WriteString(text)
			}
		}

		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	flush()

	return sections
}

// attr returns the value of the named attribute, empty when absent.
func attr(node *html.Node, name string) string {
	for _, attribute := range node.Attr {
		if attribute.Key == name {
			return attribute.Val
		}
	}
	return ""
}

// textContent concatenates all text nodes under a node.
func textContent(node *html.Node) string {
	var textBuilder strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			textBuilder.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)
	return textBuilder.String()
}
