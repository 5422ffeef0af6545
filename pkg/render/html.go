package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"

	"github.com/coolbeans/lexstruct/pkg/library"
)

// htmlPage wraps the converted document body in a minimal standalone page.
var htmlPage = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Georgia, serif; max-width: 50em; margin: 2em auto; padding: 0 1em; line-height: 1.5; }
h1 { border-bottom: 2px solid #333; padding-bottom: 0.3em; }
h2 { margin-top: 2em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #999; padding: 0.2em 0.6em; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// ToHTML renders the document as a standalone HTML page by converting
// its Markdown form with goldmark.
func ToHTML(document *library.Document) ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(ToMarkdown(document)), &body); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}

	title := document.Title
	if title == "" {
		title = document.ID
	}

	var page bytes.Buffer
	err := htmlPage.Execute(&page, struct {
		Title string
		Body  template.HTML
	}{
		Title: title,
		// goldmark's output is generated from our own Markdown, not
		// arbitrary user HTML, so embedding it unescaped is safe here.
		Body: template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering page template: %w", err)
	}

	return page.Bytes(), nil
}
