package digest

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in upstream titles and summaries is dropped, not passed through.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(gmhtml.WithHardWraps(), gmhtml.WithXHTML()),
)

// RenderHTML renders d as an HTML fragment headed by its title.
func RenderHTML(d Data) (string, error) {
	body, err := renderBody(d)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<article>\n<h1>%s</h1>\n", html.EscapeString(d.Title))
	if d.Summary != "" {
		fmt.Fprintf(&buf, "<p class=\"summary\">%s</p>\n", html.EscapeString(d.Summary))
	}
	if err := markdown.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("digest: html: %w", err)
	}
	buf.WriteString("</article>\n")
	return buf.String(), nil
}
