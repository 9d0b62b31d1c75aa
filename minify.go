package quillhtml

import (
	"github.com/tdewolff/minify/v2"
	minhtml "github.com/tdewolff/minify/v2/html"
)

const htmlMediaType = "text/html"

// htmlMinifier collapses the indented output of ToHTML onto one line.
type htmlMinifier struct {
	m *minify.M
}

func newHTMLMinifier() *htmlMinifier {
	m := minify.New()
	m.Add(htmlMediaType, &minhtml.Minifier{
		KeepEndTags:      true,
		KeepDocumentTags: true,
		KeepQuotes:       true,
	})
	return &htmlMinifier{m: m}
}

// Minify returns the minified form of s.
func (h *htmlMinifier) Minify(s string) (string, error) {
	return h.m.String(htmlMediaType, s)
}
