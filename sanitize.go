package quillhtml

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans untrusted HTML before it reaches a conversion backend.
// *bluemonday.Policy satisfies it.
type Sanitizer interface {
	Sanitize(html string) string
}

var _ Sanitizer = (*bluemonday.Policy)(nil)

var alignValue = regexp.MustCompile(`^(left|right|center|justify)$`)

// blockElements are the elements that may carry a text-align style.
var blockElements = []string{"p", "h1", "h2", "h3", "h4", "h5", "h6", "li"}

// NewSanitizer returns a policy that keeps exactly the markup a delta can
// describe: paragraphs, headers, lists, bold, italic, links, images and
// text alignment. Everything else is stripped, keeping its text.
func NewSanitizer() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(blockElements...)
	p.AllowElements("ol", "ul", "br", "strong", "b", "em", "i")
	p.AllowStyles("text-align").Matching(alignValue).OnElements(blockElements...)

	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowDataURIImages()

	return p
}
