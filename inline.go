package quillhtml

import (
	"html"
	"strings"
)

// attrEscaper escapes attribute values. Newlines are encoded so that
// rendered inline content never contains a literal line break.
var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&#34;",
	"'", "&#39;",
	"\n", "&#10;",
	"\r", "&#13;",
)

// RenderInline renders a run of operations belonging to one block as
// inline HTML. Text is escaped; bold, italic and link attributes wrap it,
// and images become self-closing img elements. Unknown attributes and
// non-image embeds are ignored. An empty run renders as "".
func RenderInline(run []Op) string {
	var sb strings.Builder
	for _, op := range run {
		switch {
		case op.IsText():
			sb.WriteString(renderText(op.Insert.Text, op.Attributes))
		case op.IsImage():
			sb.WriteString(`<img src="` + attrEscaper.Replace(op.Insert.Embed.Image) + `" />`)
		}
	}
	return sb.String()
}

// renderText renders one text insert. Italic is the innermost wrapper.
func renderText(s string, attrs Attributes) string {
	text := html.EscapeString(s)
	if attrs.Italic {
		text = "<em>" + text + "</em>"
	}
	if attrs.Bold {
		text = "<strong>" + text + "</strong>"
	}
	if attrs.Link != "" {
		text = `<a href="` + attrEscaper.Replace(sanitizeURL(attrs.Link)) + `">` + text + "</a>"
	}
	return text
}

// sanitizeURL prefixes http:// to links that carry no scheme.
func sanitizeURL(url string) string {
	if !strings.Contains(url, "://") {
		return "http://" + url
	}
	return url
}
