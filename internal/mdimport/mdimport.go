// Package mdimport converts CommonMark documents to Quill deltas.
//
// Only what a delta can express survives: paragraphs, headings, ordered
// and bullet lists, bold, italic, links and images. Nested lists are
// flattened, block quotes are unwrapped, and code is kept as plain lines.
package mdimport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/alnah/go-quillhtml"
)

// ErrImport indicates the Markdown source could not be converted.
var ErrImport = errors.New("markdown import failed")

// Importer parses Markdown with goldmark and walks the resulting AST.
type Importer struct {
	md goldmark.Markdown
}

// New creates an Importer. Bare URLs are turned into links.
func New() *Importer {
	return &Importer{
		md: goldmark.New(goldmark.WithExtensions(extension.Linkify)),
	}
}

// Import converts src to a delta.
// Supports context cancellation via goroutine + select pattern since
// goldmark doesn't natively support context.
func (i *Importer) Import(ctx context.Context, src []byte) (quillhtml.Delta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		delta quillhtml.Delta
		err   error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: %v", ErrImport, r)}
			}
		}()
		doc := i.md.Parser().Parse(text.NewReader(src))
		b := &builder{src: src}
		b.blocks(doc)
		done <- result{delta: b.ops}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.delta, r.err
	}
}

// builder accumulates ops while walking the AST.
type builder struct {
	src []byte
	ops quillhtml.Delta
}

// blocks emits every block child of parent.
func (b *builder) blocks(parent ast.Node) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		b.block(n, quillhtml.Attributes{})
	}
}

// block emits one block node. line holds the attributes of the newline
// that ends each line of the block.
func (b *builder) block(n ast.Node, line quillhtml.Attributes) {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		b.inlines(n, quillhtml.Attributes{}, line)
		b.ops = append(b.ops, quillhtml.Line(line))

	case *ast.Heading:
		line.Header = n.Level
		b.inlines(n, quillhtml.Attributes{}, line)
		b.ops = append(b.ops, quillhtml.Line(line))

	case *ast.List:
		kind := quillhtml.ListBullet
		if n.IsOrdered() {
			kind = quillhtml.ListOrdered
		}
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				b.block(c, quillhtml.Attributes{List: kind})
			}
		}

	case *ast.Blockquote:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			b.block(c, line)
		}

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.text(strings.TrimRight(string(seg.Value(b.src)), "\r\n"), quillhtml.Attributes{})
			b.ops = append(b.ops, quillhtml.Line(line))
		}
	}
	// Thematic breaks and raw HTML blocks have no delta form.
}

// inlines emits the inline children of n with attrs applied.
func (b *builder) inlines(n ast.Node, attrs, line quillhtml.Attributes) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		b.inline(c, attrs, line)
	}
}

func (b *builder) inline(n ast.Node, attrs, line quillhtml.Attributes) {
	switch n := n.(type) {
	case *ast.Text:
		b.text(string(n.Segment.Value(b.src)), attrs)
		switch {
		case n.HardLineBreak():
			b.ops = append(b.ops, quillhtml.Line(line))
		case n.SoftLineBreak():
			b.text(" ", attrs)
		}

	case *ast.String:
		b.text(string(n.Value), attrs)

	case *ast.CodeSpan:
		b.inlines(n, attrs, line)

	case *ast.Emphasis:
		if n.Level >= 2 {
			attrs.Bold = true
		} else {
			attrs.Italic = true
		}
		b.inlines(n, attrs, line)

	case *ast.Link:
		attrs.Link = string(n.Destination)
		b.inlines(n, attrs, line)

	case *ast.AutoLink:
		attrs.Link = string(n.URL(b.src))
		b.text(string(n.Label(b.src)), attrs)

	case *ast.Image:
		b.ops = append(b.ops, quillhtml.Image(string(n.Destination)))
	}
}

// text appends s, merging it into the previous op when both are plain
// text runs with the same attributes.
func (b *builder) text(s string, attrs quillhtml.Attributes) {
	if s == "" {
		return
	}
	if last := len(b.ops) - 1; last >= 0 {
		prev := b.ops[last]
		if prev.IsText() && !strings.Contains(prev.Insert.Text, "\n") && prev.Attributes.Equal(attrs) {
			b.ops[last] = quillhtml.Text(prev.Insert.Text+s, attrs)
			return
		}
	}
	b.ops = append(b.ops, quillhtml.Text(s, attrs))
}
