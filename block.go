package quillhtml

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// indentUnit is written once per open tag in front of every output line.
const indentUnit = "  "

// newlineRuns splits paragraph content into parts.
var newlineRuns = regexp.MustCompile(`\n+`)

// blockKind selects how a block is resolved.
type blockKind int

const (
	blockParagraph blockKind = iota
	blockHeader
	blockList
)

// block is a resolved block target: the kind, its tag and its inline style.
type block struct {
	kind  blockKind
	tag   string // h1..h6 for headers, ol/ul for lists, p otherwise
	style string // CSS declarations, "" when none
}

// openTag identifies an open element on the stack. Two entries are the same
// element only when both the tag name and the style match.
type openTag struct {
	tag   string
	style string
}

// blockWriter owns the open-tag stack and the output buffer of one conversion.
type blockWriter struct {
	sb    strings.Builder
	stack []openTag
}

// ToHTML converts a delta into nested block HTML in a single forward pass.
//
// Newline inserts end the current block and their attributes select the
// block type. Text containing newlines is split so that each line becomes
// its own block. Consecutive list items of the same type share one list
// container. ToHTML is safe for concurrent use: all state is local to the call.
func ToHTML(delta Delta) (string, error) {
	w := &blockWriter{}
	var run []Op

	for _, op := range delta {
		switch {
		case op.Insert == nil:
			if err := w.writeBlock(run, Attributes{}); err != nil {
				return "", err
			}
			w.closeAll()
			run = nil

		case op.IsText() && op.Insert.Text == "\n":
			if err := w.writeBlock(run, op.Attributes); err != nil {
				return "", err
			}
			run = nil

		case op.IsText() && strings.Contains(op.Insert.Text, "\n"):
			lines := strings.Split(op.Insert.Text, "\n")
			// Every segment keeps the insert's inline formatting.
			run = appendSegment(run, lines[0], op.Attributes)
			if err := w.writeBlock(run, Attributes{}); err != nil {
				return "", err
			}
			for _, line := range lines[1 : len(lines)-1] {
				if line == "" {
					continue
				}
				if err := w.writeBlock([]Op{Text(line, op.Attributes)}, Attributes{}); err != nil {
					return "", err
				}
			}
			run = appendSegment(nil, lines[len(lines)-1], op.Attributes)

		default:
			run = append(run, op)
		}
	}

	if len(run) > 0 {
		if err := w.writeBlock(run, Attributes{}); err != nil {
			return "", err
		}
	}
	w.closeAll()

	return w.sb.String(), nil
}

// appendSegment appends a line segment of a split insert to run, keeping
// the insert's inline formatting. Empty segments render nothing and are dropped.
func appendSegment(run []Op, segment string, attrs Attributes) []Op {
	if segment == "" {
		return run
	}
	return append(run, Text(segment, attrs))
}

// resolveBlock maps newline attributes to a block target.
func resolveBlock(attrs Attributes) (block, error) {
	style, err := alignStyle(attrs.Align)
	if err != nil {
		return block{}, err
	}

	switch {
	case attrs.Header != 0:
		if attrs.Header < 1 || attrs.Header > 6 {
			return block{}, fmt.Errorf("%w: %d (must be between 1 and 6)", ErrInvalidHeader, attrs.Header)
		}
		return block{kind: blockHeader, tag: fmt.Sprintf("h%d", attrs.Header), style: style}, nil
	case attrs.List != "":
		tag := "ul"
		if attrs.List == ListOrdered {
			tag = "ol"
		}
		return block{kind: blockList, tag: tag, style: style}, nil
	default:
		return block{kind: blockParagraph, tag: "p", style: style}, nil
	}
}

// alignStyle returns the text-align declaration for align, or "" when unset.
func alignStyle(align string) (string, error) {
	switch align {
	case "":
		return "", nil
	case AlignLeft, AlignRight, AlignCenter, AlignJustify:
		return "text-align:" + align, nil
	default:
		return "", fmt.Errorf("%w: %q (must be left, right, center, or justify)", ErrInvalidAlign, align)
	}
}

// writeBlock resolves the block described by attrs and writes run into it.
func (w *blockWriter) writeBlock(run []Op, attrs Attributes) error {
	b, err := resolveBlock(attrs)
	if err != nil {
		return err
	}

	switch b.kind {
	case blockHeader:
		w.closeAll()
		content := RenderInline(run)
		if strings.Contains(content, "\n") {
			return fmt.Errorf("%w: newline in %s content", ErrInvariantViolation, b.tag)
		}
		w.element(b.tag, content, b.style)

	case blockList:
		container := openTag{tag: b.tag}
		w.closeUntil(func(t openTag) bool { return t == container })
		if len(w.stack) == 0 {
			w.open(container.tag, "")
		}
		inner := &blockWriter{}
		if err := inner.writeBlock(run, Attributes{}); err != nil {
			return err
		}
		w.element("li", inner.sb.String(), b.style)

	default:
		w.closeUntil(func(t openTag) bool { return t.tag == "p" })
		w.paragraphs(RenderInline(run), b.style)
	}
	return nil
}

// paragraphs writes one p element per line of content. Only the last
// paragraph carries the block style. Blank content writes nothing.
func (w *blockWriter) paragraphs(content, style string) {
	var parts []string
	for _, part := range newlineRuns.Split(strings.TrimSpace(content), -1) {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return
	}

	last := len(parts) - 1
	for _, part := range parts[:last] {
		w.element("p", part, "")
	}
	w.element("p", parts[last], style)
}

// element writes a complete element: open tag, indented content, close tag.
func (w *blockWriter) element(tag, content, style string) {
	w.open(tag, style)
	ws := strings.Repeat(indentUnit, len(w.stack))
	w.sb.WriteString(ws)
	w.sb.WriteString(strings.ReplaceAll(strings.TrimSpace(content), "\n", "\n"+ws))
	w.sb.WriteByte('\n')
	w.closeTop()
}

// open writes an opening tag at the current depth and pushes it.
func (w *blockWriter) open(tag, style string) {
	w.sb.WriteString(strings.Repeat(indentUnit, len(w.stack)))
	w.sb.WriteString("<" + tag)
	if style != "" {
		w.sb.WriteString(` style="` + html.EscapeString(style) + `"`)
	}
	w.sb.WriteString(">\n")
	w.stack = append(w.stack, openTag{tag: tag, style: style})
}

// closeTop pops the innermost tag and writes its closing tag.
func (w *blockWriter) closeTop() {
	top := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	w.sb.WriteString(strings.Repeat(indentUnit, len(w.stack)))
	w.sb.WriteString("</" + top.tag + ">\n")
}

// closeUntil pops tags until keep matches the innermost one or the stack is empty.
func (w *blockWriter) closeUntil(keep func(openTag) bool) {
	for len(w.stack) > 0 && !keep(w.stack[len(w.stack)-1]) {
		w.closeTop()
	}
}

// closeAll pops every open tag.
func (w *blockWriter) closeAll() {
	w.closeUntil(func(openTag) bool { return false })
}
