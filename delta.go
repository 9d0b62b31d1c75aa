package quillhtml

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// List type constants.
const (
	ListOrdered = "ordered"
	ListBullet  = "bullet"
)

// Alignment constants.
const (
	AlignLeft    = "left"
	AlignRight   = "right"
	AlignCenter  = "center"
	AlignJustify = "justify"
)

// Delta is an ordered sequence of operations describing a document.
// Order is significant; blocks are derived by scanning for newlines.
type Delta []Op

// Op is a single delta operation.
// An Op with a nil Insert is a terminator: it closes every open block.
type Op struct {
	Insert     *Insert
	Attributes Attributes
}

// Insert holds the content of an insert operation: either text or an embed.
type Insert struct {
	Text  string
	Embed *Embed // nil for text inserts
}

// Embed is a structured insert. Only images are rendered.
type Embed struct {
	Image string
	Extra map[string]json.RawMessage // other embed kinds, kept for round-trips
}

// Attributes holds the formatting attached to an operation.
// On a newline insert they describe the block the newline terminates.
// Zero values mean "not set": Header 0, Link "", List "", Align "".
type Attributes struct {
	Bold   bool
	Italic bool
	Link   string
	Header int
	List   string
	Align  string
	Extra  map[string]json.RawMessage // unrecognized keys, ignored by rendering
}

// Text returns a text insert operation.
func Text(s string, attrs ...Attributes) Op {
	op := Op{Insert: &Insert{Text: s}}
	if len(attrs) > 0 {
		op.Attributes = attrs[0]
	}
	return op
}

// Line returns a newline insert carrying block attributes.
func Line(attrs ...Attributes) Op {
	return Text("\n", attrs...)
}

// Image returns an image embed operation.
func Image(src string, attrs ...Attributes) Op {
	op := Op{Insert: &Insert{Embed: &Embed{Image: src}}}
	if len(attrs) > 0 {
		op.Attributes = attrs[0]
	}
	return op
}

// End returns an operation without insert, which closes all open blocks.
func End() Op {
	return Op{}
}

// IsText reports whether op inserts text.
func (o Op) IsText() bool {
	return o.Insert != nil && o.Insert.Embed == nil
}

// IsImage reports whether op inserts an image.
func (o Op) IsImage() bool {
	return o.Insert != nil && o.Insert.Embed != nil && o.Insert.Embed.Image != ""
}

// IsEmpty reports whether no attribute is set.
func (a Attributes) IsEmpty() bool {
	return !a.Bold && !a.Italic && a.Link == "" && a.Header == 0 &&
		a.List == "" && a.Align == "" && len(a.Extra) == 0
}

// Equal reports whether a and b carry the same formatting.
func (a Attributes) Equal(b Attributes) bool {
	if a.Bold != b.Bold || a.Italic != b.Italic || a.Link != b.Link ||
		a.Header != b.Header || a.List != b.List || a.Align != b.Align {
		return false
	}
	return maps.EqualFunc(a.Extra, b.Extra, func(x, y json.RawMessage) bool {
		return bytes.Equal(x, y)
	})
}

// Document is the JSON envelope of a delta: {"ops": [...]}.
type Document struct {
	Ops Delta `json:"ops"`
}

// MarshalJSON always emits an ops array, never null.
func (d Document) MarshalJSON() ([]byte, error) {
	ops := d.Ops
	if ops == nil {
		ops = Delta{}
	}
	return json.Marshal(struct {
		Ops []Op `json:"ops"`
	}{Ops: ops})
}

// ParseDocument decodes a delta from JSON.
// Both the {"ops": [...]} envelope and a bare operation array are accepted.
func ParseDocument(data []byte) (*Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidDelta)
	}

	if data[0] == '[' {
		var ops Delta
		if err := json.Unmarshal(data, &ops); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDelta, err)
		}
		return &Document{Ops: ops}, nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDelta, err)
	}
	return &doc, nil
}

// MarshalJSON encodes the operation in Quill's wire format.
func (o Op) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 2)
	if o.Insert != nil {
		out["insert"] = o.Insert
	}
	if !o.Attributes.IsEmpty() {
		out["attributes"] = o.Attributes
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an operation. Keys other than insert and
// attributes (retain, delete) are ignored.
func (o *Op) UnmarshalJSON(data []byte) error {
	var raw struct {
		Insert     json.RawMessage `json:"insert"`
		Attributes *Attributes     `json:"attributes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*o = Op{}
	if len(raw.Insert) > 0 && !bytes.Equal(raw.Insert, []byte("null")) {
		var ins Insert
		if err := json.Unmarshal(raw.Insert, &ins); err != nil {
			return err
		}
		o.Insert = &ins
	}
	if raw.Attributes != nil {
		o.Attributes = *raw.Attributes
	}
	return nil
}

// MarshalJSON encodes text as a JSON string and embeds as an object.
func (i Insert) MarshalJSON() ([]byte, error) {
	if i.Embed == nil {
		return json.Marshal(i.Text)
	}
	out := make(map[string]any, len(i.Embed.Extra)+1)
	for k, v := range i.Embed.Extra {
		out[k] = v
	}
	if i.Embed.Image != "" {
		out["image"] = i.Embed.Image
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts a string or an embed object.
func (i *Insert) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		*i = Insert{}
		return json.Unmarshal(data, &i.Text)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("insert must be a string or an object: %w", err)
	}

	embed := &Embed{}
	if v, ok := fields["image"]; ok {
		if err := json.Unmarshal(v, &embed.Image); err != nil {
			return fmt.Errorf("image: %w", err)
		}
		delete(fields, "image")
	}
	if len(fields) > 0 {
		embed.Extra = fields
	}
	*i = Insert{Embed: embed}
	return nil
}

// MarshalJSON writes set attributes only, plus any unrecognized keys.
func (a Attributes) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.Extra)+6)
	for k, v := range a.Extra {
		out[k] = v
	}
	if a.Bold {
		out["bold"] = true
	}
	if a.Italic {
		out["italic"] = true
	}
	if a.Link != "" {
		out["link"] = a.Link
	}
	if a.Header != 0 {
		out["header"] = a.Header
	}
	if a.List != "" {
		out["list"] = a.List
	}
	if a.Align != "" {
		out["align"] = a.Align
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes recognized keys and keeps the rest in Extra.
// A null value is treated as unset.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*a = Attributes{}
	known := map[string]any{
		"bold":   &a.Bold,
		"italic": &a.Italic,
		"link":   &a.Link,
		"header": &a.Header,
		"list":   &a.List,
		"align":  &a.Align,
	}

	// Sorted for deterministic error messages.
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		value := fields[key]
		dst, ok := known[key]
		if !ok {
			if a.Extra == nil {
				a.Extra = make(map[string]json.RawMessage)
			}
			a.Extra[key] = value
			continue
		}
		if bytes.Equal(value, []byte("null")) {
			continue
		}
		if err := json.Unmarshal(value, dst); err != nil {
			return fmt.Errorf("attribute %q: %w", key, err)
		}
	}
	return nil
}
