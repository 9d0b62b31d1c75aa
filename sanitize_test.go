package quillhtml

import (
	"strings"
	"testing"
)

func TestNewSanitizer(t *testing.T) {
	t.Parallel()

	p := NewSanitizer()

	tests := []struct {
		name    string
		in      string
		want    []string
		notWant []string
	}{
		{
			name: "keeps delta markup",
			in:   `<h2>T</h2><p><strong>b</strong><em>i</em></p><ol><li>x</li></ol><ul><li>y</li></ul>`,
			want: []string{"<h2>T</h2>", "<strong>b</strong>", "<em>i</em>", "<ol><li>x</li></ol>", "<ul><li>y</li></ul>"},
		},
		{
			name:    "drops scripts",
			in:      `<p>ok</p><script>alert(1)</script>`,
			want:    []string{"<p>ok</p>"},
			notWant: []string{"script", "alert"},
		},
		{
			name:    "drops event handlers",
			in:      `<p onclick="evil()">x</p>`,
			want:    []string{"<p>x</p>"},
			notWant: []string{"onclick"},
		},
		{
			name:    "drops javascript links",
			in:      `<a href="javascript:alert(1)">x</a>`,
			notWant: []string{"javascript"},
		},
		{
			name: "keeps http links",
			in:   `<a href="https://example.com">x</a>`,
			want: []string{`href="https://example.com"`},
		},
		{
			name: "keeps image src",
			in:   `<img src="https://example.com/a.png">`,
			want: []string{`src="https://example.com/a.png"`},
		},
		{
			name: "keeps allowed alignment",
			in:   `<p style="text-align: center">c</p>`,
			want: []string{"text-align", "center"},
		},
		{
			name:    "drops other styles",
			in:      `<p style="color: red">c</p>`,
			want:    []string{"<p>c</p>"},
			notWant: []string{"color"},
		},
		{
			name:    "unwraps unknown elements",
			in:      `<div><span>text</span></div>`,
			want:    []string{"text"},
			notWant: []string{"<div", "<span"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := p.Sanitize(tt.in)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Sanitize(%q) = %q, want it to contain %q", tt.in, got, w)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(got, nw) {
					t.Errorf("Sanitize(%q) = %q, should not contain %q", tt.in, got, nw)
				}
			}
		})
	}
}
