package fileutil

// Notes:
// - WriteTempFile write/close error branches need a failing filesystem and are
//   not exercised; the happy path, cleanup, and validation are covered.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestValidateExtension - Extension safety checks
// ---------------------------------------------------------------------------

func TestValidateExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ext     string
		wantErr error
	}{
		{name: "simple", ext: "js"},
		{name: "html", ext: "html"},
		{name: "empty", ext: "", wantErr: ErrExtensionEmpty},
		{name: "slash", ext: "../js", wantErr: ErrExtensionPathTraversal},
		{name: "backslash", ext: `..\js`, wantErr: ErrExtensionPathTraversal},
		{name: "null byte", ext: "js\x00", wantErr: ErrExtensionPathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateExtension(tt.ext)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateExtension(%q) = %v, want %v", tt.ext, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWriteTempFile - Temp file lifecycle
// ---------------------------------------------------------------------------

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	content := "process.stdin.resume();\n"
	path, cleanup, err := WriteTempFile(content, "js")
	if err != nil {
		t.Fatalf("WriteTempFile() unexpected error: %v", err)
	}
	defer cleanup()

	if !strings.HasSuffix(path, ".js") {
		t.Errorf("path %q should end with .js", path)
	}
	if !strings.HasPrefix(filepath.Base(path), "quillhtml-") {
		t.Errorf("path %q should start with quillhtml-", path)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading temp file: %v", err)
	}
	if string(got) != content {
		t.Errorf("content = %q, want %q", got, content)
	}
}

func TestWriteTempFile_Cleanup(t *testing.T) {
	t.Parallel()

	path, cleanup, err := WriteTempFile("x", "html")
	if err != nil {
		t.Fatalf("WriteTempFile() unexpected error: %v", err)
	}

	cleanup()
	if FileExists(path) {
		t.Errorf("file %q still exists after cleanup", path)
	}

	// Second cleanup is a no-op.
	cleanup()
}

func TestWriteTempFile_InvalidExtension(t *testing.T) {
	t.Parallel()

	_, cleanup, err := WriteTempFile("x", "a/b")
	if !errors.Is(err, ErrExtensionPathTraversal) {
		t.Fatalf("WriteTempFile() error = %v, want ErrExtensionPathTraversal", err)
	}
	if cleanup != nil {
		t.Error("cleanup should be nil on error")
	}
}

// ---------------------------------------------------------------------------
// TestFileExists - Regular file detection
// ---------------------------------------------------------------------------

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "delta.json")
	if err := os.WriteFile(file, []byte("{}"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{name: "regular file", path: file, want: true},
		{name: "directory", path: dir, want: false},
		{name: "missing", path: filepath.Join(dir, "missing.json"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := FileExists(tt.path); got != tt.want {
				t.Errorf("FileExists(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestIsFilePath / TestIsURL - String classification
// ---------------------------------------------------------------------------

func TestIsFilePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"work", false},
		{"my-config", false},
		{"./work.yaml", true},
		{"/etc/quillhtml/work.yaml", true},
		{`C:\config\work.yaml`, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := IsFilePath(tt.in); got != tt.want {
				t.Errorf("IsFilePath(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"https://cdn.jsdelivr.net/npm/quill", true},
		{"http://localhost:8080/quill.js", true},
		{"file:///tmp/quill.js", false},
		{"quill.js", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := IsURL(tt.in); got != tt.want {
				t.Errorf("IsURL(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestOutputPath - Output naming
// ---------------------------------------------------------------------------

func TestOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		dir   string
		ext   string
		want  string
	}{
		{name: "next to input", input: "docs/note.json", ext: "html", want: filepath.Join("docs", "note.html")},
		{name: "into directory", input: "docs/note.json", dir: "out", ext: "html", want: filepath.Join("out", "note.html")},
		{name: "no extension", input: "note", ext: "json", want: "note.json"},
		{name: "double extension", input: "a.delta.json", ext: "html", want: "a.delta.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := OutputPath(tt.input, tt.dir, tt.ext); got != tt.want {
				t.Errorf("OutputPath(%q, %q, %q) = %q, want %q", tt.input, tt.dir, tt.ext, got, tt.want)
			}
		})
	}
}
