package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	quillhtml "github.com/alnah/go-quillhtml"
	"github.com/alnah/go-quillhtml/internal/mdimport"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Environment and fake backend
// ---------------------------------------------------------------------------

// echoBackend answers every request with one insert holding the HTML.
type echoBackend struct {
	calls atomic.Int32
}

func (b *echoBackend) ToDelta(_ context.Context, html string) (quillhtml.Delta, error) {
	b.calls.Add(1)
	return quillhtml.Delta{quillhtml.Text(strings.TrimSpace(html) + "\n")}, nil
}

func (b *echoBackend) Restart() error { return nil }

func (b *echoBackend) Close() error { return nil }

// testEnv is an Environment writing to buffers.
type testEnv struct {
	*Environment
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	backend *echoBackend
}

// newTestEnv returns an environment reading stdin and seeing only vars.
// HTML to delta requests go to an echoBackend.
func newTestEnv(t *testing.T, stdin string, vars map[string]string) *testEnv {
	t.Helper()

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	backend := &echoBackend{}
	env := &Environment{
		Stdin:  strings.NewReader(stdin),
		Stdout: stdout,
		Stderr: stderr,
		Getenv: func(k string) string { return vars[k] },
		Environ: func() []string {
			out := make([]string, 0, len(vars))
			for k, v := range vars {
				out = append(out, k+"="+v)
			}
			return out
		},
		Importer:   mdimport.New(),
		IsTerminal: func(io.Writer) bool { return false },
		Options: []quillhtml.Option{
			quillhtml.WithBackendFactory(func() quillhtml.Backend { return backend }),
		},
	}
	return &testEnv{Environment: env, stdout: stdout, stderr: stderr, backend: backend}
}

// writeFile creates dir/name with content, creating parent directories.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// readFile returns the content of path or fails the test.
func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path) // #nosec G304 -- test path
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
