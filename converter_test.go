package quillhtml

// Notes:
// - Tests Converter with mocked backends (WithBackendFactory) to isolate the
//   facade logic: short-circuit, sanitizing, pooling, retry policy.
// - Real node workers are covered in worker_test.go through the helper
//   process; the browser backend needs Chrome and is not unit tested.

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// ---------------------------------------------------------------------------
// Mock Implementations
// ---------------------------------------------------------------------------

// mockResult is one scripted ToDelta outcome.
type mockResult struct {
	delta Delta
	err   error
}

// mockBackend replays results in order, then answers with a fixed delta.
type mockBackend struct {
	mu       sync.Mutex
	results  []mockResult
	inputs   []string
	calls    atomic.Int32
	restarts atomic.Int32
	closed   atomic.Bool
	closeErr error
}

func (m *mockBackend) ToDelta(ctx context.Context, html string) (Delta, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	m.inputs = append(m.inputs, html)
	if len(m.results) > 0 {
		r := m.results[0]
		m.results = m.results[1:]
		return r.delta, r.err
	}
	return Delta{Text("mock\n")}, nil
}

func (m *mockBackend) Restart() error {
	m.restarts.Add(1)
	return nil
}

func (m *mockBackend) Close() error {
	m.closed.Store(true)
	return m.closeErr
}

// failingBackend fails the test if it is used at all.
type failingBackend struct {
	t *testing.T
}

func (f failingBackend) ToDelta(ctx context.Context, html string) (Delta, error) {
	f.t.Errorf("backend called with %q, want no call", html)
	return nil, errors.New("unexpected call")
}

func (f failingBackend) Restart() error {
	f.t.Error("Restart called, want no call")
	return nil
}

func (f failingBackend) Close() error { return nil }

// newMockConverter returns a converter whose single backend is m.
func newMockConverter(t *testing.T, m Backend, opts ...Option) *Converter {
	t.Helper()

	opts = append([]Option{WithBackendFactory(func() Backend { return m }), WithPoolSize(1)}, opts...)
	c, err := NewConverter(opts...)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// ---------------------------------------------------------------------------
// TestNewConverter - Construction and options
// ---------------------------------------------------------------------------

func TestNewConverter(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		c, err := NewConverter()
		if err != nil {
			t.Fatalf("NewConverter() error = %v", err)
		}
		defer c.Close()

		if c.cfg.backend != BackendNode {
			t.Errorf("backend = %q, want %q", c.cfg.backend, BackendNode)
		}
		if c.cfg.sanitizer == nil {
			t.Error("sanitizer should be on by default")
		}
		if c.minifier != nil {
			t.Error("minifier should be off by default")
		}
		if c.PoolSize() != ResolvePoolSize(0) {
			t.Errorf("PoolSize() = %d, want %d", c.PoolSize(), ResolvePoolSize(0))
		}
	})

	t.Run("browser backend", func(t *testing.T) {
		t.Parallel()

		c, err := NewConverter(WithBackend(BackendBrowser), WithPoolSize(2))
		if err != nil {
			t.Fatalf("NewConverter() error = %v", err)
		}
		defer c.Close()

		if c.PoolSize() != 2 {
			t.Errorf("PoolSize() = %d, want 2", c.PoolSize())
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Parallel()

		_, err := NewConverter(WithBackend("python"))
		if !errors.Is(err, ErrUnknownBackend) {
			t.Errorf("NewConverter() error = %v, want ErrUnknownBackend", err)
		}
	})

	t.Run("invalid asset path", func(t *testing.T) {
		t.Parallel()

		_, err := NewConverter(WithAssetPath("/nonexistent/quillhtml-assets"))
		if !errors.Is(err, ErrInvalidAssetPath) {
			t.Errorf("NewConverter() error = %v, want ErrInvalidAssetPath", err)
		}
	})

	t.Run("factory wins over backend name", func(t *testing.T) {
		t.Parallel()

		_, err := NewConverter(WithBackend("python"), WithBackendFactory(func() Backend { return &mockBackend{} }))
		if err != nil {
			t.Errorf("NewConverter() error = %v, want nil", err)
		}
	})
}

func TestWithTimeout_PanicsOnNonPositive(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("WithTimeout(0) should panic")
		}
	}()
	WithTimeout(0)
}

func TestWithRetries_ClampsNegative(t *testing.T) {
	t.Parallel()

	c := newMockConverter(t, &mockBackend{}, WithRetries(-3))
	if c.cfg.retries != 0 {
		t.Errorf("retries = %d, want 0", c.cfg.retries)
	}
}

// ---------------------------------------------------------------------------
// TestConverter_ToHTML - Facade over the block converter
// ---------------------------------------------------------------------------

func TestConverter_ToHTML(t *testing.T) {
	t.Parallel()

	delta := Delta{Text("Hello"), Line(Attributes{Header: 1}), Text("World"), Line()}

	t.Run("matches package ToHTML", func(t *testing.T) {
		t.Parallel()

		c := newMockConverter(t, failingBackend{t})
		got, err := c.ToHTML(context.Background(), delta)
		if err != nil {
			t.Fatalf("ToHTML() error = %v", err)
		}
		want, _ := ToHTML(delta)
		if got != want {
			t.Errorf("ToHTML() = %q, want %q", got, want)
		}
	})

	t.Run("minified", func(t *testing.T) {
		t.Parallel()

		c := newMockConverter(t, failingBackend{t}, WithMinify(true))
		got, err := c.ToHTML(context.Background(), delta)
		if err != nil {
			t.Fatalf("ToHTML() error = %v", err)
		}
		if strings.Contains(got, "\n  ") {
			t.Errorf("ToHTML() = %q, want minified output", got)
		}
		if !strings.Contains(got, "<h1>Hello</h1>") {
			t.Errorf("ToHTML() = %q, want header preserved", got)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		t.Parallel()

		c := newMockConverter(t, failingBackend{t})
		_, err := c.ToHTML(context.Background(), Delta{Text("x"), Line(Attributes{Align: "middle"})})
		if !errors.Is(err, ErrInvalidAlign) {
			t.Errorf("ToHTML() error = %v, want ErrInvalidAlign", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		c := newMockConverter(t, failingBackend{t})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := c.ToHTML(ctx, delta); !errors.Is(err, context.Canceled) {
			t.Errorf("ToHTML() error = %v, want context.Canceled", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestConverter_ToDelta - Inverse conversion
// ---------------------------------------------------------------------------

func TestConverter_ToDelta_EmptyHTMLShortCircuits(t *testing.T) {
	t.Parallel()

	c := newMockConverter(t, failingBackend{t})

	doc, err := c.ToDelta(context.Background(), "")
	if err != nil {
		t.Fatalf("ToDelta(\"\") error = %v", err)
	}
	got, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(got) != `{"ops":[]}` {
		t.Errorf("ToDelta(\"\") = %s, want {\"ops\":[]}", got)
	}
}

func TestConverter_ToDelta_SanitizedToNothingShortCircuits(t *testing.T) {
	t.Parallel()

	c := newMockConverter(t, failingBackend{t})

	doc, err := c.ToDelta(context.Background(), "<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("ToDelta() error = %v", err)
	}
	if len(doc.Ops) != 0 {
		t.Errorf("ToDelta() ops = %v, want empty", doc.Ops)
	}
}

func TestConverter_ToDelta_RejectsNULByte(t *testing.T) {
	t.Parallel()

	for _, opts := range [][]Option{nil, {WithSanitizer(nil)}} {
		c := newMockConverter(t, failingBackend{t}, opts...)

		_, err := c.ToDelta(context.Background(), "<p>a</p>\x00<p>b</p>")
		if !errors.Is(err, ErrInvalidHTML) {
			t.Errorf("ToDelta() error = %v, want ErrInvalidHTML", err)
		}
	}
}

func TestConverter_ToDelta(t *testing.T) {
	t.Parallel()

	m := &mockBackend{results: []mockResult{{delta: Delta{Text("hi", Attributes{Bold: true}), Line()}}}}
	c := newMockConverter(t, m)

	doc, err := c.ToDelta(context.Background(), `<p><strong onclick="x()">hi</strong></p>`)
	if err != nil {
		t.Fatalf("ToDelta() error = %v", err)
	}
	want := Delta{Text("hi", Attributes{Bold: true}), Line()}
	if diff := cmp.Diff(want, doc.Ops); diff != "" {
		t.Errorf("ToDelta() mismatch (-want +got):\n%s", diff)
	}

	if len(m.inputs) != 1 || strings.Contains(m.inputs[0], "onclick") {
		t.Errorf("backend input = %q, want sanitized HTML", m.inputs)
	}
}

func TestConverter_ToDelta_SanitizerDisabled(t *testing.T) {
	t.Parallel()

	m := &mockBackend{}
	c := newMockConverter(t, m, WithSanitizer(nil))

	in := `<p onclick="x()">hi</p>`
	if _, err := c.ToDelta(context.Background(), in); err != nil {
		t.Fatalf("ToDelta() error = %v", err)
	}
	if len(m.inputs) != 1 || m.inputs[0] != in {
		t.Errorf("backend input = %q, want %q unchanged", m.inputs, in)
	}
}

func TestConverter_ToDelta_Retries(t *testing.T) {
	t.Parallel()

	ok := Delta{Text("ok\n")}

	tests := []struct {
		name         string
		retries      int
		results      []mockResult
		wantErr      error
		wantCalls    int32
		wantRestarts int32
	}{
		{
			name:         "no retries by default",
			retries:      0,
			results:      []mockResult{{err: ErrWorkerExited}},
			wantErr:      ErrWorkerExited,
			wantCalls:    1,
			wantRestarts: 0,
		},
		{
			name:         "retry succeeds after restart",
			retries:      1,
			results:      []mockResult{{err: ErrWorkerExited}, {delta: ok}},
			wantCalls:    2,
			wantRestarts: 1,
		},
		{
			name:         "retries exhausted",
			retries:      2,
			results:      []mockResult{{err: ErrWorkerIO}, {err: ErrWorkerIO}, {err: ErrWorkerIO}},
			wantErr:      ErrWorkerIO,
			wantCalls:    3,
			wantRestarts: 2,
		},
		{
			name:         "rejected document is not retried",
			retries:      3,
			results:      []mockResult{{err: ErrWorkerRejected}},
			wantErr:      ErrWorkerRejected,
			wantCalls:    1,
			wantRestarts: 0,
		},
		{
			name:         "failed backend is recovered without spending a retry",
			retries:      0,
			results:      []mockResult{{err: ErrWorkerFailed}, {delta: ok}},
			wantCalls:    2,
			wantRestarts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := &mockBackend{results: tt.results}
			c := newMockConverter(t, m, WithRetries(tt.retries))

			doc, err := c.ToDelta(context.Background(), "<p>x</p>")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ToDelta() error = %v, want %v", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("ToDelta() error = %v", err)
				}
				if diff := cmp.Diff(ok, doc.Ops); diff != "" {
					t.Errorf("ToDelta() mismatch (-want +got):\n%s", diff)
				}
			}

			if got := m.calls.Load(); got != tt.wantCalls {
				t.Errorf("ToDelta calls = %d, want %d", got, tt.wantCalls)
			}
			if got := m.restarts.Load(); got != tt.wantRestarts {
				t.Errorf("Restart calls = %d, want %d", got, tt.wantRestarts)
			}
		})
	}
}

func TestConverter_ToDelta_Timeout(t *testing.T) {
	t.Parallel()

	m := &mockBackend{}
	c := newMockConverter(t, m, WithTimeout(20*time.Millisecond))

	// Hold the only backend so the request waits in Acquire.
	held, err := c.pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer c.pool.Release(held)

	_, err = c.ToDelta(context.Background(), "<p>x</p>")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ToDelta() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestConverter_ToDelta_PanicRecovered(t *testing.T) {
	t.Parallel()

	c := newMockConverter(t, panickingBackend{})

	_, err := c.ToDelta(context.Background(), "<p>x</p>")
	if !errors.Is(err, ErrInvariantViolation) {
		t.Errorf("ToDelta() error = %v, want ErrInvariantViolation", err)
	}
}

type panickingBackend struct{}

func (panickingBackend) ToDelta(context.Context, string) (Delta, error) { panic("boom") }
func (panickingBackend) Restart() error                                 { return nil }
func (panickingBackend) Close() error                                   { return nil }

func TestConverter_Close(t *testing.T) {
	t.Parallel()

	m := &mockBackend{}
	c, err := NewConverter(WithBackendFactory(func() Backend { return m }), WithPoolSize(1))
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	if _, err := c.ToDelta(context.Background(), "<p>x</p>"); err != nil {
		t.Fatalf("ToDelta() error = %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !m.closed.Load() {
		t.Error("backend not closed")
	}
	if _, err := c.ToDelta(context.Background(), "<p>x</p>"); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("ToDelta() after Close error = %v, want ErrPoolClosed", err)
	}
}

func TestConverter_ToDelta_Concurrent(t *testing.T) {
	t.Parallel()

	var created atomic.Int32
	c, err := NewConverter(WithPoolSize(3), WithBackendFactory(func() Backend {
		created.Add(1)
		return &mockBackend{}
	}))
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	defer c.Close()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.ToDelta(context.Background(), "<p>x</p>"); err != nil {
				t.Errorf("ToDelta() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := created.Load(); got > 3 {
		t.Errorf("created %d backends, want at most 3", got)
	}
}
