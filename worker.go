package quillhtml

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alnah/go-quillhtml/internal/assets"
	"github.com/alnah/go-quillhtml/internal/fileutil"
	"github.com/alnah/go-quillhtml/internal/hints"
	"github.com/alnah/go-quillhtml/internal/process"
)

// Backend converts HTML to a delta through an external engine.
// Implementations serve one request at a time per instance; use a
// WorkerPool for parallelism.
type Backend interface {
	// ToDelta converts html. An empty string yields an empty delta.
	ToDelta(ctx context.Context, html string) (Delta, error)

	// Restart discards the current engine and starts a new one.
	// It is the only way out of the failed state.
	Restart() error

	// Close releases the engine. A closed backend cannot be restarted.
	Close() error
}

// Compile-time interface checks.
var (
	_ Backend = (*Worker)(nil)
	_ Backend = (*BrowserBackend)(nil)
)

// WorkerState is the lifecycle state of a backend.
type WorkerState int

const (
	WorkerUninitialized WorkerState = iota
	WorkerRunning
	WorkerFailed
	WorkerClosed
)

func (s WorkerState) String() string {
	switch s {
	case WorkerUninitialized:
		return "uninitialized"
	case WorkerRunning:
		return "running"
	case WorkerFailed:
		return "failed"
	case WorkerClosed:
		return "closed"
	default:
		return fmt.Sprintf("WorkerState(%d)", int(s))
	}
}

// shutdownGrace is how long Close waits for the worker to exit after its
// stdin is closed before killing it.
const shutdownGrace = 2 * time.Second

// WorkerConfig configures a Worker process.
type WorkerConfig struct {
	Command string        // Executable (default: node)
	Args    []string      // Arguments; empty runs Script
	Env     []string      // Extra KEY=VALUE entries appended to the environment
	Script  string        // Script passed to Command when Args is empty (default: embedded html2delta)
	Timeout time.Duration // Per-request limit; 0 relies on the caller's context
	Logger  *zap.Logger   // Lifecycle and stderr logging (default: no-op)
}

// Worker runs an external HTML to delta converter as a subprocess.
//
// Requests are UTF-8 HTML followed by a NUL byte on the worker's stdin.
// Each reply is delta JSON followed by a NUL byte on its stdout. The
// process is started lazily on the first request and serves one request at
// a time. Any I/O failure, early exit or malformed reply moves the worker
// to WorkerFailed; every later request returns ErrWorkerFailed until
// Restart is called.
type Worker struct {
	cfg    WorkerConfig
	logger *zap.Logger

	mu      sync.Mutex
	state   WorkerState
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader
	cleanup func()
}

// NewWorker creates a Worker. No process is started until the first request.
func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.Command == "" {
		cfg.Command = "node"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		cfg:    cfg,
		logger: logger.With(zap.String("backend", "node"), zap.String("command", cfg.Command)),
	}
}

// State returns the current lifecycle state.
func (w *Worker) State() WorkerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// ToDelta sends html to the worker and decodes its reply.
func (w *Worker) ToDelta(ctx context.Context, html string) (Delta, error) {
	if html == "" {
		return Delta{}, nil
	}
	if err := checkHTML(html); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case WorkerClosed:
		return nil, ErrWorkerClosed
	case WorkerFailed:
		return nil, ErrWorkerFailed
	case WorkerUninitialized:
		if err := w.start(); err != nil {
			w.state = WorkerFailed
			return nil, err
		}
	}

	if w.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := w.exchange(ctx, html)
	if err != nil {
		w.fail(err)
		return nil, err
	}

	delta, err := decodeReply(raw)
	if err != nil {
		if errors.Is(err, ErrWorkerResponse) {
			w.fail(err)
		}
		return nil, err
	}

	w.logger.Debug("converted html",
		zap.Int("bytes", len(html)),
		zap.Int("ops", len(delta)),
		zap.Duration("duration", time.Since(start)))
	return delta, nil
}

// Restart stops the current process, if any, and starts a fresh one.
func (w *Worker) Restart() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == WorkerClosed {
		return ErrWorkerClosed
	}

	w.stop(true)
	if err := w.start(); err != nil {
		w.state = WorkerFailed
		return err
	}
	w.logger.Info("worker restarted", zap.Int("pid", w.cmd.Process.Pid))
	return nil
}

// Close stops the process. Calling Close more than once is a no-op.
func (w *Worker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == WorkerClosed {
		return nil
	}
	w.stop(true)
	w.state = WorkerClosed
	return nil
}

// start launches the process. Caller must hold w.mu.
func (w *Worker) start() error {
	args := w.cfg.Args
	if len(args) == 0 {
		script := w.cfg.Script
		if script == "" {
			var err error
			script, err = assets.LoadScript(assets.DefaultWorkerScript)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrWorkerStart, err)
			}
		}
		path, cleanup, err := fileutil.WriteTempFile(script, "js")
		if err != nil {
			return fmt.Errorf("%w: %v", ErrWorkerStart, err)
		}
		w.cleanup = cleanup
		args = []string{path}
	}

	cmd := exec.Command(w.cfg.Command, args...) // #nosec G204 -- command is caller configuration
	cmd.Env = append(os.Environ(), w.cfg.Env...)
	process.SetProcessGroup(cmd)

	stderr, err := zap.NewStdLogAt(w.logger.Named("stderr"), zapcore.WarnLevel)
	if err == nil {
		cmd.Stderr = stderr.Writer()
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		w.removeScript()
		return fmt.Errorf("%w: %v", ErrWorkerStart, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		w.removeScript()
		return fmt.Errorf("%w: %v", ErrWorkerStart, err)
	}

	if err := cmd.Start(); err != nil {
		w.removeScript()
		return fmt.Errorf("%w: %s: %v%s", ErrWorkerStart, w.cfg.Command, err, hints.ForWorkerStart(w.cfg.Command))
	}

	w.cmd = cmd
	w.stdin = stdin
	w.stdout = bufio.NewReader(stdout)
	w.state = WorkerRunning
	w.logger.Debug("worker started", zap.Int("pid", cmd.Process.Pid))
	return nil
}

type workerReply struct {
	data []byte
	err  error
}

// exchange writes one request and reads one reply. The pipe work runs in
// its own goroutine so that a cancelled context can abandon it; the caller
// then kills the process, which unblocks the goroutine.
func (w *Worker) exchange(ctx context.Context, html string) ([]byte, error) {
	stdin, stdout := w.stdin, w.stdout
	done := make(chan workerReply, 1)

	go func() {
		if _, err := io.WriteString(stdin, html+"\x00"); err != nil {
			done <- workerReply{err: fmt.Errorf("%w: writing request: %v", ErrWorkerIO, err)}
			return
		}
		data, err := stdout.ReadBytes(0)
		switch {
		case errors.Is(err, io.EOF):
			done <- workerReply{err: fmt.Errorf("%w%s", ErrWorkerExited, hints.ForWorkerExited())}
		case err != nil:
			done <- workerReply{err: fmt.Errorf("%w: reading reply: %v", ErrWorkerIO, err)}
		default:
			done <- workerReply{data: data[:len(data)-1]}
		}
	}()

	select {
	case r := <-done:
		return r.data, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for worker: %w%s", ctx.Err(), timeoutHint(ctx.Err()))
	}
}

// fail moves the worker to WorkerFailed and tears the process down.
// Caller must hold w.mu.
func (w *Worker) fail(cause error) {
	w.logger.Warn("worker failed", zap.Error(cause))
	w.stop(false)
	w.state = WorkerFailed
}

// stop terminates the process. A graceful stop closes stdin and gives the
// worker shutdownGrace to exit on its own; otherwise the process group is
// killed at once. Caller must hold w.mu.
func (w *Worker) stop(graceful bool) {
	defer w.removeScript()

	if w.cmd == nil {
		return
	}
	cmd, stdin := w.cmd, w.stdin
	w.cmd, w.stdin, w.stdout = nil, nil, nil

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	kill := func() {
		process.KillProcessGroup(cmd.Process.Pid)
		_ = cmd.Process.Kill()
	}

	if graceful {
		_ = stdin.Close()
		select {
		case <-exited:
		case <-time.After(shutdownGrace):
			kill()
			<-exited
		}
	} else {
		kill()
		<-exited
	}
	w.logger.Debug("worker stopped", zap.Int("pid", cmd.Process.Pid), zap.Bool("graceful", graceful))
}

func (w *Worker) removeScript() {
	if w.cleanup != nil {
		w.cleanup()
		w.cleanup = nil
	}
}

// decodeReply parses one worker reply. A reply of the form
// {"error": "..."} means the worker is healthy but could not convert
// the document.
func decodeReply(data []byte) (Delta, error) {
	var rejected struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(data, &rejected); err == nil && rejected.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrWorkerRejected, *rejected.Error)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty reply", ErrWorkerResponse)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkerResponse, err)
	}
	if doc.Ops == nil {
		return Delta{}, nil
	}
	return doc.Ops, nil
}
