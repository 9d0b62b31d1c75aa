package quillhtml

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/alnah/go-quillhtml/internal/assets"
	"github.com/alnah/go-quillhtml/internal/fileutil"
	"github.com/alnah/go-quillhtml/internal/hints"
	"github.com/alnah/go-quillhtml/internal/process"
)

// DefaultQuillURL is the Quill build loaded into the converter page.
const DefaultQuillURL = "https://cdn.jsdelivr.net/npm/quill@1.3.7/dist/quill.min.js"

// BrowserConfig configures a BrowserBackend.
type BrowserConfig struct {
	QuillURL  string        // Quill script URL (default: DefaultQuillURL)
	Bin       string        // Chrome binary (default: ROD_BROWSER_BIN or rod's lookup)
	NoSandbox bool          // Disable the Chrome sandbox (forced in CI)
	Page      string        // Page template (default: embedded converter page)
	Timeout   time.Duration // Page load and per-request limit (default: 30s)
	Logger    *zap.Logger
}

// pageData is the data passed to the converter page template.
type pageData struct {
	QuillURL string
}

// BrowserBackend converts HTML to a delta by pasting it into a Quill editor
// running in headless Chrome. Chrome is launched and the page loaded lazily
// on the first request. Rod downloads Chromium on first run if none is found.
type BrowserBackend struct {
	cfg    BrowserConfig
	logger *zap.Logger

	mu      sync.Mutex
	state   WorkerState
	browser *rod.Browser
	page    *rod.Page
	pid     int
	cleanup func()
}

// NewBrowserBackend creates a BrowserBackend. Chrome is not started yet.
func NewBrowserBackend(cfg BrowserConfig) *BrowserBackend {
	if cfg.QuillURL == "" {
		cfg.QuillURL = DefaultQuillURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrowserBackend{
		cfg:    cfg,
		logger: logger.With(zap.String("backend", "browser")),
	}
}

// State returns the current lifecycle state.
func (b *BrowserBackend) State() WorkerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// ToDelta converts html through the page's htmlToDelta function.
func (b *BrowserBackend) ToDelta(ctx context.Context, html string) (Delta, error) {
	if html == "" {
		return Delta{}, nil
	}
	if err := checkHTML(html); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case WorkerClosed:
		return nil, ErrWorkerClosed
	case WorkerFailed:
		return nil, ErrWorkerFailed
	case WorkerUninitialized:
		if err := b.start(ctx); err != nil {
			b.state = WorkerFailed
			return nil, err
		}
	}

	start := time.Now()
	res, err := b.page.Context(ctx).Timeout(b.cfg.Timeout).Eval(`(html) => window.htmlToDelta(html)`, html)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			b.fail(ctxErr)
			return nil, fmt.Errorf("waiting for browser: %w%s", ctxErr, timeoutHint(ctxErr))
		}
		wrapped := fmt.Errorf("%w: evaluating htmlToDelta: %v", ErrWorkerIO, err)
		b.fail(wrapped)
		return nil, wrapped
	}

	delta, err := decodeReply([]byte(res.Value.Str()))
	if err != nil {
		if IsWorkerFailure(err) {
			b.fail(err)
		}
		return nil, err
	}

	b.logger.Debug("converted html",
		zap.Int("bytes", len(html)),
		zap.Int("ops", len(delta)),
		zap.Duration("duration", time.Since(start)))
	return delta, nil
}

// Restart closes Chrome and launches a fresh instance.
func (b *BrowserBackend) Restart() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == WorkerClosed {
		return ErrWorkerClosed
	}
	b.stop()
	if err := b.start(context.Background()); err != nil {
		b.state = WorkerFailed
		return err
	}
	b.logger.Info("browser restarted", zap.Int("pid", b.pid))
	return nil
}

// Close releases browser resources.
func (b *BrowserBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == WorkerClosed {
		return nil
	}
	err := b.stop()
	b.state = WorkerClosed
	return err
}

// start launches Chrome and loads the converter page. Caller must hold b.mu.
func (b *BrowserBackend) start(ctx context.Context) error {
	page, err := b.renderPage()
	if err != nil {
		return err
	}
	path, cleanup, err := fileutil.WriteTempFile(page, "html")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	b.cleanup = cleanup

	l := b.launcher()
	u, err := l.Launch()
	if err != nil {
		b.stop()
		return fmt.Errorf("%w: %v%s", ErrBrowserConnect, err, hints.ForBrowserConnect())
	}
	b.pid = l.PID()

	b.browser = rod.New().ControlURL(u)
	if err := b.browser.Connect(); err != nil {
		b.browser = nil
		b.stop()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	p, err := b.browser.Page(proto.TargetCreateTarget{URL: "file://" + path})
	if err != nil {
		b.stop()
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := p.Context(ctx).Timeout(b.cfg.Timeout).WaitLoad(); err != nil {
		b.stop()
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	ready, err := p.Eval(`() => window.quillReady === true`)
	if err != nil || !ready.Value.Bool() {
		b.stop()
		return fmt.Errorf("%w: quill did not initialize from %s", ErrPageLoad, b.cfg.QuillURL)
	}

	b.page = p
	b.state = WorkerRunning
	b.logger.Debug("browser started", zap.Int("pid", b.pid))
	return nil
}

// launcher configures Chrome the same way in every environment:
// explicit binary first, then ROD_BROWSER_BIN, and no sandbox in CI.
func (b *BrowserBackend) launcher() *launcher.Launcher {
	l := launcher.New()

	bin := b.cfg.Bin
	if bin == "" {
		bin = os.Getenv("ROD_BROWSER_BIN")
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	if b.cfg.NoSandbox || os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" {
		l = l.NoSandbox(true)
	}
	return l
}

// renderPage executes the converter page template.
func (b *BrowserBackend) renderPage() (string, error) {
	src := b.cfg.Page
	if src == "" {
		var err error
		src, err = assets.LoadTemplate(assets.DefaultPageTemplate)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrPageLoad, err)
		}
	}
	tmpl, err := template.New("converter").Parse(src)
	if err != nil {
		return "", fmt.Errorf("%w: parsing page template: %v", ErrPageLoad, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, pageData{QuillURL: b.cfg.QuillURL}); err != nil {
		return "", fmt.Errorf("%w: rendering page template: %v", ErrPageLoad, err)
	}
	return buf.String(), nil
}

// fail moves the backend to WorkerFailed and releases Chrome.
// Caller must hold b.mu.
func (b *BrowserBackend) fail(cause error) {
	b.logger.Warn("browser failed", zap.Error(cause))
	b.stop()
	b.state = WorkerFailed
}

// stop closes Chrome and removes the page file. Caller must hold b.mu.
func (b *BrowserBackend) stop() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	b.page = nil
	if b.pid > 0 {
		// Chrome helpers can outlive the browser process.
		process.KillProcessGroup(b.pid)
		b.pid = 0
	}
	if b.cleanup != nil {
		b.cleanup()
		b.cleanup = nil
	}
	return err
}
