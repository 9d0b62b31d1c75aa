package quillhtml

import (
	"time"

	"go.uber.org/zap"
)

// Backend names accepted by WithBackend.
const (
	BackendNode    = "node"
	BackendBrowser = "browser"
)

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 30 * time.Second

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	timeout   time.Duration
	backend   string
	factory   BackendFactory
	worker    WorkerConfig
	browser   BrowserConfig
	poolSize  int
	sanitizer Sanitizer
	minify    bool
	retries   int
	assetPath string
}

// WithTimeout sets the limit for one HTML to delta conversion, including
// waiting for a free backend.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("quillhtml: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithLogger sets the logger for backend lifecycle events.
// The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBackend selects the HTML to delta engine: BackendNode (default) or
// BackendBrowser. NewConverter rejects other names with ErrUnknownBackend.
func WithBackend(name string) Option {
	return func(c *Converter) {
		c.cfg.backend = name
	}
}

// WithBackendFactory replaces the built-in backends. Each pool slot calls
// f once. Takes precedence over WithBackend.
func WithBackendFactory(f BackendFactory) Option {
	return func(c *Converter) {
		c.cfg.factory = f
	}
}

// WithWorkerCommand runs command with args instead of node and the
// embedded script. The process must speak the NUL-delimited protocol.
func WithWorkerCommand(command string, args ...string) Option {
	return func(c *Converter) {
		c.cfg.worker.Command = command
		c.cfg.worker.Args = args
	}
}

// WithWorkerEnv adds KEY=VALUE entries to the worker environment.
func WithWorkerEnv(env ...string) Option {
	return func(c *Converter) {
		c.cfg.worker.Env = append(c.cfg.worker.Env, env...)
	}
}

// WithBrowser configures the browser backend.
func WithBrowser(cfg BrowserConfig) Option {
	return func(c *Converter) {
		c.cfg.browser = cfg
	}
}

// WithPoolSize sets how many backends may run at once.
// Zero or less sizes the pool from GOMAXPROCS (see ResolvePoolSize).
func WithPoolSize(n int) Option {
	return func(c *Converter) {
		c.cfg.poolSize = n
	}
}

// WithSanitizer sets the sanitizer applied to HTML before inverse
// conversion. Passing nil disables sanitizing. The default is NewSanitizer.
func WithSanitizer(s Sanitizer) Option {
	return func(c *Converter) {
		c.cfg.sanitizer = s
	}
}

// WithMinify collapses ToHTML output onto a single line.
func WithMinify(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.minify = enabled
	}
}

// WithRetries sets how many times a request is retried on a restarted
// backend after a worker failure. The default is 0.
func WithRetries(n int) Option {
	return func(c *Converter) {
		c.cfg.retries = max(n, 0)
	}
}

// WithAssetPath overrides the embedded worker script and converter page
// with scripts/html2delta.js and templates/converter.html under dir.
// Missing files fall back to the embedded ones.
func WithAssetPath(dir string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = dir
	}
}
