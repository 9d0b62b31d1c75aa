package quillhtml

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/alnah/go-quillhtml/internal/assets"
)

// Converter converts deltas to HTML and, through a pool of external
// backends, HTML back to deltas.
// Create with NewConverter and call Close when done.
type Converter struct {
	cfg      converterConfig
	logger   *zap.Logger
	pool     *WorkerPool
	minifier *htmlMinifier
}

// NewConverter creates a Converter with default configuration: node
// backend running the embedded script, input sanitizing on, no minifying,
// no retries. No backend process starts until the first ToDelta call.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg: converterConfig{
			timeout:   defaultTimeout,
			backend:   BackendNode,
			sanitizer: NewSanitizer(),
		},
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cfg.factory == nil {
		factory, err := c.defaultFactory()
		if err != nil {
			return nil, err
		}
		c.cfg.factory = factory
	}

	if c.cfg.minify {
		c.minifier = newHTMLMinifier()
	}

	size := ResolvePoolSize(c.cfg.poolSize)
	c.pool = NewWorkerPool(size, c.cfg.factory)
	c.logger.Debug("converter ready",
		zap.String("backend", c.cfg.backend),
		zap.Int("poolSize", size),
		zap.Int("retries", c.cfg.retries))

	return c, nil
}

// defaultFactory builds the factory for the configured backend name.
func (c *Converter) defaultFactory() (BackendFactory, error) {
	var resolver assets.AssetLoader = assets.NewEmbeddedLoader()
	if c.cfg.assetPath != "" {
		r, err := assets.NewAssetResolver(c.cfg.assetPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
		}
		resolver = r
	}

	switch c.cfg.backend {
	case "", BackendNode:
		wcfg := c.cfg.worker
		wcfg.Timeout = c.cfg.timeout
		wcfg.Logger = c.logger
		if len(wcfg.Args) == 0 && wcfg.Script == "" {
			script, err := resolver.LoadScript(assets.DefaultWorkerScript)
			if err != nil {
				return nil, fmt.Errorf("loading worker script: %w", err)
			}
			wcfg.Script = script
		}
		return func() Backend { return NewWorker(wcfg) }, nil

	case BackendBrowser:
		bcfg := c.cfg.browser
		bcfg.Timeout = c.cfg.timeout
		bcfg.Logger = c.logger
		if bcfg.Page == "" {
			page, err := resolver.LoadTemplate(assets.DefaultPageTemplate)
			if err != nil {
				return nil, fmt.Errorf("loading converter page: %w", err)
			}
			bcfg.Page = page
		}
		return func() Backend { return NewBrowserBackend(bcfg) }, nil

	default:
		return nil, fmt.Errorf("%w: %q (must be %s or %s)", ErrUnknownBackend, c.cfg.backend, BackendNode, BackendBrowser)
	}
}

// ToHTML renders delta as HTML, minified when WithMinify is set.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) ToHTML(ctx context.Context, delta Delta) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInvariantViolation, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	out, err = ToHTML(delta)
	if err != nil {
		return "", err
	}

	if c.minifier != nil {
		out, err = c.minifier.Minify(out)
		if err != nil {
			return "", fmt.Errorf("minifying HTML: %w", err)
		}
	}
	return out, nil
}

// ToDelta converts html to a delta document using a pooled backend.
// Empty input yields {"ops": []} without touching any backend, as does
// input that sanitizes to nothing.
func (c *Converter) ToDelta(ctx context.Context, html string) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInvariantViolation, r)
		}
	}()

	if c.cfg.sanitizer != nil && html != "" {
		html = c.cfg.sanitizer.Sanitize(html)
	}
	if html == "" {
		return &Document{Ops: Delta{}}, nil
	}
	if err := checkHTML(html); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	b, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring backend: %w", err)
	}
	defer c.pool.Release(b)

	delta, err := c.convertWith(ctx, b, html)
	if err != nil {
		return nil, fmt.Errorf("converting HTML to delta: %w", err)
	}
	return &Document{Ops: delta}, nil
}

// convertWith runs one request on b, restarting b after worker failures
// up to the configured number of retries.
func (c *Converter) convertWith(ctx context.Context, b Backend, html string) (Delta, error) {
	delta, err := b.ToDelta(ctx, html)

	// A backend left failed by an earlier request is recovered first;
	// that restart does not count as a retry of this request.
	if errors.Is(err, ErrWorkerFailed) {
		if rerr := b.Restart(); rerr != nil {
			return nil, rerr
		}
		delta, err = b.ToDelta(ctx, html)
	}

	for attempt := 1; err != nil && attempt <= c.cfg.retries; attempt++ {
		if !IsWorkerFailure(err) || ctx.Err() != nil {
			break
		}
		c.logger.Warn("retrying after worker failure",
			zap.Int("attempt", attempt),
			zap.Int("retries", c.cfg.retries),
			zap.Error(err))
		if rerr := b.Restart(); rerr != nil {
			return nil, errors.Join(err, rerr)
		}
		delta, err = b.ToDelta(ctx, html)
	}
	return delta, err
}

// PoolSize returns the number of backends that may run at once.
func (c *Converter) PoolSize() int {
	return c.pool.Size()
}

// Close stops every backend process.
func (c *Converter) Close() error {
	if c.pool != nil {
		return c.pool.Close()
	}
	return nil
}
