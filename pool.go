package quillhtml

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps automatic sizing; each worker is a node or Chrome process.
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for the worker processes themselves.
	cpuDivisor = 2
)

// BackendFactory creates a fresh Backend for a pool slot.
type BackendFactory func() Backend

// WorkerPool manages up to Size backends for parallel HTML to delta
// conversions. Backends are created lazily on first acquire to avoid
// startup delay.
type WorkerPool struct {
	size     int
	factory  BackendFactory
	backends []Backend
	sem      chan Backend
	mu       sync.Mutex
	created  int
	closed   bool
}

// NewWorkerPool creates a pool with capacity for n backends built by factory.
func NewWorkerPool(n int, factory BackendFactory) *WorkerPool {
	if n < 1 {
		n = 1
	}

	return &WorkerPool{
		size:     n,
		factory:  factory,
		backends: make([]Backend, 0, n),
		sem:      make(chan Backend, n),
	}
}

// Acquire gets a backend from the pool, creating one if capacity allows.
// Blocks until a backend is released or ctx is done.
func (p *WorkerPool) Acquire(ctx context.Context) (Backend, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}

	// Prefer an idle backend
	select {
	case b := <-p.sem:
		p.mu.Unlock()
		return b, nil
	default:
	}

	if p.created < p.size {
		p.created++
		// Backends start their engine lazily, so the factory is cheap
		// enough to run under the lock.
		b := p.factory()
		p.backends = append(p.backends, b)
		p.mu.Unlock()
		return b, nil
	}
	p.mu.Unlock()

	// All backends created, wait for one to be released
	select {
	case b, ok := <-p.sem:
		if !ok || p.isClosed() {
			return nil, ErrPoolClosed
		}
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *WorkerPool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Release returns a backend to the pool. After Close it is a no-op.
func (p *WorkerPool) Release(b Backend) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	// Holding the lock keeps Close from closing sem mid-send. The send
	// never blocks: at most size backends exist.
	p.sem <- b
}

// Close releases every backend the pool created.
// Returns an aggregated error if multiple backends fail to close.
func (p *WorkerPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	backends := p.backends
	p.mu.Unlock()

	var errs []error
	for _, b := range backends {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *WorkerPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers
	available := runtime.GOMAXPROCS(0)
	n := available / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
