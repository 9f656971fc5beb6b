package storage

import (
	"context"
	"log/slog"
	"sync"
)

// Persister saves settings in the background so controllers never wait on
// the disk. Only the newest value per namespace is kept; a failed save is
// logged and retried with the next change or Flush.
type Persister struct {
	logger *slog.Logger
	store  Store

	mu      sync.Mutex
	pending map[string]any
	wake    chan struct{}

	// writeMu serializes writers so an older value never lands after a
	// newer one.
	writeMu sync.Mutex
}

// NewPersister creates a persister writing to store. Run must be started
// for changes to be written before Flush.
func NewPersister(logger *slog.Logger, store Store) *Persister {
	return &Persister{
		logger:  logger,
		store:   store,
		pending: make(map[string]any),
		wake:    make(chan struct{}, 1),
	}
}

// Persist queues v for namespace. It never blocks.
func (p *Persister) Persist(namespace string, v any) {
	p.mu.Lock()
	p.pending[namespace] = v
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run writes queued values until ctx is done, then flushes.
func (p *Persister) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.Flush()
			return
		case <-p.wake:
			p.Flush()
		}
	}
}

// Flush writes every queued value now and returns the number of namespaces
// that failed.
func (p *Persister) Flush() int {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	batch := p.pending
	p.pending = make(map[string]any)
	p.mu.Unlock()

	failed := 0
	for ns, v := range batch {
		if err := p.store.Save(ns, v); err != nil {
			failed++
			p.logger.Warn("Failed to persist settings", "namespace", ns, "error", err)
			p.requeue(ns, v)
			continue
		}
		p.logger.Debug("Persisted settings", "namespace", ns)
	}
	return failed
}

// requeue puts a failed value back unless a newer one arrived meanwhile.
func (p *Persister) requeue(ns string, v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[ns]; !ok {
		p.pending[ns] = v
	}
}

// Pending returns the number of namespaces waiting to be written.
func (p *Persister) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
