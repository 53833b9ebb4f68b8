package cart

import (
	"context"
	"sync"
	"time"

	"github.com/glowhaus/storefront-backend/pkg/metrics"
)

const finalFlushTimeout = 5 * time.Second

// registry holds one live Store per owner key and evicts idle ones.
type registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	idleTTL time.Duration
	now     func() time.Time
	metrics *metrics.CartMetrics
}

type entry struct {
	mu       sync.Mutex
	store    *Store
	refs     int
	lastUsed time.Time
}

func newRegistry(idleTTL time.Duration, now func() time.Time, m *metrics.CartMetrics) *registry {
	return &registry{
		entries: make(map[string]*entry),
		idleTTL: idleTTL,
		now:     now,
		metrics: m,
	}
}

// acquire pins the entry for key so it cannot be evicted until release.
func (r *registry) acquire(key string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		e = &entry{}
		r.entries[key] = e
		r.metrics.SetLiveStores(len(r.entries))
	}
	e.refs++
	return e
}

// attach records the hydrated store. Writers hold both e.mu and r.mu so readers
// may use either lock.
func (r *registry) attach(e *entry, s *Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.store = s
}

func (r *registry) release(e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.refs--
	e.lastUsed = r.now()
}

// sweep drops idle, unpinned entries whose cart is fully persisted.
func (r *registry) sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)
	evicted := 0
	for key, e := range r.entries {
		if e.refs > 0 || e.lastUsed.After(cutoff) {
			continue
		}
		if e.store != nil && e.store.Dirty() {
			continue
		}
		delete(r.entries, key)
		evicted++
	}
	r.metrics.SetLiveStores(len(r.entries))
	return evicted
}

// dirtyStores returns live stores that still hold unsaved changes.
func (r *registry) dirtyStores() []*Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Store
	for _, e := range r.entries {
		if e.store != nil && e.store.Dirty() {
			out = append(out, e.store)
		}
	}
	return out
}

func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// runJanitor sweeps on every tick and retries dirty stores until ctx is done,
// then makes one last flush attempt bounded by finalFlushTimeout.
func (r *registry) runJanitor(ctx context.Context, interval time.Duration, flush func(context.Context, *Store)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalFlushTimeout)
			for _, s := range r.dirtyStores() {
				flush(final, s)
			}
			cancel()
			return
		case <-ticker.C:
			for _, s := range r.dirtyStores() {
				flush(ctx, s)
			}
			r.sweep()
		}
	}
}
