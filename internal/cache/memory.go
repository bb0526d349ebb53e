// Package cache provides the product cache collaborators consumed by the
// resolution orchestrator. Entries expire by TTL; there is no eviction policy
// beyond that.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/xenking/foodscan/internal/domain/product"
)

// DefaultTTL applies when the configuration does not set one.
const DefaultTTL = 24 * time.Hour

// Memory is an in-process product cache with lazy TTL expiry.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	product  product.Product
	storedAt time.Time
}

// NewMemory creates an in-memory cache with the given TTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// Get returns the cached record for barcode when present and fresh.
func (m *Memory) Get(_ context.Context, barcode string) (*product.Product, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[barcode]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if m.now().Sub(entry.storedAt) > m.ttl {
		m.mu.Lock()
		// A concurrent Set may have replaced the entry since the read; only
		// drop it if it is still the stale one.
		if current, ok := m.entries[barcode]; ok && current.storedAt.Equal(entry.storedAt) {
			delete(m.entries, barcode)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	p := entry.product
	return &p, true, nil
}

// Set stores a copy of p.
func (m *Memory) Set(_ context.Context, p *product.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[p.Barcode] = memoryEntry{product: *p, storedAt: m.now()}
	return nil
}
