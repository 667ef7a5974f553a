package hotspotapi

import (
	"context"
	"log/slog"
	"sync"

	"github.com/couchcryptid/wildlife-hotspot-service/internal/domain"
)

// FallbackSource wraps a SegmentSource and remembers the last good result per
// filter. When the inner source fails, a remembered result for the same filter
// is served instead, so switching filters during an outage still works.
type FallbackSource struct {
	inner  domain.SegmentSource
	cache  *lruCache
	logger *slog.Logger
}

// NewFallbackSource creates a stale-on-error decorator around a source.
func NewFallbackSource(inner domain.SegmentSource, maxEntries int, logger *slog.Logger) *FallbackSource {
	return &FallbackSource{
		inner:  inner,
		cache:  newLRUCache(maxEntries),
		logger: logger,
	}
}

func (f *FallbackSource) FetchSegments(ctx context.Context, filter domain.SegmentFilter) ([]domain.IncidentSegment, error) {
	segments, err := f.inner.FetchSegments(ctx, filter)
	if err == nil {
		f.cache.put(filter, segments)
		return segments, nil
	}
	if cached, ok := f.cache.get(filter); ok {
		f.logger.Warn("segment source failed, serving cached segments",
			"error", err, "segments", len(cached))
		return cached, nil
	}
	return nil, err
}

// lruCache is a small thread-safe LRU keyed by filter.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[domain.SegmentFilter]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   domain.SegmentFilter
	value []domain.IncidentSegment
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[domain.SegmentFilter]*entry),
	}
}

func (c *lruCache) get(key domain.SegmentFilter) ([]domain.IncidentSegment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key domain.SegmentFilter, value []domain.IncidentSegment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
