// Package gallery keeps the in-memory snapshot of enrolled embeddings that
// recognition scans on every frame.
package gallery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
	"github.com/saturnino-fabrica-de-software/kinface/internal/metrics"
)

const snapshotKey = "gallery"

// Source loads the full gallery. Records with a bad features blob are
// reported by ID instead of returned.
type Source interface {
	Gallery(ctx context.Context) ([]domain.GalleryEntry, []int64, error)
}

// Cache serves gallery snapshots from memory for up to ttl. Every write to
// the identity store must call Invalidate so the next read reloads.
type Cache struct {
	source  Source
	cache   *cache.Cache
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu         sync.Mutex
	generation uint64
}

// New returns a Cache. A ttl of zero or less disables caching.
func New(source Source, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *Cache {
	c := &Cache{
		source:  source,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
	}
	if ttl > 0 {
		c.cache = cache.New(ttl, ttl*2)
	}
	return c
}

func (c *Cache) Entries(ctx context.Context) ([]domain.GalleryEntry, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(snapshotKey); ok {
			return v.([]domain.GalleryEntry), nil
		}
	}

	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	entries, corrupt, err := c.source.Gallery(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range corrupt {
		c.logger.Warn("skipping identity with corrupt embedding",
			"identity_id", id,
			"error", domain.ErrCorruptRecord,
		)
	}
	c.metrics.SetGallerySize(len(entries))

	if c.cache != nil {
		c.mu.Lock()
		// a write landed while loading, the snapshot may already be stale
		if gen == c.generation {
			c.cache.Set(snapshotKey, entries, cache.DefaultExpiration)
		}
		c.mu.Unlock()
	}

	return entries, nil
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	if c.cache != nil {
		c.cache.Flush()
	}
}
