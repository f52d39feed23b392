package texture

import (
	"sync"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-transit/internal/planet"
)

// Observer is notified of cache activity. The metrics collector implements it.
type Observer interface {
	TextureCacheHit()
	TextureCacheMiss()
	TextureSynthesized(d time.Duration)
}

type cacheKey struct {
	typ      planet.Type
	colorKey string
	width    int
	height   int
	rings    bool
	storms   bool
}

// Cache memoizes surfaces per (type, colour key, size). It is safe for
// concurrent use.
type Cache struct {
	mu       sync.RWMutex
	surfaces map[cacheKey]*Surface
	observer Observer
}

// NewCache creates an empty cache. observer may be nil.
func NewCache(observer Observer) *Cache {
	return &Cache{
		surfaces: make(map[cacheKey]*Surface),
		observer: observer,
	}
}

// Get returns the cached surface or synthesizes and stores it. Returned
// surfaces are shared and must not be modified.
func (c *Cache) Get(t planet.Type, base colorful.Color, opts Options) *Surface {
	opts = opts.normalized()
	key := cacheKey{
		typ:      t,
		colorKey: base.Hex(),
		width:    opts.Width,
		height:   opts.Height,
		rings:    t == planet.TypeGas && planet.HasRings(opts.Radius),
		storms:   opts.Storms,
	}

	c.mu.RLock()
	s, ok := c.surfaces[key]
	c.mu.RUnlock()
	if ok {
		if c.observer != nil {
			c.observer.TextureCacheHit()
		}
		return s
	}

	if c.observer != nil {
		c.observer.TextureCacheMiss()
	}
	start := time.Now()
	s = Synthesize(t, base, opts)
	if c.observer != nil {
		c.observer.TextureSynthesized(time.Since(start))
	}

	c.mu.Lock()
	// Another goroutine may have won the race; keep the first.
	if existing, ok := c.surfaces[key]; ok {
		s = existing
	} else {
		c.surfaces[key] = s
	}
	c.mu.Unlock()
	return s
}

// Len returns the number of cached surfaces.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.surfaces)
}

// Clear drops every cached surface.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.surfaces = make(map[cacheKey]*Surface)
	c.mu.Unlock()
}
