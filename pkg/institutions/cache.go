package institutions

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// CacheConfig sizes the institution cache
type CacheConfig struct {
	Size int
	TTL  time.Duration
}

// DefaultCacheConfig returns the default cache sizing
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{Size: 1024, TTL: 5 * time.Minute}
}

// CachedStore fronts a Repository with an expiring LRU on Get. Institutions
// are read on every tenant switch and job creation but change rarely.
type CachedStore struct {
	Repository
	cache *lru.LRU[int64, Institution]

	// OnLookup, when set, observes every Get as a hit or miss
	OnLookup func(hit bool)
}

// NewCachedStore wraps repo with a cache
func NewCachedStore(repo Repository, config CacheConfig) *CachedStore {
	if config.Size < 1 {
		config.Size = DefaultCacheConfig().Size
	}
	return &CachedStore{
		Repository: repo,
		cache:      lru.NewLRU[int64, Institution](config.Size, nil, config.TTL),
	}
}

// Get returns the cached institution or loads it
func (c *CachedStore) Get(ctx context.Context, id int64) (*Institution, error) {
	if inst, ok := c.cache.Get(id); ok {
		c.observe(true)
		return &inst, nil
	}
	c.observe(false)

	inst, err := c.Repository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(id, *inst)
	return inst, nil
}

// Update writes through and drops the cached copy
func (c *CachedStore) Update(ctx context.Context, inst *Institution) error {
	c.cache.Remove(inst.ID)
	return c.Repository.Update(ctx, inst)
}

func (c *CachedStore) observe(hit bool) {
	if c.OnLookup != nil {
		c.OnLookup(hit)
	}
}
