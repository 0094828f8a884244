// Package depcache serves installed dependency trees, installing each
// (manifest key, subset) pair at most once.
package depcache

import (
	"context"
	"os"

	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Cache implements ports.DependencyCache.
type Cache struct {
	store     ports.DependencyStore
	installer ports.PackageInstaller
	tracer    ports.Tracer
	metrics   ports.Metrics
	logger    ports.Logger

	requestGroup singleflight.Group
}

// New creates a new Cache.
func New(
	store ports.DependencyStore,
	installer ports.PackageInstaller,
	tracer ports.Tracer,
	metrics ports.Metrics,
	logger ports.Logger,
) *Cache {
	return &Cache{
		store:     store,
		installer: installer,
		tracer:    tracer,
		metrics:   metrics,
		logger:    logger,
	}
}

type outcome struct {
	entry *domain.CacheEntry
	hit   bool
}

// Ensure returns the cached tree for the manifest subset, installing it on a miss.
func (c *Cache) Ensure(ctx context.Context, m *domain.Manifest, subset domain.Subset) (*domain.CacheEntry, bool, error) {
	if subset != domain.SubsetFull && subset != domain.SubsetProduction {
		return nil, false, zerr.With(domain.ErrInvalidSubset, "subset", string(subset))
	}

	key := domain.ComputeKey(m)

	ctx, span := c.tracer.Start(ctx, "dependencies",
		ports.WithAttribute("key", key.Short()),
		ports.WithAttribute("subset", string(subset)),
	)
	defer span.End()

	// Concurrent stages asking for the same tree share one lookup and install.
	result, err, _ := c.requestGroup.Do(key.String()+"/"+string(subset), func() (any, error) {
		entry, hit, err := c.ensure(ctx, key, m, subset)
		if err != nil {
			return nil, err
		}
		c.metrics.CacheRequest(subset, hit)
		return outcome{entry: entry, hit: hit}, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, false, err
	}

	out := result.(outcome)
	span.SetAttribute("cache_hit", out.hit)
	return out.entry, out.hit, nil
}

func (c *Cache) ensure(
	ctx context.Context,
	key domain.CacheKey,
	m *domain.Manifest,
	subset domain.Subset,
) (*domain.CacheEntry, bool, error) {
	if entry := c.lookup(key, subset); entry != nil {
		return entry, true, nil
	}

	// Other slim processes may be installing the same key.
	unlock, err := c.store.Lock(ctx, key)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	if entry := c.lookup(key, subset); entry != nil {
		return entry, true, nil
	}

	dir, err := c.store.Stage(key, subset)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = os.RemoveAll(dir) }()

	c.logger.Info("installing " + string(subset) + " dependencies for " + key.Short())

	if err := c.installer.Install(ctx, m, subset, dir); err != nil {
		return nil, false, zerr.With(err, "key", key.Short())
	}

	entry, err := c.store.Put(domain.CacheEntry{
		Key:      key,
		Subset:   subset,
		Packages: len(m.Packages(subset)),
	}, dir)
	if err != nil {
		return nil, false, err
	}

	return entry, false, nil
}

// lookup treats a corrupt entry as a miss and discards it.
func (c *Cache) lookup(key domain.CacheKey, subset domain.Subset) *domain.CacheEntry {
	entry, err := c.store.Get(key, subset)
	if err == nil {
		return entry
	}

	c.logger.Warn("discarding dependency cache entry " + key.Short() + "/" + string(subset) + ": " + err.Error())
	if err := c.store.Remove(key, subset); err != nil {
		c.logger.Error(err)
	}
	return nil
}
