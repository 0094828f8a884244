package ports

import (
	"context"

	"go.trai.ch/slim/internal/core/domain"
)

//go:generate mockgen -source=dependency.go -destination=mocks/mock_dependency.go -package=mocks

// DependencyStore persists installed dependency trees keyed by manifest hash and subset.
type DependencyStore interface {
	// Get returns the entry for key and subset, or nil, nil when absent.
	Get(key domain.CacheKey, subset domain.Subset) (*domain.CacheEntry, error)

	// Put atomically publishes the tree staged in dir under the entry's key and subset.
	// Concurrent readers observe either no entry or the complete tree.
	Put(entry domain.CacheEntry, dir string) (*domain.CacheEntry, error)

	// Stage creates an empty directory on the store's filesystem to install into.
	Stage(key domain.CacheKey, subset domain.Subset) (string, error)

	// Lock takes an exclusive cross-process lock on key. The returned function releases it.
	Lock(ctx context.Context, key domain.CacheKey) (func(), error)

	// List returns every stored entry ordered by key and subset.
	List() ([]domain.CacheEntry, error)

	// Remove deletes the entry for key and subset.
	Remove(key domain.CacheKey, subset domain.Subset) error
}

// PackageInstaller produces a dependency tree from a pinned manifest.
// It is treated as a pure function of (manifest, subset).
type PackageInstaller interface {
	// Install writes the packages of subset into dest.
	Install(ctx context.Context, manifest *domain.Manifest, subset domain.Subset, dest string) error
}

// DependencyCache returns installed dependency trees, installing at most once per key and subset.
type DependencyCache interface {
	// Ensure returns the cached tree for the manifest subset, installing it on a miss.
	// The boolean reports whether the entry was served from the cache.
	Ensure(ctx context.Context, manifest *domain.Manifest, subset domain.Subset) (*domain.CacheEntry, bool, error)
}
