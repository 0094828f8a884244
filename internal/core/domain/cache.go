package domain

import (
	"time"

	"github.com/opencontainers/go-digest"
)

// CacheEntry describes an installed dependency tree stored in the dependency cache.
// Entries are addressed by (Key, Subset) so full and production trees never share storage.
type CacheEntry struct {
	Key        CacheKey      `json:"key"`
	Subset     Subset        `json:"subset"`
	TreeDigest digest.Digest `json:"tree_digest"`
	Packages   int           `json:"packages"`
	Size       int64         `json:"size"`
	CreatedAt  time.Time     `json:"created_at,omitzero"`

	// TreePath is the on-disk location of the tree. It is not persisted.
	TreePath string `json:"-"`
}
