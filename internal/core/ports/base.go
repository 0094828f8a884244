package ports

import (
	"context"

	"go.trai.ch/slim/internal/core/domain"
)

// BaseStore provides pinned base filesystems.
//
//go:generate mockgen -source=base.go -destination=mocks/mock_base.go -package=mocks
type BaseStore interface {
	// Materialize copies the base identified by ref into root after verifying its digest.
	// The scratch base materializes nothing.
	Materialize(ctx context.Context, ref domain.BaseRef, root string) error
}
