package ports

import (
	"context"

	"go.trai.ch/slim/internal/core/domain"
)

// PrivilegeReducer strips interactive accounts from a stage root and provisions the service identity.
//
//go:generate mockgen -source=identity.go -destination=mocks/mock_identity.go -package=mocks
type PrivilegeReducer interface {
	// Reduce rewrites the account tables under root and creates the identity home directory.
	Reduce(ctx context.Context, root string, spec domain.IdentitySpec) (domain.ServiceIdentity, error)

	// Lookup resolves name against raw passwd and group tables.
	Lookup(passwd, group []byte, name string) (domain.ServiceIdentity, error)
}
