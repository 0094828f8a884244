package identity

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/slim/internal/adapters/logger"
	"go.trai.ch/slim/internal/core/ports"
)

// NodeID is the unique identifier for the privilege reducer Graft node.
const NodeID graft.ID = "adapter.privilege_reducer"

func init() {
	graft.Register(graft.Node[ports.PrivilegeReducer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.PrivilegeReducer, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewReducer(log), nil
		},
	})
}
