package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/slim/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/slim/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/slim/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/slim/internal/adapters/identity"  //nolint:depguard // Wired in app layer
	"go.trai.ch/slim/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/slim/internal/adapters/manifest"  //nolint:depguard // Wired in app layer
	"go.trai.ch/slim/internal/adapters/shell"     //nolint:depguard // Wired in app layer
	"go.trai.ch/slim/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/slim/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			manifest.NodeID,
			fs.FilesystemNodeID,
			fs.ResolverNodeID,
			fs.HasherNodeID,
			identity.NodeID,
			shell.NodeID,
			cas.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	configLoader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	manifestLoader, err := graft.Dep[ports.ManifestLoader](ctx)
	if err != nil {
		return nil, err
	}

	filesystem, err := graft.Dep[ports.Filesystem](ctx)
	if err != nil {
		return nil, err
	}

	resolver, err := graft.Dep[ports.InputResolver](ctx)
	if err != nil {
		return nil, err
	}

	hasher, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}

	reducer, err := graft.Dep[ports.PrivilegeReducer](ctx)
	if err != nil {
		return nil, err
	}

	executor, err := graft.Dep[ports.Executor](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.BuildInfoStore](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(configLoader, manifestLoader, filesystem, resolver, hasher, reducer, executor, store, tracer, log), nil
}
