package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/spv/internal/adapters/logger"
	"go.trai.ch/spv/internal/adapters/settings"
	"go.trai.ch/spv/internal/adapters/shell"
	"go.trai.ch/spv/internal/adapters/watcher"
	"go.trai.ch/spv/internal/cache"
	"go.trai.ch/spv/internal/config"
	"go.trai.ch/spv/internal/core/ports"
	"go.trai.ch/spv/internal/resolver"
	"go.trai.ch/spv/internal/toolchain"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			shell.NodeID,
			logger.NodeID,
			config.NodeID,
			resolver.NodeID,
			cache.NodeID,
			toolchain.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			exec, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			merger, err := graft.Dep[*config.Merger](ctx)
			if err != nil {
				return nil, err
			}

			res, err := graft.Dep[*resolver.Resolver](ctx)
			if err != nil {
				return nil, err
			}

			c, err := graft.Dep[*cache.Cache](ctx)
			if err != nil {
				return nil, err
			}

			installer, err := graft.Dep[*toolchain.Installer](ctx)
			if err != nil {
				return nil, err
			}

			newWatcher := func() (ports.Watcher, error) {
				return watcher.NewWatcher()
			}

			return New(log, exec, merger, res, c, installer, newWatcher), nil
		},
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			settings.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	application, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	conf, err := graft.Dep[settings.Settings](ctx)
	if err != nil {
		return nil, err
	}

	setVerbose := func(bool) {}
	if v, ok := log.(interface{ SetVerbose(bool) }); ok {
		setVerbose = v.SetVerbose
	}

	return &Components{
		App:        application,
		Logger:     log,
		Settings:   conf,
		SetVerbose: setVerbose,
	}, nil
}
