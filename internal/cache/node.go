package cache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/spv/internal/adapters/logger"
	"go.trai.ch/spv/internal/adapters/settings"
	"go.trai.ch/spv/internal/adapters/shell"
	"go.trai.ch/spv/internal/core/ports"
)

// NodeID is the graft identifier of the toolchain cache.
const NodeID graft.ID = "cache.toolchain"

func init() {
	graft.Register(graft.Node[*Cache]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID, logger.NodeID, settings.NodeID},
		Run: func(ctx context.Context) (*Cache, error) {
			exec, err := graft.Dep[ports.Executor](ctx)
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
			root, err := conf.ResolveCacheRoot()
			if err != nil {
				return nil, err
			}
			return New(exec, log, root), nil
		},
	})
}
