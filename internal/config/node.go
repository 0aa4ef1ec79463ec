package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/spv/internal/adapters/logger"
	"go.trai.ch/spv/internal/adapters/shell"
	"go.trai.ch/spv/internal/core/ports"
)

// NodeID is the graft identifier of the config merger.
const NodeID graft.ID = "config.merger"

func init() {
	graft.Register(graft.Node[*Merger]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Merger, error) {
			exec, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewMerger(exec, log), nil
		},
	})
}
