package logger

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/spv/internal/adapters/settings"
	"go.trai.ch/spv/internal/core/ports"
)

// NodeID is the graft identifier of the logger adapter.
const NodeID graft.ID = "adapter.logger"

func init() {
	graft.Register(graft.Node[ports.Logger]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{settings.NodeID},
		Run: func(ctx context.Context) (ports.Logger, error) {
			conf, err := graft.Dep[settings.Settings](ctx)
			if err != nil {
				return nil, err
			}
			l := New()
			l.SetVerbose(conf.Verbose)
			return l, nil
		},
	})
}
