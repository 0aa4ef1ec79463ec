package toolchain

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/spv/internal/adapters/logger"
	"go.trai.ch/spv/internal/adapters/prompt"
	"go.trai.ch/spv/internal/adapters/shell"
	"go.trai.ch/spv/internal/core/ports"
)

// NodeID is the graft identifier of the toolchain installer.
const NodeID graft.ID = "toolchain.installer"

func init() {
	graft.Register(graft.Node[*Installer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID, logger.NodeID, prompt.NodeID},
		Run: func(ctx context.Context) (*Installer, error) {
			exec, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			prompter, err := graft.Dep[ports.Prompter](ctx)
			if err != nil {
				return nil, err
			}
			return NewInstaller(exec, log, prompter), nil
		},
	})
}
