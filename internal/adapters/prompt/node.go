package prompt

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/spv/internal/core/ports"
)

// NodeID is the graft identifier of the prompter adapter.
const NodeID graft.ID = "adapter.prompter"

func init() {
	graft.Register(graft.Node[ports.Prompter]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.Prompter, error) {
			return New(), nil
		},
	})
}
