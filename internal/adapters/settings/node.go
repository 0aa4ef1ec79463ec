package settings

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the graft identifier of the settings loader.
const NodeID graft.ID = "adapter.settings"

func init() {
	graft.Register(graft.Node[Settings]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (Settings, error) {
			return Load(".")
		},
	})
}
