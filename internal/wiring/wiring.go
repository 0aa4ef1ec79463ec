// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/spv/internal/adapters/logger"
	_ "go.trai.ch/spv/internal/adapters/prompt"
	_ "go.trai.ch/spv/internal/adapters/settings"
	_ "go.trai.ch/spv/internal/adapters/shell"
	// Register app and pipeline nodes.
	_ "go.trai.ch/spv/internal/app"
	_ "go.trai.ch/spv/internal/cache"
	_ "go.trai.ch/spv/internal/config"
	_ "go.trai.ch/spv/internal/resolver"
	_ "go.trai.ch/spv/internal/toolchain"
)
