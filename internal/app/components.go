package app

import (
	"go.trai.ch/spv/internal/adapters/settings"
	"go.trai.ch/spv/internal/core/ports"
)

// Components bundles the fully wired application for the entry point.
type Components struct {
	App      *App
	Logger   ports.Logger
	Settings settings.Settings

	// SetVerbose switches the logger to debug level. Wired from the
	// --verbose flag.
	SetVerbose func(bool)
}
