// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/slim/internal/adapters/cas"
	_ "go.trai.ch/slim/internal/adapters/config"
	_ "go.trai.ch/slim/internal/adapters/fs"
	_ "go.trai.ch/slim/internal/adapters/identity"
	_ "go.trai.ch/slim/internal/adapters/logger"
	_ "go.trai.ch/slim/internal/adapters/manifest"
	_ "go.trai.ch/slim/internal/adapters/proc"
	_ "go.trai.ch/slim/internal/adapters/shell"
	_ "go.trai.ch/slim/internal/adapters/telemetry"
	// Register app nodes.
	_ "go.trai.ch/slim/internal/app"
)
