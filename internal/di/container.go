// Package di wires the engine together with dependency injection.
package di

import (
	"github.com/samber/do/v2"

	"github.com/ariaplayer/aria-core/internal/config"
	"github.com/ariaplayer/aria-core/internal/di/providers"
)

// NewContainer creates the DI container for a loaded configuration.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, cfg)

	// Core infrastructure
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideStore)

	// Plugins and discovery
	do.Provide(injector, providers.ProvideRegistry)
	do.Provide(injector, providers.ProvideTracer)
	do.Provide(injector, providers.ProvideDiscoverer)

	// Library service
	do.Provide(injector, providers.ProvideLibrary)

	// Workers
	do.Provide(injector, providers.ProvideWatcher)

	return injector
}
