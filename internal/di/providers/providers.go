// Package providers contains the dependency injection provider functions.
package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/ariaplayer/aria-core/internal/access"
	"github.com/ariaplayer/aria-core/internal/config"
	"github.com/ariaplayer/aria-core/internal/consolidate"
	"github.com/ariaplayer/aria-core/internal/discover"
	"github.com/ariaplayer/aria-core/internal/logger"
	"github.com/ariaplayer/aria-core/internal/media"
	"github.com/ariaplayer/aria-core/internal/service"
	"github.com/ariaplayer/aria-core/internal/store"
	"github.com/ariaplayer/aria-core/internal/trace"
	"github.com/ariaplayer/aria-core/internal/watcher"
)

// ProvideLogger provides the application logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return logger.New(logger.Config{
		Writer:      os.Stdout,
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
	}), nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := store.Open(cfg.Data.Path, log)
	if err != nil {
		return nil, err
	}
	return &StoreHandle{Store: st}, nil
}

// ProvideRegistry provides the plugin registry. The core ships no concrete
// format plugins; the embedding player registers its importers, grabbers,
// and artwork loaders here before anything is scanned.
func ProvideRegistry(do.Injector) (*media.Registry, error) {
	return media.NewRegistry(), nil
}

// ProvideTracer provides the rate-limited plugin tracer.
func ProvideTracer(i do.Injector) (*trace.Limited, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return trace.NewLimited(log, cfg.Scan.TraceRate), nil
}

// ProvideDiscoverer provides the library walker.
func ProvideDiscoverer(i do.Injector) (*discover.Discoverer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	registry := do.MustInvoke[*media.Registry](i)
	tracer := do.MustInvoke[*trace.Limited](i)

	return discover.New(registry, access.FileProvider{}, tracer, log, cfg.Scan.Workers), nil
}

// ProvideLibrary provides the shelf-owning library service.
func ProvideLibrary(i do.Injector) (*service.Library, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	st := do.MustInvoke[*StoreHandle](i)
	d := do.MustInvoke[*discover.Discoverer](i)
	registry := do.MustInvoke[*media.Registry](i)
	tracer := do.MustInvoke[*trace.Limited](i)

	opts := consolidate.Options{ConflictKeys: cfg.Scan.ConflictKeys}
	return service.NewLibrary(st.Store, d, registry, tracer, log, opts)
}

// WatcherHandle wraps the watcher with shutdown capability.
type WatcherHandle struct {
	*watcher.Watcher
}

// Shutdown implements do.Shutdownable.
func (h *WatcherHandle) Shutdown() error {
	return h.Stop()
}

// ProvideWatcher provides the filesystem watcher.
func ProvideWatcher(i do.Injector) (*WatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	w, err := watcher.New(log, cfg.Watch.SettleDelay)
	if err != nil {
		return nil, err
	}
	return &WatcherHandle{Watcher: w}, nil
}
