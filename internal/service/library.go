// Package service orchestrates the engine: it owns the current shelf, runs
// discovery and consolidation cycles against it, and persists the result.
// Exactly one cycle runs at a time; readers always see a complete snapshot.
package service

import (
	"context"
	"sync"

	"github.com/ariaplayer/aria-core/internal/consolidate"
	"github.com/ariaplayer/aria-core/internal/discover"
	"github.com/ariaplayer/aria-core/internal/logger"
	"github.com/ariaplayer/aria-core/internal/media"
	"github.com/ariaplayer/aria-core/internal/media/images"
	"github.com/ariaplayer/aria-core/internal/shelf"
	"github.com/ariaplayer/aria-core/internal/store"
)

// Library is the single-writer owner of the shelf.
type Library struct {
	store      *store.Store
	discoverer *discover.Discoverer
	registry   *media.Registry
	tracer     media.Tracer
	log        *logger.Logger
	opts       consolidate.Options

	scanMu sync.Mutex // one discovery/consolidation/persist cycle at a time

	mu      sync.RWMutex
	current *shelf.Shelf
}

// ScanSummary reports what one scan cycle did. Per-file failures are
// collected, never fatal.
type ScanSummary struct {
	Discovered int // tracks found by this pass before consolidation
	Albums     int // shelf totals after the cycle
	Tracks     int
	Errors     []error
}

// NewLibrary loads the persisted shelf and renews its access capabilities.
// Entries whose capability cannot be renewed are skipped, not fatal.
func NewLibrary(st *store.Store, d *discover.Discoverer, registry *media.Registry, tracer media.Tracer, log *logger.Logger, opts consolidate.Options) (*Library, error) {
	current, err := st.LoadShelf()
	if err != nil {
		return nil, err
	}

	if skipped := current.Activate(); len(skipped) > 0 {
		log.Warn("some library entries are inaccessible", "count", len(skipped))
	}

	log.Info("library loaded",
		"albums", len(current.Albums),
		"tracks", len(current.Tracks),
		"playlists", len(current.Playlists),
	)

	return &Library{
		store:      st,
		discoverer: d,
		registry:   registry,
		tracer:     tracer,
		log:        log,
		opts:       opts,
		current:    current,
	}, nil
}

// Shelf returns the current snapshot. Snapshots are immutable; a later scan
// replaces the pointer rather than mutating the records behind it.
func (l *Library) Shelf() *shelf.Shelf {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Scan discovers url, folds the findings into the shelf, consolidates,
// persists, and swaps the snapshot. On a persistence failure the new shelf
// still becomes current - the records are valid, only the save must be
// retried - and the error is returned.
func (l *Library) Scan(ctx context.Context, url string, recursive bool) (ScanSummary, error) {
	l.scanMu.Lock()
	defer l.scanMu.Unlock()

	current := l.Shelf()

	result := l.discoverer.Discover(ctx, url, recursive, current.Log)
	for _, err := range result.Errors {
		l.log.WithError(err).Warn("discovery failure")
	}

	batch := shelf.FromDiscovery(result)
	merged := current.Merge(batch, l.opts).ConsolidateMetadata()
	l.attachCovers(ctx, merged)

	summary := ScanSummary{
		Discovered: len(result.Tracks),
		Albums:     len(merged.Albums),
		Tracks:     len(merged.Tracks),
		Errors:     result.Errors,
	}

	err := l.store.SaveShelf(merged)

	l.mu.Lock()
	l.current = merged
	l.mu.Unlock()

	if err != nil {
		l.log.WithError(err).Error("shelf not persisted; keeping in-memory state")
		return summary, err
	}

	l.log.Info("scan complete",
		"url", url,
		"discovered", summary.Discovered,
		"albums", summary.Albums,
		"tracks", summary.Tracks,
		"failures", len(summary.Errors),
	)
	return summary, nil
}

// ScanAll runs a recursive scan over each library root in turn.
func (l *Library) ScanAll(ctx context.Context, roots []string) (ScanSummary, error) {
	var total ScanSummary
	for _, root := range roots {
		summary, err := l.Scan(ctx, root, true)
		if err != nil {
			return total, err
		}
		total.Discovered += summary.Discovered
		total.Albums = summary.Albums
		total.Tracks = summary.Tracks
		total.Errors = append(total.Errors, summary.Errors...)
	}
	return total, nil
}

// HandleChanges consumes watcher notifications until the channel closes or
// ctx is cancelled, rescanning each changed path non-recursively.
func (l *Library) HandleChanges(ctx context.Context, changes <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-changes:
			if !ok {
				return
			}
			if _, err := l.Scan(ctx, path, false); err != nil {
				l.log.WithError(err).Warn("rescan after change failed", "path", path)
			}
		}
	}
}

// attachCovers loads artwork for albums that lack a cover, using the first
// track source an artwork loader claims. Failures skip the album; covers are
// decoration, not library state.
func (l *Library) attachCovers(ctx context.Context, sh *shelf.Shelf) {
	for id, album := range sh.Albums {
		if album.Cover != nil {
			continue
		}
		for _, track := range sh.TracksFor(id) {
			loader, ok := l.registry.ArtworkLoaderFor(track.Source)
			if !ok {
				continue
			}
			img, err := loader.LoadCover(ctx, track.Source, l.tracer)
			if err != nil || img == nil {
				l.log.Debug("no artwork", "source", track.Source, "error", err)
				continue
			}
			cover, err := images.Process(img)
			if err != nil {
				l.log.WithError(err).Warn("cover processing failed", "source", track.Source)
				continue
			}
			album.Cover = cover
			sh.Albums[id] = album
			break
		}
	}
}
