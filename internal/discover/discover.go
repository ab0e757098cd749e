// Package discover walks library trees and turns media files into records.
// The walker itself is format-agnostic: importers produce the records,
// grabbers enrich them, and a discover log from a previous pass lets the
// walker skip anything unchanged.
package discover

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ariaplayer/aria-core/internal/access"
	"github.com/ariaplayer/aria-core/internal/discoverlog"
	"github.com/ariaplayer/aria-core/internal/domain"
	"github.com/ariaplayer/aria-core/internal/errors"
	"github.com/ariaplayer/aria-core/internal/identity"
	"github.com/ariaplayer/aria-core/internal/logger"
	"github.com/ariaplayer/aria-core/internal/media"
	"github.com/ariaplayer/aria-core/internal/metadata"
)

// Result is one discovery pass's output. Albums, tracks, the log entries
// written during the pass, and the per-file failures are all collected;
// nothing aborts siblings.
type Result struct {
	Albums []domain.Album
	Tracks []domain.Track
	Log    *discoverlog.Log
	Errors []error
}

func newResult() Result {
	return Result{Log: discoverlog.New()}
}

// Merge folds other into r. Records and errors concatenate; logs union.
func (r *Result) Merge(other Result) {
	r.Albums = append(r.Albums, other.Albums...)
	r.Tracks = append(r.Tracks, other.Tracks...)
	r.Log.Merge(other.Log)
	r.Errors = append(r.Errors, other.Errors...)
}

// Discoverer walks urls and produces Results. It holds no mutable state
// across calls; every Discover call is pure over its inputs.
type Discoverer struct {
	registry *media.Registry
	caps     access.Provider
	tracer   media.Tracer
	log      *logger.Logger
	workers  int
}

// New creates a discoverer. workers bounds the concurrent fan-out per
// directory level; zero or negative means one worker per CPU.
func New(registry *media.Registry, caps access.Provider, tracer media.Tracer, log *logger.Logger, workers int) *Discoverer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Discoverer{
		registry: registry,
		caps:     caps,
		tracer:   tracer,
		log:      log,
		workers:  workers,
	}
}

// Discover processes url and returns everything found beneath it. previous
// is the log of an earlier pass; urls it proves unchanged are skipped. A nil
// previous log rediscovers everything.
//
// Fan-out is structured: all child work is awaited before Discover returns.
// Cancellation is honored between files; branches already finished still
// contribute their results.
func (d *Discoverer) Discover(ctx context.Context, url string, recursive bool, previous *discoverlog.Log) Result {
	if previous == nil {
		previous = discoverlog.New()
	}
	if ctx.Err() != nil {
		return newResult()
	}

	info, err := os.Stat(url)
	if err != nil {
		result := newResult()
		result.Errors = append(result.Errors, errors.NotFound(url, err))
		return result
	}
	if info.IsDir() {
		return d.discoverDir(ctx, url, recursive, previous)
	}
	return d.discoverFile(ctx, url, previous)
}

func (d *Discoverer) discoverFile(ctx context.Context, url string, previous *discoverlog.Log) Result {
	result := newResult()

	importer, ok := d.registry.ImporterFor(url)
	if !ok {
		result.Errors = append(result.Errors, errors.NoApplicableImporter(url))
		return result
	}
	if !previous.NeedsRediscover(discoverlog.ActionImporting, url) {
		d.log.Debug("unchanged, skipping", "url", url)
		return result
	}

	albums, tracks, err := importer.Import(ctx, url, d.tracer)
	if err != nil {
		result.Errors = append(result.Errors, errors.Wrapf(err, errors.CodeDecodingFailure, "import via %s", importer.Name()))
		return result
	}
	result.Albums = albums
	result.Tracks = tracks
	result.Log.Append(discoverlog.ActionImporting, url, d.capture(url))

	d.grab(ctx, &result, previous)
	hoistAlbumTags(&result)
	return result
}

// grab enriches the result's tracks with metadata from grabbers, one source
// at a time. All grabbers applicable to a source run concurrently; a grabbed
// value fills only the keys a track is missing.
func (d *Discoverer) grab(ctx context.Context, result *Result, previous *discoverlog.Log) {
	for _, source := range distinctSources(result.Tracks) {
		if !previous.NeedsRediscover(discoverlog.ActionGrabbing, source) {
			continue
		}
		grabbers := d.registry.GrabbersFor(source)
		if len(grabbers) == 0 {
			d.log.Debug("no grabber for source", "source", source)
			continue
		}

		grabbed := make([]metadata.Metadata, len(grabbers))
		grabErrs := make([]error, len(grabbers))

		var g errgroup.Group
		g.SetLimit(d.workers)
		for i, grabber := range grabbers {
			g.Go(func() error {
				grabbed[i], grabErrs[i] = grabber.Grab(ctx, source, d.tracer)
				return nil
			})
		}
		g.Wait() //nolint:errcheck // Tasks report through grabErrs

		for i, err := range grabErrs {
			if err != nil {
				result.Errors = append(result.Errors, errors.Wrapf(err, errors.CodeDecodingFailure, "grab via %s", grabbers[i].Name()))
				grabbed[i] = nil
			}
		}

		for t := range result.Tracks {
			if result.Tracks[t].NormalizedSource() != source {
				continue
			}
			for _, m := range grabbed {
				result.Tracks[t].Meta.Merge(m)
			}
		}
		result.Log.Append(discoverlog.ActionGrabbing, source, d.capture(source))
	}
}

func (d *Discoverer) discoverDir(ctx context.Context, url string, recursive bool, previous *discoverlog.Log) Result {
	result := newResult()
	result.Log.Append(discoverlog.ActionDiscovering, url, d.capture(url))

	entries, err := os.ReadDir(url)
	if err != nil {
		result.Errors = append(result.Errors, errors.AccessDenied(url, err))
		return result
	}

	var files, dirs []string
	for _, entry := range entries {
		path := filepath.Join(url, entry.Name())
		if entry.IsDir() {
			dirs = append(dirs, path)
		} else {
			files = append(files, path)
		}
	}

	// Importers claim files in registration order; a file goes to the first
	// importer supporting its type, and each claimed batch fans out.
	remaining := files
	for _, importer := range d.registry.Importers() {
		var claimed []string
		claimed, remaining = carve(remaining, importer)
		result.Merge(d.fanOut(ctx, claimed, false, previous))
	}

	if recursive {
		result.Merge(d.fanOut(ctx, dirs, true, previous))
	}
	return result
}

// fanOut discovers each url concurrently and merges the results after all
// of them finish.
func (d *Discoverer) fanOut(ctx context.Context, urls []string, recursive bool, previous *discoverlog.Log) Result {
	merged := newResult()
	if len(urls) == 0 {
		return merged
	}

	results := make([]Result, len(urls))
	var g errgroup.Group
	g.SetLimit(d.workers)
	for i, url := range urls {
		g.Go(func() error {
			results[i] = d.Discover(ctx, url, recursive, previous)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // Tasks report through their Result

	for _, r := range results {
		merged.Merge(r)
	}
	return merged
}

// capture mints a capability for url. Discovery proceeds without one; the
// log entry just carries an empty capability that Activate will skip.
func (d *Discoverer) capture(url string) access.Capability {
	cap, err := d.caps.Capture(url)
	if err != nil {
		d.log.WithError(err).Debug("capability capture failed", "url", url)
		return access.Capability{}
	}
	return cap
}

func carve(files []string, importer media.Importer) (claimed, remaining []string) {
	for _, f := range files {
		if supports(importer, f) {
			claimed = append(claimed, f)
		} else {
			remaining = append(remaining, f)
		}
	}
	return claimed, remaining
}

func supports(importer media.Importer, url string) bool {
	ext := media.Ext(url)
	for _, t := range importer.SupportedTypes() {
		if t == ext {
			return true
		}
	}
	return false
}

func distinctSources(tracks []domain.Track) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range tracks {
		s := t.NormalizedSource()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// hoistAlbumTags moves ALBUM and ALBUMARTIST tags found on tracks up to the
// owning album, as its TITLE and ARTIST, and strips them from the track.
// Importers that only see per-file tags express album identity this way.
func hoistAlbumTags(result *Result) {
	albums := make(map[identity.ID]int, len(result.Albums))
	for i, a := range result.Albums {
		albums[a.ID] = i
	}

	for t := range result.Tracks {
		track := &result.Tracks[t]
		i, ok := albums[track.AlbumID]
		if !ok {
			continue
		}
		album := &result.Albums[i]
		if v, found := track.Meta.Get(metadata.KeyAlbum); found {
			if !album.Meta.Has(metadata.KeyTitle) {
				album.Meta.Set(metadata.KeyTitle, v)
			}
			track.Meta.Delete(metadata.KeyAlbum)
		}
		if v, found := track.Meta.Get(metadata.KeyAlbumArtist); found {
			if !album.Meta.Has(metadata.KeyArtist) {
				album.Meta.Set(metadata.KeyArtist, v)
			}
			track.Meta.Delete(metadata.KeyAlbumArtist)
		}
	}
}
