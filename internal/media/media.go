// Package media defines the plugin contracts the discovery engine is built
// around. The engine itself knows nothing about concrete audio formats:
// importers turn files into track and album records, metadata grabbers
// supply tags from side-channel sources, and artwork loaders produce cover
// images. All plugins are selected by file extension through a Registry.
package media

import (
	"context"
	"image"

	"github.com/ariaplayer/aria-core/internal/domain"
	"github.com/ariaplayer/aria-core/internal/metadata"
)

// Tracer observes which urls a plugin is currently reading. Implementations
// must be cheap and must never fail or block: tracing is observability,
// not control flow.
type Tracer interface {
	Add(url string)
	Remove(url string)
}

// NoopTracer discards all trace events.
type NoopTracer struct{}

func (NoopTracer) Add(string)    {}
func (NoopTracer) Remove(string) {}

// Importer turns a media or index file into track and album records.
// A cue sheet importer, for example, yields one album and one track per
// indexed region; a plain audio importer yields one unbounded track.
type Importer interface {
	// Name identifies the importer in logs and discover errors.
	Name() string

	// SupportedTypes lists the file extensions this importer claims,
	// lowercase without the leading dot.
	SupportedTypes() []string

	// Import reads url and returns the records it describes. Every
	// returned track references one of the returned albums.
	Import(ctx context.Context, url string, tracer Tracer) ([]domain.Album, []domain.Track, error)
}

// MetadataGrabber supplies tags for a media url from a source the importer
// did not read, such as an embedded tag block or a sidecar file.
type MetadataGrabber interface {
	Name() string
	SupportedTypes() []string
	Grab(ctx context.Context, url string, tracer Tracer) (metadata.Metadata, error)
}

// ArtworkLoader extracts cover art for a media url.
type ArtworkLoader interface {
	Name() string
	SupportedTypes() []string
	LoadCover(ctx context.Context, url string, tracer Tracer) (image.Image, error)
}
