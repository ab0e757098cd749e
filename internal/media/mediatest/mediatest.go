// Package mediatest provides configurable plugin doubles for tests of the
// discovery pipeline.
package mediatest

import (
	"context"
	"image"
	"sync"

	"github.com/ariaplayer/aria-core/internal/domain"
	"github.com/ariaplayer/aria-core/internal/media"
	"github.com/ariaplayer/aria-core/internal/metadata"
)

// Importer is a configurable media.Importer double.
type Importer struct {
	ImporterName string
	Types        []string

	// ImportFunc handles Import when set; otherwise Import returns empty
	// results and Err.
	ImportFunc func(ctx context.Context, url string) ([]domain.Album, []domain.Track, error)
	Err        error

	mu       sync.Mutex
	imported []string
}

func (i *Importer) Name() string             { return i.ImporterName }
func (i *Importer) SupportedTypes() []string { return i.Types }

func (i *Importer) Import(ctx context.Context, url string, _ media.Tracer) ([]domain.Album, []domain.Track, error) {
	i.mu.Lock()
	i.imported = append(i.imported, url)
	i.mu.Unlock()
	if i.ImportFunc != nil {
		return i.ImportFunc(ctx, url)
	}
	return nil, nil, i.Err
}

// Imported returns the urls Import was called with, in call order.
func (i *Importer) Imported() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]string, len(i.imported))
	copy(out, i.imported)
	return out
}

// Grabber is a configurable media.MetadataGrabber double.
type Grabber struct {
	GrabberName string
	Types       []string

	GrabFunc func(ctx context.Context, url string) (metadata.Metadata, error)
	Err      error

	mu      sync.Mutex
	grabbed []string
}

func (g *Grabber) Name() string             { return g.GrabberName }
func (g *Grabber) SupportedTypes() []string { return g.Types }

func (g *Grabber) Grab(ctx context.Context, url string, _ media.Tracer) (metadata.Metadata, error) {
	g.mu.Lock()
	g.grabbed = append(g.grabbed, url)
	g.mu.Unlock()
	if g.GrabFunc != nil {
		return g.GrabFunc(ctx, url)
	}
	return metadata.New(), g.Err
}

// Grabbed returns the urls Grab was called with, in call order.
func (g *Grabber) Grabbed() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.grabbed))
	copy(out, g.grabbed)
	return out
}

// ArtworkLoader is a configurable media.ArtworkLoader double.
type ArtworkLoader struct {
	LoaderName string
	Types      []string

	Image image.Image
	Err   error
}

func (l *ArtworkLoader) Name() string             { return l.LoaderName }
func (l *ArtworkLoader) SupportedTypes() []string { return l.Types }

func (l *ArtworkLoader) LoadCover(context.Context, string, media.Tracer) (image.Image, error) {
	return l.Image, l.Err
}

// Tracer records Add/Remove calls and the set of currently traced urls.
type Tracer struct {
	mu     sync.Mutex
	active map[string]int
	adds   int
}

// NewTracer creates an empty recording tracer.
func NewTracer() *Tracer {
	return &Tracer{active: make(map[string]int)}
}

func (t *Tracer) Add(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active[url]++
	t.adds++
}

func (t *Tracer) Remove(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active[url] > 1 {
		t.active[url]--
		return
	}
	delete(t.active, url)
}

// Active returns the number of urls currently traced.
func (t *Tracer) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

// Adds returns the total number of Add calls.
func (t *Tracer) Adds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.adds
}
