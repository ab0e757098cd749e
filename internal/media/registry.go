package media

import (
	"path/filepath"
	"strings"
)

// Registry holds the configured plugins in priority order. It is assembled
// once at startup and injected wherever plugins are needed; registration
// order decides which importer claims a contested extension.
type Registry struct {
	importers []Importer
	grabbers  []MetadataGrabber
	artwork   []ArtworkLoader
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// WithImporters appends importers and returns the registry for chaining.
func (r *Registry) WithImporters(imps ...Importer) *Registry {
	r.importers = append(r.importers, imps...)
	return r
}

// WithGrabbers appends metadata grabbers.
func (r *Registry) WithGrabbers(gs ...MetadataGrabber) *Registry {
	r.grabbers = append(r.grabbers, gs...)
	return r
}

// WithArtworkLoaders appends artwork loaders.
func (r *Registry) WithArtworkLoaders(ls ...ArtworkLoader) *Registry {
	r.artwork = append(r.artwork, ls...)
	return r
}

// Importers returns the registered importers in priority order.
func (r *Registry) Importers() []Importer {
	return r.importers
}

// ImporterFor returns the first importer claiming url's extension.
func (r *Registry) ImporterFor(url string) (Importer, bool) {
	ext := Ext(url)
	for _, imp := range r.importers {
		if claims(imp.SupportedTypes(), ext) {
			return imp, true
		}
	}
	return nil, false
}

// GrabbersFor returns every grabber claiming url's extension, in priority
// order. Unlike importers, all applicable grabbers run: each may know tags
// the others do not.
func (r *Registry) GrabbersFor(url string) []MetadataGrabber {
	ext := Ext(url)
	var out []MetadataGrabber
	for _, g := range r.grabbers {
		if claims(g.SupportedTypes(), ext) {
			out = append(out, g)
		}
	}
	return out
}

// ArtworkLoaderFor returns the first artwork loader claiming url's extension.
func (r *Registry) ArtworkLoaderFor(url string) (ArtworkLoader, bool) {
	ext := Ext(url)
	for _, l := range r.artwork {
		if claims(l.SupportedTypes(), ext) {
			return l, true
		}
	}
	return nil, false
}

// Ext returns url's lowercase extension without the leading dot.
func Ext(url string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(url), "."))
}

func claims(types []string, ext string) bool {
	for _, t := range types {
		if t == ext {
			return true
		}
	}
	return false
}
