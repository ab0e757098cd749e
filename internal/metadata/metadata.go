// Package metadata provides the tag container shared by tracks and albums.
// Keys are canonical uppercase strings; every key maps to a single value.
package metadata

import (
	"maps"

	"github.com/ariaplayer/aria-core/internal/normalize"
)

// Canonical keys. Importers and grabbers may emit any key; these are the ones
// the consolidation pipeline gives meaning to.
const (
	KeyTitle        = "TITLE"
	KeyArtist       = "ARTIST"
	KeyAlbum        = "ALBUM"
	KeyAlbumArtist  = "ALBUMARTIST"
	KeyTrackNumber  = "TRACKNUMBER"
	KeyDiscNumber   = "DISCNUMBER"
	KeyISRC         = "ISRC"
	KeyTotalDiscs   = "TOTALDISCS"
	KeyTotalTracks  = "TOTALTRACKS"
	KeyDiscTotal    = "DISCTOTAL"
	KeyTrackTotal   = "TRACKTOTAL"
	KeyEncoder      = "ENCODER"
	KeyOrganization = "ORGANIZATION"
	KeyDate         = "DATE"
	KeyYear         = "YEAR"
)

// Metadata maps canonical uppercase keys to single string values.
type Metadata map[string]string

// New creates an empty container.
func New() Metadata {
	return make(Metadata)
}

// Get returns the value for a key. The key is canonicalized before lookup.
func (m Metadata) Get(key string) (string, bool) {
	v, ok := m[normalize.Key(key)]
	return v, ok
}

// Set stores a value under the canonical form of key. Empty values are
// ignored: a tag with no content carries no information worth merging.
func (m Metadata) Set(key, value string) {
	value = normalize.Value(value)
	if value == "" {
		return
	}
	m[normalize.Key(key)] = value
}

// Delete removes a key.
func (m Metadata) Delete(key string) {
	delete(m, normalize.Key(key))
}

// Has reports whether a key is present.
func (m Metadata) Has(key string) bool {
	_, ok := m[normalize.Key(key)]
	return ok
}

// Merge folds other into m. Existing values win over incoming ones: only
// keys m lacks are copied. This is the rule everywhere in the pipeline -
// a merge winner keeps its own values, and grabbed metadata fills only the
// keys a track is missing. Incoming keys and values are canonicalized, so
// a container built as a map literal merges the same as one built with Set.
func (m Metadata) Merge(other Metadata) {
	for k, v := range other {
		k = normalize.Key(k)
		v = normalize.Value(v)
		if v == "" {
			continue
		}
		if _, ok := m[k]; !ok {
			m[k] = v
		}
	}
}

// Clone returns an independent copy. Cloning nil yields an empty container
// so callers can mutate the result unconditionally.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return New()
	}
	return maps.Clone(m)
}

// Equal reports whether two containers hold the same keys and values.
func (m Metadata) Equal(other Metadata) bool {
	return maps.Equal(m, other)
}

// Len returns the number of keys.
func (m Metadata) Len() int {
	return len(m)
}
