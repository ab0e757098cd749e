package domain

import (
	"github.com/ariaplayer/aria-core/internal/identity"
	"github.com/ariaplayer/aria-core/internal/metadata"
)

// Album is a logical grouping of tracks sharing title and artist. An album
// exists only while at least one track references it; consolidation prunes
// the rest. Album identifiers are time-ordered, so the natural identifier
// order approximates creation order and the older album wins a merge.
type Album struct {
	ID    identity.ID       `json:"id"`
	Meta  metadata.Metadata `json:"metadata,omitempty"`
	Cover *CoverImage       `json:"cover,omitempty"`
}

// CoverImage is an album's cover blob together with its blurhash
// placeholder, ready to render before the blob is decoded.
type CoverImage struct {
	Format   string `json:"format"`
	BlurHash string `json:"blurhash,omitempty"`
	Data     []byte `json:"data"`
}

// NewAlbum creates an empty album with a time-ordered identifier.
func NewAlbum() (Album, error) {
	id, err := identity.NewTimeOrdered()
	if err != nil {
		return Album{}, err
	}
	return Album{ID: id, Meta: metadata.New()}, nil
}

// Clone returns an independent copy, including metadata. The cover blob is
// shared: covers are immutable once attached.
func (a Album) Clone() Album {
	a.Meta = a.Meta.Clone()
	return a
}

// Title returns the album's TITLE tag, if any.
func (a Album) Title() (string, bool) {
	return a.Meta.Get(metadata.KeyTitle)
}

// Artist returns the album's ARTIST tag, if any.
func (a Album) Artist() (string, bool) {
	return a.Meta.Get(metadata.KeyArtist)
}
