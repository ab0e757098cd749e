// Package domain contains the core records of the aria library engine.
// Records are value types: merge passes copy them into new collections
// instead of mutating shared instances, so an id-remap table built during a
// merge can be applied once to every referencing collection.
package domain

import (
	"github.com/ariaplayer/aria-core/internal/identity"
	"github.com/ariaplayer/aria-core/internal/metadata"
	"github.com/ariaplayer/aria-core/internal/normalize"
)

// Track is a playable time region within a source recording.
// (Source, Start, End) identifies the region; two tracks sharing a source
// with near-equal bounds denote the same recording reached through different
// import paths (cue sheet vs whole-file, full re-scan vs partial re-import).
type Track struct {
	ID      identity.ID       `json:"id"`
	Source  string            `json:"source"`
	Start   TimeCode          `json:"start"`
	End     TimeCode          `json:"end"`
	AlbumID identity.ID       `json:"album_id"`
	Meta    metadata.Metadata `json:"metadata,omitempty"`
}

// NewTrack creates a track for a region of source, owned by album.
func NewTrack(source string, start, end TimeCode, albumID identity.ID) (Track, error) {
	id, err := identity.New()
	if err != nil {
		return Track{}, err
	}
	return Track{
		ID:      id,
		Source:  normalize.URL(source),
		Start:   start,
		End:     end,
		AlbumID: albumID,
		Meta:    metadata.New(),
	}, nil
}

// NormalizedSource returns the canonical form of the track's source locator.
func (t Track) NormalizedSource() string {
	return normalize.URL(t.Source)
}

// Clone returns an independent copy, including metadata.
func (t Track) Clone() Track {
	t.Meta = t.Meta.Clone()
	return t
}

// Title returns the track's TITLE tag, if any.
func (t Track) Title() (string, bool) {
	return t.Meta.Get(metadata.KeyTitle)
}

// Position returns the track's TRACKNUMBER and DISCNUMBER tags as raw
// strings; empty when absent.
func (t Track) Position() (trackNumber, discNumber string) {
	trackNumber, _ = t.Meta.Get(metadata.KeyTrackNumber)
	discNumber, _ = t.Meta.Get(metadata.KeyDiscNumber)
	return trackNumber, discNumber
}
