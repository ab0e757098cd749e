package domain

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/ariaplayer/aria-core/internal/identity"
)

// PlaylistItem is one entry of a playlist. The item has its own identity so
// that the entry survives its track being replaced by a merge: the merge
// remaps TrackID in place and the item (and its position) stays put.
type PlaylistItem struct {
	ID      string      `json:"id"`
	TrackID identity.ID `json:"track_id"`
}

// Playlist is an ordered list of playlist items. Manually curated playlists
// are persisted with the shelf; album-derived playlists are recomputed on
// read and never persisted.
type Playlist struct {
	ID    string         `json:"id"`
	Title string         `json:"title"`
	Items []PlaylistItem `json:"items"`
}

// NewPlaylist creates an empty manual playlist.
// Playlist ids are prefixed nanoids (e.g. "pl-V1StGXR8_Z5jdHi6B-myT"):
// compact, URL-friendly, and self-describing in logs.
func NewPlaylist(title string) (Playlist, error) {
	id, err := gonanoid.New()
	if err != nil {
		return Playlist{}, fmt.Errorf("generate playlist id: %w", err)
	}
	return Playlist{ID: "pl-" + id, Title: title}, nil
}

// Append adds a track to the end of the playlist.
func (p *Playlist) Append(trackID identity.ID) error {
	id, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("generate playlist item id: %w", err)
	}
	p.Items = append(p.Items, PlaylistItem{ID: "pli-" + id, TrackID: trackID})
	return nil
}

// Clone returns an independent copy of the playlist.
func (p Playlist) Clone() Playlist {
	items := make([]PlaylistItem, len(p.Items))
	copy(items, p.Items)
	p.Items = items
	return p
}

// Remap replaces every item's TrackID through the given identity map,
// following chains (a loser may itself have lost to a later winner).
// Item count and order are unchanged.
func (p *Playlist) Remap(ids map[identity.ID]identity.ID) {
	for i := range p.Items {
		p.Items[i].TrackID = Resolve(ids, p.Items[i].TrackID)
	}
}

// Resolve follows an id through a remap table until it reaches a surviving
// id. Returns the input unchanged when it was never remapped.
func Resolve(ids map[identity.ID]identity.ID, id identity.ID) identity.ID {
	for {
		next, ok := ids[id]
		if !ok {
			return id
		}
		id = next
	}
}
