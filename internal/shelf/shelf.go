// Package shelf holds the aggregate the rest of the player relies on: every
// known album, track, and manual playlist, plus the discover log. A shelf is
// mutated only by replacing it with the result of Merge or
// ConsolidateMetadata; concurrent readers of a snapshot are always safe.
package shelf

import (
	"sort"
	"strconv"

	"github.com/ariaplayer/aria-core/internal/consolidate"
	"github.com/ariaplayer/aria-core/internal/discover"
	"github.com/ariaplayer/aria-core/internal/discoverlog"
	"github.com/ariaplayer/aria-core/internal/domain"
	"github.com/ariaplayer/aria-core/internal/identity"
	"github.com/ariaplayer/aria-core/internal/metadata"
)

// Shelf is the persisted aggregate. Invariants: every Track.AlbumID resolves
// to an album on the same shelf, every PlaylistItem.TrackID resolves to a
// track, and ids are unique.
type Shelf struct {
	Albums    map[identity.ID]domain.Album `json:"albums"`
	Tracks    map[identity.ID]domain.Track `json:"tracks"`
	Playlists []domain.Playlist            `json:"playlists,omitempty"`
	Log       *discoverlog.Log             `json:"log"`
}

// Empty creates a shelf with no records.
func Empty() *Shelf {
	return &Shelf{
		Albums: make(map[identity.ID]domain.Album),
		Tracks: make(map[identity.ID]domain.Track),
		Log:    discoverlog.New(),
	}
}

// FromDiscovery builds a batch shelf from one discovery pass. Albums no
// track references are dropped on the spot.
func FromDiscovery(result discover.Result) *Shelf {
	s := Empty()
	for _, a := range result.Albums {
		s.Albums[a.ID] = a
	}
	for _, t := range result.Tracks {
		s.Tracks[t.ID] = t
	}
	if result.Log != nil {
		s.Log.Merge(result.Log)
	}
	s.pruneUnreferencedAlbums()
	return s
}

// Clone returns a deep copy sharing nothing mutable with the original.
func (s *Shelf) Clone() *Shelf {
	c := Empty()
	for id, a := range s.Albums {
		c.Albums[id] = a.Clone()
	}
	for id, t := range s.Tracks {
		c.Tracks[id] = t.Clone()
	}
	c.Playlists = make([]domain.Playlist, len(s.Playlists))
	for i, p := range s.Playlists {
		c.Playlists[i] = p.Clone()
	}
	c.Log = s.Log.Clone()
	return c
}

// Merge folds other into s and returns the combined shelf as a new value;
// neither input is modified. Duplicate tracks collapse to their winners,
// albums describing the same release collapse likewise, manual playlist
// items are repointed through the track winners, and the logs union.
func (s *Shelf) Merge(other *Shelf, opts consolidate.Options) *Shelf {
	merged := s.Clone()
	incoming := other.Clone()

	// Pool everything. Id collisions across shelves mean the same record.
	for id, a := range incoming.Albums {
		if _, ok := merged.Albums[id]; !ok {
			merged.Albums[id] = a
		}
	}
	for id, t := range incoming.Tracks {
		if _, ok := merged.Tracks[id]; !ok {
			merged.Tracks[id] = t
		}
	}
	merged.Playlists = mergePlaylists(merged.Playlists, incoming.Playlists)
	merged.Log.Merge(incoming.Log)

	trackRemap := merged.consolidateTracks()
	merged.consolidateAlbums(opts)
	merged.pruneUnreferencedAlbums()

	for i := range merged.Playlists {
		merged.Playlists[i].Remap(trackRemap)
	}
	return merged
}

// consolidateTracks pairwise-merges the track pool until no pair merges,
// returning the loser-to-winner remap table. Worst case O(n²) pair tests
// per pass; fine at personal-library batch sizes.
func (s *Shelf) consolidateTracks() map[identity.ID]identity.ID {
	remap := make(map[identity.ID]identity.ID)
	tracks := s.sortedTrackSlice()

	for {
		merged := false
	scan:
		for i := 0; i < len(tracks); i++ {
			for j := i + 1; j < len(tracks); j++ {
				winner, loser, ok := consolidate.MergeTracks(tracks[i], tracks[j])
				if !ok {
					continue
				}
				remap[loser.ID] = winner.ID
				tracks[i] = winner
				tracks = append(tracks[:j], tracks[j+1:]...)
				merged = true
				break scan
			}
		}
		if !merged {
			break
		}
	}

	s.Tracks = make(map[identity.ID]domain.Track, len(tracks))
	for _, t := range tracks {
		s.Tracks[t.ID] = t
	}
	return remap
}

// consolidateAlbums pairwise-merges albums describing the same release and
// repoints tracks at the winners.
func (s *Shelf) consolidateAlbums(opts consolidate.Options) {
	albums := s.sortedAlbumSlice()

	for {
		merged := false
	scan:
		for i := 0; i < len(albums); i++ {
			for j := i + 1; j < len(albums); j++ {
				winner, loser, ok := consolidate.MergeAlbums(
					albums[i], s.TracksFor(albums[i].ID),
					albums[j], s.TracksFor(albums[j].ID),
					opts,
				)
				if !ok {
					continue
				}
				for id, t := range s.Tracks {
					if t.AlbumID == loser.ID {
						t.AlbumID = winner.ID
						s.Tracks[id] = t
					}
				}
				albums[i] = winner
				albums = append(albums[:j], albums[j+1:]...)
				merged = true
				break scan
			}
		}
		if !merged {
			break
		}
	}

	s.Albums = make(map[identity.ID]domain.Album, len(albums))
	for _, a := range albums {
		s.Albums[a.ID] = a
	}
}

// ConsolidateMetadata hoists every album's common track metadata onto the
// album and prunes unreferenced albums. Returns a new shelf; re-applying it
// without new divergence is a no-op.
func (s *Shelf) ConsolidateMetadata() *Shelf {
	out := s.Clone()
	out.pruneUnreferencedAlbums()

	for id, album := range out.Albums {
		tracks := out.TracksFor(id)
		hoisted, hoistedTracks := consolidate.Hoist(album, tracks)
		out.Albums[id] = hoisted
		for _, t := range hoistedTracks {
			out.Tracks[t.ID] = t
		}
	}
	return out
}

func (s *Shelf) pruneUnreferencedAlbums() {
	referenced := make(map[identity.ID]struct{}, len(s.Albums))
	for _, t := range s.Tracks {
		referenced[t.AlbumID] = struct{}{}
	}
	for id := range s.Albums {
		if _, ok := referenced[id]; !ok {
			delete(s.Albums, id)
		}
	}
}

// TracksFor returns the album's tracks in stable sorted order.
func (s *Shelf) TracksFor(albumID identity.ID) []domain.Track {
	var out []domain.Track
	for _, t := range s.Tracks {
		if t.AlbumID == albumID {
			out = append(out, t)
		}
	}
	s.sortTracks(out)
	return out
}

// SortedTracks returns every track ordered for display: album title first
// (untitled albums last), then disc number, track number (missing numbers
// last), source, and start time.
func (s *Shelf) SortedTracks() []domain.Track {
	out := s.sortedTrackSlice()
	s.sortTracks(out)
	return out
}

// SortedAlbums returns every album ordered by title (untitled last), ties
// broken by identifier.
func (s *Shelf) SortedAlbums() []domain.Album {
	out := s.sortedAlbumSlice()
	sort.Slice(out, func(i, j int) bool {
		ti, okI := out[i].Title()
		tj, okJ := out[j].Title()
		if okI != okJ {
			return okI
		}
		if okI && ti != tj {
			return ti < tj
		}
		return out[i].ID.Less(out[j].ID)
	})
	return out
}

func (s *Shelf) sortTracks(tracks []domain.Track) {
	sort.Slice(tracks, func(i, j int) bool {
		a, b := tracks[i], tracks[j]

		ta, okA := s.albumTitle(a.AlbumID)
		tb, okB := s.albumTitle(b.AlbumID)
		if okA != okB {
			return okA
		}
		if okA && ta != tb {
			return ta < tb
		}
		if r, done := compareNumberTag(a, b, metadata.KeyDiscNumber); done {
			return r
		}
		if r, done := compareNumberTag(a, b, metadata.KeyTrackNumber); done {
			return r
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Start < b.Start
	})
}

func (s *Shelf) albumTitle(id identity.ID) (string, bool) {
	album, ok := s.Albums[id]
	if !ok {
		return "", false
	}
	return album.Title()
}

// compareNumberTag orders two tracks by a numeric tag, missing or
// unparseable values last. done is false on a tie.
func compareNumberTag(a, b domain.Track, key string) (result, done bool) {
	na, okA := numberTag(a, key)
	nb, okB := numberTag(b, key)
	if okA != okB {
		return okA, true
	}
	if okA && na != nb {
		return na < nb, true
	}
	return false, false
}

func numberTag(t domain.Track, key string) (int, bool) {
	v, ok := t.Meta.Get(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Activate renews the capability of every log entry, asserting each still
// matches its url. Entries that fail to renew are skipped and reported;
// the rest are refreshed in place.
func (s *Shelf) Activate() (skipped []string) {
	for _, entry := range s.Log.Entries() {
		if entry.Capability.IsZero() {
			skipped = append(skipped, entry.URL)
			continue
		}
		renewed, err := entry.Capability.Renew()
		if err != nil || !renewed.Matches(entry.URL) {
			skipped = append(skipped, entry.URL)
			continue
		}
		entry.Capability = renewed
		s.Log.Put(entry)
	}
	return skipped
}

// AlbumPlaylists derives one playlist per album, in album order. Derived
// playlists are recomputed on every call and never persisted.
func (s *Shelf) AlbumPlaylists() []domain.Playlist {
	albums := s.SortedAlbums()
	out := make([]domain.Playlist, 0, len(albums))
	for _, album := range albums {
		title, _ := album.Title()
		pl := domain.Playlist{ID: "alp-" + album.ID.String(), Title: title}
		for _, t := range s.TracksFor(album.ID) {
			pl.Items = append(pl.Items, domain.PlaylistItem{
				ID:      "alpi-" + t.ID.String(),
				TrackID: t.ID,
			})
		}
		out = append(out, pl)
	}
	return out
}

func (s *Shelf) sortedTrackSlice() []domain.Track {
	out := make([]domain.Track, 0, len(s.Tracks))
	for _, t := range s.Tracks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Less(out[j].ID) })
	return out
}

func (s *Shelf) sortedAlbumSlice() []domain.Album {
	out := make([]domain.Album, 0, len(s.Albums))
	for _, a := range s.Albums {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Less(out[j].ID) })
	return out
}

// mergePlaylists unions two manual playlist sets by id; the incoming copy
// wins when both shelves carry the same playlist.
func mergePlaylists(current, incoming []domain.Playlist) []domain.Playlist {
	index := make(map[string]int, len(current))
	out := make([]domain.Playlist, len(current))
	copy(out, current)
	for i, p := range out {
		index[p.ID] = i
	}
	for _, p := range incoming {
		if i, ok := index[p.ID]; ok {
			out[i] = p
		} else {
			out = append(out, p)
		}
	}
	return out
}
