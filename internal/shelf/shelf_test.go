package shelf

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariaplayer/aria-core/internal/access"
	"github.com/ariaplayer/aria-core/internal/consolidate"
	"github.com/ariaplayer/aria-core/internal/discoverlog"
	"github.com/ariaplayer/aria-core/internal/domain"
	"github.com/ariaplayer/aria-core/internal/identity"
	"github.com/ariaplayer/aria-core/internal/metadata"
)

func newAlbum(t *testing.T, tags map[string]string) domain.Album {
	t.Helper()
	a, err := domain.NewAlbum()
	require.NoError(t, err)
	for k, v := range tags {
		a.Meta.Set(k, v)
	}
	return a
}

func newTrack(t *testing.T, source string, start, end domain.TimeCode, albumID identity.ID, tags map[string]string) domain.Track {
	t.Helper()
	tr, err := domain.NewTrack(source, start, end, albumID)
	require.NoError(t, err)
	for k, v := range tags {
		tr.Meta.Set(k, v)
	}
	return tr
}

func shelfWith(t *testing.T, albums []domain.Album, tracks []domain.Track) *Shelf {
	t.Helper()
	s := Empty()
	for _, a := range albums {
		s.Albums[a.ID] = a
	}
	for _, tr := range tracks {
		s.Tracks[tr.ID] = tr
	}
	return s
}

// trackShape is a track reduced to its identity-free content, for comparing
// merge outcomes across different survivor ids.
type trackShape struct {
	source     string
	start, end domain.TimeCode
	title      string
}

func shapes(s *Shelf) []trackShape {
	var out []trackShape
	for _, tr := range s.Tracks {
		title, _ := tr.Meta.Get(metadata.KeyTitle)
		out = append(out, trackShape{tr.Source, tr.Start, tr.End, title})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].source != out[j].source {
			return out[i].source < out[j].source
		}
		return out[i].start < out[j].start
	})
	return out
}

func TestMerge_WithEmptyShelfIsNoOp(t *testing.T) {
	album := newAlbum(t, map[string]string{metadata.KeyTitle: "Pastel Blues"})
	s := shelfWith(t,
		[]domain.Album{album},
		[]domain.Track{newTrack(t, "/m/01.flac", 0, 180000, album.ID, map[string]string{metadata.KeyTitle: "Sinnerman"})},
	)

	merged := s.Merge(Empty(), consolidate.DefaultOptions())

	assert.Equal(t, shapes(s), shapes(merged))
	assert.Len(t, merged.Albums, 1)

	// The other direction too.
	merged = Empty().Merge(s, consolidate.DefaultOptions())
	assert.Equal(t, shapes(s), shapes(merged))
}

func TestMerge_CommutativeUpToIdentity(t *testing.T) {
	albumA := newAlbum(t, map[string]string{metadata.KeyTitle: "Pastel Blues", metadata.KeyArtist: "Nina Simone"})
	a := shelfWith(t,
		[]domain.Album{albumA},
		[]domain.Track{newTrack(t, "/m/album.flac", 0, 180000, albumA.ID, map[string]string{metadata.KeyTitle: "Sinnerman"})},
	)

	albumB := newAlbum(t, map[string]string{metadata.KeyTitle: "Pastel Blues", metadata.KeyArtist: "Nina Simone"})
	b := shelfWith(t,
		[]domain.Album{albumB},
		[]domain.Track{
			newTrack(t, "/m/album.flac", 100, 179900, albumB.ID, map[string]string{metadata.KeyTitle: "Sinnerman"}),
			newTrack(t, "/m/other.flac", 0, domain.Unset, albumB.ID, map[string]string{metadata.KeyTitle: "Ain't Got No"}),
		},
	)

	ab := a.Merge(b, consolidate.DefaultOptions())
	ba := b.Merge(a, consolidate.DefaultOptions())

	assert.Equal(t, shapes(ab), shapes(ba))
	assert.Len(t, ab.Tracks, 2)
	assert.Len(t, ab.Albums, 1)
}

func TestMerge_DoesNotModifyInputs(t *testing.T) {
	album := newAlbum(t, map[string]string{metadata.KeyTitle: "X"})
	s := shelfWith(t, []domain.Album{album},
		[]domain.Track{newTrack(t, "/m/1.flac", 0, 1000, album.ID, nil)})
	other := shelfWith(t, []domain.Album{album.Clone()},
		[]domain.Track{newTrack(t, "/m/1.flac", 100, 1100, album.ID, nil)})

	_ = s.Merge(other, consolidate.DefaultOptions())

	assert.Len(t, s.Tracks, 1)
	assert.Len(t, other.Tracks, 1)
}

func TestMerge_FinerTrackWins_EndToEnd(t *testing.T) {
	// First pass: a cue-derived track spanning 0:00-3:00.
	albumA := newAlbum(t, map[string]string{metadata.KeyTitle: "Album", metadata.KeyArtist: "X"})
	coarse := newTrack(t, "/m/album.flac", 0, 180000, albumA.ID, map[string]string{
		metadata.KeyTitle: "estimate", metadata.KeyEncoder: "EAC",
	})
	current := shelfWith(t, []domain.Album{albumA}, []domain.Track{coarse})

	// Later, finer-grained re-scan: 0:00-2:59.8.
	albumB := newAlbum(t, map[string]string{metadata.KeyTitle: "Album", metadata.KeyArtist: "X"})
	fine := newTrack(t, "/m/album.flac", 0, 179800, albumB.ID, map[string]string{
		metadata.KeyTitle: "precise",
	})
	batch := shelfWith(t, []domain.Album{albumB}, []domain.Track{fine})

	merged := current.Merge(batch, consolidate.DefaultOptions())

	require.Len(t, merged.Tracks, 1)
	var survivor domain.Track
	for _, tr := range merged.Tracks {
		survivor = tr
	}
	assert.Equal(t, domain.TimeCode(179800), survivor.End, "finer bound survives")
	title, _ := survivor.Meta.Get(metadata.KeyTitle)
	assert.Equal(t, "precise", title, "finer track's values win conflicts")
	encoder, _ := survivor.Meta.Get(metadata.KeyEncoder)
	assert.Equal(t, "EAC", encoder, "union of metadata")

	require.Len(t, merged.Albums, 1, "albums consolidated and loser pruned")
}

func TestMerge_RescanKeepsAlbumIdentity(t *testing.T) {
	// A rescan reimports the same file under a fresh album. The established
	// album must absorb the new one, not the other way around: album ids are
	// time-ordered and the older id is the stable handle external references
	// hold.
	established := newAlbum(t, map[string]string{
		metadata.KeyTitle: "Album", metadata.KeyArtist: "X", metadata.KeyOrganization: "Verve",
	})
	coarse := newTrack(t, "/m/album.flac", 0, 180000, established.ID, nil)
	current := shelfWith(t, []domain.Album{established}, []domain.Track{coarse})

	reminted := newAlbum(t, map[string]string{metadata.KeyTitle: "Album", metadata.KeyArtist: "X"})
	fine := newTrack(t, "/m/album.flac", 0, 179800, reminted.ID, nil)
	batch := shelfWith(t, []domain.Album{reminted}, []domain.Track{fine})

	merged := current.Merge(batch, consolidate.DefaultOptions())

	require.Len(t, merged.Albums, 1)
	survivor, ok := merged.Albums[established.ID]
	require.True(t, ok, "established album id survives the rescan")
	org, _ := survivor.Meta.Get(metadata.KeyOrganization)
	assert.Equal(t, "Verve", org, "accumulated album metadata kept")
	for _, tr := range merged.Tracks {
		assert.Equal(t, established.ID, tr.AlbumID)
	}
}

func TestMerge_PlaylistSurvivesTrackMerge(t *testing.T) {
	album := newAlbum(t, map[string]string{metadata.KeyTitle: "Album", metadata.KeyArtist: "X"})
	loserTrack := newTrack(t, "/m/album.flac", 0, domain.Unset, album.ID, nil)
	keeper := newTrack(t, "/m/other.flac", 0, domain.Unset, album.ID, nil)
	current := shelfWith(t, []domain.Album{album}, []domain.Track{loserTrack, keeper})

	pl, err := domain.NewPlaylist("favorites")
	require.NoError(t, err)
	require.NoError(t, pl.Append(loserTrack.ID))
	require.NoError(t, pl.Append(keeper.ID))
	current.Playlists = []domain.Playlist{pl}

	albumB := newAlbum(t, map[string]string{metadata.KeyTitle: "Album", metadata.KeyArtist: "X"})
	winnerTrack := newTrack(t, "/m/album.flac", 0, 179800, albumB.ID, nil)
	batch := shelfWith(t, []domain.Album{albumB}, []domain.Track{winnerTrack})

	merged := current.Merge(batch, consolidate.DefaultOptions())

	require.Len(t, merged.Playlists, 1)
	items := merged.Playlists[0].Items
	require.Len(t, items, 2, "item count unchanged")
	assert.Equal(t, winnerTrack.ID, items[0].TrackID, "item repointed to the winner")
	assert.Equal(t, keeper.ID, items[1].TrackID, "untouched item stays")

	// Every item resolves on the merged shelf.
	for _, item := range items {
		_, ok := merged.Tracks[item.TrackID]
		assert.True(t, ok)
	}
}

func TestConsolidateMetadata_FixedPoint(t *testing.T) {
	album := newAlbum(t, nil)
	s := shelfWith(t, []domain.Album{album}, []domain.Track{
		newTrack(t, "/m/01.flac", 0, domain.Unset, album.ID, map[string]string{
			metadata.KeyArtist: "Nina Simone", metadata.KeyTitle: "One", metadata.KeyTrackNumber: "1",
		}),
		newTrack(t, "/m/02.flac", 0, domain.Unset, album.ID, map[string]string{
			metadata.KeyArtist: "Nina Simone", metadata.KeyTitle: "Two", metadata.KeyTrackNumber: "2",
		}),
	})

	once := s.ConsolidateMetadata()
	artist, _ := once.Albums[album.ID].Artist()
	assert.Equal(t, "Nina Simone", artist)

	twice := once.ConsolidateMetadata()
	assert.Equal(t, shapes(once), shapes(twice))
	assert.True(t, once.Albums[album.ID].Meta.Equal(twice.Albums[album.ID].Meta))
}

func TestConsolidateMetadata_PrunesUnreferencedAlbums(t *testing.T) {
	referenced := newAlbum(t, nil)
	orphan := newAlbum(t, map[string]string{metadata.KeyTitle: "orphan"})
	s := shelfWith(t, []domain.Album{referenced, orphan},
		[]domain.Track{newTrack(t, "/m/01.flac", 0, domain.Unset, referenced.ID, nil)})

	out := s.ConsolidateMetadata()

	assert.Contains(t, out.Albums, referenced.ID)
	assert.NotContains(t, out.Albums, orphan.ID)
}

func TestSortedTracks_Order(t *testing.T) {
	first := newAlbum(t, map[string]string{metadata.KeyTitle: "Alpha"})
	second := newAlbum(t, map[string]string{metadata.KeyTitle: "Beta"})
	untitled := newAlbum(t, nil)

	t1 := newTrack(t, "/m/a2.flac", 0, domain.Unset, first.ID, map[string]string{metadata.KeyTrackNumber: "2"})
	t2 := newTrack(t, "/m/a1.flac", 0, domain.Unset, first.ID, map[string]string{metadata.KeyTrackNumber: "1"})
	t3 := newTrack(t, "/m/b.flac", 0, domain.Unset, second.ID, nil)
	t4 := newTrack(t, "/m/z.flac", 0, domain.Unset, untitled.ID, nil)
	t5 := newTrack(t, "/m/a9.flac", 0, domain.Unset, first.ID, nil) // no track number: after numbered ones

	s := shelfWith(t, []domain.Album{first, second, untitled}, []domain.Track{t1, t2, t3, t4, t5})

	got := s.SortedTracks()
	require.Len(t, got, 5)
	assert.Equal(t, t2.ID, got[0].ID)
	assert.Equal(t, t1.ID, got[1].ID)
	assert.Equal(t, t5.ID, got[2].ID)
	assert.Equal(t, t3.ID, got[3].ID)
	assert.Equal(t, t4.ID, got[4].ID, "untitled album sorts last")
}

func TestSortedAlbums_TitleThenID(t *testing.T) {
	alpha := newAlbum(t, map[string]string{metadata.KeyTitle: "Alpha"})
	beta := newAlbum(t, map[string]string{metadata.KeyTitle: "Beta"})
	untitled := newAlbum(t, nil)

	s := shelfWith(t, []domain.Album{beta, untitled, alpha}, []domain.Track{
		newTrack(t, "/m/1.flac", 0, domain.Unset, alpha.ID, nil),
		newTrack(t, "/m/2.flac", 0, domain.Unset, beta.ID, nil),
		newTrack(t, "/m/3.flac", 0, domain.Unset, untitled.ID, nil),
	})

	got := s.SortedAlbums()
	require.Len(t, got, 3)
	assert.Equal(t, alpha.ID, got[0].ID)
	assert.Equal(t, beta.ID, got[1].ID)
	assert.Equal(t, untitled.ID, got[2].ID)
}

func TestActivate_RenewsAndSkips(t *testing.T) {
	dir := t.TempDir()
	alive := filepath.Join(dir, "alive.flac")
	require.NoError(t, os.WriteFile(alive, []byte("x"), 0o600))
	gone := filepath.Join(dir, "gone.flac")
	require.NoError(t, os.WriteFile(gone, []byte("x"), 0o600))

	s := Empty()
	capAlive, err := access.FileProvider{}.Capture(alive)
	require.NoError(t, err)
	capGone, err := access.FileProvider{}.Capture(gone)
	require.NoError(t, err)
	s.Log.Append(discoverlog.ActionImporting, alive, capAlive)
	s.Log.Append(discoverlog.ActionImporting, gone, capGone)

	require.NoError(t, os.Remove(gone))

	skipped := s.Activate()

	assert.Equal(t, []string{gone}, skipped)
	entry, ok := s.Log.Lookup(discoverlog.ActionImporting, alive)
	require.True(t, ok)
	assert.False(t, entry.Capability.IsZero())
}

func TestAlbumPlaylists_Derived(t *testing.T) {
	album := newAlbum(t, map[string]string{metadata.KeyTitle: "Pastel Blues"})
	t1 := newTrack(t, "/m/01.flac", 0, domain.Unset, album.ID, map[string]string{metadata.KeyTrackNumber: "1"})
	t2 := newTrack(t, "/m/02.flac", 0, domain.Unset, album.ID, map[string]string{metadata.KeyTrackNumber: "2"})
	s := shelfWith(t, []domain.Album{album}, []domain.Track{t2, t1})

	playlists := s.AlbumPlaylists()
	require.Len(t, playlists, 1)
	assert.Equal(t, "Pastel Blues", playlists[0].Title)
	require.Len(t, playlists[0].Items, 2)
	assert.Equal(t, t1.ID, playlists[0].Items[0].TrackID)
	assert.Equal(t, t2.ID, playlists[0].Items[1].TrackID)
}
