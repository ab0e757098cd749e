// Package consolidate implements the record-level merge algorithms: track
// deduplication, album deduplication, and hoisting of metadata common to all
// of an album's tracks. The functions are pure over their inputs; callers
// apply the returned winners and remap references to the losers.
package consolidate

import (
	"github.com/ariaplayer/aria-core/internal/domain"
	"github.com/ariaplayer/aria-core/internal/metadata"
)

// TimeTolerance is the strict bound on how far two tracks' start (and end)
// times may drift apart and still describe the same recording. Cue sheets
// and tag-derived indexes round to different granularities; half a second
// absorbs that without conflating adjacent tracks.
const TimeTolerance domain.TimeCode = 500

// Options tunes the consolidation heuristics.
type Options struct {
	// ConflictKeys are the tags that block an album merge when two colliding
	// tracks disagree on one. They distinguish two pressings of the same
	// release, which share titles and artists but were ripped differently.
	ConflictKeys []string
}

// DefaultOptions returns the stock conflict-key set.
func DefaultOptions() Options {
	return Options{
		ConflictKeys: []string{
			metadata.KeyEncoder,
			metadata.KeyOrganization,
			metadata.KeyDate,
			metadata.KeyYear,
		},
	}
}

// perTrackKeys never hoist to the album: they are meaningful per track even
// when a whole album happens to agree on them.
var perTrackKeys = []string{
	metadata.KeyTrackNumber,
	metadata.KeyDiscNumber,
	metadata.KeyISRC,
	metadata.KeyTotalDiscs,
	metadata.KeyTotalTracks,
	metadata.KeyDiscTotal,
	metadata.KeyTrackTotal,
}

// MergeTracks reports whether a and b describe the same recording and, if
// so, returns the surviving track and the discarded one. The winner carries
// both tracks' metadata, its own values winning conflicts. The caller must
// remap every reference to the loser's id.
//
// Two tracks match when they share a source and both bound pairs are within
// TimeTolerance (an unset bound matches anything). The shorter duration wins:
// a precisely cut track beats an estimate, and an unbounded track is the
// loosest estimate of all. Equal durations break to the numerically smaller
// owning-album identifier, then the smaller track identifier.
func MergeTracks(a, b domain.Track) (winner, loser domain.Track, ok bool) {
	if a.NormalizedSource() != b.NormalizedSource() {
		return domain.Track{}, domain.Track{}, false
	}
	if !boundsNear(a.Start, b.Start) || !boundsNear(a.End, b.End) {
		return domain.Track{}, domain.Track{}, false
	}

	winner, loser = a, b
	if trackLess(b, a) {
		winner, loser = b, a
	}

	winner = winner.Clone()
	winner.Meta.Merge(loser.Meta)
	return winner, loser, true
}

func boundsNear(a, b domain.TimeCode) bool {
	if !a.IsSet() || !b.IsSet() {
		return true
	}
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < TimeTolerance
}

// trackLess orders merge candidates by preference: shorter duration first,
// unbounded last, ties to the smaller album then track identifier.
func trackLess(a, b domain.Track) bool {
	da, boundedA := domain.Span(a.Start, a.End)
	db, boundedB := domain.Span(b.Start, b.End)

	switch {
	case boundedA != boundedB:
		return boundedA
	case boundedA && da != db:
		return da < db
	case a.AlbumID != b.AlbumID:
		return a.AlbumID.Less(b.AlbumID)
	default:
		return a.ID.Less(b.ID)
	}
}

// MergeAlbums reports whether two albums are the same release and, if so,
// returns the survivor. The caller repoints the loser's tracks to the winner
// and discards the loser.
//
// Albums match when both carry an equal TITLE and their artists agree; an
// album without an ARTIST tag falls back to the artist its tracks agree on.
// The merge is refused when any track pair across the two albums collides on
// position or title while disagreeing on a conflict key, since that pattern
// marks two distinct pressings of one release.
func MergeAlbums(a domain.Album, tracksA []domain.Track, b domain.Album, tracksB []domain.Track, opts Options) (winner, loser domain.Album, ok bool) {
	titleA, hasA := a.Title()
	titleB, hasB := b.Title()
	if !hasA || !hasB || titleA != titleB {
		return domain.Album{}, domain.Album{}, false
	}

	artistA, hasA := effectiveArtist(a, tracksA)
	artistB, hasB := effectiveArtist(b, tracksB)
	if !hasA || !hasB || artistA != artistB {
		return domain.Album{}, domain.Album{}, false
	}

	for _, ta := range tracksA {
		for _, tb := range tracksB {
			if (samePosition(ta, tb) || sameTitle(ta, tb)) && conflictKeyDiffers(ta, tb, opts.ConflictKeys) {
				return domain.Album{}, domain.Album{}, false
			}
		}
	}

	winner, loser = a, b
	if b.ID.Less(a.ID) {
		winner, loser = b, a
	}

	winner = winner.Clone()
	winner.Meta.Merge(loser.Meta)
	if winner.Cover == nil {
		winner.Cover = loser.Cover
	}
	return winner, loser, true
}

// effectiveArtist returns the album's ARTIST tag, falling back to the value
// all of its tracks agree on.
func effectiveArtist(album domain.Album, tracks []domain.Track) (string, bool) {
	if artist, ok := album.Artist(); ok {
		return artist, true
	}
	return commonValue(tracks, metadata.KeyArtist)
}

// commonValue returns the value every track carries for key, if they all
// carry the same one.
func commonValue(tracks []domain.Track, key string) (string, bool) {
	if len(tracks) == 0 {
		return "", false
	}
	first, ok := tracks[0].Meta.Get(key)
	if !ok {
		return "", false
	}
	for _, t := range tracks[1:] {
		v, ok := t.Meta.Get(key)
		if !ok || v != first {
			return "", false
		}
	}
	return first, true
}

func samePosition(a, b domain.Track) bool {
	trackA, okA := a.Meta.Get(metadata.KeyTrackNumber)
	trackB, okB := b.Meta.Get(metadata.KeyTrackNumber)
	if !okA || !okB || trackA != trackB {
		return false
	}
	discA, _ := a.Meta.Get(metadata.KeyDiscNumber)
	discB, _ := b.Meta.Get(metadata.KeyDiscNumber)
	return discA == discB
}

func sameTitle(a, b domain.Track) bool {
	titleA, okA := a.Meta.Get(metadata.KeyTitle)
	titleB, okB := b.Meta.Get(metadata.KeyTitle)
	return okA && okB && titleA == titleB
}

// conflictKeyDiffers reports whether the two tracks carry contradicting
// values for any conflict key. A key absent on either side contradicts
// nothing.
func conflictKeyDiffers(a, b domain.Track, keys []string) bool {
	for _, k := range keys {
		va, okA := a.Meta.Get(k)
		vb, okB := b.Meta.Get(k)
		if okA && okB && va != vb {
			return true
		}
	}
	return false
}

// Hoist lifts every key whose value is identical across all of an album's
// tracks up to the album, excluding per-track keys. A hoisted value is set
// on the album only when absent there, and stripped from every track that
// holds it. Re-running without new divergence changes nothing.
func Hoist(album domain.Album, tracks []domain.Track) (domain.Album, []domain.Track) {
	if len(tracks) == 0 {
		return album, tracks
	}

	common := make(map[string]string)
	for key := range tracks[0].Meta {
		if isPerTrackKey(key) {
			continue
		}
		if v, ok := commonValue(tracks, key); ok {
			common[key] = v
		}
	}
	if len(common) == 0 {
		return album, tracks
	}

	album = album.Clone()
	out := make([]domain.Track, len(tracks))
	for i, t := range tracks {
		out[i] = t.Clone()
	}

	for key, value := range common {
		if !album.Meta.Has(key) {
			album.Meta.Set(key, value)
		}
		for i := range out {
			if v, ok := out[i].Meta.Get(key); ok && v == value {
				out[i].Meta.Delete(key)
			}
		}
	}
	return album, out
}

func isPerTrackKey(key string) bool {
	for _, k := range perTrackKeys {
		if k == key {
			return true
		}
	}
	return false
}
