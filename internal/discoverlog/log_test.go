package discoverlog

import (
	"encoding/json/v2"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariaplayer/aria-core/internal/access"
)

func fixedStat(modTime time.Time) func(string) (time.Time, error) {
	return func(string) (time.Time, error) { return modTime, nil }
}

func TestLog_AppendAndLookup(t *testing.T) {
	l := New()
	l.Append(ActionImporting, "/music/./one.flac", access.Capability{})

	e, ok := l.Lookup(ActionImporting, "/music/one.flac")
	require.True(t, ok)
	assert.Equal(t, "/music/one.flac", e.URL)
	assert.False(t, e.Timestamp.IsZero())

	_, ok = l.Lookup(ActionGrabbing, "/music/one.flac")
	assert.False(t, ok)
}

func TestLog_NeedsRediscover(t *testing.T) {
	l := New()

	// Never seen: rediscover.
	l.Stat = fixedStat(time.Now().Add(-time.Hour))
	assert.True(t, l.NeedsRediscover(ActionImporting, "/music/one.flac"))

	l.Append(ActionImporting, "/music/one.flac", access.Capability{})

	// Unchanged since the entry: skip.
	assert.False(t, l.NeedsRediscover(ActionImporting, "/music/one.flac"))

	// Modified after the entry: rediscover.
	l.Stat = fixedStat(time.Now().Add(time.Hour))
	assert.True(t, l.NeedsRediscover(ActionImporting, "/music/one.flac"))

	// Unreadable modification time: rediscover.
	l.Stat = func(string) (time.Time, error) { return time.Time{}, errors.New("stat failed") }
	assert.True(t, l.NeedsRediscover(ActionImporting, "/music/one.flac"))
}

func TestLog_Merge_LaterTimestampWins(t *testing.T) {
	old := Entry{Action: ActionImporting, URL: "/a", Timestamp: time.Unix(100, 0)}
	fresh := Entry{Action: ActionImporting, URL: "/a", Timestamp: time.Unix(200, 0)}

	a := New()
	a.Put(old)
	b := New()
	b.Put(fresh)
	b.Put(Entry{Action: ActionGrabbing, URL: "/b", Timestamp: time.Unix(50, 0)})

	a.Merge(b)

	require.Equal(t, 2, a.Len())
	e, ok := a.Lookup(ActionImporting, "/a")
	require.True(t, ok)
	assert.Equal(t, fresh.Timestamp, e.Timestamp)

	// Merging in the stale entry again changes nothing.
	c := New()
	c.Put(old)
	a.Merge(c)
	e, _ = a.Lookup(ActionImporting, "/a")
	assert.Equal(t, fresh.Timestamp, e.Timestamp)
}

func TestLog_Merge_Idempotent(t *testing.T) {
	a := New()
	a.Put(Entry{Action: ActionDiscovering, URL: "/lib", Timestamp: time.Unix(10, 0)})
	b := New()
	b.Put(Entry{Action: ActionDiscovering, URL: "/lib", Timestamp: time.Unix(10, 0)})
	b.Put(Entry{Action: ActionImporting, URL: "/lib/x.flac", Timestamp: time.Unix(11, 0)})

	a.Merge(b)
	once := a.Entries()
	a.Merge(b)
	assert.Equal(t, once, a.Entries())
}

func TestLog_JSONRoundTrip(t *testing.T) {
	l := New()
	l.Put(Entry{
		Action:     ActionImporting,
		URL:        "/music/one.flac",
		Capability: access.Capability{Kind: access.KindFile, URL: "/music/one.flac", IssuedAt: time.Unix(42, 0).UTC()},
		Timestamp:  time.Unix(100, 0).UTC(),
	})
	l.Put(Entry{Action: ActionDiscovering, URL: "/music", Timestamp: time.Unix(99, 0).UTC()})

	data, err := json.Marshal(l)
	require.NoError(t, err)

	restored := New()
	require.NoError(t, json.Unmarshal(data, restored))

	assert.Equal(t, l.Entries(), restored.Entries())
}

func TestLog_Entries_Sorted(t *testing.T) {
	l := New()
	l.Put(Entry{Action: ActionImporting, URL: "/b"})
	l.Put(Entry{Action: ActionImporting, URL: "/a"})
	l.Put(Entry{Action: ActionDiscovering, URL: "/z"})

	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, ActionDiscovering, entries[0].Action)
	assert.Equal(t, "/a", entries[1].URL)
	assert.Equal(t, "/b", entries[2].URL)
}
