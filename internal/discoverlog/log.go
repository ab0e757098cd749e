// Package discoverlog records which urls have been discovered, imported, or
// grabbed, and when. The log is what makes discovery incremental: an unchanged
// url with a fresh entry is skipped on the next pass. It merges with other
// logs and round-trips inside the persisted shelf document.
package discoverlog

import (
	"encoding/json/v2"
	"os"
	"sort"
	"time"

	"github.com/ariaplayer/aria-core/internal/access"
	"github.com/ariaplayer/aria-core/internal/normalize"
)

// Action names the pipeline stage an entry records.
type Action string

const (
	ActionDiscovering Action = "discovering"
	ActionImporting   Action = "importing"
	ActionGrabbing    Action = "grabbing"
)

// Entry is one (action, url) observation with the capability that granted
// access at the time.
type Entry struct {
	Action     Action            `json:"action"`
	URL        string            `json:"url"`
	Capability access.Capability `json:"capability,omitzero"`
	Timestamp  time.Time         `json:"timestamp"`
}

type key struct {
	action Action
	url    string
}

// Log is an append-only, mergeable record of discovery activity, keyed by
// (action, normalized url). The zero value is not usable; call New.
type Log struct {
	entries map[key]Entry

	// Stat reports a url's modification time. Defaults to the filesystem;
	// tests substitute their own clock.
	Stat func(url string) (time.Time, error) `json:"-"`
}

// New creates an empty log.
func New() *Log {
	return &Log{entries: make(map[key]Entry)}
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Lookup returns the entry for (action, url), if any.
func (l *Log) Lookup(action Action, url string) (Entry, bool) {
	e, ok := l.entries[key{action, normalize.URL(url)}]
	return e, ok
}

// Append records that action happened on url just now.
func (l *Log) Append(action Action, url string, cap access.Capability) {
	l.Put(Entry{
		Action:     action,
		URL:        normalize.URL(url),
		Capability: cap,
		Timestamp:  time.Now(),
	})
}

// Put inserts an entry under its own (action, url) key, replacing any
// previous one. Unlike Append it keeps the entry's timestamp.
func (l *Log) Put(e Entry) {
	e.URL = normalize.URL(e.URL)
	l.entries[key{e.Action, e.URL}] = e
}

// NeedsRediscover reports whether url should be processed again for action:
// true when the log has no entry for it, or the url changed since the entry
// was written. An unreadable modification time always rediscovers.
func (l *Log) NeedsRediscover(action Action, url string) bool {
	e, ok := l.Lookup(action, url)
	if !ok {
		return true
	}
	modTime, err := l.stat(url)
	if err != nil {
		return true
	}
	return modTime.After(e.Timestamp)
}

func (l *Log) stat(url string) (time.Time, error) {
	if l.Stat != nil {
		return l.Stat(url)
	}
	info, err := os.Stat(url)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Merge folds other into l. Entries union by (action, url); when both logs
// carry one, the later timestamp wins and ties go to the incoming entry, so
// repeated merges of the same logs settle on the same result.
func (l *Log) Merge(other *Log) {
	if other == nil {
		return
	}
	for k, incoming := range other.entries {
		existing, ok := l.entries[k]
		if ok && existing.Timestamp.After(incoming.Timestamp) {
			continue
		}
		l.entries[k] = incoming
	}
}

// Clone returns an independent copy. The Stat override carries over.
func (l *Log) Clone() *Log {
	c := New()
	c.Stat = l.Stat
	for k, e := range l.entries {
		c.entries[k] = e
	}
	return c
}

// Entries returns all entries sorted by action then url.
func (l *Log) Entries() []Entry {
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Action != out[j].Action {
			return out[i].Action < out[j].Action
		}
		return out[i].URL < out[j].URL
	})
	return out
}

// MarshalJSON serializes the log as a sorted entry list, so the persisted
// document is deterministic.
func (l *Log) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Entries())
}

// UnmarshalJSON loads the log from an entry list.
func (l *Log) UnmarshalJSON(data []byte) error {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	l.entries = make(map[key]Entry, len(entries))
	for _, e := range entries {
		l.Put(e)
	}
	return nil
}
