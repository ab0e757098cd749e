// Package trace implements the observational tracer the discovery plugins
// report their active urls to. Tracing is purely diagnostic: the limited
// tracer drops log lines rather than slow a scan down.
package trace

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/ariaplayer/aria-core/internal/logger"
)

// Limited traces plugin activity to the log, rate-limiting the emitted lines
// so a large scan cannot flood the log. The active-url gauge stays exact;
// only logging is shed.
type Limited struct {
	log     *logger.Logger
	limiter *rate.Limiter

	mu     sync.Mutex
	active map[string]int
}

// NewLimited creates a tracer emitting at most linesPerSecond log lines.
func NewLimited(log *logger.Logger, linesPerSecond float64) *Limited {
	return &Limited{
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(linesPerSecond), int(linesPerSecond)+1),
		active:  make(map[string]int),
	}
}

// Add marks url as being read by a plugin.
func (t *Limited) Add(url string) {
	t.mu.Lock()
	t.active[url]++
	count := len(t.active)
	t.mu.Unlock()

	if t.limiter.Allow() {
		t.log.Debug("reading", "url", url, "active", count)
	}
}

// Remove marks url as no longer being read. Nested Adds for the same url
// must be balanced by as many Removes.
func (t *Limited) Remove(url string) {
	t.mu.Lock()
	if t.active[url] > 1 {
		t.active[url]--
	} else {
		delete(t.active, url)
	}
	count := len(t.active)
	t.mu.Unlock()

	if t.limiter.Allow() {
		t.log.Debug("done reading", "url", url, "active", count)
	}
}

// Active returns the number of urls currently being read.
func (t *Limited) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}
