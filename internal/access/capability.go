// Package access models the renewable capabilities that grant read access to
// a url outside the current process session. The discover log stores one
// capability per logged url so access can be re-validated on startup without
// prompting the user again.
package access

import (
	"io/fs"
	"os"
	"time"

	"github.com/ariaplayer/aria-core/internal/errors"
	"github.com/ariaplayer/aria-core/internal/normalize"
)

// KindFile marks capabilities backed by plain filesystem access.
const KindFile = "file"

// Capability is an opaque, renewable token for future read access to a url.
// It is serializable and round-trips inside the persisted shelf document.
type Capability struct {
	Kind     string    `json:"kind"`
	URL      string    `json:"url"`
	IssuedAt time.Time `json:"issued_at"`
}

// IsZero reports whether the capability is empty (capture failed or the
// entry predates capability support).
func (c Capability) IsZero() bool {
	return c.Kind == ""
}

// Matches reports whether the capability was issued for url.
func (c Capability) Matches(url string) bool {
	return normalize.URL(c.URL) == normalize.URL(url)
}

// Renew re-validates the capability and returns a refreshed one.
// Renewal fails when the underlying access has been revoked or the target
// no longer exists.
func (c Capability) Renew() (Capability, error) {
	if c.IsZero() {
		return Capability{}, errors.Internal("renew of empty capability")
	}

	if _, err := os.Stat(c.URL); err != nil {
		if os.IsNotExist(err) {
			return Capability{}, errors.NotFound(c.URL, err)
		}
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return Capability{}, errors.AccessDenied(c.URL, err)
		}
		return Capability{}, err
	}

	c.IssuedAt = time.Now()
	return c, nil
}

// Provider mints capabilities for urls. The engine never reads a url without
// first obtaining a capability for it.
type Provider interface {
	Capture(url string) (Capability, error)
}

// FileProvider mints capabilities for locally accessible paths.
type FileProvider struct{}

// Capture implements Provider.
func (FileProvider) Capture(url string) (Capability, error) {
	if _, err := os.Stat(url); err != nil {
		if os.IsNotExist(err) {
			return Capability{}, errors.NotFound(url, err)
		}
		return Capability{}, errors.AccessDenied(url, err)
	}
	return Capability{
		Kind:     KindFile,
		URL:      normalize.URL(url),
		IssuedAt: time.Now(),
	}, nil
}
