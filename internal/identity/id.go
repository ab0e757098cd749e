// Package identity provides the 128-bit identifiers used as stable handles
// for tracks and albums. Identifiers carry a strict total order so merge
// tie-breaks are deterministic across scans.
package identity

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// ID is a 128-bit identifier. Ordering compares the high 64-bit half first,
// then the low half, both big-endian.
type ID [16]byte

// Zero is the zero identifier. It is never assigned to a record.
var Zero ID

// New generates a random identifier.
//
// Returns an error if the system has insufficient entropy for secure random
// generation.
func New() (ID, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return Zero, fmt.Errorf("generate id: %w", err)
	}
	return ID(u), nil
}

// MustNew is like New but panics if generation fails. Use only where entropy
// failure should crash the program.
func MustNew() ID {
	id, err := New()
	if err != nil {
		panic(fmt.Sprintf("failed to generate id: %v", err))
	}
	return id
}

// NewTimeOrdered generates an identifier whose high bits embed the creation
// time (uuid v7 layout), so the natural identifier order approximates
// creation order. Albums use these: the smaller (older) identifier wins an
// album merge.
func NewTimeOrdered() (ID, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return Zero, fmt.Errorf("generate time-ordered id: %w", err)
	}
	return ID(u), nil
}

// MustTimeOrdered is like NewTimeOrdered but panics if generation fails.
func MustTimeOrdered() ID {
	id, err := NewTimeOrdered()
	if err != nil {
		panic(fmt.Sprintf("failed to generate id: %v", err))
	}
	return id
}

// Parse parses an identifier from its canonical string form.
func Parse(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Zero, fmt.Errorf("parse id %q: %w", s, err)
	}
	return ID(u), nil
}

// Hi returns the high 64-bit half, big-endian.
func (id ID) Hi() uint64 {
	return binary.BigEndian.Uint64(id[:8])
}

// Lo returns the low 64-bit half, big-endian.
func (id ID) Lo() uint64 {
	return binary.BigEndian.Uint64(id[8:])
}

// Compare returns -1, 0, or 1 ordering id against other.
func (id ID) Compare(other ID) int {
	return bytes.Compare(id[:], other[:])
}

// Less reports whether id orders before other.
func (id ID) Less(other ID) bool {
	return id.Compare(other) < 0
}

// Min returns the smaller of a and b.
func Min(a, b ID) ID {
	if b.Compare(a) < 0 {
		return b
	}
	return a
}

// IsZero reports whether id is the zero identifier.
func (id ID) IsZero() bool {
	return id == Zero
}

// String returns the canonical textual form.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
