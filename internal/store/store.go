// Package store persists the shelf aggregate. The whole shelf is one
// self-describing json document under a fixed key in a Badger database:
// personal libraries are small enough that a single document beats a
// per-record schema, and replacing it atomically matches the shelf's
// replace-on-merge lifecycle.
package store

import (
	"encoding/json/v2"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/ariaplayer/aria-core/internal/errors"
	"github.com/ariaplayer/aria-core/internal/logger"
	"github.com/ariaplayer/aria-core/internal/shelf"
)

const shelfKey = "shelf:current"

// Store wraps a Badger database instance.
type Store struct {
	db  *badger.DB
	log *logger.Logger
}

// Open opens (or creates) the database at path.
func Open(path string, log *logger.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes hit disk before save returns
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Persistence("open database", err)
	}

	log.Info("database opened", "path", path)
	return &Store{db: db, log: log}, nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	s.log.Info("closing database")
	return s.db.Close()
}

// SaveShelf replaces the persisted shelf document. On failure the previous
// document is untouched and the caller's in-memory shelf stays valid.
func (s *Store) SaveShelf(sh *shelf.Shelf) error {
	data, err := json.Marshal(sh)
	if err != nil {
		return errors.Persistence("marshal shelf", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(shelfKey), data)
	})
	if err != nil {
		return errors.Persistence("write shelf", err)
	}

	s.log.Debug("shelf saved",
		"albums", len(sh.Albums),
		"tracks", len(sh.Tracks),
		"bytes", len(data),
	)
	return nil
}

// LoadShelf reads the persisted shelf. A database with no shelf document
// yields an empty shelf, not an error.
func (s *Store) LoadShelf() (*shelf.Shelf, error) {
	sh := shelf.Empty()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(shelfKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, sh)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return shelf.Empty(), nil
	}
	if err != nil {
		return nil, errors.Persistence("read shelf", err)
	}

	// A corrupted document can null out the aggregate's containers.
	if sh.Albums == nil || sh.Tracks == nil || sh.Log == nil {
		return nil, errors.Persistence("read shelf", fmt.Errorf("malformed shelf document"))
	}
	return sh, nil
}
