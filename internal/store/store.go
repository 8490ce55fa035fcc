// Package store implements the path-keyed document store the sync engine
// writes against. Documents live under hierarchical scope paths (owner,
// public, group), every mutating operation goes through an atomic Batch, and
// consumers observe changes through prefix subscriptions that push a full
// re-queried result set on every commit.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/knotspotapp/knotspot-server/internal/domain"
)

// Store wraps a Badger database instance with typed document accessors.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Prefix subscriptions, keyed by subscription id.
	watchMu  sync.RWMutex
	watchers map[string]*watcher

	// Typed document collections. Each validates the kind tag at the
	// adapter boundary before a document enters core logic.
	Spots         *Docs[domain.Spot]
	Knots         *Docs[domain.Knot]
	Groups        *Docs[domain.Group]
	Profiles      *Docs[domain.UserProfile]
	Notifications *Docs[domain.Notification]
	Comments      *Docs[domain.Comment]
	Users         *Docs[domain.User]
}

// New creates a new Store instance backed by the database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Sync to disk so a crash never loses a committed batch
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:       db,
		logger:   logger,
		watchers: make(map[string]*watcher),
	}

	s.Spots = NewDocs[domain.Spot](s, KindSpot)
	s.Knots = NewDocs[domain.Knot](s, KindKnot)
	s.Groups = NewDocs[domain.Group](s, KindGroup)
	s.Profiles = NewDocs[domain.UserProfile](s, KindProfile)
	s.Notifications = NewDocs[domain.Notification](s, KindNotification)
	s.Comments = NewDocs[domain.Comment](s, KindComment)
	s.Users = NewDocs[domain.User](s, KindUser)

	if logger != nil {
		logger.Info("document store opened", "path", path)
	}

	return s, nil
}

// Close gracefully closes the database connection after stopping all
// subscriptions.
func (s *Store) Close() error {
	s.closeAllWatchers()
	if s.logger != nil {
		s.logger.Info("closing document store")
	}
	return s.db.Close()
}

// getRaw reads one key inside a view transaction.
func (s *Store) getRaw(key []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	return out, nil
}

// setRaw writes one key in its own update transaction and notifies watchers.
func (s *Store) setRaw(key, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return ErrWriteFailed.WithCause(err)
	}
	s.notifyWatchers([]string{string(key)})
	return nil
}

// deleteRaw removes one key. Idempotent: deleting an absent key is not an
// error.
func (s *Store) deleteRaw(key []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		return ErrWriteFailed.WithCause(err)
	}
	s.notifyWatchers([]string{string(key)})
	return nil
}
