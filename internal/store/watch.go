package store

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// watcher is one live prefix subscription. Each watcher runs its own
// delivery goroutine; commits only kick a buffered channel so a slow
// consumer coalesces re-queries instead of backing up writers.
type watcher struct {
	id     string
	prefix string // raw key prefix, doc keyspace included
	kick   chan struct{}
	stop   chan struct{}
	once   sync.Once
}

func (w *watcher) close() {
	w.once.Do(func() { close(w.stop) })
}

// Subscribe registers a live query over every document under prefix.
// onSnapshot receives the full current result set immediately and again after
// every commit that touches the prefix. onError receives query failures; the
// subscription stays alive after an error. The returned unsubscribe function
// tears the subscription down and is safe to call more than once.
func (d *Docs[T]) Subscribe(ctx context.Context, prefix Path, onSnapshot func([]*T), onError func(error)) (func(), error) {
	w := &watcher{
		id:     uuid.NewString(),
		prefix: docKeyspace + string(prefix),
		kick:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}

	s := d.store
	s.watchMu.Lock()
	s.watchers[w.id] = w
	s.watchMu.Unlock()

	unsubscribe := func() {
		s.watchMu.Lock()
		delete(s.watchers, w.id)
		s.watchMu.Unlock()
		w.close()
	}

	// Initial snapshot before any change arrives.
	docs, err := d.Query(ctx, prefix)
	if err != nil {
		unsubscribe()
		return nil, err
	}
	onSnapshot(docs)

	go func() {
		for {
			select {
			case <-w.stop:
				return
			case <-ctx.Done():
				unsubscribe()
				return
			case <-w.kick:
				docs, err := d.Query(ctx, prefix)
				if err != nil {
					if ctx.Err() != nil {
						unsubscribe()
						return
					}
					if onError != nil {
						onError(err)
					}
					continue
				}
				onSnapshot(docs)
			}
		}
	}()

	if s.logger != nil {
		s.logger.Debug("subscription opened",
			slog.String("id", w.id),
			slog.String("prefix", string(prefix)))
	}
	return unsubscribe, nil
}

// notifyWatchers kicks every subscription whose prefix covers one of the
// touched keys. Called after a successful commit only.
func (s *Store) notifyWatchers(touchedKeys []string) {
	s.watchMu.RLock()
	defer s.watchMu.RUnlock()

	for _, w := range s.watchers {
		for _, key := range touchedKeys {
			if !strings.HasPrefix(key, w.prefix) {
				continue
			}
			select {
			case w.kick <- struct{}{}:
			default:
				// A kick is already pending; the next re-query covers
				// this change too.
			}
			break
		}
	}
}

func (s *Store) closeAllWatchers() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	for id, w := range s.watchers {
		w.close()
		delete(s.watchers, id)
	}
}
