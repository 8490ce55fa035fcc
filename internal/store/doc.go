package store

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// Kind tags the variant of a stored document. The store is schemaless at the
// byte level, so every document carries its kind and accessors refuse to
// decode a mismatched one.
type Kind string

// Document kinds.
const (
	KindSpot         Kind = "spot"
	KindKnot         Kind = "knot"
	KindGroup        Kind = "group"
	KindProfile      Kind = "profile"
	KindNotification Kind = "notification"
	KindComment      Kind = "comment"
	KindUser         Kind = "user"
)

// envelope is the on-disk shape of every document: the kind tag plus the
// typed payload.
type envelope[T any] struct {
	Kind Kind `json:"kind"`
	Doc  T    `json:"doc"`
}

// Docs provides typed, kind-checked access to documents of one entity kind.
type Docs[T any] struct {
	store *Store
	kind  Kind
}

// NewDocs creates a typed accessor for the given kind.
func NewDocs[T any](s *Store, kind Kind) *Docs[T] {
	return &Docs[T]{store: s, kind: kind}
}

// marshal wraps a document in its kind envelope.
func (d *Docs[T]) marshal(doc *T) ([]byte, error) {
	data, err := json.Marshal(envelope[T]{Kind: d.kind, Doc: *doc})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s document: %w", d.kind, err)
	}
	return data, nil
}

// decode validates the kind tag and unwraps the payload.
func (d *Docs[T]) decode(val []byte) (*T, error) {
	var env envelope[T]
	if err := json.Unmarshal(val, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s document: %w", d.kind, err)
	}
	if env.Kind != d.kind {
		return nil, fmt.Errorf("expected kind %q, got %q: %w", d.kind, env.Kind, ErrKindMismatch)
	}
	return &env.Doc, nil
}

// Get retrieves the document at path.
// Returns ErrNotFound if no copy exists there.
func (d *Docs[T]) Get(ctx context.Context, path Path) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	val, err := d.store.getRaw(path.key())
	if err != nil {
		return nil, err
	}
	return d.decode(val)
}

// GetByIDs retrieves the documents for an id set under a prefix. Ids with no
// document are skipped, not errors: readers must tolerate dangling
// references left by an interrupted cascade.
func (d *Docs[T]) GetByIDs(ctx context.Context, prefix Path, ids []string) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs := make([]*T, 0, len(ids))
	err := d.store.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			item, err := txn.Get(Path(string(prefix) + id).key())
			if err != nil {
				if err == badger.ErrKeyNotFound {
					continue
				}
				return fmt.Errorf("failed to get key: %w", err)
			}

			err = item.Value(func(val []byte) error {
				doc, err := d.decode(val)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Put writes one document at path outside any batch.
func (d *Docs[T]) Put(ctx context.Context, path Path, doc *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := d.marshal(doc)
	if err != nil {
		return err
	}
	return d.store.setRaw(path.key(), data)
}

// Delete removes the document at path. Idempotent.
func (d *Docs[T]) Delete(ctx context.Context, path Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.store.deleteRaw(path.key())
}

// Query returns every document under the prefix.
func (d *Docs[T]) Query(ctx context.Context, prefix Path) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keyPrefix := prefix.key()
	var docs []*T

	err := d.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyPrefix
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			// A prefix like users/u1/spots/ must not match a nested
			// sub-scope such as a comment collection.
			rest := strings.TrimPrefix(string(it.Item().Key()), string(keyPrefix))
			if strings.Contains(rest, "/") {
				continue
			}

			err := it.Item().Value(func(val []byte) error {
				doc, err := d.decode(val)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Stage marshals the document and adds an upsert at path to the batch.
func (d *Docs[T]) Stage(b *Batch, path Path, doc *T) error {
	data, err := d.marshal(doc)
	if err != nil {
		return err
	}
	b.stageSet(path, data)
	return nil
}
