package store

import (
	"context"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// MaxBatchOps is the per-batch operation cap. A batch holding more ops than
// this is rejected at commit; callers that can split into ordered sequential
// batches (the cascade handler) must do so themselves.
const MaxBatchOps = 500

type batchOp struct {
	key    []byte
	value  []byte
	delete bool
}

// Batch accumulates document writes and deletes and applies them in a single
// Badger transaction: all-or-nothing, with read-after-write consistency for
// the committed set. There is no atomicity across two batches.
type Batch struct {
	store     *Store
	ops       []batchOp
	committed bool
}

// NewBatch creates an empty atomic batch.
func (s *Store) NewBatch() *Batch {
	return &Batch{store: s}
}

func (b *Batch) stageSet(path Path, data []byte) {
	b.ops = append(b.ops, batchOp{key: path.key(), value: data})
}

// StageDelete adds a delete at path to the batch.
func (b *Batch) StageDelete(path Path) {
	b.ops = append(b.ops, batchOp{key: path.key(), delete: true})
}

// Len returns the number of staged operations.
func (b *Batch) Len() int {
	return len(b.ops)
}

// Commit applies every staged operation in one transaction. On any error
// nothing is applied and the batch may be retried as a whole. Watchers are
// notified only after a successful commit.
func (b *Batch) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.committed {
		return ErrWriteFailed.WithCause(errAlreadyCommitted)
	}
	if len(b.ops) > MaxBatchOps {
		return ErrBatchTooLarge
	}
	if len(b.ops) == 0 {
		b.committed = true
		return nil
	}

	err := b.store.db.Update(func(txn *badger.Txn) error {
		for _, op := range b.ops {
			if op.delete {
				if err := txn.Delete(op.key); err != nil {
					return err
				}
				continue
			}
			if err := txn.Set(op.key, op.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ErrWriteFailed.WithCause(err)
	}

	b.committed = true

	touched := make([]string, len(b.ops))
	for i, op := range b.ops {
		touched[i] = string(op.key)
	}
	b.store.notifyWatchers(touched)

	if b.store.logger != nil {
		b.store.logger.LogAttrs(context.Background(), slog.LevelDebug, "batch committed",
			slog.Int("ops", len(b.ops)),
		)
	}
	return nil
}
