package service

import (
	"context"
	"log/slog"

	"github.com/knotspotapp/knotspot-server/internal/domain"
	apperrors "github.com/knotspotapp/knotspot-server/internal/errors"
	"github.com/knotspotapp/knotspot-server/internal/repair"
	"github.com/knotspotapp/knotspot-server/internal/store"
)

// CascadeHandler deletes a Spot or Knot together with every back-reference
// pointing at it. Everything fits in one atomic batch when small; past the
// batch cap it splits into sequential batches ordered so reference
// stripping commits first and the authoritative copy deletion commits last.
// A crash mid-sequence then leaves dangling references (which readers
// filter) rather than a half-deleted entity with no record of it.
type CascadeHandler struct {
	store   *store.Store
	journal *repair.Journal
	logger  *slog.Logger
}

// NewCascadeHandler creates a new cascade handler. The journal may be nil,
// in which case partial failures are only logged.
func NewCascadeHandler(s *store.Store, journal *repair.Journal, logger *slog.Logger) *CascadeHandler {
	return &CascadeHandler{store: s, journal: journal, logger: logger}
}

// cascadeOp is one staged write in the ordered cascade plan.
type cascadeOp struct {
	path     store.Path
	isDelete bool
	stage    func(*store.Batch) error
}

// DeleteSpot strips the Spot's id from every Knot listing it, removes its
// comments, then deletes every scope copy, authoritative last.
func (h *CascadeHandler) DeleteSpot(ctx context.Context, spot *domain.Spot) error {
	ops, err := h.spotDeletePlan(ctx, spot)
	if err != nil {
		return err
	}
	return h.run(ctx, string(store.KindSpot), spot.ID, ops)
}

// DeleteKnot is the symmetric operation: every Spot listing the Knot is
// stripped of the reference, then the Knot's copies are deleted.
func (h *CascadeHandler) DeleteKnot(ctx context.Context, knot *domain.Knot) error {
	ops, err := h.knotDeletePlan(ctx, knot)
	if err != nil {
		return err
	}
	return h.run(ctx, string(store.KindKnot), knot.ID, ops)
}

func (h *CascadeHandler) spotDeletePlan(ctx context.Context, spot *domain.Spot) ([]cascadeOp, error) {
	var ops []cascadeOp

	// Reference strips first: every Knot listing this Spot, at every live
	// copy of that Knot.
	knots, err := h.referencingKnots(ctx, spot.OwnerID, spot.ID)
	if err != nil {
		return nil, err
	}
	for _, knot := range knots {
		knot.RemoveSpot(spot.ID)
		knot.Touch()
		p := knot.Placement()
		for _, scope := range p.LiveScopes() {
			ops = append(ops, h.stageKnot(store.KnotPath(scope, knot.ID), knot))
		}
	}

	// The comment sub-scope goes with the Spot.
	comments, err := h.store.Comments.Query(ctx, store.CommentsPrefix(spot.ID))
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		ops = append(ops, h.stageDelete(store.CommentPath(spot.ID, c.ID)))
	}

	// Copy deletions last, authoritative copy at the very end.
	p := spot.Placement()
	for _, op := range domain.ResolvePlacement(&p, nil) {
		ops = append(ops, h.stageDelete(store.SpotPath(op.Scope, spot.ID)))
	}
	return ops, nil
}

func (h *CascadeHandler) knotDeletePlan(ctx context.Context, knot *domain.Knot) ([]cascadeOp, error) {
	var ops []cascadeOp

	spots, err := h.referencingSpots(ctx, knot.OwnerID, knot.ID)
	if err != nil {
		return nil, err
	}
	for _, spot := range spots {
		spot.RemoveKnot(knot.ID)
		spot.Touch()
		p := spot.Placement()
		for _, scope := range p.LiveScopes() {
			ops = append(ops, h.stageSpot(store.SpotPath(scope, spot.ID), spot))
		}
	}

	p := knot.Placement()
	for _, op := range domain.ResolvePlacement(&p, nil) {
		ops = append(ops, h.stageDelete(store.KnotPath(op.Scope, knot.ID)))
	}
	return ops, nil
}

// run commits the ordered plan, splitting at the batch cap. The first batch
// failing means nothing was applied and the operation is safely retryable.
// A later batch failing is a partial cascade: the uncommitted delete paths
// are journaled for repair and the error carries the journal id.
func (h *CascadeHandler) run(ctx context.Context, entityKind, entityID string, ops []cascadeOp) error {
	chunks := chunkOps(ops, store.MaxBatchOps)

	for i, chunk := range chunks {
		batch := h.store.NewBatch()
		for _, op := range chunk {
			if err := op.stage(batch); err != nil {
				return err
			}
		}
		err := batch.Commit(ctx)
		if err == nil {
			continue
		}

		if i == 0 {
			return storeWriteError("cascade delete", err)
		}

		// Later chunks only ever fail after real writes committed. Record
		// the copies that still exist so the repair CLI can finish the job.
		remaining := remainingDeletePaths(chunks[i:])
		journalID := h.journalFailure(ctx, entityKind, entityID, remaining, err)
		return apperrors.PartialCascade(
			"cascade delete interrupted",
			map[string]any{
				"entity_kind": entityKind,
				"entity_id":   entityID,
				"journal_id":  journalID,
				"remaining":   remaining,
			},
			err,
		)
	}

	h.logger.Info("cascade delete completed",
		"entity_kind", entityKind,
		"entity_id", entityID,
		"ops", len(ops),
		"batches", len(chunks),
	)
	return nil
}

// referencingKnots returns every Knot in a scope the owner can see whose
// SpotIDs lists the given Spot, one in-memory copy per Knot id. Scopes are
// walked authoritative-first so the copy kept is the source-of-truth one.
func (h *CascadeHandler) referencingKnots(ctx context.Context, ownerID, spotID string) ([]*domain.Knot, error) {
	scopes, err := visibleScopes(ctx, h.store, ownerID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []*domain.Knot
	for _, scope := range scopes {
		knots, err := h.store.Knots.Query(ctx, store.KnotsPrefix(scope))
		if err != nil {
			return nil, err
		}
		for _, knot := range knots {
			if seen[knot.ID] || !knot.ContainsSpot(spotID) {
				continue
			}
			seen[knot.ID] = true
			out = append(out, knot)
		}
	}
	return out, nil
}

// referencingSpots is the symmetric query for Spots listing a Knot.
func (h *CascadeHandler) referencingSpots(ctx context.Context, ownerID, knotID string) ([]*domain.Spot, error) {
	scopes, err := visibleScopes(ctx, h.store, ownerID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []*domain.Spot
	for _, scope := range scopes {
		spots, err := h.store.Spots.Query(ctx, store.SpotsPrefix(scope))
		if err != nil {
			return nil, err
		}
		for _, spot := range spots {
			if seen[spot.ID] || !spot.InKnot(knotID) {
				continue
			}
			seen[spot.ID] = true
			out = append(out, spot)
		}
	}
	return out, nil
}

func (h *CascadeHandler) stageSpot(path store.Path, spot *domain.Spot) cascadeOp {
	return cascadeOp{path: path, stage: func(b *store.Batch) error {
		return h.store.Spots.Stage(b, path, spot)
	}}
}

func (h *CascadeHandler) stageKnot(path store.Path, knot *domain.Knot) cascadeOp {
	return cascadeOp{path: path, stage: func(b *store.Batch) error {
		return h.store.Knots.Stage(b, path, knot)
	}}
}

func (h *CascadeHandler) stageDelete(path store.Path) cascadeOp {
	return cascadeOp{path: path, isDelete: true, stage: func(b *store.Batch) error {
		b.StageDelete(path)
		return nil
	}}
}

func (h *CascadeHandler) journalFailure(ctx context.Context, entityKind, entityID string, remaining []string, cause error) string {
	if h.journal == nil {
		h.logger.Error("partial cascade with no journal configured",
			"entity_kind", entityKind,
			"entity_id", entityID,
			"remaining", remaining,
			"error", cause,
		)
		return ""
	}

	journalID, err := h.journal.Append(ctx, entityKind, entityID, remaining, cause)
	if err != nil {
		// The journal write is itself best-effort; the primary error still
		// reaches the caller.
		h.logger.Error("failed to journal partial cascade",
			"entity_kind", entityKind,
			"entity_id", entityID,
			"error", err,
		)
		return ""
	}
	return journalID
}

// chunkOps splits the ordered plan into batch-sized chunks, preserving
// order across the split.
func chunkOps(ops []cascadeOp, size int) [][]cascadeOp {
	if len(ops) == 0 {
		return nil
	}
	var chunks [][]cascadeOp
	for len(ops) > size {
		chunks = append(chunks, ops[:size])
		ops = ops[size:]
	}
	return append(chunks, ops)
}

// remainingDeletePaths lists the delete targets in the chunks that never
// committed. Reference-strip upserts are deliberately excluded: a stale
// back-reference is tolerated by readers and cleaned up on replay.
func remainingDeletePaths(chunks [][]cascadeOp) []string {
	var paths []string
	for _, chunk := range chunks {
		for _, op := range chunk {
			if op.isDelete {
				paths = append(paths, string(op.path))
			}
		}
	}
	return paths
}
