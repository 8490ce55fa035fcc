package service

import (
	"context"
	"log/slog"
	"strings"

	apperrors "github.com/knotspotapp/knotspot-server/internal/errors"
	"github.com/knotspotapp/knotspot-server/internal/repair"
	"github.com/knotspotapp/knotspot-server/internal/store"
)

// RepairService replays journaled partial cascades: it deletes the entity
// copies the interrupted cascade never got to, strips any back-references
// that still name the entity, and marks the journal record resolved.
type RepairService struct {
	store   *store.Store
	journal *repair.Journal
	cascade *CascadeHandler
	logger  *slog.Logger
}

// NewRepairService creates a new repair service.
func NewRepairService(s *store.Store, journal *repair.Journal, cascade *CascadeHandler, logger *slog.Logger) *RepairService {
	return &RepairService{store: s, journal: journal, cascade: cascade, logger: logger}
}

// ListOpen returns the unresolved journal records.
func (s *RepairService) ListOpen(ctx context.Context) ([]*repair.Record, error) {
	return s.journal.ListOpen(ctx)
}

// Replay finishes one interrupted cascade.
func (s *RepairService) Replay(ctx context.Context, journalID string) error {
	rec, err := s.journal.Get(ctx, journalID)
	if err != nil {
		return apperrors.NotFound(err.Error())
	}
	if rec.ResolvedAt != nil {
		return apperrors.Conflict("journal record already resolved")
	}

	var ops []cascadeOp

	// Back-references first, mirroring the cascade's own ordering. The
	// interrupted run may have committed some or none of these; stripping
	// is idempotent either way.
	ownerID := ownerFromPaths(rec.RemainingPaths)
	switch store.Kind(rec.EntityKind) {
	case store.KindSpot:
		knots, err := s.cascade.referencingKnots(ctx, ownerID, rec.EntityID)
		if err != nil {
			return err
		}
		for _, knot := range knots {
			knot.RemoveSpot(rec.EntityID)
			knot.Touch()
			p := knot.Placement()
			for _, scope := range p.LiveScopes() {
				ops = append(ops, s.cascade.stageKnot(store.KnotPath(scope, knot.ID), knot))
			}
		}
	case store.KindKnot:
		spots, err := s.cascade.referencingSpots(ctx, ownerID, rec.EntityID)
		if err != nil {
			return err
		}
		for _, spot := range spots {
			spot.RemoveKnot(rec.EntityID)
			spot.Touch()
			p := spot.Placement()
			for _, scope := range p.LiveScopes() {
				ops = append(ops, s.cascade.stageSpot(store.SpotPath(scope, spot.ID), spot))
			}
		}
	}

	for _, path := range rec.RemainingPaths {
		ops = append(ops, s.cascade.stageDelete(store.Path(path)))
	}

	for _, chunk := range chunkOps(ops, store.MaxBatchOps) {
		batch := s.store.NewBatch()
		for _, op := range chunk {
			if err := op.stage(batch); err != nil {
				return err
			}
		}
		if err := batch.Commit(ctx); err != nil {
			return storeWriteError("replay cascade", err)
		}
	}

	if err := s.journal.MarkResolved(ctx, rec.ID); err != nil {
		return err
	}

	s.logger.Info("cascade replayed",
		"journal_id", rec.ID,
		"entity_kind", rec.EntityKind,
		"entity_id", rec.EntityID,
	)
	return nil
}

// ownerFromPaths pulls the owner id out of an owner-scoped remaining path,
// if one is present. Group-scoped entities have no owner path; scanning the
// public and group scopes alone is enough for those.
func ownerFromPaths(paths []string) string {
	for _, p := range paths {
		if rest, ok := strings.CutPrefix(p, "users/"); ok {
			if idx := strings.IndexByte(rest, '/'); idx > 0 {
				return rest[:idx]
			}
		}
	}
	return ""
}
