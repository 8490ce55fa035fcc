package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/knotspotapp/knotspot-server/internal/domain"
	"github.com/knotspotapp/knotspot-server/internal/store"
)

// FeedService is the live view composer: it subscribes to every scoped
// query a viewer can see, merges and dedupes the result sets by entity id,
// and pushes a fresh composed snapshot on every change. It only ever reads;
// all mutation goes through the other services.
//
// The scope set is fixed at subscribe time. Joining a group mid-stream
// requires resubscribing, which the HTTP layer does by reconnecting.
type FeedService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewFeedService creates a new feed service.
func NewFeedService(s *store.Store, logger *slog.Logger) *FeedService {
	return &FeedService{store: s, logger: logger}
}

// SubscribeSpots pushes the viewer's composed Spot feed: own private scope,
// global public scope, and each member-group scope, deduped so the
// authoritative copy of an entity wins over its public copy. Snapshots are
// ordered by TakenAt, newest first. Returns an unsubscribe function.
func (s *FeedService) SubscribeSpots(
	ctx context.Context,
	session domain.Session,
	onSnapshot func([]*domain.Spot),
	onError func(error),
) (func(), error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	scopes, err := visibleScopes(ctx, s.store, session.UserID)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		byScope = make([][]*domain.Spot, len(scopes))
	)

	compose := func() {
		mu.Lock()
		merged := mergeSpots(scopes, byScope)
		mu.Unlock()
		onSnapshot(merged)
	}

	unsubs := make([]func(), 0, len(scopes))
	for i, scope := range scopes {
		unsub, err := s.store.Spots.Subscribe(ctx, store.SpotsPrefix(scope), func(spots []*domain.Spot) {
			mu.Lock()
			byScope[i] = spots
			mu.Unlock()
			compose()
		}, onError)
		if err != nil {
			for _, u := range unsubs {
				u()
			}
			return nil, err
		}
		unsubs = append(unsubs, unsub)
	}

	return func() {
		for _, u := range unsubs {
			u()
		}
	}, nil
}

// SubscribeKnots is the Knot view of the same composition.
func (s *FeedService) SubscribeKnots(
	ctx context.Context,
	session domain.Session,
	onSnapshot func([]*domain.Knot),
	onError func(error),
) (func(), error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	scopes, err := visibleScopes(ctx, s.store, session.UserID)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		byScope = make([][]*domain.Knot, len(scopes))
	)

	compose := func() {
		mu.Lock()
		merged := mergeKnots(scopes, byScope)
		mu.Unlock()
		onSnapshot(merged)
	}

	unsubs := make([]func(), 0, len(scopes))
	for i, scope := range scopes {
		unsub, err := s.store.Knots.Subscribe(ctx, store.KnotsPrefix(scope), func(knots []*domain.Knot) {
			mu.Lock()
			byScope[i] = knots
			mu.Unlock()
			compose()
		}, onError)
		if err != nil {
			for _, u := range unsubs {
				u()
			}
			return nil, err
		}
		unsubs = append(unsubs, unsub)
	}

	return func() {
		for _, u := range unsubs {
			u()
		}
	}, nil
}

// SubscribeNotifications pushes the viewer's notification list, newest
// first, on every change to their notification scope.
func (s *FeedService) SubscribeNotifications(
	ctx context.Context,
	session domain.Session,
	onSnapshot func([]*domain.Notification),
	onError func(error),
) (func(), error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	return s.store.Notifications.Subscribe(ctx, store.NotificationsPrefix(session.UserID), func(notifications []*domain.Notification) {
		slices.SortFunc(notifications, func(a, b *domain.Notification) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
		onSnapshot(notifications)
	}, onError)
}

// mergeSpots dedupes multi-scope query results by id. A copy read from its
// own authoritative scope replaces a public copy of the same entity, never
// the other way around.
func mergeSpots(scopes []domain.Scope, byScope [][]*domain.Spot) []*domain.Spot {
	byID := make(map[string]*domain.Spot)
	order := make([]string, 0)

	for i, scope := range scopes {
		for _, spot := range byScope[i] {
			if _, ok := byID[spot.ID]; !ok {
				byID[spot.ID] = spot
				order = append(order, spot.ID)
				continue
			}
			if scope == spot.Placement().Authoritative() {
				byID[spot.ID] = spot
			}
		}
	}

	merged := make([]*domain.Spot, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	slices.SortFunc(merged, func(a, b *domain.Spot) int {
		return b.TakenAt.Compare(a.TakenAt)
	})
	return merged
}

// mergeKnots mirrors mergeSpots for Knots, ordered by StartDate descending.
func mergeKnots(scopes []domain.Scope, byScope [][]*domain.Knot) []*domain.Knot {
	byID := make(map[string]*domain.Knot)
	order := make([]string, 0)

	for i, scope := range scopes {
		for _, knot := range byScope[i] {
			if _, ok := byID[knot.ID]; !ok {
				byID[knot.ID] = knot
				order = append(order, knot.ID)
				continue
			}
			if scope == knot.Placement().Authoritative() {
				byID[knot.ID] = knot
			}
		}
	}

	merged := make([]*domain.Knot, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	slices.SortFunc(merged, func(a, b *domain.Knot) int {
		return b.StartDate.Compare(a.StartDate)
	})
	return merged
}

// FilterLiveSpotIDs drops ids with no loadable Spot copy. Readers must
// tolerate dangling references left by an interrupted cascade; this is the
// shared defensive filter for Knot views.
//
// Member spots do not have to share the knot's scope: a spot may have moved
// into a group since it was linked, or belong to another owner and be
// visible only through its public copy. Each id is resolved against the
// knot's own scope and then every scope the viewer can see; an id is
// dangling only when no copy turns up anywhere.
func (s *FeedService) FilterLiveSpotIDs(ctx context.Context, session domain.Session, knot *domain.Knot) ([]*domain.Spot, error) {
	scopes, err := visibleScopes(ctx, s.store, session.UserID)
	if err != nil {
		return nil, err
	}
	if knotScope := knot.Placement().Authoritative(); !slices.Contains(scopes, knotScope) {
		scopes = append([]domain.Scope{knotScope}, scopes...)
	}

	live := make([]*domain.Spot, 0, len(knot.SpotIDs))
	for _, spotID := range knot.SpotIDs {
		for _, scope := range scopes {
			spot, err := s.store.Spots.Get(ctx, store.SpotPath(scope, spotID))
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				return nil, err
			}
			live = append(live, spot)
			break
		}
	}
	return live, nil
}
