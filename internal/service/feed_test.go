package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knotspotapp/knotspot-server/internal/domain"
)

// waitFor drains snapshots from ch until one satisfies want, failing the
// test after two seconds. The composer pushes one snapshot per underlying
// scope change, so intermediate snapshots are expected and skipped.
func waitFor[T any](t *testing.T, ch chan []*T, want func([]*T) bool) []*T {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snapshot := <-ch:
			if want(snapshot) {
				return snapshot
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
			return nil
		}
	}
}

func spotIDs(spots []*domain.Spot) []string {
	ids := make([]string, 0, len(spots))
	for _, s := range spots {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestSubscribeSpotsMergesScopes(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	viewer := testSession("user-a")
	seedAccount(t, env.store, "user-a")
	seedAccount(t, env.store, "user-b")

	group, err := env.groups.Create(ctx, testSession("user-b"), CreateGroupRequest{Name: "hiking club"})
	require.NoError(t, err)
	_, err = env.groups.AddMember(ctx, testSession("user-b"), group.ID, "user-a")
	require.NoError(t, err)

	private, err := env.spots.Create(ctx, viewer, CreateSpotRequest{Visibility: "private", Caption: "mine"})
	require.NoError(t, err)
	public, err := env.spots.Create(ctx, testSession("user-b"), CreateSpotRequest{Visibility: "public", Caption: "theirs"})
	require.NoError(t, err)
	grouped, err := env.spots.Create(ctx, testSession("user-b"), CreateSpotRequest{GroupID: group.ID, Caption: "shared"})
	require.NoError(t, err)

	snapshots := make(chan []*domain.Spot, 16)
	unsubscribe, err := env.feed.SubscribeSpots(ctx, viewer, func(spots []*domain.Spot) {
		snapshots <- spots
	}, nil)
	require.NoError(t, err)
	defer unsubscribe()

	merged := waitFor(t, snapshots, func(spots []*domain.Spot) bool { return len(spots) == 3 })
	ids := spotIDs(merged)
	assert.Contains(t, ids, private.ID)
	assert.Contains(t, ids, public.ID)
	assert.Contains(t, ids, grouped.ID)
}

func TestSubscribeSpotsDedupesOwnPublicCopy(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	viewer := testSession("user-a")

	// Visible in both the owner scope and the public scope, but the feed
	// must carry it once.
	spot, err := env.spots.Create(ctx, viewer, CreateSpotRequest{Visibility: "public"})
	require.NoError(t, err)

	snapshots := make(chan []*domain.Spot, 16)
	unsubscribe, err := env.feed.SubscribeSpots(ctx, viewer, func(spots []*domain.Spot) {
		snapshots <- spots
	}, nil)
	require.NoError(t, err)
	defer unsubscribe()

	merged := waitFor(t, snapshots, func(spots []*domain.Spot) bool { return len(spots) > 0 })
	require.Len(t, merged, 1)
	assert.Equal(t, spot.ID, merged[0].ID)
}

func TestSubscribeSpotsPushesOnChange(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	viewer := testSession("user-a")

	snapshots := make(chan []*domain.Spot, 16)
	unsubscribe, err := env.feed.SubscribeSpots(ctx, viewer, func(spots []*domain.Spot) {
		snapshots <- spots
	}, nil)
	require.NoError(t, err)
	defer unsubscribe()

	waitFor(t, snapshots, func(spots []*domain.Spot) bool { return len(spots) == 0 })

	created, err := env.spots.Create(ctx, testSession("user-b"), CreateSpotRequest{Visibility: "public"})
	require.NoError(t, err)

	merged := waitFor(t, snapshots, func(spots []*domain.Spot) bool { return len(spots) == 1 })
	assert.Equal(t, created.ID, merged[0].ID)

	require.NoError(t, env.spots.Delete(ctx, testSession("user-b"), created.ID))
	waitFor(t, snapshots, func(spots []*domain.Spot) bool { return len(spots) == 0 })
}

func TestSubscribeSpotsOrderedByTakenAt(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	viewer := testSession("user-a")

	older, err := env.spots.Create(ctx, viewer, CreateSpotRequest{
		Visibility: "private",
		TakenAt:    time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	newer, err := env.spots.Create(ctx, viewer, CreateSpotRequest{
		Visibility: "private",
		TakenAt:    time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	snapshots := make(chan []*domain.Spot, 16)
	unsubscribe, err := env.feed.SubscribeSpots(ctx, viewer, func(spots []*domain.Spot) {
		snapshots <- spots
	}, nil)
	require.NoError(t, err)
	defer unsubscribe()

	merged := waitFor(t, snapshots, func(spots []*domain.Spot) bool { return len(spots) == 2 })
	assert.Equal(t, newer.ID, merged[0].ID)
	assert.Equal(t, older.ID, merged[1].ID)
}

func TestSubscribeKnotsMergesScopes(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	viewer := testSession("user-a")

	own := createTestKnot(t, env, viewer, "private")
	public := createTestKnot(t, env, testSession("user-b"), "public")

	snapshots := make(chan []*domain.Knot, 16)
	unsubscribe, err := env.feed.SubscribeKnots(ctx, viewer, func(knots []*domain.Knot) {
		snapshots <- knots
	}, nil)
	require.NoError(t, err)
	defer unsubscribe()

	merged := waitFor(t, snapshots, func(knots []*domain.Knot) bool { return len(knots) == 2 })
	found := make(map[string]bool)
	for _, k := range merged {
		found[k.ID] = true
	}
	assert.True(t, found[own.ID])
	assert.True(t, found[public.ID])
}

func TestSubscribeNotifications(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := testSession("user-a")

	spot, err := env.spots.Create(ctx, owner, CreateSpotRequest{Visibility: "public"})
	require.NoError(t, err)

	snapshots := make(chan []*domain.Notification, 16)
	unsubscribe, err := env.feed.SubscribeNotifications(ctx, owner, func(notifications []*domain.Notification) {
		snapshots <- notifications
	}, nil)
	require.NoError(t, err)
	defer unsubscribe()

	waitFor(t, snapshots, func(n []*domain.Notification) bool { return len(n) == 0 })

	_, err = env.spots.ToggleLike(ctx, testSession("user-b"), spot.ID)
	require.NoError(t, err)

	notifications := waitFor(t, snapshots, func(n []*domain.Notification) bool { return len(n) == 1 })
	assert.Equal(t, domain.NotificationLike, notifications[0].Kind)
	assert.Equal(t, "user-b", notifications[0].ActorID)
}

func TestFilterLiveSpotIDsDropsDangling(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	session := testSession("user-a")

	spot, err := env.spots.Create(ctx, session, CreateSpotRequest{Visibility: "private"})
	require.NoError(t, err)
	knot := createTestKnot(t, env, session, "private")
	_, err = env.knots.AddSpot(ctx, session, knot.ID, spot.ID)
	require.NoError(t, err)

	// Simulate a half-finished cascade leaving a dangling reference.
	knot = knotAt(t, env.store, domain.OwnerScope("user-a"), knot.ID)
	knot.SpotIDs = append(knot.SpotIDs, "spot-gone")

	live, err := env.feed.FilterLiveSpotIDs(ctx, session, knot)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, spot.ID, live[0].ID)
}

func TestFilterLiveSpotIDsSurvivesGroupMove(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	session := testSession("user-a")

	spot, err := env.spots.Create(ctx, session, CreateSpotRequest{Visibility: "private"})
	require.NoError(t, err)
	knot := createTestKnot(t, env, session, "private")
	_, err = env.knots.AddSpot(ctx, session, knot.ID, spot.ID)
	require.NoError(t, err)

	// Move the spot into a group. The knot link survives the move even
	// though the spot's authoritative copy no longer shares the knot's
	// scope.
	group, err := env.groups.Create(ctx, session, CreateGroupRequest{Name: "hiking club"})
	require.NoError(t, err)
	groupID := group.ID
	_, err = env.spots.Update(ctx, session, spot.ID, UpdateSpotRequest{GroupID: &groupID})
	require.NoError(t, err)

	knot, err = env.knots.Get(ctx, session, knot.ID)
	require.NoError(t, err)
	require.Contains(t, knot.SpotIDs, spot.ID)

	live, err := env.feed.FilterLiveSpotIDs(ctx, session, knot)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, spot.ID, live[0].ID)
	assert.Equal(t, group.ID, live[0].GroupID)
}

func TestFilterLiveSpotIDsIncludesForeignPublicSpots(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	viewer := testSession("user-a")

	theirs, err := env.spots.Create(ctx, testSession("user-b"), CreateSpotRequest{Visibility: "public"})
	require.NoError(t, err)

	knot := createTestKnot(t, env, viewer, "private")
	_, err = env.knots.AddSpot(ctx, viewer, knot.ID, theirs.ID)
	require.NoError(t, err)

	knot, err = env.knots.Get(ctx, viewer, knot.ID)
	require.NoError(t, err)

	// The member spot is only reachable through its public copy, which is
	// enough to keep it live in the view.
	live, err := env.feed.FilterLiveSpotIDs(ctx, viewer, knot)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, theirs.ID, live[0].ID)
}
