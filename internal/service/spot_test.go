package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knotspotapp/knotspot-server/internal/domain"
	apperrors "github.com/knotspotapp/knotspot-server/internal/errors"
)

func TestCreateSpotPublicGroupless(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	session := testSession("user-a")

	spot, err := env.spots.Create(ctx, session, CreateSpotRequest{
		Caption:    "sunset at the pier",
		Visibility: "public",
	})
	require.NoError(t, err)

	// Exactly two copies: owner-private and global-public, both with no
	// knot references.
	private := spotAt(t, env.store, domain.OwnerScope("user-a"), spot.ID)
	public := spotAt(t, env.store, domain.PublicScope(), spot.ID)
	assert.Empty(t, private.KnotIDs)
	assert.Empty(t, public.KnotIDs)
	assert.Equal(t, private.ID, public.ID)
	assert.Equal(t, "sunset at the pier", private.Caption)
}

func TestCreateSpotPrivateHasNoPublicCopy(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	session := testSession("user-a")

	spot, err := env.spots.Create(ctx, session, CreateSpotRequest{Visibility: "private"})
	require.NoError(t, err)

	spotAt(t, env.store, domain.OwnerScope("user-a"), spot.ID)
	noSpotAt(t, env.store, domain.PublicScope(), spot.ID)
}

func TestCreateSpotInGroup(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	session := testSession("user-a")

	group, err := env.groups.Create(ctx, session, CreateGroupRequest{Name: "hiking club"})
	require.NoError(t, err)

	spot, err := env.spots.Create(ctx, session, CreateSpotRequest{GroupID: group.ID})
	require.NoError(t, err)

	spotAt(t, env.store, domain.GroupScope(group.ID), spot.ID)
	noSpotAt(t, env.store, domain.OwnerScope("user-a"), spot.ID)
	noSpotAt(t, env.store, domain.PublicScope(), spot.ID)
}

func TestCreateSpotGroupForcesPrivate(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	session := testSession("user-a")

	group, err := env.groups.Create(ctx, session, CreateGroupRequest{Name: "hiking club"})
	require.NoError(t, err)

	// A set GroupID forces the visibility to private, same as on update.
	spot, err := env.spots.Create(ctx, session, CreateSpotRequest{
		GroupID:    group.ID,
		Visibility: "public",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.VisibilityPrivate, spot.Visibility)
	spotAt(t, env.store, domain.GroupScope(group.ID), spot.ID)
	noSpotAt(t, env.store, domain.PublicScope(), spot.ID)
}

func TestCreateSpotRequiresSession(t *testing.T) {
	env := setupEnv(t)

	_, err := env.spots.Create(context.Background(), domain.Session{}, CreateSpotRequest{})
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}

func TestUpdateSpotVisibilityFlip(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	session := testSession("user-a")

	spot, err := env.spots.Create(ctx, session, CreateSpotRequest{Visibility: "public"})
	require.NoError(t, err)

	// public -> private deletes only the public copy.
	private := "private"
	_, err = env.spots.Update(ctx, session, spot.ID, UpdateSpotRequest{Visibility: &private})
	require.NoError(t, err)
	spotAt(t, env.store, domain.OwnerScope("user-a"), spot.ID)
	noSpotAt(t, env.store, domain.PublicScope(), spot.ID)

	// private -> public recreates it.
	public := "public"
	_, err = env.spots.Update(ctx, session, spot.ID, UpdateSpotRequest{Visibility: &public})
	require.NoError(t, err)
	spotAt(t, env.store, domain.PublicScope(), spot.ID)
}

func TestMoveSpotIntoGroupKeepsKnotLink(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	session := testSession("user-a")

	group, err := env.groups.Create(ctx, session, CreateGroupRequest{Name: "hiking club"})
	require.NoError(t, err)

	spot, err := env.spots.Create(ctx, session, CreateSpotRequest{Visibility: "public"})
	require.NoError(t, err)

	knot, err := env.knots.Create(ctx, session, CreateKnotRequest{
		Name:      "summer",
		Status:    "private",
		StartDate: time.Now(),
		EndDate:   time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)

	_, err = env.knots.AddSpot(ctx, session, knot.ID, spot.ID)
	require.NoError(t, err)

	// Move into the group: both groupless copies disappear, a group-scoped
	// copy appears, and the knot link survives.
	groupID := group.ID
	moved, err := env.spots.Update(ctx, session, spot.ID, UpdateSpotRequest{GroupID: &groupID})
	require.NoError(t, err)

	noSpotAt(t, env.store, domain.OwnerScope("user-a"), spot.ID)
	noSpotAt(t, env.store, domain.PublicScope(), spot.ID)
	grouped := spotAt(t, env.store, domain.GroupScope(group.ID), spot.ID)
	assert.Equal(t, group.ID, grouped.GroupID)
	assert.Equal(t, []string{knot.ID}, grouped.KnotIDs)
	assert.Equal(t, []string{knot.ID}, moved.KnotIDs)

	stored := knotAt(t, env.store, domain.OwnerScope("user-a"), knot.ID)
	assert.True(t, stored.ContainsSpot(spot.ID))
}

func TestUpdateSpotOnlyOwner(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	spot, err := env.spots.Create(ctx, testSession("user-a"), CreateSpotRequest{Visibility: "public"})
	require.NoError(t, err)

	caption := "mine now"
	_, err = env.spots.Update(ctx, testSession("user-b"), spot.ID, UpdateSpotRequest{Caption: &caption})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestToggleLikeNotifiesOwner(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := testSession("user-b")
	liker := testSession("user-a")

	spot, err := env.spots.Create(ctx, owner, CreateSpotRequest{Visibility: "public"})
	require.NoError(t, err)

	liked, err := env.spots.ToggleLike(ctx, liker, spot.ID)
	require.NoError(t, err)
	assert.True(t, liked.LikedBy("user-a"))

	// Both live copies carry the like.
	assert.True(t, spotAt(t, env.store, domain.OwnerScope("user-b"), spot.ID).LikedBy("user-a"))
	assert.True(t, spotAt(t, env.store, domain.PublicScope(), spot.ID).LikedBy("user-a"))

	notifications, err := env.notifications.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotificationLike, notifications[0].Kind)
	assert.Equal(t, "user-a", notifications[0].ActorID)
	assert.Equal(t, spot.ID, notifications[0].SpotID)

	// Unlike removes the id and produces no notification.
	unliked, err := env.spots.ToggleLike(ctx, liker, spot.ID)
	require.NoError(t, err)
	assert.False(t, unliked.LikedBy("user-a"))

	notifications, err = env.notifications.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, notifications, 1)
}

func TestToggleLikeOwnSpotNoNotification(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := testSession("user-b")

	spot, err := env.spots.Create(ctx, owner, CreateSpotRequest{Visibility: "public"})
	require.NoError(t, err)

	_, err = env.spots.ToggleLike(ctx, owner, spot.ID)
	require.NoError(t, err)

	notifications, err := env.notifications.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestRemoveTag(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := testSession("user-a")

	spot, err := env.spots.Create(ctx, owner, CreateSpotRequest{
		Visibility:  "public",
		TaggedUsers: []string{"tag_user-b", "tag_user-c"},
	})
	require.NoError(t, err)

	t.Run("tagged user removes their own tag", func(t *testing.T) {
		tagged := testSession("user-b")
		updated, err := env.spots.RemoveTag(ctx, tagged, spot.ID, "tag_user-b")
		require.NoError(t, err)
		assert.NotContains(t, updated.TaggedUsers, "tag_user-b")
	})

	t.Run("stranger cannot remove another tag", func(t *testing.T) {
		_, err := env.spots.RemoveTag(ctx, testSession("user-z"), spot.ID, "tag_user-c")
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("owner can remove any tag", func(t *testing.T) {
		updated, err := env.spots.RemoveTag(ctx, owner, spot.ID, "tag_user-c")
		require.NoError(t, err)
		assert.Empty(t, updated.TaggedUsers)
	})
}

func TestLikeMissingSpot(t *testing.T) {
	env := setupEnv(t)

	_, err := env.spots.ToggleLike(context.Background(), testSession("user-a"), "spot-missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
