package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knotspotapp/knotspot-server/internal/domain"
	apperrors "github.com/knotspotapp/knotspot-server/internal/errors"
)

func TestAddCommentBundlesCount(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := testSession("user-b")
	commenter := testSession("user-a")

	spot, err := env.spots.Create(ctx, owner, CreateSpotRequest{Visibility: "public"})
	require.NoError(t, err)

	comment, err := env.comments.Add(ctx, commenter, spot.ID, AddCommentRequest{Body: "great view"})
	require.NoError(t, err)
	assert.Equal(t, "great view", comment.Body)
	assert.Equal(t, "user-a", comment.AuthorID)

	// The count increment landed on every live copy in the same batch as
	// the comment append.
	assert.Equal(t, 1, spotAt(t, env.store, domain.OwnerScope("user-b"), spot.ID).CommentCount)
	assert.Equal(t, 1, spotAt(t, env.store, domain.PublicScope(), spot.ID).CommentCount)

	notifications, err := env.notifications.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotificationComment, notifications[0].Kind)
}

func TestAddCommentByOwnerNoNotification(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := testSession("user-b")

	spot, err := env.spots.Create(ctx, owner, CreateSpotRequest{Visibility: "private"})
	require.NoError(t, err)

	_, err = env.comments.Add(ctx, owner, spot.ID, AddCommentRequest{Body: "my own note"})
	require.NoError(t, err)

	notifications, err := env.notifications.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestAddCommentNormalizesHTML(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := testSession("user-b")

	spot, err := env.spots.Create(ctx, owner, CreateSpotRequest{Visibility: "private"})
	require.NoError(t, err)

	comment, err := env.comments.Add(ctx, owner, spot.ID, AddCommentRequest{Body: "<b>bold</b> take"})
	require.NoError(t, err)
	assert.Equal(t, "**bold** take", comment.Body)
}

func TestListCommentsOrdered(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := testSession("user-b")

	spot, err := env.spots.Create(ctx, owner, CreateSpotRequest{Visibility: "private"})
	require.NoError(t, err)

	first, err := env.comments.Add(ctx, owner, spot.ID, AddCommentRequest{Body: "first"})
	require.NoError(t, err)
	second, err := env.comments.Add(ctx, owner, spot.ID, AddCommentRequest{Body: "second"})
	require.NoError(t, err)

	comments, err := env.comments.List(ctx, owner, spot.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, first.ID, comments[0].ID)
	assert.Equal(t, second.ID, comments[1].ID)
}

func TestCommentOnMissingSpot(t *testing.T) {
	env := setupEnv(t)

	_, err := env.comments.Add(context.Background(), testSession("user-a"), "spot-missing", AddCommentRequest{Body: "hello"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
