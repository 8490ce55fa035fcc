package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/knotspotapp/knotspot-server/internal/auth"
	"github.com/knotspotapp/knotspot-server/internal/domain"
	"github.com/knotspotapp/knotspot-server/internal/repair"
	"github.com/knotspotapp/knotspot-server/internal/store"
)

// testEnv bundles the services under test against one temp Badger store.
type testEnv struct {
	store         *store.Store
	journal       *repair.Journal
	cascade       *CascadeHandler
	notifications *NotificationService
	spots         *SpotService
	knots         *KnotService
	comments      *CommentService
	groups        *GroupService
	social        *SocialService
	feed          *FeedService
	repairer      *RepairService
	auth          *AuthService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	s, err := store.New(filepath.Join(t.TempDir(), "data"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	journal, err := repair.Open(filepath.Join(t.TempDir(), "repair.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	tokens, err := auth.NewTokenService(
		"6368616e676520746869732070617373776f726420746f206120736563726574",
		15*time.Minute,
		720*time.Hour,
	)
	require.NoError(t, err)

	env := &testEnv{store: s, journal: journal}
	env.notifications = NewNotificationService(s, logger)
	env.cascade = NewCascadeHandler(s, journal, logger)
	env.spots = NewSpotService(s, env.notifications, env.cascade, logger)
	env.knots = NewKnotService(s, env.spots, env.cascade, logger)
	env.comments = NewCommentService(s, env.spots, env.notifications, logger)
	env.groups = NewGroupService(s, env.notifications, logger)
	env.social = NewSocialService(s, logger)
	env.feed = NewFeedService(s, logger)
	env.repairer = NewRepairService(s, journal, env.cascade, logger)
	env.auth = NewAuthService(s, tokens, logger)
	return env
}

func testSession(userID string) domain.Session {
	return domain.Session{
		UserID:     userID,
		Username:   "User " + userID,
		ProfileTag: "tag_" + userID,
	}
}

// seedProfile writes a bare profile document for a user id.
func seedProfile(t *testing.T, s *store.Store, userID string) *domain.UserProfile {
	t.Helper()

	profile := domain.NewUserProfile(userID, "User "+userID, "tag_"+userID)
	require.NoError(t, s.Profiles.Put(context.Background(), store.ProfilePath(userID), profile))
	return profile
}

// spotAt fetches a Spot copy at one scope, failing the test if absent.
func spotAt(t *testing.T, s *store.Store, scope domain.Scope, id string) *domain.Spot {
	t.Helper()

	spot, err := s.Spots.Get(context.Background(), store.SpotPath(scope, id))
	require.NoError(t, err)
	return spot
}

// noSpotAt asserts no Spot copy exists at the scope.
func noSpotAt(t *testing.T, s *store.Store, scope domain.Scope, id string) {
	t.Helper()

	_, err := s.Spots.Get(context.Background(), store.SpotPath(scope, id))
	require.ErrorIs(t, err, store.ErrNotFound)
}

func knotAt(t *testing.T, s *store.Store, scope domain.Scope, id string) *domain.Knot {
	t.Helper()

	knot, err := s.Knots.Get(context.Background(), store.KnotPath(scope, id))
	require.NoError(t, err)
	return knot
}

func noKnotAt(t *testing.T, s *store.Store, scope domain.Scope, id string) {
	t.Helper()

	_, err := s.Knots.Get(context.Background(), store.KnotPath(scope, id))
	require.ErrorIs(t, err, store.ErrNotFound)
}
