package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/knotspotapp/knotspot-server/internal/auth"
	"github.com/knotspotapp/knotspot-server/internal/color"
	"github.com/knotspotapp/knotspot-server/internal/domain"
	apperrors "github.com/knotspotapp/knotspot-server/internal/errors"
	"github.com/knotspotapp/knotspot-server/internal/id"
	"github.com/knotspotapp/knotspot-server/internal/normalize"
	"github.com/knotspotapp/knotspot-server/internal/store"
)

// AuthService handles registration, login and the refresh-token lifecycle.
// It is the acting-session collaborator: every core operation receives the
// session it binds at token verification.
type AuthService struct {
	store        *store.Store
	tokenService *auth.TokenService
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(s *store.Store, tokenService *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:        s,
		tokenService: tokenService,
		logger:       logger,
	}
}

// RegisterRequest contains new account data.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=2,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair is what a successful register/login/refresh returns.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResult bundles the account with its fresh tokens.
type AuthResult struct {
	User   *domain.User
	Tokens TokenPair
}

// Register creates the account document, its profile, and a first session.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	username := normalize.Username(req.Username)
	profileTag := normalize.ProfileTag(username)
	if profileTag == "" {
		return nil, apperrors.Validation("username must contain letters or digits")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        req.Email,
		PasswordHash: hash,
		ProfileTag:   profileTag,
	}
	user.ID = userID
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, apperrors.AlreadyExists("email or username already in use")
		}
		return nil, storeWriteError("create account", err)
	}

	profile := domain.NewUserProfile(user.ID, user.Username, user.ProfileTag)
	profile.AvatarColor = color.ForUser(user.ID)
	if err := s.store.Profiles.Put(ctx, store.ProfilePath(user.ID), profile); err != nil {
		return nil, storeWriteError("create profile", err)
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "profile_tag", user.ProfileTag)
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Login verifies credentials and issues a fresh token pair.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Same response either way so probes can't enumerate accounts.
			return nil, apperrors.InvalidCredentials("invalid email or password")
		}
		return nil, err
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil || !ok {
		return nil, apperrors.InvalidCredentials("invalid email or password")
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Refresh rotates a refresh token: the presented token is invalidated and a
// new pair is issued.
func (s *AuthService) Refresh(ctx context.Context, userID, refreshToken string) (*AuthResult, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.InvalidCredentials("invalid refresh token")
		}
		return nil, err
	}

	now := time.Now()
	tokenHash := auth.HashRefreshToken(refreshToken)
	if _, ok := user.FindSession(tokenHash, now); !ok {
		return nil, apperrors.TokenExpired("refresh token expired or revoked")
	}
	user.RemoveSession(tokenHash)

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Logout revokes the presented refresh token. Unknown tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	if !user.RemoveSession(auth.HashRefreshToken(refreshToken)) {
		return nil
	}
	user.Touch()
	if err := s.store.Users.Put(ctx, store.UserPath(user.ID), user); err != nil {
		return storeWriteError("logout", err)
	}
	return nil
}

// Verify turns a bearer token into the acting session.
func (s *AuthService) Verify(tokenString string) (domain.Session, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return domain.Session{}, apperrors.NotAuthenticated("invalid or expired token")
	}
	return claims.Session(), nil
}

// issueTokens mints an access/refresh pair and persists the refresh hash on
// the account document.
func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (TokenPair, error) {
	accessToken, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}

	now := time.Now()
	user.AddSession(domain.RefreshSession{
		TokenHash: auth.HashRefreshToken(refreshToken),
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenService.RefreshTokenDuration()),
	}, now)
	user.Touch()

	if err := s.store.Users.Put(ctx, store.UserPath(user.ID), user); err != nil {
		return TokenPair{}, storeWriteError("persist session", err)
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(s.tokenService.AccessTokenDuration()),
	}, nil
}
