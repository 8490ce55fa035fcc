package domain

import (
	"crypto/subtle"
	"time"
)

// User is the authentication-side record for an account. Social state lives
// on the UserProfile document, keyed by the same id. Account documents never
// cross the API boundary directly, so the password hash can live on the doc.
type User struct {
	Syncable

	Username     string           `json:"username"`
	Email        string           `json:"email"`
	PasswordHash string           `json:"password_hash"`
	ProfileTag   string           `json:"profile_tag"`
	Sessions     []RefreshSession `json:"sessions,omitempty"`
}

// RefreshSession records one issued refresh token, stored as a hash so a
// leaked database doesn't yield usable tokens.
type RefreshSession struct {
	TokenHash string    `json:"token_hash"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session's refresh token has lapsed.
func (r RefreshSession) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// AddSession appends a refresh session and drops any expired ones.
func (u *User) AddSession(s RefreshSession, now time.Time) {
	kept := u.Sessions[:0]
	for _, existing := range u.Sessions {
		if !existing.Expired(now) {
			kept = append(kept, existing)
		}
	}
	u.Sessions = append(kept, s)
}

// FindSession returns the live session matching the token hash, if any.
// Comparison is constant-time.
func (u *User) FindSession(tokenHash string, now time.Time) (RefreshSession, bool) {
	for _, s := range u.Sessions {
		if subtle.ConstantTimeCompare([]byte(s.TokenHash), []byte(tokenHash)) == 1 && !s.Expired(now) {
			return s, true
		}
	}
	return RefreshSession{}, false
}

// RemoveSession deletes the session with the given token hash.
// Returns true if a session was removed.
func (u *User) RemoveSession(tokenHash string) bool {
	for i, s := range u.Sessions {
		if s.TokenHash == tokenHash {
			u.Sessions = append(u.Sessions[:i], u.Sessions[i+1:]...)
			return true
		}
	}
	return false
}

// Session is the acting-user context threaded into every core operation.
// It is bound when a token is verified and treated as read-only from there;
// there is no ambient global session state.
type Session struct {
	UserID     string
	Username   string
	ProfileTag string
}

// Valid reports whether the session identifies an acting user.
func (s Session) Valid() bool {
	return s.UserID != ""
}
