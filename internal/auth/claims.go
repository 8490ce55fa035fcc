package auth

import (
	"time"

	"github.com/knotspotapp/knotspot-server/internal/domain"
)

// AccessClaims represents the claims stored in a PASETO access token.
// These are encrypted in v4.local tokens, so they're not readable without the key.
type AccessClaims struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	ProfileTag string `json:"profile_tag"`

	// Standard PASETO claims
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// Session converts verified claims into the acting-user context that core
// operations run under.
func (c *AccessClaims) Session() domain.Session {
	return domain.Session{
		UserID:     c.UserID,
		Username:   c.Username,
		ProfileTag: c.ProfileTag,
	}
}
