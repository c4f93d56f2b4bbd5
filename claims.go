package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenUse marks which half of the token pair a claim set belongs to.
// Access and refresh tokens are never interchangeable.
type TokenUse string

const (
	TokenUseAccess  TokenUse = "access"
	TokenUseRefresh TokenUse = "refresh"
)

// TokenClaims is the signed claim set carried by both token kinds:
// subject, unique id (jti), expiry, issued-at, plus the use marker and
// the subject's role.
type TokenClaims struct {
	jwt.RegisteredClaims
	TokenUse TokenUse `json:"use,omitempty"`
	UserRole string   `json:"role,omitempty"`
}

// Subject returns the subject claim
func (c *TokenClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the owning user's id. Alias for Subject.
func (c *TokenClaims) UserID() string {
	return c.RegisteredClaims.Subject
}

// TokenID returns the jti claim, the join key to session and revocation
// records.
func (c *TokenClaims) TokenID() string {
	return c.RegisteredClaims.ID
}

// Role returns the role claim
func (c *TokenClaims) Role() string {
	return c.UserRole
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
