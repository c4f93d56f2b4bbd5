package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleGuest is a guest role (ie. view)
	RoleGuest UserRole = "guest"
	// RoleMember is a member (i.e. view, edit)
	RoleMember UserRole = "member"
	// RoleAdmin is the privileged role
	RoleAdmin UserRole = "admin"
)

// ParseRole validates a raw role string.
func ParseRole(role string) (UserRole, bool) {
	switch role {
	case RoleGuest, RoleMember, RoleAdmin:
		return role, true
	default:
		return "", false
	}
}

// IsAtLeast checks if the role is at least the minimum required role
func IsAtLeast(role, minRole UserRole) bool {
	rank := func(r UserRole) int {
		switch r {
		case RoleAdmin:
			return 2
		case RoleMember:
			return 1
		default:
			return 0
		}
	}
	return rank(role) >= rank(minRole)
}

// User is the identity model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	Role           UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	IsActive       bool       `bun:"is_active,notnull" json:"is_active"`
	IsVerified     bool       `bun:"is_verified,notnull" json:"is_verified"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at,nullzero" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at,nullzero" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Session binds a refresh token's jti to its owning user and activity
// state. Sessions are flipped inactive on logout, never deleted.
type Session struct {
	bun.BaseModel `bun:"table:user_sessions,alias:ses"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	TokenID       string     `bun:"token_id,notnull,unique" json:"token_id,omitempty"`
	IPAddress     string     `bun:"ip_address" json:"ip_address,omitempty"`
	UserAgent     string     `bun:"user_agent" json:"user_agent,omitempty"`
	Active        bool       `bun:"active,notnull" json:"active"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// PasswordReset is a single use, time bound reset token. Consumed resets
// are flagged used and kept; a new request does not supersede older live
// tokens.
type PasswordReset struct {
	bun.BaseModel `bun:"table:password_reset_tokens,alias:pwdr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        *uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"token,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	Used          bool       `bun:"used,notnull" json:"used"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// IsExpired reports whether the reset token is past its expiry as of now.
func (p *PasswordReset) IsExpired(now time.Time) bool {
	return !p.ExpiresAt.After(now)
}
