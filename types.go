package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() string
}

// IdentityProvider ensures we have a store to retrieve auth identities
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Clock abstracts time so tests can simulate token and entry expiry.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function into a Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock {
	return systemClock{}
}

// ClientInfo carries request metadata persisted with each session.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// TokenPair is the result of a successful login: a short lived access
// token and a longer lived refresh token whose jti is bound to a session.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Authenticator holds methods to deal with authentication and the
// session/token lifecycle.
type Authenticator interface {
	Login(ctx context.Context, identifier, password string, client ClientInfo) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken, accessToken string) (string, error)
	Logout(ctx context.Context, refreshToken, accessToken string) error
	LogoutAll(ctx context.Context, refreshToken, accessToken string) error
	ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string, logoutSessions bool) error
	ValidateAccess(raw string) (*TokenClaims, error)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetSweepInterval() time.Duration
	GetResetTokenTTL() time.Duration
	GetAccessCookieName() string
	GetRefreshCookieName() string
	GetCookieSecure() bool
}

// Notifier delivers out of band user notifications. The default
// implementation prints to stdout; applications plug in real delivery.
type Notifier interface {
	PasswordResetRequested(ctx context.Context, email, token string) error
}

type stdoutNotifier struct{}

func (stdoutNotifier) PasswordResetRequested(_ context.Context, email, token string) error {
	fmt.Println("====== SENDING EMAIL NOTIFICATION =======")
	fmt.Printf("to: %s\n", email)
	fmt.Printf("link: /password-reset/%s\n", token)
	return nil
}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return stdoutNotifier{}
	}
	return n
}

// SessionState is the tri-state result of a session lookup by refresh
// token id. NotFound is distinct from Inactive: callers react with 404 vs
// 401 and the two must never be collapsed into a boolean.
type SessionState int

const (
	SessionStateNotFound SessionState = iota
	SessionStateInactive
	SessionStateActive
)

func (s SessionState) String() string {
	switch s {
	case SessionStateActive:
		return "active"
	case SessionStateInactive:
		return "inactive"
	default:
		return "not-found"
	}
}

// ParseUserID parses an identity id into a uuid.
func ParseUserID(identity Identity) (uuid.UUID, error) {
	if identity == nil {
		return uuid.Nil, ErrIdentityNotFound
	}
	return uuid.Parse(identity.ID())
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
