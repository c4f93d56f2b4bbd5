package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	// TextCodeTokenExpired marks tokens past their expiry claim.
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTokenMalformed marks tokens that fail parsing or signature checks.
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
	// TextCodeTokenRevoked marks access tokens found in the revocation registry.
	TextCodeTokenRevoked = "TOKEN_REVOKED"
	// TextCodeTokenUsed marks password reset tokens that were already consumed.
	TextCodeTokenUsed = "TOKEN_ALREADY_USED"
	// TextCodeSessionInactive marks refresh tokens bound to a deactivated session.
	TextCodeSessionInactive = "SESSION_INACTIVE"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("IDENTITY_NOT_FOUND")

// ErrMismatchedHashAndPassword is the uniform credential failure. It covers
// both unknown identifiers and wrong passwords so responses never reveal
// whether an account exists.
var ErrMismatchedHashAndPassword = errors.New("invalid credentials", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("INVALID_CREDENTIALS")

// ErrTooManyLoginAttempts signals the login attempt cooldown kicked in.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryRateLimit).
	WithCode(429).
	WithTextCode("TOO_MANY_ATTEMPTS")

// ErrAccountInactive rejects disabled accounts.
var ErrAccountInactive = errors.New("account is inactive", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode("ACCOUNT_INACTIVE")

// ErrAccountUnverified rejects accounts that never verified their email.
var ErrAccountUnverified = errors.New("account is not verified", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode("ACCOUNT_UNVERIFIED")

// ErrTokenExpired is returned for structurally valid tokens past their expiry.
var ErrTokenExpired = errors.New("authentication token has expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is returned when a token fails parsing, signature, or
// claim shape validation.
var ErrTokenMalformed = errors.New("invalid authentication token", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrTokenRevoked is returned for access tokens present in the revocation
// registry.
var ErrTokenRevoked = errors.New("authentication token has been revoked", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenRevoked)

// ErrSessionInactive is returned when a refresh token's session exists but
// was deactivated.
var ErrSessionInactive = errors.New("inactive refresh token", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeSessionInactive)

// ErrSessionNotFound is returned when no session matches a refresh token's
// jti. Deliberately distinct from ErrSessionInactive.
var ErrSessionNotFound = errors.New("invalid refresh token", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode("SESSION_NOT_FOUND")

// ErrResetTokenNotFound is returned for unknown password reset tokens.
var ErrResetTokenNotFound = errors.New("invalid or expired password reset token", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode("RESET_TOKEN_NOT_FOUND")

// ErrResetTokenExpired rejects reset tokens past their expiry regardless of
// use state.
var ErrResetTokenExpired = errors.New("password reset token has expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrResetTokenUsed rejects reset tokens that were already consumed.
var ErrResetTokenUsed = errors.New("password reset token has already been used", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenUsed)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// ErrUnableToFindSession is the error when a request carries no token
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
