package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-auth-sessions"
	"github.com/stretchr/testify/assert"
)

func testIdentity(id, role string) *MockIdentity {
	identity := &MockIdentity{}
	identity.On("ID").Return(id)
	identity.On("Role").Return(role)
	return identity
}

func TestTokenService_Issue(t *testing.T) {
	signingKey := []byte("test-signing-key-0123456789abcdef")
	issuer := "test-issuer"
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	service := auth.NewTokenService(signingKey, 15*time.Minute, 7*24*time.Hour, issuer, nil).
		WithClock(auth.ClockFunc(func() time.Time { return now }))

	t.Run("access token carries use marker and a fresh jti", func(t *testing.T) {
		identity := testIdentity("c9b9f2de-3a45-4c3c-8a1f-27c38761c2a8", "admin")

		tokenString, claims, err := service.IssueAccess(identity)

		assert.NoError(t, err)
		assert.NotEmpty(t, tokenString)
		assert.Equal(t, auth.TokenUseAccess, claims.TokenUse)
		assert.Equal(t, "c9b9f2de-3a45-4c3c-8a1f-27c38761c2a8", claims.UserID())
		assert.Equal(t, "admin", claims.Role())
		assert.NotEmpty(t, claims.TokenID())
		assert.Equal(t, now.Add(15*time.Minute), claims.Expires())
		assert.Equal(t, now, claims.IssuedAt())
	})

	t.Run("refresh token carries its own TTL", func(t *testing.T) {
		identity := testIdentity("c9b9f2de-3a45-4c3c-8a1f-27c38761c2a8", "member")

		_, claims, err := service.IssueRefresh(identity)

		assert.NoError(t, err)
		assert.Equal(t, auth.TokenUseRefresh, claims.TokenUse)
		assert.Equal(t, now.Add(7*24*time.Hour), claims.Expires())
	})

	t.Run("every issue mints a distinct jti", func(t *testing.T) {
		identity := testIdentity("user-1", "member")

		_, first, err := service.IssueAccess(identity)
		assert.NoError(t, err)

		_, second, err := service.IssueAccess(identity)
		assert.NoError(t, err)

		assert.NotEqual(t, first.TokenID(), second.TokenID())
	})

	t.Run("nil identity is rejected", func(t *testing.T) {
		_, _, err := service.IssueAccess(nil)
		assert.Error(t, err)
	})
}

func TestTokenService_Validate(t *testing.T) {
	signingKey := []byte("test-signing-key-0123456789abcdef")
	issuer := "test-issuer"
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	newService := func(clock auth.Clock) *auth.TokenServiceImpl {
		return auth.NewTokenService(signingKey, 15*time.Minute, 7*24*time.Hour, issuer, nil).
			WithClock(clock)
	}

	t.Run("round trips a freshly issued token", func(t *testing.T) {
		service := newService(auth.ClockFunc(func() time.Time { return now }))
		identity := testIdentity("user-1", "member")

		tokenString, _, err := service.IssueAccess(identity)
		assert.NoError(t, err)

		claims, err := service.Validate(tokenString)
		assert.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID())
		assert.Equal(t, "member", claims.Role())
	})

	t.Run("rejects a token past its expiry", func(t *testing.T) {
		current := now
		service := newService(auth.ClockFunc(func() time.Time { return current }))
		identity := testIdentity("user-1", "member")

		tokenString, _, err := service.IssueAccess(identity)
		assert.NoError(t, err)

		current = now.Add(16 * time.Minute)

		_, err = service.Validate(tokenString)
		assert.Error(t, err)
		assert.True(t, auth.IsTokenExpiredError(err))
	})

	t.Run("rejects a tampered token", func(t *testing.T) {
		service := newService(auth.ClockFunc(func() time.Time { return now }))
		identity := testIdentity("user-1", "member")

		tokenString, _, err := service.IssueAccess(identity)
		assert.NoError(t, err)

		tampered := tokenString[:len(tokenString)-2] + "xx"

		_, err = service.Validate(tampered)
		assert.Error(t, err)
		assert.True(t, auth.IsMalformedError(err))
	})

	t.Run("rejects a token signed with a different key", func(t *testing.T) {
		service := newService(auth.ClockFunc(func() time.Time { return now }))
		other := auth.NewTokenService([]byte("another-signing-key-abcdef012345"), 15*time.Minute, time.Hour, issuer, nil).
			WithClock(auth.ClockFunc(func() time.Time { return now }))

		tokenString, _, err := other.IssueAccess(testIdentity("user-1", "member"))
		assert.NoError(t, err)

		_, err = service.Validate(tokenString)
		assert.Error(t, err)
	})

	t.Run("rejects non HMAC signing methods", func(t *testing.T) {
		service := newService(auth.ClockFunc(func() time.Time { return now }))

		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		})
		unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		assert.NoError(t, err)

		_, err = service.Validate(unsigned)
		assert.Error(t, err)
	})

	t.Run("rejects garbage input", func(t *testing.T) {
		service := newService(auth.ClockFunc(func() time.Time { return now }))

		_, err := service.Validate("not-a-token")
		assert.Error(t, err)
		assert.True(t, auth.IsMalformedError(err))
	})
}

func TestTokenService_ValidateUse(t *testing.T) {
	signingKey := []byte("test-signing-key-0123456789abcdef")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	service := auth.NewTokenService(signingKey, 15*time.Minute, 7*24*time.Hour, "test-issuer", nil).
		WithClock(auth.ClockFunc(func() time.Time { return now }))

	identity := testIdentity("user-1", "member")

	accessToken, _, err := service.IssueAccess(identity)
	assert.NoError(t, err)

	refreshToken, _, err := service.IssueRefresh(identity)
	assert.NoError(t, err)

	t.Run("accepts matching use", func(t *testing.T) {
		claims, err := service.ValidateUse(accessToken, auth.TokenUseAccess)
		assert.NoError(t, err)
		assert.Equal(t, auth.TokenUseAccess, claims.TokenUse)
	})

	t.Run("refresh token never passes as access token", func(t *testing.T) {
		_, err := service.ValidateUse(refreshToken, auth.TokenUseAccess)
		assert.Error(t, err)
		assert.True(t, auth.IsMalformedError(err))
	})

	t.Run("access token never passes as refresh token", func(t *testing.T) {
		_, err := service.ValidateUse(accessToken, auth.TokenUseRefresh)
		assert.Error(t, err)
		assert.True(t, auth.IsMalformedError(err))
	})
}

func TestTokenService_LogLinesRenderCleanly(t *testing.T) {
	lgr := &recordingLogger{}
	service := auth.NewTokenService([]byte("test-signing-key-0123456789abcdef"), 15*time.Minute, 7*24*time.Hour, "test-issuer", lgr)

	token, _, err := service.IssueRefresh(testIdentity("user-1", "member"))
	assert.NoError(t, err)

	_, err = service.ValidateUse(token, auth.TokenUseAccess)
	assert.Error(t, err)

	entries := lgr.all()
	for _, entry := range entries {
		assert.NotContains(t, entry, "%!")
	}
	if assert.NotEmpty(t, entries) {
		assert.Contains(t, entries[len(entries)-1], "want access, got refresh")
	}
}
