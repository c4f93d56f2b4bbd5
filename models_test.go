package auth_test

import (
	"testing"
	"time"

	auth "github.com/goliatone/go-auth-sessions"
	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	for _, role := range []string{auth.RoleGuest, auth.RoleMember, auth.RoleAdmin} {
		parsed, ok := auth.ParseRole(role)
		assert.True(t, ok)
		assert.Equal(t, role, parsed)
	}

	_, ok := auth.ParseRole("superuser")
	assert.False(t, ok)
}

func TestIsAtLeast(t *testing.T) {
	assert.True(t, auth.IsAtLeast(auth.RoleAdmin, auth.RoleMember))
	assert.True(t, auth.IsAtLeast(auth.RoleMember, auth.RoleMember))
	assert.True(t, auth.IsAtLeast(auth.RoleMember, auth.RoleGuest))
	assert.False(t, auth.IsAtLeast(auth.RoleGuest, auth.RoleMember))
	assert.False(t, auth.IsAtLeast(auth.RoleMember, auth.RoleAdmin))
}

func TestPasswordResetIsExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		expiresAt time.Time
		expired   bool
	}{
		{"well before expiry", now.Add(time.Hour), false},
		{"one nanosecond before expiry", now.Add(time.Nanosecond), false},
		{"exactly at expiry", now, true},
		{"past expiry", now.Add(-time.Minute), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reset := &auth.PasswordReset{ExpiresAt: tc.expiresAt}
			assert.Equal(t, tc.expired, reset.IsExpired(now))
		})
	}
}

func TestSessionStateString(t *testing.T) {
	assert.Equal(t, "active", auth.SessionStateActive.String())
	assert.Equal(t, "inactive", auth.SessionStateInactive.String())
	assert.Equal(t, "not-found", auth.SessionStateNotFound.String())
}
