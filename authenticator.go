package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Auther composes the credential verifier, token service, session store,
// and revocation registry into the login / refresh / logout / password
// flows. Within a request the steps run sequentially; a failure at any
// step propagates and nothing downstream of it is committed.
type Auther struct {
	provider     IdentityProvider
	repo         RepositoryManager
	revoked      *RevocationRegistry
	tokenService TokenService
	logger       Logger
	activitySink ActivitySink
}

// NewAuthenticator returns a new Authenticator. The revocation registry
// is an explicit collaborator: the caller owns it and shares the same
// instance with the sweep loop.
func NewAuthenticator(provider IdentityProvider, repo RepositoryManager, revoked *RevocationRegistry, cfg Config) *Auther {
	tokenService := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetAccessTokenTTL(),
		cfg.GetRefreshTokenTTL(),
		cfg.GetIssuer(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		repo:         repo,
		revoked:      revoked,
		tokenService: tokenService,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithTokenService overrides the token service, mostly for tests that
// need a custom clock.
func (s *Auther) WithTokenService(service TokenService) *Auther {
	if service != nil {
		s.tokenService = service
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies credentials, mints the token pair, and creates exactly
// one active session keyed on the refresh token's jti. If the session
// cannot be persisted no tokens are returned.
func (s *Auther) Login(ctx context.Context, identifier, password string, client ClientInfo) (*TokenPair, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error: %v", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return nil, err
	}

	if identity == nil {
		s.logger.Error("Login identity is nil")
		return nil, ErrMismatchedHashAndPassword
	}

	access, _, err := s.tokenService.IssueAccess(identity)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue access token")
	}

	refresh, refreshClaims, err := s.tokenService.IssueRefresh(identity)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue refresh token")
	}

	userID, err := ParseUserID(identity)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "identity id is not a valid uuid")
	}

	if _, err := s.repo.Sessions().Start(ctx, userID, refreshClaims.TokenID(), client); err != nil {
		s.logger.Error("Login failed to create session: %v", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create session")
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromIdentity(identity), identity.ID(), map[string]any{
		"identifier": identifier,
		"token_id":   refreshClaims.TokenID(),
	})

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Refresh exchanges a refresh token bound to an active session for a new
// access token. A refresh token with no matching session fails with
// ErrSessionNotFound while one bound to a deactivated session fails with
// ErrSessionInactive; the two are never conflated. The refresh token
// itself is not rotated. When the caller presents its still valid access
// token it is revoked for the remainder of its TTL.
func (s *Auther) Refresh(ctx context.Context, refreshToken, accessToken string) (string, error) {
	refreshClaims, err := s.requireActiveRefresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	identity, err := s.provider.FindIdentityByIdentifier(ctx, refreshClaims.UserID())
	if err != nil {
		s.logger.Warn("Refresh blocked for %s, identity unavailable: %v", refreshClaims.UserID(), err)
		return "", err
	}

	access, _, err := s.tokenService.IssueAccess(identity)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to issue access token")
	}

	s.revokePresentedAccess(accessToken)

	s.emitAuthEvent(ctx, ActivityEventTokenRefresh, s.actorFromIdentity(identity), identity.ID(), map[string]any{
		"token_id": refreshClaims.TokenID(),
	})

	return access, nil
}

// Logout deactivates the session bound to the refresh token and revokes
// any presented access token.
func (s *Auther) Logout(ctx context.Context, refreshToken, accessToken string) error {
	refreshClaims, err := s.requireActiveRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}

	if err := s.repo.Sessions().Deactivate(ctx, refreshClaims.TokenID()); err != nil {
		if errors.IsNotFound(err) {
			return ErrSessionNotFound
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to deactivate session")
	}

	s.revokePresentedAccess(accessToken)

	s.emitAuthEvent(ctx, ActivityEventLogout, ActorRef{ID: refreshClaims.UserID(), Type: "user"}, refreshClaims.UserID(), map[string]any{
		"token_id": refreshClaims.TokenID(),
	})

	return nil
}

// LogoutAll deactivates every session for the refresh token's owner and
// revokes the presented access token. Other sessions' outstanding access
// tokens are left to expire naturally; their refresh attempts will fail
// at the session-active check. Zero live sessions is a no-op.
func (s *Auther) LogoutAll(ctx context.Context, refreshToken, accessToken string) error {
	refreshClaims, err := s.tokenService.ValidateUse(refreshToken, TokenUseRefresh)
	if err != nil {
		return err
	}

	userID, err := uuid.Parse(refreshClaims.UserID())
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "refresh token subject is not a valid uuid")
	}

	if err := s.repo.Sessions().DeactivateAll(ctx, userID); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to deactivate sessions")
	}

	s.revokePresentedAccess(accessToken)

	s.emitAuthEvent(ctx, ActivityEventLogoutAll, ActorRef{ID: refreshClaims.UserID(), Type: "user"}, refreshClaims.UserID(), nil)

	return nil
}

// ChangePassword verifies the current password before storing a new
// digest. With logoutSessions it also deactivates every session and
// revokes the presented access token.
func (s *Auther) ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string, logoutSessions bool) error {
	claims, err := s.ValidateAccess(accessToken)
	if err != nil {
		return err
	}

	if err := ValidatePassword(newPassword); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "new password does not meet the password policy").
			WithCode(errors.CodeBadRequest)
	}

	user, err := s.repo.Users().GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.IsNotFound(err) {
			return ErrIdentityNotFound
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user for password change")
	}

	if err := ComparePasswordAndHash(oldPassword, user.PasswordHash); err != nil {
		return errors.New("current password is incorrect", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest).
			WithTextCode("PASSWORD_MISMATCH")
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to hash new password")
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.repo.Users().ChangePasswordTx(ctx, tx, user.ID, passwordHash); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to update password")
		}

		if logoutSessions {
			if err := s.repo.Sessions().DeactivateAllTx(ctx, tx, user.ID); err != nil {
				return errors.Wrap(err, errors.CategoryInternal, "failed to deactivate sessions")
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	if logoutSessions {
		s.revoked.Revoke(claims.TokenID(), claims.Expires())
	}

	s.emitAuthEvent(ctx, ActivityEventPasswordChanged, ActorRef{ID: claims.UserID(), Type: "user"}, claims.UserID(), map[string]any{
		"logout_sessions": logoutSessions,
	})

	return nil
}

// ValidateAccess validates an access token and rejects revoked jtis. It
// is the shared gate for protected routes and password changes.
func (s *Auther) ValidateAccess(raw string) (*TokenClaims, error) {
	claims, err := s.tokenService.ValidateUse(raw, TokenUseAccess)
	if err != nil {
		return nil, err
	}

	if s.revoked.IsRevoked(claims.TokenID()) {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// requireActiveRefresh validates a refresh token and maps its session
// tri-state: not-found and inactive are distinct failures.
func (s *Auther) requireActiveRefresh(ctx context.Context, refreshToken string) (*TokenClaims, error) {
	claims, err := s.tokenService.ValidateUse(refreshToken, TokenUseRefresh)
	if err != nil {
		return nil, err
	}

	state, err := s.repo.Sessions().State(ctx, claims.TokenID())
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check session state")
	}

	switch state {
	case SessionStateActive:
		return claims, nil
	case SessionStateInactive:
		return nil, ErrSessionInactive
	default:
		return nil, ErrSessionNotFound
	}
}

// revokePresentedAccess revokes an optional access token. Invalid or
// absent tokens are ignored: the caller is already holding a verified
// refresh token and the access token is only along for the ride.
func (s *Auther) revokePresentedAccess(accessToken string) {
	if accessToken == "" {
		return
	}

	claims, err := s.tokenService.ValidateUse(accessToken, TokenUseAccess)
	if err != nil {
		s.logger.Debug("skipping revocation of invalid access token: %v", err)
		return
	}

	s.revoked.Revoke(claims.TokenID(), claims.Expires())
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func (s *Auther) actorFromIdentity(identity Identity) ActorRef {
	if identity == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   identity.ID(),
		Type: "user",
	}
}

var _ Authenticator = (*Auther)(nil)
