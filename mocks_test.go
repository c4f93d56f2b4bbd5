package auth_test

import (
	"context"
	"database/sql"
	"time"

	auth "github.com/goliatone/go-auth-sessions"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockIdentity implements auth.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Username() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Role() string {
	args := m.Called()
	return args.String(0)
}

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {}
func (m *MockLogger) Info(format string, args ...any)  {}
func (m *MockLogger) Warn(format string, args ...any)  {}
func (m *MockLogger) Error(format string, args ...any) {}

// MockIdentityProvider implements auth.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (auth.Identity, error) {
	args := m.Called(ctx, identifier, password)
	identity, _ := args.Get(0).(auth.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (auth.Identity, error) {
	args := m.Called(ctx, identifier)
	identity, _ := args.Get(0).(auth.Identity)
	return identity, args.Error(1)
}

// MockUserTracker implements auth.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSuccessfulLogin(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockUsers mocks the methods the flows exercise; the embedded
// interface covers the rest of the repository surface.
type MockUsers struct {
	mock.Mock
	auth.Users
}

func (m *MockUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	args := m.Called(ctx, id, criteria)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	args := m.Called(ctx, tx, identifier, criteria)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, tx, user)
	created, _ := args.Get(0).(*auth.User)
	return created, args.Error(1)
}

func (m *MockUsers) ChangePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

// MockSessions mocks auth.Sessions
type MockSessions struct {
	mock.Mock
	auth.Sessions
}

func (m *MockSessions) Start(ctx context.Context, userID uuid.UUID, tokenID string, client auth.ClientInfo) (*auth.Session, error) {
	args := m.Called(ctx, userID, tokenID, client)
	session, _ := args.Get(0).(*auth.Session)
	return session, args.Error(1)
}

func (m *MockSessions) State(ctx context.Context, tokenID string) (auth.SessionState, error) {
	args := m.Called(ctx, tokenID)
	state, _ := args.Get(0).(auth.SessionState)
	return state, args.Error(1)
}

func (m *MockSessions) Deactivate(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockSessions) DeactivateAll(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockSessions) DeactivateAllTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	args := m.Called(ctx, tx, userID)
	return args.Error(0)
}

// MockPasswordResets mocks auth.PasswordResets
type MockPasswordResets struct {
	mock.Mock
	auth.PasswordResets
}

func (m *MockPasswordResets) IssueTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, ttl time.Duration) (*auth.PasswordReset, error) {
	args := m.Called(ctx, tx, userID, ttl)
	reset, _ := args.Get(0).(*auth.PasswordReset)
	return reset, args.Error(1)
}

func (m *MockPasswordResets) GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*auth.PasswordReset, error) {
	args := m.Called(ctx, tx, token)
	reset, _ := args.Get(0).(*auth.PasswordReset)
	return reset, args.Error(1)
}

func (m *MockPasswordResets) MarkUsedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

// MockRepositoryManager implements auth.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

// RunInTx runs the transaction body against a zero tx and propagates
// its error, mirroring the real manager. An expectation error short
// circuits the body.
func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	if err := args.Error(0); err != nil {
		return err
	}
	var tx bun.Tx
	return f(ctx, tx)
}

func (m *MockRepositoryManager) Users() auth.Users {
	args := m.Called()
	users, _ := args.Get(0).(auth.Users)
	return users
}

func (m *MockRepositoryManager) Sessions() auth.Sessions {
	args := m.Called()
	sessions, _ := args.Get(0).(auth.Sessions)
	return sessions
}

func (m *MockRepositoryManager) PasswordResets() auth.PasswordResets {
	args := m.Called()
	resets, _ := args.Get(0).(auth.PasswordResets)
	return resets
}

// MockAuthenticator implements auth.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, identifier, password string, client auth.ClientInfo) (*auth.TokenPair, error) {
	args := m.Called(ctx, identifier, password, client)
	pair, _ := args.Get(0).(*auth.TokenPair)
	return pair, args.Error(1)
}

func (m *MockAuthenticator) Refresh(ctx context.Context, refreshToken, accessToken string) (string, error) {
	args := m.Called(ctx, refreshToken, accessToken)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) Logout(ctx context.Context, refreshToken, accessToken string) error {
	args := m.Called(ctx, refreshToken, accessToken)
	return args.Error(0)
}

func (m *MockAuthenticator) LogoutAll(ctx context.Context, refreshToken, accessToken string) error {
	args := m.Called(ctx, refreshToken, accessToken)
	return args.Error(0)
}

func (m *MockAuthenticator) ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string, logoutSessions bool) error {
	args := m.Called(ctx, accessToken, oldPassword, newPassword, logoutSessions)
	return args.Error(0)
}

func (m *MockAuthenticator) ValidateAccess(raw string) (*auth.TokenClaims, error) {
	args := m.Called(raw)
	claims, _ := args.Get(0).(*auth.TokenClaims)
	return claims, args.Error(1)
}

// MockActivitySink implements auth.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event auth.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
