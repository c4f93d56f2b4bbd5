package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenService mints and validates the signed token pair. Access and
// refresh tokens share the signing secret but carry independent TTLs and
// a use marker so one can never stand in for the other.
type TokenService interface {
	IssueAccess(identity Identity) (string, *TokenClaims, error)
	IssueRefresh(identity Identity) (string, *TokenClaims, error)
	Validate(tokenString string) (*TokenClaims, error)
	ValidateUse(tokenString string, use TokenUse) (*TokenClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	clock      Clock
	logger     Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, accessTTL, refreshTTL time.Duration, issuer string, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey: signingKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     issuer,
		clock:      systemClock{},
		logger:     logger,
	}
}

// WithClock overrides the time source, mostly for tests.
func (ts *TokenServiceImpl) WithClock(clock Clock) *TokenServiceImpl {
	if clock != nil {
		ts.clock = clock
	}
	return ts
}

// IssueAccess mints a short lived access token with a fresh jti.
func (ts *TokenServiceImpl) IssueAccess(identity Identity) (string, *TokenClaims, error) {
	return ts.issue(identity, TokenUseAccess, ts.accessTTL)
}

// IssueRefresh mints a refresh token with a fresh jti. The jti is the
// join key callers persist on the session record.
func (ts *TokenServiceImpl) IssueRefresh(identity Identity) (string, *TokenClaims, error) {
	return ts.issue(identity, TokenUseRefresh, ts.refreshTTL)
}

func (ts *TokenServiceImpl) issue(identity Identity, use TokenUse, ttl time.Duration) (string, *TokenClaims, error) {
	if identity == nil {
		return "", nil, ErrIdentityNotFound
	}

	now := ts.clock.Now()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenUse: use,
		UserRole: identity.Role(),
	}

	ensureTokenID(&claims.RegisteredClaims)

	signed, err := ts.SignClaims(claims)
	if err != nil {
		return "", nil, err
	}

	return signed, claims, nil
}

// SignClaims signs arbitrary claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *TokenClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string, returning structured
// claims. Signature and expiry are checked before any claim is trusted.
func (ts *TokenServiceImpl) Validate(tokenString string) (*TokenClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(ts.clock.Now),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate claims")
	return nil, ErrTokenMalformed
}

// ValidateUse validates a token and additionally requires its use marker
// to match: a refresh token never passes where an access token is
// expected, and vice versa.
func (ts *TokenServiceImpl) ValidateUse(tokenString string, use TokenUse) (*TokenClaims, error) {
	claims, err := ts.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.TokenUse != use {
		ts.logger.Warn("TokenService validate rejected token use: want %s, got %s", string(use), string(claims.TokenUse))
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

var _ TokenService = (*TokenServiceImpl)(nil)
