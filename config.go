package auth

import (
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
)

// EnvConfig is the environment backed Config implementation. Access and
// refresh TTLs are independent values; access should stay much shorter
// than refresh.
type EnvConfig struct {
	SigningKey        string        `env:"AUTH_SIGNING_KEY"`
	Issuer            string        `env:"AUTH_ISSUER" envDefault:"go-auth-sessions"`
	AccessTokenTTL    time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" envDefault:"60m"`
	RefreshTokenTTL   time.Duration `env:"AUTH_REFRESH_TOKEN_TTL" envDefault:"168h"`
	SweepInterval     time.Duration `env:"AUTH_DENIED_TOKEN_SWEEP_INTERVAL" envDefault:"10m"`
	ResetTokenTTL     time.Duration `env:"AUTH_RESET_TOKEN_TTL" envDefault:"24h"`
	AccessCookieName  string        `env:"AUTH_ACCESS_COOKIE" envDefault:"access_token"`
	RefreshCookieName string        `env:"AUTH_REFRESH_COOKIE" envDefault:"refresh_token"`
	CookieSecure      bool          `env:"AUTH_COOKIE_SECURE" envDefault:"true"`
}

// LoadConfig parses the environment and validates the result.
func LoadConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to parse auth config from environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces the configuration invariants.
func (c *EnvConfig) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.SigningKey, validation.Required, validation.Length(32, 0)),
		validation.Field(&c.Issuer, validation.Required),
		validation.Field(&c.AccessCookieName, validation.Required),
		validation.Field(&c.RefreshCookieName, validation.Required),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid auth configuration")
	}

	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.SweepInterval <= 0 || c.ResetTokenTTL <= 0 {
		return errors.New("auth TTLs and sweep interval must be positive", errors.CategoryValidation)
	}

	if c.AccessTokenTTL >= c.RefreshTokenTTL {
		return errors.New("access token TTL must be shorter than refresh token TTL", errors.CategoryValidation)
	}

	return nil
}

func (c *EnvConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *EnvConfig) GetIssuer() string {
	return c.Issuer
}

func (c *EnvConfig) GetAccessTokenTTL() time.Duration {
	return c.AccessTokenTTL
}

func (c *EnvConfig) GetRefreshTokenTTL() time.Duration {
	return c.RefreshTokenTTL
}

func (c *EnvConfig) GetSweepInterval() time.Duration {
	return c.SweepInterval
}

func (c *EnvConfig) GetResetTokenTTL() time.Duration {
	return c.ResetTokenTTL
}

func (c *EnvConfig) GetAccessCookieName() string {
	return c.AccessCookieName
}

func (c *EnvConfig) GetRefreshCookieName() string {
	return c.RefreshCookieName
}

func (c *EnvConfig) GetCookieSecure() bool {
	return c.CookieSecure
}

var _ Config = (*EnvConfig)(nil)
