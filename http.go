package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// ClaimsContextKey is where RequireAccessToken stores the validated
// claims on the request context.
const ClaimsContextKey = "auth_claims"

// CookieCarrier writes and clears the token cookies. Both cookies are
// HTTPOnly; expiry mirrors the token TTLs so a browser drops the cookie
// around the same time the token stops validating.
type CookieCarrier struct {
	cfg Config
}

func NewCookieCarrier(cfg Config) *CookieCarrier {
	return &CookieCarrier{cfg: cfg}
}

// Attach sets both token cookies from a login result.
func (cc *CookieCarrier) Attach(c *fiber.Ctx, pair *TokenPair) {
	if pair == nil {
		return
	}
	cc.setCookie(c, cc.cfg.GetAccessCookieName(), pair.AccessToken, cc.cfg.GetAccessTokenTTL())
	cc.setCookie(c, cc.cfg.GetRefreshCookieName(), pair.RefreshToken, cc.cfg.GetRefreshTokenTTL())
}

// AttachAccess replaces only the access cookie, used after a refresh.
func (cc *CookieCarrier) AttachAccess(c *fiber.Ctx, accessToken string) {
	cc.setCookie(c, cc.cfg.GetAccessCookieName(), accessToken, cc.cfg.GetAccessTokenTTL())
}

// Clear expires both token cookies.
func (cc *CookieCarrier) Clear(c *fiber.Ctx) {
	cc.delCookie(c, cc.cfg.GetAccessCookieName())
	cc.delCookie(c, cc.cfg.GetRefreshCookieName())
}

func (cc *CookieCarrier) setCookie(c *fiber.Ctx, name, val string, duration time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   cc.cfg.GetCookieSecure(),
		SameSite: "Lax",
	})
}

func (cc *CookieCarrier) delCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   cc.cfg.GetCookieSecure(),
		SameSite: "Lax",
	})
}

// AccessTokenFromRequest reads the raw access token from the access
// cookie, falling back to an Authorization bearer header.
func AccessTokenFromRequest(c *fiber.Ctx, cfg Config) string {
	if raw := c.Cookies(cfg.GetAccessCookieName()); raw != "" {
		return raw
	}

	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}

	return ""
}

// RefreshTokenFromRequest reads the raw refresh token from the refresh
// cookie.
func RefreshTokenFromRequest(c *fiber.Ctx, cfg Config) string {
	return c.Cookies(cfg.GetRefreshCookieName())
}

// RequireAccessToken guards a route group. It validates the presented
// access token, including the revocation check, and stores the claims
// in the request locals under ClaimsContextKey.
func RequireAccessToken(auther Authenticator, cfg Config, logger Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := AccessTokenFromRequest(c, cfg)
		if raw == "" {
			return WriteError(c, logger, errors.New("missing authentication token", errors.CategoryAuth).
				WithCode(errors.CodeUnauthorized))
		}

		claims, err := auther.ValidateAccess(raw)
		if err != nil {
			return WriteError(c, logger, err)
		}

		c.Locals(ClaimsContextKey, claims)
		return c.Next()
	}
}

// ClaimsFromContext retrieves the claims stored by RequireAccessToken.
func ClaimsFromContext(c *fiber.Ctx) (*TokenClaims, error) {
	claims, ok := c.Locals(ClaimsContextKey).(*TokenClaims)
	if !ok || claims == nil {
		return nil, ErrUnableToFindSession
	}
	return claims, nil
}

// WriteError renders a rich error as a JSON response. Unrecognized
// errors become opaque 500s so internals never leak to clients.
func WriteError(c *fiber.Ctx, logger Logger, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	if logger == nil {
		logger = defLogger{}
	}

	logger.Info(
		"request error: %s category=%s text_code=%s details=%s",
		richErr.Message,
		richErr.Category,
		richErr.TextCode,
		print.MaybePrettyJSON(richErr.Metadata),
	)

	status := richErr.Code
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	body := fiber.Map{
		"message": richErr.Message,
	}
	if richErr.TextCode != "" {
		body["text_code"] = richErr.TextCode
	}

	return c.Status(status).JSON(fiber.Map{"error": body})
}
