package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// AuthController exposes the authentication flows as a JSON API.
type AuthController struct {
	auth      Authenticator
	cfg       Config
	cookies   *CookieCarrier
	register  *RegisterUserHandler
	resetInit *InitializePasswordResetHandler
	resetDone *FinalizePasswordResetHandler
	logger    Logger
}

func NewAuthController(auther Authenticator, repo RepositoryManager, cfg Config) *AuthController {
	return &AuthController{
		auth:      auther,
		cfg:       cfg,
		cookies:   NewCookieCarrier(cfg),
		register:  NewRegisterUserHandler(repo),
		resetInit: NewInitializePasswordResetHandler(repo, cfg.GetResetTokenTTL()),
		resetDone: NewFinalizePasswordResetHandler(repo),
		logger:    defLogger{},
	}
}

func (a *AuthController) WithLogger(logger Logger) *AuthController {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// WithNotifier sets the delivery channel used for password reset tokens.
func (a *AuthController) WithNotifier(notifier Notifier) *AuthController {
	a.resetInit.WithNotifier(notifier)
	return a
}

// RegisterAuthRoutes mounts the authentication endpoints under /auth.
func RegisterAuthRoutes(app *fiber.App, controller *AuthController) {
	group := app.Group("/auth")

	group.Post("/register", controller.Register)
	group.Post("/login", controller.Login)
	group.Post("/refresh", controller.Refresh)
	group.Post("/logout", controller.Logout)
	group.Post("/logout-all", controller.LogoutAll)
	group.Post("/password-reset", controller.PasswordReset)
	group.Post("/password-reset/confirm", controller.PasswordResetConfirm)

	protected := RequireAccessToken(controller.auth, controller.cfg, controller.logger)
	group.Post("/password-change", protected, controller.PasswordChange)
}

type LoginPayload struct {
	Identifier string `json:"identifier" form:"identifier"`
	Password   string `json:"password" form:"password"`
}

func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type PasswordResetPayload struct {
	Email string `json:"email" form:"email"`
}

func (r PasswordResetPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

type PasswordResetConfirmPayload struct {
	Token          string `json:"token" form:"token"`
	Password       string `json:"password" form:"password"`
	LogoutSessions bool   `json:"logout_sessions" form:"logout_sessions"`
}

func (r PasswordResetConfirmPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type PasswordChangePayload struct {
	CurrentPassword string `json:"current_password" form:"current_password"`
	NewPassword     string `json:"new_password" form:"new_password"`
	LogoutSessions  bool   `json:"logout_sessions" form:"logout_sessions"`
}

func (r PasswordChangePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required),
	)
}

func (a *AuthController) Register(c *fiber.Ctx) error {
	payload := RegisterUserMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return WriteError(c, a.logger, errors.Wrap(err, errors.CategoryBadInput, "invalid request body").
			WithCode(errors.CodeBadRequest))
	}

	var created *User
	payload.OnResponse = func(user *User) {
		created = user
	}

	if err := a.register.Execute(c.Context(), payload); err != nil {
		return WriteError(c, a.logger, err)
	}

	body := fiber.Map{"status": "created"}
	if created != nil {
		body["id"] = created.ID.String()
		body["username"] = created.Username
		body["email"] = created.Email
	}

	return c.Status(fiber.StatusCreated).JSON(body)
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := LoginPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return WriteError(c, a.logger, errors.Wrap(err, errors.CategoryBadInput, "invalid request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteError(c, a.logger, errors.Wrap(err, errors.CategoryValidation, "invalid login payload").
			WithCode(errors.CodeBadRequest))
	}

	pair, err := a.auth.Login(c.Context(), payload.Identifier, payload.Password, ClientInfo{
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return WriteError(c, a.logger, err)
	}

	a.cookies.Attach(c, pair)

	return c.JSON(fiber.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    "bearer",
	})
}

func (a *AuthController) Refresh(c *fiber.Ctx) error {
	refreshToken := RefreshTokenFromRequest(c, a.cfg)
	if refreshToken == "" {
		return WriteError(c, a.logger, errors.New("missing refresh token", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized))
	}

	access, err := a.auth.Refresh(c.Context(), refreshToken, AccessTokenFromRequest(c, a.cfg))
	if err != nil {
		return WriteError(c, a.logger, err)
	}

	a.cookies.AttachAccess(c, access)

	return c.JSON(fiber.Map{
		"access_token": access,
		"token_type":   "bearer",
	})
}

func (a *AuthController) Logout(c *fiber.Ctx) error {
	refreshToken := RefreshTokenFromRequest(c, a.cfg)
	if refreshToken == "" {
		return WriteError(c, a.logger, errors.New("missing refresh token", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized))
	}

	if err := a.auth.Logout(c.Context(), refreshToken, AccessTokenFromRequest(c, a.cfg)); err != nil {
		return WriteError(c, a.logger, err)
	}

	a.cookies.Clear(c)

	return c.JSON(fiber.Map{"status": "logged out"})
}

func (a *AuthController) LogoutAll(c *fiber.Ctx) error {
	refreshToken := RefreshTokenFromRequest(c, a.cfg)
	if refreshToken == "" {
		return WriteError(c, a.logger, errors.New("missing refresh token", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized))
	}

	if err := a.auth.LogoutAll(c.Context(), refreshToken, AccessTokenFromRequest(c, a.cfg)); err != nil {
		return WriteError(c, a.logger, err)
	}

	a.cookies.Clear(c)

	return c.JSON(fiber.Map{"status": "logged out everywhere"})
}

func (a *AuthController) PasswordReset(c *fiber.Ctx) error {
	payload := PasswordResetPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return WriteError(c, a.logger, errors.Wrap(err, errors.CategoryBadInput, "invalid request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteError(c, a.logger, errors.Wrap(err, errors.CategoryValidation, "invalid password reset payload").
			WithCode(errors.CodeBadRequest))
	}

	message := InitializePasswordResetMessage{Email: payload.Email}
	if err := a.resetInit.Execute(c.Context(), message); err != nil {
		return WriteError(c, a.logger, err)
	}

	// same response for known and unknown emails
	return c.JSON(fiber.Map{"status": "reset requested"})
}

func (a *AuthController) PasswordResetConfirm(c *fiber.Ctx) error {
	payload := PasswordResetConfirmPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return WriteError(c, a.logger, errors.Wrap(err, errors.CategoryBadInput, "invalid request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteError(c, a.logger, errors.Wrap(err, errors.CategoryValidation, "invalid password reset payload").
			WithCode(errors.CodeBadRequest))
	}

	message := FinalizePasswordResetMessage{
		Token:          payload.Token,
		Password:       payload.Password,
		LogoutSessions: payload.LogoutSessions,
	}
	if err := a.resetDone.Execute(c.Context(), message); err != nil {
		return WriteError(c, a.logger, err)
	}

	return c.JSON(fiber.Map{"status": "password reset"})
}

func (a *AuthController) PasswordChange(c *fiber.Ctx) error {
	payload := PasswordChangePayload{}
	if err := c.BodyParser(&payload); err != nil {
		return WriteError(c, a.logger, errors.Wrap(err, errors.CategoryBadInput, "invalid request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteError(c, a.logger, errors.Wrap(err, errors.CategoryValidation, "invalid password change payload").
			WithCode(errors.CodeBadRequest))
	}

	raw := AccessTokenFromRequest(c, a.cfg)
	err := a.auth.ChangePassword(c.Context(), raw, payload.CurrentPassword, payload.NewPassword, payload.LogoutSessions)
	if err != nil {
		return WriteError(c, a.logger, err)
	}

	if payload.LogoutSessions {
		a.cookies.Clear(c)
	}

	return c.JSON(fiber.Map{"status": "password changed"})
}
