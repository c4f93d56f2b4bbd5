package auth

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	UseHashid bool
	// OnResponse receives the stored user. The password hash is never
	// serialized but handlers should still avoid logging the record.
	OnResponse func(user *User)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Username, validation.Length(4, 32)),
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 100), validation.By(PasswordComplexity)),
	)
}

type RegisterUserHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload").
			WithCode(goerrors.CodeBadRequest)
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := h.ensureIdentifierAvailable(ctx, tx, event); err != nil {
			return err
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = strings.ToLower(strings.TrimSpace(event.Email))
		user.Username = getUsername(event.Username, user.Email)
		if role, ok := ParseRole(event.Role); ok {
			user.Role = role
		}
		if event.UseHashid {
			if id, err := hashid.NewUUID(user.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}

// ensureIdentifierAvailable rejects a registration whose email or
// username is already taken, naming the conflicting field.
func (h *RegisterUserHandler) ensureIdentifierAvailable(ctx context.Context, tx bun.Tx, event RegisterUserMessage) error {
	identifiers := []struct {
		field string
		value string
	}{
		{"email", event.Email},
		{"username", event.Username},
	}

	for _, identifier := range identifiers {
		if identifier.value == "" {
			continue
		}

		existing, err := h.repo.Users().GetByIdentifierTx(ctx, tx, identifier.value)
		if err != nil {
			if goerrors.IsNotFound(err) {
				continue
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check identifier availability")
		}

		if existing != nil {
			return goerrors.New("account already exists", goerrors.CategoryConflict).
				WithCode(goerrors.CodeConflict).
				WithMetadata(map[string]any{
					"field": identifier.field,
				})
		}
	}

	return nil
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
