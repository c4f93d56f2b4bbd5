package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type InitializePasswordResetMessage struct {
	Email string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	// OnResponse fires after the handler completes, whether or not the
	// email matched an account.
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset" }

type InitializePasswordResetResponse struct {
	Reset   *PasswordReset
	Success bool
}

// InitializePasswordResetHandler issues a single use reset token for an
// account. Requests for unknown emails succeed without a token so the
// endpoint does not reveal which addresses are registered.
// Issuing a token does not invalidate earlier ones still inside their
// TTL; each outstanding token stays independently redeemable.
type InitializePasswordResetHandler struct {
	repo     RepositoryManager
	notifier Notifier
	ttl      time.Duration
	logger   Logger
}

func NewInitializePasswordResetHandler(repo RepositoryManager, ttl time.Duration) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:     repo,
		notifier: stdoutNotifier{},
		ttl:      ttl,
		logger:   defLogger{},
	}
}

// WithNotifier sets the delivery channel for reset tokens.
func (h *InitializePasswordResetHandler) WithNotifier(notifier Notifier) *InitializePasswordResetHandler {
	h.notifier = normalizeNotifier(notifier)
	return h
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	resp := &InitializePasswordResetResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Email == "" {
		return goerrors.New("email is required for password reset", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByIdentifierTx(ctx, tx, event.Email)
		if err != nil {
			if goerrors.IsNotFound(err) {
				// unknown email: succeed without issuing anything
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
		}

		reset, err := h.repo.PasswordResets().IssueTx(ctx, tx, user.ID, h.ttl)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create password reset record")
		}

		resp.Reset = reset

		if err := normalizeNotifier(h.notifier).PasswordResetRequested(ctx, user.Email, reset.Token); err != nil {
			h.logger.Warn("password reset notification error: %v", err)
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
