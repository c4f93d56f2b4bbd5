package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type FinalizePasswordResetMessage struct {
	Token    string `json:"token" example:"350399bc-c095-4bdc-a59c-3352d44848e4" doc:"Reset password token"`
	Password string `json:"password" example:"some_secret_word" doc:"New password"`
	// LogoutSessions deactivates every session of the account after the
	// password is replaced.
	LogoutSessions bool `json:"logout_sessions"`
}

// FinalizePasswordResetHandler redeems a reset token and stores the new
// password digest. A token is rejected when it is unknown, past its
// expiry, or already redeemed; expiry wins over used so a stale token
// reads the same whether or not it was consumed first.
type FinalizePasswordResetHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	clock    Clock
	logger   Logger
}

// NewFinalizePasswordResetHandler creates a handler with sane defaults.
func NewFinalizePasswordResetHandler(repo RepositoryManager) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		repo:     repo,
		activity: noopActivitySink{},
		clock:    SystemClock(),
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit password reset events.
func (h *FinalizePasswordResetHandler) WithActivitySink(sink ActivitySink) *FinalizePasswordResetHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithClock overrides the time source used for expiry checks.
func (h *FinalizePasswordResetHandler) WithClock(clock Clock) *FinalizePasswordResetHandler {
	if clock != nil {
		h.clock = clock
	}
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	reset := &PasswordReset{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := ValidatePassword(event.Password); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "new password does not meet the password policy").
			WithCode(goerrors.CodeBadRequest)
	}

	var err error

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		reset, err = h.repo.PasswordResets().GetByTokenTx(ctx, tx, event.Token)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrResetTokenNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve password reset request")
		}

		if reset.IsExpired(h.clock.Now()) {
			return ErrResetTokenExpired
		}

		if reset.Used {
			return ErrResetTokenUsed
		}

		if reset.UserID == nil {
			return goerrors.New("password reset record is not associated with a user", goerrors.CategoryInternal)
		}

		passwordHash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash new password")
		}

		if err := h.repo.Users().ChangePasswordTx(ctx, tx, *reset.UserID, passwordHash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password in database")
		}

		if err := h.repo.PasswordResets().MarkUsedTx(ctx, tx, reset.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password reset status")
		}

		if event.LogoutSessions {
			if err := h.repo.Sessions().DeactivateAllTx(ctx, tx, *reset.UserID); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to deactivate sessions")
			}
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	h.recordActivity(ctx, reset)

	return nil
}

func (h *FinalizePasswordResetHandler) recordActivity(ctx context.Context, reset *PasswordReset) {
	if reset == nil || reset.UserID == nil {
		return
	}

	event := ActivityEvent{
		EventType: ActivityEventPasswordResetSuccess,
		Actor: ActorRef{
			ID:   reset.UserID.String(),
			Type: "user",
		},
		UserID: reset.UserID.String(),
		Metadata: map[string]any{
			"password_reset_id": reset.ID.String(),
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during password reset: %v", err)
	}
}
