package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PasswordResets persists single use reset tokens. Issuing a new token
// does not supersede older ones still inside their TTL; each is consumed
// independently.
type PasswordResets interface {
	repository.Repository[*PasswordReset]

	Issue(ctx context.Context, userID uuid.UUID, ttl time.Duration) (*PasswordReset, error)
	IssueTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, ttl time.Duration) (*PasswordReset, error)

	GetByToken(ctx context.Context, token string) (*PasswordReset, error)
	GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*PasswordReset, error)

	MarkUsed(ctx context.Context, id uuid.UUID) error
	MarkUsedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type passwordResets struct {
	repository.Repository[*PasswordReset]
	db    *bun.DB
	clock Clock
}

var (
	_ PasswordResets                        = (*passwordResets)(nil)
	_ repository.Repository[*PasswordReset] = (*passwordResets)(nil)
)

func NewPasswordResetsRepository(db *bun.DB) PasswordResets {
	repo := repository.NewRepository[*PasswordReset](db, repository.ModelHandlers[*PasswordReset]{
		NewRecord: func() *PasswordReset { return &PasswordReset{} },
		GetID: func(record *PasswordReset) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *PasswordReset, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &passwordResets{
		Repository: repo,
		db:         db,
		clock:      systemClock{},
	}
}

// WithClock overrides the time source, mostly for tests.
func (a *passwordResets) WithClock(clock Clock) *passwordResets {
	if clock != nil {
		a.clock = clock
	}
	return a
}

func (a *passwordResets) Issue(ctx context.Context, userID uuid.UUID, ttl time.Duration) (*PasswordReset, error) {
	return a.IssueTx(ctx, a.db, userID, ttl)
}

func (a *passwordResets) IssueTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, ttl time.Duration) (*PasswordReset, error) {
	record := &PasswordReset{
		ID:        uuid.New(),
		UserID:    &userID,
		Token:     uuid.NewString(),
		ExpiresAt: a.clock.Now().Add(ttl),
	}

	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *passwordResets) GetByToken(ctx context.Context, token string) (*PasswordReset, error) {
	return a.GetByTokenTx(ctx, a.db, token)
}

func (a *passwordResets) GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*PasswordReset, error) {
	record := &PasswordReset{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"token": token,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *passwordResets) MarkUsed(ctx context.Context, id uuid.UUID) error {
	return a.MarkUsedTx(ctx, a.db, id)
}

func (a *passwordResets) MarkUsedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := tx.NewUpdate().
		Model((*PasswordReset)(nil)).
		Set("used = ?", true).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}
