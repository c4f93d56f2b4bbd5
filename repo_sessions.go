package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Sessions persists the binding between refresh token jtis and their
// owning users. Sessions are created at login and flipped inactive on
// logout; normal flows never delete rows.
type Sessions interface {
	repository.Repository[*Session]

	Start(ctx context.Context, userID uuid.UUID, tokenID string, client ClientInfo) (*Session, error)
	StartTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, tokenID string, client ClientInfo) (*Session, error)

	GetByTokenID(ctx context.Context, tokenID string) (*Session, error)

	// State reports the tri-state activity of the session bound to a
	// refresh jti. Callers must branch on all three variants.
	State(ctx context.Context, tokenID string) (SessionState, error)

	Deactivate(ctx context.Context, tokenID string) error
	DeactivateTx(ctx context.Context, tx bun.IDB, tokenID string) error

	DeactivateAll(ctx context.Context, userID uuid.UUID) error
	DeactivateAllTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error
}

type sessions struct {
	repository.Repository[*Session]
	db *bun.DB
}

var (
	_ Sessions                        = (*sessions)(nil)
	_ repository.Repository[*Session] = (*sessions)(nil)
)

func NewSessionsRepository(db *bun.DB) Sessions {
	repo := repository.NewRepository[*Session](db, repository.ModelHandlers[*Session]{
		NewRecord: func() *Session { return &Session{} },
		GetID: func(s *Session) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Session, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token_id"
		},
	})

	return &sessions{
		Repository: repo,
		db:         db,
	}
}

func (a *sessions) Start(ctx context.Context, userID uuid.UUID, tokenID string, client ClientInfo) (*Session, error) {
	return a.StartTx(ctx, a.db, userID, tokenID, client)
}

func (a *sessions) StartTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, tokenID string, client ClientInfo) (*Session, error) {
	record := &Session{
		ID:        uuid.New(),
		UserID:    userID,
		TokenID:   tokenID,
		IPAddress: client.IP,
		UserAgent: client.UserAgent,
		Active:    true,
	}

	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *sessions) GetByTokenID(ctx context.Context, tokenID string) (*Session, error) {
	record := &Session{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.token_id = ?", tokenID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"token_id": tokenID,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *sessions) State(ctx context.Context, tokenID string) (SessionState, error) {
	record, err := a.GetByTokenID(ctx, tokenID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return SessionStateNotFound, nil
		}
		return SessionStateNotFound, err
	}

	if record.Active {
		return SessionStateActive, nil
	}

	return SessionStateInactive, nil
}

func (a *sessions) Deactivate(ctx context.Context, tokenID string) error {
	return a.DeactivateTx(ctx, a.db, tokenID)
}

func (a *sessions) DeactivateTx(ctx context.Context, tx bun.IDB, tokenID string) error {
	res, err := tx.NewUpdate().
		Model((*Session)(nil)).
		Set("active = ?", false).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("?TableAlias.token_id = ?", tokenID).
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
				"token_id": tokenID,
			})
	}

	return nil
}

// DeactivateAll flips every session for the user in a single UPDATE. Zero
// matching sessions is a no-op, not an error.
func (a *sessions) DeactivateAll(ctx context.Context, userID uuid.UUID) error {
	return a.DeactivateAllTx(ctx, a.db, userID)
}

func (a *sessions) DeactivateAllTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	_, err := tx.NewUpdate().
		Model((*Session)(nil)).
		Set("active = ?", false).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("?TableAlias.user_id = ?", userID).
		Exec(ctx)

	return err
}
