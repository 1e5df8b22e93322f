package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deptevents/event-registration/internal/domain"
)

// TokenRepository manages one-time token persistence.
type TokenRepository interface {
	Create(ctx context.Context, token *domain.OneTimeToken) error
	GetByToken(ctx context.Context, purpose domain.TokenPurpose, token string) (*domain.OneTimeToken, error)
	MarkUsed(ctx context.Context, id int64) error
}

type tokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository constructs repository.
func NewTokenRepository(pool *pgxpool.Pool) TokenRepository {
	return &tokenRepository{pool: pool}
}

func (r *tokenRepository) Create(ctx context.Context, token *domain.OneTimeToken) error {
	const query = `
        INSERT INTO one_time_tokens (user_id, purpose, token, expires_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		token.UserID,
		token.Purpose,
		token.Token,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
}

func (r *tokenRepository) GetByToken(ctx context.Context, purpose domain.TokenPurpose, tokenStr string) (*domain.OneTimeToken, error) {
	const query = `
        SELECT id, user_id, purpose, token, expires_at, used_at, created_at
        FROM one_time_tokens WHERE purpose=$1 AND token=$2`
	var token domain.OneTimeToken
	if err := r.pool.QueryRow(ctx, query, purpose, tokenStr).Scan(
		&token.ID,
		&token.UserID,
		&token.Purpose,
		&token.Token,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

// MarkUsed only succeeds once per token.
func (r *tokenRepository) MarkUsed(ctx context.Context, id int64) error {
	const query = `
        UPDATE one_time_tokens SET used_at=NOW()
        WHERE id=$1 AND used_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrTokenInvalid
	}
	return nil
}
