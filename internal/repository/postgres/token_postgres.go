package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/foodgram-service/internal/model"
	"github.com/maxviazov/foodgram-service/internal/repository"
)

type tokenRepository struct{ pool *pgxpool.Pool }

func NewTokenRepository(pool *pgxpool.Pool) repository.TokenRepository {
	return &tokenRepository{pool: pool}
}

func (r *tokenRepository) GetByUser(ctx context.Context, userID int64) (model.AuthToken, error) {
	var t model.AuthToken
	b := psql.Select("id", "token", "user_id", "created_at").From("auth_tokens").Where(sq.Eq{"user_id": userID})
	if err := queryRow(ctx, r.pool, b, &t.ID, &t.Token, &t.UserID, &t.CreatedAt); err != nil {
		return model.AuthToken{}, err
	}
	return t, nil
}

func (r *tokenRepository) Create(ctx context.Context, t model.AuthToken) (model.AuthToken, error) {
	b := psql.Insert("auth_tokens").Columns("token", "user_id").Values(t.Token, t.UserID).
		Suffix("RETURNING id, created_at")
	if err := queryRow(ctx, r.pool, b, &t.ID, &t.CreatedAt); err != nil {
		return model.AuthToken{}, err
	}
	return t, nil
}

func (r *tokenRepository) DeleteByUser(ctx context.Context, userID int64) error {
	_, err := exec(ctx, r.pool, psql.Delete("auth_tokens").Where(sq.Eq{"user_id": userID}))
	return err
}

func (r *tokenRepository) UserByToken(ctx context.Context, token string) (model.User, error) {
	var u model.User
	b := psql.Select(userColumns...).From("auth_tokens t").
		Join("users u ON u.id = t.user_id").
		Where(sq.Eq{"t.token": token})
	if err := queryRow(ctx, r.pool, b, userDest(&u)...); err != nil {
		return model.User{}, err
	}
	return u, nil
}

var _ repository.TokenRepository = (*tokenRepository)(nil)
