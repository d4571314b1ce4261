package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/foodgram-service/internal/model"
	"github.com/maxviazov/foodgram-service/internal/repository"
)

type subscriptionRepository struct{ pool *pgxpool.Pool }

func NewSubscriptionRepository(pool *pgxpool.Pool) repository.SubscriptionRepository {
	return &subscriptionRepository{pool: pool}
}

func (r *subscriptionRepository) Subscribe(ctx context.Context, userID, authorID int64) error {
	_, err := exec(ctx, r.pool, psql.Insert("user_subscriptions").
		Columns("user_id", "following_id").Values(userID, authorID))
	return err
}

func (r *subscriptionRepository) Unsubscribe(ctx context.Context, userID, authorID int64) (bool, error) {
	n, err := exec(ctx, r.pool, psql.Delete("user_subscriptions").
		Where(sq.Eq{"user_id": userID, "following_id": authorID}))
	return n > 0, err
}

func (r *subscriptionRepository) SubscribedTo(ctx context.Context, userID int64, authorIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}
	b := psql.Select("following_id").From("user_subscriptions").
		Where(sq.Eq{"user_id": userID}).
		Where("following_id = ANY(?)", authorIDs)
	err := query(ctx, r.pool, b, func(rows pgx.Rows) error {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		out[id] = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *subscriptionRepository) CountFollowing(ctx context.Context, userID int64) (int, error) {
	return countRows(ctx, r.pool, psql.Select("COUNT(*)").From("user_subscriptions").Where(sq.Eq{"user_id": userID}))
}

func (r *subscriptionRepository) ListFollowing(ctx context.Context, userID int64, w repository.Window) ([]model.User, error) {
	b := psql.Select(userColumns...).From("user_subscriptions s").
		Join("users u ON u.id = s.following_id").
		Where(sq.Eq{"s.user_id": userID}).
		OrderBy("s.id").
		Limit(uint64(w.Limit)).Offset(uint64(w.Offset))
	out := make([]model.User, 0, w.Limit)
	if err := query(ctx, r.pool, b, collectUsers(&out)); err != nil {
		return nil, err
	}
	return out, nil
}

var _ repository.SubscriptionRepository = (*subscriptionRepository)(nil)
