package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/foodgram-service/internal/model"
	"github.com/maxviazov/foodgram-service/internal/repository"
)

type collectionRepository struct{ pool *pgxpool.Pool }

func NewCollectionRepository(pool *pgxpool.Pool) repository.CollectionRepository {
	return &collectionRepository{pool: pool}
}

// table maps a collection to its link table; unknown names never reach SQL.
func table(c model.Collection) (string, error) {
	switch c {
	case model.Favorites:
		return "favorites", nil
	case model.ShoppingCart:
		return "shopping_cart", nil
	default:
		return "", fmt.Errorf("unknown collection %q", c)
	}
}

func (r *collectionRepository) Add(ctx context.Context, c model.Collection, userID, recipeID int64) error {
	tbl, err := table(c)
	if err != nil {
		return err
	}
	_, err = exec(ctx, r.pool, psql.Insert(tbl).Columns("user_id", "recipe_id").Values(userID, recipeID))
	return err
}

func (r *collectionRepository) Remove(ctx context.Context, c model.Collection, userID, recipeID int64) (bool, error) {
	tbl, err := table(c)
	if err != nil {
		return false, err
	}
	n, err := exec(ctx, r.pool, psql.Delete(tbl).Where(sq.Eq{"user_id": userID, "recipe_id": recipeID}))
	return n > 0, err
}

func (r *collectionRepository) Contains(ctx context.Context, c model.Collection, userID int64, recipeIDs []int64) (map[int64]bool, error) {
	tbl, err := table(c)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]bool, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return out, nil
	}
	b := psql.Select("recipe_id").From(tbl).
		Where(sq.Eq{"user_id": userID}).
		Where("recipe_id = ANY(?)", recipeIDs)
	err = query(ctx, r.pool, b, func(rows pgx.Rows) error {
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

var _ repository.CollectionRepository = (*collectionRepository)(nil)
