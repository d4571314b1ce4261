package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/foodgram-service/internal/model"
	"github.com/maxviazov/foodgram-service/internal/repository"
)

type tagRepository struct{ pool *pgxpool.Pool }

func NewTagRepository(pool *pgxpool.Pool) repository.TagRepository {
	return &tagRepository{pool: pool}
}

func collectTags(dst *[]model.Tag) func(pgx.Rows) error {
	return func(rows pgx.Rows) error {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return err
		}
		*dst = append(*dst, t)
		return nil
	}
}

func (r *tagRepository) Create(ctx context.Context, t model.Tag) (model.Tag, error) {
	b := psql.Insert("tags").Columns("name", "slug").Values(t.Name, t.Slug).Suffix("RETURNING id")
	if err := queryRow(ctx, r.pool, b, &t.ID); err != nil {
		return model.Tag{}, err
	}
	return t, nil
}

func (r *tagRepository) GetByID(ctx context.Context, id int64) (model.Tag, error) {
	var t model.Tag
	b := psql.Select("id", "name", "slug").From("tags").Where(sq.Eq{"id": id})
	if err := queryRow(ctx, r.pool, b, &t.ID, &t.Name, &t.Slug); err != nil {
		return model.Tag{}, err
	}
	return t, nil
}

func (r *tagRepository) List(ctx context.Context) ([]model.Tag, error) {
	out := []model.Tag{}
	if err := query(ctx, r.pool, psql.Select("id", "name", "slug").From("tags").OrderBy("id"), collectTags(&out)); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tagRepository) ListByIDs(ctx context.Context, ids []int64) ([]model.Tag, error) {
	out := []model.Tag{}
	if len(ids) == 0 {
		return out, nil
	}
	b := psql.Select("id", "name", "slug").From("tags").Where("id = ANY(?)", ids).OrderBy("id")
	if err := query(ctx, r.pool, b, collectTags(&out)); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tagRepository) ListByRecipes(ctx context.Context, recipeIDs []int64) (map[int64][]model.Tag, error) {
	out := make(map[int64][]model.Tag, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return out, nil
	}
	b := psql.Select("rt.recipe_id", "t.id", "t.name", "t.slug").From("recipe_tags rt").
		Join("tags t ON t.id = rt.tag_id").
		Where("rt.recipe_id = ANY(?)", recipeIDs).
		OrderBy("rt.recipe_id", "t.id")
	err := query(ctx, r.pool, b, func(rows pgx.Rows) error {
		var recipeID int64
		var t model.Tag
		if err := rows.Scan(&recipeID, &t.ID, &t.Name, &t.Slug); err != nil {
			return err
		}
		out[recipeID] = append(out[recipeID], t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

var _ repository.TagRepository = (*tagRepository)(nil)
