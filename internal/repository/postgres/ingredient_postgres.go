package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/foodgram-service/internal/model"
	"github.com/maxviazov/foodgram-service/internal/repository"
)

type ingredientRepository struct{ pool *pgxpool.Pool }

func NewIngredientRepository(pool *pgxpool.Pool) repository.IngredientRepository {
	return &ingredientRepository{pool: pool}
}

func collectIngredients(dst *[]model.Ingredient) func(pgx.Rows) error {
	return func(rows pgx.Rows) error {
		var i model.Ingredient
		if err := rows.Scan(&i.ID, &i.Name, &i.MeasurementUnit); err != nil {
			return err
		}
		*dst = append(*dst, i)
		return nil
	}
}

func (r *ingredientRepository) Create(ctx context.Context, i model.Ingredient) (model.Ingredient, error) {
	b := psql.Insert("ingredients").Columns("name", "measurement_unit").
		Values(i.Name, i.MeasurementUnit).Suffix("RETURNING id")
	if err := queryRow(ctx, r.pool, b, &i.ID); err != nil {
		return model.Ingredient{}, err
	}
	return i, nil
}

func (r *ingredientRepository) GetByID(ctx context.Context, id int64) (model.Ingredient, error) {
	var i model.Ingredient
	b := psql.Select("id", "name", "measurement_unit").From("ingredients").Where(sq.Eq{"id": id})
	if err := queryRow(ctx, r.pool, b, &i.ID, &i.Name, &i.MeasurementUnit); err != nil {
		return model.Ingredient{}, err
	}
	return i, nil
}

func (r *ingredientRepository) Search(ctx context.Context, name string) ([]model.Ingredient, error) {
	b := psql.Select("id", "name", "measurement_unit").From("ingredients").OrderBy("name", "id")
	if name != "" {
		// literal substring match: % and _ in name are not wildcards
		b = b.Where("strpos(lower(name), lower(?)) > 0", name)
	}
	out := []model.Ingredient{}
	if err := query(ctx, r.pool, b, collectIngredients(&out)); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ingredientRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.pool, psql.Select("COUNT(*)").From("ingredients"))
}

func (r *ingredientRepository) List(ctx context.Context, w repository.Window) ([]model.Ingredient, error) {
	b := psql.Select("id", "name", "measurement_unit").From("ingredients").OrderBy("name", "id").
		Limit(uint64(w.Limit)).Offset(uint64(w.Offset))
	out := make([]model.Ingredient, 0, w.Limit)
	if err := query(ctx, r.pool, b, collectIngredients(&out)); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ingredientRepository) ListByIDs(ctx context.Context, ids []int64) ([]model.Ingredient, error) {
	out := []model.Ingredient{}
	if len(ids) == 0 {
		return out, nil
	}
	b := psql.Select("id", "name", "measurement_unit").From("ingredients").Where("id = ANY(?)", ids).OrderBy("id")
	if err := query(ctx, r.pool, b, collectIngredients(&out)); err != nil {
		return nil, err
	}
	return out, nil
}

var _ repository.IngredientRepository = (*ingredientRepository)(nil)
