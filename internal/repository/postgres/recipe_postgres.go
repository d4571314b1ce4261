package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/foodgram-service/internal/model"
	"github.com/maxviazov/foodgram-service/internal/repository"
)

var recipeColumns = []string{"r.id", "r.author_id", "r.name", "r.image", "r.text", "r.cooking_time", "r.created_at"}

func recipeDest(r *model.Recipe) []any {
	return []any{&r.ID, &r.AuthorID, &r.Name, &r.Image, &r.Text, &r.CookingTime, &r.CreatedAt}
}

type recipeRepository struct{ pool *pgxpool.Pool }

func NewRecipeRepository(pool *pgxpool.Pool) repository.RecipeRepository {
	return &recipeRepository{pool: pool}
}

func (r *recipeRepository) Create(ctx context.Context, rec model.Recipe) (model.Recipe, error) {
	b := psql.Insert("recipes").
		Columns("author_id", "name", "image", "text", "cooking_time").
		Values(rec.AuthorID, rec.Name, rec.Image, rec.Text, rec.CookingTime).
		Suffix("RETURNING id, created_at")
	if err := queryRow(ctx, r.pool, b, &rec.ID, &rec.CreatedAt); err != nil {
		return model.Recipe{}, err
	}
	return rec, nil
}

func (r *recipeRepository) Update(ctx context.Context, rec model.Recipe) (model.Recipe, error) {
	b := psql.Update("recipes").
		Set("name", rec.Name).
		Set("image", rec.Image).
		Set("text", rec.Text).
		Set("cooking_time", rec.CookingTime).
		Where(sq.Eq{"id": rec.ID}).
		Suffix("RETURNING author_id, created_at")
	if err := queryRow(ctx, r.pool, b, &rec.AuthorID, &rec.CreatedAt); err != nil {
		return model.Recipe{}, err
	}
	return rec, nil
}

func (r *recipeRepository) Delete(ctx context.Context, id int64) error {
	n, err := exec(ctx, r.pool, psql.Delete("recipes").Where(sq.Eq{"id": id}))
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *recipeRepository) GetByID(ctx context.Context, id int64) (model.Recipe, error) {
	var rec model.Recipe
	b := psql.Select(recipeColumns...).From("recipes r").Where(sq.Eq{"r.id": id})
	if err := queryRow(ctx, r.pool, b, recipeDest(&rec)...); err != nil {
		return model.Recipe{}, err
	}
	return rec, nil
}

func (r *recipeRepository) SetTags(ctx context.Context, recipeID int64, tagIDs []int64) error {
	if _, err := exec(ctx, r.pool, psql.Delete("recipe_tags").Where(sq.Eq{"recipe_id": recipeID})); err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	b := psql.Insert("recipe_tags").Columns("recipe_id", "tag_id")
	for _, id := range tagIDs {
		b = b.Values(recipeID, id)
	}
	_, err := exec(ctx, r.pool, b)
	return err
}

func (r *recipeRepository) SetIngredients(ctx context.Context, recipeID int64, items []model.RecipeIngredient) error {
	if _, err := exec(ctx, r.pool, psql.Delete("recipe_ingredients").Where(sq.Eq{"recipe_id": recipeID})); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	b := psql.Insert("recipe_ingredients").Columns("recipe_id", "ingredient_id", "amount")
	for _, it := range items {
		b = b.Values(recipeID, it.IngredientID, it.Amount)
	}
	_, err := exec(ctx, r.pool, b)
	return err
}

// applyFilter adds one EXISTS clause per active filter; tag slugs match any.
func applyFilter(b sq.SelectBuilder, f repository.RecipeFilter) sq.SelectBuilder {
	if f.AuthorID != nil {
		b = b.Where(sq.Eq{"r.author_id": *f.AuthorID})
	}
	if len(f.TagSlugs) > 0 {
		b = b.Where(`EXISTS (SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE rt.recipe_id = r.id AND t.slug = ANY(?))`, f.TagSlugs)
	}
	if f.FavoritedBy != nil {
		b = b.Where("EXISTS (SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = ?)", *f.FavoritedBy)
	}
	if f.InCartOf != nil {
		b = b.Where("EXISTS (SELECT 1 FROM shopping_cart c WHERE c.recipe_id = r.id AND c.user_id = ?)", *f.InCartOf)
	}
	return b
}

func (r *recipeRepository) Count(ctx context.Context, f repository.RecipeFilter) (int, error) {
	return countRows(ctx, r.pool, applyFilter(psql.Select("COUNT(*)").From("recipes r"), f))
}

func (r *recipeRepository) List(ctx context.Context, f repository.RecipeFilter, w repository.Window) ([]model.Recipe, error) {
	b := applyFilter(psql.Select(recipeColumns...).From("recipes r"), f).
		OrderBy("r.id DESC").
		Limit(uint64(w.Limit)).Offset(uint64(w.Offset))
	out := make([]model.Recipe, 0, w.Limit)
	err := query(ctx, r.pool, b, func(rows pgx.Rows) error {
		var rec model.Recipe
		if err := rows.Scan(recipeDest(&rec)...); err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recipeRepository) ListByAuthors(ctx context.Context, authorIDs []int64, limit int) (map[int64][]model.Recipe, error) {
	out := make(map[int64][]model.Recipe, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}
	ranked := psql.Select(recipeColumns...).
		Column("ROW_NUMBER() OVER (PARTITION BY r.author_id ORDER BY r.id DESC) AS rn").
		From("recipes r").
		Where("r.author_id = ANY(?)", authorIDs)
	b := psql.Select("id", "author_id", "name", "image", "text", "cooking_time", "created_at").
		FromSelect(ranked, "ranked").
		OrderBy("author_id", "id DESC")
	if limit > 0 {
		b = b.Where(sq.LtOrEq{"rn": limit})
	}
	err := query(ctx, r.pool, b, func(rows pgx.Rows) error {
		var rec model.Recipe
		if err := rows.Scan(recipeDest(&rec)...); err != nil {
			return err
		}
		out[rec.AuthorID] = append(out[rec.AuthorID], rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recipeRepository) CountByAuthors(ctx context.Context, authorIDs []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}
	b := psql.Select("author_id", "COUNT(*)").From("recipes").
		Where("author_id = ANY(?)", authorIDs).
		GroupBy("author_id")
	err := query(ctx, r.pool, b, func(rows pgx.Rows) error {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return err
		}
		out[id] = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recipeRepository) IngredientsByRecipes(ctx context.Context, recipeIDs []int64) (map[int64][]model.RecipeIngredient, error) {
	out := make(map[int64][]model.RecipeIngredient, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return out, nil
	}
	b := psql.Select("ri.recipe_id", "i.id", "i.name", "i.measurement_unit", "ri.amount").
		From("recipe_ingredients ri").
		Join("ingredients i ON i.id = ri.ingredient_id").
		Where("ri.recipe_id = ANY(?)", recipeIDs).
		OrderBy("ri.recipe_id", "ri.id")
	err := query(ctx, r.pool, b, func(rows pgx.Rows) error {
		var recipeID int64
		var it model.RecipeIngredient
		if err := rows.Scan(&recipeID, &it.IngredientID, &it.Name, &it.MeasurementUnit, &it.Amount); err != nil {
			return err
		}
		out[recipeID] = append(out[recipeID], it)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recipeRepository) ShoppingList(ctx context.Context, userID int64) ([]model.ShoppingItem, error) {
	b := psql.Select("i.name", "i.measurement_unit", "SUM(ri.amount)").
		From("shopping_cart c").
		Join("recipe_ingredients ri ON ri.recipe_id = c.recipe_id").
		Join("ingredients i ON i.id = ri.ingredient_id").
		Where(sq.Eq{"c.user_id": userID}).
		GroupBy("i.name", "i.measurement_unit").
		OrderBy("i.name", "i.measurement_unit")
	out := []model.ShoppingItem{}
	err := query(ctx, r.pool, b, func(rows pgx.Rows) error {
		var it model.ShoppingItem
		if err := rows.Scan(&it.Name, &it.MeasurementUnit, &it.Amount); err != nil {
			return err
		}
		out = append(out, it)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

var _ repository.RecipeRepository = (*recipeRepository)(nil)
