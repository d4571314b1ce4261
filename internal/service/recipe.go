package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/foodgram-service/internal/model"
	"github.com/maxviazov/foodgram-service/internal/pagination"
	"github.com/maxviazov/foodgram-service/internal/repository"
)

type recipeService struct {
	recipes     repository.RecipeRepository
	users       repository.UserRepository
	tags        repository.TagRepository
	ingredients repository.IngredientRepository
	collections repository.CollectionRepository
	subs        repository.SubscriptionRepository
	tx          repository.TxManager
	log         zerolog.Logger
}

// RecipeDeps groups the repositories the recipe use cases read and write.
type RecipeDeps struct {
	Recipes       repository.RecipeRepository
	Users         repository.UserRepository
	Tags          repository.TagRepository
	Ingredients   repository.IngredientRepository
	Collections   repository.CollectionRepository
	Subscriptions repository.SubscriptionRepository
	Tx            repository.TxManager
}

func NewRecipeService(d RecipeDeps, logger zerolog.Logger) RecipeService {
	l := logger.With().Str("module", "service").Str("component", "recipe").Logger()
	return &recipeService{
		recipes:     d.Recipes,
		users:       d.Users,
		tags:        d.Tags,
		ingredients: d.Ingredients,
		collections: d.Collections,
		subs:        d.Subscriptions,
		tx:          d.Tx,
		log:         l,
	}
}

func (s *recipeService) List(ctx context.Context, viewer *model.User, f RecipeListFilter, q pagination.Query) (pagination.Envelope[model.RecipeResponse], error) {
	// Anonymous users have no collections: the filtered set is empty.
	if viewer == nil && (f.IsFavorited || f.IsInShoppingCart) {
		return pagination.Run(ctx, q, pagination.SliceSource[model.RecipeResponse](nil))
	}

	filter := repository.RecipeFilter{AuthorID: f.AuthorID, TagSlugs: f.Tags}
	if f.IsFavorited {
		filter.FavoritedBy = &viewer.ID
	}
	if f.IsInShoppingCart {
		filter.InCartOf = &viewer.ID
	}
	src := pagination.SourceFunc[model.Recipe]{
		CountFn: func(ctx context.Context) (int, error) { return s.recipes.Count(ctx, filter) },
		FetchFn: func(ctx context.Context, limit, offset int) ([]model.Recipe, error) {
			return s.recipes.List(ctx, filter, repository.Window{Limit: limit, Offset: offset})
		},
	}

	var out pagination.Envelope[model.RecipeResponse]
	err := s.tx.WithinSnapshot(ctx, func(ctx context.Context) error {
		env, err := pagination.Run(ctx, q, src)
		if err != nil {
			return err
		}
		out, err = pagination.Map(env, func(recipes []model.Recipe) ([]model.RecipeResponse, error) {
			return s.present(ctx, viewer, recipes)
		})
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Int("page", q.Page).Int("limit", q.Limit).Msg("list recipes failed")
		return pagination.Envelope[model.RecipeResponse]{}, err
	}
	return out, nil
}

func (s *recipeService) Create(ctx context.Context, author model.User, in RecipeInput) (model.RecipeResponse, error) {
	start := time.Now()
	if err := s.validate(ctx, &in); err != nil {
		return model.RecipeResponse{}, err
	}

	var out model.RecipeResponse
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := s.recipes.Create(ctx, model.Recipe{
			AuthorID:    author.ID,
			Name:        in.Name,
			Image:       in.Image,
			Text:        in.Text,
			CookingTime: in.CookingTime,
		})
		if err != nil {
			return err
		}
		if err := s.writeLinks(ctx, rec.ID, in); err != nil {
			return err
		}
		out, err = s.presentOne(ctx, &author, rec)
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Int64("author_id", author.ID).Msg("create recipe failed")
		return model.RecipeResponse{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("recipe_id", out.ID).Msg("recipe created")
	return out, nil
}

func (s *recipeService) Get(ctx context.Context, viewer *model.User, id int64) (model.RecipeResponse, error) {
	rec, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return model.RecipeResponse{}, err
	}
	return s.presentOne(ctx, viewer, rec)
}

func (s *recipeService) Update(ctx context.Context, user model.User, id int64, in RecipeInput) (model.RecipeResponse, error) {
	if _, err := s.owned(ctx, user, id); err != nil {
		return model.RecipeResponse{}, err
	}
	if err := s.validate(ctx, &in); err != nil {
		return model.RecipeResponse{}, err
	}

	var out model.RecipeResponse
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := s.recipes.Update(ctx, model.Recipe{
			ID:          id,
			Name:        in.Name,
			Image:       in.Image,
			Text:        in.Text,
			CookingTime: in.CookingTime,
		})
		if err != nil {
			return err
		}
		if err := s.writeLinks(ctx, rec.ID, in); err != nil {
			return err
		}
		out, err = s.presentOne(ctx, &user, rec)
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Int64("recipe_id", id).Msg("update recipe failed")
		return model.RecipeResponse{}, err
	}
	return out, nil
}

func (s *recipeService) Delete(ctx context.Context, user model.User, id int64) error {
	if _, err := s.owned(ctx, user, id); err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("recipe_id", id).Msg("recipe deleted")
	return nil
}

func (s *recipeService) AddTo(ctx context.Context, c model.Collection, user model.User, id int64) (model.RecipeShort, error) {
	rec, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return model.RecipeShort{}, err
	}
	if err := s.collections.Add(ctx, c, user.ID, rec.ID); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return model.RecipeShort{}, invalidField("id", fmt.Sprintf("recipe is already in %s", c))
		}
		return model.RecipeShort{}, err
	}
	return model.NewRecipeShort(rec), nil
}

func (s *recipeService) RemoveFrom(ctx context.Context, c model.Collection, user model.User, id int64) error {
	if _, err := s.recipes.GetByID(ctx, id); err != nil {
		return err
	}
	removed, err := s.collections.Remove(ctx, c, user.ID, id)
	if err != nil {
		return err
	}
	if !removed {
		return invalidField("id", fmt.Sprintf("recipe is not in %s", c))
	}
	return nil
}

func (s *recipeService) ShoppingList(ctx context.Context, user model.User) ([]model.ShoppingItem, error) {
	return s.recipes.ShoppingList(ctx, user.ID)
}

func (s *recipeService) owned(ctx context.Context, user model.User, id int64) (model.Recipe, error) {
	rec, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return model.Recipe{}, err
	}
	if rec.AuthorID != user.ID {
		return model.Recipe{}, ErrForbidden
	}
	return rec, nil
}

// validate checks the payload and that every referenced tag and ingredient exists.
func (s *recipeService) validate(ctx context.Context, in *RecipeInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return err
	}

	var fe []FieldError
	seen := make(map[int64]bool, len(in.Ingredients))
	ids := make([]int64, 0, len(in.Ingredients))
	for _, it := range in.Ingredients {
		if seen[it.ID] {
			fe = append(fe, FieldError{Field: "ingredients", Message: "must not contain duplicates"})
			break
		}
		seen[it.ID] = true
		ids = append(ids, it.ID)
	}

	tags, err := s.tags.ListByIDs(ctx, in.Tags)
	if err != nil {
		return err
	}
	if len(tags) != len(in.Tags) {
		fe = append(fe, FieldError{Field: "tags", Message: "contains unknown tag ids"})
	}
	found, err := s.ingredients.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(found) != len(ids) {
		fe = append(fe, FieldError{Field: "ingredients", Message: "contains unknown ingredient ids"})
	}
	return NewInvalidInput(fe...)
}

func (s *recipeService) writeLinks(ctx context.Context, recipeID int64, in RecipeInput) error {
	if err := s.recipes.SetTags(ctx, recipeID, in.Tags); err != nil {
		return err
	}
	items := make([]model.RecipeIngredient, len(in.Ingredients))
	for i, it := range in.Ingredients {
		items[i] = model.RecipeIngredient{IngredientID: it.ID, Amount: it.Amount}
	}
	return s.recipes.SetIngredients(ctx, recipeID, items)
}

func (s *recipeService) presentOne(ctx context.Context, viewer *model.User, rec model.Recipe) (model.RecipeResponse, error) {
	out, err := s.present(ctx, viewer, []model.Recipe{rec})
	if err != nil {
		return model.RecipeResponse{}, err
	}
	return out[0], nil
}

// present builds full recipe views with one query per relation for the whole batch.
func (s *recipeService) present(ctx context.Context, viewer *model.User, recipes []model.Recipe) ([]model.RecipeResponse, error) {
	ids := make([]int64, len(recipes))
	authorIDs := make([]int64, 0, len(recipes))
	seenAuthor := make(map[int64]bool, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
		if !seenAuthor[r.AuthorID] {
			seenAuthor[r.AuthorID] = true
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}

	authors, err := s.users.ListByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.ListByRecipes(ctx, ids)
	if err != nil {
		return nil, err
	}
	lines, err := s.recipes.IngredientsByRecipes(ctx, ids)
	if err != nil {
		return nil, err
	}

	subscribed, favorited, inCart := map[int64]bool{}, map[int64]bool{}, map[int64]bool{}
	if viewer != nil {
		if subscribed, err = s.subs.SubscribedTo(ctx, viewer.ID, authorIDs); err != nil {
			return nil, err
		}
		if favorited, err = s.collections.Contains(ctx, model.Favorites, viewer.ID, ids); err != nil {
			return nil, err
		}
		if inCart, err = s.collections.Contains(ctx, model.ShoppingCart, viewer.ID, ids); err != nil {
			return nil, err
		}
	}

	out := make([]model.RecipeResponse, len(recipes))
	for i, r := range recipes {
		out[i] = model.NewRecipeResponse(r, authors[r.AuthorID], tags[r.ID], lines[r.ID], model.RecipeFlags{
			AuthorSubscribed: subscribed[r.AuthorID],
			Favorited:        favorited[r.ID],
			InShoppingCart:   inCart[r.ID],
		})
	}
	return out, nil
}
