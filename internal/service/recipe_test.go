package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/foodgram-service/internal/model"
	"github.com/maxviazov/foodgram-service/internal/pagination"
	"github.com/maxviazov/foodgram-service/internal/repository"
	"github.com/maxviazov/foodgram-service/internal/service"
)

type recipeFixture struct {
	s      *store
	svc    service.RecipeService
	author model.User
	reader model.User
	tag    model.Tag
	flour  model.Ingredient
	egg    model.Ingredient
}

func newRecipeFixture(t *testing.T) recipeFixture {
	t.Helper()
	s := newStore()
	ctx := context.Background()
	f := recipeFixture{s: s}
	f.author = s.seedUser("chef")
	f.reader = s.seedUser("reader")
	f.tag, _ = fakeTags{s}.Create(ctx, model.Tag{Name: "Breakfast", Slug: "breakfast"})
	f.flour, _ = fakeIngredients{s}.Create(ctx, model.Ingredient{Name: "flour", MeasurementUnit: "g"})
	f.egg, _ = fakeIngredients{s}.Create(ctx, model.Ingredient{Name: "egg", MeasurementUnit: "pcs"})
	f.svc = service.NewRecipeService(service.RecipeDeps{
		Recipes:       fakeRecipes{s},
		Users:         fakeUsers{s},
		Tags:          fakeTags{s},
		Ingredients:   fakeIngredients{s},
		Collections:   fakeCollections{s},
		Subscriptions: fakeSubs{s},
		Tx:            fakeTx{s},
	}, discard)
	return f
}

func (f recipeFixture) input(name string) service.RecipeInput {
	return service.RecipeInput{
		Name:        name,
		Text:        "mix and bake",
		CookingTime: 30,
		Tags:        []int64{f.tag.ID},
		Ingredients: []service.IngredientAmount{{ID: f.flour.ID, Amount: 200}, {ID: f.egg.ID, Amount: 2}},
	}
}

func (f recipeFixture) create(t *testing.T, name string) model.RecipeResponse {
	t.Helper()
	out, err := f.svc.Create(context.Background(), f.author, f.input(name))
	require.NoError(t, err)
	return out
}

func recipesQuery(p, limit int) pagination.Query {
	return pagination.Query{Request: pagination.Request{Page: p, Limit: limit}, BaseURL: "http://test/api/recipes"}
}

func TestRecipeService_CreateBuildsFullView(t *testing.T) {
	f := newRecipeFixture(t)
	out := f.create(t, "Pancakes")

	assert.Equal(t, "Pancakes", out.Name)
	assert.Equal(t, f.author.ID, out.Author.ID)
	require.Len(t, out.Tags, 1)
	assert.Equal(t, "breakfast", out.Tags[0].Slug)
	require.Len(t, out.Ingredients, 2)
	assert.Equal(t, model.RecipeIngredient{IngredientID: f.flour.ID, Name: "flour", MeasurementUnit: "g", Amount: 200}, out.Ingredients[0])
	assert.False(t, out.IsFavorited)
	assert.Equal(t, 1, f.s.txCalls)
}

func TestRecipeService_CreateValidation(t *testing.T) {
	f := newRecipeFixture(t)
	cases := []struct {
		name   string
		mutate func(*service.RecipeInput)
		field  string
	}{
		{"cooking time", func(in *service.RecipeInput) { in.CookingTime = 0 }, "cooking_time"},
		{"no tags", func(in *service.RecipeInput) { in.Tags = nil }, "tags"},
		{"duplicate tags", func(in *service.RecipeInput) { in.Tags = []int64{f.tag.ID, f.tag.ID} }, "tags"},
		{"unknown tag", func(in *service.RecipeInput) { in.Tags = []int64{9999} }, "tags"},
		{"duplicate ingredient", func(in *service.RecipeInput) {
			in.Ingredients = []service.IngredientAmount{{ID: f.egg.ID, Amount: 1}, {ID: f.egg.ID, Amount: 2}}
		}, "ingredients"},
		{"unknown ingredient", func(in *service.RecipeInput) {
			in.Ingredients = []service.IngredientAmount{{ID: 9999, Amount: 1}}
		}, "ingredients"},
		{"amount range", func(in *service.RecipeInput) { in.Ingredients[0].Amount = 1001 }, "ingredients[0].amount"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := f.input("Bad")
			tc.mutate(&in)
			_, err := f.svc.Create(context.Background(), f.author, in)
			require.ErrorIs(t, err, service.ErrInvalidInput)
			assert.Contains(t, fieldNames(err), tc.field)
		})
	}
	assert.Empty(t, f.s.recipes, "nothing persisted")
}

func TestRecipeService_UpdateAndDeleteAreAuthorOnly(t *testing.T) {
	f := newRecipeFixture(t)
	rec := f.create(t, "Omelette")
	ctx := context.Background()

	_, err := f.svc.Update(ctx, f.reader, rec.ID, f.input("Hijack"))
	assert.ErrorIs(t, err, service.ErrForbidden)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.reader, rec.ID), service.ErrForbidden)
	_, err = f.svc.Update(ctx, f.author, 9999, f.input("Missing"))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	in := f.input("Omelette v2")
	in.Tags = []int64{f.tag.ID}
	in.Ingredients = []service.IngredientAmount{{ID: f.egg.ID, Amount: 3}}
	updated, err := f.svc.Update(ctx, f.author, rec.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Omelette v2", updated.Name)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, 3, updated.Ingredients[0].Amount)

	require.NoError(t, f.svc.Delete(ctx, f.author, rec.ID))
	_, err = f.svc.Get(ctx, nil, rec.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRecipeService_Collections(t *testing.T) {
	f := newRecipeFixture(t)
	rec := f.create(t, "Toast")
	ctx := context.Background()

	for _, c := range []model.Collection{model.Favorites, model.ShoppingCart} {
		short, err := f.svc.AddTo(ctx, c, f.reader, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RecipeShort{ID: rec.ID, Name: "Toast", CookingTime: 30}, short)

		_, err = f.svc.AddTo(ctx, c, f.reader, rec.ID)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	}

	got, err := f.svc.Get(ctx, &f.reader, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFavorited)
	assert.True(t, got.IsInShoppingCart)

	anon, err := f.svc.Get(ctx, nil, rec.ID)
	require.NoError(t, err)
	assert.False(t, anon.IsFavorited)

	require.NoError(t, f.svc.RemoveFrom(ctx, model.Favorites, f.reader, rec.ID))
	assert.ErrorIs(t, f.svc.RemoveFrom(ctx, model.Favorites, f.reader, rec.ID), service.ErrInvalidInput)
	assert.ErrorIs(t, f.svc.RemoveFrom(ctx, model.Favorites, f.reader, 9999), repository.ErrNotFound)
	_, err = f.svc.AddTo(ctx, model.Favorites, f.reader, 9999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRecipeService_ListFiltersAndPages(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	var ids []int64
	for _, n := range []string{"a", "b", "c"} {
		ids = append(ids, f.create(t, n).ID)
	}
	_, err := f.svc.AddTo(ctx, model.Favorites, f.reader, ids[0])
	require.NoError(t, err)
	require.NoError(t, fakeSubs{f.s}.Subscribe(ctx, f.reader.ID, f.author.ID))

	env, err := f.svc.List(ctx, &f.reader, service.RecipeListFilter{}, recipesQuery(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, env.Total)
	assert.Equal(t, []int64{ids[2], ids[1]}, []int64{env.Items[0].ID, env.Items[1].ID}, "newest first")
	assert.True(t, env.Items[0].Author.IsSubscribed)
	require.NotNil(t, env.Next)
	assert.Equal(t, "http://test/api/recipes?limit=2&page=2", *env.Next)

	fav, err := f.svc.List(ctx, &f.reader, service.RecipeListFilter{IsFavorited: true}, recipesQuery(1, 10))
	require.NoError(t, err)
	require.Equal(t, 1, fav.Total)
	assert.True(t, fav.Items[0].IsFavorited)

	byTag, err := f.svc.List(ctx, nil, service.RecipeListFilter{Tags: []string{"breakfast"}}, recipesQuery(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 3, byTag.Total)

	none, err := f.svc.List(ctx, nil, service.RecipeListFilter{Tags: []string{"dinner"}}, recipesQuery(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, none.Total)
	assert.NotNil(t, none.Items)
}

func TestRecipeService_AnonymousCollectionFilterIsEmpty(t *testing.T) {
	f := newRecipeFixture(t)
	f.create(t, "a")
	snapshots := f.s.snapshots

	env, err := f.svc.List(context.Background(), nil, service.RecipeListFilter{IsInShoppingCart: true}, recipesQuery(3, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, env.Total)
	assert.Empty(t, env.Items)
	assert.NotNil(t, env.Items)
	assert.Nil(t, env.Next)
	assert.Nil(t, env.Previous)
	assert.Equal(t, snapshots, f.s.snapshots, "no storage round trip")
}
