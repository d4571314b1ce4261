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

func TestTagService_CreateSlugifies(t *testing.T) {
	s := newStore()
	svc := service.NewTagService(fakeTags{s}, discard)
	ctx := context.Background()

	tag, err := svc.Create(ctx, service.TagInput{Name: "  Quick Breakfast "})
	require.NoError(t, err)
	assert.Equal(t, "Quick Breakfast", tag.Name)
	assert.Equal(t, "quick-breakfast", tag.Slug)

	tag, err = svc.Create(ctx, service.TagInput{Name: "Dinner", Slug: "Late Dinner"})
	require.NoError(t, err)
	assert.Equal(t, "late-dinner", tag.Slug)

	_, err = svc.Create(ctx, service.TagInput{Name: "Other", Slug: "quick breakfast"})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)

	_, err = svc.Create(ctx, service.TagInput{Name: "!!!"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = svc.Get(ctx, 0)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestIngredientService_SearchRanksPrefixFirst(t *testing.T) {
	s := newStore()
	svc := service.NewIngredientService(fakeIngredients{s}, fakeTx{s}, discard)
	ctx := context.Background()
	for _, n := range []string{"brown sugar", "sugar", "salt", "icing sugar", "sugar syrup"} {
		_, err := svc.Create(ctx, service.IngredientInput{Name: n, MeasurementUnit: "g"})
		require.NoError(t, err)
	}

	q := pagination.Query{Request: pagination.Request{Page: 1, Limit: 3}, BaseURL: "http://test/api/ingredients"}
	env, err := svc.Search(ctx, "Sug", q)
	require.NoError(t, err)
	assert.Equal(t, 4, env.Total)
	names := []string{env.Items[0].Name, env.Items[1].Name, env.Items[2].Name}
	assert.Equal(t, []string{"sugar", "sugar syrup", "brown sugar"}, names)
	require.NotNil(t, env.Next)

	q.Page = 2
	env, err = svc.Search(ctx, "Sug", q)
	require.NoError(t, err)
	require.Len(t, env.Items, 1)
	assert.Equal(t, "icing sugar", env.Items[0].Name)
	assert.Nil(t, env.Next)
	assert.NotNil(t, env.Previous)

	q.Page = 1
	env, err = svc.Search(ctx, "pepper", q)
	require.NoError(t, err)
	assert.Equal(t, pagination.Envelope[model.Ingredient]{Items: []model.Ingredient{}}, env)
}

func TestIngredientService_EmptyNamePagesInStorage(t *testing.T) {
	s := newStore()
	svc := service.NewIngredientService(fakeIngredients{s}, fakeTx{s}, discard)
	ctx := context.Background()
	for _, n := range []string{"salt", "butter", "pepper", "flour", "milk"} {
		_, err := svc.Create(ctx, service.IngredientInput{Name: n, MeasurementUnit: "g"})
		require.NoError(t, err)
	}

	q := pagination.Query{Request: pagination.Request{Page: 2, Limit: 2}, BaseURL: "http://test/api/ingredients"}
	env, err := svc.Search(ctx, "  ", q)
	require.NoError(t, err)
	assert.Equal(t, 5, env.Total)
	require.Len(t, env.Items, 2)
	assert.Equal(t, "milk", env.Items[0].Name)
	assert.Equal(t, "pepper", env.Items[1].Name)
	assert.NotNil(t, env.Next)
	assert.NotNil(t, env.Previous)
	assert.Zero(t, s.ingredientSearches, "the catalogue is not loaded in full")
	assert.Equal(t, 1, s.snapshots)

	s.failCount = repository.ErrConflict
	_, err = svc.Search(ctx, "", q)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestIngredientService_CreateValidation(t *testing.T) {
	svc := service.NewIngredientService(fakeIngredients{newStore()}, fakeTx{newStore()}, discard)
	_, err := svc.Create(context.Background(), service.IngredientInput{Name: " ", MeasurementUnit: "g"})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Equal(t, []string{"name"}, fieldNames(err))
}
