// Package contract holds storage-agnostic behaviour suites for the repository
// interfaces. Implementations wire them up from their own _test.go files.
package contract

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/maxviazov/foodgram-service/internal/model"
	"github.com/maxviazov/foodgram-service/internal/pagination"
	"github.com/maxviazov/foodgram-service/internal/repository"
)

// Repos is the full set of repositories backed by one store.
type Repos struct {
	Users         repository.UserRepository
	Tokens        repository.TokenRepository
	Subscriptions repository.SubscriptionRepository
	Tags          repository.TagRepository
	Ingredients   repository.IngredientRepository
	Recipes       repository.RecipeRepository
	Collections   repository.CollectionRepository
	Tx            repository.TxManager
	Pinger        repository.Pinger
}

// Factory returns repositories over an empty store and a cleanup func.
type Factory func(t *testing.T) (Repos, func())

func setup(t *testing.T, mk Factory) Repos {
	t.Helper()
	r, cleanup := mk(t)
	t.Cleanup(cleanup)
	return r
}

func mustUser(t *testing.T, r Repos, name string) model.User {
	t.Helper()
	u, err := r.Users.Create(context.Background(), model.User{
		Email: name + "@example.com", Username: name, Password: "hash",
		FirstName: "First", LastName: "Last",
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return u
}

func mustRecipe(t *testing.T, r Repos, author int64, name string) model.Recipe {
	t.Helper()
	rec, err := r.Recipes.Create(context.Background(), model.Recipe{
		AuthorID: author, Name: name, Text: "text", CookingTime: 10,
	})
	if err != nil {
		t.Fatalf("seed recipe %s: %v", name, err)
	}
	return rec
}

func RunUserRepositoryContract(t *testing.T, mk Factory) {
	t.Helper()

	t.Run("create_and_get", func(t *testing.T) {
		r := setup(t, mk)
		ctx := context.Background()
		created := mustUser(t, r, "alice")
		got, err := r.Users.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Email != "alice@example.com" || got.Username != "alice" || got.Password != "hash" {
			t.Fatalf("mismatch: %+v", got)
		}
		byEmail, err := r.Users.GetByEmail(ctx, "alice@example.com")
		if err != nil || byEmail.ID != created.ID {
			t.Fatalf("get by email: %+v %v", byEmail, err)
		}
	})

	t.Run("get_not_found", func(t *testing.T) {
		r := setup(t, mk)
		if _, err := r.Users.GetByID(context.Background(), 999999); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		r := setup(t, mk)
		mustUser(t, r, "bob")
		_, err := r.Users.Create(context.Background(), model.User{Email: "bob@example.com", Username: "other", Password: "x"})
		if !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("taken", func(t *testing.T) {
		r := setup(t, mk)
		mustUser(t, r, "carol")
		email, username, err := r.Users.Taken(context.Background(), "CAROL@example.com", "nobody")
		if err != nil || !email || username {
			t.Fatalf("unexpected taken result: %v %v %v", email, username, err)
		}
	})

	t.Run("list_window_and_count", func(t *testing.T) {
		r := setup(t, mk)
		ctx := context.Background()
		for i := 0; i < 5; i++ {
			mustUser(t, r, fmt.Sprintf("user%d", i))
		}
		total, err := r.Users.Count(ctx)
		if err != nil || total != 5 {
			t.Fatalf("count: %d %v", total, err)
		}
		page, err := r.Users.List(ctx, repository.Window{Limit: 2, Offset: 2})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(page) != 2 || page[0].Username != "user2" || page[1].Username != "user3" {
			t.Fatalf("unexpected window: %+v", page)
		}
	})

	t.Run("update_password_and_avatar", func(t *testing.T) {
		r := setup(t, mk)
		ctx := context.Background()
		u := mustUser(t, r, "dave")
		avatar := "data:image/png;base64,AAAA"
		if err := r.Users.UpdatePassword(ctx, u.ID, "new-hash"); err != nil {
			t.Fatalf("update password: %v", err)
		}
		if err := r.Users.UpdateAvatar(ctx, u.ID, &avatar); err != nil {
			t.Fatalf("update avatar: %v", err)
		}
		got, _ := r.Users.GetByID(ctx, u.ID)
		if got.Password != "new-hash" || got.Avatar == nil || *got.Avatar != avatar {
			t.Fatalf("not updated: %+v", got)
		}
		if err := r.Users.UpdateAvatar(ctx, 999999, nil); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func RunTokenRepositoryContract(t *testing.T, mk Factory) {
	t.Helper()

	t.Run("create_lookup_delete", func(t *testing.T) {
		r := setup(t, mk)
		ctx := context.Background()
		u := mustUser(t, r, "erin")
		if _, err := r.Tokens.Create(ctx, model.AuthToken{Token: "tok", UserID: u.ID}); err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := r.Tokens.UserByToken(ctx, "tok")
		if err != nil || got.ID != u.ID {
			t.Fatalf("user by token: %+v %v", got, err)
		}
		if _, err := r.Tokens.Create(ctx, model.AuthToken{Token: "tok2", UserID: u.ID}); !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("second token must conflict, got %v", err)
		}
		if err := r.Tokens.DeleteByUser(ctx, u.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := r.Tokens.GetByUser(ctx, u.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := r.Tokens.UserByToken(ctx, "tok"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func RunSubscriptionRepositoryContract(t *testing.T, mk Factory) {
	t.Helper()

	t.Run("subscribe_list_unsubscribe", func(t *testing.T) {
		r := setup(t, mk)
		ctx := context.Background()
		me := mustUser(t, r, "me1")
		a := mustUser(t, r, "author1")
		b := mustUser(t, r, "author2")
		for _, id := range []int64{a.ID, b.ID} {
			if err := r.Subscriptions.Subscribe(ctx, me.ID, id); err != nil {
				t.Fatalf("subscribe: %v", err)
			}
		}
		if err := r.Subscriptions.Subscribe(ctx, me.ID, a.ID); !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("duplicate subscribe: %v", err)
		}
		if err := r.Subscriptions.Subscribe(ctx, me.ID, me.ID); !errors.Is(err, repository.ErrConflict) {
			t.Fatalf("self subscribe: %v", err)
		}
		n, err := r.Subscriptions.CountFollowing(ctx, me.ID)
		if err != nil || n != 2 {
			t.Fatalf("count following: %d %v", n, err)
		}
		list, err := r.Subscriptions.ListFollowing(ctx, me.ID, repository.Window{Limit: 1, Offset: 1})
		if err != nil || len(list) != 1 || list[0].ID != b.ID {
			t.Fatalf("list following: %+v %v", list, err)
		}
		subs, err := r.Subscriptions.SubscribedTo(ctx, me.ID, []int64{a.ID, me.ID})
		if err != nil || !subs[a.ID] || subs[me.ID] {
			t.Fatalf("subscribed to: %v %v", subs, err)
		}
		removed, err := r.Subscriptions.Unsubscribe(ctx, me.ID, a.ID)
		if err != nil || !removed {
			t.Fatalf("unsubscribe: %v %v", removed, err)
		}
		removed, err = r.Subscriptions.Unsubscribe(ctx, me.ID, a.ID)
		if err != nil || removed {
			t.Fatalf("second unsubscribe: %v %v", removed, err)
		}
	})
}

func RunTagRepositoryContract(t *testing.T, mk Factory) {
	t.Helper()

	t.Run("create_list_by_recipe", func(t *testing.T) {
		r := setup(t, mk)
		ctx := context.Background()
		breakfast, err := r.Tags.Create(ctx, model.Tag{Name: "Breakfast", Slug: "breakfast"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := r.Tags.Create(ctx, model.Tag{Name: "Other", Slug: "breakfast"}); !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("duplicate slug: %v", err)
		}
		got, err := r.Tags.GetByID(ctx, breakfast.ID)
		if err != nil || got != breakfast {
			t.Fatalf("get: %+v %v", got, err)
		}
		u := mustUser(t, r, "tagger")
		rec := mustRecipe(t, r, u.ID, "Porridge")
		if err := r.Recipes.SetTags(ctx, rec.ID, []int64{breakfast.ID}); err != nil {
			t.Fatalf("set tags: %v", err)
		}
		byRecipe, err := r.Tags.ListByRecipes(ctx, []int64{rec.ID})
		if err != nil || len(byRecipe[rec.ID]) != 1 || byRecipe[rec.ID][0].Slug != "breakfast" {
			t.Fatalf("list by recipes: %v %v", byRecipe, err)
		}
		all, err := r.Tags.List(ctx)
		if err != nil || len(all) != 1 {
			t.Fatalf("list: %v %v", all, err)
		}
	})
}

func RunIngredientRepositoryContract(t *testing.T, mk Factory) {
	t.Helper()

	t.Run("search_substring", func(t *testing.T) {
		r := setup(t, mk)
		ctx := context.Background()
		for _, name := range []string{"sugar", "brown sugar", "salt", "100% cocoa"} {
			if _, err := r.Ingredients.Create(ctx, model.Ingredient{Name: name, MeasurementUnit: "g"}); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		got, err := r.Ingredients.Search(ctx, "SUG")
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(got) != 2 || got[0].Name != "brown sugar" || got[1].Name != "sugar" {
			t.Fatalf("unexpected search result: %+v", got)
		}
		got, err = r.Ingredients.Search(ctx, "%")
		if err != nil || len(got) != 1 {
			t.Fatalf("percent must match literally: %+v %v", got, err)
		}
		all, err := r.Ingredients.Search(ctx, "")
		if err != nil || len(all) != 4 {
			t.Fatalf("empty search returns all: %d %v", len(all), err)
		}
	})

	t.Run("count_and_window", func(t *testing.T) {
		r := setup(t, mk)
		ctx := context.Background()
		for _, name := range []string{"salt", "butter", "pepper", "flour", "milk"} {
			if _, err := r.Ingredients.Create(ctx, model.Ingredient{Name: name, MeasurementUnit: "g"}); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		n, err := r.Ingredients.Count(ctx)
		if err != nil || n != 5 {
			t.Fatalf("count: %d %v", n, err)
		}
		got, err := r.Ingredients.List(ctx, repository.Window{Limit: 2, Offset: 2})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 2 || got[0].Name != "milk" || got[1].Name != "pepper" {
			t.Fatalf("unexpected window: %+v", got)
		}
		got, err = r.Ingredients.List(ctx, repository.Window{Limit: 10, Offset: 5})
		if err != nil || len(got) != 0 {
			t.Fatalf("window past the end: %+v %v", got, err)
		}
	})
}

func RunRecipeRepositoryContract(t *testing.T, mk Factory) {
	t.Helper()

	t.Run("filters_and_order", func(t *testing.T) {
		r := setup(t, mk)
		ctx := context.Background()
		alice := mustUser(t, r, "ralice")
		bob := mustUser(t, r, "rbob")
		lunch, _ := r.Tags.Create(ctx, model.Tag{Name: "Lunch", Slug: "lunch"})
		r1 := mustRecipe(t, r, alice.ID, "one")
		r2 := mustRecipe(t, r, alice.ID, "two")
		r3 := mustRecipe(t, r, bob.ID, "three")
		if err := r.Recipes.SetTags(ctx, r2.ID, []int64{lunch.ID}); err != nil {
			t.Fatalf("set tags: %v", err)
		}
		if err := r.Collections.Add(ctx, model.Favorites, bob.ID, r1.ID); err != nil {
			t.Fatalf("favorite: %v", err)
		}
		if err := r.Collections.Add(ctx, model.ShoppingCart, bob.ID, r3.ID); err != nil {
			t.Fatalf("cart: %v", err)
		}

		all, err := r.Recipes.List(ctx, repository.RecipeFilter{}, repository.Window{Limit: 10})
		if err != nil || len(all) != 3 || all[0].ID != r3.ID || all[2].ID != r1.ID {
			t.Fatalf("newest first expected: %+v %v", all, err)
		}
		cases := []struct {
			name string
			f    repository.RecipeFilter
			want []int64
		}{
			{"author", repository.RecipeFilter{AuthorID: &alice.ID}, []int64{r2.ID, r1.ID}},
			{"tags", repository.RecipeFilter{TagSlugs: []string{"lunch", "dinner"}}, []int64{r2.ID}},
			{"favorited", repository.RecipeFilter{FavoritedBy: &bob.ID}, []int64{r1.ID}},
			{"cart", repository.RecipeFilter{InCartOf: &bob.ID}, []int64{r3.ID}},
			{"combined", repository.RecipeFilter{AuthorID: &bob.ID, FavoritedBy: &bob.ID}, nil},
		}
		for _, c := range cases {
			n, err := r.Recipes.Count(ctx, c.f)
			if err != nil || n != len(c.want) {
				t.Fatalf("%s count: %d %v", c.name, n, err)
			}
			got, err := r.Recipes.List(ctx, c.f, repository.Window{Limit: 10})
			if err != nil || len(got) != len(c.want) {
				t.Fatalf("%s list: %+v %v", c.name, got, err)
			}
			for i, id := range c.want {
				if got[i].ID != id {
					t.Fatalf("%s: position %d got %d want %d", c.name, i, got[i].ID, id)
				}
			}
		}
	})

	t.Run("update_delete", func(t *testing.T) {
		r := setup(t, mk)
		ctx := context.Background()
		u := mustUser(t, r, "upd")
		rec := mustRecipe(t, r, u.ID, "before")
		rec.Name = "after"
		rec.CookingTime = 42
		updated, err := r.Recipes.Update(ctx, rec)
		if err != nil || updated.Name != "after" || updated.AuthorID != u.ID {
			t.Fatalf("update: %+v %v", updated, err)
		}
		if err := r.Recipes.Delete(ctx, rec.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := r.Recipes.Delete(ctx, rec.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := r.Recipes.GetByID(ctx, rec.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("by_authors_and_shopping_list", func(t *testing.T) {
		r := setup(t, mk)
		ctx := context.Background()
		a := mustUser(t, r, "chef")
		flour, _ := r.Ingredients.Create(ctx, model.Ingredient{Name: "flour", MeasurementUnit: "g"})
		egg, _ := r.Ingredients.Create(ctx, model.Ingredient{Name: "egg", MeasurementUnit: "pcs"})
		var ids []int64
		for i := 0; i < 3; i++ {
			rec := mustRecipe(t, r, a.ID, fmt.Sprintf("bake%d", i))
			ids = append(ids, rec.ID)
			if err := r.Recipes.SetIngredients(ctx, rec.ID, []model.RecipeIngredient{
				{IngredientID: flour.ID, Amount: 100},
				{IngredientID: egg.ID, Amount: 2},
			}); err != nil {
				t.Fatalf("set ingredients: %v", err)
			}
		}
		limited, err := r.Recipes.ListByAuthors(ctx, []int64{a.ID}, 2)
		if err != nil || len(limited[a.ID]) != 2 || limited[a.ID][0].ID != ids[2] {
			t.Fatalf("list by authors: %+v %v", limited, err)
		}
		counts, err := r.Recipes.CountByAuthors(ctx, []int64{a.ID})
		if err != nil || counts[a.ID] != 3 {
			t.Fatalf("count by authors: %v %v", counts, err)
		}
		lines, err := r.Recipes.IngredientsByRecipes(ctx, ids[:1])
		if err != nil || len(lines[ids[0]]) != 2 || lines[ids[0]][0].Name != "flour" {
			t.Fatalf("ingredients by recipes: %v %v", lines, err)
		}
		for _, id := range ids[:2] {
			if err := r.Collections.Add(ctx, model.ShoppingCart, a.ID, id); err != nil {
				t.Fatalf("cart: %v", err)
			}
		}
		list, err := r.Recipes.ShoppingList(ctx, a.ID)
		if err != nil {
			t.Fatalf("shopping list: %v", err)
		}
		want := []model.ShoppingItem{{Name: "egg", MeasurementUnit: "pcs", Amount: 4}, {Name: "flour", MeasurementUnit: "g", Amount: 200}}
		if len(list) != 2 || list[0] != want[0] || list[1] != want[1] {
			t.Fatalf("shopping list: %+v", list)
		}
	})
}

func RunCollectionRepositoryContract(t *testing.T, mk Factory) {
	t.Helper()

	t.Run("add_contains_remove", func(t *testing.T) {
		r := setup(t, mk)
		ctx := context.Background()
		u := mustUser(t, r, "collector")
		rec := mustRecipe(t, r, u.ID, "fav")
		for _, c := range []model.Collection{model.Favorites, model.ShoppingCart} {
			if err := r.Collections.Add(ctx, c, u.ID, rec.ID); err != nil {
				t.Fatalf("%s add: %v", c, err)
			}
			if err := r.Collections.Add(ctx, c, u.ID, rec.ID); !errors.Is(err, repository.ErrAlreadyExists) {
				t.Fatalf("%s duplicate: %v", c, err)
			}
			in, err := r.Collections.Contains(ctx, c, u.ID, []int64{rec.ID, 999})
			if err != nil || !in[rec.ID] || in[999] {
				t.Fatalf("%s contains: %v %v", c, in, err)
			}
			removed, err := r.Collections.Remove(ctx, c, u.ID, rec.ID)
			if err != nil || !removed {
				t.Fatalf("%s remove: %v %v", c, removed, err)
			}
			removed, _ = r.Collections.Remove(ctx, c, u.ID, rec.ID)
			if removed {
				t.Fatalf("%s second remove reported true", c)
			}
		}
		if err := r.Collections.Add(ctx, model.Collection("bogus"), u.ID, rec.ID); err == nil {
			t.Fatalf("unknown collection must fail")
		}
	})
}

func RunTxManagerContract(t *testing.T, mk Factory) {
	t.Helper()

	t.Run("rollback_on_error", func(t *testing.T) {
		r := setup(t, mk)
		ctx := context.Background()
		boom := errors.New("boom")
		err := r.Tx.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := r.Tags.Create(ctx, model.Tag{Name: "Tx", Slug: "tx"}); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		tags, _ := r.Tags.List(ctx)
		if len(tags) != 0 {
			t.Fatalf("tx not rolled back: %+v", tags)
		}
	})

	t.Run("commit_and_nested", func(t *testing.T) {
		r := setup(t, mk)
		ctx := context.Background()
		err := r.Tx.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := r.Tags.Create(ctx, model.Tag{Name: "A", Slug: "a"}); err != nil {
				return err
			}
			return r.Tx.WithinTx(ctx, func(ctx context.Context) error {
				_, err := r.Tags.Create(ctx, model.Tag{Name: "B", Slug: "b"})
				return err
			})
		})
		if err != nil {
			t.Fatalf("tx: %v", err)
		}
		tags, _ := r.Tags.List(ctx)
		if len(tags) != 2 {
			t.Fatalf("expected 2 tags, got %+v", tags)
		}
	})

	t.Run("snapshot_is_read_only", func(t *testing.T) {
		r := setup(t, mk)
		err := r.Tx.WithinSnapshot(context.Background(), func(ctx context.Context) error {
			_, err := r.Tags.Create(ctx, model.Tag{Name: "RO", Slug: "ro"})
			return err
		})
		if err == nil {
			t.Fatalf("write inside snapshot must fail")
		}
	})

	t.Run("paginate_inside_snapshot", func(t *testing.T) {
		r := setup(t, mk)
		ctx := context.Background()
		u := mustUser(t, r, "pager")
		for i := 0; i < 25; i++ {
			mustRecipe(t, r, u.ID, fmt.Sprintf("r%02d", i))
		}
		src := pagination.SourceFunc[model.Recipe]{
			CountFn: func(ctx context.Context) (int, error) { return r.Recipes.Count(ctx, repository.RecipeFilter{}) },
			FetchFn: func(ctx context.Context, limit, offset int) ([]model.Recipe, error) {
				return r.Recipes.List(ctx, repository.RecipeFilter{}, repository.Window{Limit: limit, Offset: offset})
			},
		}
		var env pagination.Envelope[model.Recipe]
		err := r.Tx.WithinSnapshot(ctx, func(ctx context.Context) error {
			var err error
			env, err = pagination.Paginate(ctx, pagination.Request{Page: 3, Limit: 10}, src, "http://test/api/recipes", nil)
			return err
		})
		if err != nil {
			t.Fatalf("paginate: %v", err)
		}
		if env.Total != 25 || len(env.Items) != 5 || env.Next != nil || env.Previous == nil {
			t.Fatalf("unexpected envelope: total=%d items=%d next=%v", env.Total, len(env.Items), env.Next)
		}
		if env.Items[0].Name != "r04" {
			t.Fatalf("unexpected first item on last page: %s", env.Items[0].Name)
		}
	})
}

func RunPingerContract(t *testing.T, mk Factory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		r := setup(t, mk)
		if err := r.Pinger.Ping(context.Background()); err != nil {
			t.Fatalf("ping failed: %v", err)
		}
	})
}
