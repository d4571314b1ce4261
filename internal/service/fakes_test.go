package service_test

import (
	"context"
	"errors"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/maxviazov/foodgram-service/internal/auth"
	"github.com/maxviazov/foodgram-service/internal/model"
	"github.com/maxviazov/foodgram-service/internal/repository"
)

var discard = zerolog.New(io.Discard)

var testHasher = auth.NewHasher(bcrypt.MinCost)

// store is an in-memory backing for every repository interface.
type store struct {
	nextID      int64
	users       map[int64]model.User
	tokens      map[int64]model.AuthToken
	subs        map[[2]int64]int64 // (user, author) -> insertion order
	tags        map[int64]model.Tag
	ingredients map[int64]model.Ingredient
	recipes     map[int64]model.Recipe
	recipeTags  map[int64][]int64
	recipeLines map[int64][]model.RecipeIngredient
	collections map[model.Collection]map[[2]int64]bool

	failCount error
	txCalls   int
	snapshots int
	// staleTaken makes the next Taken calls report no clash, as when a
	// concurrent sign-up commits between the check and the insert.
	staleTaken         int
	ingredientSearches int
}

func newStore() *store {
	return &store{
		users:       map[int64]model.User{},
		tokens:      map[int64]model.AuthToken{},
		subs:        map[[2]int64]int64{},
		tags:        map[int64]model.Tag{},
		ingredients: map[int64]model.Ingredient{},
		recipes:     map[int64]model.Recipe{},
		recipeTags:  map[int64][]int64{},
		recipeLines: map[int64][]model.RecipeIngredient{},
		collections: map[model.Collection]map[[2]int64]bool{
			model.Favorites:    {},
			model.ShoppingCart: {},
		},
	}
}

func (s *store) id() int64 { s.nextID++; return s.nextID }

func window[T any](items []T, w repository.Window) []T {
	if w.Offset >= len(items) {
		return []T{}
	}
	end := min(w.Offset+w.Limit, len(items))
	return slices.Clone(items[w.Offset:end])
}

// tx

type fakeTx struct{ s *store }

func (t fakeTx) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	t.s.txCalls++
	return fn(ctx)
}

func (t fakeTx) WithinSnapshot(ctx context.Context, fn repository.TxFunc) error {
	t.s.snapshots++
	return fn(ctx)
}

// users

type fakeUsers struct{ s *store }

func (f fakeUsers) Create(_ context.Context, u model.User) (model.User, error) {
	for _, x := range f.s.users {
		if x.Email == u.Email || x.Username == u.Username {
			return model.User{}, repository.ErrAlreadyExists
		}
	}
	u.ID = f.s.id()
	f.s.users[u.ID] = u
	return u, nil
}

func (f fakeUsers) GetByID(_ context.Context, id int64) (model.User, error) {
	u, ok := f.s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f fakeUsers) ListByIDs(_ context.Context, ids []int64) (map[int64]model.User, error) {
	out := map[int64]model.User{}
	for _, id := range ids {
		if u, ok := f.s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (f fakeUsers) Taken(_ context.Context, email, username string) (bool, bool, error) {
	if f.s.staleTaken > 0 {
		f.s.staleTaken--
		return false, false, nil
	}
	var e, n bool
	for _, u := range f.s.users {
		e = e || strings.EqualFold(u.Email, email)
		n = n || u.Username == username
	}
	return e, n, nil
}

func (f fakeUsers) Count(context.Context) (int, error) {
	if f.s.failCount != nil {
		return 0, f.s.failCount
	}
	return len(f.s.users), nil
}

func (f fakeUsers) sorted() []model.User {
	out := make([]model.User, 0, len(f.s.users))
	for _, u := range f.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f fakeUsers) List(_ context.Context, w repository.Window) ([]model.User, error) {
	return window(f.sorted(), w), nil
}

func (f fakeUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, ok := f.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = hash
	f.s.users[id] = u
	return nil
}

func (f fakeUsers) UpdateAvatar(_ context.Context, id int64, avatar *string) error {
	u, ok := f.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Avatar = avatar
	f.s.users[id] = u
	return nil
}

// tokens

type fakeTokens struct{ s *store }

func (f fakeTokens) GetByUser(_ context.Context, userID int64) (model.AuthToken, error) {
	t, ok := f.s.tokens[userID]
	if !ok {
		return model.AuthToken{}, repository.ErrNotFound
	}
	return t, nil
}

func (f fakeTokens) Create(_ context.Context, t model.AuthToken) (model.AuthToken, error) {
	if _, ok := f.s.tokens[t.UserID]; ok {
		return model.AuthToken{}, repository.ErrAlreadyExists
	}
	t.ID = f.s.id()
	f.s.tokens[t.UserID] = t
	return t, nil
}

func (f fakeTokens) DeleteByUser(_ context.Context, userID int64) error {
	delete(f.s.tokens, userID)
	return nil
}

func (f fakeTokens) UserByToken(_ context.Context, token string) (model.User, error) {
	for uid, t := range f.s.tokens {
		if t.Token == token {
			return f.s.users[uid], nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

// subscriptions

type fakeSubs struct{ s *store }

func (f fakeSubs) Subscribe(_ context.Context, userID, authorID int64) error {
	if userID == authorID {
		return repository.ErrConflict
	}
	key := [2]int64{userID, authorID}
	if _, ok := f.s.subs[key]; ok {
		return repository.ErrAlreadyExists
	}
	f.s.subs[key] = f.s.id()
	return nil
}

func (f fakeSubs) Unsubscribe(_ context.Context, userID, authorID int64) (bool, error) {
	key := [2]int64{userID, authorID}
	_, ok := f.s.subs[key]
	delete(f.s.subs, key)
	return ok, nil
}

func (f fakeSubs) SubscribedTo(_ context.Context, userID int64, authorIDs []int64) (map[int64]bool, error) {
	out := map[int64]bool{}
	for _, a := range authorIDs {
		if _, ok := f.s.subs[[2]int64{userID, a}]; ok {
			out[a] = true
		}
	}
	return out, nil
}

func (f fakeSubs) following(userID int64) []model.User {
	type entry struct {
		order int64
		user  model.User
	}
	var es []entry
	for k, order := range f.s.subs {
		if k[0] == userID {
			es = append(es, entry{order, f.s.users[k[1]]})
		}
	}
	sort.Slice(es, func(i, j int) bool { return es[i].order < es[j].order })
	out := make([]model.User, len(es))
	for i, e := range es {
		out[i] = e.user
	}
	return out
}

func (f fakeSubs) CountFollowing(_ context.Context, userID int64) (int, error) {
	return len(f.following(userID)), nil
}

func (f fakeSubs) ListFollowing(_ context.Context, userID int64, w repository.Window) ([]model.User, error) {
	return window(f.following(userID), w), nil
}

// tags

type fakeTags struct{ s *store }

func (f fakeTags) Create(_ context.Context, t model.Tag) (model.Tag, error) {
	for _, x := range f.s.tags {
		if x.Slug == t.Slug || x.Name == t.Name {
			return model.Tag{}, repository.ErrAlreadyExists
		}
	}
	t.ID = f.s.id()
	f.s.tags[t.ID] = t
	return t, nil
}

func (f fakeTags) GetByID(_ context.Context, id int64) (model.Tag, error) {
	t, ok := f.s.tags[id]
	if !ok {
		return model.Tag{}, repository.ErrNotFound
	}
	return t, nil
}

func (f fakeTags) List(context.Context) ([]model.Tag, error) {
	out := []model.Tag{}
	for _, t := range f.s.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeTags) ListByIDs(_ context.Context, ids []int64) ([]model.Tag, error) {
	out := []model.Tag{}
	for _, id := range ids {
		if t, ok := f.s.tags[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f fakeTags) ListByRecipes(_ context.Context, recipeIDs []int64) (map[int64][]model.Tag, error) {
	out := map[int64][]model.Tag{}
	for _, rid := range recipeIDs {
		for _, tid := range f.s.recipeTags[rid] {
			out[rid] = append(out[rid], f.s.tags[tid])
		}
	}
	return out, nil
}

// ingredients

type fakeIngredients struct{ s *store }

func (f fakeIngredients) Create(_ context.Context, i model.Ingredient) (model.Ingredient, error) {
	i.ID = f.s.id()
	f.s.ingredients[i.ID] = i
	return i, nil
}

func (f fakeIngredients) GetByID(_ context.Context, id int64) (model.Ingredient, error) {
	i, ok := f.s.ingredients[id]
	if !ok {
		return model.Ingredient{}, repository.ErrNotFound
	}
	return i, nil
}

func (f fakeIngredients) Search(_ context.Context, name string) ([]model.Ingredient, error) {
	f.s.ingredientSearches++
	out := []model.Ingredient{}
	for _, i := range f.s.ingredients {
		if strings.Contains(strings.ToLower(i.Name), strings.ToLower(name)) {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out, nil
}

func (f fakeIngredients) Count(context.Context) (int, error) {
	if f.s.failCount != nil {
		return 0, f.s.failCount
	}
	return len(f.s.ingredients), nil
}

func (f fakeIngredients) List(_ context.Context, w repository.Window) ([]model.Ingredient, error) {
	all := make([]model.Ingredient, 0, len(f.s.ingredients))
	for _, i := range f.s.ingredients {
		all = append(all, i)
	}
	sort.Slice(all, func(a, b int) bool {
		if all[a].Name != all[b].Name {
			return all[a].Name < all[b].Name
		}
		return all[a].ID < all[b].ID
	})
	return window(all, w), nil
}

func (f fakeIngredients) ListByIDs(_ context.Context, ids []int64) ([]model.Ingredient, error) {
	out := []model.Ingredient{}
	for _, id := range ids {
		if i, ok := f.s.ingredients[id]; ok {
			out = append(out, i)
		}
	}
	return out, nil
}

// recipes

type fakeRecipes struct{ s *store }

func (f fakeRecipes) Create(_ context.Context, r model.Recipe) (model.Recipe, error) {
	r.ID = f.s.id()
	f.s.recipes[r.ID] = r
	return r, nil
}

func (f fakeRecipes) Update(_ context.Context, r model.Recipe) (model.Recipe, error) {
	old, ok := f.s.recipes[r.ID]
	if !ok {
		return model.Recipe{}, repository.ErrNotFound
	}
	r.AuthorID = old.AuthorID
	f.s.recipes[r.ID] = r
	return r, nil
}

func (f fakeRecipes) Delete(_ context.Context, id int64) error {
	if _, ok := f.s.recipes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.s.recipes, id)
	return nil
}

func (f fakeRecipes) GetByID(_ context.Context, id int64) (model.Recipe, error) {
	r, ok := f.s.recipes[id]
	if !ok {
		return model.Recipe{}, repository.ErrNotFound
	}
	return r, nil
}

func (f fakeRecipes) SetTags(_ context.Context, recipeID int64, tagIDs []int64) error {
	f.s.recipeTags[recipeID] = slices.Clone(tagIDs)
	return nil
}

func (f fakeRecipes) SetIngredients(_ context.Context, recipeID int64, items []model.RecipeIngredient) error {
	lines := make([]model.RecipeIngredient, len(items))
	for i, it := range items {
		ing := f.s.ingredients[it.IngredientID]
		lines[i] = model.RecipeIngredient{IngredientID: ing.ID, Name: ing.Name, MeasurementUnit: ing.MeasurementUnit, Amount: it.Amount}
	}
	f.s.recipeLines[recipeID] = lines
	return nil
}

func (f fakeRecipes) matching(flt repository.RecipeFilter) []model.Recipe {
	var out []model.Recipe
	for _, r := range f.s.recipes {
		if flt.AuthorID != nil && r.AuthorID != *flt.AuthorID {
			continue
		}
		if flt.FavoritedBy != nil && !f.s.collections[model.Favorites][[2]int64{*flt.FavoritedBy, r.ID}] {
			continue
		}
		if flt.InCartOf != nil && !f.s.collections[model.ShoppingCart][[2]int64{*flt.InCartOf, r.ID}] {
			continue
		}
		if len(flt.TagSlugs) > 0 {
			hit := false
			for _, tid := range f.s.recipeTags[r.ID] {
				hit = hit || slices.Contains(flt.TagSlugs, f.s.tags[tid].Slug)
			}
			if !hit {
				continue
			}
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f fakeRecipes) Count(_ context.Context, flt repository.RecipeFilter) (int, error) {
	return len(f.matching(flt)), nil
}

func (f fakeRecipes) List(_ context.Context, flt repository.RecipeFilter, w repository.Window) ([]model.Recipe, error) {
	return window(f.matching(flt), w), nil
}

func (f fakeRecipes) ListByAuthors(_ context.Context, authorIDs []int64, limit int) (map[int64][]model.Recipe, error) {
	out := map[int64][]model.Recipe{}
	for _, a := range authorIDs {
		id := a
		rs := f.matching(repository.RecipeFilter{AuthorID: &id})
		if limit > 0 && len(rs) > limit {
			rs = rs[:limit]
		}
		out[a] = rs
	}
	return out, nil
}

func (f fakeRecipes) CountByAuthors(_ context.Context, authorIDs []int64) (map[int64]int, error) {
	out := map[int64]int{}
	for _, a := range authorIDs {
		id := a
		out[a] = len(f.matching(repository.RecipeFilter{AuthorID: &id}))
	}
	return out, nil
}

func (f fakeRecipes) IngredientsByRecipes(_ context.Context, recipeIDs []int64) (map[int64][]model.RecipeIngredient, error) {
	out := map[int64][]model.RecipeIngredient{}
	for _, id := range recipeIDs {
		out[id] = f.s.recipeLines[id]
	}
	return out, nil
}

func (f fakeRecipes) ShoppingList(_ context.Context, userID int64) ([]model.ShoppingItem, error) {
	return nil, errors.New("not used by service tests")
}

// collections

type fakeCollections struct{ s *store }

func (f fakeCollections) Add(_ context.Context, c model.Collection, userID, recipeID int64) error {
	key := [2]int64{userID, recipeID}
	if f.s.collections[c][key] {
		return repository.ErrAlreadyExists
	}
	f.s.collections[c][key] = true
	return nil
}

func (f fakeCollections) Remove(_ context.Context, c model.Collection, userID, recipeID int64) (bool, error) {
	key := [2]int64{userID, recipeID}
	ok := f.s.collections[c][key]
	delete(f.s.collections[c], key)
	return ok, nil
}

func (f fakeCollections) Contains(_ context.Context, c model.Collection, userID int64, recipeIDs []int64) (map[int64]bool, error) {
	out := map[int64]bool{}
	for _, id := range recipeIDs {
		if f.s.collections[c][[2]int64{userID, id}] {
			out[id] = true
		}
	}
	return out, nil
}

var (
	_ repository.TxManager              = fakeTx{}
	_ repository.UserRepository         = fakeUsers{}
	_ repository.TokenRepository        = fakeTokens{}
	_ repository.SubscriptionRepository = fakeSubs{}
	_ repository.TagRepository          = fakeTags{}
	_ repository.IngredientRepository   = fakeIngredients{}
	_ repository.RecipeRepository       = fakeRecipes{}
	_ repository.CollectionRepository   = fakeCollections{}
)

// seedUser stores a user whose password is "password".
func (s *store) seedUser(name string) model.User {
	hash, _ := testHasher.Hash("password")
	u, _ := fakeUsers{s}.Create(context.Background(), model.User{
		Email: name + "@example.com", Username: name, Password: hash, FirstName: name, LastName: "Test",
	})
	return u
}
