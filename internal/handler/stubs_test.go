package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/foodgram-service/internal/config"
	"github.com/maxviazov/foodgram-service/internal/handler"
	"github.com/maxviazov/foodgram-service/internal/model"
	"github.com/maxviazov/foodgram-service/internal/pagination"
	"github.com/maxviazov/foodgram-service/internal/service"
)

const validToken = "0123456789abcdef"

var alice = model.User{ID: 7, Email: "alice@example.com", Username: "alice"}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubAuth struct {
	login  func(email, password string) (string, error)
	logout func(u model.User) error
}

func (s *stubAuth) Login(_ context.Context, email, password string) (string, error) {
	return s.login(email, password)
}
func (s *stubAuth) Logout(_ context.Context, u model.User) error { return s.logout(u) }
func (s *stubAuth) Authenticate(_ context.Context, token string) (model.User, error) {
	if token == validToken {
		return alice, nil
	}
	return model.User{}, service.ErrUnauthorized
}

type stubUsers struct {
	service.UserService
	register      func(in service.RegisterInput) (model.UserResponse, error)
	get           func(viewer *model.User, id int64) (model.UserResponse, error)
	list          func(viewer *model.User, q pagination.Query) (pagination.Envelope[model.UserResponse], error)
	subscriptions func(u model.User, q pagination.Query, recipesLimit int) (pagination.Envelope[model.UserWithRecipes], error)
	subscribe     func(u model.User, authorID int64, recipesLimit int) (model.UserWithRecipes, error)
	unsubscribe   func(u model.User, authorID int64) error
	setAvatar     func(u model.User, in service.AvatarInput) (string, error)
}

func (s *stubUsers) Register(_ context.Context, in service.RegisterInput) (model.UserResponse, error) {
	return s.register(in)
}
func (s *stubUsers) Get(_ context.Context, viewer *model.User, id int64) (model.UserResponse, error) {
	return s.get(viewer, id)
}
func (s *stubUsers) List(_ context.Context, viewer *model.User, q pagination.Query) (pagination.Envelope[model.UserResponse], error) {
	return s.list(viewer, q)
}
func (s *stubUsers) Subscriptions(_ context.Context, u model.User, q pagination.Query, recipesLimit int) (pagination.Envelope[model.UserWithRecipes], error) {
	return s.subscriptions(u, q, recipesLimit)
}
func (s *stubUsers) Subscribe(_ context.Context, u model.User, authorID int64, recipesLimit int) (model.UserWithRecipes, error) {
	return s.subscribe(u, authorID, recipesLimit)
}
func (s *stubUsers) Unsubscribe(_ context.Context, u model.User, authorID int64) error {
	return s.unsubscribe(u, authorID)
}
func (s *stubUsers) SetAvatar(_ context.Context, u model.User, in service.AvatarInput) (string, error) {
	return s.setAvatar(u, in)
}

type stubTags struct {
	service.TagService
	create func(in service.TagInput) (model.Tag, error)
	list   func() ([]model.Tag, error)
}

func (s *stubTags) Create(_ context.Context, in service.TagInput) (model.Tag, error) {
	return s.create(in)
}
func (s *stubTags) List(context.Context) ([]model.Tag, error) { return s.list() }

type stubIngredients struct {
	service.IngredientService
	search func(name string, q pagination.Query) (pagination.Envelope[model.Ingredient], error)
}

func (s *stubIngredients) Search(_ context.Context, name string, q pagination.Query) (pagination.Envelope[model.Ingredient], error) {
	return s.search(name, q)
}

type stubRecipes struct {
	service.RecipeService
	list       func(viewer *model.User, f service.RecipeListFilter, q pagination.Query) (pagination.Envelope[model.RecipeResponse], error)
	create     func(author model.User, in service.RecipeInput) (model.RecipeResponse, error)
	update     func(u model.User, id int64, in service.RecipeInput) (model.RecipeResponse, error)
	addTo      func(c model.Collection, u model.User, id int64) (model.RecipeShort, error)
	removeFrom func(c model.Collection, u model.User, id int64) error
	shopping   func(u model.User) ([]model.ShoppingItem, error)
}

func (s *stubRecipes) List(_ context.Context, viewer *model.User, f service.RecipeListFilter, q pagination.Query) (pagination.Envelope[model.RecipeResponse], error) {
	return s.list(viewer, f, q)
}
func (s *stubRecipes) Create(_ context.Context, author model.User, in service.RecipeInput) (model.RecipeResponse, error) {
	return s.create(author, in)
}
func (s *stubRecipes) Update(_ context.Context, u model.User, id int64, in service.RecipeInput) (model.RecipeResponse, error) {
	return s.update(u, id, in)
}
func (s *stubRecipes) AddTo(_ context.Context, c model.Collection, u model.User, id int64) (model.RecipeShort, error) {
	return s.addTo(c, u, id)
}
func (s *stubRecipes) RemoveFrom(_ context.Context, c model.Collection, u model.User, id int64) error {
	return s.removeFrom(c, u, id)
}
func (s *stubRecipes) ShoppingList(_ context.Context, u model.User) ([]model.ShoppingItem, error) {
	return s.shopping(u)
}

type fixture struct {
	auth        *stubAuth
	users       *stubUsers
	tags        *stubTags
	ingredients *stubIngredients
	recipes     *stubRecipes
	pinger      stubPinger
}

func newFixture() *fixture {
	return &fixture{
		auth:        &stubAuth{},
		users:       &stubUsers{},
		tags:        &stubTags{},
		ingredients: &stubIngredients{},
		recipes:     &stubRecipes{},
	}
}

func (f *fixture) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler.Register(r, f.pinger, handler.Deps{
		Auth:        f.auth,
		Users:       f.users,
		Tags:        f.tags,
		Ingredients: f.ingredients,
		Recipes:     f.recipes,
		Pagination:  config.PaginationConfig{DefaultLimit: 6, MaxLimit: 100},
	})
	return r
}

// do sends a request; token "" means anonymous.
func (f *fixture) do(t *testing.T, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	f.router().ServeHTTP(w, req)
	return w
}
