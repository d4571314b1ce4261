package repository

import (
	"context"

	"github.com/maxviazov/foodgram-service/internal/model"
)

// Pinger represents a minimal readiness probe capability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution for repositories that support it.
// Calls nested inside an open transaction reuse it.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
	// WithinSnapshot runs fn in a read-only repeatable read transaction, so a
	// count and the page fetched after it see the same data.
	WithinSnapshot(ctx context.Context, fn TxFunc) error
}

// UserRepository declares persistence operations for accounts.
type UserRepository interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	GetByID(ctx context.Context, id int64) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	ListByIDs(ctx context.Context, ids []int64) (map[int64]model.User, error)
	// Taken reports which of email and username are already registered.
	Taken(ctx context.Context, email, username string) (emailTaken, usernameTaken bool, err error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, w Window) ([]model.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdateAvatar(ctx context.Context, id int64, avatar *string) error
}

// TokenRepository stores the single auth token each user may hold.
type TokenRepository interface {
	GetByUser(ctx context.Context, userID int64) (model.AuthToken, error)
	Create(ctx context.Context, t model.AuthToken) (model.AuthToken, error)
	DeleteByUser(ctx context.Context, userID int64) error
	UserByToken(ctx context.Context, token string) (model.User, error)
}

// SubscriptionRepository tracks which authors a user follows.
type SubscriptionRepository interface {
	Subscribe(ctx context.Context, userID, authorID int64) error
	// Unsubscribe reports whether a subscription existed.
	Unsubscribe(ctx context.Context, userID, authorID int64) (bool, error)
	// SubscribedTo returns the subset of authorIDs followed by userID.
	SubscribedTo(ctx context.Context, userID int64, authorIDs []int64) (map[int64]bool, error)
	CountFollowing(ctx context.Context, userID int64) (int, error)
	ListFollowing(ctx context.Context, userID int64, w Window) ([]model.User, error)
}

// TagRepository declares persistence operations for tags.
type TagRepository interface {
	Create(ctx context.Context, t model.Tag) (model.Tag, error)
	GetByID(ctx context.Context, id int64) (model.Tag, error)
	List(ctx context.Context) ([]model.Tag, error)
	ListByIDs(ctx context.Context, ids []int64) ([]model.Tag, error)
	ListByRecipes(ctx context.Context, recipeIDs []int64) (map[int64][]model.Tag, error)
}

// IngredientRepository declares persistence operations for the ingredient catalogue.
type IngredientRepository interface {
	Create(ctx context.Context, i model.Ingredient) (model.Ingredient, error)
	GetByID(ctx context.Context, id int64) (model.Ingredient, error)
	// Search returns ingredients whose name contains name (case-insensitive),
	// ordered by name. An empty name returns the whole catalogue.
	Search(ctx context.Context, name string) ([]model.Ingredient, error)
	Count(ctx context.Context) (int, error)
	// List returns one window of the catalogue ordered by name, id.
	List(ctx context.Context, w Window) ([]model.Ingredient, error)
	ListByIDs(ctx context.Context, ids []int64) ([]model.Ingredient, error)
}

// RecipeFilter narrows recipe listings. Nil and empty fields do not filter.
type RecipeFilter struct {
	AuthorID    *int64
	TagSlugs    []string
	FavoritedBy *int64
	InCartOf    *int64
}

// RecipeRepository declares persistence operations for recipes and their link tables.
type RecipeRepository interface {
	Create(ctx context.Context, r model.Recipe) (model.Recipe, error)
	Update(ctx context.Context, r model.Recipe) (model.Recipe, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (model.Recipe, error)
	SetTags(ctx context.Context, recipeID int64, tagIDs []int64) error
	SetIngredients(ctx context.Context, recipeID int64, items []model.RecipeIngredient) error
	Count(ctx context.Context, f RecipeFilter) (int, error)
	// List returns the window of recipes matching f, newest first.
	List(ctx context.Context, f RecipeFilter, w Window) ([]model.Recipe, error)
	// ListByAuthors returns up to limit newest recipes per author; limit <= 0 means all.
	ListByAuthors(ctx context.Context, authorIDs []int64, limit int) (map[int64][]model.Recipe, error)
	CountByAuthors(ctx context.Context, authorIDs []int64) (map[int64]int, error)
	IngredientsByRecipes(ctx context.Context, recipeIDs []int64) (map[int64][]model.RecipeIngredient, error)
	// ShoppingList sums the ingredients of every recipe in the user's cart.
	ShoppingList(ctx context.Context, userID int64) ([]model.ShoppingItem, error)
}

// CollectionRepository manages the per-user favorites and shopping cart lists.
type CollectionRepository interface {
	Add(ctx context.Context, c model.Collection, userID, recipeID int64) error
	// Remove reports whether the recipe was in the collection.
	Remove(ctx context.Context, c model.Collection, userID, recipeID int64) (bool, error)
	// Contains returns the subset of recipeIDs present in the user's collection.
	Contains(ctx context.Context, c model.Collection, userID int64, recipeIDs []int64) (map[int64]bool, error)
}
