// Package service holds business logic orchestration across repositories and handlers.
// Kept intentionally lean: only use-case coordination, validation and domain error shaping.
package service

import (
	"context"
	"errors"

	"github.com/maxviazov/foodgram-service/internal/model"
	"github.com/maxviazov/foodgram-service/internal/pagination"
)

var (
	// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
	// Field-level details are retrieved via FieldErrors(err).
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is returned by login for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
)

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

// NewInvalidInput builds an aggregated validation error, or nil when fe is empty.
func NewInvalidInput(fe ...FieldError) error {
	if len(fe) == 0 {
		return nil
	}
	return &invalidInputError{fields: fe}
}

func invalidField(field, message string) error {
	return NewInvalidInput(FieldError{Field: field, Message: message})
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	type feIface interface{ Fields() []FieldError }
	var v feIface
	if errors.As(err, &v) && errors.Is(err, ErrInvalidInput) {
		return v.Fields()
	}
	return nil
}

// AuthService issues and resolves API tokens.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, user model.User) error
	// Authenticate resolves a token to its user; unknown tokens yield ErrUnauthorized.
	Authenticate(ctx context.Context, token string) (model.User, error)
}

// UserService covers accounts, avatars and subscriptions. A nil viewer is an
// anonymous request.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (model.UserResponse, error)
	Get(ctx context.Context, viewer *model.User, id int64) (model.UserResponse, error)
	List(ctx context.Context, viewer *model.User, q pagination.Query) (pagination.Envelope[model.UserResponse], error)
	SetPassword(ctx context.Context, user model.User, in SetPasswordInput) error
	SetAvatar(ctx context.Context, user model.User, in AvatarInput) (string, error)
	DeleteAvatar(ctx context.Context, user model.User) error
	Subscriptions(ctx context.Context, user model.User, q pagination.Query, recipesLimit int) (pagination.Envelope[model.UserWithRecipes], error)
	Subscribe(ctx context.Context, user model.User, authorID int64, recipesLimit int) (model.UserWithRecipes, error)
	Unsubscribe(ctx context.Context, user model.User, authorID int64) error
}

// TagService defines tag use cases.
type TagService interface {
	Create(ctx context.Context, in TagInput) (model.Tag, error)
	Get(ctx context.Context, id int64) (model.Tag, error)
	List(ctx context.Context) ([]model.Tag, error)
}

// IngredientService defines ingredient catalogue use cases.
type IngredientService interface {
	Create(ctx context.Context, in IngredientInput) (model.Ingredient, error)
	Get(ctx context.Context, id int64) (model.Ingredient, error)
	Search(ctx context.Context, name string, q pagination.Query) (pagination.Envelope[model.Ingredient], error)
}

// RecipeService defines recipe use cases. A nil viewer is an anonymous request.
type RecipeService interface {
	List(ctx context.Context, viewer *model.User, f RecipeListFilter, q pagination.Query) (pagination.Envelope[model.RecipeResponse], error)
	Create(ctx context.Context, author model.User, in RecipeInput) (model.RecipeResponse, error)
	Get(ctx context.Context, viewer *model.User, id int64) (model.RecipeResponse, error)
	Update(ctx context.Context, user model.User, id int64, in RecipeInput) (model.RecipeResponse, error)
	Delete(ctx context.Context, user model.User, id int64) error
	AddTo(ctx context.Context, c model.Collection, user model.User, id int64) (model.RecipeShort, error)
	RemoveFrom(ctx context.Context, c model.Collection, user model.User, id int64) error
	ShoppingList(ctx context.Context, user model.User) ([]model.ShoppingItem, error)
}
