package service

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,max=254,email"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,max=150"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SetPasswordInput struct {
	NewPassword     string `json:"new_password" validate:"required,max=150"`
	CurrentPassword string `json:"current_password" validate:"required,max=150"`
}

// AvatarInput carries the avatar as a data URI (data:image/png;base64,...).
type AvatarInput struct {
	Avatar string `json:"avatar" validate:"required,datauri"`
}

// TagInput creates a tag; an empty slug is derived from the name.
type TagInput struct {
	Name string `json:"name" validate:"required,max=32"`
	Slug string `json:"slug" validate:"max=32"`
}

type IngredientInput struct {
	Name            string `json:"name" validate:"required,max=128"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=64"`
}

type IngredientAmount struct {
	ID     int64 `json:"id" validate:"gt=0"`
	Amount int   `json:"amount" validate:"min=1,max=1000"`
}

// RecipeInput is used for both create and full update.
type RecipeInput struct {
	Name        string             `json:"name" validate:"required,max=256"`
	Image       *string            `json:"image"`
	Text        string             `json:"text" validate:"required,max=1000"`
	CookingTime int                `json:"cooking_time" validate:"min=1,max=1000"`
	Tags        []int64            `json:"tags" validate:"required,min=1,unique,dive,gt=0"`
	Ingredients []IngredientAmount `json:"ingredients" validate:"required,min=1,dive"`
}

// RecipeListFilter holds the query filters of the recipe listing.
type RecipeListFilter struct {
	AuthorID         *int64
	Tags             []string
	IsFavorited      bool
	IsInShoppingCart bool
}
