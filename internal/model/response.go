package model

// UserResponse is the public view of a user as seen by the requester.
type UserResponse struct {
	ID           int64   `json:"id"`
	Email        string  `json:"email"`
	Username     string  `json:"username"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Avatar       *string `json:"avatar"`
	IsSubscribed bool    `json:"is_subscribed"`
}

// RecipeShort is the compact recipe view used in collections and subscriptions.
type RecipeShort struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Image       *string `json:"image"`
	CookingTime int     `json:"cooking_time"`
}

// RecipeResponse is the full recipe view with requester-specific flags.
type RecipeResponse struct {
	ID               int64              `json:"id"`
	Tags             []Tag              `json:"tags"`
	Author           UserResponse       `json:"author"`
	Ingredients      []RecipeIngredient `json:"ingredients"`
	Name             string             `json:"name"`
	Image            *string            `json:"image"`
	Text             string             `json:"text"`
	CookingTime      int                `json:"cooking_time"`
	IsFavorited      bool               `json:"is_favorited"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart"`
}

// UserWithRecipes is a followed author together with a preview of their recipes.
type UserWithRecipes struct {
	UserResponse
	Recipes      []RecipeShort `json:"recipes"`
	RecipesCount int           `json:"recipes_count"`
}

// RecipeFlags are the requester-relative facts attached to a recipe view.
type RecipeFlags struct {
	AuthorSubscribed bool
	Favorited        bool
	InShoppingCart   bool
}

func NewUserResponse(u User, subscribed bool) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Avatar:       u.Avatar,
		IsSubscribed: subscribed,
	}
}

func NewRecipeShort(r Recipe) RecipeShort {
	return RecipeShort{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

// NewRecipeResponse assembles the full view; nil slices become empty arrays on the wire.
func NewRecipeResponse(r Recipe, author User, tags []Tag, ingredients []RecipeIngredient, f RecipeFlags) RecipeResponse {
	if tags == nil {
		tags = []Tag{}
	}
	if ingredients == nil {
		ingredients = []RecipeIngredient{}
	}
	return RecipeResponse{
		ID:               r.ID,
		Tags:             tags,
		Author:           NewUserResponse(author, f.AuthorSubscribed),
		Ingredients:      ingredients,
		Name:             r.Name,
		Image:            r.Image,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
		IsFavorited:      f.Favorited,
		IsInShoppingCart: f.InShoppingCart,
	}
}

func NewUserWithRecipes(u User, subscribed bool, recipes []Recipe, total int) UserWithRecipes {
	shorts := make([]RecipeShort, 0, len(recipes))
	for _, r := range recipes {
		shorts = append(shorts, NewRecipeShort(r))
	}
	return UserWithRecipes{
		UserResponse: NewUserResponse(u, subscribed),
		Recipes:      shorts,
		RecipesCount: total,
	}
}
