// Package model contains domain entities and DTOs used across layers.
// I keep it lean and focused on data shapes without behavior.
package model

import "time"

// User is a registered account. Password holds the bcrypt hash, never the secret.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Avatar    *string   `json:"avatar"`
	CreatedAt time.Time `json:"-"`
}

// AuthToken is the opaque bearer token issued on login; one per user.
type AuthToken struct {
	ID        int64
	Token     string
	UserID    int64
	CreatedAt time.Time
}

// Tag labels recipes; slug is unique and URL-safe.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Ingredient is a catalogue entry referenced by recipes.
type Ingredient struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// Recipe is the stored recipe row; tags and ingredients live in link tables.
type Recipe struct {
	ID          int64
	AuthorID    int64
	Name        string
	Image       *string
	Text        string
	CookingTime int
	CreatedAt   time.Time
}

// RecipeIngredient is one ingredient line of a recipe. Name and unit are
// filled on reads; writes only need IngredientID and Amount.
type RecipeIngredient struct {
	IngredientID    int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// Collection names a per-user recipe list.
type Collection string

const (
	Favorites    Collection = "favorites"
	ShoppingCart Collection = "shopping_cart"
)

// ShoppingItem is one aggregated line of the downloadable shopping list.
type ShoppingItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}
