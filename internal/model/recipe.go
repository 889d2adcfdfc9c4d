package model

import "time"

type Tag struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type Ingredient struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// RecipeIngredient is one ingredient line of a recipe, joined with the
// ingredient it references.
type RecipeIngredient struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type Recipe struct {
	ID          int64              `json:"id"`
	AuthorID    int64              `json:"author_id"`
	Name        string             `json:"name"`
	Image       string             `json:"image"`
	Text        string             `json:"text"`
	CookingTime int                `json:"cooking_time"`
	PubDate     time.Time          `json:"pub_date"`
	Tags        []Tag              `json:"tags"`
	Ingredients []RecipeIngredient `json:"ingredients"`
}

// IngredientAmount references an ingredient by id with the amount a recipe
// needs of it.
type IngredientAmount struct {
	IngredientID int64 `json:"id"`
	Amount       int   `json:"amount"`
}

// RecipeFields is a full set of recipe columns for insertion.
type RecipeFields struct {
	Name        string
	Image       string
	Text        string
	CookingTime int
	TagIDs      []int64
	Ingredients []IngredientAmount
}

// RecipePatch holds the mutable recipe fields. Nil fields are left untouched;
// non-nil TagIDs or Ingredients replace the whole association.
type RecipePatch struct {
	Name        *string
	Image       *string
	Text        *string
	CookingTime *int
	TagIDs      []int64
	Ingredients []IngredientAmount
}

// RecipeFilter narrows a recipe listing. Zero values disable a filter.
type RecipeFilter struct {
	AuthorID    int64
	TagSlugs    []string
	FavoritedBy int64
	InCartOf    int64
	Limit       int
	Offset      int
}
