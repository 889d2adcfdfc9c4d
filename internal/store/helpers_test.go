package store

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/dukerupert/foodgram/internal/database"
	"github.com/dukerupert/foodgram/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustUser(t *testing.T, db *sql.DB, username string) *model.User {
	t.Helper()
	u, err := NewUserStore(db).Create(username+"@example.com", username, "First", "Last", "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func mustTag(t *testing.T, db *sql.DB, slug string) *model.Tag {
	t.Helper()
	tag, err := NewTagStore(db).Create("Tag "+slug, "#"+slug, slug)
	if err != nil {
		t.Fatalf("create tag %s: %v", slug, err)
	}
	return tag
}

func mustIngredient(t *testing.T, db *sql.DB, name, unit string) *model.Ingredient {
	t.Helper()
	i, err := NewIngredientStore(db).Create(name, unit)
	if err != nil {
		t.Fatalf("create ingredient %s/%s: %v", name, unit, err)
	}
	return i
}

var recipeSeq int

func mustRecipe(t *testing.T, db *sql.DB, authorID int64, tagIDs []int64, lines ...model.IngredientAmount) *model.Recipe {
	t.Helper()
	recipeSeq++
	r, err := NewRecipeStore(db).Create(authorID, model.RecipeFields{
		Name:        fmt.Sprintf("Recipe %d", recipeSeq),
		Image:       "recipes/images/x.png",
		Text:        "Mix and cook.",
		CookingTime: 10,
		TagIDs:      tagIDs,
		Ingredients: lines,
	})
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	return r
}
