package store

import (
	"errors"
	"testing"

	"github.com/dukerupert/foodgram/internal/model"
)

func TestRecipeCreateComposition(t *testing.T) {
	db := setupTestDB(t)
	author := mustUser(t, db, "chef")
	lunch := mustTag(t, db, "lunch")
	dinner := mustTag(t, db, "dinner")
	salt := mustIngredient(t, db, "Salt", "g")
	rice := mustIngredient(t, db, "Rice", "g")

	rs := NewRecipeStore(db)
	r, err := rs.Create(author.ID, model.RecipeFields{
		Name:        "Plov",
		Image:       "recipes/images/plov.jpg",
		Text:        "Cook rice.",
		CookingTime: 90,
		TagIDs:      []int64{lunch.ID, dinner.ID, lunch.ID},
		Ingredients: []model.IngredientAmount{
			{IngredientID: rice.ID, Amount: 500},
			{IngredientID: salt.ID, Amount: 5},
		},
	})
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	if r.AuthorID != author.ID {
		t.Errorf("author_id = %d, want %d", r.AuthorID, author.ID)
	}
	if r.CookingTime != 90 {
		t.Errorf("cooking_time = %d, want 90", r.CookingTime)
	}
	if len(r.Tags) != 2 {
		t.Errorf("expected 2 tags (duplicates collapsed), got %d", len(r.Tags))
	}
	if len(r.Ingredients) != 2 {
		t.Fatalf("expected 2 ingredient lines, got %d", len(r.Ingredients))
	}
	if r.Ingredients[0].ID != rice.ID || r.Ingredients[0].Amount != 500 {
		t.Errorf("line[0] = %+v, want rice x500", r.Ingredients[0])
	}
	if r.Ingredients[1].Name != "Salt" || r.Ingredients[1].MeasurementUnit != "g" || r.Ingredients[1].Amount != 5 {
		t.Errorf("line[1] = %+v, want Salt g x5", r.Ingredients[1])
	}
}

func TestRecipeCreateRollsBackOnDuplicateIngredient(t *testing.T) {
	db := setupTestDB(t)
	author := mustUser(t, db, "chef")
	salt := mustIngredient(t, db, "Salt", "g")

	rs := NewRecipeStore(db)
	_, err := rs.Create(author.ID, model.RecipeFields{
		Name: "Brine", Image: "x", Text: "t", CookingTime: 1,
		Ingredients: []model.IngredientAmount{
			{IngredientID: salt.ID, Amount: 1},
			{IngredientID: salt.ID, Amount: 2},
		},
	})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}

	n, err := rs.Count(model.RecipeFilter{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("recipes after failed create = %d, want 0", n)
	}
}

func TestRecipeCreateRollsBackOnUnknownIngredient(t *testing.T) {
	db := setupTestDB(t)
	author := mustUser(t, db, "chef")

	rs := NewRecipeStore(db)
	_, err := rs.Create(author.ID, model.RecipeFields{
		Name: "Ghost", Image: "x", Text: "t", CookingTime: 1,
		Ingredients: []model.IngredientAmount{{IngredientID: 404, Amount: 1}},
	})
	if err == nil {
		t.Fatal("expected foreign key error")
	}
	if n, _ := rs.Count(model.RecipeFilter{}); n != 0 {
		t.Errorf("recipes after failed create = %d, want 0", n)
	}
}

func TestRecipeUpdateReplacesIngredients(t *testing.T) {
	db := setupTestDB(t)
	author := mustUser(t, db, "chef")
	salt := mustIngredient(t, db, "Salt", "g")
	sugar := mustIngredient(t, db, "Sugar", "g")
	flour := mustIngredient(t, db, "Flour", "g")
	r := mustRecipe(t, db, author.ID, nil,
		model.IngredientAmount{IngredientID: salt.ID, Amount: 5},
		model.IngredientAmount{IngredientID: sugar.ID, Amount: 50},
	)

	rs := NewRecipeStore(db)
	updated, err := rs.Update(r.ID, model.RecipePatch{
		Ingredients: []model.IngredientAmount{
			{IngredientID: sugar.ID, Amount: 70},
			{IngredientID: flour.ID, Amount: 200},
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got := map[int64]int{}
	for _, l := range updated.Ingredients {
		got[l.ID] = l.Amount
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %v", got)
	}
	if _, ok := got[salt.ID]; ok {
		t.Error("salt should be removed by full replace")
	}
	if got[sugar.ID] != 70 {
		t.Errorf("sugar amount = %d, want 70", got[sugar.ID])
	}
	if got[flour.ID] != 200 {
		t.Errorf("flour amount = %d, want 200", got[flour.ID])
	}
	if updated.Name != r.Name {
		t.Errorf("name changed to %q without being patched", updated.Name)
	}
}

func TestRecipeUpdateScalarsKeepsAssociations(t *testing.T) {
	db := setupTestDB(t)
	author := mustUser(t, db, "chef")
	tag := mustTag(t, db, "lunch")
	salt := mustIngredient(t, db, "Salt", "g")
	r := mustRecipe(t, db, author.ID, []int64{tag.ID}, model.IngredientAmount{IngredientID: salt.ID, Amount: 5})

	name := "Renamed"
	cooking := 25
	updated, err := NewRecipeStore(db).Update(r.ID, model.RecipePatch{Name: &name, CookingTime: &cooking})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Renamed" || updated.CookingTime != 25 {
		t.Errorf("got name=%q cooking_time=%d", updated.Name, updated.CookingTime)
	}
	if updated.Text != r.Text || updated.Image != r.Image {
		t.Error("unpatched scalars should be unchanged")
	}
	if len(updated.Tags) != 1 || len(updated.Ingredients) != 1 {
		t.Errorf("associations changed: %d tags, %d lines", len(updated.Tags), len(updated.Ingredients))
	}
	if updated.AuthorID != author.ID {
		t.Error("author must never change")
	}
}

func TestRecipeUpdateReplacesTags(t *testing.T) {
	db := setupTestDB(t)
	author := mustUser(t, db, "chef")
	a := mustTag(t, db, "a")
	b := mustTag(t, db, "b")
	salt := mustIngredient(t, db, "Salt", "g")
	r := mustRecipe(t, db, author.ID, []int64{a.ID}, model.IngredientAmount{IngredientID: salt.ID, Amount: 1})

	updated, err := NewRecipeStore(db).Update(r.ID, model.RecipePatch{TagIDs: []int64{b.ID}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.Tags) != 1 || updated.Tags[0].ID != b.ID {
		t.Errorf("tags = %+v, want only b", updated.Tags)
	}
}

func TestRecipeListFilters(t *testing.T) {
	db := setupTestDB(t)
	alice := mustUser(t, db, "alice")
	bob := mustUser(t, db, "bob")
	lunch := mustTag(t, db, "lunch")
	dinner := mustTag(t, db, "dinner")
	salt := mustIngredient(t, db, "Salt", "g")
	line := model.IngredientAmount{IngredientID: salt.ID, Amount: 1}

	r1 := mustRecipe(t, db, alice.ID, []int64{lunch.ID}, line)
	r2 := mustRecipe(t, db, alice.ID, []int64{dinner.ID}, line)
	r3 := mustRecipe(t, db, bob.ID, []int64{lunch.ID, dinner.ID}, line)

	NewFavoriteStore(db).Add(bob.ID, r1.ID)
	NewCartStore(db).Add(bob.ID, r2.ID)

	rs := NewRecipeStore(db)
	ids := func(f model.RecipeFilter) []int64 {
		t.Helper()
		list, err := rs.List(f)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		out := make([]int64, len(list))
		for i, r := range list {
			out[i] = r.ID
		}
		return out
	}

	if got := ids(model.RecipeFilter{}); len(got) != 3 || got[0] != r3.ID {
		t.Errorf("all = %v, want newest first starting with %d", got, r3.ID)
	}
	if got := ids(model.RecipeFilter{AuthorID: alice.ID}); len(got) != 2 {
		t.Errorf("by alice = %v, want 2 recipes", got)
	}
	if got := ids(model.RecipeFilter{TagSlugs: []string{"lunch"}}); len(got) != 2 {
		t.Errorf("lunch = %v, want 2 recipes", got)
	}
	if got := ids(model.RecipeFilter{TagSlugs: []string{"lunch", "dinner"}}); len(got) != 3 {
		t.Errorf("lunch or dinner = %v, want 3 recipes without duplicates", got)
	}
	if got := ids(model.RecipeFilter{FavoritedBy: bob.ID}); len(got) != 1 || got[0] != r1.ID {
		t.Errorf("favorited = %v, want [%d]", got, r1.ID)
	}
	if got := ids(model.RecipeFilter{InCartOf: bob.ID}); len(got) != 1 || got[0] != r2.ID {
		t.Errorf("in cart = %v, want [%d]", got, r2.ID)
	}
	if got := ids(model.RecipeFilter{Limit: 1, Offset: 1}); len(got) != 1 || got[0] != r2.ID {
		t.Errorf("page = %v, want [%d]", got, r2.ID)
	}

	n, err := rs.Count(model.RecipeFilter{AuthorID: alice.ID, Limit: 1})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("count ignores limit: got %d, want 2", n)
	}
}

func TestRecipeDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	author := mustUser(t, db, "chef")
	salt := mustIngredient(t, db, "Salt", "g")
	r := mustRecipe(t, db, author.ID, nil, model.IngredientAmount{IngredientID: salt.ID, Amount: 3})
	cs := NewCartStore(db)
	cs.Add(author.ID, r.ID)

	rs := NewRecipeStore(db)
	if err := rs.Delete(r.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := rs.GetByID(r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}

	var lines int
	db.QueryRow(`SELECT COUNT(*) FROM recipe_ingredients`).Scan(&lines)
	if lines != 0 {
		t.Errorf("ingredient lines after delete = %d, want 0", lines)
	}
	if ok, _ := cs.Exists(author.ID, r.ID); ok {
		t.Error("cart entry should cascade with recipe")
	}
}

func TestRecipeAuthorID(t *testing.T) {
	db := setupTestDB(t)
	author := mustUser(t, db, "chef")
	salt := mustIngredient(t, db, "Salt", "g")
	r := mustRecipe(t, db, author.ID, nil, model.IngredientAmount{IngredientID: salt.ID, Amount: 3})

	rs := NewRecipeStore(db)
	if id, err := rs.AuthorID(r.ID); err != nil || id != author.ID {
		t.Errorf("AuthorID = %d, %v; want %d", id, err, author.ID)
	}
	if id, err := rs.AuthorID(999); err != nil || id != 0 {
		t.Errorf("AuthorID(missing) = %d, %v; want 0, nil", id, err)
	}
}
