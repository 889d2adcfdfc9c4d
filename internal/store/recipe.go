package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/foodgram/internal/model"
)

type RecipeStore struct {
	db *sql.DB
}

func NewRecipeStore(db *sql.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

func scanRecipe(s scanner) (*model.Recipe, error) {
	var r model.Recipe
	err := s.Scan(&r.ID, &r.AuthorID, &r.Name, &r.Image, &r.Text, &r.CookingTime, &r.PubDate)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const recipeCols = `r.id, r.author_id, r.name, r.image, r.text, r.cooking_time, r.pub_date`

// Create inserts a recipe together with its tags and ingredient lines in one
// transaction. Callers validate the fields first; constraint failures here
// leave nothing behind.
func (s *RecipeStore) Create(authorID int64, f model.RecipeFields) (*model.Recipe, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO recipes (author_id, name, image, text, cooking_time) VALUES (?, ?, ?, ?, ?)`,
		authorID, f.Name, f.Image, f.Text, f.CookingTime,
	)
	if err != nil {
		return nil, fmt.Errorf("insert recipe: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := insertTags(tx, id, f.TagIDs); err != nil {
		return nil, err
	}
	if err := insertIngredientLines(tx, id, f.Ingredients); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// Update applies p to the recipe in one transaction. A non-nil TagIDs or
// Ingredients clears the existing association before inserting the new one.
func (s *RecipeStore) Update(id int64, p model.RecipePatch) (*model.Recipe, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var sets []string
	var args []any
	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Image != nil {
		sets = append(sets, "image = ?")
		args = append(args, *p.Image)
	}
	if p.Text != nil {
		sets = append(sets, "text = ?")
		args = append(args, *p.Text)
	}
	if p.CookingTime != nil {
		sets = append(sets, "cooking_time = ?")
		args = append(args, *p.CookingTime)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := tx.Exec(`UPDATE recipes SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
			return nil, fmt.Errorf("update recipe: %w", err)
		}
	}

	if p.TagIDs != nil {
		if _, err := tx.Exec(`DELETE FROM recipe_tags WHERE recipe_id = ?`, id); err != nil {
			return nil, fmt.Errorf("clear recipe tags: %w", err)
		}
		if err := insertTags(tx, id, p.TagIDs); err != nil {
			return nil, err
		}
	}

	if p.Ingredients != nil {
		if _, err := tx.Exec(`DELETE FROM recipe_ingredients WHERE recipe_id = ?`, id); err != nil {
			return nil, fmt.Errorf("clear recipe ingredients: %w", err)
		}
		if err := insertIngredientLines(tx, id, p.Ingredients); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func insertTags(tx *sql.Tx, recipeID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare tag insert: %w", err)
	}
	defer stmt.Close()

	for _, tagID := range tagIDs {
		if _, err := stmt.Exec(recipeID, tagID); err != nil {
			return fmt.Errorf("insert recipe tag %d: %w", tagID, err)
		}
	}
	return nil
}

func insertIngredientLines(tx *sql.Tx, recipeID int64, lines []model.IngredientAmount) error {
	if len(lines) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare ingredient insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range lines {
		if _, err := stmt.Exec(recipeID, l.IngredientID, l.Amount); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("insert ingredient %d: %w", l.IngredientID, ErrAlreadyExists)
			}
			return fmt.Errorf("insert ingredient %d: %w", l.IngredientID, err)
		}
	}
	return nil
}

// GetByID returns the recipe with tags and ingredient lines, or nil.
func (s *RecipeStore) GetByID(id int64) (*model.Recipe, error) {
	r, err := scanRecipe(s.db.QueryRow(`SELECT `+recipeCols+` FROM recipes r WHERE r.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	recipes := []model.Recipe{*r}
	if err := s.loadRelations(recipes); err != nil {
		return nil, err
	}
	return &recipes[0], nil
}

// AuthorID returns the author of a recipe, or 0 if it does not exist.
func (s *RecipeStore) AuthorID(id int64) (int64, error) {
	var authorID int64
	err := s.db.QueryRow(`SELECT author_id FROM recipes WHERE id = ?`, id).Scan(&authorID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get recipe author: %w", err)
	}
	return authorID, nil
}

func filterClause(f model.RecipeFilter) (string, []any) {
	var where []string
	var args []any
	if f.AuthorID != 0 {
		where = append(where, "r.author_id = ?")
		args = append(args, f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		where = append(where, `r.id IN (
			SELECT rt.recipe_id FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE t.slug IN (`+placeholders(len(f.TagSlugs))+`))`)
		for _, slug := range f.TagSlugs {
			args = append(args, slug)
		}
	}
	if f.FavoritedBy != 0 {
		where = append(where, "r.id IN (SELECT recipe_id FROM favorites WHERE user_id = ?)")
		args = append(args, f.FavoritedBy)
	}
	if f.InCartOf != 0 {
		where = append(where, "r.id IN (SELECT recipe_id FROM shopping_cart WHERE user_id = ?)")
		args = append(args, f.InCartOf)
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// List returns recipes matching f, newest first. A zero Limit returns all.
func (s *RecipeStore) List(f model.RecipeFilter) ([]model.Recipe, error) {
	where, args := filterClause(f)
	query := `SELECT ` + recipeCols + ` FROM recipes r` + where + ` ORDER BY r.pub_date DESC, r.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []model.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadRelations(recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// Count returns how many recipes match f, ignoring Limit and Offset.
func (s *RecipeStore) Count(f model.RecipeFilter) (int, error) {
	where, args := filterClause(f)
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM recipes r`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count recipes: %w", err)
	}
	return n, nil
}

func (s *RecipeStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return nil
}

// loadRelations fills Tags and Ingredients of every recipe in place.
func (s *RecipeStore) loadRelations(recipes []model.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	ids := make([]int64, len(recipes))
	index := make(map[int64]int, len(recipes))
	for i := range recipes {
		ids[i] = recipes[i].ID
		index[recipes[i].ID] = i
		recipes[i].Tags = []model.Tag{}
		recipes[i].Ingredients = []model.RecipeIngredient{}
	}
	in := placeholders(len(ids))

	tagRows, err := s.db.Query(
		`SELECT rt.recipe_id, t.id, t.name, t.color, t.slug
		 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
		 WHERE rt.recipe_id IN (`+in+`)
		 ORDER BY t.name ASC`,
		int64Args(ids)...,
	)
	if err != nil {
		return fmt.Errorf("query recipe tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var recipeID int64
		var t model.Tag
		if err := tagRows.Scan(&recipeID, &t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			return fmt.Errorf("scan recipe tag: %w", err)
		}
		r := &recipes[index[recipeID]]
		r.Tags = append(r.Tags, t)
	}
	if err := tagRows.Err(); err != nil {
		return err
	}

	lineRows, err := s.db.Query(
		`SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		 FROM recipe_ingredients ri JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id IN (`+in+`)
		 ORDER BY ri.id ASC`,
		int64Args(ids)...,
	)
	if err != nil {
		return fmt.Errorf("query recipe ingredients: %w", err)
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var recipeID int64
		var l model.RecipeIngredient
		if err := lineRows.Scan(&recipeID, &l.ID, &l.Name, &l.MeasurementUnit, &l.Amount); err != nil {
			return fmt.Errorf("scan recipe ingredient: %w", err)
		}
		r := &recipes[index[recipeID]]
		r.Ingredients = append(r.Ingredients, l)
	}
	return lineRows.Err()
}
