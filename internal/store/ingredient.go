package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/foodgram/internal/model"
)

type IngredientStore struct {
	db *sql.DB
}

func NewIngredientStore(db *sql.DB) *IngredientStore {
	return &IngredientStore{db: db}
}

func scanIngredient(s scanner) (*model.Ingredient, error) {
	var i model.Ingredient
	if err := s.Scan(&i.ID, &i.Name, &i.MeasurementUnit); err != nil {
		return nil, err
	}
	return &i, nil
}

const ingredientCols = `id, name, measurement_unit`

// Create inserts an ingredient. The (name, measurement_unit) pair is unique.
func (s *IngredientStore) Create(name, measurementUnit string) (*model.Ingredient, error) {
	result, err := s.db.Exec(
		`INSERT INTO ingredients (name, measurement_unit) VALUES (?, ?)`,
		name, measurementUnit,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert ingredient: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *IngredientStore) GetByID(id int64) (*model.Ingredient, error) {
	i, err := scanIngredient(s.db.QueryRow(`SELECT `+ingredientCols+` FROM ingredients WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	return i, nil
}

// Search lists ingredients whose name starts with prefix, ignoring case.
// An empty prefix lists everything. Matching happens in Go because SQLite's
// lower() only folds ASCII.
func (s *IngredientStore) Search(prefix string) ([]model.Ingredient, error) {
	rows, err := s.db.Query(`SELECT ` + ingredientCols + ` FROM ingredients ORDER BY name ASC, measurement_unit ASC`)
	if err != nil {
		return nil, fmt.Errorf("search ingredients: %w", err)
	}
	defer rows.Close()

	prefix = strings.ToLower(prefix)
	var ingredients []model.Ingredient
	for rows.Next() {
		i, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		if prefix != "" && !strings.HasPrefix(strings.ToLower(i.Name), prefix) {
			continue
		}
		ingredients = append(ingredients, *i)
	}
	return ingredients, rows.Err()
}

// MissingIDs returns the ids in ids that have no ingredient row, in input order.
func (s *IngredientStore) MissingIDs(ids []int64) ([]int64, error) {
	return missingIDs(s.db, "ingredients", ids)
}
