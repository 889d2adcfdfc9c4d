package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/foodgram/internal/model"
)

// CartStore records which recipes a user has put in the shopping cart.
type CartStore struct {
	db *sql.DB
	p  presence
}

func NewCartStore(db *sql.DB) *CartStore {
	return &CartStore{db: db, p: presence{db: db, table: "shopping_cart"}}
}

// Add returns ErrAlreadyExists if the recipe is already in the cart.
func (s *CartStore) Add(userID, recipeID int64) error { return s.p.add(userID, recipeID) }

// Remove reports whether a cart entry was deleted.
func (s *CartStore) Remove(userID, recipeID int64) (bool, error) {
	return s.p.remove(userID, recipeID)
}

func (s *CartStore) Exists(userID, recipeID int64) (bool, error) {
	return s.p.exists(userID, recipeID)
}

// ListLines returns every ingredient line of every recipe in the user's cart.
func (s *CartStore) ListLines(userID int64) ([]model.CartLine, error) {
	rows, err := s.db.Query(
		`SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		 FROM shopping_cart sc
		 JOIN recipe_ingredients ri ON ri.recipe_id = sc.recipe_id
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE sc.user_id = ?
		 ORDER BY ri.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	defer rows.Close()

	var lines []model.CartLine
	for rows.Next() {
		var l model.CartLine
		if err := rows.Scan(&l.RecipeID, &l.IngredientID, &l.Name, &l.MeasurementUnit, &l.Amount); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
