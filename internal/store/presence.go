package store

import (
	"database/sql"
	"fmt"
)

// presence manages a (user_id, recipe_id) table whose rows only record that
// a pair exists.
type presence struct {
	db    *sql.DB
	table string
}

func (p presence) add(userID, recipeID int64) error {
	_, err := p.db.Exec(`INSERT INTO `+p.table+` (user_id, recipe_id) VALUES (?, ?)`, userID, recipeID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert into %s: %w", p.table, err)
	}
	return nil
}

func (p presence) remove(userID, recipeID int64) (bool, error) {
	result, err := p.db.Exec(`DELETE FROM `+p.table+` WHERE user_id = ? AND recipe_id = ?`, userID, recipeID)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", p.table, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (p presence) exists(userID, recipeID int64) (bool, error) {
	var ok bool
	err := p.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM `+p.table+` WHERE user_id = ? AND recipe_id = ?)`,
		userID, recipeID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", p.table, err)
	}
	return ok, nil
}

// FavoriteStore records which recipes a user has favorited.
type FavoriteStore struct {
	p presence
}

func NewFavoriteStore(db *sql.DB) *FavoriteStore {
	return &FavoriteStore{p: presence{db: db, table: "favorites"}}
}

// Add returns ErrAlreadyExists if the recipe is already a favorite.
func (s *FavoriteStore) Add(userID, recipeID int64) error { return s.p.add(userID, recipeID) }

// Remove reports whether a favorite was deleted.
func (s *FavoriteStore) Remove(userID, recipeID int64) (bool, error) {
	return s.p.remove(userID, recipeID)
}

func (s *FavoriteStore) Exists(userID, recipeID int64) (bool, error) {
	return s.p.exists(userID, recipeID)
}
