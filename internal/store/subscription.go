package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/foodgram/internal/model"
)

type SubscriptionStore struct {
	db *sql.DB
}

func NewSubscriptionStore(db *sql.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

// Add subscribes userID to authorID. Returns ErrAlreadyExists on a duplicate.
func (s *SubscriptionStore) Add(userID, authorID int64) error {
	_, err := s.db.Exec(`INSERT INTO subscriptions (user_id, author_id) VALUES (?, ?)`, userID, authorID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// Remove reports whether a subscription was deleted.
func (s *SubscriptionStore) Remove(userID, authorID int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM subscriptions WHERE user_id = ? AND author_id = ?`, userID, authorID)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *SubscriptionStore) Exists(userID, authorID int64) (bool, error) {
	var ok bool
	err := s.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM subscriptions WHERE user_id = ? AND author_id = ?)`,
		userID, authorID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}
	return ok, nil
}

// ListAuthors returns the authors userID follows, ordered by author id.
func (s *SubscriptionStore) ListAuthors(userID int64, limit, offset int) ([]model.User, error) {
	rows, err := s.db.Query(
		`SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.avatar, u.is_staff, u.created_at
		 FROM subscriptions sub JOIN users u ON u.id = sub.author_id
		 WHERE sub.user_id = ?
		 ORDER BY u.id ASC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var authors []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, *u)
	}
	return authors, rows.Err()
}

func (s *SubscriptionStore) CountAuthors(userID int64) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM subscriptions WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}
	return n, nil
}
