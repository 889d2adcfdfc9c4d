package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/dukerupert/foodgram/internal/model"
)

type TokenStore struct {
	db *sql.DB
}

func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db}
}

func scanToken(s scanner) (*model.AuthToken, error) {
	var t model.AuthToken
	err := s.Scan(&t.ID, &t.Key, &t.UserID, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const tokenCols = `id, key, user_id, created_at`

func generateKey() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GetOrCreate returns the user's token, issuing one if none exists.
func (s *TokenStore) GetOrCreate(userID int64) (*model.AuthToken, error) {
	row := s.db.QueryRow(`SELECT `+tokenCols+` FROM auth_tokens WHERE user_id = ?`, userID)
	t, err := scanToken(row)
	if err == nil {
		return t, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("get token by user: %w", err)
	}

	key, err := generateKey()
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(
		`INSERT INTO auth_tokens (key, user_id) VALUES (?, ?) ON CONFLICT(user_id) DO NOTHING`,
		key, userID,
	); err != nil {
		return nil, fmt.Errorf("insert token: %w", err)
	}

	// Re-read so a concurrent login that won the insert hands back the same key.
	row = s.db.QueryRow(`SELECT `+tokenCols+` FROM auth_tokens WHERE user_id = ?`, userID)
	t, err = scanToken(row)
	if err != nil {
		return nil, fmt.Errorf("get token by user: %w", err)
	}
	return t, nil
}

// GetByKey returns the token for key, or nil if it does not exist.
func (s *TokenStore) GetByKey(key string) (*model.AuthToken, error) {
	row := s.db.QueryRow(`SELECT `+tokenCols+` FROM auth_tokens WHERE key = ?`, key)
	t, err := scanToken(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token by key: %w", err)
	}
	return t, nil
}

func (s *TokenStore) DeleteByUser(userID int64) error {
	_, err := s.db.Exec(`DELETE FROM auth_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
