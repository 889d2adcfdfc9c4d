package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/foodgram/internal/model"
)

type TagStore struct {
	db *sql.DB
}

func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

func scanTag(s scanner) (*model.Tag, error) {
	var t model.Tag
	if err := s.Scan(&t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
		return nil, err
	}
	return &t, nil
}

const tagCols = `id, name, color, slug`

func (s *TagStore) Create(name, color, slug string) (*model.Tag, error) {
	result, err := s.db.Exec(`INSERT INTO tags (name, color, slug) VALUES (?, ?, ?)`, name, color, slug)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TagStore) GetByID(id int64) (*model.Tag, error) {
	t, err := scanTag(s.db.QueryRow(`SELECT `+tagCols+` FROM tags WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return t, nil
}

func (s *TagStore) List() ([]model.Tag, error) {
	rows, err := s.db.Query(`SELECT ` + tagCols + ` FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}

// MissingIDs returns the ids in ids that have no tag row, in input order.
func (s *TagStore) MissingIDs(ids []int64) ([]int64, error) {
	return missingIDs(s.db, "tags", ids)
}

// missingIDs reports which ids are absent from table.
func missingIDs(db *sql.DB, table string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.Query(
		`SELECT id FROM `+table+` WHERE id IN (`+placeholders(len(ids))+`)`,
		int64Args(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("query %s ids: %w", table, err)
	}
	defer rows.Close()

	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s id: %w", table, err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []int64
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
