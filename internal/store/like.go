// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// LikeStore handles article like operations. Uniqueness per subscriber and
// article is enforced by the composite primary key on the likes table.
type LikeStore struct {
	db *sql.DB
}

// NewLikeStore creates a new LikeStore with the given database connection.
func NewLikeStore(db *sql.DB) *LikeStore {
	return &LikeStore{db: db}
}

// Add records a like. Returns true if the like was created, false if the
// subscriber had already liked the article.
func (s *LikeStore) Add(articleID, subscriberID uuid.UUID) (bool, error) {
	result, err := s.db.Exec(`
		INSERT INTO likes (article_id, subscriber_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, articleID, subscriberID)
	if err != nil {
		return false, fmt.Errorf("add like: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add like result: %w", err)
	}
	return affected > 0, nil
}

// Remove deletes a like. Returns true if a like existed.
func (s *LikeStore) Remove(articleID, subscriberID uuid.UUID) (bool, error) {
	result, err := s.db.Exec(`
		DELETE FROM likes WHERE article_id = $1 AND subscriber_id = $2
	`, articleID, subscriberID)
	if err != nil {
		return false, fmt.Errorf("remove like: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove like result: %w", err)
	}
	return affected > 0, nil
}

// Has reports whether the subscriber has liked the article.
func (s *LikeStore) Has(articleID, subscriberID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM likes WHERE article_id = $1 AND subscriber_id = $2)
	`, articleID, subscriberID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return exists, nil
}

// Count returns the number of likes on an article.
func (s *LikeStore) Count(articleID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM likes WHERE article_id = $1`, articleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}
