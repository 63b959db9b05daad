// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"petitpress/internal/models"
)

// CommentStore handles comment database operations.
type CommentStore struct {
	db *sql.DB
}

// NewCommentStore creates a new CommentStore with the given database connection.
func NewCommentStore(db *sql.DB) *CommentStore {
	return &CommentStore{db: db}
}

// Create inserts a new comment. Comments always start unapproved and become
// visible only after moderation.
func (s *CommentStore) Create(articleID uuid.UUID, authorName, authorEmail, body string) (*models.Comment, error) {
	var c models.Comment
	err := s.db.QueryRow(`
		INSERT INTO comments (article_id, author_name, author_email, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, article_id, author_name, author_email, body, approved, created_at
	`, articleID, authorName, authorEmail, body).Scan(
		&c.ID, &c.ArticleID, &c.AuthorName, &c.AuthorEmail, &c.Body, &c.Approved, &c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return &c, nil
}

// FindByID returns a comment by ID, or nil if not found.
func (s *CommentStore) FindByID(id uuid.UUID) (*models.Comment, error) {
	var c models.Comment
	err := s.db.QueryRow(`
		SELECT id, article_id, author_name, author_email, body, approved, created_at
		FROM comments
		WHERE id = $1
	`, id).Scan(&c.ID, &c.ArticleID, &c.AuthorName, &c.AuthorEmail, &c.Body, &c.Approved, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find comment: %w", err)
	}
	return &c, nil
}

// ListApproved returns the approved comments for an article, oldest first.
func (s *CommentStore) ListApproved(articleID uuid.UUID) ([]models.Comment, error) {
	rows, err := s.db.Query(`
		SELECT id, article_id, author_name, author_email, body, approved, created_at
		FROM comments
		WHERE article_id = $1 AND approved = TRUE
		ORDER BY created_at
	`, articleID)
	if err != nil {
		return nil, fmt.Errorf("list approved comments: %w", err)
	}
	defer rows.Close()

	var items []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.ArticleID, &c.AuthorName, &c.AuthorEmail, &c.Body, &c.Approved, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// ListPending returns unapproved comments across all articles, newest first,
// with the article title attached for the moderation queue.
func (s *CommentStore) ListPending() ([]models.Comment, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.article_id, c.author_name, c.author_email, c.body, c.approved, c.created_at,
		       a.title
		FROM comments c
		JOIN articles a ON a.id = c.article_id
		WHERE c.approved = FALSE
		ORDER BY c.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list pending comments: %w", err)
	}
	defer rows.Close()

	var items []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.ArticleID, &c.AuthorName, &c.AuthorEmail, &c.Body, &c.Approved, &c.CreatedAt, &c.ArticleTitle); err != nil {
			return nil, fmt.Errorf("scan pending comment: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// CountApproved returns the number of approved comments for an article.
func (s *CommentStore) CountApproved(articleID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM comments WHERE article_id = $1 AND approved = TRUE
	`, articleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return count, nil
}

// CountPending returns the number of comments awaiting moderation.
func (s *CommentStore) CountPending() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM comments WHERE approved = FALSE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending comments: %w", err)
	}
	return count, nil
}

// Approve marks a comment as approved.
func (s *CommentStore) Approve(id uuid.UUID) error {
	_, err := s.db.Exec(`UPDATE comments SET approved = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("approve comment: %w", err)
	}
	return nil
}

// Delete removes a comment. Rejecting a pending comment deletes it.
func (s *CommentStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
