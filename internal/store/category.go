// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"petitpress/internal/models"
	"petitpress/internal/slug"
)

// CategoryStore handles category database operations.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore creates a new CategoryStore with the given database connection.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// List returns all categories ordered by name, with the count of published
// articles assigned to each.
func (s *CategoryStore) List() ([]models.Category, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.name, c.slug, c.created_at, c.updated_at,
		       COUNT(a.id) FILTER (WHERE a.status = 'published')
		FROM categories c
		LEFT JOIN article_categories ac ON ac.category_id = c.id
		LEFT JOIN articles a ON a.id = ac.article_id
		GROUP BY c.id
		ORDER BY c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt, &c.ArticleCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// FindBySlug retrieves a category by its slug. Returns nil if not found.
func (s *CategoryStore) FindBySlug(categorySlug string) (*models.Category, error) {
	var c models.Category
	err := s.db.QueryRow(`
		SELECT id, name, slug, created_at, updated_at FROM categories WHERE slug = $1
	`, categorySlug).Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	return &c, nil
}

// ForArticle returns the categories assigned to an article.
func (s *CategoryStore) ForArticle(articleID uuid.UUID) ([]models.Category, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.name, c.slug, c.created_at, c.updated_at
		FROM categories c
		JOIN article_categories ac ON ac.category_id = c.id
		WHERE ac.article_id = $1
		ORDER BY c.name
	`, articleID)
	if err != nil {
		return nil, fmt.Errorf("categories for article: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// Create inserts a new category. The slug is derived from the name and
// disambiguated with a numeric suffix on collision.
func (s *CategoryStore) Create(name string) (*models.Category, error) {
	var probeErr error
	unique := slug.Unique(slug.Generate(name), func(candidate string) bool {
		if probeErr != nil {
			return false
		}
		var exists bool
		if err := s.db.QueryRow(`
			SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1)
		`, candidate).Scan(&exists); err != nil {
			probeErr = err
			return false
		}
		return exists
	})
	if probeErr != nil {
		return nil, fmt.Errorf("check category slug: %w", probeErr)
	}

	var c models.Category
	err := s.db.QueryRow(`
		INSERT INTO categories (name, slug) VALUES ($1, $2)
		RETURNING id, name, slug, created_at, updated_at
	`, name, unique).Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

// Rename updates a category's name, keeping the existing slug stable so
// published links do not break.
func (s *CategoryStore) Rename(id uuid.UUID, name string) error {
	_, err := s.db.Exec(`
		UPDATE categories SET name = $1, updated_at = NOW() WHERE id = $2
	`, name, id)
	if err != nil {
		return fmt.Errorf("rename category: %w", err)
	}
	return nil
}

// Delete removes a category. Article assignments cascade.
func (s *CategoryStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
