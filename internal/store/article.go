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

// ArticleStore handles all article-related database operations.
type ArticleStore struct {
	db *sql.DB
}

// NewArticleStore creates a new ArticleStore with the given database connection.
func NewArticleStore(db *sql.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

const articleColumns = `id, title, slug, summary, content, content_delta, status,
	showcase_image_id, author_id, featured, view_count,
	published_at, created_at, updated_at`

func scanArticle(scanner interface{ Scan(...any) error }) (*models.Article, error) {
	var a models.Article
	err := scanner.Scan(
		&a.ID, &a.Title, &a.Slug, &a.Summary, &a.Content, &a.ContentDelta,
		&a.Status, &a.ShowcaseImageID, &a.AuthorID, &a.Featured, &a.ViewCount,
		&a.PublishedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SlugExists reports whether an article other than excludeID already uses
// the slug. Pass uuid.Nil for new articles.
func (s *ArticleStore) SlugExists(candidate string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM articles WHERE slug = $1 AND id <> $2)
	`, candidate, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

// UniqueSlug derives a slug from the title and disambiguates collisions by
// linear probing with a numeric suffix. The probe and the eventual insert
// are separate statements; the unique constraint on the slug column is the
// backstop for concurrent writers.
func (s *ArticleStore) UniqueSlug(title string, excludeID uuid.UUID) (string, error) {
	var probeErr error
	result := slug.Unique(slug.Generate(title), func(candidate string) bool {
		if probeErr != nil {
			return false
		}
		taken, err := s.SlugExists(candidate, excludeID)
		if err != nil {
			probeErr = err
			return false
		}
		return taken
	})
	if probeErr != nil {
		return "", probeErr
	}
	return result, nil
}

// Create inserts a new article and returns it with the generated ID.
// The caller is responsible for slug derivation and publish-timestamp
// bookkeeping (models.Article.ApplyStatus).
func (s *ArticleStore) Create(a *models.Article) (*models.Article, error) {
	row := s.db.QueryRow(`
		INSERT INTO articles (title, slug, summary, content, content_delta, status,
		                      showcase_image_id, author_id, featured, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+articleColumns,
		a.Title, a.Slug, a.Summary, a.Content, a.ContentDelta, a.Status,
		a.ShowcaseImageID, a.AuthorID, a.Featured, a.PublishedAt,
	)
	created, err := scanArticle(row)
	if err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}
	return created, nil
}

// Update modifies an existing article.
func (s *ArticleStore) Update(a *models.Article) error {
	_, err := s.db.Exec(`
		UPDATE articles SET
			title = $1, slug = $2, summary = $3, content = $4, content_delta = $5,
			status = $6, showcase_image_id = $7, featured = $8, published_at = $9,
			updated_at = NOW()
		WHERE id = $10
	`, a.Title, a.Slug, a.Summary, a.Content, a.ContentDelta,
		a.Status, a.ShowcaseImageID, a.Featured, a.PublishedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	return nil
}

// FindByID retrieves an article by its UUID. Returns nil if not found.
func (s *ArticleStore) FindByID(id uuid.UUID) (*models.Article, error) {
	row := s.db.QueryRow(`SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find article by id: %w", err)
	}
	return a, nil
}

// FindPublishedBySlug retrieves a published article by its slug.
// Used for public article rendering. Returns nil if not found.
func (s *ArticleStore) FindPublishedBySlug(articleSlug string) (*models.Article, error) {
	row := s.db.QueryRow(`
		SELECT `+articleColumns+` FROM articles
		WHERE slug = $1 AND status = 'published'
	`, articleSlug)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find article by slug: %w", err)
	}
	return a, nil
}

// ListByStatuses returns articles in any of the given statuses, newest
// first, optionally filtered by a case-insensitive search over title,
// summary, and content. Used by the admin dashboard and archive pages.
func (s *ArticleStore) ListByStatuses(statuses []models.ArticleStatus, search string, limit, offset int) ([]models.Article, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := ""
	args := make([]any, 0, len(statuses)+3)
	for i, st := range statuses {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += fmt.Sprintf("$%d", i+1)
		args = append(args, st)
	}

	query := `SELECT ` + articleColumns + ` FROM articles WHERE status IN (` + placeholders + `)`
	if search != "" {
		query += fmt.Sprintf(
			" AND (title ILIKE $%d OR summary ILIKE $%d OR content ILIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1,
		)
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var items []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

// ListPublished returns published articles ordered by publish date
// descending. Featured-only narrows to articles flagged as featured.
func (s *ArticleStore) ListPublished(featuredOnly bool, limit, offset int) ([]models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE status = 'published'`
	if featuredOnly {
		query += ` AND featured = TRUE`
	}
	query += ` ORDER BY published_at DESC NULLS LAST LIMIT $1 OFFSET $2`

	rows, err := s.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list published articles: %w", err)
	}
	defer rows.Close()

	var items []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

// SearchPublished returns published articles matching the visitor's
// query, newest publish date first.
func (s *ArticleStore) SearchPublished(search string, limit, offset int) ([]models.Article, error) {
	rows, err := s.db.Query(`
		SELECT `+articleColumns+` FROM articles
		WHERE status = 'published'
		  AND (title ILIKE $1 OR summary ILIKE $1 OR content ILIKE $1)
		ORDER BY published_at DESC NULLS LAST
		LIMIT $2 OFFSET $3
	`, "%"+search+"%", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("search published articles: %w", err)
	}
	defer rows.Close()

	var items []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

// ListPublishedByCategory returns published articles in the given category,
// newest publish date first.
func (s *ArticleStore) ListPublishedByCategory(categoryID uuid.UUID, limit, offset int) ([]models.Article, error) {
	rows, err := s.db.Query(`
		SELECT `+prefixedArticleColumns("a")+`
		FROM articles a
		JOIN article_categories ac ON ac.article_id = a.id
		WHERE ac.category_id = $1 AND a.status = 'published'
		ORDER BY a.published_at DESC NULLS LAST
		LIMIT $2 OFFSET $3
	`, categoryID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list articles by category: %w", err)
	}
	defer rows.Close()

	var items []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

// ListPublishedByAuthor returns published articles by the given author,
// excluding one article. Used for the "related articles" block.
func (s *ArticleStore) ListPublishedByAuthor(authorID, excludeID uuid.UUID, limit int) ([]models.Article, error) {
	rows, err := s.db.Query(`
		SELECT `+articleColumns+` FROM articles
		WHERE author_id = $1 AND status = 'published' AND id <> $2
		ORDER BY published_at DESC NULLS LAST
		LIMIT $3
	`, authorID, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list articles by author: %w", err)
	}
	defer rows.Close()

	var items []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

// SearchSummaries returns lightweight search rows (id, title, status,
// created_at) matching the query in title or summary. Backs the admin
// search-as-you-type endpoint.
func (s *ArticleStore) SearchSummaries(query string, limit int) ([]models.Article, error) {
	rows, err := s.db.Query(`
		SELECT id, title, status, created_at FROM articles
		WHERE status IN ('published', 'draft')
		  AND (title ILIKE $1 OR summary ILIKE $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}
	defer rows.Close()

	var items []models.Article
	for rows.Next() {
		var a models.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// CountByStatus returns the number of articles in the given status.
func (s *ArticleStore) CountByStatus(status models.ArticleStatus) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM articles WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}

// IncrementViews bumps the view counter for an article.
func (s *ArticleStore) IncrementViews(id uuid.UUID) error {
	_, err := s.db.Exec(`UPDATE articles SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// SetCategories replaces an article's category assignments.
func (s *ArticleStore) SetCategories(articleID uuid.UUID, categoryIDs []uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin set categories: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM article_categories WHERE article_id = $1`, articleID); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}
	for _, cid := range categoryIDs {
		if _, err := tx.Exec(`
			INSERT INTO article_categories (article_id, category_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, articleID, cid); err != nil {
			return fmt.Errorf("assign category: %w", err)
		}
	}

	return tx.Commit()
}

// Delete removes an article permanently. Comments, likes, attachments, and
// category assignments cascade at the database level.
func (s *ArticleStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return nil
}

// prefixedArticleColumns qualifies the article column list with a table
// alias for join queries.
func prefixedArticleColumns(alias string) string {
	return alias + `.id, ` + alias + `.title, ` + alias + `.slug, ` + alias + `.summary, ` +
		alias + `.content, ` + alias + `.content_delta, ` + alias + `.status, ` +
		alias + `.showcase_image_id, ` + alias + `.author_id, ` + alias + `.featured, ` +
		alias + `.view_count, ` + alias + `.published_at, ` + alias + `.created_at, ` + alias + `.updated_at`
}
