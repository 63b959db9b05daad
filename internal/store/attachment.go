// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"petitpress/internal/models"
)

// AttachmentStore handles image attachment database operations.
type AttachmentStore struct {
	db *sql.DB
}

// NewAttachmentStore creates a new AttachmentStore with the given database connection.
func NewAttachmentStore(db *sql.DB) *AttachmentStore {
	return &AttachmentStore{db: db}
}

const attachmentColumns = `id, description, link, file_path, type, article_id,
	display_style, caption, sizes, created_at`

func scanAttachment(scanner interface{ Scan(...any) error }) (*models.Attachment, error) {
	var att models.Attachment
	var sizesRaw []byte
	err := scanner.Scan(
		&att.ID, &att.Description, &att.Link, &att.FilePath, &att.Type,
		&att.ArticleID, &att.DisplayStyle, &att.Caption, &sizesRaw, &att.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(sizesRaw) > 0 {
		var raw map[string]string
		if err := json.Unmarshal(sizesRaw, &raw); err != nil {
			return nil, fmt.Errorf("decode sizes: %w", err)
		}
		att.Sizes = models.ParseSizes(raw)
	}
	return &att, nil
}

// Create inserts a new attachment record. The sizes map is stored as JSONB
// keyed by variant width.
func (s *AttachmentStore) Create(att *models.Attachment) (*models.Attachment, error) {
	sizesRaw, err := json.Marshal(att.SizesJSON())
	if err != nil {
		return nil, fmt.Errorf("encode sizes: %w", err)
	}
	row := s.db.QueryRow(`
		INSERT INTO attachments (description, link, file_path, type, article_id,
		                         display_style, caption, sizes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+attachmentColumns,
		att.Description, att.Link, att.FilePath, att.Type, att.ArticleID,
		att.DisplayStyle, att.Caption, sizesRaw,
	)
	created, err := scanAttachment(row)
	if err != nil {
		return nil, fmt.Errorf("create attachment: %w", err)
	}
	return created, nil
}

// FindByID retrieves an attachment by its UUID. Returns nil if not found.
func (s *AttachmentStore) FindByID(id uuid.UUID) (*models.Attachment, error) {
	row := s.db.QueryRow(`SELECT `+attachmentColumns+` FROM attachments WHERE id = $1`, id)
	att, err := scanAttachment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find attachment: %w", err)
	}
	return att, nil
}

// FindByLinks retrieves attachments whose public URL is in the given set,
// keyed by link. Used to resolve <img> sources during page rendering.
func (s *AttachmentStore) FindByLinks(links []string) (map[string]*models.Attachment, error) {
	if len(links) == 0 {
		return map[string]*models.Attachment{}, nil
	}
	rows, err := s.db.Query(`
		SELECT `+attachmentColumns+` FROM attachments WHERE link = ANY($1)
	`, links)
	if err != nil {
		return nil, fmt.Errorf("find attachments by link: %w", err)
	}
	defer rows.Close()

	found := make(map[string]*models.Attachment, len(links))
	for rows.Next() {
		att, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		found[att.Link] = att
	}
	return found, rows.Err()
}

// Claim associates unowned attachments with an article, matched by public
// URL. Attachments already owned by another article are left alone so a
// shared image cannot be stolen across articles.
func (s *AttachmentStore) Claim(articleID uuid.UUID, links []string) error {
	if len(links) == 0 {
		return nil
	}
	_, err := s.db.Exec(`
		UPDATE attachments SET article_id = $1
		WHERE link = ANY($2) AND article_id IS NULL
	`, articleID, links)
	if err != nil {
		return fmt.Errorf("claim attachments: %w", err)
	}
	return nil
}

// ListForArticle returns the attachments owned by an article.
func (s *AttachmentStore) ListForArticle(articleID uuid.UUID) ([]models.Attachment, error) {
	rows, err := s.db.Query(`
		SELECT `+attachmentColumns+` FROM attachments
		WHERE article_id = $1
		ORDER BY created_at
	`, articleID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	var items []models.Attachment
	for rows.Next() {
		att, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		items = append(items, *att)
	}
	return items, rows.Err()
}

// ListOrphaned returns attachments not associated with any article, oldest
// first. Backs the media cleanup page.
func (s *AttachmentStore) ListOrphaned(limit int) ([]models.Attachment, error) {
	rows, err := s.db.Query(`
		SELECT `+attachmentColumns+` FROM attachments
		WHERE article_id IS NULL
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list orphaned attachments: %w", err)
	}
	defer rows.Close()

	var items []models.Attachment
	for rows.Next() {
		att, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		items = append(items, *att)
	}
	return items, rows.Err()
}

// Delete removes an attachment record. The caller is responsible for
// deleting the files from media storage.
func (s *AttachmentStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}
