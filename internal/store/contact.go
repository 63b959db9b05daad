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

// ContactStore handles contact form message database operations.
type ContactStore struct {
	db *sql.DB
}

// NewContactStore creates a new ContactStore with the given database connection.
func NewContactStore(db *sql.DB) *ContactStore {
	return &ContactStore{db: db}
}

// Create stores a contact form submission.
func (s *ContactStore) Create(name, email string, phone *string, message string) (*models.ContactMessage, error) {
	var m models.ContactMessage
	err := s.db.QueryRow(`
		INSERT INTO contact_messages (name, email, phone, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, phone, message, is_read, created_at
	`, name, email, phone, message).Scan(
		&m.ID, &m.Name, &m.Email, &m.Phone, &m.Message, &m.IsRead, &m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create contact message: %w", err)
	}
	return &m, nil
}

// List returns contact messages, newest first.
func (s *ContactStore) List(limit, offset int) ([]models.ContactMessage, error) {
	rows, err := s.db.Query(`
		SELECT id, name, email, phone, message, is_read, created_at
		FROM contact_messages
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	defer rows.Close()

	var items []models.ContactMessage
	for rows.Next() {
		var m models.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Message, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contact message: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// CountUnread returns the number of unread contact messages.
func (s *ContactStore) CountUnread() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM contact_messages WHERE is_read = FALSE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return count, nil
}

// MarkRead flags a contact message as read.
func (s *ContactStore) MarkRead(id uuid.UUID) error {
	_, err := s.db.Exec(`UPDATE contact_messages SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	return nil
}

// Delete removes a contact message.
func (s *ContactStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM contact_messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contact message: %w", err)
	}
	return nil
}
