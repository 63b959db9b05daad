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

// SubscriberStore handles newsletter subscriber database operations.
type SubscriberStore struct {
	db *sql.DB
}

// NewSubscriberStore creates a new SubscriberStore with the given database connection.
func NewSubscriberStore(db *sql.DB) *SubscriberStore {
	return &SubscriberStore{db: db}
}

// GuestEmailDomain marks placeholder subscriber rows created for anonymous
// readers. Guest rows are never mailed and convert in place on signup.
const GuestEmailDomain = "@guests.invalid"

// Upsert creates or refreshes a subscription keyed by email. Re-subscribing
// updates the name and reactivates a previously deactivated subscriber.
func (s *SubscriberStore) Upsert(name, email string) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := s.db.QueryRow(`
		INSERT INTO subscribers (name, email) VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, is_active = TRUE
		RETURNING id, name, email, is_active, subscribed_at
	`, name, email).Scan(&sub.ID, &sub.Name, &sub.Email, &sub.IsActive, &sub.SubscribedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert subscriber: %w", err)
	}
	return &sub, nil
}

// ConvertGuest turns a placeholder guest row into a real subscription in
// place, keeping the row's id so the guest's likes carry over. Returns nil
// when the row is not a guest or the email already belongs to another
// subscriber; callers fall back to Upsert.
func (s *SubscriberStore) ConvertGuest(id uuid.UUID, name, email string) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := s.db.QueryRow(`
		UPDATE subscribers SET name = $2, email = $3, is_active = TRUE
		WHERE id = $1
		  AND email LIKE '%' || $4
		  AND NOT EXISTS (SELECT 1 FROM subscribers WHERE email = $3 AND id <> $1)
		RETURNING id, name, email, is_active, subscribed_at
	`, id, name, email, GuestEmailDomain).Scan(&sub.ID, &sub.Name, &sub.Email, &sub.IsActive, &sub.SubscribedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("convert guest subscriber: %w", err)
	}
	return &sub, nil
}

// FindByID retrieves a subscriber by UUID. Returns nil if not found.
func (s *SubscriberStore) FindByID(id uuid.UUID) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := s.db.QueryRow(`
		SELECT id, name, email, is_active, subscribed_at FROM subscribers WHERE id = $1
	`, id).Scan(&sub.ID, &sub.Name, &sub.Email, &sub.IsActive, &sub.SubscribedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find subscriber: %w", err)
	}
	return &sub, nil
}

// ListActive returns all active subscribers. Used when announcing a newly
// published article.
func (s *SubscriberStore) ListActive() ([]models.Subscriber, error) {
	rows, err := s.db.Query(`
		SELECT id, name, email, is_active, subscribed_at FROM subscribers
		WHERE is_active = TRUE
		ORDER BY subscribed_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var items []models.Subscriber
	for rows.Next() {
		var sub models.Subscriber
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Email, &sub.IsActive, &sub.SubscribedAt); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		items = append(items, sub)
	}
	return items, rows.Err()
}

// Count returns the number of active subscribers.
func (s *SubscriberStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM subscribers WHERE is_active = TRUE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}
	return count, nil
}

// Deactivate marks a subscriber as unsubscribed without deleting the row,
// which preserves their likes.
func (s *SubscriberStore) Deactivate(id uuid.UUID) error {
	_, err := s.db.Exec(`UPDATE subscribers SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate subscriber: %w", err)
	}
	return nil
}
