// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment represents a reader comment on an article. Comments start
// unapproved and stay out of the public list until an administrator
// approves them.
type Comment struct {
	ID          uuid.UUID `json:"id"`
	ArticleID   uuid.UUID `json:"article_id"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
	Body        string    `json:"body"`
	Approved    bool      `json:"approved"`
	CreatedAt   time.Time `json:"created_at"`

	// Virtual field populated by the moderation queue query.
	ArticleTitle string `json:"article_title,omitempty"`
}
