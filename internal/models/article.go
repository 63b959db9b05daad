// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ArticleStatus represents the publishing state of an article.
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPublished ArticleStatus = "published"
	ArticleStatusArchived  ArticleStatus = "archived"
)

// Article represents a blog article. Content holds the rich-text HTML
// produced by the editor; ContentDelta holds the editor's structured
// delta form for lossless re-editing.
type Article struct {
	ID              uuid.UUID     `json:"id"`
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	Summary         *string       `json:"summary,omitempty"`
	Content         string        `json:"content"`
	ContentDelta    *string       `json:"content_delta,omitempty"`
	Status          ArticleStatus `json:"status"`
	ShowcaseImageID *uuid.UUID    `json:"showcase_image_id,omitempty"`
	AuthorID        *uuid.UUID    `json:"author_id,omitempty"`
	Featured        bool          `json:"featured"`
	ViewCount       int           `json:"view_count"`
	PublishedAt     *time.Time    `json:"published_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	// Virtual fields populated by store methods.
	Categories []Category `json:"categories,omitempty"`
	AuthorName string     `json:"author_name,omitempty"`
	LikeCount  int        `json:"like_count,omitempty"`
}

// IsPublished returns true if the article is in published status.
func (a *Article) IsPublished() bool {
	return a.Status == ArticleStatusPublished
}

// ApplyStatus transitions the article to the given status and keeps
// the publish timestamp consistent: it is set exactly once, on the first
// transition into published, and cleared on any transition back to draft.
// Published→published saves leave it untouched. Returns true if the
// transition entered the published state from elsewhere, which is the
// trigger for subscriber notification.
func (a *Article) ApplyStatus(next ArticleStatus, now time.Time) bool {
	justPublished := next == ArticleStatusPublished && a.Status != ArticleStatusPublished

	if next == ArticleStatusPublished && a.PublishedAt == nil {
		a.PublishedAt = &now
	}
	if next == ArticleStatusDraft {
		a.PublishedAt = nil
	}

	a.Status = next
	return justPublished
}
