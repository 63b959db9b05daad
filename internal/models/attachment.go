// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// DisplayStyle controls how an attachment renders inside article content.
type DisplayStyle string

const (
	DisplayDefault    DisplayStyle = "default"
	DisplayFullWidth  DisplayStyle = "full-width"
	DisplayFloatLeft  DisplayStyle = "float-left"
	DisplayFloatRight DisplayStyle = "float-right"
)

// Attachment represents an uploaded file. The file itself lives under the
// media root on disk; Link is its public URL. Sizes maps variant pixel
// widths to the URLs of the resized copies. An attachment is created
// without an article and associated later with the article whose saved
// content references its URL.
type Attachment struct {
	ID           uuid.UUID      `json:"id"`
	Description  string         `json:"description"`
	Link         string         `json:"link"`
	FilePath     string         `json:"file_path"`
	Type         string         `json:"type"`
	ArticleID    *uuid.UUID     `json:"article_id,omitempty"`
	DisplayStyle DisplayStyle   `json:"display_style"`
	Caption      *string        `json:"caption,omitempty"`
	Sizes        map[int]string `json:"sizes,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Srcset builds an HTML srcset attribute value from the variant map,
// smallest width first. Returns "" when no variants exist.
func (a *Attachment) Srcset() string {
	if len(a.Sizes) == 0 {
		return ""
	}

	widths := make([]int, 0, len(a.Sizes))
	for w := range a.Sizes {
		widths = append(widths, w)
	}
	sort.Ints(widths)

	out := ""
	for i, w := range widths {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s %dw", a.Sizes[w], w)
	}
	return out
}

// SizesJSON converts the variant map to the string-keyed form stored in
// the JSONB column ({"400": url, ...}).
func (a *Attachment) SizesJSON() map[string]string {
	if a.Sizes == nil {
		return nil
	}
	out := make(map[string]string, len(a.Sizes))
	for w, url := range a.Sizes {
		out[strconv.Itoa(w)] = url
	}
	return out
}

// ParseSizes converts a string-keyed JSONB map back into the int-keyed
// variant map, skipping malformed keys.
func ParseSizes(raw map[string]string) map[int]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[int]string, len(raw))
	for k, url := range raw {
		w, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[w] = url
	}
	return out
}
