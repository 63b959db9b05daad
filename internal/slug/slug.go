// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
package slug

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, or space.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Spring Open House 2026" → "spring-open-house-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = strings.ReplaceAll(result, " ", "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return result
}

// Unique returns the first slug in the sequence base, base-1, base-2, ...
// for which taken reports false. Generating twice for the same unsaved
// title yields the same slug; a collision with a saved row gets the next
// numeric suffix. The probe is not atomic with the eventual insert — the
// slug column's unique constraint catches the losing writer of a race.
func Unique(base string, taken func(string) bool) string {
	if base == "" {
		base = "article"
	}
	if !taken(base) {
		return base
	}
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s-%d", base, counter)
		if !taken(candidate) {
			return candidate
		}
	}
}
