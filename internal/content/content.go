// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package content post-processes stored article HTML for public delivery.
// It resolves <img> tags against the attachment records and injects
// responsive srcset attributes, and computes reading-time estimates.
package content

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Annotated is the subset of attachment data the annotator needs: the
// responsive srcset and the caption used as fallback alt text.
type Annotated struct {
	Srcset  string
	Caption string
}

// Resolver looks up attachments by their public URL. Implemented by the
// attachment store; tests supply an in-memory map.
type Resolver interface {
	Resolve(links []string) (map[string]Annotated, error)
}

// sizesAttr describes the rendered width of content images: full width on
// phones, 80% of the viewport on larger screens.
const sizesAttr = `(max-width: 768px) 100vw, 80vw`

// imgSrcRe matches <img ... src="..." ...> tags and captures the
// attributes before src, the src URL, and the attributes after. It
// handles single and double quotes.
var imgSrcRe = regexp.MustCompile(`<img\s([^>]*?)src=["']([^"']+)["']([^>]*)>`)

// Annotator rewrites article HTML before it reaches the page.
type Annotator struct {
	resolver Resolver
}

// NewAnnotator creates an annotator backed by the given resolver.
func NewAnnotator(resolver Resolver) *Annotator {
	return &Annotator{resolver: resolver}
}

// ImageLinks returns the deduplicated src URLs of all <img> tags in the
// HTML, in document order. Used to associate uploads with an article when
// it is saved.
func ImageLinks(html string) []string {
	matches := imgSrcRe.FindAllStringSubmatch(html, -1)
	seen := make(map[string]bool, len(matches))
	var links []string
	for _, m := range matches {
		if !seen[m[2]] {
			seen[m[2]] = true
			links = append(links, m[2])
		}
	}
	return links
}

// Annotate scans the HTML for <img> tags whose src URLs resolve to known
// attachments and injects srcset, sizes, and loading attributes. Tags that
// already carry srcset are left untouched, as are images without stored
// variants, so the operation is idempotent and degrades to the plain src.
// Lookup failures log a warning and return the HTML unchanged.
func (a *Annotator) Annotate(html string) string {
	matches := imgSrcRe.FindAllStringSubmatchIndex(html, -1)
	if len(matches) == 0 {
		return html
	}

	type imgMatch struct {
		fullStart, fullEnd int
		preAttrs           string
		srcURL             string
		postAttrs          string
		skip               bool
	}

	var imgs []imgMatch
	seen := make(map[string]bool)
	var links []string

	for _, loc := range matches {
		im := imgMatch{
			fullStart: loc[0],
			fullEnd:   loc[1],
			preAttrs:  html[loc[2]:loc[3]],
			srcURL:    html[loc[4]:loc[5]],
			postAttrs: html[loc[6]:loc[7]],
		}
		if strings.Contains(html[loc[0]:loc[1]], "srcset") {
			im.skip = true
		} else if !seen[im.srcURL] {
			seen[im.srcURL] = true
			links = append(links, im.srcURL)
		}
		imgs = append(imgs, im)
	}

	if len(links) == 0 {
		return html
	}

	resolved, err := a.resolver.Resolve(links)
	if err != nil {
		slog.Warn("image annotation: attachment lookup failed", "error", err)
		return html
	}

	// Rebuild from back to front so match indices stay valid.
	result := []byte(html)
	for i := len(imgs) - 1; i >= 0; i-- {
		im := imgs[i]
		if im.skip {
			continue
		}
		att, ok := resolved[im.srcURL]
		if !ok {
			continue
		}

		attrs := im.preAttrs + im.postAttrs

		var tag strings.Builder
		tag.WriteString(`<img `)
		tag.WriteString(im.preAttrs)
		tag.WriteString(`src="`)
		tag.WriteString(im.srcURL)
		tag.WriteString(`"`)
		// Small originals have no resized variants; they still get
		// lazy loading and a caption-derived alt below.
		if att.Srcset != "" {
			tag.WriteString(` srcset="`)
			tag.WriteString(att.Srcset)
			tag.WriteString(`" sizes="`)
			tag.WriteString(sizesAttr)
			tag.WriteString(`"`)
		}
		if att.Caption != "" && !hasAttr(attrs, "alt") {
			fmt.Fprintf(&tag, ` alt="%s"`, strings.ReplaceAll(att.Caption, `"`, "&quot;"))
		}
		if !hasAttr(attrs, "loading") {
			tag.WriteString(` loading="lazy"`)
		}
		tag.WriteString(im.postAttrs)
		tag.WriteString(`>`)

		result = append(result[:im.fullStart], append([]byte(tag.String()), result[im.fullEnd:]...)...)
	}

	return string(result)
}

func hasAttr(attrs, name string) bool {
	re := regexp.MustCompile(`(^|\s)` + name + `\s*=`)
	return re.MatchString(attrs)
}

// tagRe strips HTML tags for word counting.
var tagRe = regexp.MustCompile(`<[^>]*>`)

// wordsPerMinute is the assumed reading speed for the estimate shown on
// article pages.
const wordsPerMinute = 200

// ReadingTime estimates minutes needed to read the HTML content. Always
// returns at least 1.
func ReadingTime(html string) int {
	text := tagRe.ReplaceAllString(html, " ")
	words := len(strings.Fields(text))
	minutes := words / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}
