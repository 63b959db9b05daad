// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"petitpress/internal/content"
	"petitpress/internal/store"
)

// AttachmentResolver adapts the attachment store to the content annotator,
// mapping image URLs found in article bodies to their variant sets.
type AttachmentResolver struct {
	attachments *store.AttachmentStore
}

// NewAttachmentResolver creates a resolver backed by the attachment store.
func NewAttachmentResolver(attachments *store.AttachmentStore) *AttachmentResolver {
	return &AttachmentResolver{attachments: attachments}
}

// Resolve looks up the attachments behind the given links.
func (ar *AttachmentResolver) Resolve(links []string) (map[string]content.Annotated, error) {
	atts, err := ar.attachments.FindByLinks(links)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]content.Annotated, len(atts))
	for link, att := range atts {
		annotated := content.Annotated{Srcset: att.Srcset()}
		if att.Caption != nil {
			annotated.Caption = *att.Caption
		}
		resolved[link] = annotated
	}
	return resolved, nil
}
