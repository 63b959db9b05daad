// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package mailer

import (
	"testing"

	"petitpress/internal/models"
)

func TestDisabledMailerIsNoOp(t *testing.T) {
	m := New("", "", "noreply@petitpress.local", "Petit Press", "http://localhost:8080")

	if m.Enabled() {
		t.Error("mailer without host must be disabled")
	}

	// Sends must succeed silently when disabled.
	msg := &models.ContactMessage{Name: "Visitor", Email: "v@example.com", Message: "Hello"}
	if err := m.ForwardContactMessage("owner@example.com", msg); err != nil {
		t.Errorf("disabled send: %v", err)
	}

	// Announcing must not panic or block.
	m.AnnounceArticle(&models.Article{Title: "T", Slug: "t"}, []models.Subscriber{
		{Name: "Sub", Email: "sub@example.com"},
	})
}

func TestEnabledMailer(t *testing.T) {
	m := New("mail.example.com", "587", "noreply@petitpress.local", "Petit Press", "http://localhost:8080")
	if !m.Enabled() {
		t.Error("mailer with host must be enabled")
	}
}
