// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package mailer sends transactional email over plain SMTP. When no SMTP
// host is configured the mailer is disabled and all sends become no-ops,
// so development environments work without a mail server.
package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"

	"petitpress/internal/models"
)

// Mailer sends site email through a single SMTP endpoint.
type Mailer struct {
	addr     string // host:port, empty = disabled
	from     string
	siteName string
	siteURL  string
}

// New creates a mailer. Pass an empty host to disable sending.
func New(host, port, from, siteName, siteURL string) *Mailer {
	addr := ""
	if host != "" {
		addr = host + ":" + port
	}
	return &Mailer{addr: addr, from: from, siteName: siteName, siteURL: siteURL}
}

// Enabled reports whether the mailer has an SMTP endpoint configured.
func (m *Mailer) Enabled() bool {
	return m.addr != ""
}

func (m *Mailer) send(to, subject, body string) error {
	if !m.Enabled() {
		slog.Debug("mailer disabled, dropping email", "to", to, "subject", subject)
		return nil
	}
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.from, to, subject, body))
	if err := smtp.SendMail(m.addr, nil, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

// AnnounceArticle emails every subscriber about a newly published article.
// Sends are best-effort: a failed recipient is logged and skipped so one
// bad address never blocks the rest of the list or the publish itself.
func (m *Mailer) AnnounceArticle(article *models.Article, subscribers []models.Subscriber) {
	if !m.Enabled() || len(subscribers) == 0 {
		return
	}

	subject := fmt.Sprintf("New on %s: %s", m.siteName, article.Title)
	link := m.siteURL + "/articles/" + article.Slug

	sent := 0
	for _, sub := range subscribers {
		summary := ""
		if article.Summary != nil {
			summary = *article.Summary + "\n\n"
		}
		body := fmt.Sprintf(`Hi %s,

We just published a new article:

%s

%sRead it here: %s

You receive this because you subscribed to the %s newsletter.`,
			sub.Name, article.Title, summary, link, m.siteName)

		if err := m.send(sub.Email, subject, body); err != nil {
			slog.Warn("newsletter send failed", "email", sub.Email, "error", err)
			continue
		}
		sent++
	}
	slog.Info("article announced", "slug", article.Slug, "sent", sent, "subscribers", len(subscribers))
}

// ForwardContactMessage emails a contact form submission to the site
// owner's inbox.
func (m *Mailer) ForwardContactMessage(to string, msg *models.ContactMessage) error {
	phone := "-"
	if msg.Phone != nil {
		phone = *msg.Phone
	}
	body := fmt.Sprintf(`New contact message on %s:

Name:  %s
Email: %s
Phone: %s

%s`, m.siteName, msg.Name, msg.Email, phone, msg.Message)

	return m.send(to, fmt.Sprintf("[%s] Contact message from %s", m.siteName, msg.Name), body)
}
