package handlers

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Validation limits for form fields.
const (
	maxTitleLen   = 300
	maxSummaryLen = 1_000
	maxContentLen = 500_000
	maxNameLen    = 200
	maxEmailLen   = 320
	maxPhoneLen   = 40
	maxCommentLen = 5_000
	maxMessageLen = 10_000
)

// validateArticle checks article form inputs and returns the first error found.
func validateArticle(title, summary, content string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(summary) > maxSummaryLen {
		return "Summary is too long (max 1,000 characters)."
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return "Content is too long (max 500,000 characters)."
	}
	return ""
}

// validateComment checks a public comment submission.
func validateComment(name, email, body string) string {
	if strings.TrimSpace(name) == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long."
	}
	if !validEmail(email) {
		return "A valid email address is required."
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return "Comment cannot be empty."
	}
	if utf8.RuneCountInString(body) > maxCommentLen {
		return "Comment is too long (max 5,000 characters)."
	}
	return ""
}

// validateContactMessage checks a contact form submission.
func validateContactMessage(name, email, phone, message string) string {
	if strings.TrimSpace(name) == "" {
		return "Name is required."
	}
	if !validEmail(email) {
		return "A valid email address is required."
	}
	if utf8.RuneCountInString(phone) > maxPhoneLen {
		return "Phone number is too long."
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "Message cannot be empty."
	}
	if utf8.RuneCountInString(message) > maxMessageLen {
		return "Message is too long (max 10,000 characters)."
	}
	return ""
}

// validEmail reports whether s parses as a single RFC 5322 address.
func validEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > maxEmailLen {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
