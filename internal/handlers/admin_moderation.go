// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"petitpress/internal/cache"
	"petitpress/internal/render"
)

// CommentsPage renders the moderation queue with all pending comments.
func (a *Admin) CommentsPage(w http.ResponseWriter, r *http.Request) {
	pending, err := a.comments.ListPending()
	if err != nil {
		slog.Error("list pending comments failed", "error", err)
	}

	a.renderer.Page(w, r, "comments", &render.PageData{
		Title:   "Comments",
		Section: "comments",
		Data:    map[string]any{"comments": pending},
	})
}

// CommentApprove makes a comment publicly visible.
func (a *Admin) CommentApprove(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := a.comments.Approve(id); err != nil {
		slog.Error("approve comment failed", "error", err, "comment", id)
	}
	a.invalidateCommentArticle(r, id)

	if isHTMXRequest(r) {
		a.CommentsPage(w, r)
		return
	}
	http.Redirect(w, r, "/admin/comments", http.StatusSeeOther)
}

// CommentReject deletes a comment. Used both for rejecting pending comments
// and removing already-approved ones.
func (a *Admin) CommentReject(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	a.invalidateCommentArticle(r, id)
	if err := a.comments.Delete(id); err != nil {
		slog.Error("delete comment failed", "error", err, "comment", id)
	}

	if isHTMXRequest(r) {
		a.CommentsPage(w, r)
		return
	}
	http.Redirect(w, r, "/admin/comments", http.StatusSeeOther)
}

// invalidateCommentArticle purges the cached page of the article a comment
// belongs to, since its comment list just changed.
func (a *Admin) invalidateCommentArticle(r *http.Request, commentID uuid.UUID) {
	c, err := a.comments.FindByID(commentID)
	if err != nil || c == nil {
		return
	}
	art, err := a.articles.FindByID(c.ArticleID)
	if err != nil || art == nil {
		return
	}
	a.pageCache.InvalidatePage(r.Context(), cache.ArticleKey(art.Slug))
}

// ContactsPage renders the contact form inbox.
func (a *Admin) ContactsPage(w http.ResponseWriter, r *http.Request) {
	messages, err := a.contacts.List(adminListLimit, 0)
	if err != nil {
		slog.Error("list contact messages failed", "error", err)
	}

	a.renderer.Page(w, r, "contacts", &render.PageData{
		Title:   "Messages",
		Section: "contacts",
		Data:    map[string]any{"messages": messages},
	})
}

// ContactMarkRead marks a contact message as handled.
func (a *Admin) ContactMarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := a.contacts.MarkRead(id); err != nil {
		slog.Error("mark contact message read failed", "error", err, "message", id)
	}

	if isHTMXRequest(r) {
		a.ContactsPage(w, r)
		return
	}
	http.Redirect(w, r, "/admin/contacts", http.StatusSeeOther)
}

// ContactDelete removes a contact message.
func (a *Admin) ContactDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := a.contacts.Delete(id); err != nil {
		slog.Error("delete contact message failed", "error", err, "message", id)
	}

	if isHTMXRequest(r) {
		a.ContactsPage(w, r)
		return
	}
	http.Redirect(w, r, "/admin/contacts", http.StatusSeeOther)
}
