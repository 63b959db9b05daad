// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"petitpress/internal/middleware"
	"petitpress/internal/models"
)

func seedPublishedArticle(t *testing.T, env *testEnv, admin *models.Admin, title, slug string) *models.Article {
	t.Helper()
	cleanArticlesBySlug(t, env.DB, slug)
	art := &models.Article{
		Title:    title,
		Slug:     slug,
		Content:  "<p>Body of " + title + "</p>",
		AuthorID: &admin.ID,
	}
	art.ApplyStatus(models.ArticleStatusPublished, time.Now())
	created, err := env.Articles.Create(art)
	if err != nil {
		t.Fatalf("seed article: %v", err)
	}
	return created
}

func TestHomeRendersPublishedArticles(t *testing.T) {
	env := newTestEnv(t)
	admin := seedTestAdmin(t, env)
	seedPublishedArticle(t, env, admin, "Public Home Article", "public-home-article")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/?page=1&nocache=1", nil)
	env.Public.Home(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Public Home Article") {
		t.Error("home page should list the published article")
	}
	if !strings.Contains(body, "Petit Press") {
		t.Error("home page should carry the site name")
	}
}

func TestArticleNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/articles/no-such-article-slug", nil)
	r = withChiURLParam(r, "slug", "no-such-article-slug")
	env.Public.Article(w, r)

	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestArticleIncrementsViews(t *testing.T) {
	env := newTestEnv(t)
	admin := seedTestAdmin(t, env)
	art := seedPublishedArticle(t, env, admin, "Public View Article", "public-view-article")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/articles/"+art.Slug, nil)
	r = withChiURLParam(r, "slug", art.Slug)
	env.Public.Article(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}

	reloaded, err := env.Articles.FindByID(art.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ViewCount != art.ViewCount+1 {
		t.Errorf("view count: got %d, want %d", reloaded.ViewCount, art.ViewCount+1)
	}
}

func TestCommentSubmitCreatesPendingComment(t *testing.T) {
	env := newTestEnv(t)
	admin := seedTestAdmin(t, env)
	art := seedPublishedArticle(t, env, admin, "Public Comment Article", "public-comment-article")

	w := httptest.NewRecorder()
	r := formRequest("/articles/"+art.Slug+"/comments", url.Values{
		"name":  {"Reader One"},
		"email": {"reader-one@example.com"},
		"body":  {"A thoughtful remark."},
	})
	r = withChiURLParam(r, "slug", art.Slug)
	env.Public.CommentSubmit(w, r)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303 (body %q)", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); !strings.Contains(loc, "commented=1") {
		t.Errorf("redirect: got %q, want commented=1 marker", loc)
	}

	pending, err := env.Comments.ListPending()
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	found := false
	for _, c := range pending {
		if c.ArticleID == art.ID && c.Body == "A thoughtful remark." {
			found = true
		}
	}
	if !found {
		t.Error("comment should be waiting for moderation")
	}

	// A pending comment must not show up on the public page.
	approved, err := env.Comments.ListApproved(art.ID)
	if err != nil {
		t.Fatalf("list approved: %v", err)
	}
	if len(approved) != 0 {
		t.Error("comment must not be visible before approval")
	}
}

func TestCommentSubmitRejectsInvalid(t *testing.T) {
	env := newTestEnv(t)
	admin := seedTestAdmin(t, env)
	art := seedPublishedArticle(t, env, admin, "Public Comment Invalid", "public-comment-invalid")

	w := httptest.NewRecorder()
	r := formRequest("/articles/"+art.Slug+"/comments", url.Values{
		"name":  {"Reader"},
		"email": {"not-an-email"},
		"body":  {"Hello"},
	})
	r = withChiURLParam(r, "slug", art.Slug)
	env.Public.CommentSubmit(w, r)

	// Invalid input re-renders the article page with a flash.
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	pending, err := env.Comments.ListPending()
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	for _, c := range pending {
		if c.ArticleID == art.ID {
			t.Fatal("invalid comment must not be stored")
		}
	}
}

func TestSubscribeSetsReaderCookie(t *testing.T) {
	env := newTestEnv(t)
	email := "subscribe-" + strings.ToLower(t.Name()) + "@example.com"
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM subscribers WHERE email = $1", email)
	})

	w := httptest.NewRecorder()
	r := formRequest("/subscribe", url.Values{
		"name":  {"New Reader"},
		"email": {email},
	})
	env.Public.Subscribe(w, r)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); !strings.Contains(loc, "subscribed=1") {
		t.Errorf("redirect: got %q, want subscribed=1 marker", loc)
	}

	var readerCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == readerCookieName {
			readerCookie = c
		}
	}
	if readerCookie == nil {
		t.Fatal("subscribing should identify the reader with a cookie")
	}

	sub, err := env.Subscribers.FindByID(mustParseUUID(t, readerCookie.Value))
	if err != nil || sub == nil {
		t.Fatalf("subscriber lookup: %v", err)
	}
	if sub.Email != email {
		t.Errorf("cookie points at %q, want %q", sub.Email, email)
	}
}

func TestSubscribeRejectsBadEmail(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	r := formRequest("/subscribe", url.Values{
		"name":  {"New Reader"},
		"email": {"nope"},
	})
	env.Public.Subscribe(w, r)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); !strings.Contains(loc, "subscribed=0") {
		t.Errorf("redirect: got %q, want subscribed=0 marker", loc)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("a failed subscription must not set cookies")
	}
}

func TestHomeCachePersonalizesCSRFToken(t *testing.T) {
	env := newTestEnv(t)
	admin := seedTestAdmin(t, env)
	seedPublishedArticle(t, env, admin, "Public Cache Article", "public-cache-article")

	get := func(token string) string {
		t.Helper()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: middleware.CSRFCookieName, Value: token})
		env.Public.Home(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("status: got %d, want 200", w.Code)
		}
		return w.Body.String()
	}

	first := get("token-first-visitor")
	if !strings.Contains(first, "token-first-visitor") {
		t.Fatal("first render should carry the visitor's own token")
	}

	// The second visitor is served from the cache but must see their own
	// token, never the first visitor's.
	second := get("token-second-visitor")
	if !strings.Contains(second, "token-second-visitor") {
		t.Error("cached page should be re-personalized with the visitor's token")
	}
	if strings.Contains(second, "token-first-visitor") {
		t.Error("cached page must not leak another visitor's token")
	}
}

func TestHomeSearchFiltersResults(t *testing.T) {
	env := newTestEnv(t)
	admin := seedTestAdmin(t, env)
	seedPublishedArticle(t, env, admin, "Unique Gardening Guide", "unique-gardening-guide")
	seedPublishedArticle(t, env, admin, "Weekly Roundup", "weekly-roundup-search")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/?q=gardening", nil)
	env.Public.Home(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Unique Gardening Guide") {
		t.Error("matching article should be listed")
	}
	if strings.Contains(body, "Weekly Roundup") {
		t.Error("non-matching article should not be listed")
	}
}

func TestSubscribeConvertsGuestReader(t *testing.T) {
	env := newTestEnv(t)
	admin := seedTestAdmin(t, env)
	art := seedPublishedArticle(t, env, admin, "Guest Conversion", "guest-conversion")
	email := "guest-convert-" + strings.ToLower(t.Name()) + "@example.com"
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM likes WHERE article_id = $1", art.ID)
		env.DB.Exec("DELETE FROM subscribers WHERE email = $1", email)
	})

	// Liking without a subscription creates a guest reader identity.
	w := httptest.NewRecorder()
	r := formRequest("/articles/"+art.Slug+"/like", url.Values{})
	r = withChiURLParam(r, "slug", art.Slug)
	env.Public.LikeToggle(w, r)

	var guestCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == readerCookieName {
			guestCookie = c
		}
	}
	if guestCookie == nil {
		t.Fatal("liking should create a reader identity cookie")
	}
	guestID := mustParseUUID(t, guestCookie.Value)
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM subscribers WHERE id = $1", guestID)
	})

	if liked, _ := env.Likes.Has(art.ID, guestID); !liked {
		t.Fatal("guest like should be recorded")
	}

	// Subscribing with the guest cookie keeps the same identity.
	w = httptest.NewRecorder()
	r = formRequest("/subscribe", url.Values{
		"name":  {"Converted Reader"},
		"email": {email},
	})
	r.AddCookie(guestCookie)
	env.Public.Subscribe(w, r)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303", w.Code)
	}
	sub, err := env.Subscribers.FindByID(guestID)
	if err != nil || sub == nil {
		t.Fatalf("load subscriber: %v", err)
	}
	if sub.Email != email {
		t.Errorf("email: got %q, want the signup address", sub.Email)
	}
	if !sub.IsActive {
		t.Error("converted subscriber must be active")
	}
	if liked, _ := env.Likes.Has(art.ID, guestID); !liked {
		t.Error("the guest's like must survive signup")
	}
}
