// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"petitpress/internal/cache"
	"petitpress/internal/content"
	"petitpress/internal/mailer"
	"petitpress/internal/middleware"
	"petitpress/internal/models"
	"petitpress/internal/render"
	"petitpress/internal/store"
)

const (
	// publicPageSize is how many articles public listings show per page.
	publicPageSize = 10

	// featuredLimit caps the featured block on the homepage.
	featuredLimit = 2

	// relatedLimit caps the "more from this author" block.
	relatedLimit = 4

	// readerCookieName identifies a visitor across likes and subscriptions.
	readerCookieName = "pp_reader"

	// readerCookieTTL keeps the reader identity for a year.
	readerCookieTTL = 365 * 24 * time.Hour

	// csrfPlaceholder stands in for the per-visitor CSRF token inside
	// cached pages, and is swapped for the real token at serve time.
	csrfPlaceholder = "@@csrf-token@@"
)

// Public groups the handlers for the reader-facing site. Rendered pages go
// through the Valkey page cache; visitor-specific bits (the CSRF token)
// are substituted on the way out so one cached copy serves everyone.
type Public struct {
	renderer    *render.Renderer
	articles    *store.ArticleStore
	categories  *store.CategoryStore
	comments    *store.CommentStore
	likes       *store.LikeStore
	subscribers *store.SubscriberStore
	contacts    *store.ContactStore
	annotator   *content.Annotator
	pageCache   *cache.PageCache
	mail        *mailer.Mailer
	siteName    string
	contactTo   string // recipient for contact form forwards, empty disables
	secure      bool   // mark reader cookies Secure
}

// NewPublic creates a new Public handler group.
func NewPublic(renderer *render.Renderer, articles *store.ArticleStore, categories *store.CategoryStore, comments *store.CommentStore, likes *store.LikeStore, subscribers *store.SubscriberStore, contacts *store.ContactStore, annotator *content.Annotator, pageCache *cache.PageCache, mail *mailer.Mailer, siteName, contactTo string, secure bool) *Public {
	return &Public{
		renderer:    renderer,
		articles:    articles,
		categories:  categories,
		comments:    comments,
		likes:       likes,
		subscribers: subscribers,
		contacts:    contacts,
		annotator:   annotator,
		pageCache:   pageCache,
		mail:        mail,
		siteName:    siteName,
		contactTo:   contactTo,
		secure:      secure,
	}
}

// Home renders the homepage: featured articles, the latest published
// articles, and the category list. Only the first, parameterless page is
// cached; deeper pages are cheap enough to render on demand.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	search := strings.TrimSpace(r.URL.Query().Get("q"))
	flashes := flashesFromQuery(r)
	cacheable := page == 1 && len(r.URL.Query()) == 0

	if cacheable && p.serveCached(w, r, cache.HomepageKey()) {
		return
	}

	var featured []models.Article
	if page == 1 && search == "" {
		var err error
		featured, err = p.articles.ListPublished(true, featuredLimit, 0)
		if err != nil {
			slog.Error("list featured articles failed", "error", err)
		}
	}

	listPage := func(limit, offset int) ([]models.Article, error) {
		if search != "" {
			return p.articles.SearchPublished(search, limit, offset)
		}
		return p.articles.ListPublished(false, limit, offset)
	}
	articles, hasMore, err := p.pageOf(listPage, page)
	if err != nil {
		slog.Error("list published articles failed", "error", err)
	}

	categories, err := p.categories.List()
	if err != nil {
		slog.Error("list categories failed", "error", err)
	}

	p.renderPublic(w, r, "public/home", &render.PageData{
		Title:   p.siteName,
		Flashes: flashes,
		Data: p.publicData(map[string]any{
			"featured":   featured,
			"articles":   articles,
			"categories": categories,
			"query":      search,
			"hasMore":    hasMore,
			"nextPage":   page + 1,
		}),
	}, cacheKeyIf(cacheable, cache.HomepageKey()))
}

// Article renders a single published article with its annotated body,
// approved comments, like state, and related articles.
func (p *Public) Article(w http.ResponseWriter, r *http.Request) {
	art, ok := p.publishedArticle(w, r)
	if !ok {
		return
	}

	// Count the view before any cache shortcut.
	if err := p.articles.IncrementViews(art.ID); err != nil {
		slog.Warn("increment views failed", "error", err, "article", art.ID)
	}

	// Pages are personal once a reader identity exists (the like button
	// reflects it), so only anonymous visits hit the cache.
	_, hasReader := p.readerID(r)
	cacheable := !hasReader && len(r.URL.Query()) == 0
	if cacheable && p.serveCached(w, r, cache.ArticleKey(art.Slug)) {
		return
	}

	p.renderArticle(w, r, art, flashesFromQuery(r), cacheable)
}

// renderArticle assembles and renders the article page.
func (p *Public) renderArticle(w http.ResponseWriter, r *http.Request, art *models.Article, flashes []render.Flash, cacheable bool) {
	categories, err := p.categories.ForArticle(art.ID)
	if err != nil {
		slog.Error("load article categories failed", "error", err, "article", art.ID)
	}
	art.Categories = categories

	comments, err := p.comments.ListApproved(art.ID)
	if err != nil {
		slog.Error("list comments failed", "error", err, "article", art.ID)
	}
	if comments == nil {
		comments = []models.Comment{}
	}

	likeCount, _ := p.likes.Count(art.ID)
	liked := false
	if readerID, ok := p.readerID(r); ok {
		liked, _ = p.likes.Has(art.ID, readerID)
	}

	var related []models.Article
	if art.AuthorID != nil {
		related, err = p.articles.ListPublishedByAuthor(*art.AuthorID, art.ID, relatedLimit)
		if err != nil {
			slog.Error("list related articles failed", "error", err, "article", art.ID)
		}
	}

	p.renderPublic(w, r, "public/article", &render.PageData{
		Title:   art.Title,
		Flashes: flashes,
		Data: p.publicData(map[string]any{
			"article":     art,
			"body":        p.annotator.Annotate(art.Content),
			"readingTime": content.ReadingTime(art.Content),
			"comments":    comments,
			"likeCount":   likeCount,
			"liked":       liked,
			"related":     related,
		}),
	}, cacheKeyIf(cacheable, cache.ArticleKey(art.Slug)))
}

// Category renders a category's published articles, newest first.
func (p *Public) Category(w http.ResponseWriter, r *http.Request) {
	categorySlug := chi.URLParam(r, "slug")
	category, err := p.categories.FindBySlug(categorySlug)
	if err != nil {
		slog.Error("category lookup failed", "error", err, "slug", categorySlug)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if category == nil {
		http.NotFound(w, r)
		return
	}

	page := parsePage(r)
	cacheable := page == 1 && len(r.URL.Query()) == 0
	if cacheable && p.serveCached(w, r, cache.CategoryKey(category.Slug)) {
		return
	}

	articles, hasMore, err := p.pageOf(func(limit, offset int) ([]models.Article, error) {
		return p.articles.ListPublishedByCategory(category.ID, limit, offset)
	}, page)
	if err != nil {
		slog.Error("list category articles failed", "error", err, "category", category.ID)
	}

	p.renderPublic(w, r, "public/category", &render.PageData{
		Title: category.Name,
		Data: p.publicData(map[string]any{
			"category": category,
			"articles": articles,
			"hasMore":  hasMore,
			"nextPage": page + 1,
		}),
	}, cacheKeyIf(cacheable, cache.CategoryKey(category.Slug)))
}

// CommentSubmit accepts a public comment. The comment goes into the
// moderation queue and is not visible until approved.
func (p *Public) CommentSubmit(w http.ResponseWriter, r *http.Request) {
	art, ok := p.publishedArticle(w, r)
	if !ok {
		return
	}

	name := strings.TrimSpace(r.FormValue("author_name"))
	email := strings.TrimSpace(r.FormValue("author_email"))
	body := r.FormValue("body")

	if errMsg := validateComment(name, email, body); errMsg != "" {
		p.renderArticle(w, r, art, []render.Flash{{Type: "error", Message: errMsg}}, false)
		return
	}

	if _, err := p.comments.Create(art.ID, name, email, strings.TrimSpace(body)); err != nil {
		slog.Error("create comment failed", "error", err, "article", art.ID)
		p.renderArticle(w, r, art, []render.Flash{{Type: "error", Message: "Your comment could not be saved. Please try again."}}, false)
		return
	}

	http.Redirect(w, r, "/articles/"+art.Slug+"?commented=1", http.StatusSeeOther)
}

// LikeToggle flips the reader's like on an article. A reader identity
// cookie is created on first use so likes stay unique per visitor.
func (p *Public) LikeToggle(w http.ResponseWriter, r *http.Request) {
	art, ok := p.publishedArticle(w, r)
	if !ok {
		return
	}

	readerID, err := p.ensureReader(w, r)
	if err != nil {
		slog.Error("reader identity failed", "error", err)
		http.Redirect(w, r, "/articles/"+art.Slug, http.StatusSeeOther)
		return
	}

	liked, err := p.likes.Has(art.ID, readerID)
	if err != nil {
		slog.Error("like lookup failed", "error", err, "article", art.ID)
	}
	if liked {
		_, err = p.likes.Remove(art.ID, readerID)
	} else {
		_, err = p.likes.Add(art.ID, readerID)
	}
	if err != nil {
		slog.Error("like toggle failed", "error", err, "article", art.ID)
	}

	p.pageCache.InvalidatePage(r.Context(), cache.ArticleKey(art.Slug))
	http.Redirect(w, r, "/articles/"+art.Slug, http.StatusSeeOther)
}

// Subscribe handles the newsletter form in the footer. Subscribing with a
// known email reactivates the subscription instead of failing.
func (p *Public) Subscribe(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))

	if name == "" || !validEmail(email) {
		http.Redirect(w, r, "/?subscribed=0", http.StatusSeeOther)
		return
	}

	// A guest browsing identity converts in place so its likes carry over.
	var sub *models.Subscriber
	if readerID, ok := p.readerID(r); ok {
		var err error
		sub, err = p.subscribers.ConvertGuest(readerID, name, email)
		if err != nil {
			slog.Warn("convert guest subscriber failed", "error", err, "subscriber", readerID)
		}
	}
	if sub == nil {
		var err error
		sub, err = p.subscribers.Upsert(name, email)
		if err != nil {
			slog.Error("subscribe failed", "error", err)
			http.Redirect(w, r, "/?subscribed=0", http.StatusSeeOther)
			return
		}
	}

	// Tie the browser to the subscriber so their likes carry over.
	p.setReaderCookie(w, sub.ID)
	slog.Info("subscriber added", "subscriber", sub.ID)

	http.Redirect(w, r, "/?subscribed=1", http.StatusSeeOther)
}

// ContactPage renders the contact form.
func (p *Public) ContactPage(w http.ResponseWriter, r *http.Request) {
	p.renderPublic(w, r, "public/contact", &render.PageData{
		Title:   "Contact",
		Flashes: flashesFromQuery(r),
		Data:    p.publicData(map[string]any{}),
	}, "")
}

// ContactSubmit stores a contact form submission and forwards it by email
// when a recipient is configured.
func (p *Public) ContactSubmit(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	phone := strings.TrimSpace(r.FormValue("phone"))
	message := r.FormValue("message")

	if errMsg := validateContactMessage(name, email, phone, message); errMsg != "" {
		p.renderPublic(w, r, "public/contact", &render.PageData{
			Title:   "Contact",
			Flashes: []render.Flash{{Type: "error", Message: errMsg}},
			Data:    p.publicData(map[string]any{}),
		}, "")
		return
	}

	var phonePtr *string
	if phone != "" {
		phonePtr = &phone
	}

	msg, err := p.contacts.Create(name, email, phonePtr, strings.TrimSpace(message))
	if err != nil {
		slog.Error("create contact message failed", "error", err)
		p.renderPublic(w, r, "public/contact", &render.PageData{
			Title:   "Contact",
			Flashes: []render.Flash{{Type: "error", Message: "Your message could not be sent. Please try again."}},
			Data:    p.publicData(map[string]any{}),
		}, "")
		return
	}

	if p.mail.Enabled() && p.contactTo != "" {
		go func() {
			if err := p.mail.ForwardContactMessage(p.contactTo, msg); err != nil {
				slog.Warn("forward contact message failed", "error", err)
			}
		}()
	}

	http.Redirect(w, r, "/contact?sent=1", http.StatusSeeOther)
}

// --- Helpers ---

// publicData fills in the fields the public base layout needs.
func (p *Public) publicData(data map[string]any) map[string]any {
	data["siteName"] = p.siteName
	data["year"] = time.Now().Year()
	return data
}

// publishedArticle loads the published article addressed by the slug URL
// parameter, writing the 404 itself when there is none.
func (p *Public) publishedArticle(w http.ResponseWriter, r *http.Request) (*models.Article, bool) {
	articleSlug := chi.URLParam(r, "slug")
	art, err := p.articles.FindPublishedBySlug(articleSlug)
	if err != nil {
		slog.Error("article lookup failed", "error", err, "slug", articleSlug)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if art == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return art, true
}

// pageOf fetches one listing page plus a lookahead row to detect whether
// another page exists.
func (p *Public) pageOf(list func(limit, offset int) ([]models.Article, error), page int) ([]models.Article, bool, error) {
	offset := (page - 1) * publicPageSize
	articles, err := list(publicPageSize+1, offset)
	if err != nil {
		return nil, false, err
	}
	hasMore := len(articles) > publicPageSize
	if hasMore {
		articles = articles[:publicPageSize]
	}
	return articles, hasMore, nil
}

// readerID returns the visitor's reader identity from the cookie, checking
// that the subscriber row still exists.
func (p *Public) readerID(r *http.Request) (uuid.UUID, bool) {
	cookie, err := r.Cookie(readerCookieName)
	if err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil {
		return uuid.Nil, false
	}
	sub, err := p.subscribers.FindByID(id)
	if err != nil || sub == nil {
		return uuid.Nil, false
	}
	return id, true
}

// ensureReader returns the visitor's reader identity, creating an inactive
// placeholder subscriber and setting the cookie when none exists yet.
func (p *Public) ensureReader(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	if id, ok := p.readerID(r); ok {
		return id, nil
	}

	token := make([]byte, 8)
	if _, err := rand.Read(token); err != nil {
		return uuid.Nil, err
	}
	guestEmail := fmt.Sprintf("reader-%s%s", hex.EncodeToString(token), store.GuestEmailDomain)

	sub, err := p.subscribers.Upsert("Reader", guestEmail)
	if err != nil {
		return uuid.Nil, err
	}
	// Guests only like things; they never asked for the newsletter.
	if err := p.subscribers.Deactivate(sub.ID); err != nil {
		slog.Warn("deactivate guest subscriber failed", "error", err, "subscriber", sub.ID)
	}

	p.setReaderCookie(w, sub.ID)
	return sub.ID, nil
}

func (p *Public) setReaderCookie(w http.ResponseWriter, id uuid.UUID) {
	http.SetCookie(w, &http.Cookie{
		Name:     readerCookieName,
		Value:    id.String(),
		Path:     "/",
		Expires:  time.Now().Add(readerCookieTTL),
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// flashesFromQuery converts the post-redirect feedback parameters into
// flash messages.
func flashesFromQuery(r *http.Request) []render.Flash {
	q := r.URL.Query()
	switch {
	case q.Get("subscribed") == "1":
		return []render.Flash{{Type: "success", Message: "Thanks for subscribing!"}}
	case q.Get("subscribed") == "0":
		return []render.Flash{{Type: "error", Message: "Please enter your name and a valid email address."}}
	case q.Get("commented") == "1":
		return []render.Flash{{Type: "success", Message: "Thanks! Your comment will appear after review."}}
	case q.Get("sent") == "1":
		return []render.Flash{{Type: "success", Message: "Message sent. We'll get back to you soon."}}
	}
	return nil
}

// parsePage reads the 1-based page query parameter.
func parsePage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// cacheKeyIf returns key when ok, otherwise "" to disable caching.
func cacheKeyIf(ok bool, key string) string {
	if !ok {
		return ""
	}
	return key
}

// serveCached writes the cached copy of a page if one exists, swapping the
// placeholder for the visitor's CSRF token.
func (p *Public) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	html, ok := p.pageCache.Get(r.Context(), key)
	if !ok {
		return false
	}
	token := middleware.GetCSRFToken(r)
	html = bytes.ReplaceAll(html, []byte(csrfPlaceholder), []byte(token))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
	return true
}

// renderPublic renders a public page, storing a tokenless copy in the page
// cache when cacheKey is non-empty.
func (p *Public) renderPublic(w http.ResponseWriter, r *http.Request, name string, data *render.PageData, cacheKey string) {
	if cacheKey == "" {
		p.renderer.Page(w, r, name, data)
		return
	}

	rec := newPageRecorder()
	p.renderer.Page(rec, r, name, data)
	if rec.status != http.StatusOK {
		copyRecorded(w, rec)
		return
	}

	body := rec.buf.Bytes()
	if token := middleware.GetCSRFToken(r); token != "" {
		cached := bytes.ReplaceAll(body, []byte(token), []byte(csrfPlaceholder))
		p.pageCache.Set(r.Context(), cacheKey, cached)
	} else {
		p.pageCache.Set(r.Context(), cacheKey, body)
	}

	copyRecorded(w, rec)
}

// pageRecorder buffers a rendered response so it can be cached before
// being written out.
type pageRecorder struct {
	header http.Header
	buf    bytes.Buffer
	status int
}

func newPageRecorder() *pageRecorder {
	return &pageRecorder{header: make(http.Header), status: http.StatusOK}
}

func (rec *pageRecorder) Header() http.Header        { return rec.header }
func (rec *pageRecorder) Write(b []byte) (int, error) { return rec.buf.Write(b) }
func (rec *pageRecorder) WriteHeader(status int)      { rec.status = status }

func copyRecorded(w http.ResponseWriter, rec *pageRecorder) {
	for k, vals := range rec.header {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(rec.status)
	w.Write(rec.buf.Bytes())
}
