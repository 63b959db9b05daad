// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for Petit Press.
// Handlers are grouped by concern (admin, public, auth) and receive
// their dependencies through the handler struct.
package handlers

import (
	"context"
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
	"petitpress/internal/session"
	"petitpress/internal/store"
)

// adminListLimit caps the rows shown on admin listing pages.
const adminListLimit = 100

// Admin groups all admin panel HTTP handlers and their dependencies.
type Admin struct {
	renderer    *render.Renderer
	sessions    *session.Store
	articles    *store.ArticleStore
	categories  *store.CategoryStore
	comments    *store.CommentStore
	contacts    *store.ContactStore
	admins      *store.AdminStore
	attachments *store.AttachmentStore
	subscribers *store.SubscriberStore
	annotator   *content.Annotator
	pageCache   *cache.PageCache
	mail        *mailer.Mailer
	siteName    string
	mediaConfig MediaConfig
}

// NewAdmin creates a new Admin handler group with the given dependencies.
func NewAdmin(renderer *render.Renderer, sessions *session.Store, articles *store.ArticleStore, categories *store.CategoryStore, comments *store.CommentStore, contacts *store.ContactStore, admins *store.AdminStore, attachments *store.AttachmentStore, subscribers *store.SubscriberStore, annotator *content.Annotator, pageCache *cache.PageCache, mail *mailer.Mailer, siteName string, mediaCfg MediaConfig) *Admin {
	return &Admin{
		renderer:    renderer,
		sessions:    sessions,
		articles:    articles,
		categories:  categories,
		comments:    comments,
		contacts:    contacts,
		admins:      admins,
		attachments: attachments,
		subscribers: subscribers,
		annotator:   annotator,
		pageCache:   pageCache,
		mail:        mail,
		siteName:    siteName,
		mediaConfig: mediaCfg,
	}
}

// Dashboard renders the admin dashboard with content stats and the most
// recently touched articles.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	published, _ := a.articles.CountByStatus(models.ArticleStatusPublished)
	drafts, _ := a.articles.CountByStatus(models.ArticleStatusDraft)
	archived, _ := a.articles.CountByStatus(models.ArticleStatusArchived)
	pending, _ := a.comments.CountPending()
	subscriberCount, _ := a.subscribers.Count()
	recent, err := a.articles.ListByStatuses(
		[]models.ArticleStatus{models.ArticleStatusDraft, models.ArticleStatusPublished}, "", 5, 0)
	if err != nil {
		slog.Error("list recent articles failed", "error", err)
	}

	a.renderer.Page(w, r, "dashboard", &render.PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Data: map[string]any{
			"published":       published,
			"drafts":          drafts,
			"archived":        archived,
			"pendingComments": pending,
			"subscribers":     subscriberCount,
			"recent":          recent,
		},
	})
}

// --- Articles ---

// ArticlesList renders the article management page. The q query parameter
// filters by title, summary, and content.
func (a *Admin) ArticlesList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	statuses := []models.ArticleStatus{models.ArticleStatusDraft, models.ArticleStatusPublished}

	articles, err := a.articles.ListByStatuses(statuses, query, adminListLimit, 0)
	if err != nil {
		slog.Error("list articles failed", "error", err)
	}

	a.renderer.Page(w, r, "articles", &render.PageData{
		Title:   "Articles",
		Section: "articles",
		Data: map[string]any{
			"articles": articles,
			"query":    query,
			"archived": false,
		},
	})
}

// ArchivedList renders the archived articles page.
func (a *Admin) ArchivedList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	articles, err := a.articles.ListByStatuses([]models.ArticleStatus{models.ArticleStatusArchived}, query, adminListLimit, 0)
	if err != nil {
		slog.Error("list archived articles failed", "error", err)
	}

	a.renderer.Page(w, r, "articles", &render.PageData{
		Title:   "Archived Articles",
		Section: "articles",
		Data: map[string]any{
			"articles": articles,
			"query":    query,
			"archived": true,
		},
	})
}

// ArticleNew renders the new article form.
func (a *Admin) ArticleNew(w http.ResponseWriter, r *http.Request) {
	a.renderArticleForm(w, r, &models.Article{Status: models.ArticleStatusDraft}, true, nil)
}

// ArticleCreate handles the new article form submission.
func (a *Admin) ArticleCreate(w http.ResponseWriter, r *http.Request) {
	title := r.FormValue("title")
	summary := r.FormValue("summary")
	body := r.FormValue("content")

	if errMsg := validateArticle(title, summary, body); errMsg != "" {
		art := articleFromForm(&models.Article{}, r)
		a.renderArticleForm(w, r, art, true, []render.Flash{{Type: "error", Message: errMsg}})
		return
	}

	art := articleFromForm(&models.Article{}, r)
	admin := middleware.AdminFromCtx(r.Context())
	if admin != nil {
		art.AuthorID = &admin.ID
	}

	articleSlug, err := a.articles.UniqueSlug(title, uuid.Nil)
	if err != nil {
		slog.Error("slug generation failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	art.Slug = articleSlug

	justPublished := art.ApplyStatus(models.ArticleStatus(r.FormValue("status")), time.Now())

	created, err := a.articles.Create(art)
	if err != nil {
		slog.Error("create article failed", "error", err)
		a.renderArticleForm(w, r, art, true, []render.Flash{{Type: "error", Message: "Failed to save the article."}})
		return
	}

	a.saveArticleRelations(created, r)
	a.invalidateArticleCache(r.Context(), created.Slug, justPublished)

	if justPublished {
		go a.announce(created)
	}

	http.Redirect(w, r, "/admin/articles", http.StatusSeeOther)
}

// ArticleEdit renders the edit form for an article.
func (a *Admin) ArticleEdit(w http.ResponseWriter, r *http.Request) {
	art, ok := a.articleFromPath(w, r)
	if !ok {
		return
	}
	a.renderArticleForm(w, r, art, false, nil)
}

// ArticleUpdate handles the edit form submission. The slug is regenerated
// when the title changes, so a published URL only moves with its title.
func (a *Admin) ArticleUpdate(w http.ResponseWriter, r *http.Request) {
	art, ok := a.articleFromPath(w, r)
	if !ok {
		return
	}

	title := r.FormValue("title")
	summary := r.FormValue("summary")
	body := r.FormValue("content")

	if errMsg := validateArticle(title, summary, body); errMsg != "" {
		a.renderArticleForm(w, r, articleFromForm(art, r), false, []render.Flash{{Type: "error", Message: errMsg}})
		return
	}

	oldSlug := art.Slug
	titleChanged := art.Title != title

	articleFromForm(art, r)

	if titleChanged {
		articleSlug, err := a.articles.UniqueSlug(title, art.ID)
		if err != nil {
			slog.Error("slug generation failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		art.Slug = articleSlug
	}

	justPublished := art.ApplyStatus(models.ArticleStatus(r.FormValue("status")), time.Now())

	if err := a.articles.Update(art); err != nil {
		slog.Error("update article failed", "error", err)
		a.renderArticleForm(w, r, art, false, []render.Flash{{Type: "error", Message: "Failed to save the article."}})
		return
	}

	a.saveArticleRelations(art, r)
	a.pageCache.InvalidatePage(r.Context(), cache.ArticleKey(oldSlug))
	a.invalidateArticleCache(r.Context(), art.Slug, justPublished)

	if justPublished {
		go a.announce(art)
	}

	http.Redirect(w, r, "/admin/articles", http.StatusSeeOther)
}

// ArticleArchive moves an article to archived status. The publish
// timestamp is kept so a later restore keeps history intact.
func (a *Admin) ArticleArchive(w http.ResponseWriter, r *http.Request) {
	a.transitionArticle(w, r, models.ArticleStatusArchived)
}

// ArticleRestore moves an archived article back to draft.
func (a *Admin) ArticleRestore(w http.ResponseWriter, r *http.Request) {
	a.transitionArticle(w, r, models.ArticleStatusDraft)
}

// ArticleToggleStatus flips an article between draft and published from
// the listing page. Archived articles go through restore instead.
func (a *Admin) ArticleToggleStatus(w http.ResponseWriter, r *http.Request) {
	art, ok := a.articleFromPath(w, r)
	if !ok {
		return
	}
	if art.Status == models.ArticleStatusArchived {
		http.Redirect(w, r, "/admin/articles/archived", http.StatusSeeOther)
		return
	}

	next := models.ArticleStatusPublished
	if art.Status == models.ArticleStatusPublished {
		next = models.ArticleStatusDraft
	}

	justPublished := art.ApplyStatus(next, time.Now())
	if err := a.articles.Update(art); err != nil {
		slog.Error("article status toggle failed", "error", err, "article", art.ID)
	}
	a.invalidateArticleCache(r.Context(), art.Slug, justPublished)
	if justPublished {
		go a.announce(art)
	}

	if isHTMXRequest(r) {
		a.ArticlesList(w, r)
		return
	}
	http.Redirect(w, r, "/admin/articles", http.StatusSeeOther)
}

func (a *Admin) transitionArticle(w http.ResponseWriter, r *http.Request, next models.ArticleStatus) {
	art, ok := a.articleFromPath(w, r)
	if !ok {
		return
	}

	art.ApplyStatus(next, time.Now())
	if err := a.articles.Update(art); err != nil {
		slog.Error("article status change failed", "error", err, "article", art.ID, "status", next)
	}
	a.invalidateArticleCache(r.Context(), art.Slug, false)

	if next == models.ArticleStatusArchived && isHTMXRequest(r) {
		a.ArticlesList(w, r)
		return
	}
	if isHTMXRequest(r) {
		a.ArchivedList(w, r)
		return
	}
	http.Redirect(w, r, "/admin/articles", http.StatusSeeOther)
}

// ArticleDelete permanently removes an article. Its comments, likes, and
// category links go with it; attachments stay and become orphans.
func (a *Admin) ArticleDelete(w http.ResponseWriter, r *http.Request) {
	art, ok := a.articleFromPath(w, r)
	if !ok {
		return
	}

	if err := a.articles.Delete(art.ID); err != nil {
		slog.Error("delete article failed", "error", err, "article", art.ID)
	}
	a.invalidateArticleCache(r.Context(), art.Slug, false)

	if isHTMXRequest(r) {
		a.ArticlesList(w, r)
		return
	}
	http.Redirect(w, r, "/admin/articles", http.StatusSeeOther)
}

// ArticlePreview renders an article through the public template regardless
// of its status, so drafts can be checked before publishing.
func (a *Admin) ArticlePreview(w http.ResponseWriter, r *http.Request) {
	art, ok := a.articleFromPath(w, r)
	if !ok {
		return
	}

	body := a.annotator.Annotate(art.Content)

	a.renderer.Page(w, r, "public/article", &render.PageData{
		Title: art.Title,
		Data: map[string]any{
			"siteName":    a.siteName,
			"year":        time.Now().Year(),
			"article":     art,
			"body":        body,
			"readingTime": content.ReadingTime(art.Content),
			"liked":       false,
			"likeCount":   0,
			"comments":    []models.Comment{},
			"related":     []models.Article{},
		},
	})
}

// ArticleSearch serves the admin quick-search as JSON summaries. Queries
// shorter than two characters return nothing rather than everything.
func (a *Admin) ArticleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < 2 {
		writeJSON(w, http.StatusOK, map[string]any{"results": []models.Article{}})
		return
	}

	results, err := a.articles.SearchSummaries(query, 10)
	if err != nil {
		slog.Error("article search failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "search failed"})
		return
	}
	if results == nil {
		results = []models.Article{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// ArticlesData serves one page of the article listing as JSON for the
// load-more script. A limit+1 lookahead signals whether more rows exist.
func (a *Admin) ArticlesData(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	const pageSize = 20
	rows, err := a.articles.ListByStatuses(
		[]models.ArticleStatus{models.ArticleStatusDraft, models.ArticleStatusPublished},
		query, pageSize+1, (page-1)*pageSize,
	)
	if err != nil {
		slog.Error("list articles failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "listing failed"})
		return
	}

	hasMore := len(rows) > pageSize
	if hasMore {
		rows = rows[:pageSize]
	}
	if rows == nil {
		rows = []models.Article{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"articles": rows,
		"hasMore":  hasMore,
		"nextPage": page + 1,
	})
}

// --- Categories ---

// CategoriesPage renders the category management page.
func (a *Admin) CategoriesPage(w http.ResponseWriter, r *http.Request) {
	categories, err := a.categories.List()
	if err != nil {
		slog.Error("list categories failed", "error", err)
	}

	a.renderer.Page(w, r, "categories", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Data:    map[string]any{"categories": categories},
	})
}

// CategoryCreate handles the new category form submission.
func (a *Admin) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
		return
	}

	if _, err := a.categories.Create(name); err != nil {
		slog.Error("create category failed", "error", err, "name", name)
	}
	a.pageCache.InvalidateHomepage(r.Context())

	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

// CategoryRename renames a category. The slug stays stable so existing
// category URLs keep working.
func (a *Admin) CategoryRename(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name != "" {
		if err := a.categories.Rename(id, name); err != nil {
			slog.Error("rename category failed", "error", err, "category", id)
		}
		a.pageCache.InvalidateAll(r.Context())
	}

	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

// CategoryDelete removes a category. Articles in it stay published and
// simply lose the label.
func (a *Admin) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := a.categories.Delete(id); err != nil {
		slog.Error("delete category failed", "error", err, "category", id)
	}
	a.pageCache.InvalidateAll(r.Context())

	if isHTMXRequest(r) {
		a.CategoriesPage(w, r)
		return
	}
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

// --- Shared helpers ---

// renderArticleForm renders the article editor with the category picker
// populated and the article's current categories preselected.
func (a *Admin) renderArticleForm(w http.ResponseWriter, r *http.Request, art *models.Article, isNew bool, flashes []render.Flash) {
	categories, err := a.categories.List()
	if err != nil {
		slog.Error("list categories failed", "error", err)
	}

	selected := map[string]bool{}
	var attached []models.Attachment
	if !isNew {
		current, err := a.categories.ForArticle(art.ID)
		if err != nil {
			slog.Error("load article categories failed", "error", err, "article", art.ID)
		}
		for _, c := range current {
			selected[c.ID.String()] = true
		}

		attached, err = a.attachments.ListForArticle(art.ID)
		if err != nil {
			slog.Error("list article attachments failed", "error", err, "article", art.ID)
		}
	}
	// Keep checkbox state across a failed save.
	for _, raw := range r.Form["categories"] {
		selected[raw] = true
	}

	title := "Edit Article"
	if isNew {
		title = "New Article"
	}

	a.renderer.Page(w, r, "article_edit", &render.PageData{
		Title:   title,
		Section: "articles",
		Flashes: flashes,
		Data: map[string]any{
			"article":            art,
			"isNew":              isNew,
			"categories":         categories,
			"selectedCategories": selected,
			"attachments":        attached,
		},
	})
}

// articleFromForm applies the editor form fields onto an article. Status
// is handled separately through ApplyStatus.
func articleFromForm(art *models.Article, r *http.Request) *models.Article {
	art.Title = strings.TrimSpace(r.FormValue("title"))
	art.Content = r.FormValue("content")
	art.Featured = r.FormValue("featured") == "1"

	if summary := strings.TrimSpace(r.FormValue("summary")); summary != "" {
		art.Summary = &summary
	} else {
		art.Summary = nil
	}
	if delta := r.FormValue("content_delta"); delta != "" {
		art.ContentDelta = &delta
	} else {
		art.ContentDelta = nil
	}

	return art
}

// saveArticleRelations persists the category selection and claims any
// still-unclaimed uploads whose URLs appear in the saved content.
func (a *Admin) saveArticleRelations(art *models.Article, r *http.Request) {
	var categoryIDs []uuid.UUID
	for _, raw := range r.Form["categories"] {
		if id, err := uuid.Parse(raw); err == nil {
			categoryIDs = append(categoryIDs, id)
		}
	}
	if err := a.articles.SetCategories(art.ID, categoryIDs); err != nil {
		slog.Error("set article categories failed", "error", err, "article", art.ID)
	}

	if links := content.ImageLinks(art.Content); len(links) > 0 {
		if err := a.attachments.Claim(art.ID, links); err != nil {
			slog.Error("claim attachments failed", "error", err, "article", art.ID)
		}
	}
}

// invalidateArticleCache purges the cached pages an article change can
// affect. Publishing clears everything, since listings and category pages
// all change at once.
func (a *Admin) invalidateArticleCache(ctx context.Context, articleSlug string, justPublished bool) {
	if justPublished {
		a.pageCache.InvalidateAll(ctx)
		return
	}
	a.pageCache.InvalidatePage(ctx, cache.ArticleKey(articleSlug))
	a.pageCache.InvalidateHomepage(ctx)
}

// announce emails active subscribers about a newly published article.
// Runs in its own goroutine; failures are logged, never surfaced.
func (a *Admin) announce(art *models.Article) {
	if !a.mail.Enabled() {
		return
	}
	subscribers, err := a.subscribers.ListActive()
	if err != nil {
		slog.Error("list subscribers for announcement failed", "error", err)
		return
	}
	a.mail.AnnounceArticle(art, subscribers)
}

// articleFromPath loads the article addressed by the id URL parameter,
// writing the error response itself when the lookup fails.
func (a *Admin) articleFromPath(w http.ResponseWriter, r *http.Request) (*models.Article, bool) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return nil, false
	}

	art, err := a.articles.FindByID(id)
	if err != nil {
		slog.Error("article lookup failed", "error", err, "article", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if art == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return nil, false
	}
	return art, true
}

// parseIDParam parses the id chi URL parameter as a UUID.
func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// isHTMXRequest reports whether the request came from HTMX and expects a
// partial in response.
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
