// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler
// integration tests. Tests are skipped when PostgreSQL or Valkey are
// unavailable.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"petitpress/internal/cache"
	"petitpress/internal/content"
	"petitpress/internal/database"
	"petitpress/internal/imaging"
	"petitpress/internal/mailer"
	"petitpress/internal/middleware"
	"petitpress/internal/models"
	"petitpress/internal/render"
	"petitpress/internal/session"
	"petitpress/internal/storage"
	"petitpress/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "petitpress")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "petitpress")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "page:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB          *sql.DB
	Valkey      *redis.Client
	Renderer    *render.Renderer
	Sessions    *session.Store
	Articles    *store.ArticleStore
	Categories  *store.CategoryStore
	Comments    *store.CommentStore
	Contacts    *store.ContactStore
	Admins      *store.AdminStore
	Attachments *store.AttachmentStore
	Subscribers *store.SubscriberStore
	Likes       *store.LikeStore
	PageCache   *cache.PageCache
	Admin       *Admin
	Auth        *Auth
	Public      *Public
}

// newTestEnv creates a complete test environment with all handler
// dependencies. Media uploads go to a per-test temp directory.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	renderer, err := render.New(true)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	sessions := session.NewStore(vk, false)
	articles := store.NewArticleStore(db)
	categories := store.NewCategoryStore(db)
	comments := store.NewCommentStore(db)
	contacts := store.NewContactStore(db)
	admins := store.NewAdminStore(db)
	attachments := store.NewAttachmentStore(db)
	subscribers := store.NewSubscriberStore(db)
	likes := store.NewLikeStore(db)
	pageCache := cache.NewPageCache(vk, 1*time.Minute)
	annotator := content.NewAnnotator(NewAttachmentResolver(attachments))
	mail := mailer.New("", "25", "noreply@test.local", "Petit Press", "http://localhost:8080")

	storageClient, err := storage.New(t.TempDir(), "/media")
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	mediaCfg := MediaConfig{
		Storage:   storageClient,
		Processor: imaging.NewProcessor(10 << 20),
		MaxBytes:  10 << 20,
	}

	admin := NewAdmin(renderer, sessions, articles, categories, comments, contacts,
		admins, attachments, subscribers, annotator, pageCache, mail, "Petit Press", mediaCfg)
	auth := NewAuth(renderer, sessions, admins, "Petit Press")
	public := NewPublic(renderer, articles, categories, comments, likes, subscribers,
		contacts, annotator, pageCache, mail, "Petit Press", "", false)

	return &testEnv{
		DB:          db,
		Valkey:      vk,
		Renderer:    renderer,
		Sessions:    sessions,
		Articles:    articles,
		Categories:  categories,
		Comments:    comments,
		Contacts:    contacts,
		Admins:      admins,
		Attachments: attachments,
		Subscribers: subscribers,
		Likes:       likes,
		PageCache:   pageCache,
		Admin:       admin,
		Auth:        auth,
		Public:      public,
	}
}

// seedTestAdmin creates a unique admin account for a test and removes it
// afterwards, along with the articles it authored.
func seedTestAdmin(t *testing.T, env *testEnv) *models.Admin {
	t.Helper()

	email := "handler-test-" + uuid.NewString()[:8] + "@example.com"
	admin, err := env.Admins.Create("Handler Test", email, "correct-horse-battery", models.RoleAdmin)
	if err != nil {
		t.Fatalf("create test admin: %v", err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM articles WHERE author_id = $1", admin.ID)
		env.DB.Exec("DELETE FROM admins WHERE id = $1", admin.ID)
	})
	return admin
}

// authedContext builds a request context carrying both the session data and
// the admin row, the way RequireAuth leaves it.
func authedContext(ctx context.Context, admin *models.Admin, twoFADone bool) context.Context {
	sess := &session.Data{
		AdminID:   admin.ID,
		Email:     admin.Email,
		Name:      admin.Name,
		Role:      string(admin.Role),
		TwoFADone: twoFADone,
	}
	ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	return context.WithValue(ctx, middleware.AdminKey, admin)
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// formRequest builds a POST request with form-encoded values.
func formRequest(target string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

// mustParseUUID fails the test if s is not a valid UUID.
func mustParseUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("parse uuid %q: %v", s, err)
	}
	return id
}

// cleanArticlesBySlug removes test articles whose slug matches the base or
// a probe-suffixed variant of it.
func cleanArticlesBySlug(t *testing.T, db *sql.DB, base string) {
	t.Helper()
	db.Exec("DELETE FROM articles WHERE slug = $1 OR slug LIKE $1 || '-%'", base)
}
