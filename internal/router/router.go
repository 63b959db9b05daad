// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// Petit Press server. Routes are organized into public and admin groups
// with their own middleware stacks.
package router

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"petitpress/internal/handlers"
	"petitpress/internal/middleware"
	"petitpress/internal/session"
	"petitpress/internal/store"
	"petitpress/web"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. mediaRoot is the directory uploaded files are
// served from under /media/; secureCookies marks the CSRF cookie Secure.
func New(sessionStore *session.Store, adminStore *store.AdminStore, admin *handlers.Admin, auth *handlers.Auth, public *handlers.Public, mediaRoot string, secureCookies bool) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.NewCSRF(secureCookies))
	r.Use(middleware.LoadSession(sessionStore))

	// Health check.
	r.Get("/health", healthHandler)

	// Static assets embedded in the binary.
	staticFS, err := fs.Sub(web.StaticFS, "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}

	// Uploaded media, served straight from disk.
	r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(mediaRoot))))

	// Per-IP rate limits for credential guessing and anonymous writes.
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	publicWriteLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Admin area.
	r.Route("/admin", func(r chi.Router) {
		// Auth pages, accessible without a session.
		r.Get("/login", auth.LoginPage)
		r.With(loginLimiter.Middleware).Post("/login", auth.LoginSubmit)
		r.Post("/logout", auth.Logout)

		// 2FA enrollment and verification: a session is required but the
		// second factor is not complete yet.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(adminStore))
			r.Get("/2fa/setup", auth.TwoFASetupPage)
			r.Post("/2fa/setup", auth.TwoFAVerifySubmit)
			r.Get("/2fa/verify", auth.TwoFAVerifyPage)
			r.Post("/2fa/verify", auth.TwoFAVerifySubmit)
		})

		// Fully authenticated admin area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(adminStore))
			r.Use(middleware.Require2FA)

			r.Get("/", admin.Dashboard)

			r.Route("/articles", func(r chi.Router) {
				r.Get("/", admin.ArticlesList)
				r.Get("/archived", admin.ArchivedList)
				r.Get("/new", admin.ArticleNew)
				r.Get("/search", admin.ArticleSearch)
				r.Get("/data", admin.ArticlesData)
				r.Post("/", admin.ArticleCreate)
				r.Get("/{id}/edit", admin.ArticleEdit)
				r.Get("/{id}/preview", admin.ArticlePreview)
				r.Post("/{id}", admin.ArticleUpdate)
				r.Post("/{id}/toggle", admin.ArticleToggleStatus)
				r.Post("/{id}/archive", admin.ArticleArchive)
				r.Post("/{id}/restore", admin.ArticleRestore)
				r.Delete("/{id}", admin.ArticleDelete)
			})

			r.Route("/comments", func(r chi.Router) {
				r.Get("/", admin.CommentsPage)
				r.Post("/{id}/approve", admin.CommentApprove)
				r.Delete("/{id}", admin.CommentReject)
			})

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", admin.ContactsPage)
				r.Post("/{id}/read", admin.ContactMarkRead)
				r.Delete("/{id}", admin.ContactDelete)
			})

			r.Route("/media", func(r chi.Router) {
				r.Post("/upload", admin.MediaUpload)
				r.Post("/orphans/cleanup", admin.MediaCleanupOrphans)
			})

			r.Get("/profile", admin.ProfilePage)
			r.Post("/profile", admin.ProfileUpdate)
			r.Post("/profile/password", admin.ProfilePassword)

			// Admin role only: taxonomy and team management.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdminRole)

				r.Route("/categories", func(r chi.Router) {
					r.Get("/", admin.CategoriesPage)
					r.Post("/", admin.CategoryCreate)
					r.Post("/{id}", admin.CategoryRename)
					r.Delete("/{id}", admin.CategoryDelete)
				})

				r.Route("/admins", func(r chi.Router) {
					r.Get("/", admin.AdminsPage)
					r.Post("/", admin.AdminCreate)
					r.Post("/{id}/activate", admin.AdminActivate)
					r.Post("/{id}/deactivate", admin.AdminDeactivate)
					r.Post("/{id}/reset-2fa", admin.AdminResetTwoFA)
				})
			})
		})
	})

	// Public site.
	r.Get("/", public.Home)
	r.Get("/articles/{slug}", public.Article)
	r.Get("/categories/{slug}", public.Category)
	r.Get("/contact", public.ContactPage)

	// Anonymous write endpoints share one limiter.
	r.Group(func(r chi.Router) {
		r.Use(publicWriteLimiter.Middleware)
		r.Post("/articles/{slug}/comments", public.CommentSubmit)
		r.Post("/articles/{slug}/like", public.LikeToggle)
		r.Post("/contact", public.ContactSubmit)
		r.Post("/subscribe", public.Subscribe)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
