// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the Petit Press server. It loads
// configuration, connects to services, sets up routing, and starts the
// HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petitpress/internal/cache"
	"petitpress/internal/config"
	"petitpress/internal/content"
	"petitpress/internal/database"
	"petitpress/internal/handlers"
	"petitpress/internal/imaging"
	"petitpress/internal/mailer"
	"petitpress/internal/render"
	"petitpress/internal/router"
	"petitpress/internal/session"
	"petitpress/internal/storage"
	"petitpress/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the initial admin account (no-op if one exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions + page cache).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Session cookies are HTTPS-only outside development.
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// Template renderer. In dev mode, admin pages load assets from CDN;
	// in production they use files embedded in the binary.
	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Data stores.
	adminStore := store.NewAdminStore(db)
	articleStore := store.NewArticleStore(db)
	categoryStore := store.NewCategoryStore(db)
	commentStore := store.NewCommentStore(db)
	contactStore := store.NewContactStore(db)
	likeStore := store.NewLikeStore(db)
	subscriberStore := store.NewSubscriberStore(db)
	attachmentStore := store.NewAttachmentStore(db)

	// Local media storage and the image pipeline.
	storageClient, err := storage.New(cfg.MediaRoot, cfg.MediaURL)
	if err != nil {
		slog.Error("failed to initialize media storage", "error", err)
		os.Exit(1)
	}
	processor := imaging.NewProcessor(cfg.MaxUploadBytes())

	// Full-page HTML cache in Valkey.
	pageCache := cache.NewPageCache(valkeyClient, cache.DefaultPageTTL)

	// Outbound mail. Disabled entirely when SMTP_HOST is unset.
	mail := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.MailFrom, cfg.SiteName, cfg.SiteURL)
	if !mail.Enabled() {
		slog.Warn("smtp not configured — subscriber notifications disabled")
	}

	// Image annotation for article bodies (srcset, captions).
	annotator := content.NewAnnotator(handlers.NewAttachmentResolver(attachmentStore))

	mediaCfg := handlers.MediaConfig{
		Storage:   storageClient,
		Processor: processor,
		MaxBytes:  cfg.MaxUploadBytes(),
	}

	// Handler groups.
	adminHandlers := handlers.NewAdmin(renderer, sessionStore, articleStore, categoryStore, commentStore, contactStore, adminStore, attachmentStore, subscriberStore, annotator, pageCache, mail, cfg.SiteName, mediaCfg)
	authHandlers := handlers.NewAuth(renderer, sessionStore, adminStore, cfg.SiteName)
	publicHandlers := handlers.NewPublic(renderer, articleStore, categoryStore, commentStore, likeStore, subscriberStore, contactStore, annotator, pageCache, mail, cfg.SiteName, cfg.ContactEmail, secureCookies)

	// Router with all middleware and routes.
	r := router.New(sessionStore, adminStore, adminHandlers, authHandlers, publicHandlers, cfg.MediaRoot, secureCookies)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
