// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"petitpress/internal/middleware"
	"petitpress/internal/render"
	"petitpress/internal/session"
	"petitpress/internal/store"
)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	renderer *render.Renderer
	sessions *session.Store
	admins   *store.AdminStore
	siteName string
}

// NewAuth creates a new Auth handler group. siteName is the TOTP issuer
// shown in authenticator apps.
func NewAuth(renderer *render.Renderer, sessions *session.Store, admins *store.AdminStore, siteName string) *Auth {
	return &Auth{
		renderer: renderer,
		sessions: sessions,
		admins:   admins,
		siteName: siteName,
	}
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	// If already logged in with 2FA complete, redirect to dashboard.
	sess := middleware.SessionFromCtx(r.Context())
	if sess != nil && sess.TwoFADone {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Sign In",
	})
}

// LoginSubmit processes the login form.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	admin, err := a.admins.FindByEmail(email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		a.loginError(w, r, "An unexpected error occurred.")
		return
	}

	// A deactivated account fails exactly like a wrong password, so the
	// form does not reveal which accounts exist.
	if admin == nil || !admin.IsActive || !a.admins.CheckPassword(admin, password) {
		a.loginError(w, r, "Invalid email or password.")
		return
	}

	// Create a session. TwoFADone starts as false; the admin must complete
	// the second factor before the protected area opens.
	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		AdminID:   admin.ID,
		Email:     admin.Email,
		Name:      admin.Name,
		Role:      string(admin.Role),
		TwoFADone: false,
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if admin.Needs2FASetup() {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
	} else {
		http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
	}
}

func (a *Auth) loginError(w http.ResponseWriter, r *http.Request, msg string) {
	a.renderer.Page(w, r, "login", &render.PageData{
		Title:   "Sign In",
		Flashes: []render.Flash{{Type: "error", Message: msg}},
	})
}

// TwoFASetupPage generates a TOTP secret and displays the QR code.
func (a *Auth) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      a.siteName,
		AccountName: sess.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Save the secret before showing the QR so the verify step can find it.
	if err := a.admins.SetTOTPSecret(sess.AdminID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	qrBase64, err := qrPNGBase64(key.URL())
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "2fa_setup", &render.PageData{
		Title: "Set Up Two-Factor Authentication",
		Data: map[string]any{
			"qr":     qrBase64,
			"secret": key.Secret(),
		},
	})
}

// TwoFAVerifyPage renders the 2FA code entry form for admins who already
// completed enrollment.
func (a *Auth) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "2fa_verify", &render.PageData{
		Title: "Two-Factor Authentication",
	})
}

// TwoFAVerifySubmit validates the TOTP code and completes authentication.
// It serves both the enrollment confirmation (first login) and the regular
// verification on later logins.
func (a *Auth) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	code := r.FormValue("code")

	admin, err := a.admins.FindByID(sess.AdminID)
	if err != nil || admin == nil {
		slog.Error("admin lookup for 2fa failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if admin.TOTPSecret == nil {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}

	if !totp.Validate(code, *admin.TOTPSecret) {
		if admin.Needs2FASetup() {
			// Re-show the setup page with the same secret so the admin can
			// retry without re-scanning.
			qrBase64, _ := qrPNGBase64(otpauthURL(a.siteName, admin.Email, *admin.TOTPSecret))
			a.renderer.Page(w, r, "2fa_setup", &render.PageData{
				Title:   "Set Up Two-Factor Authentication",
				Flashes: []render.Flash{{Type: "error", Message: "Invalid code. Please try again."}},
				Data: map[string]any{
					"qr":     qrBase64,
					"secret": *admin.TOTPSecret,
				},
			})
			return
		}

		a.renderer.Page(w, r, "2fa_verify", &render.PageData{
			Title:   "Two-Factor Authentication",
			Flashes: []render.Flash{{Type: "error", Message: "Invalid code. Please try again."}},
		})
		return
	}

	// First successful verification completes enrollment.
	if admin.Needs2FASetup() {
		if err := a.admins.EnableTOTP(admin.ID); err != nil {
			slog.Error("enable totp failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// Logout destroys the session and redirects to the login page.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.sessions.Destroy(r.Context(), w, r)
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

// qrPNGBase64 renders an otpauth URL as a base64-encoded PNG.
func qrPNGBase64(url string) (string, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

// otpauthURL rebuilds the provisioning URL for a previously stored secret.
func otpauthURL(issuer, email, secret string) string {
	return fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s", issuer, email, secret, issuer)
}
