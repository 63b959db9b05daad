// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"petitpress/internal/middleware"
	"petitpress/internal/models"
	"petitpress/internal/render"
)

// AdminsPage renders the team management page. Admin role only.
func (a *Admin) AdminsPage(w http.ResponseWriter, r *http.Request) {
	accounts, err := a.admins.List()
	if err != nil {
		slog.Error("list admins failed", "error", err)
	}

	a.renderer.Page(w, r, "admins", &render.PageData{
		Title:   "Team",
		Section: "admins",
		Data:    map[string]any{"admins": accounts},
	})
}

// AdminCreate handles the invite form. The new account gets the submitted
// password and must complete 2FA enrollment on first login.
func (a *Admin) AdminCreate(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	role := models.Role(r.FormValue("role"))

	var errMsg string
	switch {
	case name == "":
		errMsg = "Name is required."
	case !validEmail(email):
		errMsg = "A valid email address is required."
	case len(password) < 8:
		errMsg = "Password must be at least 8 characters."
	case role != models.RoleAdmin && role != models.RoleEditor:
		errMsg = "Invalid role."
	}

	if errMsg == "" {
		taken, err := a.admins.EmailTaken(email, uuid.Nil)
		if err != nil {
			slog.Error("email check failed", "error", err)
			errMsg = "Failed to create the account."
		} else if taken {
			errMsg = "An account with this email already exists."
		}
	}

	if errMsg == "" {
		if _, err := a.admins.Create(name, email, password, role); err != nil {
			slog.Error("create admin failed", "error", err)
			errMsg = "Failed to create the account."
		}
	}

	if errMsg != "" {
		accounts, _ := a.admins.List()
		a.renderer.Page(w, r, "admins", &render.PageData{
			Title:   "Team",
			Section: "admins",
			Flashes: []render.Flash{{Type: "error", Message: errMsg}},
			Data:    map[string]any{"admins": accounts},
		})
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	slog.Info("admin account created", "by", sess.Email, "new_admin", email, "role", role)

	http.Redirect(w, r, "/admin/admins", http.StatusSeeOther)
}

// AdminDeactivate disables an account. Its open sessions die on the next
// request, since every authenticated request re-checks the active flag.
func (a *Admin) AdminDeactivate(w http.ResponseWriter, r *http.Request) {
	a.setAdminActive(w, r, false)
}

// AdminActivate re-enables a previously deactivated account.
func (a *Admin) AdminActivate(w http.ResponseWriter, r *http.Request) {
	a.setAdminActive(w, r, true)
}

func (a *Admin) setAdminActive(w http.ResponseWriter, r *http.Request, active bool) {
	sess := middleware.SessionFromCtx(r.Context())

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	// Locking yourself out is not allowed.
	if id == sess.AdminID {
		http.Error(w, "Cannot change your own account status", http.StatusForbidden)
		return
	}

	if err := a.admins.SetActive(id, active); err != nil {
		slog.Error("change admin status failed", "error", err, "target", id, "active", active)
	} else {
		slog.Info("admin status changed", "by", sess.Email, "target", id, "active", active)
	}

	if isHTMXRequest(r) {
		a.AdminsPage(w, r)
		return
	}
	http.Redirect(w, r, "/admin/admins", http.StatusSeeOther)
}

// AdminResetTwoFA clears another admin's TOTP enrollment, forcing a fresh
// setup on their next login.
func (a *Admin) AdminResetTwoFA(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if id == sess.AdminID {
		http.Error(w, "Cannot reset your own 2FA", http.StatusForbidden)
		return
	}

	if err := a.admins.ResetTOTP(id); err != nil {
		slog.Error("reset 2fa failed", "error", err, "target", id)
	} else {
		slog.Info("2fa reset", "by", sess.Email, "target", id)
	}

	if isHTMXRequest(r) {
		a.AdminsPage(w, r)
		return
	}
	http.Redirect(w, r, "/admin/admins", http.StatusSeeOther)
}

// ProfilePage renders the current admin's profile form.
func (a *Admin) ProfilePage(w http.ResponseWriter, r *http.Request) {
	admin := middleware.AdminFromCtx(r.Context())
	a.renderProfile(w, r, admin, nil)
}

// ProfileUpdate changes the current admin's name and email.
func (a *Admin) ProfileUpdate(w http.ResponseWriter, r *http.Request) {
	admin := middleware.AdminFromCtx(r.Context())

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))

	var errMsg string
	switch {
	case name == "":
		errMsg = "Name is required."
	case !validEmail(email):
		errMsg = "A valid email address is required."
	}

	if errMsg == "" {
		taken, err := a.admins.EmailTaken(email, admin.ID)
		if err != nil {
			slog.Error("email check failed", "error", err)
			errMsg = "Failed to update the profile."
		} else if taken {
			errMsg = "Another account already uses this email."
		}
	}

	if errMsg != "" {
		a.renderProfile(w, r, admin, []render.Flash{{Type: "error", Message: errMsg}})
		return
	}

	if err := a.admins.UpdateProfile(admin.ID, name, email); err != nil {
		slog.Error("update profile failed", "error", err)
		a.renderProfile(w, r, admin, []render.Flash{{Type: "error", Message: "Failed to update the profile."}})
		return
	}

	// Keep the session display values in step with the account.
	sess := middleware.SessionFromCtx(r.Context())
	sess.Name = name
	sess.Email = email
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
	}

	admin.Name = name
	admin.Email = email
	a.renderProfile(w, r, admin, []render.Flash{{Type: "success", Message: "Profile updated."}})
}

// ProfilePassword changes the current admin's password after verifying
// the existing one.
func (a *Admin) ProfilePassword(w http.ResponseWriter, r *http.Request) {
	admin := middleware.AdminFromCtx(r.Context())

	current := r.FormValue("current_password")
	next := r.FormValue("new_password")

	var errMsg string
	switch {
	case !a.admins.CheckPassword(admin, current):
		errMsg = "Current password is incorrect."
	case len(next) < 8:
		errMsg = "New password must be at least 8 characters."
	}

	if errMsg != "" {
		a.renderProfile(w, r, admin, []render.Flash{{Type: "error", Message: errMsg}})
		return
	}

	if err := a.admins.SetPassword(admin.ID, next); err != nil {
		slog.Error("set password failed", "error", err)
		a.renderProfile(w, r, admin, []render.Flash{{Type: "error", Message: "Failed to change the password."}})
		return
	}

	a.renderProfile(w, r, admin, []render.Flash{{Type: "success", Message: "Password changed."}})
}

func (a *Admin) renderProfile(w http.ResponseWriter, r *http.Request, admin *models.Admin, flashes []render.Flash) {
	a.renderer.Page(w, r, "profile", &render.PageData{
		Title:   "Profile",
		Section: "profile",
		Flashes: flashes,
		Data:    map[string]any{"admin": admin},
	})
}
