package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data.
// It creates a default administrator if none exists. The admin will be
// prompted to set up 2FA on first login (totp_enabled = false).
func Seed(db *sql.DB) error {
	// Check if any administrators exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM admins").Scan(&count); err != nil {
		return fmt.Errorf("seed check admins: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	// Hash the default admin password.
	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	// Insert default administrator. 2FA is not enabled — they must set it
	// up on first login.
	_, err = db.Exec(`
		INSERT INTO admins (name, email, password_hash, role, is_active, totp_enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, "Admin", "admin@petitpress.local", string(hash), "admin", true, false)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with default administrator",
		"email", "admin@petitpress.local",
		"password", "admin",
	)

	return nil
}
