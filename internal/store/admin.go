// Package store provides database access methods for all Petitpress
// entities. Each store struct wraps a *sql.DB and exposes typed query methods.
package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"petitpress/internal/models"
)

// AdminStore handles all administrator-related database operations.
type AdminStore struct {
	db *sql.DB
}

// NewAdminStore creates a new AdminStore with the given database connection.
func NewAdminStore(db *sql.DB) *AdminStore {
	return &AdminStore{db: db}
}

const adminColumns = `id, name, email, password_hash, role, is_active,
	totp_secret, totp_enabled, created_at, updated_at`

func scanAdmin(scanner interface{ Scan(...any) error }) (*models.Admin, error) {
	var a models.Admin
	err := scanner.Scan(
		&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.IsActive,
		&a.TOTPSecret, &a.TOTPEnabled, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByEmail retrieves an administrator by email address. Returns nil if not found.
func (s *AdminStore) FindByEmail(email string) (*models.Admin, error) {
	row := s.db.QueryRow(`SELECT `+adminColumns+` FROM admins WHERE email = $1`, email)
	a, err := scanAdmin(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find admin by email: %w", err)
	}
	return a, nil
}

// FindByID retrieves an administrator by UUID. Returns nil if not found.
func (s *AdminStore) FindByID(id uuid.UUID) (*models.Admin, error) {
	row := s.db.QueryRow(`SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
	a, err := scanAdmin(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find admin by id: %w", err)
	}
	return a, nil
}

// List returns all administrators ordered by creation date.
func (s *AdminStore) List() ([]models.Admin, error) {
	rows, err := s.db.Query(`SELECT ` + adminColumns + ` FROM admins ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var admins []models.Admin
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		admins = append(admins, *a)
	}
	return admins, rows.Err()
}

// Create inserts a new administrator with a bcrypt-hashed password.
func (s *AdminStore) Create(name, email, password string, role models.Role) (*models.Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	row := s.db.QueryRow(`
		INSERT INTO admins (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+adminColumns,
		name, email, string(hash), role)
	a, err := scanAdmin(row)
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return a, nil
}

// UpdateProfile updates an administrator's name and email.
func (s *AdminStore) UpdateProfile(id uuid.UUID, name, email string) error {
	_, err := s.db.Exec(`
		UPDATE admins SET name = $1, email = $2, updated_at = NOW() WHERE id = $3
	`, name, email, id)
	if err != nil {
		return fmt.Errorf("update admin profile: %w", err)
	}
	return nil
}

// EmailTaken reports whether another administrator already uses the email.
func (s *AdminStore) EmailTaken(email string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM admins WHERE email = $1 AND id <> $2)
	`, email, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check admin email: %w", err)
	}
	return exists, nil
}

// SetPassword replaces an administrator's password hash.
func (s *AdminStore) SetPassword(id uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.db.Exec(`
		UPDATE admins SET password_hash = $1, updated_at = NOW() WHERE id = $2
	`, string(hash), id)
	if err != nil {
		return fmt.Errorf("set admin password: %w", err)
	}
	return nil
}

// SetActive toggles the liveness flag. Inactive administrators cannot log
// in and their existing sessions stop passing the auth gate.
func (s *AdminStore) SetActive(id uuid.UUID, active bool) error {
	_, err := s.db.Exec(`
		UPDATE admins SET is_active = $1, updated_at = NOW() WHERE id = $2
	`, active, id)
	if err != nil {
		return fmt.Errorf("set admin active: %w", err)
	}
	return nil
}

// SetTOTPSecret saves the TOTP secret for an administrator (during 2FA setup).
func (s *AdminStore) SetTOTPSecret(id uuid.UUID, secret string) error {
	_, err := s.db.Exec(`
		UPDATE admins SET totp_secret = $1, updated_at = NOW() WHERE id = $2
	`, secret, id)
	if err != nil {
		return fmt.Errorf("set totp secret: %w", err)
	}
	return nil
}

// EnableTOTP marks 2FA as active (after successful code verification).
func (s *AdminStore) EnableTOTP(id uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE admins SET totp_enabled = TRUE, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}
	return nil
}

// ResetTOTP clears the TOTP secret and disables 2FA. The administrator
// will be forced to set up 2FA again on their next login.
func (s *AdminStore) ResetTOTP(id uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE admins SET totp_secret = NULL, totp_enabled = FALSE, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("reset totp: %w", err)
	}
	return nil
}

// Delete removes an administrator by ID.
func (s *AdminStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM admins WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
func (s *AdminStore) CheckPassword(admin *models.Admin, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) == nil
}
