package database

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ndlovu-dev/inkwell/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Note{},
		&models.Permission{},
	)
}

// BootstrapUser describes the optional config-driven initial account created at
// startup so a fresh deployment has an identity to sign in with.
type BootstrapUser struct {
	Username string
	Email    string
	Password string
}

// EnsureBootstrapUser creates the bootstrap account if it does not exist yet.
// Idempotent across restarts; an existing row is never modified.
func EnsureBootstrapUser(db *gorm.DB, bootstrap BootstrapUser) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	username := strings.TrimSpace(bootstrap.Username)
	if username == "" {
		return nil
	}
	if strings.TrimSpace(bootstrap.Password) == "" {
		return fmt.Errorf("bootstrap user %q requires a password", username)
	}

	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return fmt.Errorf("lookup bootstrap user: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(bootstrap.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}

	user := models.User{
		Username: username,
		Email:    strings.TrimSpace(bootstrap.Email),
		Password: string(hash),
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("create bootstrap user: %w", err)
	}

	return nil
}
