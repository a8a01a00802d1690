package seed

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"pgfinder_backend/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AdminAccount struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// SeedAdmin creates the admin account on first start. Admins cannot self-register,
// so this is the only way one comes into existence. An existing account is left untouched.
func SeedAdmin(db *gorm.DB, acct AdminAccount, log *slog.Logger) error {
	email := strings.ToLower(strings.TrimSpace(acct.Email))
	if email == "" || acct.Password == "" {
		log.Warn("admin account not seeded: ADMIN_EMAIL or ADMIN_PASSWORD is empty")
		return nil
	}

	var existing model.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		log.Debug("admin account already present", "email", email)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(acct.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := model.User{
		Name:     acct.Name,
		Email:    email,
		Phone:    acct.Phone,
		Password: string(hashed),
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	log.Info("admin account seeded", "email", email)
	return nil
}
