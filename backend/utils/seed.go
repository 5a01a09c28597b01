package utils

import (
	"fmt"
	"log/slog"

	"quizapp/backend/config"
	"quizapp/backend/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedExperimenter creates the configured experimenter account if it does
// not exist yet. An existing user with that username is promoted.
func SeedExperimenter(db *gorm.DB, cfg *config.Config) error {
	if cfg.ExperimenterUsername == "" {
		return nil
	}
	if cfg.ExperimenterEmail == "" || len(cfg.ExperimenterPassword) < 8 {
		return fmt.Errorf("experimenter %q needs an email and a password of at least 8 characters", cfg.ExperimenterUsername)
	}

	var user models.User
	res := db.Where("username = ?", cfg.ExperimenterUsername).Limit(1).Find(&user)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		if user.HasRole(models.RoleExperimenter) {
			return nil
		}
		slog.Info("Promoting seeded experimenter", "user_id", user.ID)
		return db.Model(&user).Update("role", models.RoleExperimenter).Error
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.ExperimenterPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user = models.User{
		Username:     cfg.ExperimenterUsername,
		Email:        cfg.ExperimenterEmail,
		PasswordHash: string(hash),
		Role:         models.RoleExperimenter,
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("seed experimenter: %w", err)
	}
	slog.Info("Experimenter seeded", "user_id", user.ID)
	return nil
}
