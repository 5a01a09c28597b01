package controllers

import (
	"strconv"

	"quizapp/backend/models"
	"quizapp/backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// paramID reads a positive numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, models.Validationf("invalid %s", name)
	}
	return uint(id), nil
}

// currentUserID is set by middleware.AuthMiddleware.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("user_id").(uint)
	return id
}

func currentParticipant(c *fiber.Ctx, db *gorm.DB) (*models.Participant, error) {
	return services.ParticipantForUser(db, currentUserID(c))
}
