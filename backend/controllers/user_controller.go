package controllers

import (
	"log/slog"

	"quizapp/backend/config"
	"quizapp/backend/models"
	"quizapp/backend/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewUserController(db *gorm.DB, cfg *config.Config) *UserController {
	return &UserController{DB: db, Cfg: cfg}
}

type UpdateUserRequest struct {
	Username    string `json:"username" validate:"omitempty,min=3,max=30"`
	Email       string `json:"email" validate:"omitempty,email"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password" validate:"omitempty,min=8"`
	OptIn       *bool  `json:"opt_in"`
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns the authenticated user and, for participants, their participant record
// @Tags users
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	var user models.User
	if err := uc.DB.First(&user, currentUserID(c)).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	profile := fiber.Map{"user": user}
	if user.HasRole(models.RoleParticipant) {
		participant, err := currentParticipant(c, uc.DB)
		if err != nil {
			return utils.HandleError(c, err)
		}
		profile["participant"] = participant
	}
	return utils.Success(c, fiber.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Update user profile
// @Tags users
// @Accept json
// @Produce json
// @Param input body UpdateUserRequest true "Profile update data"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [put]
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	var input UpdateUserRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	var user models.User
	if err := uc.DB.First(&user, currentUserID(c)).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	if input.Username != "" && input.Username != user.Username {
		var existingUser models.User
		if err := uc.DB.Where("username = ?", input.Username).First(&existingUser).Error; err == nil {
			return utils.BadRequest(c, "Username already taken")
		}
		user.Username = input.Username
	}

	if input.Email != "" && input.Email != user.Email {
		var existingUser models.User
		if err := uc.DB.Where("email = ?", input.Email).First(&existingUser).Error; err == nil {
			return utils.BadRequest(c, "Email already taken")
		}
		user.Email = input.Email
	}

	if input.NewPassword != "" {
		if input.OldPassword == "" {
			return utils.BadRequest(c, "Old password is required to set new password")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)); err != nil {
			return utils.Unauthorized(c, "Invalid old password")
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return utils.HandleError(c, err)
		}
		user.PasswordHash = string(hashedPassword)
	}

	if err := uc.DB.Save(&user).Error; err != nil {
		return utils.HandleError(c, err)
	}

	if input.OptIn != nil && user.HasRole(models.RoleParticipant) {
		participant, err := currentParticipant(c, uc.DB)
		if err != nil {
			return utils.HandleError(c, err)
		}
		if err := uc.DB.Model(participant).Update("opt_in", *input.OptIn).Error; err != nil {
			return utils.HandleError(c, err)
		}
	}

	return utils.Success(c, fiber.StatusOK, user)
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=participant experimenter"`
}

// SetRole godoc
// @Summary Change a user's role
// @Description Experimenter only. The new role applies to tokens issued after the change
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param role body SetRoleRequest true "New role"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id}/role [put]
func (uc *UserController) SetRole(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}

	var input SetRoleRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	var user models.User
	if err := uc.DB.First(&user, id).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}
	if user.ID == currentUserID(c) && input.Role != user.Role {
		return utils.HandleError(c, models.Forbiddenf("experimenters cannot change their own role"))
	}

	if err := uc.DB.Model(&user).Update("role", input.Role).Error; err != nil {
		return utils.HandleError(c, err)
	}
	slog.Info("User role changed", "user_id", user.ID, "role", input.Role, "by", currentUserID(c))
	return utils.Success(c, fiber.StatusOK, user)
}
