package controller

import (
	"errors"

	"pgfinder_backend/internal/middleware"
	"pgfinder_backend/internal/model"
	"pgfinder_backend/pkg/utils/request"
	"pgfinder_backend/pkg/utils/response"
	"pgfinder_backend/pkg/utils/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Email and role are fixed at registration; only these fields are editable.
type ProfileUpdateInput struct {
	Name  string `form:"name" validate:"required,max=100"`
	Phone string `form:"phone" validate:"required,phone"`
}

type PasswordChangeInput struct {
	CurrentPassword string `form:"current_password" validate:"required"`
	NewPassword     string `form:"new_password" validate:"required,min=6"`
}

func loadCurrentUser(c *fiber.Ctx, op string) (*model.User, error) {
	ident, _ := middleware.CurrentIdentity(c)

	var user model.User
	if err := db(c).First(&user, ident.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		log.Error("could not load profile", "op", op, "error", err)
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load profile")
	}
	return &user, nil
}

func UpdateProfile(c *fiber.Ctx) error {
	input := ProfileUpdateInput{
		Name:  request.Trimmed(c, "name"),
		Phone: validation.NormalizePhone(request.Param(c, "phone")),
	}
	if err := validation.Struct(input); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := loadCurrentUser(c, "settings.UpdateProfile")
	if err != nil {
		return err
	}

	if err := db(c).Model(user).Updates(map[string]interface{}{
		"name":  input.Name,
		"phone": input.Phone,
	}).Error; err != nil {
		return serverError(c, "settings.UpdateProfile", err, "Could not update profile")
	}

	return response.OK(c, "Profile updated successfully", user)
}

func ChangePassword(c *fiber.Ctx) error {
	input := PasswordChangeInput{
		CurrentPassword: request.Param(c, "current_password"),
		NewPassword:     request.Param(c, "new_password"),
	}
	if err := validation.Struct(input); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := loadCurrentUser(c, "settings.ChangePassword")
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.CurrentPassword)); err != nil {
		return response.Fail(c, fiber.StatusUnauthorized, "Current password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return serverError(c, "settings.ChangePassword", err, "Could not change password")
	}
	if err := db(c).Model(user).Update("password", string(hashed)).Error; err != nil {
		return serverError(c, "settings.ChangePassword", err, "Could not change password")
	}

	return response.OK(c, "Password changed successfully", nil)
}
