package controller

import (
	"errors"
	"strings"

	"pgfinder_backend/internal/middleware"
	"pgfinder_backend/internal/model"
	"pgfinder_backend/pkg/utils/jwt"
	"pgfinder_backend/pkg/utils/request"
	"pgfinder_backend/pkg/utils/response"
	"pgfinder_backend/pkg/utils/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Name     string `form:"name" validate:"required,max=100"`
	Email    string `form:"email" validate:"required,email"`
	Phone    string `form:"phone" validate:"required,phone"`
	Password string `form:"password" validate:"required,min=6"`
	Role     string `form:"role"`
}

type LoginInput struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

func AuthActions() Actions {
	return Actions{
		"register": Post(Register),
		"login":    Post(Login),
		"logout":   Any(Logout),
		"check":    Get(Check),
		"profile":  Get(Profile, middleware.Authenticated),

		"update-profile":  Post(UpdateProfile, middleware.Authenticated),
		"change-password": Post(ChangePassword, middleware.Authenticated),
	}
}

func authPayload(user *model.User) (fiber.Map, error) {
	token, err := jwt.GenerateToken(user.ID, user.Name, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	return fiber.Map{
		"token": token,
		"user":  user.GetPublicProfile(),
	}, nil
}

func Register(c *fiber.Ctx) error {
	input := RegisterInput{
		Name:     request.Trimmed(c, "name"),
		Email:    strings.ToLower(request.Trimmed(c, "email")),
		Phone:    validation.NormalizePhone(request.Param(c, "phone")),
		Password: request.Param(c, "password"),
		Role:     request.Trimmed(c, "role"),
	}
	if err := validation.Struct(input); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	var existing model.User
	err := db(c).Select("id").Where("email = ?", input.Email).First(&existing).Error
	if err == nil {
		return response.Fail(c, fiber.StatusConflict, "Email already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return serverError(c, "auth.Register", err, "Registration failed. Please try again.")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return serverError(c, "auth.Register", err, "Registration failed. Please try again.")
	}

	user := model.User{
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Password: string(hashedPassword),
		Role:     model.ParseSignupRole(input.Role),
		IsActive: true,
	}
	if err := db(c).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Fail(c, fiber.StatusConflict, "Email already registered")
		}
		return serverError(c, "auth.Register", err, "Registration failed. Please try again.")
	}

	payload, err := authPayload(&user)
	if err != nil {
		return serverError(c, "auth.Register", err, "Registration failed. Please try again.")
	}
	return response.Created(c, "Registration successful", payload)
}

func Login(c *fiber.Ctx) error {
	input := LoginInput{
		Email:    strings.ToLower(request.Trimmed(c, "email")),
		Password: request.Param(c, "password"),
	}
	if input.Email == "" || input.Password == "" {
		return response.Fail(c, fiber.StatusBadRequest, "Email and password are required")
	}
	if err := validation.Struct(input); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	var user model.User
	if err := db(c).Where("email = ?", input.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Fail(c, fiber.StatusUnauthorized, "Invalid email or password")
		}
		return serverError(c, "auth.Login", err, "Login failed. Please try again.")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return response.Fail(c, fiber.StatusUnauthorized, "Invalid email or password")
	}

	if !user.IsActive {
		return response.Fail(c, fiber.StatusForbidden, "Account is deactivated. Please contact admin.")
	}

	payload, err := authPayload(&user)
	if err != nil {
		return serverError(c, "auth.Login", err, "Login failed. Please try again.")
	}
	return response.OK(c, "Login successful", payload)
}

// Logout is stateless; the client drops its token.
func Logout(c *fiber.Ctx) error {
	return response.OK(c, "Logged out successfully", nil)
}

func Check(c *fiber.Ctx) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return response.Fail(c, fiber.StatusUnauthorized, "Not authenticated")
	}
	return response.OK(c, "Authenticated", id)
}

func Profile(c *fiber.Ctx) error {
	id, _ := middleware.CurrentIdentity(c)

	var user model.User
	if err := db(c).First(&user, id.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Fail(c, fiber.StatusNotFound, "User not found")
		}
		return serverError(c, "auth.Profile", err, "Failed to retrieve profile")
	}
	return response.OK(c, "Profile retrieved", user)
}
