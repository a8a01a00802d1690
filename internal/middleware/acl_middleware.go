package middleware

import (
	"context"
	"errors"

	"pgfinder_backend/internal/model"
	"pgfinder_backend/pkg/database"
	"pgfinder_backend/pkg/utils/request"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const listingKey = "listing"

// OwnsListing loads the listing named by the id parameter and checks that the
// caller owns it. The loaded row is kept for the handler via OwnedListing.
func OwnsListing(param string) Guard {
	return func(c *fiber.Ctx) error {
		id, ok := CurrentIdentity(c)
		if !ok {
			return errUnauthenticated
		}

		listingID := request.ID(c, param)
		if listingID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid listing ID")
		}

		var listing model.Listing
		if err := database.GetDB().WithContext(c.UserContext()).First(&listing, listingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Listing not found")
			}
			return err
		}

		if listing.UserID != id.UserID {
			return fiber.NewError(fiber.StatusForbidden, "You don't have permission to modify this listing")
		}

		c.Locals(listingKey, &listing)
		return nil
	}
}

func OwnedListing(c *fiber.Ctx) *model.Listing {
	l, _ := c.Locals(listingKey).(*model.Listing)
	return l
}

// UserIsActive is the database-backed ActiveCheck.
func UserIsActive(ctx context.Context, userID uint) (bool, error) {
	var user model.User
	err := database.GetDB().WithContext(ctx).Select("id", "is_active").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsActive, nil
}
