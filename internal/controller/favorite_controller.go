package controller

import (
	"errors"
	"time"

	"pgfinder_backend/internal/middleware"
	"pgfinder_backend/internal/model"
	"pgfinder_backend/internal/search"
	"pgfinder_backend/pkg/utils/request"
	"pgfinder_backend/pkg/utils/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// FavoriteActions are mounted behind RequireAuth.
func FavoriteActions() Actions {
	return Actions{
		"toggle": Post(ToggleFavorite),
		"list":   Get(ListFavorites),
		"check":  Get(CheckFavorite),
	}
}

func ToggleFavorite(c *fiber.Ctx) error {
	ident, _ := middleware.CurrentIdentity(c)

	listingID := request.ID(c, "listing_id")
	if listingID == 0 {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid listing ID")
	}

	var listing model.Listing
	if err := db(c).Select("id").Where("id = ? AND is_active = ?", listingID, true).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Fail(c, fiber.StatusNotFound, "Listing not found")
		}
		return serverError(c, "favorites.Toggle", err, "Failed to update favorites")
	}

	res := db(c).Where("user_id = ? AND listing_id = ?", ident.UserID, listingID).Delete(&model.Favorite{})
	if res.Error != nil {
		return serverError(c, "favorites.Toggle", res.Error, "Failed to update favorites")
	}
	if res.RowsAffected > 0 {
		return response.OK(c, "Removed from favorites", fiber.Map{"is_favorite": false})
	}

	fav := model.Favorite{UserID: ident.UserID, ListingID: listingID}
	if err := db(c).Create(&fav).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return serverError(c, "favorites.Toggle", err, "Failed to update favorites")
	}
	return response.OK(c, "Added to favorites", fiber.Map{"is_favorite": true})
}

type FavoriteRow struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Rent          float64   `json:"rent"`
	City          string    `json:"city"`
	Address       string    `json:"address"`
	Gender        string    `json:"gender"`
	Furnished     bool      `json:"furnished"`
	FavoritedAt   time.Time `json:"favorited_at"`
	LandlordName  *string   `json:"landlord_name"`
	LandlordPhone *string   `json:"landlord_phone"`
	Thumbnail     *string   `json:"thumbnail"`
}

func ListFavorites(c *fiber.Ctx) error {
	ident, _ := middleware.CurrentIdentity(c)

	rows := make([]FavoriteRow, 0)
	err := db(c).Raw(`SELECT l.id, l.title, l.rent, l.city, l.address, l.gender, l.furnished,
	f.created_at AS favorited_at,
	u.name AS landlord_name, u.phone AS landlord_phone,
	`+search.ThumbnailSQL+` AS thumbnail
FROM favorites f
JOIN listings l ON f.listing_id = l.id
LEFT JOIN users u ON l.user_id = u.id
WHERE f.user_id = ? AND l.is_active = ?
ORDER BY f.created_at DESC, f.id DESC`, ident.UserID, true).Scan(&rows).Error
	if err != nil {
		return serverError(c, "favorites.List", err, "Failed to retrieve favorites")
	}
	return response.OK(c, "Favorites retrieved", rows)
}

func CheckFavorite(c *fiber.Ctx) error {
	ident, _ := middleware.CurrentIdentity(c)

	listingID := request.ID(c, "listing_id")
	if listingID == 0 {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid listing ID")
	}

	var n int64
	if err := db(c).Model(&model.Favorite{}).
		Where("user_id = ? AND listing_id = ?", ident.UserID, listingID).
		Count(&n).Error; err != nil {
		return serverError(c, "favorites.Check", err, "Failed to check favorite status")
	}
	return response.OK(c, "Favorite status retrieved", fiber.Map{"is_favorite": n > 0})
}
