package controller

import (
	"context"
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

const recentWindow = 7 * 24 * time.Hour

// AdminActions are mounted behind RequireRole(admin).
func AdminActions() Actions {
	return Actions{
		"users":          Get(AdminUsers),
		"listings":       Get(AdminListings),
		"stats":          Get(AdminStats),
		"toggle-user":    Post(ToggleUser),
		"toggle-listing": Post(ToggleListing),
		"delete-user":    Post(DeleteUser),
		"delete-listing": Post(AdminDeleteListing),
	}
}

type AdminUserRow struct {
	ID           uint       `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Role         model.Role `json:"role"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	ListingCount int64      `json:"listing_count"`
	InquiryCount int64      `json:"inquiry_count"`
}

func AdminUsers(c *fiber.Ctx) error {
	rows := make([]AdminUserRow, 0)
	err := db(c).Raw(`SELECT u.id, u.name, u.email, u.phone, u.role, u.is_active, u.created_at,
	(SELECT COUNT(*) FROM listings l WHERE l.user_id = u.id) AS listing_count,
	(SELECT COUNT(*) FROM inquiries i WHERE i.user_id = u.id) AS inquiry_count
FROM users u
ORDER BY u.created_at DESC, u.id DESC`).Scan(&rows).Error
	if err != nil {
		return serverError(c, "admin.Users", err, "Failed to retrieve users")
	}
	return response.OK(c, "Users retrieved", rows)
}

type AdminListingRow struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Rent          float64   `json:"rent"`
	City          string    `json:"city"`
	IsActive      bool      `json:"is_active"`
	Views         int64     `json:"views"`
	CreatedAt     time.Time `json:"created_at"`
	LandlordName  *string   `json:"landlord_name"`
	LandlordEmail *string   `json:"landlord_email"`
	Thumbnail     *string   `json:"thumbnail"`
	InquiryCount  int64     `json:"inquiry_count"`
	FavoriteCount int64     `json:"favorite_count"`
}

func AdminListings(c *fiber.Ctx) error {
	rows := make([]AdminListingRow, 0)
	err := db(c).Raw(`SELECT l.id, l.title, l.rent, l.city, l.is_active, l.views, l.created_at,
	u.name AS landlord_name, u.email AS landlord_email,
	`+search.ThumbnailSQL+` AS thumbnail,
	(SELECT COUNT(*) FROM inquiries i WHERE i.listing_id = l.id) AS inquiry_count,
	(SELECT COUNT(*) FROM favorites f WHERE f.listing_id = l.id) AS favorite_count
FROM listings l
LEFT JOIN users u ON l.user_id = u.id
ORDER BY l.created_at DESC, l.id DESC`).Scan(&rows).Error
	if err != nil {
		return serverError(c, "admin.Listings", err, "Failed to retrieve listings")
	}
	return response.OK(c, "Listings retrieved", rows)
}

type RoleCount struct {
	Role  model.Role `json:"role"`
	Count int64      `json:"count"`
}

type AdminStatsData struct {
	UsersByRole    []RoleCount `json:"users_by_role"`
	TotalListings  int64       `json:"total_listings"`
	TotalInquiries int64       `json:"total_inquiries"`
	TotalFavorites int64       `json:"total_favorites"`
	RecentListings int64       `json:"recent_listings"`
	RecentUsers    int64       `json:"recent_users"`
}

func AdminStats(c *fiber.Ctx) error {
	stats := AdminStatsData{UsersByRole: make([]RoleCount, 0)}
	since := time.Now().Add(-recentWindow)

	err := db(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).Select("role, COUNT(*) AS count").Group("role").Order("role").Scan(&stats.UsersByRole).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Listing{}).Where("is_active = ?", true).Count(&stats.TotalListings).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Inquiry{}).Count(&stats.TotalInquiries).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Favorite{}).Count(&stats.TotalFavorites).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Listing{}).Where("created_at >= ?", since).Count(&stats.RecentListings).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).Where("created_at >= ?", since).Count(&stats.RecentUsers).Error
	})
	if err != nil {
		return serverError(c, "admin.Stats", err, "Failed to retrieve statistics")
	}
	return response.OK(c, "Statistics retrieved", stats)
}

func activationMessage(subject string, active bool) string {
	if active {
		return subject + " activated successfully"
	}
	return subject + " deactivated successfully"
}

func ToggleUser(c *fiber.Ctx) error {
	ident, _ := middleware.CurrentIdentity(c)

	userID := request.ID(c, "user_id")
	if userID == 0 {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}
	if userID == ident.UserID {
		return response.Fail(c, fiber.StatusBadRequest, "Cannot deactivate your own account")
	}

	var user model.User
	if err := db(c).Select("id", "is_active").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Fail(c, fiber.StatusNotFound, "User not found")
		}
		return serverError(c, "admin.ToggleUser", err, "Failed to update user status")
	}

	active := !user.IsActive
	if err := db(c).Model(&user).Update("is_active", active).Error; err != nil {
		return serverError(c, "admin.ToggleUser", err, "Failed to update user status")
	}
	return response.OK(c, activationMessage("User", active), fiber.Map{"is_active": active})
}

func ToggleListing(c *fiber.Ctx) error {
	listingID := request.ID(c, "listing_id")
	if listingID == 0 {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid listing ID")
	}

	var listing model.Listing
	if err := db(c).Select("id", "is_active").First(&listing, listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Fail(c, fiber.StatusNotFound, "Listing not found")
		}
		return serverError(c, "admin.ToggleListing", err, "Failed to update listing status")
	}

	active := !listing.IsActive
	if err := db(c).Model(&listing).UpdateColumn("is_active", active).Error; err != nil {
		return serverError(c, "admin.ToggleListing", err, "Failed to update listing status")
	}
	return response.OK(c, activationMessage("Listing", active), fiber.Map{"is_active": active})
}

// DeleteUser removes the account for good; listings, images, favorites and
// inquiries it owns go with it through the foreign keys.
func DeleteUser(c *fiber.Ctx) error {
	ident, _ := middleware.CurrentIdentity(c)

	userID := request.ID(c, "user_id")
	if userID == 0 {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}
	if userID == ident.UserID {
		return response.Fail(c, fiber.StatusBadRequest, "Cannot delete your own account")
	}

	var paths []string
	err := db(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ListingImage{}).
			Joins("JOIN listings l ON listing_images.listing_id = l.id").
			Where("l.user_id = ?", userID).
			Pluck("listing_images.image_path", &paths).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.User{}, userID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return model.ErrNotFound
		}
		return nil
	})
	if errors.Is(err, model.ErrNotFound) {
		return response.Fail(c, fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		return serverError(c, "admin.DeleteUser", err, "Failed to delete user")
	}

	removeStoredImages(c.UserContext(), db(c), paths)
	return response.OK(c, "User deleted successfully", nil)
}

func AdminDeleteListing(c *fiber.Ctx) error {
	listingID := request.ID(c, "listing_id")
	if listingID == 0 {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid listing ID")
	}

	var paths []string
	err := db(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ListingImage{}).
			Where("listing_id = ?", listingID).
			Pluck("image_path", &paths).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Listing{}, listingID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return model.ErrNotFound
		}
		return nil
	})
	if errors.Is(err, model.ErrNotFound) {
		return response.Fail(c, fiber.StatusNotFound, "Listing not found")
	}
	if err != nil {
		return serverError(c, "admin.DeleteListing", err, "Failed to delete listing")
	}

	removeStoredImages(c.UserContext(), db(c), paths)
	return response.OK(c, "Listing deleted successfully", nil)
}

// removeStoredImages runs after the rows are gone. Paths still used by another
// listing are kept; a file left behind is picked up by the upload sweeper when
// it is enabled.
func removeStoredImages(ctx context.Context, gdb *gorm.DB, paths []string) {
	if fileStorage == nil || len(paths) == 0 {
		return
	}

	var inUse []string
	if err := gdb.WithContext(ctx).Model(&model.ListingImage{}).
		Distinct().
		Where("image_path IN ?", paths).
		Pluck("image_path", &inUse).Error; err != nil {
		log.Warn("could not check image references", "op", "admin.removeStoredImages", "error", err)
		return
	}

	for _, p := range unreferencedPaths(paths, inUse) {
		if err := fileStorage.Delete(ctx, p); err != nil {
			log.Warn("could not remove stored image", "op", "admin.removeStoredImages", "path", p, "error", err)
		}
	}
}

// unreferencedPaths returns paths minus inUse, without duplicates.
func unreferencedPaths(paths, inUse []string) []string {
	skip := make(map[string]bool, len(paths)+len(inUse))
	for _, p := range inUse {
		skip[p] = true
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if skip[p] {
			continue
		}
		skip[p] = true
		out = append(out, p)
	}
	return out
}
