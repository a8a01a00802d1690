package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"pgfinder_backend/internal/middleware"
	"pgfinder_backend/internal/model"
	"pgfinder_backend/internal/search"
	"pgfinder_backend/pkg/utils/request"
	"pgfinder_backend/pkg/utils/response"
	"pgfinder_backend/pkg/utils/storage"
	"pgfinder_backend/pkg/utils/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultLatestLimit = 6
	maxLatestLimit     = 12
)

var searchService *search.Service

func InitListingController(svc *search.Service) {
	searchService = svc
}

func ListingActions() Actions {
	isLandlord := middleware.HasRole(model.RoleLandlord)
	return Actions{
		"search":      Get(SearchListings),
		"detail":      Get(GetListing),
		"latest":      Get(LatestListings),
		"create":      Post(CreateListing, isLandlord),
		"update":      Post(UpdateListing, isLandlord, middleware.OwnsListing("id")),
		"delete":      Post(DeleteListing, isLandlord, middleware.OwnsListing("id")),
		"my-listings": Get(MyListings, isLandlord),
	}
}

type ListingInput struct {
	Title         string `form:"title" validate:"required,max=200"`
	Description   string `form:"description"`
	Rent          string `form:"rent" validate:"required"`
	Address       string `form:"address" validate:"required"`
	City          string `form:"city" validate:"required,max=100"`
	Gender        string `form:"gender"`
	Furnished     bool   `form:"furnished"`
	Amenities     string `form:"amenities"`
	AvailableFrom string `form:"available_from" validate:"omitempty,datetime=2006-01-02"`
}

// listingForm is the validated create/update payload. Images is nil when the
// request carried no images parameter.
type listingForm struct {
	Listing model.Listing
	Images  []string
}

func bindListingForm(c *fiber.Ctx) (listingForm, error) {
	in := ListingInput{
		Title:         request.Trimmed(c, "title"),
		Description:   request.Trimmed(c, "description"),
		Rent:          request.Trimmed(c, "rent"),
		Address:       request.Trimmed(c, "address"),
		City:          request.Trimmed(c, "city"),
		Gender:        strings.ToLower(request.Trimmed(c, "gender")),
		Furnished:     request.Bool(c, "furnished"),
		Amenities:     request.Param(c, "amenities"),
		AvailableFrom: request.Trimmed(c, "available_from"),
	}
	if err := validation.Struct(in); err != nil {
		return listingForm{}, err
	}

	rent, err := strconv.ParseFloat(in.Rent, 64)
	if err != nil || math.IsNaN(rent) || math.IsInf(rent, 0) || rent <= 0 {
		return listingForm{}, &validation.Error{Message: "Invalid rent amount"}
	}

	availableFrom, err := model.ParseAvailableFrom(in.AvailableFrom)
	if err != nil {
		return listingForm{}, &validation.Error{Message: "Invalid date format. Use YYYY-MM-DD"}
	}

	gender := model.Gender(in.Gender)
	if !gender.Valid() {
		gender = model.GenderAny
	}

	form := listingForm{Listing: model.Listing{
		Title:         in.Title,
		Description:   in.Description,
		Rent:          rent,
		Address:       in.Address,
		City:          in.City,
		Gender:        gender,
		Furnished:     in.Furnished,
		Amenities:     model.NormalizeAmenities(in.Amenities),
		AvailableFrom: availableFrom,
	}}

	if raw, ok := request.Lookup(c, "images"); ok {
		if form.Images, err = ParseImagePaths(raw); err != nil {
			return listingForm{}, err
		}
	}
	return form, nil
}

// ParseImagePaths decodes the JSON array of stored image paths sent with a listing.
func ParseImagePaths(raw string) ([]string, error) {
	paths := make([]string, 0)
	if strings.TrimSpace(raw) == "" {
		return paths, nil
	}
	if err := json.Unmarshal([]byte(raw), &paths); err != nil {
		return nil, &validation.Error{Message: "Invalid images list"}
	}
	if len(paths) > model.MaxImagesPerListing {
		return nil, &validation.Error{Message: fmt.Sprintf("Maximum %d images allowed", model.MaxImagesPerListing)}
	}
	for _, p := range paths {
		if !strings.HasPrefix(p, storage.PathPrefix) {
			return nil, errInvalidImagePath
		}
		if _, err := storage.FilenameFromPath(p); err != nil {
			return nil, errInvalidImagePath
		}
	}
	return paths, nil
}

var errInvalidImagePath = &validation.Error{Message: "Invalid image path"}

// attachImages inserts the image rows for paths unless another landlord's
// listing already uses one of them.
func attachImages(tx *gorm.DB, ownerID, listingID uint, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	var taken int64
	if err := tx.Model(&model.ListingImage{}).
		Joins("JOIN listings l ON listing_images.listing_id = l.id").
		Where("listing_images.image_path IN ? AND l.user_id <> ?", paths, ownerID).
		Count(&taken).Error; err != nil {
		return err
	}
	if taken > 0 {
		return errInvalidImagePath
	}
	images := model.BuildImages(listingID, paths)
	return tx.Create(&images).Error
}

func SearchListings(c *fiber.Ctx) error {
	res, err := searchService.Search(c.UserContext(), search.RawParams{
		City:      request.Param(c, "city"),
		Min:       request.Param(c, "min"),
		Max:       request.Param(c, "max"),
		Gender:    request.Param(c, "gender"),
		Furnished: request.Optional(c, "furnished"),
		Search:    request.Param(c, "search"),
		Page:      request.Param(c, "page"),
	})
	if err != nil {
		return response.Fail(c, fiber.StatusInternalServerError, "Search failed")
	}
	return response.OK(c, "Listings retrieved", res)
}

type ListingDetail struct {
	ID            uint            `json:"id"`
	UserID        uint            `json:"user_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Rent          float64         `json:"rent"`
	Address       string          `json:"address"`
	City          string          `json:"city"`
	Gender        string          `json:"gender"`
	Furnished     bool            `json:"furnished"`
	Amenities     string          `json:"amenities"`
	AvailableFrom *datatypes.Date `json:"available_from"`
	IsActive      bool            `json:"is_active"`
	Views         int64           `json:"views"`
	CreatedAt     time.Time       `json:"created_at"`
	LandlordName  *string         `json:"landlord_name"`
	LandlordEmail *string         `json:"landlord_email"`
	LandlordPhone *string         `json:"landlord_phone"`
	Images        []string        `json:"images" gorm:"-"`
	IsFavorite    bool            `json:"is_favorite" gorm:"-"`
}

// GetListing counts every call as a view, repeated visits included.
func GetListing(c *fiber.Ctx) error {
	id := request.ID(c, "id")
	if id == 0 {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid listing ID")
	}

	res := db(c).Model(&model.Listing{}).
		Where("id = ? AND is_active = ?", id, true).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return serverError(c, "listings.Detail", res.Error, "Failed to retrieve listing")
	}
	if res.RowsAffected == 0 {
		return response.Fail(c, fiber.StatusNotFound, "Listing not found")
	}

	var detail ListingDetail
	err := db(c).Raw(`SELECT l.id, l.user_id, l.title, l.description, l.rent, l.address, l.city, l.gender,
	l.furnished, l.amenities, l.available_from, l.is_active, l.views, l.created_at,
	u.name AS landlord_name, u.email AS landlord_email, u.phone AS landlord_phone
FROM listings l
LEFT JOIN users u ON l.user_id = u.id
WHERE l.id = ? AND l.is_active = ?`, id, true).Scan(&detail).Error
	if err != nil {
		return serverError(c, "listings.Detail", err, "Failed to retrieve listing")
	}
	if detail.ID == 0 {
		return response.Fail(c, fiber.StatusNotFound, "Listing not found")
	}

	detail.Images = make([]string, 0)
	if err := db(c).Model(&model.ListingImage{}).
		Where("listing_id = ?", id).
		Order("display_order").
		Pluck("image_path", &detail.Images).Error; err != nil {
		return serverError(c, "listings.Detail", err, "Failed to retrieve listing")
	}

	if ident, ok := middleware.CurrentIdentity(c); ok {
		var n int64
		if err := db(c).Model(&model.Favorite{}).
			Where("user_id = ? AND listing_id = ?", ident.UserID, id).
			Count(&n).Error; err != nil {
			return serverError(c, "listings.Detail", err, "Failed to retrieve listing")
		}
		detail.IsFavorite = n > 0
	}

	return response.OK(c, "Listing details retrieved", detail)
}

func CreateListing(c *fiber.Ctx) error {
	ident, _ := middleware.CurrentIdentity(c)

	form, err := bindListingForm(c)
	if err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	listing := form.Listing
	listing.UserID = ident.UserID
	listing.IsActive = true

	err = db(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&listing).Error; err != nil {
			return err
		}
		return attachImages(tx, ident.UserID, listing.ID, form.Images)
	})
	if errors.Is(err, errInvalidImagePath) {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return serverError(c, "listings.Create", err, "Failed to create listing")
	}

	return response.Created(c, "Listing created successfully", fiber.Map{"listing_id": listing.ID})
}

// UpdateListing runs after OwnsListing; ownership is not re-checked inside the write.
func UpdateListing(c *fiber.Ctx) error {
	listing := middleware.OwnedListing(c)

	form, err := bindListingForm(c)
	if err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	listing.Title = form.Listing.Title
	listing.Description = form.Listing.Description
	listing.Rent = form.Listing.Rent
	listing.Address = form.Listing.Address
	listing.City = form.Listing.City
	listing.Gender = form.Listing.Gender
	listing.Furnished = form.Listing.Furnished
	listing.Amenities = form.Listing.Amenities
	listing.AvailableFrom = form.Listing.AvailableFrom

	err = db(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(listing).
			Select("title", "description", "rent", "address", "city", "gender", "furnished", "amenities", "available_from").
			Updates(listing).Error; err != nil {
			return err
		}
		if form.Images == nil {
			return nil
		}
		if err := tx.Where("listing_id = ?", listing.ID).Delete(&model.ListingImage{}).Error; err != nil {
			return err
		}
		return attachImages(tx, listing.UserID, listing.ID, form.Images)
	})
	if errors.Is(err, errInvalidImagePath) {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return serverError(c, "listings.Update", err, "Failed to update listing")
	}

	return response.OK(c, "Listing updated successfully", nil)
}

// DeleteListing is a soft delete; rows stay for the owner and the admin panel.
func DeleteListing(c *fiber.Ctx) error {
	listing := middleware.OwnedListing(c)

	if err := db(c).Model(listing).Update("is_active", false).Error; err != nil {
		return serverError(c, "listings.Delete", err, "Failed to delete listing")
	}
	return response.OK(c, "Listing deleted successfully", nil)
}

type MyListingRow struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Rent         float64   `json:"rent"`
	City         string    `json:"city"`
	IsActive     bool      `json:"is_active"`
	Views        int64     `json:"views"`
	CreatedAt    time.Time `json:"created_at"`
	Thumbnail    *string   `json:"thumbnail"`
	InquiryCount int64     `json:"inquiry_count"`
}

func MyListings(c *fiber.Ctx) error {
	ident, _ := middleware.CurrentIdentity(c)

	rows := make([]MyListingRow, 0)
	err := db(c).Raw(`SELECT l.id, l.title, l.rent, l.city, l.is_active, l.views, l.created_at,
	`+search.ThumbnailSQL+` AS thumbnail,
	(SELECT COUNT(*) FROM inquiries i WHERE i.listing_id = l.id) AS inquiry_count
FROM listings l
WHERE l.user_id = ?
ORDER BY l.created_at DESC, l.id DESC`, ident.UserID).Scan(&rows).Error
	if err != nil {
		return serverError(c, "listings.MyListings", err, "Failed to retrieve listings")
	}
	return response.OK(c, "Listings retrieved", rows)
}

type LatestListingRow struct {
	ID        uint    `json:"id"`
	Title     string  `json:"title"`
	Rent      float64 `json:"rent"`
	City      string  `json:"city"`
	Gender    string  `json:"gender"`
	Furnished bool    `json:"furnished"`
	Thumbnail *string `json:"thumbnail"`
}

// LatestLimit clamps the requested count into [1, 12]; missing or malformed means 6.
func LatestLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return defaultLatestLimit
	}
	if n < 1 {
		return 1
	}
	if n > maxLatestLimit {
		return maxLatestLimit
	}
	return n
}

func LatestListings(c *fiber.Ctx) error {
	limit := LatestLimit(request.Param(c, "limit"))

	rows := make([]LatestListingRow, 0)
	err := db(c).Raw(`SELECT l.id, l.title, l.rent, l.city, l.gender, l.furnished,
	`+search.ThumbnailSQL+` AS thumbnail
FROM listings l
WHERE l.is_active = ?
ORDER BY l.created_at DESC, l.id DESC
LIMIT ?`, true, limit).Scan(&rows).Error
	if err != nil {
		return serverError(c, "listings.Latest", err, "Failed to retrieve listings")
	}
	return response.OK(c, "Latest listings retrieved", rows)
}
