package controller

import (
	"context"
	"errors"
	"strings"
	"time"

	"pgfinder_backend/internal/middleware"
	"pgfinder_backend/internal/model"
	"pgfinder_backend/internal/search"
	"pgfinder_backend/pkg/email"
	"pgfinder_backend/pkg/utils/request"
	"pgfinder_backend/pkg/utils/response"
	"pgfinder_backend/pkg/utils/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type InquiryInput struct {
	Name    string `form:"name" validate:"required,max=100"`
	Email   string `form:"email" validate:"required,email"`
	Phone   string `form:"phone" validate:"required,phone"`
	Message string `form:"message" validate:"max=2000"`
}

func InquiryActions() Actions {
	isLandlord := middleware.HasRole(model.RoleLandlord)
	return Actions{
		"send":          Post(SendInquiry),
		"list":          Get(ListInquiries, isLandlord),
		"my-inquiries":  Get(MyInquiries, middleware.Authenticated),
		"update-status": Post(UpdateInquiryStatus, isLandlord),
	}
}

type inquiryTarget struct {
	ID            uint
	Title         string
	LandlordName  string
	LandlordEmail string
}

func SendInquiry(c *fiber.Ctx) error {
	input := InquiryInput{
		Name:    request.Trimmed(c, "name"),
		Email:   strings.ToLower(request.Trimmed(c, "email")),
		Phone:   validation.NormalizePhone(request.Param(c, "phone")),
		Message: request.Trimmed(c, "message"),
	}
	if err := validation.Struct(input); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	listingID := request.ID(c, "listing_id")
	if listingID == 0 {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid listing ID")
	}

	var target inquiryTarget
	err := db(c).Raw(`SELECT l.id, l.title, u.name AS landlord_name, u.email AS landlord_email
FROM listings l
JOIN users u ON l.user_id = u.id
WHERE l.id = ? AND l.is_active = ?`, listingID, true).Scan(&target).Error
	if err != nil {
		return serverError(c, "inquiries.Send", err, "Failed to send inquiry")
	}
	if target.ID == 0 {
		return response.Fail(c, fiber.StatusNotFound, "Listing not found")
	}

	inquiry := model.Inquiry{
		ListingID: listingID,
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Message:   input.Message,
		Status:    model.InquiryStatusPending,
	}
	if ident, ok := middleware.CurrentIdentity(c); ok {
		inquiry.UserID = &ident.UserID
	}

	if err := db(c).Create(&inquiry).Error; err != nil {
		return serverError(c, "inquiries.Send", err, "Failed to send inquiry")
	}

	notifyLandlord(c.UserContext(), target, input)

	return response.Created(c, "Inquiry sent successfully. The landlord will contact you soon.", fiber.Map{"inquiry_id": inquiry.ID})
}

// notifyLandlord is best effort; a failed e-mail never fails the inquiry.
func notifyLandlord(ctx context.Context, target inquiryTarget, input InquiryInput) {
	if email.GlobalEmailService == nil || target.LandlordEmail == "" {
		return
	}
	err := email.GlobalEmailService.SendInquiryNotification(ctx, target.LandlordEmail, email.InquiryNotificationData{
		LandlordName:  target.LandlordName,
		ListingTitle:  target.Title,
		InquirerName:  input.Name,
		InquirerEmail: input.Email,
		InquirerPhone: input.Phone,
		Message:       input.Message,
	})
	if err != nil {
		log.Warn("could not send inquiry notification", "op", "inquiries.Send", "listing_id", target.ID, "error", err)
	}
}

type LandlordInquiryRow struct {
	ID           uint                `json:"id"`
	ListingID    uint                `json:"listing_id"`
	UserID       *uint               `json:"user_id"`
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Phone        string              `json:"phone"`
	Message      string              `json:"message"`
	Status       model.InquiryStatus `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	ListingTitle string              `json:"listing_title"`
}

func ListInquiries(c *fiber.Ctx) error {
	ident, _ := middleware.CurrentIdentity(c)

	query := db(c).Table("inquiries i").
		Select("i.id, i.listing_id, i.user_id, i.name, i.email, i.phone, i.message, i.status, i.created_at, l.title AS listing_title").
		Joins("JOIN listings l ON i.listing_id = l.id").
		Where("l.user_id = ?", ident.UserID)

	if listingID := request.ID(c, "listing_id"); listingID > 0 {
		query = query.Where("i.listing_id = ?", listingID)
	}

	rows := make([]LandlordInquiryRow, 0)
	if err := query.Order("i.created_at DESC, i.id DESC").Scan(&rows).Error; err != nil {
		return serverError(c, "inquiries.List", err, "Failed to retrieve inquiries")
	}
	return response.OK(c, "Inquiries retrieved", rows)
}

type SentInquiryRow struct {
	ID            uint                `json:"id"`
	Message       string              `json:"message"`
	Status        model.InquiryStatus `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
	ListingID     uint                `json:"listing_id"`
	ListingTitle  string              `json:"listing_title"`
	Rent          float64             `json:"rent"`
	City          string              `json:"city"`
	LandlordName  *string             `json:"landlord_name"`
	LandlordPhone *string             `json:"landlord_phone"`
	Thumbnail     *string             `json:"thumbnail"`
}

func MyInquiries(c *fiber.Ctx) error {
	ident, _ := middleware.CurrentIdentity(c)

	rows := make([]SentInquiryRow, 0)
	err := db(c).Raw(`SELECT i.id, i.message, i.status, i.created_at,
	l.id AS listing_id, l.title AS listing_title, l.rent, l.city,
	u.name AS landlord_name, u.phone AS landlord_phone,
	`+search.ThumbnailSQL+` AS thumbnail
FROM inquiries i
JOIN listings l ON i.listing_id = l.id
LEFT JOIN users u ON l.user_id = u.id
WHERE i.user_id = ?
ORDER BY i.created_at DESC, i.id DESC`, ident.UserID).Scan(&rows).Error
	if err != nil {
		return serverError(c, "inquiries.MyInquiries", err, "Failed to retrieve inquiries")
	}
	return response.OK(c, "Inquiries retrieved", rows)
}

// inquiryOwnedBy reports ErrNotFound for a missing inquiry and ErrForbidden when
// the inquiry's listing belongs to someone else.
func inquiryOwnedBy(tx *gorm.DB, inquiryID, userID uint) error {
	var owner struct{ UserID uint }
	err := tx.Table("inquiries i").
		Select("l.user_id").
		Joins("JOIN listings l ON i.listing_id = l.id").
		Where("i.id = ?", inquiryID).
		Take(&owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner.UserID != userID {
		return model.ErrForbidden
	}
	return nil
}

func UpdateInquiryStatus(c *fiber.Ctx) error {
	ident, _ := middleware.CurrentIdentity(c)

	inquiryID := request.ID(c, "inquiry_id")
	if inquiryID == 0 {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid inquiry ID")
	}

	status := model.InquiryStatus(strings.ToLower(request.Trimmed(c, "status")))
	if !status.Valid() {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid status")
	}

	switch err := inquiryOwnedBy(db(c), inquiryID, ident.UserID); {
	case errors.Is(err, model.ErrNotFound):
		return response.Fail(c, fiber.StatusNotFound, "Inquiry not found")
	case errors.Is(err, model.ErrForbidden):
		return response.Fail(c, fiber.StatusForbidden, "You don't have permission to update this inquiry")
	case err != nil:
		return serverError(c, "inquiries.UpdateStatus", err, "Failed to update status")
	}

	if err := db(c).Model(&model.Inquiry{}).Where("id = ?", inquiryID).Update("status", status).Error; err != nil {
		return serverError(c, "inquiries.UpdateStatus", err, "Failed to update status")
	}
	return response.OK(c, "Status updated successfully", fiber.Map{"status": status})
}
