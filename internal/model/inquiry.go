package model

import "time"

type InquiryStatus string

const (
	InquiryStatusPending   InquiryStatus = "pending"
	InquiryStatusResponded InquiryStatus = "responded"
	InquiryStatusClosed    InquiryStatus = "closed"
)

func (s InquiryStatus) Valid() bool {
	switch s {
	case InquiryStatusPending, InquiryStatusResponded, InquiryStatusClosed:
		return true
	}
	return false
}

type Inquiry struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	ListingID uint          `json:"listing_id" gorm:"index;not null"`
	UserID    *uint         `json:"user_id" gorm:"index"` // nil for anonymous senders
	Name      string        `json:"name" gorm:"size:100;not null"`
	Email     string        `json:"email" gorm:"size:255;not null"`
	Phone     string        `json:"phone" gorm:"size:20;not null"`
	Message   string        `json:"message" gorm:"type:text"`
	Status    InquiryStatus `json:"status" gorm:"size:20;not null;default:pending"`
	CreatedAt time.Time     `json:"created_at" gorm:"index"`
}

type Favorite struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_user_listing;not null"`
	ListingID uint      `json:"listing_id" gorm:"uniqueIndex:idx_user_listing;not null"`
	CreatedAt time.Time `json:"created_at"`
}
