package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderAny    Gender = "any"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderAny:
		return true
	}
	return false
}

const (
	ListingsPerPage     = 12
	MaxImagesPerListing = 5
	DateLayout          = "2006-01-02"
)

type Listing struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	UserID        uint            `json:"user_id" gorm:"index;not null"`
	Title         string          `json:"title" gorm:"size:200;not null"`
	Description   string          `json:"description" gorm:"type:text"`
	Rent          float64         `json:"rent" gorm:"type:numeric(10,2);not null"`
	Address       string          `json:"address" gorm:"type:text;not null"`
	City          string          `json:"city" gorm:"size:100;index;not null"`
	Gender        Gender          `json:"gender" gorm:"size:10;not null;default:any"`
	Furnished     bool            `json:"furnished" gorm:"not null;default:false"`
	Amenities     string          `json:"amenities" gorm:"type:text"`
	AvailableFrom *datatypes.Date `json:"available_from"`
	IsActive      bool            `json:"is_active" gorm:"index;not null;default:true"`
	Views         int64           `json:"views" gorm:"not null;default:0"`
	CreatedAt     time.Time       `json:"created_at" gorm:"index"`

	// Relations
	Images    []ListingImage `json:"-" gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`
	Favorites []Favorite     `json:"-" gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`
	Inquiries []Inquiry      `json:"-" gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`
}

type ListingImage struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	ListingID    uint      `json:"listing_id" gorm:"index;not null"`
	ImagePath    string    `json:"image_path" gorm:"size:500;not null"`
	IsPrimary    bool      `json:"is_primary" gorm:"not null;default:false"`
	DisplayOrder int       `json:"display_order" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
}

// BeforeSave keeps stored values inside the accepted domain.
func (l *Listing) BeforeSave(tx *gorm.DB) error {
	if !l.Gender.Valid() {
		l.Gender = GenderAny
	}
	l.Amenities = NormalizeAmenities(l.Amenities)
	return nil
}

// NormalizeAmenities trims, de-duplicates and re-joins a comma separated tag list.
func NormalizeAmenities(raw string) string {
	seen := make(map[string]bool)
	tags := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, tag)
	}
	return strings.Join(tags, ",")
}

// BuildImages turns an ordered path list into image rows: the first is primary, order starts at 1.
func BuildImages(listingID uint, paths []string) []ListingImage {
	images := make([]ListingImage, 0, len(paths))
	for i, p := range paths {
		images = append(images, ListingImage{
			ListingID:    listingID,
			ImagePath:    p,
			IsPrimary:    i == 0,
			DisplayOrder: i + 1,
		})
	}
	return images
}

func ParseAvailableFrom(raw string) (*datatypes.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, err
	}
	d := datatypes.Date(t)
	return &d, nil
}
