package search

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ListingRow is the search projection of a listing joined with its landlord and primary image.
type ListingRow struct {
	ID            uint            `json:"id"`
	Title         string          `json:"title"`
	Rent          float64         `json:"rent"`
	City          string          `json:"city"`
	Address       string          `json:"address"`
	Gender        string          `json:"gender"`
	Furnished     bool            `json:"furnished"`
	Amenities     string          `json:"amenities"`
	AvailableFrom *datatypes.Date `json:"available_from"`
	CreatedAt     time.Time       `json:"created_at"`
	LandlordName  *string         `json:"landlord_name"`
	LandlordPhone *string         `json:"landlord_phone"`
	Thumbnail     *string         `json:"thumbnail"`
}

// Store executes compiled filters. Implementations must bind Filter.Args positionally.
type Store interface {
	Count(ctx context.Context, f Filter) (int64, error)
	Find(ctx context.Context, f Filter, limit, offset int) ([]ListingRow, error)
}

// SnapshotStore can run several reads against one consistent snapshot.
type SnapshotStore interface {
	Store
	Snapshot(ctx context.Context, fn func(Store) error) error
}

// ThumbnailSQL selects the primary image path of the listing aliased as l, or NULL.
const ThumbnailSQL = `(SELECT li.image_path FROM listing_images li WHERE li.listing_id = l.id AND li.is_primary = true ORDER BY li.display_order LIMIT 1)`

func CountSQL(f Filter) string {
	return "SELECT COUNT(*) FROM listings l WHERE " + f.Where
}

func PageSQL(f Filter) string {
	return `SELECT l.id, l.title, l.rent, l.city, l.address, l.gender, l.furnished, l.amenities,
	l.available_from, l.created_at,
	u.name AS landlord_name, u.phone AS landlord_phone,
	` + ThumbnailSQL + ` AS thumbnail
FROM listings l
LEFT JOIN users u ON l.user_id = u.id
WHERE ` + f.Where + `
ORDER BY l.created_at DESC, l.id DESC
LIMIT ? OFFSET ?`
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Count(ctx context.Context, f Filter) (int64, error) {
	var total int64
	if err := s.countQuery(ctx, f, &total).Error; err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return total, nil
}

func (s *GormStore) Find(ctx context.Context, f Filter, limit, offset int) ([]ListingRow, error) {
	var rows []ListingRow
	if err := s.pageQuery(ctx, f, limit, offset, &rows).Error; err != nil {
		return nil, fmt.Errorf("select listings: %w", err)
	}
	return rows, nil
}

func (s *GormStore) countQuery(ctx context.Context, f Filter, total *int64) *gorm.DB {
	return s.db.WithContext(ctx).Raw(CountSQL(f), f.Args...).Scan(total)
}

func (s *GormStore) pageQuery(ctx context.Context, f Filter, limit, offset int, rows *[]ListingRow) *gorm.DB {
	args := make([]interface{}, 0, len(f.Args)+2)
	args = append(args, f.Args...)
	args = append(args, limit, offset)
	return s.db.WithContext(ctx).Raw(PageSQL(f), args...).Scan(rows)
}

func (s *GormStore) Snapshot(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
}
