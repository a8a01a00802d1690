package search

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pgfinder_backend/internal/model"
	"pgfinder_backend/pkg/logger"
)

// dryRunDB renders statements with the postgres dialect without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "host=127.0.0.1 user=pgfinder dbname=pgfinder sslmode=disable",
		PreferSimpleProtocol: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true, Logger: gormlogger.Discard})
	require.NoError(t, err)
	return db
}

func TestGormStore_CountStatement(t *testing.T) {
	db := dryRunDB(t)
	f := Compile(Build(SearchCriteria{City: "Pune", Search: "100%", Page: 1}))

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var total int64
		return (&GormStore{db: tx}).countQuery(context.Background(), f, &total)
	})

	assert.Equal(t,
		`SELECT COUNT(*) FROM listings l WHERE l.is_active = true AND LOWER(l.city) LIKE '%pune%' ESCAPE '\' AND `+
			`(LOWER(l.title) LIKE '%100\%%' ESCAPE '\' OR LOWER(l.description) LIKE '%100\%%' ESCAPE '\' OR LOWER(l.address) LIKE '%100\%%' ESCAPE '\')`,
		sql)
}

func TestGormStore_PageStatementBindsLimitAndOffset(t *testing.T) {
	db := dryRunDB(t)
	f := Compile(Build(SearchCriteria{MinRent: floatPtr(3000), Gender: model.GenderFemale, Page: 3}))

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []ListingRow
		return (&GormStore{db: tx}).pageQuery(context.Background(), f, model.ListingsPerPage, 24, &rows)
	})

	assert.Contains(t, sql, "WHERE l.is_active = true AND l.rent >= 3000 AND (l.gender = 'female' OR l.gender = 'any')\n")
	assert.Contains(t, sql, "AS thumbnail")
	assert.Contains(t, sql, "ORDER BY l.created_at DESC, l.id DESC")
	assert.Contains(t, sql, "LIMIT 12 OFFSET 24")
}

// openTestDB connects to PGFINDER_TEST_DSN and works inside a private schema
// that is dropped when the test ends.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("PGFINDER_TEST_DSN")
	if dsn == "" {
		t.Skip("PGFINDER_TEST_DSN not set")
	}

	db, err := gorm.Open(postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}),
		&gorm.Config{Logger: gormlogger.Discard, TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	schema := fmt.Sprintf("search_test_%d", time.Now().UnixNano())
	require.NoError(t, db.Exec("CREATE SCHEMA "+schema).Error)
	require.NoError(t, db.Exec("SET search_path TO "+schema).Error)
	t.Cleanup(func() {
		db.Exec("DROP SCHEMA " + schema + " CASCADE")
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Listing{}, &model.ListingImage{}, &model.Favorite{}, &model.Inquiry{}))
	return db
}

func seedLandlord(t *testing.T, db *gorm.DB, email string) model.User {
	t.Helper()
	u := model.User{Name: "Meera", Email: email, Phone: "9876543210", Password: "x", Role: model.RoleLandlord, IsActive: true}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedListing(t *testing.T, db *gorm.DB, l model.Listing, active bool) model.Listing {
	t.Helper()
	if l.Gender == "" {
		l.Gender = model.GenderAny
	}
	if l.Address == "" {
		l.Address = "Station Road"
	}
	l.IsActive = true
	require.NoError(t, db.Create(&l).Error)
	if !active {
		require.NoError(t, db.Model(&l).UpdateColumn("is_active", false).Error)
	}
	return l
}

func TestGormStore_PuneScenario(t *testing.T) {
	db := openTestDB(t)
	owner := seedLandlord(t, db, "meera@example.com")
	a := seedListing(t, db, model.Listing{UserID: owner.ID, Title: "A", Rent: 10000, City: "Pune", CreatedAt: base}, true)
	seedListing(t, db, model.Listing{UserID: owner.ID, Title: "B", Rent: 12000, City: "Pune", CreatedAt: base.Add(time.Hour)}, false)
	images := model.BuildImages(a.ID, []string{"uploads/a1.png", "uploads/a2.png"})
	require.NoError(t, db.Create(&images).Error)

	res, err := NewService(NewExecutor(NewGormStore(db), false), logger.Discard()).
		Search(context.Background(), RawParams{City: "pune"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	assert.Equal(t, 1, res.Pages)
	require.Len(t, res.Listings, 1)
	row := res.Listings[0]
	assert.Equal(t, a.ID, row.ID)
	assert.Equal(t, 10000.0, row.Rent)
	require.NotNil(t, row.Thumbnail)
	assert.Equal(t, "uploads/a1.png", *row.Thumbnail)
	require.NotNil(t, row.LandlordName)
	assert.Equal(t, "Meera", *row.LandlordName)
}

func TestGormStore_MumbaiPagination(t *testing.T) {
	db := openTestDB(t)
	owner := seedLandlord(t, db, "owner@example.com")
	for i := 1; i <= 13; i++ {
		seedListing(t, db, model.Listing{
			UserID: owner.ID, Title: fmt.Sprintf("Flat %d", i), Rent: 15000, City: "Mumbai",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}, true)
	}

	for _, snapshot := range []bool{false, true} {
		svc := NewService(NewExecutor(NewGormStore(db), snapshot), logger.Discard())

		page1, err := svc.Search(context.Background(), RawParams{City: "Mumbai"})
		require.NoError(t, err)
		assert.Len(t, page1.Listings, 12)
		assert.Equal(t, int64(13), page1.Total)
		assert.Equal(t, 2, page1.Pages)
		assert.Equal(t, "Flat 13", page1.Listings[0].Title)

		page2, err := svc.Search(context.Background(), RawParams{City: "Mumbai", Page: "2"})
		require.NoError(t, err)
		require.Len(t, page2.Listings, 1)
		assert.Equal(t, "Flat 1", page2.Listings[0].Title)

		far, err := svc.Search(context.Background(), RawParams{City: "Mumbai", Page: "9223372036854775807"})
		require.NoError(t, err)
		assert.Empty(t, far.Listings)
		assert.Equal(t, int64(13), far.Total)
	}
}

func TestGormStore_WildcardsMatchLiterally(t *testing.T) {
	db := openTestDB(t)
	owner := seedLandlord(t, db, "owner@example.com")
	veg := seedListing(t, db, model.Listing{UserID: owner.ID, Title: "100% veg mess", Rent: 5000, City: "Nagpur", CreatedAt: base}, true)
	seedListing(t, db, model.Listing{UserID: owner.ID, Title: "1000 sqft flat", Rent: 9000, City: "Nagpur", CreatedAt: base}, true)
	seedListing(t, db, model.Listing{UserID: owner.ID, Title: "Room", Rent: 4000, City: "N_gpur", CreatedAt: base}, true)

	svc := NewService(NewExecutor(NewGormStore(db), false), logger.Discard())

	res, err := svc.Search(context.Background(), RawParams{Search: "100%"})
	require.NoError(t, err)
	assert.Equal(t, []uint{veg.ID}, ids(res.Listings))

	res, err = svc.Search(context.Background(), RawParams{City: "n_g"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
}
