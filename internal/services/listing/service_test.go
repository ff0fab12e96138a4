package listing

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/souqly/backend/internal/domain"
	"github.com/souqly/backend/internal/models"
)

func ptr[T any](v T) *T { return &v }

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.ListingImage{},
		&models.CarDetails{},
		&models.PropertyDetails{},
	))
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewService(db, t.TempDir(), "/media/listings"), db
}

func createTestUser(t *testing.T, db *gorm.DB, staff bool) *models.User {
	t.Helper()
	role := models.RoleUser
	if staff {
		role = models.RoleAdmin
	}
	u := &models.User{
		Phone:        "+97150" + uuid.NewString()[:7],
		PasswordHash: "x",
		FullName:     "Test User",
		Role:         role,
		IsActive:     true,
		IsStaff:      staff,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func carInput() CreateInput {
	return CreateInput{
		Title:       "2020 Toyota Corolla",
		Description: "Well maintained, single owner.",
		Type:        models.ListingTypeCar,
		Purpose:     models.PurposeSale,
		Price:       45000,
		Location:    "Dubai",
		CarDetails: &CarDetailsInput{
			Make:         ptr("Toyota"),
			Model:        ptr("Corolla"),
			Year:         ptr(2020),
			Mileage:      ptr(42000),
			FuelType:     ptr("petrol"),
			Transmission: ptr("automatic"),
			Color:        ptr("white"),
		},
	}
}

func propertyInput() CreateInput {
	return CreateInput{
		Title:       "Two bedroom apartment",
		Description: "Bright apartment near the marina.",
		Type:        models.ListingTypeProperty,
		Purpose:     models.PurposeRent,
		Price:       95000,
		Location:    "Dubai Marina",
		PropertyDetails: &PropertyDetailsInput{
			PropertyType: ptr(models.PropertyApartment),
			Bedrooms:     ptr(2),
			Bathrooms:    ptr(2),
			Area:         ptr(1150.0),
			Amenities:    []string{"pool", "gym"},
		},
	}
}

func TestCreateCarListing(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)
	ctx := context.Background()

	l, err := svc.Create(ctx, owner.ID, carInput(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, l.Status, "new listings always start pending")
	assert.Equal(t, models.AdTypeSimple, l.AdType)
	assert.Equal(t, "AED", l.Currency)
	assert.Equal(t, "2020-toyota-corolla", l.Slug)
	assert.Equal(t, owner.ID, l.UserID)
	assert.Nil(t, l.StarExpiresAt)

	require.NotNil(t, l.CarDetails)
	assert.Equal(t, "Toyota", l.CarDetails.Make)
	assert.Equal(t, 2020, l.CarDetails.Year)
	assert.Nil(t, l.PropertyDetails)
}

func TestCreatePropertyListing(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)

	l, err := svc.Create(context.Background(), owner.ID, propertyInput(), nil)
	require.NoError(t, err)

	require.NotNil(t, l.PropertyDetails)
	assert.Equal(t, models.PropertyApartment, l.PropertyDetails.PropertyType)
	assert.Equal(t, 2, l.PropertyDetails.Bedrooms)
	assert.Equal(t, models.StringList{"pool", "gym"}, l.PropertyDetails.Amenities)
	assert.Nil(t, l.CarDetails)
}

func TestCreateStarAdGetsExpiry(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)

	in := carInput()
	in.AdType = models.AdTypeStar

	l, err := svc.Create(context.Background(), owner.ID, in, nil)
	require.NoError(t, err)
	assert.Equal(t, models.AdTypeStar, l.AdType)
	require.NotNil(t, l.StarExpiresAt)
	assert.WithinDuration(t, time.Now().Add(StarAdDuration), *l.StarExpiresAt, time.Minute)
}

func TestCreateRejectsMismatchedDetails(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)
	ctx := context.Background()

	missing := carInput()
	missing.CarDetails = nil
	_, err := svc.Create(ctx, owner.ID, missing, nil)
	assert.True(t, domain.IsValidation(err))

	crossed := carInput()
	crossed.PropertyDetails = propertyInput().PropertyDetails
	_, err = svc.Create(ctx, owner.ID, crossed, nil)
	assert.True(t, domain.IsValidation(err))

	badYear := carInput()
	badYear.CarDetails.Year = ptr(1850)
	_, err = svc.Create(ctx, owner.ID, badYear, nil)
	assert.True(t, domain.IsValidation(err))
}

func TestUpdatePartialDetailMergePreservesFields(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)
	ctx := context.Background()

	l, err := svc.Create(ctx, owner.ID, carInput(), nil)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, l.ID, Actor{ID: owner.ID}, UpdateInput{
		Price:      ptr(42000.0),
		CarDetails: &CarDetailsInput{Mileage: ptr(50000)},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 42000.0, updated.Price)
	require.NotNil(t, updated.CarDetails)
	assert.Equal(t, 50000, updated.CarDetails.Mileage)
	assert.Equal(t, "Toyota", updated.CarDetails.Make, "untouched detail fields survive a partial update")
	assert.Equal(t, 2020, updated.CarDetails.Year)
}

func TestUpdateTitleRegeneratesSlug(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)
	ctx := context.Background()

	l, err := svc.Create(ctx, owner.ID, carInput(), nil)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, l.ID, Actor{ID: owner.ID}, UpdateInput{
		Title: ptr("Honda Civic 2021"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "honda-civic-2021", updated.Slug)
}

func TestUpdateAdTypeTogglesStarExpiry(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)
	ctx := context.Background()

	l, err := svc.Create(ctx, owner.ID, carInput(), nil)
	require.NoError(t, err)

	starred, err := svc.Update(ctx, l.ID, Actor{ID: owner.ID}, UpdateInput{
		AdType: ptr(models.AdTypeStar),
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, starred.StarExpiresAt)

	demoted, err := svc.Update(ctx, l.ID, Actor{ID: owner.ID}, UpdateInput{
		AdType: ptr(models.AdTypeSimple),
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, demoted.StarExpiresAt)
}

func TestUpdateRejectsWrongDetailKind(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)
	ctx := context.Background()

	l, err := svc.Create(ctx, owner.ID, carInput(), nil)
	require.NoError(t, err)

	_, err = svc.Update(ctx, l.ID, Actor{ID: owner.ID}, UpdateInput{
		PropertyDetails: &PropertyDetailsInput{Bedrooms: ptr(3)},
	}, nil)
	assert.True(t, domain.IsValidation(err))
}

func TestUpdatePermissions(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)
	stranger := createTestUser(t, db, false)
	staff := createTestUser(t, db, true)
	ctx := context.Background()

	l, err := svc.Create(ctx, owner.ID, carInput(), nil)
	require.NoError(t, err)

	_, err = svc.Update(ctx, l.ID, Actor{ID: stranger.ID}, UpdateInput{Price: ptr(1.0)}, nil)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = svc.Update(ctx, l.ID, Actor{ID: staff.ID, Staff: true}, UpdateInput{Price: ptr(40000.0)}, nil)
	assert.NoError(t, err)
}

func TestApproveTransitions(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)
	staff := createTestUser(t, db, true)
	ctx := context.Background()
	staffActor := Actor{ID: staff.ID, Staff: true}

	l, err := svc.Create(ctx, owner.ID, carInput(), nil)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, l.ID, Actor{ID: owner.ID})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	approved, err := svc.Approve(ctx, l.ID, staffActor)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)

	again, err := svc.Approve(ctx, l.ID, staffActor)
	require.NoError(t, err, "repeating an approve is a no-op success")
	assert.Equal(t, models.StatusApproved, again.Status)
}

func TestRejectIsTerminal(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)
	staff := createTestUser(t, db, true)
	ctx := context.Background()
	staffActor := Actor{ID: staff.ID, Staff: true}

	l, err := svc.Create(ctx, owner.ID, carInput(), nil)
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, l.ID, staffActor)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	_, err = svc.Approve(ctx, l.ID, staffActor)
	assert.ErrorIs(t, err, domain.ErrTerminalStatus)

	again, err := svc.Reject(ctx, l.ID, staffActor)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, again.Status)
}

func TestMarkSold(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)
	stranger := createTestUser(t, db, false)
	staff := createTestUser(t, db, true)
	ctx := context.Background()
	ownerActor := Actor{ID: owner.ID}
	staffActor := Actor{ID: staff.ID, Staff: true}

	l, err := svc.Create(ctx, owner.ID, carInput(), nil)
	require.NoError(t, err)

	_, err = svc.MarkSold(ctx, l.ID, ownerActor)
	assert.ErrorIs(t, err, domain.ErrNotApproved, "a pending listing cannot be sold")

	_, err = svc.Approve(ctx, l.ID, staffActor)
	require.NoError(t, err)

	_, err = svc.MarkSold(ctx, l.ID, Actor{ID: stranger.ID})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	sold, err := svc.MarkSold(ctx, l.ID, ownerActor)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSold, sold.Status)

	again, err := svc.MarkSold(ctx, l.ID, ownerActor)
	require.NoError(t, err, "repeating mark_sold is a no-op success")
	assert.Equal(t, models.StatusSold, again.Status)

	_, err = svc.Approve(ctx, l.ID, staffActor)
	assert.ErrorIs(t, err, domain.ErrTerminalStatus)
}

func TestMarkSoldRejectedListing(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)
	staff := createTestUser(t, db, true)
	ctx := context.Background()

	l, err := svc.Create(ctx, owner.ID, carInput(), nil)
	require.NoError(t, err)
	_, err = svc.Reject(ctx, l.ID, Actor{ID: staff.ID, Staff: true})
	require.NoError(t, err)

	_, err = svc.MarkSold(ctx, l.ID, Actor{ID: owner.ID})
	assert.ErrorIs(t, err, domain.ErrTerminalStatus)
}

func TestListVisibilityGate(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)
	staff := createTestUser(t, db, true)
	ctx := context.Background()
	staffActor := Actor{ID: staff.ID, Staff: true}

	pending, err := svc.Create(ctx, owner.ID, carInput(), nil)
	require.NoError(t, err)

	visible, err := svc.Create(ctx, owner.ID, propertyInput(), nil)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, visible.ID, staffActor)
	require.NoError(t, err)

	public, total, err := svc.List(ctx, ParseFilters(url.Values{}, false), 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, public, 1)
	assert.Equal(t, visible.ID, public[0].ID)

	all, total, err := svc.List(ctx, ParseFilters(url.Values{}, true), 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	onlyPending, _, err := svc.List(ctx, ParseFilters(url.Values{"status": {"pending"}}, true), 20, 0)
	require.NoError(t, err)
	require.Len(t, onlyPending, 1)
	assert.Equal(t, pending.ID, onlyPending[0].ID)
}

func TestListCarFilters(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)
	staff := createTestUser(t, db, true)
	ctx := context.Background()
	staffActor := Actor{ID: staff.ID, Staff: true}

	toyota := carInput()
	l1, err := svc.Create(ctx, owner.ID, toyota, nil)
	require.NoError(t, err)

	honda := carInput()
	honda.Title = "2016 Honda Accord"
	honda.CarDetails.Make = ptr("Honda")
	honda.CarDetails.Model = ptr("Accord")
	honda.CarDetails.Year = ptr(2016)
	honda.Price = 30000
	l2, err := svc.Create(ctx, owner.ID, honda, nil)
	require.NoError(t, err)

	for _, id := range []uuid.UUID{l1.ID, l2.ID} {
		_, err := svc.Approve(ctx, id, staffActor)
		require.NoError(t, err)
	}

	byMake, _, err := svc.List(ctx, ParseFilters(url.Values{"make": {"toy"}}, false), 20, 0)
	require.NoError(t, err)
	require.Len(t, byMake, 1)
	assert.Equal(t, l1.ID, byMake[0].ID)

	byYear, _, err := svc.List(ctx, ParseFilters(url.Values{"min_year": {"2018"}}, false), 20, 0)
	require.NoError(t, err)
	require.Len(t, byYear, 1)
	assert.Equal(t, l1.ID, byYear[0].ID)

	// Contradictory bounds match nothing rather than erroring
	empty, total, err := svc.List(ctx, ParseFilters(url.Values{"min_year": {"2021"}, "max_year": {"2015"}}, false), 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, empty)

	byPrice, _, err := svc.List(ctx, ParseFilters(url.Values{"sort": {"price"}}, false), 20, 0)
	require.NoError(t, err)
	require.Len(t, byPrice, 2)
	assert.Equal(t, l2.ID, byPrice[0].ID)
}

func TestListPropertyFilters(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)
	staff := createTestUser(t, db, true)
	ctx := context.Background()
	staffActor := Actor{ID: staff.ID, Staff: true}

	small := propertyInput()
	_, err := svc.Create(ctx, owner.ID, small, nil)
	require.NoError(t, err)

	large := propertyInput()
	large.Title = "Spacious villa"
	large.PropertyDetails.PropertyType = ptr(models.PropertyVilla)
	large.PropertyDetails.Bedrooms = ptr(5)
	large.PropertyDetails.Area = ptr(4200.0)
	villa, err := svc.Create(ctx, owner.ID, large, nil)
	require.NoError(t, err)

	all, _, err := svc.List(ctx, ParseFilters(url.Values{}, true), 20, 0)
	require.NoError(t, err)
	for _, l := range all {
		_, err := svc.Approve(ctx, l.ID, staffActor)
		require.NoError(t, err)
	}

	byBeds, _, err := svc.List(ctx, ParseFilters(url.Values{"min_bedrooms": {"4"}}, false), 20, 0)
	require.NoError(t, err)
	require.Len(t, byBeds, 1)
	assert.Equal(t, villa.ID, byBeds[0].ID)

	byType, _, err := svc.List(ctx, ParseFilters(url.Values{"property_type": {"villa"}}, false), 20, 0)
	require.NoError(t, err)
	require.Len(t, byType, 1)

	byLocation, _, err := svc.List(ctx, ParseFilters(url.Values{"location": {"marina"}}, false), 20, 0)
	require.NoError(t, err)
	assert.Len(t, byLocation, 2)
}

func TestListPagination(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)
	staff := createTestUser(t, db, true)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		l, err := svc.Create(ctx, owner.ID, carInput(), nil)
		require.NoError(t, err)
		_, err = svc.Approve(ctx, l.ID, Actor{ID: staff.ID, Staff: true})
		require.NoError(t, err)
	}

	page, total, err := svc.List(ctx, ParseFilters(url.Values{}, false), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page, 2)
}

func TestListByUserSeesAllOwnStatuses(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)
	other := createTestUser(t, db, false)
	staff := createTestUser(t, db, true)
	ctx := context.Background()

	mine, err := svc.Create(ctx, owner.ID, carInput(), nil)
	require.NoError(t, err)
	_, err = svc.Reject(ctx, mine.ID, Actor{ID: staff.ID, Staff: true})
	require.NoError(t, err)

	_, err = svc.Create(ctx, other.ID, carInput(), nil)
	require.NoError(t, err)

	results, total, err := svc.ListByUser(ctx, owner.ID, ParseFilters(url.Values{}, false), 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, results, 1)
	assert.Equal(t, mine.ID, results[0].ID)
	assert.Equal(t, models.StatusRejected, results[0].Status)
}

func TestDelete(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)
	stranger := createTestUser(t, db, false)
	ctx := context.Background()

	l, err := svc.Create(ctx, owner.ID, carInput(), nil)
	require.NoError(t, err)

	err = svc.Delete(ctx, l.ID, Actor{ID: stranger.ID})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	require.NoError(t, svc.Delete(ctx, l.ID, Actor{ID: owner.ID}))

	_, err = svc.Get(ctx, l.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExpireStarAds(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)
	ctx := context.Background()

	in := carInput()
	in.AdType = models.AdTypeStar
	l, err := svc.Create(ctx, owner.ID, in, nil)
	require.NoError(t, err)

	lapsed := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.Listing{}).Where("id = ?", l.ID).
		Update("star_expires_at", lapsed).Error)

	fresh := carInput()
	fresh.AdType = models.AdTypeStar
	still, err := svc.Create(ctx, owner.ID, fresh, nil)
	require.NoError(t, err)

	n, err := svc.ExpireStarAds(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	demoted, err := svc.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AdTypeSimple, demoted.AdType)
	assert.Nil(t, demoted.StarExpiresAt)

	kept, err := svc.Get(ctx, still.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AdTypeStar, kept.AdType)
}

func TestPurgeDeleted(t *testing.T) {
	svc, db := newTestService(t)
	owner := createTestUser(t, db, false)
	ctx := context.Background()

	old, err := svc.Create(ctx, owner.ID, carInput(), nil)
	require.NoError(t, err)
	recent, err := svc.Create(ctx, owner.ID, carInput(), nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, old.ID, Actor{ID: owner.ID}))
	require.NoError(t, svc.Delete(ctx, recent.ID, Actor{ID: owner.ID}))

	stale := time.Now().Add(-40 * 24 * time.Hour)
	require.NoError(t, db.Unscoped().Model(&models.Listing{}).Where("id = ?", old.ID).
		Update("deleted_at", stale).Error)

	n, err := svc.PurgeDeleted(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var count int64
	require.NoError(t, db.Unscoped().Model(&models.Listing{}).Where("id = ?", old.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	require.NoError(t, db.Unscoped().Model(&models.Listing{}).Where("id = ?", recent.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
