package listing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/souqly/backend/internal/domain"
	"github.com/souqly/backend/internal/models"
)

// StarAdDuration is how long a star ad stays featured before the nightly
// maintenance job demotes it back to simple.
const StarAdDuration = 30 * 24 * time.Hour

// Service implements listing CRUD, the moderation state machine and the
// maintenance sweeps over the listings store.
type Service struct {
	db        *gorm.DB
	uploadDir string
	baseURL   string
}

// NewService creates a listing service writing image files under uploadDir
func NewService(db *gorm.DB, uploadDir, baseURL string) *Service {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		log.Printf("Failed to create upload directory: %v", err)
	}

	return &Service{
		db:        db,
		uploadDir: uploadDir,
		baseURL:   baseURL,
	}
}

// Actor identifies the user performing an operation
type Actor struct {
	ID    uuid.UUID
	Staff bool
}

// CarDetailsInput carries car sub-detail fields. All fields are pointers so
// updates can distinguish "absent" from "zero".
type CarDetailsInput struct {
	Make         *string `json:"make"`
	Model        *string `json:"model"`
	Year         *int    `json:"year"`
	Mileage      *int    `json:"mileage"`
	FuelType     *string `json:"fuel_type"`
	Transmission *string `json:"transmission"`
	Color        *string `json:"color"`
	EngineSize   *string `json:"engine_size"`
}

// PropertyDetailsInput carries property sub-detail fields
type PropertyDetailsInput struct {
	PropertyType *string  `json:"property_type"`
	Bedrooms     *int     `json:"bedrooms"`
	Bathrooms    *int     `json:"bathrooms"`
	Area         *float64 `json:"area"`
	Floor        *int     `json:"floor"`
	Furnished    *bool    `json:"furnished"`
	Amenities    []string `json:"amenities"`
}

// CreateInput is the payload for creating a listing. Status is not part of
// it: every new listing starts pending regardless of client input.
type CreateInput struct {
	Title       string  `json:"title" binding:"required,max=255"`
	Description string  `json:"description" binding:"required"`
	Type        string  `json:"type" binding:"required"`
	Purpose     string  `json:"purpose" binding:"required"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Currency    string  `json:"currency"`
	Location    string  `json:"location" binding:"required,max=255"`
	AdType      string  `json:"ad_type"`

	CarDetails      *CarDetailsInput      `json:"car_details"`
	PropertyDetails *PropertyDetailsInput `json:"property_details"`
}

// UpdateInput is the payload for partially updating a listing. The listing
// type is immutable after creation; status changes go through moderation.
type UpdateInput struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Purpose     *string  `json:"purpose"`
	Price       *float64 `json:"price"`
	Currency    *string  `json:"currency"`
	Location    *string  `json:"location"`
	AdType      *string  `json:"ad_type"`

	CarDetails      *CarDetailsInput      `json:"car_details"`
	PropertyDetails *PropertyDetailsInput `json:"property_details"`
}

// Create validates the input, stores the listing with its typed details and
// image set, and forces status to pending.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput, images []ImageUpload) (*models.Listing, error) {
	if err := validateCreate(&in); err != nil {
		return nil, err
	}

	metas, err := ValidateImages(images)
	if err != nil {
		return nil, err
	}

	l := &models.Listing{
		Title:       in.Title,
		Slug:        slug.Make(in.Title),
		Description: in.Description,
		Type:        in.Type,
		Purpose:     in.Purpose,
		Price:       in.Price,
		Currency:    in.Currency,
		Location:    in.Location,
		Status:      models.StatusPending,
		AdType:      in.AdType,
		UserID:      userID,
	}
	if l.AdType == models.AdTypeStar {
		expires := time.Now().Add(StarAdDuration)
		l.StarExpiresAt = &expires
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(l).Error; err != nil {
			return err
		}

		switch l.Type {
		case models.ListingTypeCar:
			if err := tx.Create(carDetailsFromInput(l.ID, in.CarDetails)).Error; err != nil {
				return err
			}
		case models.ListingTypeProperty:
			if err := tx.Create(propertyDetailsFromInput(l.ID, in.PropertyDetails)).Error; err != nil {
				return err
			}
		}

		return s.storeImages(tx, l.ID, images, metas)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	return s.Get(ctx, l.ID)
}

// Get loads a listing with its images (in display order) and typed details
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var l models.Listing
	err := s.preloaded(s.db.WithContext(ctx)).First(&l, "listings.id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// List returns the filtered page of listings and the total match count
func (s *Service) List(ctx context.Context, f Filters, limit, offset int) ([]models.Listing, int64, error) {
	var total int64
	if err := f.Apply(s.base(ctx)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []models.Listing
	q := s.preloaded(f.Apply(s.base(ctx)).Select("listings.*"))
	if err := q.Limit(limit).Offset(offset).Find(&results).Error; err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

// ListByUser returns the owner's listings in any status, ignoring the
// visibility gate but honoring the remaining filters.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, f Filters, limit, offset int) ([]models.Listing, int64, error) {
	f.Staff = true // the gate does not apply to the owner's own listings

	var total int64
	if err := f.Apply(s.base(ctx)).Where("listings.user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []models.Listing
	q := s.preloaded(f.Apply(s.base(ctx)).Select("listings.*").Where("listings.user_id = ?", userID))
	if err := q.Limit(limit).Offset(offset).Find(&results).Error; err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

// Update partially updates a listing owned by the actor (or any listing for
// staff). Provided detail fields are merged; untouched fields are preserved.
// A non-nil images slice replaces the whole image set.
func (s *Service) Update(ctx context.Context, id uuid.UUID, actor Actor, in UpdateInput, images []ImageUpload) (*models.Listing, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.UserID != actor.ID && !actor.Staff {
		return nil, domain.ErrPermissionDenied
	}

	if err := validateUpdate(l, &in); err != nil {
		return nil, err
	}

	var metas []ImageMeta
	if images != nil {
		if metas, err = ValidateImages(images); err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := listingUpdates(&in)
		if len(updates) > 0 {
			if err := tx.Model(l).Updates(updates).Error; err != nil {
				return err
			}
		}

		if in.CarDetails != nil {
			if err := s.mergeCarDetails(tx, l, in.CarDetails); err != nil {
				return err
			}
		}
		if in.PropertyDetails != nil {
			if err := s.mergePropertyDetails(tx, l, in.PropertyDetails); err != nil {
				return err
			}
		}

		if images != nil {
			if err := s.removeImages(tx, l.ID); err != nil {
				return err
			}
			if err := s.storeImages(tx, l.ID, images, metas); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	return s.Get(ctx, id)
}

// listingUpdates maps the provided scalar fields onto a column update set.
// A title change regenerates the slug; switching ad type to star starts a
// fresh featured period, switching back to simple ends it.
func listingUpdates(in *UpdateInput) map[string]interface{} {
	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = *in.Title
		updates["slug"] = slug.Make(*in.Title)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Purpose != nil {
		updates["purpose"] = *in.Purpose
	}
	if in.Price != nil {
		updates["price"] = *in.Price
	}
	if in.Currency != nil {
		updates["currency"] = *in.Currency
	}
	if in.Location != nil {
		updates["location"] = SanitizeString(*in.Location, maxLocationLen)
	}
	if in.AdType != nil {
		updates["ad_type"] = *in.AdType
		if *in.AdType == models.AdTypeStar {
			updates["star_expires_at"] = time.Now().Add(StarAdDuration)
		} else {
			updates["star_expires_at"] = nil
		}
	}
	return updates
}

// Delete removes a listing together with its images and typed details.
// Owner or staff only.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor Actor) error {
	l, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if l.UserID != actor.ID && !actor.Staff {
		return domain.ErrPermissionDenied
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.removeImages(tx, l.ID); err != nil {
			return err
		}
		if err := tx.Where("listing_id = ?", l.ID).Delete(&models.CarDetails{}).Error; err != nil {
			return err
		}
		if err := tx.Where("listing_id = ?", l.ID).Delete(&models.PropertyDetails{}).Error; err != nil {
			return err
		}
		return tx.Delete(l).Error
	})
}

// Approve transitions a pending listing to approved. Staff only. Approving
// an already approved listing is a no-op success.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, actor Actor) (*models.Listing, error) {
	return s.transition(ctx, id, actor, models.StatusApproved)
}

// Reject transitions a pending listing to rejected. Staff only. Rejecting an
// already rejected listing is a no-op success.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, actor Actor) (*models.Listing, error) {
	return s.transition(ctx, id, actor, models.StatusRejected)
}

// MarkSold transitions an approved listing to sold. Owner or staff only.
func (s *Service) MarkSold(ctx context.Context, id uuid.UUID, actor Actor) (*models.Listing, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.UserID != actor.ID && !actor.Staff {
		return nil, domain.ErrPermissionDenied
	}

	switch l.Status {
	case models.StatusSold:
		return l, nil // idempotent
	case models.StatusRejected:
		return nil, domain.ErrTerminalStatus
	case models.StatusPending:
		return nil, domain.ErrNotApproved
	}

	if err := s.setStatus(ctx, l, models.StatusSold); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, actor Actor, target string) (*models.Listing, error) {
	if !actor.Staff {
		return nil, domain.ErrPermissionDenied
	}

	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if l.Status == target {
		return l, nil // idempotent
	}
	if l.Terminal() {
		return nil, domain.ErrTerminalStatus
	}

	if err := s.setStatus(ctx, l, target); err != nil {
		return nil, err
	}
	return l, nil
}

// setStatus persists a status transition as a single-row update
func (s *Service) setStatus(ctx context.Context, l *models.Listing, status string) error {
	l.Status = status
	return s.db.WithContext(ctx).Model(l).Update("status", status).Error
}

// ExpireStarAds demotes star ads whose featured period has lapsed
func (s *Service) ExpireStarAds(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Listing{}).
		Where("ad_type = ? AND star_expires_at IS NOT NULL AND star_expires_at < ?", models.AdTypeStar, time.Now()).
		Updates(map[string]interface{}{
			"ad_type":         models.AdTypeSimple,
			"star_expires_at": nil,
		})
	return res.RowsAffected, res.Error
}

// PurgeDeleted hard-deletes listings soft-deleted longer ago than olderThan,
// together with their images and typed details.
func (s *Service) PurgeDeleted(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	var stale []models.Listing
	err := s.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Find(&stale).Error
	if err != nil {
		return 0, err
	}

	var purged int64
	for _, l := range stale {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var images []models.ListingImage
			if err := tx.Unscoped().Where("listing_id = ?", l.ID).Find(&images).Error; err != nil {
				return err
			}
			for _, img := range images {
				if img.Path != "" {
					_ = os.Remove(img.Path)
				}
			}

			if err := tx.Unscoped().Where("listing_id = ?", l.ID).Delete(&models.ListingImage{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("listing_id = ?", l.ID).Delete(&models.CarDetails{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("listing_id = ?", l.ID).Delete(&models.PropertyDetails{}).Error; err != nil {
				return err
			}
			return tx.Unscoped().Delete(&models.Listing{}, "id = ?", l.ID).Error
		})
		if err != nil {
			return purged, err
		}
		purged++
	}

	return purged, nil
}

func (s *Service) base(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Listing{})
}

// preloaded attaches the standard association loads, images in display order
func (s *Service) preloaded(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC, created_at ASC, id ASC")
		}).
		Preload("CarDetails").
		Preload("PropertyDetails").
		Preload("User")
}

// storeImages writes the files to disk and records the ordered image set
func (s *Service) storeImages(tx *gorm.DB, listingID uuid.UUID, images []ImageUpload, metas []ImageMeta) error {
	for i, img := range images {
		name := fmt.Sprintf("%s_%d%s", listingID, i, filepath.Ext(img.Filename))
		path := filepath.Join(s.uploadDir, name)
		if err := os.WriteFile(path, img.Data, 0644); err != nil {
			return fmt.Errorf("failed to store image %s: %w", img.Filename, err)
		}

		record := models.ListingImage{
			ListingID:   listingID,
			Path:        path,
			URL:         s.baseURL + "/" + name,
			ContentType: metas[i].ContentType,
			SizeBytes:   int64(len(img.Data)),
			Width:       metas[i].Width,
			Height:      metas[i].Height,
			Order:       i,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
	}
	return nil
}

// removeImages deletes the image records and their files
func (s *Service) removeImages(tx *gorm.DB, listingID uuid.UUID) error {
	var images []models.ListingImage
	if err := tx.Where("listing_id = ?", listingID).Find(&images).Error; err != nil {
		return err
	}
	for _, img := range images {
		if img.Path != "" {
			_ = os.Remove(img.Path)
		}
	}
	return tx.Where("listing_id = ?", listingID).Delete(&models.ListingImage{}).Error
}

func (s *Service) mergeCarDetails(tx *gorm.DB, l *models.Listing, in *CarDetailsInput) error {
	var existing models.CarDetails
	err := tx.Where("listing_id = ?", l.ID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(carDetailsFromInput(l.ID, in)).Error
	}
	if err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if in.Make != nil {
		updates["make"] = *in.Make
	}
	if in.Model != nil {
		updates["model"] = *in.Model
	}
	if in.Year != nil {
		updates["year"] = *in.Year
	}
	if in.Mileage != nil {
		updates["mileage"] = *in.Mileage
	}
	if in.FuelType != nil {
		updates["fuel_type"] = *in.FuelType
	}
	if in.Transmission != nil {
		updates["transmission"] = *in.Transmission
	}
	if in.Color != nil {
		updates["color"] = *in.Color
	}
	if in.EngineSize != nil {
		updates["engine_size"] = *in.EngineSize
	}
	if len(updates) == 0 {
		return nil
	}
	return tx.Model(&existing).Updates(updates).Error
}

func (s *Service) mergePropertyDetails(tx *gorm.DB, l *models.Listing, in *PropertyDetailsInput) error {
	var existing models.PropertyDetails
	err := tx.Where("listing_id = ?", l.ID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(propertyDetailsFromInput(l.ID, in)).Error
	}
	if err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if in.PropertyType != nil {
		updates["property_type"] = *in.PropertyType
	}
	if in.Bedrooms != nil {
		updates["bedrooms"] = *in.Bedrooms
	}
	if in.Bathrooms != nil {
		updates["bathrooms"] = *in.Bathrooms
	}
	if in.Area != nil {
		updates["area"] = *in.Area
	}
	if in.Floor != nil {
		updates["floor"] = *in.Floor
	}
	if in.Furnished != nil {
		updates["furnished"] = *in.Furnished
	}
	if in.Amenities != nil {
		updates["amenities"] = models.StringList(in.Amenities)
	}
	if len(updates) == 0 {
		return nil
	}
	return tx.Model(&existing).Updates(updates).Error
}

func carDetailsFromInput(listingID uuid.UUID, in *CarDetailsInput) *models.CarDetails {
	d := &models.CarDetails{
		ListingID:    listingID,
		Make:         *in.Make,
		Model:        *in.Model,
		Year:         *in.Year,
		Mileage:      *in.Mileage,
		FuelType:     *in.FuelType,
		Transmission: *in.Transmission,
		Color:        *in.Color,
	}
	if in.EngineSize != nil {
		d.EngineSize = in.EngineSize
	}
	return d
}

func propertyDetailsFromInput(listingID uuid.UUID, in *PropertyDetailsInput) *models.PropertyDetails {
	d := &models.PropertyDetails{
		ListingID:    listingID,
		PropertyType: *in.PropertyType,
		Bedrooms:     *in.Bedrooms,
		Bathrooms:    *in.Bathrooms,
		Area:         *in.Area,
	}
	if in.Floor != nil {
		d.Floor = in.Floor
	}
	if in.Furnished != nil {
		d.Furnished = *in.Furnished
	}
	if in.Amenities != nil {
		d.Amenities = models.StringList(in.Amenities)
	} else {
		d.Amenities = models.StringList{}
	}
	return d
}
