package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// CreateListingsTables creates the listings, images and typed details tables
func CreateListingsTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_listings_tables",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS listings (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					title VARCHAR(255) NOT NULL,
					slug VARCHAR(255),
					description TEXT NOT NULL,
					type VARCHAR(10) NOT NULL,
					purpose VARCHAR(10) NOT NULL,
					price DECIMAL(12,2) NOT NULL,
					currency VARCHAR(3) NOT NULL DEFAULT 'AED',
					location VARCHAR(255) NOT NULL,
					status VARCHAR(10) NOT NULL DEFAULT 'pending',
					ad_type VARCHAR(10) NOT NULL DEFAULT 'simple',
					star_expires_at TIMESTAMP WITH TIME ZONE,
					user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX IF NOT EXISTS idx_listings_type_purpose ON listings(type, purpose);
				CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status);
				CREATE INDEX IF NOT EXISTS idx_listings_ad_type ON listings(ad_type);
				CREATE INDEX IF NOT EXISTS idx_listings_created_at ON listings(created_at);
				CREATE INDEX IF NOT EXISTS idx_listings_user_id ON listings(user_id);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS listing_images (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
					path TEXT NOT NULL,
					url TEXT,
					content_type VARCHAR(50),
					size_bytes BIGINT,
					width INTEGER,
					height INTEGER,
					display_order INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX IF NOT EXISTS idx_listing_images_listing_id ON listing_images(listing_id);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS car_details (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					listing_id UUID NOT NULL UNIQUE REFERENCES listings(id) ON DELETE CASCADE,
					make VARCHAR(100) NOT NULL,
					model VARCHAR(100) NOT NULL,
					year INTEGER NOT NULL,
					mileage INTEGER NOT NULL,
					fuel_type VARCHAR(50) NOT NULL,
					transmission VARCHAR(50) NOT NULL,
					color VARCHAR(50) NOT NULL,
					engine_size VARCHAR(50),
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS property_details (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					listing_id UUID NOT NULL UNIQUE REFERENCES listings(id) ON DELETE CASCADE,
					property_type VARCHAR(20) NOT NULL,
					bedrooms INTEGER NOT NULL,
					bathrooms INTEGER NOT NULL,
					area DECIMAL(10,2) NOT NULL,
					floor INTEGER,
					furnished BOOLEAN DEFAULT FALSE,
					amenities JSONB NOT NULL DEFAULT '[]',
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`
				DROP TABLE IF EXISTS property_details;
				DROP TABLE IF EXISTS car_details;
				DROP TABLE IF EXISTS listing_images;
				DROP TABLE IF EXISTS listings;
			`).Error
		},
	}
}
