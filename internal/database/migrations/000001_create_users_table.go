package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// CreateUsersTable creates the users table
func CreateUsersTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_users_table",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				CREATE EXTENSION IF NOT EXISTS "pgcrypto";

				CREATE TABLE IF NOT EXISTS users (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					phone VARCHAR(20) NOT NULL UNIQUE,
					password_hash VARCHAR(255) NOT NULL,
					full_name VARCHAR(255) NOT NULL,
					email VARCHAR(255),
					profile_picture TEXT,
					role VARCHAR(10) NOT NULL DEFAULT 'user',
					is_active BOOLEAN DEFAULT TRUE,
					is_staff BOOLEAN DEFAULT FALSE,
					is_superuser BOOLEAN DEFAULT FALSE,
					two_factor_enabled BOOLEAN DEFAULT FALSE,
					two_factor_secret VARCHAR(255),
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX IF NOT EXISTS idx_users_phone ON users(phone);
				CREATE INDEX IF NOT EXISTS idx_users_deleted_at ON users(deleted_at);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`DROP TABLE IF EXISTS users;`).Error
		},
	}
}
