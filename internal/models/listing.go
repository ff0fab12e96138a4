package models

import (
	"time"

	"github.com/google/uuid"
)

// Listing types
const (
	ListingTypeCar      = "car"
	ListingTypeProperty = "property"
)

// Listing purposes
const (
	PurposeSale = "sale"
	PurposeRent = "rent"
)

// Listing statuses. Pending listings await moderation; rejected and sold are
// terminal.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusSold     = "sold"
)

// Ad types
const (
	AdTypeSimple = "simple"
	AdTypeStar   = "star"
)

// Property types
const (
	PropertyApartment  = "apartment"
	PropertyHouse      = "house"
	PropertyVilla      = "villa"
	PropertyLand       = "land"
	PropertyCommercial = "commercial"
)

// Listing is a car or property posted for sale or rent
type Listing struct {
	Base
	Title         string     `gorm:"type:varchar(255);not null" json:"title"`
	Slug          string     `gorm:"type:varchar(255);index" json:"slug"`
	Description   string     `gorm:"type:text;not null" json:"description"`
	Type          string     `gorm:"type:varchar(10);not null;index:idx_listings_type_purpose" json:"type"`
	Purpose       string     `gorm:"type:varchar(10);not null;index:idx_listings_type_purpose" json:"purpose"`
	Price         float64    `gorm:"type:decimal(12,2);not null" json:"price"`
	Currency      string     `gorm:"type:varchar(3);default:'AED'" json:"currency"`
	Location      string     `gorm:"type:varchar(255);not null" json:"location"`
	Status        string     `gorm:"type:varchar(10);default:'pending';index" json:"status"`
	AdType        string     `gorm:"type:varchar(10);default:'simple';index" json:"ad_type"`
	StarExpiresAt *time.Time `json:"star_expires_at,omitempty"`

	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   User      `gorm:"foreignKey:UserID" json:"-"`

	Images          []ListingImage   `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"images"`
	CarDetails      *CarDetails      `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"car_details,omitempty"`
	PropertyDetails *PropertyDetails `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"property_details,omitempty"`
}

// Terminal reports whether no further status transition is allowed
func (l *Listing) Terminal() bool {
	return l.Status == StatusRejected || l.Status == StatusSold
}

// ListingImage is one image of a listing's ordered image set
type ListingImage struct {
	Base
	ListingID   uuid.UUID `gorm:"type:uuid;not null;index" json:"listing_id"`
	Path        string    `gorm:"type:text;not null" json:"-"`
	URL         string    `gorm:"type:text" json:"url"`
	ContentType string    `gorm:"type:varchar(50)" json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Order       int       `gorm:"column:display_order;default:0" json:"order"`
}

// CarDetails holds the car-specific attributes of a car listing (1:1)
type CarDetails struct {
	Base
	ListingID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	Make         string    `gorm:"type:varchar(100);not null" json:"make"`
	Model        string    `gorm:"type:varchar(100);not null" json:"model"`
	Year         int       `gorm:"not null" json:"year"`
	Mileage      int       `gorm:"not null" json:"mileage"`
	FuelType     string    `gorm:"type:varchar(50);not null" json:"fuel_type"`
	Transmission string    `gorm:"type:varchar(50);not null" json:"transmission"`
	Color        string    `gorm:"type:varchar(50);not null" json:"color"`
	EngineSize   *string   `gorm:"type:varchar(50)" json:"engine_size"`
}

// PropertyDetails holds the real-estate attributes of a property listing (1:1)
type PropertyDetails struct {
	Base
	ListingID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	PropertyType string     `gorm:"type:varchar(20);not null" json:"property_type"`
	Bedrooms     int        `gorm:"not null" json:"bedrooms"`
	Bathrooms    int        `gorm:"not null" json:"bathrooms"`
	Area         float64    `gorm:"type:decimal(10,2);not null" json:"area"`
	Floor        *int       `json:"floor"`
	Furnished    bool       `gorm:"default:false" json:"furnished"`
	Amenities    StringList `gorm:"type:jsonb" json:"amenities"`
}

// ValidListingType reports whether t is a known listing type
func ValidListingType(t string) bool {
	return t == ListingTypeCar || t == ListingTypeProperty
}

// ValidPurpose reports whether p is a known listing purpose
func ValidPurpose(p string) bool {
	return p == PurposeSale || p == PurposeRent
}

// ValidStatus reports whether s is a known listing status
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusSold:
		return true
	}
	return false
}

// ValidAdType reports whether a is a known ad type
func ValidAdType(a string) bool {
	return a == AdTypeSimple || a == AdTypeStar
}

// ValidPropertyType reports whether p is a known property type
func ValidPropertyType(p string) bool {
	switch p {
	case PropertyApartment, PropertyHouse, PropertyVilla, PropertyLand, PropertyCommercial:
		return true
	}
	return false
}
