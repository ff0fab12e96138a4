package listing

import (
	"net/url"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/souqly/backend/internal/models"
)

// Bounds applied to numeric filter parameters
const (
	MinYearBound = 1900
	MaxYearBound = 2100

	maxLocationLen     = 255
	maxMakeLen         = 100
	maxPropertyTypeLen = 50
)

// Filters is the validated, sanitized predicate built from untrusted query
// parameters. Invalid parameters are dropped during parsing rather than
// rejected, so a Filters value is always safe to apply.
type Filters struct {
	Staff bool

	Type    string
	Purpose string
	Status  string // effective for staff callers only
	AdType  string

	MinPrice *float64
	MaxPrice *float64
	Location string

	// Car sub-detail filters
	Make    string
	MinYear *int
	MaxYear *int

	// Property sub-detail filters
	PropertyType string
	MinBedrooms  *int
	MinBathrooms *int
	MinArea      *float64

	Sort string
}

// ParseFilters builds Filters from raw query parameters. Every value is
// parsed and range-checked here; anything that fails is silently dropped,
// matching the best-effort filtering policy of the API.
func ParseFilters(values url.Values, staff bool) Filters {
	f := Filters{Staff: staff}

	if t := values.Get("type"); models.ValidListingType(t) {
		f.Type = t
	}
	if p := values.Get("purpose"); models.ValidPurpose(p) {
		f.Purpose = p
	}
	if s := values.Get("status"); staff && models.ValidStatus(s) {
		f.Status = s
	}
	if a := values.Get("ad_type"); models.ValidAdType(a) {
		f.AdType = a
	}

	f.MinPrice = parseFloat(values.Get("min_price"), 0)
	f.MaxPrice = parseFloat(values.Get("max_price"), 0)
	f.Location = SanitizeString(values.Get("location"), maxLocationLen)

	f.Make = SanitizeString(values.Get("make"), maxMakeLen)
	f.MinYear = parseIntRange(values.Get("min_year"), MinYearBound, MaxYearBound)
	f.MaxYear = parseIntRange(values.Get("max_year"), MinYearBound, MaxYearBound)

	if pt := SanitizeString(values.Get("property_type"), maxPropertyTypeLen); models.ValidPropertyType(pt) {
		f.PropertyType = pt
	}
	f.MinBedrooms = parseIntRange(values.Get("min_bedrooms"), 0, 1<<20)
	f.MinBathrooms = parseIntRange(values.Get("min_bathrooms"), 0, 1<<20)
	f.MinArea = parseFloat(values.Get("min_area"), 0)

	f.Sort = normalizeSort(values.Get("sort"))

	return f
}

// Apply attaches the filter predicate and ordering to a listings query
func (f Filters) Apply(db *gorm.DB) *gorm.DB {
	// Visibility gate comes first and cannot be overridden by user input
	if !f.Staff {
		db = db.Where("listings.status = ?", models.StatusApproved)
	} else if f.Status != "" {
		db = db.Where("listings.status = ?", f.Status)
	}

	if f.Type != "" {
		db = db.Where("listings.type = ?", f.Type)
	}
	if f.Purpose != "" {
		db = db.Where("listings.purpose = ?", f.Purpose)
	}
	if f.AdType != "" {
		db = db.Where("listings.ad_type = ?", f.AdType)
	}
	if f.MinPrice != nil {
		db = db.Where("listings.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		db = db.Where("listings.price <= ?", *f.MaxPrice)
	}
	if f.Location != "" {
		db = db.Where("LOWER(listings.location) LIKE ?", contains(f.Location))
	}

	if f.needsCarJoin() {
		db = db.Joins("LEFT JOIN car_details ON car_details.listing_id = listings.id")
		if f.Make != "" {
			db = db.Where("LOWER(car_details.make) LIKE ?", contains(f.Make))
		}
		if f.MinYear != nil {
			db = db.Where("car_details.year >= ?", *f.MinYear)
		}
		if f.MaxYear != nil {
			db = db.Where("car_details.year <= ?", *f.MaxYear)
		}
	}

	if f.needsPropertyJoin() {
		db = db.Joins("LEFT JOIN property_details ON property_details.listing_id = listings.id")
		if f.PropertyType != "" {
			db = db.Where("property_details.property_type = ?", f.PropertyType)
		}
		if f.MinBedrooms != nil {
			db = db.Where("property_details.bedrooms >= ?", *f.MinBedrooms)
		}
		if f.MinBathrooms != nil {
			db = db.Where("property_details.bathrooms >= ?", *f.MinBathrooms)
		}
		if f.MinArea != nil {
			db = db.Where("property_details.area >= ?", *f.MinArea)
		}
	}

	return db.Order(f.orderClause())
}

func (f Filters) needsCarJoin() bool {
	return f.Make != "" || f.MinYear != nil || f.MaxYear != nil
}

func (f Filters) needsPropertyJoin() bool {
	return f.PropertyType != "" || f.MinBedrooms != nil || f.MinBathrooms != nil || f.MinArea != nil
}

// orderClause maps the normalized sort key to SQL, with an id tie-break so
// the ordering stays deterministic when timestamps collide.
func (f Filters) orderClause() string {
	switch f.Sort {
	case "price":
		return "listings.price ASC, listings.id ASC"
	case "-price":
		return "listings.price DESC, listings.id ASC"
	case "created_at":
		return "listings.created_at ASC, listings.id ASC"
	default:
		return "listings.created_at DESC, listings.id ASC"
	}
}

// SanitizeString strips characters that have meaning in query or markup
// contexts and truncates to max bytes.
func SanitizeString(s string, max int) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '\'', ';', '\\':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if len(s) > max {
		s = s[:max]
	}
	return s
}

// contains builds a lowercase LIKE pattern, escaping LIKE metacharacters in
// the user value
func contains(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return "%" + s + "%"
}

func parseFloat(raw string, min float64) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < min {
		return nil
	}
	return &v
}

func parseIntRange(raw string, min, max int) *int {
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return nil
	}
	return &v
}

func normalizeSort(raw string) string {
	switch raw {
	case "price", "-price", "created_at", "-created_at":
		return raw
	}
	return "-created_at"
}
