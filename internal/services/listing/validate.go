package listing

import (
	"github.com/souqly/backend/internal/domain"
	"github.com/souqly/backend/internal/models"
)

// validateCreate checks enums, defaults optional fields and enforces the
// type/details invariant: a car listing has exactly car details, a property
// listing exactly property details.
func validateCreate(in *CreateInput) error {
	if !models.ValidListingType(in.Type) {
		return domain.NewValidationError("type", "must be 'car' or 'property'")
	}
	if !models.ValidPurpose(in.Purpose) {
		return domain.NewValidationError("purpose", "must be 'sale' or 'rent'")
	}
	if in.AdType == "" {
		in.AdType = models.AdTypeSimple
	} else if !models.ValidAdType(in.AdType) {
		return domain.NewValidationError("ad_type", "must be 'simple' or 'star'")
	}
	if in.Currency == "" {
		in.Currency = "AED"
	} else if len(in.Currency) != 3 {
		return domain.NewValidationError("currency", "must be a 3-letter currency code")
	}

	switch in.Type {
	case models.ListingTypeCar:
		if in.PropertyDetails != nil {
			return domain.NewValidationError("property_details", "not allowed on a car listing")
		}
		if in.CarDetails == nil {
			return domain.NewValidationError("car_details", "required for a car listing")
		}
		return validateCarDetails(in.CarDetails, true)
	case models.ListingTypeProperty:
		if in.CarDetails != nil {
			return domain.NewValidationError("car_details", "not allowed on a property listing")
		}
		if in.PropertyDetails == nil {
			return domain.NewValidationError("property_details", "required for a property listing")
		}
		return validatePropertyDetails(in.PropertyDetails, true)
	}
	return nil
}

// validateUpdate checks the provided fields of a partial update against the
// listing's immutable type.
func validateUpdate(l *models.Listing, in *UpdateInput) error {
	if in.Purpose != nil && !models.ValidPurpose(*in.Purpose) {
		return domain.NewValidationError("purpose", "must be 'sale' or 'rent'")
	}
	if in.AdType != nil && !models.ValidAdType(*in.AdType) {
		return domain.NewValidationError("ad_type", "must be 'simple' or 'star'")
	}
	if in.Title != nil && (*in.Title == "" || len(*in.Title) > 255) {
		return domain.NewValidationError("title", "must be between 1 and 255 characters")
	}
	if in.Price != nil && *in.Price <= 0 {
		return domain.NewValidationError("price", "must be greater than zero")
	}
	if in.Currency != nil && len(*in.Currency) != 3 {
		return domain.NewValidationError("currency", "must be a 3-letter currency code")
	}
	if in.Location != nil && (*in.Location == "" || len(*in.Location) > 255) {
		return domain.NewValidationError("location", "must be between 1 and 255 characters")
	}

	if in.CarDetails != nil {
		if l.Type != models.ListingTypeCar {
			return domain.NewValidationError("car_details", "not allowed on a property listing")
		}
		if err := validateCarDetails(in.CarDetails, false); err != nil {
			return err
		}
	}
	if in.PropertyDetails != nil {
		if l.Type != models.ListingTypeProperty {
			return domain.NewValidationError("property_details", "not allowed on a car listing")
		}
		if err := validatePropertyDetails(in.PropertyDetails, false); err != nil {
			return err
		}
	}
	return nil
}

func validateCarDetails(in *CarDetailsInput, full bool) error {
	if full {
		switch {
		case in.Make == nil || *in.Make == "":
			return domain.NewValidationError("car_details.make", "required")
		case in.Model == nil || *in.Model == "":
			return domain.NewValidationError("car_details.model", "required")
		case in.Year == nil:
			return domain.NewValidationError("car_details.year", "required")
		case in.Mileage == nil:
			return domain.NewValidationError("car_details.mileage", "required")
		case in.FuelType == nil || *in.FuelType == "":
			return domain.NewValidationError("car_details.fuel_type", "required")
		case in.Transmission == nil || *in.Transmission == "":
			return domain.NewValidationError("car_details.transmission", "required")
		case in.Color == nil || *in.Color == "":
			return domain.NewValidationError("car_details.color", "required")
		}
	}
	if in.Year != nil && (*in.Year < MinYearBound || *in.Year > MaxYearBound) {
		return domain.NewValidationError("car_details.year", "must be between 1900 and 2100")
	}
	if in.Mileage != nil && *in.Mileage < 0 {
		return domain.NewValidationError("car_details.mileage", "must not be negative")
	}
	return nil
}

func validatePropertyDetails(in *PropertyDetailsInput, full bool) error {
	if full {
		switch {
		case in.PropertyType == nil:
			return domain.NewValidationError("property_details.property_type", "required")
		case in.Bedrooms == nil:
			return domain.NewValidationError("property_details.bedrooms", "required")
		case in.Bathrooms == nil:
			return domain.NewValidationError("property_details.bathrooms", "required")
		case in.Area == nil:
			return domain.NewValidationError("property_details.area", "required")
		}
	}
	if in.PropertyType != nil && !models.ValidPropertyType(*in.PropertyType) {
		return domain.NewValidationError("property_details.property_type",
			"must be one of apartment, house, villa, land, commercial")
	}
	if in.Bedrooms != nil && *in.Bedrooms < 0 {
		return domain.NewValidationError("property_details.bedrooms", "must not be negative")
	}
	if in.Bathrooms != nil && *in.Bathrooms < 0 {
		return domain.NewValidationError("property_details.bathrooms", "must not be negative")
	}
	if in.Area != nil && *in.Area <= 0 {
		return domain.NewValidationError("property_details.area", "must be greater than zero")
	}
	return nil
}
