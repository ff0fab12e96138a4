package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/souqly/backend/internal/models"
)

// projection selects the response shape for listing reads
type projection int

const (
	projectionReduced projection = iota
	projectionFull
)

// projectionFor is the authorization-aware serialization policy: staff get
// the full representation everywhere; non-staff list requests get the
// reduced card shape, while detail reads are always full.
func projectionFor(action string, staff bool) projection {
	if staff || action != "list" {
		return projectionFull
	}
	return projectionReduced
}

// listingResponse builds the wire shape of one listing
func listingResponse(l *models.Listing, p projection) gin.H {
	resp := gin.H{
		"id":          l.ID,
		"title":       l.Title,
		"slug":        l.Slug,
		"description": l.Description,
		"type":        l.Type,
		"purpose":     l.Purpose,
		"price":       l.Price,
		"currency":    l.Currency,
		"location":    l.Location,
		"status":      l.Status,
		"ad_type":     l.AdType,
		"created_at":  l.CreatedAt,
	}

	if l.CarDetails != nil {
		resp["car_details"] = l.CarDetails
	}
	if l.PropertyDetails != nil {
		resp["property_details"] = l.PropertyDetails
	}

	if p == projectionFull {
		resp["user_id"] = l.UserID
		resp["user"] = userResponse(&l.User)
		resp["images"] = imageResponses(l.Images)
		resp["updated_at"] = l.UpdatedAt
		if l.StarExpiresAt != nil {
			resp["star_expires_at"] = l.StarExpiresAt
		}
		return resp
	}

	// Reduced card shape carries only the first image of the ordered set
	if len(l.Images) > 0 {
		resp["first_image"] = l.Images[0].URL
	} else {
		resp["first_image"] = nil
	}
	return resp
}

func listingResponses(listings []models.Listing, p projection) []gin.H {
	out := make([]gin.H, 0, len(listings))
	for i := range listings {
		out = append(out, listingResponse(&listings[i], p))
	}
	return out
}

func imageResponses(images []models.ListingImage) []gin.H {
	out := make([]gin.H, 0, len(images))
	for _, img := range images {
		out = append(out, gin.H{
			"id":           img.ID,
			"url":          img.URL,
			"content_type": img.ContentType,
			"width":        img.Width,
			"height":       img.Height,
			"order":        img.Order,
		})
	}
	return out
}
