package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	"github.com/souqly/backend/internal/domain"
	"github.com/souqly/backend/internal/middleware"
	"github.com/souqly/backend/internal/models"
	"github.com/souqly/backend/internal/services/listing"
)

// Pagination bounds for list endpoints
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListingHandler handles listing CRUD and moderation requests
type ListingHandler struct {
	service *listing.Service
}

// NewListingHandler creates a new listing handler
func NewListingHandler(service *listing.Service) *ListingHandler {
	return &ListingHandler{service: service}
}

// List returns the filtered listings page. Non-staff callers only ever see
// approved listings and get the reduced card projection.
func (h *ListingHandler) List(c *gin.Context) {
	staff := middleware.IsStaff(c)
	filters := listing.ParseFilters(c.Request.URL.Query(), staff)
	limit, offset := pagination(c)

	results, total, err := h.service.List(c.Request.Context(), filters, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   total,
		"results": listingResponses(results, projectionFor("list", staff)),
	})
}

// MyListings returns the caller's own listings in any status
func (h *ListingHandler) MyListings(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	// Owners see all their own statuses, so parse filters as staff would
	filters := listing.ParseFilters(c.Request.URL.Query(), true)
	limit, offset := pagination(c)

	results, total, err := h.service.ListByUser(c.Request.Context(), userID, filters, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   total,
		"results": listingResponses(results, projectionFull),
	})
}

// Get returns one listing. Unapproved listings are only visible to their
// owner and staff; everyone else gets a 404 rather than a hint that the
// listing exists.
func (h *ListingHandler) Get(c *gin.Context) {
	id, ok := listingID(c)
	if !ok {
		return
	}

	l, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	if l.Status != models.StatusApproved && !middleware.IsStaff(c) {
		callerID, _ := middleware.UserID(c)
		if callerID != l.UserID {
			respondError(c, domain.ErrNotFound)
			return
		}
	}

	c.JSON(http.StatusOK, listingResponse(l, projectionFull))
}

// Create creates a listing owned by the caller, always starting pending
func (h *ListingHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var in listing.CreateInput
	images, err := bindListingBody(c, &in)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	l, err := h.service.Create(c.Request.Context(), userID, in, images)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, listingResponse(l, projectionFull))
}

// Update partially updates a listing (owner or staff)
func (h *ListingHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := listingID(c)
	if !ok {
		return
	}

	var in listing.UpdateInput
	images, err := bindListingBody(c, &in)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	l, err := h.service.Update(c.Request.Context(), id, actor, in, images)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listingResponse(l, projectionFull))
}

// Delete removes a listing (owner or staff)
func (h *ListingHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := listingID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, actor); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Listing deleted."})
}

// Approve transitions a listing to approved (staff only)
func (h *ListingHandler) Approve(c *gin.Context) {
	h.moderate(c, h.service.Approve, "Listing approved successfully.")
}

// Reject transitions a listing to rejected (staff only)
func (h *ListingHandler) Reject(c *gin.Context) {
	h.moderate(c, h.service.Reject, "Listing rejected.")
}

// MarkSold transitions an approved listing to sold (owner or staff)
func (h *ListingHandler) MarkSold(c *gin.Context) {
	h.moderate(c, h.service.MarkSold, "Listing marked as sold.")
}

type transitionFunc func(ctx context.Context, id uuid.UUID, actor listing.Actor) (*models.Listing, error)

func (h *ListingHandler) moderate(c *gin.Context, fn transitionFunc, message string) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := listingID(c)
	if !ok {
		return
	}

	l, err := fn(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"status":  l.Status,
	})
}

// bindListingBody reads either a JSON body or a multipart form with a JSON
// "data" field plus "images" files. A nil image slice means "images not
// provided"; an empty non-nil slice means "replace with none".
func bindListingBody(c *gin.Context, out interface{}) ([]listing.ImageUpload, error) {
	contentType := c.GetHeader("Content-Type")

	if !strings.HasPrefix(contentType, "multipart/form-data") {
		if err := c.ShouldBindJSON(out); err != nil {
			return nil, err
		}
		return nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	data := c.PostForm("data")
	if data == "" {
		return nil, errors.New("multipart requests must carry listing fields in the 'data' field")
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return nil, err
	}
	if err := binding.Validator.ValidateStruct(out); err != nil {
		return nil, err
	}

	files := form.File["images"]
	images := make([]listing.ImageUpload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		// One byte past the limit is enough to let validation reject the file
		buf, err := io.ReadAll(io.LimitReader(f, listing.MaxImageBytes+1))
		f.Close()
		if err != nil {
			return nil, err
		}
		images = append(images, listing.ImageUpload{Filename: fh.Filename, Data: buf})
	}

	return images, nil
}

// respondError maps domain errors to HTTP responses
func respondError(c *gin.Context, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.Is(err, domain.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
	case errors.Is(err, domain.ErrTerminalStatus), errors.Is(err, domain.ErrNotApproved):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := middleware.UserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return uuid.Nil, false
	}
	return userID, true
}

func requireActor(c *gin.Context) (listing.Actor, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return listing.Actor{}, false
	}
	return listing.Actor{ID: userID, Staff: middleware.IsStaff(c)}, true
}

func listingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
		return uuid.Nil, false
	}
	return id, true
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
