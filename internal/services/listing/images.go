package listing

import (
	"bytes"
	"fmt"
	"image"
	"net/http"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/souqly/backend/internal/domain"
)

// Image upload constraints
const (
	MaxImagesPerListing = 10
	MaxImageBytes       = 10 << 20 // 10MB
	MinImageDimension   = 100
	MaxImageDimension   = 5000
)

// allowedImageTypes maps accepted MIME types to their file extensions
var allowedImageTypes = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/webp": {".webp"},
}

// ImageUpload is one uploaded image file, held in memory for validation
type ImageUpload struct {
	Filename string
	Data     []byte
}

// ImageMeta is the validated shape of an upload
type ImageMeta struct {
	ContentType string
	Width       int
	Height      int
}

// ValidateImages checks the full upload set against the listing image
// constraints. The returned metas are index-aligned with uploads. Each
// violation names the constraint and the offending file.
func ValidateImages(uploads []ImageUpload) ([]ImageMeta, error) {
	if len(uploads) > MaxImagesPerListing {
		return nil, domain.NewValidationError("images",
			fmt.Sprintf("at most %d images per listing, got %d", MaxImagesPerListing, len(uploads)))
	}

	metas := make([]ImageMeta, 0, len(uploads))
	for _, u := range uploads {
		meta, err := validateImage(u)
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

func validateImage(u ImageUpload) (ImageMeta, error) {
	if int64(len(u.Data)) > MaxImageBytes {
		return ImageMeta{}, domain.NewValidationError(u.Filename,
			fmt.Sprintf("image exceeds the %dMB size limit", MaxImageBytes>>20))
	}

	// Sniff the real content type rather than trusting the filename
	contentType := http.DetectContentType(u.Data)
	exts, ok := allowedImageTypes[contentType]
	if !ok {
		return ImageMeta{}, domain.NewValidationError(u.Filename,
			"image type must be one of jpeg, png, webp")
	}

	ext := strings.ToLower(filepath.Ext(u.Filename))
	if !containsExt(exts, ext) {
		return ImageMeta{}, domain.NewValidationError(u.Filename,
			fmt.Sprintf("file extension %q does not match content type %s", ext, contentType))
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(u.Data))
	if err != nil {
		return ImageMeta{}, domain.NewValidationError(u.Filename, "image could not be decoded")
	}

	if cfg.Width < MinImageDimension || cfg.Height < MinImageDimension {
		return ImageMeta{}, domain.NewValidationError(u.Filename,
			fmt.Sprintf("image dimensions %dx%d are below the %dx%d minimum",
				cfg.Width, cfg.Height, MinImageDimension, MinImageDimension))
	}
	if cfg.Width > MaxImageDimension || cfg.Height > MaxImageDimension {
		return ImageMeta{}, domain.NewValidationError(u.Filename,
			fmt.Sprintf("image dimensions %dx%d exceed the %dx%d maximum",
				cfg.Width, cfg.Height, MaxImageDimension, MaxImageDimension))
	}

	return ImageMeta{
		ContentType: contentType,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

func containsExt(exts []string, ext string) bool {
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}
