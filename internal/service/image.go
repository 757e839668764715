package service

import (
	"fmt"

	"github.com/harplab/site-api/internal/apperror"
)

// Upload size ceilings. Article and team portraits allow 5 MiB; profile
// pictures are capped at 2 MiB because they end up in object storage and
// get fetched on every page load.
const (
	MaxImageBytes        = 5 * 1024 * 1024
	MaxProfileImageBytes = 2 * 1024 * 1024
)

// allowedImageTypes is the accepted MIME set for every image intake path.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ImageUpload carries a decoded multipart file from the handler into a
// service. Data is fully buffered — the size caps above keep that bounded.
type ImageUpload struct {
	Data     []byte
	MimeType string
	Filename string
}

// validateImage enforces the MIME allow-list and size ceiling. Violations
// are validation errors (400), never server errors.
func validateImage(upload *ImageUpload, maxBytes int) error {
	if upload == nil {
		return nil
	}
	if !allowedImageTypes[upload.MimeType] {
		return apperror.ValidationFailed("image",
			fmt.Sprintf("unsupported image type %q: allowed types are jpeg, png, gif, webp", upload.MimeType))
	}
	if len(upload.Data) == 0 {
		return apperror.ValidationFailed("image", "uploaded image is empty")
	}
	if len(upload.Data) > maxBytes {
		return apperror.ValidationFailed("image",
			fmt.Sprintf("image exceeds the %d MiB limit", maxBytes/(1024*1024)))
	}
	return nil
}
