package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/harplab/site-api/internal/apperror"
	"github.com/harplab/site-api/internal/service"
)

// maxMultipartMemory bounds the in-memory portion of multipart parsing;
// larger parts spill to temp files.
const maxMultipartMemory = 8 << 20

// readImageFile extracts an optional uploaded file from a multipart form.
// A missing file field returns (nil, nil): images are optional on every
// intake route and the services enforce size and type limits.
func readImageFile(r *http.Request, field string) (*service.ImageUpload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.ValidationFailed(field, "could not read uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxImageBytes+1))
	if err != nil {
		return nil, apperror.ValidationFailed(field, "could not read uploaded file")
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	// Strip any parameters like "; charset=binary".
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	return &service.ImageUpload{
		Data:     data,
		MimeType: strings.ToLower(mimeType),
		Filename: header.Filename,
	}, nil
}

// parseMultipart parses the request as a multipart form, mapping parse
// failures to a 400.
func parseMultipart(r *http.Request) error {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return apperror.ValidationFailed("body", "request must be a multipart form")
	}
	return nil
}
