package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/AthlureSolutions/sitelure/internal/uploads"
	"github.com/gin-gonic/gin"
)

// UploadField is the multipart field carrying the image
const UploadField = "image"

// UploadHandler stores brand images such as logos
type UploadHandler struct {
	store *uploads.Store
}

// NewUploadHandler creates an UploadHandler
func NewUploadHandler(store *uploads.Store) *UploadHandler {
	return &UploadHandler{store: store}
}

// UploadResponse carries the reference to put in a site's logo_url
type UploadResponse struct {
	URL string `json:"url"`
}

// Upload accepts one image in the "image" form field
func (h *UploadHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.store.MaxBytes()+1<<20)

	fh, err := c.FormFile(UploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: uploads.ErrTooLarge.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No file uploaded in field \"" + UploadField + "\""})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to read upload"})
		return
	}
	defer f.Close()

	ref, err := h.store.Save(UploadField, f)
	switch {
	case errors.Is(err, uploads.ErrNotImage), errors.Is(err, uploads.ErrEmpty):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, uploads.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		slog.Error("Failed to store upload", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to store upload"})
		return
	}

	c.JSON(http.StatusCreated, UploadResponse{URL: ref})
}
