package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/trafficwatch/problem-service/internal/api/dto"
	"github.com/trafficwatch/problem-service/internal/storage"
	apperrors "github.com/trafficwatch/problem-service/pkg/util"
)

// UploadsHandler accepts problem photos and stores them on local disk.
type UploadsHandler struct {
	store *storage.Store
}

// NewUploadsHandler constructs handler.
func NewUploadsHandler(store *storage.Store) *UploadsHandler {
	return &UploadsHandler{store: store}
}

// Upload POST /uploads. Multipart field "file", image formats only.
func (h *UploadsHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("Nedostaje file.", nil)
	}
	if fileHeader.Size > h.store.MaxUploadBytes() {
		return apperrors.NewValidationError("Slika je prevelika (max 5MB).", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.NewValidationError("Neispravan file.", nil)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.store.MaxUploadBytes()+1))
	if err != nil {
		return apperrors.NewInternal("Upload nije uspeo.", err)
	}
	if int64(len(data)) > h.store.MaxUploadBytes() {
		return apperrors.NewValidationError("Slika je prevelika (max 5MB).", nil)
	}

	url, err := h.store.SaveUpload(data)
	switch {
	case errors.Is(err, storage.ErrUnsupportedImageFormat):
		return apperrors.NewValidationError("Dozvoljeni formati: JPG, PNG, WEBP, GIF.", nil)
	case errors.Is(err, storage.ErrUploadTooLarge):
		return apperrors.NewValidationError("Slika je prevelika (max 5MB).", nil)
	case err != nil:
		return apperrors.NewInternal("Upload nije uspeo.", err)
	}
	return c.Status(http.StatusCreated).JSON(dto.UploadResponse{URL: url})
}
