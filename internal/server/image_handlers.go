package server

import (
	"io"
	"strings"

	"campusmarket/internal/models"
	"campusmarket/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadImage handles POST /api/media. It accepts a multipart form with a
// single "image" file and returns the stored variants' public URLs.
func (s *Server) UploadImage(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("An image file is required"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read the uploaded file"))
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	stored, err := s.imageService.Upload(service.UploadImageInput{
		UserID:      userID,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(stored)
}

// ServeImage handles GET /media/i/:hash/:variant
func (s *Server) ServeImage(c *fiber.Ctx) error {
	hash := c.Params("hash")
	variant := c.Params("variant")

	path, err := s.imageService.ResolveForServing(hash, variant)
	if err != nil {
		return respondServiceError(c, err)
	}

	// Content is addressed by hash, so it never changes under a given URL.
	c.Set("Cache-Control", "public, max-age=31536000, immutable")
	if strings.HasSuffix(variant, ".webp") {
		c.Set("Content-Type", "image/webp")
	} else {
		c.Set("Content-Type", "image/jpeg")
	}

	return c.SendFile(path)
}
