package server

import (
	"github.com/gofiber/fiber/v2"
)

// AddFavorite handles POST /api/listings/:id/favorite
func (s *Server) AddFavorite(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	listingID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.favoriteService.AddFavorite(c.Context(), userID, listingID); err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"favorited": true})
}

// RemoveFavorite handles DELETE /api/listings/:id/favorite
func (s *Server) RemoveFavorite(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	listingID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.favoriteService.RemoveFavorite(c.Context(), userID, listingID); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"favorited": false})
}
