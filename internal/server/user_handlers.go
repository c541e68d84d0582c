package server

import (
	"strconv"

	"campusmarket/internal/models"
	"campusmarket/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	user, err := s.userService.GetUserByID(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Username string `json:"username"`
		FullName string `json:"full_name"`
		Bio      string `json:"bio"`
		Phone    string `json:"phone"`
		Avatar   string `json:"avatar_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		UserID:   userID,
		Username: req.Username,
		FullName: req.FullName,
		Bio:      req.Bio,
		Phone:    req.Phone,
		Avatar:   req.Avatar,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:id
// The path segment is a numeric user ID or a username.
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	param := c.Params("id")

	var (
		user *models.User
		err  error
	)
	if id, parseErr := strconv.ParseUint(param, 10, 32); parseErr == nil && id > 0 {
		user, err = s.userService.GetUserByID(c.Context(), uint(id))
	} else {
		user, err = s.userRepo.GetByUsername(c.Context(), param)
	}
	if err != nil {
		return respondServiceError(c, err)
	}

	// Banned accounts disappear from public view.
	if user == nil || user.IsBanned {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("User", param))
	}

	return c.JSON(user.PublicProfile())
}

// GetUserListings handles GET /api/users/:id/listings
func (s *Server) GetUserListings(c *fiber.Ctx) error {
	sellerID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c, defaultPageSize)
	currentUserID, _ := s.optionalUserID(c)

	listings, err := s.listingService.GetSellerListings(c.Context(), sellerID, currentUserID, p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"listings": listings,
		"limit":    p.Limit,
		"offset":   p.Offset,
	})
}

// GetMyListings handles GET /api/me/listings
func (s *Server) GetMyListings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	p := parsePagination(c, defaultPageSize)

	listings, err := s.listingService.GetSellerListings(c.Context(), userID, userID, p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"listings": listings,
		"limit":    p.Limit,
		"offset":   p.Offset,
	})
}

// GetMyFavorites handles GET /api/me/favorites
func (s *Server) GetMyFavorites(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	p := parsePagination(c, defaultPageSize)

	listings, err := s.favoriteService.ListFavorites(c.Context(), userID, p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"listings": listings,
		"limit":    p.Limit,
		"offset":   p.Offset,
	})
}
