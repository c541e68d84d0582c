package server

import (
	"campusmarket/internal/models"
	"campusmarket/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateListing handles POST /api/listings
func (s *Server) CreateListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		CategoryID  uint                        `json:"category_id"`
		Title       string                      `json:"title"`
		Description string                      `json:"description"`
		Price       float64                     `json:"price"`
		Condition   string                      `json:"condition"`
		Images      []service.ListingImageInput `json:"images"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	listing, err := s.listingService.CreateListing(c.Context(), service.CreateListingInput{
		SellerID:    userID,
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Condition:   req.Condition,
		Images:      req.Images,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(listing)
}

// BrowseListings handles GET /api/listings
func (s *Server) BrowseListings(c *fiber.Ctx) error {
	p := parsePagination(c, defaultPageSize)
	currentUserID, _ := s.optionalUserID(c)

	listings, total, err := s.listingService.BrowseListings(c.Context(), service.BrowseListingsInput{
		CategoryID:    uint(c.QueryInt("category_id", 0)),
		Query:         c.Query("q"),
		MinPrice:      c.QueryFloat("min_price", 0),
		MaxPrice:      c.QueryFloat("max_price", 0),
		Condition:     c.Query("condition"),
		Sort:          c.Query("sort"),
		Limit:         p.Limit,
		Offset:        p.Offset,
		CurrentUserID: currentUserID,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"listings": listings,
		"total":    total,
		"limit":    p.Limit,
		"offset":   p.Offset,
	})
}

// GetListing handles GET /api/listings/:id
func (s *Server) GetListing(c *fiber.Ctx) error {
	listingID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	currentUserID, _ := s.optionalUserID(c)

	listing, err := s.listingService.GetListing(c.Context(), listingID, currentUserID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(listing)
}

// UpdateListing handles PUT /api/listings/:id
func (s *Server) UpdateListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	listingID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		CategoryID  uint                        `json:"category_id"`
		Title       string                      `json:"title"`
		Description string                      `json:"description"`
		Price       float64                     `json:"price"`
		Condition   string                      `json:"condition"`
		Images      []service.ListingImageInput `json:"images"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	listing, err := s.listingService.UpdateListing(c.Context(), service.UpdateListingInput{
		UserID:      userID,
		ListingID:   listingID,
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Condition:   req.Condition,
		Images:      req.Images,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(listing)
}

// DeleteListing handles DELETE /api/listings/:id
func (s *Server) DeleteListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	listingID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.listingService.DeleteListing(c.Context(), userID, listingID); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Listing deleted"})
}

// MarkListingSold handles POST /api/listings/:id/sold
func (s *Server) MarkListingSold(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	listingID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	listing, err := s.listingService.MarkSold(c.Context(), userID, listingID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(listing)
}

// GetCategories handles GET /api/categories
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.categoryRepo.List(c.Context())
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"categories": categories})
}

// GetCategory handles GET /api/categories/:slug
func (s *Server) GetCategory(c *fiber.Ctx) error {
	category, err := s.categoryRepo.GetBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(category)
}
