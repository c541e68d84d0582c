package server

import (
	"time"

	"campusmarket/internal/models"
	"campusmarket/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags handles GET /api/admin/feature-flags
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"flags": s.featureFlags.Raw()})
}

// GetAdminOverview handles GET /api/admin/overview
func (s *Server) GetAdminOverview(c *fiber.Ctx) error {
	overview, err := s.moderationService.GetOverview(c.Context())
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(overview)
}

// GetModerationQueue handles GET /api/admin/queue
func (s *Server) GetModerationQueue(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	p := parsePagination(c, 20)

	listings, total, err := s.listingService.GetModerationQueue(c.Context(), userID, p.Limit, p.Offset)
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

// ApproveListing handles POST /api/admin/listings/:id/approve
func (s *Server) ApproveListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	listingID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	listing, err := s.listingService.ApproveListing(c.Context(), userID, listingID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(listing)
}

// RejectListing handles POST /api/admin/listings/:id/reject
func (s *Server) RejectListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	listingID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	listing, err := s.listingService.RejectListing(c.Context(), service.RejectListingInput{
		AdminID:   userID,
		ListingID: listingID,
		Reason:    req.Reason,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(listing)
}

// GetReportedListings handles GET /api/admin/listings/reported
func (s *Server) GetReportedListings(c *fiber.Ctx) error {
	p := parsePagination(c, 20)

	rows, err := s.moderationService.GetReportedListings(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"listings": rows,
		"limit":    p.Limit,
		"offset":   p.Offset,
	})
}

// GetAdminListingDetail handles GET /api/admin/listings/:id
func (s *Server) GetAdminListingDetail(c *fiber.Ctx) error {
	listingID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.moderationService.GetAdminListingDetail(c.Context(), listingID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(detail)
}

// GetAdminUsers handles GET /api/admin/users
func (s *Server) GetAdminUsers(c *fiber.Ctx) error {
	p := parsePagination(c, 20)

	users, err := s.userService.ListUsers(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"users":  users,
		"limit":  p.Limit,
		"offset": p.Offset,
	})
}

// BanUser handles POST /api/admin/users/:id/ban
func (s *Server) BanUser(c *fiber.Ctx) error {
	adminID := c.Locals("userID").(uint)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reason string `json:"reason"`
		Days   int    `json:"days"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	// Days of zero means a permanent ban.
	var until *time.Time
	if req.Days > 0 {
		t := time.Now().AddDate(0, 0, req.Days)
		until = &t
	}

	user, err := s.userService.BanUser(c.Context(), service.BanUserInput{
		AdminID:  adminID,
		TargetID: targetID,
		Reason:   req.Reason,
		Until:    until,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(user)
}

// UnbanUser handles POST /api/admin/users/:id/unban
func (s *Server) UnbanUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.UnbanUser(c.Context(), targetID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(user)
}

// PromoteToAdmin handles POST /api/admin/users/:id/promote-admin
func (s *Server) PromoteToAdmin(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.SetAdmin(c.Context(), targetID, true)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(user)
}

// DemoteFromAdmin handles POST /api/admin/users/:id/demote-admin
func (s *Server) DemoteFromAdmin(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.SetAdmin(c.Context(), targetID, false)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(user)
}
