package server

import (
	"campusmarket/internal/models"
	"campusmarket/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ReportListing handles POST /api/listings/:id/report
func (s *Server) ReportListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	if !s.featureFlags.Enabled("reports", userID) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Reporting is currently disabled"))
	}

	listingID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reason      string `json:"reason"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	report, err := s.reportService.CreateReport(c.Context(), service.CreateReportInput{
		ReporterID:  userID,
		ListingID:   listingID,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(report)
}

// GetAdminReports handles GET /api/admin/reports
func (s *Server) GetAdminReports(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	p := parsePagination(c, 20)

	reports, total, err := s.reportService.ListReports(c.Context(), userID, c.Query("status"), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"reports": reports,
		"total":   total,
		"limit":   p.Limit,
		"offset":  p.Offset,
	})
}

// ResolveAdminReport handles POST /api/admin/reports/:id/resolve
func (s *Server) ResolveAdminReport(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	reportID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	report, err := s.reportService.ResolveReport(c.Context(), service.ResolveReportInput{
		AdminID:  userID,
		ReportID: reportID,
		Status:   req.Status,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(report)
}
