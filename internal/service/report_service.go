package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"campusmarket/internal/models"
	"campusmarket/internal/repository"
)

// ReportService provides listing report logic: users flag listings, admins
// review and close the reports.
type ReportService struct {
	reportRepo  repository.ReportRepository
	listingRepo repository.ListingRepository
	isAdmin     func(ctx context.Context, userID uint) (bool, error)
}

type CreateReportInput struct {
	ReporterID  uint
	ListingID   uint
	Reason      string
	Description string
}

type ResolveReportInput struct {
	AdminID  uint
	ReportID uint
	Status   string
}

// NewReportService returns a new ReportService.
func NewReportService(
	reportRepo repository.ReportRepository,
	listingRepo repository.ListingRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *ReportService {
	return &ReportService{
		reportRepo:  reportRepo,
		listingRepo: listingRepo,
		isAdmin:     isAdmin,
	}
}

const maxReportDescriptionLen = 1000

// CreateReport files a report against a listing.
func (s *ReportService) CreateReport(ctx context.Context, in CreateReportInput) (*models.Report, error) {
	if !models.ValidReportReason(in.Reason) {
		return nil, models.NewValidationError("Invalid report reason")
	}
	description := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(description) > maxReportDescriptionLen {
		return nil, models.NewValidationError("Description too long (max 1000 characters)")
	}

	listing, err := s.listingRepo.GetByID(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID == in.ReporterID {
		return nil, models.NewValidationError("You cannot report your own listing")
	}

	report := &models.Report{
		ReporterID:  in.ReporterID,
		ListingID:   in.ListingID,
		Reason:      in.Reason,
		Description: description,
		Status:      models.ReportStatusPending,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// ListReports returns reports for admin review, optionally filtered by status.
func (s *ReportService) ListReports(ctx context.Context, adminID uint, status string, limit, offset int) ([]*models.Report, int64, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, 0, err
	}
	if status != "" {
		switch status {
		case models.ReportStatusPending, models.ReportStatusReviewed,
			models.ReportStatusResolved, models.ReportStatusDismissed:
		default:
			return nil, 0, models.NewValidationError("Invalid report status")
		}
	}
	return s.reportRepo.List(ctx, status, limit, offset)
}

// ResolveReport closes or updates a report's status with the reviewing admin stamped.
func (s *ReportService) ResolveReport(ctx context.Context, in ResolveReportInput) (*models.Report, error) {
	if err := s.requireAdmin(ctx, in.AdminID); err != nil {
		return nil, err
	}
	switch in.Status {
	case models.ReportStatusReviewed, models.ReportStatusResolved, models.ReportStatusDismissed:
	default:
		return nil, models.NewValidationError("Invalid report resolution status")
	}

	if err := s.reportRepo.Resolve(ctx, in.ReportID, in.AdminID, in.Status); err != nil {
		return nil, err
	}
	return s.reportRepo.GetByID(ctx, in.ReportID)
}

func (s *ReportService) requireAdmin(ctx context.Context, userID uint) error {
	if s.isAdmin == nil {
		return models.NewForbiddenError("Admin access required")
	}
	admin, err := s.isAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !admin {
		return models.NewForbiddenError("Admin access required")
	}
	return nil
}
