package service

import (
	"context"
	"log/slog"
	"time"

	"campusmarket/internal/models"

	"gorm.io/gorm"
)

// ReportedListingRow is a row for the admin report-queue listing, grouping
// open reports per listing.
type ReportedListingRow struct {
	ListingID      uint           `json:"listing_id"`
	ReportCount    int64          `json:"report_count"`
	LatestReportAt time.Time      `json:"latest_report_at"`
	Listing        models.Listing `json:"listing"`
}

// AdminListingDetail aggregates listing and moderation data for admin views.
type AdminListingDetail struct {
	Listing       models.Listing   `json:"listing"`
	Reports       []models.Report  `json:"reports"`
	Conversations int64            `json:"conversations"`
	SellerHistory []models.Listing `json:"seller_history"`
	Warnings      []string         `json:"warnings,omitempty"`
}

// ModerationOverview summarizes the admin workload.
type ModerationOverview struct {
	PendingListings int64 `json:"pending_listings"`
	OpenReports     int64 `json:"open_reports"`
	BannedUsers     int64 `json:"banned_users"`
	ActiveListings  int64 `json:"active_listings"`
}

// ModerationService provides admin moderation aggregates. It queries across
// tables directly rather than through the per-entity repositories.
type ModerationService struct {
	db *gorm.DB
}

// NewModerationService returns a new ModerationService.
func NewModerationService(db *gorm.DB) *ModerationService {
	return &ModerationService{db: db}
}

// GetOverview returns queue counts for the admin dashboard.
func (s *ModerationService) GetOverview(ctx context.Context) (*ModerationOverview, error) {
	overview := &ModerationOverview{}

	if err := s.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("status = ?", models.ListingStatusPending).
		Count(&overview.PendingListings).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("status = ?", models.ReportStatusPending).
		Count(&overview.OpenReports).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("is_banned = ?", true).
		Count(&overview.BannedUsers).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("status = ?", models.ListingStatusActive).
		Count(&overview.ActiveListings).Error; err != nil {
		return nil, err
	}

	return overview, nil
}

// GetReportedListings returns listings with open reports, ordered by report
// volume, for admin triage.
func (s *ModerationService) GetReportedListings(ctx context.Context, limit, offset int) ([]ReportedListingRow, error) {
	type RawRow struct {
		ListingID      uint      `json:"listing_id"`
		ReportCount    int64     `json:"report_count"`
		LatestReportAt time.Time `json:"latest_report_at"`
	}

	var rows []RawRow
	if err := s.db.WithContext(ctx).
		Table("reports").
		Select("listing_id, COUNT(*) as report_count, MAX(created_at) as latest_report_at").
		Where("status = ?", models.ReportStatusPending).
		Group("listing_id").
		Order("report_count DESC, latest_report_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	listingIDs := make([]uint, 0, len(rows))
	for _, row := range rows {
		listingIDs = append(listingIDs, row.ListingID)
	}

	listingsByID := map[uint]models.Listing{}
	if len(listingIDs) > 0 {
		var listings []models.Listing
		if err := s.db.WithContext(ctx).
			Preload("Seller").
			Where("id IN ?", listingIDs).
			Find(&listings).Error; err != nil {
			return nil, err
		}
		for _, listing := range listings {
			listingsByID[listing.ID] = listing
		}
	}

	resp := make([]ReportedListingRow, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, ReportedListingRow{
			ListingID:      row.ListingID,
			ReportCount:    row.ReportCount,
			LatestReportAt: row.LatestReportAt,
			Listing:        listingsByID[row.ListingID],
		})
	}
	return resp, nil
}

// GetAdminListingDetail returns a listing together with its reports, seller
// history and conversation volume. Partial failures degrade to warnings so
// the admin still sees what loaded.
func (s *ModerationService) GetAdminListingDetail(ctx context.Context, listingID uint) (*AdminListingDetail, error) {
	var listing models.Listing
	if err := s.db.WithContext(ctx).
		Preload("Seller").
		Preload("Category").
		Preload("Images").
		First(&listing, listingID).Error; err != nil {
		return nil, err
	}

	detail := &AdminListingDetail{
		Listing: listing,
	}

	if err := s.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at DESC").
		Limit(200).
		Find(&detail.Reports).Error; err != nil {
		slog.WarnContext(ctx, "failed to load reports for listing", "listing_id", listingID, "err", err)
		detail.Warnings = append(detail.Warnings, "Partial data: Reports could not be loaded.")
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("listing_id = ?", listingID).
		Count(&detail.Conversations).Error; err != nil {
		slog.WarnContext(ctx, "failed to count conversations for listing", "listing_id", listingID, "err", err)
		detail.Warnings = append(detail.Warnings, "Partial data: Conversation count could not be loaded.")
	}

	if err := s.db.WithContext(ctx).
		Where("seller_id = ? AND id <> ?", listing.SellerID, listingID).
		Order("created_at DESC").
		Limit(50).
		Find(&detail.SellerHistory).Error; err != nil {
		slog.WarnContext(ctx, "failed to load seller history", "seller_id", listing.SellerID, "err", err)
		detail.Warnings = append(detail.Warnings, "Partial data: Seller history could not be loaded.")
	}

	return detail, nil
}
