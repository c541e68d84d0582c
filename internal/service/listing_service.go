package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"campusmarket/internal/cache"
	"campusmarket/internal/models"
	"campusmarket/internal/observability"
	"campusmarket/internal/repository"
	"campusmarket/internal/validation"
)

// ListingService provides listing lifecycle and browsing logic. Every listing
// passes through the moderation queue: sellers create and edit into pending,
// admins approve into active or reject with a reason.
type ListingService struct {
	listingRepo     repository.ListingRepository
	categoryRepo    repository.CategoryRepository
	userRepo        repository.UserRepository
	favoriteRepo    repository.FavoriteRepository
	notificationSvc *NotificationService
	isAdmin         func(ctx context.Context, userID uint) (bool, error)
}

// ListingImageInput is one image attached to a create or update request.
type ListingImageInput struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	IsPrimary    bool   `json:"is_primary"`
}

type CreateListingInput struct {
	SellerID    uint
	CategoryID  uint
	Title       string
	Description string
	Price       float64
	Condition   string
	Images      []ListingImageInput
}

type UpdateListingInput struct {
	UserID      uint
	ListingID   uint
	CategoryID  uint
	Title       string
	Description string
	Price       float64
	Condition   string
	Images      []ListingImageInput
}

type BrowseListingsInput struct {
	CategoryID    uint
	Query         string
	MinPrice      float64
	MaxPrice      float64
	Condition     string
	Sort          string
	Limit         int
	Offset        int
	CurrentUserID uint
}

type RejectListingInput struct {
	AdminID   uint
	ListingID uint
	Reason    string
}

// NewListingService returns a new ListingService.
func NewListingService(
	listingRepo repository.ListingRepository,
	categoryRepo repository.CategoryRepository,
	userRepo repository.UserRepository,
	favoriteRepo repository.FavoriteRepository,
	notificationSvc *NotificationService,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *ListingService {
	return &ListingService{
		listingRepo:     listingRepo,
		categoryRepo:    categoryRepo,
		userRepo:        userRepo,
		favoriteRepo:    favoriteRepo,
		notificationSvc: notificationSvc,
		isAdmin:         isAdmin,
	}
}

func (s *ListingService) validateContent(ctx context.Context, categoryID uint, title, description string, price float64, condition string, imageCount int) error {
	if err := validation.ValidateListingTitle(title); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateListingDescription(description); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateListingPrice(price); err != nil {
		return models.NewValidationError(err.Error())
	}
	if !models.ValidCondition(condition) {
		return models.NewValidationError("Invalid condition")
	}
	if imageCount > validation.MaxImagesPerListing {
		return models.NewValidationError("Too many images (max 5)")
	}
	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if !category.IsActive {
		return models.NewValidationError("Category is not available")
	}
	return nil
}

func buildImages(inputs []ListingImageInput) []models.ListingImage {
	images := make([]models.ListingImage, 0, len(inputs))
	hasPrimary := false
	for i, in := range inputs {
		img := models.ListingImage{
			URL:          in.URL,
			ThumbnailURL: in.ThumbnailURL,
			SortOrder:    i,
			IsPrimary:    in.IsPrimary && !hasPrimary,
		}
		if img.IsPrimary {
			hasPrimary = true
		}
		images = append(images, img)
	}
	// First image is primary unless the seller picked one.
	if !hasPrimary && len(images) > 0 {
		images[0].IsPrimary = true
	}
	return images
}

// CreateListing creates a listing in pending status awaiting moderation.
func (s *ListingService) CreateListing(ctx context.Context, in CreateListingInput) (*models.Listing, error) {
	seller, err := s.userRepo.GetByID(ctx, in.SellerID)
	if err != nil {
		return nil, err
	}
	if seller.IsBanned {
		return nil, models.NewForbiddenError("Banned users cannot create listings")
	}
	if err := s.validateContent(ctx, in.CategoryID, in.Title, in.Description, in.Price, in.Condition, len(in.Images)); err != nil {
		return nil, err
	}

	listing := &models.Listing{
		SellerID:    in.SellerID,
		CategoryID:  in.CategoryID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Condition:   in.Condition,
		Status:      models.ListingStatusPending,
		Images:      buildImages(in.Images),
	}
	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}

	if err := s.userRepo.AdjustListingsCount(ctx, in.SellerID, 1); err != nil {
		slog.WarnContext(ctx, "failed to adjust listings count", "seller_id", in.SellerID, "err", err)
	}
	observability.RecordStatusTransition("", models.ListingStatusPending)

	return s.listingRepo.GetByID(ctx, listing.ID)
}

// GetListing returns a listing with owner-aware visibility: non-active
// listings are only shown to their seller or an admin. Viewing an active
// listing as someone other than the seller increments its view counter.
func (s *ListingService) GetListing(ctx context.Context, id, currentUserID uint) (*models.Listing, error) {
	listing, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if listing.Status != models.ListingStatusActive && listing.Status != models.ListingStatusSold {
		if listing.SellerID != currentUserID {
			admin, aerr := s.userIsAdmin(ctx, currentUserID)
			if aerr != nil {
				return nil, aerr
			}
			if !admin {
				return nil, models.NewNotFoundError("Listing", id)
			}
		}
	}

	if listing.Status == models.ListingStatusActive && currentUserID != listing.SellerID {
		if err := s.listingRepo.IncrementViewCount(ctx, id); err != nil {
			slog.WarnContext(ctx, "failed to increment view count", "listing_id", id, "err", err)
		} else {
			listing.ViewCount++
		}
	}

	if currentUserID != 0 {
		s.enrichFavorited(ctx, currentUserID, []*models.Listing{listing})
	}

	return listing, nil
}

// BrowseListings returns active listings matching the filter. The unfiltered
// first page is served through the cache; cached pages are re-enriched with
// the viewer's favorited flags so stale per-user state never leaks.
func (s *ListingService) BrowseListings(ctx context.Context, in BrowseListingsInput) ([]*models.Listing, int64, error) {
	filter := repository.ListingFilter{
		CategoryID: in.CategoryID,
		Query:      strings.TrimSpace(in.Query),
		MinPrice:   in.MinPrice,
		MaxPrice:   in.MaxPrice,
		Condition:  in.Condition,
		Sort:       in.Sort,
		Limit:      in.Limit,
		Offset:     in.Offset,
	}

	var listings []*models.Listing
	var total int64

	unfilteredFirstPage := in.CategoryID == 0 && filter.Query == "" && in.MinPrice == 0 &&
		in.MaxPrice == 0 && in.Condition == "" && in.Sort == "" && in.Offset == 0

	if unfilteredFirstPage {
		type browsePage struct {
			Listings []*models.Listing `json:"listings"`
			Total    int64             `json:"total"`
		}
		var page browsePage
		key := cache.ListingsBrowseKey(ctx)
		err := cache.Aside(ctx, key, &page, cache.ListTTL, func() error {
			var fetchErr error
			page.Listings, page.Total, fetchErr = s.listingRepo.Browse(ctx, filter)
			return fetchErr
		})
		if err != nil {
			return nil, 0, err
		}
		listings, total = page.Listings, page.Total
	} else {
		var err error
		listings, total, err = s.listingRepo.Browse(ctx, filter)
		if err != nil {
			return nil, 0, err
		}
	}

	if in.CurrentUserID != 0 {
		s.enrichFavorited(ctx, in.CurrentUserID, listings)
	}
	return listings, total, nil
}

// GetSellerListings returns a seller's listings. The seller themself (and
// admins) see every status; everyone else sees only active and sold.
func (s *ListingService) GetSellerListings(ctx context.Context, sellerID, currentUserID uint, limit, offset int) ([]*models.Listing, error) {
	statuses := []string{models.ListingStatusActive, models.ListingStatusSold}
	if sellerID == currentUserID {
		statuses = nil
	} else if currentUserID != 0 {
		admin, err := s.userIsAdmin(ctx, currentUserID)
		if err != nil {
			return nil, err
		}
		if admin {
			statuses = nil
		}
	}

	listings, err := s.listingRepo.GetBySellerID(ctx, sellerID, statuses, limit, offset)
	if err != nil {
		return nil, err
	}
	if currentUserID != 0 {
		s.enrichFavorited(ctx, currentUserID, listings)
	}
	return listings, nil
}

// UpdateListing applies seller edits. Any edit to an editable listing sends
// it back through moderation: status resets to pending and a previous
// rejection reason is cleared.
func (s *ListingService) UpdateListing(ctx context.Context, in UpdateListingInput) (*models.Listing, error) {
	listing, err := s.listingRepo.GetByID(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own listings")
	}
	if !listing.Editable() {
		return nil, models.NewValidationError("Listing can no longer be edited")
	}

	categoryID := listing.CategoryID
	if in.CategoryID != 0 {
		categoryID = in.CategoryID
	}
	imageCount := len(listing.Images)
	if in.Images != nil {
		imageCount = len(in.Images)
	}
	if err := s.validateContent(ctx, categoryID, in.Title, in.Description, in.Price, in.Condition, imageCount); err != nil {
		return nil, err
	}

	fromStatus := listing.Status
	listing.CategoryID = categoryID
	listing.Title = strings.TrimSpace(in.Title)
	listing.Description = strings.TrimSpace(in.Description)
	listing.Price = in.Price
	listing.Condition = in.Condition
	listing.Status = models.ListingStatusPending
	listing.RejectionReason = ""
	listing.ApprovedBy = nil
	listing.ApprovedAt = nil

	if err := s.listingRepo.Update(ctx, listing); err != nil {
		return nil, err
	}
	if in.Images != nil {
		if err := s.listingRepo.ReplaceImages(ctx, listing.ID, buildImages(in.Images)); err != nil {
			return nil, err
		}
	}

	if fromStatus != models.ListingStatusPending {
		observability.RecordStatusTransition(fromStatus, models.ListingStatusPending)
	}

	return s.listingRepo.GetByID(ctx, listing.ID)
}

// DeleteListing soft-deletes a listing. Sellers can delete their own;
// admins can delete any.
func (s *ListingService) DeleteListing(ctx context.Context, userID, listingID uint) error {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.SellerID != userID {
		admin, aerr := s.userIsAdmin(ctx, userID)
		if aerr != nil {
			return aerr
		}
		if !admin {
			return models.NewForbiddenError("You can only delete your own listings")
		}
	}
	if listing.Status == models.ListingStatusDeleted {
		return nil
	}

	if err := s.listingRepo.UpdateStatus(ctx, listingID, map[string]interface{}{
		"status": models.ListingStatusDeleted,
	}); err != nil {
		return err
	}
	observability.RecordStatusTransition(listing.Status, models.ListingStatusDeleted)

	if err := s.userRepo.AdjustListingsCount(ctx, listing.SellerID, -1); err != nil {
		slog.WarnContext(ctx, "failed to adjust listings count", "seller_id", listing.SellerID, "err", err)
	}
	return nil
}

// MarkSold transitions an active listing to sold. Only the seller can do this.
func (s *ListingService) MarkSold(ctx context.Context, userID, listingID uint) (*models.Listing, error) {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != userID {
		return nil, models.NewForbiddenError("Only the seller can mark a listing sold")
	}
	if listing.Status != models.ListingStatusActive {
		return nil, models.NewValidationError("Only active listings can be marked sold")
	}

	now := time.Now().UTC()
	if err := s.listingRepo.UpdateStatus(ctx, listingID, map[string]interface{}{
		"status":  models.ListingStatusSold,
		"sold_at": now,
	}); err != nil {
		return nil, err
	}
	observability.RecordStatusTransition(models.ListingStatusActive, models.ListingStatusSold)

	// Best-effort fan-out to users who saved the listing. The sale already
	// happened, so a notification failure only gets logged.
	if s.favoriteRepo != nil && s.notificationSvc != nil {
		if favoriterIDs, favErr := s.favoriteRepo.ListUserIDsByListing(ctx, listingID); favErr != nil {
			slog.WarnContext(ctx, "failed to load favoriters for sold listing", "listing_id", listingID, "err", favErr)
		} else if notifyErr := s.notificationSvc.NotifyListingSold(ctx, listing, favoriterIDs); notifyErr != nil {
			slog.WarnContext(ctx, "failed to notify favoriters of sale", "listing_id", listingID, "err", notifyErr)
		}
	}

	return s.listingRepo.GetByID(ctx, listingID)
}

// GetModerationQueue returns pending listings, oldest first, for admin review.
func (s *ListingService) GetModerationQueue(ctx context.Context, adminID uint, limit, offset int) ([]*models.Listing, int64, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, 0, err
	}
	return s.listingRepo.ListByStatus(ctx, models.ListingStatusPending, limit, offset)
}

// ApproveListing transitions a pending listing to active and notifies the seller.
func (s *ListingService) ApproveListing(ctx context.Context, adminID, listingID uint) (*models.Listing, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != models.ListingStatusPending {
		return nil, models.NewValidationError("Only pending listings can be approved")
	}

	now := time.Now().UTC()
	if err := s.listingRepo.UpdateStatus(ctx, listingID, map[string]interface{}{
		"status":           models.ListingStatusActive,
		"approved_by":      adminID,
		"approved_at":      now,
		"rejection_reason": "",
	}); err != nil {
		return nil, err
	}
	observability.RecordStatusTransition(models.ListingStatusPending, models.ListingStatusActive)

	if s.notificationSvc != nil {
		if err := s.notificationSvc.NotifyListingApproved(ctx, listing); err != nil {
			slog.WarnContext(ctx, "failed to notify seller of approval", "listing_id", listingID, "err", err)
		}
	}

	return s.listingRepo.GetByID(ctx, listingID)
}

// RejectListing transitions a pending listing to rejected with a required
// reason and notifies the seller.
func (s *ListingService) RejectListing(ctx context.Context, in RejectListingInput) (*models.Listing, error) {
	if err := s.requireAdmin(ctx, in.AdminID); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, models.NewValidationError("Rejection reason is required")
	}
	if len(reason) > validation.RejectionReasonMax {
		return nil, models.NewValidationError("Rejection reason too long (max 500 characters)")
	}

	listing, err := s.listingRepo.GetByID(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != models.ListingStatusPending {
		return nil, models.NewValidationError("Only pending listings can be rejected")
	}

	if err := s.listingRepo.UpdateStatus(ctx, in.ListingID, map[string]interface{}{
		"status":           models.ListingStatusRejected,
		"rejection_reason": reason,
	}); err != nil {
		return nil, err
	}
	observability.RecordStatusTransition(models.ListingStatusPending, models.ListingStatusRejected)

	if s.notificationSvc != nil {
		if err := s.notificationSvc.NotifyListingRejected(ctx, listing, reason); err != nil {
			slog.WarnContext(ctx, "failed to notify seller of rejection", "listing_id", in.ListingID, "err", err)
		}
	}

	return s.listingRepo.GetByID(ctx, in.ListingID)
}

func (s *ListingService) enrichFavorited(ctx context.Context, userID uint, listings []*models.Listing) {
	if len(listings) == 0 {
		return
	}
	ids := make([]uint, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
	}
	favIDs, err := s.listingRepo.GetFavoritedIDs(ctx, userID, ids)
	if err != nil {
		slog.WarnContext(ctx, "failed to load favorited ids", "user_id", userID, "err", err)
		return
	}
	favMap := make(map[uint]bool, len(favIDs))
	for _, id := range favIDs {
		favMap[id] = true
	}
	for _, l := range listings {
		l.Favorited = favMap[l.ID]
	}
}

func (s *ListingService) userIsAdmin(ctx context.Context, userID uint) (bool, error) {
	if userID == 0 || s.isAdmin == nil {
		return false, nil
	}
	return s.isAdmin(ctx, userID)
}

func (s *ListingService) requireAdmin(ctx context.Context, userID uint) error {
	admin, err := s.userIsAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !admin {
		return models.NewForbiddenError("Admin access required")
	}
	return nil
}
