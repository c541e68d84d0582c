package service

import (
	"context"
	"log/slog"

	"campusmarket/internal/models"
	"campusmarket/internal/repository"
)

// FavoriteService provides favorite (watchlist) logic and keeps the
// denormalized favorite counter on listings in step.
type FavoriteService struct {
	favoriteRepo repository.FavoriteRepository
	listingRepo  repository.ListingRepository
}

// NewFavoriteService returns a new FavoriteService.
func NewFavoriteService(
	favoriteRepo repository.FavoriteRepository,
	listingRepo repository.ListingRepository,
) *FavoriteService {
	return &FavoriteService{
		favoriteRepo: favoriteRepo,
		listingRepo:  listingRepo,
	}
}

// AddFavorite favorites a listing for the user. Adding twice is idempotent;
// the counter only moves when a new row is actually created.
func (s *FavoriteService) AddFavorite(ctx context.Context, userID, listingID uint) error {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.Status != models.ListingStatusActive && listing.Status != models.ListingStatusSold {
		return models.NewNotFoundError("Listing", listingID)
	}
	if listing.SellerID == userID {
		return models.NewValidationError("You cannot favorite your own listing")
	}

	added, err := s.favoriteRepo.Add(ctx, userID, listingID)
	if err != nil {
		return err
	}
	if added {
		if err := s.listingRepo.AdjustFavoriteCount(ctx, listingID, 1); err != nil {
			slog.WarnContext(ctx, "failed to adjust favorite count", "listing_id", listingID, "err", err)
		}
	}
	return nil
}

// RemoveFavorite unfavorites a listing. Removing twice is idempotent.
func (s *FavoriteService) RemoveFavorite(ctx context.Context, userID, listingID uint) error {
	removed, err := s.favoriteRepo.Remove(ctx, userID, listingID)
	if err != nil {
		return err
	}
	if removed {
		if err := s.listingRepo.AdjustFavoriteCount(ctx, listingID, -1); err != nil {
			slog.WarnContext(ctx, "failed to adjust favorite count", "listing_id", listingID, "err", err)
		}
	}
	return nil
}

// ListFavorites returns the user's favorited listings, most recent first.
func (s *FavoriteService) ListFavorites(ctx context.Context, userID uint, limit, offset int) ([]*models.Listing, error) {
	favorites, err := s.favoriteRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	listings := make([]*models.Listing, 0, len(favorites))
	for _, fav := range favorites {
		if fav.Listing == nil {
			continue
		}
		fav.Listing.Favorited = true
		listings = append(listings, fav.Listing)
	}
	return listings, nil
}

// IsFavorited reports whether the user has favorited the listing.
func (s *FavoriteService) IsFavorited(ctx context.Context, userID, listingID uint) (bool, error) {
	return s.favoriteRepo.IsFavorited(ctx, userID, listingID)
}
