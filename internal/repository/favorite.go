package repository

import (
	"context"

	"campusmarket/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FavoriteRepository defines persistence operations for saved listings.
type FavoriteRepository interface {
	Add(ctx context.Context, userID, listingID uint) (bool, error)
	Remove(ctx context.Context, userID, listingID uint) (bool, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Favorite, error)
	ListUserIDsByListing(ctx context.Context, listingID uint) ([]uint, error)
	IsFavorited(ctx context.Context, userID, listingID uint) (bool, error)
}

type favoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository returns a new FavoriteRepository implementation.
func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

// Add inserts the favorite pair, ignoring duplicates. Returns whether a new
// row was created so callers can keep the denormalized count accurate.
func (r *favoriteRepository) Add(ctx context.Context, userID, listingID uint) (bool, error) {
	fav := models.Favorite{UserID: userID, ListingID: listingID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&fav)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *favoriteRepository) Remove(ctx context.Context, userID, listingID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&models.Favorite{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *favoriteRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Favorite, error) {
	var favorites []*models.Favorite
	err := readDB(r.db).WithContext(ctx).
		Preload("Listing").
		Preload("Listing.Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Listing.Seller").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&favorites).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return favorites, nil
}

// ListUserIDsByListing returns the IDs of every user who saved the listing.
func (r *favoriteRepository) ListUserIDsByListing(ctx context.Context, listingID uint) ([]uint, error) {
	var userIDs []uint
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.Favorite{}).
		Where("listing_id = ?", listingID).
		Pluck("user_id", &userIDs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return userIDs, nil
}

func (r *favoriteRepository) IsFavorited(ctx context.Context, userID, listingID uint) (bool, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
