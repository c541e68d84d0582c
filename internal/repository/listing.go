package repository

import (
	"context"
	"errors"

	"campusmarket/internal/cache"
	"campusmarket/internal/models"

	"gorm.io/gorm"
)

// ListingFilter narrows Browse results. Zero values mean "no constraint".
type ListingFilter struct {
	CategoryID uint
	Query      string
	MinPrice   float64
	MaxPrice   float64
	Condition  string
	Sort       string
	Limit      int
	Offset     int
}

// ListingRepository defines persistence operations for listings.
type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id uint) (*models.Listing, error)
	Browse(ctx context.Context, filter ListingFilter) ([]*models.Listing, int64, error)
	GetBySellerID(ctx context.Context, sellerID uint, statuses []string, limit, offset int) ([]*models.Listing, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.Listing, int64, error)
	Update(ctx context.Context, listing *models.Listing) error
	UpdateStatus(ctx context.Context, id uint, updates map[string]interface{}) error
	ReplaceImages(ctx context.Context, listingID uint, images []models.ListingImage) error
	IncrementViewCount(ctx context.Context, id uint) error
	AdjustFavoriteCount(ctx context.Context, id uint, delta int) error
	IncrementMessageCount(ctx context.Context, id uint) error
	GetFavoritedIDs(ctx context.Context, userID uint, listingIDs []uint) ([]uint, error)
}

type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository returns a new ListingRepository implementation.
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

// Create inserts the listing together with its images in one transaction so a
// partially-imaged listing can never be observed.
func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(listing).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.BumpListingsVersion(ctx)
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id uint) (*models.Listing, error) {
	var listing models.Listing
	if err := readDB(r.db).WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Seller").
		Preload("Category").
		First(&listing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Listing", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &listing, nil
}

// Browse returns active listings matching the filter plus the total count for
// pagination headers.
func (r *listingRepository) Browse(ctx context.Context, filter ListingFilter) ([]*models.Listing, int64, error) {
	base := readDB(r.db).WithContext(ctx).
		Model(&models.Listing{}).
		Where("status = ?", models.ListingStatusActive)

	if filter.CategoryID != 0 {
		base = base.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Condition != "" {
		base = base.Where("condition = ?", filter.Condition)
	}
	if filter.MinPrice > 0 {
		base = base.Where("price >= ?", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		base = base.Where("price <= ?", filter.MaxPrice)
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		base = base.Where("title ILIKE ? OR description ILIKE ?", like, like)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var listings []*models.Listing
	if err := applyListingSort(base, filter.Sort).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Seller").
		Preload("Category").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&listings).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return listings, total, nil
}

// applyListingSort appends the ORDER BY clause for the requested sort type.
func applyListingSort(db *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case "price_asc":
		return db.Order("price ASC, created_at DESC")
	case "price_desc":
		return db.Order("price DESC, created_at DESC")
	case "most_viewed":
		return db.Order("view_count DESC, created_at DESC")
	default: // "newest" and anything unrecognized
		return db.Order("created_at DESC")
	}
}

func (r *listingRepository) GetBySellerID(ctx context.Context, sellerID uint, statuses []string, limit, offset int) ([]*models.Listing, error) {
	q := readDB(r.db).WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Category").
		Where("seller_id = ?", sellerID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var listings []*models.Listing
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&listings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

func (r *listingRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.Listing, int64, error) {
	base := readDB(r.db).WithContext(ctx).
		Model(&models.Listing{}).
		Where("status = ?", status)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var listings []*models.Listing
	if err := base.
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Seller").
		Preload("Category").
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&listings).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return listings, total, nil
}

func (r *listingRepository) Update(ctx context.Context, listing *models.Listing) error {
	if err := r.db.WithContext(ctx).Save(listing).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateListing(ctx, listing.ID)
	cache.BumpListingsVersion(ctx)
	return nil
}

// UpdateStatus applies a partial column update, used for moderation and
// lifecycle transitions where the full row must not be rewritten.
func (r *listingRepository) UpdateStatus(ctx context.Context, id uint, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Listing{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Listing", id)
	}
	cache.InvalidateListing(ctx, id)
	cache.BumpListingsVersion(ctx)
	return nil
}

// ReplaceImages swaps the listing's image set atomically.
func (r *listingRepository) ReplaceImages(ctx context.Context, listingID uint, images []models.ListingImage) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", listingID).Delete(&models.ListingImage{}).Error; err != nil {
			return err
		}
		for i := range images {
			images[i].ID = 0
			images[i].ListingID = listingID
		}
		if len(images) == 0 {
			return nil
		}
		return tx.Create(&images).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateListing(ctx, listingID)
	return nil
}

func (r *listingRepository) IncrementViewCount(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Listing{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func (r *listingRepository) AdjustFavoriteCount(ctx context.Context, id uint, delta int) error {
	err := r.db.WithContext(ctx).Model(&models.Listing{}).
		Where("id = ?", id).
		UpdateColumn("favorite_count", gorm.Expr("GREATEST(favorite_count + ?, 0)", delta)).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateListing(ctx, id)
	return nil
}

func (r *listingRepository) IncrementMessageCount(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Listing{}).
		Where("id = ?", id).
		UpdateColumn("message_count", gorm.Expr("message_count + 1")).Error
}

func (r *listingRepository) GetFavoritedIDs(ctx context.Context, userID uint, listingIDs []uint) ([]uint, error) {
	if len(listingIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND listing_id IN ?", userID, listingIDs).
		Pluck("listing_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
