package models

import (
	"time"

	"gorm.io/gorm"
)

// Listing statuses. A listing is created pending, goes active on admin
// approval, and terminates at sold, rejected or deleted.
const (
	ListingStatusDraft    = "draft"
	ListingStatusPending  = "pending"
	ListingStatusActive   = "active"
	ListingStatusSold     = "sold"
	ListingStatusRejected = "rejected"
	ListingStatusDeleted  = "deleted"
)

// Item conditions.
const (
	ConditionNew     = "new"
	ConditionLikeNew = "like_new"
	ConditionGood    = "good"
	ConditionFair    = "fair"
	ConditionPoor    = "poor"
)

// ValidCondition reports whether c is a known item condition.
func ValidCondition(c string) bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// Listing is a seller-owned item for sale with a moderation status.
type Listing struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SellerID    uint      `gorm:"not null;index" json:"seller_id"`
	Seller      *User     `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	CategoryID  uint      `gorm:"not null;index" json:"category_id"`
	Category    *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Price       float64   `gorm:"not null" json:"price"`
	Condition   string    `gorm:"not null" json:"condition"`
	Status      string    `gorm:"not null;default:'pending';index" json:"status"`

	// Moderation fields, written only by the moderation path.
	RejectionReason string     `json:"rejection_reason,omitempty"`
	ApprovedBy      *uint      `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	SoldAt          *time.Time `json:"sold_at,omitempty"`

	// Denormalized counters. ViewCount and FavoriteCount are updated with
	// atomic expressions, never read-modify-write.
	ViewCount     int `gorm:"default:0" json:"view_count"`
	FavoriteCount int `gorm:"default:0" json:"favorite_count"`
	MessageCount  int `gorm:"default:0" json:"message_count"`

	// Favorited indicates whether the requesting user favorited this listing (computed).
	Favorited bool `gorm:"-" json:"favorited"`

	Images []ListingImage `gorm:"foreignKey:ListingID" json:"images,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Editable reports whether a seller may still edit the listing.
// Sold and deleted listings are terminal for editing.
func (l *Listing) Editable() bool {
	switch l.Status {
	case ListingStatusDraft, ListingStatusPending, ListingStatusActive, ListingStatusRejected:
		return true
	}
	return false
}

// ListingImage is an ordered image belonging to exactly one listing.
// Exactly one image per listing should be flagged primary.
type ListingImage struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ListingID    uint      `gorm:"not null;index" json:"listing_id"`
	URL          string    `gorm:"not null" json:"url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	SortOrder    int       `gorm:"default:0" json:"sort_order"`
	IsPrimary    bool      `gorm:"default:false" json:"is_primary"`
	CreatedAt    time.Time `json:"created_at"`
}
