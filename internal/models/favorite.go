package models

import "time"

// Favorite joins a user to a listing they saved. The pair is unique.
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_fav_pair" json:"user_id"`
	ListingID uint      `gorm:"not null;uniqueIndex:idx_fav_pair;index" json:"listing_id"`
	Listing   *Listing  `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
