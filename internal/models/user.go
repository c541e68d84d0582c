// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a verified student account on the marketplace.
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Email          string     `gorm:"unique;not null" json:"email"`
	Password       string     `gorm:"not null" json:"-"`
	FullName       string     `gorm:"not null" json:"full_name"`
	Username       string     `gorm:"uniqueIndex" json:"username"`
	AvatarURL      string     `json:"avatar_url"`
	Phone          string     `json:"phone"`
	Bio            string     `json:"bio"`
	UniversityName string     `json:"university_name"`
	IsVerified     bool       `gorm:"default:false" json:"is_verified"`
	IsAdmin        bool       `gorm:"default:false" json:"is_admin"`
	IsBanned       bool       `gorm:"default:false" json:"is_banned"`
	BanReason      string     `json:"ban_reason,omitempty"`
	BanUntil       *time.Time `json:"ban_until,omitempty"`
	// Denormalized counters, maintained by the listing service.
	ListingsCount int     `gorm:"default:0" json:"listings_count"`
	RatingAvg     float64 `gorm:"default:0" json:"rating_avg"`
	RatingCount   int     `gorm:"default:0" json:"rating_count"`

	LastSeenAt *time.Time     `json:"last_seen_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Listings []Listing `gorm:"foreignKey:SellerID" json:"listings,omitempty"`
}

// PublicProfile strips private fields for the public profile endpoint.
func (u *User) PublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":              u.ID,
		"full_name":       u.FullName,
		"username":        u.Username,
		"avatar_url":      u.AvatarURL,
		"bio":             u.Bio,
		"university_name": u.UniversityName,
		"listings_count":  u.ListingsCount,
		"rating_avg":      u.RatingAvg,
		"rating_count":    u.RatingCount,
		"created_at":      u.CreatedAt,
	}
}
