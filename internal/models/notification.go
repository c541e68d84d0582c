package models

import "time"

// Notification types.
const (
	NotificationTypeMessage         = "message"
	NotificationTypeListingApproved = "listing_approved"
	NotificationTypeListingRejected = "listing_rejected"
	NotificationTypeListingSold     = "listing_sold"
	NotificationTypeSystem          = "system"
)

// Notification is a per-user fan-out record.
type Notification struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;index" json:"user_id"`
	Type             string     `gorm:"not null" json:"type"`
	Title            string     `gorm:"not null" json:"title"`
	Body             string     `json:"body"`
	RelatedListingID *uint      `json:"related_listing_id,omitempty"`
	RelatedUserID    *uint      `json:"related_user_id,omitempty"`
	ActionURL        string     `json:"action_url,omitempty"`
	IsRead           bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt           *time.Time `json:"read_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
