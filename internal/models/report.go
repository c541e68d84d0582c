package models

import "time"

// Report reasons.
const (
	ReportReasonSpam          = "spam"
	ReportReasonInappropriate = "inappropriate"
	ReportReasonFraud         = "fraud"
	ReportReasonWrongCategory = "wrong_category"
	ReportReasonDuplicate     = "duplicate"
	ReportReasonOther         = "other"
)

// Report statuses.
const (
	ReportStatusPending   = "pending"
	ReportStatusReviewed  = "reviewed"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

// ValidReportReason reports whether r is a known report reason.
func ValidReportReason(r string) bool {
	switch r {
	case ReportReasonSpam, ReportReasonInappropriate, ReportReasonFraud,
		ReportReasonWrongCategory, ReportReasonDuplicate, ReportReasonOther:
		return true
	}
	return false
}

// Report is a user complaint against a listing.
type Report struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ReporterID  uint       `gorm:"not null;index" json:"reporter_id"`
	ListingID   uint       `gorm:"not null;index" json:"listing_id"`
	Listing     *Listing   `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	Reason      string     `gorm:"not null" json:"reason"`
	Description string     `json:"description"`
	Status      string     `gorm:"not null;default:'pending';index" json:"status"`
	ReviewedBy  *uint      `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
