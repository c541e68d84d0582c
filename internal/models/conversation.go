package models

import (
	"time"

	"gorm.io/gorm"
)

// Message statuses.
const (
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
)

// Conversation is a buyer-seller message thread scoped to one listing.
// The (listing, buyer, seller) triple is unique; concurrent first-contact
// attempts converge on a single row via the composite unique index.
type Conversation struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	ListingID uint     `gorm:"not null;uniqueIndex:idx_conv_triple" json:"listing_id"`
	Listing   *Listing `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	BuyerID   uint     `gorm:"not null;uniqueIndex:idx_conv_triple;index" json:"buyer_id"`
	Buyer     *User    `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	SellerID  uint     `gorm:"not null;uniqueIndex:idx_conv_triple;index" json:"seller_id"`
	Seller    *User    `gorm:"foreignKey:SellerID" json:"seller,omitempty"`

	// Denormalized last-message fields, updated in the same transaction
	// that inserts the message.
	LastMessageID      *uint      `json:"last_message_id,omitempty"`
	LastMessageAt      *time.Time `json:"last_message_at,omitempty"`
	LastMessagePreview string     `json:"last_message_preview"`

	// Per-side unread counters.
	BuyerUnreadCount  int `gorm:"default:0" json:"buyer_unread_count"`
	SellerUnreadCount int `gorm:"default:0" json:"seller_unread_count"`

	Messages []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasParticipant reports whether userID is the buyer or the seller.
func (c *Conversation) HasParticipant(userID uint) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

// Counterpart returns the other participant's user ID.
func (c *Conversation) Counterpart(userID uint) uint {
	if c.BuyerID == userID {
		return c.SellerID
	}
	return c.BuyerID
}

// Message belongs to exactly one conversation. Content is immutable once
// created; only status and read_at change afterwards.
type Message struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	ConversationID uint          `gorm:"not null;index" json:"conversation_id"`
	Conversation   *Conversation `gorm:"foreignKey:ConversationID" json:"conversation,omitempty"`
	SenderID       uint          `gorm:"not null;index" json:"sender_id"`
	Sender         *User         `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Content        string        `gorm:"type:text;not null" json:"content"`
	Status         string        `gorm:"not null;default:'sent'" json:"status"`
	ReadAt         *time.Time    `json:"read_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}
