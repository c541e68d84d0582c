package repository

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"campusmarket/internal/models"

	"gorm.io/gorm"
)

const previewMaxLength = 100

// ChatRepository defines persistence operations for conversations and messages.
type ChatRepository interface {
	GetOrCreateConversation(ctx context.Context, listingID, buyerID, sellerID uint) (*models.Conversation, bool, error)
	GetConversation(ctx context.Context, id uint) (*models.Conversation, error)
	GetUserConversations(ctx context.Context, userID uint, limit, offset int) ([]*models.Conversation, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessages(ctx context.Context, convID uint, limit, offset int) ([]*models.Message, error)
	MarkConversationRead(ctx context.Context, convID, readerID uint) error
	TotalUnread(ctx context.Context, userID uint) (int64, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository returns a new ChatRepository implementation.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// GetOrCreateConversation resolves the unique conversation for the
// (listing, buyer, seller) triple. Concurrent first-contact attempts race on
// the insert; the loser of the race hits the unique index and re-reads the
// winner's row. The second return value reports whether a new row was created.
func (r *chatRepository) GetOrCreateConversation(ctx context.Context, listingID, buyerID, sellerID uint) (*models.Conversation, bool, error) {
	find := func() (*models.Conversation, error) {
		var conv models.Conversation
		err := r.db.WithContext(ctx).
			Where("listing_id = ? AND buyer_id = ? AND seller_id = ?", listingID, buyerID, sellerID).
			First(&conv).Error
		if err != nil {
			return nil, err
		}
		return &conv, nil
	}

	if conv, err := find(); err == nil {
		return conv, false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, models.NewInternalError(err)
	}

	conv := &models.Conversation{
		ListingID: listingID,
		BuyerID:   buyerID,
		SellerID:  sellerID,
	}
	if err := r.db.WithContext(ctx).Create(conv).Error; err != nil {
		if isUniqueConstraintError(err) {
			existing, findErr := find()
			if findErr != nil {
				return nil, false, models.NewInternalError(findErr)
			}
			return existing, false, nil
		}
		return nil, false, models.NewInternalError(err)
	}
	return conv, true, nil
}

func (r *chatRepository) GetConversation(ctx context.Context, id uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := readDB(r.db).WithContext(ctx).
		Preload("Listing").
		Preload("Listing.Images", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_primary = ?", true)
		}).
		Preload("Buyer").
		Preload("Seller").
		First(&conv, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Conversation", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &conv, nil
}

func (r *chatRepository) GetUserConversations(ctx context.Context, userID uint, limit, offset int) ([]*models.Conversation, error) {
	var conversations []*models.Conversation
	err := readDB(r.db).WithContext(ctx).
		Preload("Listing").
		Preload("Listing.Images", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_primary = ?", true)
		}).
		Preload("Buyer").
		Preload("Seller").
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("last_message_at DESC NULLS LAST, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&conversations).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return conversations, nil
}

// CreateMessage inserts the message and updates the conversation's
// denormalized last-message fields plus the recipient's unread counter in a
// single transaction. A message and its conversation summary never diverge.
func (r *chatRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		if err := tx.First(&conv, msg.ConversationID).Error; err != nil {
			return err
		}

		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		unreadColumn := "seller_unread_count"
		if msg.SenderID == conv.SellerID {
			unreadColumn = "buyer_unread_count"
		}

		return tx.Model(&models.Conversation{}).
			Where("id = ?", conv.ID).
			Updates(map[string]interface{}{
				"last_message_id":      msg.ID,
				"last_message_at":      msg.CreatedAt,
				"last_message_preview": truncatePreview(msg.Content),
				unreadColumn:           gorm.Expr(unreadColumn+" + ?", 1),
			}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Conversation", msg.ConversationID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func truncatePreview(content string) string {
	if utf8.RuneCountInString(content) <= previewMaxLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewMaxLength])
}

func (r *chatRepository) GetMessages(ctx context.Context, convID uint, limit, offset int) ([]*models.Message, error) {
	var messages []*models.Message
	err := readDB(r.db).WithContext(ctx).
		Where("conversation_id = ?", convID).
		Preload("Sender").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	// Fetched DESC to page from the latest; clients expect chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// MarkConversationRead stamps all messages sent by the counterpart and zeroes
// the reader's unread counter. Calling it twice is a no-op.
func (r *chatRepository) MarkConversationRead(ctx context.Context, convID, readerID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		if err := tx.First(&conv, convID).Error; err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&models.Message{}).
			Where("conversation_id = ? AND sender_id != ? AND read_at IS NULL", convID, readerID).
			Updates(map[string]interface{}{
				"read_at": now,
				"status":  models.MessageStatusRead,
			}).Error; err != nil {
			return err
		}

		unreadColumn := "buyer_unread_count"
		if readerID == conv.SellerID {
			unreadColumn = "seller_unread_count"
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", convID).
			UpdateColumn(unreadColumn, 0).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Conversation", convID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// TotalUnread sums the user's unread counters across all conversations.
func (r *chatRepository) TotalUnread(ctx context.Context, userID uint) (int64, error) {
	var total int64
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Conversation{}).
		Select("COALESCE(SUM(CASE WHEN buyer_id = ? THEN buyer_unread_count ELSE seller_unread_count END), 0)", userID).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Scan(&total).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return total, nil
}
