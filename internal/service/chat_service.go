package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"campusmarket/internal/models"
	"campusmarket/internal/notifications"
	"campusmarket/internal/observability"
	"campusmarket/internal/repository"
	"campusmarket/internal/validation"
)

// ChatService provides buyer-seller conversation logic. Conversations are
// always anchored to a listing; one conversation exists per
// (listing, buyer, seller) triple.
type ChatService struct {
	chatRepo    repository.ChatRepository
	listingRepo repository.ListingRepository
	userRepo    repository.UserRepository

	notifier        *notifications.Notifier
	notificationSvc *NotificationService
}

// StartConversationInput is the input for opening a conversation on a listing.
type StartConversationInput struct {
	BuyerID   uint
	ListingID uint
}

// SendMessageInput is the input for sending a message.
type SendMessageInput struct {
	UserID         uint
	ConversationID uint
	Content        string
}

// NewChatService returns a new ChatService. notifier and notificationSvc may
// be nil; realtime fanout degrades to plain persistence.
func NewChatService(
	chatRepo repository.ChatRepository,
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
	notifier *notifications.Notifier,
	notificationSvc *NotificationService,
) *ChatService {
	return &ChatService{
		chatRepo:        chatRepo,
		listingRepo:     listingRepo,
		userRepo:        userRepo,
		notifier:        notifier,
		notificationSvc: notificationSvc,
	}
}

// StartConversation opens (or returns the existing) conversation between the
// buyer and the listing's seller. Active and sold listings are contactable
// (buyers follow up on pickup after a sale); buyers cannot message their own
// listings.
func (s *ChatService) StartConversation(ctx context.Context, in StartConversationInput) (*models.Conversation, error) {
	listing, err := s.listingRepo.GetByID(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != models.ListingStatusActive && listing.Status != models.ListingStatusSold {
		return nil, models.NewValidationError("Listing is not available for messaging")
	}
	if listing.SellerID == in.BuyerID {
		return nil, models.NewValidationError("You cannot message your own listing")
	}

	buyer, err := s.userRepo.GetByID(ctx, in.BuyerID)
	if err != nil {
		return nil, err
	}
	if buyer.IsBanned {
		return nil, models.NewForbiddenError("Banned users cannot start conversations")
	}

	conv, created, err := s.chatRepo.GetOrCreateConversation(ctx, in.ListingID, in.BuyerID, listing.SellerID)
	if err != nil {
		return nil, err
	}
	if created {
		return s.chatRepo.GetConversation(ctx, conv.ID)
	}
	return conv, nil
}

// GetConversations returns the user's conversations, most recent activity first.
func (s *ChatService) GetConversations(ctx context.Context, userID uint, limit, offset int) ([]*models.Conversation, error) {
	return s.chatRepo.GetUserConversations(ctx, userID, limit, offset)
}

// GetConversationForUser returns the conversation if the user participates in it.
func (s *ChatService) GetConversationForUser(ctx context.Context, convID, userID uint) (*models.Conversation, error) {
	conv, err := s.chatRepo.GetConversation(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, models.NewForbiddenError("You are not a participant in this conversation")
	}
	return conv, nil
}

// SendMessage persists a message, bumps the conversation's denormalized
// last-message fields and the counterpart's unread counter, then fans it out
// to connected clients and notifies the recipient.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	content := strings.TrimSpace(in.Content)
	if err := validation.ValidateMessageContent(content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	conv, err := s.chatRepo.GetConversation(ctx, in.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(in.UserID) {
		return nil, models.NewForbiddenError("You are not a participant in this conversation")
	}

	sender, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if sender.IsBanned {
		return nil, models.NewForbiddenError("Banned users cannot send messages")
	}

	message := &models.Message{
		ConversationID: in.ConversationID,
		SenderID:       in.UserID,
		Content:        content,
	}
	if err := s.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}
	message.Sender = sender

	observability.MessagesSentTotal.Inc()

	if err := s.listingRepo.IncrementMessageCount(ctx, conv.ListingID); err != nil {
		slog.WarnContext(ctx, "failed to increment message count", "listing_id", conv.ListingID, "err", err)
	}

	s.fanOutMessage(ctx, conv, message)

	return message, nil
}

func (s *ChatService) fanOutMessage(ctx context.Context, conv *models.Conversation, message *models.Message) {
	recipientID := conv.Counterpart(message.SenderID)

	if s.notifier != nil {
		payload, err := json.Marshal(notifications.ChatMessage{
			Type:           "message",
			ConversationID: conv.ID,
			UserID:         message.SenderID,
			Payload:        message,
		})
		if err == nil {
			if pubErr := s.notifier.PublishChatMessage(ctx, conv.ID, string(payload)); pubErr != nil {
				slog.WarnContext(ctx, "failed to publish chat message", "conversation_id", conv.ID, "err", pubErr)
			}
		}
	}

	if s.notificationSvc != nil {
		preview := message.Content
		if len(preview) > 100 {
			preview = string([]rune(preview)[:100])
		}
		if err := s.notificationSvc.NotifyNewMessage(ctx, recipientID, message.Sender, conv, preview); err != nil {
			slog.WarnContext(ctx, "failed to notify message recipient", "recipient_id", recipientID, "err", err)
		}
	}
}

// GetMessages returns a page of messages in chronological order
// (participant check applied).
func (s *ChatService) GetMessages(ctx context.Context, convID, userID uint, limit, offset int) ([]*models.Message, error) {
	conv, err := s.chatRepo.GetConversation(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, models.NewForbiddenError("You are not a participant in this conversation")
	}
	return s.chatRepo.GetMessages(ctx, convID, limit, offset)
}

// MarkRead marks every message from the counterpart as read and zeroes the
// reader's unread counter. Repeated calls are no-ops.
func (s *ChatService) MarkRead(ctx context.Context, convID, userID uint) error {
	conv, err := s.chatRepo.GetConversation(ctx, convID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(userID) {
		return models.NewForbiddenError("You are not a participant in this conversation")
	}
	if err := s.chatRepo.MarkConversationRead(ctx, convID, userID); err != nil {
		return err
	}
	if s.notifier != nil {
		if err := s.notifier.PublishReadReceipt(ctx, convID, userID); err != nil {
			slog.WarnContext(ctx, "failed to publish read receipt", "conversation_id", convID, "err", err)
		}
	}
	return nil
}

// UnreadCount returns the user's total unread messages across all conversations.
func (s *ChatService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.chatRepo.TotalUnread(ctx, userID)
}

// Typing publishes a typing indicator to the conversation.
func (s *ChatService) Typing(ctx context.Context, convID, userID uint, isTyping bool) error {
	conv, err := s.chatRepo.GetConversation(ctx, convID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(userID) {
		return models.NewForbiddenError("You are not a participant in this conversation")
	}
	if s.notifier == nil {
		return nil
	}
	username := ""
	if user, uerr := s.userRepo.GetByID(ctx, userID); uerr == nil && user != nil {
		username = user.Username
	}
	return s.notifier.PublishTypingIndicator(ctx, convID, userID, username, isTyping)
}
