// Package service provides application business logic (listings, chat, moderation, etc.).
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"campusmarket/internal/models"
	"campusmarket/internal/notifications"
	"campusmarket/internal/observability"
	"campusmarket/internal/repository"
)

// NotificationService persists notifications and fans them out over Redis
// pub/sub so connected websocket clients see them immediately.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	notifier         *notifications.Notifier
}

// NewNotificationService returns a new NotificationService. notifier may be
// nil, in which case notifications are persisted but not pushed.
func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	notifier *notifications.Notifier,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		notifier:         notifier,
	}
}

// Notify persists the notification and publishes it to the user's channel.
// Publish failures are logged, not returned: the notification is durable in
// the database and the client will see it on the next poll.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) error {
	if n.UserID == 0 {
		return models.NewValidationError("Notification requires a user")
	}
	if n.Title == "" {
		return models.NewValidationError("Notification requires a title")
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return err
	}

	observability.NotificationsPublished.WithLabelValues(n.Type).Inc()

	if s.notifier != nil {
		payload, err := json.Marshal(map[string]interface{}{
			"type":    "notification",
			"payload": n,
		})
		if err == nil {
			if pubErr := s.notifier.PublishUser(ctx, n.UserID, string(payload)); pubErr != nil {
				slog.WarnContext(ctx, "failed to publish notification", "user_id", n.UserID, "err", pubErr)
			}
		}
	}

	return nil
}

// NotifyListingApproved tells the seller their listing went live.
func (s *NotificationService) NotifyListingApproved(ctx context.Context, listing *models.Listing) error {
	return s.Notify(ctx, &models.Notification{
		UserID:           listing.SellerID,
		Type:             models.NotificationTypeListingApproved,
		Title:            "Listing approved",
		Body:             fmt.Sprintf("Your listing %q is now visible to buyers.", listing.Title),
		RelatedListingID: &listing.ID,
		ActionURL:        fmt.Sprintf("/listings/%d", listing.ID),
	})
}

// NotifyListingRejected tells the seller their listing was rejected and why.
func (s *NotificationService) NotifyListingRejected(ctx context.Context, listing *models.Listing, reason string) error {
	return s.Notify(ctx, &models.Notification{
		UserID:           listing.SellerID,
		Type:             models.NotificationTypeListingRejected,
		Title:            "Listing rejected",
		Body:             fmt.Sprintf("Your listing %q was rejected: %s", listing.Title, reason),
		RelatedListingID: &listing.ID,
		ActionURL:        fmt.Sprintf("/listings/%d/edit", listing.ID),
	})
}

// NotifyListingSold tells everyone who favorited the listing that it is gone.
func (s *NotificationService) NotifyListingSold(ctx context.Context, listing *models.Listing, favoriterIDs []uint) error {
	var firstErr error
	for _, userID := range favoriterIDs {
		if userID == listing.SellerID {
			continue
		}
		err := s.Notify(ctx, &models.Notification{
			UserID:           userID,
			Type:             models.NotificationTypeListingSold,
			Title:            "Saved listing sold",
			Body:             fmt.Sprintf("%q has been sold.", listing.Title),
			RelatedListingID: &listing.ID,
			ActionURL:        fmt.Sprintf("/listings/%d", listing.ID),
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NotifyNewMessage tells the recipient about a new chat message.
func (s *NotificationService) NotifyNewMessage(ctx context.Context, recipientID uint, sender *models.User, conv *models.Conversation, preview string) error {
	title := "New message"
	if sender != nil && sender.Username != "" {
		title = fmt.Sprintf("New message from %s", sender.Username)
	}
	n := &models.Notification{
		UserID:           recipientID,
		Type:             models.NotificationTypeMessage,
		Title:            title,
		Body:             preview,
		RelatedListingID: &conv.ListingID,
		ActionURL:        fmt.Sprintf("/conversations/%d", conv.ID),
	}
	if sender != nil {
		n.RelatedUserID = &sender.ID
	}
	return s.Notify(ctx, n)
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint, limit, offset int) ([]*models.Notification, error) {
	return s.notificationRepo.ListByUser(ctx, userID, limit, offset)
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	return s.notificationRepo.MarkRead(ctx, userID, notificationID)
}

// MarkAllRead marks all of the user's notifications as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

// CountUnread returns the user's unread notification count.
func (s *NotificationService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

// Delete removes one of the user's notifications.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID uint) error {
	return s.notificationRepo.Delete(ctx, userID, notificationID)
}

// Broadcast publishes a system notice to every connected user without
// persisting per-user rows.
func (s *NotificationService) Broadcast(ctx context.Context, title, body string) error {
	if s.notifier == nil {
		return nil
	}
	payload, err := json.Marshal(map[string]interface{}{
		"type": "notification",
		"payload": map[string]string{
			"type":  models.NotificationTypeSystem,
			"title": title,
			"body":  body,
		},
	})
	if err != nil {
		return err
	}
	return s.notifier.PublishBroadcast(ctx, string(payload))
}
